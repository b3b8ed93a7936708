package hostenv

import (
	"runtime"
	"time"

	"github.com/coral-mesh/deallocprof/deallocz"
)

// env is the shared implementation; only CurrentCPU/CurrentThreadID differ
// per platform (see env_linux.go / env_other.go).
type env struct{}

// New returns the HostEnv implementation for the running platform.
func New() deallocz.HostEnv {
	return env{}
}

func (env) Now() time.Time {
	return time.Now()
}

// CaptureStack walks the calling goroutine's stack with runtime.Callers,
// skipping skip+2 frames to exclude this function and runtime.Callers
// itself from the caller's point of view.
func (env) CaptureStack(skip int) (stack [deallocz.MaxStackDepth]uintptr, depth int) {
	var pcs [deallocz.MaxStackDepth]uintptr
	n := runtime.Callers(skip+2, pcs[:])
	copy(stack[:], pcs[:n])
	return stack, n
}
