package deallocz

import "time"

// HostEnv supplies the primitives the spec treats as opaque collaborators
// owned by the enclosing allocator: current CPU, current thread, call
// stack capture, and wall-clock time (spec §6's "current_cpu(),
// current_thread_id(), capture_stack(...), now()"). The core never makes
// a sampling decision and never interprets a stack frame — it only
// records what HostEnv reports.
//
// Package hostenv provides OS-backed implementations; tests use a fake
// that returns scripted values.
type HostEnv interface {
	CurrentCPU() int
	CurrentThreadID() int64
	// CaptureStack fills stack with up to MaxStackDepth program counters,
	// skipping the given number of innermost frames, and returns the
	// number of frames captured.
	CaptureStack(skip int) (stack [MaxStackDepth]uintptr, depth int)
	Now() time.Time
}
