package deallocz

import (
	"sync/atomic"
	"time"
)

// fakeEnv is a scripted HostEnv test double: each field is read fresh per
// call, so a test can mutate cpu/thread/now between a malloc and its
// matching free to drive specific matching buckets.
type fakeEnv struct {
	cpu      atomic.Int64
	thread   atomic.Int64
	now      atomic.Int64 // unix nanos
	stackSeq atomic.Uint64
}

func newFakeEnv() *fakeEnv {
	e := &fakeEnv{}
	e.now.Store(time.Now().UnixNano())
	return e
}

func (e *fakeEnv) CurrentCPU() int {
	return int(e.cpu.Load())
}

func (e *fakeEnv) CurrentThreadID() int64 {
	return e.thread.Load()
}

func (e *fakeEnv) Now() time.Time {
	return time.Unix(0, e.now.Load())
}

func (e *fakeEnv) advance(d time.Duration) {
	e.now.Add(int64(d))
}

// CaptureStack returns a single-frame stack whose address is unique per
// call, unless the test wants identical stacks (use fixedStack instead).
func (e *fakeEnv) CaptureStack(skip int) (stack [MaxStackDepth]uintptr, depth int) {
	stack[0] = uintptr(e.stackSeq.Add(1))
	return stack, 1
}

// fixedStack returns a HostEnv.CaptureStack-compatible stack literal for
// tests that need two samples to collide into the same aggregation key.
func fixedStack(addrs ...uintptr) [MaxStackDepth]uintptr {
	var s [MaxStackDepth]uintptr
	copy(s[:], addrs)
	return s
}
