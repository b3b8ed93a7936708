package deallocz

import (
	"runtime"
	"sync/atomic"
)

// spinLock is an ordinary short-hold busy-wait lock, used the same way
// the source profiler uses absl::base_internal::SpinLock: the registry
// lock and the arena lock are never held across anything that could
// block, so a spin loop beats a full mutex park/wake cycle. Go's
// scheduler cooperates via runtime.Gosched so a spinning goroutine
// doesn't starve others on a GOMAXPROCS=1 build.
type spinLock struct {
	locked atomic.Bool
}

func (l *spinLock) Lock() {
	for !l.locked.CompareAndSwap(false, true) {
		runtime.Gosched()
	}
}

func (l *spinLock) Unlock() {
	l.locked.Store(false)
}

// arena is the backing store for the profiler's own containers. The
// source implementation routes every profiler allocation through a
// dedicated low-level arena so that profiling an allocator never
// recurses into that same allocator. Go has no equivalent hook to
// intercept or bypass — the runtime allocator has no notion of "the
// allocator under observation" — so the reentrancy concern the source
// arena exists to solve does not apply here. What does carry over
// faithfully is the *lifecycle*: a single shared, refcounted resource
// that is created on first reference and torn down on last release,
// with a stable pointer for every thread holding a reference (testable
// property 7).
type arena struct {
	// _ keeps arena non-zero-size: two *arena values of a zero-size type
	// can alias the same address, which would break the pointer-identity
	// assertions in arena_test.go (same arena while refcount > 0, a fresh
	// one once it returns to zero).
	_ [1]byte
}

func newArena() *arena {
	return &arena{}
}

var (
	arenaLock     spinLock
	sharedArena   *arena
	arenaRefcount uint32
)

// ArenaRef is a reference to the process-wide arena. Every Profiler and
// every emitted Profile holds exactly one, acquired via acquireArena and
// given up via Release. Go has no destructors, so callers that want the
// property-7 guarantee (arena pointer nil and refcount zero once every
// consumer is done) must call Release explicitly — Profiler.Close and
// Profile.Close do this for you.
type ArenaRef struct {
	released atomic.Bool
	a        *arena
}

func acquireArena() *ArenaRef {
	arenaLock.Lock()
	if arenaRefcount == 0 {
		sharedArena = newArena()
	}
	arenaRefcount++
	a := sharedArena
	arenaLock.Unlock()
	return &ArenaRef{a: a}
}

// Release drops this reference. It is idempotent: calling it more than
// once has no additional effect, matching "destruction without explicit
// Stop is equivalent to Stop followed by discarding the result" for the
// arena's own lifecycle.
func (r *ArenaRef) Release() {
	if r == nil || !r.released.CompareAndSwap(false, true) {
		return
	}
	arenaLock.Lock()
	arenaRefcount--
	if arenaRefcount == 0 {
		sharedArena = nil
	}
	arenaLock.Unlock()
}

func (r *ArenaRef) arena() *arena {
	return r.a
}

// ArenaLiveRefs reports the process-wide arena refcount. It exists for
// tests exercising testable property 7 (arena torn down once every
// consumer drops its reference); production code has no use for it.
func ArenaLiveRefs() uint32 {
	arenaLock.Lock()
	defer arenaLock.Unlock()
	return arenaRefcount
}
