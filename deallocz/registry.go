package deallocz

import "github.com/coral-mesh/deallocprof/internal/errors"

// Registry is the process-wide intrusive singly-linked list of active
// profilers (C7). Every sampled malloc/free reaches every active
// profiler through Registry.ReportMalloc/ReportFree, which hold the
// registry's spin lock for the whole broadcast — the key concurrency
// decision the rest of the package relies on (spec §4.6, §5).
type Registry struct {
	lock spinLock
	head *Profiler
	env  HostEnv
}

// NewRegistry creates a registry that uses env for current-CPU,
// current-thread, stack-capture, and clock primitives. Every profiler
// started from this registry shares the same env.
func NewRegistry(env HostEnv) *Registry {
	return &Registry{env: env}
}

// Start creates a new Profiler, links it into the registry, and returns
// a handle. This is the spec's `start_profiler(registry) -> Handle`.
func (r *Registry) Start() *ProfilerHandle {
	p := newProfiler(r)
	r.add(p)
	return &ProfilerHandle{profiler: p}
}

func (r *Registry) add(p *Profiler) {
	r.lock.Lock()
	p.next = r.head
	r.head = p
	r.lock.Unlock()
}

// remove unlinks p. Absence is a programming error: every Profiler
// passed here came from this registry's own Start, so failing to find
// it means the profiler was already removed (double Stop raced outside
// this package) or belongs to a different registry (spec §7: "Registry
// invariant violation ... fatal assertion").
func (r *Registry) remove(p *Profiler) {
	r.lock.Lock()
	defer r.lock.Unlock()

	link := &r.head
	cur := r.head
	for cur != p {
		errors.Assert(cur != nil, "deallocz: registry.remove: profiler is not linked into this registry")
		link = &cur.next
		cur = cur.next
	}
	*link = cur.next
}

// ReportMalloc broadcasts a sampled allocation to every active profiler,
// in the order they appear in the registry's list.
func (r *Registry) ReportMalloc(st StackTrace) {
	r.lock.Lock()
	defer r.lock.Unlock()

	for cur := r.head; cur != nil; cur = cur.next {
		cur.ReportMalloc(st)
	}
}

// ReportFree broadcasts a sampled deallocation to every active profiler.
func (r *Registry) ReportFree(handle Handle) {
	r.lock.Lock()
	defer r.lock.Unlock()

	for cur := r.head; cur != nil; cur = cur.next {
		cur.ReportFree(handle)
	}
}

// ActiveCount returns the number of profilers currently linked into the
// registry. Intended for tests and for a CLI status line, not the hot
// path.
func (r *Registry) ActiveCount() int {
	r.lock.Lock()
	defer r.lock.Unlock()

	n := 0
	for cur := r.head; cur != nil; cur = cur.next {
		n++
	}
	return n
}

// ProfilerHandle is the non-copyable handle returned by Registry.Start.
// Stopping it consumes the handle and yields an emitted Profile — the
// spec's `Handle::stop() -> Profile`.
type ProfilerHandle struct {
	profiler *Profiler
}

// Stop consumes the handle and returns the emitted profile.
func (h *ProfilerHandle) Stop() *Profile {
	return h.profiler.Stop()
}

// Close is equivalent to Stop followed by discarding the result — use it
// when the caller only wants the profiler to stop observing, not to read
// what it collected.
func (h *ProfilerHandle) Close() {
	h.profiler.Close()
}
