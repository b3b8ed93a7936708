package deallocz

// Profiler is one active profiler instance (C6): an in-flight map from
// allocation handle to allocation Sample, and an aggregation Table that
// grows as frees are matched.
//
// Profiler has no internal lock. Every field it touches is reached only
// through Registry's spin lock (Registry.ReportMalloc/ReportFree hold it
// for the whole broadcast, and Stop takes it via Registry.remove), so the
// registry's single serialized path is what makes concurrent access to a
// Profiler's in-flight map and table safe — see spec §4.6 and §5. Do not
// call ReportMalloc/ReportFree on a Profiler directly from multiple
// goroutines; go through its Registry.
type Profiler struct {
	arenaRef *ArenaRef
	env      HostEnv
	registry *Registry
	next     *Profiler

	inFlight map[Handle]Sample
	table    *Table
	stopped  bool
}

func newProfiler(r *Registry) *Profiler {
	return &Profiler{
		arenaRef: acquireArena(),
		env:      r.env,
		registry: r,
		inFlight: make(map[Handle]Sample),
		table:    newTable(),
	}
}

// ReportMalloc upserts an in-flight entry keyed by the stack trace's
// handle. A second ReportMalloc for the same handle overwrites the
// first (idempotent upsert, spec §4.5).
func (p *Profiler) ReportMalloc(st StackTrace) {
	depth := clampDepth(st.Depth)

	var sample Sample
	sample.Depth = depth
	copy(sample.Stack[:depth], st.Stack[:depth])
	sample.RequestedSize = st.RequestedSize
	sample.RequestedAlignment = st.RequestedAlignment
	sample.AllocatedSize = st.AllocatedSize
	sample.CreationTime = st.AllocationTime
	sample.CPU = p.env.CurrentCPU()
	sample.ThreadID = p.env.CurrentThreadID()
	// Divide by requested size, not allocated size, to get an
	// object-count weight — matches the original source exactly.
	sample.Weight = st.Weight / float64(st.RequestedSize+1)

	p.inFlight[st.Handle] = sample
}

// ReportFree matches handle against the in-flight map. An absent handle
// is a no-op (orphan tolerance, spec §8 property 2): the allocation
// either predates this profiler or belongs to a different one.
func (p *Profiler) ReportFree(handle Handle) {
	alloc, ok := p.inFlight[handle]
	if !ok {
		return
	}
	delete(p.inFlight, handle)

	var dealloc Sample
	stack, depth := p.env.CaptureStack(1)
	dealloc.Stack = stack
	dealloc.Depth = clampDepth(depth)
	dealloc.AllocatedSize = alloc.AllocatedSize
	dealloc.RequestedSize = alloc.RequestedSize
	dealloc.RequestedAlignment = alloc.RequestedAlignment
	dealloc.CreationTime = p.env.Now()
	dealloc.CPU = p.env.CurrentCPU()
	dealloc.ThreadID = p.env.CurrentThreadID()

	p.table.AddTrace(alloc, dealloc)
}

// Stop freezes the aggregation table, unlinks the profiler from its
// registry, and hands ownership of the table to a new Profile. Calling
// Stop a second time is a no-op that returns an empty, already-closeable
// Profile (spec §4.5).
func (p *Profiler) Stop() *Profile {
	if p.stopped {
		return emptyProfile()
	}
	p.stopped = true

	p.table.SetStopTime()
	p.registry.remove(p)

	tbl := p.table
	p.table = nil

	profileRef := acquireArena()
	p.arenaRef.Release()
	p.arenaRef = nil

	return &Profile{table: tbl, arenaRef: profileRef}
}

// Close stops the profiler if it hasn't been already and discards the
// resulting profile. This is the Go-idiomatic stand-in for "destruction
// without explicit Stop": Go has no destructors, so callers that don't
// want the emitted profile must call Close instead of just letting the
// Profiler go out of scope, or the arena reference it holds is never
// released.
func (p *Profiler) Close() {
	if p.stopped {
		return
	}
	p.Stop().Close()
}
