// Package deallocz pairs each sampled allocation with its eventual free
// and aggregates object-lifetime statistics, the way tcmalloc's
// deallocation-lifetime profiler does.
//
// The core receives only already-sampled events (the sampling decision
// itself, call-stack capture, and per-CPU/per-thread identity are
// supplied by the caller through the HostEnv interface and are treated
// as opaque collaborators). A Registry fans ReportMalloc/ReportFree
// events to every active Profiler; each Profiler matches allocations to
// frees by handle and feeds matched pairs into an aggregation Table;
// stopping a Profiler freezes its table into a Profile that can be read
// independently, and may outlive the Profiler and Registry that produced
// it.
package deallocz
