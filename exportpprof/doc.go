// Package exportpprof builds a github.com/google/pprof/profile.Profile from
// an emitted deallocz.Profile, the write-direction counterpart of the
// pprof-parsing code elsewhere in this codebase: it resolves each captured
// program counter with runtime.CallersFrames to build real pprof Locations and
// Functions, rather than reading them back out of someone else's protobuf.
package exportpprof
