package deallocz

import (
	"sync/atomic"
	"time"
)

// ProfileType tags the kind of profile an emitted snapshot represents.
// The core only ever produces Lifetimes, but the type exists so a
// consumer handling several profile kinds from one source can switch on
// it without an import cycle back into this package.
type ProfileType int

const ProfileTypeLifetimes ProfileType = 1

func (t ProfileType) String() string {
	if t == ProfileTypeLifetimes {
		return "lifetimes"
	}
	return "unknown"
}

// Profile is the immutable snapshot returned by ProfilerHandle.Stop
// (C8). It owns the frozen aggregation table and one arena reference,
// and remains readable after the Profiler and Registry that produced it
// are gone (spec §3's "Emitted profile" lifetime, testable property 6).
type Profile struct {
	table    *Table
	arenaRef *ArenaRef
	closed   atomic.Bool
}

func emptyProfile() *Profile {
	return &Profile{table: newTable(), arenaRef: acquireArena()}
}

// Iterate visits every sample in the profile. See Table.Iterate for the
// ordering and pairing guarantees.
func (p *Profile) Iterate(visit func(OutputSample)) {
	if p.table == nil {
		return
	}
	p.table.Iterate(visit)
}

// Type returns the fixed Lifetimes tag.
func (p *Profile) Type() ProfileType {
	return ProfileTypeLifetimes
}

// Duration returns the profiler's stop time minus its start time.
func (p *Profile) Duration() time.Duration {
	if p.table == nil {
		return 0
	}
	return p.table.Duration()
}

// Close releases the profile's arena reference. It is idempotent and
// safe to call more than once; it is the Go stand-in for the source's
// destructor-driven refcount release (Go has no destructors).
func (p *Profile) Close() {
	if !p.closed.CompareAndSwap(false, true) {
		return
	}
	p.arenaRef.Release()
}
