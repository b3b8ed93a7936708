//go:build !linux

package hostenv

import "sync/atomic"

// cpuCounter hands out a distinct value per call on platforms without a
// real getcpu(2). A constant sentinel would make every alloc/dealloc pair
// spuriously CPU-matched; a distinct value per call instead makes
// CPUMatched reliably false, the conservative degradation (spec's matching
// taxonomy never claims a match it can't support).
var cpuCounter atomic.Int64

func (env) CurrentCPU() int {
	return int(cpuCounter.Add(1))
}

// CurrentThreadID is unavailable outside Linux for the same reason.
func (env) CurrentThreadID() int64 {
	return cpuCounter.Add(1)
}
