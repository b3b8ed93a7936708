package deallocz

import (
	"math"
	"time"
)

// bucketSlot holds the running statistics for one matching bucket of one
// aggregation-table entry: count, mean/variance-accumulator (Welford),
// and min/max lifetime in nanoseconds.
type bucketSlot struct {
	Count         float64
	Mean          float64
	VarianceAccum float64
	Min           float64
	Max           float64
}

func newBucketSlot() bucketSlot {
	return bucketSlot{Min: math.Inf(1), Max: 0}
}

// aggKey is the aggregation table's map key: the identity of the
// allocation sample paired with the identity of the deallocation sample.
type aggKey struct {
	Alloc, Dealloc sampleIdentity
}

// tableEntry is the aggregation value for one key: a representative
// Sample for each side (carrying the full stack, used when emitting) and
// the twelve parallel matching-bucket slots.
type tableEntry struct {
	Alloc, Dealloc Sample
	Slots          [NumMatchingBuckets]bucketSlot
}

func newTableEntry(alloc, dealloc Sample) *tableEntry {
	e := &tableEntry{Alloc: alloc, Dealloc: dealloc}
	for i := range e.Slots {
		e.Slots[i] = newBucketSlot()
	}
	return e
}

// Table is the aggregation table (C5): maps (alloc record, dealloc
// record) to per-matching-bucket running lifetime statistics.
type Table struct {
	entries   map[aggKey]*tableEntry
	startTime time.Time
	stopTime  time.Time
}

func newTable() *Table {
	return &Table{
		entries:   make(map[aggKey]*tableEntry),
		startTime: time.Now(),
	}
}

// AddTrace updates the aggregation table for one matched alloc/dealloc
// pair using Welford's online algorithm (spec §4.4). The variance
// accumulator update intentionally reproduces the source's formula,
// `(x - new_mean) * (new_mean - old_mean)`, rather than the textbook
// `(x - old_mean) * (x - new_mean)` — see DESIGN.md's open-question
// entry. The two are not equal: since new_mean - old_mean is
// (x - old_mean) / n, each term here is the textbook term divided by the
// new count n.
func (t *Table) AddTrace(alloc, dealloc Sample) {
	idx := computeMatchingIndex(alloc, dealloc)
	key := aggKey{Alloc: alloc.identity(), Dealloc: dealloc.identity()}

	entry, ok := t.entries[key]
	if !ok {
		entry = newTableEntry(alloc, dealloc)
		t.entries[key] = entry
	}

	slot := &entry.Slots[idx]
	lifetimeNs := float64(dealloc.CreationTime.Sub(alloc.CreationTime))

	oldMean := slot.Mean
	slot.Mean += (lifetimeNs - oldMean) / (slot.Count + 1)
	slot.VarianceAccum += (lifetimeNs - slot.Mean) * (slot.Mean - oldMean)
	if lifetimeNs < slot.Min {
		slot.Min = lifetimeNs
	}
	if lifetimeNs > slot.Max {
		slot.Max = lifetimeNs
	}
	slot.Count++
}

func (t *Table) SetStopTime() {
	t.stopTime = time.Now()
}

func (t *Table) Duration() time.Duration {
	if t.stopTime.IsZero() {
		return 0
	}
	return t.stopTime.Sub(t.startTime)
}

// OutputSample is the outbound record an Iterate visitor receives — the
// spec's `Profile::Sample` (spec §6). Positive Count tags an allocation
// site, negative Count tags the matching deallocation site; both halves
// of a pair share ProfileID.
type OutputSample struct {
	Sum                int64
	Count              int64
	RequestedSize      uintptr
	RequestedAlignment uintptr
	AllocatedSize      uintptr
	ProfileID          uint64
	LifetimeNs         uint64
	StddevLifetimeNs   uint64
	MinLifetimeNs      uint64
	MaxLifetimeNs      uint64
	CPUMatched         bool
	ThreadMatched      bool
	Depth              int
	Stack              [MaxStackDepth]uintptr
}

// Iterate visits two OutputSamples per populated matching bucket of
// every table entry: one tagged with the allocation stack and a positive
// count, one tagged with the deallocation stack and the negative of that
// same count. Table-entry order is unspecified (native Go map
// iteration); within one entry, buckets are visited in the stable order
// of matchingCases, and ProfileID increases by one per emitted pair —
// stable only within this single Iterate call, never across calls or
// processes (spec §4.4).
func (t *Table) Iterate(visit func(OutputSample)) {
	var pairID uint64 = 1

	for _, entry := range t.entries {
		allocatedSize := entry.Alloc.AllocatedSize

		for _, mc := range matchingCases {
			slot := entry.Slots[mc.index()]
			if slot.Count == 0 {
				continue
			}

			count := objectCount(slot.Count, entry.Alloc.Weight, allocatedSize)
			sum := count * int64(allocatedSize)
			stddev := math.Sqrt(math.Max(0, slot.VarianceAccum/slot.Count))

			base := OutputSample{
				Sum:                sum,
				RequestedSize:      entry.Alloc.RequestedSize,
				RequestedAlignment: entry.Alloc.RequestedAlignment,
				AllocatedSize:      allocatedSize,
				ProfileID:          pairID,
				LifetimeNs:         Bucket(slot.Mean),
				StddevLifetimeNs:   Bucket(stddev),
				MinLifetimeNs:      Bucket(slot.Min),
				MaxLifetimeNs:      Bucket(slot.Max),
				CPUMatched:         mc.CPUMatched,
				ThreadMatched:      mc.ThreadMatched,
			}

			allocSample := base
			allocSample.Count = count
			allocSample.Depth = entry.Alloc.Depth
			allocSample.Stack = entry.Alloc.Stack
			visit(allocSample)

			deallocSample := base
			deallocSample.Count = -count
			deallocSample.Depth = entry.Dealloc.Depth
			deallocSample.Stack = entry.Dealloc.Stack
			visit(deallocSample)

			pairID++
		}
	}
}

// objectCount converts a bucket's running count into a whole-object
// count scaled by sampling weight, matching the source's
// round-to-bytes-then-ceiling-divide rather than the spec prose's
// self-cancelling "* allocated_size / allocated_size" (same intent,
// integral result). Count positivity (spec §8 property 4) is enforced
// by clamping to at least 1 once a bucket has any observations.
func objectCount(bucketCount, weight float64, allocatedSize uintptr) int64 {
	if allocatedSize == 0 {
		count := int64(math.Round(bucketCount * weight))
		if count < 1 {
			count = 1
		}
		return count
	}

	bytes := math.Round(bucketCount * weight * float64(allocatedSize))
	count := int64(math.Ceil(bytes / float64(allocatedSize)))
	if count < 1 {
		count = 1
	}
	return count
}
