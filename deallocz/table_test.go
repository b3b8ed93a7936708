package deallocz

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleWithStack(stack [MaxStackDepth]uintptr, depth int, size uintptr, weight float64, createdAt time.Time, cpu int, thread int64) Sample {
	return Sample{
		Stack:         stack,
		Depth:         depth,
		RequestedSize: size,
		AllocatedSize: size,
		CreationTime:  createdAt,
		CPU:           cpu,
		ThreadID:      thread,
		Weight:        weight,
	}
}

func TestTableAddTraceAggregatesMatchingPairsIntoOneEntry(t *testing.T) {
	tbl := newTable()
	stack := fixedStack(1, 2, 3)
	base := time.Unix(1000, 0)

	alloc := sampleWithStack(stack, 3, 64, 1, base, 0, 0)
	dealloc1 := sampleWithStack(stack, 3, 64, 1, base.Add(100*time.Millisecond), 0, 0)
	dealloc2 := sampleWithStack(stack, 3, 64, 1, base.Add(300*time.Millisecond), 0, 0)

	tbl.AddTrace(alloc, dealloc1)
	tbl.AddTrace(alloc, dealloc2)

	require.Len(t, tbl.entries, 1, "identical alloc/dealloc identities must collide into one entry")

	var entry *tableEntry
	for _, e := range tbl.entries {
		entry = e
	}
	idx := computeMatchingIndex(alloc, dealloc1)
	slot := entry.Slots[idx]
	assert.EqualValues(t, 2, slot.Count)
	assert.InDelta(t, 200*float64(time.Millisecond), slot.Mean, 1)
}

func TestTableAddTraceSeparatesDifferentIdentities(t *testing.T) {
	tbl := newTable()
	base := time.Unix(2000, 0)

	allocA := sampleWithStack(fixedStack(1), 1, 32, 1, base, 0, 0)
	deallocA := sampleWithStack(fixedStack(1), 1, 32, 1, base.Add(time.Millisecond), 0, 0)

	allocB := sampleWithStack(fixedStack(2), 1, 64, 1, base, 0, 0)
	deallocB := sampleWithStack(fixedStack(2), 1, 64, 1, base.Add(time.Millisecond), 0, 0)

	tbl.AddTrace(allocA, deallocA)
	tbl.AddTrace(allocB, deallocB)

	assert.Len(t, tbl.entries, 2)
}

func TestTableIterateEmitsPairedAllocAndDeallocWithSharedProfileID(t *testing.T) {
	tbl := newTable()
	base := time.Unix(3000, 0)

	alloc := sampleWithStack(fixedStack(7), 1, 16, 1, base, 0, 0)
	dealloc := sampleWithStack(fixedStack(9), 1, 16, 1, base.Add(50*time.Microsecond), 0, 0)
	tbl.AddTrace(alloc, dealloc)

	var out []OutputSample
	tbl.Iterate(func(s OutputSample) {
		out = append(out, s)
	})

	require.Len(t, out, 2, "one populated bucket emits exactly one alloc/dealloc pair")
	assert.Equal(t, out[0].ProfileID, out[1].ProfileID)
	assert.Positive(t, out[0].Count)
	assert.Negative(t, out[1].Count)
	assert.Equal(t, out[0].Count, -out[1].Count)
	assert.Equal(t, uintptr(7), out[0].Stack[0])
	assert.Equal(t, uintptr(9), out[1].Stack[0])
}

func TestTableIterateOmitsEmptyBuckets(t *testing.T) {
	tbl := newTable()
	base := time.Unix(4000, 0)
	alloc := sampleWithStack(fixedStack(1), 1, 16, 1, base, 5, 50)
	dealloc := sampleWithStack(fixedStack(2), 1, 16, 1, base.Add(time.Millisecond), 5, 50)
	tbl.AddTrace(alloc, dealloc)

	var out []OutputSample
	tbl.Iterate(func(s OutputSample) { out = append(out, s) })

	// Only the (cpu_matched=true, thread_matched=true, rpc=unknown) bucket
	// has any observations; every other bucket for this entry is empty.
	require.Len(t, out, 2)
	assert.True(t, out[0].CPUMatched)
	assert.True(t, out[0].ThreadMatched)
}

func TestObjectCountNeverZero(t *testing.T) {
	count := objectCount(1, 0.0001, 4096)
	assert.GreaterOrEqual(t, count, int64(1))
}

func TestTableDurationZeroBeforeStop(t *testing.T) {
	tbl := newTable()
	assert.Zero(t, tbl.Duration())
}

func TestTableDurationAfterStop(t *testing.T) {
	tbl := newTable()
	time.Sleep(time.Millisecond)
	tbl.SetStopTime()
	assert.Positive(t, tbl.Duration())
}
