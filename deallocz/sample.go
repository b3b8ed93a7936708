package deallocz

import (
	"encoding/binary"
	"time"

	"github.com/zeebo/xxh3"
)

// MaxStackDepth is the maximum number of instruction pointers retained
// per call stack. Deeper stacks are silently truncated (spec §7).
const MaxStackDepth = 64

// Handle is the opaque identifier the enclosing allocator assigns to a
// sampled allocation; it correlates a ReportMalloc with its eventual
// ReportFree. Handles are only meaningful within one profiler's
// lifetime — the core never interprets their bits.
type Handle uint64

// StackTrace is the inbound record the enclosing allocator's sampler
// hands to ReportMalloc. Only sampled allocations produce one.
type StackTrace struct {
	Handle             Handle
	Stack              [MaxStackDepth]uintptr
	Depth              int
	RequestedSize      uintptr
	RequestedAlignment uintptr
	AllocatedSize      uintptr
	AllocationTime     time.Time
	// Weight is the raw sampler weight (e.g. 1/sampling-probability);
	// Sample divides it by (RequestedSize+1) per spec §3.
	Weight float64
}

// Sample is the value record stored for both the allocation and the
// deallocation side of a pair (spec §3, C2). Equality and hashing are
// defined over a subset of these fields — see identity.
type Sample struct {
	Stack              [MaxStackDepth]uintptr
	Depth              int
	RequestedSize      uintptr
	RequestedAlignment uintptr
	AllocatedSize      uintptr
	CreationTime       time.Time
	CPU                int
	ThreadID           int64
	Weight             float64
}

// sampleIdentity is the comparable subset of Sample used for equality,
// hashing, and as (half of) the aggregation table's map key. Timestamps,
// CPU id, and thread id are deliberately excluded — two samples with the
// same stack/size identity but different timing or locality still
// collide into the same key, and the matching-bucket index is what then
// distinguishes them (spec §3: "Equality and hash ... timestamps and
// CPU/thread are excluded from identity").
type sampleIdentity struct {
	Stack              [MaxStackDepth]uintptr
	Depth              int
	RequestedSize      uintptr
	RequestedAlignment uintptr
	AllocatedSize      uintptr
}

func (s Sample) identity() sampleIdentity {
	id := sampleIdentity{
		Depth:              s.Depth,
		RequestedSize:      s.RequestedSize,
		RequestedAlignment: s.RequestedAlignment,
		AllocatedSize:      s.AllocatedSize,
	}
	copy(id.Stack[:s.Depth], s.Stack[:s.Depth])
	return id
}

// StackHash returns a fast 64-bit xxh3 digest of the stack prefix (each
// address as 8 little-endian bytes, the same bytes snapshotstore hashes
// for its stack_hash key). The in-process aggregation table does not use
// it; it relies on Go's native
// comparable-struct map keys instead (spec §4.4's note that a sparse
// hash-map representation is an acceptable alternative, not a
// requirement).
func (s Sample) StackHash() uint64 {
	buf := make([]byte, s.Depth*8)
	for i := 0; i < s.Depth; i++ {
		binary.LittleEndian.PutUint64(buf[i*8:], uint64(s.Stack[i]))
	}
	return xxh3.Hash(buf)
}

func clampDepth(depth int) int {
	if depth > MaxStackDepth {
		return MaxStackDepth
	}
	if depth < 0 {
		return 0
	}
	return depth
}
