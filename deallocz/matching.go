package deallocz

// RPCStatus is the ternary RPC-correlation state of a matched pair.
// Only RPCUnknown is ever produced by the core today — RPC correlation
// is an extension point for a caller that wants to feed request-scoped
// ids in (spec §4.2).
type RPCStatus int

const (
	RPCUnknown   RPCStatus = 0
	RPCDifferent RPCStatus = 1
	RPCEqual     RPCStatus = 2
)

// NumMatchingBuckets is the size of the dense matching-status taxonomy:
// {cpu matched?, thread matched?} crossed with the three RPC states.
const NumMatchingBuckets = 12

// MatchingCase identifies one of the twelve matching buckets.
type MatchingCase struct {
	CPUMatched    bool
	ThreadMatched bool
	RPCStatus     RPCStatus
}

// index computes the dense [0,12) bucket index:
// (cpu_matched<<1 | thread_matched) * 3 + rpc_status.
func (m MatchingCase) index() int {
	cpuThread := 0
	if m.CPUMatched {
		cpuThread |= 2
	}
	if m.ThreadMatched {
		cpuThread |= 1
	}
	return cpuThread*3 + int(m.RPCStatus)
}

// matchingCases enumerates all twelve buckets in the stable order
// Iterate walks them in for a single table entry: grouped by RPC-status
// tier (unknown, then different, then equal), and within each tier by
// CPU/thread combination in (false,false), (false,true), (true,false),
// (true,true) order. This mirrors the source's kAllCases table and is
// what makes pair_id assignment deterministic within one Iterate call
// even though map iteration order over table entries is not.
var matchingCases = buildMatchingCases()

func buildMatchingCases() [NumMatchingBuckets]MatchingCase {
	var cases [NumMatchingBuckets]MatchingCase
	tiers := [3]RPCStatus{RPCUnknown, RPCDifferent, RPCEqual}
	combos := [4][2]bool{{false, false}, {false, true}, {true, false}, {true, true}}
	i := 0
	for _, rpc := range tiers {
		for _, ct := range combos {
			cases[i] = MatchingCase{CPUMatched: ct[0], ThreadMatched: ct[1], RPCStatus: rpc}
			i++
		}
	}
	return cases
}

// computeMatchingIndex derives the matching bucket for a matched pair.
// The core only ever observes CPU and thread identity, so RPCStatus is
// always RPCUnknown here.
func computeMatchingIndex(alloc, dealloc Sample) int {
	m := MatchingCase{
		CPUMatched:    alloc.CPU == dealloc.CPU,
		ThreadMatched: alloc.ThreadID == dealloc.ThreadID,
		RPCStatus:     RPCUnknown,
	}
	return m.index()
}
