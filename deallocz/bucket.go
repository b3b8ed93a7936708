package deallocz

// Bucket quantizes a nanosecond lifetime into a coarse, human-readable
// bucket (spec §4.3):
//
//   - lifetimes at or below 1ns collapse to 1 (clock skew guard)
//   - lifetimes under 1ms round down to a power of ten (1, 10, 100,
//     1000, 10000, 100000): the smallest cutoff in 10..1000000 that
//     exceeds the lifetime, divided by 10
//   - lifetimes at or above 1ms truncate to the nearest millisecond
//
// Bucket(x) <= x for x >= 10, and Bucket is monotonic non-decreasing.
func Bucket(lifetimeNs float64) uint64 {
	const msNs = 1_000_000.0

	if lifetimeNs < msNs {
		if lifetimeNs <= 1 {
			return 1
		}
		for cutoff := uint64(10); cutoff <= 1_000_000; cutoff *= 10 {
			if lifetimeNs < float64(cutoff) {
				return cutoff / 10
			}
		}
	}

	return uint64(lifetimeNs/msNs) * 1_000_000
}
