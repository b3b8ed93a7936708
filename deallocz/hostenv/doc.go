// Package hostenv provides OS-backed implementations of deallocz.HostEnv.
//
// New picks the best available implementation for the running GOOS: Linux
// gets real current-CPU and current-thread-ID primitives via getcpu(2) and
// gettid(2); every other platform falls back to values that satisfy the
// interface but carry no cross-CPU/cross-thread information, so matching
// buckets that require it simply never populate there.
package hostenv
