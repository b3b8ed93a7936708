//go:build linux

package hostenv

import (
	"unsafe"

	"golang.org/x/sys/unix"
)

// CurrentCPU issues the getcpu(2) syscall directly: x/sys/unix carries the
// SYS_GETCPU constant but, as of this writing, no Getcpu wrapper, the same
// pattern the original CPU profiler uses for syscalls x/sys/unix hasn't
// wrapped yet.
func (env) CurrentCPU() int {
	var cpu, node uint32
	_, _, errno := unix.Syscall(unix.SYS_GETCPU, uintptr(unsafe.Pointer(&cpu)), uintptr(unsafe.Pointer(&node)), 0)
	if errno != 0 {
		return -1
	}
	return int(cpu)
}

func (env) CurrentThreadID() int64 {
	return int64(unix.Gettid())
}
