//go:build linux

package scm

import (
	"golang.org/x/sys/unix"
)

// mapFixed maps length bytes of fd at exactly addr, shared and read/write.
//
// MAP_FIXED_NOREPLACE makes the kernel fail with EEXIST instead of
// clobbering an existing mapping. Kernels older than 4.17 ignore the flag
// and map elsewhere, so the returned address is checked as well.
func mapFixed(addr uintptr, length uintptr, fd int) (uintptr, error) {
	p, _, errno := unix.Syscall6(
		unix.SYS_MMAP,
		addr,
		length,
		uintptr(unix.PROT_READ|unix.PROT_WRITE),
		uintptr(unix.MAP_SHARED|unix.MAP_FIXED_NOREPLACE),
		uintptr(fd),
		0,
	)
	if errno != 0 {
		return 0, errno
	}

	if p != addr {
		_, _, _ = unix.Syscall(unix.SYS_MUNMAP, p, length, 0)

		return 0, unix.EEXIST
	}

	return p, nil
}

// unmap releases a mapping previously established by mapFixed.
func unmap(addr uintptr, length uintptr) error {
	_, _, errno := unix.Syscall(unix.SYS_MUNMAP, addr, length, 0)
	if errno != 0 {
		return errno
	}

	return nil
}

// msync flushes the mapped range to the backing file (MS_SYNC).
func msync(addr uintptr, length uintptr) error {
	_, _, errno := unix.Syscall(unix.SYS_MSYNC, addr, length, uintptr(unix.MS_SYNC))
	if errno != 0 {
		return errno
	}

	return nil
}
