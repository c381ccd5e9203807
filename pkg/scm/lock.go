package scm

import (
	"errors"
	"fmt"
	"sync/atomic"

	"golang.org/x/sys/unix"
)

// Locking architecture
//
//  1. regionMapped — process-wide guard. The fixed mapping address is a
//     per-process resource, so at most one Region may be open at a time.
//     A second Open returns [ErrBusy].
//
//  2. advisory lock file at Path+".lock" — excludes other processes for
//     the life of the handle. Cross-process access to a region is
//     undefined behavior; the lock turns the misuse into [ErrBusy]
//     instead of silent corruption.
//
// Neither lock makes a Region safe for concurrent use by goroutines; a
// Region is single-owner by contract.

// regionMapped is true while any Region in this process holds the fixed
// mapping address.
var regionMapped atomic.Bool

// acquireLockFile takes an exclusive advisory flock on path+".lock".
//
// Returns the lock fd, or [ErrBusy] if another process holds it.
func acquireLockFile(path string) (int, error) {
	fd, err := unix.Open(path+".lock", unix.O_RDWR|unix.O_CREAT|unix.O_CLOEXEC, 0o600)
	if err != nil {
		return -1, fmt.Errorf("open lock file: %w", err)
	}

	err = unix.Flock(fd, unix.LOCK_EX|unix.LOCK_NB)
	if err != nil {
		_ = unix.Close(fd)

		if errors.Is(err, unix.EWOULDBLOCK) {
			return -1, fmt.Errorf("region locked by another process: %w", ErrBusy)
		}

		return -1, fmt.Errorf("flock: %w", err)
	}

	return fd, nil
}

// releaseLockFile drops the advisory lock and closes its fd.
func releaseLockFile(fd int) {
	if fd < 0 {
		return
	}

	_ = unix.Flock(fd, unix.LOCK_UN)
	_ = unix.Close(fd)
}
