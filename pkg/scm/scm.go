package scm

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math/bits"
	"unsafe"

	"golang.org/x/sys/unix"
)

// Region layout constants.
const (
	// baseAddr is the fixed virtual address every region is mapped at.
	// Keeping it identical across runs is what makes absolute pointers
	// stored inside the region durable.
	baseAddr uintptr = 0x6000_0000_0000

	// headerSize is the in-region header: a single uint64 holding the
	// utilized byte count.
	headerSize = 8

	// prefixSize is the per-allocation size prefix.
	prefixSize = 8

	// baseOffset is the file offset of the first allocation's payload:
	// header (8) + that allocation's size prefix (8).
	baseOffset = headerSize + prefixSize

	// maxRegionSize is a guardrail on mappable file size, not a RAM
	// limit. It keeps offset arithmetic far from overflow boundaries.
	maxRegionSize = uint64(1) << 40 // 1 TiB
)

// Region is a handle to an open SCM region.
//
// A Region is not safe for concurrent use. Obtain one with [Open] and
// release it with [Region.Close].
type Region struct {
	fd       int
	lockFd   int
	size     uint64
	utilized uint64
	base     uintptr
	closed   bool
}

// isLittleEndian is true if the CPU uses little-endian byte order.
var isLittleEndian = func() bool {
	var x uint16 = 1

	return binary.LittleEndian.Uint16((*[2]byte)(unsafe.Pointer(&x))[:]) == 1
}()

// is64Bit is true if the architecture has 64-bit pointers.
var is64Bit = bits.UintSize == 64

// Open opens the regular file at path as an SCM region.
//
// The whole file is mapped shared and read/write at a fixed virtual
// address; the mapping is mandatory, and Open fails with
// [ErrMapPlacement] if the kernel cannot honor the placement. The file
// must already exist with the size you want — the region never creates,
// truncates, or extends its backing file.
//
// If truncate is true, the region's utilized counter is reset to zero and
// all previously stored data becomes garbage. Otherwise the counter is
// adopted from the file and prior allocations are live at their original
// addresses.
//
// Possible errors:
//   - [ErrInvalidInput]: empty path, file too large
//   - [ErrNotRegular]: path is not a regular file
//   - [ErrBusy]: a region is already mapped in this process, or another
//     process holds the lock file
//   - [ErrMapPlacement]: the fixed address range is unavailable
//   - [ErrCorrupt]: stored utilized exceeds the file size, or the file is
//     smaller than 16 bytes
//   - syscall errors: open, stat, mmap failures
func Open(path string, truncate bool) (*Region, error) {
	// 64-bit required: the fixed mapping address does not fit a 32-bit
	// address space.
	if !is64Bit {
		return nil, errors.New("scm requires 64-bit architecture")
	}

	// Little-endian required: region integers are stored host-native and
	// read back via direct pointer access. Refusing big-endian hosts here
	// beats silently misreading a file written elsewhere.
	if !isLittleEndian {
		return nil, errors.New("scm requires little-endian CPU (x86_64, arm64)")
	}

	if path == "" {
		return nil, fmt.Errorf("path is required: %w", ErrInvalidInput)
	}

	// Claim the process-wide mapping slot before touching the file.
	if !regionMapped.CompareAndSwap(false, true) {
		return nil, fmt.Errorf("another region is mapped in this process: %w", ErrBusy)
	}

	r, err := openLocked(path, truncate)
	if err != nil {
		regionMapped.Store(false)

		return nil, err
	}

	return r, nil
}

// openLocked does the open work after the process-wide slot is claimed.
func openLocked(path string, truncate bool) (*Region, error) {
	fd, err := unix.Open(path, unix.O_RDWR|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}

	var stat unix.Stat_t

	err = unix.Fstat(fd, &stat)
	if err != nil {
		_ = unix.Close(fd)

		return nil, fmt.Errorf("stat file: %w", err)
	}

	if stat.Mode&unix.S_IFMT != unix.S_IFREG {
		_ = unix.Close(fd)

		return nil, fmt.Errorf("%s: %w", path, ErrNotRegular)
	}

	size := uint64(stat.Size)
	if size < baseOffset {
		_ = unix.Close(fd)

		return nil, fmt.Errorf("file size %d is less than region minimum %d: %w", size, baseOffset, ErrCorrupt)
	}

	if size > maxRegionSize {
		_ = unix.Close(fd)

		return nil, fmt.Errorf("file size %d exceeds max %d: %w", size, maxRegionSize, ErrInvalidInput)
	}

	lockFd, err := acquireLockFile(path)
	if err != nil {
		_ = unix.Close(fd)

		return nil, err
	}

	base, err := mapFixed(baseAddr, uintptr(size), fd)
	if err != nil {
		releaseLockFile(lockFd)
		_ = unix.Close(fd)

		if errors.Is(err, unix.EEXIST) {
			return nil, fmt.Errorf("address %#x unavailable: %w", baseAddr, ErrMapPlacement)
		}

		return nil, fmt.Errorf("mmap: %w", err)
	}

	r := &Region{
		fd:     fd,
		lockFd: lockFd,
		size:   size,
		base:   base,
	}

	if truncate {
		r.utilized = 0
		*r.headerPtr() = 0

		return r, nil
	}

	r.utilized = *r.headerPtr()
	if r.utilized > size-headerSize {
		_ = unmap(base, uintptr(size))
		releaseLockFile(lockFd)
		_ = unix.Close(fd)

		return nil, fmt.Errorf("utilized %d exceeds file size %d: %w", r.utilized, size, ErrCorrupt)
	}

	return r, nil
}

// headerPtr returns the in-region utilized counter.
func (r *Region) headerPtr() *uint64 {
	return (*uint64)(unsafe.Pointer(r.base))
}

// Alloc allocates n bytes from the region and returns the payload
// address. The allocation is preceded by an 8-byte size prefix; the
// returned pointer points just past it.
//
// The memory is NOT zeroed: on a reused region it may contain garbage
// from earlier runs.
//
// The first allocation after a truncating [Open] lands exactly at
// [Region.Base].
//
// Possible errors: [ErrClosed], [ErrInvalidInput] (n == 0), [ErrFull].
func (r *Region) Alloc(n uint64) (unsafe.Pointer, error) {
	if r == nil || r.closed {
		return nil, ErrClosed
	}

	if n == 0 {
		return nil, fmt.Errorf("zero-size allocation: %w", ErrInvalidInput)
	}

	avail := r.size - headerSize - r.utilized
	if avail < prefixSize || n > avail-prefixSize {
		return nil, fmt.Errorf("%d bytes requested, %d available: %w", n, avail, ErrFull)
	}

	// Block layout: [size u64][payload n bytes], placed at the current
	// high-water mark. Prefix writes may be unaligned when earlier
	// payloads had odd sizes; fine on the 64-bit little-endian hosts the
	// package admits.
	prefix := r.base + headerSize + uintptr(r.utilized)
	*(*uint64)(unsafe.Pointer(prefix)) = n

	r.utilized += prefixSize + n
	*r.headerPtr() = r.utilized

	return unsafe.Pointer(prefix + prefixSize), nil
}

// Strdup allocates len(s)+1 bytes and copies s plus a NUL terminator,
// returning the address of the first byte.
//
// Possible errors: [ErrClosed], [ErrFull].
func (r *Region) Strdup(s string) (unsafe.Pointer, error) {
	n := uint64(len(s)) + 1

	p, err := r.Alloc(n)
	if err != nil {
		return nil, err
	}

	b := unsafe.Slice((*byte)(p), len(s)+1)
	copy(b, s)
	b[len(s)] = 0

	return p, nil
}

// Free releases an allocation. It is a logical no-op: the bump allocator
// never reclaims space, and the block's size prefix stays in place for a
// future reclaiming implementation. Safe on nil.
func (r *Region) Free(p unsafe.Pointer) {
	_ = p
}

// Base returns the address of the first caller-visible allocation, i.e.
// the pointer the first Alloc after a truncating Open returned. Callers
// use it to find their root object without persisting an extra offset.
func (r *Region) Base() unsafe.Pointer {
	if r == nil || r.closed {
		return nil
	}

	return unsafe.Pointer(r.base + baseOffset)
}

// Utilized returns the bytes consumed so far, size prefixes included.
func (r *Region) Utilized() uint64 {
	if r == nil || r.closed {
		return 0
	}

	return r.utilized
}

// Capacity returns the bytes still available for allocation, size
// prefixes included.
func (r *Region) Capacity() uint64 {
	if r == nil || r.closed {
		return 0
	}

	return r.size - headerSize - r.utilized
}

// Size returns the total region size (the backing file's length).
func (r *Region) Size() uint64 {
	if r == nil || r.closed {
		return 0
	}

	return r.size
}

// Close flushes the mapping to the backing file, unmaps it, closes the
// fd, and releases the lock file. The handle is zeroed so use after
// close surfaces as [ErrClosed] rather than a stale mapping access.
//
// Close is idempotent and safe on nil.
func (r *Region) Close() error {
	if r == nil || r.closed {
		return nil
	}

	var firstErr error

	err := msync(r.base, uintptr(r.size))
	if err != nil {
		firstErr = fmt.Errorf("msync: %w", err)
	}

	err = unmap(r.base, uintptr(r.size))
	if err != nil && firstErr == nil {
		firstErr = fmt.Errorf("munmap: %w", err)
	}

	err = unix.Close(r.fd)
	if err != nil && firstErr == nil {
		firstErr = fmt.Errorf("close: %w", err)
	}

	releaseLockFile(r.lockFd)
	regionMapped.Store(false)

	*r = Region{closed: true, fd: -1, lockFd: -1}

	return firstErr
}
