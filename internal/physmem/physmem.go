// Package physmem provides the simulated physical memory of the machine: a
// flat, zero-initialized byte buffer addressed by 32-bit physical addresses.
// On unix platforms the buffer is an anonymous mmap so large machine images
// live outside the Go heap and are returned to the OS on Close; elsewhere a
// plain slice is used.
//
// All accessors are bounds-checked. An out-of-range physical access can only
// come from a corrupted page table or a bug in a caller, so it is treated as
// a fatal invariant violation rather than a recoverable error.
package physmem

import (
	"fmt"

	"github.com/memkit/memkit/internal/layout"
)

// Memory is one machine's physical memory.
type Memory struct {
	data    []byte
	release func() error
}

// New allocates a zeroed physical memory of the given byte size.
// Size must be a whole number of pages.
func New(size uint32) (*Memory, error) {
	if size == 0 || size%layout.PageSize != 0 {
		return nil, fmt.Errorf("physmem: size %#x is not a whole number of pages", size)
	}
	data, release, err := newBuffer(int(size))
	if err != nil {
		return nil, err
	}
	return &Memory{data: data, release: release}, nil
}

// Size returns the total physical memory size in bytes.
func (m *Memory) Size() uint32 {
	return uint32(len(m.data))
}

// Bytes returns the backing buffer. Callers index it with physical addresses.
func (m *Memory) Bytes() []byte {
	return m.data
}

// ReadU32 reads the little-endian word at physical address paddr.
func (m *Memory) ReadU32(paddr uint32) uint32 {
	m.check(paddr, layout.EntrySize)
	return layout.ReadU32(m.data, int(paddr))
}

// PutU32 writes a little-endian word at physical address paddr.
func (m *Memory) PutU32(paddr, v uint32) {
	m.check(paddr, layout.EntrySize)
	layout.PutU32(m.data, int(paddr), v)
}

// Zero clears n bytes starting at physical address paddr.
func (m *Memory) Zero(paddr, n uint32) {
	m.check(paddr, n)
	clear(m.data[paddr : paddr+n])
}

// ReadAt copies len(p) bytes from physical address paddr into p.
func (m *Memory) ReadAt(paddr uint32, p []byte) {
	m.check(paddr, uint32(len(p)))
	copy(p, m.data[paddr:])
}

// WriteAt copies p into physical memory at paddr.
func (m *Memory) WriteAt(paddr uint32, p []byte) {
	m.check(paddr, uint32(len(p)))
	copy(m.data[paddr:], p)
}

// Close releases the backing buffer. The Memory must not be used afterwards.
func (m *Memory) Close() error {
	if m.release == nil {
		return nil
	}
	err := m.release()
	m.release = nil
	m.data = nil
	return err
}

func (m *Memory) check(paddr, n uint32) {
	end := uint64(paddr) + uint64(n)
	if end > uint64(len(m.data)) {
		panic(fmt.Sprintf("physmem: access [%#x,%#x) outside physical memory of %#x bytes",
			paddr, end, len(m.data)))
	}
}
