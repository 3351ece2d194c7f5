package mem

import (
	"fmt"

	"github.com/memkit/memkit/internal/layout"
)

// Space is one virtual address space: a bitmap over virtual pages starting
// at a fixed base. The kernel has one global Space beginning at the kernel
// heap base; each user execution context embeds its own, bounded from above
// by the guard page below the kernel split.
//
// A Space has no lock of its own. The kernel space is only mutated while the
// kernel pool lock is held; a user space is private to its owning context.
type Space struct {
	bitmap Bitmap
	start  uint32
	limit  uint32 // exclusive upper bound on reservations; 0 means none
}

// NewUserSpace returns the virtual address space for a fresh user context,
// covering the conventional load address up to the guard page.
func NewUserSpace() *Space {
	pages := uint32(layout.UserGuardTop-layout.UserBase) / layout.PageSize
	return &Space{
		bitmap: NewBitmap(pages / 8),
		start:  layout.UserBase,
		limit:  layout.UserGuardTop,
	}
}

// Start returns the space's base virtual address.
func (s *Space) Start() uint32 {
	return s.start
}

// FreePages returns the number of unreserved pages.
func (s *Space) FreePages() int {
	return s.bitmap.Free()
}

// Snapshot returns a copy of the space's bitmap storage.
func (s *Space) Snapshot() []byte {
	return s.bitmap.Snapshot()
}

// reserve finds and marks count contiguous free pages, returning the run's
// starting virtual address. A run that would cross the space's upper bound
// is rejected.
func (s *Space) reserve(count int) (uint32, error) {
	idx, ok := s.bitmap.Scan(count)
	if !ok {
		return 0, ErrNoVirtualRange
	}
	addr := s.start + uint32(idx)*layout.PageSize
	if s.limit != 0 && addr+uint32(count)*layout.PageSize > s.limit {
		return 0, ErrNoVirtualRange
	}
	for i := 0; i < count; i++ {
		s.bitmap.Set(idx+i, true)
	}
	return addr, nil
}

// release clears the bits for count pages starting at vaddr.
func (s *Space) release(vaddr uint32, count int) {
	idx := s.index(vaddr)
	for i := 0; i < count; i++ {
		s.bitmap.Set(idx+i, false)
	}
}

// markAt marks the single page holding vaddr, for the caller-chosen-address
// allocation path. The page must not already be reserved.
func (s *Space) markAt(vaddr uint32) {
	idx := s.index(vaddr)
	if s.bitmap.Test(idx) {
		panic(fmt.Sprintf("mem: page %#x is already reserved", vaddr))
	}
	s.bitmap.Set(idx, true)
}

// unmarkAt undoes markAt when the physical side of the allocation fails.
func (s *Space) unmarkAt(vaddr uint32) {
	s.bitmap.Set(s.index(vaddr), false)
}

func (s *Space) index(vaddr uint32) int {
	if vaddr < s.start {
		panic(fmt.Sprintf("mem: address %#x below space base %#x", vaddr, s.start))
	}
	return int((vaddr - s.start) / layout.PageSize)
}
