package mem

import (
	"fmt"

	"github.com/memkit/memkit/internal/layout"
)

// Page-granular allocation and free paths. The exported forms take the
// owning pool lock for the whole call; the Locked forms are for the heap
// allocator, which holds the lock across an entire Malloc/Free.

// AllocPages reserves, maps and zero-fills count contiguous virtual pages in
// the domain. On failure nothing is left reserved or mapped.
func (m *Manager) AllocPages(d Domain, count int) (uint32, error) {
	m.Lock(d)
	defer m.Unlock(d)
	base, err := m.allocPages(d, count)
	if err != nil {
		return 0, err
	}
	m.ZeroRange(base, uint32(count)*layout.PageSize)
	return base, nil
}

// AllocPagesLocked is AllocPages without the lock and without the zero fill.
// Caller holds the domain lock and zeroes what it hands out.
func (m *Manager) AllocPagesLocked(d Domain, count int) (uint32, error) {
	return m.allocPages(d, count)
}

// FreePages tears down the mappings of count pages starting at vaddr,
// returns their frames to the domain's pool, and releases the virtual run.
func (m *Manager) FreePages(d Domain, vaddr uint32, count int) {
	m.Lock(d)
	defer m.Unlock(d)
	m.freePages(d, vaddr, count)
}

// FreePagesLocked is FreePages for callers already holding the domain lock.
func (m *Manager) FreePagesLocked(d Domain, vaddr uint32, count int) {
	m.freePages(d, vaddr, count)
}

// PageAt maps one frame from the domain's pool at the caller-chosen,
// page-aligned virtual address, marking the page in the owning virtual
// space. A kernel thread asking for a user page, or a user context for a
// kernel page, is a cross-domain violation and fatal.
func (m *Manager) PageAt(d Domain, vaddr uint32) (uint32, error) {
	if !layout.PageAligned(vaddr) {
		panic(fmt.Sprintf("mem: PageAt with unaligned address %#x", vaddr))
	}
	m.Lock(d)
	defer m.Unlock(d)

	us := m.currentUserSpace()
	var sp *Space
	switch {
	case d == User && us != nil:
		sp = us
	case d == Kernel && us == nil:
		sp = &m.kernelSpace
	default:
		panic(fmt.Sprintf("mem: cross-domain request for a %s page", d))
	}
	sp.markAt(vaddr)

	frame, ok := m.Pool(d).allocFrame()
	if !ok {
		sp.unmarkAt(vaddr)
		return 0, ErrNoFrames
	}
	if err := m.install(d, vaddr, frame); err != nil {
		m.Pool(d).freeFrame(frame)
		sp.unmarkAt(vaddr)
		return 0, err
	}
	return vaddr, nil
}

// PageAtNoReserve is PageAt without touching any virtual bitmap. It exists
// for duplicating an address space during process replication, where the
// bitmap is copied wholesale elsewhere and must not be double-marked.
func (m *Manager) PageAtNoReserve(d Domain, vaddr uint32) (uint32, error) {
	if !layout.PageAligned(vaddr) {
		panic(fmt.Sprintf("mem: PageAtNoReserve with unaligned address %#x", vaddr))
	}
	m.Lock(d)
	defer m.Unlock(d)

	frame, ok := m.Pool(d).allocFrame()
	if !ok {
		return 0, ErrNoFrames
	}
	if err := m.install(d, vaddr, frame); err != nil {
		m.Pool(d).freeFrame(frame)
		return 0, err
	}
	return vaddr, nil
}

// FreeFrame clears the physical bit for a frame whose virtual mapping is
// already gone. The owning pool is chosen by the frame's address.
func (m *Manager) FreeFrame(paddr uint32) {
	d := m.DomainOf(paddr)
	m.Lock(d)
	defer m.Unlock(d)
	m.Pool(d).freeFrame(layout.PageBase(paddr))
}

// allocPages composes the three layers: reserve a contiguous virtual run,
// take one frame per page, install each mapping. A mid-loop failure unwinds
// every frame, mapping and the whole virtual reservation before returning.
// Caller holds the domain lock. The pages are not zeroed here.
func (m *Manager) allocPages(d Domain, count int) (uint32, error) {
	pool := m.Pool(d)
	if count <= 0 || count > pool.bitmap.Bits() {
		return 0, ErrBadCount
	}

	sp := m.space(d)
	base, err := sp.reserve(count)
	if err != nil {
		return 0, err
	}

	vaddr := base
	for i := 0; i < count; i++ {
		frame, ok := pool.allocFrame()
		if !ok {
			m.unwind(d, base, i, count)
			return 0, ErrNoFrames
		}
		if err := m.install(d, vaddr, frame); err != nil {
			pool.freeFrame(frame)
			m.unwind(d, base, i, count)
			return 0, err
		}
		vaddr += layout.PageSize
	}
	return base, nil
}

// unwind rolls back a partially committed run: installed pages from base get
// their frames released and mappings torn down, then the full virtual
// reservation of count pages is dropped.
func (m *Manager) unwind(d Domain, base uint32, installed, count int) {
	pool := m.Pool(d)
	vaddr := base
	for i := 0; i < installed; i++ {
		pool.freeFrame(layout.PageBase(m.Translate(vaddr)))
		m.uninstall(vaddr)
		vaddr += layout.PageSize
	}
	m.space(d).release(base, count)
}

// freePages is the mirror of allocPages. Every page must translate to a
// page-aligned frame at or above the low-memory floor and inside the
// domain's pool; anything else is fatal. Caller holds the domain lock.
func (m *Manager) freePages(d Domain, vaddr uint32, count int) {
	if count < 1 || !layout.PageAligned(vaddr) {
		panic(fmt.Sprintf("mem: bad free of %d pages at %#x", count, vaddr))
	}
	pool := m.Pool(d)
	v := vaddr
	for i := 0; i < count; i++ {
		paddr := m.Translate(v)
		if !layout.PageAligned(paddr) || paddr < layout.LowMemFloor {
			panic(fmt.Sprintf("mem: freeing protected frame %#x (mapped at %#x)", paddr, v))
		}
		if !pool.Contains(paddr) {
			panic(fmt.Sprintf("mem: frame %#x mapped at %#x is not in the %s pool",
				paddr, v, d))
		}
		pool.freeFrame(paddr)
		m.uninstall(v)
		v += layout.PageSize
	}
	m.space(d).release(vaddr, count)
}
