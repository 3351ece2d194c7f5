package heap

import (
	"fmt"
	"sync"

	"github.com/memkit/memkit/internal/layout"
	"github.com/memkit/memkit/mem"
)

// Context is the execution-context query: whether the caller owns a user
// address space, and if so its per-context size-class table. It is the only
// window this package has into the scheduler.
type Context interface {
	// UserSpace returns the context's virtual address space, or nil for a
	// kernel thread.
	UserSpace() *mem.Space

	// Classes returns the context's size-class table. Only consulted when
	// UserSpace is non-nil.
	Classes() *ClassSet
}

// InterruptGate brackets the short critical section around free-list
// splicing. Disable returns the previous enabled state for Restore.
type InterruptGate interface {
	Disable() bool
	Restore(enabled bool)
}

// NopGate is an InterruptGate for hosts without interrupt control.
type NopGate struct{}

// Disable implements InterruptGate.
func (NopGate) Disable() bool { return false }

// Restore implements InterruptGate.
func (NopGate) Restore(bool) {}

// Stats holds allocator counters for instrumentation and tests.
type Stats struct {
	AllocCalls      int   // Malloc calls that succeeded
	FreeCalls       int   // Free calls
	LargeAllocs     int   // allocations that took the page path
	ArenasCreated   int   // fresh small arenas carved into blocks
	ArenasReclaimed int   // fully-freed small arenas returned to the pool
	BytesAllocated  int64 // requested bytes across successful Mallocs
	BytesFreed      int64 // block/page bytes returned across Frees
}

// Heap is the two-tier general allocator. One Heap serves both domains,
// routing each call by the current execution context.
type Heap struct {
	mm      *mem.Manager
	kernel  *ClassSet
	current func() Context
	gate    InterruptGate

	statsMu sync.Mutex
	stats   Stats
}

// New builds a Heap over the memory subsystem. current reports the running
// execution context and may be nil, in which case every caller is a kernel
// thread; gate may be nil for a no-op interrupt bracket.
func New(mm *mem.Manager, current func() Context, gate InterruptGate) *Heap {
	if gate == nil {
		gate = NopGate{}
	}
	return &Heap{
		mm:      mm,
		kernel:  NewClassSet(),
		current: current,
		gate:    gate,
	}
}

// KernelClasses returns the process-wide kernel size-class table.
func (h *Heap) KernelClasses() *ClassSet {
	return h.kernel
}

// Stats returns a copy of the allocator counters.
func (h *Heap) Stats() Stats {
	h.statsMu.Lock()
	defer h.statsMu.Unlock()
	return h.stats
}

// route picks the domain and class table for the calling context.
func (h *Heap) route() (mem.Domain, *ClassSet) {
	if h.current != nil {
		if ctx := h.current(); ctx != nil && ctx.UserSpace() != nil {
			return mem.User, ctx.Classes()
		}
	}
	return mem.Kernel, h.kernel
}

// Malloc allocates size bytes from the calling context's domain and returns
// the block's virtual address. Sizes above MaxBlockSize take the page path;
// the rest are served from the best-fit size class. A size of zero, or at
// or above the owning pool's capacity, fails with ErrBadSize.
func (h *Heap) Malloc(size uint32) (uint32, error) {
	d, classes := h.route()
	if size == 0 || size >= h.mm.Capacity(d) {
		return 0, ErrBadSize
	}

	h.mm.Lock(d)
	defer h.mm.Unlock(d)

	var (
		addr uint32
		err  error
	)
	if size > MaxBlockSize {
		addr, err = h.mallocLarge(d, size)
	} else {
		addr, err = h.mallocSmall(d, classes, size)
	}
	if err != nil {
		return 0, err
	}

	h.note(func(s *Stats) {
		s.AllocCalls++
		if size > MaxBlockSize {
			s.LargeAllocs++
		}
		s.BytesAllocated += int64(size)
	})
	return addr, nil
}

// mallocLarge rounds size plus the arena header up to whole pages, maps and
// zeroes the run, and stamps a large header. The caller's address starts
// right after the header.
func (h *Heap) mallocLarge(d mem.Domain, size uint32) (uint32, error) {
	pages := int(layout.PagesFor(size + layout.ArenaHeaderSize))
	base, err := h.mm.AllocPagesLocked(d, pages)
	if err != nil {
		return 0, err
	}
	h.mm.ZeroRange(base, uint32(pages)*layout.PageSize)
	writeArena(h.mm, base, arena{class: noClass, large: true, count: uint32(pages)})
	return base + layout.ArenaHeaderSize, nil
}

// mallocSmall pops a block from the best-fit class, creating and splitting a
// fresh arena first when the class's free list is empty. Exactly the
// returned block is zeroed.
func (h *Heap) mallocSmall(d mem.Domain, classes *ClassSet, size uint32) (uint32, error) {
	idx := classIndex(size)
	c := &classes[idx]

	if c.free.Empty() {
		page, err := h.mm.AllocPagesLocked(d, 1)
		if err != nil {
			return 0, err
		}
		h.mm.ZeroRange(page, layout.PageSize)
		writeArena(h.mm, page, arena{class: uint32(idx), count: c.blocksPerArena})

		// Splice the fresh arena's blocks onto the free list with
		// interrupts off; the list has no other protection against an
		// allocating interrupt handler.
		enabled := h.gate.Disable()
		for i := uint32(0); i < c.blocksPerArena; i++ {
			b := blockAddr(page, c, i)
			if c.free.Contains(b) {
				panic(fmt.Sprintf("heap: block %#x already on the class %d free list", b, idx))
			}
			c.free.PushBack(b)
		}
		h.gate.Restore(enabled)

		h.note(func(s *Stats) { s.ArenasCreated++ })
	}

	b, ok := c.free.PopFront()
	if !ok {
		panic(fmt.Sprintf("heap: class %d free list empty after arena creation", idx))
	}
	h.mm.ZeroRange(b, c.blockSize)

	page := layout.PageBase(b)
	a := readArena(h.mm, page)
	a.count--
	writeArena(h.mm, page, a)
	return b, nil
}

// Free returns ptr's allocation to the calling context's domain. Large
// arenas go back through the page path whole; a small block rejoins its
// class free list, and when the owning arena's free count reaches
// blocks-per-arena, the arena's page is pulled off the list and released.
func (h *Heap) Free(ptr uint32) {
	if ptr == 0 {
		panic("heap: free of null pointer")
	}
	d, classes := h.route()
	if d == mem.Kernel && ptr < layout.KernelHeapBase {
		panic(fmt.Sprintf("heap: kernel free of %#x below the heap base", ptr))
	}

	h.mm.Lock(d)
	defer h.mm.Unlock(d)

	page := layout.PageBase(ptr)
	a := readArena(h.mm, page)

	if a.large {
		if ptr != page+layout.ArenaHeaderSize {
			panic(fmt.Sprintf("heap: %#x is not the start of its large arena", ptr))
		}
		h.mm.FreePagesLocked(d, page, int(a.count))
		h.note(func(s *Stats) {
			s.FreeCalls++
			s.BytesFreed += int64(a.count) * layout.PageSize
		})
		return
	}

	c := &classes[a.class]
	if off := ptr - page - layout.ArenaHeaderSize; off%c.blockSize != 0 {
		panic(fmt.Sprintf("heap: %#x is not a class %d block boundary", ptr, a.class))
	}
	if c.free.Contains(ptr) {
		panic(fmt.Sprintf("heap: double free of block %#x", ptr))
	}

	c.free.PushBack(ptr)
	a.count++
	writeArena(h.mm, page, a)

	reclaimed := false
	if a.count == c.blocksPerArena {
		// Every block is back; pull them all off the list and release
		// the arena's page. This is the only reclamation trigger.
		for i := uint32(0); i < c.blocksPerArena; i++ {
			b := blockAddr(page, c, i)
			if !c.free.Remove(b) {
				panic(fmt.Sprintf("heap: block %#x missing from free list during reclaim", b))
			}
		}
		h.mm.FreePagesLocked(d, page, 1)
		reclaimed = true
	}

	h.note(func(s *Stats) {
		s.FreeCalls++
		s.BytesFreed += int64(c.blockSize)
		if reclaimed {
			s.ArenasReclaimed++
		}
	})
}

func (h *Heap) note(fn func(*Stats)) {
	h.statsMu.Lock()
	fn(&h.stats)
	h.statsMu.Unlock()
}
