package mem

import (
	"fmt"
	"sync"

	"github.com/memkit/memkit/internal/layout"
	"github.com/memkit/memkit/internal/physmem"
)

// Domain selects which physical pool and virtual address space an allocation
// is served from.
type Domain uint8

const (
	// Kernel is the kernel domain: kernel pool, kernel heap space.
	Kernel Domain = iota
	// User is the user domain: user pool, the calling context's space.
	User
)

func (d Domain) String() string {
	if d == Kernel {
		return "kernel"
	}
	return "user"
}

// Manager is the memory subsystem: both physical pools, the kernel virtual
// space, and the page-table state, constructed once over a booted machine
// image and threaded explicitly through every allocation entry point.
type Manager struct {
	phys *physmem.Memory

	kernel Pool
	user   Pool

	kernelSpace Space

	tlbMu sync.Mutex
	tlb   map[uint32]uint32 // page -> frame translation cache

	// Current reports the user virtual space of the running execution
	// context, or nil for kernel threads. Left nil, every caller is
	// treated as a kernel thread. Set once at startup by the scheduler
	// glue, before any user-domain allocation.
	Current func() *Space
}

// New builds the subsystem over a machine image prepared by the boot stage.
// The total physical memory size is read from its agreed location; what
// remains above the kernel image and the pre-built page tables is split
// evenly between the kernel and user pools, the user pool starting exactly
// where the kernel pool ends. Frames that do not fill a whole bitmap byte
// are ignored.
//
// The kernel virtual space is capped at the self-map window: on machines
// big enough that the kernel pool holds more frames than there are pages
// between the heap base and the self-map, the extra frames stay reachable
// through PageAt but never through a heap-space reservation.
func New(phys *physmem.Memory) (*Manager, error) {
	total := phys.ReadU32(layout.BootMemSizeAddr)
	if total == 0 || total > phys.Size() {
		return nil, fmt.Errorf("mem: boot memory size %#x disagrees with image of %#x bytes",
			total, phys.Size())
	}
	if total <= layout.UsedLowMem {
		return nil, fmt.Errorf("mem: %#x bytes leaves nothing above the kernel image", total)
	}

	freePages := (total - layout.UsedLowMem) / layout.PageSize
	kernelPages := freePages / 2
	userPages := freePages - kernelPages
	kernelBytes := kernelPages / 8
	userBytes := userPages / 8
	if kernelBytes == 0 || userBytes == 0 {
		return nil, fmt.Errorf("mem: %#x bytes is too small to populate both pools", total)
	}

	kernelStart := uint32(layout.UsedLowMem)
	userStart := kernelStart + kernelPages*layout.PageSize

	m := &Manager{
		phys: phys,
		tlb:  make(map[uint32]uint32),
	}
	m.kernel = Pool{
		bitmap: NewBitmap(kernelBytes),
		start:  kernelStart,
		size:   kernelPages * layout.PageSize,
	}
	m.user = Pool{
		bitmap: NewBitmap(userBytes),
		start:  userStart,
		size:   userPages * layout.PageSize,
	}
	spacePages := kernelPages
	if window := uint32(layout.SelfMapBase-layout.KernelHeapBase) / layout.PageSize; spacePages > window {
		spacePages = window
	}
	m.kernelSpace = Space{
		bitmap: NewBitmap(spacePages / 8),
		start:  layout.KernelHeapBase,
		limit:  layout.SelfMapBase,
	}
	return m, nil
}

// Pool returns the domain's physical pool.
func (m *Manager) Pool(d Domain) *Pool {
	if d == Kernel {
		return &m.kernel
	}
	return &m.user
}

// KernelSpace returns the kernel's virtual address space.
func (m *Manager) KernelSpace() *Space {
	return &m.kernelSpace
}

// Capacity returns the domain pool's byte capacity.
func (m *Manager) Capacity(d Domain) uint32 {
	return m.Pool(d).size
}

// DomainOf returns the pool domain owning the frame at paddr, by comparing
// against the user pool's start.
func (m *Manager) DomainOf(paddr uint32) Domain {
	if paddr >= m.user.start {
		return User
	}
	return Kernel
}

// Lock acquires the domain's pool lock, serializing every allocation and
// free for that domain, including page-table edits.
func (m *Manager) Lock(d Domain) {
	m.Pool(d).mu.Lock()
}

// Unlock releases the domain's pool lock.
func (m *Manager) Unlock(d Domain) {
	m.Pool(d).mu.Unlock()
}

// space resolves the virtual address space for a domain: the kernel's own,
// or the running context's user space. A user-domain request from a context
// without a user space is a cross-domain violation and fatal.
func (m *Manager) space(d Domain) *Space {
	if d == Kernel {
		return &m.kernelSpace
	}
	s := m.currentUserSpace()
	if s == nil {
		panic("mem: user-domain request from a context without a user space")
	}
	return s
}

func (m *Manager) currentUserSpace() *Space {
	if m.Current == nil {
		return nil
	}
	return m.Current()
}
