package mem

import (
	"fmt"
	"sync"

	"github.com/memkit/memkit/internal/layout"
)

// Pool is one physical memory pool: a bitmap over a contiguous run of
// frames, guarded by a lock. The kernel and user pools cover disjoint
// ranges; the user pool begins exactly where the kernel pool ends.
type Pool struct {
	mu     sync.Mutex
	bitmap Bitmap
	start  uint32 // physical address of frame 0
	size   uint32 // byte capacity
}

// Start returns the physical address of the pool's first frame.
func (p *Pool) Start() uint32 {
	return p.start
}

// Size returns the pool's byte capacity.
func (p *Pool) Size() uint32 {
	return p.size
}

// Contains reports whether paddr falls inside the pool's range.
func (p *Pool) Contains(paddr uint32) bool {
	return paddr >= p.start && paddr < p.start+p.size
}

// FreeFrames returns the number of unallocated frames.
func (p *Pool) FreeFrames() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.bitmap.Free()
}

// Snapshot returns a copy of the pool's bitmap storage.
func (p *Pool) Snapshot() []byte {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.bitmap.Snapshot()
}

// allocFrame marks one free frame used and returns its physical address.
// Caller holds p.mu.
func (p *Pool) allocFrame() (uint32, bool) {
	idx, ok := p.bitmap.Scan(1)
	if !ok {
		return 0, false
	}
	p.bitmap.Set(idx, true)
	return p.start + uint32(idx)*layout.PageSize, true
}

// freeFrame clears the bit for the frame at paddr. Freeing a frame that is
// not allocated, or outside the pool, is fatal. Caller holds p.mu.
func (p *Pool) freeFrame(paddr uint32) {
	if !p.Contains(paddr) {
		panic(fmt.Sprintf("mem: frame %#x outside pool [%#x,%#x)",
			paddr, p.start, p.start+p.size))
	}
	idx := int((paddr - p.start) / layout.PageSize)
	if !p.bitmap.Test(idx) {
		panic(fmt.Sprintf("mem: double free of frame %#x", paddr))
	}
	p.bitmap.Set(idx, false)
}
