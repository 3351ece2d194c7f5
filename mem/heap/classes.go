package heap

import (
	"github.com/memkit/memkit/internal/deque"
	"github.com/memkit/memkit/internal/layout"
)

const (
	// ClassCount is the number of size classes.
	ClassCount = 7

	// MinBlockSize is the smallest class's block size. It must be at least
	// the size of a free-list link so a free block can carry its own
	// bookkeeping; at 16 bytes that holds with room to spare.
	MinBlockSize = 16

	// MaxBlockSize is the largest class's block size; anything bigger
	// takes the page path.
	MaxBlockSize = 1024
)

// Class is one size-class descriptor: a fixed block size, the number of
// blocks a page-sized arena yields, and the free list of block addresses.
type Class struct {
	blockSize      uint32
	blocksPerArena uint32
	free           deque.Deque[uint32]
}

// BlockSize returns the class's block size in bytes.
func (c *Class) BlockSize() uint32 {
	return c.blockSize
}

// BlocksPerArena returns how many blocks one arena of this class holds.
func (c *Class) BlocksPerArena() uint32 {
	return c.blocksPerArena
}

// FreeBlocks returns the current free-list length.
func (c *Class) FreeBlocks() int {
	return c.free.Len()
}

// ClassSet is a full table of size-class descriptors: one process-wide set
// for kernel allocations, one per user execution context.
type ClassSet [ClassCount]Class

// NewClassSet builds the seven classes, 16 bytes doubling to 1024.
func NewClassSet() *ClassSet {
	set := new(ClassSet)
	size := uint32(MinBlockSize)
	for i := range set {
		set[i].blockSize = size
		set[i].blocksPerArena = (layout.PageSize - layout.ArenaHeaderSize) / size
		size *= 2
	}
	return set
}

// classIndex returns the smallest class whose block size fits size.
// size must be in (0, MaxBlockSize].
func classIndex(size uint32) int {
	idx := 0
	for block := uint32(MinBlockSize); size > block; block *= 2 {
		idx++
	}
	return idx
}
