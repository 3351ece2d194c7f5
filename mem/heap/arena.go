package heap

import (
	"fmt"

	"github.com/memkit/memkit/internal/layout"
	"github.com/memkit/memkit/mem"
)

// Arena headers live in simulated memory at the base of every page-aligned
// allocation, three words: class id (or noClass), large flag, count.

// noClass marks a large arena, which has no size-class descriptor.
const noClass = 0xffffffff

// arena is the decoded header: either Large{page count} or
// Small{class, free count}.
type arena struct {
	class uint32 // class index, or noClass when large
	large bool
	count uint32 // free blocks for small arenas, pages for large ones
}

// readArena decodes and validates the header at a page base. A header that
// is neither a well-formed small nor large variant means a caller freed a
// pointer that was never a heap allocation, which is fatal.
func readArena(mm *mem.Manager, page uint32) arena {
	class := mm.ReadWord(page)
	flag := mm.ReadWord(page + 4)
	count := mm.ReadWord(page + 8)

	switch flag {
	case 1:
		if class != noClass || count == 0 {
			panic(fmt.Sprintf("heap: corrupt large arena header at %#x", page))
		}
		return arena{class: noClass, large: true, count: count}
	case 0:
		if class >= ClassCount {
			panic(fmt.Sprintf("heap: corrupt arena header at %#x (class %d)", page, class))
		}
		return arena{class: class, count: count}
	default:
		panic(fmt.Sprintf("heap: corrupt arena header at %#x (flag %d)", page, flag))
	}
}

// writeArena stamps the header at a page base.
func writeArena(mm *mem.Manager, page uint32, a arena) {
	flag := uint32(0)
	if a.large {
		flag = 1
	}
	mm.WriteWord(page, a.class)
	mm.WriteWord(page+4, flag)
	mm.WriteWord(page+8, a.count)
}

// blockAddr returns the virtual address of block idx inside a small arena.
func blockAddr(page uint32, c *Class, idx uint32) uint32 {
	return page + layout.ArenaHeaderSize + idx*c.blockSize
}
