// Package boot stands in for the boot-time stage: it produces a machine
// image in the state the memory core expects to find at startup. On real
// hardware this work happens before the kernel proper runs; here it gives
// tests and tools a live machine to initialize mem.New against.
//
// The agreed state is: the page directory at its fixed physical address with
// the kernel half of the linear space wired to pre-built page tables, the
// low 1MB identity-mapped through the shared first table, the final
// directory slot referencing the directory itself, and the total physical
// memory size deposited as a word at its fixed low-memory location.
package boot

import (
	"fmt"

	"github.com/memkit/memkit/internal/layout"
	"github.com/memkit/memkit/internal/physmem"
)

// MinImageSize is the smallest machine this layout supports: the kernel
// image and page tables plus one megabyte of pool memory.
const MinImageSize = layout.UsedLowMem + 0x100000

// NewImage builds a booted machine with total bytes of physical memory.
func NewImage(total uint32) (*physmem.Memory, error) {
	if total < MinImageSize {
		return nil, fmt.Errorf("boot: %#x bytes is below the minimum image size %#x",
			total, uint32(MinImageSize))
	}
	phys, err := physmem.New(total)
	if err != nil {
		return nil, err
	}

	phys.PutU32(layout.BootMemSizeAddr, total)

	// Directory: the low 4MB and the first kernel 4MB share the first
	// table, the rest of the kernel half gets one pre-built table per
	// slot, and the last slot maps the directory itself.
	dirEntry := func(slot int, table uint32) {
		phys.PutU32(layout.PageDirBase+uint32(slot)*layout.EntrySize, table|layout.EntryFlags)
	}
	dirEntry(0, layout.KernelTableBase)
	kernelSlot0 := int(layout.PDEIndex(layout.KernelBase))
	for i := 0; i < layout.KernelTableCount; i++ {
		dirEntry(kernelSlot0+i, layout.KernelTableBase+uint32(i)*layout.PageSize)
	}
	dirEntry(layout.SelfMapSlot, layout.PageDirBase)

	// First table: identity map of the low 1MB (256 entries). The
	// remaining pre-built tables stay zeroed until mappings are installed.
	for j := uint32(0); j < 256; j++ {
		phys.PutU32(layout.KernelTableBase+j*layout.EntrySize,
			j*layout.PageSize|layout.EntryFlags)
	}

	return phys, nil
}
