package boot

import (
	"testing"

	"github.com/memkit/memkit/internal/layout"
)

func Test_RejectsTinyImage(t *testing.T) {
	if _, err := NewImage(MinImageSize - layout.PageSize); err == nil {
		t.Fatal("image below the minimum size succeeded")
	}
}

func Test_AgreedState(t *testing.T) {
	phys, err := NewImage(8 << 20)
	if err != nil {
		t.Fatal(err)
	}
	defer phys.Close()

	if got := phys.ReadU32(layout.BootMemSizeAddr); got != 8<<20 {
		t.Fatalf("memory size word = %#x, want %#x", got, uint32(8<<20))
	}

	pde := func(slot int) uint32 {
		return phys.ReadU32(layout.PageDirBase + uint32(slot)*layout.EntrySize)
	}

	// Slot 0 and the first kernel slot share the first table.
	if got := pde(0); got != layout.KernelTableBase|layout.EntryFlags {
		t.Fatalf("PDE[0] = %#x", got)
	}
	if got := pde(768); got != layout.KernelTableBase|layout.EntryFlags {
		t.Fatalf("PDE[768] = %#x", got)
	}
	// Last pre-built kernel table.
	want := uint32(layout.KernelTableBase + (layout.KernelTableCount-1)*layout.PageSize)
	if got := pde(768 + layout.KernelTableCount - 1); got != want|layout.EntryFlags {
		t.Fatalf("PDE[1022] = %#x, want %#x", got, want|layout.EntryFlags)
	}
	// The final slot references the directory itself.
	if got := pde(layout.SelfMapSlot); got != layout.PageDirBase|layout.EntryFlags {
		t.Fatalf("PDE[1023] = %#x", got)
	}

	// Low 1MB identity map through the first table.
	for _, j := range []uint32{0, 1, 255} {
		got := phys.ReadU32(layout.KernelTableBase + j*layout.EntrySize)
		if got != j*layout.PageSize|layout.EntryFlags {
			t.Fatalf("first table entry %d = %#x", j, got)
		}
	}
	// Entry 256 and beyond stay absent until installed.
	if got := phys.ReadU32(layout.KernelTableBase + 256*layout.EntrySize); got != 0 {
		t.Fatalf("first table entry 256 = %#x, want 0", got)
	}
}
