package mem

import (
	"bytes"
	"testing"

	"github.com/memkit/memkit/boot"
	"github.com/memkit/memkit/internal/layout"
)

func Test_AllocFreeRoundTrip(t *testing.T) {
	m := testManager(t, 16<<20)

	physBefore := m.Pool(Kernel).Snapshot()
	virtBefore := m.KernelSpace().Snapshot()

	base, err := m.AllocPages(Kernel, 4)
	if err != nil {
		t.Fatal(err)
	}
	if base != layout.KernelHeapBase {
		t.Fatalf("first reservation at %#x, want heap base %#x",
			base, uint32(layout.KernelHeapBase))
	}
	if bytes.Equal(physBefore, m.Pool(Kernel).Snapshot()) {
		t.Fatal("physical bitmap unchanged after allocation")
	}

	m.FreePages(Kernel, base, 4)

	if !bytes.Equal(physBefore, m.Pool(Kernel).Snapshot()) {
		t.Fatal("physical bitmap not restored bit-for-bit")
	}
	if !bytes.Equal(virtBefore, m.KernelSpace().Snapshot()) {
		t.Fatal("virtual bitmap not restored bit-for-bit")
	}
}

func Test_AllocPagesZeroFills(t *testing.T) {
	m := testManager(t, 16<<20)

	base, err := m.AllocPages(Kernel, 2)
	if err != nil {
		t.Fatal(err)
	}
	pattern := bytes.Repeat([]byte{0xa5}, 2*layout.PageSize)
	m.WriteBytes(base, pattern)
	m.FreePages(Kernel, base, 2)

	// First-fit hands the same virtual run and frames straight back.
	again, err := m.AllocPages(Kernel, 2)
	if err != nil {
		t.Fatal(err)
	}
	if again != base {
		t.Fatalf("reallocation at %#x, want %#x", again, base)
	}
	buf := make([]byte, 2*layout.PageSize)
	m.ReadBytes(again, buf)
	for i, b := range buf {
		if b != 0 {
			t.Fatalf("byte %d = %#x after realloc, want 0", i, b)
		}
	}
}

func Test_TranslateMatchesPool(t *testing.T) {
	m := testManager(t, 16<<20)

	base, err := m.AllocPages(Kernel, 1)
	if err != nil {
		t.Fatal(err)
	}
	paddr := m.Translate(base)
	if !layout.PageAligned(paddr) {
		t.Fatalf("frame %#x not page-aligned", paddr)
	}
	if !m.Pool(Kernel).Contains(paddr) {
		t.Fatalf("frame %#x outside the kernel pool", paddr)
	}
	if m.Translate(base+123) != paddr+123 {
		t.Fatal("in-page offset not preserved by translation")
	}

	m.WriteWord(base, 0x12345678)
	if got := m.ReadWord(base); got != 0x12345678 {
		t.Fatalf("ReadWord = %#x", got)
	}
}

func Test_PartialFailureUnwinds(t *testing.T) {
	m := testManager(t, boot.MinImageSize) // 128 kernel frames

	// Burn all but 20 frames through mappings outside the heap's virtual
	// window, so virtual space stays plentiful while frames run out.
	frames := m.Pool(Kernel).FreeFrames()
	burnBase := uint32(layout.KernelHeapBase + 0x100000)
	for i := 0; i < frames-20; i++ {
		if _, err := m.PageAtNoReserve(Kernel, burnBase+uint32(i)*layout.PageSize); err != nil {
			t.Fatal(err)
		}
	}

	physBefore := m.Pool(Kernel).Snapshot()
	virtBefore := m.KernelSpace().Snapshot()

	// 20 frames remain; asking for 50 fails mid-loop and must unwind
	// every frame, mapping, and the whole virtual reservation.
	if _, err := m.AllocPages(Kernel, 50); err != ErrNoFrames {
		t.Fatalf("err = %v, want ErrNoFrames", err)
	}
	if !bytes.Equal(physBefore, m.Pool(Kernel).Snapshot()) {
		t.Fatal("physical bitmap dirtied by failed allocation")
	}
	if !bytes.Equal(virtBefore, m.KernelSpace().Snapshot()) {
		t.Fatal("virtual bitmap dirtied by failed allocation")
	}

	// The surviving frames still allocate cleanly.
	base, err := m.AllocPages(Kernel, 20)
	if err != nil {
		t.Fatal(err)
	}
	m.FreePages(Kernel, base, 20)
}

func Test_BadCounts(t *testing.T) {
	m := testManager(t, 16<<20)

	if _, err := m.AllocPages(Kernel, 0); err != ErrBadCount {
		t.Fatalf("count 0: err = %v, want ErrBadCount", err)
	}
	over := m.Pool(Kernel).FreeFrames() * 10
	if _, err := m.AllocPages(Kernel, over); err != ErrBadCount {
		t.Fatalf("oversized count: err = %v, want ErrBadCount", err)
	}
}

func Test_TranslateUnmappedIsFatal(t *testing.T) {
	m := testManager(t, 16<<20)
	defer func() {
		if recover() == nil {
			t.Fatal("translating an unmapped address did not panic")
		}
	}()
	m.Translate(layout.KernelHeapBase + 64*layout.PageSize)
}

func Test_PageAtSameAddressTwiceIsFatal(t *testing.T) {
	m := testManager(t, 16<<20)
	vaddr := uint32(layout.KernelHeapBase + 7*layout.PageSize)
	if _, err := m.PageAt(Kernel, vaddr); err != nil {
		t.Fatal(err)
	}
	frames := m.Pool(Kernel).FreeFrames()
	defer func() {
		if recover() == nil {
			t.Fatal("duplicate PageAt did not panic")
		}
		// The duplicate must be rejected before any frame is taken.
		if got := m.Pool(Kernel).FreeFrames(); got != frames {
			t.Fatalf("free frames = %d after rejected duplicate, want %d", got, frames)
		}
	}()
	m.PageAt(Kernel, vaddr) //nolint:errcheck // must panic first
}

func Test_PageAtChosenAddress(t *testing.T) {
	m := testManager(t, 16<<20)

	vaddr := uint32(layout.KernelHeapBase + 10*layout.PageSize)
	got, err := m.PageAt(Kernel, vaddr)
	if err != nil {
		t.Fatal(err)
	}
	if got != vaddr {
		t.Fatalf("PageAt returned %#x, want %#x", got, vaddr)
	}
	if !m.Pool(Kernel).Contains(m.Translate(vaddr)) {
		t.Fatal("chosen page not backed by a kernel frame")
	}

	// The run scanner must now skip the marked page.
	base, err := m.AllocPages(Kernel, 11)
	if err != nil {
		t.Fatal(err)
	}
	if base != layout.KernelHeapBase+11*layout.PageSize {
		t.Fatalf("11-page run at %#x, want %#x",
			base, uint32(layout.KernelHeapBase+11*layout.PageSize))
	}
	m.FreePages(Kernel, base, 11)
	m.FreePages(Kernel, vaddr, 1)
}

func Test_PageAtNoReserveLeavesBitmap(t *testing.T) {
	m := testManager(t, 16<<20)

	virtBefore := m.KernelSpace().Snapshot()
	vaddr := uint32(layout.KernelHeapBase + 5*layout.PageSize)
	if _, err := m.PageAtNoReserve(Kernel, vaddr); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(virtBefore, m.KernelSpace().Snapshot()) {
		t.Fatal("virtual bitmap touched by the no-reserve variant")
	}
	// The mapping and the frame are real.
	paddr := m.Translate(vaddr)
	if !m.Pool(Kernel).Contains(paddr) {
		t.Fatal("no-reserve page not backed by a kernel frame")
	}

	// Cleanup without the virtual side: tear down and release the frame only.
	m.uninstall(vaddr)
	m.FreeFrame(paddr)
}

func Test_FreeFrameByAddress(t *testing.T) {
	m := testManager(t, 16<<20)

	before := m.Pool(Kernel).FreeFrames()
	vaddr := uint32(layout.KernelHeapBase + 3*layout.PageSize)
	if _, err := m.PageAtNoReserve(Kernel, vaddr); err != nil {
		t.Fatal(err)
	}
	paddr := m.Translate(vaddr)
	m.uninstall(vaddr)

	m.FreeFrame(paddr)
	if got := m.Pool(Kernel).FreeFrames(); got != before {
		t.Fatalf("free frames = %d, want %d", got, before)
	}
}

func Test_CrossDomainRequestIsFatal(t *testing.T) {
	m := testManager(t, 16<<20)

	defer func() {
		if recover() == nil {
			t.Fatal("kernel thread got a user page without panicking")
		}
	}()
	m.PageAt(User, layout.UserBase) //nolint:errcheck // must panic first
}

func Test_RemappingLivePageIsFatal(t *testing.T) {
	m := testManager(t, 16<<20)

	vaddr := uint32(layout.KernelHeapBase)
	if _, err := m.PageAt(Kernel, vaddr); err != nil {
		t.Fatal(err)
	}
	defer func() {
		if recover() == nil {
			t.Fatal("remapping a live page did not panic")
		}
	}()
	m.PageAtNoReserve(Kernel, vaddr) //nolint:errcheck // must panic first
}

func Test_UserDomainAllocFree(t *testing.T) {
	m := testManager(t, 16<<20)
	us := NewUserSpace()
	m.Current = func() *Space { return us }

	poolBefore := m.Pool(User).Snapshot()
	spaceBefore := us.Snapshot()

	base, err := m.AllocPages(User, 3)
	if err != nil {
		t.Fatal(err)
	}
	if base != layout.UserBase {
		t.Fatalf("user run at %#x, want %#x", base, uint32(layout.UserBase))
	}
	if !m.Pool(User).Contains(m.Translate(base)) {
		t.Fatal("user page backed by a non-user frame")
	}

	m.FreePages(User, base, 3)
	if !bytes.Equal(poolBefore, m.Pool(User).Snapshot()) {
		t.Fatal("user pool bitmap not restored")
	}
	if !bytes.Equal(spaceBefore, us.Snapshot()) {
		t.Fatal("user space bitmap not restored")
	}
}
