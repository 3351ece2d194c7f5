// Package layout houses the physical and linear memory layout agreed with the
// boot stage, plus the address arithmetic for the two-level paging structure.
// The goal is to keep every magic address and bit mask in one place so higher
// packages can reason about pages and entries rather than raw numbers.
package layout

const (
	// PageSize is the size of one page/frame in bytes.
	PageSize = 0x1000

	// PageShift is log2(PageSize).
	PageShift = 12

	// PageMask selects the in-page offset bits of a linear address.
	PageMask = PageSize - 1

	// EntriesPerTable is the number of 4-byte entries in a page directory or
	// page table (one page worth of entries).
	EntriesPerTable = 1024

	// EntrySize is the size of a directory or table entry in bytes.
	EntrySize = 4
)

// Entry flag bits shared by directory and table entries.
const (
	// FlagPresent gates entry validity; a clear bit means no mapping.
	FlagPresent = 0x1

	// FlagWritable allows writes through the mapping.
	FlagWritable = 0x2

	// FlagUser allows user-mode access through the mapping.
	FlagUser = 0x4

	// EntryFlags is the flag set installed on every new mapping:
	// present, writable, user-accessible.
	EntryFlags = FlagPresent | FlagWritable | FlagUser
)

// Physical addresses fixed by agreement with the boot stage.
const (
	// BootMemSizeAddr is where the boot stage deposits the total physical
	// memory size in bytes, as a little-endian u32.
	BootMemSizeAddr = 0xb00

	// PageDirBase is the physical address of the page directory.
	PageDirBase = 0x100000

	// KernelTableBase is the physical address of the first kernel page table.
	// The remaining pre-built kernel tables follow contiguously.
	KernelTableBase = 0x101000

	// KernelTableCount is the number of page tables the boot stage pre-builds
	// for the kernel half of the address space (directory slots 768..1022).
	KernelTableCount = 255

	// LowMemFloor is the lowest physical address the free paths may release.
	// Everything below it (the low 1MB, the directory, the first kernel
	// table) belongs to the kernel image and bootstrap structures.
	LowMemFloor = 0x102000

	// UsedLowMem is the physical memory consumed before the pools begin:
	// the low 1MB plus the directory and the 255 kernel tables (256 pages).
	UsedLowMem = 0x100000 + (1+KernelTableCount)*PageSize
)

// Linear (virtual) addresses fixed by the kernel layout.
const (
	// KernelBase is the kernel/user split: linear addresses at or above it
	// belong to the kernel half.
	KernelBase = 0xc0000000

	// KernelHeapBase is where the kernel heap's virtual space begins,
	// skipping the identity-mapped low 1MB.
	KernelHeapBase = 0xc0100000

	// BitmapRegion is a four-page region below the kernel stack reserved by
	// the boot stage for allocator bookkeeping. The region stays reserved
	// for layout compatibility even though this implementation keeps its
	// bitmaps host-side.
	BitmapRegion = 0xc009a000

	// UserBase is where a user context's virtual space begins (the
	// conventional executable load address).
	UserBase = 0x8048000

	// UserGuardTop bounds user virtual reservations from above: the page
	// just below the kernel split is a guard separating user stack and heap
	// growth from kernel space.
	UserGuardTop = KernelBase - PageSize
)

// Self-map addresses. The final directory slot maps the directory itself, so
// the tables appear as ordinary memory in the top 4MB of the linear space.
const (
	// SelfMapBase is the linear base of the self-mapped page tables.
	SelfMapBase = 0xffc00000

	// SelfDirBase is the linear address of the page directory through the
	// self-map (the directory seen as its own last table's last page).
	SelfDirBase = 0xfffff000

	// SelfMapSlot is the directory index reserved for the self-reference.
	SelfMapSlot = EntriesPerTable - 1
)

// ArenaHeaderSize is the size of the arena header stamped at the start of
// every heap arena: class id, large flag, count, each a u32.
const ArenaHeaderSize = 12
