package layout

// Address arithmetic for the two-level paging structure. A 32-bit linear
// address decomposes as [31:22] directory index, [21:12] table index,
// [11:0] in-page offset.

// PDEIndex returns the directory index of a linear address.
func PDEIndex(addr uint32) uint32 {
	return (addr & 0xffc00000) >> 22
}

// PTEIndex returns the table index of a linear address.
func PTEIndex(addr uint32) uint32 {
	return (addr & 0x003ff000) >> 12
}

// PageBase rounds a linear address down to its page boundary.
func PageBase(addr uint32) uint32 {
	return addr &^ PageMask
}

// PageAligned reports whether addr sits on a page boundary.
func PageAligned(addr uint32) bool {
	return addr&PageMask == 0
}

// PTELinear returns the linear address of the table entry that maps addr,
// computed through the self-map: the directory bits of addr select a table
// page inside the self-map window, the table bits select the entry.
//
// Example:
//
//	PTELinear(0xc0100000) = 0xfff00400
func PTELinear(addr uint32) uint32 {
	return SelfMapBase + ((addr & 0xffc00000) >> 10) + PTEIndex(addr)*EntrySize
}

// PDELinear returns the linear address of the directory entry that maps addr,
// computed through the self-map's directory view.
//
// Example:
//
//	PDELinear(0xc0100000) = 0xfffffc00
func PDELinear(addr uint32) uint32 {
	return SelfDirBase + PDEIndex(addr)*EntrySize
}

// PagesFor returns the number of whole pages needed to hold n bytes.
//
// Example:
//
//	PagesFor(1)    = 1
//	PagesFor(4096) = 1
//	PagesFor(4097) = 2
func PagesFor(n uint32) uint32 {
	return (n + PageSize - 1) / PageSize
}
