package mem

import (
	"fmt"

	"github.com/memkit/memkit/internal/layout"
)

// Page-table maintenance. The directory lives at its fixed physical address;
// entry edits go through the self-map linear addresses so they are ordinary
// word writes, and reads of mapped memory go through a walk of the live
// structure with a small per-page translation cache standing in for the TLB.

// Translate returns the physical address backing vaddr. The mapping must be
// present: translating an unmapped address is the simulation's page fault
// and is fatal.
func (m *Manager) Translate(vaddr uint32) uint32 {
	paddr, ok := m.translate(vaddr)
	if !ok {
		panic(fmt.Sprintf("mem: page fault at %#x (no present mapping)", vaddr))
	}
	return paddr
}

// translate walks the two-level structure for vaddr, consulting and filling
// the translation cache.
func (m *Manager) translate(vaddr uint32) (uint32, bool) {
	page := layout.PageBase(vaddr)
	m.tlbMu.Lock()
	frame, hit := m.tlb[page]
	m.tlbMu.Unlock()
	if !hit {
		pde := m.phys.ReadU32(layout.PageDirBase + layout.PDEIndex(vaddr)*layout.EntrySize)
		if pde&layout.FlagPresent == 0 {
			return 0, false
		}
		table := pde &^ uint32(layout.PageMask)
		pte := m.phys.ReadU32(table + layout.PTEIndex(vaddr)*layout.EntrySize)
		if pte&layout.FlagPresent == 0 {
			return 0, false
		}
		frame = pte &^ uint32(layout.PageMask)
		m.tlbMu.Lock()
		m.tlb[page] = frame
		m.tlbMu.Unlock()
	}
	return frame | (vaddr & layout.PageMask), true
}

// invalidate drops the cached translation for one page.
func (m *Manager) invalidate(page uint32) {
	m.tlbMu.Lock()
	delete(m.tlb, page)
	m.tlbMu.Unlock()
}

// install maps the page at vaddr to the frame at paddr. If the owning
// directory entry is absent, a kernel frame is allocated to hold the new
// table, zeroed, and hooked in first. Re-installing over a live mapping is
// fatal. Caller holds the owning domain's pool lock.
func (m *Manager) install(d Domain, vaddr, paddr uint32) error {
	pdeAddr := layout.PDELinear(vaddr)
	pteAddr := layout.PTELinear(vaddr)

	if m.ReadWord(pdeAddr)&layout.FlagPresent == 0 {
		table, err := m.allocTableFrame(d)
		if err != nil {
			return err
		}
		m.WriteWord(pdeAddr, table|layout.EntryFlags)
		// The table page is reachable through the self-map now that the
		// directory entry is live; clear its stale contents before use.
		m.ZeroRange(layout.PageBase(pteAddr), layout.PageSize)
	}

	if pte := m.ReadWord(pteAddr); pte&layout.FlagPresent != 0 {
		panic(fmt.Sprintf("mem: remapping live page %#x (pte=%#x)", vaddr, pte))
	}
	m.WriteWord(pteAddr, paddr|layout.EntryFlags)
	return nil
}

// allocTableFrame takes a kernel frame for a new page table. Table frames
// always come from the kernel pool; when the caller holds only the user pool
// lock the kernel lock is taken here.
func (m *Manager) allocTableFrame(d Domain) (uint32, error) {
	if d == User {
		m.kernel.mu.Lock()
		defer m.kernel.mu.Unlock()
	}
	frame, ok := m.kernel.allocFrame()
	if !ok {
		return 0, ErrNoFrames
	}
	return frame, nil
}

// uninstall clears the present bit of vaddr's table entry and invalidates
// the cached translation for that one page. The table page itself is never
// reclaimed, even if it becomes empty.
func (m *Manager) uninstall(vaddr uint32) {
	pteAddr := layout.PTELinear(vaddr)
	m.WriteWord(pteAddr, m.ReadWord(pteAddr)&^uint32(layout.FlagPresent))
	m.invalidate(layout.PageBase(vaddr))
}

// ReadWord reads the word at virtual address vaddr through the live page
// tables. vaddr must be word-aligned.
func (m *Manager) ReadWord(vaddr uint32) uint32 {
	m.checkWordAligned(vaddr)
	return m.phys.ReadU32(m.Translate(vaddr))
}

// WriteWord writes a word at virtual address vaddr through the live page
// tables. vaddr must be word-aligned.
func (m *Manager) WriteWord(vaddr, v uint32) {
	m.checkWordAligned(vaddr)
	m.phys.PutU32(m.Translate(vaddr), v)
}

// ZeroRange clears n bytes of virtual memory starting at vaddr, translating
// page by page.
func (m *Manager) ZeroRange(vaddr, n uint32) {
	for n > 0 {
		chunk := layout.PageSize - (vaddr & layout.PageMask)
		if chunk > n {
			chunk = n
		}
		m.phys.Zero(m.Translate(vaddr), chunk)
		vaddr += chunk
		n -= chunk
	}
}

// ReadBytes fills p from virtual memory starting at vaddr.
func (m *Manager) ReadBytes(vaddr uint32, p []byte) {
	for len(p) > 0 {
		chunk := int(layout.PageSize - (vaddr & layout.PageMask))
		if chunk > len(p) {
			chunk = len(p)
		}
		m.phys.ReadAt(m.Translate(vaddr), p[:chunk])
		vaddr += uint32(chunk)
		p = p[chunk:]
	}
}

// WriteBytes copies p into virtual memory starting at vaddr.
func (m *Manager) WriteBytes(vaddr uint32, p []byte) {
	for len(p) > 0 {
		chunk := int(layout.PageSize - (vaddr & layout.PageMask))
		if chunk > len(p) {
			chunk = len(p)
		}
		m.phys.WriteAt(m.Translate(vaddr), p[:chunk])
		vaddr += uint32(chunk)
		p = p[chunk:]
	}
}

func (m *Manager) checkWordAligned(vaddr uint32) {
	if vaddr%layout.EntrySize != 0 {
		panic(fmt.Sprintf("mem: unaligned word access at %#x", vaddr))
	}
}
