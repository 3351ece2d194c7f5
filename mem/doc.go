// Package mem implements the memory-management core of a small 32-bit
// protected-mode kernel over a simulated machine: physical frame pools,
// virtual address-space bookkeeping, and page-table maintenance.
//
// # Overview
//
// Physical memory is split into two pools, kernel and user, each tracked by a
// first-fit bitmap and guarded by its own lock. Virtual address space is
// tracked the same way: one bitmap for the kernel heap, one per user
// execution context. A page allocation composes three steps: reserve a
// contiguous virtual run, allocate one physical frame per page, and install
// the mapping in the two-level page-table structure. Freeing mirrors it.
//
// # The Manager
//
// All state hangs off a single Manager value constructed once over a booted
// machine image:
//
//	phys, _ := boot.NewImage(32 << 20)
//	m, err := mem.New(phys)
//	if err != nil {
//	    return err
//	}
//
//	base, err := m.AllocPages(mem.Kernel, 4) // 4 zeroed kernel pages
//	...
//	m.FreePages(mem.Kernel, base, 4)
//
// # Self-mapped page tables
//
// The final directory slot maps the page directory itself, so every
// directory and table entry has an ordinary linear address in the top 4MB of
// the address space (layout.PDELinear, layout.PTELinear). The Manager edits
// its own page tables through those addresses; no separate physical-memory
// window exists.
//
// # Error tiers
//
// Resource exhaustion (ErrNoFrames, ErrNoVirtualRange) and argument
// validation (ErrBadCount) come back as errors. Invariant violations such as
// remapping a live page, freeing a protected frame, or cross-domain page
// requests panic with a diagnostic: they are programming errors in calling
// code, not runtime conditions.
//
// # Concurrency
//
// Execution is modeled single-core and interrupt-preemptible. Each pool's
// lock serializes every bitmap mutation and page-table edit for its domain;
// the kernel virtual bitmap is only touched under the kernel pool lock.
// Methods with the Locked suffix document that the caller already holds the
// domain lock (the heap allocator holds it across a whole Malloc/Free call).
package mem
