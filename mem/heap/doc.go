// Package heap provides the general-purpose allocator layered on the page
// primitives in package mem.
//
// # Overview
//
// Requests above 1024 bytes take the page path: the size plus the arena
// header is rounded up to whole pages, the run is allocated and zeroed, and
// a "large" arena header records the page count. Requests of 1024 bytes and
// below are served from seven fixed size classes (16 bytes doubling to
// 1024): each class keeps a free list of blocks carved out of page-sized
// arenas, and an arena whose blocks all come back is returned to the page
// allocator whole.
//
// # Size classes
//
//	Class 0:   16 bytes, 255 blocks per arena
//	Class 1:   32 bytes, 127 blocks per arena
//	Class 2:   64 bytes,  63 blocks per arena
//	Class 3:  128 bytes,  31 blocks per arena
//	Class 4:  256 bytes,  15 blocks per arena
//	Class 5:  512 bytes,   7 blocks per arena
//	Class 6: 1024 bytes,   3 blocks per arena
//
// The kernel's class table is process-wide and owned by the Heap; each user
// execution context carries its own, reached through the Context query.
//
// # Zeroing contract
//
// A large allocation returns all-zero memory immediately. A small allocation
// zeroes exactly the returned block, so a block dirtied, freed, and handed
// out again always starts clean.
//
// # Arena headers
//
// Every arena, large or small, begins at a page boundary and carries a
// 12-byte header in simulated memory: class id (or the none marker), a
// large flag, and a count (free blocks for small arenas, pages for large
// ones). Free locates the arena by masking the pointer down to its page.
// That only works because arenas always start at a page boundary, which is
// asserted on every entry rather than trusted.
//
// # Concurrency
//
// A whole Malloc or Free runs under the owning pool's lock. Splicing a fresh
// arena's blocks onto a free list additionally disables interrupts through
// the InterruptGate, since the list is not otherwise protected against an
// allocating interrupt handler.
package heap
