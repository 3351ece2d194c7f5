package mem

import "errors"

var (
	// ErrNoFrames indicates the physical pool has no free frame left.
	ErrNoFrames = errors.New("mem: physical pool exhausted")

	// ErrNoVirtualRange indicates no contiguous run of free virtual pages
	// was found in the address space.
	ErrNoVirtualRange = errors.New("mem: no contiguous virtual range")

	// ErrBadCount indicates a page count of zero or beyond the pool's
	// frame capacity.
	ErrBadCount = errors.New("mem: page count out of range")
)
