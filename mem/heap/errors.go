package heap

import "errors"

// ErrBadSize indicates a request of zero bytes or at/above the owning
// pool's byte capacity.
var ErrBadSize = errors.New("heap: size must be positive and below the pool capacity")
