//go:build !unix

package physmem

// newBuffer allocates a heap-backed buffer on platforms without mmap support.
func newBuffer(size int) ([]byte, func() error, error) {
	data := make([]byte, size)
	return data, func() error { return nil }, nil
}
