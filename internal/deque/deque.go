// Package deque implements the growable list used for allocator free lists:
// O(1) amortized push and pop at either end, a membership test, and removal
// of a known element. Order beyond FIFO/LIFO access is not meaningful.
package deque

// Deque is a growable double-ended queue backed by a ring buffer.
// The zero value is ready to use.
type Deque[T comparable] struct {
	buf  []T
	head int
	n    int
}

// Len returns the number of elements.
func (d *Deque[T]) Len() int {
	return d.n
}

// Empty reports whether the deque holds no elements.
func (d *Deque[T]) Empty() bool {
	return d.n == 0
}

// PushBack appends v at the tail.
func (d *Deque[T]) PushBack(v T) {
	d.grow()
	d.buf[(d.head+d.n)%len(d.buf)] = v
	d.n++
}

// PushFront prepends v at the head.
func (d *Deque[T]) PushFront(v T) {
	d.grow()
	d.head = (d.head - 1 + len(d.buf)) % len(d.buf)
	d.buf[d.head] = v
	d.n++
}

// PopFront removes and returns the head element.
// The second result is false when the deque is empty.
func (d *Deque[T]) PopFront() (T, bool) {
	var zero T
	if d.n == 0 {
		return zero, false
	}
	v := d.buf[d.head]
	d.buf[d.head] = zero
	d.head = (d.head + 1) % len(d.buf)
	d.n--
	return v, true
}

// PopBack removes and returns the tail element.
// The second result is false when the deque is empty.
func (d *Deque[T]) PopBack() (T, bool) {
	var zero T
	if d.n == 0 {
		return zero, false
	}
	i := (d.head + d.n - 1) % len(d.buf)
	v := d.buf[i]
	d.buf[i] = zero
	d.n--
	return v, true
}

// Contains reports whether v is present. O(n).
func (d *Deque[T]) Contains(v T) bool {
	for i := 0; i < d.n; i++ {
		if d.buf[(d.head+i)%len(d.buf)] == v {
			return true
		}
	}
	return false
}

// Remove deletes the first occurrence of v and reports whether it was found.
// The relative order of the remaining elements is not preserved. O(n).
func (d *Deque[T]) Remove(v T) bool {
	for i := 0; i < d.n; i++ {
		j := (d.head + i) % len(d.buf)
		if d.buf[j] != v {
			continue
		}
		// Swap the tail element into the hole and shrink.
		last := (d.head + d.n - 1) % len(d.buf)
		d.buf[j] = d.buf[last]
		var zero T
		d.buf[last] = zero
		d.n--
		return true
	}
	return false
}

func (d *Deque[T]) grow() {
	if d.n < len(d.buf) {
		return
	}
	size := len(d.buf) * 2
	if size == 0 {
		size = 8
	}
	buf := make([]T, size)
	for i := 0; i < d.n; i++ {
		buf[i] = d.buf[(d.head+i)%len(d.buf)]
	}
	d.buf = buf
	d.head = 0
}
