package mem

import "fmt"

// Bitmap is a fixed-capacity bit-indexed allocator: bit i set means unit i
// (a frame or a page) is allocated. It is used identically for physical
// frames and virtual page ranges.
type Bitmap struct {
	bits []byte
}

// NewBitmap returns an all-clear bitmap of byteLen bytes (byteLen*8 units).
func NewBitmap(byteLen uint32) Bitmap {
	return Bitmap{bits: make([]byte, byteLen)}
}

// Bits returns the capacity in bits.
func (b *Bitmap) Bits() int {
	return len(b.bits) * 8
}

// Test reports whether bit i is set.
func (b *Bitmap) Test(i int) bool {
	b.check(i)
	return b.bits[i/8]&(1<<(i%8)) != 0
}

// Set sets or clears bit i.
func (b *Bitmap) Set(i int, used bool) {
	b.check(i)
	if used {
		b.bits[i/8] |= 1 << (i % 8)
	} else {
		b.bits[i/8] &^= 1 << (i % 8)
	}
}

// Scan finds count contiguous clear bits, first-fit from bit 0, and returns
// the starting index. It does not mark them. The second result is false when
// no run exists.
func (b *Bitmap) Scan(count int) (int, bool) {
	if count <= 0 || count > b.Bits() {
		return 0, false
	}
	run := 0
	for i := 0; i < b.Bits(); i++ {
		if b.bits[i/8]&(1<<(i%8)) != 0 {
			run = 0
			continue
		}
		run++
		if run == count {
			return i - count + 1, true
		}
	}
	return 0, false
}

// Clear resets every bit.
func (b *Bitmap) Clear() {
	clear(b.bits)
}

// Free returns the number of clear bits.
func (b *Bitmap) Free() int {
	n := 0
	for i := 0; i < b.Bits(); i++ {
		if b.bits[i/8]&(1<<(i%8)) == 0 {
			n++
		}
	}
	return n
}

// Snapshot returns a copy of the raw bit storage, for state comparison.
func (b *Bitmap) Snapshot() []byte {
	out := make([]byte, len(b.bits))
	copy(out, b.bits)
	return out
}

func (b *Bitmap) check(i int) {
	if i < 0 || i >= b.Bits() {
		panic(fmt.Sprintf("mem: bitmap index %d outside %d bits", i, b.Bits()))
	}
}
