package deque

import "testing"

func Test_PushPopBothEnds(t *testing.T) {
	var d Deque[int]
	if !d.Empty() {
		t.Fatal("zero value not empty")
	}
	d.PushBack(1)
	d.PushBack(2)
	d.PushFront(0)
	if d.Len() != 3 {
		t.Fatalf("Len = %d, want 3", d.Len())
	}
	if v, ok := d.PopFront(); !ok || v != 0 {
		t.Fatalf("PopFront = %d,%v, want 0,true", v, ok)
	}
	if v, ok := d.PopBack(); !ok || v != 2 {
		t.Fatalf("PopBack = %d,%v, want 2,true", v, ok)
	}
	if v, ok := d.PopFront(); !ok || v != 1 {
		t.Fatalf("PopFront = %d,%v, want 1,true", v, ok)
	}
	if _, ok := d.PopFront(); ok {
		t.Fatal("PopFront on empty deque succeeded")
	}
}

func Test_ContainsAndRemove(t *testing.T) {
	var d Deque[uint32]
	for i := uint32(0); i < 10; i++ {
		d.PushBack(i * 16)
	}
	if !d.Contains(48) {
		t.Fatal("Contains(48) = false")
	}
	if d.Contains(49) {
		t.Fatal("Contains(49) = true")
	}
	if !d.Remove(48) {
		t.Fatal("Remove(48) = false")
	}
	if d.Contains(48) {
		t.Fatal("48 still present after Remove")
	}
	if d.Len() != 9 {
		t.Fatalf("Len = %d, want 9", d.Len())
	}
	if d.Remove(48) {
		t.Fatal("second Remove(48) = true")
	}
}

func Test_GrowthAcrossWrap(t *testing.T) {
	var d Deque[int]
	// Force the head off zero, then grow through several reallocations.
	for i := 0; i < 4; i++ {
		d.PushBack(i)
	}
	d.PopFront()
	d.PopFront()
	for i := 4; i < 100; i++ {
		d.PushBack(i)
	}
	for want := 2; want < 100; want++ {
		v, ok := d.PopFront()
		if !ok || v != want {
			t.Fatalf("PopFront = %d,%v, want %d,true", v, ok, want)
		}
	}
	if !d.Empty() {
		t.Fatal("deque not empty after draining")
	}
}
