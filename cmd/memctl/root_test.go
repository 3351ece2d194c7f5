package main

import "testing"

func Test_MachineBytesRange(t *testing.T) {
	cases := []struct {
		mb   uint32
		want uint32
		ok   bool
	}{
		{0, 0, false},
		{1, 1 << 20, true},
		{32, 32 << 20, true},
		{4095, 4095 << 20, true},
		{4096, 0, false}, // would wrap a 32-bit size to zero
		{4097, 0, false}, // would wrap to 1MB
	}
	for _, c := range cases {
		got, err := machineBytes(c.mb)
		if c.ok != (err == nil) {
			t.Fatalf("machineBytes(%d): err = %v, want ok=%v", c.mb, err, c.ok)
		}
		if err == nil && got != c.want {
			t.Fatalf("machineBytes(%d) = %#x, want %#x", c.mb, got, c.want)
		}
	}
}
