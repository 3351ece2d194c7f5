package layout

import "encoding/binary"

// Binary encoding utilities for little-endian words in simulated memory.
// Page directory entries, table entries, and arena headers are all stored in
// the machine image as little-endian u32 values, matching the architecture.

// PutU32 writes a uint32 value to the buffer at the specified offset in little-endian format.
func PutU32(b []byte, off int, v uint32) {
	binary.LittleEndian.PutUint32(b[off:off+4], v)
}

// ReadU32 reads a uint32 value from the buffer at the specified offset in little-endian format.
func ReadU32(b []byte, off int) uint32 {
	return binary.LittleEndian.Uint32(b[off : off+4])
}
