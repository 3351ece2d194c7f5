package mem

import (
	"testing"

	"github.com/memkit/memkit/boot"
)

// testManager boots a machine of the given size and initializes the
// subsystem over it.
func testManager(t *testing.T, total uint32) *Manager {
	t.Helper()
	phys, err := boot.NewImage(total)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { phys.Close() })

	m, err := New(phys)
	if err != nil {
		t.Fatal(err)
	}
	return m
}
