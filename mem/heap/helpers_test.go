package heap

import (
	"testing"

	"github.com/memkit/memkit/boot"
	"github.com/memkit/memkit/mem"
)

// newTestHeap boots a machine and builds a kernel-only heap over it.
func newTestHeap(t *testing.T, total uint32) (*Heap, *mem.Manager) {
	t.Helper()
	phys, err := boot.NewImage(total)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { phys.Close() })

	m, err := mem.New(phys)
	if err != nil {
		t.Fatal(err)
	}
	return New(m, nil, nil), m
}

// countGate records interrupt bracket usage.
type countGate struct {
	disables int
	restores int
}

func (g *countGate) Disable() bool {
	g.disables++
	return true
}

func (g *countGate) Restore(bool) {
	g.restores++
}
