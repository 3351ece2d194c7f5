package main

import (
	"math/rand"

	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/memkit/memkit/boot"
	"github.com/memkit/memkit/cmd/memctl/logger"
	"github.com/memkit/memkit/mem"
	"github.com/memkit/memkit/mem/heap"
)

var (
	exerciseOps  int
	exerciseSeed int64
	exerciseMax  uint32
)

var exerciseCmd = &cobra.Command{
	Use:   "exercise",
	Short: "Run a randomized allocation workload and report heap statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		size, err := machineBytes(memMB)
		if err != nil {
			return err
		}
		phys, err := boot.NewImage(size)
		if err != nil {
			return err
		}
		defer phys.Close()

		m, err := mem.New(phys)
		if err != nil {
			return err
		}
		h := heap.New(m, nil, nil)

		rng := rand.New(rand.NewSource(exerciseSeed))
		live := make([]uint32, 0, exerciseOps)
		for i := 0; i < exerciseOps; i++ {
			// Free roughly one in three, keeping the live set bounded.
			if len(live) > 0 && rng.Intn(3) == 0 {
				j := rng.Intn(len(live))
				h.Free(live[j])
				live[j] = live[len(live)-1]
				live = live[:len(live)-1]
				continue
			}
			size := 1 + uint32(rng.Intn(int(exerciseMax)))
			addr, err := h.Malloc(size)
			if err != nil {
				logger.L.Debug("allocation failed", "size", size, "err", err)
				continue
			}
			live = append(live, addr)
		}
		for _, addr := range live {
			h.Free(addr)
		}

		s := h.Stats()
		p := message.NewPrinter(language.English)
		p.Printf("allocations          %d (%d large)\n", s.AllocCalls, s.LargeAllocs)
		p.Printf("frees                %d\n", s.FreeCalls)
		p.Printf("arenas created       %d\n", s.ArenasCreated)
		p.Printf("arenas reclaimed     %d\n", s.ArenasReclaimed)
		p.Printf("bytes allocated      %d\n", s.BytesAllocated)
		p.Printf("bytes freed          %d\n", s.BytesFreed)
		p.Printf("kernel frames free   %d\n", m.Pool(mem.Kernel).FreeFrames())
		return nil
	},
}

func init() {
	exerciseCmd.Flags().IntVar(&exerciseOps, "ops", 10000, "Number of workload operations")
	exerciseCmd.Flags().Int64Var(&exerciseSeed, "seed", 1, "Workload RNG seed")
	exerciseCmd.Flags().Uint32Var(&exerciseMax, "max-size", 8192, "Largest request size in bytes")
	rootCmd.AddCommand(exerciseCmd)
}
