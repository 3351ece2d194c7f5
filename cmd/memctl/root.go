package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/memkit/memkit/cmd/memctl/logger"
)

var (
	// Global flags
	memMB   uint32
	verbose bool
)

// maxMemMB caps --mem: a 32-bit physical address space holds less than 4GB.
const maxMemMB = 4095

// machineBytes converts the --mem flag to a byte size, rejecting values
// whose shift would not fit a 32-bit address.
func machineBytes(mb uint32) (uint32, error) {
	if mb == 0 || mb > maxMemMB {
		return 0, fmt.Errorf("--mem %d is outside the supported 1..%d MB range", mb, maxMemMB)
	}
	return mb << 20, nil
}

var rootCmd = &cobra.Command{
	Use:   "memctl",
	Short: "Inspect and exercise the simulated kernel memory subsystem",
	Long: `memctl boots a simulated 32-bit machine, initializes the kernel
memory core on top of it, and either reports the computed pool layout or
runs allocation workloads against the heap.`,
	Version: "0.1.0",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logger.Init(verbose, slog.LevelDebug)
	},
}

func init() {
	rootCmd.PersistentFlags().
		Uint32Var(&memMB, "mem", 32, "Physical memory size of the machine in MB")
	rootCmd.PersistentFlags().
		BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
}

func execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
