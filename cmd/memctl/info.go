package main

import (
	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/memkit/memkit/boot"
	"github.com/memkit/memkit/cmd/memctl/logger"
	"github.com/memkit/memkit/mem"
)

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Print the pool layout computed for a machine of the given size",
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
		logger.L.Debug("machine booted", "bytes", phys.Size())

		m, err := mem.New(phys)
		if err != nil {
			return err
		}

		p := message.NewPrinter(language.English)
		p.Printf("physical memory      %d bytes\n", phys.Size())
		for _, d := range []mem.Domain{mem.Kernel, mem.User} {
			pool := m.Pool(d)
			p.Printf("%-6s pool          %#x .. %#x (%d bytes, %d free frames)\n",
				d, pool.Start(), pool.Start()+pool.Size(), pool.Size(), pool.FreeFrames())
		}
		p.Printf("kernel virtual base  %#x (%d free pages)\n",
			m.KernelSpace().Start(), m.KernelSpace().FreePages())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(infoCmd)
}
