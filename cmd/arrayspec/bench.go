package main

import (
	"fmt"
	"time"

	"arrayspec/internal/arraytrace"
	"arrayspec/internal/vm"

	"github.com/spf13/cobra"
)

var iterations int

var benchCmd = &cobra.Command{
	Use:   "bench <file>",
	Short: "Run a script repeatedly and report throughput",
	Long: `bench compiles a script once and executes it --iterations times on a
fresh VM each pass, reporting total wall time and runs/sec. It demonstrates
that the array engine's specialization decisions are call-site properties,
not run properties: every pass re-learns the same shapes from scratch.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		chunk, err := compileFile(args[0])
		if err != nil {
			return err
		}

		cfg, err := loadConfig(configPath)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		if iterations < 1 {
			iterations = 1
		}

		start := time.Now()
		for i := 0; i < iterations; i++ {
			machine := vm.NewVMWithConfig(chunk, cfg, arraytrace.New(newNopLogger()))
			if _, err := machine.Run(); err != nil {
				return fmt.Errorf("run %d/%d: %w", i+1, iterations, err)
			}
		}
		elapsed := time.Since(start)

		fmt.Printf("%d run(s) in %s (%.1f runs/sec)\n", iterations, elapsed, float64(iterations)/elapsed.Seconds())
		return nil
	},
}

func init() {
	benchCmd.Flags().IntVarP(&iterations, "iterations", "n", 100, "number of times to execute the script")
}
