package main

import (
	"fmt"

	"arrayspec/internal/arraytrace"
	"arrayspec/internal/testing"
	"arrayspec/internal/vm"

	"github.com/spf13/cobra"
)

var testCmd = &cobra.Command{
	Use:   "test <file>",
	Short: "Run a Sentra script as a test suite using the assert_* builtins",
	Long: `test registers the assert, assert_* and test_summary builtins (see
internal/testing) as globals, then runs the script exactly like run does. A
failing assertion surfaces as an ordinary runtime error.`,
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

		log := newNopLogger()
		if verbose {
			log = newLogger(true)
		}

		machine := vm.NewVMWithConfig(chunk, cfg, arraytrace.New(log))
		for name, fn := range testing.GetSimpleTestFunctions() {
			machine.RegisterNative(name, fn)
		}

		if _, err := machine.Run(); err != nil {
			return err
		}
		return nil
	},
}
