package main

import (
	"fmt"

	"arrayspec/internal/arraytrace"
	"arrayspec/internal/vm"

	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run <file>",
	Short: "Compile and execute a Sentra script",
	Args:  cobra.ExactArgs(1),
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
		if _, err := machine.Run(); err != nil {
			return err
		}
		return nil
	},
}
