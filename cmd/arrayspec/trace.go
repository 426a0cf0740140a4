package main

import (
	"fmt"

	"arrayspec/internal/arraytrace"
	"arrayspec/internal/vm"

	"github.com/spf13/cobra"
)

var traceCmd = &cobra.Command{
	Use:   "trace <file>",
	Short: "Execute a script, logging every array-storage specialization transition",
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

		log := newLogger(true)
		defer log.Sync()

		machine := vm.NewVMWithConfig(chunk, cfg, arraytrace.New(log))
		_, err = machine.Run()
		return err
	},
}
