package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Version is set at build time via -ldflags; "dev" otherwise, matching how
// arx-os-arxos's cmd/arx stamps its own version variable.
var Version = "dev"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the arrayspec version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("arrayspec %s\n", Version)
	},
}
