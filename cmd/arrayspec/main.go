// Command arrayspec is the Sentra language front end: it scans, parses,
// hoist-compiles and runs a script through the specializing array-storage
// VM in internal/vm, the same pipeline the old sentra-language CLI drove
// (see arx-os-arxos's cmd/arx for the cobra command-tree this one follows).
package main

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/spf13/cobra"
)

var (
	configPath string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "arrayspec",
	Short: "Run Sentra scripts on the specializing array-storage VM",
	Long: `arrayspec compiles and runs Sentra scripts through a bytecode VM whose
array literals and builders adaptively specialize their backing storage
(int, long, double or boxed object), the way a dynamic-language runtime
would.

  arrayspec run <file.sn>     execute a script
  arrayspec trace <file.sn>   execute a script, logging every specialization
  arrayspec bench <file.sn>   run a script repeatedly and report throughput
  arrayspec test <file.sn>    run a script as an assert_*-driven test suite`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func newLogger(verbose bool) *zap.Logger {
	cfg := zap.NewDevelopmentConfig()
	cfg.EncoderConfig.TimeKey = ""
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	cfg.DisableStacktrace = true
	cfg.DisableCaller = true
	if !verbose {
		cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	}
	return zap.Must(cfg.Build())
}

func main() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to an array-engine config YAML file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log specialization transitions to stderr")

	rootCmd.AddCommand(runCmd, traceCmd, benchCmd, testCmd, versionCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
