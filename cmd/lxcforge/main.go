// Package main implements the lxcforge CLI, which provisions disposable
// LXC development environments on a Debian base image.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"lxcforge/internal/config"
)

var (
	// Global flags
	verbose    bool
	showOutput bool
	keep       bool
	configPath string

	// Logger
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "lxcforge",
	Short: "lxcforge - disposable LXC development environments",
	Long: `lxcforge creates and configures LXC containers that host ready-to-use
development services on a Debian base image.

Each recipe creates a container named <prefix>_<recipe>_<codename>,
provisions the service inside it and prints the connection details as
JSON. On failure the partially provisioned container is destroyed unless
--keep is given.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Initialize logger. Step progress is logged at info; the default
		// level keeps runs quiet unless --verbose is given.
		cfg := zap.NewProductionConfig()
		cfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
		if verbose {
			cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = cfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"display step progress while provisioning")
	rootCmd.PersistentFlags().BoolVar(&showOutput, "show-output", false,
		"stream container command output instead of discarding it")
	rootCmd.PersistentFlags().BoolVar(&keep, "keep", false,
		"keep the container when provisioning fails")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", config.DefaultPath(),
		"config file path")

	rootCmd.AddCommand(postgresqlCmd)
	rootCmd.AddCommand(djangoCmd)
	rootCmd.AddCommand(pydevCmd)
	rootCmd.AddCommand(allCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(destroyCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
