package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/haukened/homedns/internal/dns/common/log"
	"github.com/haukened/homedns/internal/dns/config"
)

const (
	// Version information
	version = "0.1.0-dev"
	appName = "homednsd"
)

// loadConfig is replaced in tests.
var loadConfig = config.Load

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", appName, err)
		os.Exit(1)
	}
}

// newRootCmd builds the command tree. Running the root command without a
// subcommand serves DNS, like "serve".
func newRootCmd() *cobra.Command {
	var cfg config.AppConfig

	rootCmd := &cobra.Command{
		Use:           appName,
		Short:         "Authoritative DNS responder for a home network",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := loadConfig()
			if err != nil {
				return fmt.Errorf("configuration error: %w", err)
			}
			if err := log.Configure(loaded.Env, loaded.LogLevel); err != nil {
				return fmt.Errorf("logging configuration error: %w", err)
			}
			cfg = *loaded
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			log.Sync()
		},
	}

	serve := newServeCmd(&cfg)
	rootCmd.RunE = serve.RunE

	rootCmd.AddCommand(serve)
	rootCmd.AddCommand(newRecordsCmd(&cfg))
	rootCmd.AddCommand(newQueryCmd(&cfg))

	return rootCmd
}
