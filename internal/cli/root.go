// Package cli provides the command-line interface for docnav.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/lenderdesk/docnav/internal/logging"
	"github.com/lenderdesk/docnav/internal/version"
)

var (
	// Global flags
	cfgFile    string
	apiKey     string
	tokenFile  string // Path to file containing API key
	apiBaseURL string
	tradeID    string
	assetID    string
	verbose    bool
	noPrefetch bool

	// Global logger
	logger *logging.Logger

	// Global context for signal handling
	rootContext context.Context
	cancelFunc  context.CancelFunc
)

// BuildTime is injected via LDFLAGS for release builds.
var BuildTime = "dev"

// NewRootCmd creates the root command.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "docnav",
		Short: "LenderDesk document navigator - browse and upload deal documents",
		Long: `docnav ` + version.Version + ` - Built: ` + BuildTime + `
Terminal client for the LenderDesk document manager.

Browse the folder hierarchy of a trade or asset, warm the folder cache,
and upload documents into deal categories. Listings are served from a
local cache backed by the hierarchy template, so repeat visits render
without touching the platform.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logger = logging.NewDefaultCLILogger()
			if verbose {
				logging.SetGlobalLevel(-1) // zerolog.DebugLevel
			}
		},
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "Configuration file path")
	rootCmd.PersistentFlags().StringVar(&apiKey, "api-key", "", "LenderDesk API key (overrides all other sources)")
	rootCmd.PersistentFlags().StringVar(&tokenFile, "token-file", "", "Path to file containing API key")
	rootCmd.PersistentFlags().StringVar(&apiBaseURL, "api-url", "", "LenderDesk platform URL (overrides config)")
	rootCmd.PersistentFlags().StringVar(&tradeID, "trade", "", "Trade ID scoping the document hierarchy")
	rootCmd.PersistentFlags().StringVar(&assetID, "asset", "", "Asset ID scoping the document hierarchy (wins over --trade)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output (shows debug messages)")
	rootCmd.PersistentFlags().BoolVar(&noPrefetch, "no-prefetch", false, "Disable background prefetching of subfolders")

	rootCmd.Version = version.Version + " (" + BuildTime + ")"

	return rootCmd
}

// Execute runs the CLI.
func Execute() error {
	// Create a context that can be cancelled by signals
	rootContext, cancelFunc = context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		for sig := range sigChan {
			// sig is nil once the channel closes on shutdown
			if sig != nil {
				fmt.Fprintf(os.Stderr, "\nReceived signal %v, cancelling...\n", sig)
				cancelFunc()
			}
		}
	}()

	rootCmd := NewRootCmd()
	AddCommands(rootCmd)
	err := rootCmd.Execute()

	signal.Stop(sigChan)
	close(sigChan)

	return err
}

// AddCommands adds all subcommands to the root command.
func AddCommands(rootCmd *cobra.Command) {
	rootCmd.AddCommand(newBrowseCmd())
	rootCmd.AddCommand(newLsCmd())
	rootCmd.AddCommand(newTreeCmd())
	rootCmd.AddCommand(newUploadCmd())
	rootCmd.AddCommand(newConfigCmd())
}

// GetLogger returns the global CLI logger.
func GetLogger() *logging.Logger {
	if logger == nil {
		logger = logging.NewDefaultCLILogger()
	}
	return logger
}

// GetContext returns the global CLI context with signal handling.
// It is cancelled when the user presses Ctrl+C.
func GetContext() context.Context {
	if rootContext == nil {
		return context.Background()
	}
	return rootContext
}
