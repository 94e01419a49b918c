// Package cli wires chitin's entry point: a single cobra root command with
// flag parsing disabled, so every flag that belongs to openclaw reaches the
// dispatcher untouched.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/peakxl/chitin/internal/config"
	"github.com/peakxl/chitin/internal/delegate"
	"github.com/peakxl/chitin/internal/logging"
)

// exitError carries the invocation's exit code through cobra's Execute.
type exitError struct {
	code int
}

func (e *exitError) Error() string {
	return fmt.Sprintf("exit status %d", e.code)
}

// NewRootCmd creates the root command. version is the build-injected chitin
// version; the dispatcher decides everything else.
func NewRootCmd(version string, dispatcher *Dispatcher) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chitin [openclaw arguments]",
		Short: "Chitin - fast native launcher for OpenClaw",
		Long: "Chitin answers openclaw help and version queries from a local cache\n" +
			"and transparently delegates everything else to the real openclaw CLI.",
		Version: version,
		Example: `  # Instant help, served from the cache after the first run
  chitin --help
  chitin channels login --help

  # Everything else passes through to openclaw unchanged
  chitin gateway --port 8080`,
		// The shim must never consume or reorder openclaw's flags.
		DisableFlagParsing: true,
		SilenceUsage:       true,
		SilenceErrors:      true,
		Args:               cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if code := dispatcher.Handle(cmd.Context(), args); code != 0 {
				return &exitError{code: code}
			}
			return nil
		},
	}
	cmd.CompletionOptions.DisableDefaultCmd = true
	return cmd
}

// Main runs one chitin invocation and returns its exit code.
func Main(version string, argv []string) int {
	cfg := config.Load()
	logger := logging.New(logging.Config{
		Level: cfg.Logging.Level,
		File:  cfg.Logging.File,
	})
	ctx := logging.WithContext(context.Background(), logger)

	dispatcher := NewDispatcher(
		version,
		cfg,
		delegate.NewExecRunner(),
		os.Stdin,
		os.Stdout,
		os.Stderr,
	)

	cmd := NewRootCmd(version, dispatcher)
	cmd.SetArgs(argv)

	if err := cmd.ExecuteContext(ctx); err != nil {
		var exit *exitError
		if errors.As(err, &exit) {
			return exit.code
		}
		fmt.Fprintf(os.Stderr, "chitin: %v\n", err)
		return 1
	}
	return 0
}
