// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the sci-dl CLI.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/pdiddy/sci-dl/internal/config"
	"github.com/pdiddy/sci-dl/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

const unknownErrorMsg = "Unknown error occurred, please refer to log file to get more detail."

// rootCmd is the base command for the sci-dl CLI.
var rootCmd = &cobra.Command{
	Use:   "sci-dl",
	Short: "sci-dl helps you download SciHub PDF programmatically",
	Long: `sci-dl downloads the PDF of a paper from a SciHub mirror given its DOI.

Run "sci-dl init-config" once to create the configuration file, then
"sci-dl dl -d <DOI>" to download. Detailed logs go to the configured log
file; the console only shows short messages.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file (default: <user config dir>/sci-dl/sci-dl.yaml)")
}

// configPath returns the --config flag value or the default path.
func configPath(cmd *cobra.Command) (string, error) {
	path, _ := cmd.Flags().GetString("config")
	if path != "" {
		return path, nil
	}
	return config.DefaultPath()
}

// cliError carries the short console message for an error whose detail
// belongs in the log file.
type cliError struct {
	msg string
	err error
}

func (e *cliError) Error() string { return e.msg }
func (e *cliError) Unwrap() error { return e.err }

// classify maps err to the message shown on the console. Known failure
// kinds keep their own message; anything else is reported as unknown.
func classify(err error) error {
	var fe *types.FetchError
	switch {
	case errors.As(err, &fe):
		return &cliError{msg: fmt.Sprintf("download %s failure", fe.URL), err: err}
	case errors.Is(err, types.ErrInvalidIdentifier),
		errors.Is(err, types.ErrExtractionFailure),
		errors.Is(err, types.ErrUnexpectedContentType),
		errors.Is(err, types.ErrConfigMissingKey),
		errors.Is(err, config.ErrNotFound),
		errors.Is(err, config.ErrInvalid):
		return &cliError{msg: err.Error(), err: err}
	default:
		return &cliError{msg: unknownErrorMsg, err: err}
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
