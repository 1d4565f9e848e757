// Package cli provides the preflight command-line interface.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"preflight/internal/config"
	"preflight/internal/pkg/logger"
)

// Version is set at build time.
var Version = "0.1.0"

// Exit codes returned by Execute.
const (
	ExitOK     = 0
	ExitGate   = 1
	ExitFailed = 2
)

// NewRootCommand builds the preflight command tree.
func NewRootCommand() *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:   "preflight",
		Short: "Validate render jobs before they go to the farm",
		Long: `Preflight inspects a scene export and reports render settings that are likely
to waste farm time: camera mismatches, frame ranges, missing AOVs, motion blur,
global illumination, cryptomatte channels, dome lights and unsaved files.

Rule thresholds come from PREFLIGHT_* environment variables (or a .env file)
and can be overridden per run with flags.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := config.LoadDotEnv(); err != nil {
				return err
			}
			level := "warn"
			if verbose {
				level = "debug"
			}
			log := logger.New(logger.Config{
				Level:       level,
				Format:      "text",
				Output:      cmd.ErrOrStderr(),
				ServiceName: "preflight-cli",
			})
			cmd.SetContext(withLogger(cmd.Context(), log))
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	cmd.AddCommand(NewCheckCommand())
	cmd.AddCommand(NewRulesCommand())
	cmd.AddCommand(NewVersionCommand())
	return cmd
}

// Execute runs the CLI and returns the process exit code.
func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cmd := NewRootCommand()
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	err := cmd.ExecuteContext(ctx)
	if err == nil {
		return ExitOK
	}

	var gate *GateError
	if errors.As(err, &gate) {
		fmt.Fprintln(stderr, gate.Error())
		return ExitGate
	}
	fmt.Fprintf(stderr, "Error: %v\n", err)
	return ExitFailed
}

// NewVersionCommand prints the CLI version.
func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the preflight version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "preflight %s\n", Version)
			return nil
		},
	}
}

type loggerKey struct{}

func withLogger(ctx context.Context, log *logger.Logger) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, loggerKey{}, log)
}

func loggerFrom(ctx context.Context) *logger.Logger {
	if ctx != nil {
		if log, ok := ctx.Value(loggerKey{}).(*logger.Logger); ok {
			return log
		}
	}
	return logger.New(logger.Config{Level: "warn", Format: "text", Output: os.Stderr})
}
