// Package cli provides the command-line interface for lineblame.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ccollicutt/lineblame/internal/cli/commands"
	"github.com/ccollicutt/lineblame/internal/cli/plugins"
	"github.com/ccollicutt/lineblame/internal/logging"
	"github.com/ccollicutt/lineblame/pkg/blame"
)

// EnvPrefix is the prefix of environment variables bound to global flags.
const EnvPrefix = "LINEBLAME"

// Execute runs the root command and returns the exit code.
func Execute() int {
	return execute(context.Background(), os.Args[1:])
}

func execute(ctx context.Context, args []string) int {
	rootCmd := NewRootCommand()
	commands.ExitCode = commands.ExitOK

	if name, ok := pluginCandidate(rootCmd, args); ok {
		if pluginPath, err := plugins.FindPlugin(name); err == nil {
			return plugins.Execute(ctx, pluginPath, args[1:])
		}
		_, _ = fmt.Fprintln(os.Stderr, plugins.FormatNotFoundError(name))
		return commands.ExitError
	}

	rootCmd.SetArgs(args)
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return exitCode(err)
	}
	return commands.ExitCode
}

// exitCode maps a command error to a process exit code.
func exitCode(err error) int {
	var perr *blame.ParseError
	if errors.As(err, &perr) {
		return commands.ExitMalformed
	}
	return commands.ExitError
}

// pluginCandidate returns the first argument when it names neither a flag
// nor a built-in command.
func pluginCandidate(rootCmd *cobra.Command, args []string) (string, bool) {
	if len(args) == 0 {
		return "", false
	}
	name := args[0]
	if name == "" || name[0] == '-' || isBuiltinCommand(rootCmd, name) {
		return "", false
	}
	return name, true
}

// isBuiltinCommand checks if a command name is a built-in cobra command.
func isBuiltinCommand(rootCmd *cobra.Command, name string) bool {
	for _, cmd := range rootCmd.Commands() {
		if cmd.Name() == name || cmd.HasAlias(name) {
			return true
		}
	}
	return name == "help" || name == "completion"
}

// NewRootCommand creates the root cobra command.
func NewRootCommand() *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	rootCmd := &cobra.Command{
		Use:   "lineblame",
		Short: "Decode git blame --line-porcelain output",
		Long: `lineblame decodes captured git blame --line-porcelain output into one
record per source line, carrying the commit, author, committer, summary,
original and final line numbers and the line content.

Capture input with:
  git blame --line-porcelain <file> > <file>.blame

Commands report decoded lines (parse), ownership tables (stats), the
variant of a capture (detect) and why a capture fails to decode (diagnose).

PLUGINS:
  Unknown commands run standalone binaries named lineblame-<command>.

  Plugin locations (searched in order):
    1. Same directory as the lineblame binary
    2. ~/.lineblame/plugins/
    3. Anywhere in PATH`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return logging.Configure(v.GetString("log-level"), v.GetString("log-format"), os.Stderr)
		},
	}

	rootCmd.PersistentFlags().String("log-level", logging.DefaultLevel, "Log level (debug|info|warn|error), env: LINEBLAME_LOG_LEVEL")
	rootCmd.PersistentFlags().String("log-format", logging.DefaultFormat, "Log format (text|json), env: LINEBLAME_LOG_FORMAT")
	_ = v.BindPFlag("log-level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = v.BindPFlag("log-format", rootCmd.PersistentFlags().Lookup("log-format"))
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))

	rootCmd.AddCommand(commands.NewParseCommand())
	rootCmd.AddCommand(commands.NewStatsCommand())
	rootCmd.AddCommand(commands.NewDetectCommand())
	rootCmd.AddCommand(commands.NewDiagnoseCommand())
	rootCmd.AddCommand(commands.NewValidateCommand())
	rootCmd.AddCommand(commands.NewVersionCommand())

	return rootCmd
}
