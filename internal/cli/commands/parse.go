package commands

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/ccollicutt/lineblame/pkg/output"
)

// NewParseCommand creates the parse command.
func NewParseCommand() *cobra.Command {
	opts := &InputOptions{}

	cmd := &cobra.Command{
		Use:   "parse [file|-]...",
		Short: "Decode git blame --line-porcelain output",
		Long: `Decode captured git blame --line-porcelain output into one record per line.

Inputs are files, globs or '-' for standard input. With no arguments the
sources from the configuration file are used.

Capture input with:
  git blame --line-porcelain README.md > readme.blame

Example:
  lineblame parse readme.blame
  git blame --line-porcelain main.go | lineblame parse -o json -
  lineblame parse -k -o csv 'blame/*.txt'

Exit codes:
  0 - All inputs decoded
  1 - At least one input is malformed blame output
  2 - Configuration, I/O or usage error`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runParse(cmd, args, opts)
		},
	}

	addInputFlags(cmd, opts)

	return cmd
}

func runParse(cmd *cobra.Command, args []string, opts *InputOptions) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	started := time.Now()

	r, err := loadInputs(ctx, cmd, args, opts)
	if err != nil {
		if r != nil {
			if batch, ok := failureBatch(err); ok {
				sendWebhooks(ctx, r.cfg, opts, output.NewReport(batch, r.configFile, started))
			}
		}
		return err
	}

	report := output.NewReport(r.batch, r.configFile, started)

	if err := writeReport(ctx, cmd.OutOrStdout(), r.cfg, opts, report); err != nil {
		return err
	}

	sendWebhooks(ctx, r.cfg, opts, report)

	ExitCode = exitCodeFor(report)
	return nil
}
