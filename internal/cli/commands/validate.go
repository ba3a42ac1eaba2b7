package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ccollicutt/lineblame/pkg/config"
	"github.com/ccollicutt/lineblame/pkg/source"
)

// NewValidateCommand creates the validate command.
func NewValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <config-file>",
		Short: "Validate a configuration file",
		Long: `Validate a lineblame configuration file without decoding anything.

Checks:
  - YAML syntax
  - Parser, stats and output settings
  - Webhook URLs and triggers
  - Source file existence (warning only)`,
		Args: cobra.ExactArgs(1),
		RunE: runValidate,
	}
}

func runValidate(cmd *cobra.Command, args []string) error {
	configPath := args[0]
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	w := cmd.OutOrStdout()

	fmt.Fprintf(w, "Validating %s...\n", configPath)

	cfg, err := config.Load(ctx, configPath)
	if err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	fmt.Fprintf(w, "\nConfiguration valid!\n")
	fmt.Fprintf(w, "  Sources:     %d pattern(s)\n", len(cfg.Sources))
	fmt.Fprintf(w, "  Strict:      %t\n", cfg.Parser.Strict)
	fmt.Fprintf(w, "  Concurrency: %d\n", cfg.Parser.Concurrency)
	fmt.Fprintf(w, "  Group by:    %v\n", cfg.Stats.GroupBy)
	fmt.Fprintf(w, "  Top:         %d\n", cfg.Stats.Top)
	fmt.Fprintf(w, "  Format:      %s\n", cfg.Output.Format)
	fmt.Fprintf(w, "  Webhooks:    %d\n", len(cfg.Webhooks))

	for i, wh := range cfg.Webhooks {
		fmt.Fprintf(w, "    %d. %s (%s)\n", i+1, wh.DisplayName(), wh.Trigger)
	}

	if len(cfg.Sources) == 0 {
		return nil
	}

	files, err := source.ExpandGlobs(cfg.Sources)
	if err != nil {
		fmt.Fprintf(w, "\nWarning: Error expanding source patterns: %v\n", err)
		return nil
	}

	fmt.Fprintf(w, "\nSource files: %d\n", len(files))
	for _, f := range files {
		if f != source.Stdin && !fileExists(f) {
			fmt.Fprintf(w, "  - %s (warning: not found)\n", f)
			continue
		}
		fmt.Fprintf(w, "  - %s\n", f)
	}

	return nil
}
