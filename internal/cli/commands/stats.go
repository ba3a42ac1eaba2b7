package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ccollicutt/lineblame/pkg/output"
	"github.com/ccollicutt/lineblame/pkg/stats"
)

// StatsOptions holds command-line options for the stats command.
type StatsOptions struct {
	InputOptions

	GroupBy []string
	Top     int
}

// NewStatsCommand creates the stats command.
func NewStatsCommand() *cobra.Command {
	opts := &StatsOptions{}

	cmd := &cobra.Command{
		Use:   "stats [file|-]...",
		Short: "Summarize line ownership from blame output",
		Long: `Aggregate decoded blame output into ownership tables.

Groupings:
  author    - lines per author name and mail
  commit    - lines per commit, with its summary
  filename  - lines per path recorded at the blamed commit
  age       - lines per authoring age bucket

Example:
  lineblame stats readme.blame
  lineblame stats --group-by author --group-by age --top 5 'blame/*.txt'
  git blame --line-porcelain main.go | lineblame stats -o json -`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStats(cmd, args, opts)
		},
	}

	addInputFlags(cmd, &opts.InputOptions)
	cmd.Flags().StringSliceVar(&opts.GroupBy, "group-by", nil, "Grouping to report (author|commit|filename|age, can be repeated)")
	cmd.Flags().IntVar(&opts.Top, "top", 0, "Show only the largest N rows per table (0 for all)")

	return cmd
}

func runStats(cmd *cobra.Command, args []string, opts *StatsOptions) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	started := time.Now()

	r, err := loadInputs(ctx, cmd, args, &opts.InputOptions)
	if err != nil {
		if r != nil {
			if batch, ok := failureBatch(err); ok {
				sendWebhooks(ctx, r.cfg, &opts.InputOptions, output.NewReport(batch, r.configFile, started))
			}
		}
		return err
	}

	groups := r.cfg.Stats.Groups()
	if cmd.Flags().Changed("group-by") {
		groups = groups[:0]
		for _, g := range opts.GroupBy {
			groups = append(groups, stats.GroupBy(g))
		}
	}
	top := r.cfg.Stats.Top
	if cmd.Flags().Changed("top") {
		top = opts.Top
	}

	analyzer, err := stats.NewAnalyzer(stats.WithGroupBy(groups...), stats.WithTop(top))
	if err != nil {
		return fmt.Errorf("creating analyzer: %w", err)
	}

	result, err := analyzer.Analyze(ctx, r.batch.Files)
	if err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}

	report := output.NewReport(r.batch, r.configFile, started).WithStats(result)

	if err := writeReport(ctx, cmd.OutOrStdout(), r.cfg, &opts.InputOptions, report); err != nil {
		return err
	}

	sendWebhooks(ctx, r.cfg, &opts.InputOptions, report)

	ExitCode = exitCodeFor(report)
	return nil
}
