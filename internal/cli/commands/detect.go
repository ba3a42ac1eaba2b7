package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/ccollicutt/lineblame/pkg/detector"
	"github.com/ccollicutt/lineblame/pkg/source"
)

// DetectOptions holds command-line options for the detect command.
type DetectOptions struct {
	Output     string
	SampleSize int
	ShowAll    bool
}

// NewDetectCommand creates the detect command.
func NewDetectCommand() *cobra.Command {
	opts := &DetectOptions{}

	cmd := &cobra.Command{
		Use:   "detect <file|->",
		Short: "Detect which git blame output format a file contains",
		Long: `Sample captured output and report which git blame variant produced it.

Recognized variants:
  line-porcelain  git blame --line-porcelain (decodable)
  porcelain       git blame --porcelain
  incremental     git blame --incremental
  default         human-readable git blame

Example:
  lineblame detect readme.blame
  lineblame detect -n 1000 -o json big.blame
  git blame main.go | lineblame detect -`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDetect(cmd, args, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "text", "Output format (text|json)")
	cmd.Flags().IntVarP(&opts.SampleSize, "sample", "n", detector.DefaultSampleSize, "Number of lines to sample")
	cmd.Flags().BoolVar(&opts.ShowAll, "all", false, "Show all matching variants, not just the best match")

	return cmd
}

func runDetect(cmd *cobra.Command, args []string, opts *DetectOptions) error {
	path := args[0]
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if opts.Output != "text" && opts.Output != "json" {
		return fmt.Errorf("unknown output format %q (use text or json)", opts.Output)
	}

	d := detector.New(detector.WithSampleSize(opts.SampleSize))

	result, err := detectInput(ctx, cmd, d, path)
	if err != nil {
		return err
	}

	if opts.Output == "json" {
		return outputDetectJSON(cmd.OutOrStdout(), result, path, opts)
	}
	return outputDetectText(cmd.OutOrStdout(), result, path, opts)
}

func detectInput(ctx context.Context, cmd *cobra.Command, d *detector.Detector, path string) (*detector.DetectionResult, error) {
	if path == source.Stdin {
		result, err := d.DetectFromReader(ctx, cmd.InOrStdin())
		if err != nil {
			return nil, fmt.Errorf("detection failed: %w", err)
		}
		return result, nil
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("input not found: %s", path)
	}

	result, err := d.DetectFromFile(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("detection failed: %w", err)
	}
	return result, nil
}

func outputDetectText(w io.Writer, result *detector.DetectionResult, path string, opts *DetectOptions) error {
	fmt.Fprintln(w, "=== Blame Format Detection ===")
	fmt.Fprintln(w)
	fmt.Fprintf(w, "File: %s\n", path)
	fmt.Fprintf(w, "Lines sampled: %d\n", result.SampledLines)
	fmt.Fprintf(w, "Headers: %d, metadata: %d, content: %d\n",
		result.Headers, result.Metadata, result.ContentLines)
	fmt.Fprintln(w)

	if !result.HasMatch() {
		fmt.Fprintln(w, "No git blame format detected.")
		fmt.Fprintln(w)
		fmt.Fprintf(w, "Tip: %s\n", result.Hint())
		return nil
	}

	best := result.BestMatch()
	fmt.Fprintf(w, "Detected Format: %s\n", best.Variant.Name)
	fmt.Fprintf(w, "  %s\n", best.Variant.Description)
	fmt.Fprintf(w, "Confidence: %.1f%% (%d/%d lines explained)\n",
		best.Confidence*100, best.MatchCount, result.SampledLines)
	if best.SampleLine != "" {
		fmt.Fprintf(w, "Sample line:\n  %s\n", best.SampleLine)
	}
	fmt.Fprintln(w)

	if best.Variant.Parseable {
		fmt.Fprintln(w, "This input can be decoded with 'lineblame parse'.")
	} else {
		fmt.Fprintf(w, "This input cannot be decoded: %s\n", best.Variant.Hint)
	}

	if opts.ShowAll && len(result.Matches) > 1 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "--- Other formats detected ---")
		for i, m := range result.Matches[1:] {
			fmt.Fprintf(w, "%d. %s (%.1f%% confidence)\n", i+2, m.Variant.Name, m.Confidence*100)
		}
	}

	return nil
}

// JSONMatch represents a variant match in JSON output.
type JSONMatch struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Parseable   bool    `json:"parseable"`
	Confidence  float64 `json:"confidence"`
	MatchCount  int     `json:"match_count"`
	SampleLine  string  `json:"sample_line,omitempty"`
	Hint        string  `json:"hint,omitempty"`
}

// JSONOutput represents the full JSON output.
type JSONOutput struct {
	File         string      `json:"file"`
	Matches      []JSONMatch `json:"matches"`
	SampledLines int         `json:"sampled_lines"`
	Headers      int         `json:"headers"`
	Metadata     int         `json:"metadata"`
	ContentLines int         `json:"content_lines"`
	Hint         string      `json:"hint,omitempty"`
}

func outputDetectJSON(w io.Writer, result *detector.DetectionResult, path string, opts *DetectOptions) error {
	out := JSONOutput{
		File:         path,
		SampledLines: result.SampledLines,
		Headers:      result.Headers,
		Metadata:     result.Metadata,
		ContentLines: result.ContentLines,
		Hint:         result.Hint(),
		Matches:      make([]JSONMatch, 0),
	}

	matches := result.Matches
	if !opts.ShowAll && len(matches) > 1 {
		matches = matches[:1]
	}

	for _, m := range matches {
		out.Matches = append(out.Matches, JSONMatch{
			Name:        m.Variant.Name,
			Description: m.Variant.Description,
			Parseable:   m.Variant.Parseable,
			Confidence:  m.Confidence,
			MatchCount:  m.MatchCount,
			SampleLine:  m.SampleLine,
			Hint:        m.Variant.Hint,
		})
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(out)
}
