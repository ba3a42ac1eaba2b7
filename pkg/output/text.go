package output

import (
	"context"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/ccollicutt/lineblame/pkg/blame"
	"github.com/ccollicutt/lineblame/pkg/stats"
)

// TextFormatter formats reports as human-readable text.
type TextFormatter struct {
	opts FormatOptions
}

// NewTextFormatter creates a new text formatter with the given options.
func NewTextFormatter(opts FormatOptions) *TextFormatter {
	return &TextFormatter{opts: opts}
}

// Name returns the format name.
func (f *TextFormatter) Name() string {
	return "text"
}

// Format renders the report as text.
func (f *TextFormatter) Format(_ context.Context, report *Report, w io.Writer) error {
	if f.opts.Quiet {
		return f.formatQuiet(report, w)
	}
	return f.formatFull(report, w)
}

func (f *TextFormatter) formatQuiet(report *Report, w io.Writer) error {
	_, err := fmt.Fprintf(w, "lineblame: %d file(s), %d failed, %d line(s), %d commit(s), %d author(s)\n",
		report.Summary.Files,
		report.Summary.Failed,
		report.Summary.Entries,
		report.Summary.Commits,
		report.Summary.Authors)
	return err
}

func (f *TextFormatter) formatFull(report *Report, w io.Writer) error {
	for _, file := range report.Files {
		f.formatFile(&file, w)
	}

	if report.Stats != nil {
		if err := f.formatStats(report.Stats, w); err != nil {
			return err
		}
	}

	for _, failure := range report.Failures {
		fmt.Fprintf(w, "FAILED %s: %s\n", failure.Path, failure.Error)
	}
	if len(report.Failures) > 0 {
		fmt.Fprintln(w)
	}

	fmt.Fprintln(w, "---")
	fmt.Fprintf(w, "Summary: %d file(s), %d failed, %d line(s), %d commit(s), %d author(s)\n",
		report.Summary.Files,
		report.Summary.Failed,
		report.Summary.Entries,
		report.Summary.Commits,
		report.Summary.Authors)

	if f.opts.Verbose {
		fmt.Fprintf(w, "Boundary lines: %d\n", report.Summary.Boundary)
		fmt.Fprintf(w, "Uncommitted lines: %d\n", report.Summary.Uncommitted)
		fmt.Fprintf(w, "Duration: %s\n", report.Metadata.Duration.Round(time.Millisecond))
	}

	return nil
}

func (f *TextFormatter) formatFile(file *FileReport, w io.Writer) {
	fmt.Fprintf(w, "=== %s ===\n", file.Path)

	for i := range file.Entries {
		f.formatEntry(&file.Entries[i], w)
	}
	fmt.Fprintln(w)
}

func (f *TextFormatter) formatEntry(e *blame.Entry, w io.Writer) {
	fmt.Fprintf(w, "* %s: %04d by %s %s\n", e.ShortCommit(), e.OriginalLine, e.Author, e.AuthorMail)
	fmt.Fprintf(w, "  summary: %s\n", e.Summary)

	if f.opts.Verbose {
		fmt.Fprintf(w, "  final line: %d\n", e.FinalLine)
		fmt.Fprintf(w, "  authored: %s\n", e.AuthoredAt().Format(time.RFC3339))
		fmt.Fprintf(w, "  committed: %s by %s %s\n",
			e.CommittedAt().Format(time.RFC3339), e.Committer, e.CommitterMail)
		if e.Previous != nil {
			fmt.Fprintf(w, "  previous: %s %s\n", e.Previous.Commit, e.Previous.Filename)
		}
		if e.Boundary {
			fmt.Fprintln(w, "  boundary")
		}
	}

	fmt.Fprintf(w, "  content: `%s`\n", e.Content)
}

func (f *TextFormatter) formatStats(result *stats.Result, w io.Writer) error {
	for _, table := range result.Tables {
		fmt.Fprintf(w, "[%s] %d line(s)\n", strings.ToUpper(string(table.GroupBy)), table.Total)

		if len(table.Rows) == 0 {
			fmt.Fprintln(w, "  No lines")
			fmt.Fprintln(w)
			continue
		}

		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		for _, row := range table.Rows {
			key := row.Key
			if row.Label != "" {
				key += " " + row.Label
			}
			fmt.Fprintf(tw, "  %s\t%d\t%5.1f%%", key, row.Lines, row.Share*100)
			if f.opts.Verbose && !row.Oldest.IsZero() {
				fmt.Fprintf(tw, "\t%d commit(s)\t%s .. %s", row.Commits,
					row.Oldest.Format(time.DateOnly), row.Newest.Format(time.DateOnly))
			}
			fmt.Fprintln(tw)
		}
		if err := tw.Flush(); err != nil {
			return err
		}

		if table.Omitted > 0 {
			fmt.Fprintf(w, "  ... and %d more\n", table.Omitted)
		}
		fmt.Fprintln(w)
	}
	return nil
}
