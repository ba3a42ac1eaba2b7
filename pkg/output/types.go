// Package output provides the report model and its renderings.
package output

import (
	"errors"
	"time"

	"github.com/ccollicutt/lineblame/pkg/blame"
	"github.com/ccollicutt/lineblame/pkg/source"
	"github.com/ccollicutt/lineblame/pkg/stats"
)

// Report is the complete output of a run.
type Report struct {
	Summary  Summary         `json:"summary"`
	Files    []FileReport    `json:"files,omitempty"`
	Failures []FailureReport `json:"failures,omitempty"`
	Stats    *stats.Result   `json:"stats,omitempty"`
	Metadata Metadata        `json:"metadata"`
}

// Summary provides aggregate counts.
type Summary struct {
	Files       int `json:"files"`
	Failed      int `json:"failed"`
	Entries     int `json:"entries"`
	Commits     int `json:"commits"`
	Authors     int `json:"authors"`
	Boundary    int `json:"boundary"`
	Uncommitted int `json:"uncommitted"`
}

// FileReport holds the entries decoded from one input.
type FileReport struct {
	Path    string        `json:"path"`
	Entries []blame.Entry `json:"entries"`
}

// FailureReport describes an input that could not be decoded.
type FailureReport struct {
	Path  string `json:"path"`
	Error string `json:"error"`

	// The fields below are set when the input was malformed blame output.
	Kind       string `json:"kind,omitempty"`
	Line       int    `json:"line,omitempty"`
	BlockStart int    `json:"block_start,omitempty"`
	Field      string `json:"field,omitempty"`
}

// Metadata provides context about the run.
type Metadata struct {
	ConfigFile  string        `json:"config_file,omitempty"`
	Sources     []string      `json:"sources"`
	GeneratedAt time.Time     `json:"generated_at"`
	Duration    time.Duration `json:"duration"`
}

// NewReport creates a Report from a loaded batch. started is when the run
// began and is used for the duration.
func NewReport(batch *source.Batch, configFile string, started time.Time) *Report {
	report := &Report{
		Files: make([]FileReport, 0, len(batch.Files)),
		Metadata: Metadata{
			ConfigFile:  configFile,
			GeneratedAt: time.Now(),
		},
	}
	report.Metadata.Duration = report.Metadata.GeneratedAt.Sub(started)

	commits := make(map[string]struct{})
	authors := make(map[string]struct{})

	for _, f := range batch.Files {
		report.Files = append(report.Files, FileReport{Path: f.Path, Entries: f.Entries})
		report.Metadata.Sources = append(report.Metadata.Sources, f.Path)

		for i := range f.Entries {
			e := &f.Entries[i]
			report.Summary.Entries++
			commits[e.Commit] = struct{}{}
			authors[e.Author+" "+e.AuthorMail] = struct{}{}
			if e.Boundary {
				report.Summary.Boundary++
			}
			if e.IsUncommitted() {
				report.Summary.Uncommitted++
			}
		}
	}

	for _, failure := range batch.Failures {
		report.Failures = append(report.Failures, newFailureReport(failure))
		report.Metadata.Sources = append(report.Metadata.Sources, failure.Path)
	}

	report.Summary.Files = len(batch.Files)
	report.Summary.Failed = len(batch.Failures)
	report.Summary.Commits = len(commits)
	report.Summary.Authors = len(authors)

	return report
}

func newFailureReport(f *source.Failure) FailureReport {
	fr := FailureReport{Path: f.Path, Error: f.Err.Error()}

	var perr *blame.ParseError
	if errors.As(f.Err, &perr) {
		fr.Kind = perr.Kind.String()
		fr.Line = perr.Line
		fr.BlockStart = perr.BlockStart
		fr.Field = perr.Field
	}
	return fr
}

// WithStats attaches aggregation results. Per-line entries are dropped since
// the stats view replaces them.
func (r *Report) WithStats(result *stats.Result) *Report {
	r.Stats = result
	r.Files = nil
	return r
}

// HasFailures returns true if any input failed to decode.
func (r *Report) HasFailures() bool {
	return r.Summary.Failed > 0
}
