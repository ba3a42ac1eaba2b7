package output

import (
	"context"
	"encoding/json"
	"io"

	"github.com/ccollicutt/lineblame/pkg/stats"
)

// JSONFormatter formats reports as JSON.
type JSONFormatter struct {
	opts FormatOptions
}

// condensedReport is what --quiet emits: the counts plus whatever is needed
// to see which inputs failed, without any per-line entries.
type condensedReport struct {
	Summary  Summary         `json:"summary"`
	Failures []FailureReport `json:"failures,omitempty"`
	Stats    *stats.Result   `json:"stats,omitempty"`
}

// NewJSONFormatter creates a new JSON formatter with the given options.
func NewJSONFormatter(opts FormatOptions) *JSONFormatter {
	return &JSONFormatter{opts: opts}
}

// Name returns the format name.
func (f *JSONFormatter) Name() string {
	return "json"
}

// Format renders the report as indented JSON. Quiet mode writes a single
// line so the result can be appended to a log or piped through jq -c.
func (f *JSONFormatter) Format(_ context.Context, report *Report, w io.Writer) error {
	encoder := json.NewEncoder(w)
	encoder.SetEscapeHTML(false)

	if f.opts.Quiet {
		return encoder.Encode(condensedReport{
			Summary:  report.Summary,
			Failures: report.Failures,
			Stats:    report.Stats,
		})
	}

	encoder.SetIndent("", "  ")
	return encoder.Encode(report)
}
