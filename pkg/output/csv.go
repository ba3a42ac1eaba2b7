package output

import (
	"context"
	"encoding/csv"
	"io"
	"strconv"
)

var entryHeader = []string{
	"path", "final_line", "original_line", "commit", "author", "author_mail",
	"author_time", "author_tz", "committer", "committer_mail", "committer_time",
	"committer_tz", "summary", "filename", "previous_commit", "previous_filename",
	"boundary", "content",
}

var statsHeader = []string{"group_by", "key", "label", "lines", "share", "commits"}

// CSVFormatter formats reports as CSV. It writes one record per blamed line,
// or one record per stats row when the report carries stats.
type CSVFormatter struct {
	opts FormatOptions
}

// NewCSVFormatter creates a new CSV formatter with the given options.
func NewCSVFormatter(opts FormatOptions) *CSVFormatter {
	return &CSVFormatter{opts: opts}
}

// Name returns the format name.
func (f *CSVFormatter) Name() string {
	return "csv"
}

// Format renders the report as CSV.
func (f *CSVFormatter) Format(_ context.Context, report *Report, w io.Writer) error {
	cw := csv.NewWriter(w)

	var err error
	if report.Stats != nil {
		err = f.writeStats(report, cw)
	} else {
		err = f.writeEntries(report, cw)
	}
	if err != nil {
		return err
	}

	cw.Flush()
	return cw.Error()
}

func (f *CSVFormatter) writeEntries(report *Report, cw *csv.Writer) error {
	if err := cw.Write(entryHeader); err != nil {
		return err
	}

	for _, file := range report.Files {
		for i := range file.Entries {
			e := &file.Entries[i]
			var prevCommit, prevFilename string
			if e.Previous != nil {
				prevCommit, prevFilename = e.Previous.Commit, e.Previous.Filename
			}
			record := []string{
				file.Path,
				strconv.Itoa(e.FinalLine),
				strconv.Itoa(e.OriginalLine),
				e.Commit,
				e.Author,
				e.AuthorMail,
				strconv.FormatInt(e.AuthorTime, 10),
				e.AuthorTZ,
				e.Committer,
				e.CommitterMail,
				strconv.FormatInt(e.CommitterTime, 10),
				e.CommitterTZ,
				e.Summary,
				e.Filename,
				prevCommit,
				prevFilename,
				strconv.FormatBool(e.Boundary),
				e.Content,
			}
			if err := cw.Write(record); err != nil {
				return err
			}
		}
	}
	return nil
}

func (f *CSVFormatter) writeStats(report *Report, cw *csv.Writer) error {
	if err := cw.Write(statsHeader); err != nil {
		return err
	}

	for _, table := range report.Stats.Tables {
		for _, row := range table.Rows {
			record := []string{
				string(table.GroupBy),
				row.Key,
				row.Label,
				strconv.Itoa(row.Lines),
				strconv.FormatFloat(row.Share, 'f', 4, 64),
				strconv.Itoa(row.Commits),
			}
			if err := cw.Write(record); err != nil {
				return err
			}
		}
	}
	return nil
}
