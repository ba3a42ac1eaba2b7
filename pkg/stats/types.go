// Package stats aggregates blame entries into ownership tables.
package stats

import "time"

// GroupBy names the dimension a table aggregates over.
type GroupBy string

const (
	// GroupByAuthor groups lines by author name and mail.
	GroupByAuthor GroupBy = "author"

	// GroupByCommit groups lines by the commit that last touched them.
	GroupByCommit GroupBy = "commit"

	// GroupByFilename groups lines by the path recorded at their commit,
	// which surfaces lines carried over from renamed files.
	GroupByFilename GroupBy = "filename"

	// GroupByAge buckets lines by how long ago they were authored.
	GroupByAge GroupBy = "age"
)

// GroupKinds lists every supported grouping.
func GroupKinds() []GroupBy {
	return []GroupBy{GroupByAuthor, GroupByCommit, GroupByFilename, GroupByAge}
}

// Valid reports whether g is a supported grouping.
func (g GroupBy) Valid() bool {
	for _, k := range GroupKinds() {
		if g == k {
			return true
		}
	}
	return false
}

// Row is one group within a table.
type Row struct {
	// Key identifies the group.
	Key string `json:"key"`

	// Label is extra context for the key, such as a commit summary.
	Label string `json:"label,omitempty"`

	// Lines is the number of blamed lines in the group.
	Lines int `json:"lines"`

	// Share is Lines as a fraction of the table total.
	Share float64 `json:"share"`

	// Commits is the number of distinct commits in the group.
	Commits int `json:"commits"`

	// Oldest and Newest bound the author times of the group's lines.
	Oldest time.Time `json:"oldest"`
	Newest time.Time `json:"newest"`
}

// Table is the aggregation of all lines along one dimension.
type Table struct {
	GroupBy GroupBy `json:"group_by"`

	// Total is the number of lines aggregated.
	Total int `json:"total"`

	// Rows are ordered by Lines descending, then Key. Age tables keep
	// bucket order instead.
	Rows []Row `json:"rows"`

	// Omitted counts rows dropped by the top limit.
	Omitted int `json:"omitted,omitempty"`
}

// Result is the output of an analysis run.
type Result struct {
	Tables []*Table `json:"tables"`

	// Files is the number of inputs analyzed.
	Files int `json:"files"`

	// Lines is the total number of blamed lines.
	Lines int `json:"lines"`

	// Commits and Authors count distinct values across all lines.
	Commits int `json:"commits"`
	Authors int `json:"authors"`

	// Boundary counts lines attributed to boundary commits.
	Boundary int `json:"boundary"`

	// Uncommitted counts lines that only exist in the working tree.
	Uncommitted int `json:"uncommitted"`
}

// Table returns the table for g, or nil if it was not requested.
func (r *Result) Table(g GroupBy) *Table {
	for _, t := range r.Tables {
		if t.GroupBy == g {
			return t
		}
	}
	return nil
}
