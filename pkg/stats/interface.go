package stats

import (
	"github.com/ccollicutt/lineblame/pkg/blame"
)

// Aggregator folds blame entries into a table.
// Each grouping (author, commit, filename, age) implements this interface.
type Aggregator interface {
	// GroupBy returns the dimension this aggregator groups by.
	GroupBy() GroupBy

	// Process adds a single entry.
	Process(entry *blame.Entry)

	// Finalize returns the table, keeping at most top rows (0 keeps all).
	Finalize(top int) *Table

	// Reset clears internal state for reuse.
	Reset()
}
