package stats

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/ccollicutt/lineblame/pkg/blame"
)

// keyFunc maps an entry to its group key and label.
type keyFunc func(e *blame.Entry) (key, label string)

type group struct {
	row     Row
	commits map[string]struct{}
}

// keyedAggregator counts lines per key.
type keyedAggregator struct {
	groupBy GroupBy
	key     keyFunc

	// order fixes row order by key when set.
	order []string

	groups map[string]*group
	total  int
}

func newKeyedAggregator(g GroupBy, key keyFunc, order []string) *keyedAggregator {
	return &keyedAggregator{
		groupBy: g,
		key:     key,
		order:   order,
		groups:  make(map[string]*group),
	}
}

// NewAggregator creates the aggregator for g. now is the reference time for
// age buckets.
func NewAggregator(g GroupBy, now time.Time) (Aggregator, error) {
	switch g {
	case GroupByAuthor:
		return newKeyedAggregator(g, authorKey, nil), nil
	case GroupByCommit:
		return newKeyedAggregator(g, commitKey, nil), nil
	case GroupByFilename:
		return newKeyedAggregator(g, filenameKey, nil), nil
	case GroupByAge:
		return newKeyedAggregator(g, ageKey(now), ageOrder()), nil
	default:
		return nil, fmt.Errorf("unknown grouping %q", g)
	}
}

func (a *keyedAggregator) GroupBy() GroupBy {
	return a.groupBy
}

func (a *keyedAggregator) Process(e *blame.Entry) {
	key, label := a.key(e)

	g, ok := a.groups[key]
	if !ok {
		g = &group{
			row:     Row{Key: key, Label: label},
			commits: make(map[string]struct{}),
		}
		a.groups[key] = g
	}

	g.row.Lines++
	g.commits[e.Commit] = struct{}{}
	a.total++

	at := e.AuthoredAt()
	if g.row.Oldest.IsZero() || at.Before(g.row.Oldest) {
		g.row.Oldest = at
	}
	if at.After(g.row.Newest) {
		g.row.Newest = at
	}
}

func (a *keyedAggregator) Finalize(top int) *Table {
	table := &Table{
		GroupBy: a.groupBy,
		Total:   a.total,
		Rows:    make([]Row, 0, len(a.groups)),
	}

	for _, g := range a.groups {
		row := g.row
		row.Commits = len(g.commits)
		if a.total > 0 {
			row.Share = float64(row.Lines) / float64(a.total)
		}
		table.Rows = append(table.Rows, row)
	}

	if a.order != nil {
		slices.SortFunc(table.Rows, func(x, y Row) int {
			return slices.Index(a.order, x.Key) - slices.Index(a.order, y.Key)
		})
	} else {
		slices.SortFunc(table.Rows, func(x, y Row) int {
			if x.Lines != y.Lines {
				return y.Lines - x.Lines
			}
			return strings.Compare(x.Key, y.Key)
		})
	}

	if top > 0 && len(table.Rows) > top {
		table.Omitted = len(table.Rows) - top
		table.Rows = table.Rows[:top]
	}
	return table
}

func (a *keyedAggregator) Reset() {
	a.groups = make(map[string]*group)
	a.total = 0
}

func authorKey(e *blame.Entry) (string, string) {
	if e.AuthorMail == "" {
		return e.Author, ""
	}
	return e.Author + " " + e.AuthorMail, ""
}

func commitKey(e *blame.Entry) (string, string) {
	return e.ShortCommit(), e.Summary
}

func filenameKey(e *blame.Entry) (string, string) {
	return e.Filename, ""
}

// Age bucket keys.
const (
	AgeUncommitted = "uncommitted"
	AgeWeek        = "< 1 week"
	AgeMonth       = "< 1 month"
	AgeHalfYear    = "< 6 months"
	AgeYear        = "< 1 year"
	AgeTwoYears    = "< 2 years"
	AgeOlder       = ">= 2 years"
)

var ageBuckets = []struct {
	key string
	max time.Duration
}{
	{AgeWeek, 7 * 24 * time.Hour},
	{AgeMonth, 30 * 24 * time.Hour},
	{AgeHalfYear, 182 * 24 * time.Hour},
	{AgeYear, 365 * 24 * time.Hour},
	{AgeTwoYears, 2 * 365 * 24 * time.Hour},
}

func ageOrder() []string {
	order := []string{AgeUncommitted}
	for _, b := range ageBuckets {
		order = append(order, b.key)
	}
	return append(order, AgeOlder)
}

func ageKey(now time.Time) keyFunc {
	return func(e *blame.Entry) (string, string) {
		if e.IsUncommitted() {
			return AgeUncommitted, ""
		}
		age := now.Sub(time.Unix(e.AuthorTime, 0))
		for _, b := range ageBuckets {
			if age < b.max {
				return b.key, ""
			}
		}
		return AgeOlder, ""
	}
}
