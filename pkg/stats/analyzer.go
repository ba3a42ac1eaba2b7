package stats

import (
	"context"
	"errors"
	"time"

	"github.com/ccollicutt/lineblame/pkg/blame"
	"github.com/ccollicutt/lineblame/pkg/source"
)

// Analyzer runs a set of aggregators over decoded inputs.
type Analyzer struct {
	groupBy     []GroupBy
	top         int
	now         time.Time
	aggregators []Aggregator
}

// Option configures analyzer behavior.
type Option func(*Analyzer)

// WithGroupBy selects the tables to build. Defaults to author.
func WithGroupBy(groups ...GroupBy) Option {
	return func(a *Analyzer) {
		if len(groups) > 0 {
			a.groupBy = groups
		}
	}
}

// WithTop keeps only the n largest rows of each table.
func WithTop(n int) Option {
	return func(a *Analyzer) {
		a.top = n
	}
}

// WithNow sets the reference time for age buckets. Defaults to time.Now.
func WithNow(now time.Time) Option {
	return func(a *Analyzer) {
		a.now = now
	}
}

// NewAnalyzer creates an analyzer.
func NewAnalyzer(opts ...Option) (*Analyzer, error) {
	a := &Analyzer{
		groupBy: []GroupBy{GroupByAuthor},
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.now.IsZero() {
		a.now = time.Now()
	}
	if a.top < 0 {
		return nil, errors.New("top must not be negative")
	}

	seen := make(map[GroupBy]bool)
	for _, g := range a.groupBy {
		if seen[g] {
			continue
		}
		seen[g] = true

		agg, err := NewAggregator(g, a.now)
		if err != nil {
			return nil, err
		}
		a.aggregators = append(a.aggregators, agg)
	}
	return a, nil
}

// Analyze aggregates every entry of files.
func (a *Analyzer) Analyze(ctx context.Context, files []*source.File) (*Result, error) {
	for _, agg := range a.aggregators {
		agg.Reset()
	}

	result := &Result{Files: len(files)}
	commits := make(map[string]struct{})
	authors := make(map[string]struct{})

	for _, f := range files {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		for i := range f.Entries {
			e := &f.Entries[i]
			countEntry(result, e, commits, authors)
			for _, agg := range a.aggregators {
				agg.Process(e)
			}
		}
	}

	result.Commits = len(commits)
	result.Authors = len(authors)
	for _, agg := range a.aggregators {
		result.Tables = append(result.Tables, agg.Finalize(a.top))
	}
	return result, nil
}

func countEntry(r *Result, e *blame.Entry, commits, authors map[string]struct{}) {
	r.Lines++
	if e.Boundary {
		r.Boundary++
	}
	if e.IsUncommitted() {
		r.Uncommitted++
	}
	commits[e.Commit] = struct{}{}
	key, _ := authorKey(e)
	authors[key] = struct{}{}
}
