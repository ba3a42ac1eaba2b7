// Package source loads captured `git blame --line-porcelain` output and
// decodes it into blame entries.
package source

import (
	"github.com/ccollicutt/lineblame/pkg/blame"
)

// File is one successfully decoded input.
type File struct {
	// Path is the input path, or "-" for standard input.
	Path string

	// Entries holds one entry per blamed line, in input order.
	Entries []blame.Entry
}

// Failure records an input that could not be loaded or decoded.
type Failure struct {
	Path string
	Err  error
}

// Error implements the error interface.
func (f *Failure) Error() string {
	return f.Path + ": " + f.Err.Error()
}

// Unwrap returns the underlying error.
func (f *Failure) Unwrap() error {
	return f.Err
}

// Batch is the result of loading several inputs.
type Batch struct {
	// Files are the decoded inputs, in the order they were requested.
	Files []*File

	// Failures are populated only when Options.KeepGoing is set.
	Failures []*Failure
}

// EntryCount returns the number of entries across all files.
func (b *Batch) EntryCount() int {
	n := 0
	for _, f := range b.Files {
		n += len(f.Entries)
	}
	return n
}

// Options controls loading.
type Options struct {
	// Strict rejects unknown metadata keywords.
	Strict bool

	// Concurrency bounds the number of inputs decoded at once.
	// Values below 1 use DefaultConcurrency.
	Concurrency int

	// KeepGoing collects per-input failures instead of stopping at the first.
	KeepGoing bool
}

// DefaultConcurrency is used when Options.Concurrency is unset.
const DefaultConcurrency = 4

func (o Options) parseOptions() []blame.Option {
	return []blame.Option{blame.WithStrict(o.Strict)}
}
