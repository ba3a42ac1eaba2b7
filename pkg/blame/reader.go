package blame

import (
	"bufio"
	"context"
	"fmt"
	"io"
)

// MaxLineSize is the longest physical line a Reader accepts.
const MaxLineSize = 1024 * 1024

// Reader decodes line-porcelain output incrementally from a stream.
// It applies the same rules as Parse but hands out entries as soon as their
// content line is read. A Reader is not safe for concurrent use.
type Reader struct {
	scanner *bufio.Scanner
	m       *machine
	line    int
	err     error
}

// NewReader returns a Reader consuming r.
func NewReader(r io.Reader, opts ...Option) *Reader {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), MaxLineSize)

	return &Reader{
		scanner: scanner,
		m:       newMachine(opts),
	}
}

// Next returns the next entry.
// Returns io.EOF once the stream is exhausted. After any error, every
// further call returns the same error.
func (r *Reader) Next(ctx context.Context) (*Entry, error) {
	for {
		if r.err != nil {
			return nil, r.err
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		if !r.scanner.Scan() {
			if err := r.scanner.Err(); err != nil {
				r.err = fmt.Errorf("reading blame output after line %d: %w", r.line, err)
			} else if err := r.m.finish(r.line); err != nil {
				r.err = err
			} else {
				r.err = io.EOF
			}
			continue
		}
		r.line++

		entry, done, err := r.m.feed(r.line, r.scanner.Text())
		if err != nil {
			r.err = err
			continue
		}
		if done {
			return &entry, nil
		}
	}
}

// Line returns the number of physical lines consumed so far.
func (r *Reader) Line() int {
	return r.line
}

// ReadAll drains r, returning all entries or the first error.
func ReadAll(ctx context.Context, r *Reader) ([]Entry, error) {
	var entries []Entry
	for {
		entry, err := r.Next(ctx)
		if err == io.EOF {
			return entries, nil
		}
		if err != nil {
			return nil, err
		}
		entries = append(entries, *entry)
	}
}
