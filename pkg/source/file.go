package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/ccollicutt/lineblame/pkg/blame"
)

// stdin is swapped in tests.
var stdin io.Reader = os.Stdin

// Load reads and decodes a single input. Read and decode errors are
// returned as *Failure.
func Load(ctx context.Context, path string, opts Options) (*File, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	raw, err := readInput(path)
	if err != nil {
		return nil, &Failure{Path: path, Err: err}
	}

	entries, err := blame.ParseBytes(raw, opts.parseOptions()...)
	if err != nil {
		return nil, &Failure{Path: path, Err: err}
	}

	log.WithFields(log.Fields{
		"path":    path,
		"bytes":   len(raw),
		"entries": len(entries),
	}).Debug("decoded blame output")

	return &File{Path: path, Entries: entries}, nil
}

// LoadAll decodes every path with bounded concurrency.
// Without KeepGoing the first failure cancels the remaining work and is
// returned. With KeepGoing failures are collected in the Batch and the
// returned error is only set for context cancellation.
func LoadAll(ctx context.Context, paths []string, opts Options) (*Batch, error) {
	limit := opts.Concurrency
	if limit < 1 {
		limit = DefaultConcurrency
	}

	files := make([]*File, len(paths))
	failures := make([]*Failure, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			f, err := Load(gctx, path, opts)
			if err == nil {
				files[i] = f
				return nil
			}
			if !opts.KeepGoing || gctx.Err() != nil {
				return err
			}

			var failure *Failure
			if !errors.As(err, &failure) {
				failure = &Failure{Path: path, Err: err}
			}
			log.WithError(failure.Err).WithField("path", path).Warn("skipping input")
			failures[i] = failure
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	batch := &Batch{}
	for i := range paths {
		if files[i] != nil {
			batch.Files = append(batch.Files, files[i])
		}
		if failures[i] != nil {
			batch.Failures = append(batch.Failures, failures[i])
		}
	}
	return batch, nil
}

func readInput(path string) ([]byte, error) {
	if path == Stdin {
		raw, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("reading standard input: %w", err)
		}
		return raw, nil
	}

	raw, err := os.ReadFile(path) // #nosec G304 -- user-provided paths are expected
	if err != nil {
		return nil, fmt.Errorf("reading blame output: %w", err)
	}
	return raw, nil
}
