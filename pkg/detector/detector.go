// Package detector classifies captured `git blame` output so that inputs in
// the wrong format can be explained instead of just rejected.
package detector

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/ccollicutt/lineblame/pkg/blame"
)

// DefaultSampleSize is the number of lines sampled when none is configured.
const DefaultSampleSize = 200

// DetectionResult holds the result of analyzing an input.
type DetectionResult struct {
	Matches      []VariantMatch // Variants that matched, sorted by confidence descending
	SampledLines int            // Number of lines sampled
	Headers      int            // Lines shaped like a block header
	Metadata     int            // Lines starting with a metadata keyword
	ContentLines int            // Tab-prefixed lines
	Blocks       int            // Blocks terminated by a content line
	FullBlocks   int            // Terminated blocks that carried an author line
}

// VariantMatch represents a variant that matched with its confidence score.
type VariantMatch struct {
	Variant    *Variant
	Confidence float64 // 0.0 to 1.0 (share of sampled lines explained)
	MatchCount int     // Number of lines explained by the variant
	SampleLine string  // First line that identified the variant
}

// Detector samples blame output to identify its variant.
type Detector struct {
	sampleSize int
}

// Option configures the Detector.
type Option func(*Detector)

// WithSampleSize sets the number of lines to sample (default 200).
func WithSampleSize(n int) Option {
	return func(d *Detector) {
		if n > 0 {
			d.sampleSize = n
		}
	}
}

// New creates a new Detector.
func New(opts ...Option) *Detector {
	d := &Detector{sampleSize: DefaultSampleSize}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// SampleSize returns the configured number of lines to sample.
func (d *Detector) SampleSize() int {
	return d.sampleSize
}

// DetectFromFile analyzes a file and returns the detected variants.
func (d *Detector) DetectFromFile(ctx context.Context, path string) (*DetectionResult, error) {
	// #nosec G304 - path is provided by user via CLI
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return d.DetectFromReader(ctx, file)
}

// DetectFromReader analyzes up to the sample size lines read from r.
func (d *Detector) DetectFromReader(ctx context.Context, r io.Reader) (*DetectionResult, error) {
	lines, err := d.sample(ctx, r)
	if err != nil {
		return nil, err
	}
	return d.DetectFromLines(lines), nil
}

// DetectFromLines analyzes a slice of lines. Lines beyond the sample size
// are ignored.
func (d *Detector) DetectFromLines(lines []string) *DetectionResult {
	if len(lines) > d.sampleSize {
		lines = lines[:d.sampleSize]
	}

	result := &DetectionResult{SampledLines: len(lines)}
	if len(lines) == 0 {
		return result
	}

	var (
		inBlock, hasAuthor bool
		defaultLines       int
		firstHeader        string
		firstDefault       string
	)

	for _, line := range lines {
		line = strings.TrimSuffix(line, "\r")

		switch {
		case strings.HasPrefix(line, "\t"):
			result.ContentLines++
			if inBlock {
				result.Blocks++
				if hasAuthor {
					result.FullBlocks++
				}
			}
			inBlock, hasAuthor = false, false

		case headerPattern.MatchString(line):
			result.Headers++
			if firstHeader == "" {
				firstHeader = line
			}
			inBlock, hasAuthor = true, false

		case keywordPattern.MatchString(line):
			result.Metadata++
			if strings.HasPrefix(line, blame.KeyAuthor+" ") {
				hasAuthor = true
			}

		case defaultPattern.MatchString(line):
			defaultLines++
			if firstDefault == "" {
				firstDefault = line
			}
		}
	}

	total := float64(len(lines))
	blockLines := result.Headers + result.Metadata + result.ContentLines

	switch {
	case result.Blocks > 0 && result.FullBlocks == result.Blocks:
		result.add(LinePorcelain, blockLines, total, firstHeader)
	case result.Blocks > 0:
		result.add(Porcelain, blockLines, total, firstHeader)
	case result.Headers > 0 && result.ContentLines == 0:
		result.add(Incremental, result.Headers+result.Metadata, total, firstHeader)
	}

	if defaultLines > 0 {
		result.add(Default, defaultLines, total, firstDefault)
	}

	sort.SliceStable(result.Matches, func(i, j int) bool {
		return result.Matches[i].Confidence > result.Matches[j].Confidence
	})

	return result
}

func (r *DetectionResult) add(v *Variant, count int, total float64, sample string) {
	r.Matches = append(r.Matches, VariantMatch{
		Variant:    v,
		Confidence: float64(count) / total,
		MatchCount: count,
		SampleLine: sample,
	})
}

// sample reads up to sampleSize lines. Blank lines are kept since a lone
// tab is a valid content line.
func (d *Detector) sample(ctx context.Context, r io.Reader) ([]string, error) {
	var lines []string
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), blame.MaxLineSize)

	for len(lines) < d.sampleSize && scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		lines = append(lines, scanner.Text())
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("sampling input: %w", err)
	}

	return lines, nil
}

// BestMatch returns the highest confidence match, or nil if none found.
func (r *DetectionResult) BestMatch() *VariantMatch {
	if len(r.Matches) == 0 {
		return nil
	}
	return &r.Matches[0]
}

// HasMatch returns true if at least one variant matched.
func (r *DetectionResult) HasMatch() bool {
	return len(r.Matches) > 0
}

// Hint returns advice for the best match, or an empty string when the input
// looks decodable.
func (r *DetectionResult) Hint() string {
	best := r.BestMatch()
	if best == nil {
		return "input does not look like git blame output; capture it with git blame --line-porcelain"
	}
	return best.Variant.Hint
}
