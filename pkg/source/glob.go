package source

import (
	"fmt"
	"path/filepath"
	"slices"
)

// Stdin is the path that selects standard input.
const Stdin = "-"

// ExpandGlobs expands file paths and glob patterns into a deduplicated list of
// inputs. Inputs keep the order of their patterns; matches of a single glob are
// sorted. A pattern that matches nothing is kept literally so the caller
// reports a useful file-not-found error.
func ExpandGlobs(patterns []string) ([]string, error) {
	seen := make(map[string]bool)
	var result []string

	add := func(path string) {
		if !seen[path] {
			seen[path] = true
			result = append(result, path)
		}
	}

	for _, pattern := range patterns {
		if pattern == Stdin {
			add(pattern)
			continue
		}

		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid glob pattern %q: %w", pattern, err)
		}

		if len(matches) == 0 {
			add(pattern)
			continue
		}

		slices.Sort(matches)
		for _, match := range matches {
			add(match)
		}
	}

	return result, nil
}
