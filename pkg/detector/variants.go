package detector

import "regexp"

// Variant is a known shape of `git blame` output.
type Variant struct {
	Name        string // Short identifier used in reports
	Description string // Human-readable description
	Parseable   bool   // True if lineblame can decode this variant
	Hint        string // Advice shown when the variant cannot be decoded
	Example     string // Representative excerpt
}

var (
	// LinePorcelain is `git blame --line-porcelain` output.
	LinePorcelain = &Variant{
		Name:        "line-porcelain",
		Description: "git blame --line-porcelain (full metadata on every line)",
		Parseable:   true,
		Example: "c9a79e9b1c3bd27e8c1e2b0e1fa3e1cb3e1b38a6 1 1 2\n" +
			"author Jane Doe\n...\nfilename README.md\n\t# Title",
	}

	// Porcelain is `git blame --porcelain` output, which prints commit
	// metadata only the first time a commit appears.
	Porcelain = &Variant{
		Name:        "porcelain",
		Description: "git blame --porcelain (metadata only on first use of a commit)",
		Hint:        "re-run git blame with --line-porcelain so every line carries its commit metadata",
		Example: "c9a79e9b1c3bd27e8c1e2b0e1fa3e1cb3e1b38a6 2 2\n" +
			"\tsecond line",
	}

	// Incremental is `git blame --incremental` output, which has no
	// content lines.
	Incremental = &Variant{
		Name:        "incremental",
		Description: "git blame --incremental (no line content)",
		Hint:        "re-run git blame with --line-porcelain instead of --incremental",
		Example: "c9a79e9b1c3bd27e8c1e2b0e1fa3e1cb3e1b38a6 1 1 2\n" +
			"author Jane Doe\n...\nfilename README.md",
	}

	// Default is the human-readable `git blame` output.
	Default = &Variant{
		Name:        "default",
		Description: "git blame (human-readable columns)",
		Hint:        "re-run git blame with --line-porcelain; the human-readable format drops metadata",
		Example:     "c9a79e9b (Jane Doe 2025-04-18 21:57:41 +0900 1) # Title",
	}
)

// Variants returns every known variant, most specific first.
func Variants() []*Variant {
	return []*Variant{LinePorcelain, Porcelain, Incremental, Default}
}

var (
	headerPattern  = regexp.MustCompile(`^[0-9a-fA-F]{4,64} [1-9][0-9]* [1-9][0-9]*( [1-9][0-9]*)?$`)
	keywordPattern = regexp.MustCompile(`^(author|author-mail|author-time|author-tz|committer|committer-mail|committer-time|committer-tz|summary|previous|filename|boundary)( |$)`)
	defaultPattern = regexp.MustCompile(`^\^?[0-9a-fA-F]{7,64} (?:\S+ +)?\(.*\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2} [+-]\d{4} +\d+\)`)
)
