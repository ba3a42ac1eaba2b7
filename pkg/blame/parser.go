package blame

import (
	"fmt"
	"strconv"
	"strings"
)

// Metadata keywords of the line-porcelain format.
const (
	KeyAuthor        = "author"
	KeyAuthorMail    = "author-mail"
	KeyAuthorTime    = "author-time"
	KeyAuthorTZ      = "author-tz"
	KeyCommitter     = "committer"
	KeyCommitterMail = "committer-mail"
	KeyCommitterTime = "committer-time"
	KeyCommitterTZ   = "committer-tz"
	KeySummary       = "summary"
	KeyPrevious      = "previous"
	KeyFilename      = "filename"
	KeyBoundary      = "boundary"
)

type field uint8

const (
	fieldAuthor field = 1 << iota
	fieldAuthorMail
	fieldCommitter
	fieldCommitterMail
	fieldSummary
	fieldFilename
)

// requiredFields lists the metadata a block must carry, in reporting order.
var requiredFields = []struct {
	bit  field
	name string
}{
	{fieldAuthor, KeyAuthor},
	{fieldAuthorMail, KeyAuthorMail},
	{fieldCommitter, KeyCommitter},
	{fieldCommitterMail, KeyCommitterMail},
	{fieldSummary, KeySummary},
	{fieldFilename, KeyFilename},
}

// IsKeyword reports whether key is a metadata keyword this package understands.
func IsKeyword(key string) bool {
	switch key {
	case KeyAuthor, KeyAuthorMail, KeyAuthorTime, KeyAuthorTZ,
		KeyCommitter, KeyCommitterMail, KeyCommitterTime, KeyCommitterTZ,
		KeySummary, KeyPrevious, KeyFilename, KeyBoundary:
		return true
	}
	return false
}

type options struct {
	strict bool
}

// Option configures parsing.
type Option func(*options)

// WithStrict rejects unknown metadata keywords instead of ignoring them.
func WithStrict(strict bool) Option {
	return func(o *options) {
		o.strict = strict
	}
}

// Parse decodes the complete output of `git blame --line-porcelain`.
// It returns every entry in input order, or the first error and no entries.
func Parse(raw string, opts ...Option) ([]Entry, error) {
	m := newMachine(opts)

	// Every content line starts with a tab right after a terminator.
	entries := make([]Entry, 0, strings.Count(raw, "\n\t")+1)

	lineNo := 0
	for len(raw) > 0 {
		var line string
		if i := strings.IndexByte(raw, '\n'); i >= 0 {
			line, raw = raw[:i], raw[i+1:]
		} else {
			line, raw = raw, ""
		}
		lineNo++

		entry, done, err := m.feed(lineNo, strings.TrimSuffix(line, "\r"))
		if err != nil {
			return nil, err
		}
		if done {
			entries = append(entries, entry)
		}
	}

	if err := m.finish(lineNo); err != nil {
		return nil, err
	}
	return entries, nil
}

// ParseBytes is Parse for captured process output.
func ParseBytes(raw []byte, opts ...Option) ([]Entry, error) {
	return Parse(string(raw), opts...)
}

// machine accumulates the block currently being read. It is owned by a
// single Parse call or Reader.
type machine struct {
	opts  options
	open  bool
	start int
	seen  field
	cur   Entry
}

func newMachine(opts []Option) *machine {
	m := &machine{}
	for _, opt := range opts {
		opt(&m.opts)
	}
	return m
}

// feed consumes one physical line. It returns the finished entry when the
// line was the content line of the open block.
func (m *machine) feed(lineNo int, line string) (Entry, bool, error) {
	if strings.HasPrefix(line, "\t") {
		if !m.open {
			return Entry{}, false, &ParseError{
				Kind: KindUnknownBlockState,
				Line: lineNo,
				Text: line,
				Msg:  "content line before any header",
			}
		}
		entry, err := m.finalize(lineNo, line[1:])
		return entry, err == nil, err
	}

	if !m.open {
		key, _, _ := strings.Cut(line, " ")
		if IsKeyword(key) || looksLikeMetadata(line) {
			return Entry{}, false, &ParseError{
				Kind:  KindUnknownBlockState,
				Line:  lineNo,
				Field: key,
				Text:  line,
				Msg:   "metadata line before any header",
			}
		}
		return Entry{}, false, m.openBlock(lineNo, line)
	}

	if looksLikeHeader(line) {
		return Entry{}, false, &ParseError{
			Kind:       KindUnterminatedBlock,
			Line:       lineNo,
			BlockStart: m.start,
			Text:       line,
			Msg:        "next header found before the content line",
		}
	}
	return Entry{}, false, m.metadata(lineNo, line)
}

// finish checks that the input did not end inside a block.
func (m *machine) finish(lastLine int) error {
	if !m.open {
		return nil
	}
	return &ParseError{
		Kind:       KindUnterminatedBlock,
		Line:       lastLine,
		BlockStart: m.start,
		Msg:        "input ended before the content line",
	}
}

func (m *machine) openBlock(lineNo int, line string) error {
	h, err := parseHeader(line)
	if err != nil {
		err.Line = lineNo
		err.Text = line
		return err
	}

	m.cur = Entry{
		Commit:       h.commit,
		OriginalLine: h.original,
		FinalLine:    h.final,
	}
	m.open = true
	m.start = lineNo
	m.seen = 0
	return nil
}

func (m *machine) metadata(lineNo int, line string) error {
	key, value, hasValue := strings.Cut(line, " ")

	if key == KeyBoundary {
		m.cur.Boundary = true
		return nil
	}

	if !IsKeyword(key) {
		if m.opts.strict {
			return m.fail(KindUnknownKeyword, lineNo, line, key, "", nil)
		}
		return nil
	}

	if !hasValue {
		return m.fail(KindInvalidFieldValue, lineNo, line, key, "missing value", nil)
	}

	switch key {
	case KeyAuthor:
		m.cur.Author = value
		m.seen |= fieldAuthor
	case KeyAuthorMail:
		m.cur.AuthorMail = value
		m.seen |= fieldAuthorMail
	case KeyAuthorTime:
		t, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return m.fail(KindInvalidFieldValue, lineNo, line, key, "not an integer", err)
		}
		m.cur.AuthorTime = t
	case KeyAuthorTZ:
		m.cur.AuthorTZ = value
	case KeyCommitter:
		m.cur.Committer = value
		m.seen |= fieldCommitter
	case KeyCommitterMail:
		m.cur.CommitterMail = value
		m.seen |= fieldCommitterMail
	case KeyCommitterTime:
		t, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return m.fail(KindInvalidFieldValue, lineNo, line, key, "not an integer", err)
		}
		m.cur.CommitterTime = t
	case KeyCommitterTZ:
		m.cur.CommitterTZ = value
	case KeySummary:
		m.cur.Summary = value
		m.seen |= fieldSummary
	case KeyPrevious:
		parts := strings.Fields(value)
		if len(parts) != 2 {
			msg := fmt.Sprintf("expected <commit> <filename>, got %d fields", len(parts))
			return m.fail(KindInvalidFieldValue, lineNo, line, key, msg, nil)
		}
		m.cur.Previous = &Previous{Commit: parts[0], Filename: parts[1]}
	case KeyFilename:
		m.cur.Filename = value
		m.seen |= fieldFilename
	}
	return nil
}

func (m *machine) finalize(lineNo int, content string) (Entry, error) {
	for _, f := range requiredFields {
		if m.seen&f.bit == 0 {
			return Entry{}, &ParseError{
				Kind:       KindMissingField,
				Line:       lineNo,
				BlockStart: m.start,
				Field:      f.name,
				Text:       "\t" + content,
			}
		}
	}

	entry := m.cur
	entry.Content = content

	m.cur = Entry{}
	m.open = false
	m.seen = 0
	return entry, nil
}

func (m *machine) fail(kind Kind, lineNo int, line, key, msg string, cause error) *ParseError {
	return &ParseError{
		Kind:       kind,
		Line:       lineNo,
		BlockStart: m.start,
		Field:      key,
		Text:       line,
		Msg:        msg,
		Err:        cause,
	}
}

type header struct {
	commit   string
	original int
	final    int
}

// parseHeader parses `<commit> <original> <final> [<group size>]`.
// The returned error has only Kind, Msg and Err populated.
func parseHeader(line string) (header, *ParseError) {
	tokens := strings.Fields(line)
	if len(tokens) < 3 || len(tokens) > 4 {
		return header{}, &ParseError{
			Kind: KindMalformedHeader,
			Msg:  fmt.Sprintf("expected 3 or 4 fields, got %d", len(tokens)),
		}
	}

	if !isHex(tokens[0]) {
		return header{}, &ParseError{
			Kind: KindMalformedHeader,
			Msg:  fmt.Sprintf("invalid commit hash %q", tokens[0]),
		}
	}

	h := header{commit: tokens[0]}
	names := [...]string{"original line number", "final line number", "group size"}
	targets := [...]*int{&h.original, &h.final, nil}
	for i, tok := range tokens[1:] {
		n, err := strconv.Atoi(tok)
		if err != nil {
			return header{}, &ParseError{
				Kind: KindMalformedHeader,
				Msg:  fmt.Sprintf("invalid %s %q", names[i], tok),
				Err:  err,
			}
		}
		if n < 1 {
			return header{}, &ParseError{
				Kind: KindMalformedHeader,
				Msg:  fmt.Sprintf("%s must be positive, got %d", names[i], n),
			}
		}
		if targets[i] != nil {
			*targets[i] = n
		}
	}
	return h, nil
}

// looksLikeHeader reports whether a line inside an open block is actually
// the header of a following block. It accepts exactly what openBlock does.
func looksLikeHeader(line string) bool {
	_, err := parseHeader(line)
	return err == nil
}

// looksLikeMetadata reports whether a line is a `key value` pair with a
// keyword-shaped key that cannot be a commit hash.
func looksLikeMetadata(line string) bool {
	tokens := strings.Fields(line)
	if len(tokens) != 2 || isHex(tokens[0]) {
		return false
	}
	for _, r := range tokens[0] {
		if (r < 'a' || r > 'z') && r != '-' {
			return false
		}
	}
	return true
}

func isHex(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !('0' <= c && c <= '9' || 'a' <= c && c <= 'f' || 'A' <= c && c <= 'F') {
			return false
		}
	}
	return true
}
