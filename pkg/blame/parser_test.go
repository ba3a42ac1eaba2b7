package blame

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// blockLines returns a complete block for commit with content as its source line.
func blockLines(commit string, line int, content string) []string {
	return []string{
		fmt.Sprintf("%s %d %d 1", commit, line, line),
		"author Alice",
		"author-mail <alice@example.com>",
		"author-time 1000000000",
		"author-tz +0000",
		"committer Alice",
		"committer-mail <alice@example.com>",
		"committer-time 1000000000",
		"committer-tz +0000",
		"summary Initial commit",
		"filename file.txt",
		"\t" + content,
	}
}

func join(lines ...[]string) string {
	var all []string
	for _, l := range lines {
		all = append(all, l...)
	}
	return strings.Join(all, "\n") + "\n"
}

func without(lines []string, keyword string) []string {
	var out []string
	for _, l := range lines {
		if strings.HasPrefix(l, keyword+" ") {
			continue
		}
		out = append(out, l)
	}
	return out
}

func requireKind(t *testing.T, err error, kind Kind) *ParseError {
	t.Helper()
	require.Error(t, err)
	var perr *ParseError
	require.True(t, errors.As(err, &perr), "expected *ParseError, got %T: %v", err, err)
	require.Equal(t, kind, perr.Kind, "error: %v", err)
	return perr
}

func TestParse_SingleBlock(t *testing.T) {
	entries, err := Parse(join(blockLines("aaaa111", 1, "hello world")))
	require.NoError(t, err)
	require.Len(t, entries, 1)

	e := entries[0]
	assert.Equal(t, "aaaa111", e.Commit)
	assert.Equal(t, 1, e.OriginalLine)
	assert.Equal(t, 1, e.FinalLine)
	assert.Equal(t, "Alice", e.Author)
	assert.Equal(t, "<alice@example.com>", e.AuthorMail)
	assert.Equal(t, int64(1000000000), e.AuthorTime)
	assert.Equal(t, "+0000", e.AuthorTZ)
	assert.Equal(t, "Alice", e.Committer)
	assert.Equal(t, int64(1000000000), e.CommitterTime)
	assert.Equal(t, "Initial commit", e.Summary)
	assert.Equal(t, "file.txt", e.Filename)
	assert.Equal(t, "hello world", e.Content)
	assert.Nil(t, e.Previous)
	assert.False(t, e.Boundary)
}

func TestParse_SampleFile(t *testing.T) {
	raw, err := os.ReadFile(filepath.Join("testdata", "sample.txt"))
	require.NoError(t, err)

	entries, err := ParseBytes(raw)
	require.NoError(t, err)
	require.Len(t, entries, 4)

	first := entries[0]
	assert.Equal(t, "c9a79e91e05355fc42ec519593806466c2f66de0", first.Commit)
	assert.Equal(t, "c9a79e9", first.ShortCommit())
	assert.Equal(t, "mitsu-ksgr", first.Author)
	assert.Equal(t, "<mitsu-ksgr@users.noreply.github.com>", first.AuthorMail)
	assert.Equal(t, int64(1744981061), first.AuthorTime)
	assert.Equal(t, "+0900", first.AuthorTZ)
	assert.Equal(t, "GitHub", first.Committer)
	assert.Equal(t, "<noreply@github.com>", first.CommitterMail)
	assert.Equal(t, "Update README.md", first.Summary)
	assert.Equal(t, `<div align="center">`, first.Content)
	require.NotNil(t, first.Previous)
	assert.Equal(t, "5d31b11bd146562bb1b472e1334233a6a8ef66e5", first.Previous.Commit)
	assert.Equal(t, "README.md", first.Previous.Filename)

	assert.Equal(t, "", entries[1].Content, "blank source lines are kept")
	assert.Equal(t, 2, entries[1].FinalLine)

	root := entries[2]
	assert.True(t, root.Boundary)
	assert.Nil(t, root.Previous)
	assert.Equal(t, 1, root.OriginalLine)
	assert.Equal(t, 3, root.FinalLine)

	wip := entries[3]
	assert.True(t, wip.IsUncommitted())
	assert.Equal(t, "Not Committed Yet", wip.Author)
	assert.Equal(t, "<not.committed.yet>", wip.CommitterMail)
	assert.Equal(t, "  indented\twith tab  ", wip.Content)
}

func TestParse_EntryCountAndOrder(t *testing.T) {
	var blocks [][]string
	for i := 1; i <= 25; i++ {
		blocks = append(blocks, blockLines("abcdef0", i, fmt.Sprintf("line %d", i)))
	}

	entries, err := Parse(join(blocks...))
	require.NoError(t, err)
	require.Len(t, entries, 25)
	for i, e := range entries {
		assert.Equal(t, fmt.Sprintf("line %d", i+1), e.Content)
		assert.Equal(t, i+1, e.FinalLine)
	}
}

func TestParse_EmptyInput(t *testing.T) {
	entries, err := Parse("")
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestParse_NoTrailingNewline(t *testing.T) {
	raw := strings.TrimSuffix(join(blockLines("aaaa111", 1, "x")), "\n")
	entries, err := Parse(raw)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "x", entries[0].Content)
}

func TestParse_CRLF(t *testing.T) {
	raw := strings.ReplaceAll(join(blockLines("aaaa111", 1, "windows")), "\n", "\r\n")
	entries, err := Parse(raw)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "windows", entries[0].Content)
	assert.Equal(t, "Initial commit", entries[0].Summary)
}

func TestParse_ContentVerbatim(t *testing.T) {
	tests := []string{
		"",
		" ",
		"\t",
		"\tleading tab",
		"trailing spaces   ",
		"author Mallory",
		"deadbeef 1 1 1",
	}

	for _, content := range tests {
		t.Run(fmt.Sprintf("%q", content), func(t *testing.T) {
			entries, err := Parse(join(blockLines("aaaa111", 1, content)))
			require.NoError(t, err)
			require.Len(t, entries, 1)
			assert.Equal(t, content, entries[0].Content)
		})
	}
}

func TestParse_MissingField(t *testing.T) {
	for _, keyword := range []string{
		KeyAuthor, KeyAuthorMail, KeyCommitter, KeyCommitterMail, KeySummary, KeyFilename,
	} {
		t.Run(keyword, func(t *testing.T) {
			lines := without(blockLines("aaaa111", 1, "x"), keyword)
			_, err := Parse(join(lines))

			perr := requireKind(t, err, KindMissingField)
			assert.Equal(t, keyword, perr.Field)
			assert.Equal(t, 1, perr.BlockStart)
			assert.Equal(t, len(lines), perr.Line)
			assert.ErrorIs(t, err, ErrMissingField)
		})
	}
}

func TestParse_OptionalFieldsMayBeOmitted(t *testing.T) {
	lines := blockLines("aaaa111", 1, "x")
	for _, keyword := range []string{KeyAuthorTime, KeyAuthorTZ, KeyCommitterTime, KeyCommitterTZ} {
		lines = without(lines, keyword)
	}

	entries, err := Parse(join(lines))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Zero(t, entries[0].AuthorTime)
	assert.Empty(t, entries[0].CommitterTZ)
}

func TestParse_Header(t *testing.T) {
	tests := []struct {
		name    string
		header  string
		wantErr bool
	}{
		{"three fields", "aaaa111 1 1", false},
		{"four fields", "aaaa111 3 7 2", false},
		{"extra spaces", "aaaa111  3   7", false},
		{"one field", "aaaa111", true},
		{"two fields", "aaaa111 1", true},
		{"five fields", "aaaa111 1 1 1 1", true},
		{"non hex hash", "zzzz111 1 1", true},
		{"non numeric original", "aaaa111 x 1", true},
		{"non numeric final", "aaaa111 1 y", true},
		{"zero line", "aaaa111 0 1", true},
		{"negative line", "aaaa111 1 -2", true},
		{"bad group size", "aaaa111 1 1 n", true},
		{"empty line", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lines := blockLines("aaaa111", 1, "x")
			lines[0] = tt.header

			entries, err := Parse(join(lines))
			if !tt.wantErr {
				require.NoError(t, err)
				require.Len(t, entries, 1)
				return
			}
			perr := requireKind(t, err, KindMalformedHeader)
			assert.Equal(t, 1, perr.Line)
			assert.Equal(t, tt.header, perr.Text)
			assert.Nil(t, entries)
		})
	}
}

func TestParse_HeaderValues(t *testing.T) {
	lines := blockLines("AbCdEf0123", 1, "x")
	lines[0] = "AbCdEf0123 12 34 5"

	entries, err := Parse(join(lines))
	require.NoError(t, err)
	assert.Equal(t, "AbCdEf0123", entries[0].Commit)
	assert.Equal(t, 12, entries[0].OriginalLine)
	assert.Equal(t, 34, entries[0].FinalLine)
}

func TestParse_Previous(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		want    *Previous
		wantErr bool
	}{
		{"two tokens", "previous 5d31b11 old/name.txt", &Previous{Commit: "5d31b11", Filename: "old/name.txt"}, false},
		{"one token", "previous 5d31b11", nil, true},
		{"three tokens", "previous 5d31b11 a b", nil, true},
		{"no value", "previous", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lines := blockLines("aaaa111", 1, "x")
			lines = append(lines[:10:10], append([]string{tt.value}, lines[10:]...)...)

			entries, err := Parse(join(lines))
			if tt.wantErr {
				perr := requireKind(t, err, KindInvalidFieldValue)
				assert.Equal(t, KeyPrevious, perr.Field)
				assert.Equal(t, 11, perr.Line)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, entries[0].Previous)
		})
	}
}

func TestParse_Boundary(t *testing.T) {
	for _, pos := range []int{1, 5, 11} {
		t.Run(fmt.Sprintf("at %d", pos), func(t *testing.T) {
			lines := blockLines("aaaa111", 1, "x")
			lines = append(lines[:pos:pos], append([]string{"boundary"}, lines[pos:]...)...)

			entries, err := Parse(join(lines, blockLines("bbbb222", 2, "y")))
			require.NoError(t, err)
			require.Len(t, entries, 2)
			assert.True(t, entries[0].Boundary)
			assert.False(t, entries[1].Boundary, "boundary does not leak into the next block")
		})
	}
}

func TestParse_InvalidTime(t *testing.T) {
	for _, keyword := range []string{KeyAuthorTime, KeyCommitterTime} {
		t.Run(keyword, func(t *testing.T) {
			lines := blockLines("aaaa111", 1, "x")
			for i, l := range lines {
				if strings.HasPrefix(l, keyword+" ") {
					lines[i] = keyword + " yesterday"
				}
			}

			_, err := Parse(join(lines))
			perr := requireKind(t, err, KindInvalidFieldValue)
			assert.Equal(t, keyword, perr.Field)
			assert.NotNil(t, perr.Err)
			assert.Contains(t, err.Error(), keyword)
		})
	}
}

func TestParse_KeywordWithoutValue(t *testing.T) {
	lines := blockLines("aaaa111", 1, "x")
	lines[1] = "author"

	_, err := Parse(join(lines))
	perr := requireKind(t, err, KindInvalidFieldValue)
	assert.Equal(t, KeyAuthor, perr.Field)
	assert.Equal(t, 2, perr.Line)
}

func TestParse_LastOccurrenceWins(t *testing.T) {
	lines := blockLines("aaaa111", 1, "x")
	lines = append(lines[:11:11], "author Bob", "summary Second summary", lines[11])

	entries, err := Parse(join(lines))
	require.NoError(t, err)
	assert.Equal(t, "Bob", entries[0].Author)
	assert.Equal(t, "Second summary", entries[0].Summary)
}

func TestParse_UnknownKeyword(t *testing.T) {
	lines := blockLines("aaaa111", 1, "x")
	lines = append(lines[:3:3], append([]string{"encoding ISO-8859-1", "mystery"}, lines[3:]...)...)
	raw := join(lines)

	entries, err := Parse(raw)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	_, err = Parse(raw, WithStrict(true))
	perr := requireKind(t, err, KindUnknownKeyword)
	assert.Equal(t, "encoding", perr.Field)
	assert.Equal(t, 4, perr.Line)
	assert.ErrorIs(t, err, ErrUnknownKeyword)
}

func TestParse_LineOutsideBlock(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		kind Kind
	}{
		{"content first", "\thello\n", KindUnknownBlockState},
		{"metadata first", "author Alice\n", KindUnknownBlockState},
		{"boundary first", "boundary\n", KindUnknownBlockState},
		{"content after block", join(blockLines("aaaa111", 1, "x")) + "\textra\n", KindUnknownBlockState},
		{"unknown keyword first", "encoding utf-8\n", KindUnknownBlockState},
		{"garbage first", "not blame output\n", KindMalformedHeader},
		{"hex key first", "abc def\n", KindMalformedHeader},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entries, err := Parse(tt.raw)
			requireKind(t, err, tt.kind)
			assert.Nil(t, entries)
		})
	}
}

func TestParse_Unterminated(t *testing.T) {
	t.Run("header only", func(t *testing.T) {
		_, err := Parse("aaaa111 1 1 1\n")
		perr := requireKind(t, err, KindUnterminatedBlock)
		assert.Equal(t, 1, perr.BlockStart)
		assert.ErrorIs(t, err, ErrUnterminatedBlock)
	})

	t.Run("metadata without content", func(t *testing.T) {
		lines := blockLines("aaaa111", 1, "x")
		_, err := Parse(join(lines[:len(lines)-1]))
		perr := requireKind(t, err, KindUnterminatedBlock)
		assert.Equal(t, 1, perr.BlockStart)
		assert.Equal(t, len(lines)-1, perr.Line)
	})

	t.Run("next header before content", func(t *testing.T) {
		first := blockLines("aaaa111", 1, "x")
		first = first[:len(first)-1]
		_, err := Parse(join(first, blockLines("bbbb222", 2, "y")))
		perr := requireKind(t, err, KindUnterminatedBlock)
		assert.Equal(t, 1, perr.BlockStart)
		assert.Equal(t, len(first)+1, perr.Line)
	})

	t.Run("short hash header before content", func(t *testing.T) {
		first := blockLines("aaaa111", 1, "lost")
		first = first[:len(first)-1]
		entries, err := Parse(join(first, blockLines("abc", 2, "x")))
		perr := requireKind(t, err, KindUnterminatedBlock)
		assert.Nil(t, entries)
		assert.Equal(t, 1, perr.BlockStart)
		assert.Equal(t, len(first)+1, perr.Line)
	})
}

func TestParse_ShortHashHeader(t *testing.T) {
	entries, err := Parse(join(blockLines("aaaa111", 1, "x"), blockLines("abc", 2, "y")))
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "abc", entries[1].Commit)
	assert.Equal(t, "y", entries[1].Content)
}

func TestParse_ErrorInLaterBlockDiscardsAll(t *testing.T) {
	second := without(blockLines("bbbb222", 2, "y"), KeySummary)
	entries, err := Parse(join(blockLines("aaaa111", 1, "x"), second))

	perr := requireKind(t, err, KindMissingField)
	assert.Nil(t, entries)
	assert.Equal(t, 13, perr.BlockStart)
	assert.Equal(t, KeySummary, perr.Field)
}

func TestParse_BlocksAreIndependent(t *testing.T) {
	first := blockLines("aaaa111", 1, "x")
	first = append(first[:11:11], "previous 1234567 old.txt", first[11])
	second := blockLines("aaaa111", 2, "y")

	entries, err := Parse(join(first, second))
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.NotNil(t, entries[0].Previous)
	assert.Nil(t, entries[1].Previous)
}

func TestParse_PorcelainIsRejected(t *testing.T) {
	raw, err := os.ReadFile(filepath.Join("testdata", "porcelain.txt"))
	require.NoError(t, err)

	_, err = ParseBytes(raw)
	perr := requireKind(t, err, KindMissingField)
	assert.Equal(t, KeyAuthor, perr.Field)
	assert.Equal(t, 13, perr.BlockStart)
}

func TestParseError_Error(t *testing.T) {
	err := &ParseError{
		Kind:       KindMissingField,
		Line:       12,
		BlockStart: 1,
		Field:      "summary",
	}
	assert.Equal(t, `blame: line 12: missing field "summary" (block starting at line 1)`, err.Error())

	err = &ParseError{
		Kind: KindMalformedHeader,
		Line: 1,
		Msg:  "expected 3 or 4 fields, got 2",
	}
	assert.Equal(t, "blame: line 1: malformed header: expected 3 or 4 fields, got 2", err.Error())
	assert.ErrorIs(t, err, ErrMalformedHeader)
	assert.NotErrorIs(t, err, ErrMissingField)
}

func TestKind_String(t *testing.T) {
	assert.Equal(t, "unterminated block", KindUnterminatedBlock.String())
	assert.Equal(t, "parse failed", Kind(0).String())
}
