// Package blame decodes the output of `git blame --line-porcelain` into
// structured entries, one per line of the blamed file.
package blame

import (
	"strings"
	"time"
)

// UncommittedHash is the commit id git reports for lines that exist only in
// the working tree.
const UncommittedHash = "0000000000000000000000000000000000000000"

// Entry is the blame record for a single line of the blamed file.
type Entry struct {
	// Commit is the full id of the commit that last touched the line.
	Commit string `json:"commit"`

	// OriginalLine is the 1-based line number in the commit that introduced the line.
	OriginalLine int `json:"original_line"`

	// FinalLine is the 1-based line number in the current version of the file.
	FinalLine int `json:"final_line"`

	Author     string `json:"author"`
	AuthorMail string `json:"author_mail"`
	AuthorTime int64  `json:"author_time"`
	AuthorTZ   string `json:"author_tz"`

	Committer     string `json:"committer"`
	CommitterMail string `json:"committer_mail"`
	CommitterTime int64  `json:"committer_time"`
	CommitterTZ   string `json:"committer_tz"`

	// Summary is the first line of the commit message.
	Summary string `json:"summary"`

	// Previous is set when the line existed in an earlier revision.
	Previous *Previous `json:"previous,omitempty"`

	// Filename is the path of the file as known at Commit. It differs from
	// the queried path when the file was renamed.
	Filename string `json:"filename"`

	// Boundary marks the commit where history traversal stopped.
	Boundary bool `json:"boundary,omitempty"`

	// Content is the source line without its line terminator.
	Content string `json:"content"`
}

// Previous identifies the revision of the line before Entry.Commit.
type Previous struct {
	Commit   string `json:"commit"`
	Filename string `json:"filename"`
}

// ShortCommit returns the abbreviated commit id.
func (e *Entry) ShortCommit() string {
	if len(e.Commit) <= 7 {
		return e.Commit
	}
	return e.Commit[:7]
}

// IsUncommitted reports whether the line has not been committed yet.
func (e *Entry) IsUncommitted() bool {
	return e.Commit != "" && strings.Trim(e.Commit, "0") == ""
}

// AuthoredAt returns the author time in the author's own offset.
// An unparseable offset falls back to UTC.
func (e *Entry) AuthoredAt() time.Time {
	return inZone(e.AuthorTime, e.AuthorTZ)
}

// CommittedAt returns the committer time in the committer's own offset.
func (e *Entry) CommittedAt() time.Time {
	return inZone(e.CommitterTime, e.CommitterTZ)
}

func inZone(secs int64, tz string) time.Time {
	loc, err := ParseTZ(tz)
	if err != nil {
		loc = time.UTC
	}
	return time.Unix(secs, 0).In(loc)
}
