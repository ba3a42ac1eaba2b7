package blame

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies a parse failure.
type Kind int

const (
	// KindMalformedHeader is a header line with the wrong number of fields
	// or a field that does not parse.
	KindMalformedHeader Kind = iota + 1

	// KindUnknownBlockState is a content or metadata line seen before any
	// header opened a block.
	KindUnknownBlockState

	// KindMissingField is a block that reached its content line without a
	// required metadata field.
	KindMissingField

	// KindInvalidFieldValue is a known keyword whose value has the wrong shape.
	KindInvalidFieldValue

	// KindUnterminatedBlock is a block that never reached its content line.
	KindUnterminatedBlock

	// KindUnknownKeyword is an unrecognized metadata keyword in strict mode.
	KindUnknownKeyword
)

// Sentinels matched by errors.Is against a *ParseError of the same kind.
var (
	ErrMalformedHeader    = errors.New("malformed header")
	ErrUnknownBlockState  = errors.New("line outside of a block")
	ErrMissingField       = errors.New("missing field")
	ErrInvalidFieldValue  = errors.New("invalid field value")
	ErrUnterminatedBlock  = errors.New("unterminated block")
	ErrUnknownKeyword     = errors.New("unknown keyword")
	errUnknownParseFailed = errors.New("parse failed")
)

func (k Kind) sentinel() error {
	switch k {
	case KindMalformedHeader:
		return ErrMalformedHeader
	case KindUnknownBlockState:
		return ErrUnknownBlockState
	case KindMissingField:
		return ErrMissingField
	case KindInvalidFieldValue:
		return ErrInvalidFieldValue
	case KindUnterminatedBlock:
		return ErrUnterminatedBlock
	case KindUnknownKeyword:
		return ErrUnknownKeyword
	default:
		return errUnknownParseFailed
	}
}

// String returns the human readable name of the kind.
func (k Kind) String() string {
	return k.sentinel().Error()
}

// ParseError describes the first malformed construct found in the input.
type ParseError struct {
	Kind Kind

	// Line is the 1-based physical line of the raw text where parsing stopped.
	Line int

	// BlockStart is the header line of the block being built, or 0 when no
	// block was open.
	BlockStart int

	// Field names the metadata keyword involved, if any.
	Field string

	// Text is the offending physical line.
	Text string

	// Msg adds detail to the kind.
	Msg string

	// Err is the underlying cause, such as a strconv error.
	Err error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "blame: line %d: %s", e.Line, e.Kind)
	if e.Field != "" {
		fmt.Fprintf(&sb, " %q", e.Field)
	}
	if e.Msg != "" {
		sb.WriteString(": ")
		sb.WriteString(e.Msg)
	}
	if e.BlockStart > 0 && e.BlockStart != e.Line {
		fmt.Fprintf(&sb, " (block starting at line %d)", e.BlockStart)
	}
	if e.Err != nil {
		fmt.Fprintf(&sb, ": %v", e.Err)
	}
	return sb.String()
}

// Unwrap exposes the kind sentinel and the underlying cause.
func (e *ParseError) Unwrap() []error {
	if e.Err != nil {
		return []error{e.Kind.sentinel(), e.Err}
	}
	return []error{e.Kind.sentinel()}
}
