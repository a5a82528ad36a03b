package rxml

import (
	"fmt"

	"github.com/pkg/errors"
)

// ParseError describes a syntax error at a position in the input. When the
// error originated in the tree builder (for example a closing-tag mismatch),
// the underlying error is available through Unwrap.
type ParseError struct {
	Line    int
	Column  int
	Message string
	Err     error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("rxml: parse error at line %d, column %d: %s", e.Line, e.Column, e.Message)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Decode errors. Failures wrap these so callers can test them with
// errors.Is regardless of the added context.
var (
	// ErrKeyNotFound reports a keyed lookup for an attribute that the tag
	// does not carry.
	ErrKeyNotFound = errors.New("key not found")
	// ErrTypeMismatch reports text that does not parse as the requested
	// scalar type.
	ErrTypeMismatch = errors.New("type mismatch")
	// ErrUnsupportedAccess reports a container request the current decoding
	// context cannot serve, such as keyed access on a bare string.
	ErrUnsupportedAccess = errors.New("unsupported access mode")
	// ErrNoValue reports a tag with neither content nor children where a
	// value was required.
	ErrNoValue = errors.New("no content or children available")
)
