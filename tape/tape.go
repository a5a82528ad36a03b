// Package tape holds the flattened tree produced by parsing a document.
//
// A tape is a flat sequence of records. Every tag occupies a contiguous
// index range: a Tag-start record (text = name, code = end index of the
// subtree) followed by a Tag-meta record (text = "", code = first-child
// index when positive, negated content index when negative, 0 when the tag
// is empty), then the tag's attribute key/value pairs, then its content or
// children. A child's end index is the next sibling's start index, so the
// tape needs no sibling pointers and no per-node allocation.
//
// All queries are addressed by tape index and return an error rather than
// panicking when an index is out of range or does not denote a tag. A tape
// is immutable once built and safe for concurrent readers.
package tape

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// Traversal errors. Query results wrap these so callers can test them with
// errors.Is.
var (
	ErrOutOfBounds = errors.New("index out of tape bounds")
	ErrNotTag      = errors.New("index is not a tag")
	ErrNoContent   = errors.New("tag has no content")
	ErrNoChildren  = errors.New("tag has no children")
)

// Record is the tape's atomic unit. Its role (Tag-start, Tag-meta,
// attribute key, attribute value, content) follows from its position
// relative to a tag header, never from an explicit discriminant.
type Record struct {
	Text string
	Code int
}

// Attribute is one key/value pair of a tag, in source order.
type Attribute struct {
	Key   string
	Value string
}

// Tape is the immutable record sequence produced by a Builder.
type Tape struct {
	recs []Record
}

// Len returns the number of records on the tape.
func (t *Tape) Len() int { return len(t.recs) }

// Record returns the raw record at index i.
func (t *Tape) Record(i int) (Record, error) {
	if i < 0 || i >= len(t.recs) {
		return Record{}, errors.Wrapf(ErrOutOfBounds, "record %d of %d", i, len(t.recs))
	}
	return t.recs[i], nil
}

// IsTag reports whether index i starts a tag header, i.e. whether the
// following record is a Tag-meta record.
func (t *Tape) IsTag(i int) (bool, error) {
	if i < 0 || i >= len(t.recs) {
		return false, errors.Wrapf(ErrOutOfBounds, "record %d of %d", i, len(t.recs))
	}
	return i+1 < len(t.recs) && t.recs[i+1].Text == "", nil
}

// meta returns the Tag-meta code for the tag at index i.
func (t *Tape) meta(i int) (int, error) {
	ok, err := t.IsTag(i)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, errors.Wrapf(ErrNotTag, "index %d", i)
	}
	return t.recs[i+1].Code, nil
}

// HasChildren reports whether the tag at index i has child tags.
func (t *Tape) HasChildren(i int) (bool, error) {
	m, err := t.meta(i)
	if err != nil {
		return false, err
	}
	return m > 0, nil
}

// HasContent reports whether the tag at index i has character content.
func (t *Tape) HasContent(i int) (bool, error) {
	m, err := t.meta(i)
	if err != nil {
		return false, err
	}
	return m < 0, nil
}

// IsEmpty reports whether the tag at index i has neither children nor
// content. Attributes do not affect emptiness.
func (t *Tape) IsEmpty(i int) (bool, error) {
	m, err := t.meta(i)
	if err != nil {
		return false, err
	}
	return m == 0, nil
}

// TagName returns the name of the tag at index i.
func (t *Tape) TagName(i int) (string, error) {
	if _, err := t.meta(i); err != nil {
		return "", err
	}
	return t.recs[i].Text, nil
}

// Attributes returns the tag's key/value pairs in source order. When the
// Tag-meta code is zero the header gives no upper bound, so the pairs are
// found by scanning forward while successive pairs still carry code zero,
// stopping at the tape end or at the first record of a following tag.
func (t *Tape) Attributes(i int) ([]Attribute, error) {
	m, err := t.meta(i)
	if err != nil {
		return nil, err
	}
	var attrs []Attribute
	if m != 0 {
		end := m
		if end < 0 {
			end = -end
		}
		for j := i + 2; j+1 < end; j += 2 {
			attrs = append(attrs, Attribute{Key: t.recs[j].Text, Value: t.recs[j+1].Text})
		}
		return attrs, nil
	}
	for j := i + 2; j+1 < len(t.recs); j += 2 {
		if t.recs[j].Code != 0 || t.recs[j+1].Code != 0 {
			break
		}
		attrs = append(attrs, Attribute{Key: t.recs[j].Text, Value: t.recs[j+1].Text})
	}
	return attrs, nil
}

// Content returns the character content of the tag at index i.
func (t *Tape) Content(i int) (string, error) {
	m, err := t.meta(i)
	if err != nil {
		return "", err
	}
	if m >= 0 {
		return "", errors.Wrapf(ErrNoContent, "tag %q at index %d", t.recs[i].Text, i)
	}
	return t.recs[-m].Text, nil
}

// Children returns the indices of the tag's direct children in document
// order. Each child's sealed end index doubles as the next sibling's start,
// so the walk is linear in the number of children.
func (t *Tape) Children(i int) ([]int, error) {
	m, err := t.meta(i)
	if err != nil {
		return nil, err
	}
	if m <= 0 {
		return nil, errors.Wrapf(ErrNoChildren, "tag %q at index %d", t.recs[i].Text, i)
	}
	end := t.recs[i].Code
	var kids []int
	for c := m; c < end && c < len(t.recs); c = t.recs[c].Code {
		kids = append(kids, c)
	}
	return kids, nil
}

// Roots returns the indices of the top-level sibling tags. There is no
// implicit wrapping root; each entry is independently queryable.
func (t *Tape) Roots() []int {
	var roots []int
	for i := 0; i < len(t.recs); i = t.recs[i].Code {
		roots = append(roots, i)
	}
	return roots
}

// String renders the raw records, one per line. Intended for debugging.
func (t *Tape) String() string {
	var b strings.Builder
	for i, r := range t.recs {
		fmt.Fprintf(&b, "%4d  %q %d\n", i, r.Text, r.Code)
	}
	return b.String()
}
