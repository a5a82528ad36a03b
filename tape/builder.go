package tape

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrNoOpenTag is returned when content is added or a tag is closed while no
// tag is open.
var ErrNoOpenTag = errors.New("no tag is open")

// MismatchError reports a closing tag whose name does not match the
// innermost open tag.
type MismatchError struct {
	Open  string
	Close string
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("closing tag %q does not match open tag %q", e.Close, e.Open)
}

type openTag struct {
	name string
	idx  int
}

// Builder appends records to a growing tape while tracking the currently
// open tags. The parent/child and subtree-range links are patched in place:
// opening a tag sets the parent's first-child pointer if it is still unset,
// and closing a tag seals its Tag-start code with the subtree end index.
type Builder struct {
	recs []Record
	open []openTag
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder { return &Builder{} }

// OpenTag appends a Tag-start and Tag-meta record for name and pushes the
// tag onto the open stack.
func (b *Builder) OpenTag(name string) {
	if n := len(b.open); n > 0 {
		parent := b.open[n-1].idx
		if b.recs[parent+1].Code == 0 {
			b.recs[parent+1].Code = len(b.recs)
		}
	}
	b.open = append(b.open, openTag{name: name, idx: len(b.recs)})
	b.recs = append(b.recs, Record{Text: name}, Record{})
}

// AddAttributeKey appends an attribute-key record for the open tag.
func (b *Builder) AddAttributeKey(key string) {
	b.recs = append(b.recs, Record{Text: key})
}

// AddAttributeValue appends an attribute-value record. Keys and values must
// be added in adjacent pairs.
func (b *Builder) AddAttributeValue(value string) {
	b.recs = append(b.recs, Record{Text: value})
}

// AddContent appends a content record and points the open tag's meta record
// at it. A later call re-points the meta record at the newest run.
func (b *Builder) AddContent(value string) error {
	if len(b.open) == 0 {
		return errors.Wrap(ErrNoOpenTag, "content outside of any tag")
	}
	idx := b.open[len(b.open)-1].idx
	b.recs[idx+1].Code = -len(b.recs)
	b.recs = append(b.recs, Record{Text: value})
	return nil
}

// CloseTag pops the innermost open tag and seals its subtree range. An
// empty name closes unconditionally (the self-closing form); otherwise the
// name must match the open tag.
func (b *Builder) CloseTag(name string) error {
	if len(b.open) == 0 {
		return errors.Wrapf(ErrNoOpenTag, "closing tag %q", name)
	}
	top := b.open[len(b.open)-1]
	if name != "" && name != top.name {
		return &MismatchError{Open: top.name, Close: name}
	}
	b.open = b.open[:len(b.open)-1]
	b.recs[top.idx].Code = len(b.recs)
	return nil
}

// Depth returns the number of currently open tags.
func (b *Builder) Depth() int { return len(b.open) }

// OpenName returns the name of the innermost open tag, or "".
func (b *Builder) OpenName() string {
	if len(b.open) == 0 {
		return ""
	}
	return b.open[len(b.open)-1].name
}

// Finish returns the completed tape. It fails if any tag is still open; the
// partially built state is discarded, never returned.
func (b *Builder) Finish() (*Tape, error) {
	if n := len(b.open); n > 0 {
		return nil, errors.Errorf("unclosed tag %q", b.open[n-1].name)
	}
	return &Tape{recs: b.recs}, nil
}
