package rxml

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/hbakke/go-rxml/tape"
)

// Reserved keys for keyed access.
const (
	// TagKey resolves to the tag's name.
	TagKey = "$"
	// ContentKey resolves to the tag's content or, when the tag has
	// children, to its child sequence.
	ContentKey = ""
)

// Unmarshaler is the interface implemented by types that decode themselves
// from a Decoder. The decoder passed in is scoped to the value being
// decoded: a full tag, an attribute value, or a tag name.
type Unmarshaler interface {
	UnmarshalRXML(d *Decoder) error
}

// Decoder drives the materialization of a target value from a parsed tape.
// A Decoder is bound either to a tag (a tape index) or to a bare string
// such as an attribute value or a tag name. Target types pull values from
// it through the three access containers: Keyed, Unkeyed and Value.
type Decoder struct {
	tape *tape.Tape
	opts options

	idx    int
	text   string
	isText bool
}

// NewDecoder returns a Decoder bound to the first root tag of t.
func NewDecoder(t *tape.Tape, opts ...Option) (*Decoder, error) {
	o := defaultOptions()
	for _, opt := range opts {
		if err := opt(&o); err != nil {
			return nil, err
		}
	}
	return &Decoder{tape: t, opts: o}, nil
}

func (d *Decoder) tagDecoder(idx int) *Decoder {
	return &Decoder{tape: d.tape, opts: d.opts, idx: idx}
}

func (d *Decoder) textDecoder(text string) *Decoder {
	return &Decoder{tape: d.tape, opts: d.opts, text: text, isText: true}
}

// KeyedContainer resolves named values against a single tag: its attributes
// by key, its name via TagKey, and its content or children via ContentKey.
type KeyedContainer struct {
	d     *Decoder
	attrs []tape.Attribute
}

// Keyed returns the keyed access container. It fails when the decoder is
// bound to a bare string rather than a tag.
func (d *Decoder) Keyed() (*KeyedContainer, error) {
	if d.isText {
		return nil, errors.Wrap(ErrUnsupportedAccess, "keyed access on a single value")
	}
	attrs, err := d.tape.Attributes(d.idx)
	if err != nil {
		return nil, err
	}
	return &KeyedContainer{d: d, attrs: attrs}, nil
}

// lookup resolves key against the tag's attributes. An exact match wins;
// failing that, the first attribute matching under case folding is used, so
// an untagged Go field like Host still finds a lowercase host attribute.
func (k *KeyedContainer) lookup(key string) (string, bool) {
	for _, a := range k.attrs {
		if a.Key == key {
			return a.Value, true
		}
	}
	for _, a := range k.attrs {
		if strings.EqualFold(a.Key, key) {
			return a.Value, true
		}
	}
	return "", false
}

// Keys returns the tag's attribute keys in source order.
func (k *KeyedContainer) Keys() []string {
	keys := make([]string, len(k.attrs))
	for i, a := range k.attrs {
		keys[i] = a.Key
	}
	return keys
}

// Contains reports whether key resolves to a value on this tag. TagKey is
// always present; ContentKey is present when the tag is not empty. A
// traversal error reads as absent; use DecodeNil to observe it.
func (k *KeyedContainer) Contains(key string) bool {
	switch key {
	case TagKey:
		return true
	case ContentKey:
		empty, err := k.d.tape.IsEmpty(k.d.idx)
		return err == nil && !empty
	default:
		_, ok := k.lookup(key)
		return ok
	}
}

// DecodeNil reports whether the value for key is absent: for attributes the
// raw text matches the configured nil literal, and for ContentKey the tag
// is empty. Looking up an attribute the tag does not carry is an error, not
// a nil.
func (k *KeyedContainer) DecodeNil(key string) (bool, error) {
	switch key {
	case TagKey:
		return false, nil
	case ContentKey:
		return k.d.tape.IsEmpty(k.d.idx)
	default:
		text, ok := k.lookup(key)
		if !ok {
			return false, errors.Wrapf(ErrKeyNotFound, "attribute %q", key)
		}
		return k.d.opts.nils.matches(text), nil
	}
}

// Nested returns a sub-decoder scoped to the value for key: the tag name
// for TagKey, an attribute value for any other key, and for ContentKey the
// content text, or the tag itself when it has children so that the nested
// target can request the child sequence.
func (k *KeyedContainer) Nested(key string) (*Decoder, error) {
	switch key {
	case TagKey:
		name, err := k.d.tape.TagName(k.d.idx)
		if err != nil {
			return nil, err
		}
		return k.d.textDecoder(name), nil
	case ContentKey:
		has, err := k.d.tape.HasContent(k.d.idx)
		if err != nil {
			return nil, err
		}
		if has {
			content, err := k.d.tape.Content(k.d.idx)
			if err != nil {
				return nil, err
			}
			return k.d.textDecoder(content), nil
		}
		kids, err := k.d.tape.HasChildren(k.d.idx)
		if err != nil {
			return nil, err
		}
		if kids {
			return k.d.tagDecoder(k.d.idx), nil
		}
		return nil, errors.Wrapf(ErrNoValue, "tag at index %d", k.d.idx)
	default:
		text, ok := k.lookup(key)
		if !ok {
			return nil, errors.Wrapf(ErrKeyNotFound, "attribute %q", key)
		}
		return k.d.textDecoder(text), nil
	}
}

// NestedUnkeyed returns the child sequence for ContentKey. It fails for any
// other key and when the tag has no children.
func (k *KeyedContainer) NestedUnkeyed(key string) (*UnkeyedContainer, error) {
	if key != ContentKey {
		return nil, errors.Wrapf(ErrUnsupportedAccess, "unkeyed access for key %q", key)
	}
	has, err := k.d.tape.HasChildren(k.d.idx)
	if err != nil {
		return nil, err
	}
	if !has {
		return nil, errors.Wrapf(ErrNoValue, "tag at index %d has no children", k.d.idx)
	}
	return k.d.Unkeyed()
}

// String returns the raw text for key.
func (k *KeyedContainer) String(key string) (string, error) {
	v, err := k.value(key)
	if err != nil {
		return "", err
	}
	return v.String(), nil
}

// Bool decodes the text for key using the configured boolean literals.
func (k *KeyedContainer) Bool(key string) (bool, error) {
	v, err := k.value(key)
	if err != nil {
		return false, err
	}
	return v.Bool()
}

// Int decodes the text for key as a base-10 integer.
func (k *KeyedContainer) Int(key string) (int64, error) {
	v, err := k.value(key)
	if err != nil {
		return 0, err
	}
	return v.Int()
}

// Uint decodes the text for key as a base-10 unsigned integer.
func (k *KeyedContainer) Uint(key string) (uint64, error) {
	v, err := k.value(key)
	if err != nil {
		return 0, err
	}
	return v.Uint()
}

// Float decodes the text for key as a floating point number.
func (k *KeyedContainer) Float(key string) (float64, error) {
	v, err := k.value(key)
	if err != nil {
		return 0, err
	}
	return v.Float()
}

func (k *KeyedContainer) value(key string) (*ValueContainer, error) {
	sub, err := k.Nested(key)
	if err != nil {
		return nil, err
	}
	return sub.Value()
}

// UnkeyedContainer iterates a tag's children in document order. The
// sequence is consumed strictly forward and cannot be restarted.
type UnkeyedContainer struct {
	d        *Decoder
	children []int
	next     int
}

// Unkeyed returns the unkeyed access container over the tag's children. A
// childless tag yields an empty sequence.
func (d *Decoder) Unkeyed() (*UnkeyedContainer, error) {
	if d.isText {
		return nil, errors.Wrap(ErrUnsupportedAccess, "unkeyed access on a single value")
	}
	has, err := d.tape.HasChildren(d.idx)
	if err != nil {
		return nil, err
	}
	if !has {
		return &UnkeyedContainer{d: d}, nil
	}
	kids, err := d.tape.Children(d.idx)
	if err != nil {
		return nil, err
	}
	return &UnkeyedContainer{d: d, children: kids}, nil
}

// Len returns the number of elements in the sequence.
func (u *UnkeyedContainer) Len() int { return len(u.children) }

// More reports whether elements remain.
func (u *UnkeyedContainer) More() bool { return u.next < len(u.children) }

// Next returns a decoder for the next child tag.
func (u *UnkeyedContainer) Next() (*Decoder, error) {
	if u.next >= len(u.children) {
		return nil, errors.Wrap(ErrNoValue, "sequence is exhausted")
	}
	d := u.d.tagDecoder(u.children[u.next])
	u.next++
	return d, nil
}

// ValueContainer exposes scalar conversions over a single raw string, such
// as an attribute value, a tag name or tag content. The text was already
// unescaped at parse time.
type ValueContainer struct {
	text string
	opts options
}

// Value returns the single-value access container. It fails when the
// decoder is bound to a tag rather than a bare string.
func (d *Decoder) Value() (*ValueContainer, error) {
	if !d.isText {
		return nil, errors.Wrap(ErrUnsupportedAccess, "single-value access on a tag")
	}
	return &ValueContainer{text: d.text, opts: d.opts}, nil
}

// String returns the raw text verbatim.
func (v *ValueContainer) String() string { return v.text }

// IsNil reports whether the text matches the configured nil literal.
func (v *ValueContainer) IsNil() bool { return v.opts.nils.matches(v.text) }

// Bool decodes the text using the configured boolean literal pair.
func (v *ValueContainer) Bool() (bool, error) {
	switch v.text {
	case v.opts.bools.trueLit:
		return true, nil
	case v.opts.bools.falseLit:
		return false, nil
	}
	return false, errors.Wrapf(ErrTypeMismatch, "cannot decode %q as bool", v.text)
}

// Int decodes the text as a base-10 signed integer.
func (v *ValueContainer) Int() (int64, error) {
	n, err := strconv.ParseInt(v.text, 10, 64)
	if err != nil {
		return 0, errors.Wrapf(ErrTypeMismatch, "cannot decode %q as integer", v.text)
	}
	return n, nil
}

// Uint decodes the text as a base-10 unsigned integer.
func (v *ValueContainer) Uint() (uint64, error) {
	n, err := strconv.ParseUint(v.text, 10, 64)
	if err != nil {
		return 0, errors.Wrapf(ErrTypeMismatch, "cannot decode %q as unsigned integer", v.text)
	}
	return n, nil
}

// Float decodes the text as a floating point number.
func (v *ValueContainer) Float() (float64, error) {
	f, err := strconv.ParseFloat(v.text, 64)
	if err != nil {
		return 0, errors.Wrapf(ErrTypeMismatch, "cannot decode %q as float", v.text)
	}
	return f, nil
}

// valueOrContent resolves the decoder to a scalar container: directly for a
// string-bound decoder, through the tag's content otherwise.
func (d *Decoder) valueOrContent() (*ValueContainer, error) {
	if d.isText {
		return d.Value()
	}
	k, err := d.Keyed()
	if err != nil {
		return nil, err
	}
	sub, err := k.Nested(ContentKey)
	if err != nil {
		return nil, err
	}
	return sub.Value()
}
