package rxml

import "github.com/hbakke/go-rxml/tape"

// Parse parses one dialect document and returns its tape. The parse is
// all-or-nothing: on failure a *ParseError is returned and no tape is
// produced. The returned tape references the input text and is safe for
// concurrent readers.
func Parse(data string) (*tape.Tape, error) {
	return newParser(data).parse()
}

// Unmarshal parses the document in data and stores the decoded result in
// the value pointed to by v, starting at the first root tag. Struct fields
// select values through the rxml struct tag; see the package documentation.
//
// Decoding is all-or-nothing: the first error aborts the call and no
// partial value is reported as success.
func Unmarshal(data []byte, v any, opts ...Option) error {
	t, err := Parse(string(data))
	if err != nil {
		return err
	}
	d, err := NewDecoder(t, opts...)
	if err != nil {
		return err
	}
	return d.decodeInto(v)
}

// Decode materializes v from an already parsed tape, starting at the first
// root tag. It is the entry point for reusing one tape across several
// decode calls or option sets.
func Decode(t *tape.Tape, v any, opts ...Option) error {
	d, err := NewDecoder(t, opts...)
	if err != nil {
		return err
	}
	return d.decodeInto(v)
}
