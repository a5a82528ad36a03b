/*
Package rxml parses a restricted dialect of XML into a compact, randomly
addressable tree and decodes Go values from it without a prior schema.

The dialect allows one optional leading <? ... ?> declaration, comments
between tags, one or more root tags, single- or double-quoted attribute
values with backslash escaping, and character content with the five
predefined XML entities. DOCTYPE, namespaces, CDATA and processing
instructions are not part of the dialect.

Parsing builds a tape (see the tape subpackage): a flat record sequence in
which a tag's subtree occupies a contiguous index range, so the tree needs
no per-node allocation and no pointers. The tape is immutable and may be
shared across concurrent decodes.

Decoding mirrors the standard library's encoding packages:

	var data = []byte(`<server host="example.org" port="8080"/>`)

	type Server struct {
		Host string `rxml:"host"`
		Port int    `rxml:"port"`
	}

	var s Server
	if err := rxml.Unmarshal(data, &s); err != nil {
		// handle error
	}

Struct tags select where a field's value comes from: a plain name reads the
attribute of that name, "$" reads the tag name, the ",content" option reads
the tag's character content and the ",children" option decodes the child
tags into a slice. Attributes that may be absent are expressed as pointer
fields; which raw text counts as absent, and which literals map to
booleans, is configured per call with NilStrategy and BoolStrategy.

Types needing custom logic implement Unmarshaler and pull values through
the three access containers of their Decoder: Keyed (attributes, tag name,
content), Unkeyed (child sequence) and Value (scalar conversions).
*/
package rxml
