package rxml

import (
	"encoding"
	"reflect"
	"strings"
	"sync"

	"github.com/pkg/errors"
)

// decodeInto materializes v from the decoder's binding.
func (d *Decoder) decodeInto(v any) error {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return errors.Errorf("rxml: Unmarshal(non-pointer %T or nil)", v)
	}
	ds := &decodeState{depth: d.opts.maxDepth}
	return ds.decode(d, rv.Elem())
}

type decodeState struct {
	depth int
}

func (ds *decodeState) decode(d *Decoder, rv reflect.Value) error { //nolint:gocyclo
	ds.depth--
	if ds.depth <= 0 {
		return errors.Errorf("rxml: reached max recursion depth")
	}
	defer func() { ds.depth++ }()

	if d.isText && d.opts.nils.matches(d.text) {
		switch rv.Kind() {
		case reflect.Interface, reflect.Pointer, reflect.Map, reflect.Slice:
			rv.Set(reflect.Zero(rv.Type()))
			return nil
		}
	}

	handled, err := ds.tryCustomUnmarshal(d, rv)
	if err != nil {
		return err
	}
	if handled {
		return nil
	}

	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			rv.Set(reflect.New(rv.Type().Elem()))
		}
		rv = rv.Elem()
	}

	if !rv.CanSet() {
		return errors.Errorf("rxml: cannot set value of type %s", rv.Type())
	}

	switch rv.Kind() {
	case reflect.String, reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return ds.decodeScalar(d, rv)
	case reflect.Struct:
		return ds.decodeStruct(d, rv)
	case reflect.Slice:
		return ds.decodeSlice(d, rv)
	case reflect.Array:
		return ds.decodeArray(d, rv)
	case reflect.Map:
		return ds.decodeMap(d, rv)
	case reflect.Interface:
		return errors.Errorf("rxml: cannot unmarshal into interface type %s: a tag carries no type information", rv.Type())
	default:
		return errors.Errorf("rxml: cannot unmarshal into Go value of type %s", rv.Type())
	}
}

// tryCustomUnmarshal probes rv for Unmarshaler and, for string-bound
// decoders, encoding.TextUnmarshaler. It reports whether a custom
// unmarshaler consumed the value.
func (ds *decodeState) tryCustomUnmarshal(d *Decoder, rv reflect.Value) (bool, error) {
	if !rv.CanAddr() {
		return false, nil
	}
	pv := rv.Addr()
	if !pv.CanInterface() {
		return false, nil
	}

	if u, ok := pv.Interface().(Unmarshaler); ok {
		if err := u.UnmarshalRXML(d); err != nil {
			return true, errors.WithMessagef(err, "rxml: UnmarshalRXML for type %s", pv.Type())
		}
		return true, nil
	}

	if u, ok := pv.Interface().(encoding.TextUnmarshaler); ok {
		if !d.isText {
			// TextUnmarshaler applies to bare string values only.
			return false, nil
		}
		if err := u.UnmarshalText([]byte(d.text)); err != nil {
			return true, errors.WithMessagef(err, "rxml: UnmarshalText for type %s", pv.Type())
		}
		return true, nil
	}

	return false, nil
}

func (ds *decodeState) decodeScalar(d *Decoder, rv reflect.Value) error {
	v, err := d.valueOrContent()
	if err != nil {
		return err
	}
	switch rv.Kind() {
	case reflect.String:
		rv.SetString(v.String())
		return nil
	case reflect.Bool:
		b, err := v.Bool()
		if err != nil {
			return err
		}
		rv.SetBool(b)
		return nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := v.Int()
		if err != nil {
			return err
		}
		if rv.OverflowInt(n) {
			return errors.Errorf("rxml: integer value %d overflows Go value of type %s", n, rv.Type())
		}
		rv.SetInt(n)
		return nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := v.Uint()
		if err != nil {
			return err
		}
		if rv.OverflowUint(n) {
			return errors.Errorf("rxml: integer value %d overflows Go value of type %s", n, rv.Type())
		}
		rv.SetUint(n)
		return nil
	case reflect.Float32, reflect.Float64:
		f, err := v.Float()
		if err != nil {
			return err
		}
		if rv.OverflowFloat(f) {
			return errors.Errorf("rxml: float value %f overflows Go value of type %s", f, rv.Type())
		}
		rv.SetFloat(f)
		return nil
	default:
		return errors.Errorf("rxml: cannot unmarshal value into Go value of type %s", rv.Type())
	}
}

// canBeAbsent reports whether a field of this kind absorbs a missing or nil
// value as its zero value instead of raising an error.
func canBeAbsent(k reflect.Kind) bool {
	switch k {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice:
		return true
	}
	return false
}

func (ds *decodeState) decodeStruct(d *Decoder, rv reflect.Value) error {
	k, err := d.Keyed()
	if err != nil {
		return errors.WithMessagef(err, "rxml: cannot unmarshal into Go struct %s", rv.Type())
	}
	for _, f := range cachedFields(rv.Type()) {
		fv := rv.FieldByIndex(f.idx)
		if !fv.IsValid() || !fv.CanSet() {
			continue
		}
		if f.mode == modeChildren {
			if err := ds.decodeSlice(d, fv); err != nil {
				return errors.WithMessagef(err, "rxml: field %s of %s", f.name, rv.Type())
			}
			continue
		}
		if f.mode == modeAttr && !k.Contains(f.key) {
			if canBeAbsent(fv.Kind()) {
				continue
			}
			return errors.Wrapf(ErrKeyNotFound, "rxml: attribute %q for field %s of %s", f.key, f.name, rv.Type())
		}
		if f.mode != modeTagName {
			isNil, err := k.DecodeNil(f.key)
			if err != nil {
				return errors.WithMessagef(err, "rxml: field %s of %s", f.name, rv.Type())
			}
			if isNil && canBeAbsent(fv.Kind()) {
				fv.Set(reflect.Zero(fv.Type()))
				continue
			}
		}
		sub, err := k.Nested(f.key)
		if err != nil {
			return errors.WithMessagef(err, "rxml: field %s of %s", f.name, rv.Type())
		}
		if err := ds.decode(sub, fv); err != nil {
			return err
		}
	}
	return nil
}

// decodeSlice fills rv from the tag's child sequence. A tag without
// children, whether empty or carrying content, yields an empty slice; the
// stricter ErrNoValue shape lives in KeyedContainer.NestedUnkeyed for
// callers that want it.
func (ds *decodeState) decodeSlice(d *Decoder, rv reflect.Value) error {
	if rv.Kind() != reflect.Slice {
		return errors.Errorf("rxml: cannot unmarshal children into Go value of type %s", rv.Type())
	}
	u, err := d.Unkeyed()
	if err != nil {
		return err
	}
	n := u.Len()
	out := reflect.MakeSlice(rv.Type(), n, n)
	for i := 0; i < n; i++ {
		sub, err := u.Next()
		if err != nil {
			return err
		}
		if err := ds.decode(sub, out.Index(i)); err != nil {
			return err
		}
	}
	rv.Set(out)
	return nil
}

func (ds *decodeState) decodeArray(d *Decoder, rv reflect.Value) error {
	u, err := d.Unkeyed()
	if err != nil {
		return err
	}
	if u.Len() != rv.Len() {
		return errors.Errorf("rxml: cannot unmarshal %d children into Go array of length %d", u.Len(), rv.Len())
	}
	for i := 0; i < rv.Len(); i++ {
		sub, err := u.Next()
		if err != nil {
			return err
		}
		if err := ds.decode(sub, rv.Index(i)); err != nil {
			return err
		}
	}
	return nil
}

// decodeMap fills a string-keyed map from the tag's attributes.
func (ds *decodeState) decodeMap(d *Decoder, rv reflect.Value) error {
	k, err := d.Keyed()
	if err != nil {
		return errors.WithMessagef(err, "rxml: cannot unmarshal into Go map %s", rv.Type())
	}
	mt := rv.Type()
	if mt.Key().Kind() != reflect.String {
		return errors.Errorf("rxml: cannot unmarshal attributes into map with non-string key type %s", mt.Key())
	}
	if rv.IsNil() {
		rv.Set(reflect.MakeMap(mt))
	} else {
		for _, key := range rv.MapKeys() {
			rv.SetMapIndex(key, reflect.Value{}) // The zero Value deletes the key
		}
	}
	for _, a := range k.attrs {
		nv := reflect.New(mt.Elem()).Elem()
		if err := ds.decode(d.textDecoder(a.Value), nv); err != nil {
			return err
		}
		rv.SetMapIndex(reflect.ValueOf(a.Key).Convert(mt.Key()), nv)
	}
	return nil
}

type fieldMode int

const (
	modeAttr fieldMode = iota
	modeTagName
	modeContent
	modeChildren
)

// A field describes one decodable struct field: its index path, the keyed
// access key it pulls, and how that key is interpreted.
type field struct {
	name string
	key  string
	idx  []int
	mode fieldMode
}

// fieldCache caches the decodable fields per struct type.
var fieldCache sync.Map // map[reflect.Type][]field

// cachedFields returns the decodable fields of t. Field keys come from the
// rxml struct tag: a plain name selects an attribute, "$" the tag name, the
// ",content" option the content scalar and the ",children" option the child
// sequence. Untagged exported fields select the attribute named after the
// field. The result is cached to avoid repeated reflection work.
func cachedFields(t reflect.Type) []field {
	if f, ok := fieldCache.Load(t); ok {
		return f.([]field)
	}

	var fields []field
	var walk func(t reflect.Type, idx []int)
	walk = func(t reflect.Type, idx []int) {
		for i := 0; i < t.NumField(); i++ {
			sf := t.Field(i)
			path := make([]int, 0, len(idx)+1)
			path = append(append(path, idx...), i)
			if sf.Anonymous && sf.Type.Kind() == reflect.Struct {
				walk(sf.Type, path)
				continue
			}
			if !sf.IsExported() {
				continue
			}
			tag := sf.Tag.Get("rxml")
			if tag == "-" {
				continue
			}
			name, opt, _ := strings.Cut(tag, ",")

			f := field{name: sf.Name, key: sf.Name, idx: path}
			switch {
			case opt == "content":
				f.mode = modeContent
				f.key = ContentKey
			case opt == "children":
				f.mode = modeChildren
				f.key = ContentKey
			case name == TagKey:
				f.mode = modeTagName
				f.key = TagKey
			case name != "":
				f.key = name
			}
			fields = append(fields, f)
		}
	}
	walk(t, nil)

	fieldCache.Store(t, fields)
	return fields
}
