package rxml

import "fmt"

// NilPolicy decides which raw attribute text is treated as an absent value.
type NilPolicy struct {
	recognize bool
	literal   string
}

var (
	// NilNever never treats attribute text as absent.
	NilNever = NilPolicy{}
	// NilEmpty treats the empty string as absent. This is the default.
	NilEmpty = NilPolicy{recognize: true}
	// NilNull treats the literal text "null" as absent.
	NilNull = NilPolicy{recognize: true, literal: "null"}
)

// NilLiteral returns a policy treating the given literal as absent.
func NilLiteral(literal string) NilPolicy {
	return NilPolicy{recognize: true, literal: literal}
}

func (p NilPolicy) matches(text string) bool {
	return p.recognize && text == p.literal
}

// BoolPolicy maps attribute text to boolean values. Text matching neither
// literal is a type mismatch.
type BoolPolicy struct {
	trueLit  string
	falseLit string
}

var (
	// BoolTrueFalse maps "true" and "false". This is the default.
	BoolTrueFalse = BoolPolicy{trueLit: "true", falseLit: "false"}
	// BoolZeroOne maps "1" and "0".
	BoolZeroOne = BoolPolicy{trueLit: "1", falseLit: "0"}
)

// BoolLiterals returns a policy mapping the given literal pair.
func BoolLiterals(trueLit, falseLit string) BoolPolicy {
	return BoolPolicy{trueLit: trueLit, falseLit: falseLit}
}

type options struct {
	maxDepth int
	nils     NilPolicy
	bools    BoolPolicy
}

const defaultMaxDepth = 1000

func defaultOptions() options {
	return options{
		maxDepth: defaultMaxDepth,
		nils:     NilEmpty,
		bools:    BoolTrueFalse,
	}
}

// Option configures a single decode call. There is no mutable process-wide
// configuration.
type Option func(*options) error

// MaxDepth returns an Option that sets the maximum recursion depth for the
// decoder. This helps prevent stack overflows when decoding highly nested
// documents.
//
// The depth n must be a positive integer.
func MaxDepth(n int) Option {
	return func(o *options) error {
		if n <= 0 {
			return fmt.Errorf("rxml: max depth must be a positive integer")
		}
		o.maxDepth = n
		return nil
	}
}

// NilStrategy returns an Option that sets the nil-literal policy used when
// deciding whether attribute text denotes an absent value.
func NilStrategy(p NilPolicy) Option {
	return func(o *options) error {
		o.nils = p
		return nil
	}
}

// BoolStrategy returns an Option that sets the boolean-literal policy.
func BoolStrategy(p BoolPolicy) Option {
	return func(o *options) error {
		o.bools = p
		return nil
	}
}
