package rxml_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hbakke/go-rxml"
)

func TestUnmarshal_Attributes(t *testing.T) {
	type root struct {
		A int `rxml:"a"`
		B int `rxml:"b"`
		C int `rxml:"c"`
	}

	var r root
	err := rxml.Unmarshal([]byte(`<root a="1" b="2" c="3"></root>`), &r)
	require.NoError(t, err)
	require.Equal(t, root{A: 1, B: 2, C: 3}, r)
}

func TestUnmarshal_TagName(t *testing.T) {
	type root struct {
		Name string `rxml:"$"`
	}

	var r root
	err := rxml.Unmarshal([]byte(`<root></root>`), &r)
	require.NoError(t, err)
	require.Equal(t, "root", r.Name)
}

func TestUnmarshal_Content(t *testing.T) {
	type root struct {
		Text string `rxml:",content"`
	}

	var r root
	err := rxml.Unmarshal([]byte(`<root>Hello World</root>`), &r)
	require.NoError(t, err)
	require.Equal(t, "Hello World", r.Text)
}

func TestUnmarshal_Sequence(t *testing.T) {
	type item struct {
		Tag     string `rxml:"$"`
		Content *int   `rxml:",content"`
	}
	type root struct {
		Items []item `rxml:",children"`
	}

	var r root
	err := rxml.Unmarshal([]byte(`<root><child1>123</child1><child2/><child3>789</child3></root>`), &r)
	require.NoError(t, err)
	require.Len(t, r.Items, 3)

	require.Equal(t, "child1", r.Items[0].Tag)
	require.NotNil(t, r.Items[0].Content)
	require.Equal(t, 123, *r.Items[0].Content)

	require.Equal(t, "child2", r.Items[1].Tag)
	require.Nil(t, r.Items[1].Content)

	require.Equal(t, "child3", r.Items[2].Tag)
	require.NotNil(t, r.Items[2].Content)
	require.Equal(t, 789, *r.Items[2].Content)
}

func TestUnmarshal_EscapedAttributeRoundTrip(t *testing.T) {
	type root struct {
		Attribute string `rxml:"attribute"`
	}

	var r root
	err := rxml.Unmarshal([]byte(`<root attribute="\""/>`), &r)
	require.NoError(t, err)
	require.Equal(t, `"`, r.Attribute)
}

func TestUnmarshal_Scalars(t *testing.T) {
	var i int
	err := rxml.Unmarshal([]byte(`<n>42</n>`), &i)
	require.NoError(t, err)
	require.Equal(t, 42, i)

	var s string
	err = rxml.Unmarshal([]byte(`<n>hello</n>`), &s)
	require.NoError(t, err)
	require.Equal(t, "hello", s)

	var f float64
	err = rxml.Unmarshal([]byte(`<n>3.14</n>`), &f)
	require.NoError(t, err)
	require.Equal(t, 3.14, f)

	var u uint16
	err = rxml.Unmarshal([]byte(`<n>65535</n>`), &u)
	require.NoError(t, err)
	require.Equal(t, uint16(65535), u)
}

func TestUnmarshal_Booleans(t *testing.T) {
	type root struct {
		On bool `rxml:"on"`
	}

	t.Run("default literals", func(t *testing.T) {
		var r root
		err := rxml.Unmarshal([]byte(`<root on="true"/>`), &r)
		require.NoError(t, err)
		require.True(t, r.On)

		err = rxml.Unmarshal([]byte(`<root on="false"/>`), &r)
		require.NoError(t, err)
		require.False(t, r.On)
	})

	t.Run("other text is a type mismatch", func(t *testing.T) {
		var r root
		err := rxml.Unmarshal([]byte(`<root on="yes"/>`), &r)
		require.Error(t, err)
		require.ErrorIs(t, err, rxml.ErrTypeMismatch)
	})

	t.Run("zero-one strategy", func(t *testing.T) {
		var r root
		err := rxml.Unmarshal([]byte(`<root on="1"/>`), &r, rxml.BoolStrategy(rxml.BoolZeroOne))
		require.NoError(t, err)
		require.True(t, r.On)

		err = rxml.Unmarshal([]byte(`<root on="true"/>`), &r, rxml.BoolStrategy(rxml.BoolZeroOne))
		require.ErrorIs(t, err, rxml.ErrTypeMismatch)
	})

	t.Run("custom literals", func(t *testing.T) {
		var r root
		opt := rxml.BoolStrategy(rxml.BoolLiterals("yes", "no"))
		err := rxml.Unmarshal([]byte(`<root on="yes"/>`), &r, opt)
		require.NoError(t, err)
		require.True(t, r.On)
	})
}

func TestUnmarshal_NilStrategies(t *testing.T) {
	type root struct {
		V *string `rxml:"v"`
	}

	t.Run("empty is nil by default", func(t *testing.T) {
		var r root
		err := rxml.Unmarshal([]byte(`<root v=""/>`), &r)
		require.NoError(t, err)
		require.Nil(t, r.V)

		err = rxml.Unmarshal([]byte(`<root v="x"/>`), &r)
		require.NoError(t, err)
		require.NotNil(t, r.V)
		require.Equal(t, "x", *r.V)
	})

	t.Run("never", func(t *testing.T) {
		var r root
		err := rxml.Unmarshal([]byte(`<root v=""/>`), &r, rxml.NilStrategy(rxml.NilNever))
		require.NoError(t, err)
		require.NotNil(t, r.V)
		require.Equal(t, "", *r.V)
	})

	t.Run("null literal", func(t *testing.T) {
		var r root
		err := rxml.Unmarshal([]byte(`<root v="null"/>`), &r, rxml.NilStrategy(rxml.NilNull))
		require.NoError(t, err)
		require.Nil(t, r.V)

		err = rxml.Unmarshal([]byte(`<root v=""/>`), &r, rxml.NilStrategy(rxml.NilNull))
		require.NoError(t, err)
		require.NotNil(t, r.V)
	})

	t.Run("custom literal", func(t *testing.T) {
		var r root
		err := rxml.Unmarshal([]byte(`<root v="-"/>`), &r, rxml.NilStrategy(rxml.NilLiteral("-")))
		require.NoError(t, err)
		require.Nil(t, r.V)
	})
}

func TestUnmarshal_MissingAttribute(t *testing.T) {
	t.Run("required field fails", func(t *testing.T) {
		type root struct {
			A int `rxml:"a"`
		}
		var r root
		err := rxml.Unmarshal([]byte(`<root b="1"/>`), &r)
		require.Error(t, err)
		require.ErrorIs(t, err, rxml.ErrKeyNotFound)
	})

	t.Run("pointer field is left nil", func(t *testing.T) {
		type root struct {
			A *int `rxml:"a"`
		}
		var r root
		err := rxml.Unmarshal([]byte(`<root b="1"/>`), &r)
		require.NoError(t, err)
		require.Nil(t, r.A)
	})
}

func TestUnmarshal_TypeMismatch(t *testing.T) {
	type root struct {
		A int `rxml:"a"`
	}
	var r root
	err := rxml.Unmarshal([]byte(`<root a="abc"/>`), &r)
	require.Error(t, err)
	require.ErrorIs(t, err, rxml.ErrTypeMismatch)
}

func TestUnmarshal_Overflow(t *testing.T) {
	type root struct {
		A int8 `rxml:"a"`
	}
	var r root
	err := rxml.Unmarshal([]byte(`<root a="128"/>`), &r)
	require.Error(t, err)
	require.Contains(t, err.Error(), "overflows Go value of type int8")
}

func TestUnmarshal_AttributeMap(t *testing.T) {
	var m map[string]string
	err := rxml.Unmarshal([]byte(`<root a="1" b="2"/>`), &m)
	require.NoError(t, err)
	require.Equal(t, map[string]string{"a": "1", "b": "2"}, m)
}

func TestUnmarshal_NestedStructs(t *testing.T) {
	type endpoint struct {
		Name string `rxml:"$"`
		Host string `rxml:"host"`
		Port int    `rxml:"port"`
	}
	type cluster struct {
		Region    string     `rxml:"region"`
		Endpoints []endpoint `rxml:",children"`
	}

	input := `
		<cluster region="eu-north">
			<primary host="db1.internal" port="5432"/>
			<replica host="db2.internal" port="5433"/>
		</cluster>`

	var c cluster
	err := rxml.Unmarshal([]byte(input), &c)
	require.NoError(t, err)
	require.Equal(t, "eu-north", c.Region)
	require.Equal(t, []endpoint{
		{Name: "primary", Host: "db1.internal", Port: 5432},
		{Name: "replica", Host: "db2.internal", Port: 5433},
	}, c.Endpoints)
}

func TestUnmarshal_UntaggedFields(t *testing.T) {
	type root struct {
		Host string
		Port int
	}

	t.Run("case-insensitive attribute fallback", func(t *testing.T) {
		var r root
		err := rxml.Unmarshal([]byte(`<root host="db1.internal" port="5432"/>`), &r)
		require.NoError(t, err)
		require.Equal(t, root{Host: "db1.internal", Port: 5432}, r)
	})

	t.Run("exact match wins over folded match", func(t *testing.T) {
		var r root
		err := rxml.Unmarshal([]byte(`<root host="folded" Host="exact" port="1"/>`), &r)
		require.NoError(t, err)
		require.Equal(t, "exact", r.Host)
	})

	t.Run("tagged key also folds", func(t *testing.T) {
		type tagged struct {
			Region string `rxml:"Region"`
		}
		var v tagged
		err := rxml.Unmarshal([]byte(`<root region="eu-north"/>`), &v)
		require.NoError(t, err)
		require.Equal(t, "eu-north", v.Region)
	})
}

func TestUnmarshal_EmptyTagYieldsEmptySlice(t *testing.T) {
	type root struct {
		Items []string `rxml:",children"`
	}

	var r root
	err := rxml.Unmarshal([]byte(`<root></root>`), &r)
	require.NoError(t, err)
	require.Empty(t, r.Items)

	// A tag carrying only content has no child sequence either.
	err = rxml.Unmarshal([]byte(`<root>text</root>`), &r)
	require.NoError(t, err)
	require.Empty(t, r.Items)
}

func TestUnmarshal_IgnoredAndUnexportedFields(t *testing.T) {
	type root struct {
		Kept       string `rxml:"kept"`
		Ignored    string `rxml:"-"`
		unexported string
	}
	var r root
	r.unexported = "preset"
	err := rxml.Unmarshal([]byte(`<root kept="yes" Ignored="no"/>`), &r)
	require.NoError(t, err)
	require.Equal(t, "yes", r.Kept)
	require.Equal(t, "", r.Ignored)
	require.Equal(t, "preset", r.unexported)
}

func TestUnmarshal_MaxDepth(t *testing.T) {
	type node struct {
		Kids []node `rxml:",children"`
	}

	depth := 10
	input := strings.Repeat("<n>", depth) + strings.Repeat("</n>", depth)

	var n node
	err := rxml.Unmarshal([]byte(input), &n, rxml.MaxDepth(5))
	require.Error(t, err)
	require.Contains(t, err.Error(), "reached max recursion depth")

	err = rxml.Unmarshal([]byte(input), &n)
	require.NoError(t, err)
}

func TestUnmarshal_InvalidOption(t *testing.T) {
	var v struct{}
	err := rxml.Unmarshal([]byte(`<root/>`), &v, rxml.MaxDepth(0))
	require.Error(t, err)
	require.EqualError(t, err, "rxml: max depth must be a positive integer")
}

func TestUnmarshal_ErrorCases(t *testing.T) {
	t.Run("non-pointer destination", func(t *testing.T) {
		var v string
		err := rxml.Unmarshal([]byte(`<root/>`), v)
		require.Error(t, err)
		require.EqualError(t, err, "rxml: Unmarshal(non-pointer string or nil)")
	})

	t.Run("nil pointer destination", func(t *testing.T) {
		var v *string
		err := rxml.Unmarshal([]byte(`<root/>`), v)
		require.Error(t, err)
		require.EqualError(t, err, "rxml: Unmarshal(non-pointer *string or nil)")
	})

	t.Run("parse errors propagate", func(t *testing.T) {
		var v struct{}
		err := rxml.Unmarshal([]byte(`<a></b>`), &v)
		require.Error(t, err)

		var pe *rxml.ParseError
		require.ErrorAs(t, err, &pe)
	})

	t.Run("scalar from tag with children", func(t *testing.T) {
		var i int
		err := rxml.Unmarshal([]byte(`<a><b/></a>`), &i)
		require.Error(t, err)
		require.ErrorIs(t, err, rxml.ErrUnsupportedAccess)
	})

	t.Run("content from empty tag", func(t *testing.T) {
		var s string
		err := rxml.Unmarshal([]byte(`<a/>`), &s)
		require.Error(t, err)
		require.ErrorIs(t, err, rxml.ErrNoValue)
	})
}

func TestDecode_ReusesTape(t *testing.T) {
	tp, err := rxml.Parse(`<root on="1"/>`)
	require.NoError(t, err)

	type root struct {
		On bool `rxml:"on"`
	}

	var strict root
	err = rxml.Decode(tp, &strict)
	require.ErrorIs(t, err, rxml.ErrTypeMismatch)

	var lenient root
	err = rxml.Decode(tp, &lenient, rxml.BoolStrategy(rxml.BoolZeroOne))
	require.NoError(t, err)
	require.True(t, lenient.On)
}
