package path

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcncl/skjson/internal/errors"
	"github.com/mcncl/skjson/internal/formatter"
	"github.com/mcncl/skjson/internal/models"
	"github.com/mcncl/skjson/internal/parser"
)

func mustParse(t *testing.T, s string) models.Value {
	t.Helper()
	v, err := parser.ParseString(s)
	require.NoError(t, err)
	return v
}

func TestSplit(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		delimiter rune
		expected  Path
	}{
		{"empty", "", ':', Path{}},
		{"single", "a", ':', Path{"a"}},
		{"nested", "a:0:b", ':', Path{"a", "0", "b"}},
		{"consecutive delimiters kept", "a::b", ':', Path{"a", "", "b"}},
		{"trailing delimiter", "a:", ':', Path{"a", ""}},
		{"custom delimiter", "a.b", '.', Path{"a", "b"}},
		{"multibyte delimiter", "a→b", '→', Path{"a", "b"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Split(tt.input, tt.delimiter))
		})
	}
}

func TestParse(t *testing.T) {
	p, err := Parse("a:b", DefaultDelimiter)
	require.NoError(t, err)
	assert.Equal(t, "a:b", p.Join(DefaultDelimiter))

	_, err = Parse("", DefaultDelimiter)
	require.Error(t, err)
	assert.Equal(t, errors.ErrorTypePath, errors.TypeOf(err))

	_, err = Parse("a", 0)
	assert.Equal(t, errors.ErrorTypePath, errors.TypeOf(err))
}

func TestSegment_Index(t *testing.T) {
	tests := []struct {
		seg   Segment
		index int
		ok    bool
	}{
		{"0", 0, true},
		{"12", 12, true},
		{"-1", 0, false},
		{"1a", 0, false},
		{"", 0, false},
		{"+1", 0, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.seg), func(t *testing.T) {
			i, ok := tt.seg.Index()
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.index, i)
		})
	}
}

func TestResolve(t *testing.T) {
	root := mustParse(t, `{"players":[{"name":"coffee"}],"0":"zero","":{"x":1}}`)

	t.Run("found through array", func(t *testing.T) {
		parent, last, found := Resolve(root, Split("players:0:name", ':'))
		assert.True(t, found)
		assert.Equal(t, Segment("name"), last)
		assert.True(t, parent.IsObject())
	})

	t.Run("numeric segment addresses object key", func(t *testing.T) {
		v, ok := Get(root, Split("0", ':'))
		require.True(t, ok)
		assert.Equal(t, "zero", v.Text())
	})

	t.Run("missing intermediate returns deepest node", func(t *testing.T) {
		parent, last, found := Resolve(root, Split("players:3:name", ':'))
		assert.False(t, found)
		assert.Equal(t, Segment("name"), last)
		assert.True(t, parent.IsArray())
	})

	t.Run("non numeric segment on array", func(t *testing.T) {
		_, ok := Get(root, Split("players:first", ':'))
		assert.False(t, ok)
	})

	t.Run("trailing delimiter fails on missing empty key", func(t *testing.T) {
		_, ok := Get(root, Split("players:", ':'))
		assert.False(t, ok)
	})

	t.Run("empty segment matches empty key", func(t *testing.T) {
		v, ok := Get(root, Split(":x", ':'))
		require.True(t, ok)
		assert.Equal(t, float64(1), v.Number())
	})

	t.Run("descending into a primitive", func(t *testing.T) {
		_, ok := Get(root, Split("0:1", ':'))
		assert.False(t, ok)
	})

	t.Run("empty path", func(t *testing.T) {
		_, _, found := Resolve(root, Path{})
		assert.False(t, found)

		v, ok := Get(root, Path{})
		assert.True(t, ok)
		assert.True(t, v.Equal(root))
	})
}

func TestSet(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		path     string
		value    models.Value
		expected string
	}{
		{"new key", `{"a":1}`, "v", models.Int(42), `{"a":1,"v":42}`},
		{"replace keeps position", `{"v":1,"a":2}`, "v", models.Int(42), `{"v":42,"a":2}`},
		{"nested", `{"a":{"b":1}}`, "a:b", models.Bool(true), `{"a":{"b":true}}`},
		{"array index", `{"a":[1,2]}`, "a:1", models.String("x"), `{"a":[1,"x"]}`},
		{"array append", `{"a":[1]}`, "a:1", models.Int(2), `{"a":[1,2]}`},
		{"array out of range", `{"a":[1]}`, "a:5", models.Int(2), `{"a":[1]}`},
		{"missing intermediate", `{"a":1}`, "x:y", models.Int(2), `{"a":1}`},
		{"primitive parent", `{"a":1}`, "a:b", models.Int(2), `{"a":1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := mustParse(t, tt.input)
			out := Set(root, Split(tt.path, ':'), tt.value)
			assert.Equal(t, tt.expected, formatter.Compact(out))
			assert.Equal(t, tt.input, formatter.Compact(root), "input must not change")
		})
	}

	t.Run("empty path replaces root", func(t *testing.T) {
		out := Set(models.NewObject(), Path{}, models.Int(1))
		assert.Equal(t, "1", formatter.Compact(out))
	})
}

func TestRemove(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		path     string
		expected string
	}{
		{"key", `{"a":1,"b":2}`, "a", `{"b":2}`},
		{"nested key", `{"a":{"b":1,"c":2}}`, "a:b", `{"a":{"c":2}}`},
		{"array item", `[1,2,3]`, "1", `[1,3]`},
		{"missing", `{"a":1}`, "b", `{"a":1}`},
		{"missing intermediate", `{"a":1}`, "x:y", `{"a":1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := mustParse(t, tt.input)
			out := Remove(root, Split(tt.path, ':'))
			assert.Equal(t, tt.expected, formatter.Compact(out))
			assert.Equal(t, tt.input, formatter.Compact(root))
		})
	}
}
