package parser

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	stderrors "errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcncl/skjson/internal/errors"
	"github.com/mcncl/skjson/internal/formatter"
	"github.com/mcncl/skjson/internal/models"
)

func TestParse_SimpleObject(t *testing.T) {
	root, err := ParseString(`{"name": "John Doe", "age": 30, "isStudent": false, "city": null}`)
	require.NoError(t, err)

	require.True(t, root.IsObject())
	assert.Equal(t, []string{"name", "age", "isStudent", "city"}, root.Keys())

	age, ok := root.Get("age")
	require.True(t, ok)
	assert.Equal(t, float64(30), age.Number())

	city, ok := root.Get("city")
	require.True(t, ok)
	assert.True(t, city.IsNull())
}

func TestParse_SimpleArray(t *testing.T) {
	root, err := ParseString(`[1, "test", true, null, 3.14]`)
	require.NoError(t, err)

	expected := models.Array(models.Int(1), models.String("test"), models.Bool(true), models.Null(), models.Number(3.14))
	assert.True(t, expected.Equal(root))
}

func TestParse_Primitives(t *testing.T) {
	tests := []struct {
		input    string
		expected models.Value
	}{
		{`null`, models.Null()},
		{`true`, models.Bool(true)},
		{`-12.5e1`, models.Number(-125)},
		{`"é\n"`, models.String("é\n")},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			root, err := ParseString(tt.input)
			require.NoError(t, err)
			assert.True(t, tt.expected.Equal(root))
		})
	}
}

func TestParse_DuplicateKeyLastWins(t *testing.T) {
	root, err := ParseString(`{"a": 1, "b": 2, "a": 3}`)
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "b"}, root.Keys())
	a, _ := root.Get("a")
	assert.Equal(t, float64(3), a.Number())
}

func TestParse_EmptyContainers(t *testing.T) {
	obj, err := ParseString(`{}`)
	require.NoError(t, err)
	assert.True(t, obj.IsObject())
	assert.Equal(t, 0, obj.Len())

	arr, err := ParseString(`[]`)
	require.NoError(t, err)
	assert.True(t, arr.IsArray())
	assert.Equal(t, 0, arr.Len())
}

func TestParse_DeeplyNested(t *testing.T) {
	depth := 1000
	input := strings.Repeat(`{"a":`, depth) + `1` + strings.Repeat(`}`, depth)

	root, err := ParseString(input)
	require.NoError(t, err)

	cur := root
	for i := 0; i < depth; i++ {
		next, ok := cur.Get("a")
		require.True(t, ok)
		cur = next
	}
	assert.Equal(t, float64(1), cur.Number())
	assert.Equal(t, input, formatter.Compact(root))
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"whitespace", "   \n"},
		{"trailing comma in object", `{"a":1,}`},
		{"trailing comma in array", `[1,2,]`},
		{"unterminated", `{"a":`},
		{"multiple values", `{} {}`},
		{"trailing garbage", `{"a":1} x`},
		{"bare word", `nope`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseString(tt.input)
			require.Error(t, err)
			assert.True(t, stderrors.Is(err, errors.NewInvalidJSONError("", nil)), "got %v", err)
		})
	}
}

func TestParse_RoundTrip(t *testing.T) {
	inputs := []string{
		`{"p":{"admin":true,"prefix":"&4Admin"}}`,
		`[1,2.5,"x",null,false,{"k":[]}]`,
		`{"z":1,"a":{"y":2,"b":3}}`,
		`"<html>"`,
		`{}`,
	}

	for _, input := range inputs {
		t.Run(input, func(t *testing.T) {
			root, err := ParseString(input)
			require.NoError(t, err)
			assert.Equal(t, input, formatter.Compact(root))

			again, err := ParseString(formatter.Pretty(root))
			require.NoError(t, err)
			assert.True(t, root.Equal(again))
		})
	}
}

func TestFixTrailingCommas(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{`{"a":1,}`, `{"a":1}`},
		{`[1, 2 ,  ]`, `[1, 2 ]`},
		{"{\"a\":[1,\n],\n}", `{"a":[1]}`},
		{`{"a":1}`, `{"a":1}`},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, FixTrailingCommas(tt.input))
		})
	}
}

func TestParseLenient(t *testing.T) {
	root, err := ParseLenient(`{"ok":true,}`)
	require.NoError(t, err)
	assert.True(t, models.ObjectOf(models.Pair{Key: "ok", Value: models.Bool(true)}).Equal(root))

	_, err = ParseString(`{"ok":true,}`)
	assert.Error(t, err)
}

func TestParseFile(t *testing.T) {
	dir := t.TempDir()

	t.Run("valid file", func(t *testing.T) {
		file := filepath.Join(dir, "doc.json")
		require.NoError(t, os.WriteFile(file, []byte(`{"v": 1}`), 0644))

		root, err := ParseFile(file)
		require.NoError(t, err)
		v, _ := root.Get("v")
		assert.Equal(t, float64(1), v.Number())
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := ParseFile(filepath.Join(dir, "missing.json"))
		require.Error(t, err)
		assert.Equal(t, errors.ErrorTypeIO, errors.TypeOf(err))
	})

	t.Run("invalid content", func(t *testing.T) {
		file := filepath.Join(dir, "bad.json")
		require.NoError(t, os.WriteFile(file, []byte(`{"v": }`), 0644))

		_, err := ParseFile(file)
		require.Error(t, err)
		assert.Equal(t, errors.ErrorTypeInvalidJSON, errors.TypeOf(err))
		assert.Contains(t, err.Error(), "bad.json")
	})

	t.Run("empty path", func(t *testing.T) {
		_, err := ParseFile("  ")
		assert.Equal(t, errors.ErrorTypeIO, errors.TypeOf(err))
	})
}
