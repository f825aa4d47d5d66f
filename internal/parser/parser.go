package parser

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"

	stderrors "errors" // Standard errors package

	"github.com/mcncl/skjson/internal/errors" // Custom errors package
	"github.com/mcncl/skjson/internal/models"
)

// Parse reads exactly one JSON value from reader. Object keys keep the order
// in which they appear; a repeated key keeps its first position and its last
// value.
func Parse(reader io.Reader) (models.Value, error) {
	decoder := json.NewDecoder(reader)
	decoder.UseNumber() // numbers are converted to float64 by decodeValue

	tok, err := decoder.Token()
	if err != nil {
		if stderrors.Is(err, io.EOF) {
			return models.Value{}, errors.NewInvalidJSONError("input is empty or contains only whitespace", errors.ErrInvalidJSON)
		}
		return models.Value{}, wrapDecodeError(err)
	}

	root, err := decodeValue(decoder, tok)
	if err != nil {
		return models.Value{}, wrapDecodeError(err)
	}

	// Only whitespace may follow the root value
	if _, err := decoder.Token(); !stderrors.Is(err, io.EOF) {
		if err != nil {
			return models.Value{}, errors.NewInvalidJSONError("invalid trailing data after first JSON value", err)
		}
		return models.Value{}, errors.NewInvalidJSONError("multiple JSON values found at the root", errors.ErrInvalidJSON)
	}

	return root, nil
}

func decodeValue(decoder *json.Decoder, tok json.Token) (models.Value, error) {
	switch t := tok.(type) {
	case nil:
		return models.Null(), nil
	case bool:
		return models.Bool(t), nil
	case string:
		return models.String(t), nil
	case json.Number:
		f, err := strconv.ParseFloat(string(t), 64)
		if err != nil {
			return models.Value{}, fmt.Errorf("number %s out of range: %w", t, err)
		}
		return models.Number(f), nil
	case json.Delim:
		switch t {
		case '{':
			return decodeObject(decoder)
		case '[':
			return decodeArray(decoder)
		}
	}
	return models.Value{}, fmt.Errorf("unexpected token %v", tok)
}

func decodeObject(decoder *json.Decoder) (models.Value, error) {
	obj := models.NewObject()
	for {
		tok, err := decoder.Token()
		if err != nil {
			return models.Value{}, err
		}
		if delim, ok := tok.(json.Delim); ok && delim == '}' {
			return obj, nil
		}
		key, ok := tok.(string)
		if !ok {
			return models.Value{}, fmt.Errorf("expected object key, got %v", tok)
		}
		tok, err = decoder.Token()
		if err != nil {
			return models.Value{}, err
		}
		val, err := decodeValue(decoder, tok)
		if err != nil {
			return models.Value{}, err
		}
		obj.Set(key, val)
	}
}

func decodeArray(decoder *json.Decoder) (models.Value, error) {
	var items []models.Value
	for {
		tok, err := decoder.Token()
		if err != nil {
			return models.Value{}, err
		}
		if delim, ok := tok.(json.Delim); ok && delim == ']' {
			return models.Array(items...), nil
		}
		val, err := decodeValue(decoder, tok)
		if err != nil {
			return models.Value{}, err
		}
		items = append(items, val)
	}
}

func wrapDecodeError(err error) error {
	var syntaxError *json.SyntaxError
	if stderrors.As(err, &syntaxError) {
		return errors.NewInvalidJSONError(
			fmt.Sprintf("JSON syntax error at offset %d: %s", syntaxError.Offset, syntaxError.Error()),
			errors.ErrInvalidJSON,
		)
	}
	if stderrors.Is(err, io.ErrUnexpectedEOF) || stderrors.Is(err, io.EOF) {
		return errors.NewInvalidJSONError("unexpected end of JSON input", errors.ErrInvalidJSON)
	}
	return errors.NewInvalidJSONError("failed to decode JSON", fmt.Errorf("%w: %v", errors.ErrInvalidJSON, err))
}

// ParseString parses JSON from a string
func ParseString(jsonString string) (models.Value, error) {
	if strings.TrimSpace(jsonString) == "" {
		return models.Value{}, errors.NewInvalidJSONError("input string is empty", errors.ErrInvalidJSON)
	}
	return Parse(strings.NewReader(jsonString))
}

// ParseBytes parses JSON from a byte slice
func ParseBytes(data []byte) (models.Value, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return models.Value{}, errors.NewInvalidJSONError("input is empty", errors.ErrInvalidJSON)
	}
	return Parse(bytes.NewReader(data))
}

var (
	trailingObjectComma = regexp.MustCompile(`,\s*}`)
	trailingArrayComma  = regexp.MustCompile(`,\s*]`)
)

// FixTrailingCommas removes a comma that directly precedes a closing brace
// or bracket. The rewrite is textual and also applies inside string literals.
func FixTrailingCommas(jsonString string) string {
	fixed := trailingObjectComma.ReplaceAllString(jsonString, "}")
	return trailingArrayComma.ReplaceAllString(fixed, "]")
}

// ParseLenient parses JSON after removing trailing commas
func ParseLenient(jsonString string) (models.Value, error) {
	return ParseString(FixTrailingCommas(jsonString))
}

// ParseFile parses JSON from a file path
func ParseFile(filePath string) (models.Value, error) {
	if strings.TrimSpace(filePath) == "" {
		return models.Value{}, errors.NewIOError("file path is empty", errors.ErrIO)
	}
	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return models.Value{}, errors.NewIOError(fmt.Sprintf("file '%s' not found", filePath), err)
		}
		return models.Value{}, errors.NewIOError(fmt.Sprintf("failed to read file '%s'", filePath), err)
	}

	root, err := ParseBytes(data)
	if err != nil {
		var appErr *errors.AppError
		if stderrors.As(err, &appErr) {
			return models.Value{}, errors.NewInvalidJSONError(fmt.Sprintf("file '%s': %s", filePath, appErr.Message), appErr.Err)
		}
		return models.Value{}, err
	}
	return root, nil
}
