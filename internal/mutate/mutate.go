// Package mutate renames keys and replaces values throughout a JSON tree.
// Both operations are total and return a new tree; the input is never
// modified.
package mutate

import (
	"fmt"
	"strings"

	"github.com/mcncl/skjson/internal/formatter"
	"github.com/mcncl/skjson/internal/models"
)

// Mode selects whether a change applies to keys or to values.
type Mode int

const (
	ModeKey Mode = iota
	ModeValue
)

func (m Mode) String() string {
	if m == ModeKey {
		return "key"
	}
	return "value"
}

// ParseMode accepts "key", "keys", "value" and "values" in any case.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "key", "keys":
		return ModeKey, nil
	case "value", "values":
		return ModeValue, nil
	}
	return ModeKey, fmt.Errorf("unknown change mode %q", s)
}

// ChangeKey renames every entry called oldKey to newKey. A renamed entry
// takes the position of oldKey and replaces any existing newKey entry.
// Without deep only the root object is considered.
func ChangeKey(root models.Value, oldKey, newKey string, deep bool) models.Value {
	switch root.Kind() {
	case models.KindObject:
		return renameKey(root, oldKey, newKey, deep)
	case models.KindArray:
		if !deep {
			return root
		}
		items := root.Items()
		for i, item := range items {
			items[i] = ChangeKey(item, oldKey, newKey, true)
		}
		return models.Array(items...)
	default:
		return root
	}
}

func renameKey(obj models.Value, oldKey, newKey string, deep bool) models.Value {
	renaming := oldKey != newKey && obj.Has(oldKey)
	out := models.NewObject()
	for k, v := range obj.Pairs() {
		if deep {
			v = ChangeKey(v, oldKey, newKey, true)
		}
		switch {
		case renaming && k == newKey:
			// overwritten by the renamed entry
		case renaming && k == oldKey:
			out.Set(newKey, v)
		default:
			out.Set(k, v)
		}
	}
	return out
}

// ChangeValue replaces every value equal to oldValue with newValue. Object
// keys are never touched and arrays keep their length. A root equal to
// oldValue is itself replaced. Without deep only the direct children of the
// root are considered.
func ChangeValue(root, oldValue, newValue models.Value, deep bool) models.Value {
	if root.Equal(oldValue) {
		return newValue.Clone()
	}
	return replaceChildren(root, oldValue, newValue, deep)
}

func replaceChildren(node, oldValue, newValue models.Value, deep bool) models.Value {
	replace := func(v models.Value) models.Value {
		if v.Equal(oldValue) {
			return newValue.Clone()
		}
		if deep && v.IsContainer() {
			return replaceChildren(v, oldValue, newValue, true)
		}
		return v
	}

	switch node.Kind() {
	case models.KindObject:
		out := models.NewObject()
		for k, v := range node.Pairs() {
			out.Set(k, replace(v))
		}
		return out
	case models.KindArray:
		items := node.Items()
		for i, item := range items {
			items[i] = replace(item)
		}
		return models.Array(items...)
	default:
		return node
	}
}

// Change is one from/to pair of a plural change.
type Change struct {
	From models.Value
	To   models.Value
}

// Apply runs changes in order, each one seeing the result of the previous.
// Key mode uses the text of string values and the compact JSON of anything
// else as the key.
func Apply(root models.Value, mode Mode, changes []Change, deep bool) models.Value {
	out := root
	for _, c := range changes {
		if mode == ModeKey {
			out = ChangeKey(out, KeyOf(c.From), KeyOf(c.To), deep)
		} else {
			out = ChangeValue(out, c.From, c.To, deep)
		}
	}
	return out
}

// KeyOf renders v as an object key.
func KeyOf(v models.Value) string {
	if v.IsString() {
		return v.Text()
	}
	return formatter.Compact(v)
}
