// Package path addresses nodes inside a JSON tree with delimiter-joined
// segment strings such as "players:0:name".
//
// Every navigation operation is total: an unresolvable path leaves the
// input untouched instead of failing.
package path

import (
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/mcncl/skjson/internal/errors"
	"github.com/mcncl/skjson/internal/models"
)

// DefaultDelimiter separates segments when no delimiter is configured.
const DefaultDelimiter = ':'

// Segment is one step of a path. Whether it addresses an object key or an
// array index depends on the node it is applied to.
type Segment string

// Index returns the segment as a non-negative array index.
func (s Segment) Index() (int, bool) {
	if s == "" {
		return 0, false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(string(s))
	if err != nil {
		return 0, false
	}
	return n, true
}

// Path is a sequence of segments.
type Path []Segment

// Split breaks s on delimiter. Empty input yields an empty path and
// consecutive delimiters keep the empty segment between them.
func Split(s string, delimiter rune) Path {
	if s == "" {
		return Path{}
	}
	parts := strings.Split(s, string(delimiter))
	p := make(Path, len(parts))
	for i, part := range parts {
		p[i] = Segment(part)
	}
	return p
}

// Parse is Split for callers that require a usable path.
func Parse(s string, delimiter rune) (Path, error) {
	if delimiter == utf8.RuneError || delimiter == 0 {
		return nil, errors.NewPathError("delimiter is not a valid codepoint", errors.ErrInvalidPath)
	}
	if s == "" {
		return nil, errors.NewPathError("path is empty", errors.ErrInvalidPath)
	}
	return Split(s, delimiter), nil
}

// Join renders p with delimiter.
func (p Path) Join(delimiter rune) string {
	parts := make([]string, len(p))
	for i, seg := range p {
		parts[i] = string(seg)
	}
	return strings.Join(parts, string(delimiter))
}

// child looks seg up in node without creating anything.
func child(node models.Value, seg Segment) (models.Value, bool) {
	switch node.Kind() {
	case models.KindObject:
		return node.Get(string(seg))
	case models.KindArray:
		i, ok := seg.Index()
		if !ok {
			return models.Value{}, false
		}
		return node.Index(i)
	default:
		return models.Value{}, false
	}
}

// Resolve walks root along p. It returns the parent of the addressed node,
// the final segment, and whether the node exists. When an intermediate
// segment is missing, parent is the deepest node that does exist.
func Resolve(root models.Value, p Path) (parent models.Value, last Segment, found bool) {
	if len(p) == 0 {
		return root, "", false
	}
	last = p[len(p)-1]
	cur := root
	for _, seg := range p[:len(p)-1] {
		next, ok := child(cur, seg)
		if !ok {
			return cur, last, false
		}
		cur = next
	}
	_, found = child(cur, last)
	return cur, last, found
}

// Get returns the node addressed by p.
func Get(root models.Value, p Path) (models.Value, bool) {
	if len(p) == 0 {
		return root, true
	}
	parent, last, found := Resolve(root, p)
	if !found {
		return models.Value{}, false
	}
	return child(parent, last)
}

// Set returns a copy of root with the node at p replaced by val. Objects gain
// the final key when it is missing and arrays grow by one when the final
// index equals their length. Intermediate nodes are never created; when one
// is missing root is returned unchanged.
func Set(root models.Value, p Path, val models.Value) models.Value {
	if len(p) == 0 {
		return val
	}
	updated, ok := set(root, p, val)
	if !ok {
		return root
	}
	return updated
}

func set(node models.Value, p Path, val models.Value) (models.Value, bool) {
	seg := p[0]
	if len(p) == 1 {
		return assign(node, seg, val)
	}
	next, ok := child(node, seg)
	if !ok {
		return models.Value{}, false
	}
	updated, ok := set(next, p[1:], val)
	if !ok {
		return models.Value{}, false
	}
	return assign(node, seg, updated)
}

// assign writes val at seg on a shallow copy of node.
func assign(node models.Value, seg Segment, val models.Value) (models.Value, bool) {
	switch node.Kind() {
	case models.KindObject:
		out := shallowObject(node)
		out.Set(string(seg), val)
		return out, true
	case models.KindArray:
		i, ok := seg.Index()
		if !ok {
			return models.Value{}, false
		}
		items := node.Items()
		switch {
		case i < len(items):
			items[i] = val
		case i == len(items):
			items = append(items, val)
		default:
			return models.Value{}, false
		}
		return models.Array(items...), true
	default:
		return models.Value{}, false
	}
}

// Remove returns a copy of root without the node at p. Array removal shifts
// the following items down.
func Remove(root models.Value, p Path) models.Value {
	if len(p) == 0 {
		return root
	}
	updated, ok := remove(root, p)
	if !ok {
		return root
	}
	return updated
}

func remove(node models.Value, p Path) (models.Value, bool) {
	seg := p[0]
	if len(p) == 1 {
		switch node.Kind() {
		case models.KindObject:
			if !node.Has(string(seg)) {
				return models.Value{}, false
			}
			out := shallowObject(node)
			out.Delete(string(seg))
			return out, true
		case models.KindArray:
			i, ok := seg.Index()
			if !ok || i >= node.Len() {
				return models.Value{}, false
			}
			items := node.Items()
			return models.Array(append(items[:i], items[i+1:]...)...), true
		default:
			return models.Value{}, false
		}
	}
	next, ok := child(node, seg)
	if !ok {
		return models.Value{}, false
	}
	updated, ok := remove(next, p[1:])
	if !ok {
		return models.Value{}, false
	}
	return assign(node, seg, updated)
}

func shallowObject(node models.Value) models.Value {
	out := models.NewObject()
	for k, v := range node.Pairs() {
		out.Set(k, v)
	}
	return out
}
