// Package models holds the in-memory JSON value model shared by every other
// package: a tagged variant over null, bool, number, string, array and an
// insertion-ordered object.
package models

import (
	"iter"
	"math"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Kind identifies which variant a Value holds.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindArray
	KindObject
)

var kindNames = map[Kind]string{
	KindNull:   "null",
	KindBool:   "bool",
	KindNumber: "number",
	KindString: "string",
	KindArray:  "array",
	KindObject: "object",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// Value is a JSON value. The zero Value is JSON null.
//
// Values are treated as immutable once handed to callers. Set and Delete
// exist for building objects and must not be used on a Value that is shared.
type Value struct {
	kind Kind
	b    bool
	n    float64
	s    string
	arr  []Value
	obj  *orderedmap.OrderedMap[string, Value]
}

// Pair is a single object entry used by ObjectOf.
type Pair struct {
	Key   string
	Value Value
}

// Null returns the JSON null value.
func Null() Value { return Value{} }

// Bool returns a JSON boolean.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Number returns a JSON number.
func Number(n float64) Value { return Value{kind: KindNumber, n: n} }

// Int returns a JSON number holding an integer.
func Int(n int64) Value { return Value{kind: KindNumber, n: float64(n)} }

// String returns a JSON string.
func String(s string) Value { return Value{kind: KindString, s: s} }

// Array returns a JSON array holding a copy of items.
func Array(items ...Value) Value {
	arr := make([]Value, len(items))
	copy(arr, items)
	return Value{kind: KindArray, arr: arr}
}

// NewObject returns an empty JSON object.
func NewObject() Value {
	return Value{kind: KindObject, obj: orderedmap.New[string, Value]()}
}

// ObjectOf builds an object from pairs. A repeated key keeps the position of
// its first occurrence and the value of its last.
func ObjectOf(pairs ...Pair) Value {
	o := Value{kind: KindObject, obj: orderedmap.New[string, Value](orderedmap.WithCapacity[string, Value](len(pairs)))}
	for _, p := range pairs {
		o.obj.Set(p.Key, p.Value)
	}
	return o
}

func (v Value) Kind() Kind { return v.kind }

func (v Value) IsNull() bool   { return v.kind == KindNull }
func (v Value) IsBool() bool   { return v.kind == KindBool }
func (v Value) IsNumber() bool { return v.kind == KindNumber }
func (v Value) IsString() bool { return v.kind == KindString }
func (v Value) IsArray() bool  { return v.kind == KindArray }
func (v Value) IsObject() bool { return v.kind == KindObject }

// IsContainer reports whether v is an array or an object.
func (v Value) IsContainer() bool { return v.kind == KindArray || v.kind == KindObject }

// Bool returns the boolean payload, false for other kinds.
func (v Value) Bool() bool { return v.kind == KindBool && v.b }

// Number returns the numeric payload, 0 for other kinds.
func (v Value) Number() float64 {
	if v.kind != KindNumber {
		return 0
	}
	return v.n
}

// IsIntegral reports whether v is a finite number with no fractional part.
func (v Value) IsIntegral() bool {
	return v.kind == KindNumber && !math.IsInf(v.n, 0) && !math.IsNaN(v.n) && v.n == math.Trunc(v.n)
}

// Text returns the string payload, "" for other kinds.
func (v Value) Text() string {
	if v.kind != KindString {
		return ""
	}
	return v.s
}

// Len returns the number of array items or object entries.
func (v Value) Len() int {
	switch v.kind {
	case KindArray:
		return len(v.arr)
	case KindObject:
		return v.obj.Len()
	default:
		return 0
	}
}

// Index returns the array item at i.
func (v Value) Index(i int) (Value, bool) {
	if v.kind != KindArray || i < 0 || i >= len(v.arr) {
		return Value{}, false
	}
	return v.arr[i], true
}

// Items returns a copy of the array items, nil for other kinds.
func (v Value) Items() []Value {
	if v.kind != KindArray {
		return nil
	}
	items := make([]Value, len(v.arr))
	copy(items, v.arr)
	return items
}

// Get returns the object entry stored under key.
func (v Value) Get(key string) (Value, bool) {
	if v.kind != KindObject {
		return Value{}, false
	}
	return v.obj.Get(key)
}

// Has reports whether the object holds key.
func (v Value) Has(key string) bool {
	_, ok := v.Get(key)
	return ok
}

// Keys returns the object keys in insertion order.
func (v Value) Keys() []string {
	if v.kind != KindObject {
		return nil
	}
	keys := make([]string, 0, v.obj.Len())
	for pair := v.obj.Oldest(); pair != nil; pair = pair.Next() {
		keys = append(keys, pair.Key)
	}
	return keys
}

// Pairs iterates the object entries in insertion order.
func (v Value) Pairs() iter.Seq2[string, Value] {
	return func(yield func(string, Value) bool) {
		if v.kind != KindObject {
			return
		}
		for pair := v.obj.Oldest(); pair != nil; pair = pair.Next() {
			if !yield(pair.Key, pair.Value) {
				return
			}
		}
	}
}

// Set stores val under key. An existing key keeps its position.
// It is a no-op on non-objects.
func (v Value) Set(key string, val Value) {
	if v.kind != KindObject {
		return
	}
	v.obj.Set(key, val)
}

// Delete removes key from the object.
func (v Value) Delete(key string) {
	if v.kind != KindObject {
		return
	}
	v.obj.Delete(key)
}

// Equal compares two values. Numbers compare with ==, objects ignore entry
// order and arrays compare positionally.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindNull:
		return true
	case KindBool:
		return v.b == o.b
	case KindNumber:
		return v.n == o.n
	case KindString:
		return v.s == o.s
	case KindArray:
		if len(v.arr) != len(o.arr) {
			return false
		}
		for i := range v.arr {
			if !v.arr[i].Equal(o.arr[i]) {
				return false
			}
		}
		return true
	case KindObject:
		if v.obj.Len() != o.obj.Len() {
			return false
		}
		for pair := v.obj.Oldest(); pair != nil; pair = pair.Next() {
			other, ok := o.obj.Get(pair.Key)
			if !ok || !pair.Value.Equal(other) {
				return false
			}
		}
		return true
	}
	return false
}

// Clone returns a deep copy of v.
func (v Value) Clone() Value {
	switch v.kind {
	case KindArray:
		arr := make([]Value, len(v.arr))
		for i, item := range v.arr {
			arr[i] = item.Clone()
		}
		return Value{kind: KindArray, arr: arr}
	case KindObject:
		o := Value{kind: KindObject, obj: orderedmap.New[string, Value](orderedmap.WithCapacity[string, Value](v.obj.Len()))}
		for pair := v.obj.Oldest(); pair != nil; pair = pair.Next() {
			o.obj.Set(pair.Key, pair.Value.Clone())
		}
		return o
	default:
		return v
	}
}
