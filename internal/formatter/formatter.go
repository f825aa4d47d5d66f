package formatter

import (
	"bytes"
	"math"
	"strconv"
	"unicode/utf8"

	"github.com/mcncl/skjson/internal/models"
)

// Formatter serialises JSON values. Object keys are written in insertion
// order and HTML characters are never escaped.
type Formatter struct {
	indent  string
	newline bool
}

// Option configures a Formatter
type Option func(*Formatter)

// WithIndent enables pretty printing using indent for each nesting level
func WithIndent(indent string) Option {
	return func(f *Formatter) {
		f.indent = indent
	}
}

// WithTrailingNewline terminates the output with a newline
func WithTrailingNewline() Option {
	return func(f *Formatter) {
		f.newline = true
	}
}

// NewFormatter creates a new Formatter instance
func NewFormatter(opts ...Option) *Formatter {
	f := &Formatter{}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

var (
	compact = NewFormatter()
	pretty  = NewFormatter(WithIndent("  "), WithTrailingNewline())
)

// Compact serialises v without insignificant whitespace
func Compact(v models.Value) string {
	return compact.Format(v)
}

// Pretty serialises v the way documents are written to disk: two space
// indentation and a trailing newline
func Pretty(v models.Value) string {
	return pretty.Format(v)
}

// Format serialises v
func (f *Formatter) Format(v models.Value) string {
	return string(f.Append(nil, v))
}

// Append appends the serialised form of v to dst
func (f *Formatter) Append(dst []byte, v models.Value) []byte {
	buf := bytes.NewBuffer(dst)
	f.write(buf, v, 0)
	if f.newline {
		buf.WriteByte('\n')
	}
	return buf.Bytes()
}

func (f *Formatter) write(buf *bytes.Buffer, v models.Value, depth int) {
	switch v.Kind() {
	case models.KindNull:
		buf.WriteString("null")
	case models.KindBool:
		buf.WriteString(strconv.FormatBool(v.Bool()))
	case models.KindNumber:
		buf.Write(AppendNumber(nil, v.Number()))
	case models.KindString:
		writeString(buf, v.Text())
	case models.KindArray:
		items := v.Items()
		if len(items) == 0 {
			buf.WriteString("[]")
			return
		}
		buf.WriteByte('[')
		for i, item := range items {
			if i > 0 {
				buf.WriteByte(',')
			}
			f.newlineIndent(buf, depth+1)
			f.write(buf, item, depth+1)
		}
		f.newlineIndent(buf, depth)
		buf.WriteByte(']')
	case models.KindObject:
		if v.Len() == 0 {
			buf.WriteString("{}")
			return
		}
		buf.WriteByte('{')
		first := true
		for key, val := range v.Pairs() {
			if !first {
				buf.WriteByte(',')
			}
			first = false
			f.newlineIndent(buf, depth+1)
			writeString(buf, key)
			buf.WriteByte(':')
			if f.indent != "" {
				buf.WriteByte(' ')
			}
			f.write(buf, val, depth+1)
		}
		f.newlineIndent(buf, depth)
		buf.WriteByte('}')
	}
}

func (f *Formatter) newlineIndent(buf *bytes.Buffer, depth int) {
	if f.indent == "" {
		return
	}
	buf.WriteByte('\n')
	for i := 0; i < depth; i++ {
		buf.WriteString(f.indent)
	}
}

// AppendNumber appends the JSON form of n. Integral values carry no
// fractional part and non-finite values are written as null.
func AppendNumber(dst []byte, n float64) []byte {
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return append(dst, "null"...)
	}
	abs := math.Abs(n)
	if n == math.Trunc(n) && abs < 1e21 {
		return strconv.AppendFloat(dst, n, 'f', -1, 64)
	}
	format := byte('f')
	if abs != 0 && (abs < 1e-6 || abs >= 1e21) {
		format = 'e'
	}
	dst = strconv.AppendFloat(dst, n, format, -1, 64)
	if format == 'e' {
		// clean up e-09 to e-9
		l := len(dst)
		if l >= 4 && dst[l-4] == 'e' && dst[l-3] == '-' && dst[l-2] == '0' {
			dst[l-2] = dst[l-1]
			dst = dst[:l-1]
		}
	}
	return dst
}

const hex = "0123456789abcdef"

func writeString(buf *bytes.Buffer, s string) {
	buf.WriteByte('"')
	start := 0
	for i := 0; i < len(s); {
		if b := s[i]; b < utf8.RuneSelf {
			if b >= 0x20 && b != '"' && b != '\\' {
				i++
				continue
			}
			buf.WriteString(s[start:i])
			switch b {
			case '"', '\\':
				buf.WriteByte('\\')
				buf.WriteByte(b)
			case '\n':
				buf.WriteString(`\n`)
			case '\r':
				buf.WriteString(`\r`)
			case '\t':
				buf.WriteString(`\t`)
			default:
				buf.WriteString(`\u00`)
				buf.WriteByte(hex[b>>4])
				buf.WriteByte(hex[b&0xF])
			}
			i++
			start = i
			continue
		}
		r, size := utf8.DecodeRuneInString(s[i:])
		if r == utf8.RuneError && size == 1 {
			buf.WriteString(s[start:i])
			buf.WriteString(`\ufffd`)
			i += size
			start = i
			continue
		}
		if r == '\u2028' || r == '\u2029' {
			buf.WriteString(s[start:i])
			buf.WriteString(`\u202`)
			buf.WriteByte(hex[r&0xF])
			i += size
			start = i
			continue
		}
		i += size
	}
	buf.WriteString(s[start:])
	buf.WriteByte('"')
}
