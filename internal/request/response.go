package request

import (
	"net/http"
	"net/url"
	"sort"

	"github.com/mcncl/skjson/internal/formatter"
	"github.com/mcncl/skjson/internal/logger"
	"github.com/mcncl/skjson/internal/models"
	"github.com/mcncl/skjson/internal/parser"
)

// Status codes bounding the range in which a body is parsed as JSON
const (
	minParsedStatus = 200
	maxParsedStatus = 340
	// successful responses are 200 up to but excluding 230
	minSuccessStatus = 200
	maxSuccessStatus = 230
)

// Header is a read-only view of request or response headers
type Header struct {
	h http.Header
}

// JSON returns the headers as an object of name to array of values,
// ordered by name
func (h Header) JSON() models.Value {
	names := make([]string, 0, len(h.h))
	for name := range h.h {
		names = append(names, name)
	}
	sort.Strings(names)

	obj := models.NewObject()
	for _, name := range names {
		values := make([]models.Value, 0, len(h.h[name]))
		for _, v := range h.h[name] {
			values = append(values, models.String(v))
		}
		obj.Set(name, models.Array(values...))
	}
	return obj
}

// Text returns the compact JSON rendering of the headers
func (h Header) Text() string {
	return formatter.Compact(h.JSON())
}

// Raw returns a copy of the underlying headers
func (h Header) Raw() http.Header {
	return h.h.Clone()
}

// Get returns the first value for name
func (h Header) Get(name string) string {
	return h.h.Get(name)
}

// BodyKind tells how a response body was interpreted
type BodyKind int

const (
	// BodyNone means no body is available to the caller
	BodyNone BodyKind = iota
	// BodyJSON holds a parsed value, null when parsing failed
	BodyJSON
	// BodyRaw holds the unparsed body of an out-of-range response
	BodyRaw
)

func (k BodyKind) String() string {
	switch k {
	case BodyJSON:
		return "json"
	case BodyRaw:
		return "raw"
	default:
		return "none"
	}
}

// Body is the interpreted response body
type Body struct {
	Kind BodyKind
	JSON models.Value
	Raw  string
}

// Value returns the body as a JSON value. Raw bodies become strings and
// missing bodies become null.
func (b Body) Value() models.Value {
	switch b.Kind {
	case BodyJSON:
		return b.JSON
	case BodyRaw:
		return models.String(b.Raw)
	default:
		return models.Null()
	}
}

// Response is a completed exchange. It is not modified after creation.
type Response struct {
	requestHeaders  http.Header
	responseHeaders http.Header
	url             *url.URL
	statusCode      int
	rawBody         string
	lenient         bool
	log             *logger.Logger
}

// RequestHeaders returns the headers that were sent
func (r *Response) RequestHeaders() Header {
	return Header{h: r.requestHeaders}
}

// ResponseHeaders returns the headers that were received
func (r *Response) ResponseHeaders() Header {
	return Header{h: r.responseHeaders}
}

// URL returns the final request URL after redirects
func (r *Response) URL() *url.URL {
	u := *r.url
	return &u
}

// StatusCode returns the HTTP status code
func (r *Response) StatusCode() int {
	return r.statusCode
}

// RawBody returns the body text as received
func (r *Response) RawBody() string {
	return r.rawBody
}

// IsSuccessful reports whether the status is in [200, 230)
func (r *Response) IsSuccessful() bool {
	return r.statusCode >= minSuccessStatus && r.statusCode < maxSuccessStatus
}

// Body interprets the body. Statuses 200 through 340 are parsed as JSON,
// with trailing commas removed first when the request was lenient; a body
// that does not parse yields JSON null. Other statuses yield the raw text
// when keepRaw is set and no body otherwise.
func (r *Response) Body(keepRaw bool) Body {
	if r.statusCode >= minParsedStatus && r.statusCode <= maxParsedStatus {
		var (
			v   models.Value
			err error
		)
		if r.lenient {
			v, err = parser.ParseLenient(r.rawBody)
		} else {
			v, err = parser.ParseString(r.rawBody)
		}
		if err != nil {
			r.log.Error(err, "response body")
			return Body{Kind: BodyJSON, JSON: models.Null()}
		}
		return Body{Kind: BodyJSON, JSON: v}
	}
	if keepRaw {
		return Body{Kind: BodyRaw, Raw: r.rawBody}
	}
	return Body{Kind: BodyNone}
}
