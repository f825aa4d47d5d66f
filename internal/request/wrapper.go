// Package request builds, sends and interprets single HTTP requests whose
// bodies are JSON values or multipart forms.
package request

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/mcncl/skjson/internal/errors"
	"github.com/mcncl/skjson/internal/formatter"
	"github.com/mcncl/skjson/internal/formdata"
	"github.com/mcncl/skjson/internal/logger"
	"github.com/mcncl/skjson/internal/models"
)

// PayloadField is the multipart field holding the JSON content
const PayloadField = "payload_json"

// State is a wrapper lifecycle stage
type State int

const (
	StateNew State = iota
	StateConfigured
	StateBuilt
	StateCompleted
	StateClosed
	// StateFailed marks a wrapper whose URL could not be used
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateNew:
		return "new"
	case StateConfigured:
		return "configured"
	case StateBuilt:
		return "built"
	case StateCompleted:
		return "completed"
	case StateClosed:
		return "closed"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Wrapper stages a single request
type Wrapper struct {
	mu sync.Mutex

	method         Method
	url            *url.URL
	state          State
	err            error
	headers        http.Header
	content        models.Value
	attachments    []string
	attachmentRoot string

	client  *http.Client
	limiter *rate.Limiter
	log     *logger.Logger

	req     *http.Request
	elapsed time.Duration
}

// Option configures a Wrapper
type Option func(*Wrapper)

// WithClient sets the HTTP client used to send the request
func WithClient(client *http.Client) Option {
	return func(w *Wrapper) {
		if client != nil {
			w.client = client
		}
	}
}

// WithLimiter throttles Process with a shared limiter
func WithLimiter(limiter *rate.Limiter) Option {
	return func(w *Wrapper) {
		w.limiter = limiter
	}
}

// WithLogger sets the logger for request lines and swallowed errors
func WithLogger(log *logger.Logger) Option {
	return func(w *Wrapper) {
		w.log = log
	}
}

// WithAttachmentRoot sets the directory searched by wildcard attachments
func WithAttachmentRoot(root string) Option {
	return func(w *Wrapper) {
		w.attachmentRoot = root
	}
}

// NewClient returns a client with the given timeout; zero keeps the
// client default of no timeout
func NewClient(timeout time.Duration) *http.Client {
	return &http.Client{Timeout: timeout}
}

// NewLimiter returns a limiter allowing requestsPerSecond, or nil when the
// rate is not positive
func NewLimiter(requestsPerSecond float64) *rate.Limiter {
	if requestsPerSecond <= 0 {
		return nil
	}
	burst := int(requestsPerSecond)
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(requestsPerSecond), burst)
}

// SanitizeURL percent-encodes literal spaces
func SanitizeURL(raw string) string {
	return strings.ReplaceAll(raw, " ", "%20")
}

// New creates a wrapper for method and rawURL. A URL that does not parse
// as an absolute http or https URL leaves the wrapper in StateFailed.
func New(method Method, rawURL string, opts ...Option) *Wrapper {
	w := &Wrapper{
		method:         method,
		headers:        make(http.Header),
		content:        models.NewObject(),
		attachmentRoot: ".",
		client:         http.DefaultClient,
	}
	for _, opt := range opts {
		opt(w)
	}

	u, err := parseURL(SanitizeURL(rawURL))
	if err != nil {
		w.state = StateFailed
		w.err = err
		w.log.Error(err, "request url")
		return w
	}
	w.url = u
	return w
}

func parseURL(raw string) (*url.URL, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, errors.NewHTTPError(fmt.Sprintf("invalid url '%s'", raw), err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, errors.NewHTTPError(fmt.Sprintf("invalid url '%s'", raw), errors.ErrHTTP)
	}
	return u, nil
}

// Method returns the request method
func (w *Wrapper) Method() Method {
	return w.method
}

// URL returns the sanitized request URL, or nil in StateFailed
func (w *Wrapper) URL() *url.URL {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.url == nil {
		return nil
	}
	u := *w.url
	return &u
}

// State returns the lifecycle stage
func (w *Wrapper) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// Err returns the URL error of a failed wrapper
func (w *Wrapper) Err() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.err
}

// Elapsed returns the duration of the last Process call
func (w *Wrapper) Elapsed() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return HumanDuration(w.elapsed)
}

// configure runs f when the wrapper still accepts configuration
func (w *Wrapper) configure(op string, f func() error) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state != StateNew && w.state != StateConfigured {
		return w.stateError(op)
	}
	if err := f(); err != nil {
		return err
	}
	w.state = StateConfigured
	return nil
}

func (w *Wrapper) stateError(op string) error {
	err := w.err
	if err == nil {
		err = errors.ErrBuilderState
	}
	return errors.NewBuilderStateError(fmt.Sprintf("cannot %s a %s request", op, w.state), err)
}

// SetContent sets the JSON content sent by POST, PUT and PATCH
func (w *Wrapper) SetContent(body models.Value) error {
	return w.configure("set content of", func() error {
		w.content = body.Clone()
		return nil
	})
}

// SetHeaders sets one header per object entry, replacing earlier values.
// String values are used verbatim and other primitives as JSON text;
// containers and null are skipped. A non-object is ignored.
func (w *Wrapper) SetHeaders(headers models.Value) error {
	return w.configure("set headers of", func() error {
		if !headers.IsObject() {
			return nil
		}
		for name, v := range headers.Pairs() {
			value, ok := headerValue(v)
			if !ok || name == "" {
				continue
			}
			w.headers.Set(name, value)
		}
		return nil
	})
}

func headerValue(v models.Value) (string, bool) {
	switch v.Kind() {
	case models.KindString:
		return v.Text(), true
	case models.KindBool, models.KindNumber:
		return formatter.Compact(v), true
	default:
		return "", false
	}
}

// AddHeader appends a header value
func (w *Wrapper) AddHeader(name, value string) error {
	return w.configure("add header to", func() error {
		if name == "" {
			return errors.NewHTTPError("header name must not be empty", errors.ErrHTTP)
		}
		w.headers.Add(name, value)
		return nil
	})
}

// AddAttachment queues a file for a multipart body. A path starting with
// '*' names a file searched for under the attachment root.
func (w *Wrapper) AddAttachment(attachment string) error {
	return w.configure("add attachment to", func() error {
		file := attachment
		if strings.HasPrefix(attachment, "*") {
			found, err := searchFile(w.attachmentRoot, strings.NewReplacer("*", "", "/", "").Replace(attachment))
			if err != nil {
				return err
			}
			file = found
		}

		info, err := os.Stat(file)
		if err != nil {
			return errors.NewIOError(fmt.Sprintf("attachment '%s' does not exist", file), err)
		}
		if info.IsDir() {
			return errors.NewIOError(fmt.Sprintf("attachment '%s' is a directory", file), errors.ErrIO)
		}
		w.attachments = append(w.attachments, file)
		return nil
	})
}

// Attachments returns the queued attachment paths
func (w *Wrapper) Attachments() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]string(nil), w.attachments...)
}

// searchFile walks root in lexical order and returns the first regular file
// called name
func searchFile(root, name string) (string, error) {
	var found string
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			// unreadable subtrees are skipped
			if d != nil && d.IsDir() && p != root {
				return fs.SkipDir
			}
			return err
		}
		if !d.IsDir() && d.Name() == name {
			found = p
			return fs.SkipAll
		}
		return nil
	})
	if err != nil {
		return "", errors.NewIOError(fmt.Sprintf("failed to search '%s' for '%s'", root, name), err)
	}
	if found == "" {
		return "", errors.NewIOError(fmt.Sprintf("no file named '%s' under '%s'", name, root), errors.ErrNotFound)
	}
	return found, nil
}

// Request builds the request. GET and DELETE carry no body, HEAD an
// explicit empty body and PATCH the JSON content. POST and PUT send the
// JSON content, switching to multipart/form-data when attachments are
// queued. MOCK builds without a body and cannot be processed.
func (w *Wrapper) Request() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state != StateNew && w.state != StateConfigured {
		return w.stateError("build")
	}

	var (
		body        io.Reader
		contentType string
	)
	switch {
	case w.method == MethodHead:
		body = http.NoBody
	case w.method.acceptsAttachments() && len(w.attachments) > 0:
		data, err := w.buildForm()
		if err != nil {
			return err
		}
		body = bytes.NewReader(data.Body())
		contentType = data.ContentType()
	case w.method.acceptsBody():
		body = strings.NewReader(formatter.Compact(w.content))
		contentType = "application/json; charset=UTF-8"
	}

	method := w.method.String()
	if w.method == MethodMock {
		method = http.MethodGet
	}
	req, err := http.NewRequest(method, w.url.String(), body)
	if err != nil {
		return errors.NewHTTPError("failed to build request", err)
	}
	req.Header = w.headers.Clone()
	if contentType != "" && (req.Header.Get("Content-Type") == "" || strings.HasPrefix(contentType, "multipart/")) {
		req.Header.Set("Content-Type", contentType)
	}

	w.req = req
	w.state = StateBuilt
	return nil
}

// buildForm reads every attachment into a multipart body. Transport copies
// are removed once the body is in memory.
func (w *Wrapper) buildForm() (*formdata.Data, error) {
	form := formdata.NewBuilder()
	defer func() {
		if err := form.Close(); err != nil {
			w.log.Error(err, "attachment cleanup")
		}
	}()

	for i, file := range w.attachments {
		if err := form.AddFile(strconv.Itoa(i+1), file, ""); err != nil {
			return nil, err
		}
	}
	form.AddText(PayloadField, formatter.Compact(w.content))
	return form.Build()
}

// Process sends a built request and returns the response. Lenient parsing
// removes trailing commas from the body before it is parsed.
func (w *Wrapper) Process(ctx context.Context, lenient bool) (*Response, error) {
	w.mu.Lock()
	if w.state != StateBuilt {
		err := w.stateError("process")
		w.mu.Unlock()
		return nil, err
	}
	if w.method == MethodMock {
		w.mu.Unlock()
		return nil, errors.NewBuilderStateError("mock requests are never sent", errors.ErrBuilderState)
	}
	req := w.req.WithContext(ctx)
	client, limiter, log := w.client, w.limiter, w.log
	w.mu.Unlock()

	if limiter != nil {
		if err := limiter.Wait(ctx); err != nil {
			return nil, errors.NewHTTPError("rate limit wait failed", err)
		}
	}

	timer := StartTimer()
	resp, err := client.Do(req)
	var raw []byte
	if err == nil {
		raw, err = io.ReadAll(resp.Body)
		_ = resp.Body.Close()
	}
	elapsed := timer.Stop()

	w.mu.Lock()
	w.elapsed = elapsed
	if w.state == StateBuilt {
		w.state = StateCompleted
	}
	w.mu.Unlock()

	if err != nil {
		log.Error(err, "request")
		return nil, errors.NewHTTPError(fmt.Sprintf("%s request to '%s' failed", w.method, req.URL), err)
	}

	finalURL := req.URL
	if resp.Request != nil && resp.Request.URL != nil {
		finalURL = resp.Request.URL
	}
	log.Request(w.method.String(), finalURL.String(), HumanDuration(elapsed))

	return &Response{
		requestHeaders:  req.Header.Clone(),
		responseHeaders: resp.Header.Clone(),
		url:             finalURL,
		statusCode:      resp.StatusCode,
		rawBody:         string(raw),
		lenient:         lenient,
		log:             log,
	}, nil
}

// Close releases the built request and prevents reuse. An in-flight
// Process is not interrupted.
func (w *Wrapper) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state == StateClosed {
		return nil
	}
	w.state = StateClosed
	w.req = nil
	w.client = nil
	w.attachments = nil
	return nil
}
