// Package bridge exposes the typed entry points a scripting host calls.
// It is the only layer that turns failures into null results: errors are
// logged through the configured logger and the host sees an empty value.
package bridge

import (
	"context"
	"fmt"
	"net/http"

	"github.com/ohler55/ojg/jp"
	"golang.org/x/time/rate"

	"github.com/mcncl/skjson/internal/cache"
	"github.com/mcncl/skjson/internal/config"
	"github.com/mcncl/skjson/internal/errors"
	"github.com/mcncl/skjson/internal/logger"
	"github.com/mcncl/skjson/internal/models"
	"github.com/mcncl/skjson/internal/mutate"
	"github.com/mcncl/skjson/internal/path"
	"github.com/mcncl/skjson/internal/request"
)

// Bridge ties the hot-cache, path and mutation operations and the request
// wrapper to one configuration
type Bridge struct {
	cfg     *config.Config
	cache   *cache.Registry
	log     *logger.Logger
	client  *http.Client
	limiter *rate.Limiter
}

// Option configures a Bridge
type Option func(*Bridge)

// WithRegistry uses an existing hot-cache
func WithRegistry(reg *cache.Registry) Option {
	return func(b *Bridge) {
		b.cache = reg
	}
}

// WithLogger replaces the logger built from the configuration
func WithLogger(log *logger.Logger) Option {
	return func(b *Bridge) {
		b.log = log
	}
}

// WithClient replaces the HTTP client built from the configuration
func WithClient(client *http.Client) Option {
	return func(b *Bridge) {
		b.client = client
	}
}

// WithLimiter replaces the request limiter built from the configuration
func WithLimiter(limiter *rate.Limiter) Option {
	return func(b *Bridge) {
		b.limiter = limiter
	}
}

// New creates a Bridge. A nil cfg uses the defaults.
func New(cfg *config.Config, opts ...Option) *Bridge {
	if cfg == nil {
		cfg = config.NewConfig()
	}
	b := &Bridge{cfg: cfg}
	for _, opt := range opts {
		opt(b)
	}
	if b.log == nil {
		b.log = logger.FromConfig(cfg)
	}
	if b.cache == nil {
		b.cache = cache.New(cache.WithLogger(b.log))
	}
	if b.client == nil {
		b.client = request.NewClient(cfg.RequestTimeout)
	}
	if b.limiter == nil {
		b.limiter = request.NewLimiter(cfg.RequestsPerSecond)
	}
	return b
}

// Config returns the active configuration
func (b *Bridge) Config() *config.Config {
	return b.cfg
}

// Registry returns the hot-cache
func (b *Bridge) Registry() *cache.Registry {
	return b.cache
}

// Logger returns the bridge logger
func (b *Bridge) Logger() *logger.Logger {
	return b.log
}

func (b *Bridge) parsePath(s string) (path.Path, error) {
	return path.Parse(s, b.cfg.Delimiter())
}

// HotCached returns the cached document as a single element, or nothing
// when name is not cached
func (b *Bridge) HotCached(name string) []models.Value {
	doc, err := b.cache.Get(name)
	if err != nil {
		b.log.Error(err, "hot-cache")
		return nil
	}
	return []models.Value{doc}
}

// GetHotCached returns the cached document or null
func (b *Bridge) GetHotCached(name string) models.Value {
	doc, err := b.cache.Get(name)
	if err != nil {
		b.log.Error(err, "hot-cache")
		return models.Null()
	}
	return doc
}

// GetHotCachedPath returns the node at pathStr inside a cached document,
// or null
func (b *Bridge) GetHotCachedPath(name, pathStr string) models.Value {
	return b.GetPath(b.GetHotCached(name), pathStr)
}

// IsHotCached reports whether name is cached
func (b *Bridge) IsHotCached(name string) bool {
	return b.cache.Contains(name)
}

// ListHotCached returns the cached names in load order
func (b *Bridge) ListHotCached() []string {
	return b.cache.List()
}

// LoadHotCache caches the document stored in file under name
func (b *Bridge) LoadHotCache(name, file string) error {
	if err := b.cache.LoadFromFile(name, file); err != nil {
		b.log.Error(err, "hot-cache load")
		return err
	}
	b.log.Infof("cached '%s' from '%s'", name, file)
	return nil
}

// CacheInline caches doc under name without a backing file
func (b *Bridge) CacheInline(name string, doc models.Value) error {
	if err := b.cache.LoadInline(name, doc); err != nil {
		b.log.Error(err, "hot-cache load")
		return err
	}
	return nil
}

// LinkHotCache attaches a backing file to a cached document
func (b *Bridge) LinkHotCache(name, file string) error {
	if err := b.cache.Link(name, file); err != nil {
		b.log.Error(err, "hot-cache link")
		return err
	}
	return nil
}

// SaveHotCache writes a cached document to its backing file
func (b *Bridge) SaveHotCache(name string) error {
	if err := b.cache.Flush(name); err != nil {
		b.log.Error(err, "hot-cache save")
		return err
	}
	return nil
}

// UnloadHotCache removes name from the cache, saving it first when needed
func (b *Bridge) UnloadHotCache(name string) error {
	if err := b.cache.Unload(name); err != nil {
		b.log.Error(err, "hot-cache unload")
		return err
	}
	return nil
}

// SetHotCached sets the node at pathStr inside a cached document. A path
// whose parent does not exist leaves the document unchanged.
func (b *Bridge) SetHotCached(name, pathStr string, value models.Value) error {
	p, err := b.parsePath(pathStr)
	if err != nil {
		b.log.Error(err, "hot-cache set")
		return err
	}
	err = b.cache.Mutate(name, func(doc models.Value) (models.Value, error) {
		return path.Set(doc, p, value), nil
	})
	if err != nil {
		b.log.Error(err, "hot-cache set")
	}
	return err
}

// RemoveHotCached removes the node at pathStr inside a cached document
func (b *Bridge) RemoveHotCached(name, pathStr string) error {
	p, err := b.parsePath(pathStr)
	if err != nil {
		b.log.Error(err, "hot-cache remove")
		return err
	}
	err = b.cache.Mutate(name, func(doc models.Value) (models.Value, error) {
		return path.Remove(doc, p), nil
	})
	if err != nil {
		b.log.Error(err, "hot-cache remove")
	}
	return err
}

// ChangeHotCached applies a deep key or value change to a cached document
func (b *Bridge) ChangeHotCached(name string, from, to any, mode mutate.Mode) error {
	change, err := toChange(from, to)
	if err != nil {
		b.log.Error(err, "hot-cache change")
		return err
	}
	err = b.cache.Mutate(name, func(doc models.Value) (models.Value, error) {
		return mutate.Apply(doc, mode, []mutate.Change{change}, true), nil
	})
	if err != nil {
		b.log.Error(err, "hot-cache change")
	}
	return err
}

// GetPath returns the node at pathStr or null when the path is invalid or
// does not resolve. An explicit null node and a missing node look the same.
func (b *Bridge) GetPath(root models.Value, pathStr string) models.Value {
	p, err := b.parsePath(pathStr)
	if err != nil {
		b.log.Error(err, "path")
		return models.Null()
	}
	v, ok := path.Get(root, p)
	if !ok {
		return models.Null()
	}
	return v
}

// SetPath returns root with the node at pathStr set to value
func (b *Bridge) SetPath(root models.Value, pathStr string, value models.Value) models.Value {
	p, err := b.parsePath(pathStr)
	if err != nil {
		b.log.Error(err, "path")
		return root
	}
	return path.Set(root, p, value)
}

// ChangeKeyOrValue renames keys or replaces values equal to from with to,
// at every depth. Arguments that cannot be converted leave root unchanged.
func (b *Bridge) ChangeKeyOrValue(root models.Value, from, to any, mode mutate.Mode) models.Value {
	change, err := toChange(from, to)
	if err != nil {
		b.log.Error(err, "change")
		return root
	}
	return mutate.Apply(root, mode, []mutate.Change{change}, true)
}

// ChangeKeysOrValues applies from[i] to to[i] in order, each change seeing
// the result of the previous one. Entries without a partner are ignored.
func (b *Bridge) ChangeKeysOrValues(root models.Value, from, to []any, mode mutate.Mode) models.Value {
	n := min(len(from), len(to))
	changes := make([]mutate.Change, 0, n)
	for i := 0; i < n; i++ {
		change, err := toChange(from[i], to[i])
		if err != nil {
			b.log.Error(err, "change")
			return root
		}
		changes = append(changes, change)
	}
	return mutate.Apply(root, mode, changes, true)
}

func toChange(from, to any) (mutate.Change, error) {
	f, err := models.FromInterface(from)
	if err != nil {
		return mutate.Change{}, err
	}
	t, err := models.FromInterface(to)
	if err != nil {
		return mutate.Change{}, err
	}
	return mutate.Change{From: f, To: t}, nil
}

// Query evaluates a JSONPath expression against root. Objects in the
// results have their keys in sorted order.
func (b *Bridge) Query(root models.Value, expr string) []models.Value {
	x, err := jp.ParseString(expr)
	if err != nil {
		b.log.Error(errors.NewPathError(fmt.Sprintf("invalid jsonpath '%s'", expr), err), "query")
		return nil
	}

	results := x.Get(root.Interface())
	out := make([]models.Value, 0, len(results))
	for _, r := range results {
		v, err := models.FromInterface(r)
		if err != nil {
			b.log.Error(err, "query")
			continue
		}
		out = append(out, v)
	}
	return out
}

// HTTPRequest creates a request wrapper. It fails with ErrDisabled when
// request handling is turned off.
func (b *Bridge) HTTPRequest(method, rawURL string) (*request.Wrapper, error) {
	if !b.cfg.HandleRequest {
		return nil, errors.ErrDisabled
	}
	m, err := request.ParseMethod(method)
	if err != nil {
		b.log.Error(err, "request")
		return nil, err
	}
	w := request.New(m, rawURL,
		request.WithClient(b.client),
		request.WithLimiter(b.limiter),
		request.WithLogger(b.log),
		request.WithAttachmentRoot(b.cfg.AttachmentRoot),
	)
	return w, nil
}

// Send builds w when needed and processes it. Any failure is logged and
// yields a nil response.
func (b *Bridge) Send(ctx context.Context, w *request.Wrapper, lenient bool) *request.Response {
	if w == nil {
		return nil
	}
	if s := w.State(); s == request.StateNew || s == request.StateConfigured {
		if err := w.Request(); err != nil {
			b.log.Error(err, "request")
			return nil
		}
	}
	resp, err := w.Process(ctx, lenient)
	if err != nil {
		b.log.Error(err, "request")
		return nil
	}
	return resp
}

// ResponseContent returns the interpreted body of resp as a JSON value,
// null when resp is nil
func (b *Bridge) ResponseContent(resp *request.Response, keepRaw bool) models.Value {
	if resp == nil {
		return models.Null()
	}
	return resp.Body(keepRaw).Value()
}

// Watch reloads cached documents when their backing files change, until
// ctx is done
func (b *Bridge) Watch(ctx context.Context) error {
	w, err := cache.NewWatcher(b.cache, b.log)
	if err != nil {
		b.log.Error(err, "watch")
		return err
	}
	defer func() { _ = w.Close() }()
	return w.Run(ctx)
}
