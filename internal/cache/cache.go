// Package cache implements the hot-cache: a named registry of JSON documents,
// each optionally linked to a file that every committed mutation is written
// through to.
package cache

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"github.com/mcncl/skjson/internal/errors"
	"github.com/mcncl/skjson/internal/formatter"
	"github.com/mcncl/skjson/internal/logger"
	"github.com/mcncl/skjson/internal/models"
	"github.com/mcncl/skjson/internal/parser"
)

// MutateFunc derives the next document from the current one.
type MutateFunc func(doc models.Value) (models.Value, error)

type entry struct {
	// writeMu serialises mutate, flush, reload and unload of one entry.
	writeMu sync.Mutex

	mu      sync.RWMutex
	doc     models.Value
	file    string
	dirty   bool
	removed bool
}

func (e *entry) snapshot() (models.Value, string, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.doc, e.file, e.dirty
}

// Registry maps names to cached documents. Names are case-sensitive and
// kept in insertion order.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*entry
	order   []string
	log     *logger.Logger
	onFile  func(file string)
}

// Option configures a Registry
type Option func(*Registry)

// WithLogger sets the logger used for write-through diagnostics
func WithLogger(l *logger.Logger) Option {
	return func(r *Registry) {
		r.log = l
	}
}

// New creates an empty Registry
func New(opts ...Option) *Registry {
	r := &Registry{
		entries: make(map[string]*entry),
		log:     logger.Discard(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Registry) lookup(name string) (*entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[name]
	if !ok {
		return nil, errors.NewNotFoundError(fmt.Sprintf("cache entry '%s'", name), errors.ErrNotFound)
	}
	return e, nil
}

func (r *Registry) insert(name string, e *entry) error {
	r.mu.Lock()
	if _, exists := r.entries[name]; exists {
		r.mu.Unlock()
		return errors.NewDuplicateError(fmt.Sprintf("cache entry '%s' already loaded", name), errors.ErrDuplicate)
	}
	r.entries[name] = e
	r.order = append(r.order, name)
	hook := r.onFile
	r.mu.Unlock()

	if e.file != "" && hook != nil {
		hook(e.file)
	}
	return nil
}

// LoadFromFile parses the file at path and caches it under name, linked to
// that file.
func (r *Registry) LoadFromFile(name, path string) error {
	if r.Contains(name) {
		return errors.NewDuplicateError(fmt.Sprintf("cache entry '%s' already loaded", name), errors.ErrDuplicate)
	}
	doc, err := parser.ParseFile(path)
	if err != nil {
		return err
	}
	if err := r.insert(name, &entry{doc: doc, file: filepath.Clean(path)}); err != nil {
		return err
	}
	r.log.Debugf("hot-cache: loaded '%s' from %s", name, path)
	return nil
}

// LoadInline caches doc under name without a backing file.
func (r *Registry) LoadInline(name string, doc models.Value) error {
	return r.insert(name, &entry{doc: doc.Clone()})
}

// Get returns a copy of the current document.
func (r *Registry) Get(name string) (models.Value, error) {
	e, err := r.lookup(name)
	if err != nil {
		return models.Value{}, err
	}
	doc, _, _ := e.snapshot()
	return doc.Clone(), nil
}

// Contains reports whether name is cached.
func (r *Registry) Contains(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.entries[name]
	return ok
}

// File returns the backing file of name, if any.
func (r *Registry) File(name string) (string, bool) {
	e, err := r.lookup(name)
	if err != nil {
		return "", false
	}
	_, file, _ := e.snapshot()
	return file, file != ""
}

// IsDirty reports whether name has changes not yet written to its file.
func (r *Registry) IsDirty(name string) bool {
	e, err := r.lookup(name)
	if err != nil {
		return false
	}
	_, _, dirty := e.snapshot()
	return dirty
}

// List returns the cached names in insertion order.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.order)
}

// Mutate applies f to the document of name. When the entry has a backing
// file the result is written to it before Mutate returns; if that write
// fails the in-memory document is left unchanged.
func (r *Registry) Mutate(name string, f MutateFunc) error {
	e, err := r.lookup(name)
	if err != nil {
		return err
	}

	e.writeMu.Lock()
	defer e.writeMu.Unlock()
	if e.removed {
		return errors.NewNotFoundError(fmt.Sprintf("cache entry '%s'", name), errors.ErrNotFound)
	}

	current, file, _ := e.snapshot()
	next, err := f(current.Clone())
	if err != nil {
		return err
	}

	if file != "" {
		if err := writeFile(file, next); err != nil {
			r.log.Error(err, fmt.Sprintf("hot-cache: write-through of '%s'", name))
			return err
		}
	}

	e.mu.Lock()
	e.doc = next
	if file != "" {
		e.dirty = false
	}
	e.mu.Unlock()
	return nil
}

// Link attaches file to name. The entry stays dirty until the next
// successful Flush or Mutate.
func (r *Registry) Link(name, file string) error {
	e, err := r.lookup(name)
	if err != nil {
		return err
	}

	e.writeMu.Lock()
	e.mu.Lock()
	e.file = filepath.Clean(file)
	e.dirty = true
	e.mu.Unlock()
	e.writeMu.Unlock()

	r.mu.RLock()
	hook := r.onFile
	r.mu.RUnlock()
	if hook != nil {
		hook(filepath.Clean(file))
	}
	return nil
}

// Flush writes a dirty entry to its backing file.
func (r *Registry) Flush(name string) error {
	e, err := r.lookup(name)
	if err != nil {
		return err
	}
	e.writeMu.Lock()
	defer e.writeMu.Unlock()
	return flushLocked(e)
}

func flushLocked(e *entry) error {
	doc, file, dirty := e.snapshot()
	if file == "" || !dirty {
		return nil
	}
	if err := writeFile(file, doc); err != nil {
		return err
	}
	e.mu.Lock()
	e.dirty = false
	e.mu.Unlock()
	return nil
}

// Reload replaces the document of name with the current contents of its
// backing file. It reports whether the document changed.
func (r *Registry) Reload(name string) (bool, error) {
	e, err := r.lookup(name)
	if err != nil {
		return false, err
	}

	e.writeMu.Lock()
	defer e.writeMu.Unlock()
	if e.removed {
		return false, errors.NewNotFoundError(fmt.Sprintf("cache entry '%s'", name), errors.ErrNotFound)
	}

	current, file, _ := e.snapshot()
	if file == "" {
		return false, errors.NewIOError(fmt.Sprintf("cache entry '%s' has no backing file", name), errors.ErrIO)
	}
	data, err := os.ReadFile(file)
	if err != nil {
		return false, errors.NewIOError(fmt.Sprintf("failed to read file '%s'", file), err)
	}
	if bytes.Equal(data, []byte(formatter.Pretty(current))) {
		return false, nil
	}
	doc, err := parser.ParseBytes(data)
	if err != nil {
		return false, err
	}
	if doc.Equal(current) {
		return false, nil
	}

	e.mu.Lock()
	e.doc = doc
	e.dirty = false
	e.mu.Unlock()
	r.log.Debugf("hot-cache: reloaded '%s' from %s", name, file)
	return true, nil
}

// Unload removes name, flushing it first when it is dirty. A failed flush
// keeps the entry.
func (r *Registry) Unload(name string) error {
	e, err := r.lookup(name)
	if err != nil {
		return err
	}

	e.writeMu.Lock()
	defer e.writeMu.Unlock()
	if err := flushLocked(e); err != nil {
		return err
	}
	e.removed = true

	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, name)
	if i := slices.Index(r.order, name); i >= 0 {
		r.order = slices.Delete(r.order, i, i+1)
	}
	return nil
}

// files returns name → backing file for every linked entry.
func (r *Registry) files() map[string]string {
	r.mu.RLock()
	entries := make(map[string]*entry, len(r.entries))
	for name, e := range r.entries {
		entries[name] = e
	}
	r.mu.RUnlock()

	out := make(map[string]string)
	for name, e := range entries {
		if _, file, _ := e.snapshot(); file != "" {
			out[name] = file
		}
	}
	return out
}

func (r *Registry) setFileHook(hook func(file string)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onFile = hook
}

// writeFile replaces path with the pretty serialisation of doc by writing a
// temporary sibling and renaming it into place.
func writeFile(path string, doc models.Value) error {
	dir, base := filepath.Split(path)
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.NewIOError(fmt.Sprintf("failed to create directory for '%s'", path), err)
	}

	tmp, err := os.CreateTemp(dir, "."+base+".tmp-*")
	if err != nil {
		return errors.NewIOError(fmt.Sprintf("failed to create temporary file for '%s'", path), err)
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := tmp.WriteString(formatter.Pretty(doc)); err != nil {
		_ = tmp.Close()
		cleanup()
		return errors.NewIOError(fmt.Sprintf("failed to write '%s'", path), err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		cleanup()
		return errors.NewIOError(fmt.Sprintf("failed to sync '%s'", path), err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return errors.NewIOError(fmt.Sprintf("failed to close '%s'", path), err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		cleanup()
		return errors.NewIOError(fmt.Sprintf("failed to set permissions on '%s'", path), err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		cleanup()
		return errors.NewIOError(fmt.Sprintf("failed to replace '%s'", path), err)
	}
	return nil
}
