package cache

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/mcncl/skjson/internal/errors"
	"github.com/mcncl/skjson/internal/logger"
)

// Watcher reloads cached documents whose backing files are changed by
// another process. Directories are watched rather than files because
// write-through replaces files by rename.
type Watcher struct {
	reg *Registry
	fs  *fsnotify.Watcher
	log *logger.Logger

	mu   sync.Mutex
	dirs map[string]bool
}

// NewWatcher starts watching the backing files of reg, including files
// linked after the watcher is created.
func NewWatcher(reg *Registry, log *logger.Logger) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.NewIOError("failed to create file watcher", err)
	}
	if log == nil {
		log = logger.Discard()
	}
	w := &Watcher{
		reg:  reg,
		fs:   fw,
		log:  log,
		dirs: make(map[string]bool),
	}
	for _, file := range reg.files() {
		w.addFile(file)
	}
	reg.setFileHook(w.addFile)
	return w, nil
}

func (w *Watcher) addFile(file string) {
	abs, err := filepath.Abs(file)
	if err != nil {
		w.log.Error(err, "hot-cache watcher")
		return
	}
	dir := filepath.Dir(abs)

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.dirs[dir] {
		return
	}
	if err := w.fs.Add(dir); err != nil {
		w.log.Error(err, fmt.Sprintf("hot-cache watcher: watching %s", dir))
		return
	}
	w.dirs[dir] = true
}

// Run processes file events until ctx is cancelled or the watcher is closed.
func (w *Watcher) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			w.handle(event)
		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			w.log.Error(err, "hot-cache watcher")
		}
	}
}

// handle reloads every entry backed by the file named in event. It returns
// the names that were reloaded.
func (w *Watcher) handle(event fsnotify.Event) []string {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
		return nil
	}
	target, err := filepath.Abs(event.Name)
	if err != nil {
		return nil
	}

	var reloaded []string
	for name, file := range w.reg.files() {
		abs, err := filepath.Abs(file)
		if err != nil || abs != target {
			continue
		}
		changed, err := w.reg.Reload(name)
		if err != nil {
			// partially written or invalid files keep the cached document
			w.log.Error(err, fmt.Sprintf("hot-cache watcher: reloading '%s'", name))
			continue
		}
		if changed {
			w.log.Infof("reloaded '%s' from '%s'", name, file)
			reloaded = append(reloaded, name)
		}
	}
	return reloaded
}

// Close stops watching and detaches from the registry.
func (w *Watcher) Close() error {
	w.reg.setFileHook(nil)
	return w.fs.Close()
}
