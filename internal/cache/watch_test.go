package cache

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcncl/skjson/internal/formatter"
	"github.com/mcncl/skjson/internal/models"
)

func TestWatcher_HandleExternalChange(t *testing.T) {
	dir := t.TempDir()
	file := writeDoc(t, dir, "doc.json", `{"v": 1}`)

	reg := New()
	require.NoError(t, reg.LoadFromFile("d", file))

	w, err := NewWatcher(reg, nil)
	require.NoError(t, err)
	defer func() { _ = w.Close() }()

	require.NoError(t, os.WriteFile(file, []byte(`{"v": 5}`), 0o644))
	reloaded := w.handle(fsnotify.Event{Name: file, Op: fsnotify.Write})
	assert.Equal(t, []string{"d"}, reloaded)

	doc, _ := reg.Get("d")
	assert.Equal(t, `{"v":5}`, formatter.Compact(doc))
}

func TestWatcher_IgnoresOwnWrites(t *testing.T) {
	dir := t.TempDir()
	file := writeDoc(t, dir, "doc.json", `{"v": 1}`)

	reg := New()
	require.NoError(t, reg.LoadFromFile("d", file))

	w, err := NewWatcher(reg, nil)
	require.NoError(t, err)
	defer func() { _ = w.Close() }()

	require.NoError(t, reg.Mutate("d", setKey("v", models.Int(2))))
	assert.Empty(t, w.handle(fsnotify.Event{Name: file, Op: fsnotify.Create}))
}

func TestWatcher_IgnoresUnrelatedEvents(t *testing.T) {
	dir := t.TempDir()
	file := writeDoc(t, dir, "doc.json", `{"v": 1}`)
	other := writeDoc(t, dir, "other.json", `{"v": 9}`)

	reg := New()
	require.NoError(t, reg.LoadFromFile("d", file))

	w, err := NewWatcher(reg, nil)
	require.NoError(t, err)
	defer func() { _ = w.Close() }()

	require.NoError(t, os.WriteFile(file, []byte(`{"v": 3}`), 0o644))
	assert.Empty(t, w.handle(fsnotify.Event{Name: other, Op: fsnotify.Write}))
	assert.Empty(t, w.handle(fsnotify.Event{Name: file, Op: fsnotify.Chmod}))
}

func TestWatcher_InvalidContentKeepsDocument(t *testing.T) {
	dir := t.TempDir()
	file := writeDoc(t, dir, "doc.json", `{"v": 1}`)

	reg := New()
	require.NoError(t, reg.LoadFromFile("d", file))

	w, err := NewWatcher(reg, nil)
	require.NoError(t, err)
	defer func() { _ = w.Close() }()

	require.NoError(t, os.WriteFile(file, []byte(`{"v": `), 0o644))
	assert.Empty(t, w.handle(fsnotify.Event{Name: file, Op: fsnotify.Write}))

	doc, _ := reg.Get("d")
	assert.Equal(t, `{"v":1}`, formatter.Compact(doc))
}

func TestWatcher_TracksLinkedDirectories(t *testing.T) {
	dir := t.TempDir()
	reg := New()

	w, err := NewWatcher(reg, nil)
	require.NoError(t, err)
	defer func() { _ = w.Close() }()

	require.NoError(t, reg.LoadInline("d", models.NewObject()))
	require.NoError(t, reg.Link("d", filepath.Join(dir, "d.json")))

	abs, err := filepath.Abs(dir)
	require.NoError(t, err)
	w.mu.Lock()
	defer w.mu.Unlock()
	assert.True(t, w.dirs[abs])
}

func TestWatcher_RunStopsOnCancel(t *testing.T) {
	reg := New()
	w, err := NewWatcher(reg, nil)
	require.NoError(t, err)
	defer func() { _ = w.Close() }()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
