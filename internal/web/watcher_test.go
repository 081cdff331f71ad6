package web

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/dataengine/internal/core"
	"github.com/JonMunkholm/dataengine/internal/dataset"
)

type countingReloader struct {
	calls atomic.Int32
}

func (c *countingReloader) Reload(context.Context) (*core.ImportReport, error) {
	c.calls.Add(1)
	return &core.ImportReport{LoadID: "test"}, nil
}

func TestNewWatcher_DedupesDirectories(t *testing.T) {
	dir := t.TempDir()
	w := NewWatcher(&countingReloader{}, []core.Source{
		{Name: "A", Path: filepath.Join(dir, "a.csv")},
		{Name: "B", Path: filepath.Join(dir, "b.json")},
		{Name: "C", Path: filepath.Join(dir, "sub", "c.xml")},
	}, 0)

	assert.Equal(t, []string{dir, filepath.Join(dir, "sub")}, w.dirs)
	assert.Equal(t, DefaultDebounce, w.debounce)
}

func TestWatcher_Relevant(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.csv")
	w := NewWatcher(&countingReloader{}, []core.Source{{Name: "A", Path: path}}, time.Millisecond)

	assert.True(t, w.relevant(fsnotify.Event{Name: path, Op: fsnotify.Write}))
	assert.True(t, w.relevant(fsnotify.Event{Name: path, Op: fsnotify.Create}))
	assert.False(t, w.relevant(fsnotify.Event{Name: path, Op: fsnotify.Chmod}))
	assert.False(t, w.relevant(fsnotify.Event{Name: filepath.Join(dir, "other.csv"), Op: fsnotify.Write}))
}

func TestWatcher_ReloadsOnChange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.csv")
	require.NoError(t, os.WriteFile(path, []byte("A\n1\n"), 0o644))

	reloader := &countingReloader{}
	w := NewWatcher(reloader, []core.Source{{Name: "A", Path: path}}, 10*time.Millisecond)

	var reported atomic.Bool
	w.OnReload = func(report *core.ImportReport, err error) {
		if err == nil && report.LoadID == "test" {
			reported.Store(true)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	// Keep touching the file until the watcher has picked it up.
	require.Eventually(t, func() bool {
		_ = os.WriteFile(path, []byte("A\n2\n"), 0o644)
		return reported.Load()
	}, 5*time.Second, 50*time.Millisecond)
	assert.Positive(t, reloader.calls.Load())

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not stop")
	}
}

func TestWatcher_MissingDirectory(t *testing.T) {
	w := NewWatcher(&countingReloader{}, []core.Source{
		{Name: "A", Path: filepath.Join(t.TempDir(), "missing", "a.csv")},
	}, time.Millisecond)

	err := w.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "watch")
}

// slowReloader reads the watched file, then holds the load for delay.
// Like the registry, a reload that overlaps another fails.
type slowReloader struct {
	mu      sync.Mutex
	path    string
	delay   time.Duration
	calls   atomic.Int32
	busy    atomic.Int32
	content atomic.Value
}

func (s *slowReloader) Reload(context.Context) (*core.ImportReport, error) {
	if !s.mu.TryLock() {
		s.busy.Add(1)
		return nil, errors.WithStack(dataset.ErrLoadInProgress)
	}
	defer s.mu.Unlock()
	s.calls.Add(1)

	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, err
	}
	s.content.Store(string(data))
	time.Sleep(s.delay)
	return &core.ImportReport{LoadID: "slow"}, nil
}

func (s *slowReloader) loaded() string {
	v, _ := s.content.Load().(string)
	return v
}

func TestWatcher_ChangeDuringReloadIsNotLost(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.csv")
	require.NoError(t, os.WriteFile(path, []byte("v1"), 0o644))

	reloader := &slowReloader{path: path, delay: 300 * time.Millisecond}
	w := NewWatcher(reloader, []core.Source{{Name: "A", Path: path}}, 20*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = w.Run(ctx) }()

	require.Eventually(t, func() bool {
		_ = os.WriteFile(path, []byte("v1"), 0o644)
		return reloader.calls.Load() > 0
	}, 5*time.Second, 50*time.Millisecond)

	// The first reload is still sleeping.
	require.NoError(t, os.WriteFile(path, []byte("v2"), 0o644))

	require.Eventually(t, func() bool {
		return reloader.loaded() == "v2"
	}, 5*time.Second, 20*time.Millisecond)
	assert.Zero(t, reloader.busy.Load(), "reloads must not overlap")
}

func TestWatcher_ReloadLoopCoalescesTriggers(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.csv")
	require.NoError(t, os.WriteFile(path, []byte("v1"), 0o644))

	reloader := &slowReloader{path: path, delay: 200 * time.Millisecond}
	w := NewWatcher(reloader, []core.Source{{Name: "A", Path: path}}, 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	trigger := make(chan struct{}, 1)
	done := make(chan struct{})
	go func() {
		defer close(done)
		w.reloadLoop(ctx, trigger)
	}()

	queueReload(trigger)
	require.Eventually(t, func() bool { return reloader.calls.Load() == 1 }, 2*time.Second, 5*time.Millisecond)

	// Three changes during the running reload collapse into one more reload.
	queueReload(trigger)
	queueReload(trigger)
	queueReload(trigger)

	require.Eventually(t, func() bool { return reloader.calls.Load() == 2 }, 2*time.Second, 5*time.Millisecond)
	time.Sleep(300 * time.Millisecond)
	assert.Equal(t, int32(2), reloader.calls.Load())
	assert.Zero(t, reloader.busy.Load())

	cancel()
	<-done
}

func TestWatcher_RetriesWhenLoadInProgress(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.csv")
	require.NoError(t, os.WriteFile(path, []byte("v1"), 0o644))

	reloader := &slowReloader{path: path}
	w := NewWatcher(reloader, []core.Source{{Name: "A", Path: path}}, 10*time.Millisecond)

	// Another caller holds the registry when the first reload runs.
	reloader.mu.Lock()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	trigger := make(chan struct{}, 1)
	go w.reloadLoop(ctx, trigger)
	queueReload(trigger)

	require.Eventually(t, func() bool { return reloader.busy.Load() > 0 }, 2*time.Second, 5*time.Millisecond)
	reloader.mu.Unlock()

	require.Eventually(t, func() bool { return reloader.loaded() == "v1" }, 2*time.Second, 5*time.Millisecond)
}
