package web

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/fsnotify/fsnotify"

	"github.com/JonMunkholm/dataengine/internal/core"
	"github.com/JonMunkholm/dataengine/internal/dataset"
	"github.com/JonMunkholm/dataengine/internal/logging"
)

// DefaultDebounce is the quiet period after the last change before reloading.
const DefaultDebounce = 500 * time.Millisecond

// Reloader rebuilds the dataset snapshot.
type Reloader interface {
	Reload(ctx context.Context) (*core.ImportReport, error)
}

// Watcher reloads datasets when a source file changes.
// Directories are watched rather than files so that editors which replace
// files on save keep triggering events.
type Watcher struct {
	reloader Reloader
	files    map[string]struct{}
	dirs     []string
	debounce time.Duration

	// OnReload, when set, receives the outcome of every reload.
	OnReload func(*core.ImportReport, error)
}

// NewWatcher watches the directories holding sources.
func NewWatcher(reloader Reloader, sources []core.Source, debounce time.Duration) *Watcher {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	w := &Watcher{
		reloader: reloader,
		files:    make(map[string]struct{}, len(sources)),
		debounce: debounce,
	}
	seen := make(map[string]bool)
	for _, src := range sources {
		path := filepath.Clean(src.Path)
		w.files[path] = struct{}{}
		dir := filepath.Dir(path)
		if !seen[dir] {
			seen[dir] = true
			w.dirs = append(w.dirs, dir)
		}
	}
	return w
}

// Run blocks until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	notify, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, "create watcher")
	}
	defer func() { _ = notify.Close() }()

	log := logging.FromContext(ctx)
	for _, dir := range w.dirs {
		if err := notify.Add(dir); err != nil {
			return errors.Wrapf(err, "watch %s", dir)
		}
		log.Debug("watching directory", "dir", dir)
	}

	// One goroutine runs reloads. A change seen while a reload is running
	// leaves one pending trigger, so the latest files are always read.
	trigger := make(chan struct{}, 1)
	done := make(chan struct{})
	loopCtx, stopLoop := context.WithCancel(ctx)
	go func() {
		defer close(done)
		w.reloadLoop(loopCtx, trigger)
	}()

	var (
		mu    sync.Mutex
		timer *time.Timer
	)
	defer func() {
		mu.Lock()
		if timer != nil {
			timer.Stop()
		}
		mu.Unlock()
		stopLoop()
		<-done
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-notify.Events:
			if !ok {
				return nil
			}
			if !w.relevant(event) {
				continue
			}
			log.Debug("source changed", "file", event.Name, "op", event.Op.String())

			mu.Lock()
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(w.debounce, func() { queueReload(trigger) })
			mu.Unlock()

		case err, ok := <-notify.Errors:
			if !ok {
				return nil
			}
			log.Warn("watcher error", logging.Err(err))
		}
	}
}

// queueReload queues a reload unless one is already queued.
func queueReload(trigger chan<- struct{}) {
	select {
	case trigger <- struct{}{}:
	default:
	}
}

func (w *Watcher) relevant(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
		return false
	}
	_, ok := w.files[filepath.Clean(event.Name)]
	return ok
}

// reloadLoop runs queued reloads one at a time until ctx is cancelled.
func (w *Watcher) reloadLoop(ctx context.Context, trigger chan struct{}) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-trigger:
		}
		if w.reload(ctx) {
			// A load started elsewhere holds the registry; try again after it.
			select {
			case <-ctx.Done():
				return
			case <-time.After(w.debounce):
				queueReload(trigger)
			}
		}
	}
}

// reload runs one reload and reports whether it must be retried.
func (w *Watcher) reload(ctx context.Context) bool {
	if ctx.Err() != nil {
		return false
	}
	log := logging.FromContext(ctx)
	report, err := w.reloader.Reload(ctx)
	switch {
	case errors.Is(err, dataset.ErrLoadInProgress):
		log.Debug("load in progress, reload deferred")
		return true
	case err != nil:
		log.Error("reload failed, keeping previous datasets", logging.Err(err))
	default:
		log.Info("datasets reloaded",
			"load_id", report.LoadID,
			"records", report.TotalRecords(),
			"duration", report.Duration,
		)
	}
	if w.OnReload != nil {
		w.OnReload(report, err)
	}
	return false
}
