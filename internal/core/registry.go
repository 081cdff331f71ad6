package core

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/JonMunkholm/dataengine/internal/dataset"
	"github.com/JonMunkholm/dataengine/internal/ingest"
	"github.com/JonMunkholm/dataengine/internal/logging"
)

// State is the readiness state of a Registry.
type State int32

const (
	StateNotReady State = iota
	StateLoading
	StateReady
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateNotReady:
		return "not_ready"
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// DefaultMaxWorkers bounds concurrent file reads in parallel mode.
const DefaultMaxWorkers = 4

// Options configure a Registry.
type Options struct {
	Normalizer dataset.Normalizer
	Readers    ingest.Options
	Parallel   bool
	MaxWorkers int      // Parallel mode only; <= 0 selects DefaultMaxWorkers
	Observer   Observer // Optional
}

// snapshot is an immutable set of loaded datasets.
type snapshot struct {
	ordered []*dataset.Dataset
	byName  map[string]*dataset.Dataset
	report  *ImportReport
}

// Registry loads a fixed list of sources and serves the resulting datasets by
// name. Queries fail with dataset.ErrNotInitialized until a load succeeds.
//
// A load is all-or-nothing: either every source is read and the datasets are
// published together, or none are. Readers always observe a complete snapshot.
type Registry struct {
	sources []Source
	opts    Options

	state atomic.Int32
	snap  atomic.Pointer[snapshot]

	loadMu  sync.Mutex // Held for the duration of a load or reload
	failure error      // First load failure; guarded by loadMu
}

// NewRegistry creates an unready registry for sources, loaded in slice order.
func NewRegistry(sources []Source, opts Options) *Registry {
	if opts.Observer == nil {
		opts.Observer = NopObserver{}
	}
	if opts.MaxWorkers <= 0 {
		opts.MaxWorkers = DefaultMaxWorkers
	}
	return &Registry{
		sources: append([]Source(nil), sources...),
		opts:    opts,
	}
}

// State returns the current readiness state.
func (r *Registry) State() State {
	return State(r.state.Load())
}

// Sources returns the configured sources in load order.
func (r *Registry) Sources() []Source {
	return append([]Source(nil), r.sources...)
}

// LoadAll reads every source and publishes the datasets.
//
// From NotReady it performs the first load; a failure moves the registry to
// Failed for good. From Ready it behaves like Reload. A concurrent call fails
// with dataset.ErrLoadInProgress.
func (r *Registry) LoadAll(ctx context.Context) (*ImportReport, error) {
	if !r.loadMu.TryLock() {
		return nil, errors.WithStack(dataset.ErrLoadInProgress)
	}
	defer r.loadMu.Unlock()

	switch r.State() {
	case StateReady:
		return r.reloadLocked(ctx)
	case StateFailed:
		return nil, errors.Wrapf(dataset.ErrNotInitialized, "previous load failed: %v", r.failure)
	}

	r.state.Store(int32(StateLoading))
	snap, err := r.read(ctx, false)
	if err != nil {
		r.failure = err
		r.state.Store(int32(StateFailed))
		return nil, err
	}

	r.snap.Store(snap)
	r.state.Store(int32(StateReady))
	return snap.report, nil
}

// Reload re-reads every source into a fresh snapshot and swaps it in.
// On failure the previous snapshot stays published and the error is returned.
func (r *Registry) Reload(ctx context.Context) (*ImportReport, error) {
	if !r.loadMu.TryLock() {
		return nil, errors.WithStack(dataset.ErrLoadInProgress)
	}
	defer r.loadMu.Unlock()

	if r.State() != StateReady {
		return nil, errors.Wrap(dataset.ErrNotInitialized, "reload before first load")
	}
	return r.reloadLocked(ctx)
}

func (r *Registry) reloadLocked(ctx context.Context) (*ImportReport, error) {
	snap, err := r.read(ctx, true)
	if err != nil {
		logging.FromContext(ctx).Warn("reload failed, keeping previous datasets", logging.Err(err))
		return nil, err
	}
	r.snap.Store(snap)
	return snap.report, nil
}

// read loads every source into a new snapshot. Nothing is published here.
func (r *Registry) read(ctx context.Context, reload bool) (*snapshot, error) {
	report := &ImportReport{
		LoadID:    uuid.NewString(),
		Reload:    reload,
		StartedAt: time.Now(),
		Files:     make([]FileReport, len(r.sources)),
	}
	logger := logging.WithFields(ctx, "load_id", report.LoadID)
	ctx = logging.NewContext(ctx, logger)

	logger.Info("import started",
		"sources", len(r.sources),
		"parallel", r.opts.Parallel,
		"reload", reload,
	)
	r.opts.Observer.LoadStarted(report.LoadID, reload)

	datasets := make([]*dataset.Dataset, len(r.sources))
	var err error
	if r.opts.Parallel {
		err = r.readParallel(ctx, datasets, report.Files)
	} else {
		err = r.readSequential(ctx, datasets, report.Files)
	}
	report.Duration = time.Since(report.StartedAt)

	if err != nil {
		logger.Error("import failed", logging.Err(err), "duration", report.Duration)
		r.opts.Observer.LoadFinished(report, err)
		return nil, err
	}

	byName := make(map[string]*dataset.Dataset, len(datasets))
	for _, ds := range datasets {
		byName[ds.Name()] = ds
	}

	logger.Info("import finished",
		"records", report.TotalRecords(),
		"duration", report.Duration,
	)
	r.opts.Observer.LoadFinished(report, nil)
	return &snapshot{ordered: datasets, byName: byName, report: report}, nil
}

func (r *Registry) readSequential(ctx context.Context, out []*dataset.Dataset, files []FileReport) error {
	for i, src := range r.sources {
		ds, file, err := r.loadOne(ctx, src)
		if err != nil {
			return err
		}
		out[i], files[i] = ds, file
	}
	return nil
}

// readParallel fills per-slot results so catalog order survives concurrency.
func (r *Registry) readParallel(ctx context.Context, out []*dataset.Dataset, files []FileReport) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.opts.MaxWorkers)

	for i, src := range r.sources {
		g.Go(func() error {
			ds, file, err := r.loadOne(gctx, src)
			if err != nil {
				return err
			}
			out[i], files[i] = ds, file
			return nil
		})
	}
	return g.Wait()
}

func (r *Registry) loadOne(ctx context.Context, src Source) (*dataset.Dataset, FileReport, error) {
	start := time.Now()
	logger := logging.WithFields(ctx, "dataset", src.Name, "path", src.Path)
	ctx = logging.NewContext(ctx, logger)

	reader, format, err := ingest.ReaderFor(src.Path, r.opts.Readers)
	if err != nil {
		return nil, FileReport{}, errors.Wrapf(err, "load %s", src.Name)
	}

	table, err := reader.Read(ctx, src.Path)
	if err != nil {
		return nil, FileReport{}, errors.Wrapf(err, "load %s", src.Name)
	}

	norm := r.opts.Normalizer
	norm.Logger = logger
	ds, err := norm.Dataset(src.Name, src.Path, format.String(), table.Header, table.Rows)
	if err != nil {
		return nil, FileReport{}, errors.Wrapf(err, "load %s", src.Name)
	}

	file := FileReport{
		Name:     src.Name,
		Path:     src.Path,
		Format:   format.String(),
		Records:  ds.Len(),
		Duration: time.Since(start),
	}
	logger.Info("dataset loaded", "format", file.Format, "records", file.Records, "duration", file.Duration)
	r.opts.Observer.DatasetLoaded(file)
	return ds, file, nil
}

// ready returns the published snapshot, or ErrNotInitialized.
func (r *Registry) ready() (*snapshot, error) {
	if r.State() != StateReady {
		return nil, errors.WithStack(dataset.ErrNotInitialized)
	}
	return r.snap.Load(), nil
}

// DatasetNames returns the dataset names in load order.
func (r *Registry) DatasetNames() ([]string, error) {
	snap, err := r.ready()
	if err != nil {
		return nil, err
	}
	names := make([]string, len(snap.ordered))
	for i, ds := range snap.ordered {
		names[i] = ds.Name()
	}
	return names, nil
}

// HasDatasetName reports whether a dataset with the given name is loaded.
func (r *Registry) HasDatasetName(name string) (bool, error) {
	snap, err := r.ready()
	if err != nil {
		return false, err
	}
	_, ok := snap.byName[name]
	return ok, nil
}

// DatasetByName returns the named dataset.
func (r *Registry) DatasetByName(name string) (*dataset.Dataset, error) {
	snap, err := r.ready()
	if err != nil {
		return nil, err
	}
	ds, ok := snap.byName[name]
	if !ok {
		return nil, errors.Wrapf(dataset.ErrUnknownDatasetName, "%q", name)
	}
	return ds, nil
}

// AllDatasets returns every dataset in load order.
func (r *Registry) AllDatasets() ([]*dataset.Dataset, error) {
	snap, err := r.ready()
	if err != nil {
		return nil, err
	}
	return append([]*dataset.Dataset(nil), snap.ordered...), nil
}

// Headers returns the field names of the named dataset.
func (r *Registry) Headers(name string) ([]string, error) {
	ds, err := r.DatasetByName(name)
	if err != nil {
		return nil, err
	}
	return ds.Header(), nil
}

// LastReport returns the report of the load that produced the current datasets.
func (r *Registry) LastReport() (*ImportReport, error) {
	snap, err := r.ready()
	if err != nil {
		return nil, err
	}
	return snap.report, nil
}
