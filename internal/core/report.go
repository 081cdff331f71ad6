package core

import "time"

// FileReport records how one dataset was loaded.
type FileReport struct {
	Name     string
	Path     string
	Format   string
	Records  int
	Duration time.Duration
}

// ImportReport summarizes one load or reload of the whole catalog.
type ImportReport struct {
	LoadID    string
	Reload    bool
	StartedAt time.Time
	Duration  time.Duration
	Files     []FileReport // Catalog order
}

// TotalRecords returns the number of records across all files.
func (r *ImportReport) TotalRecords() int {
	total := 0
	for _, f := range r.Files {
		total += f.Records
	}
	return total
}

// Observer receives load lifecycle events. Implementations must be safe for
// concurrent use; DatasetLoaded is called from worker goroutines in parallel mode.
type Observer interface {
	LoadStarted(loadID string, reload bool)
	DatasetLoaded(file FileReport)
	LoadFinished(report *ImportReport, err error)
}

// NopObserver ignores all events.
type NopObserver struct{}

func (NopObserver) LoadStarted(string, bool)          {}
func (NopObserver) DatasetLoaded(FileReport)          {}
func (NopObserver) LoadFinished(*ImportReport, error) {}
