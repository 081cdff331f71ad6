package dataset

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

var (
	// ErrFileNotFound is returned when a source file does not exist.
	ErrFileNotFound = errors.New("file not found")

	// ErrUnsupportedFormat is returned for a file extension no reader handles.
	ErrUnsupportedFormat = errors.New("unsupported format")

	// ErrStructuralMismatch is returned when a file does not follow the layout its
	// format requires. Readers may return partial results alongside it.
	ErrStructuralMismatch = errors.New("structural mismatch")

	// ErrRowLengthMismatch is returned when a row does not fit the header.
	ErrRowLengthMismatch = errors.New("row length mismatch")

	// ErrDuplicateHeader is returned when a header names the same field twice.
	ErrDuplicateHeader = errors.New("duplicate header name")

	// ErrUnknownDatasetName is returned by lookups for a name the registry does not hold.
	ErrUnknownDatasetName = errors.New("unknown dataset name")

	// ErrNotInitialized is returned by every registry query before a successful load.
	ErrNotInitialized = errors.New("data engine not initialized")

	// ErrLoadInProgress is returned when a load is requested while one is running.
	ErrLoadInProgress = errors.New("load already in progress")
)

// StructuralError describes where a file stopped matching its expected layout.
// It unwraps to ErrStructuralMismatch.
type StructuralError struct {
	Path   string // Source file
	Line   int    // 1-based line (or row) where parsing stopped, 0 if unknown
	Parsed int    // Records successfully parsed before the failure
	Reason string
}

func (e *StructuralError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s:%d: structural mismatch: %s (%d records parsed)", e.Path, e.Line, e.Reason, e.Parsed)
	}
	return fmt.Sprintf("%s: structural mismatch: %s (%d records parsed)", e.Path, e.Reason, e.Parsed)
}

func (e *StructuralError) Unwrap() error {
	return ErrStructuralMismatch
}

// NewStructuralError builds a StructuralError.
func NewStructuralError(path string, line, parsed int, format string, args ...any) *StructuralError {
	return &StructuralError{
		Path:   path,
		Line:   line,
		Parsed: parsed,
		Reason: fmt.Sprintf(format, args...),
	}
}
