package ingest

import (
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/JonMunkholm/dataengine/internal/dataset"
)

// Format identifies a source file format.
type Format int

const (
	FormatUnknown Format = iota
	FormatCSV
	FormatXLSX
	FormatJSON
	FormatXML
)

// String returns the extension tag of the format.
func (f Format) String() string {
	switch f {
	case FormatCSV:
		return "csv"
	case FormatXLSX:
		return "xlsx"
	case FormatJSON:
		return "json"
	case FormatXML:
		return "xml"
	default:
		return "unknown"
	}
}

// FormatFromPath selects a format from the file extension, ignoring case.
func FormatFromPath(path string) (Format, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	switch ext {
	case "csv":
		return FormatCSV, nil
	case "xlsx":
		return FormatXLSX, nil
	case "json":
		return FormatJSON, nil
	case "xml":
		return FormatXML, nil
	}
	if ext == "" {
		return FormatUnknown, errors.Wrapf(dataset.ErrUnsupportedFormat, "%s: no file extension", path)
	}
	return FormatUnknown, errors.Wrapf(dataset.ErrUnsupportedFormat, "%s: extension %q", path, ext)
}
