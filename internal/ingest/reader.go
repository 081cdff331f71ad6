package ingest

import (
	"context"
	"io/fs"
	"os"

	"github.com/cockroachdb/errors"

	"github.com/JonMunkholm/dataengine/internal/dataset"
)

// Table is the raw output of a reader: a header row and data rows in file order.
// Rows are not validated against the header.
type Table struct {
	Header []string
	Rows   [][]string
}

// Reader reads one source file into a Table.
type Reader interface {
	Read(ctx context.Context, path string) (*Table, error)
}

// Options tune reader behavior. Zero values select the defaults.
type Options struct {
	// XMLFooter is the line that ends a fixed-schema XML file.
	XMLFooter string
	// XMLAttributes is the number of element lines inside each <record> block.
	XMLAttributes int
	// XMLSkipLines is the number of leading lines ignored before the first block.
	XMLSkipLines int
}

const (
	DefaultXMLFooter     = "</state-county-wage-data>"
	DefaultXMLAttributes = 19
	DefaultXMLSkipLines  = 2
)

// ReaderFor returns the reader for the format of path.
func ReaderFor(path string, opts Options) (Reader, Format, error) {
	f, err := FormatFromPath(path)
	if err != nil {
		return nil, FormatUnknown, err
	}
	switch f {
	case FormatCSV:
		return DelimitedReader{}, f, nil
	case FormatXLSX:
		return SpreadsheetReader{}, f, nil
	case FormatJSON:
		return JSONTableReader{}, f, nil
	default:
		return NewFixedSchemaXMLReader(opts), f, nil
	}
}

// openFile opens path for reading, mapping a missing file to ErrFileNotFound.
func openFile(path string) (*os.File, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, errors.Wrapf(dataset.ErrFileNotFound, "%s", path)
		}
		return nil, errors.Wrapf(err, "open %s", path)
	}
	return f, nil
}

// fileSize returns the size of an open file, or 0 when unknown.
func fileSize(f *os.File) int64 {
	info, err := f.Stat()
	if err != nil {
		return 0
	}
	return info.Size()
}
