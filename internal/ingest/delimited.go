package ingest

import (
	"context"
	"encoding/csv"
	"io"

	"github.com/cockroachdb/errors"

	"github.com/JonMunkholm/dataengine/internal/dataset"
	"github.com/JonMunkholm/dataengine/internal/logging"
)

// DelimitedReader reads comma-separated text. The first row is the header.
//
// Quoted fields may contain commas, quotes and newlines. Rows may have any
// number of fields; length checks happen in the normalizer.
type DelimitedReader struct{}

// Read implements Reader.
func (DelimitedReader) Read(ctx context.Context, path string) (*Table, error) {
	f, err := openFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	text, counter := wrapText(f, fileSize(f))
	r := csv.NewReader(text)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	header, err := r.Read()
	if err == io.EOF {
		return nil, dataset.NewStructuralError(path, 1, 0, "missing header row")
	}
	if err != nil {
		return nil, wrapCSVError(path, 0, err)
	}

	table := &Table{Header: header}
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, wrapCSVError(path, len(table.Rows), err)
		}
		table.Rows = append(table.Rows, row)
	}

	logging.FromContext(ctx).Debug("read delimited file",
		"path", path,
		"rows", len(table.Rows),
		"bytes", counter.n,
		"progress_pct", counter.Progress(),
	)
	return table, nil
}

func wrapCSVError(path string, parsed int, err error) error {
	var pe *csv.ParseError
	if errors.As(err, &pe) {
		return dataset.NewStructuralError(path, pe.Line, parsed, "%v", pe.Err)
	}
	return errors.Wrapf(err, "read %s", path)
}
