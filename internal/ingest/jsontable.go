package ingest

import (
	"context"
	"io"
	"strconv"

	"github.com/cockroachdb/errors"
	"github.com/goccy/go-json"

	"github.com/JonMunkholm/dataengine/internal/dataset"
	"github.com/JonMunkholm/dataengine/internal/logging"
)

// JSONTableReader reads a JSON array of arrays. Element 0 holds the header
// names; every later element is one row.
//
// Scalars become strings: strings as-is, numbers as their literal text,
// booleans as "true"/"false" and null as "". Objects or arrays inside a row
// are a structural mismatch.
type JSONTableReader struct{}

// Read implements Reader.
func (JSONTableReader) Read(ctx context.Context, path string) (*Table, error) {
	f, err := openFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	text, counter := wrapText(f, fileSize(f))
	dec := json.NewDecoder(text)
	dec.UseNumber()

	var top any
	if err := dec.Decode(&top); err != nil {
		return nil, dataset.NewStructuralError(path, 0, 0, "decode json: %v", err)
	}
	var trailing any
	switch err := dec.Decode(&trailing); {
	case err == io.EOF:
	case err != nil:
		return nil, dataset.NewStructuralError(path, 0, 0, "content after top-level array: %v", err)
	default:
		return nil, dataset.NewStructuralError(path, 0, 0, "content after top-level array: %s", jsonKind(trailing))
	}
	elems, ok := top.([]any)
	if !ok {
		return nil, dataset.NewStructuralError(path, 0, 0, "top level is %s, want array", jsonKind(top))
	}
	if len(elems) == 0 {
		return nil, dataset.NewStructuralError(path, 0, 0, "missing header element")
	}

	headerElems, ok := elems[0].([]any)
	if !ok {
		return nil, dataset.NewStructuralError(path, 0, 0, "header is %s, want array", jsonKind(elems[0]))
	}
	header := make([]string, len(headerElems))
	for i, h := range headerElems {
		s, ok := h.(string)
		if !ok {
			return nil, dataset.NewStructuralError(path, 0, 0, "header element %d is %s, want string", i, jsonKind(h))
		}
		header[i] = s
	}

	table := &Table{Header: header, Rows: make([][]string, 0, len(elems)-1)}
	for i, elem := range elems[1:] {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		values, ok := elem.([]any)
		if !ok {
			return nil, dataset.NewStructuralError(path, 0, i, "row %d is %s, want array", i+1, jsonKind(elem))
		}
		row := make([]string, len(values))
		for j, v := range values {
			s, err := jsonScalar(v)
			if err != nil {
				return nil, dataset.NewStructuralError(path, 0, i, "row %d value %d: %v", i+1, j+1, err)
			}
			row[j] = s
		}
		table.Rows = append(table.Rows, row)
	}

	logging.FromContext(ctx).Debug("read json table",
		"path", path,
		"rows", len(table.Rows),
		"bytes", counter.n,
		"progress_pct", counter.Progress(),
	)
	return table, nil
}

func jsonScalar(v any) (string, error) {
	switch v := v.(type) {
	case nil:
		return "", nil
	case string:
		return v, nil
	case json.Number:
		return v.String(), nil
	case bool:
		return strconv.FormatBool(v), nil
	default:
		return "", errors.Newf("%s is not a scalar", jsonKind(v))
	}
}

func jsonKind(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case json.Number, float64:
		return "number"
	case bool:
		return "bool"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	default:
		return "unknown"
	}
}
