package dataset

// normalize.go zips reader output (header row + raw rows) into records.
//
// Header validation rejects empty and duplicate names so that every record of a
// dataset has a well-defined key set. Row validation applies the short-row policy;
// long rows are always rejected since there is no field to hold the extra values.

import (
	"log/slog"
	"strings"

	"github.com/cockroachdb/errors"
)

// ShortRowPolicy decides what happens to a row with fewer values than the header.
type ShortRowPolicy int

const (
	// PadShortRows fills missing values with "" and logs a warning.
	PadShortRows ShortRowPolicy = iota
	// RejectShortRows fails the row with ErrRowLengthMismatch.
	RejectShortRows
)

func (p ShortRowPolicy) String() string {
	switch p {
	case PadShortRows:
		return "pad"
	case RejectShortRows:
		return "reject"
	default:
		return "unknown"
	}
}

// ParseShortRowPolicy converts "pad" or "reject" to a ShortRowPolicy.
func ParseShortRowPolicy(s string) (ShortRowPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "pad":
		return PadShortRows, nil
	case "reject":
		return RejectShortRows, nil
	default:
		return PadShortRows, errors.Newf("invalid short row policy %q (want pad or reject)", s)
	}
}

// Normalizer builds headers and records from raw reader output.
type Normalizer struct {
	ShortRows ShortRowPolicy
	Logger    *slog.Logger // Optional; defaults to slog.Default()
}

func (n Normalizer) logger() *slog.Logger {
	if n.Logger != nil {
		return n.Logger
	}
	return slog.Default()
}

// Header validates a header row. Names are trimmed of surrounding whitespace.
func (n Normalizer) Header(names []string) (*Header, error) {
	if len(names) == 0 {
		return nil, errors.Wrap(ErrStructuralMismatch, "empty header row")
	}

	h := &Header{
		names: make([]string, len(names)),
		index: make(map[string]int, len(names)),
	}
	for i, raw := range names {
		name := strings.TrimSpace(raw)
		if name == "" {
			return nil, errors.Wrapf(ErrStructuralMismatch, "empty header name in column %d", i+1)
		}
		if prev, dup := h.index[name]; dup {
			return nil, errors.Wrapf(ErrDuplicateHeader, "%q in columns %d and %d", name, prev+1, i+1)
		}
		h.names[i] = name
		h.index[name] = i
	}
	return h, nil
}

// Record zips one row against the header. row is the 1-based data row number
// used in errors and warnings.
func (n Normalizer) Record(h *Header, values []string, row int) (Record, error) {
	switch {
	case len(values) > h.Len():
		return Record{}, errors.Wrapf(ErrRowLengthMismatch,
			"row %d has %d values, header has %d fields", row, len(values), h.Len())

	case len(values) < h.Len():
		if n.ShortRows == RejectShortRows {
			return Record{}, errors.Wrapf(ErrRowLengthMismatch,
				"row %d has %d values, header has %d fields", row, len(values), h.Len())
		}
		n.logger().Warn("padding short row",
			"row", row,
			"values", len(values),
			"fields", h.Len(),
		)
		padded := make([]string, h.Len())
		copy(padded, values)
		return Record{header: h, values: padded}, nil
	}

	owned := make([]string, len(values))
	copy(owned, values)
	return Record{header: h, values: owned}, nil
}

// Dataset normalizes a full header + rows pair into a dataset.
// A dataset without rows is a structural mismatch.
func (n Normalizer) Dataset(name, source, format string, header []string, rows [][]string) (*Dataset, error) {
	h, err := n.Header(header)
	if err != nil {
		return nil, errors.Wrapf(err, "%s", source)
	}
	if len(rows) == 0 {
		return nil, NewStructuralError(source, 0, 0, "no data rows")
	}

	records := make([]Record, 0, len(rows))
	for i, row := range rows {
		rec, err := n.Record(h, row, i+1)
		if err != nil {
			return nil, errors.Wrapf(err, "%s", source)
		}
		records = append(records, rec)
	}
	return NewDataset(name, source, format, h, records), nil
}
