package dataset

import (
	"bytes"
	"encoding/json"
	"iter"
)

// Header is the ordered, duplicate-free list of field names of a dataset.
type Header struct {
	names []string
	index map[string]int
}

// Names returns a copy of the field names in order.
func (h *Header) Names() []string {
	out := make([]string, len(h.names))
	copy(out, h.names)
	return out
}

// Len returns the number of fields.
func (h *Header) Len() int {
	return len(h.names)
}

// Record is one row of a dataset: an ordered mapping from field name to value.
// The zero Record has no fields.
type Record struct {
	header *Header
	values []string
}

// Len returns the number of fields in the record.
func (r Record) Len() int {
	return len(r.values)
}

// Get returns the value of a field.
func (r Record) Get(name string) (string, bool) {
	if r.header == nil {
		return "", false
	}
	i, ok := r.header.index[name]
	if !ok {
		return "", false
	}
	return r.values[i], true
}

// Values returns a copy of the values in header order.
func (r Record) Values() []string {
	out := make([]string, len(r.values))
	copy(out, r.values)
	return out
}

// All iterates over the fields in header order.
func (r Record) All() iter.Seq2[string, string] {
	return func(yield func(string, string) bool) {
		for i, v := range r.values {
			if !yield(r.header.names[i], v) {
				return
			}
		}
	}
}

// MarshalJSON encodes the record as a JSON object with keys in header order.
func (r Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	i := 0
	for k, v := range r.All() {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
		i++
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Dataset is a named, ordered collection of records read from one source file.
type Dataset struct {
	name    string
	source  string
	format  string
	header  *Header
	records []Record
}

// NewDataset assembles a dataset. Every record must have been built against header.
func NewDataset(name, source, format string, header *Header, records []Record) *Dataset {
	return &Dataset{
		name:    name,
		source:  source,
		format:  format,
		header:  header,
		records: records,
	}
}

// Name returns the canonical dataset name.
func (d *Dataset) Name() string { return d.name }

// Source returns the path the dataset was read from.
func (d *Dataset) Source() string { return d.source }

// Format returns the format tag of the source file.
func (d *Dataset) Format() string { return d.format }

// Header returns the field names shared by every record.
func (d *Dataset) Header() []string { return d.header.Names() }

// Len returns the number of records.
func (d *Dataset) Len() int { return len(d.records) }

// HasField reports whether name is one of the dataset's fields.
func (d *Dataset) HasField(name string) bool {
	_, ok := d.header.index[name]
	return ok
}

// Records returns the records in source order.
// The slice is shared; callers must not modify it.
func (d *Dataset) Records() []Record { return d.records }

// Slice returns up to limit records starting at offset, clamped to the dataset size.
func (d *Dataset) Slice(offset, limit int) []Record {
	if offset < 0 {
		offset = 0
	}
	if limit < 0 {
		limit = 0
	}
	if offset >= len(d.records) {
		return nil
	}
	end := min(offset+limit, len(d.records))
	return d.records[offset:end]
}
