package ingest

import (
	"bufio"
	"context"
	"encoding/xml"
	"io"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/JonMunkholm/dataengine/internal/dataset"
	"github.com/JonMunkholm/dataengine/internal/logging"
)

const (
	recordOpen  = "<record>"
	recordClose = "</record>"

	maxXMLLine = 1 << 20
)

// FixedSchemaXMLReader reads line-oriented XML where every record is a block of
// exactly Attributes element lines between <record> and </record>:
//
//	<?xml version="1.0"?>
//	<state-county-wage-data>
//	<record>
//	  <state>TX</state>
//	  ...
//	</record>
//	</state-county-wage-data>
//
// Lines are trimmed before matching. Blank lines between blocks are ignored.
// The element names of the first block form the header; later blocks must use
// the same names in the same order.
//
// On a structural mismatch the reader stops and returns the rows parsed so far
// together with the error.
type FixedSchemaXMLReader struct {
	Footer     string
	Attributes int
	SkipLines  int
}

// NewFixedSchemaXMLReader returns a reader with defaults filled in from opts.
func NewFixedSchemaXMLReader(opts Options) FixedSchemaXMLReader {
	r := FixedSchemaXMLReader{
		Footer:     opts.XMLFooter,
		Attributes: opts.XMLAttributes,
		SkipLines:  opts.XMLSkipLines,
	}
	if r.Footer == "" {
		r.Footer = DefaultXMLFooter
	}
	if r.Attributes <= 0 {
		r.Attributes = DefaultXMLAttributes
	}
	if r.SkipLines <= 0 {
		r.SkipLines = DefaultXMLSkipLines
	}
	return r
}

// lineScanner wraps bufio.Scanner with a line counter.
type lineScanner struct {
	sc   *bufio.Scanner
	line int
}

func (l *lineScanner) next() (string, bool) {
	if !l.sc.Scan() {
		return "", false
	}
	l.line++
	return strings.TrimSpace(l.sc.Text()), true
}

// Read implements Reader.
func (x FixedSchemaXMLReader) Read(ctx context.Context, path string) (*Table, error) {
	f, err := openFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	text, counter := wrapText(f, fileSize(f))
	table, err := x.parse(ctx, path, text)
	if err != nil {
		logging.FromContext(ctx).Debug("fixed-schema xml stopped early",
			"path", path,
			"rows", len(table.Rows),
			"progress_pct", counter.Progress(),
		)
		return table, err
	}

	logging.FromContext(ctx).Debug("read fixed-schema xml",
		"path", path,
		"rows", len(table.Rows),
		"bytes", counter.n,
		"progress_pct", counter.Progress(),
	)
	return table, nil
}

func (x FixedSchemaXMLReader) parse(ctx context.Context, path string, r io.Reader) (*Table, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxXMLLine)
	ls := &lineScanner{sc: sc}
	table := &Table{}

	mismatch := func(format string, args ...any) (*Table, error) {
		if err := sc.Err(); err != nil {
			return table, errors.Wrapf(err, "read %s", path)
		}
		return table, dataset.NewStructuralError(path, ls.line, len(table.Rows), format, args...)
	}

	for range x.SkipLines {
		if _, ok := ls.next(); !ok {
			return mismatch("file ends inside the %d-line preamble", x.SkipLines)
		}
	}

	block := make([]string, 0, x.Attributes)
	for {
		if err := ctx.Err(); err != nil {
			return table, err
		}

		line, ok := ls.next()
		if !ok {
			return mismatch("unexpected end of file, want %s", x.Footer)
		}
		if line == "" {
			continue
		}
		if line == x.Footer {
			break
		}
		if line != recordOpen {
			return mismatch("expected %s, got %q", recordOpen, line)
		}

		block = block[:0]
		for range x.Attributes {
			attr, ok := ls.next()
			if !ok {
				return mismatch("unexpected end of file inside record")
			}
			block = append(block, attr)
		}

		closing, ok := ls.next()
		if !ok {
			return mismatch("unexpected end of file, want %s", recordClose)
		}
		if closing != recordClose {
			return mismatch("expected %s after %d attributes, got %q", recordClose, x.Attributes, closing)
		}

		names, values, err := decodeFlatRecord(block)
		if err != nil {
			return mismatch("decode record: %v", err)
		}
		if len(names) != x.Attributes {
			return mismatch("record has %d elements, want %d", len(names), x.Attributes)
		}

		if table.Header == nil {
			table.Header = names
		} else if i := firstDifference(table.Header, names); i >= 0 {
			return mismatch("schema drift: element %d is %q, want %q", i+1, names[i], table.Header[i])
		}
		table.Rows = append(table.Rows, values)
	}

	if err := sc.Err(); err != nil {
		return table, errors.Wrapf(err, "read %s", path)
	}
	return table, nil
}

// decodeFlatRecord decodes the element lines of one block into ordered
// name/text pairs. Nested elements are rejected.
func decodeFlatRecord(lines []string) ([]string, []string, error) {
	doc := recordOpen + strings.Join(lines, "\n") + recordClose
	dec := xml.NewDecoder(strings.NewReader(doc))

	var (
		names, values []string
		current       string
		text          strings.Builder
		depth         int
	)
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			depth++
			switch depth {
			case 1:
			case 2:
				current = t.Name.Local
				text.Reset()
			default:
				return nil, nil, errors.Newf("nested element <%s> inside <%s>", t.Name.Local, current)
			}
		case xml.CharData:
			if depth == 2 {
				text.Write(t)
			}
		case xml.EndElement:
			if depth == 2 {
				names = append(names, current)
				values = append(values, strings.TrimSpace(text.String()))
			}
			depth--
		}
	}
	return names, values, nil
}

// firstDifference returns the first index where a and b differ, or -1.
func firstDifference(a, b []string) int {
	if len(a) != len(b) {
		return min(len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			return i
		}
	}
	return -1
}
