package ingest

import (
	"context"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/xuri/excelize/v2"

	"github.com/JonMunkholm/dataengine/internal/dataset"
	"github.com/JonMunkholm/dataengine/internal/logging"
)

// SpreadsheetReader reads the first sheet of an .xlsx workbook.
//
// The first row is the header; line breaks inside header cells become a single
// space. Data rows are consumed until the first row that has an empty cell
// within the header width. That row and everything after it are ignored.
type SpreadsheetReader struct{}

var headerNewlines = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ")

// Read implements Reader.
func (SpreadsheetReader) Read(ctx context.Context, path string) (*Table, error) {
	f, err := openFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	book, err := excelize.OpenReader(f)
	if err != nil {
		return nil, dataset.NewStructuralError(path, 0, 0, "open workbook: %v", err)
	}
	defer book.Close()

	sheets := book.GetSheetList()
	if len(sheets) == 0 {
		return nil, dataset.NewStructuralError(path, 0, 0, "workbook has no sheets")
	}
	sheet := sheets[0]

	rows, err := book.Rows(sheet)
	if err != nil {
		return nil, errors.Wrapf(err, "read sheet %q of %s", sheet, path)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Error(); err != nil {
			return nil, errors.Wrapf(err, "read sheet %q of %s", sheet, path)
		}
		return nil, dataset.NewStructuralError(path, 1, 0, "sheet %q has no header row", sheet)
	}
	cells, err := rows.Columns()
	if err != nil {
		return nil, errors.Wrapf(err, "read header of %s", path)
	}
	table := &Table{Header: spreadsheetHeader(cells)}

	line := 1
	for rows.Next() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		line++
		cells, err := rows.Columns()
		if err != nil {
			return nil, errors.Wrapf(err, "read row %d of %s", line, path)
		}
		if hasEmptyCell(cells, len(table.Header)) {
			logging.FromContext(ctx).Debug("spreadsheet truncated at row with empty cell",
				"path", path,
				"sheet", sheet,
				"row", line,
			)
			break
		}
		table.Rows = append(table.Rows, trimRow(cells, len(table.Header)))
	}
	if err := rows.Error(); err != nil {
		return nil, errors.Wrapf(err, "read sheet %q of %s", sheet, path)
	}

	logging.FromContext(ctx).Debug("read spreadsheet",
		"path", path,
		"sheet", sheet,
		"rows", len(table.Rows),
	)
	return table, nil
}

// spreadsheetHeader drops trailing empty cells and flattens line breaks.
func spreadsheetHeader(cells []string) []string {
	end := len(cells)
	for end > 0 && strings.TrimSpace(cells[end-1]) == "" {
		end--
	}
	header := make([]string, end)
	for i, c := range cells[:end] {
		header[i] = headerNewlines.Replace(c)
	}
	return header
}

// hasEmptyCell reports whether any of the first width cells is empty.
// Missing trailing cells count as empty.
func hasEmptyCell(cells []string, width int) bool {
	if len(cells) < width {
		return true
	}
	for _, c := range cells[:width] {
		if c == "" {
			return true
		}
	}
	return false
}

// trimRow drops empty cells past the header width.
func trimRow(cells []string, width int) []string {
	end := len(cells)
	for end > width && cells[end-1] == "" {
		end--
	}
	return cells[:end]
}
