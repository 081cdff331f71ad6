package ingest

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// writeWorkbook writes rows to the first sheet of a new workbook. extra adds
// sheets after the first one.
func writeWorkbook(t *testing.T, rows [][]any, extra ...string) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		r := row
		require.NoError(t, f.SetSheetRow(sheet, cell, &r))
	}
	for _, name := range extra {
		_, err := f.NewSheet(name)
		require.NoError(t, err)
		require.NoError(t, f.SetCellValue(name, "A1", "ignored"))
	}

	path := filepath.Join(t.TempDir(), "book.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

// wageRecord renders one <record> block with n attribute lines named a1..an.
func wageRecord(n int, value string) string {
	s := "  <record>\n"
	for i := 1; i <= n; i++ {
		s += fmt.Sprintf("    <a%d>%s%d</a%d>\n", i, value, i, i)
	}
	return s + "  </record>\n"
}
