package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/JonMunkholm/dataengine/internal/config"
	"github.com/JonMunkholm/dataengine/internal/core"
	"github.com/JonMunkholm/dataengine/internal/dataset"
	"github.com/JonMunkholm/dataengine/internal/export"
)

const xmlFixture = `<?xml version="1.0" encoding="UTF-8"?>
<state-county-wage-data>
<record>
<name>A</name>
<value>1</value>
</record>
<record>
<name>B</name>
<value>2</value>
</record>
</state-county-wage-data>
`

// writeCatalog writes a two-record file for every registered dataset.
func writeCatalog(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	for _, def := range core.Definitions() {
		path := filepath.Join(dir, def.File)
		switch filepath.Ext(def.File) {
		case ".csv":
			require.NoError(t, os.WriteFile(path, []byte("Name,Value\nA,1\nB,2\n"), 0o644))
		case ".json":
			require.NoError(t, os.WriteFile(path, []byte(`[["Name","Value"],["A",1],["B",2]]`), 0o644))
		case ".xml":
			require.NoError(t, os.WriteFile(path, []byte(xmlFixture), 0o644))
		case ".xlsx":
			f := excelize.NewFile()
			sheet := f.GetSheetName(0)
			for i, row := range [][]any{{"Name", "Value"}, {"A", "1"}, {"B", "2"}} {
				cell, err := excelize.CoordinatesToCellName(1, i+1)
				require.NoError(t, err)
				r := row
				require.NoError(t, f.SetSheetRow(sheet, cell, &r))
			}
			require.NoError(t, f.SaveAs(path))
			require.NoError(t, f.Close())
		default:
			t.Fatalf("no fixture for %s", def.File)
		}
	}
	return dir
}

func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := NewRootCmd()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func catalogArgs(dir string, args ...string) []string {
	return append([]string{"--data-dir", dir, "--xml-attributes", "2", "--log-level", "warn"}, args...)
}

func TestRoot_Demo(t *testing.T) {
	dir := writeCatalog(t)

	out, _, err := run(t, catalogArgs(dir, "--limit", "1")...)
	require.NoError(t, err)

	assert.Contains(t, out, "Data Set: CountyList\n  key:'Name' => val:'A'   key:'Value' => val:'1' \n\n")
	assert.NotContains(t, out, "val:'B'")
	assert.Contains(t, out, "Listing Data Set by Name:\n\n"+
		"  CountyEmploymentWages\n"+
		"  CountyList\n"+
		"  CountyMedianIncome\n"+
		"  CountyPopulationTax\n"+
		"  CountyUnemployment\n"+
		"  StateExports\n"+
		"  StateTaxRates\n\n\n")
	assert.Contains(t, out, "Data Set CountyUnemployment: 2 records, 2 fields")
}

func TestRoot_LookupUnknown(t *testing.T) {
	dir := writeCatalog(t)

	_, _, err := run(t, catalogArgs(dir, "--lookup", "Nope")...)
	require.Error(t, err)
	assert.True(t, errors.Is(err, dataset.ErrUnknownDatasetName))
}

func TestRoot_MissingFile(t *testing.T) {
	dir := writeCatalog(t)
	require.NoError(t, os.Remove(filepath.Join(dir, "StateTaxRates.xlsx")))

	_, _, err := run(t, catalogArgs(dir)...)
	require.Error(t, err)
	assert.True(t, errors.Is(err, dataset.ErrFileNotFound))

	var buf bytes.Buffer
	printError(&buf, err)
	assert.Contains(t, buf.String(), "Error: A source data file was not found (Code: FILE001)")
	assert.Contains(t, buf.String(), "StateTaxRates")
}

func TestRoot_StructuralMismatch(t *testing.T) {
	dir := writeCatalog(t)

	// The fixture blocks hold 2 elements, so 19 attribute lines overrun them.
	_, _, err := run(t, "--data-dir", dir, "--log-level", "warn")
	require.Error(t, err)
	assert.True(t, errors.Is(err, dataset.ErrStructuralMismatch))
}

func TestNames(t *testing.T) {
	dir := writeCatalog(t)

	out, _, err := run(t, catalogArgs(dir, "names")...)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"CountyEmploymentWages",
		"CountyList",
		"CountyMedianIncome",
		"CountyPopulationTax",
		"CountyUnemployment",
		"StateExports",
		"StateTaxRates",
	}, strings.Fields(out))
}

func TestDump(t *testing.T) {
	dir := writeCatalog(t)

	out, _, err := run(t, catalogArgs(dir, "dump", "-n", "5")...)
	require.NoError(t, err)
	assert.Equal(t, 7, strings.Count(out, "Data Set: "))
	assert.Equal(t, 14, strings.Count(out, "key:'Name'"))
}

func TestLoad(t *testing.T) {
	dir := writeCatalog(t)

	for _, parallel := range []bool{false, true} {
		args := catalogArgs(dir, "load")
		if parallel {
			args = append(args, "--parallel")
		}
		out, _, err := run(t, args...)
		require.NoError(t, err)
		assert.Contains(t, out, "CountyEmploymentWages")
		assert.Contains(t, out, "xlsx")
		assert.Contains(t, out, "14")
	}
}

func TestShow(t *testing.T) {
	dir := writeCatalog(t)

	out, _, err := run(t, catalogArgs(dir, "show", "CountyMedianIncome", "--offset", "1")...)
	require.NoError(t, err)
	assert.Contains(t, out, "CountyMedianIncome")
	assert.Contains(t, out, "1 of 2 records")
	assert.Contains(t, out, "B")

	_, _, err = run(t, catalogArgs(dir, "show", "Nope")...)
	assert.True(t, errors.Is(err, dataset.ErrUnknownDatasetName))

	_, _, err = run(t, catalogArgs(dir, "show")...)
	assert.Error(t, err)
}

func TestShow_Fields(t *testing.T) {
	dir := writeCatalog(t)

	out, _, err := run(t, catalogArgs(dir, "show", "CountyList", "--fields", "Value")...)
	require.NoError(t, err)
	assert.Contains(t, out, "VALUE")
	assert.NotContains(t, out, "NAME")
	assert.NotContains(t, out, " A ")

	_, _, err = run(t, catalogArgs(dir, "show", "CountyList", "-f", "Value,Missing")...)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `CountyList has no field "Missing" (fields: Name, Value)`)
}

func TestRoot_LogsCatalog(t *testing.T) {
	_, stderr, err := run(t, "--log-level", "debug", "version")
	require.NoError(t, err)
	assert.NotContains(t, stderr, "sources registered")

	dir := writeCatalog(t)
	_, stderr, err = run(t, "--data-dir", dir, "--xml-attributes", "2", "--log-level", "debug", "names")
	require.NoError(t, err)
	assert.Contains(t, stderr, "sources registered")
	assert.Contains(t, stderr, "count=7")
	assert.Contains(t, stderr, "groups=2")
}

func TestExport_RequiresDatabaseURL(t *testing.T) {
	dir := writeCatalog(t)
	t.Setenv("DATAENGINE_EXPORT_DATABASE_URL", "")

	_, _, err := run(t, catalogArgs(dir, "export")...)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "export.database_url is required")
}

func TestRenderExport(t *testing.T) {
	var buf bytes.Buffer
	renderExport(&buf, &export.Result{
		Table: "dataset_records",
		Rows:  map[string]int64{"StateExports": 3, "CountyList": 4},
	})

	out := buf.String()
	assert.Contains(t, out, "dataset_records")
	assert.Less(t, strings.Index(out, "CountyList"), strings.Index(out, "StateExports"))
	assert.Contains(t, out, "7")
}

func TestCheckOverrides(t *testing.T) {
	cfg := &config.Config{Data: config.DataConfig{Files: map[string]string{
		"StateExports": "exports-2013.xlsx",
	}}}
	assert.NoError(t, checkOverrides(cfg))

	cfg.Data.Files["Unknown"] = "x.csv"
	err := checkOverrides(cfg)
	require.Error(t, err)
	assert.True(t, errors.Is(err, dataset.ErrUnknownDatasetName))
	assert.Contains(t, err.Error(), "Unknown")
}

func TestInvalidFlagValue(t *testing.T) {
	_, _, err := run(t, "--short-rows", "truncate", "names")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load.short_rows")
}

func TestVersion(t *testing.T) {
	out, _, err := run(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "dataengine v"+Version)
}
