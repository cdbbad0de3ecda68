package staging

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/greencanopy/allometree/internal/errors"
	"github.com/greencanopy/allometree/internal/logger"
	"github.com/greencanopy/allometree/internal/observability/metrics"
)

const rawExport = "species_name\tregion\tcomponent\tequation_type\tformula_text\twood_density\tcountry\n" +
	"Quercus robur\ttemperate\tAGB\tLOG_LINEAR_DBH\tln(AGB) = -2.5 + 2.3*ln(DBH)\t0.65\tFR\n" +
	"Ceiba pentandra\ttropical\tAGB\tPOWER_H\tAGB = 0.1*H^2\t\tBR\n" +
	"Picea abies\tboreal\tAGB\tlog_linear_dbh\tln(AGB) = -2.2 + 2.2*ln(DBH)\t0.41\n"

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func quiet() Option {
	return WithLogger(logger.NewSlogLogger(nil, logger.LogLevelError, nil))
}

func TestDelimiterFor(t *testing.T) {
	t.Parallel()
	t.Attr("component", "staging")

	assert.Equal(t, '\t', DelimiterFor("export.tsv"))
	assert.Equal(t, '\t', DelimiterFor("EXPORT.TAB"))
	assert.Equal(t, ',', DelimiterFor("export.csv"))
	assert.Equal(t, ',', DelimiterFor("export.txt"))
	assert.Equal(t, ',', DelimiterFor("export"))
}

func TestDefaultPaths(t *testing.T) {
	t.Parallel()

	assert.Equal(t, filepath.Join("data", "staging", "globallometree_raw__staged.csv"),
		DefaultStagedPath("data", "/tmp/globallometree_raw.tsv"))
	assert.Equal(t, filepath.Join("data", "processed", "globallometree_raw__staged__normalized.csv"),
		DefaultNormalizedPath("data", "data/staging/globallometree_raw__staged.csv"))
}

func TestStageConvertsTSVToCSV(t *testing.T) {
	t.Parallel()

	input := writeFile(t, "globallometree_raw.tsv", rawExport)
	dataDir := t.TempDir()
	rec := metrics.NewTestRecorder()

	res, err := NewPipeline(dataDir, WithRecorder(rec), quiet()).Stage(context.Background(), input, "")
	require.NoError(t, err)

	assert.Equal(t, 3, res.Rows)
	assert.Len(t, res.Columns, 7)
	assert.Equal(t, DefaultStagedPath(dataDir, input), res.Output)

	staged, err := ReadTable(context.Background(), res.Output)
	require.NoError(t, err)
	assert.Equal(t, res.Columns, staged.Columns)
	require.Len(t, staged.Rows, 3)
	assert.Equal(t, "ln(AGB) = -2.5 + 2.3*ln(DBH)", staged.Rows[0][4])
	assert.Empty(t, staged.Rows[2][6], "short rows are padded")

	assert.Equal(t, 1, rec.GetOperationCount(metrics.OpStage, metrics.StatusSuccess))
	assert.Len(t, rec.GetDurations(metrics.OpStage), 1)
}

func TestStageSummary(t *testing.T) {
	t.Parallel()

	res := &StageResult{Input: "/in/raw.csv", Output: "data/staging/raw__staged.csv", Rows: 12345, Columns: []string{"a", "b"}}
	var buf bytes.Buffer
	require.NoError(t, res.WriteSummary(&buf))

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "=== GlobAllomeTree Import: STAGE ===\n"))
	assert.Contains(t, out, "Rows:   12,345\n")
	assert.Contains(t, out, "Cols:   2\n")
	assert.Contains(t, out, "Columns:\n - a\n - b\n")
	assert.Contains(t, out, "Wrote staging file: data/staging/raw__staged.csv")
}

func TestStageMissingInput(t *testing.T) {
	t.Parallel()

	rec := metrics.NewTestRecorder()
	missing := filepath.Join(t.TempDir(), "nope.csv")

	_, err := NewPipeline(t.TempDir(), WithRecorder(rec), quiet()).Stage(context.Background(), missing, "")
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))
	assert.Contains(t, err.Error(), "input file not found")
	assert.Equal(t, 1, rec.GetOperationCount(metrics.OpStage, metrics.StatusError))
	assert.Equal(t, 1, rec.GetErrorCount(metrics.OpStage, string(errors.CategoryNotFound)))
}

func TestReadTableRejectsLongRows(t *testing.T) {
	t.Parallel()

	path := writeFile(t, "bad.csv", "a,b\n1,2,3\n")
	_, err := ReadTable(context.Background(), path)
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryFileParsing))
}

func TestReadTableStripsBOM(t *testing.T) {
	t.Parallel()

	path := writeFile(t, "bom.csv", "\ufeffspecies_name,region\nA,b\n")
	tbl, err := ReadTable(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, []string{"species_name", "region"}, tbl.Columns)
	assert.Equal(t, []string{"A"}, tbl.Column("species_name"))
	assert.Nil(t, tbl.Column("country"))
}

func TestWriteTableReplacesExistingFile(t *testing.T) {
	t.Parallel()
	t.Attr("component", "staging")

	dir := t.TempDir()
	path := filepath.Join(dir, "out.csv")
	require.NoError(t, os.WriteFile(path, []byte("old,header\nstale,row\nstale,row\n"), 0o600))

	require.NoError(t, WriteTable(path, &Table{Columns: []string{"a", "b"}, Rows: [][]string{{"1", "2"}}}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "a,b\n1,2\n", string(data))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary file left behind")
}

func TestWriteTableFailureLeavesNoPartialOutput(t *testing.T) {
	t.Parallel()
	t.Attr("component", "staging")

	dir := t.TempDir()
	// A non-empty directory at the target path makes the final rename fail.
	path := filepath.Join(dir, "out.csv")
	require.NoError(t, os.MkdirAll(filepath.Join(path, "keep"), 0o755))

	err := WriteTable(path, &Table{Columns: []string{"a"}, Rows: [][]string{{"1"}}})
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryFileIO))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "out.csv", entries[0].Name())
	assert.True(t, entries[0].IsDir())
}

func TestNormalizeTable(t *testing.T) {
	t.Parallel()

	in := &Table{
		Columns: []string{"species_name", "region", "equation_type", "formula_text", "country"},
		Rows: [][]string{
			{"Quercus robur", "temperate", "LOG_LINEAR_DBH", "-2.5 2.3", "FR"},
			{"Ceiba pentandra", "tropical", "POWER_H", "0.1 2", "BR"},
			{"Picea abies", "boreal", "log_linear_dbh", "-2.2 2.2", ""},
		},
	}

	out := NormalizeTable(in)
	require.Equal(t, CanonicalColumns, out.Columns)
	require.Len(t, out.Rows, 3)

	get := func(row int, col string) string {
		return out.Rows[row][out.columnIndex(col)]
	}

	assert.Equal(t, "Quercus robur", get(0, "species_name"))
	assert.Equal(t, "DBH", get(0, "predictor_vars"))
	assert.Equal(t, "kg", get(0, "biomass_units"))
	assert.Equal(t, "cm", get(0, "dbh_units"))
	assert.Empty(t, get(0, "component"), "absent columns stay empty")
	assert.Empty(t, get(0, "source_name"))
	assert.NotContains(t, out.Columns, "country", "only equation columns are copied")

	assert.Empty(t, get(1, "predictor_vars"))
	assert.Empty(t, get(1, "biomass_units"))

	assert.Empty(t, get(2, "predictor_vars"), "DBH match is case-sensitive")

	for r := range out.Rows {
		assert.Equal(t, DefaultNote, get(r, "notes"))
	}
}

func TestNormalizeWritesCanonicalFile(t *testing.T) {
	t.Parallel()

	input := writeFile(t, "raw__staged.csv", "species_name,region,component,equation_type,formula_text,wood_density\n"+
		"Quercus robur,temperate,AGB,LOG_LINEAR_DBH,\"ln(AGB) = -2.5 + 2.3*ln(DBH)\",0.65\n")
	dataDir := t.TempDir()

	reg := prometheus.NewRegistry()
	pm, err := metrics.NewPipelineMetrics(reg)
	require.NoError(t, err)

	res, err := NewPipeline(dataDir, WithRecorder(pm), quiet()).Normalize(context.Background(), input, "")
	require.NoError(t, err)
	assert.Equal(t, 1, res.Rows)
	assert.Equal(t, filepath.Join(dataDir, "processed", "raw__staged__normalized.csv"), res.Output)

	tbl, err := ReadTable(context.Background(), res.Output)
	require.NoError(t, err)
	assert.Equal(t, CanonicalColumns, tbl.Columns)
	assert.Equal(t, []string{"0.65"}, tbl.Column("wood_density"))

	var buf bytes.Buffer
	require.NoError(t, res.WriteSummary(&buf))
	assert.Contains(t, buf.String(), "=== GlobAllomeTree Normalize: APP-READY SCHEMA ===")

	expected := `
# HELP pipeline_rows_processed_total Total number of data rows written by a staging pipeline step
# TYPE pipeline_rows_processed_total counter
pipeline_rows_processed_total{operation="normalize"} 1
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "pipeline_rows_processed_total"))
}

func TestNormalizeHonorsCancellation(t *testing.T) {
	t.Parallel()

	input := writeFile(t, "raw.csv", "species_name,region\nA,b\n")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewPipeline(t.TempDir(), quiet()).Normalize(ctx, input, filepath.Join(t.TempDir(), "out.csv"))
	require.ErrorIs(t, err, context.Canceled)
}
