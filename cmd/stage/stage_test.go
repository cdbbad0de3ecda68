package stage

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/greencanopy/allometree/internal/errors"
	"github.com/greencanopy/allometree/internal/testutil"
)

const rawTSV = "Species\tRegion\tEquation\n" +
	"Quercus robur\ttemperate\tln(AGB) = -2.5 + 2.3*ln(DBH)\n" +
	"Picea abies\tboreal\t-2.2 2.2\n"

func TestStageWritesDefaultOutput(t *testing.T) {
	t.Parallel()
	t.Attr("component", "cli")

	settings := testutil.Settings(t)
	input := testutil.WriteFile(t, t.TempDir(), "export.tsv", rawTSV)

	cmd := Command(settings)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{input})
	require.NoError(t, cmd.ExecuteContext(t.Context()))

	staged := filepath.Join(settings.Data.Dir, "staging", "export__staged.csv")
	assert.Contains(t, out.String(), "=== GlobAllomeTree Import: STAGE ===")
	assert.Contains(t, out.String(), "Rows:   2\n")
	assert.Contains(t, out.String(), "Cols:   3\n")
	assert.Contains(t, out.String(), " - Equation\n")
	assert.Contains(t, out.String(), "Wrote staging file: "+staged)

	data, err := os.ReadFile(staged)
	require.NoError(t, err)
	assert.Equal(t, "Species,Region,Equation\n"+
		"Quercus robur,temperate,ln(AGB) = -2.5 + 2.3*ln(DBH)\n"+
		"Picea abies,boreal,-2.2 2.2\n", string(data))
}

func TestStageOutFlag(t *testing.T) {
	t.Parallel()
	t.Attr("component", "cli")

	dir := t.TempDir()
	input := testutil.WriteFile(t, dir, "export.tsv", rawTSV)
	target := filepath.Join(dir, "custom", "staged.csv")

	cmd := Command(testutil.Settings(t))
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{input, "--out", target})
	require.NoError(t, cmd.ExecuteContext(t.Context()))
	assert.FileExists(t, target)
}

func TestStageMissingInput(t *testing.T) {
	t.Parallel()
	t.Attr("component", "cli")

	cmd := Command(testutil.Settings(t))
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{filepath.Join(t.TempDir(), "missing.csv")})

	err := cmd.ExecuteContext(t.Context())
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))
}
