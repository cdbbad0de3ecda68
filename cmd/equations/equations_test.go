package equations

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/greencanopy/allometree/internal/testutil"
)

func run(t *testing.T, args ...string) string {
	t.Helper()
	cmd := Command(testutil.Settings(t))
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs(append([]string{}, args...))
	require.NoError(t, cmd.ExecuteContext(t.Context()))
	return out.String()
}

func TestEquationsListsIndex(t *testing.T) {
	t.Parallel()
	t.Attr("component", "cli")

	out := run(t)
	for _, want := range []string{"Quercus robur", "Fagus sylvatica", "Picea abies", "-2.5", "2.3", "0.65", "0.50"} {
		assert.Contains(t, out, want)
	}
	assert.NotContains(t, out, "Ceiba pentandra")
	assert.Contains(t, out, "Source:      csv\n")
	assert.Contains(t, out, "Listed:      3 of 3 equations\n")
	assert.Contains(t, out, "Records:     5 seen, 3 indexed, 0 overwritten\n")
	assert.Contains(t, out, "Skipped:     1 unsupported_component\n")
	assert.Contains(t, out, "Skipped:     1 unsupported_family\n")
}

func TestEquationsRegionFilter(t *testing.T) {
	t.Parallel()
	t.Attr("component", "cli")

	out := run(t, "--region", "boreal")
	assert.Contains(t, out, "Picea abies")
	assert.NotContains(t, out, "Quercus robur")
	assert.Contains(t, out, "Listed:      1 of 3 equations\n")
}
