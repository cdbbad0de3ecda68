package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/greencanopy/allometree/internal/conf"
	"github.com/greencanopy/allometree/internal/logger"
)

// EquationsCSV is a small canonical equation table. Quercus robur in the
// temperate region evaluates to about 204.9475 kg at 30 cm.
const EquationsCSV = `species_name,region,component,equation_type,formula_text,wood_density
Quercus robur,temperate,AGB,LOG_LINEAR_DBH,ln(AGB) = -2.5 + 2.3*ln(DBH),0.65
Fagus sylvatica,temperate,AGB,LOG_LINEAR_DBH,-2.0 2.4,0.58
Picea abies,boreal,AGB,LOG_LINEAR_DBH,-2.2 2.2,
Picea abies,boreal,BGB,LOG_LINEAR_DBH,-3.0 2.0,
Ceiba pentandra,tropical,AGB,POWER_DBH,0.1 2.5,0.29
`

// NativeSpeciesCSV maps ecoregions to native species. Tropical has no entry.
const NativeSpeciesCSV = `ecoregion,species_name
Temperate,Quercus robur
temperate,Fagus sylvatica
boreal,Picea abies
`

// WriteFile writes content to name inside dir and returns the full path.
func WriteFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

// Settings returns settings pointing at fresh fixture files in a temporary
// directory, with a SQLite datastore and the CSV equation source.
func Settings(t *testing.T) *conf.Settings {
	t.Helper()
	dir := t.TempDir()

	return &conf.Settings{
		Data: conf.DataSettings{
			Dir:           filepath.Join(dir, "data"),
			Equations:     WriteFile(t, dir, "globallometree_equations.csv", EquationsCSV),
			NativeSpecies: WriteFile(t, dir, "native_species.csv", NativeSpeciesCSV),
		},
		Allometry: conf.AllometrySettings{Source: conf.SourceCSV, DefaultWoodDensity: conf.DefaultWoodDensity},
		Datastore: conf.DatastoreSettings{
			Type:   conf.DatastoreSQLite,
			SQLite: conf.SQLiteSettings{Path: filepath.Join(dir, "allometree.db")},
		},
		WebServer: conf.WebServerSettings{
			Enabled:  true,
			Listen:   "127.0.0.1:0",
			CacheTTL: conf.DefaultCacheTTL,
		},
		Logging: logger.LoggingConfig{DefaultLevel: string(logger.LogLevelError)},
	}
}
