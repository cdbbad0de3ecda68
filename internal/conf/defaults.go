// conf/defaults.go default values for settings
package conf

import (
	"time"

	"github.com/spf13/viper"

	"github.com/greencanopy/allometree/internal/logger"
)

// Default values shared with other packages
const (
	DefaultWoodDensity = 0.5
	DefaultListen      = "localhost:8080"
	DefaultCacheTTL    = 5 * time.Minute
)

// setDefaultConfig registers default values for every configuration key on v.
// Every key needs a default so AutomaticEnv can override it during Unmarshal.
func setDefaultConfig(v *viper.Viper) {
	v.SetDefault("debug", false)

	v.SetDefault("data.dir", "data")
	v.SetDefault("data.equations", "globallometree_equations.csv")
	v.SetDefault("data.nativespecies", "native_species.csv")

	v.SetDefault("allometry.source", SourceCSV)
	v.SetDefault("allometry.defaultwooddensity", DefaultWoodDensity)

	v.SetDefault("datastore.type", DatastoreSQLite)
	v.SetDefault("datastore.sqlite.path", "allometree.db")
	v.SetDefault("datastore.mysql.host", "localhost")
	v.SetDefault("datastore.mysql.port", "3306")
	v.SetDefault("datastore.mysql.username", "allometree")
	v.SetDefault("datastore.mysql.password", "")
	v.SetDefault("datastore.mysql.database", "allometree")

	v.SetDefault("webserver.enabled", true)
	v.SetDefault("webserver.listen", DefaultListen)
	v.SetDefault("webserver.ratelimit", 10.0)
	v.SetDefault("webserver.rateburst", 20)
	v.SetDefault("webserver.cachettl", DefaultCacheTTL)

	v.SetDefault("metrics.enabled", true)

	v.SetDefault("sentry.enabled", false)
	v.SetDefault("sentry.dsn", "")

	v.SetDefault("logging.default_level", logger.DefaultLogLevel)
	v.SetDefault("logging.timezone", "Local")
	v.SetDefault("logging.console.enabled", logger.DefaultConsoleEnabled)
	v.SetDefault("logging.console.level", logger.DefaultLogLevel)
	v.SetDefault("logging.file_output.enabled", logger.DefaultFileEnabled)
	v.SetDefault("logging.file_output.path", logger.DefaultLogPath)
	v.SetDefault("logging.file_output.level", logger.DefaultLogLevel)
}
