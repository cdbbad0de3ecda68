// config.go: settings struct for allometree and the functions to load and save it.
package conf

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/greencanopy/allometree/internal/errors"
	"github.com/greencanopy/allometree/internal/logger"
)

//go:embed config.yaml
var configFiles embed.FS

// Equation table sources
const (
	SourceCSV      = "csv"
	SourceDatabase = "database"
)

// Datastore backends
const (
	DatastoreSQLite = "sqlite"
	DatastoreMySQL  = "mysql"
)

// DataSettings locates the input tables and pipeline output root.
type DataSettings struct {
	Dir           string // root directory for staging/ and processed/ outputs
	Equations     string // canonical equation table CSV
	NativeSpecies string // native species reference CSV
}

// AllometrySettings controls where the equation index is built from.
type AllometrySettings struct {
	Source             string  // "csv" or "database"
	DefaultWoodDensity float64 // informational; records without a usable density get 0.5
}

// SQLiteSettings contains settings for the SQLite datastore.
type SQLiteSettings struct {
	Path string // path to the database file
}

// MySQLSettings contains settings for the MySQL datastore.
type MySQLSettings struct {
	Host     string
	Port     string
	Username string
	Password string
	Database string
}

// DatastoreSettings selects and configures the persisted equation store.
type DatastoreSettings struct {
	Type   string // "sqlite" or "mysql"
	SQLite SQLiteSettings
	MySQL  MySQLSettings
}

// WebServerSettings contains settings for the HTTP API.
type WebServerSettings struct {
	Enabled   bool          // true to run the API under the serve command
	Listen    string        // host:port to listen on
	RateLimit float64       // sustained requests per second per client, 0 disables limiting
	RateBurst int           // burst size for the rate limiter
	CacheTTL  time.Duration // lifetime of cached species lists
}

// MetricsSettings toggles the Prometheus endpoint.
type MetricsSettings struct {
	Enabled bool // expose /metrics on the web server
}

// SentrySettings contains settings for error telemetry.
type SentrySettings struct {
	Enabled bool
	DSN     string
}

// Settings contains all configuration options for allometree.
type Settings struct {
	Debug bool // true to enable debug output

	Data      DataSettings
	Allometry AllometrySettings
	Datastore DatastoreSettings
	WebServer WebServerSettings
	Metrics   MetricsSettings
	Sentry    SentrySettings
	Logging   logger.LoggingConfig
}

var (
	settingsInstance *Settings
	settingsMutex    sync.RWMutex
)

// Load reads the configuration file and environment variables into a Settings instance
// and stores it as the current settings.
func Load() (*Settings, error) {
	settingsMutex.Lock()
	defer settingsMutex.Unlock()

	settings, err := loadFromViper(viper.GetViper(), true)
	if err != nil {
		return nil, err
	}

	settingsInstance = settings
	return settingsInstance, nil
}

// loadFromViper runs the full load pipeline against v. createMissing controls whether an
// absent config file is written from the embedded default.
func loadFromViper(v *viper.Viper, createMissing bool) (*Settings, error) {
	if err := initViper(v, createMissing); err != nil {
		return nil, errors.New(err).
			Component("configuration").
			Category(errors.CategoryConfiguration).
			Context("operation", "init_viper").
			Build()
	}

	settings := &Settings{}
	if err := v.Unmarshal(settings); err != nil {
		return nil, errors.New(fmt.Errorf("error unmarshaling config into struct: %w", err)).
			Component("configuration").
			Category(errors.CategoryConfiguration).
			Context("operation", "unmarshal_config").
			Build()
	}

	if err := ValidateSettings(settings); err != nil {
		return nil, errors.New(err).
			Component("configuration").
			Category(errors.CategoryValidation).
			Context("operation", "validate_settings").
			Build()
	}

	return settings, nil
}

// initViper applies defaults and environment bindings, then reads the configuration file.
// An explicit file set with SetConfigFile takes precedence over the search paths.
func initViper(v *viper.Viper, createMissing bool) error {
	setDefaultConfig(v)

	if err := configureEnvironmentVariables(v); err != nil {
		GetLogger().Warn("environment variable configuration issues", logger.Error(err))
	}

	if explicit := v.ConfigFileUsed(); explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return fmt.Errorf("config file %s: %w", explicit, err)
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")

		configPaths, err := GetDefaultConfigPaths()
		if err != nil {
			return fmt.Errorf("error getting default config paths: %w", err)
		}
		for _, path := range configPaths {
			v.AddConfigPath(path)
		}
	}

	err := v.ReadInConfig()
	if err == nil {
		return nil
	}

	var notFound viper.ConfigFileNotFoundError
	if errors.As(err, &notFound) {
		if !createMissing {
			return nil
		}
		return createDefaultConfig(v)
	}
	return fmt.Errorf("fatal error reading config file: %w", err)
}

// createDefaultConfig writes the embedded default config to the first default path
func createDefaultConfig(v *viper.Viper) error {
	configPaths, err := GetDefaultConfigPaths()
	if err != nil {
		return fmt.Errorf("error getting default config paths: %w", err)
	}
	configPath := filepath.Join(configPaths[0], "config.yaml")

	defaultConfig, err := getDefaultConfig()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		return fmt.Errorf("error creating directories for config file: %w", err)
	}

	if err := os.WriteFile(configPath, defaultConfig, 0o644); err != nil {
		return fmt.Errorf("error writing default config file: %w", err)
	}

	GetLogger().Info("created default config file", logger.String("path", configPath))
	return v.ReadInConfig()
}

// getDefaultConfig returns the embedded default config.yaml
func getDefaultConfig() ([]byte, error) {
	data, err := fs.ReadFile(configFiles, "config.yaml")
	if err != nil {
		return nil, fmt.Errorf("error reading embedded config file: %w", err)
	}
	return data, nil
}

// GetSettings returns the current settings instance
func GetSettings() *Settings {
	settingsMutex.RLock()
	defer settingsMutex.RUnlock()
	return settingsInstance
}

// SaveYAMLConfig writes settings to configPath. The file is replaced atomically;
// comments and ordering from the previous file are not preserved.
func SaveYAMLConfig(configPath string, settings *Settings) error {
	yamlData, err := yaml.Marshal(settings)
	if err != nil {
		return errors.New(fmt.Errorf("error marshaling settings to YAML: %w", err)).
			Component("configuration").
			Category(errors.CategoryConfiguration).
			Build()
	}

	tempFile, err := os.CreateTemp(filepath.Dir(configPath), "config-*.yaml")
	if err != nil {
		return errors.New(fmt.Errorf("error creating temporary file: %w", err)).
			Component("configuration").
			Category(errors.CategoryFileIO).
			Build()
	}
	tempFileName := tempFile.Name()
	defer func() { _ = os.Remove(tempFileName) }()

	if _, err := tempFile.Write(yamlData); err != nil {
		_ = tempFile.Close()
		return errors.New(fmt.Errorf("error writing to temporary file: %w", err)).
			Component("configuration").
			Category(errors.CategoryFileIO).
			Build()
	}
	if err := tempFile.Close(); err != nil {
		return errors.New(fmt.Errorf("error closing temporary file: %w", err)).
			Component("configuration").
			Category(errors.CategoryFileIO).
			Build()
	}

	if err := moveFile(tempFileName, configPath); err != nil {
		return errors.New(fmt.Errorf("error replacing config file: %w", err)).
			Component("configuration").
			Category(errors.CategoryFileIO).
			Context("operation", "save_config").
			Build()
	}

	return nil
}
