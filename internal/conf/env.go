// env.go - environment variable configuration and validation
package conf

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override, e.g. ALLOMETREE_DATASTORE_TYPE.
const EnvPrefix = "ALLOMETREE"

// envBinding holds metadata for an explicitly validated environment variable
type envBinding struct {
	ConfigKey string             // Viper config key
	EnvVar    string             // Environment variable name
	Validate  func(string) error // Optional validation function
}

// getEnvBindings returns the environment variables that are validated before use.
// All other keys are still overridable through AutomaticEnv.
func getEnvBindings() []envBinding {
	return []envBinding{
		{"debug", "ALLOMETREE_DEBUG", validateEnvBool},
		{"allometry.source", "ALLOMETREE_ALLOMETRY_SOURCE", validateEnvChoice(SourceCSV, SourceDatabase)},
		{"datastore.type", "ALLOMETREE_DATASTORE_TYPE", validateEnvChoice(DatastoreSQLite, DatastoreMySQL)},
		{"datastore.mysql.port", "ALLOMETREE_DATASTORE_MYSQL_PORT", validateEnvPort},
		{"datastore.mysql.password", "ALLOMETREE_DATASTORE_MYSQL_PASSWORD", nil},
		{"webserver.listen", "ALLOMETREE_WEBSERVER_LISTEN", validateEnvListen},
		{"webserver.ratelimit", "ALLOMETREE_WEBSERVER_RATELIMIT", validateEnvNonNegative},
		{"sentry.dsn", "ALLOMETREE_SENTRY_DSN", nil},
	}
}

// bindEnvVars binds and validates the explicit environment variables
func bindEnvVars(v *viper.Viper) error {
	var warnings []string

	for _, binding := range getEnvBindings() {
		if err := v.BindEnv(binding.ConfigKey, binding.EnvVar); err != nil {
			warnings = append(warnings, fmt.Sprintf("failed to bind %s: %v", binding.EnvVar, err))
			continue
		}

		if binding.Validate == nil {
			continue
		}
		if envValue := os.Getenv(binding.EnvVar); envValue != "" {
			if err := binding.Validate(envValue); err != nil {
				warnings = append(warnings, fmt.Sprintf("invalid %s value %q: %v", binding.EnvVar, envValue, err))
			}
		}
	}

	if len(warnings) > 0 {
		return fmt.Errorf("environment variable issues:\n  - %s", strings.Join(warnings, "\n  - "))
	}

	return nil
}

func validateEnvBool(value string) error {
	if _, err := strconv.ParseBool(value); err != nil {
		return fmt.Errorf("must be true or false")
	}
	return nil
}

func validateEnvChoice(choices ...string) func(string) error {
	return func(value string) error {
		for _, c := range choices {
			if strings.EqualFold(value, c) {
				return nil
			}
		}
		return fmt.Errorf("must be one of %s", strings.Join(choices, ", "))
	}
}

func validateEnvPort(value string) error {
	port, err := strconv.Atoi(value)
	if err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("must be a port number between 1 and 65535")
	}
	return nil
}

func validateEnvListen(value string) error {
	if _, _, err := net.SplitHostPort(value); err != nil {
		return fmt.Errorf("must be host:port: %w", err)
	}
	return nil
}

func validateEnvNonNegative(value string) error {
	f, err := strconv.ParseFloat(value, 64)
	if err != nil || f < 0 {
		return fmt.Errorf("must be a non-negative number")
	}
	return nil
}

// configureEnvironmentVariables enables ALLOMETREE_ prefixed overrides on v
func configureEnvironmentVariables(v *viper.Viper) error {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return bindEnvVars(v)
}
