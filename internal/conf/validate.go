// conf/validate.go

package conf

import (
	"fmt"
	"net"
	"strings"
)

// ValidationError represents a collection of validation errors
type ValidationError struct {
	Errors []string
}

// Error returns a string representation of the validation errors
func (ve ValidationError) Error() string {
	return fmt.Sprintf("validation errors: %v", ve.Errors)
}

// ValidateSettings validates the entire Settings struct
func ValidateSettings(settings *Settings) error {
	ve := ValidationError{}

	validators := []func(*Settings) error{
		validateDataSettings,
		validateAllometrySettings,
		validateDatastoreSettings,
		validateWebServerSettings,
		validateSentrySettings,
		validateLoggingSettings,
	}
	for _, validate := range validators {
		if err := validate(settings); err != nil {
			ve.Errors = append(ve.Errors, err.Error())
		}
	}

	if len(ve.Errors) > 0 {
		return ve
	}
	return nil
}

func validateDataSettings(s *Settings) error {
	if strings.TrimSpace(s.Data.Equations) == "" {
		return fmt.Errorf("data.equations must not be empty")
	}
	if strings.TrimSpace(s.Data.Dir) == "" {
		return fmt.Errorf("data.dir must not be empty")
	}
	return nil
}

func validateAllometrySettings(s *Settings) error {
	s.Allometry.Source = strings.ToLower(strings.TrimSpace(s.Allometry.Source))
	switch s.Allometry.Source {
	case SourceCSV, SourceDatabase:
	default:
		return fmt.Errorf("allometry.source must be %q or %q, got %q", SourceCSV, SourceDatabase, s.Allometry.Source)
	}

	if s.Allometry.DefaultWoodDensity <= 0 {
		s.Allometry.DefaultWoodDensity = DefaultWoodDensity
	}
	return nil
}

func validateDatastoreSettings(s *Settings) error {
	var errs []string

	s.Datastore.Type = strings.ToLower(strings.TrimSpace(s.Datastore.Type))
	switch s.Datastore.Type {
	case DatastoreSQLite:
		if s.Datastore.SQLite.Path == "" {
			errs = append(errs, "datastore.sqlite.path must not be empty")
		}
	case DatastoreMySQL:
		if s.Datastore.MySQL.Host == "" {
			errs = append(errs, "datastore.mysql.host must not be empty")
		}
		if s.Datastore.MySQL.Database == "" {
			errs = append(errs, "datastore.mysql.database must not be empty")
		}
		if err := validateEnvPort(s.Datastore.MySQL.Port); err != nil {
			errs = append(errs, fmt.Sprintf("datastore.mysql.port %s", err))
		}
	default:
		errs = append(errs, fmt.Sprintf("datastore.type must be %q or %q, got %q", DatastoreSQLite, DatastoreMySQL, s.Datastore.Type))
	}

	if len(errs) > 0 {
		return fmt.Errorf("datastore settings errors: %v", errs)
	}
	return nil
}

func validateWebServerSettings(s *Settings) error {
	ws := &s.WebServer
	if !ws.Enabled {
		return nil
	}

	var errs []string
	if _, _, err := net.SplitHostPort(ws.Listen); err != nil {
		errs = append(errs, fmt.Sprintf("webserver.listen must be host:port, got %q", ws.Listen))
	}
	if ws.RateLimit < 0 {
		errs = append(errs, "webserver.ratelimit must not be negative")
	}
	if ws.RateLimit > 0 && ws.RateBurst < 1 {
		ws.RateBurst = 1
	}
	if ws.CacheTTL < 0 {
		errs = append(errs, "webserver.cachettl must not be negative")
	}

	if len(errs) > 0 {
		return fmt.Errorf("webserver settings errors: %v", errs)
	}
	return nil
}

func validateSentrySettings(s *Settings) error {
	if s.Sentry.Enabled && strings.TrimSpace(s.Sentry.DSN) == "" {
		return fmt.Errorf("sentry.dsn is required when sentry is enabled")
	}
	return nil
}

func validateLoggingSettings(s *Settings) error {
	valid := map[string]bool{"": true, "trace": true, "debug": true, "info": true, "warn": true, "warning": true, "error": true}

	check := func(key, level string) error {
		if !valid[strings.ToLower(level)] {
			return fmt.Errorf("%s: unknown log level %q", key, level)
		}
		return nil
	}

	if err := check("logging.default_level", s.Logging.DefaultLevel); err != nil {
		return err
	}
	if s.Logging.Console != nil {
		if err := check("logging.console.level", s.Logging.Console.Level); err != nil {
			return err
		}
	}
	if s.Logging.FileOutput != nil {
		if err := check("logging.file_output.level", s.Logging.FileOutput.Level); err != nil {
			return err
		}
	}
	for module, level := range s.Logging.ModuleLevels {
		if err := check("logging.module_levels."+module, level); err != nil {
			return err
		}
	}
	return nil
}
