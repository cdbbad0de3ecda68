// Package datastore persists the canonical equation table in SQLite or MySQL
// so the allometry engine can be loaded from a database instead of a CSV file.
package datastore

import (
	"context"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"time"

	mysqldriver "github.com/go-sql-driver/mysql"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/greencanopy/allometree/internal/allometry"
	"github.com/greencanopy/allometree/internal/conf"
	"github.com/greencanopy/allometree/internal/errors"
	"github.com/greencanopy/allometree/internal/logger"
	"github.com/greencanopy/allometree/internal/observability/metrics"
)

const (
	// DefaultSlowQueryThreshold is the duration after which a statement is logged as slow.
	DefaultSlowQueryThreshold = 1 * time.Second

	// saveBatchSize is the number of rows inserted per statement by SaveRecords.
	saveBatchSize = 500

	equationsTable = "equations"
)

// Store is a gorm backed equation store. It implements allometry.RecordSource.
type Store struct {
	db      *gorm.DB
	dialect string
	metrics *metrics.DatastoreMetrics
	log     logger.Logger
}

var _ allometry.RecordSource = (*Store)(nil)

// Option configures a Store.
type Option func(*Store)

// WithMetrics records every store operation in m.
func WithMetrics(m *metrics.DatastoreMetrics) Option {
	return func(s *Store) { s.metrics = m }
}

// WithLogger overrides the module logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.log = l
		}
	}
}

// Open opens the datastore selected by settings.Type and migrates the schema.
func Open(ctx context.Context, settings *conf.DatastoreSettings, opts ...Option) (*Store, error) {
	switch settings.Type {
	case conf.DatastoreSQLite:
		return OpenSQLite(ctx, settings.SQLite.Path, opts...)
	case conf.DatastoreMySQL:
		return OpenMySQL(ctx, &settings.MySQL, opts...)
	default:
		return nil, errors.Newf("unsupported datastore type %q", settings.Type).
			Component("datastore").
			Category(errors.CategoryConfiguration).
			Context("type", settings.Type).
			Build()
	}
}

// OpenSQLite opens or creates the SQLite database at path.
func OpenSQLite(ctx context.Context, path string, opts ...Option) (*Store, error) {
	if path == "" {
		return nil, validationError("sqlite path must not be empty", "datastore.sqlite.path", path)
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, dbError(fmt.Errorf("failed to create database directory: %w", err), "open", "path", path)
		}
	}
	return open(ctx, conf.DatastoreSQLite, sqlite.Open(path), opts...)
}

// OpenMySQL connects to the MySQL database described by settings.
func OpenMySQL(ctx context.Context, settings *conf.MySQLSettings, opts ...Option) (*Store, error) {
	if settings.Host == "" || settings.Database == "" {
		return nil, validationError("mysql host and database must be set", "datastore.mysql", settings.Host)
	}
	return open(ctx, conf.DatastoreMySQL, mysql.Open(MySQLDSN(settings)), opts...)
}

// MySQLDSN builds the driver connection string for settings.
func MySQLDSN(settings *conf.MySQLSettings) string {
	cfg := mysqldriver.NewConfig()
	cfg.User = settings.Username
	cfg.Passwd = settings.Password
	cfg.Net = "tcp"
	cfg.Addr = net.JoinHostPort(settings.Host, settings.Port)
	cfg.DBName = settings.Database
	cfg.ParseTime = true
	cfg.Params = map[string]string{"charset": "utf8mb4"}
	return cfg.FormatDSN()
}

func open(ctx context.Context, dialect string, dialector gorm.Dialector, opts ...Option) (*Store, error) {
	s := &Store{dialect: dialect}
	for _, opt := range opts {
		opt(s)
	}
	if s.log == nil {
		s.log = GetLogger()
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.NewGormLoggerAdapter(s.log, DefaultSlowQueryThreshold),
	})
	if err != nil {
		return nil, dbError(fmt.Errorf("failed to open %s database: %w", dialect, err), "open", "dialect", dialect)
	}
	s.db = db

	if err := db.WithContext(ctx).AutoMigrate(&Equation{}); err != nil {
		_ = s.Close()
		return nil, dbError(fmt.Errorf("failed to migrate %s database: %w", dialect, err), "migrate", "dialect", dialect)
	}

	s.log.Info("datastore opened", logger.String("dialect", dialect))
	return s, nil
}

// Name implements allometry.RecordSource.
func (s *Store) Name() string { return "database" }

// Dialect returns "sqlite" or "mysql".
func (s *Store) Dialect() string { return s.dialect }

// SaveRecords replaces the stored equation table with records in one transaction.
// Row order is preserved so duplicate keys resolve the same way as the CSV.
func (s *Store) SaveRecords(ctx context.Context, records []allometry.EquationRecord) (int, error) {
	start := time.Now()
	rows := make([]Equation, len(records))
	for i := range records {
		rows[i] = fromRecord(&records[i], i)
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&Equation{}).Error; err != nil {
			return fmt.Errorf("failed to clear equations: %w", err)
		}
		if len(rows) == 0 {
			return nil
		}
		if err := tx.CreateInBatches(rows, saveBatchSize).Error; err != nil {
			return fmt.Errorf("failed to insert equations: %w", err)
		}
		return nil
	})
	elapsed := s.record(metrics.OpSaveRecords, start, err)
	if err != nil {
		return 0, timedDBError(err, metrics.OpSaveRecords, elapsed, "records", len(records))
	}

	if s.metrics != nil {
		s.metrics.UpdateTableRowCount(equationsTable, int64(len(rows)))
	}
	s.log.Info("equation table replaced", logger.Int("records", len(rows)))
	return len(rows), nil
}

// LoadRecords implements allometry.RecordSource. Records come back in the order
// they were saved.
func (s *Store) LoadRecords(ctx context.Context) ([]allometry.EquationRecord, error) {
	start := time.Now()
	var rows []Equation
	err := s.db.WithContext(ctx).Order("position, id").Find(&rows).Error
	elapsed := s.record(metrics.OpLoadRecords, start, err)
	if err != nil {
		return nil, timedDBError(fmt.Errorf("failed to load equations: %w", err), metrics.OpLoadRecords, elapsed)
	}

	records := make([]allometry.EquationRecord, len(rows))
	for i := range rows {
		records[i] = rows[i].toRecord()
	}
	return records, nil
}

// Count returns the number of stored equations.
func (s *Store) Count(ctx context.Context) (int64, error) {
	start := time.Now()
	var n int64
	err := s.db.WithContext(ctx).Model(&Equation{}).Count(&n).Error
	elapsed := s.record(metrics.OpCountRecords, start, err)
	if err != nil {
		return 0, timedDBError(fmt.Errorf("failed to count equations: %w", err), metrics.OpCountRecords, elapsed)
	}
	if s.metrics != nil {
		s.metrics.UpdateTableRowCount(equationsTable, n)
	}
	return n, nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	if s.db == nil {
		return fmt.Errorf("database connection is not initialized")
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return dbError(fmt.Errorf("failed to retrieve generic DB object: %w", err), "close")
	}
	if err := sqlDB.Close(); err != nil {
		return dbError(fmt.Errorf("failed to close %s database: %w", s.dialect, err), "close")
	}
	return nil
}

func (s *Store) record(op string, start time.Time, err error) time.Duration {
	elapsed := time.Since(start)
	if s.metrics != nil {
		s.metrics.RecordDbOperation(op, equationsTable, elapsed.Seconds(), err)
	}
	return elapsed
}

// dbError creates a categorized database error with context pairs.
func dbError(err error, operation string, kv ...any) error {
	return withPairs(errors.New(err).
		Component("datastore").
		Category(errors.CategoryDatabase).
		Context("operation", operation), kv)
}

// timedDBError is dbError for a query that ran for elapsed before failing.
func timedDBError(err error, operation string, elapsed time.Duration, kv ...any) error {
	return withPairs(errors.New(err).
		Component("datastore").
		Category(errors.CategoryDatabase).
		Timing(operation, elapsed), kv)
}

func withPairs(builder *errors.ErrorBuilder, kv []any) error {
	for i := 0; i < len(kv)-1; i += 2 {
		if key, ok := kv[i].(string); ok {
			builder = builder.Context(key, kv[i+1])
		}
	}
	return builder.Build()
}

func validationError(message, field string, value any) error {
	return errors.Newf("%s", message).
		Component("datastore").
		Category(errors.CategoryValidation).
		Context("field", field).
		Context("value", fmt.Sprintf("%v", value)).
		Build()
}
