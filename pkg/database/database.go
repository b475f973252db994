package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"climate-api/pkg/logging"
	"climate-api/pkg/metrics"
)

// Supported drivers
const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
)

// Config holds database connection configuration
type Config struct {
	Driver string

	// Path is the SQLite database file. Ignored for postgres.
	Path string

	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string

	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

// DSN builds the driver specific connection string.
func (c *Config) DSN() (string, error) {
	switch c.Driver {
	case DriverSQLite:
		if c.Path == "" {
			return "", errors.New("sqlite path is required")
		}
		// The dataset is never written, so the file is opened read-only.
		path := c.Path
		if !strings.HasPrefix(path, "file:") {
			path = "file:" + path
		}
		sep := "?"
		if strings.Contains(path, "?") {
			sep = "&"
		}
		return path + sep + "mode=ro&_busy_timeout=5000", nil

	case DriverPostgres:
		return fmt.Sprintf(
			"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			c.Host,
			c.Port,
			c.User,
			c.Password,
			c.Database,
			c.SSLMode,
		), nil

	default:
		return "", fmt.Errorf("unsupported database driver %q", c.Driver)
	}
}

// DB wraps sqlx.DB with monitoring and metrics
type DB struct {
	db      *sqlx.DB
	logger  *logging.StructuredLogger
	metrics *metrics.Collector
	config  *Config

	stop      chan struct{}
	closeOnce sync.Once
}

// New opens a database connection for the configured driver
func New(cfg *Config, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) (*DB, error) {
	dsn, err := cfg.DSN()
	if err != nil {
		return nil, err
	}

	db, err := sqlx.Open(cfg.Driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	// Configure connection pool
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns >= 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	fields := logging.Fields{
		"driver":            cfg.Driver,
		"max_open_conns":    cfg.MaxOpenConns,
		"max_idle_conns":    cfg.MaxIdleConns,
		"conn_max_lifetime": cfg.ConnMaxLifetime.String(),
	}
	if cfg.Driver == DriverSQLite {
		fields["path"] = cfg.Path
	} else {
		fields["host"] = cfg.Host
		fields["port"] = cfg.Port
		fields["database"] = cfg.Database
	}
	logger.Info(context.Background(), "[DB_INIT] Database connection established", fields)

	wrapped := &DB{
		db:      db,
		logger:  logger,
		metrics: metricsCollector,
		config:  cfg,
		stop:    make(chan struct{}),
	}

	go wrapped.monitorConnectionPool(10 * time.Second)

	return wrapped, nil
}

// Close stops pool monitoring and closes the database connection
func (d *DB) Close() error {
	var err error
	d.closeOnce.Do(func() {
		close(d.stop)
		d.logger.Info(context.Background(), "[DB_CLOSE] Closing database connection", logging.Fields{
			"driver": d.config.Driver,
		})
		err = d.db.Close()
	})
	return err
}

// DB returns the underlying sqlx.DB instance
func (d *DB) DB() *sqlx.DB {
	return d.db
}

// DriverName returns the name of the active driver
func (d *DB) DriverName() string {
	return d.db.DriverName()
}

// GetContext executes a query that returns a single row.
// Queries use '?' placeholders and are rebound for the active driver.
func (d *DB) GetContext(ctx context.Context, queryType string, dest interface{}, query string, args ...interface{}) error {
	timer := d.metrics.NewTimer(d.metrics.DBQueryDuration.WithLabelValues(queryType))
	defer func() {
		duration := timer.ObserveDuration()
		d.logger.Debug(ctx, "[DB_GET] Query executed", logging.Fields{
			"query_type":  queryType,
			"duration_ms": duration.Milliseconds(),
		})
	}()

	err := d.db.GetContext(ctx, dest, d.db.Rebind(query), args...)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		d.metrics.RecordDBError("get_error")
		d.logger.Error(ctx, "[DB_GET_ERROR] Get query failed", logging.Fields{
			"query_type": queryType,
		}, err)
	}

	return err
}

// SelectContext executes a query that returns multiple rows
func (d *DB) SelectContext(ctx context.Context, queryType string, dest interface{}, query string, args ...interface{}) error {
	timer := d.metrics.NewTimer(d.metrics.DBQueryDuration.WithLabelValues(queryType))
	defer func() {
		duration := timer.ObserveDuration()
		d.logger.Debug(ctx, "[DB_SELECT] Query executed", logging.Fields{
			"query_type":  queryType,
			"duration_ms": duration.Milliseconds(),
		})
	}()

	err := d.db.SelectContext(ctx, dest, d.db.Rebind(query), args...)
	if err != nil {
		d.metrics.RecordDBError("select_error")
		d.logger.Error(ctx, "[DB_SELECT_ERROR] Select query failed", logging.Fields{
			"query_type": queryType,
		}, err)
		return err
	}

	return nil
}

// TableColumns returns the column names the store reports for table.
// The query selects no rows, so it only touches the catalog.
func (d *DB) TableColumns(ctx context.Context, table string) ([]string, error) {
	rows, err := d.db.QueryxContext(ctx, fmt.Sprintf("SELECT * FROM %s WHERE 1=0", table))
	if err != nil {
		d.metrics.RecordDBError("schema_error")
		return nil, fmt.Errorf("failed to inspect table %s: %w", table, err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read columns of %s: %w", table, err)
	}

	return columns, nil
}

// VerifyColumns fails if table lacks any of the expected columns
func (d *DB) VerifyColumns(ctx context.Context, table string, expected []string) error {
	columns, err := d.TableColumns(ctx, table)
	if err != nil {
		return err
	}

	present := make(map[string]bool, len(columns))
	for _, c := range columns {
		present[strings.ToLower(c)] = true
	}

	var missing []string
	for _, c := range expected {
		if !present[strings.ToLower(c)] {
			missing = append(missing, c)
		}
	}

	if len(missing) > 0 {
		return &SchemaMismatchError{Table: table, Missing: missing}
	}

	d.logger.Debug(ctx, "[DB_SCHEMA] Table verified", logging.Fields{
		"table":   table,
		"columns": columns,
	})

	return nil
}

// monitorConnectionPool periodically updates connection pool metrics
func (d *DB) monitorConnectionPool(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-d.stop:
			return
		case <-ticker.C:
			d.samplePool()
		}
	}
}

func (d *DB) samplePool() {
	stats := d.db.Stats()

	d.metrics.UpdateDBConnectionPool(
		stats.InUse,
		stats.Idle,
		stats.OpenConnections,
	)

	if stats.MaxOpenConnections <= 0 {
		return
	}

	// Log warning if connection pool is near capacity
	utilization := float64(stats.InUse) / float64(stats.MaxOpenConnections)
	if utilization > 0.8 {
		d.logger.Warn(context.Background(), "[DB_POOL_WARNING] Connection pool utilization high", logging.Fields{
			"in_use":      stats.InUse,
			"idle":        stats.Idle,
			"total":       stats.OpenConnections,
			"max_open":    stats.MaxOpenConnections,
			"utilization": fmt.Sprintf("%.2f%%", utilization*100),
		})
	}
}

// HealthCheck performs a database health check
func (d *DB) HealthCheck(ctx context.Context) error {
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := d.db.PingContext(pingCtx); err != nil {
		return fmt.Errorf("database health check failed: %w", err)
	}

	return nil
}

// SchemaMismatchError reports columns missing from a table
type SchemaMismatchError struct {
	Table   string
	Missing []string
}

func (e *SchemaMismatchError) Error() string {
	return fmt.Sprintf("table %s is missing columns: %s", e.Table, strings.Join(e.Missing, ", "))
}
