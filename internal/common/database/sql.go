// internal/common/database/sql.go
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"rpa-assistant/internal/common/config"
	"rpa-assistant/internal/models"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "github.com/marcboeker/go-duckdb"
	_ "modernc.org/sqlite"
)

var (
	ErrConnectionFailed  = errors.New("DATABASE_CONNECTION_FAILED")
	ErrQueryFailed       = errors.New("QUERY_EXECUTION_FAILED")
	ErrUnsupportedDriver = errors.New("UNSUPPORTED_DRIVER")
)

// Error carries the driver error behind a connection or query failure.
// errors.Is matches both Kind and the driver error.
type Error struct {
	Kind error
	Err  error
}

func (e *Error) Error() string {
	return e.Kind.Error() + ": " + e.Err.Error()
}

func (e *Error) Unwrap() []error {
	return []error{e.Kind, e.Err}
}

// Connector hands out one store connection per call. Callers must Close it.
type Connector interface {
	Connect(ctx context.Context) (Conn, error)
}

// Conn runs parameterized read queries. Arguments are always bound by the
// driver, never spliced into the query text.
type Conn interface {
	Query(ctx context.Context, query string, args ...interface{}) ([]models.Row, error)
	Close() error
}

// SQLStore is a Connector backed by a database/sql pool.
type SQLStore struct {
	DB     *sql.DB
	Driver string
}

// Open creates the pool for the configured driver. It does not dial; use Ping.
func Open(cfg config.DatabaseConfig) (*SQLStore, error) {
	driverName, dsn, err := driverDSN(cfg)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", cfg.Driver, err)
	}

	db.SetMaxOpenConns(cfg.MaxConnections)
	db.SetMaxIdleConns(cfg.MaxIdle)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)

	return &SQLStore{DB: db, Driver: cfg.Driver}, nil
}

func driverDSN(cfg config.DatabaseConfig) (string, string, error) {
	switch cfg.Driver {
	case config.DriverMySQL:
		return "mysql", cfg.MySQL.GetDSN(), nil
	case config.DriverPostgres:
		return "postgres", cfg.Postgres.GetDSN(), nil
	case config.DriverSQLite:
		if cfg.SQLite.Path == "" {
			return "sqlite", ":memory:", nil
		}
		return "sqlite", cfg.SQLite.Path, nil
	case config.DriverDuckDB:
		return "duckdb", cfg.DuckDB.Path, nil
	default:
		return "", "", fmt.Errorf("%w: %s", ErrUnsupportedDriver, cfg.Driver)
	}
}

// NewSQLStore wraps an existing pool, e.g. one created by sqlmock.
func NewSQLStore(db *sql.DB, driver string) *SQLStore {
	return &SQLStore{DB: db, Driver: driver}
}

// Connect checks a dedicated connection out of the pool.
func (s *SQLStore) Connect(ctx context.Context) (Conn, error) {
	conn, err := s.DB.Conn(ctx)
	if err != nil {
		return nil, &Error{Kind: ErrConnectionFailed, Err: err}
	}
	return &sqlConn{conn: conn}, nil
}

func (s *SQLStore) Ping(ctx context.Context) error {
	return s.DB.PingContext(ctx)
}

func (s *SQLStore) Close() error {
	if s.DB != nil {
		return s.DB.Close()
	}
	return nil
}

type sqlConn struct {
	conn *sql.Conn
}

func (c *sqlConn) Query(ctx context.Context, query string, args ...interface{}) ([]models.Row, error) {
	rows, err := c.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, &Error{Kind: ErrQueryFailed, Err: err}
	}
	defer rows.Close()

	result, err := ScanRows(rows)
	if err != nil {
		return nil, &Error{Kind: ErrQueryFailed, Err: err}
	}
	return result, nil
}

// Close returns the connection to the pool.
func (c *sqlConn) Close() error {
	return c.conn.Close()
}

// ScanRows reads every remaining row into column-keyed maps, preserving row order.
func ScanRows(rows *sql.Rows) ([]models.Row, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	result := make([]models.Row, 0)
	for rows.Next() {
		values := make([]interface{}, len(columns))
		ptrs := make([]interface{}, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}

		row := make(models.Row, len(columns))
		for i, col := range columns {
			if b, ok := values[i].([]byte); ok {
				row[col] = string(b)
				continue
			}
			row[col] = values[i]
		}
		result = append(result, row)
	}
	return result, rows.Err()
}
