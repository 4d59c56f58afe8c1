package database

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rpa-assistant/internal/common/config"
	"rpa-assistant/internal/models"
)

func TestSQLStore_QueryBindsArgsAndScansRows(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	rows := sqlmock.NewRows([]string{"bot_name", "machine_name", "start_time"}).
		AddRow([]byte("InvoiceBot"), "VM-01", "2024-01-01 09:00").
		AddRow("PayrollBot", "VM-02", nil)
	mock.ExpectQuery(`SELECT bot_name, machine_name, start_time FROM bot_executions WHERE status = \?`).
		WithArgs("Running").
		WillReturnRows(rows)

	store := NewSQLStore(db, config.DriverMySQL)
	conn, err := store.Connect(context.Background())
	require.NoError(t, err)

	got, err := conn.Query(context.Background(),
		"SELECT bot_name, machine_name, start_time FROM bot_executions WHERE status = ?", "Running")
	require.NoError(t, err)
	require.NoError(t, conn.Close())

	assert.Equal(t, []models.Row{
		{"bot_name": "InvoiceBot", "machine_name": "VM-01", "start_time": "2024-01-01 09:00"},
		{"bot_name": "PayrollBot", "machine_name": "VM-02", "start_time": nil},
	}, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLStore_QueryEmptyResultIsNotNil(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT`).WillReturnRows(sqlmock.NewRows([]string{"status"}))

	conn, err := NewSQLStore(db, config.DriverMySQL).Connect(context.Background())
	require.NoError(t, err)
	defer conn.Close()

	got, err := conn.Query(context.Background(), "SELECT status FROM bot_executions")
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestSQLStore_QueryError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT`).WillReturnError(errors.New("Table 'rpa.bot_executions' doesn't exist"))

	conn, err := NewSQLStore(db, config.DriverMySQL).Connect(context.Background())
	require.NoError(t, err)
	defer conn.Close()

	_, err = conn.Query(context.Background(), "SELECT status FROM bot_executions")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrQueryFailed))
	assert.Contains(t, err.Error(), "doesn't exist")
}

func TestSQLStore_ConnectOnClosedPool(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	mock.ExpectClose()
	require.NoError(t, db.Close())

	_, err = NewSQLStore(db, config.DriverMySQL).Connect(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrConnectionFailed))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOpen_SQLite(t *testing.T) {
	store, err := Open(config.DatabaseConfig{
		Driver:         config.DriverSQLite,
		SQLite:         config.FileDBConfig{Path: filepath.Join(t.TempDir(), "executions.db")},
		MaxConnections: 2,
		MaxIdle:        1,
	})
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()
	require.NoError(t, store.Ping(ctx))
	_, err = store.DB.ExecContext(ctx, `CREATE TABLE bot_executions (job_id INTEGER, status TEXT)`)
	require.NoError(t, err)
	_, err = store.DB.ExecContext(ctx, `INSERT INTO bot_executions VALUES (1234, 'Completed')`)
	require.NoError(t, err)

	conn, err := store.Connect(ctx)
	require.NoError(t, err)
	defer conn.Close()

	rows, err := conn.Query(ctx, `SELECT status FROM bot_executions WHERE job_id = ?`, "1234")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Completed", rows[0]["status"])
}

func TestOpen_UnsupportedDriver(t *testing.T) {
	_, err := Open(config.DatabaseConfig{Driver: "oracle"})
	assert.True(t, errors.Is(err, ErrUnsupportedDriver))
}

func TestRedisClient_Ping(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)

	client := NewRedis(config.RedisConfig{Address: mr.Addr()})
	defer client.Close()
	assert.NoError(t, client.Ping(context.Background()))

	mr.Close()
	assert.Error(t, client.Ping(context.Background()))
}
