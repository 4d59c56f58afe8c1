package executor

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rpa-assistant/internal/chatbot/catalog"
	"rpa-assistant/internal/common/config"
	"rpa-assistant/internal/common/database"
	"rpa-assistant/internal/common/logger"
	"rpa-assistant/internal/models"
)

func newMockExecutor(t *testing.T, opts ...Option) (*Executor, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	// One connection: a leaked one would block the next call.
	db.SetMaxOpenConns(1)

	store := database.NewSQLStore(db, config.DriverMySQL)
	return New(catalog.Defaults(catalog.DialectMySQL), store, logger.NewTestLogger(t), opts...), mock
}

func TestExecute_BindsParamsAndReturnsRows(t *testing.T) {
	e, mock := newMockExecutor(t)

	mock.ExpectQuery(`SELECT status, start_time, end_time, duration FROM bot_executions WHERE job_id = \?`).
		WithArgs("1234").
		WillReturnRows(sqlmock.NewRows([]string{"status", "start_time", "end_time", "duration"}).
			AddRow("Completed", "2024-01-01 10:00", "2024-01-01 10:05", "5m"))

	out := e.Execute(context.Background(), models.IntentCheckJobStatus, []string{"1234"})

	require.False(t, out.Failed())
	assert.Equal(t, models.OutcomeAnswered, out.Kind())
	assert.Equal(t, "Completed", out.Rows[0]["status"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExecute_ReleasesConnectionEveryCall(t *testing.T) {
	e, mock := newMockExecutor(t)

	for i := 0; i < 3; i++ {
		mock.ExpectQuery(`SELECT COUNT\(\*\) AS failed_jobs`).
			WillReturnRows(sqlmock.NewRows([]string{"failed_jobs"}).AddRow(int64(i)))
	}
	mock.ExpectQuery(`SELECT COUNT\(\*\) AS failed_jobs`).WillReturnError(errors.New("deadlock found"))
	mock.ExpectQuery(`SELECT COUNT\(\*\) AS failed_jobs`).
		WillReturnRows(sqlmock.NewRows([]string{"failed_jobs"}).AddRow(int64(7)))

	for i := 0; i < 3; i++ {
		out := e.Execute(context.Background(), models.IntentFailedJobs, []string{})
		require.False(t, out.Failed())
		assert.Equal(t, int64(i), out.Rows[0]["failed_jobs"])
	}
	assert.True(t, e.Execute(context.Background(), models.IntentFailedJobs, nil).Failed())
	assert.False(t, e.Execute(context.Background(), models.IntentFailedJobs, nil).Failed())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExecute_ParamsBindLeftToRight(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	c := catalog.MustNew(catalog.Definition{
		Name:     "bot_on_machine",
		Pattern:  `bot (\w+) on (\S+)`,
		Query:    "SELECT status FROM bot_executions WHERE bot_name = ? AND machine_name = ?",
		Params:   []string{"bot_name", "machine_name"},
		Shape:    models.ShapeSingleRowFields,
		Response: "{bot_name} on {machine_name}: {status}",
		Fields:   []string{"status"},
	})
	mock.ExpectQuery(`WHERE bot_name = \? AND machine_name = \?`).
		WithArgs("Invoice", "VM-7").
		WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow("Running"))

	e := New(c, database.NewSQLStore(db, config.DriverMySQL), logger.NewNoOpLogger())
	out := e.Execute(context.Background(), "bot_on_machine", []string{"Invoice", "VM-7"})

	require.False(t, out.Failed())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExecute_EmptyResult(t *testing.T) {
	e, mock := newMockExecutor(t)

	mock.ExpectQuery(`SELECT bot_name, machine_name, start_time FROM bot_executions WHERE status = 'Running'`).
		WillReturnRows(sqlmock.NewRows([]string{"bot_name", "machine_name", "start_time"}))

	out := e.Execute(context.Background(), models.IntentListRunningBots, nil)
	require.False(t, out.Failed())
	assert.NotNil(t, out.Rows)
	assert.Equal(t, models.OutcomeEmpty, out.Kind())
}

func TestExecute_QueryFailure(t *testing.T) {
	e, mock := newMockExecutor(t)

	mock.ExpectQuery(`SELECT machine_name, machine_status`).
		WithArgs("VM-01").
		WillReturnError(errors.New("Unknown column 'machine_status' in 'field list'"))

	out := e.Execute(context.Background(), models.IntentMachineStatus, []string{"VM-01"})

	require.True(t, out.Failed())
	assert.Equal(t, models.QueryFailure, out.Failure.Kind)
	assert.Equal(t, "Query error: Unknown column 'machine_status' in 'field list'", out.Failure.Message())
}

type failingConnector struct {
	err error
}

func (f failingConnector) Connect(context.Context) (database.Conn, error) {
	return nil, f.err
}

func TestExecute_ConnectionFailure(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"wrapped", &database.Error{Kind: database.ErrConnectionFailed, Err: errors.New("dial tcp 10.0.0.5:3306: connect: connection refused")}},
		{"bare", errors.New("dial tcp 10.0.0.5:3306: connect: connection refused")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := New(catalog.Defaults(catalog.DialectMySQL), failingConnector{err: tt.err}, logger.NewNoOpLogger())

			out := e.Execute(context.Background(), models.IntentCheckJobStatus, []string{"1234"})
			require.True(t, out.Failed())
			assert.Equal(t, models.OutcomeConnectionFailure, out.Kind())
			assert.Equal(t, "Database connection failed: dial tcp 10.0.0.5:3306: connect: connection refused", out.Failure.Message())
		})
	}
}

func TestExecute_UnknownIntentAndArity(t *testing.T) {
	e, mock := newMockExecutor(t)

	out := e.Execute(context.Background(), "reboot_machine", nil)
	require.True(t, out.Failed())
	assert.Equal(t, models.QueryFailure, out.Failure.Kind)
	assert.Contains(t, out.Failure.Reason, `unknown intent "reboot_machine"`)

	out = e.Execute(context.Background(), models.IntentCheckJobStatus, nil)
	require.True(t, out.Failed())
	assert.Equal(t, "Query error: intent check_job_status expects 1 parameters, got 0", out.Failure.Message())

	assert.NoError(t, mock.ExpectationsWereMet())
}

type memoryCache struct {
	entries map[string][]models.Row
	sets    int
}

func (m *memoryCache) key(intent models.IntentName, params []string) string {
	k := string(intent)
	for _, p := range params {
		k += "|" + p
	}
	return k
}

func (m *memoryCache) Get(_ context.Context, intent models.IntentName, params []string) ([]models.Row, bool) {
	rows, ok := m.entries[m.key(intent, params)]
	return rows, ok
}

func (m *memoryCache) Set(_ context.Context, intent models.IntentName, params []string, rows []models.Row) {
	m.sets++
	m.entries[m.key(intent, params)] = rows
}

func TestExecute_CacheReadThrough(t *testing.T) {
	c := &memoryCache{entries: map[string][]models.Row{}}
	e, mock := newMockExecutor(t, WithCache(c))

	mock.ExpectQuery(`SELECT machine_name, machine_status`).
		WithArgs("VM-01").
		WillReturnRows(sqlmock.NewRows([]string{"machine_name", "machine_status"}).AddRow("VM-01", "Online"))

	first := e.Execute(context.Background(), models.IntentMachineStatus, []string{"VM-01"})
	second := e.Execute(context.Background(), models.IntentMachineStatus, []string{"VM-01"})

	assert.False(t, first.Cached)
	assert.True(t, second.Cached)
	assert.Equal(t, first.Rows, second.Rows)
	assert.Equal(t, 1, c.sets)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExecute_FailuresAreNotCached(t *testing.T) {
	c := &memoryCache{entries: map[string][]models.Row{}}
	e, mock := newMockExecutor(t, WithCache(c))

	mock.ExpectQuery(`SELECT machine_name, machine_status`).WillReturnError(errors.New("lock wait timeout"))

	out := e.Execute(context.Background(), models.IntentMachineStatus, []string{"VM-01"})
	assert.True(t, out.Failed())
	assert.Zero(t, c.sets)
}
