package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadFromFile_Defaults(t *testing.T) {
	path := writeConfig(t, `
database:
  driver: sqlite
  sqlite:
    path: /tmp/executions.db
`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, "rpa-assistant", cfg.App.Name)
	assert.Equal(t, DriverSQLite, cfg.Database.Driver)
	assert.Equal(t, "/tmp/executions.db", cfg.Database.SQLite.Path)
	assert.Equal(t, 10, cfg.Database.MaxConnections)
	assert.Equal(t, 30000, cfg.Chatbot.RequestTimeout)
	assert.Equal(t, ":8080", cfg.HTTP.Address)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.False(t, cfg.Redis.Enabled)
}

func TestLoadFromFile_MySQLWithEnvOverrides(t *testing.T) {
	t.Setenv("RPA_DB_HOST", "db.internal")
	t.Setenv("DATABASE_MYSQL_PASSWORD", "s3cret")

	path := writeConfig(t, `
database:
  driver: mysql
  mysql:
    host: ${RPA_DB_HOST}
    database: rpa_database
    user: rpa
redis:
  enabled: true
  address: localhost:6379
  cache_ttl: 5000
`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, "db.internal", cfg.Database.MySQL.Host)
	assert.Equal(t, "s3cret", cfg.Database.MySQL.Password)
	assert.Equal(t, 3306, cfg.Database.MySQL.Port)
	assert.Equal(t, "rpa:s3cret@tcp(db.internal:3306)/rpa_database?parseTime=true", cfg.Database.MySQL.GetDSN())
	assert.Equal(t, 5*time.Second, GetDuration(cfg.Redis.CacheTTL))
}

func TestLoadFromFile_ValidationErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{
			name: "unsupported driver",
			body: "database:\n  driver: oracle\n",
			want: `database.driver "oracle" is not supported`,
		},
		{
			name: "mysql without host",
			body: "database:\n  driver: mysql\n  mysql:\n    database: rpa\n    user: rpa\n",
			want: "database.mysql.host is required",
		},
		{
			name: "postgres without user",
			body: "database:\n  driver: postgres\n  postgres:\n    host: pg\n    database: rpa\n",
			want: "database.postgres.user is required",
		},
		{
			name: "redis without address",
			body: "database:\n  driver: duckdb\nredis:\n  enabled: true\n",
			want: "redis.address is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFromFile(writeConfig(t, tt.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadFromFile_Missing(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestPostgresConfig_GetDSN(t *testing.T) {
	p := PostgresConfig{Host: "pg", Port: 5432, Database: "rpa", User: "rpa", Password: "p@ss", SSLMode: "disable"}
	assert.Equal(t, "postgres://rpa:p%40ss@pg:5432/rpa?sslmode=disable", p.GetDSN())
}
