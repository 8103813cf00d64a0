package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_BuildsDSNFromParts(t *testing.T) {
	t.Setenv("ATTENDANCE_JWT_SECRET_KEY", "s3cret")
	t.Setenv("ATTENDANCE_DB_HOST", "db")
	t.Setenv("ATTENDANCE_DB_USER", "app")
	t.Setenv("ATTENDANCE_DB_PASSWORD", "p@ss")
	t.Setenv("ATTENDANCE_DB_NAME", "attendance")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres://app:p%40ss@db:5432/attendance?sslmode=disable", cfg.DB.DSN)
	assert.Equal(t, "8080", cfg.App.Port)
	assert.Equal(t, int64(24), cfg.JWT.ExpirationHours)
	assert.Equal(t, 10*time.Minute, cfg.Scan.SessionTTL)
	assert.Equal(t, 8, cfg.Roster.FetchConcurrency)
	assert.Empty(t, cfg.Redis.URL)
}

func TestLoad_RequiresDatabase(t *testing.T) {
	t.Setenv("ATTENDANCE_JWT_SECRET_KEY", "s3cret")
	t.Setenv("ATTENDANCE_DB_DSN", "")
	t.Setenv("ATTENDANCE_DB_HOST", "")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_RequiresJWTSecret(t *testing.T) {
	t.Setenv("ATTENDANCE_JWT_SECRET_KEY", "")
	t.Setenv("ATTENDANCE_DB_DSN", "postgres://localhost/attendance")

	_, err := Load()
	assert.Error(t, err)
}

func TestReportLocationFallback(t *testing.T) {
	assert.Equal(t, time.Local, ReportConfig{Timezone: "Not/AZone"}.Location())
	assert.Equal(t, "UTC", ReportConfig{Timezone: "UTC"}.Location().String())
}
