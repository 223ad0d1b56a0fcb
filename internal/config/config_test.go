package config

import (
	"flag"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "toir.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(nil, io.Discard)
	require.NoError(t, err)
	assert.Equal(t, Default(), *cfg)

	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, "UTC", loc.String())
}

func TestLoadPrecedence(t *testing.T) {
	path := writeFile(t, `
db: from-file.sqlite3
addr: ":9000"
jwt_ttl: 2h
scheduler:
  spec: "@daily"
  timezone: Europe/Moscow
  horizon: 48h
login:
  rate_per_minute: 3
  burst: 2
`)
	t.Setenv("TOIR_CONFIG", path)
	t.Setenv("TOIR_ADDR", ":9100")
	t.Setenv("TOIR_SCHEDULER_SPEC", "@hourly")
	t.Setenv("TOIR_JWT_SECRET", "from-env")

	cfg, err := Load([]string{"-a", ":9200"}, io.Discard)
	require.NoError(t, err)

	assert.Equal(t, "from-file.sqlite3", cfg.DB, "file overrides default")
	assert.Equal(t, 2*time.Hour, cfg.JWTTTL)
	assert.Equal(t, "Europe/Moscow", cfg.Scheduler.Timezone)
	assert.Equal(t, 48*time.Hour, cfg.Scheduler.Horizon)
	assert.Equal(t, LoginConfig{RatePerMinute: 3, Burst: 2}, cfg.Login)
	assert.Equal(t, "@hourly", cfg.Scheduler.Spec, "env overrides file")
	assert.Equal(t, "from-env", cfg.JWTSecret)
	assert.Equal(t, ":9200", cfg.Addr, "flag overrides env")
	assert.Equal(t, "admin", cfg.AdminUser, "untouched keys keep defaults")
}

func TestLoadConfigFlag(t *testing.T) {
	path := writeFile(t, "admin_user: chief\n")

	cfg, err := Load([]string{"-config", path, "-db", "x.sqlite3", "-schedule", "0 */2 * * *"}, io.Discard)
	require.NoError(t, err)
	assert.Equal(t, "chief", cfg.AdminUser)
	assert.Equal(t, "x.sqlite3", cfg.DB)
	assert.Equal(t, "0 */2 * * *", cfg.Scheduler.Spec)
}

func TestLoadErrors(t *testing.T) {
	t.Run("unknown file key", func(t *testing.T) {
		_, err := Load([]string{"-c", writeFile(t, "port: 80\n")}, io.Discard)
		assert.Error(t, err)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := Load([]string{"-c", filepath.Join(t.TempDir(), "nope.yaml")}, io.Discard)
		assert.Error(t, err)
	})

	t.Run("bad duration", func(t *testing.T) {
		t.Setenv("TOIR_JWT_TTL", "forever")
		_, err := Load(nil, io.Discard)
		assert.Error(t, err)
	})

	t.Run("bad timezone", func(t *testing.T) {
		t.Setenv("TOIR_SCHEDULER_TIMEZONE", "Mars/Olympus")
		_, err := Load(nil, io.Discard)
		assert.Error(t, err)
	})

	t.Run("bad login rate", func(t *testing.T) {
		t.Setenv("TOIR_LOGIN_BURST", "0")
		_, err := Load(nil, io.Discard)
		assert.Error(t, err)
	})

	t.Run("unexpected argument", func(t *testing.T) {
		_, err := Load([]string{"serve"}, io.Discard)
		assert.Error(t, err)
	})

	t.Run("help", func(t *testing.T) {
		_, err := Load([]string{"-h"}, io.Discard)
		assert.ErrorIs(t, err, flag.ErrHelp)
	})
}

func TestEmptyFile(t *testing.T) {
	cfg, err := Load([]string{"-c", writeFile(t, "")}, io.Discard)
	require.NoError(t, err)
	assert.Equal(t, Default(), *cfg)
}
