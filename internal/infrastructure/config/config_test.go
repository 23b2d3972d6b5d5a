package config

import (
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearMuhasebeEnv(t *testing.T) {
	t.Helper()
	for _, kv := range os.Environ() {
		key, _, _ := strings.Cut(kv, "=")
		if strings.HasPrefix(key, "MUHASEBE_") {
			t.Setenv(key, "")
			os.Unsetenv(key)
		}
	}
}

func TestLoad(t *testing.T) {
	t.Run("loads default values when env vars not set", func(t *testing.T) {
		clearMuhasebeEnv(t)

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "muhasebe", cfg.App.Name)
		assert.Equal(t, "development", cfg.App.Env)
		assert.Equal(t, "8080", cfg.App.Port)
		assert.Equal(t, "localhost", cfg.Database.Host)
		assert.Equal(t, 5432, cfg.Database.Port)
		assert.Equal(t, "muhasebe", cfg.Database.DBName)
		assert.Equal(t, 25, cfg.Database.MaxOpenConns)
		assert.Equal(t, 200*time.Millisecond, cfg.Database.SlowThreshold)
		assert.False(t, cfg.Redis.Enabled)
		assert.Equal(t, "localhost:6379", cfg.Redis.Addr())
		assert.Equal(t, "muhasebe", cfg.Telemetry.ServiceName)
		assert.Equal(t, 90, cfg.Analytics.ForecastWindowDays)
		assert.Equal(t, "1000000", cfg.Analytics.SuspiciousThreshold.String())
		assert.Equal(t, "5000000", cfg.Analytics.HighThreshold.String())
		assert.Equal(t, 0.1, cfg.Analytics.OutlierContamination)
		assert.Equal(t, 24*time.Hour, cfg.Idempotency.TTL)
		assert.False(t, cfg.Scheduler.Enabled)
		assert.Equal(t, "0 2 * * *", cfg.Scheduler.DailyCron)
		assert.Equal(t, 90, cfg.Scheduler.LookbackDays)
		assert.Equal(t, 2, cfg.Scheduler.Workers)
	})

	t.Run("loads values from environment variables with MUHASEBE prefix", func(t *testing.T) {
		clearMuhasebeEnv(t)
		t.Setenv("MUHASEBE_APP_PORT", "9000")
		t.Setenv("MUHASEBE_DATABASE_HOST", "db.internal")
		t.Setenv("MUHASEBE_DATABASE_MAX_OPEN_CONNS", "50")
		t.Setenv("MUHASEBE_DATABASE_MAX_IDLE_CONNS", "10")
		t.Setenv("MUHASEBE_REDIS_ENABLED", "true")
		t.Setenv("MUHASEBE_ANALYTICS_SUSPICIOUS_THRESHOLD", "250000.50")
		t.Setenv("MUHASEBE_ANALYTICS_FORECAST_WINDOW_DAYS", "30")
		t.Setenv("MUHASEBE_IDEMPOTENCY_TTL", "2h")
		t.Setenv("MUHASEBE_SCHEDULER_ENABLED", "true")
		t.Setenv("MUHASEBE_SCHEDULER_DAILY_CRON", "30 3 * * *")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "9000", cfg.App.Port)
		assert.Equal(t, "db.internal", cfg.Database.Host)
		assert.Equal(t, 50, cfg.Database.MaxOpenConns)
		assert.Equal(t, 10, cfg.Database.MaxIdleConns)
		assert.True(t, cfg.Redis.Enabled)
		assert.Equal(t, "250000.5", cfg.Analytics.SuspiciousThreshold.String())
		assert.Equal(t, 30, cfg.Analytics.ForecastWindowDays)
		assert.Equal(t, 2*time.Hour, cfg.Idempotency.TTL)
		assert.True(t, cfg.Scheduler.Enabled)
		assert.Equal(t, "30 3 * * *", cfg.Scheduler.DailyCron)
		assert.Equal(t, 30, cfg.Scheduler.LookbackDays)
	})

	t.Run("reads a local .env without overriding the environment", func(t *testing.T) {
		clearMuhasebeEnv(t)
		t.Chdir(t.TempDir())
		env := "MUHASEBE_APP_PORT=7070\nMUHASEBE_DATABASE_HOST=from-dotenv\n"
		require.NoError(t, os.WriteFile(".env", []byte(env), 0o600))

		// registered for cleanup, then unset so the .env value applies
		t.Setenv("MUHASEBE_APP_PORT", "")
		os.Unsetenv("MUHASEBE_APP_PORT")
		t.Setenv("MUHASEBE_DATABASE_HOST", "from-env")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "7070", cfg.App.Port)
		assert.Equal(t, "from-env", cfg.Database.Host)
	})

	t.Run("rejects malformed threshold", func(t *testing.T) {
		clearMuhasebeEnv(t)
		t.Setenv("MUHASEBE_ANALYTICS_HIGH_THRESHOLD", "beş milyon")

		_, err := Load()
		assert.ErrorContains(t, err, "analytics.high_threshold")
	})
}

func TestConfig_Validate(t *testing.T) {
	valid := func() *Config {
		cfg := &Config{}
		applyDefaults(cfg)
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"defaults are valid", func(c *Config) {}, ""},
		{"idle over open", func(c *Config) { c.Database.MaxIdleConns = 100 }, "max_idle_conns"},
		{"production without password", func(c *Config) { c.App.Env = "production" }, "database.password"},
		{"production without ssl", func(c *Config) {
			c.App.Env = "production"
			c.Database.Password = "secret"
		}, "sslmode"},
		{"sampling ratio out of range", func(c *Config) { c.Telemetry.SamplingRatio = 1.5 }, "sampling_ratio"},
		{"storage without bucket", func(c *Config) { c.Storage.Enabled = true }, "storage.bucket"},
		{"high below suspicious", func(c *Config) {
			c.Analytics.HighThreshold = c.Analytics.SuspiciousThreshold.Div(c.Analytics.SuspiciousThreshold)
		}, "thresholds"},
		{"contamination too large", func(c *Config) { c.Analytics.OutlierContamination = 0.6 }, "outlier_contamination"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestDatabaseConfig_DSN(t *testing.T) {
	d := DatabaseConfig{Host: "db", Port: 5432, User: "muhasebe", Password: "p@ss word", DBName: "defter", SSLMode: "require"}
	assert.Equal(t, "postgres://muhasebe:p%40ss%20word@db:5432/defter?sslmode=require", d.DSN())
}
