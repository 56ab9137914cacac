package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "vigil", cfg.App.Name)
	assert.Equal(t, "development", cfg.App.Mode)
	assert.Equal(t, "info", cfg.App.LogLevel)

	assert.False(t, cfg.Database.Enabled)
	assert.Equal(t, 5432, cfg.Database.Port)

	assert.Equal(t, "http", cfg.Collector.Type)
	assert.Equal(t, 15*time.Second, cfg.Collector.Interval)
	assert.Equal(t, 5*time.Second, cfg.Collector.Timeout)

	assert.Equal(t, 0.5, cfg.Store.Thresholds.Critical)
	assert.Equal(t, 0.3, cfg.Store.Thresholds.High)
	assert.Equal(t, 0.1, cfg.Store.Thresholds.Medium)

	assert.Equal(t, 5*time.Minute, cfg.Alerting.CooldownWindow)

	assert.True(t, cfg.Forecast.Enabled)
	assert.Equal(t, "linear_trend", cfg.Forecast.Model)
	assert.Equal(t, 30*time.Minute, cfg.Forecast.Horizon)
	assert.Equal(t, 10, cfg.Forecast.MinSamples)

	assert.True(t, cfg.Healing.Enabled)
	assert.Equal(t, 30*time.Second, cfg.Healing.ActionTimeout)

	assert.Equal(t, 8080, cfg.API.Port)
	assert.Equal(t, 24*time.Hour, cfg.API.JWTDuration)
}

func TestLoad_DefaultsPassValidation(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.NoError(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg, err := Load("")
		require.NoError(t, err)
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "invalid mode",
			mutate:  func(c *Config) { c.App.Mode = "staging" },
			wantErr: "app.mode",
		},
		{
			name:    "invalid log level",
			mutate:  func(c *Config) { c.App.LogLevel = "verbose" },
			wantErr: "app.log_level",
		},
		{
			name: "database enabled without host",
			mutate: func(c *Config) {
				c.Database.Enabled = true
				c.Database.Host = ""
			},
			wantErr: "database.host",
		},
		{
			name:    "collector timeout exceeds interval",
			mutate:  func(c *Config) { c.Collector.Timeout = c.Collector.Interval },
			wantErr: "collector.timeout",
		},
		{
			name: "unordered severity thresholds",
			mutate: func(c *Config) {
				c.Store.Thresholds.High = 0.6
			},
			wantErr: "store.thresholds",
		},
		{
			name:    "unknown forecast model",
			mutate:  func(c *Config) { c.Forecast.Model = "arima" },
			wantErr: "forecast.model",
		},
		{
			name:    "forecast step beyond horizon",
			mutate:  func(c *Config) { c.Forecast.Step = c.Forecast.Horizon * 2 },
			wantErr: "forecast.step",
		},
		{
			name:    "default jwt secret in production",
			mutate:  func(c *Config) { c.App.Mode = "production" },
			wantErr: "api.jwt_secret",
		},
		{
			name: "webhook without endpoint",
			mutate: func(c *Config) {
				c.Notify.Webhooks = []WebhookConfig{{Name: "ops"}}
			},
			wantErr: "notify.webhooks",
		},
		{
			name:    "invalid port",
			mutate:  func(c *Config) { c.API.Port = 0 },
			wantErr: "api.port",
		},
		{
			name:    "directory enabled without endpoint",
			mutate:  func(c *Config) { c.Directory.Enabled = true },
			wantErr: "directory.endpoint",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidate_DisabledSectionsSkipped(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	// Disabled database and forecast sections are not validated.
	cfg.Database.Enabled = false
	cfg.Database.Host = ""
	cfg.Forecast.Enabled = false
	cfg.Forecast.Model = "bogus"

	assert.NoError(t, cfg.Validate())
}

func TestDatabaseConfig_DSN(t *testing.T) {
	cfg := DatabaseConfig{
		Host: "db.internal", Port: 5432, Name: "vigil",
		User: "vigil", Password: "secret",
	}
	dsn := cfg.DSN()

	assert.Contains(t, dsn, "host=db.internal")
	assert.Contains(t, dsn, "dbname=vigil")
	assert.Contains(t, dsn, "sslmode=disable")
}
