package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Load reads configuration from an optional YAML file plus VIGIL_*
// environment variables. A missing config file is not an error; every
// setting has a default.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("/etc/vigil")
	}

	v.SetEnvPrefix("VIGIL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found, use defaults and env vars
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	// App defaults
	v.SetDefault("app.name", "vigil")
	v.SetDefault("app.mode", "development")
	v.SetDefault("app.log_level", "info")
	v.SetDefault("app.shutdown_timeout", "15s")

	// Database defaults
	v.SetDefault("database.enabled", false)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "vigil")
	v.SetDefault("database.user", "vigil")
	v.SetDefault("database.password", "password")
	v.SetDefault("database.max_connections", 25)
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.ping_timeout", "5s")

	// Collector defaults
	v.SetDefault("collector.type", "http")
	v.SetDefault("collector.endpoint", "http://localhost:9000/metrics")
	v.SetDefault("collector.interval", "15s")
	v.SetDefault("collector.timeout", "5s")
	v.SetDefault("collector.retry_attempts", 3)
	v.SetDefault("collector.circuit_breaker.max_failures", 5)
	v.SetDefault("collector.circuit_breaker.timeout", "30s")

	// Store defaults
	v.SetDefault("store.max_samples", 500)
	v.SetDefault("store.epsilon", 1e-6)
	v.SetDefault("store.thresholds.critical", 0.5)
	v.SetDefault("store.thresholds.high", 0.3)
	v.SetDefault("store.thresholds.medium", 0.1)
	v.SetDefault("store.trend_samples", 6)
	v.SetDefault("store.trend_tolerance", 0.05)
	v.SetDefault("store.baseline_min_count", 2)

	// Alerting defaults
	v.SetDefault("alerting.cooldown_window", "5m")
	v.SetDefault("alerting.correlation_window", "2m")
	v.SetDefault("alerting.dispatch_timeout", "5s")
	v.SetDefault("alerting.auto_remediation", false)

	// Forecast defaults
	v.SetDefault("forecast.enabled", true)
	v.SetDefault("forecast.model", "linear_trend")
	v.SetDefault("forecast.interval", "60s")
	v.SetDefault("forecast.horizon", "30m")
	v.SetDefault("forecast.step", "5m")
	v.SetDefault("forecast.min_samples", 10)
	v.SetDefault("forecast.valid_for", "30m")

	// Healing defaults
	v.SetDefault("healing.enabled", true)
	v.SetDefault("healing.action_timeout", "30s")
	v.SetDefault("healing.retry_delay", "2s")
	v.SetDefault("healing.max_records", 200)

	// Activity defaults
	v.SetDefault("activity.enabled", false)
	v.SetDefault("activity.timeout", "3s")

	// Directory defaults
	v.SetDefault("directory.enabled", false)
	v.SetDefault("directory.timeout", "3s")

	// API defaults
	v.SetDefault("api.port", 8080)
	v.SetDefault("api.read_timeout", "15s")
	v.SetDefault("api.write_timeout", "15s")
	v.SetDefault("api.rate_limit", 100)
	v.SetDefault("api.jwt_secret", "change-me-in-production")
	v.SetDefault("api.jwt_duration", "24h")
	v.SetDefault("api.jwt_issuer", "vigil")
	v.SetDefault("api.default_limit", 50)
	v.SetDefault("api.max_limit", 500)

	// WebSocket defaults
	v.SetDefault("websocket.max_connections", 1000)
	v.SetDefault("websocket.ping_interval", "30s")

	// Events defaults
	v.SetDefault("events.buffer_size", 100)
}
