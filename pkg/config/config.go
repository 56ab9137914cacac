package config

import (
	"fmt"
	"time"
)

type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Collector CollectorConfig `mapstructure:"collector"`
	Store     StoreConfig     `mapstructure:"store"`
	Alerting  AlertingConfig  `mapstructure:"alerting"`
	Forecast  ForecastConfig  `mapstructure:"forecast"`
	Healing   HealingConfig   `mapstructure:"healing"`
	Notify    NotifyConfig    `mapstructure:"notify"`
	Activity  ActivityConfig  `mapstructure:"activity"`
	Directory DirectoryConfig `mapstructure:"directory"`
	API       APIConfig       `mapstructure:"api"`
	WebSocket WebSocketConfig `mapstructure:"websocket"`
	Events    EventsConfig    `mapstructure:"events"`
}

type AppConfig struct {
	Name            string        `mapstructure:"name"`
	Mode            string        `mapstructure:"mode"`
	LogLevel        string        `mapstructure:"log_level"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type DatabaseConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	Name            string        `mapstructure:"name"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	MaxConnections  int           `mapstructure:"max_connections"`
	SSLMode         string        `mapstructure:"ssl_mode"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
	PingTimeout     time.Duration `mapstructure:"ping_timeout"`
}

func (d DatabaseConfig) DSN() string {
	sslMode := d.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, sslMode,
	)
}

type CollectorConfig struct {
	Type           string               `mapstructure:"type"`
	Endpoint       string               `mapstructure:"endpoint"`
	Interval       time.Duration        `mapstructure:"interval"`
	Timeout        time.Duration        `mapstructure:"timeout"`
	RetryAttempts  int                  `mapstructure:"retry_attempts"`
	CircuitBreaker CircuitBreakerConfig `mapstructure:"circuit_breaker"`
}

type CircuitBreakerConfig struct {
	MaxFailures int           `mapstructure:"max_failures"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

type StoreConfig struct {
	MaxSamples       int              `mapstructure:"max_samples"`
	Epsilon          float64          `mapstructure:"epsilon"`
	Thresholds       ThresholdsConfig `mapstructure:"thresholds"`
	TrendSamples     int              `mapstructure:"trend_samples"`
	TrendTolerance   float64          `mapstructure:"trend_tolerance"`
	BaselineMinCount int64            `mapstructure:"baseline_min_count"`
}

type ThresholdsConfig struct {
	Critical float64 `mapstructure:"critical"`
	High     float64 `mapstructure:"high"`
	Medium   float64 `mapstructure:"medium"`
}

type AlertingConfig struct {
	CooldownWindow    time.Duration       `mapstructure:"cooldown_window"`
	CorrelationWindow time.Duration       `mapstructure:"correlation_window"`
	DispatchTimeout   time.Duration       `mapstructure:"dispatch_timeout"`
	AutoRemediation   bool                `mapstructure:"auto_remediation"`
	RuleFile          string              `mapstructure:"rule_file"`
	Dependencies      map[string][]string `mapstructure:"dependencies"`
}

type ForecastConfig struct {
	Enabled    bool               `mapstructure:"enabled"`
	Model      string             `mapstructure:"model"`
	Interval   time.Duration      `mapstructure:"interval"`
	Horizon    time.Duration      `mapstructure:"horizon"`
	Step       time.Duration      `mapstructure:"step"`
	MinSamples int                `mapstructure:"min_samples"`
	ValidFor   time.Duration      `mapstructure:"valid_for"`
	Thresholds map[string]float64 `mapstructure:"thresholds"`
}

type HealingConfig struct {
	Enabled       bool          `mapstructure:"enabled"`
	ActionTimeout time.Duration `mapstructure:"action_timeout"`
	RetryDelay    time.Duration `mapstructure:"retry_delay"`
	MaxRecords    int           `mapstructure:"max_records"`
	RuleFile      string        `mapstructure:"rule_file"`
	HTTPEndpoint  string        `mapstructure:"http_endpoint"`
}

type NotifyConfig struct {
	Webhooks []WebhookConfig `mapstructure:"webhooks"`
}

type WebhookConfig struct {
	Name        string        `mapstructure:"name"`
	Endpoint    string        `mapstructure:"endpoint"`
	Timeout     time.Duration `mapstructure:"timeout"`
	MaxFailures int           `mapstructure:"max_failures"`
	OpenTimeout time.Duration `mapstructure:"open_timeout"`
}

type ActivityConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Endpoint string        `mapstructure:"endpoint"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

type DirectoryConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Endpoint string        `mapstructure:"endpoint"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

type APIConfig struct {
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
	RateLimit    int           `mapstructure:"rate_limit"`
	JWTSecret    string        `mapstructure:"jwt_secret"`
	JWTDuration  time.Duration `mapstructure:"jwt_duration"`
	JWTIssuer    string        `mapstructure:"jwt_issuer"`
	DefaultLimit int           `mapstructure:"default_limit"`
	MaxLimit     int           `mapstructure:"max_limit"`
	CORS         CORSConfig    `mapstructure:"cors"`
}

type CORSConfig struct {
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
	AllowedMethods   []string `mapstructure:"allowed_methods"`
	AllowedHeaders   []string `mapstructure:"allowed_headers"`
	ExposedHeaders   []string `mapstructure:"exposed_headers"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
}

type WebSocketConfig struct {
	MaxConnections  int           `mapstructure:"max_connections"`
	PingInterval    time.Duration `mapstructure:"ping_interval"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	PongTimeout     time.Duration `mapstructure:"pong_timeout"`
	MaxMessageSize  int64         `mapstructure:"max_message_size"`
	ReadBufferSize  int           `mapstructure:"read_buffer_size"`
	WriteBufferSize int           `mapstructure:"write_buffer_size"`
	BroadcastBuffer int           `mapstructure:"broadcast_buffer"`
	ClientBuffer    int           `mapstructure:"client_buffer"`
}

type EventsConfig struct {
	BufferSize int `mapstructure:"buffer_size"`
}

// Redacted returns the operational settings safe to expose over the
// stats endpoint. Secrets and credentials are never included.
func (c *Config) Redacted() map[string]interface{} {
	return map[string]interface{}{
		"app": map[string]interface{}{
			"name":      c.App.Name,
			"mode":      c.App.Mode,
			"log_level": c.App.LogLevel,
		},
		"collector": map[string]interface{}{
			"type":     c.Collector.Type,
			"interval": c.Collector.Interval.String(),
			"timeout":  c.Collector.Timeout.String(),
		},
		"store": map[string]interface{}{
			"max_samples": c.Store.MaxSamples,
			"thresholds": map[string]float64{
				"critical": c.Store.Thresholds.Critical,
				"high":     c.Store.Thresholds.High,
				"medium":   c.Store.Thresholds.Medium,
			},
		},
		"alerting": map[string]interface{}{
			"cooldown_window":    c.Alerting.CooldownWindow.String(),
			"correlation_window": c.Alerting.CorrelationWindow.String(),
			"auto_remediation":   c.Alerting.AutoRemediation,
		},
		"forecast": map[string]interface{}{
			"enabled":     c.Forecast.Enabled,
			"model":       c.Forecast.Model,
			"horizon":     c.Forecast.Horizon.String(),
			"step":        c.Forecast.Step.String(),
			"min_samples": c.Forecast.MinSamples,
		},
		"healing": map[string]interface{}{
			"enabled":        c.Healing.Enabled,
			"action_timeout": c.Healing.ActionTimeout.String(),
		},
		"database": map[string]interface{}{
			"enabled": c.Database.Enabled,
		},
	}
}
