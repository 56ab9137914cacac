package config

import (
	"errors"
	"fmt"
)

func (c *Config) Validate() error {
	var errs []error

	// App validation
	if c.App.Name == "" {
		errs = append(errs, errors.New("app.name is required"))
	}

	validModes := map[string]bool{"development": true, "production": true, "test": true}
	if !validModes[c.App.Mode] {
		errs = append(errs, fmt.Errorf("app.mode must be one of: development, production, test"))
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.App.LogLevel] {
		errs = append(errs, fmt.Errorf("app.log_level must be one of: debug, info, warn, error"))
	}

	// Database validation
	if c.Database.Enabled {
		if c.Database.Host == "" {
			errs = append(errs, errors.New("database.host is required"))
		}
		if c.Database.Port <= 0 || c.Database.Port > 65535 {
			errs = append(errs, errors.New("database.port must be between 1 and 65535"))
		}
		if c.Database.Name == "" {
			errs = append(errs, errors.New("database.name is required"))
		}
		if c.Database.MaxConnections <= 0 {
			errs = append(errs, errors.New("database.max_connections must be positive"))
		}
	}

	// Collector validation
	if c.Collector.Interval <= 0 {
		errs = append(errs, errors.New("collector.interval must be positive"))
	}
	if c.Collector.Timeout <= 0 {
		errs = append(errs, errors.New("collector.timeout must be positive"))
	}
	if c.Collector.Timeout >= c.Collector.Interval {
		errs = append(errs, errors.New("collector.timeout must be less than collector.interval"))
	}

	// Store validation
	if c.Store.MaxSamples <= 0 {
		errs = append(errs, errors.New("store.max_samples must be positive"))
	}
	t := c.Store.Thresholds
	if t.Critical <= t.High || t.High <= t.Medium || t.Medium <= 0 {
		errs = append(errs, errors.New("store.thresholds must satisfy critical > high > medium > 0"))
	}

	// Alerting validation
	if c.Alerting.CooldownWindow <= 0 {
		errs = append(errs, errors.New("alerting.cooldown_window must be positive"))
	}
	if c.Alerting.CorrelationWindow <= 0 {
		errs = append(errs, errors.New("alerting.correlation_window must be positive"))
	}

	// Forecast validation
	if c.Forecast.Enabled {
		if c.Forecast.Horizon <= 0 || c.Forecast.Step <= 0 {
			errs = append(errs, errors.New("forecast.horizon and forecast.step must be positive"))
		}
		if c.Forecast.Step > c.Forecast.Horizon {
			errs = append(errs, errors.New("forecast.step must not exceed forecast.horizon"))
		}
		if c.Forecast.MinSamples <= 0 {
			errs = append(errs, errors.New("forecast.min_samples must be positive"))
		}
		if c.Forecast.Model != "linear_trend" && c.Forecast.Model != "moving_average" {
			errs = append(errs, fmt.Errorf("forecast.model must be one of: linear_trend, moving_average"))
		}
	}

	// Healing validation
	if c.Healing.Enabled && c.Healing.ActionTimeout <= 0 {
		errs = append(errs, errors.New("healing.action_timeout must be positive"))
	}

	// Directory validation
	if c.Directory.Enabled && c.Directory.Endpoint == "" {
		errs = append(errs, errors.New("directory.endpoint is required when directory lookup is enabled"))
	}

	// Notify validation
	for _, w := range c.Notify.Webhooks {
		if w.Name == "" || w.Endpoint == "" {
			errs = append(errs, errors.New("notify.webhooks entries require name and endpoint"))
		}
	}

	// API validation
	if c.API.Port <= 0 || c.API.Port > 65535 {
		errs = append(errs, errors.New("api.port must be between 1 and 65535"))
	}
	if c.App.Mode == "production" && c.API.JWTSecret == "change-me-in-production" {
		errs = append(errs, errors.New("api.jwt_secret must be changed in production"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed: %v", errs)
	}

	return nil
}
