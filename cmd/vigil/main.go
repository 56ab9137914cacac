package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/vigilops/vigil/api"
	"github.com/vigilops/vigil/internal/activity"
	"github.com/vigilops/vigil/internal/collector"
	"github.com/vigilops/vigil/internal/logger"
	"github.com/vigilops/vigil/internal/orchestrator"
	"github.com/vigilops/vigil/pkg/config"
	"github.com/vigilops/vigil/pkg/database"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "path to config file")
	migrate := flag.Bool("migrate", false, "run database migrations")
	resources := resourceList{}
	flag.Var(&resources, "resource", "resource id to monitor at startup (repeatable)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logger.Setup(cfg.App.LogLevel, cfg.App.Mode)
	logger.Infof("Starting %s in %s mode", cfg.App.Name, cfg.App.Mode)

	var db *database.DB
	if cfg.Database.Enabled {
		db, err = database.New(database.Config{
			Host:            cfg.Database.Host,
			Port:            cfg.Database.Port,
			Name:            cfg.Database.Name,
			User:            cfg.Database.User,
			Password:        cfg.Database.Password,
			MaxConnections:  cfg.Database.MaxConnections,
			SSLMode:         cfg.Database.SSLMode,
			ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
			ConnMaxIdleTime: cfg.Database.ConnMaxIdleTime,
			PingTimeout:     cfg.Database.PingTimeout,
		})
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer db.Close()
		logger.Info("Database connection established")
	}

	if *migrate {
		if db == nil {
			return fmt.Errorf("migrations require database.enabled")
		}
		ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
		defer cancel()

		logger.Info("Running database migrations")
		if err := database.NewMigrator(db).Run(ctx); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
		logger.Info("Migrations completed successfully")
		return nil
	}

	engine := orchestrator.New(cfg, db)
	if err := engine.LoadRules(); err != nil {
		return fmt.Errorf("failed to load rules: %w", err)
	}
	if err := engine.Start(); err != nil {
		return fmt.Errorf("failed to start engine: %w", err)
	}
	defer engine.Stop()

	var sink *activity.Sink
	if cfg.Activity.Enabled && cfg.Activity.Endpoint != "" {
		sink = activity.NewSink(activity.Config{
			Endpoint: cfg.Activity.Endpoint,
			Timeout:  cfg.Activity.Timeout,
		}, engine.SubscribeAllEvents())
		sink.Start()
		defer sink.Stop()
	}

	for _, resourceID := range resources {
		coll := buildCollector(cfg, resourceID)
		if err := engine.StartResource(resourceID, coll); err != nil {
			return fmt.Errorf("failed to monitor %s: %w", resourceID, err)
		}
	}

	server := api.NewServer(cfg, db, engine)

	shutdownChan := make(chan os.Signal, 1)
	signal.Notify(shutdownChan, os.Interrupt, syscall.SIGTERM)

	errChan := make(chan error, 1)
	go func() {
		logger.Infof("API server listening on port %d", cfg.API.Port)
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	select {
	case err := <-errChan:
		return fmt.Errorf("server error: %w", err)
	case sig := <-shutdownChan:
		logger.Infof("Received signal %v, shutting down", sig)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown error: %w", err)
	}

	logger.Info("Server stopped gracefully")
	return nil
}

func buildCollector(cfg *config.Config, resourceID string) collector.Collector {
	var base collector.Collector
	switch cfg.Collector.Type {
	case "mock":
		mock := collector.NewMockCollector(collector.MockCollectorConfig{})
		mock.SetResourceMetrics(resourceID, nil)
		base = mock
	default:
		base = collector.NewHTTPCollector(collector.HTTPCollectorConfig{
			Endpoint: cfg.Collector.Endpoint,
			Timeout:  cfg.Collector.Timeout,
		})
	}

	return collector.NewResilientCollector(collector.ResilientCollectorConfig{
		Collector:     base,
		MaxFailures:   cfg.Collector.CircuitBreaker.MaxFailures,
		Timeout:       cfg.Collector.CircuitBreaker.Timeout,
		RetryAttempts: cfg.Collector.RetryAttempts,
	})
}

// resourceList implements flag.Value for repeatable -resource flags.
type resourceList []string

func (r *resourceList) String() string {
	return fmt.Sprintf("%v", []string(*r))
}

func (r *resourceList) Set(value string) error {
	*r = append(*r, value)
	return nil
}
