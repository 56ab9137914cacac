package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/vigilops/vigil/internal/alerting"
	"github.com/vigilops/vigil/internal/collector"
	"github.com/vigilops/vigil/internal/events"
	"github.com/vigilops/vigil/internal/forecast"
	"github.com/vigilops/vigil/internal/healing"
	"github.com/vigilops/vigil/internal/logger"
	"github.com/vigilops/vigil/internal/notify"
	"github.com/vigilops/vigil/internal/store"
	"github.com/vigilops/vigil/internal/telemetry"
	"github.com/vigilops/vigil/pkg/config"
	"github.com/vigilops/vigil/pkg/database"
	"github.com/vigilops/vigil/pkg/models"
)

// Orchestrator owns the monitoring engine: the metric store, the alert
// and healing engines, the forecaster, and one pipeline per monitored
// resource.
type Orchestrator struct {
	config     *config.Config
	db         *database.DB
	eventBus   *events.EventBus
	auditor    *events.EventAuditor
	store      *store.Store
	alerts     *alerting.Engine
	forecaster *forecast.Forecaster
	healer     *healing.Orchestrator
	channels   *notify.Registry
	pipelines  map[string]*Pipeline
	mu         sync.RWMutex
}

func New(cfg *config.Config, db *database.DB) *Orchestrator {
	eventBus := events.NewEventBus(cfg.Events.BufferSize)
	auditor := events.NewEventAuditor(db, eventBus.SubscribeAll())
	pub := events.NewPublisher(eventBus)

	metricStore := store.New(store.Config{
		MaxSamples: cfg.Store.MaxSamples,
		Epsilon:    cfg.Store.Epsilon,
		Thresholds: store.SeverityThresholds{
			Critical: cfg.Store.Thresholds.Critical,
			High:     cfg.Store.Thresholds.High,
			Medium:   cfg.Store.Thresholds.Medium,
		},
		TrendSamples:     cfg.Store.TrendSamples,
		TrendTolerance:   cfg.Store.TrendTolerance,
		BaselineMinCount: cfg.Store.BaselineMinCount,
	})

	channels := notify.NewRegistry()
	channels.Register(notify.NewLogChannel("log"))
	for _, w := range cfg.Notify.Webhooks {
		channels.Register(notify.NewWebhookChannel(notify.WebhookConfig{
			Name:        w.Name,
			Endpoint:    w.Endpoint,
			Timeout:     w.Timeout,
			MaxFailures: w.MaxFailures,
			OpenTimeout: w.OpenTimeout,
		}))
	}

	alertEngine := alerting.NewEngine(alerting.Config{
		CooldownWindow:    cfg.Alerting.CooldownWindow,
		CorrelationWindow: cfg.Alerting.CorrelationWindow,
		DispatchTimeout:   cfg.Alerting.DispatchTimeout,
		AutoRemediation:   cfg.Alerting.AutoRemediation,
		Dependencies:      cfg.Alerting.Dependencies,
	}, channels, pub)

	var model forecast.Model
	switch cfg.Forecast.Model {
	case "moving_average":
		model = forecast.MovingAverageModel{Window: cfg.Forecast.MinSamples}
	default:
		model = forecast.LinearTrendModel{}
	}
	forecaster := forecast.New(forecast.Config{
		Horizon:    cfg.Forecast.Horizon,
		Step:       cfg.Forecast.Step,
		MinSamples: cfg.Forecast.MinSamples,
		ValidFor:   cfg.Forecast.ValidFor,
		Thresholds: cfg.Forecast.Thresholds,
	}, metricStore, model, pub)

	healer := healing.NewOrchestrator(healing.Config{
		ActionTimeout: cfg.Healing.ActionTimeout,
		RetryDelay:    cfg.Healing.RetryDelay,
		MaxRecords:    cfg.Healing.MaxRecords,
	}, pub)
	healer.SetProber(healing.NewStoreProber(metricStore))
	healer.RegisterExecutor("log", healing.LogExecutor{})
	if cfg.Healing.HTTPEndpoint != "" {
		healer.RegisterExecutor("http", healing.NewHTTPExecutor(
			cfg.Healing.ActionTimeout,
			cfg.Collector.CircuitBreaker.MaxFailures,
			cfg.Collector.CircuitBreaker.Timeout,
		))
	}
	if cfg.Healing.Enabled {
		alertEngine.SetHealer(healer)
	}

	return &Orchestrator{
		config:     cfg,
		db:         db,
		eventBus:   eventBus,
		auditor:    auditor,
		store:      metricStore,
		alerts:     alertEngine,
		forecaster: forecaster,
		healer:     healer,
		channels:   channels,
		pipelines:  make(map[string]*Pipeline),
	}
}

// LoadRules installs alert and healing rules, from configured files
// when present and from the built-in defaults otherwise.
func (o *Orchestrator) LoadRules() error {
	if path := o.config.Alerting.RuleFile; path != "" {
		n, err := o.alerts.LoadRuleFile(path)
		if err != nil {
			return fmt.Errorf("alert rules: %w", err)
		}
		logger.Infof("Loaded %d alert rules from %s", n, path)
	} else {
		for _, rule := range alerting.DefaultRules() {
			if err := o.alerts.RegisterRule(rule); err != nil {
				return fmt.Errorf("alert rules: %w", err)
			}
		}
	}

	if path := o.config.Healing.RuleFile; path != "" {
		n, err := o.healer.LoadRuleFile(path)
		if err != nil {
			return fmt.Errorf("healing rules: %w", err)
		}
		logger.Infof("Loaded %d healing rules from %s", n, path)
	} else {
		for _, rule := range healing.DefaultRules() {
			if err := o.healer.RegisterRule(rule); err != nil {
				return fmt.Errorf("healing rules: %w", err)
			}
		}
	}

	return nil
}

func (o *Orchestrator) Start() error {
	logger.Info("Orchestrator starting")
	o.auditor.Start()
	return nil
}

func (o *Orchestrator) Stop() {
	logger.Info("Orchestrator stopping")

	o.mu.Lock()
	for resourceID, pipeline := range o.pipelines {
		logger.Infof("Stopping pipeline for resource %s", resourceID)
		pipeline.Stop()
	}
	o.mu.Unlock()

	o.auditor.Stop()
	o.eventBus.Close()

	logger.Info("Orchestrator stopped")
}

// StartResource begins monitoring one resource with its collector.
func (o *Orchestrator) StartResource(resourceID string, coll collector.Collector) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if _, exists := o.pipelines[resourceID]; exists {
		return fmt.Errorf("pipeline already exists for resource %s", resourceID)
	}

	pipeline := NewPipeline(PipelineConfig{
		ResourceID:       resourceID,
		CollectInterval:  o.config.Collector.Interval,
		ForecastInterval: o.config.Forecast.Interval,
		ForecastEnabled:  o.config.Forecast.Enabled,
		Collector:        coll,
		Store:            o.store,
		Alerts:           o.alerts,
		Forecaster:       o.forecaster,
		EventPublisher:   events.NewPublisher(o.eventBus),
	})

	if err := pipeline.Start(); err != nil {
		return fmt.Errorf("failed to start pipeline: %w", err)
	}

	o.pipelines[resourceID] = pipeline
	telemetry.Get().SetTrackedResources(len(o.pipelines))
	logger.WithResource(resourceID).Info("Resource pipeline started")

	return nil
}

func (o *Orchestrator) StopResource(resourceID string) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	pipeline, exists := o.pipelines[resourceID]
	if !exists {
		return fmt.Errorf("no pipeline found for resource %s", resourceID)
	}

	pipeline.Stop()
	delete(o.pipelines, resourceID)
	telemetry.Get().SetTrackedResources(len(o.pipelines))
	logger.WithResource(resourceID).Info("Resource pipeline stopped")

	return nil
}

func (o *Orchestrator) ResourceStatus(resourceID string) (bool, error) {
	o.mu.RLock()
	defer o.mu.RUnlock()

	pipeline, exists := o.pipelines[resourceID]
	if !exists {
		return false, fmt.Errorf("no pipeline found for resource %s", resourceID)
	}

	return pipeline.IsRunning(), nil
}

func (o *Orchestrator) ListRunningResources() []string {
	o.mu.RLock()
	defer o.mu.RUnlock()

	resources := make([]string, 0, len(o.pipelines))
	for resourceID, pipeline := range o.pipelines {
		if pipeline.IsRunning() {
			resources = append(resources, resourceID)
		}
	}
	return resources
}

// Ingest accepts pushed metric readings for a resource, classifies
// them, and runs alert evaluation. This is the push-based counterpart
// of the pipeline's collect cycle.
func (o *Orchestrator) Ingest(ctx context.Context, resourceID string, metrics []models.MetricData) ([]*models.ClassifiedObservation, error) {
	pub := events.NewPublisher(o.eventBus)

	observations := make([]*models.ClassifiedObservation, 0, len(metrics))
	for _, data := range metrics {
		obs, err := o.store.Observe(resourceID, data)
		if err != nil {
			if errors.Is(err, store.ErrValidation) {
				telemetry.Get().IncValidationRejects()
			}
			return nil, err
		}

		telemetry.Get().IncMetricsCollected()
		pub.MetricObserved(resourceID, obs)
		o.alerts.Evaluate(ctx, obs)
		observations = append(observations, obs)
	}
	return observations, nil
}

func (o *Orchestrator) SubscribeEvents(eventType models.EventType) <-chan *models.Event {
	return o.eventBus.Subscribe(eventType)
}

func (o *Orchestrator) SubscribeAllEvents() <-chan *models.Event {
	return o.eventBus.SubscribeAll()
}

func (o *Orchestrator) ForecastEnabled() bool            { return o.config.Forecast.Enabled }
func (o *Orchestrator) Store() *store.Store              { return o.store }
func (o *Orchestrator) Alerts() *alerting.Engine         { return o.alerts }
func (o *Orchestrator) Forecaster() *forecast.Forecaster { return o.forecaster }
func (o *Orchestrator) Healer() *healing.Orchestrator    { return o.healer }
