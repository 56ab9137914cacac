package orchestrator

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/vigilops/vigil/internal/alerting"
	"github.com/vigilops/vigil/internal/collector"
	"github.com/vigilops/vigil/internal/events"
	"github.com/vigilops/vigil/internal/forecast"
	"github.com/vigilops/vigil/internal/logger"
	"github.com/vigilops/vigil/internal/store"
	"github.com/vigilops/vigil/internal/telemetry"
	"github.com/vigilops/vigil/pkg/models"
)

type PipelineConfig struct {
	ResourceID       string
	CollectInterval  time.Duration
	ForecastInterval time.Duration
	ForecastEnabled  bool
	Collector        collector.Collector
	Store            *store.Store
	Alerts           *alerting.Engine
	Forecaster       *forecast.Forecaster
	EventPublisher   *events.Publisher
}

// Pipeline drives the monitoring loop of one resource: collect,
// classify, evaluate alerts, and periodically forecast.
type Pipeline struct {
	config  PipelineConfig
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	running bool
	mu      sync.Mutex
}

func NewPipeline(cfg PipelineConfig) *Pipeline {
	if cfg.CollectInterval == 0 {
		cfg.CollectInterval = 15 * time.Second
	}
	if cfg.ForecastInterval == 0 {
		cfg.ForecastInterval = 60 * time.Second
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Pipeline{
		config: cfg,
		ctx:    ctx,
		cancel: cancel,
	}
}

func (p *Pipeline) Start() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.running {
		return nil
	}

	p.running = true
	p.wg.Add(1)
	go p.runCollect()
	if p.config.ForecastEnabled {
		p.wg.Add(1)
		go p.runForecast()
	}

	logger.WithResource(p.config.ResourceID).Info("Pipeline started")
	return nil
}

func (p *Pipeline) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	p.running = false
	p.mu.Unlock()

	p.cancel()
	p.wg.Wait()

	logger.WithResource(p.config.ResourceID).Info("Pipeline stopped")
}

func (p *Pipeline) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

func (p *Pipeline) runCollect() {
	defer p.wg.Done()

	ticker := time.NewTicker(p.config.CollectInterval)
	defer ticker.Stop()

	// Run immediately on start
	p.collectCycle()

	for {
		select {
		case <-p.ctx.Done():
			return
		case <-ticker.C:
			p.collectCycle()
		}
	}
}

func (p *Pipeline) runForecast() {
	defer p.wg.Done()

	ticker := time.NewTicker(p.config.ForecastInterval)
	defer ticker.Stop()

	for {
		select {
		case <-p.ctx.Done():
			return
		case <-ticker.C:
			p.forecastCycle()
		}
	}
}

func (p *Pipeline) collectCycle() {
	budget := p.config.CollectInterval - time.Second
	if budget <= 0 {
		budget = p.config.CollectInterval
	}
	ctx, cancel := context.WithTimeout(p.ctx, budget)
	defer cancel()

	resourceID := p.config.ResourceID
	started := time.Now()

	metrics, err := p.config.Collector.Collect(ctx, resourceID)
	if err != nil {
		logger.WithResource(resourceID).Errorf("Collection failed: %v", err)
		p.config.EventPublisher.Error(resourceID, "Metric collection failed", err)
		return
	}

	for _, data := range metrics.Metrics {
		obs, err := p.config.Store.Observe(resourceID, data)
		if err != nil {
			if errors.Is(err, store.ErrValidation) {
				telemetry.Get().IncValidationRejects()
				logger.WithResource(resourceID).Warnf("Observation rejected: %v", err)
				continue
			}
			logger.WithResource(resourceID).Errorf("Observation failed: %v", err)
			continue
		}

		telemetry.Get().IncMetricsCollected()
		p.config.EventPublisher.MetricObserved(resourceID, obs)
		p.config.Alerts.Evaluate(ctx, obs)
	}

	telemetry.Get().SetCollectionLatency(time.Since(started))
}

func (p *Pipeline) forecastCycle() {
	resourceID := p.config.ResourceID
	started := time.Now()

	for _, metricName := range p.config.Store.MetricNames(resourceID) {
		pred, err := p.config.Forecaster.Forecast(resourceID, metricName)
		if err != nil {
			if errors.Is(err, forecast.ErrInsufficientData) {
				logger.WithResource(resourceID).Debugf("Forecast skipped: %v", err)
				continue
			}
			logger.WithResource(resourceID).Errorf("Forecast failed: %v", err)
			continue
		}

		p.evaluatePrediction(pred)
	}

	telemetry.Get().SetForecastLatency(time.Since(started))
}

// evaluatePrediction feeds projected threshold breaches back into the
// alert engine as synthetic observations so rules can fire before the
// breach happens.
func (p *Pipeline) evaluatePrediction(pred *models.Prediction) {
	ctx, cancel := context.WithTimeout(p.ctx, p.config.ForecastInterval)
	defer cancel()

	for _, issue := range pred.Issues {
		value := 0.0
		for _, point := range pred.Forecast {
			if !point.Timestamp.Before(issue.EstimatedAt) {
				value = point.Value
				break
			}
		}

		obs := &models.ClassifiedObservation{
			ResourceID: pred.ResourceID,
			MetricName: pred.MetricName,
			Value:      value,
			Trend:      models.TrendIncreasing,
			Severity:   issue.Severity,
			Category:   models.CategoryOfMetric(pred.MetricName),
			Timestamp:  issue.EstimatedAt,
		}
		p.config.Alerts.Evaluate(ctx, obs)
	}
}
