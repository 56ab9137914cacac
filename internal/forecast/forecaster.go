package forecast

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/vigilops/vigil/internal/events"
	"github.com/vigilops/vigil/internal/logger"
	"github.com/vigilops/vigil/internal/telemetry"
	"github.com/vigilops/vigil/pkg/models"
)

// HistorySource supplies recent samples for a resource metric, newest
// window last. The metric store satisfies this.
type HistorySource interface {
	HistoryLimit(resourceID, metricName string, limit int) []models.Sample
}

// Config tunes the forecaster. Zero values fall back to defaults.
type Config struct {
	// Horizon is how far ahead each prediction looks.
	Horizon time.Duration
	// Step is the spacing between forecast points.
	Step time.Duration
	// MinSamples is the history floor below which no prediction is made.
	MinSamples int
	// ValidFor bounds how long a prediction stays actionable.
	ValidFor time.Duration
	// Thresholds maps metric names to the level a forecast point must
	// cross to raise a potential issue.
	Thresholds map[string]float64
	// MaxRecords caps the retained prediction audit list.
	MaxRecords int
}

func DefaultConfig() Config {
	return Config{
		Horizon:    30 * time.Minute,
		Step:       5 * time.Minute,
		MinSamples: 10,
		ValidFor:   30 * time.Minute,
		Thresholds: map[string]float64{
			"cpu_usage":    90,
			"memory_usage": 90,
			"disk_usage":   85,
			"error_rate":   5,
		},
		MaxRecords: 200,
	}
}

func (c *Config) applyDefaults() {
	def := DefaultConfig()
	if c.Horizon <= 0 {
		c.Horizon = def.Horizon
	}
	if c.Step <= 0 {
		c.Step = def.Step
	}
	if c.MinSamples <= 0 {
		c.MinSamples = def.MinSamples
	}
	if c.ValidFor <= 0 {
		c.ValidFor = def.ValidFor
	}
	if c.Thresholds == nil {
		c.Thresholds = def.Thresholds
	}
	if c.MaxRecords <= 0 {
		c.MaxRecords = def.MaxRecords
	}
}

// Forecaster generates predictions from stored history using a
// pluggable model and keeps the latest prediction per series plus a
// bounded audit trail.
type Forecaster struct {
	cfg    Config
	source HistorySource
	model  Model
	pub    *events.Publisher

	mu      sync.RWMutex
	latest  map[string]*models.Prediction
	records []*models.Prediction
}

func New(cfg Config, source HistorySource, model Model, pub *events.Publisher) *Forecaster {
	cfg.applyDefaults()
	if model == nil {
		model = LinearTrendModel{}
	}
	return &Forecaster{
		cfg:    cfg,
		source: source,
		model:  model,
		pub:    pub,
		latest: make(map[string]*models.Prediction),
	}
}

// Forecast produces a prediction for one resource metric. It returns
// ErrInsufficientData when the stored history is below the configured
// minimum; nothing is recorded in that case.
func (f *Forecaster) Forecast(resourceID, metricName string) (*models.Prediction, error) {
	steps := int(f.cfg.Horizon / f.cfg.Step)
	if steps < 1 {
		steps = 1
	}

	limit := 2 * steps
	if limit < f.cfg.MinSamples {
		limit = f.cfg.MinSamples
	}
	samples := f.source.HistoryLimit(resourceID, metricName, limit)
	if len(samples) < f.cfg.MinSamples {
		telemetry.Get().IncPredictionsSkipped()
		return nil, fmt.Errorf("%w: %s/%s has %d of %d samples",
			ErrInsufficientData, resourceID, metricName, len(samples), f.cfg.MinSamples)
	}

	points, confidence, err := f.model.Forecast(samples, steps, f.cfg.Step)
	if err != nil {
		return nil, fmt.Errorf("model %s: %w", f.model.Name(), err)
	}

	now := time.Now()
	issues := f.deriveIssues(metricName, points, confidence)
	pred := &models.Prediction{
		ID:              models.NewUUID(),
		ResourceID:      resourceID,
		MetricName:      metricName,
		Horizon:         f.cfg.Horizon,
		GeneratedAt:     now,
		ValidUntil:      now.Add(f.cfg.ValidFor),
		Forecast:        points,
		Confidence:      confidence,
		RiskScore:       riskScore(issues, confidence),
		Issues:          issues,
		Recommendations: recommendations(metricName, issues),
		ModelName:       f.model.Name(),
	}

	f.mu.Lock()
	f.latest[resourceID+"|"+metricName] = pred
	f.records = append(f.records, pred)
	if len(f.records) > f.cfg.MaxRecords {
		f.records = f.records[len(f.records)-f.cfg.MaxRecords:]
	}
	f.mu.Unlock()

	telemetry.Get().IncPredictionsGenerated()
	if f.pub != nil {
		f.pub.PredictionGenerated(pred)
	}
	logger.WithResource(resourceID).WithFields(map[string]interface{}{
		"metric":     metricName,
		"model":      pred.ModelName,
		"confidence": pred.Confidence,
		"risk_score": pred.RiskScore,
		"issues":     len(pred.Issues),
	}).Debug("Prediction generated")
	return pred, nil
}

// Latest returns the most recent prediction for a series, expired or
// not, or nil when none exists.
func (f *Forecaster) Latest(resourceID, metricName string) *models.Prediction {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.latest[resourceID+"|"+metricName]
}

// Active returns all unexpired predictions, newest first.
func (f *Forecaster) Active(now time.Time) []*models.Prediction {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make([]*models.Prediction, 0, len(f.latest))
	for _, p := range f.latest {
		if p.IsValid(now) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].GeneratedAt.After(out[j].GeneratedAt) })
	return out
}

// Records returns the retained audit trail, oldest first.
func (f *Forecaster) Records() []*models.Prediction {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make([]*models.Prediction, len(f.records))
	copy(out, f.records)
	return out
}

func (f *Forecaster) deriveIssues(metricName string, points []models.ForecastPoint, confidence float64) []models.PotentialIssue {
	threshold, ok := f.cfg.Thresholds[metricName]
	if !ok {
		return nil
	}
	for _, p := range points {
		if p.Value < threshold {
			continue
		}
		severity := models.SeverityHigh
		if threshold > 0 && p.Value >= threshold*1.2 {
			severity = models.SeverityCritical
		}
		return []models.PotentialIssue{{
			Type:        "threshold_breach",
			Severity:    severity,
			EstimatedAt: p.Timestamp,
			Confidence:  confidence,
		}}
	}
	return nil
}

func riskScore(issues []models.PotentialIssue, confidence float64) float64 {
	if len(issues) == 0 {
		return 0
	}
	var maxWeight float64
	for _, issue := range issues {
		if w := float64(issue.Severity.Weight()); w > maxWeight {
			maxWeight = w
		}
	}
	return clamp01(confidence * maxWeight / 4)
}

func recommendations(metricName string, issues []models.PotentialIssue) []string {
	if len(issues) == 0 {
		return nil
	}
	switch models.CategoryOfMetric(metricName) {
	case models.CategoryCompute:
		return []string{"review recent workload changes", "consider scaling out compute capacity"}
	case models.CategoryMemory:
		return []string{"inspect memory growth for leaks", "raise memory limits or add capacity"}
	case models.CategoryStorage:
		return []string{"prune or archive old data", "expand storage volumes"}
	case models.CategoryNetwork:
		return []string{"check upstream dependencies", "review connection pool sizing"}
	case models.CategoryErrors:
		return []string{"inspect recent deployments", "review error logs for the resource"}
	default:
		return []string{"investigate the projected trend before it breaches"}
	}
}
