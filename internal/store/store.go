package store

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/vigilops/vigil/internal/logger"
	"github.com/vigilops/vigil/pkg/models"
	"github.com/vigilops/vigil/pkg/validation"
)

// ErrValidation indicates a structurally invalid resource or metric
// observation. Nothing is mutated when it is returned.
var ErrValidation = errors.New("invalid observation")

type SeverityThresholds struct {
	Critical float64
	High     float64
	Medium   float64
}

type Config struct {
	MaxSamples       int
	Epsilon          float64
	Thresholds       SeverityThresholds
	TrendSamples     int
	TrendTolerance   float64
	BaselineMinCount int64
}

type Store struct {
	config    Config
	mu        sync.RWMutex
	resources map[string]*resourceState
	families  map[string]*family
}

// resourceState serializes updates for one resource; different resources
// update in parallel.
type resourceState struct {
	mu        sync.Mutex
	baselines map[string]*Baseline
	series    map[string]*series
}

type series struct {
	name    string
	labels  map[string]string
	stats   models.MetricStats
	samples []models.Sample
}

type family struct {
	name string
	help string
	typ  models.MetricType
}

func New(cfg Config) *Store {
	if cfg.MaxSamples <= 0 {
		cfg.MaxSamples = 500
	}
	if cfg.Epsilon <= 0 {
		cfg.Epsilon = 1e-6
	}
	if cfg.Thresholds.Critical == 0 {
		cfg.Thresholds.Critical = 0.5
	}
	if cfg.Thresholds.High == 0 {
		cfg.Thresholds.High = 0.3
	}
	if cfg.Thresholds.Medium == 0 {
		cfg.Thresholds.Medium = 0.1
	}
	if cfg.TrendSamples <= 0 {
		cfg.TrendSamples = 6
	}
	if cfg.TrendTolerance <= 0 {
		cfg.TrendTolerance = 0.05
	}
	if cfg.BaselineMinCount <= 0 {
		cfg.BaselineMinCount = 2
	}

	return &Store{
		config:    cfg,
		resources: make(map[string]*resourceState),
		families:  make(map[string]*family),
	}
}

// RegisterMetric records exposition metadata for a metric name. Metrics
// observed without prior registration get gauge type and an empty help.
func (s *Store) RegisterMetric(name, help string, typ models.MetricType) error {
	if err := validation.ValidateMetricName(name); err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if typ == "" {
		typ = models.MetricTypeGauge
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.families[name] = &family{name: name, help: help, typ: typ}
	return nil
}

// Observe ingests one metric observation for a resource: classifies it
// against the current baseline, then updates the baseline, the running
// stats and the bounded sample history.
func (s *Store) Observe(resourceID string, data models.MetricData) (*models.ClassifiedObservation, error) {
	if err := validation.ValidateResourceID(resourceID); err != nil {
		return nil, fmt.Errorf("%w: resource: %v", ErrValidation, err)
	}
	if err := validation.ValidateMetricName(data.Name); err != nil {
		return nil, fmt.Errorf("%w: metric: %v", ErrValidation, err)
	}
	if math.IsNaN(data.Value) || math.IsInf(data.Value, 0) {
		return nil, fmt.Errorf("%w: metric %q requires a finite numeric value", ErrValidation, data.Name)
	}
	for k := range data.Labels {
		if err := validation.ValidateLabelName(k); err != nil {
			return nil, fmt.Errorf("%w: label: %v", ErrValidation, err)
		}
	}

	ts := data.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}

	rs := s.resourceState(resourceID)
	s.ensureFamily(data)

	rs.mu.Lock()
	defer rs.mu.Unlock()

	baseline, ok := rs.baselines[data.Name]
	if !ok {
		baseline = &Baseline{}
		rs.baselines[data.Name] = baseline
	}

	// Classify against the baseline as it stood before this value.
	deviation := 0.0
	if baseline.Count >= s.config.BaselineMinCount {
		deviation = math.Abs(data.Value-baseline.Mean) / math.Max(baseline.StdDev(), s.config.Epsilon)
	}
	severity := s.classify(deviation)
	systemLoad := relativeLoad(data.Value, baseline)

	baseline.Update(data.Value)

	sr := rs.seriesFor(data.Name, data.Labels)
	sr.record(ts, data.Value, s.config.MaxSamples)
	trend := s.trendOf(sr)

	obs := &models.ClassifiedObservation{
		ResourceID: resourceID,
		MetricName: data.Name,
		Value:      data.Value,
		Deviation:  deviation,
		Trend:      trend,
		Severity:   severity,
		SystemLoad: systemLoad,
		Category:   models.CategoryOfMetric(data.Name),
		Timestamp:  ts,
	}

	logger.WithResource(resourceID).Debugf(
		"Observed %s=%.2f deviation=%.3f severity=%s trend=%s",
		data.Name, data.Value, deviation, severity, trend,
	)

	return obs, nil
}

func (s *Store) classify(deviation float64) models.Severity {
	t := s.config.Thresholds
	switch {
	case deviation > t.Critical:
		return models.SeverityCritical
	case deviation > t.High:
		return models.SeverityHigh
	case deviation > t.Medium:
		return models.SeverityMedium
	default:
		return models.SeverityNormal
	}
}

// trendOf compares the older and newer halves of the recent samples.
// Needs at least three points; otherwise stable.
func (s *Store) trendOf(sr *series) models.Trend {
	n := len(sr.samples)
	window := s.config.TrendSamples
	if n < 3 {
		return models.TrendStable
	}
	if n > window {
		n = window
	}
	recent := sr.samples[len(sr.samples)-n:]

	firstHalf := recent[:n/2]
	secondHalf := recent[n/2:]

	firstAvg := averageOf(firstHalf)
	secondAvg := averageOf(secondHalf)

	scale := math.Max(math.Abs(firstAvg), s.config.Epsilon)
	change := (secondAvg - firstAvg) / scale

	switch {
	case change > s.config.TrendTolerance:
		return models.TrendIncreasing
	case change < -s.config.TrendTolerance:
		return models.TrendDecreasing
	default:
		return models.TrendStable
	}
}

func averageOf(samples []models.Sample) float64 {
	if len(samples) == 0 {
		return 0
	}
	var total float64
	for _, s := range samples {
		total += s.Value
	}
	return total / float64(len(samples))
}

// relativeLoad expresses the observed value relative to its baseline
// mean, clamped to [0, 10].
func relativeLoad(value float64, baseline *Baseline) float64 {
	if baseline.Count == 0 || baseline.Mean == 0 {
		return 0
	}
	load := value / math.Abs(baseline.Mean)
	if load < 0 {
		load = 0
	}
	if load > 10 {
		load = 10
	}
	return load
}

func (s *Store) resourceState(resourceID string) *resourceState {
	s.mu.RLock()
	rs, ok := s.resources[resourceID]
	s.mu.RUnlock()
	if ok {
		return rs
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if rs, ok = s.resources[resourceID]; ok {
		return rs
	}
	rs = &resourceState{
		baselines: make(map[string]*Baseline),
		series:    make(map[string]*series),
	}
	s.resources[resourceID] = rs
	return rs
}

func (s *Store) ensureFamily(data models.MetricData) {
	s.mu.RLock()
	_, ok := s.families[data.Name]
	s.mu.RUnlock()
	if ok {
		return
	}

	typ := data.Type
	if typ == "" {
		typ = models.MetricTypeGauge
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok = s.families[data.Name]; !ok {
		s.families[data.Name] = &family{name: data.Name, help: data.Help, typ: typ}
	}
}

func (rs *resourceState) seriesFor(name string, labels map[string]string) *series {
	key := models.SeriesKey(name, labels)
	sr, ok := rs.series[key]
	if !ok {
		copied := make(map[string]string, len(labels))
		for k, v := range labels {
			copied[k] = v
		}
		sr = &series{name: name, labels: copied}
		rs.series[key] = sr
	}
	return sr
}

func (sr *series) record(ts time.Time, value float64, maxSamples int) {
	st := &sr.stats
	if st.Count == 0 {
		st.Min = value
		st.Max = value
	} else {
		if value < st.Min {
			st.Min = value
		}
		if value > st.Max {
			st.Max = value
		}
	}
	st.Current = value
	st.Sum += value
	st.Count++

	sr.samples = append(sr.samples, models.Sample{Timestamp: ts, Value: value, Labels: sr.labels})
	if len(sr.samples) > maxSamples {
		sr.samples = sr.samples[len(sr.samples)-maxSamples:]
	}
}

// History returns the resource's samples for a metric within the window,
// oldest first. The result is a copy and safe to retain.
func (s *Store) History(resourceID, metricName string, window time.Duration) []models.Sample {
	rs := s.resourceState(resourceID)
	rs.mu.Lock()
	defer rs.mu.Unlock()

	cutoff := time.Now().Add(-window)
	var out []models.Sample
	for _, sr := range rs.series {
		if sr.name != metricName {
			continue
		}
		for _, sample := range sr.samples {
			if sample.Timestamp.After(cutoff) {
				out = append(out, sample)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	return out
}

// HistoryLimit returns up to limit most recent samples, oldest first.
func (s *Store) HistoryLimit(resourceID, metricName string, limit int) []models.Sample {
	rs := s.resourceState(resourceID)
	rs.mu.Lock()
	defer rs.mu.Unlock()

	var out []models.Sample
	for _, sr := range rs.series {
		if sr.name != metricName {
			continue
		}
		out = append(out, sr.samples...)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out
}

// BaselineFor exposes the current baseline view for a resource metric.
func (s *Store) BaselineFor(resourceID, metricName string) (BaselineStats, bool) {
	s.mu.RLock()
	rs, ok := s.resources[resourceID]
	s.mu.RUnlock()
	if !ok {
		return BaselineStats{}, false
	}

	rs.mu.Lock()
	defer rs.mu.Unlock()
	b, ok := rs.baselines[metricName]
	if !ok {
		return BaselineStats{}, false
	}
	return BaselineStats{Count: b.Count, Mean: b.Mean, StdDev: b.StdDev(), UpdatedAt: b.UpdatedAt}, true
}

// SeedBaseline warm-starts a resource metric baseline.
func (s *Store) SeedBaseline(resourceID, metricName string, mean, stddev float64, count int64) {
	rs := s.resourceState(resourceID)
	rs.mu.Lock()
	defer rs.mu.Unlock()

	b, ok := rs.baselines[metricName]
	if !ok {
		b = &Baseline{}
		rs.baselines[metricName] = b
	}
	b.Seed(mean, stddev, count)
}

// ResetBaseline discards a resource metric baseline.
func (s *Store) ResetBaseline(resourceID, metricName string) {
	s.mu.RLock()
	rs, ok := s.resources[resourceID]
	s.mu.RUnlock()
	if !ok {
		return
	}

	rs.mu.Lock()
	defer rs.mu.Unlock()
	if b, ok := rs.baselines[metricName]; ok {
		b.Reset()
	}
}

// Resources lists all resource ids with recorded state.
func (s *Store) Resources() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]string, 0, len(s.resources))
	for id := range s.resources {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// MetricNames lists the metric names recorded for a resource.
func (s *Store) MetricNames(resourceID string) []string {
	s.mu.RLock()
	rs, ok := s.resources[resourceID]
	s.mu.RUnlock()
	if !ok {
		return nil
	}

	rs.mu.Lock()
	defer rs.mu.Unlock()

	seen := make(map[string]bool)
	for _, sr := range rs.series {
		seen[sr.name] = true
	}
	out := make([]string, 0, len(seen))
	for name := range seen {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
