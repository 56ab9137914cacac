package collector

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/vigilops/vigil/pkg/models"
)

// MockCollector produces synthetic metric readings for registered
// resources. Used in tests and as the built-in data source when no
// agent endpoint is configured.
type MockCollector struct {
	mu           sync.Mutex
	resources    map[string][]string
	bases        map[string]float64
	variance     float64
	shouldFail   bool
	failureError error
}

type MockCollectorConfig struct {
	// Bases maps metric names to their mean synthetic value.
	Bases    map[string]float64
	Variance float64
}

func NewMockCollector(cfg MockCollectorConfig) *MockCollector {
	bases := cfg.Bases
	if len(bases) == 0 {
		bases = map[string]float64{
			"cpu_usage":    50.0,
			"memory_usage": 60.0,
			"request_rate": 100.0,
		}
	}

	variance := cfg.Variance
	if variance == 0 {
		variance = 10.0
	}

	return &MockCollector{
		resources: make(map[string][]string),
		bases:     bases,
		variance:  variance,
	}
}

// SetResourceMetrics registers a resource and the metric names it
// reports. Empty names means all configured base metrics.
func (c *MockCollector) SetResourceMetrics(resourceID string, metricNames []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resources[resourceID] = metricNames
}

func (c *MockCollector) SetBase(metricName string, value float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.bases[metricName] = value
}

func (c *MockCollector) SetShouldFail(shouldFail bool, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.shouldFail = shouldFail
	c.failureError = err
}

func (c *MockCollector) Collect(_ context.Context, resourceID string) (*models.ResourceMetrics, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.shouldFail {
		if c.failureError != nil {
			return nil, c.failureError
		}
		return nil, ErrCollectionFailed
	}

	names, exists := c.resources[resourceID]
	if !exists {
		return nil, ErrResourceNotFound
	}
	if len(names) == 0 {
		for name := range c.bases {
			names = append(names, name)
		}
	}

	now := time.Now()
	metrics := make([]models.MetricData, 0, len(names))
	for _, name := range names {
		base := c.bases[name]
		metrics = append(metrics, models.MetricData{
			Name:      name,
			Value:     c.randomValue(base, c.variance),
			Type:      models.MetricTypeGauge,
			Timestamp: now,
		})
	}

	return &models.ResourceMetrics{
		ResourceID: resourceID,
		Timestamp:  now,
		Metrics:    metrics,
	}, nil
}

func (c *MockCollector) randomValue(base, variance float64) float64 {
	value := base + (rand.Float64()*2-1)*variance
	if value < 0 {
		value = 0
	}
	return value
}

func (c *MockCollector) HealthCheck(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.shouldFail {
		return ErrCollectionFailed
	}
	return nil
}

func (c *MockCollector) Close() error {
	return nil
}
