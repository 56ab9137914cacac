package store

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vigilops/vigil/pkg/models"
)

func newTestStore() *Store {
	return New(Config{
		MaxSamples: 100,
		Epsilon:    1e-6,
		Thresholds: SeverityThresholds{Critical: 0.5, High: 0.3, Medium: 0.1},
	})
}

func TestBaseline_WelfordStats(t *testing.T) {
	b := &Baseline{}
	values := []float64{2, 4, 4, 4, 5, 5, 7, 9}
	for _, v := range values {
		b.Update(v)
	}

	assert.Equal(t, int64(8), b.Count)
	assert.InDelta(t, 5.0, b.Mean, 1e-9)
	assert.InDelta(t, 2.0, b.StdDev(), 1e-9)
}

func TestBaseline_SeedAndReset(t *testing.T) {
	b := &Baseline{}
	b.Seed(40.0, 5.0, 20)

	assert.Equal(t, int64(20), b.Count)
	assert.InDelta(t, 40.0, b.Mean, 1e-9)
	assert.InDelta(t, 5.0, b.StdDev(), 1e-6)

	b.Reset()
	assert.Equal(t, int64(0), b.Count)
	assert.Equal(t, 0.0, b.Mean)
}

func TestStore_Observe_ClassifiesAgainstPriorBaseline(t *testing.T) {
	s := newTestStore()
	s.SeedBaseline("web-1", "cpu_usage", 40.0, 5.0, 20)

	obs, err := s.Observe("web-1", models.MetricData{Name: "cpu_usage", Value: 95.0})
	require.NoError(t, err)

	// Deviation uses the baseline as it stood before this sample.
	assert.InDelta(t, 11.0, obs.Deviation, 0.01)
	assert.Equal(t, models.SeverityCritical, obs.Severity)
	assert.Equal(t, models.CategoryCompute, obs.Category)

	// The spike is now folded into the baseline.
	stats, ok := s.BaselineFor("web-1", "cpu_usage")
	require.True(t, ok)
	assert.Equal(t, int64(21), stats.Count)
	assert.Greater(t, stats.Mean, 40.0)
}

func TestStore_Observe_SeverityTiers(t *testing.T) {
	tests := []struct {
		name     string
		value    float64
		expected models.Severity
	}{
		{name: "within baseline", value: 50.4, expected: models.SeverityNormal},
		{name: "medium deviation", value: 52.0, expected: models.SeverityMedium},
		{name: "high deviation", value: 54.0, expected: models.SeverityHigh},
		{name: "critical deviation", value: 60.0, expected: models.SeverityCritical},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestStore()
			s.SeedBaseline("db-1", "memory_usage", 50.0, 10.0, 50)

			obs, err := s.Observe("db-1", models.MetricData{Name: "memory_usage", Value: tt.value})
			require.NoError(t, err)
			assert.Equal(t, tt.expected, obs.Severity)
		})
	}
}

func TestStore_Observe_ColdBaselineIsNormal(t *testing.T) {
	s := newTestStore()

	// Below the minimum sample count every observation classifies normal.
	obs, err := s.Observe("web-1", models.MetricData{Name: "cpu_usage", Value: 99.0})
	require.NoError(t, err)
	assert.Equal(t, 0.0, obs.Deviation)
	assert.Equal(t, models.SeverityNormal, obs.Severity)
}

func TestStore_Observe_Validation(t *testing.T) {
	s := newTestStore()

	tests := []struct {
		name       string
		resourceID string
		metric     models.MetricData
	}{
		{name: "empty resource id", resourceID: "", metric: models.MetricData{Name: "cpu_usage", Value: 1}},
		{name: "resource id with spaces", resourceID: "web 1", metric: models.MetricData{Name: "cpu_usage", Value: 1}},
		{name: "invalid metric name", resourceID: "web-1", metric: models.MetricData{Name: "2cpu", Value: 1}},
		{name: "NaN value", resourceID: "web-1", metric: models.MetricData{Name: "cpu_usage", Value: math.NaN()}},
		{name: "infinite value", resourceID: "web-1", metric: models.MetricData{Name: "cpu_usage", Value: math.Inf(1)}},
		{name: "reserved label", resourceID: "web-1", metric: models.MetricData{Name: "cpu_usage", Value: 1, Labels: map[string]string{"__internal": "x"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Observe(tt.resourceID, tt.metric)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}

	// Nothing should have been recorded for the rejected observations.
	_, ok := s.BaselineFor("web-1", "cpu_usage")
	assert.False(t, ok)
}

func TestStore_Observe_TrendDetection(t *testing.T) {
	s := newTestStore()

	values := []float64{10, 12, 14, 30, 40, 50}
	var last *models.ClassifiedObservation
	for i, v := range values {
		obs, err := s.Observe("web-1", models.MetricData{
			Name:      "request_rate",
			Value:     v,
			Timestamp: time.Now().Add(time.Duration(i) * time.Second),
		})
		require.NoError(t, err)
		last = obs
	}

	assert.Equal(t, models.TrendIncreasing, last.Trend)
}

func TestStore_History(t *testing.T) {
	s := newTestStore()
	base := time.Now().Add(-time.Minute)

	for i := 0; i < 5; i++ {
		_, err := s.Observe("web-1", models.MetricData{
			Name:      "cpu_usage",
			Value:     float64(10 + i),
			Timestamp: base.Add(time.Duration(i) * time.Second),
		})
		require.NoError(t, err)
	}

	samples := s.History("web-1", "cpu_usage", time.Hour)
	require.Len(t, samples, 5)
	for i := 1; i < len(samples); i++ {
		assert.True(t, samples[i].Timestamp.After(samples[i-1].Timestamp))
	}

	limited := s.HistoryLimit("web-1", "cpu_usage", 2)
	require.Len(t, limited, 2)
	assert.Equal(t, 13.0, limited[0].Value)
	assert.Equal(t, 14.0, limited[1].Value)
}

func TestStore_HistoryBounded(t *testing.T) {
	s := New(Config{MaxSamples: 10})

	for i := 0; i < 25; i++ {
		_, err := s.Observe("web-1", models.MetricData{Name: "cpu_usage", Value: float64(i)})
		require.NoError(t, err)
	}

	samples := s.HistoryLimit("web-1", "cpu_usage", 0)
	assert.Len(t, samples, 10)
	assert.Equal(t, 24.0, samples[len(samples)-1].Value)
}

func TestStore_ResourcesAndMetricNames(t *testing.T) {
	s := newTestStore()

	_, err := s.Observe("web-1", models.MetricData{Name: "cpu_usage", Value: 10})
	require.NoError(t, err)
	_, err = s.Observe("web-1", models.MetricData{Name: "memory_usage", Value: 20})
	require.NoError(t, err)
	_, err = s.Observe("db-1", models.MetricData{Name: "disk_usage", Value: 30})
	require.NoError(t, err)

	assert.Equal(t, []string{"db-1", "web-1"}, s.Resources())
	assert.Equal(t, []string{"cpu_usage", "memory_usage"}, s.MetricNames("web-1"))
}

func TestStore_ResetBaseline(t *testing.T) {
	s := newTestStore()
	s.SeedBaseline("web-1", "cpu_usage", 40.0, 5.0, 20)

	s.ResetBaseline("web-1", "cpu_usage")

	stats, ok := s.BaselineFor("web-1", "cpu_usage")
	require.True(t, ok)
	assert.Equal(t, int64(0), stats.Count)
}
