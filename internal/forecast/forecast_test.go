package forecast

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vigilops/vigil/pkg/models"
)

// fakeSource serves a fixed sample series regardless of the requested
// resource or metric.
type fakeSource struct {
	samples []models.Sample
}

func (f *fakeSource) HistoryLimit(resourceID, metricName string, limit int) []models.Sample {
	if limit > 0 && len(f.samples) > limit {
		return f.samples[len(f.samples)-limit:]
	}
	return f.samples
}

func linearSamples(start time.Time, n int, base, slopePerMinute float64) []models.Sample {
	out := make([]models.Sample, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, models.Sample{
			Timestamp: start.Add(time.Duration(i) * time.Minute),
			Value:     base + slopePerMinute*float64(i),
		})
	}
	return out
}

func TestLinearTrendModel_PerfectFit(t *testing.T) {
	start := time.Now().Add(-20 * time.Minute)
	samples := linearSamples(start, 10, 50, 2) // 50, 52, ... 68

	points, confidence, err := LinearTrendModel{}.Forecast(samples, 3, time.Minute)
	require.NoError(t, err)
	require.Len(t, points, 3)

	// A perfectly linear series extrapolates exactly and fits with R²=1.
	assert.InDelta(t, 1.0, confidence, 1e-9)
	assert.InDelta(t, 70.0, points[0].Value, 1e-6)
	assert.InDelta(t, 72.0, points[1].Value, 1e-6)
	assert.InDelta(t, 74.0, points[2].Value, 1e-6)
}

func TestLinearTrendModel_FlatSeries(t *testing.T) {
	start := time.Now().Add(-time.Hour)
	samples := linearSamples(start, 10, 42, 0)

	points, confidence, err := LinearTrendModel{}.Forecast(samples, 2, time.Minute)
	require.NoError(t, err)

	assert.InDelta(t, 1.0, confidence, 1e-9)
	for _, p := range points {
		assert.InDelta(t, 42.0, p.Value, 1e-6)
	}
}

func TestLinearTrendModel_InsufficientData(t *testing.T) {
	_, _, err := LinearTrendModel{}.Forecast([]models.Sample{{Value: 1}}, 3, time.Minute)
	assert.ErrorIs(t, err, ErrInsufficientData)
}

func TestMovingAverageModel(t *testing.T) {
	start := time.Now().Add(-time.Hour)
	samples := linearSamples(start, 6, 10, 2) // 10, 12, 14, 16, 18, 20

	points, confidence, err := MovingAverageModel{Window: 3}.Forecast(samples, 2, time.Minute)
	require.NoError(t, err)
	require.Len(t, points, 2)

	// Mean of the trailing window {16, 18, 20}.
	assert.InDelta(t, 18.0, points[0].Value, 1e-6)
	assert.InDelta(t, 18.0, points[1].Value, 1e-6)
	assert.Greater(t, confidence, 0.0)
	assert.LessOrEqual(t, confidence, 1.0)
}

func TestForecaster_InsufficientData(t *testing.T) {
	start := time.Now().Add(-time.Hour)
	source := &fakeSource{samples: linearSamples(start, 5, 50, 1)}
	f := New(Config{MinSamples: 10}, source, LinearTrendModel{}, nil)

	_, err := f.Forecast("web-1", "cpu_usage")
	assert.ErrorIs(t, err, ErrInsufficientData)

	// Nothing is recorded for the failed attempt.
	assert.Nil(t, f.Latest("web-1", "cpu_usage"))
	assert.Empty(t, f.Records())
}

func TestForecaster_GeneratesPrediction(t *testing.T) {
	start := time.Now().Add(-30 * time.Minute)
	source := &fakeSource{samples: linearSamples(start, 20, 40, 1)}
	f := New(Config{Horizon: 10 * time.Minute, Step: 5 * time.Minute}, source, LinearTrendModel{}, nil)

	pred, err := f.Forecast("web-1", "cpu_usage")
	require.NoError(t, err)

	assert.Equal(t, "web-1", pred.ResourceID)
	assert.Equal(t, "cpu_usage", pred.MetricName)
	assert.Equal(t, "linear_trend", pred.ModelName)
	assert.Len(t, pred.Forecast, 2)
	assert.True(t, pred.ValidUntil.After(pred.GeneratedAt))

	assert.Same(t, pred, f.Latest("web-1", "cpu_usage"))
	assert.Len(t, f.Records(), 1)
}

func TestForecaster_DerivesThresholdBreach(t *testing.T) {
	// Rising toward 90 within the horizon: 70, 72, ... 98.
	start := time.Now().Add(-15 * time.Minute)
	source := &fakeSource{samples: linearSamples(start, 15, 70, 2)}
	f := New(Config{
		Horizon:    10 * time.Minute,
		Step:       5 * time.Minute,
		Thresholds: map[string]float64{"cpu_usage": 90},
	}, source, LinearTrendModel{}, nil)

	pred, err := f.Forecast("web-1", "cpu_usage")
	require.NoError(t, err)

	require.Len(t, pred.Issues, 1)
	assert.Equal(t, "threshold_breach", pred.Issues[0].Type)
	assert.Greater(t, pred.RiskScore, 0.0)
	assert.NotEmpty(t, pred.Recommendations)
}

func TestForecaster_NoIssueBelowThreshold(t *testing.T) {
	start := time.Now().Add(-30 * time.Minute)
	source := &fakeSource{samples: linearSamples(start, 20, 30, 0)}
	f := New(Config{Thresholds: map[string]float64{"cpu_usage": 90}}, source, LinearTrendModel{}, nil)

	pred, err := f.Forecast("web-1", "cpu_usage")
	require.NoError(t, err)

	assert.Empty(t, pred.Issues)
	assert.Equal(t, 0.0, pred.RiskScore)
}

func TestForecaster_ActiveExcludesExpired(t *testing.T) {
	start := time.Now().Add(-30 * time.Minute)
	source := &fakeSource{samples: linearSamples(start, 20, 40, 0)}
	f := New(Config{ValidFor: 10 * time.Minute}, source, LinearTrendModel{}, nil)

	_, err := f.Forecast("web-1", "cpu_usage")
	require.NoError(t, err)

	assert.Len(t, f.Active(time.Now()), 1)
	assert.Empty(t, f.Active(time.Now().Add(time.Hour)))
}
