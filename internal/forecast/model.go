package forecast

import (
	"errors"
	"math"
	"time"

	"github.com/vigilops/vigil/pkg/models"
)

// ErrInsufficientData is the normal "not enough history" outcome. No
// prediction is produced or stored when it is returned.
var ErrInsufficientData = errors.New("insufficient historical data")

// Model is the pluggable forecasting strategy. Implementations must be
// deterministic for a given input so tests can rely on fixed output.
type Model interface {
	Name() string
	// Forecast extrapolates the sample series into the future, one point
	// per step. It returns the points and a confidence in [0, 1].
	Forecast(samples []models.Sample, steps int, step time.Duration) ([]models.ForecastPoint, float64, error)
}

// LinearTrendModel fits an ordinary least-squares line through the
// samples and extends it forward. Confidence is the fit's R².
type LinearTrendModel struct{}

func (LinearTrendModel) Name() string { return "linear_trend" }

func (LinearTrendModel) Forecast(samples []models.Sample, steps int, step time.Duration) ([]models.ForecastPoint, float64, error) {
	if len(samples) < 2 {
		return nil, 0, ErrInsufficientData
	}

	origin := samples[0].Timestamp
	n := float64(len(samples))

	var sumX, sumY, sumXY, sumXX float64
	for _, s := range samples {
		x := s.Timestamp.Sub(origin).Seconds()
		sumX += x
		sumY += s.Value
		sumXY += x * s.Value
		sumXX += x * x
	}

	denom := n*sumXX - sumX*sumX
	var slope, intercept float64
	if denom != 0 {
		slope = (n*sumXY - sumX*sumY) / denom
		intercept = (sumY - slope*sumX) / n
	} else {
		intercept = sumY / n
	}

	// R² as fit confidence; a flat series fits perfectly.
	meanY := sumY / n
	var ssTot, ssRes float64
	for _, s := range samples {
		x := s.Timestamp.Sub(origin).Seconds()
		predicted := intercept + slope*x
		ssTot += (s.Value - meanY) * (s.Value - meanY)
		ssRes += (s.Value - predicted) * (s.Value - predicted)
	}
	confidence := 1.0
	if ssTot > 0 {
		confidence = clamp01(1 - ssRes/ssTot)
	}

	last := samples[len(samples)-1].Timestamp
	points := make([]models.ForecastPoint, 0, steps)
	for i := 1; i <= steps; i++ {
		ts := last.Add(time.Duration(i) * step)
		x := ts.Sub(origin).Seconds()
		points = append(points, models.ForecastPoint{Timestamp: ts, Value: intercept + slope*x})
	}
	return points, confidence, nil
}

// MovingAverageModel projects the mean of the most recent window
// forward. Confidence shrinks with the window's relative dispersion.
type MovingAverageModel struct {
	// Window is the number of trailing samples averaged. Zero means all.
	Window int
}

func (MovingAverageModel) Name() string { return "moving_average" }

func (m MovingAverageModel) Forecast(samples []models.Sample, steps int, step time.Duration) ([]models.ForecastPoint, float64, error) {
	if len(samples) == 0 {
		return nil, 0, ErrInsufficientData
	}

	window := samples
	if m.Window > 0 && len(samples) > m.Window {
		window = samples[len(samples)-m.Window:]
	}

	var sum float64
	for _, s := range window {
		sum += s.Value
	}
	mean := sum / float64(len(window))

	var variance float64
	for _, s := range window {
		variance += (s.Value - mean) * (s.Value - mean)
	}
	variance /= float64(len(window))

	confidence := 1.0
	if mean != 0 {
		confidence = clamp01(1 - math.Sqrt(variance)/math.Abs(mean))
	}

	last := samples[len(samples)-1].Timestamp
	points := make([]models.ForecastPoint, 0, steps)
	for i := 1; i <= steps; i++ {
		points = append(points, models.ForecastPoint{Timestamp: last.Add(time.Duration(i) * step), Value: mean})
	}
	return points, confidence, nil
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
