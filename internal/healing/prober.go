package healing

import (
	"context"
	"time"

	"github.com/vigilops/vigil/pkg/models"
)

// MetricSource exposes the current stats the store keeps per resource.
type MetricSource interface {
	MetricNames(resourceID string) []string
	HistoryLimit(resourceID, metricName string, limit int) []models.Sample
}

// StoreProber snapshots the latest stored value of every metric the
// resource reports. It is the default prober wired at startup.
type StoreProber struct {
	source MetricSource
}

func NewStoreProber(source MetricSource) *StoreProber {
	return &StoreProber{source: source}
}

func (p *StoreProber) Probe(_ context.Context, resourceID string) (models.SystemSnapshot, error) {
	snap := models.SystemSnapshot{
		TakenAt:    time.Now(),
		Indicators: make(map[string]float64),
	}
	for _, name := range p.source.MetricNames(resourceID) {
		samples := p.source.HistoryLimit(resourceID, name, 1)
		if len(samples) > 0 {
			snap.Indicators[name] = samples[len(samples)-1].Value
		}
	}
	return snap, nil
}
