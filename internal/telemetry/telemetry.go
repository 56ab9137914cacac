package telemetry

import (
	"sync"
	"time"
)

// Stats aggregates the engine's own operational counters, served by the
// monitoring stats endpoint.
type Stats struct {
	mu sync.RWMutex

	// Counters
	metricsCollected     int64
	validationRejects    int64
	alertsTriggered      map[string]int64 // rule id -> count
	alertsSuppressed     int64
	predictionsGenerated int64
	predictionsSkipped   int64
	remediationsTotal    map[string]int64 // issue type -> count
	remediationsFailed   int64
	channelFailures      map[string]int64 // channel name -> count

	// Gauges
	activeAlerts     int
	trackedResources int

	// Latencies (last observed)
	collectionLatency time.Duration
	forecastLatency   time.Duration
	healingLatency    time.Duration

	startedAt time.Time
}

var (
	instance *Stats
	once     sync.Once
)

func Get() *Stats {
	once.Do(func() {
		instance = &Stats{
			alertsTriggered:   make(map[string]int64),
			remediationsTotal: make(map[string]int64),
			channelFailures:   make(map[string]int64),
			startedAt:         time.Now(),
		}
	})
	return instance
}

func (s *Stats) IncMetricsCollected() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.metricsCollected++
}

func (s *Stats) IncValidationRejects() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.validationRejects++
}

func (s *Stats) IncAlertTriggered(ruleID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.alertsTriggered[ruleID]++
}

func (s *Stats) IncAlertSuppressed() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.alertsSuppressed++
}

func (s *Stats) IncPredictionsGenerated() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.predictionsGenerated++
}

func (s *Stats) IncPredictionsSkipped() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.predictionsSkipped++
}

func (s *Stats) IncRemediation(issueType string, failed bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.remediationsTotal[issueType]++
	if failed {
		s.remediationsFailed++
	}
}

func (s *Stats) IncChannelFailure(channel string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.channelFailures[channel]++
}

func (s *Stats) SetActiveAlerts(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.activeAlerts = n
}

func (s *Stats) SetTrackedResources(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.trackedResources = n
}

func (s *Stats) SetCollectionLatency(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.collectionLatency = d
}

func (s *Stats) SetForecastLatency(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.forecastLatency = d
}

func (s *Stats) SetHealingLatency(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.healingLatency = d
}

// Snapshot returns a JSON-friendly view of all counters.
func (s *Stats) Snapshot() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var alertsTotal int64
	byRule := make(map[string]int64, len(s.alertsTriggered))
	for rule, n := range s.alertsTriggered {
		byRule[rule] = n
		alertsTotal += n
	}

	var remediationsTotal int64
	byIssue := make(map[string]int64, len(s.remediationsTotal))
	for issue, n := range s.remediationsTotal {
		byIssue[issue] = n
		remediationsTotal += n
	}

	channelFailures := make(map[string]int64, len(s.channelFailures))
	for ch, n := range s.channelFailures {
		channelFailures[ch] = n
	}

	return map[string]interface{}{
		"uptime_seconds":        int64(time.Since(s.startedAt).Seconds()),
		"metrics_collected":     s.metricsCollected,
		"validation_rejects":    s.validationRejects,
		"alerts_triggered":      alertsTotal,
		"alerts_by_rule":        byRule,
		"alerts_suppressed":     s.alertsSuppressed,
		"active_alerts":         s.activeAlerts,
		"predictions_generated": s.predictionsGenerated,
		"predictions_skipped":   s.predictionsSkipped,
		"remediations_executed": remediationsTotal,
		"remediations_by_issue": byIssue,
		"remediations_failed":   s.remediationsFailed,
		"channel_failures":      channelFailures,
		"tracked_resources":     s.trackedResources,
		"collection_latency_ms": s.collectionLatency.Milliseconds(),
		"forecast_latency_ms":   s.forecastLatency.Milliseconds(),
		"healing_latency_ms":    s.healingLatency.Milliseconds(),
	}
}
