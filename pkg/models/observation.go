package models

import "time"

type Severity string

const (
	SeverityNormal   Severity = "normal"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Weight maps a severity tier to an alert priority.
func (s Severity) Weight() int {
	switch s {
	case SeverityCritical:
		return 4
	case SeverityHigh:
		return 3
	case SeverityMedium:
		return 2
	default:
		return 1
	}
}

// AtLeast reports whether s is the same tier as other or a higher one.
func (s Severity) AtLeast(other Severity) bool {
	return s.Weight() >= other.Weight()
}

type Trend string

const (
	TrendIncreasing Trend = "increasing"
	TrendDecreasing Trend = "decreasing"
	TrendStable     Trend = "stable"
)

// ClassifiedObservation is the ephemeral result of ingesting one metric
// observation: how far it sits from its baseline and how severe that is.
type ClassifiedObservation struct {
	ResourceID string    `json:"resource_id"`
	MetricName string    `json:"metric_name"`
	Value      float64   `json:"value"`
	Deviation  float64   `json:"deviation"`
	Trend      Trend     `json:"trend"`
	Severity   Severity  `json:"severity"`
	SystemLoad float64   `json:"system_load"`
	Category   string    `json:"category"`
	Timestamp  time.Time `json:"timestamp"`
}

func (o *ClassifiedObservation) IsCritical() bool {
	return o.Severity == SeverityCritical
}

func (o *ClassifiedObservation) IsAnomalous() bool {
	return o.Severity != SeverityNormal
}
