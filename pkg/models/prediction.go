package models

import "time"

// ForecastPoint is one predicted value at a future instant.
type ForecastPoint struct {
	Timestamp time.Time `json:"timestamp"`
	Value     float64   `json:"value"`
}

// PotentialIssue is a problem the forecaster expects to materialise if
// the predicted trajectory holds.
type PotentialIssue struct {
	Type        string    `json:"type"`
	Severity    Severity  `json:"severity"`
	EstimatedAt time.Time `json:"estimated_at"`
	Confidence  float64   `json:"confidence"`
}

// Prediction is the forecaster's forward-looking estimate for one
// resource metric. Expired predictions are kept for audit but never used
// for decisioning.
type Prediction struct {
	ID              string           `json:"id"`
	ResourceID      string           `json:"resource_id"`
	MetricName      string           `json:"metric_name"`
	Horizon         time.Duration    `json:"horizon"`
	GeneratedAt     time.Time        `json:"generated_at"`
	ValidUntil      time.Time        `json:"valid_until"`
	Forecast        []ForecastPoint  `json:"forecast"`
	Confidence      float64          `json:"confidence"`
	RiskScore       float64          `json:"risk_score"`
	Issues          []PotentialIssue `json:"issues,omitempty"`
	Recommendations []string         `json:"recommendations,omitempty"`
	ModelName       string           `json:"model_name"`
}

func (p *Prediction) IsValid(now time.Time) bool {
	return now.Before(p.ValidUntil)
}

func (p *Prediction) IsHighConfidence(threshold float64) bool {
	return p.Confidence >= threshold
}
