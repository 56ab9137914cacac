package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSeverity_Weight(t *testing.T) {
	assert.Equal(t, 4, SeverityCritical.Weight())
	assert.Equal(t, 3, SeverityHigh.Weight())
	assert.Equal(t, 2, SeverityMedium.Weight())
	assert.Equal(t, 1, SeverityNormal.Weight())
	assert.Equal(t, 1, Severity("unknown").Weight())
}

func TestSeverity_AtLeast(t *testing.T) {
	assert.True(t, SeverityCritical.AtLeast(SeverityHigh))
	assert.True(t, SeverityHigh.AtLeast(SeverityHigh))
	assert.False(t, SeverityMedium.AtLeast(SeverityHigh))
	assert.True(t, SeverityNormal.AtLeast(SeverityNormal))
}

func TestRuleCondition_Matches(t *testing.T) {
	obs := &ClassifiedObservation{
		ResourceID: "web-1",
		MetricName: "cpu_usage",
		Value:      85,
		Severity:   SeverityHigh,
	}

	tests := []struct {
		name      string
		condition RuleCondition
		matches   bool
	}{
		{name: "empty condition matches", condition: RuleCondition{}, matches: true},
		{name: "metric mismatch", condition: RuleCondition{Metric: "memory_usage"}, matches: false},
		{name: "greater than true", condition: RuleCondition{Metric: "cpu_usage", Operator: OperatorGreaterThan, Threshold: 80}, matches: true},
		{name: "greater than false", condition: RuleCondition{Metric: "cpu_usage", Operator: OperatorGreaterThan, Threshold: 90}, matches: false},
		{name: "less than", condition: RuleCondition{Operator: OperatorLessThan, Threshold: 90}, matches: true},
		{name: "greater or equal boundary", condition: RuleCondition{Operator: OperatorGreaterOrEq, Threshold: 85}, matches: true},
		{name: "less or equal boundary", condition: RuleCondition{Operator: OperatorLessOrEq, Threshold: 85}, matches: true},
		{name: "min severity met", condition: RuleCondition{MinSeverity: SeverityMedium}, matches: true},
		{name: "min severity unmet", condition: RuleCondition{MinSeverity: SeverityCritical}, matches: false},
		{name: "severity and threshold both required", condition: RuleCondition{MinSeverity: SeverityCritical, Operator: OperatorGreaterThan, Threshold: 80}, matches: false},
		{name: "unknown operator never matches", condition: RuleCondition{Operator: "~", Threshold: 80}, matches: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.matches, tt.condition.Matches(obs))
		})
	}
}

func TestAlertRule_AppliesTo(t *testing.T) {
	obs := &ClassifiedObservation{ResourceID: "web-1", MetricName: "cpu_usage", Category: CategoryCompute}

	assert.True(t, (&AlertRule{}).AppliesTo(obs))
	assert.True(t, (&AlertRule{Resources: []string{"web-1"}}).AppliesTo(obs))
	assert.False(t, (&AlertRule{Resources: []string{"db-1"}}).AppliesTo(obs))
	assert.True(t, (&AlertRule{Categories: []string{CategoryCompute}}).AppliesTo(obs))
	assert.False(t, (&AlertRule{Categories: []string{CategoryStorage}}).AppliesTo(obs))
}

func TestCategoryOfMetric(t *testing.T) {
	tests := []struct {
		metric   string
		expected string
	}{
		{metric: "cpu_usage", expected: CategoryCompute},
		{metric: "load_average", expected: CategoryCompute},
		{metric: "memory_usage", expected: CategoryMemory},
		{metric: "heap_bytes", expected: CategoryMemory},
		{metric: "disk_usage", expected: CategoryStorage},
		{metric: "fs_inodes_free", expected: CategoryStorage},
		{metric: "net_bytes_sent", expected: CategoryNetwork},
		{metric: "request_rate", expected: CategoryNetwork},
		{metric: "error_rate", expected: CategoryErrors},
		{metric: "custom_metric", expected: CategoryGeneral},
	}

	for _, tt := range tests {
		t.Run(tt.metric, func(t *testing.T) {
			assert.Equal(t, tt.expected, CategoryOfMetric(tt.metric))
		})
	}
}

func TestSeriesKey(t *testing.T) {
	// Label order never changes the key.
	a := SeriesKey("cpu_usage", map[string]string{"core": "0", "mode": "user"})
	b := SeriesKey("cpu_usage", map[string]string{"mode": "user", "core": "0"})
	assert.Equal(t, a, b)

	assert.Equal(t, "cpu_usage", SeriesKey("cpu_usage", nil))
	assert.NotEqual(t,
		SeriesKey("cpu_usage", map[string]string{"core": "0"}),
		SeriesKey("cpu_usage", map[string]string{"core": "1"}),
	)
}

func TestNewAlert(t *testing.T) {
	rule := &AlertRule{ID: "high_cpu", Title: "CPU usage above threshold"}
	obs := &ClassifiedObservation{
		ResourceID: "web-1",
		MetricName: "cpu_usage",
		Value:      95,
		Severity:   SeverityCritical,
	}

	alert := NewAlert(rule, obs)

	assert.NotEmpty(t, alert.ID)
	assert.Equal(t, "high_cpu", alert.RuleID)
	assert.Equal(t, 4, alert.Priority)
	assert.Equal(t, AlertStatusActive, alert.Status)
	assert.True(t, alert.IsOpen())

	alert.Status = AlertStatusResolved
	assert.False(t, alert.IsOpen())
}

func TestPrediction_IsValid(t *testing.T) {
	now := time.Now()
	p := &Prediction{ValidUntil: now.Add(10 * time.Minute)}
	assert.True(t, p.IsValid(now.Add(5*time.Minute)))
	assert.False(t, p.IsValid(now.Add(15*time.Minute)))
}
