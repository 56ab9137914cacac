package models

import "time"

type AlertStatus string

const (
	AlertStatusActive       AlertStatus = "active"
	AlertStatusAcknowledged AlertStatus = "acknowledged"
	AlertStatusResolved     AlertStatus = "resolved"
)

type ConditionOperator string

const (
	OperatorGreaterThan ConditionOperator = ">"
	OperatorLessThan    ConditionOperator = "<"
	OperatorGreaterOrEq ConditionOperator = ">="
	OperatorLessOrEq    ConditionOperator = "<="
)

// RuleCondition is the predicate an observation must satisfy for a rule
// to fire. Metric/Operator/Threshold test the observed value; MinSeverity
// tests the classified severity tier. Unset parts always match.
type RuleCondition struct {
	Metric      string            `json:"metric,omitempty" yaml:"metric"`
	Operator    ConditionOperator `json:"operator,omitempty" yaml:"operator"`
	Threshold   float64           `json:"threshold,omitempty" yaml:"threshold"`
	MinSeverity Severity          `json:"min_severity,omitempty" yaml:"min_severity"`
}

// Matches evaluates the condition against a classified observation.
func (c RuleCondition) Matches(obs *ClassifiedObservation) bool {
	if c.Metric != "" && c.Metric != obs.MetricName {
		return false
	}
	if c.MinSeverity != "" && !obs.Severity.AtLeast(c.MinSeverity) {
		return false
	}
	if c.Operator != "" {
		switch c.Operator {
		case OperatorGreaterThan:
			return obs.Value > c.Threshold
		case OperatorLessThan:
			return obs.Value < c.Threshold
		case OperatorGreaterOrEq:
			return obs.Value >= c.Threshold
		case OperatorLessOrEq:
			return obs.Value <= c.Threshold
		default:
			return false
		}
	}
	return true
}

// AlertRule describes one registered alerting condition. Rules are
// registered at startup or via an administrative call and are immutable
// during evaluation.
type AlertRule struct {
	ID            string        `json:"id" yaml:"id"`
	Title         string        `json:"title" yaml:"title"`
	Description   string        `json:"description,omitempty" yaml:"description"`
	Condition     RuleCondition `json:"condition" yaml:"condition"`
	Resources     []string      `json:"resources,omitempty" yaml:"resources"`
	Categories    []string      `json:"categories,omitempty" yaml:"categories"`
	Channels      []string      `json:"channels,omitempty" yaml:"channels"`
	AutoRemediate bool          `json:"auto_remediate,omitempty" yaml:"auto_remediate"`
	IssueType     string        `json:"issue_type,omitempty" yaml:"issue_type"`
}

// AppliesTo reports whether the rule is applicable to the observation's
// resource and category. Empty selectors match everything.
func (r *AlertRule) AppliesTo(obs *ClassifiedObservation) bool {
	if len(r.Resources) > 0 && !containsString(r.Resources, obs.ResourceID) {
		return false
	}
	if len(r.Categories) > 0 && !containsString(r.Categories, obs.Category) {
		return false
	}
	return true
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// Alert is one triggered, unsuppressed rule match.
type Alert struct {
	ID               string      `json:"id"`
	RuleID           string      `json:"rule_id"`
	ResourceID       string      `json:"resource_id"`
	MetricName       string      `json:"metric_name,omitempty"`
	Value            float64     `json:"value"`
	Severity         Severity    `json:"severity"`
	Priority         int         `json:"priority"`
	Message          string      `json:"message"`
	CorrelatedIDs    []string    `json:"correlated_ids,omitempty"`
	SuggestedActions []string    `json:"suggested_actions,omitempty"`
	Status           AlertStatus `json:"status"`
	CreatedAt        time.Time   `json:"created_at"`
	AcknowledgedAt   *time.Time  `json:"acknowledged_at,omitempty"`
	ResolvedAt       *time.Time  `json:"resolved_at,omitempty"`
}

func NewAlert(rule *AlertRule, obs *ClassifiedObservation) *Alert {
	return &Alert{
		ID:         NewUUID(),
		RuleID:     rule.ID,
		ResourceID: obs.ResourceID,
		MetricName: obs.MetricName,
		Value:      obs.Value,
		Severity:   obs.Severity,
		Priority:   obs.Severity.Weight(),
		Message:    rule.Title,
		Status:     AlertStatusActive,
		CreatedAt:  time.Now(),
	}
}

func (a *Alert) IsOpen() bool {
	return a.Status != AlertStatusResolved
}
