package models

import "time"

// Issue is a detected problem handed to the self-healing orchestrator,
// either derived from a triggered alert or reported directly.
type Issue struct {
	ID         string             `json:"id"`
	Type       string             `json:"type"`
	ResourceID string             `json:"resource_id"`
	Severity   Severity           `json:"severity"`
	AlertID    string             `json:"alert_id,omitempty"`
	Indicators map[string]float64 `json:"indicators,omitempty"`
	Details    string             `json:"details,omitempty"`
	DetectedAt time.Time          `json:"detected_at"`
}

// RemediationAction is a single automated operation within a healing rule.
type RemediationAction struct {
	Name    string            `json:"name" yaml:"name"`
	Type    string            `json:"type" yaml:"type"`
	Params  map[string]string `json:"params,omitempty" yaml:"params"`
	Timeout time.Duration     `json:"timeout,omitempty" yaml:"timeout"`
}

// HealingRule maps an issue type to an ordered list of remediation
// actions. When several rules match, only the highest-priority rule runs.
type HealingRule struct {
	ID          string              `json:"id" yaml:"id"`
	Name        string              `json:"name" yaml:"name"`
	TriggerType string              `json:"trigger_type" yaml:"trigger_type"`
	Priority    int                 `json:"priority" yaml:"priority"`
	Actions     []RemediationAction `json:"actions" yaml:"actions"`
	RetryCount  int                 `json:"retry_count,omitempty" yaml:"retry_count"`
}

// ActionResult records one action execution within a healing run.
type ActionResult struct {
	Action   string        `json:"action"`
	Type     string        `json:"type"`
	Success  bool          `json:"success"`
	Error    string        `json:"error,omitempty"`
	Attempts int           `json:"attempts"`
	Duration time.Duration `json:"duration"`
	Output   string        `json:"output,omitempty"`
}

// SystemSnapshot captures indicator values at a point in time, taken
// before and after remediation for effectiveness validation.
type SystemSnapshot struct {
	TakenAt    time.Time          `json:"taken_at"`
	Indicators map[string]float64 `json:"indicators,omitempty"`
}

// HealingRecord is the append-only audit entry for one healing execution.
type HealingRecord struct {
	ID          string          `json:"id"`
	RuleID      string          `json:"rule_id"`
	IssueID     string          `json:"issue_id"`
	IssueType   string          `json:"issue_type"`
	ResourceID  string          `json:"resource_id"`
	StartedAt   time.Time       `json:"started_at"`
	CompletedAt time.Time       `json:"completed_at"`
	Actions     []ActionResult  `json:"actions"`
	Before      *SystemSnapshot `json:"before,omitempty"`
	After       *SystemSnapshot `json:"after,omitempty"`
	Validated   bool            `json:"validated"`
	Improved    bool            `json:"improved"`
	Success     bool            `json:"success"`
}
