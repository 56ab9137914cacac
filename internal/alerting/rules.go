package alerting

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/vigilops/vigil/pkg/models"
)

// ruleFile is the on-disk shape of a declarative rule set.
type ruleFile struct {
	AlertRules []ruleEntry `yaml:"alert_rules"`
}

type ruleEntry struct {
	models.AlertRule `yaml:",inline"`

	SuggestedActions []string `yaml:"suggested_actions"`
}

// LoadRuleFile reads alert rules from a YAML file and registers them,
// along with any suggested actions, on the engine.
func (e *Engine) LoadRuleFile(path string) (int, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("failed to read rule file: %w", err)
	}

	var file ruleFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return 0, fmt.Errorf("failed to parse rule file: %w", err)
	}

	loaded := 0
	for i := range file.AlertRules {
		entry := &file.AlertRules[i]
		rule := entry.AlertRule
		if err := e.RegisterRule(&rule); err != nil {
			return loaded, fmt.Errorf("rule %q: %w", rule.ID, err)
		}
		if len(entry.SuggestedActions) > 0 {
			e.RegisterSuggestedActions(rule.ID, entry.SuggestedActions)
		}
		loaded++
	}
	return loaded, nil
}

// DefaultRules returns the built-in rule set used when no rule file is
// configured: anomaly severity escalation plus absolute guards for the
// common saturation metrics.
func DefaultRules() []*models.AlertRule {
	return []*models.AlertRule{
		{
			ID:          "anomaly_high",
			Title:       "Metric deviates strongly from baseline",
			Description: "Fires when classification reaches high or critical severity",
			Condition:   models.RuleCondition{MinSeverity: models.SeverityHigh},
			Channels:    []string{"log"},
		},
		{
			ID:        "high_cpu",
			Title:     "CPU usage above threshold",
			Condition: models.RuleCondition{Metric: "cpu_usage", Operator: models.OperatorGreaterThan, Threshold: 80},
			Channels:  []string{"log"},
		},
		{
			ID:        "high_memory",
			Title:     "Memory usage above threshold",
			Condition: models.RuleCondition{Metric: "memory_usage", Operator: models.OperatorGreaterThan, Threshold: 85},
			Channels:  []string{"log"},
		},
	}
}
