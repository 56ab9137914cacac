package healing

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/vigilops/vigil/pkg/models"
)

// ruleFile is the on-disk shape of a declarative healing rule set.
type ruleFile struct {
	HealingRules []models.HealingRule `yaml:"healing_rules"`
}

// LoadRuleFile reads healing rules from a YAML file and registers them.
func (o *Orchestrator) LoadRuleFile(path string) (int, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("failed to read healing rule file: %w", err)
	}

	var file ruleFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return 0, fmt.Errorf("failed to parse healing rule file: %w", err)
	}

	loaded := 0
	for i := range file.HealingRules {
		rule := file.HealingRules[i]
		if err := o.RegisterRule(&rule); err != nil {
			return loaded, fmt.Errorf("healing rule %q: %w", rule.Name, err)
		}
		loaded++
	}
	return loaded, nil
}

// DefaultRules returns the built-in healing rule set used when no rule
// file is configured. All default actions are log-only.
func DefaultRules() []*models.HealingRule {
	return []*models.HealingRule{
		{
			ID:          "anomaly_default",
			Name:        "Log anomaly remediation intent",
			TriggerType: "anomaly",
			Priority:    10,
			Actions: []models.RemediationAction{
				{Name: "log_anomaly", Type: "log", Timeout: 5 * time.Second},
			},
		},
		{
			ID:          "resource_exhaustion_default",
			Name:        "Log resource exhaustion remediation intent",
			TriggerType: "resource_exhaustion",
			Priority:    20,
			Actions: []models.RemediationAction{
				{Name: "log_exhaustion", Type: "log", Timeout: 5 * time.Second},
			},
			RetryCount: 1,
		},
	}
}
