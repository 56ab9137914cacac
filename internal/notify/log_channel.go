package notify

import (
	"context"

	"github.com/vigilops/vigil/internal/logger"
	"github.com/vigilops/vigil/pkg/models"
)

// LogChannel writes alerts to the service log. Always available; used as
// the default channel when nothing else is configured.
type LogChannel struct {
	name string
}

func NewLogChannel(name string) *LogChannel {
	if name == "" {
		name = "log"
	}
	return &LogChannel{name: name}
}

func (c *LogChannel) Name() string {
	return c.name
}

func (c *LogChannel) Send(_ context.Context, alert *models.Alert) error {
	logger.WithFields(map[string]interface{}{
		"alert_id":    alert.ID,
		"rule_id":     alert.RuleID,
		"resource_id": alert.ResourceID,
		"severity":    alert.Severity,
		"priority":    alert.Priority,
	}).Warnf("ALERT: %s", alert.Message)
	return nil
}
