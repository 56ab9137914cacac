package events

import (
	"context"
	"encoding/json"

	"github.com/vigilops/vigil/internal/logger"
	"github.com/vigilops/vigil/pkg/database"
	"github.com/vigilops/vigil/pkg/models"
)

// EventAuditor drains a bus subscription, logs every event through the
// structured logger, and persists alert and healing records when a
// database is configured. A nil db disables persistence only.
type EventAuditor struct {
	db        *database.DB
	eventChan <-chan *models.Event
	ctx       context.Context
	cancel    context.CancelFunc
}

func NewEventAuditor(db *database.DB, eventChan <-chan *models.Event) *EventAuditor {
	ctx, cancel := context.WithCancel(context.Background())
	return &EventAuditor{
		db:        db,
		eventChan: eventChan,
		ctx:       ctx,
		cancel:    cancel,
	}
}

func (a *EventAuditor) Start() {
	go a.run()
}

func (a *EventAuditor) Stop() {
	a.cancel()
}

func (a *EventAuditor) run() {
	for {
		select {
		case <-a.ctx.Done():
			return
		case event, ok := <-a.eventChan:
			if !ok {
				return
			}
			a.processEvent(event)
		}
	}
}

func (a *EventAuditor) processEvent(event *models.Event) {
	entry := logger.WithFields(map[string]interface{}{
		"event_type":  event.Type,
		"resource_id": event.ResourceID,
		"severity":    event.Severity,
		"trace_id":    event.TraceID,
	})

	switch event.Severity {
	case models.EventSeverityCritical:
		entry.Error(event.Message)
	case models.EventSeverityWarning:
		entry.Warn(event.Message)
	default:
		entry.Info(event.Message)
	}

	if a.db == nil {
		return
	}

	switch event.Type {
	case models.EventTypeAlertCreated, models.EventTypeAlertAcknowledged, models.EventTypeAlertResolved:
		a.persistAlert(event)
	case models.EventTypeHealingComplete:
		a.persistHealingRecord(event)
	}
}

func (a *EventAuditor) persistAlert(event *models.Event) {
	alert, ok := event.Data.(*models.Alert)
	if !ok {
		return
	}

	query := `
		INSERT INTO alerts
			(id, rule_id, resource_id, metric_name, value, severity, priority, message, status, created_at, acknowledged_at, resolved_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			acknowledged_at = EXCLUDED.acknowledged_at,
			resolved_at = EXCLUDED.resolved_at`

	_, err := a.db.ExecContext(a.ctx, query,
		alert.ID,
		alert.RuleID,
		alert.ResourceID,
		alert.MetricName,
		alert.Value,
		alert.Severity,
		alert.Priority,
		alert.Message,
		alert.Status,
		alert.CreatedAt,
		alert.AcknowledgedAt,
		alert.ResolvedAt,
	)
	if err != nil {
		logger.Errorf("Failed to persist alert: %v", err)
	}
}

func (a *EventAuditor) persistHealingRecord(event *models.Event) {
	record, ok := event.Data.(*models.HealingRecord)
	if !ok {
		return
	}

	actions, err := json.Marshal(record.Actions)
	if err != nil {
		logger.Errorf("Failed to encode healing actions: %v", err)
		return
	}

	query := `
		INSERT INTO healing_records
			(id, rule_id, issue_id, issue_type, resource_id, started_at, completed_at, actions, validated, improved, success)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (id) DO NOTHING`

	_, err = a.db.ExecContext(a.ctx, query,
		record.ID,
		record.RuleID,
		record.IssueID,
		record.IssueType,
		record.ResourceID,
		record.StartedAt,
		record.CompletedAt,
		actions,
		record.Validated,
		record.Improved,
		record.Success,
	)
	if err != nil {
		logger.Errorf("Failed to persist healing record: %v", err)
	}
}
