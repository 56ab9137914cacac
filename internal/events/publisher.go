package events

import (
	"github.com/vigilops/vigil/pkg/models"
)

// Publisher is the narrow write-side facade components use to emit
// events without touching bus internals.
type Publisher struct {
	bus     *EventBus
	traceID string
}

func NewPublisher(bus *EventBus) *Publisher {
	return &Publisher{bus: bus}
}

func (p *Publisher) WithTraceID(traceID string) *Publisher {
	return &Publisher{
		bus:     p.bus,
		traceID: traceID,
	}
}

func (p *Publisher) publish(event *models.Event) {
	if p.traceID != "" {
		event.TraceID = p.traceID
	}
	p.bus.Publish(event)
}

func (p *Publisher) MetricObserved(resourceID string, obs *models.ClassifiedObservation) {
	event := models.NewEvent(models.EventTypeMetricObserved, resourceID, "Metric observed").
		WithData(obs)

	if obs.IsCritical() {
		event.WithSeverity(models.EventSeverityCritical)
	} else if obs.IsAnomalous() {
		event.WithSeverity(models.EventSeverityWarning)
	}

	p.publish(event)
}

func (p *Publisher) AlertCreated(alert *models.Alert) {
	event := models.NewEvent(models.EventTypeAlertCreated, alert.ResourceID, "Alert created: "+alert.Message).
		WithData(alert)

	if alert.Severity == models.SeverityCritical {
		event.WithSeverity(models.EventSeverityCritical)
	} else {
		event.WithSeverity(models.EventSeverityWarning)
	}

	p.publish(event)
}

func (p *Publisher) AlertAcknowledged(alert *models.Alert) {
	event := models.NewEvent(models.EventTypeAlertAcknowledged, alert.ResourceID, "Alert acknowledged").
		WithData(alert)
	p.publish(event)
}

func (p *Publisher) AlertResolved(alert *models.Alert) {
	event := models.NewEvent(models.EventTypeAlertResolved, alert.ResourceID, "Alert resolved").
		WithData(alert)
	p.publish(event)
}

func (p *Publisher) PredictionGenerated(prediction *models.Prediction) {
	event := models.NewEvent(models.EventTypePredictionGenerated, prediction.ResourceID, "Prediction generated").
		WithData(prediction)

	if len(prediction.Issues) > 0 {
		event.WithSeverity(models.EventSeverityWarning)
	}

	p.publish(event)
}

func (p *Publisher) HealingStarted(issue *models.Issue, ruleID string) {
	msg := "Healing started: " + issue.Type
	event := models.NewEvent(models.EventTypeHealingStarted, issue.ResourceID, msg).
		WithData(map[string]interface{}{
			"issue":   issue,
			"rule_id": ruleID,
		})
	p.publish(event)
}

func (p *Publisher) HealingComplete(record *models.HealingRecord) {
	msg := "Healing complete: " + record.IssueType
	event := models.NewEvent(models.EventTypeHealingComplete, record.ResourceID, msg).
		WithData(record)

	if !record.Success {
		event.WithSeverity(models.EventSeverityWarning)
	}

	p.publish(event)
}

func (p *Publisher) HealingFailed(issue *models.Issue, reason string, err error) {
	msg := "Healing failed: " + reason
	data := map[string]interface{}{
		"issue":  issue,
		"reason": reason,
	}
	if err != nil {
		data["error"] = err.Error()
	}
	event := models.NewEvent(models.EventTypeHealingFailed, issue.ResourceID, msg).
		WithSeverity(models.EventSeverityCritical).
		WithData(data)
	p.publish(event)
}

func (p *Publisher) ChannelFailure(channel string, alert *models.Alert, err error) {
	event := models.NewEvent(models.EventTypeChannelFailure, alert.ResourceID, "Notification delivery failed").
		WithSeverity(models.EventSeverityWarning).
		WithData(map[string]interface{}{
			"channel":  channel,
			"alert_id": alert.ID,
			"error":    err.Error(),
		})
	p.publish(event)
}

func (p *Publisher) Error(resourceID string, message string, err error) {
	event := models.NewEvent(models.EventTypeError, resourceID, message).
		WithSeverity(models.EventSeverityCritical).
		WithData(map[string]interface{}{
			"error": err.Error(),
		})
	p.publish(event)
}
