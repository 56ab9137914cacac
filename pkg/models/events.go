package models

import "time"

type EventType string

const (
	EventTypeMetricObserved      EventType = "metric_observed"
	EventTypeAlertCreated        EventType = "alert_created"
	EventTypeAlertAcknowledged   EventType = "alert_acknowledged"
	EventTypeAlertResolved       EventType = "alert_resolved"
	EventTypePredictionGenerated EventType = "prediction_generated"
	EventTypeHealingStarted      EventType = "healing_started"
	EventTypeHealingComplete     EventType = "healing_complete"
	EventTypeHealingFailed       EventType = "healing_failed"
	EventTypeChannelFailure      EventType = "channel_failure"
	EventTypeError               EventType = "error"
)

type EventSeverity string

const (
	EventSeverityInfo     EventSeverity = "info"
	EventSeverityWarning  EventSeverity = "warning"
	EventSeverityCritical EventSeverity = "critical"
)

// Event represents an internal system event
type Event struct {
	ID         string        `json:"id"`
	Type       EventType     `json:"type"`
	Severity   EventSeverity `json:"severity"`
	ResourceID string        `json:"resource_id,omitempty"`
	Timestamp  time.Time     `json:"timestamp"`
	Message    string        `json:"message"`
	Data       interface{}   `json:"data,omitempty"`
	TraceID    string        `json:"trace_id,omitempty"`
}

func NewEvent(eventType EventType, resourceID, message string) *Event {
	return &Event{
		ID:         NewUUID(),
		Type:       eventType,
		Severity:   EventSeverityInfo,
		ResourceID: resourceID,
		Timestamp:  time.Now(),
		Message:    message,
	}
}

func (e *Event) WithSeverity(severity EventSeverity) *Event {
	e.Severity = severity
	return e
}

func (e *Event) WithData(data interface{}) *Event {
	e.Data = data
	return e
}

func (e *Event) WithTraceID(traceID string) *Event {
	e.TraceID = traceID
	return e
}
