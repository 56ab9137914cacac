package websocket

import (
	"context"
	"encoding/json"
	"time"

	"github.com/vigilops/vigil/internal/logger"
	"github.com/vigilops/vigil/pkg/models"
)

// EventBridge forwards engine events to WebSocket clients.
type EventBridge struct {
	hub        *Hub
	eventsChan <-chan *models.Event
	ctx        context.Context
	cancel     context.CancelFunc
}

func NewEventBridge(hub *Hub, eventsChan <-chan *models.Event) *EventBridge {
	ctx, cancel := context.WithCancel(context.Background())
	return &EventBridge{
		hub:        hub,
		eventsChan: eventsChan,
		ctx:        ctx,
		cancel:     cancel,
	}
}

func (b *EventBridge) Start() {
	go b.run()
	logger.Info("WebSocket event bridge started")
}

func (b *EventBridge) Stop() {
	b.cancel()
	logger.Info("WebSocket event bridge stopped")
}

func (b *EventBridge) run() {
	for {
		select {
		case <-b.ctx.Done():
			return
		case event, ok := <-b.eventsChan:
			if !ok {
				logger.Info("Event channel closed, stopping bridge")
				return
			}
			b.forwardEvent(event)
		}
	}
}

func (b *EventBridge) forwardEvent(event *models.Event) {
	wsMessage := b.convertToWSMessage(event)
	if wsMessage == nil {
		return
	}

	data, err := json.Marshal(wsMessage)
	if err != nil {
		logger.Errorf("Failed to marshal WebSocket message: %v", err)
		return
	}

	b.hub.BroadcastToResource(event.ResourceID, data)
}

// WebSocketEvent is the message format sent to WebSocket clients
type WebSocketEvent struct {
	Type       string      `json:"type"`
	ResourceID string      `json:"resource_id"`
	Timestamp  time.Time   `json:"timestamp"`
	Severity   string      `json:"severity,omitempty"`
	Message    string      `json:"message,omitempty"`
	Data       interface{} `json:"data,omitempty"`
}

func (b *EventBridge) convertToWSMessage(event *models.Event) *WebSocketEvent {
	wsType := mapEventType(event.Type)
	if wsType == "" {
		return nil // Skip events we don't want to broadcast
	}

	return &WebSocketEvent{
		Type:       wsType,
		ResourceID: event.ResourceID,
		Timestamp:  event.Timestamp,
		Severity:   string(event.Severity),
		Message:    event.Message,
		Data:       event.Data,
	}
}

func mapEventType(eventType models.EventType) string {
	switch eventType {
	case models.EventTypeAlertCreated:
		return "alert"
	case models.EventTypeAlertAcknowledged, models.EventTypeAlertResolved:
		return "alert_update"
	case models.EventTypePredictionGenerated:
		return "prediction"
	case models.EventTypeHealingStarted:
		return "healing_started"
	case models.EventTypeHealingComplete:
		return "healing_complete"
	case models.EventTypeHealingFailed:
		return "healing_failed"
	case models.EventTypeError:
		return "error"
	default:
		// Skip metric_observed and other high-volume internal events
		return ""
	}
}
