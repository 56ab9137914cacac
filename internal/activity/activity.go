package activity

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/vigilops/vigil/internal/logger"
	"github.com/vigilops/vigil/pkg/models"
)

// Sink forwards alert and healing events to the platform activity log.
// Delivery is fire-and-forget: failures are logged and dropped so the
// monitoring loop is never blocked by the activity service.
type Sink struct {
	endpoint  string
	client    *http.Client
	eventChan <-chan *models.Event
	ctx       context.Context
	cancel    context.CancelFunc
}

type Config struct {
	Endpoint string
	Timeout  time.Duration
}

func NewSink(cfg Config, eventChan <-chan *models.Event) *Sink {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 3 * time.Second
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Sink{
		endpoint:  cfg.Endpoint,
		client:    &http.Client{Timeout: timeout},
		eventChan: eventChan,
		ctx:       ctx,
		cancel:    cancel,
	}
}

func (s *Sink) Start() {
	go s.run()
}

func (s *Sink) Stop() {
	s.cancel()
}

func (s *Sink) run() {
	for {
		select {
		case <-s.ctx.Done():
			return
		case event, ok := <-s.eventChan:
			if !ok {
				return
			}
			if s.relevant(event.Type) {
				s.deliver(event)
			}
		}
	}
}

func (s *Sink) relevant(t models.EventType) bool {
	switch t {
	case models.EventTypeAlertCreated,
		models.EventTypeAlertResolved,
		models.EventTypeHealingComplete,
		models.EventTypeHealingFailed:
		return true
	}
	return false
}

type activityEntry struct {
	Source     string      `json:"source"`
	Kind       string      `json:"kind"`
	ResourceID string      `json:"resource_id"`
	Message    string      `json:"message"`
	Severity   string      `json:"severity"`
	OccurredAt time.Time   `json:"occurred_at"`
	Payload    interface{} `json:"payload,omitempty"`
}

func (s *Sink) deliver(event *models.Event) {
	entry := activityEntry{
		Source:     "vigil",
		Kind:       string(event.Type),
		ResourceID: event.ResourceID,
		Message:    event.Message,
		Severity:   string(event.Severity),
		OccurredAt: event.Timestamp,
		Payload:    event.Data,
	}

	body, err := json.Marshal(entry)
	if err != nil {
		logger.Errorf("Failed to encode activity entry: %v", err)
		return
	}

	req, err := http.NewRequestWithContext(s.ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		logger.Errorf("Failed to build activity request: %v", err)
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		logger.Warnf("Activity delivery failed: %v", err)
		return
	}
	resp.Body.Close()

	if resp.StatusCode >= 300 {
		logger.Warnf("Activity service returned status %d", resp.StatusCode)
	}
}
