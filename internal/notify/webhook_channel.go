package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/vigilops/vigil/internal/resilience"
	"github.com/vigilops/vigil/pkg/models"
)

// WebhookChannel POSTs alerts as JSON to an HTTP endpoint. Delivery is
// wrapped in a circuit breaker so a dead endpoint stops consuming the
// alert path's time budget.
type WebhookChannel struct {
	name     string
	endpoint string
	client   *http.Client
	breaker  *resilience.CircuitBreaker
}

type WebhookConfig struct {
	Name        string
	Endpoint    string
	Timeout     time.Duration
	MaxFailures int
	OpenTimeout time.Duration
}

func NewWebhookChannel(cfg WebhookConfig) *WebhookChannel {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 5 * time.Second
	}

	return &WebhookChannel{
		name:     cfg.Name,
		endpoint: cfg.Endpoint,
		client:   &http.Client{Timeout: timeout},
		breaker: resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
			Name:        "webhook-" + cfg.Name,
			MaxFailures: cfg.MaxFailures,
			Timeout:     cfg.OpenTimeout,
		}),
	}
}

func (c *WebhookChannel) Name() string {
	return c.name
}

func (c *WebhookChannel) Send(ctx context.Context, alert *models.Alert) error {
	return c.breaker.Execute(func() error {
		body, err := json.Marshal(alert)
		if err != nil {
			return fmt.Errorf("failed to encode alert: %w", err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("failed to create webhook request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.client.Do(req)
		if err != nil {
			return fmt.Errorf("webhook delivery failed: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return fmt.Errorf("webhook returned status %d", resp.StatusCode)
		}
		return nil
	})
}

func (c *WebhookChannel) CircuitState() resilience.State {
	return c.breaker.State()
}
