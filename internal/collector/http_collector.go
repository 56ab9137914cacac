package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/vigilops/vigil/internal/logger"
	"github.com/vigilops/vigil/pkg/models"
)

type HTTPCollector struct {
	client   *http.Client
	endpoint string
	timeout  time.Duration
}

type HTTPCollectorConfig struct {
	Endpoint string
	Timeout  time.Duration
}

func NewHTTPCollector(cfg HTTPCollectorConfig) *HTTPCollector {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 5 * time.Second
	}

	return &HTTPCollector{
		client: &http.Client{
			Timeout: timeout,
		},
		endpoint: cfg.Endpoint,
		timeout:  timeout,
	}
}

// agentResponse matches the payload served by resource agents and the
// simulator service.
type agentResponse struct {
	ResourceID string                `json:"resource_id"`
	Timestamp  string                `json:"timestamp"`
	Metrics    []agentMetricResponse `json:"metrics"`
}

type agentMetricResponse struct {
	Name   string            `json:"name"`
	Value  float64           `json:"value"`
	Type   string            `json:"type,omitempty"`
	Unit   string            `json:"unit,omitempty"`
	Help   string            `json:"help,omitempty"`
	Labels map[string]string `json:"labels,omitempty"`
}

func (c *HTTPCollector) Collect(ctx context.Context, resourceID string) (*models.ResourceMetrics, error) {
	url := fmt.Sprintf("%s/%s", c.endpoint, resourceID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create request: %v", ErrCollectionFailed, err)
	}

	req.Header.Set("Accept", "application/json")

	logger.WithResource(resourceID).Debugf("Collecting metrics from %s", url)

	resp, err := c.client.Do(req)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, ErrTimeout
		}
		return nil, fmt.Errorf("%w: %v", ErrCollectionFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrResourceNotFound
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: unexpected status code %d", ErrCollectionFailed, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response body: %v", ErrCollectionFailed, err)
	}

	var agentResp agentResponse
	if err := json.Unmarshal(body, &agentResp); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}

	metrics := c.convertResponse(resourceID, &agentResp)

	logger.WithResource(resourceID).Debugf("Collected %d metrics", len(metrics.Metrics))

	return metrics, nil
}

func (c *HTTPCollector) convertResponse(resourceID string, resp *agentResponse) *models.ResourceMetrics {
	metrics := make([]models.MetricData, len(resp.Metrics))
	for i, m := range resp.Metrics {
		metrics[i] = models.MetricData{
			Name:   m.Name,
			Value:  m.Value,
			Type:   models.MetricType(m.Type),
			Unit:   m.Unit,
			Help:   m.Help,
			Labels: m.Labels,
		}
	}

	timestamp := time.Now()
	if resp.Timestamp != "" {
		if parsed, err := time.Parse(time.RFC3339, resp.Timestamp); err == nil {
			timestamp = parsed
		}
	}
	for i := range metrics {
		metrics[i].Timestamp = timestamp
	}

	return &models.ResourceMetrics{
		ResourceID: resourceID,
		Timestamp:  timestamp,
		Metrics:    metrics,
	}
}

func (c *HTTPCollector) HealthCheck(ctx context.Context) error {
	url := fmt.Sprintf("%s/health", c.endpoint)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create health check request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}

func (c *HTTPCollector) Close() error {
	c.client.CloseIdleConnections()
	return nil
}
