package healing

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/vigilops/vigil/internal/logger"
	"github.com/vigilops/vigil/internal/resilience"
	"github.com/vigilops/vigil/pkg/models"
)

// LogExecutor handles "log" actions. It only records the intent, which
// makes it the safe default for rules under evaluation.
type LogExecutor struct{}

func (LogExecutor) Execute(_ context.Context, issue *models.Issue, action models.RemediationAction) (string, error) {
	logger.WithResource(issue.ResourceID).WithFields(map[string]interface{}{
		"action":     action.Name,
		"issue_type": issue.Type,
		"params":     action.Params,
	}).Warn("Remediation action logged")
	return "logged", nil
}

// HTTPExecutor handles "http" actions by POSTing the issue and action
// parameters to the endpoint named in the action params. Calls go
// through a circuit breaker so a dead remediation endpoint fails fast.
type HTTPExecutor struct {
	client  *http.Client
	breaker *resilience.CircuitBreaker
}

func NewHTTPExecutor(timeout time.Duration, maxFailures int, openTimeout time.Duration) *HTTPExecutor {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPExecutor{
		client: &http.Client{Timeout: timeout},
		breaker: resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
			Name:        "healing-http",
			MaxFailures: maxFailures,
			Timeout:     openTimeout,
		}),
	}
}

type httpActionPayload struct {
	Issue  *models.Issue     `json:"issue"`
	Action string            `json:"action"`
	Params map[string]string `json:"params,omitempty"`
}

func (e *HTTPExecutor) Execute(ctx context.Context, issue *models.Issue, action models.RemediationAction) (string, error) {
	endpoint := action.Params["endpoint"]
	if endpoint == "" {
		return "", fmt.Errorf("action %s: endpoint param required", action.Name)
	}

	body, err := json.Marshal(httpActionPayload{Issue: issue, Action: action.Name, Params: action.Params})
	if err != nil {
		return "", fmt.Errorf("marshal action payload: %w", err)
	}

	var output string
	err = e.breaker.Execute(func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := e.client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 300 {
			return fmt.Errorf("endpoint returned status %d", resp.StatusCode)
		}
		data, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
		if err != nil {
			return err
		}
		output = string(data)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("action %s: %w", action.Name, err)
	}
	return output, nil
}

// CircuitState reports the executor's breaker state.
func (e *HTTPExecutor) CircuitState() resilience.State {
	return e.breaker.State()
}
