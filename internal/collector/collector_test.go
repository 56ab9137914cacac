package collector

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vigilops/vigil/internal/resilience"
)

func TestMockCollector_Collect(t *testing.T) {
	mock := NewMockCollector(MockCollectorConfig{
		Bases:    map[string]float64{"cpu_usage": 50},
		Variance: 5,
	})
	mock.SetResourceMetrics("web-1", nil)

	metrics, err := mock.Collect(context.Background(), "web-1")
	require.NoError(t, err)
	assert.Equal(t, "web-1", metrics.ResourceID)
	require.Len(t, metrics.Metrics, 1)
	assert.Equal(t, "cpu_usage", metrics.Metrics[0].Name)
	assert.InDelta(t, 50, metrics.Metrics[0].Value, 5.01)
}

func TestMockCollector_UnknownResource(t *testing.T) {
	mock := NewMockCollector(MockCollectorConfig{})

	_, err := mock.Collect(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrResourceNotFound)
}

func TestMockCollector_InjectedFailure(t *testing.T) {
	mock := NewMockCollector(MockCollectorConfig{})
	mock.SetResourceMetrics("web-1", nil)
	mock.SetShouldFail(true, ErrTimeout)

	_, err := mock.Collect(context.Background(), "web-1")
	assert.ErrorIs(t, err, ErrTimeout)
	assert.Error(t, mock.HealthCheck(context.Background()))

	mock.SetShouldFail(false, nil)
	_, err = mock.Collect(context.Background(), "web-1")
	assert.NoError(t, err)
}

func TestHTTPCollector_Collect(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/web-1":
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{
				"resource_id": "web-1",
				"timestamp": "2026-08-01T12:00:00Z",
				"metrics": [
					{"name": "cpu_usage", "value": 72.5, "type": "gauge", "unit": "percent"},
					{"name": "error_rate", "value": 0.4, "labels": {"source": "app"}}
				]
			}`))
		case "/health":
			w.WriteHeader(http.StatusOK)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	c := NewHTTPCollector(HTTPCollectorConfig{Endpoint: server.URL})

	metrics, err := c.Collect(context.Background(), "web-1")
	require.NoError(t, err)
	assert.Equal(t, "web-1", metrics.ResourceID)
	require.Len(t, metrics.Metrics, 2)
	assert.Equal(t, 72.5, metrics.Metrics[0].Value)
	assert.Equal(t, "app", metrics.Metrics[1].Labels["source"])
	assert.Equal(t, 2026, metrics.Timestamp.Year())

	assert.NoError(t, c.HealthCheck(context.Background()))

	_, err = c.Collect(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrResourceNotFound)
}

func TestHTTPCollector_InvalidResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	}))
	defer server.Close()

	c := NewHTTPCollector(HTTPCollectorConfig{Endpoint: server.URL})
	_, err := c.Collect(context.Background(), "web-1")
	assert.ErrorIs(t, err, ErrInvalidResponse)
}

func TestResilientCollector_RetriesThenSucceeds(t *testing.T) {
	mock := NewMockCollector(MockCollectorConfig{})
	mock.SetResourceMetrics("web-1", nil)
	mock.SetShouldFail(true, ErrCollectionFailed)

	rc := NewResilientCollector(ResilientCollectorConfig{
		Collector:     mock,
		MaxFailures:   5,
		RetryAttempts: 2,
		RetryDelay:    time.Millisecond,
	})

	_, err := rc.Collect(context.Background(), "web-1")
	assert.ErrorIs(t, err, ErrCollectionFailed)
	assert.Equal(t, resilience.StateClosed, rc.CircuitState())

	mock.SetShouldFail(false, nil)
	_, err = rc.Collect(context.Background(), "web-1")
	assert.NoError(t, err)
}

func TestResilientCollector_OpensCircuit(t *testing.T) {
	mock := NewMockCollector(MockCollectorConfig{})
	mock.SetResourceMetrics("web-1", nil)
	mock.SetShouldFail(true, ErrCollectionFailed)

	rc := NewResilientCollector(ResilientCollectorConfig{
		Collector:     mock,
		MaxFailures:   2,
		Timeout:       time.Hour,
		RetryAttempts: 1,
		RetryDelay:    time.Millisecond,
	})

	for i := 0; i < 2; i++ {
		_, err := rc.Collect(context.Background(), "web-1")
		require.Error(t, err)
	}
	assert.Equal(t, resilience.StateOpen, rc.CircuitState())

	// Open circuit rejects without touching the underlying collector.
	mock.SetShouldFail(false, nil)
	_, err := rc.Collect(context.Background(), "web-1")
	assert.ErrorIs(t, err, resilience.ErrCircuitOpen)

	rc.ResetCircuit()
	_, err = rc.Collect(context.Background(), "web-1")
	assert.NoError(t, err)
}
