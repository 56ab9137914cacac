package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vigilops/vigil/internal/exposition"
	"github.com/vigilops/vigil/internal/store"
	"github.com/vigilops/vigil/pkg/config"
	"github.com/vigilops/vigil/pkg/models"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestHealthHandler_NoDatabase(t *testing.T) {
	h := NewHealthHandler(nil, nil)

	router := gin.New()
	router.GET("/health", h.Health)
	router.GET("/health/ready", h.Ready)
	router.GET("/health/live", h.Live)

	tests := []struct {
		path   string
		status string
	}{
		{"/health", "healthy"},
		{"/health/ready", "ready"},
		{"/health/live", "alive"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			router.ServeHTTP(w, req)

			require.Equal(t, http.StatusOK, w.Code)

			var resp HealthResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, tt.status, resp.Status)
			assert.NotEmpty(t, resp.Timestamp)
		})
	}
}

func TestMetricsHandler_Exposition(t *testing.T) {
	s := store.New(store.Config{})
	_, err := s.Observe("web-1", models.MetricData{
		Name:  "cpu_usage",
		Value: 42.5,
		Type:  models.MetricTypeGauge,
		Help:  "CPU utilization",
	})
	require.NoError(t, err)

	h := NewMetricsHandler(s, &config.Config{})
	router := gin.New()
	router.GET("/metrics", h.Exposition)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, exposition.ContentType, w.Header().Get("Content-Type"))

	body := w.Body.String()
	assert.Contains(t, body, "# HELP cpu_usage CPU utilization")
	assert.Contains(t, body, "# TYPE cpu_usage gauge")
	assert.Contains(t, body, `cpu_usage{resource="web-1"} 42.5`)
}

func TestMetricsHandler_StatsRedactsSecrets(t *testing.T) {
	cfg := &config.Config{}
	cfg.API.JWTSecret = "top-secret"
	cfg.Database.Password = "hunter2"
	cfg.Alerting.AutoRemediation = true

	h := NewMetricsHandler(store.New(store.Config{}), cfg)
	router := gin.New()
	router.GET("/monitoring/stats", h.Stats)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/monitoring/stats", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Contains(t, resp, "counters")
	assert.Contains(t, resp, "config")
	assert.NotContains(t, w.Body.String(), "top-secret")
	assert.NotContains(t, w.Body.String(), "hunter2")

	alerting, ok := resp["config"].(map[string]any)["alerting"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, true, alerting["auto_remediation"])
}
