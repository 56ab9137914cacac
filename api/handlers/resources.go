package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/vigilops/vigil/internal/collector"
	"github.com/vigilops/vigil/internal/forecast"
	"github.com/vigilops/vigil/internal/healing"
	"github.com/vigilops/vigil/internal/store"
	"github.com/vigilops/vigil/pkg/models"
	"github.com/vigilops/vigil/pkg/validation"
)

// MonitorManager is the engine surface the HTTP layer drives.
type MonitorManager interface {
	StartResource(resourceID string, coll collector.Collector) error
	StopResource(resourceID string) error
	ResourceStatus(resourceID string) (bool, error)
	ListRunningResources() []string
	Ingest(ctx context.Context, resourceID string, metrics []models.MetricData) ([]*models.ClassifiedObservation, error)
	SubscribeAllEvents() <-chan *models.Event
}

type ResourceHandler struct {
	manager    MonitorManager
	store      *store.Store
	forecaster *forecast.Forecaster
	healer     *healing.Orchestrator

	collectorEndpoint string
	collectorTimeout  time.Duration
}

type ResourceHandlerConfig struct {
	CollectorEndpoint string
	CollectorTimeout  time.Duration
}

func NewResourceHandler(manager MonitorManager, s *store.Store, f *forecast.Forecaster, h *healing.Orchestrator, cfg ResourceHandlerConfig) *ResourceHandler {
	return &ResourceHandler{
		manager:           manager,
		store:             s,
		forecaster:        f,
		healer:            h,
		collectorEndpoint: cfg.CollectorEndpoint,
		collectorTimeout:  cfg.CollectorTimeout,
	}
}

func (h *ResourceHandler) List(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"resources": h.store.Resources(),
		"monitored": h.manager.ListRunningResources(),
	})
}

type startMonitoringRequest struct {
	ResourceID string `json:"resource_id" binding:"required"`
	Collector  struct {
		Type     string `json:"type"`
		Endpoint string `json:"endpoint"`
	} `json:"collector"`
}

// StartMonitoring launches a collection pipeline for a resource.
func (h *ResourceHandler) StartMonitoring(c *gin.Context) {
	var req startMonitoringRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}
	if err := validation.ValidateResourceID(req.ResourceID); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var coll collector.Collector
	switch req.Collector.Type {
	case "", "http":
		endpoint := req.Collector.Endpoint
		if endpoint == "" {
			endpoint = h.collectorEndpoint
		}
		coll = collector.NewHTTPCollector(collector.HTTPCollectorConfig{
			Endpoint: endpoint,
			Timeout:  h.collectorTimeout,
		})
	case "mock":
		mock := collector.NewMockCollector(collector.MockCollectorConfig{})
		mock.SetResourceMetrics(req.ResourceID, nil)
		coll = mock
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown collector type"})
		return
	}

	if err := h.manager.StartResource(req.ResourceID, coll); err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"resource_id": req.ResourceID, "monitoring": true})
}

func (h *ResourceHandler) StopMonitoring(c *gin.Context) {
	if err := h.manager.StopResource(c.Param("id")); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *ResourceHandler) Status(c *gin.Context) {
	running, err := h.manager.ResourceStatus(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"resource_id": c.Param("id"), "monitoring": running})
}

type observeRequest struct {
	Metrics []models.MetricData `json:"metrics" binding:"required,min=1"`
}

// Observe accepts pushed metric readings for agentless resources.
func (h *ResourceHandler) Observe(c *gin.Context) {
	var req observeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}

	observations, err := h.manager.Ingest(c.Request.Context(), c.Param("id"), req.Metrics)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, store.ErrValidation) {
			status = http.StatusBadRequest
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"observations": observations})
}

// History returns recent samples for one resource metric.
func (h *ResourceHandler) History(c *gin.Context) {
	metricName := c.Query("metric")
	if metricName == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "metric query parameter required"})
		return
	}

	limit := 100
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = parsed
	}

	samples := h.store.HistoryLimit(c.Param("id"), metricName, limit)
	c.JSON(http.StatusOK, gin.H{"samples": samples})
}

// Baseline returns the adaptive baseline of one resource metric.
func (h *ResourceHandler) Baseline(c *gin.Context) {
	metricName := c.Query("metric")
	if metricName == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "metric query parameter required"})
		return
	}

	stats, ok := h.store.BaselineFor(c.Param("id"), metricName)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "no baseline recorded"})
		return
	}
	c.JSON(http.StatusOK, stats)
}

// Predictions returns the latest forecast for one resource metric, or
// all active predictions when no metric is given.
func (h *ResourceHandler) Predictions(c *gin.Context) {
	if metricName := c.Query("metric"); metricName != "" {
		pred := h.forecaster.Latest(c.Param("id"), metricName)
		if pred == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "no prediction available"})
			return
		}
		c.JSON(http.StatusOK, pred)
		return
	}

	resourceID := c.Param("id")
	var out []*models.Prediction
	for _, pred := range h.forecaster.Active(time.Now()) {
		if pred.ResourceID == resourceID {
			out = append(out, pred)
		}
	}
	c.JSON(http.StatusOK, gin.H{"predictions": out})
}

// HealingRecords returns the remediation audit trail for a resource.
func (h *ResourceHandler) HealingRecords(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"records": h.healer.RecordsFor(c.Param("id"))})
}

type reportIssueRequest struct {
	Type       string             `json:"type" binding:"required"`
	Severity   models.Severity    `json:"severity"`
	Indicators map[string]float64 `json:"indicators"`
	Details    string             `json:"details"`
}

// ReportIssue hands a directly reported issue to the healing engine.
func (h *ResourceHandler) ReportIssue(c *gin.Context) {
	var req reportIssueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}

	issue := &models.Issue{
		ID:         models.NewUUID(),
		Type:       req.Type,
		ResourceID: c.Param("id"),
		Severity:   req.Severity,
		Indicators: req.Indicators,
		Details:    req.Details,
		DetectedAt: time.Now(),
	}

	record, err := h.healer.Heal(c.Request.Context(), issue)
	if err != nil {
		if errors.Is(err, healing.ErrNoApplicableRemediation) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, record)
}
