package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/vigilops/vigil/internal/orchestrator"
	"github.com/vigilops/vigil/pkg/database"
)

type HealthHandler struct {
	db     *database.DB
	engine *orchestrator.Orchestrator
}

func NewHealthHandler(db *database.DB, engine *orchestrator.Orchestrator) *HealthHandler {
	return &HealthHandler{db: db, engine: engine}
}

type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp string            `json:"timestamp"`
	Services  map[string]string `json:"services,omitempty"`
}

// Health reports the engine and its dependencies. The audit database
// and the forecaster are non-critical: their failure degrades the
// response but keeps the collection and alerting path serving.
func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	services := make(map[string]string)
	status := "healthy"

	if h.engine != nil {
		services["collection"] = "healthy"
		if h.engine.ForecastEnabled() {
			services["forecaster"] = "healthy"
		} else {
			services["forecaster"] = "disabled"
		}
	}

	if h.db != nil {
		if err := h.db.HealthCheck(ctx); err != nil {
			services["database"] = "unavailable: " + err.Error()
			status = "degraded"
		} else {
			services["database"] = "healthy"
		}
	}

	c.JSON(http.StatusOK, HealthResponse{
		Status:    status,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Services:  services,
	})
}

func (h *HealthHandler) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	if h.db != nil {
		if err := h.db.HealthCheck(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, HealthResponse{
				Status:    "not ready",
				Timestamp: time.Now().UTC().Format(time.RFC3339),
			})
			return
		}
	}

	c.JSON(http.StatusOK, HealthResponse{
		Status:    "ready",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

func (h *HealthHandler) Live(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:    "alive",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}
