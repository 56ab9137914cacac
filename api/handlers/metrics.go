package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/vigilops/vigil/internal/exposition"
	"github.com/vigilops/vigil/internal/store"
	"github.com/vigilops/vigil/internal/telemetry"
	"github.com/vigilops/vigil/pkg/config"
)

type MetricsHandler struct {
	store  *store.Store
	config *config.Config
}

func NewMetricsHandler(s *store.Store, cfg *config.Config) *MetricsHandler {
	return &MetricsHandler{store: s, config: cfg}
}

// Exposition serves every stored series in the text exposition format.
func (h *MetricsHandler) Exposition(c *gin.Context) {
	families := h.store.Snapshot()
	body := exposition.Render(families)

	c.Header("Content-Type", exposition.ContentType)
	c.String(http.StatusOK, body)
}

// Stats serves the engine's operational counters alongside the
// redacted runtime configuration.
func (h *MetricsHandler) Stats(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"counters": telemetry.Get().Snapshot(),
		"config":   h.config.Redacted(),
	})
}
