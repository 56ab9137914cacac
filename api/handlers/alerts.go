package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/vigilops/vigil/internal/alerting"
	"github.com/vigilops/vigil/pkg/models"
)

type AlertHandler struct {
	engine *alerting.Engine
}

func NewAlertHandler(engine *alerting.Engine) *AlertHandler {
	return &AlertHandler{engine: engine}
}

// List returns alerts, optionally filtered by ?status=active|acknowledged|resolved.
func (h *AlertHandler) List(c *gin.Context) {
	status := models.AlertStatus(c.Query("status"))
	switch status {
	case "", models.AlertStatusActive, models.AlertStatusAcknowledged, models.AlertStatusResolved:
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown status filter"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"alerts": h.engine.Alerts(status)})
}

func (h *AlertHandler) Get(c *gin.Context) {
	alert, err := h.engine.Get(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, alert)
}

func (h *AlertHandler) Acknowledge(c *gin.Context) {
	alert, err := h.engine.Acknowledge(c.Param("id"))
	if err != nil {
		c.JSON(transitionStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, alert)
}

func (h *AlertHandler) Resolve(c *gin.Context) {
	alert, err := h.engine.Resolve(c.Param("id"))
	if err != nil {
		c.JSON(transitionStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, alert)
}

func transitionStatus(err error) int {
	switch {
	case errors.Is(err, alerting.ErrAlertNotFound):
		return http.StatusNotFound
	case errors.Is(err, alerting.ErrInvalidTransition):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func (h *AlertHandler) ListRules(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"rules": h.engine.Rules()})
}

func (h *AlertHandler) CreateRule(c *gin.Context) {
	var rule models.AlertRule
	if err := c.ShouldBindJSON(&rule); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid rule: " + err.Error()})
		return
	}

	if err := h.engine.RegisterRule(&rule); err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, alerting.ErrDuplicateRule) {
			status = http.StatusConflict
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": rule.ID})
}
