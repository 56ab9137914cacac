package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/vigilops/vigil/internal/dashboard"
	"github.com/vigilops/vigil/pkg/models"
)

type DashboardHandler struct {
	registry *dashboard.Registry
}

func NewDashboardHandler(registry *dashboard.Registry) *DashboardHandler {
	return &DashboardHandler{registry: registry}
}

func (h *DashboardHandler) List(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"dashboards": h.registry.List()})
}

func (h *DashboardHandler) Get(c *gin.Context) {
	d, err := h.registry.Get(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, d)
}

// Export serves a versioned dashboard document as a JSON attachment.
func (h *DashboardHandler) Export(c *gin.Context) {
	export, err := h.registry.Export(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	filename := fmt.Sprintf("dashboard-%s.json", export.Dashboard.ID)
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.JSON(http.StatusOK, export)
}

func (h *DashboardHandler) Import(c *gin.Context) {
	var export models.DashboardExport
	if err := c.ShouldBindJSON(&export); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid export document: " + err.Error()})
		return
	}

	if err := h.registry.Import(&export); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": export.Dashboard.ID})
}

func (h *DashboardHandler) Create(c *gin.Context) {
	var d models.Dashboard
	if err := c.ShouldBindJSON(&d); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid dashboard: " + err.Error()})
		return
	}

	if err := h.registry.Create(&d); err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, dashboard.ErrDuplicate) {
			status = http.StatusConflict
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": d.ID})
}

func (h *DashboardHandler) Delete(c *gin.Context) {
	if err := h.registry.Delete(c.Param("id")); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}
