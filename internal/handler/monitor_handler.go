package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"eventflow/internal/hub"
)

// MonitorHandler reports hub health: connections, rooms, memberships.
type MonitorHandler interface {
	GetMonitor(c *gin.Context)
}

type monitorHandler struct {
	hub *hub.Hub
}

func NewMonitorHandler(h *hub.Hub) MonitorHandler {
	return &monitorHandler{hub: h}
}

func (h *monitorHandler) GetMonitor(c *gin.Context) {
	c.JSON(http.StatusOK, h.hub.Snapshot())
}
