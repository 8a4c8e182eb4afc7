package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"eventflow/internal/model"
	"eventflow/internal/presence"
)

// PresenceHandler exposes the tracker over REST for UI presence badges.
type PresenceHandler interface {
	GetPresence(c *gin.Context)
	ListOnline(c *gin.Context)
}

type presenceHandler struct {
	tracker *presence.Tracker
}

func NewPresenceHandler(tracker *presence.Tracker) PresenceHandler {
	return &presenceHandler{tracker: tracker}
}

func (h *presenceHandler) GetPresence(c *gin.Context) {
	userID := c.Param("userId")

	status := model.PresenceStatus{
		UserID: userID,
		Online: h.tracker.IsOnline(userID),
	}
	if ts, ok := h.tracker.LastSeen(userID); ok {
		status.LastSeen = &ts
	}
	c.JSON(http.StatusOK, status)
}

func (h *presenceHandler) ListOnline(c *gin.Context) {
	users := h.tracker.ListOnline()
	c.JSON(http.StatusOK, model.OnlineUsers{
		Count: len(users),
		Users: users,
	})
}
