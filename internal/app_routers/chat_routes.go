package approuters

import (
	"github.com/gin-gonic/gin"

	"eventflow/internal/configuration"
	"eventflow/internal/handler"
)

func ChatRouters(router *gin.Engine, container *configuration.Container) {
	chatRoute := router.Group("/api/chat", handler.RequireAuth(container.Verifier))
	{
		chatRoute.GET("/conversations", container.ChatHandler.ListConversations)
		chatRoute.POST("/conversations/dm", container.ChatHandler.EnsureDM)
		chatRoute.POST("/conversations/group", container.ChatHandler.CreateGroup)
		chatRoute.POST("/conversations/event", container.ChatHandler.EnsureEventGroup)
		chatRoute.GET("/conversations/:conversationId/messages", container.ChatHandler.GetRoomMessages)
		chatRoute.POST("/conversations/:conversationId/accept", container.ChatHandler.AcceptInvite)
		chatRoute.POST("/conversations/:conversationId/decline", container.ChatHandler.DeclineInvite)
		chatRoute.GET("/invites", container.ChatHandler.ListInvites)
		chatRoute.GET("/presence/online", container.PresenceHandler.ListOnline)
		chatRoute.GET("/presence/:userId", container.PresenceHandler.GetPresence)
	}

	router.GET("/api/monitor", container.MonitorHandler.GetMonitor)
}
