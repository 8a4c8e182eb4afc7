package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"eventflow/internal/auth"
	"eventflow/internal/hub"
	"eventflow/internal/model"
	"eventflow/internal/repo"
	"eventflow/internal/service"
)

// ChatHandler is the REST surface over the conversation core. Real-time
// side effects (invites, DM creation) go through the hub's room fan-out.
type ChatHandler interface {
	ListConversations(c *gin.Context)
	EnsureDM(c *gin.Context)
	CreateGroup(c *gin.Context)
	EnsureEventGroup(c *gin.Context)
	AcceptInvite(c *gin.Context)
	DeclineInvite(c *gin.Context)
	ListInvites(c *gin.Context)
	GetRoomMessages(c *gin.Context)
}

type chatHandler struct {
	conversations service.ConversationService
	messages      repo.MessageRepository
	directory     auth.UserDirectory
	hub           *hub.Hub
	logger        *zap.Logger
}

func NewChatHandler(
	conversations service.ConversationService,
	messages repo.MessageRepository,
	directory auth.UserDirectory,
	h *hub.Hub,
	logger *zap.Logger,
) ChatHandler {
	return &chatHandler{
		conversations: conversations,
		messages:      messages,
		directory:     directory,
		hub:           h,
		logger:        logger,
	}
}

// ListConversations returns the caller's conversations as previews: DM
// names resolved to the other participant, plus a last-message snippet.
func (h *chatHandler) ListConversations(c *gin.Context) {
	me := callerID(c)
	ctx := c.Request.Context()

	conversations, err := h.conversations.ListForUser(ctx, me)
	if err != nil {
		h.logger.Error("failed to list conversations", zap.String("user_id", me), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not list conversations"})
		return
	}

	previews := make([]model.ConversationPreview, 0, len(conversations))
	for _, conversation := range conversations {
		preview := model.ConversationPreview{
			ID:      conversation.ID,
			Name:    conversation.Title,
			IsGroup: conversation.Type == model.ConversationTypeGroup,
			EventID: conversation.EventID,
		}
		if conversation.Type == model.ConversationTypeDM {
			for _, id := range conversation.Participants {
				if id == me {
					continue
				}
				if name, err := h.directory.DisplayName(ctx, id); err == nil {
					preview.Name = name
				}
			}
		}
		// newest message, if any, as the list snippet; a store hiccup
		// degrades to an empty preview
		if last, err := h.messages.Page(ctx, conversation.ID, 1, 1); err == nil && len(last) > 0 {
			preview.LastMessage = last[0].Text
			preview.Time = last[0].Time
		}
		previews = append(previews, preview)
	}

	c.JSON(http.StatusOK, gin.H{"conversations": previews})
}

type ensureDMRequest struct {
	UserID string `json:"userId" binding:"required"`
}

func (h *chatHandler) EnsureDM(c *gin.Context) {
	var req ensureDMRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "userId is required"})
		return
	}

	me := callerID(c)
	conversation, created, err := h.conversations.EnsureDirect(c.Request.Context(), me, req.UserID)
	if err != nil {
		if errors.Is(err, service.ErrSameUser) || errors.Is(err, service.ErrInvalidUserID) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		h.logger.Error("failed to ensure dm", zap.String("user_id", me), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create conversation"})
		return
	}

	if created {
		h.hub.NotifyConversationNew(req.UserID, *conversation)
	}
	c.JSON(http.StatusOK, gin.H{"conversation": conversation, "created": created})
}

type createGroupRequest struct {
	Title     string   `json:"title" binding:"required"`
	MemberIDs []string `json:"memberIds" binding:"required"`
}

func (h *chatHandler) CreateGroup(c *gin.Context) {
	var req createGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "title and memberIds are required"})
		return
	}

	me := callerID(c)
	conversation, err := h.conversations.CreateGroup(c.Request.Context(), me, req.MemberIDs, req.Title)
	if err != nil {
		h.logger.Error("failed to create group", zap.String("user_id", me), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create group"})
		return
	}

	h.hub.NotifyConversationInvite(*conversation)
	c.JSON(http.StatusCreated, gin.H{"conversation": conversation})
}

type ensureEventGroupRequest struct {
	EventID   string   `json:"eventId" binding:"required"`
	Title     string   `json:"title"`
	MemberIDs []string `json:"memberIds"`
}

// EnsureEventGroup finds or creates the chat room scoped to an event. The
// event CRUD rules live outside this core; it only provides the room.
func (h *chatHandler) EnsureEventGroup(c *gin.Context) {
	var req ensureEventGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "eventId is required"})
		return
	}

	me := callerID(c)
	conversation, created, err := h.conversations.EnsureEventGroup(c.Request.Context(), req.EventID, req.Title, me, req.MemberIDs)
	if err != nil {
		h.logger.Error("failed to ensure event group", zap.String("event_id", req.EventID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create event conversation"})
		return
	}

	if created {
		h.hub.NotifyConversationInvite(*conversation)
	}
	c.JSON(http.StatusOK, gin.H{"conversation": conversation, "created": created})
}

func (h *chatHandler) AcceptInvite(c *gin.Context) {
	h.transition(c, true)
}

func (h *chatHandler) DeclineInvite(c *gin.Context) {
	h.transition(c, false)
}

func (h *chatHandler) transition(c *gin.Context, accept bool) {
	conversationID := c.Param("conversationId")
	me := callerID(c)

	var (
		conversation *model.Conversation
		changed      bool
		err          error
	)
	if accept {
		conversation, changed, err = h.conversations.Accept(c.Request.Context(), conversationID, me)
	} else {
		conversation, changed, err = h.conversations.Decline(c.Request.Context(), conversationID, me)
	}
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "conversation not found"})
			return
		}
		h.logger.Error("failed membership transition",
			zap.String("conversation_id", conversationID),
			zap.String("user_id", me),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not update invite"})
		return
	}

	if accept && changed {
		// nudge the accepter's own live connections so they can join the
		// room without a reconnect
		h.hub.NotifyConversationNew(me, *conversation)
	}
	c.JSON(http.StatusOK, gin.H{"conversation": conversation, "changed": changed})
}

func (h *chatHandler) ListInvites(c *gin.Context) {
	me := callerID(c)
	invites, err := h.conversations.ListInvitesFor(c.Request.Context(), me)
	if err != nil {
		h.logger.Error("failed to list invites", zap.String("user_id", me), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not list invites"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"invites": invites})
}

// GetRoomMessages pages a conversation's history over REST, the same
// deterministic slices the socket historyPage event serves.
func (h *chatHandler) GetRoomMessages(c *gin.Context) {
	conversationID := c.Param("conversationId")
	me := callerID(c)

	page, err := strconv.ParseInt(c.DefaultQuery("page", "1"), 10, 64)
	if err != nil || page < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid page number"})
		return
	}
	limit, err := strconv.ParseInt(c.DefaultQuery("limit", strconv.Itoa(repo.DefaultHistoryPageSize)), 10, 64)
	if err != nil || limit < 1 || limit > 100 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
		return
	}

	conversation, err := h.conversations.Get(c.Request.Context(), conversationID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "conversation not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load conversation"})
		return
	}
	if !conversation.HasParticipant(me) {
		c.JSON(http.StatusForbidden, gin.H{"error": "not a participant"})
		return
	}

	messages, err := h.messages.Page(c.Request.Context(), conversationID, page, limit)
	if err != nil {
		h.logger.Error("failed to page messages",
			zap.String("conversation_id", conversationID),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load messages"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": messages, "page": page})
}
