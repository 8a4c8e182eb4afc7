package hub

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"eventflow/internal/event"
	"eventflow/internal/metrics"
	"eventflow/internal/model"
	"eventflow/internal/repo"
)

const storeTimeout = 5 * time.Second

// handleEvent is the per-session dispatch. Each handler validates locally,
// signals failures to the requester only, and never tears the session down.
func (h *Hub) handleEvent(ev event.WsEvent, c *Client) {
	switch ev.Event {
	case event.EventJoin:
		h.handleJoin(ev, c)
	case event.EventTyping:
		h.handleTyping(ev, c)
	case event.EventMessage:
		h.handleMessage(ev, c)
	case event.EventMarkRead:
		h.handleMarkRead(ev, c)
	case event.EventHistoryPage:
		h.handleHistoryPage(ev, c)
	case event.EventEnsureDM:
		h.handleEnsureDM(ev, c)
	default:
		h.sendError(c, "unknown_event", "unknown event type: "+ev.Event)
	}
}

// handleJoin subscribes the connection to a conversation room and replies
// with the most recent page of history, chronological for display.
func (h *Hub) handleJoin(ev event.WsEvent, c *Client) {
	var p event.JoinPayload
	if !h.decode(ev, &p, c) {
		return
	}

	ctx, cancel := context.WithTimeout(h.ctx, storeTimeout)
	defer cancel()

	conversation, err := h.conversations.Get(ctx, p.ConversationID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			h.sendError(c, "not_found", "unknown conversation")
			return
		}
		h.sendError(c, "internal", "could not join conversation")
		return
	}
	if !conversation.HasParticipant(c.userID) {
		h.sendError(c, "forbidden", "not a participant of this conversation")
		return
	}

	h.joinRoom(conversation.ID, c)

	messages, err := h.messages.Page(ctx, conversation.ID, 1, h.historyPageSize)
	if err != nil {
		// degrade to an empty history rather than failing the join
		h.logger.Warn("history fetch failed on join",
			zap.String("conversation_id", conversation.ID),
			zap.Error(err),
		)
		messages = nil
	}

	reply, err := event.Outbound(event.EventHistory, event.HistoryEvent{
		ConversationID: conversation.ID,
		Messages:       messages,
	})
	if err != nil {
		return
	}
	c.Send(reply)
}

// handleTyping relays a best-effort typing signal to every other room
// member. Nothing is persisted and drops are fine.
func (h *Hub) handleTyping(ev event.WsEvent, c *Client) {
	var p event.TypingPayload
	if !h.decode(ev, &p, c) {
		return
	}
	if !c.inRoom(p.ConversationID) {
		return
	}

	out, err := event.Outbound(event.EventTyping, event.TypingEvent{
		ConversationID: p.ConversationID,
		From:           c.userID,
	})
	if err != nil {
		return
	}

	for _, member := range h.roomClients(p.ConversationID) {
		if member == c {
			continue
		}
		member.SafeSend(out, sendTimeout)
	}
}

// handleMessage validates, broadcasts to the whole room (the sender's echo
// included), then persists in a detached task. Storage latency and storage
// failures never delay or block delivery.
func (h *Hub) handleMessage(ev event.WsEvent, c *Client) {
	var p event.MessagePayload
	if err := json.Unmarshal(ev.Payload, &p); err != nil {
		metrics.MessagesTotal.WithLabelValues("rejected").Inc()
		h.sendError(c, "validation", "malformed message payload")
		return
	}
	if err := event.ValidatePayload(p); err != nil {
		metrics.MessagesTotal.WithLabelValues("rejected").Inc()
		h.sendError(c, "validation", "conversationId and text are required")
		return
	}
	if !c.inRoom(p.ConversationID) {
		h.sendError(c, "not_joined", "join the conversation before sending")
		return
	}

	now := h.now()
	message := model.ChatMessage{
		ID:             uuid.NewString(),
		ConversationID: p.ConversationID,
		SenderID:       c.userID,
		SenderName:     c.name,
		Text:           p.Text,
		Time:           now.Format("15:04"),
		Status:         model.MessageStatusDelivered,
		CreatedAt:      now,
	}

	out, err := event.Outbound(event.EventMessage, event.MessageEvent{
		ConversationID: p.ConversationID,
		Message:        message,
		ClientID:       p.ClientID,
	})
	if err != nil {
		return
	}

	h.BroadcastToRoom(p.ConversationID, out)
	metrics.MessagesTotal.WithLabelValues("delivered").Inc()

	go h.persistMessage(message)
}

// persistMessage is the fire-and-forget half of message handling: failures
// are logged and counted, never surfaced to the room.
func (h *Hub) persistMessage(message model.ChatMessage) {
	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()

	if err := h.messages.Insert(ctx, &message); err != nil {
		metrics.PersistFailuresTotal.Inc()
		h.logger.Warn("message persistence failed, delivery already happened",
			zap.String("message_id", message.ID),
			zap.String("conversation_id", message.ConversationID),
			zap.Error(err),
		)
	}
}

// handleMarkRead flips every non-self delivered message to read and tells
// the room. The receipt broadcast happens even when nothing changed, so a
// repeated markRead is observable only as a repeated receipt.
func (h *Hub) handleMarkRead(ev event.WsEvent, c *Client) {
	var p event.MarkReadPayload
	if !h.decode(ev, &p, c) {
		return
	}
	if !c.inRoom(p.ConversationID) {
		h.sendError(c, "not_joined", "join the conversation before marking read")
		return
	}

	ctx, cancel := context.WithTimeout(h.ctx, storeTimeout)
	defer cancel()

	if _, err := h.messages.MarkRead(ctx, p.ConversationID, c.userID); err != nil {
		h.logger.Warn("mark read failed",
			zap.String("conversation_id", p.ConversationID),
			zap.String("reader_id", c.userID),
			zap.Error(err),
		)
	}

	out, err := event.Outbound(event.EventRead, event.ReadEvent{
		ConversationID: p.ConversationID,
		UserID:         c.userID,
		At:             h.now(),
	})
	if err != nil {
		return
	}
	h.BroadcastToRoom(p.ConversationID, out)
}

// handleHistoryPage serves older pages on demand. The same (conversation,
// page, limit) triple returns the same slice while no new messages arrive.
func (h *Hub) handleHistoryPage(ev event.WsEvent, c *Client) {
	var p event.HistoryPagePayload
	if !h.decode(ev, &p, c) {
		return
	}
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit < 1 {
		p.Limit = int(h.historyPageSize)
	}

	ctx, cancel := context.WithTimeout(h.ctx, storeTimeout)
	defer cancel()

	conversation, err := h.conversations.Get(ctx, p.ConversationID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			h.sendError(c, "not_found", "unknown conversation")
			return
		}
		h.sendError(c, "internal", "could not load history")
		return
	}
	if !conversation.HasParticipant(c.userID) {
		h.sendError(c, "forbidden", "not a participant of this conversation")
		return
	}

	messages, err := h.messages.Page(ctx, p.ConversationID, int64(p.Page), int64(p.Limit))
	if err != nil {
		h.sendError(c, "internal", "could not load history")
		return
	}

	reply, err := event.Outbound(event.EventHistoryPage, event.HistoryEvent{
		ConversationID: p.ConversationID,
		Page:           p.Page,
		Messages:       messages,
	})
	if err != nil {
		return
	}
	c.Send(reply)
}

// handleEnsureDM resolves (or creates) the DM with another user and replies
// to the requester only. On first creation the other side's personal room
// gets a conversation:new nudge so a live client can join immediately.
func (h *Hub) handleEnsureDM(ev event.WsEvent, c *Client) {
	var p event.EnsureDMPayload
	if !h.decode(ev, &p, c) {
		return
	}

	ctx, cancel := context.WithTimeout(h.ctx, storeTimeout)
	defer cancel()

	conversation, created, err := h.conversations.EnsureDirect(ctx, c.userID, p.UserID)
	if err != nil {
		h.sendError(c, "validation", err.Error())
		return
	}

	reply, err := event.Outbound(event.EventDMReady, event.DMReadyEvent{ConversationID: conversation.ID})
	if err != nil {
		return
	}
	c.Send(reply)

	if created {
		h.NotifyConversationNew(p.UserID, *conversation)
	}
}

// decode unmarshals and validates an inbound payload, reporting the
// validation error to the requester. Returns false when the event must be
// dropped with no state change.
func (h *Hub) decode(ev event.WsEvent, payload any, c *Client) bool {
	if err := json.Unmarshal(ev.Payload, payload); err != nil {
		h.sendError(c, "validation", "malformed payload")
		return false
	}
	if err := event.ValidatePayload(payload); err != nil {
		h.sendError(c, "validation", "missing required fields")
		return false
	}
	return true
}

func (h *Hub) sendError(c *Client, code, message string) {
	out, err := event.Outbound(event.EventError, event.ErrorEvent{Code: code, Message: message})
	if err != nil {
		return
	}
	c.SafeSend(out, sendTimeout)
}
