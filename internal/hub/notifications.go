package hub

import (
	"strings"

	"eventflow/internal/event"
	"eventflow/internal/metrics"
	"eventflow/internal/model"
	"eventflow/internal/presence"
)

// -----------------------------------------------------------------
// Room fan-out primitives. REST handlers and the external event CRUD
// flows push out-of-band notifications through these; the hub itself
// stays the single place that touches connections.
// -----------------------------------------------------------------

// BroadcastToRoom delivers an event to every connection currently joined
// to the room.
func (h *Hub) BroadcastToRoom(roomID string, ev event.WsEvent) {
	metrics.RoomBroadcastsTotal.WithLabelValues(ev.Event).Inc()
	h.deliver(h.roomClients(roomID), ev)
}

// NotifyUser delivers an event to every connection in the user's personal
// notification room.
func (h *Hub) NotifyUser(userID string, ev event.WsEvent) {
	h.BroadcastToRoom(UserRoom(userID), ev)
}

// NotifyUsers fans a domain event (event:created, event:updated,
// event:deleted, ...) out to the personal rooms of the affected users.
func (h *Hub) NotifyUsers(userIDs []string, name string, payload any) {
	ev, err := event.Outbound(name, payload)
	if err != nil {
		return
	}
	for _, userID := range userIDs {
		h.NotifyUser(userID, ev)
	}
}

// NotifyConversationInvite tells every pending member about a new group
// conversation they were invited to.
func (h *Hub) NotifyConversationInvite(conversation model.Conversation) {
	ev, err := event.Outbound(event.EventConversationInvite, event.ConversationEvent{Conversation: conversation})
	if err != nil {
		return
	}
	for _, member := range conversation.Members {
		if member.Status != model.MemberStatusPending {
			continue
		}
		h.NotifyUser(member.UserID, ev)
	}
}

// NotifyConversationNew tells a user a conversation now exists for them,
// typically the other side of a freshly created DM.
func (h *Hub) NotifyConversationNew(userID string, conversation model.Conversation) {
	ev, err := event.Outbound(event.EventConversationNew, event.ConversationEvent{Conversation: conversation})
	if err != nil {
		return
	}
	h.NotifyUser(userID, ev)
}

// broadcastPresence announces an online/offline transition to everyone who
// shares a conversation room with the client. Each peer is notified once
// even when several rooms are shared.
func (h *Hub) broadcastPresence(c *Client, rooms []string, online bool) {
	update := event.PresenceUpdateEvent{
		UserID: c.userID,
		Online: online,
	}
	if !online {
		if ts, ok := h.presence.LastSeen(c.userID); ok {
			update.LastSeen = &ts
		}
	}

	ev, err := event.Outbound(event.EventPresenceUpdate, update)
	if err != nil {
		return
	}

	seen := make(map[string]struct{})
	for _, roomID := range rooms {
		if strings.HasPrefix(roomID, "user:") {
			continue
		}
		for _, member := range h.roomClients(roomID) {
			if member == c {
				continue
			}
			if _, dup := seen[member.ID]; dup {
				continue
			}
			seen[member.ID] = struct{}{}
			member.SafeSend(ev, sendTimeout)
		}
	}
}

// Presence exposes the tracker for REST presence lookups.
func (h *Hub) Presence() *presence.Tracker {
	return h.presence
}
