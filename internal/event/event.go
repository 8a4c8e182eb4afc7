package event

import "encoding/json"

// Client -> server events
const (
	EventJoin        = "join"
	EventTyping      = "typing"
	EventMessage     = "message"
	EventMarkRead    = "markRead"
	EventHistoryPage = "historyPage"
	EventEnsureDM    = "ensureDM"
)

// Server -> client events
const (
	EventHistory            = "history"
	EventRead               = "read"
	EventDMReady            = "dmReady"
	EventPresenceUpdate     = "presence:update"
	EventConversationInvite = "conversation:invite"
	EventConversationNew    = "conversation:new"
	EventError              = "error"

	// Domain fan-out events emitted by the event CRUD flows through the
	// room-broadcast primitive. This core only carries them.
	EventEventCreated = "event:created"
	EventEventUpdated = "event:updated"
	EventEventDeleted = "event:deleted"
)

// WsEvent is the envelope for every frame on the socket, both directions.
type WsEvent struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
}

// Outbound builds a server->client envelope around payload.
func Outbound(name string, payload any) (WsEvent, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return WsEvent{}, err
	}
	return WsEvent{Event: name, Payload: raw}, nil
}
