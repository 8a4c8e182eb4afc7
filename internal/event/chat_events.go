package event

import (
	"time"

	"github.com/go-playground/validator/v10"

	"eventflow/internal/model"
)

var validate = validator.New()

// ValidatePayload checks an inbound payload's required fields. A failed
// validation rejects the event locally; no state changes, no broadcast.
func ValidatePayload(p any) error {
	return validate.Struct(p)
}

// -----------------------------------------------------------------
// Client -> Server payloads
// -----------------------------------------------------------------

type JoinPayload struct {
	ConversationID string `json:"conversationId" validate:"required"`
}

type TypingPayload struct {
	ConversationID string `json:"conversationId" validate:"required"`
}

// MessagePayload carries a new chat message. ClientID is opaque and
// round-tripped so the sender can reconcile its optimistic local echo.
type MessagePayload struct {
	ConversationID string `json:"conversationId" validate:"required"`
	Text           string `json:"text" validate:"required"`
	ClientID       string `json:"clientId"`
}

type MarkReadPayload struct {
	ConversationID string `json:"conversationId" validate:"required"`
}

type HistoryPagePayload struct {
	ConversationID string `json:"conversationId" validate:"required"`
	Page           int    `json:"page" validate:"omitempty,min=1"`
	Limit          int    `json:"limit" validate:"omitempty,min=1,max=100"`
}

type EnsureDMPayload struct {
	UserID string `json:"userId" validate:"required"`
}

// -----------------------------------------------------------------
// Server -> Client payloads
// -----------------------------------------------------------------

// HistoryEvent replies to join (page omitted) and to historyPage requests.
// Messages are in chronological order.
type HistoryEvent struct {
	ConversationID string              `json:"conversationId"`
	Page           int                 `json:"page,omitempty"`
	Messages       []model.ChatMessage `json:"messages"`
}

type TypingEvent struct {
	ConversationID string `json:"conversationId"`
	From           string `json:"from"`
}

type MessageEvent struct {
	ConversationID string            `json:"conversationId"`
	Message        model.ChatMessage `json:"message"`
	ClientID       string            `json:"clientId,omitempty"`
}

// ReadEvent is a read receipt for the whole room; it carries UI state,
// not a new message.
type ReadEvent struct {
	ConversationID string    `json:"conversationId"`
	UserID         string    `json:"userId"`
	At             time.Time `json:"at"`
}

type DMReadyEvent struct {
	ConversationID string `json:"conversationId"`
}

type PresenceUpdateEvent struct {
	UserID   string     `json:"userId"`
	Online   bool       `json:"online"`
	LastSeen *time.Time `json:"lastSeen,omitempty"`
}

type ConversationEvent struct {
	Conversation model.Conversation `json:"conversation"`
}

type ErrorEvent struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
