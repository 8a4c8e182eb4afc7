package model

import "time"

// Message statuses. Transitions only move forward (delivered -> read).
const (
	MessageStatusDelivered = "delivered"
	MessageStatusRead      = "read"
)

// ChatMessage is a single message in a conversation's log. SenderName is a
// denormalized display snapshot taken at send time; Time is the
// display-formatted send time shown in the chat UI.
type ChatMessage struct {
	ID             string    `json:"id" bson:"_id"`
	ConversationID string    `json:"conversationId" bson:"conversation_id"`
	SenderID       string    `json:"senderId" bson:"sender_id"`
	SenderName     string    `json:"senderName" bson:"sender_name"`
	Text           string    `json:"text" bson:"text"`
	Time           string    `json:"time" bson:"time"`
	Status         string    `json:"status" bson:"status"`
	CreatedAt      time.Time `json:"createdAt" bson:"created_at"`
}
