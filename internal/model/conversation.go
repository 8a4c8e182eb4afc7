package model

import "time"

// Conversation types
const (
	ConversationTypeDM    = "dm"
	ConversationTypeGroup = "group"
)

// Membership statuses
const (
	MemberStatusPending  = "pending"
	MemberStatusAccepted = "accepted"
	MemberStatusDeclined = "declined"
)

// Member tracks a single user's invitation state inside a conversation.
// Every participant has a member entry, but not every member is a
// participant yet (pending and declined invites stay in Members only).
type Member struct {
	UserID string `json:"userId" bson:"user_id"`
	Status string `json:"status" bson:"status"`
}

// Conversation represents a DM or group chat room.
type Conversation struct {
	ID           string    `json:"id" bson:"_id"`
	Type         string    `json:"type" bson:"type"`
	Title        string    `json:"title" bson:"title"`
	Participants []string  `json:"participants" bson:"participants"`
	Members      []Member  `json:"members" bson:"members"`
	EventID      string    `json:"eventId,omitempty" bson:"event_id,omitempty"`
	CreatedAt    time.Time `json:"createdAt" bson:"created_at"`
	UpdatedAt    time.Time `json:"updatedAt" bson:"updated_at"`
}

// HasParticipant reports whether userID has confirmed membership.
func (c *Conversation) HasParticipant(userID string) bool {
	for _, id := range c.Participants {
		if id == userID {
			return true
		}
	}
	return false
}

// MemberStatus returns the membership status for userID, if any entry exists.
func (c *Conversation) MemberStatus(userID string) (string, bool) {
	for _, m := range c.Members {
		if m.UserID == userID {
			return m.Status, true
		}
	}
	return "", false
}

// ConversationPreview is the flattened shape returned by the conversation
// list endpoint: display name resolved for DMs plus a last-message snippet.
type ConversationPreview struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	IsGroup     bool   `json:"isGroup"`
	EventID     string `json:"eventId,omitempty"`
	LastMessage string `json:"lastMessage"`
	Time        string `json:"time"`
}
