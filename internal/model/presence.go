package model

import "time"

// PresenceStatus is the REST response for a single user's presence lookup.
// LastSeen is nil when the user has never been seen going offline by this
// process (presence is rebuilt from live connections only).
type PresenceStatus struct {
	UserID   string     `json:"userId"`
	Online   bool       `json:"online"`
	LastSeen *time.Time `json:"lastSeen,omitempty"`
}

// OnlineUsers is the REST response listing currently connected users.
type OnlineUsers struct {
	Count int      `json:"count"`
	Users []string `json:"users"`
}
