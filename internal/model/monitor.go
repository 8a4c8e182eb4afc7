package model

// -----------------------------------------------------------------
// Monitor API Response Models
// -----------------------------------------------------------------

// MonitorResponse is the main response for the monitor API.
type MonitorResponse struct {
	Status      string          `json:"status"` // "healthy", "degraded"
	Connections ConnectionStats `json:"connections"`
	Rooms       RoomStats       `json:"rooms"`
	Clients     []ClientInfo    `json:"clients"`
}

// ConnectionStats holds connection-related statistics.
type ConnectionStats struct {
	TotalConnected int `json:"totalConnected"`
	TotalOnline    int `json:"totalOnline"`
}

// RoomStats holds room statistics.
type RoomStats struct {
	TotalRooms  int        `json:"totalRooms"`
	RoomDetails []RoomInfo `json:"roomDetails"`
}

// RoomInfo contains information about a single room.
type RoomInfo struct {
	RoomID      string   `json:"roomId"`
	TotalJoined int      `json:"totalJoined"`
	UserIDs     []string `json:"userIds"`
}

// ClientInfo contains information about a connected client.
type ClientInfo struct {
	ClientID string   `json:"clientId"`
	UserID   string   `json:"userId"`
	Rooms    []string `json:"rooms"`
}
