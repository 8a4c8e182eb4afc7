package hub

import (
	"sort"

	"eventflow/internal/model"
)

// Snapshot assembles the monitor view: connection counts, per-room
// membership and the rooms each client is joined to. Read-only; safe to
// call from the REST side at any time.
func (h *Hub) Snapshot() model.MonitorResponse {
	var rooms []model.RoomInfo
	clientsByID := make(map[string]*Client)

	for _, shard := range h.shards {
		shard.RLock()
		for roomID, room := range shard.rooms {
			info := model.RoomInfo{
				RoomID:      roomID,
				TotalJoined: len(room),
			}
			for _, c := range room {
				info.UserIDs = append(info.UserIDs, c.userID)
				clientsByID[c.ID] = c
			}
			sort.Strings(info.UserIDs)
			rooms = append(rooms, info)
		}
		shard.RUnlock()
	}

	sort.Slice(rooms, func(i, j int) bool { return rooms[i].RoomID < rooms[j].RoomID })

	clients := make([]model.ClientInfo, 0, len(clientsByID))
	for _, c := range clientsByID {
		roomIDs := c.roomIDs()
		sort.Strings(roomIDs)
		clients = append(clients, model.ClientInfo{
			ClientID: c.ID,
			UserID:   c.userID,
			Rooms:    roomIDs,
		})
	}
	sort.Slice(clients, func(i, j int) bool { return clients[i].ClientID < clients[j].ClientID })

	return model.MonitorResponse{
		Status: "healthy",
		Connections: model.ConnectionStats{
			TotalConnected: len(clients),
			TotalOnline:    len(h.presence.ListOnline()),
		},
		Rooms: model.RoomStats{
			TotalRooms:  len(rooms),
			RoomDetails: rooms,
		},
		Clients: clients,
	}
}
