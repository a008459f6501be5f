package websocket

import (
	"quote-desk-backend/internal/identity"
)

const roomPrefix = "dashboard:"

// Command types accepted from dashboard clients.
const (
	CommandViewing  = "viewing"
	CommandLeft     = "left"
	CommandMarkRead = "markRead"
)

// Event types pushed to dashboard clients.
const (
	EventSummary = "summary"
	EventRemoved = "removed"
)

type Room struct {
	Id      string               `json:"id"`
	Clients map[string]*WSClient `json:"clients"`
}

// WSMessage carries an already encoded JSON payload for one room.
type WSMessage struct {
	Content string `json:"content"`
	RoomID  string `json:"roomId"`
}

// Commander receives the presence and read commands of dashboard clients.
type Commander interface {
	SetViewing(conversationID, admin string) error
	ClearViewing(conversationID, admin string) error
	MarkRead(conversationID, admin string) error
}

// DashboardRoom is the room an admin's dashboard sockets join.
func DashboardRoom(admin string) (string, error) {
	key, err := identity.Encode(admin)
	if err != nil {
		return "", err
	}
	return roomPrefix + key, nil
}
