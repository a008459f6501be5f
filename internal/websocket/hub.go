package websocket

import (
	"encoding/json"
	"log"

	"quote-desk-backend/internal/dto"
	"quote-desk-backend/internal/service/dashboard"
)

const broadcastBuffer = 256

type Hub struct {
	Rooms      map[string]*Room
	Register   chan *WSClient
	Unregister chan *WSClient
	Broadcast  chan *WSMessage
	quit       chan struct{}
}

func NewHub() *Hub {
	return &Hub{
		Rooms:      make(map[string]*Room),
		Register:   make(chan *WSClient),
		Unregister: make(chan *WSClient),
		Broadcast:  make(chan *WSMessage, broadcastBuffer),
		quit:       make(chan struct{}),
	}
}

// Run owns Rooms until Stop is called.
func (h *Hub) Run() {
	for {
		select {
		case <-h.quit:
			return

		case client := <-h.Register:
			room, ok := h.Rooms[client.RoomID]
			if !ok {
				room = &Room{Id: client.RoomID, Clients: make(map[string]*WSClient)}
				h.Rooms[client.RoomID] = room
				setRooms(len(h.Rooms))
			}
			room.Clients[client.ID] = client
			incConnections()

		case client := <-h.Unregister:
			room, ok := h.Rooms[client.RoomID]
			if !ok {
				continue
			}
			if _, ok := room.Clients[client.ID]; ok {
				delete(room.Clients, client.ID)
				close(client.Message)
				decConnections()
			}
			h.dropIfEmpty(room)

		case message := <-h.Broadcast:
			room, ok := h.Rooms[message.RoomID]
			if !ok {
				continue
			}
			delivered := 0
			for _, client := range room.Clients {
				select {
				case client.Message <- message:
					delivered++
				default:
					close(client.Message)
					delete(room.Clients, client.ID)
					decConnections()
					incDropped()
				}
			}
			if delivered > 0 {
				addDelivered(delivered)
			}
			h.dropIfEmpty(room)
		}
	}
}

func (h *Hub) Stop() {
	close(h.quit)
}

// join and leave give up once the hub is stopped.
func (h *Hub) join(cl *WSClient) bool {
	select {
	case h.Register <- cl:
		return true
	case <-h.quit:
		return false
	}
}

func (h *Hub) leave(cl *WSClient) {
	select {
	case h.Unregister <- cl:
	case <-h.quit:
	}
}

func (h *Hub) dropIfEmpty(room *Room) {
	if len(room.Clients) > 0 {
		return
	}
	delete(h.Rooms, room.Id)
	setRooms(len(h.Rooms))
}

// NotifyRoom queues payload for every client in roomID. It never blocks; a
// full backlog drops the payload.
func (h *Hub) NotifyRoom(roomID string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		log.Printf("websocket: marshal payload for room %s: %v", roomID, err)
		return
	}
	select {
	case h.Broadcast <- &WSMessage{Content: string(data), RoomID: roomID}:
	default:
		incDropped()
		log.Printf("websocket: broadcast backlog full, dropped payload for room %s", roomID)
	}
}

// PushChange sends a dashboard change to each admin with that admin's own
// unread count.
func (h *Hub) PushChange(change dashboard.Change, admins []string) {
	eventType := EventSummary
	if change.Removed {
		eventType = EventRemoved
	}
	for _, admin := range admins {
		roomID, err := DashboardRoom(admin)
		if err != nil {
			continue
		}
		h.NotifyRoom(roomID, dto.DashboardEvent{
			Type:         eventType,
			Conversation: dto.NewSummaryResponse(change.Summary, admin),
		})
	}
}
