package websocket

import (
	"fmt"
	"log"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const clientBuffer = 16

type Handler struct {
	hub       *Hub
	commander Commander
	upgrader  websocket.Upgrader
}

// NewHandler accepts upgrades from allowedOrigins; an empty list or "*"
// accepts any origin.
func NewHandler(h *Hub, commander Commander, allowedOrigins []string) *Handler {
	return &Handler{
		hub:       h,
		commander: commander,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
	}
}

func originChecker(allowed []string) func(*http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" || len(allowed) == 0 {
			return true
		}
		for _, o := range allowed {
			if o == "*" || o == origin {
				return true
			}
		}
		return false
	}
}

func (h *Handler) Hub() *Hub {
	return h.hub
}

// Serve upgrades the request and joins admin's dashboard room. On failure
// the upgrader has already written the HTTP response.
func (h *Handler) Serve(w http.ResponseWriter, r *http.Request, admin string) error {
	roomID, err := DashboardRoom(admin)
	if err != nil {
		return fmt.Errorf("websocket: room for %q: %w", admin, err)
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return fmt.Errorf("websocket: upgrade: %w", err)
	}

	cl := &WSClient{
		Conn:    conn,
		Message: make(chan *WSMessage, clientBuffer),
		ID:      admin + "#" + uuid.NewString(),
		Admin:   admin,
		RoomID:  roomID,
		done:    make(chan struct{}),
	}

	if !h.hub.join(cl) {
		conn.Close()
		return fmt.Errorf("websocket: hub stopped")
	}

	go cl.keepAlive()
	go cl.writeMessage()
	go cl.readMessage(h.hub, h.commander)
	log.Printf("websocket: client %s joined room %s", cl.ID, roomID)
	return nil
}
