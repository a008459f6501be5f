package websocket

import (
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"quote-desk-backend/internal/dto"

	"github.com/gorilla/websocket"
)

const (
	pingInterval = 30 * time.Second
	readLimit    = 64 * 1024
)

type WSClient struct {
	Conn     *websocket.Conn
	Message  chan *WSMessage
	ID       string
	Admin    string
	RoomID   string
	done     chan struct{}
	mu       sync.Mutex
	isClosed bool
	// viewing is only touched by readMessage.
	viewing string
}

func (cl *WSClient) keepAlive() {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-cl.done:
			return
		case <-ticker.C:
			cl.mu.Lock()
			if cl.isClosed {
				cl.mu.Unlock()
				return
			}
			err := cl.Conn.WriteMessage(websocket.PingMessage, nil)
			cl.mu.Unlock()

			if err != nil {
				log.Printf("websocket: ping error for client %s: %v", cl.ID, err)
				return
			}
		}
	}
}

func (cl *WSClient) writeMessage() {
	defer func() {
		cl.mu.Lock()
		cl.isClosed = true
		cl.Conn.Close()
		cl.mu.Unlock()
	}()

	for {
		select {
		case <-cl.done:
			return
		case msg, ok := <-cl.Message:
			if !ok {
				return
			}

			cl.mu.Lock()
			if cl.isClosed {
				cl.mu.Unlock()
				return
			}
			err := cl.Conn.WriteMessage(websocket.TextMessage, []byte(msg.Content))
			cl.mu.Unlock()

			if err != nil {
				log.Printf("websocket: send to client %s: %v", cl.ID, err)
				return
			}
		}
	}
}

func (cl *WSClient) readMessage(hub *Hub, commander Commander) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("websocket: recovered from panic in readMessage: %v", r)
		}
		if cl.viewing != "" {
			if err := commander.ClearViewing(cl.viewing, cl.Admin); err != nil {
				log.Printf("websocket: clear viewing for %s: %v", cl.Admin, err)
			}
		}

		close(cl.done)
		hub.leave(cl)
		log.Printf("websocket: client %s left room %s", cl.ID, cl.RoomID)
	}()

	cl.Conn.SetReadLimit(readLimit)

	for {
		_, message, err := cl.Conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived) {
				log.Printf("websocket: read from client %s: %v", cl.ID, err)
			}
			return
		}

		if err := cl.handleCommand(commander, message); err != nil {
			log.Printf("websocket: command from %s: %v", cl.Admin, err)
		}
	}
}

// handleCommand applies one client command. A client views at most one
// conversation at a time; viewing another one leaves the previous.
func (cl *WSClient) handleCommand(commander Commander, raw []byte) error {
	var cmd dto.DashboardCommand
	if err := json.Unmarshal(raw, &cmd); err != nil {
		return fmt.Errorf("decode command: %w", err)
	}
	conversationID := strings.TrimSpace(cmd.ConversationID)
	if conversationID == "" {
		return fmt.Errorf("command %q without conversation id", cmd.Type)
	}

	switch cmd.Type {
	case CommandViewing:
		if cl.viewing != "" && cl.viewing != conversationID {
			if err := commander.ClearViewing(cl.viewing, cl.Admin); err != nil {
				return err
			}
		}
		cl.viewing = conversationID
		return commander.SetViewing(conversationID, cl.Admin)
	case CommandLeft:
		if cl.viewing == conversationID {
			cl.viewing = ""
		}
		return commander.ClearViewing(conversationID, cl.Admin)
	case CommandMarkRead:
		return commander.MarkRead(conversationID, cl.Admin)
	default:
		return fmt.Errorf("unknown command %q", cmd.Type)
	}
}
