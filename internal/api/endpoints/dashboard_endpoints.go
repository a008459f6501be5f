package endpoints

import (
	"log"
	"net/http"

	"quote-desk-backend/internal/dto"
	"quote-desk-backend/internal/service/chat"
	"quote-desk-backend/internal/service/dashboard"
	"quote-desk-backend/internal/websocket"
)

type DashboardEndpoints interface {
	Dashboard(http.ResponseWriter, *http.Request) error
	DashboardRead(http.ResponseWriter, *http.Request) error
	DashboardArchive(http.ResponseWriter, *http.Request) error
	Websocket(http.ResponseWriter, *http.Request) error
}

type dashboardEndpoints struct {
	aggregator *dashboard.Aggregator
	chat       *chat.Service
	sockets    *websocket.Handler
}

func NewDashboardEndpoints(aggregator *dashboard.Aggregator, chatService *chat.Service, sockets *websocket.Handler) DashboardEndpoints {
	return &dashboardEndpoints{
		aggregator: aggregator,
		chat:       chatService,
		sockets:    sockets,
	}
}

func (h *dashboardEndpoints) Dashboard(w http.ResponseWriter, r *http.Request) error {
	return MethodHandler(w, r, handlerMap{
		http.MethodGet: h.handleList,
	})
}

func (h *dashboardEndpoints) DashboardRead(w http.ResponseWriter, r *http.Request) error {
	return MethodHandler(w, r, handlerMap{
		http.MethodPost: h.handleMarkRead,
	})
}

func (h *dashboardEndpoints) DashboardArchive(w http.ResponseWriter, r *http.Request) error {
	return MethodHandler(w, r, handlerMap{
		http.MethodPost: h.handleArchive,
	})
}

func (h *dashboardEndpoints) Websocket(w http.ResponseWriter, r *http.Request) error {
	return MethodHandler(w, r, handlerMap{
		http.MethodGet: h.handleWebsocket,
	})
}

// handleList returns the rows as the calling admin sees them. Archived rows
// are left out unless archived=true is asked for.
func (h *dashboardEndpoints) handleList(w http.ResponseWriter, r *http.Request) error {
	admin, err := requestIdentity(r)
	if err != nil {
		return err
	}
	withArchived := r.URL.Query().Get("archived") == "true"

	summaries := h.aggregator.List()
	resp := dto.DashboardResponse{Conversations: make([]dto.SummaryResponse, 0, len(summaries))}
	for _, s := range summaries {
		if !s.Archived {
			resp.UnreadTotal += s.UnreadCountByAdmin[admin]
		} else if !withArchived {
			continue
		}
		resp.Conversations = append(resp.Conversations, dto.NewSummaryResponse(s, admin))
	}
	return WriteJSON(w, http.StatusOK, resp)
}

func (h *dashboardEndpoints) handleMarkRead(w http.ResponseWriter, r *http.Request) error {
	admin, err := requestIdentity(r)
	if err != nil {
		return err
	}
	conversationID, err := pathValue(r, "conversationId")
	if err != nil {
		return err
	}
	if err := h.aggregator.MarkRead(conversationID, admin); err != nil {
		return serviceError(err)
	}
	summary, _ := h.aggregator.Summary(conversationID)
	return WriteJSON(w, http.StatusOK, dto.NewSummaryResponse(summary, admin))
}

func (h *dashboardEndpoints) handleArchive(w http.ResponseWriter, r *http.Request) error {
	admin, err := requestIdentity(r)
	if err != nil {
		return err
	}
	conversationID, err := pathValue(r, "conversationId")
	if err != nil {
		return err
	}
	var req dto.ArchiveRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(w, r, &req); err != nil {
			return err
		}
	}
	archived := true
	if req.Archived != nil {
		archived = *req.Archived
	}

	if err := h.chat.ArchiveConversation(r.Context(), conversationID, archived); err != nil {
		return serviceError(err)
	}
	if err := h.aggregator.Archive(conversationID, archived); err != nil {
		return serviceError(err)
	}
	summary, _ := h.aggregator.Summary(conversationID)
	return WriteJSON(w, http.StatusOK, dto.NewSummaryResponse(summary, admin))
}

func (h *dashboardEndpoints) handleWebsocket(w http.ResponseWriter, r *http.Request) error {
	admin, err := requestIdentity(r)
	if err != nil {
		return err
	}
	if _, err := websocket.DashboardRoom(admin); err != nil {
		return serviceError(err)
	}
	// the upgrader answers on failure, nothing more to write
	if err := h.sockets.Serve(w, r, admin); err != nil {
		log.Printf("dashboard websocket for %s: %v", admin, err)
	}
	return nil
}
