package endpoints

import (
	"net/http"
	"strconv"

	"quote-desk-backend/internal/dto"
	"quote-desk-backend/internal/service/chat"
)

type MessageEndpoints interface {
	// customer side, the conversation is the caller's own
	Messages(http.ResponseWriter, *http.Request) error
	Message(http.ResponseWriter, *http.Request) error
	MessageStatus(http.ResponseWriter, *http.Request) error
	// staff side, addressed by conversation id
	ConversationMessages(http.ResponseWriter, *http.Request) error
	ConversationMessage(http.ResponseWriter, *http.Request) error
}

type messageEndpoints struct {
	service *chat.Service
}

func NewMessageEndpoints(service *chat.Service) MessageEndpoints {
	return &messageEndpoints{service: service}
}

type handlerMap = map[string]func(http.ResponseWriter, *http.Request) error

func (h *messageEndpoints) Messages(w http.ResponseWriter, r *http.Request) error {
	return MethodHandler(w, r, handlerMap{
		http.MethodGet:  h.handleListOwnMessages,
		http.MethodPost: h.handlePostCustomerMessage,
	})
}

func (h *messageEndpoints) Message(w http.ResponseWriter, r *http.Request) error {
	return MethodHandler(w, r, handlerMap{
		http.MethodPatch:  h.handleEditOwnMessage,
		http.MethodDelete: h.handleDeleteOwnMessage,
	})
}

func (h *messageEndpoints) MessageStatus(w http.ResponseWriter, r *http.Request) error {
	return MethodHandler(w, r, handlerMap{
		http.MethodPost: h.handleDeliveryStatus,
	})
}

func (h *messageEndpoints) ConversationMessages(w http.ResponseWriter, r *http.Request) error {
	return MethodHandler(w, r, handlerMap{
		http.MethodGet:  h.handleListConversationMessages,
		http.MethodPost: h.handlePostStaffMessage,
	})
}

func (h *messageEndpoints) ConversationMessage(w http.ResponseWriter, r *http.Request) error {
	return MethodHandler(w, r, handlerMap{
		http.MethodPatch:  h.handleEditStaffMessage,
		http.MethodDelete: h.handleDeleteStaffMessage,
	})
}

func limitParam(r *http.Request) int {
	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil {
		return 0
	}
	return limit
}

func (h *messageEndpoints) handleListOwnMessages(w http.ResponseWriter, r *http.Request) error {
	customer, err := requestIdentity(r)
	if err != nil {
		return err
	}
	result, err := h.service.CustomerMessages(r.Context(), customer, limitParam(r))
	if err != nil {
		return serviceError(err)
	}
	return WriteJSON(w, http.StatusOK, toListMessagesResponse(result))
}

func (h *messageEndpoints) handlePostCustomerMessage(w http.ResponseWriter, r *http.Request) error {
	customer, err := requestIdentity(r)
	if err != nil {
		return err
	}
	var req dto.SendMessageRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return err
	}
	result, err := h.service.PostCustomerMessage(r.Context(), customer, chat.SendParams{
		Body:          req.Body,
		Kind:          req.Kind,
		AttachmentRef: req.AttachmentRef,
	})
	if err != nil {
		return serviceError(err)
	}
	return WriteJSON(w, http.StatusCreated, toMessageResponse(result.Message, false))
}

func (h *messageEndpoints) ownMessage(r *http.Request) (customer, conversationID, messageID string, err error) {
	if customer, err = requestIdentity(r); err != nil {
		return
	}
	if messageID, err = pathValue(r, "messageId"); err != nil {
		return
	}
	if conversationID, err = h.service.ConversationFor(customer); err != nil {
		err = serviceError(err)
	}
	return
}

func (h *messageEndpoints) handleEditOwnMessage(w http.ResponseWriter, r *http.Request) error {
	customer, conversationID, messageID, err := h.ownMessage(r)
	if err != nil {
		return err
	}
	return h.edit(w, r, customer, conversationID, messageID)
}

func (h *messageEndpoints) handleDeleteOwnMessage(w http.ResponseWriter, r *http.Request) error {
	customer, conversationID, messageID, err := h.ownMessage(r)
	if err != nil {
		return err
	}
	return h.delete(w, r, customer, conversationID, messageID)
}

func (h *messageEndpoints) handleDeliveryStatus(w http.ResponseWriter, r *http.Request) error {
	_, conversationID, messageID, err := h.ownMessage(r)
	if err != nil {
		return err
	}
	var req dto.DeliveryStatusRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return err
	}
	message, err := h.service.UpdateDeliveryStatus(r.Context(), conversationID, messageID, req.Status)
	if err != nil {
		return serviceError(err)
	}
	return WriteJSON(w, http.StatusOK, toMessageResponse(message, false))
}

func (h *messageEndpoints) handleListConversationMessages(w http.ResponseWriter, r *http.Request) error {
	conversationID, err := pathValue(r, "conversationId")
	if err != nil {
		return err
	}
	result, err := h.service.ListMessages(r.Context(), conversationID, limitParam(r))
	if err != nil {
		return serviceError(err)
	}
	return WriteJSON(w, http.StatusOK, toListMessagesResponse(result))
}

func (h *messageEndpoints) handlePostStaffMessage(w http.ResponseWriter, r *http.Request) error {
	admin, err := requestIdentity(r)
	if err != nil {
		return err
	}
	conversationID, err := pathValue(r, "conversationId")
	if err != nil {
		return err
	}
	var req dto.SendMessageRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return err
	}
	result, err := h.service.PostStaffMessage(r.Context(), admin, conversationID, chat.SendParams{
		Body:          req.Body,
		Kind:          req.Kind,
		AttachmentRef: req.AttachmentRef,
	})
	if err != nil {
		return serviceError(err)
	}
	return WriteJSON(w, http.StatusCreated, toMessageResponse(result.Message, false))
}

func (h *messageEndpoints) staffMessage(r *http.Request) (admin, conversationID, messageID string, err error) {
	if admin, err = requestIdentity(r); err != nil {
		return
	}
	if conversationID, err = pathValue(r, "conversationId"); err != nil {
		return
	}
	messageID, err = pathValue(r, "messageId")
	return
}

func (h *messageEndpoints) handleEditStaffMessage(w http.ResponseWriter, r *http.Request) error {
	admin, conversationID, messageID, err := h.staffMessage(r)
	if err != nil {
		return err
	}
	return h.edit(w, r, admin, conversationID, messageID)
}

func (h *messageEndpoints) handleDeleteStaffMessage(w http.ResponseWriter, r *http.Request) error {
	admin, conversationID, messageID, err := h.staffMessage(r)
	if err != nil {
		return err
	}
	return h.delete(w, r, admin, conversationID, messageID)
}

func (h *messageEndpoints) edit(w http.ResponseWriter, r *http.Request, editor, conversationID, messageID string) error {
	var req dto.EditMessageRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return err
	}
	message, err := h.service.EditMessage(r.Context(), editor, conversationID, messageID, req.Body)
	if err != nil {
		return serviceError(err)
	}
	return WriteJSON(w, http.StatusOK, toMessageResponse(message, false))
}

func (h *messageEndpoints) delete(w http.ResponseWriter, r *http.Request, editor, conversationID, messageID string) error {
	message, err := h.service.DeleteMessage(r.Context(), editor, conversationID, messageID)
	if err != nil {
		return serviceError(err)
	}
	return WriteJSON(w, http.StatusOK, toMessageResponse(message, false))
}
