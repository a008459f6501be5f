package feed

import (
	"encoding/json"
	"fmt"
	"strings"

	"quote-desk-backend/internal/model"
	"quote-desk-backend/internal/service/dashboard"
)

const ChannelPrefix = "conversation:"

// Channel is the pub/sub channel carrying changes of one conversation.
func Channel(conversationID string) string {
	return ChannelPrefix + conversationID
}

// Envelope is the wire form of a change event.
type Envelope struct {
	Type   string         `json:"type"`
	Key    string         `json:"key"`
	Record *MessageRecord `json:"record,omitempty"`
}

type MessageRecord struct {
	ID                string `json:"id"`
	ConversationID    string `json:"conversationId"`
	SenderIdentity    string `json:"senderIdentity"`
	ReceiverIdentity  string `json:"receiverIdentity"`
	Body              string `json:"body"`
	CreatedAt         int64  `json:"createdAt"`
	Kind              string `json:"kind"`
	DeliveryStatus    string `json:"deliveryStatus"`
	AttachmentRef     string `json:"attachmentRef,omitempty"`
	LinkedQuotationID string `json:"linkedQuotationId,omitempty"`
	ActorIdentity     string `json:"actorIdentity,omitempty"`
	EditedAt          int64  `json:"editedAt,omitempty"`
	Deleted           bool   `json:"deleted,omitempty"`
}

func recordFromMessage(m model.MessageItem) *MessageRecord {
	return &MessageRecord{
		ID:                m.MessageID,
		ConversationID:    m.ConversationID,
		SenderIdentity:    m.SenderIdentity,
		ReceiverIdentity:  m.ReceiverIdentity,
		Body:              m.Body,
		CreatedAt:         m.CreatedAt,
		Kind:              string(m.Kind),
		DeliveryStatus:    string(m.DeliveryStatus),
		AttachmentRef:     m.AttachmentRef,
		LinkedQuotationID: m.LinkedQuotationID,
		ActorIdentity:     m.ActorIdentity,
		EditedAt:          m.EditedAt,
		Deleted:           m.Deleted,
	}
}

func (r *MessageRecord) message(key string) model.MessageItem {
	conversationID := r.ConversationID
	if conversationID == "" {
		conversationID = key
	}
	kind, _ := model.ParseMessageKind(r.Kind)
	status, _ := model.ParseDeliveryStatus(r.DeliveryStatus)
	return model.MessageItem{
		PK:                model.MessagePK(conversationID, r.ID),
		MessageID:         r.ID,
		ConversationID:    conversationID,
		SenderIdentity:    r.SenderIdentity,
		ReceiverIdentity:  r.ReceiverIdentity,
		Body:              r.Body,
		CreatedAt:         r.CreatedAt,
		Kind:              kind,
		DeliveryStatus:    status,
		AttachmentRef:     r.AttachmentRef,
		LinkedQuotationID: r.LinkedQuotationID,
		ActorIdentity:     r.ActorIdentity,
		EditedAt:          r.EditedAt,
		Deleted:           r.Deleted,
	}
}

func Encode(ev dashboard.Event) ([]byte, error) {
	if err := ev.Validate(); err != nil {
		return nil, err
	}
	env := Envelope{Type: string(ev.Type), Key: ev.ConversationID}
	if ev.Type == dashboard.EventUpserted {
		env.Record = recordFromMessage(*ev.Message)
	}
	return json.Marshal(env)
}

// Decode parses and validates one payload. "added" and "changed" are read
// as upserts.
func Decode(payload []byte) (dashboard.Event, error) {
	var env Envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return dashboard.Event{}, fmt.Errorf("%w: %v", dashboard.ErrInvalidEvent, err)
	}

	ev := dashboard.Event{ConversationID: strings.TrimSpace(env.Key)}
	switch strings.ToLower(strings.TrimSpace(env.Type)) {
	case "upserted", "added", "changed":
		ev.Type = dashboard.EventUpserted
		if env.Record != nil {
			m := env.Record.message(ev.ConversationID)
			ev.Message = &m
		}
	case "removed":
		ev.Type = dashboard.EventRemoved
	default:
		ev.Type = dashboard.EventType(env.Type)
	}

	if err := ev.Validate(); err != nil {
		return dashboard.Event{}, err
	}
	return ev, nil
}
