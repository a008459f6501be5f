package model

import "strings"

type MessageKind string

const (
	MessageKindText         MessageKind = "text"
	MessageKindAttachment   MessageKind = "attachment"
	MessageKindStatusUpdate MessageKind = "status_update"
	MessageKindSystem       MessageKind = "system"
)

// ParseMessageKind accepts any casing of a known kind.
func ParseMessageKind(s string) (MessageKind, bool) {
	switch k := MessageKind(normalizeEnum(s)); k {
	case MessageKindText, MessageKindAttachment, MessageKindStatusUpdate, MessageKindSystem:
		return k, true
	}
	return "", false
}

// SystemAuthored reports kinds that are produced by the backend rather than
// typed by a person.
func (k MessageKind) SystemAuthored() bool {
	return k == MessageKindSystem || k == MessageKindStatusUpdate
}

type DeliveryStatus string

const (
	DeliveryStatusSending   DeliveryStatus = "sending"
	DeliveryStatusSent      DeliveryStatus = "sent"
	DeliveryStatusDelivered DeliveryStatus = "delivered"
	DeliveryStatusRead      DeliveryStatus = "read"
	DeliveryStatusFailed    DeliveryStatus = "failed"
)

func ParseDeliveryStatus(s string) (DeliveryStatus, bool) {
	switch d := DeliveryStatus(normalizeEnum(s)); d {
	case DeliveryStatusSending, DeliveryStatusSent, DeliveryStatusDelivered, DeliveryStatusRead, DeliveryStatusFailed:
		return d, true
	}
	return "", false
}

// DeletedMessageBody replaces the body of soft-deleted messages.
const DeletedMessageBody = "This message was deleted"

// MessageItem is one chat entry. Timestamps are unix milliseconds.
// ActorIdentity is set on system-authored messages to the admin whose action
// produced them.
type MessageItem struct {
	PK                string         `dynamodbav:"pk"`
	MessageID         string         `dynamodbav:"messageId"`
	ConversationID    string         `dynamodbav:"conversationId"`
	SenderIdentity    string         `dynamodbav:"senderIdentity"`
	ReceiverIdentity  string         `dynamodbav:"receiverIdentity"`
	Body              string         `dynamodbav:"body"`
	CreatedAt         int64          `dynamodbav:"createdAt"`
	Kind              MessageKind    `dynamodbav:"kind"`
	DeliveryStatus    DeliveryStatus `dynamodbav:"deliveryStatus"`
	AttachmentRef     string         `dynamodbav:"attachmentRef,omitempty"`
	LinkedQuotationID string         `dynamodbav:"linkedQuotationId,omitempty"`
	ActorIdentity     string         `dynamodbav:"actorIdentity,omitempty"`
	EditedAt          int64          `dynamodbav:"editedAt,omitempty"`
	Deleted           bool           `dynamodbav:"deleted"`
}

// ConversationSummaryItem is the dashboard row for one customer conversation.
type ConversationSummaryItem struct {
	ConversationID     string         `dynamodbav:"conversationId"`
	CustomerIdentity   string         `dynamodbav:"customerIdentity"`
	LastMessageID      string         `dynamodbav:"lastMessageId"`
	LastMessageBody    string         `dynamodbav:"lastMessageBody"`
	LastMessageAt      int64          `dynamodbav:"lastMessageAt"`
	LastSenderIdentity string         `dynamodbav:"lastSenderIdentity"`
	UnreadCountByAdmin map[string]int `dynamodbav:"unreadCountByAdmin,omitempty"`
	Archived           bool           `dynamodbav:"archived"`
	CreatedAt          int64          `dynamodbav:"createdAt"`
	UpdatedAt          int64          `dynamodbav:"updatedAt"`
}

// Clone returns a copy that shares no map with the receiver.
func (s ConversationSummaryItem) Clone() ConversationSummaryItem {
	out := s
	if s.UnreadCountByAdmin != nil {
		out.UnreadCountByAdmin = make(map[string]int, len(s.UnreadCountByAdmin))
		for k, v := range s.UnreadCountByAdmin {
			out.UnreadCountByAdmin[k] = v
		}
	}
	return out
}

func normalizeEnum(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
