package dto

type SendMessageRequest struct {
	Body          string `json:"body"`
	Kind          string `json:"kind,omitempty"`
	AttachmentRef string `json:"attachmentRef,omitempty"`
}

type EditMessageRequest struct {
	Body string `json:"body"`
}

type DeliveryStatusRequest struct {
	Status string `json:"status"`
}

type MessageResponse struct {
	MessageID         string `json:"messageId"`
	ConversationID    string `json:"conversationId"`
	SenderIdentity    string `json:"senderIdentity"`
	ReceiverIdentity  string `json:"receiverIdentity"`
	Body              string `json:"body"`
	CreatedAt         int64  `json:"createdAt"`
	Kind              string `json:"kind"`
	DeliveryStatus    string `json:"deliveryStatus"`
	AttachmentRef     string `json:"attachmentRef,omitempty"`
	LinkedQuotationID string `json:"linkedQuotationId,omitempty"`
	EditedAt          int64  `json:"editedAt,omitempty"`
	Deleted           bool   `json:"deleted"`
	// Continuation is true when the previous message has the same sender
	// and falls inside the continuation window.
	Continuation bool `json:"continuation"`
}

type ListMessagesResponse struct {
	ConversationID string            `json:"conversationId"`
	Messages       []MessageResponse `json:"messages"`
}
