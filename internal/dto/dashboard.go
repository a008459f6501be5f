package dto

import "quote-desk-backend/internal/model"

// SummaryResponse is a dashboard row as seen by one admin.
type SummaryResponse struct {
	ConversationID     string `json:"conversationId"`
	CustomerIdentity   string `json:"customerIdentity"`
	LastMessageID      string `json:"lastMessageId"`
	LastMessageBody    string `json:"lastMessageBody"`
	LastMessageAt      int64  `json:"lastMessageAt"`
	LastSenderIdentity string `json:"lastSenderIdentity"`
	UnreadCount        int    `json:"unreadCount"`
	Archived           bool   `json:"archived"`
}

type DashboardResponse struct {
	Conversations []SummaryResponse `json:"conversations"`
	UnreadTotal   int               `json:"unreadTotal"`
}

type ArchiveRequest struct {
	Archived *bool `json:"archived"`
}

// DashboardEvent is pushed over the dashboard websocket.
type DashboardEvent struct {
	Type         string          `json:"type"`
	Conversation SummaryResponse `json:"conversation"`
}

// DashboardCommand is read from the dashboard websocket.
type DashboardCommand struct {
	Type           string `json:"type"`
	ConversationID string `json:"conversationId"`
}

func NewSummaryResponse(s model.ConversationSummaryItem, admin string) SummaryResponse {
	return SummaryResponse{
		ConversationID:     s.ConversationID,
		CustomerIdentity:   s.CustomerIdentity,
		LastMessageID:      s.LastMessageID,
		LastMessageBody:    s.LastMessageBody,
		LastMessageAt:      s.LastMessageAt,
		LastSenderIdentity: s.LastSenderIdentity,
		UnreadCount:        s.UnreadCountByAdmin[admin],
		Archived:           s.Archived,
	}
}
