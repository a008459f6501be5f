package endpoints

import (
	"quote-desk-backend/internal/dto"
	"quote-desk-backend/internal/model"
	"quote-desk-backend/internal/service/chat"
)

func toMessageResponse(item model.MessageItem, continuation bool) dto.MessageResponse {
	return dto.MessageResponse{
		MessageID:         item.MessageID,
		ConversationID:    item.ConversationID,
		SenderIdentity:    item.SenderIdentity,
		ReceiverIdentity:  item.ReceiverIdentity,
		Body:              item.Body,
		CreatedAt:         item.CreatedAt,
		Kind:              string(item.Kind),
		DeliveryStatus:    string(item.DeliveryStatus),
		AttachmentRef:     item.AttachmentRef,
		LinkedQuotationID: item.LinkedQuotationID,
		EditedAt:          item.EditedAt,
		Deleted:           item.Deleted,
		Continuation:      continuation,
	}
}

func toListMessagesResponse(result chat.ListMessagesResult) dto.ListMessagesResponse {
	resp := dto.ListMessagesResponse{
		ConversationID: result.ConversationID,
		Messages:       make([]dto.MessageResponse, len(result.Messages)),
	}
	for i, msg := range result.Messages {
		resp.Messages[i] = toMessageResponse(msg, i < len(result.Continuations) && result.Continuations[i])
	}
	return resp
}

func toQuotationResponse(q model.QuotationItem) dto.QuotationResponse {
	items := make([]dto.LineItemResponse, len(q.LineItems))
	for i, li := range q.LineItems {
		items[i] = dto.LineItemResponse{
			Name:      li.Name,
			UnitPrice: li.UnitPrice.String(),
			Quantity:  li.Quantity,
			Total:     li.Total().String(),
		}
	}
	return dto.QuotationResponse{
		QuotationID:         q.ID,
		CustomerIdentity:    q.CustomerIdentity,
		CompanyName:         q.CompanyName,
		ContactName:         q.ContactName,
		ContactEmail:        q.ContactEmail,
		ContactPhone:        q.ContactPhone,
		Notes:               q.Notes,
		Status:              string(q.Status),
		LineItems:           items,
		Subtotal:            q.Subtotal().String(),
		CreatedAt:           q.CreatedAt,
		LastUpdatedAt:       q.LastUpdatedAt,
		ApprovedAt:          q.ApprovedAt,
		RejectedAt:          q.RejectedAt,
		ActingAdminIdentity: q.ActingAdminIdentity,
	}
}

func toQuotationList(items []model.QuotationItem) dto.ListQuotationsResponse {
	resp := dto.ListQuotationsResponse{Quotations: make([]dto.QuotationResponse, len(items))}
	for i, q := range items {
		resp.Quotations[i] = toQuotationResponse(q)
	}
	return resp
}
