package notification

import (
	"fmt"
	"strings"
	"time"

	"quote-desk-backend/internal/identity"
	"quote-desk-backend/internal/model"
	"quote-desk-backend/internal/service/chat"

	"github.com/google/uuid"
)

const DefaultSystemIdentity = "admin"

// Dispatcher turns a committed quotation status change into the chat message
// announcing it. It does no I/O.
type Dispatcher struct {
	system  string
	pool    string
	orderer chat.Orderer
	newID   func() string
	now     func() time.Time
}

func New(systemIdentity, poolIdentity string, orderer chat.Orderer) *Dispatcher {
	systemIdentity = strings.TrimSpace(systemIdentity)
	if systemIdentity == "" {
		systemIdentity = DefaultSystemIdentity
	}
	poolIdentity = strings.TrimSpace(poolIdentity)
	if poolIdentity == "" {
		poolIdentity = systemIdentity
	}
	return &Dispatcher{
		system:  systemIdentity,
		pool:    poolIdentity,
		orderer: orderer,
		newID:   uuid.NewString,
		now:     time.Now,
	}
}

func (d *Dispatcher) SystemIdentity() string {
	return d.system
}

// NotifyStatusChange returns nil when the status did not actually change.
func (d *Dispatcher) NotifyStatusChange(q model.QuotationItem, previous model.QuotationStatus) (*model.MessageItem, error) {
	if q.Status == previous {
		return nil, nil
	}
	customer := strings.TrimSpace(q.CustomerIdentity)
	if customer == "" || customer == d.system {
		return nil, fmt.Errorf("notify quotation %s: %w", q.ID, identity.ErrInvalidIdentity)
	}
	conversationID, err := identity.CustomerConversationKey(customer, d.pool)
	if err != nil {
		return nil, fmt.Errorf("notify quotation %s: %w", q.ID, err)
	}

	createdAt := q.LastUpdatedAt
	if createdAt <= 0 {
		createdAt = d.now().UnixMilli()
	}

	messageID := d.newID()
	return &model.MessageItem{
		PK:                model.MessagePK(conversationID, messageID),
		MessageID:         messageID,
		ConversationID:    conversationID,
		SenderIdentity:    d.system,
		ReceiverIdentity:  customer,
		Body:              StatusText(q),
		CreatedAt:         createdAt,
		Kind:              model.MessageKindStatusUpdate,
		DeliveryStatus:    model.DeliveryStatusSent,
		LinkedQuotationID: q.ID,
		ActorIdentity:     q.ActingAdminIdentity,
	}, nil
}

// StatusText is the body of a status message, for example
// "Quotation q-1 for Acme was approved. Subtotal: 301.00".
func StatusText(q model.QuotationItem) string {
	var verb string
	switch q.Status {
	case model.QuotationStatusApproved:
		verb = "was approved"
	case model.QuotationStatusRejected:
		verb = "was rejected"
	default:
		verb = "is pending review again"
	}

	subject := "Quotation " + q.ID
	if company := strings.TrimSpace(q.CompanyName); company != "" {
		subject += " for " + company
	}
	return fmt.Sprintf("%s %s. Subtotal: %s", subject, verb, q.Subtotal())
}

// Insert places msg into an ordered history and returns the new history.
func (d *Dispatcher) Insert(history []model.MessageItem, msg model.MessageItem) []model.MessageItem {
	i := d.orderer.InsertionIndex(history, msg)
	out := make([]model.MessageItem, 0, len(history)+1)
	out = append(out, history[:i]...)
	out = append(out, msg)
	return append(out, history[i:]...)
}
