package chat

import (
	"errors"
	"strings"
	"time"

	"quote-desk-backend/internal/model"
)

const DefaultEditWindow = 15 * time.Minute

var (
	ErrInvalidDeliveryTransition = errors.New("chat: invalid delivery status transition")
	ErrEditWindowExpired         = errors.New("chat: edit window expired")
	ErrImmutableMessage          = errors.New("chat: message cannot be changed")
	ErrNotSender                 = errors.New("chat: only the sender may change a message")
)

var deliveryRank = map[model.DeliveryStatus]int{
	model.DeliveryStatusSending:   0,
	model.DeliveryStatusSent:      1,
	model.DeliveryStatusDelivered: 2,
	model.DeliveryStatusRead:      3,
}

// AdvanceDelivery moves a message along Sending→Sent→Delivered→Read, or into
// Failed. A failed message may only go back to Sending for a resend.
func AdvanceDelivery(msg model.MessageItem, target model.DeliveryStatus) (model.MessageItem, error) {
	if _, ok := model.ParseDeliveryStatus(string(target)); !ok {
		return msg, ErrInvalidDeliveryTransition
	}
	if msg.DeliveryStatus == target {
		return msg, nil
	}

	switch {
	case msg.DeliveryStatus == model.DeliveryStatusFailed:
		if target != model.DeliveryStatusSending {
			return msg, ErrInvalidDeliveryTransition
		}
	case target == model.DeliveryStatusFailed:
		if msg.DeliveryStatus == model.DeliveryStatusRead {
			return msg, ErrInvalidDeliveryTransition
		}
	default:
		if deliveryRank[target] < deliveryRank[msg.DeliveryStatus] {
			return msg, ErrInvalidDeliveryTransition
		}
	}

	msg.DeliveryStatus = target
	return msg, nil
}

// Edit replaces the body of a message still inside the edit window.
func Edit(msg model.MessageItem, editor, body string, now time.Time, window time.Duration) (model.MessageItem, error) {
	if err := checkMutable(msg, editor, now, window); err != nil {
		return msg, err
	}
	body = strings.TrimSpace(body)
	if body == "" {
		return msg, errors.New("chat: message body is required")
	}
	msg.Body = body
	msg.EditedAt = now.UnixMilli()
	return msg, nil
}

// Delete soft-deletes a message: id and timestamps stay, content goes.
func Delete(msg model.MessageItem, editor string, now time.Time, window time.Duration) (model.MessageItem, error) {
	if msg.Deleted {
		return msg, nil
	}
	if err := checkMutable(msg, editor, now, window); err != nil {
		return msg, err
	}
	msg.Deleted = true
	msg.Body = model.DeletedMessageBody
	msg.AttachmentRef = ""
	msg.EditedAt = now.UnixMilli()
	return msg, nil
}

func checkMutable(msg model.MessageItem, editor string, now time.Time, window time.Duration) error {
	if msg.Kind.SystemAuthored() || msg.Deleted {
		return ErrImmutableMessage
	}
	if editor != msg.SenderIdentity {
		return ErrNotSender
	}
	if window <= 0 {
		window = DefaultEditWindow
	}
	if now.UnixMilli()-msg.CreatedAt > window.Milliseconds() {
		return ErrEditWindowExpired
	}
	return nil
}
