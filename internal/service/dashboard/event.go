package dashboard

import (
	"errors"
	"fmt"
	"strings"

	"quote-desk-backend/internal/model"
)

var ErrInvalidEvent = errors.New("dashboard: invalid event")

type EventType string

const (
	EventUpserted EventType = "upserted"
	EventRemoved  EventType = "removed"
)

// Event is one change notification for a conversation. Message is set for
// upserts only.
type Event struct {
	Type           EventType
	ConversationID string
	Message        *model.MessageItem
}

func Upserted(conversationID string, message model.MessageItem) Event {
	return Event{Type: EventUpserted, ConversationID: conversationID, Message: &message}
}

func Removed(conversationID string) Event {
	return Event{Type: EventRemoved, ConversationID: conversationID}
}

func (e Event) Validate() error {
	if strings.TrimSpace(e.ConversationID) == "" {
		return fmt.Errorf("%w: missing conversation id", ErrInvalidEvent)
	}
	switch e.Type {
	case EventRemoved:
		return nil
	case EventUpserted:
	default:
		return fmt.Errorf("%w: unknown type %q", ErrInvalidEvent, e.Type)
	}

	m := e.Message
	if m == nil {
		return fmt.Errorf("%w: upsert without message", ErrInvalidEvent)
	}
	if strings.TrimSpace(m.MessageID) == "" {
		return fmt.Errorf("%w: missing message id", ErrInvalidEvent)
	}
	if m.CreatedAt <= 0 {
		return fmt.Errorf("%w: message %s has no timestamp", ErrInvalidEvent, m.MessageID)
	}
	if strings.TrimSpace(m.SenderIdentity) == "" || strings.TrimSpace(m.ReceiverIdentity) == "" {
		return fmt.Errorf("%w: message %s has a blank party", ErrInvalidEvent, m.MessageID)
	}
	if m.SenderIdentity == m.ReceiverIdentity {
		return fmt.Errorf("%w: message %s is addressed to its sender", ErrInvalidEvent, m.MessageID)
	}
	if m.ConversationID != "" && m.ConversationID != e.ConversationID {
		return fmt.Errorf("%w: message %s belongs to %s", ErrInvalidEvent, m.MessageID, m.ConversationID)
	}
	return nil
}

type Outcome string

const (
	// OutcomeApplied: the message became the newest of its conversation.
	OutcomeApplied Outcome = "applied"
	// OutcomeStale: an older message, counted once but not shown.
	OutcomeStale Outcome = "stale"
	// OutcomeRefreshed: the current head message changed in place.
	OutcomeRefreshed Outcome = "refreshed"
	OutcomeDuplicate Outcome = "duplicate"
	// OutcomeExpired: an unknown message older than the applied-set
	// watermark. It is not counted, so a late first delivery is lost here.
	OutcomeExpired Outcome = "expired"
	OutcomeRemoved   Outcome = "removed"
	OutcomeIgnored   Outcome = "ignored"
	OutcomeInvalid   Outcome = "invalid"
)

// Change is handed to the OnChange hook after a summary moved, changed or
// went away.
type Change struct {
	Summary model.ConversationSummaryItem
	Removed bool
}
