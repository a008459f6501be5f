package quotation

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"quote-desk-backend/internal/identity"
	"quote-desk-backend/internal/model"
)

var ErrInvalidTransition = errors.New("quotation: invalid transition")

// ParseTarget reads a requested status in any casing.
func ParseTarget(s string) (model.QuotationStatus, error) {
	status, ok := model.ParseQuotationStatus(s)
	if !ok {
		return "", fmt.Errorf("%w: unknown status %q", ErrInvalidTransition, s)
	}
	return status, nil
}

// Transition returns q moved to target. q itself is never modified; asking
// for the current status returns an unchanged copy.
func Transition(q model.QuotationItem, target model.QuotationStatus, actor string, now time.Time) (model.QuotationItem, error) {
	if !target.Valid() {
		return q.Clone(), fmt.Errorf("%w: unknown status %q", ErrInvalidTransition, target)
	}
	next := q.Clone()
	if target == q.Status {
		return next, nil
	}

	actor = strings.TrimSpace(actor)
	if actor == "" {
		return next, identity.ErrInvalidIdentity
	}

	ts := now.UnixMilli()
	next.Status = target
	next.LastUpdatedAt = ts
	next.ActingAdminIdentity = actor
	switch target {
	case model.QuotationStatusApproved:
		next.ApprovedAt = ts
		next.RejectedAt = 0
	case model.QuotationStatusRejected:
		next.RejectedAt = ts
		next.ApprovedAt = 0
	case model.QuotationStatusPending:
		next.ApprovedAt = 0
		next.RejectedAt = 0
	}
	return next, nil
}
