package model

import "fmt"

type QuotationStatus string

const (
	QuotationStatusPending  QuotationStatus = "pending"
	QuotationStatusApproved QuotationStatus = "approved"
	QuotationStatusRejected QuotationStatus = "rejected"
)

// ParseQuotationStatus accepts "Pending", "pending" and "PENDING" alike but
// never maps an unknown value onto a known one.
func ParseQuotationStatus(s string) (QuotationStatus, bool) {
	switch q := QuotationStatus(normalizeEnum(s)); q {
	case QuotationStatusPending, QuotationStatusApproved, QuotationStatusRejected:
		return q, true
	}
	return "", false
}

func (s QuotationStatus) Valid() bool {
	switch s {
	case QuotationStatusPending, QuotationStatusApproved, QuotationStatusRejected:
		return true
	}
	return false
}

type LineItem struct {
	Name      string `dynamodbav:"name"`
	UnitPrice Money  `dynamodbav:"unitPrice"`
	Quantity  int    `dynamodbav:"quantity"`
}

func (l LineItem) Total() Money {
	return l.UnitPrice.Mul(l.Quantity)
}

// QuotationItem is a customer pricing request. Timestamps are unix
// milliseconds; zero means unset.
type QuotationItem struct {
	ID                  string          `dynamodbav:"quotationId"`
	CustomerIdentity    string          `dynamodbav:"customerIdentity"`
	CompanyName         string          `dynamodbav:"companyName"`
	ContactName         string          `dynamodbav:"contactName,omitempty"`
	ContactEmail        string          `dynamodbav:"contactEmail,omitempty"`
	ContactPhone        string          `dynamodbav:"contactPhone,omitempty"`
	Notes               string          `dynamodbav:"notes,omitempty"`
	Status              QuotationStatus `dynamodbav:"status"`
	LineItems           []LineItem      `dynamodbav:"lineItems"`
	CreatedAt           int64           `dynamodbav:"createdAt"`
	LastUpdatedAt       int64           `dynamodbav:"lastUpdatedAt"`
	ApprovedAt          int64           `dynamodbav:"approvedAt"`
	RejectedAt          int64           `dynamodbav:"rejectedAt"`
	ActingAdminIdentity string          `dynamodbav:"actingAdminIdentity,omitempty"`
}

// Subtotal is always derived from the line items. Stored quotations passed
// CheckedSubtotal on creation, so it cannot wrap for them.
func (q QuotationItem) Subtotal() Money {
	var total Money
	for _, item := range q.LineItems {
		total += item.Total()
	}
	return total
}

// CheckedSubtotal is Subtotal failing with ErrMoneyOutOfRange instead of
// wrapping.
func (q QuotationItem) CheckedSubtotal() (Money, error) {
	var total Money
	for _, item := range q.LineItems {
		line, err := item.UnitPrice.MulChecked(item.Quantity)
		if err != nil {
			return 0, fmt.Errorf("line item %q: %w", item.Name, err)
		}
		if total, err = total.AddChecked(line); err != nil {
			return 0, err
		}
	}
	return total, nil
}

// Clone copies the line items so the result can be changed independently.
func (q QuotationItem) Clone() QuotationItem {
	out := q
	if q.LineItems != nil {
		out.LineItems = make([]LineItem, len(q.LineItems))
		copy(out.LineItems, q.LineItems)
	}
	return out
}
