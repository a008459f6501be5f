package quotation

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"quote-desk-backend/internal/database"
	"quote-desk-backend/internal/identity"
	"quote-desk-backend/internal/model"
	"quote-desk-backend/internal/service/chat"
	"quote-desk-backend/internal/service/notification"

	"github.com/google/uuid"
)

type LineItemParams struct {
	Name      string
	UnitPrice model.Money
	Quantity  int
}

type CreateParams struct {
	CompanyName  string
	ContactName  string
	ContactEmail string
	ContactPhone string
	Notes        string
	LineItems    []LineItemParams
}

type StatusResult struct {
	Quotation model.QuotationItem
	// Message is the status message, nil when nothing changed.
	Message *model.MessageItem
	Changed bool
}

type Service struct {
	repo       Repository
	publisher  chat.Publisher
	dispatcher *notification.Dispatcher
	now        func() time.Time
}

func New(db *database.Database, publisher chat.Publisher, dispatcher *notification.Dispatcher) *Service {
	return NewWithRepository(NewDynamoRepository(db), publisher, dispatcher, time.Now)
}

func NewWithRepository(repo Repository, publisher chat.Publisher, dispatcher *notification.Dispatcher, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	return &Service{
		repo:       repo,
		publisher:  publisher,
		dispatcher: dispatcher,
		now:        now,
	}
}

func (s *Service) CreateQuotation(ctx context.Context, customer string, params CreateParams) (model.QuotationItem, error) {
	customer = strings.TrimSpace(customer)
	if customer == "" {
		return model.QuotationItem{}, newError(ErrorCodeValidation, "invalid identity", identity.ErrInvalidIdentity)
	}
	company := strings.TrimSpace(params.CompanyName)
	if company == "" {
		return model.QuotationItem{}, newError(ErrorCodeValidation, "companyName is required", nil)
	}
	if len(params.LineItems) == 0 {
		return model.QuotationItem{}, newError(ErrorCodeValidation, "at least one line item is required", nil)
	}

	items := make([]model.LineItem, 0, len(params.LineItems))
	for _, li := range params.LineItems {
		name := strings.TrimSpace(li.Name)
		switch {
		case name == "":
			return model.QuotationItem{}, newError(ErrorCodeValidation, "line item name is required", nil)
		case li.Quantity <= 0:
			return model.QuotationItem{}, newError(ErrorCodeValidation, "line item quantity must be positive", nil)
		case li.UnitPrice < 0:
			return model.QuotationItem{}, newError(ErrorCodeValidation, "line item price must not be negative", nil)
		}
		items = append(items, model.LineItem{Name: name, UnitPrice: li.UnitPrice, Quantity: li.Quantity})
	}
	if _, err := (model.QuotationItem{LineItems: items}).CheckedSubtotal(); err != nil {
		return model.QuotationItem{}, newError(ErrorCodeValidation, "line item totals are too large", err)
	}

	now := s.now().UTC().UnixMilli()
	q := model.QuotationItem{
		ID:               uuid.NewString(),
		CustomerIdentity: customer,
		CompanyName:      company,
		ContactName:      strings.TrimSpace(params.ContactName),
		ContactEmail:     strings.TrimSpace(params.ContactEmail),
		ContactPhone:     strings.TrimSpace(params.ContactPhone),
		Notes:            strings.TrimSpace(params.Notes),
		Status:           model.QuotationStatusPending,
		LineItems:        items,
		CreatedAt:        now,
		LastUpdatedAt:    now,
	}

	if err := s.repo.Create(ctx, q); err != nil {
		if errors.Is(err, ErrStatusConflict) {
			return model.QuotationItem{}, newError(ErrorCodeConflict, "quotation already exists", err)
		}
		return model.QuotationItem{}, newError(ErrorCodeInternal, "failed to create quotation", err)
	}
	return q, nil
}

func (s *Service) GetQuotation(ctx context.Context, quotationID string) (model.QuotationItem, error) {
	quotationID = strings.TrimSpace(quotationID)
	if quotationID == "" {
		return model.QuotationItem{}, newError(ErrorCodeValidation, "quotation id is required", nil)
	}
	q, err := s.repo.Get(ctx, quotationID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return model.QuotationItem{}, newError(ErrorCodeNotFound, "quotation not found", err)
		}
		return model.QuotationItem{}, newError(ErrorCodeInternal, "failed to load quotation", err)
	}
	return q, nil
}

func (s *Service) ListCustomerQuotations(ctx context.Context, customer string) ([]model.QuotationItem, error) {
	customer = strings.TrimSpace(customer)
	if customer == "" {
		return nil, newError(ErrorCodeValidation, "invalid identity", identity.ErrInvalidIdentity)
	}
	items, err := s.repo.ListByCustomer(ctx, customer)
	if err != nil {
		return nil, newError(ErrorCodeInternal, "failed to list quotations", err)
	}
	return items, nil
}

// ListQuotations lists every quotation when statusFilter is blank.
func (s *Service) ListQuotations(ctx context.Context, statusFilter string) ([]model.QuotationItem, error) {
	var status model.QuotationStatus
	if strings.TrimSpace(statusFilter) != "" {
		parsed, ok := model.ParseQuotationStatus(statusFilter)
		if !ok {
			return nil, newError(ErrorCodeValidation, "unknown status filter", nil)
		}
		status = parsed
	}
	items, err := s.repo.List(ctx, status)
	if err != nil {
		return nil, newError(ErrorCodeInternal, "failed to list quotations", err)
	}
	return items, nil
}

// UpdateStatus moves a quotation to the requested status. The quotation, its
// status message and the conversation summary are written together; the
// message is published only after that write succeeded. Requesting the
// current status changes nothing and produces no message.
func (s *Service) UpdateStatus(ctx context.Context, actor, quotationID, statusText string) (StatusResult, error) {
	actor = strings.TrimSpace(actor)
	if actor == "" {
		return StatusResult{}, newError(ErrorCodeValidation, "invalid identity", identity.ErrInvalidIdentity)
	}
	target, err := ParseTarget(statusText)
	if err != nil {
		return StatusResult{}, newError(ErrorCodeValidation, "unknown status", err)
	}

	current, err := s.GetQuotation(ctx, quotationID)
	if err != nil {
		return StatusResult{}, err
	}

	next, err := Transition(current, target, actor, s.now().UTC())
	if err != nil {
		return StatusResult{}, newError(ErrorCodeValidation, "invalid status transition", err)
	}
	if next.Status == current.Status {
		return StatusResult{Quotation: next}, nil
	}

	message, err := s.dispatcher.NotifyStatusChange(next, current.Status)
	if err != nil {
		return StatusResult{}, newError(ErrorCodeValidation, "cannot notify customer", err)
	}
	if message == nil {
		return StatusResult{Quotation: next}, nil
	}

	summary := chat.NextSummary(*message, next.CustomerIdentity, s.now().UTC())
	if err := s.repo.CommitStatusChange(ctx, next, current.Status, *message, summary); err != nil {
		if errors.Is(err, ErrStatusConflict) {
			return StatusResult{}, newError(ErrorCodeConflict, "quotation status changed, reload and retry", err)
		}
		return StatusResult{}, newError(ErrorCodeInternal, "failed to update status", err)
	}

	if s.publisher != nil {
		if err := s.publisher.PublishUpsert(ctx, message.ConversationID, *message); err != nil {
			log.Printf("quotation: publish status message for %s: %v", next.ID, err)
		}
	}
	return StatusResult{Quotation: next, Message: message, Changed: true}, nil
}
