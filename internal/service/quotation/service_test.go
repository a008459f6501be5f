package quotation

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"quote-desk-backend/internal/model"
	"quote-desk-backend/internal/service/chat"
	"quote-desk-backend/internal/service/notification"
)

type memoryRepository struct {
	mu         sync.Mutex
	quotations map[string]model.QuotationItem
	messages   []model.MessageItem
	summaries  map[string]model.ConversationSummaryItem
	commitErr  error
}

func newMemoryRepository() *memoryRepository {
	return &memoryRepository{
		quotations: make(map[string]model.QuotationItem),
		summaries:  make(map[string]model.ConversationSummaryItem),
	}
}

func (m *memoryRepository) Create(ctx context.Context, q model.QuotationItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.quotations[q.ID]; ok {
		return ErrStatusConflict
	}
	m.quotations[q.ID] = q.Clone()
	return nil
}

func (m *memoryRepository) Get(ctx context.Context, quotationID string) (model.QuotationItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	q, ok := m.quotations[quotationID]
	if !ok {
		return model.QuotationItem{}, ErrNotFound
	}
	return q.Clone(), nil
}

func (m *memoryRepository) ListByCustomer(ctx context.Context, customer string) ([]model.QuotationItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.QuotationItem
	for _, q := range m.quotations {
		if q.CustomerIdentity == customer {
			out = append(out, q.Clone())
		}
	}
	sortNewestFirst(out)
	return out, nil
}

func (m *memoryRepository) List(ctx context.Context, status model.QuotationStatus) ([]model.QuotationItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.QuotationItem
	for _, q := range m.quotations {
		if status == "" || q.Status == status {
			out = append(out, q.Clone())
		}
	}
	sortNewestFirst(out)
	return out, nil
}

func (m *memoryRepository) CommitStatusChange(ctx context.Context, q model.QuotationItem, previous model.QuotationStatus, message model.MessageItem, summary model.ConversationSummaryItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.commitErr != nil {
		return m.commitErr
	}
	if stored := m.quotations[q.ID]; stored.Status != previous {
		return ErrStatusConflict
	}
	m.quotations[q.ID] = q.Clone()
	m.messages = append(m.messages, message)
	m.summaries[summary.ConversationID] = summary
	return nil
}

type recordingPublisher struct {
	mu       sync.Mutex
	messages []model.MessageItem
}

func (p *recordingPublisher) PublishUpsert(ctx context.Context, conversationID string, message model.MessageItem) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.messages = append(p.messages, message)
	return nil
}

func newTestService(now *time.Time) (*Service, *memoryRepository, *recordingPublisher) {
	repo := newMemoryRepository()
	pub := &recordingPublisher{}
	dispatcher := notification.New("admin", "admin", chat.NewOrderer(0))
	svc := NewWithRepository(repo, pub, dispatcher, func() time.Time { return *now })
	return svc, repo, pub
}

func createLogoQuotation(t *testing.T, svc *Service) model.QuotationItem {
	t.Helper()
	q, err := svc.CreateQuotation(context.Background(), "a@x.com", CreateParams{
		CompanyName: " Acme ",
		LineItems:   []LineItemParams{{Name: "Logo", UnitPrice: model.MoneyFromFloat(150.50), Quantity: 2}},
	})
	if err != nil {
		t.Fatalf("CreateQuotation error: %v", err)
	}
	return q
}

func TestCreateQuotation(t *testing.T) {
	now := time.UnixMilli(1000)
	svc, repo, _ := newTestService(&now)

	q := createLogoQuotation(t, svc)
	if q.Status != model.QuotationStatusPending || q.CompanyName != "Acme" || q.CreatedAt != 1000 {
		t.Fatalf("unexpected quotation %+v", q)
	}
	if q.Subtotal().String() != "301.00" {
		t.Fatalf("subtotal = %s", q.Subtotal())
	}
	if _, ok := repo.quotations[q.ID]; !ok {
		t.Fatalf("quotation not stored")
	}

	listed, err := svc.ListCustomerQuotations(context.Background(), "a@x.com")
	if err != nil || len(listed) != 1 {
		t.Fatalf("ListCustomerQuotations = %v, %v", listed, err)
	}
}

func TestCreateQuotationValidation(t *testing.T) {
	now := time.UnixMilli(1000)
	svc, _, _ := newTestService(&now)

	cases := []CreateParams{
		{LineItems: []LineItemParams{{Name: "Logo", UnitPrice: 1, Quantity: 1}}},
		{CompanyName: "Acme"},
		{CompanyName: "Acme", LineItems: []LineItemParams{{Name: " ", UnitPrice: 1, Quantity: 1}}},
		{CompanyName: "Acme", LineItems: []LineItemParams{{Name: "Logo", UnitPrice: 1, Quantity: 0}}},
		{CompanyName: "Acme", LineItems: []LineItemParams{{Name: "Logo", UnitPrice: -1, Quantity: 1}}},
		{CompanyName: "Acme", LineItems: []LineItemParams{{Name: "Logo", UnitPrice: 1 << 62, Quantity: 4}}},
		{CompanyName: "Acme", LineItems: []LineItemParams{
			{Name: "Logo", UnitPrice: math.MaxInt64 / 2, Quantity: 1},
			{Name: "Card", UnitPrice: math.MaxInt64 / 2, Quantity: 1},
			{Name: "Pin", UnitPrice: 2, Quantity: 1},
		}},
	}
	for i, params := range cases {
		_, err := svc.CreateQuotation(context.Background(), "a@x.com", params)
		var svcErr *Error
		if !errors.As(err, &svcErr) || svcErr.Code != ErrorCodeValidation {
			t.Fatalf("case %d: expected validation error, got %v", i, err)
		}
	}
}

func TestUpdateStatusEmitsMessageOnce(t *testing.T) {
	now := time.UnixMilli(1000)
	svc, repo, pub := newTestService(&now)
	q := createLogoQuotation(t, svc)

	now = time.UnixMilli(5000)
	result, err := svc.UpdateStatus(context.Background(), "admin1", q.ID, "Approved")
	if err != nil {
		t.Fatalf("UpdateStatus error: %v", err)
	}
	if !result.Changed || result.Message == nil {
		t.Fatalf("expected a status message")
	}
	if result.Quotation.ApprovedAt != 5000 || result.Quotation.ActingAdminIdentity != "admin1" {
		t.Fatalf("unexpected quotation %+v", result.Quotation)
	}
	if want := "Quotation " + q.ID + " for Acme was approved. Subtotal: 301.00"; result.Message.Body != want {
		t.Fatalf("body %q", result.Message.Body)
	}
	if len(repo.messages) != 1 || len(pub.messages) != 1 {
		t.Fatalf("expected one stored and published message, got %d/%d", len(repo.messages), len(pub.messages))
	}
	summary := repo.summaries[result.Message.ConversationID]
	if summary.LastMessageID != result.Message.MessageID || summary.CustomerIdentity != "a@x.com" {
		t.Fatalf("summary not written with message: %+v", summary)
	}

	now = time.UnixMilli(6000)
	again, err := svc.UpdateStatus(context.Background(), "admin1", q.ID, "approved")
	if err != nil {
		t.Fatalf("repeat UpdateStatus error: %v", err)
	}
	if again.Changed || again.Message != nil || again.Quotation.ApprovedAt != 5000 {
		t.Fatalf("repeat approval must be a no-op: %+v", again)
	}
	if len(repo.messages) != 1 || len(pub.messages) != 1 {
		t.Fatalf("repeat approval produced a message")
	}
}

func TestUpdateStatusErrors(t *testing.T) {
	now := time.UnixMilli(1000)
	svc, repo, pub := newTestService(&now)
	q := createLogoQuotation(t, svc)
	ctx := context.Background()

	_, err := svc.UpdateStatus(ctx, "admin1", q.ID, "archived")
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}

	_, err = svc.UpdateStatus(ctx, "admin1", "missing", "approved")
	var svcErr *Error
	if !errors.As(err, &svcErr) || svcErr.Code != ErrorCodeNotFound {
		t.Fatalf("expected not_found, got %v", err)
	}

	repo.commitErr = ErrStatusConflict
	_, err = svc.UpdateStatus(ctx, "admin1", q.ID, "rejected")
	if !errors.As(err, &svcErr) || svcErr.Code != ErrorCodeConflict {
		t.Fatalf("expected conflict, got %v", err)
	}

	repo.commitErr = errors.New("transaction canceled")
	_, err = svc.UpdateStatus(ctx, "admin1", q.ID, "rejected")
	if !errors.As(err, &svcErr) || svcErr.Code != ErrorCodeInternal {
		t.Fatalf("expected internal error, got %v", err)
	}
	if len(pub.messages) != 0 {
		t.Fatalf("failed writes must not publish")
	}
}

func TestListQuotationsFilter(t *testing.T) {
	now := time.UnixMilli(1000)
	svc, _, _ := newTestService(&now)
	first := createLogoQuotation(t, svc)
	now = time.UnixMilli(2000)
	createLogoQuotation(t, svc)

	if _, err := svc.UpdateStatus(context.Background(), "admin1", first.ID, "rejected"); err != nil {
		t.Fatalf("UpdateStatus error: %v", err)
	}

	pending, err := svc.ListQuotations(context.Background(), "PENDING")
	if err != nil || len(pending) != 1 {
		t.Fatalf("pending = %v, %v", pending, err)
	}
	all, err := svc.ListQuotations(context.Background(), "")
	if err != nil || len(all) != 2 || all[0].CreatedAt != 2000 {
		t.Fatalf("all = %v, %v", all, err)
	}
	if _, err := svc.ListQuotations(context.Background(), "bogus"); err == nil {
		t.Fatalf("expected error for unknown filter")
	}
}
