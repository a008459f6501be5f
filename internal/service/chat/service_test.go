package chat

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"quote-desk-backend/internal/identity"
	"quote-desk-backend/internal/model"
)

type memoryRepository struct {
	mu        sync.Mutex
	messages  map[string]model.MessageItem
	summaries map[string]model.ConversationSummaryItem
	saveErr   error
}

func newMemoryRepository() *memoryRepository {
	return &memoryRepository{
		messages:  make(map[string]model.MessageItem),
		summaries: make(map[string]model.ConversationSummaryItem),
	}
}

func (m *memoryRepository) GetMessage(ctx context.Context, conversationID, messageID string) (model.MessageItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	message, ok := m.messages[model.MessagePK(conversationID, messageID)]
	if !ok {
		return model.MessageItem{}, ErrNotFound
	}
	return message, nil
}

func (m *memoryRepository) ListMessages(ctx context.Context, conversationID string, limit int) ([]model.MessageItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var items []model.MessageItem
	for _, message := range m.messages {
		if message.ConversationID == conversationID {
			items = append(items, message)
		}
	}
	return items, nil
}

func (m *memoryRepository) GetSummary(ctx context.Context, conversationID string) (model.ConversationSummaryItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	summary, ok := m.summaries[conversationID]
	if !ok {
		return model.ConversationSummaryItem{}, ErrNotFound
	}
	return summary, nil
}

func (m *memoryRepository) ListSummaries(ctx context.Context) ([]model.ConversationSummaryItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var items []model.ConversationSummaryItem
	for _, summary := range m.summaries {
		items = append(items, summary)
	}
	return items, nil
}

func (m *memoryRepository) SaveMessage(ctx context.Context, message model.MessageItem, summary *model.ConversationSummaryItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	m.messages[message.PK] = message
	if summary != nil {
		next := *summary
		if existing, ok := m.summaries[summary.ConversationID]; ok {
			next.CreatedAt = existing.CreatedAt
			next.Archived = existing.Archived
			next.UnreadCountByAdmin = existing.UnreadCountByAdmin
		}
		m.summaries[summary.ConversationID] = next
	}
	return nil
}

func (m *memoryRepository) SetUnreadCounts(ctx context.Context, conversationID string, counts map[string]int, updatedAt int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	summary := m.summaries[conversationID]
	summary.ConversationID = conversationID
	summary.UnreadCountByAdmin = make(map[string]int, len(counts))
	for k, v := range counts {
		summary.UnreadCountByAdmin[k] = v
	}
	summary.UpdatedAt = updatedAt
	m.summaries[conversationID] = summary
	return nil
}

func (m *memoryRepository) SetArchived(ctx context.Context, conversationID string, archived bool, updatedAt int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	summary, ok := m.summaries[conversationID]
	if !ok {
		return ErrNotFound
	}
	summary.Archived = archived
	summary.UpdatedAt = updatedAt
	m.summaries[conversationID] = summary
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

func newTestService(t *testing.T, now *time.Time) (*Service, *memoryRepository, *recordingPublisher) {
	t.Helper()
	repo := newMemoryRepository()
	pub := &recordingPublisher{}
	svc := NewWithRepository(repo, pub, Options{PoolIdentity: "admin"}, func() time.Time { return *now })
	return svc, repo, pub
}

func TestPostCustomerMessage(t *testing.T) {
	now := time.UnixMilli(1000)
	svc, repo, pub := newTestService(t, &now)

	result, err := svc.PostCustomerMessage(context.Background(), "a@x.com", SendParams{Body: " hello "})
	if err != nil {
		t.Fatalf("PostCustomerMessage error: %v", err)
	}

	wantConversation, _ := identity.CustomerConversationKey("a@x.com", "admin")
	if result.Message.ConversationID != wantConversation {
		t.Fatalf("unexpected conversation %s", result.Message.ConversationID)
	}
	if result.Message.Body != "hello" || result.Message.ReceiverIdentity != "admin" {
		t.Fatalf("unexpected message %+v", result.Message)
	}
	if result.Message.DeliveryStatus != model.DeliveryStatusSent || result.Message.CreatedAt != 1000 {
		t.Fatalf("unexpected status or timestamp %+v", result.Message)
	}

	summary := repo.summaries[wantConversation]
	if summary.CustomerIdentity != "a@x.com" || summary.LastMessageID != result.Message.MessageID || summary.LastMessageAt != 1000 {
		t.Fatalf("summary not updated with message: %+v", summary)
	}
	if len(pub.messages) != 1 {
		t.Fatalf("expected one published event, got %d", len(pub.messages))
	}
}

func TestPostCustomerMessageValidation(t *testing.T) {
	now := time.UnixMilli(1000)
	svc, _, pub := newTestService(t, &now)
	ctx := context.Background()

	cases := []struct {
		name     string
		customer string
		params   SendParams
		code     ErrorCode
	}{
		{"blank body", "a@x.com", SendParams{Body: "  "}, ErrorCodeValidation},
		{"blank identity", " ", SendParams{Body: "hi"}, ErrorCodeValidation},
		{"unknown kind", "a@x.com", SendParams{Body: "hi", Kind: "sticker"}, ErrorCodeValidation},
		{"system kind", "a@x.com", SendParams{Body: "hi", Kind: "System"}, ErrorCodeForbidden},
		{"attachment without ref", "a@x.com", SendParams{Kind: "attachment"}, ErrorCodeValidation},
	}
	for _, tc := range cases {
		_, err := svc.PostCustomerMessage(ctx, tc.customer, tc.params)
		var svcErr *Error
		if !errors.As(err, &svcErr) || svcErr.Code != tc.code {
			t.Fatalf("%s: expected %s, got %v", tc.name, tc.code, err)
		}
	}
	if len(pub.messages) != 0 {
		t.Fatalf("rejected messages must not be published")
	}
}

func TestPostStaffMessageAddressesCustomer(t *testing.T) {
	now := time.UnixMilli(1000)
	svc, _, _ := newTestService(t, &now)
	ctx := context.Background()

	first, err := svc.PostCustomerMessage(ctx, "a@x.com", SendParams{Body: "hello"})
	if err != nil {
		t.Fatalf("PostCustomerMessage error: %v", err)
	}

	now = time.UnixMilli(2000)
	reply, err := svc.PostStaffMessage(ctx, "admin1", first.Message.ConversationID, SendParams{Body: "hi there"})
	if err != nil {
		t.Fatalf("PostStaffMessage error: %v", err)
	}
	if reply.Message.SenderIdentity != "admin1" || reply.Message.ReceiverIdentity != "a@x.com" {
		t.Fatalf("unexpected parties %+v", reply.Message)
	}
	if reply.Summary.CustomerIdentity != "a@x.com" || reply.Summary.LastSenderIdentity != "admin1" {
		t.Fatalf("unexpected summary %+v", reply.Summary)
	}
}

func TestPostStaffMessageWithoutSummaryUsesKey(t *testing.T) {
	now := time.UnixMilli(1000)
	svc, _, _ := newTestService(t, &now)

	conversationID, _ := identity.CustomerConversationKey("b.c@x.com", "admin")
	reply, err := svc.PostStaffMessage(context.Background(), "admin1", conversationID, SendParams{Body: "welcome"})
	if err != nil {
		t.Fatalf("PostStaffMessage error: %v", err)
	}
	if reply.Message.ReceiverIdentity != "b.c@x.com" {
		t.Fatalf("unexpected receiver %s", reply.Message.ReceiverIdentity)
	}

	_, err = svc.PostStaffMessage(context.Background(), "admin1", "unknown", SendParams{Body: "x"})
	var svcErr *Error
	if !errors.As(err, &svcErr) || svcErr.Code != ErrorCodeNotFound {
		t.Fatalf("expected not_found, got %v", err)
	}
}

func TestListMessagesOrdersAndFlags(t *testing.T) {
	now := time.UnixMilli(1000)
	svc, _, _ := newTestService(t, &now)
	ctx := context.Background()

	for _, at := range []int64{1000, 1100, 400000} {
		now = time.UnixMilli(at)
		if _, err := svc.PostCustomerMessage(ctx, "a@x.com", SendParams{Body: "m"}); err != nil {
			t.Fatalf("PostCustomerMessage error: %v", err)
		}
	}

	result, err := svc.CustomerMessages(ctx, "a@x.com", 0)
	if err != nil {
		t.Fatalf("CustomerMessages error: %v", err)
	}
	if len(result.Messages) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(result.Messages))
	}
	for i := 1; i < len(result.Messages); i++ {
		if result.Messages[i].CreatedAt < result.Messages[i-1].CreatedAt {
			t.Fatalf("messages not ordered")
		}
	}
	want := []bool{false, true, false}
	for i, flag := range result.Continuations {
		if flag != want[i] {
			t.Fatalf("continuation flags %v, want %v", result.Continuations, want)
		}
	}
}

func TestEditRefreshesHeadSummary(t *testing.T) {
	now := time.UnixMilli(1000)
	svc, repo, pub := newTestService(t, &now)
	ctx := context.Background()

	posted, err := svc.PostCustomerMessage(ctx, "a@x.com", SendParams{Body: "helo"})
	if err != nil {
		t.Fatalf("PostCustomerMessage error: %v", err)
	}

	now = time.UnixMilli(2000)
	edited, err := svc.EditMessage(ctx, "a@x.com", posted.Message.ConversationID, posted.Message.MessageID, "hello")
	if err != nil {
		t.Fatalf("EditMessage error: %v", err)
	}
	if edited.Body != "hello" || edited.EditedAt != 2000 {
		t.Fatalf("unexpected edit %+v", edited)
	}

	summary := repo.summaries[posted.Message.ConversationID]
	if summary.LastMessageBody != "hello" || summary.LastMessageAt != 1000 {
		t.Fatalf("summary not refreshed: %+v", summary)
	}
	if len(pub.messages) != 2 {
		t.Fatalf("expected two published events, got %d", len(pub.messages))
	}

	_, err = svc.EditMessage(ctx, "admin1", posted.Message.ConversationID, posted.Message.MessageID, "nope")
	var svcErr *Error
	if !errors.As(err, &svcErr) || svcErr.Code != ErrorCodeForbidden {
		t.Fatalf("expected forbidden, got %v", err)
	}
}

func TestDeleteAfterWindow(t *testing.T) {
	now := time.UnixMilli(1000)
	svc, _, _ := newTestService(t, &now)
	ctx := context.Background()

	posted, err := svc.PostCustomerMessage(ctx, "a@x.com", SendParams{Body: "oops"})
	if err != nil {
		t.Fatalf("PostCustomerMessage error: %v", err)
	}

	now = time.UnixMilli(1000).Add(DefaultEditWindow + time.Second)
	_, err = svc.DeleteMessage(ctx, "a@x.com", posted.Message.ConversationID, posted.Message.MessageID)
	if !errors.Is(err, ErrEditWindowExpired) {
		t.Fatalf("expected ErrEditWindowExpired, got %v", err)
	}

	now = time.UnixMilli(2000)
	deleted, err := svc.DeleteMessage(ctx, "a@x.com", posted.Message.ConversationID, posted.Message.MessageID)
	if err != nil {
		t.Fatalf("DeleteMessage error: %v", err)
	}
	if !deleted.Deleted || deleted.Body != model.DeletedMessageBody {
		t.Fatalf("unexpected tombstone %+v", deleted)
	}
}

func TestUpdateDeliveryStatus(t *testing.T) {
	now := time.UnixMilli(1000)
	svc, _, pub := newTestService(t, &now)
	ctx := context.Background()

	posted, err := svc.PostCustomerMessage(ctx, "a@x.com", SendParams{Body: "hi"})
	if err != nil {
		t.Fatalf("PostCustomerMessage error: %v", err)
	}

	read, err := svc.UpdateDeliveryStatus(ctx, posted.Message.ConversationID, posted.Message.MessageID, "READ")
	if err != nil {
		t.Fatalf("UpdateDeliveryStatus error: %v", err)
	}
	if read.DeliveryStatus != model.DeliveryStatusRead {
		t.Fatalf("unexpected status %s", read.DeliveryStatus)
	}

	_, err = svc.UpdateDeliveryStatus(ctx, posted.Message.ConversationID, posted.Message.MessageID, "delivered")
	var svcErr *Error
	if !errors.As(err, &svcErr) || svcErr.Code != ErrorCodeConflict {
		t.Fatalf("expected conflict, got %v", err)
	}

	published := len(pub.messages)
	if _, err := svc.UpdateDeliveryStatus(ctx, posted.Message.ConversationID, posted.Message.MessageID, "read"); err != nil {
		t.Fatalf("repeated status error: %v", err)
	}
	if len(pub.messages) != published {
		t.Fatalf("no-op status change must not publish")
	}
}

func TestSaveFailureIsInternal(t *testing.T) {
	now := time.UnixMilli(1000)
	svc, repo, pub := newTestService(t, &now)
	repo.saveErr = errors.New("transaction canceled")

	_, err := svc.PostCustomerMessage(context.Background(), "a@x.com", SendParams{Body: "hi"})
	var svcErr *Error
	if !errors.As(err, &svcErr) || svcErr.Code != ErrorCodeInternal {
		t.Fatalf("expected internal error, got %v", err)
	}
	if len(pub.messages) != 0 {
		t.Fatalf("uncommitted message must not be published")
	}
}

func TestArchiveAndUnreadCounts(t *testing.T) {
	now := time.UnixMilli(1000)
	svc, repo, _ := newTestService(t, &now)
	ctx := context.Background()

	res, err := svc.PostCustomerMessage(ctx, "a@x.com", SendParams{Body: "hi"})
	if err != nil {
		t.Fatalf("PostCustomerMessage error: %v", err)
	}
	id := res.Message.ConversationID

	if err := svc.ArchiveConversation(ctx, id, true); err != nil {
		t.Fatalf("ArchiveConversation error: %v", err)
	}
	if err := svc.SaveUnreadCounts(ctx, model.ConversationSummaryItem{ConversationID: id, UnreadCountByAdmin: map[string]int{"admin1": 1}}); err != nil {
		t.Fatalf("SaveUnreadCounts error: %v", err)
	}

	now = time.UnixMilli(2000)
	if _, err := svc.PostCustomerMessage(ctx, "a@x.com", SendParams{Body: "again"}); err != nil {
		t.Fatalf("PostCustomerMessage error: %v", err)
	}

	summaries, err := svc.Summaries(ctx)
	if err != nil || len(summaries) != 1 {
		t.Fatalf("Summaries = %v, %v", summaries, err)
	}
	got := summaries[0]
	if !got.Archived || got.UnreadCountByAdmin["admin1"] != 1 || got.LastMessageBody != "again" {
		t.Fatalf("new message must keep archive flag and counters: %+v", got)
	}
	if repo.summaries[id].CreatedAt != 1000 {
		t.Fatalf("createdAt moved: %+v", repo.summaries[id])
	}

	err = svc.ArchiveConversation(ctx, "admin|nobody", true)
	var svcErr *Error
	if !errors.As(err, &svcErr) || svcErr.Code != ErrorCodeNotFound {
		t.Fatalf("expected not_found, got %v", err)
	}
}
