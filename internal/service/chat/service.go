package chat

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"quote-desk-backend/internal/database"
	"quote-desk-backend/internal/identity"
	"quote-desk-backend/internal/model"

	"github.com/google/uuid"
)

const defaultMessageLimit = 200

// Publisher announces a committed message on the change feed.
type Publisher interface {
	PublishUpsert(ctx context.Context, conversationID string, message model.MessageItem) error
}

type Options struct {
	// PoolIdentity is the shared staff identity every customer talks to.
	PoolIdentity       string
	ContinuationWindow time.Duration
	EditWindow         time.Duration
}

type SendParams struct {
	Body          string
	Kind          string
	AttachmentRef string
}

type MessageResult struct {
	Message model.MessageItem
	Summary model.ConversationSummaryItem
}

type ListMessagesResult struct {
	ConversationID string
	Messages       []model.MessageItem
	// Continuations[i] is true when Messages[i] continues Messages[i-1].
	Continuations []bool
}

type Service struct {
	repo       Repository
	publisher  Publisher
	orderer    Orderer
	pool       string
	editWindow time.Duration
	now        func() time.Time
}

func New(db *database.Database, publisher Publisher, opts Options) *Service {
	return NewWithRepository(NewDynamoRepository(db), publisher, opts, time.Now)
}

func NewWithRepository(repo Repository, publisher Publisher, opts Options, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	editWindow := opts.EditWindow
	if editWindow <= 0 {
		editWindow = DefaultEditWindow
	}
	return &Service{
		repo:       repo,
		publisher:  publisher,
		orderer:    NewOrderer(opts.ContinuationWindow),
		pool:       strings.TrimSpace(opts.PoolIdentity),
		editWindow: editWindow,
		now:        now,
	}
}

func (s *Service) Orderer() Orderer {
	return s.orderer
}

// ConversationFor returns the conversation id of a customer.
func (s *Service) ConversationFor(customer string) (string, error) {
	conversationID, err := identity.CustomerConversationKey(strings.TrimSpace(customer), s.pool)
	if err != nil {
		return "", newError(ErrorCodeValidation, "invalid identity", err)
	}
	return conversationID, nil
}

func (s *Service) PostCustomerMessage(ctx context.Context, customer string, params SendParams) (MessageResult, error) {
	customer = strings.TrimSpace(customer)
	conversationID, err := s.ConversationFor(customer)
	if err != nil {
		return MessageResult{}, err
	}
	return s.send(ctx, conversationID, customer, customer, s.pool, params)
}

// PostStaffMessage replies in an existing customer conversation.
func (s *Service) PostStaffMessage(ctx context.Context, admin, conversationID string, params SendParams) (MessageResult, error) {
	admin = strings.TrimSpace(admin)
	if admin == "" {
		return MessageResult{}, newError(ErrorCodeValidation, "invalid identity", identity.ErrInvalidIdentity)
	}
	customer, err := s.customerOf(ctx, conversationID)
	if err != nil {
		return MessageResult{}, err
	}
	if customer == admin {
		return MessageResult{}, newError(ErrorCodeValidation, "sender and receiver must differ", nil)
	}
	return s.send(ctx, conversationID, customer, admin, customer, params)
}

func (s *Service) send(ctx context.Context, conversationID, customer, sender, receiver string, params SendParams) (MessageResult, error) {
	kind := model.MessageKindText
	if strings.TrimSpace(params.Kind) != "" {
		parsed, ok := model.ParseMessageKind(params.Kind)
		if !ok {
			return MessageResult{}, newError(ErrorCodeValidation, "unknown message kind", nil)
		}
		kind = parsed
	}
	if kind.SystemAuthored() {
		return MessageResult{}, newError(ErrorCodeForbidden, "system messages cannot be posted", nil)
	}

	body := strings.TrimSpace(params.Body)
	attachment := strings.TrimSpace(params.AttachmentRef)
	switch kind {
	case model.MessageKindAttachment:
		if attachment == "" {
			return MessageResult{}, newError(ErrorCodeValidation, "attachmentRef is required", nil)
		}
	default:
		if body == "" {
			return MessageResult{}, newError(ErrorCodeValidation, "message body is required", nil)
		}
		attachment = ""
	}

	now := s.now().UTC()
	messageID := uuid.NewString()
	message := model.MessageItem{
		PK:               model.MessagePK(conversationID, messageID),
		MessageID:        messageID,
		ConversationID:   conversationID,
		SenderIdentity:   sender,
		ReceiverIdentity: receiver,
		Body:             body,
		CreatedAt:        now.UnixMilli(),
		Kind:             kind,
		DeliveryStatus:   model.DeliveryStatusSent,
		AttachmentRef:    attachment,
	}
	summary := NextSummary(message, customer, now)

	if err := s.repo.SaveMessage(ctx, message, &summary); err != nil {
		return MessageResult{}, newError(ErrorCodeInternal, "failed to persist message", err)
	}
	s.publish(ctx, message)

	return MessageResult{Message: message, Summary: summary}, nil
}

func (s *Service) ListMessages(ctx context.Context, conversationID string, limit int) (ListMessagesResult, error) {
	conversationID = strings.TrimSpace(conversationID)
	if conversationID == "" {
		return ListMessagesResult{}, newError(ErrorCodeValidation, "conversation id is required", nil)
	}
	if limit <= 0 || limit > defaultMessageLimit {
		limit = defaultMessageLimit
	}

	messages, err := s.repo.ListMessages(ctx, conversationID, limit)
	if err != nil {
		return ListMessagesResult{}, newError(ErrorCodeInternal, "failed to list messages", err)
	}
	sorted := s.orderer.Sort(messages)
	if len(sorted) > limit {
		sorted = sorted[len(sorted)-limit:]
	}

	return ListMessagesResult{
		ConversationID: conversationID,
		Messages:       sorted,
		Continuations:  s.orderer.Continuations(sorted),
	}, nil
}

func (s *Service) CustomerMessages(ctx context.Context, customer string, limit int) (ListMessagesResult, error) {
	conversationID, err := s.ConversationFor(customer)
	if err != nil {
		return ListMessagesResult{}, err
	}
	return s.ListMessages(ctx, conversationID, limit)
}

func (s *Service) UpdateDeliveryStatus(ctx context.Context, conversationID, messageID, status string) (model.MessageItem, error) {
	target, ok := model.ParseDeliveryStatus(status)
	if !ok {
		return model.MessageItem{}, newError(ErrorCodeValidation, "unknown delivery status", ErrInvalidDeliveryTransition)
	}
	message, err := s.loadMessage(ctx, conversationID, messageID)
	if err != nil {
		return model.MessageItem{}, err
	}

	updated, err := AdvanceDelivery(message, target)
	if err != nil {
		return model.MessageItem{}, newError(ErrorCodeConflict, "invalid delivery status transition", err)
	}
	if updated.DeliveryStatus == message.DeliveryStatus {
		return updated, nil
	}

	if err := s.repo.SaveMessage(ctx, updated, nil); err != nil {
		return model.MessageItem{}, newError(ErrorCodeInternal, "failed to persist message", err)
	}
	s.publish(ctx, updated)
	return updated, nil
}

func (s *Service) EditMessage(ctx context.Context, editor, conversationID, messageID, body string) (model.MessageItem, error) {
	message, err := s.loadMessage(ctx, conversationID, messageID)
	if err != nil {
		return model.MessageItem{}, err
	}
	updated, err := Edit(message, strings.TrimSpace(editor), body, s.now().UTC(), s.editWindow)
	if err != nil {
		return model.MessageItem{}, mutationError(err)
	}
	return s.replace(ctx, updated)
}

func (s *Service) DeleteMessage(ctx context.Context, editor, conversationID, messageID string) (model.MessageItem, error) {
	message, err := s.loadMessage(ctx, conversationID, messageID)
	if err != nil {
		return model.MessageItem{}, err
	}
	if message.Deleted {
		return message, nil
	}
	updated, err := Delete(message, strings.TrimSpace(editor), s.now().UTC(), s.editWindow)
	if err != nil {
		return model.MessageItem{}, mutationError(err)
	}
	return s.replace(ctx, updated)
}

// replace stores a changed message and, when it is the head of its
// conversation, refreshes the summary body with it.
func (s *Service) replace(ctx context.Context, message model.MessageItem) (model.MessageItem, error) {
	var summary *model.ConversationSummaryItem
	current, err := s.repo.GetSummary(ctx, message.ConversationID)
	switch {
	case err == nil:
		if current.LastMessageID == message.MessageID {
			next := NextSummary(message, current.CustomerIdentity, s.now().UTC())
			summary = &next
		}
	case errors.Is(err, ErrNotFound):
	default:
		return model.MessageItem{}, newError(ErrorCodeInternal, "failed to load conversation", err)
	}

	if err := s.repo.SaveMessage(ctx, message, summary); err != nil {
		return model.MessageItem{}, newError(ErrorCodeInternal, "failed to persist message", err)
	}
	s.publish(ctx, message)
	return message, nil
}

func (s *Service) loadMessage(ctx context.Context, conversationID, messageID string) (model.MessageItem, error) {
	conversationID = strings.TrimSpace(conversationID)
	messageID = strings.TrimSpace(messageID)
	if conversationID == "" || messageID == "" {
		return model.MessageItem{}, newError(ErrorCodeValidation, "conversation id and message id are required", nil)
	}
	message, err := s.repo.GetMessage(ctx, conversationID, messageID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return model.MessageItem{}, newError(ErrorCodeNotFound, "message not found", err)
		}
		return model.MessageItem{}, newError(ErrorCodeInternal, "failed to load message", err)
	}
	return message, nil
}

// Summaries returns every stored conversation summary.
func (s *Service) Summaries(ctx context.Context) ([]model.ConversationSummaryItem, error) {
	summaries, err := s.repo.ListSummaries(ctx)
	if err != nil {
		return nil, newError(ErrorCodeInternal, "failed to list conversations", err)
	}
	return summaries, nil
}

// ArchiveConversation stores the archive flag of an existing conversation.
func (s *Service) ArchiveConversation(ctx context.Context, conversationID string, archived bool) error {
	conversationID = strings.TrimSpace(conversationID)
	if conversationID == "" {
		return newError(ErrorCodeValidation, "conversation id is required", nil)
	}
	if _, err := s.repo.GetSummary(ctx, conversationID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return newError(ErrorCodeNotFound, "conversation not found", err)
		}
		return newError(ErrorCodeInternal, "failed to load conversation", err)
	}
	if err := s.repo.SetArchived(ctx, conversationID, archived, s.now().UnixMilli()); err != nil {
		return newError(ErrorCodeInternal, "failed to archive conversation", err)
	}
	return nil
}

// SaveUnreadCounts stores the dashboard's counters so a restart can seed
// from them.
func (s *Service) SaveUnreadCounts(ctx context.Context, summary model.ConversationSummaryItem) error {
	if err := s.repo.SetUnreadCounts(ctx, summary.ConversationID, summary.UnreadCountByAdmin, s.now().UnixMilli()); err != nil {
		return newError(ErrorCodeInternal, "failed to save unread counts", err)
	}
	return nil
}

// customerOf resolves the customer side of a conversation, from its summary
// or, for a conversation without one yet, from the key itself.
func (s *Service) customerOf(ctx context.Context, conversationID string) (string, error) {
	conversationID = strings.TrimSpace(conversationID)
	if conversationID == "" {
		return "", newError(ErrorCodeValidation, "conversation id is required", nil)
	}

	summary, err := s.repo.GetSummary(ctx, conversationID)
	if err == nil && summary.CustomerIdentity != "" {
		return summary.CustomerIdentity, nil
	}
	if err != nil && !errors.Is(err, ErrNotFound) {
		return "", newError(ErrorCodeInternal, "failed to load conversation", err)
	}

	first, second, ok := identity.SplitConversationKey(conversationID)
	if ok {
		switch s.pool {
		case first:
			return second, nil
		case second:
			return first, nil
		}
	}
	return "", newError(ErrorCodeNotFound, "conversation not found", ErrNotFound)
}

func (s *Service) publish(ctx context.Context, message model.MessageItem) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishUpsert(ctx, message.ConversationID, message); err != nil {
		log.Printf("chat: publish message %s: %v", message.MessageID, err)
	}
}

func mutationError(err error) error {
	switch {
	case errors.Is(err, ErrNotSender):
		return newError(ErrorCodeForbidden, "only the sender may change this message", err)
	case errors.Is(err, ErrImmutableMessage):
		return newError(ErrorCodeForbidden, "message cannot be changed", err)
	case errors.Is(err, ErrEditWindowExpired):
		return newError(ErrorCodeConflict, "edit window has expired", err)
	default:
		return newError(ErrorCodeValidation, err.Error(), err)
	}
}

// NextSummary is the summary state after message becomes the latest entry of
// its conversation. Unread counters belong to the dashboard and stay empty.
func NextSummary(message model.MessageItem, customer string, now time.Time) model.ConversationSummaryItem {
	return model.ConversationSummaryItem{
		ConversationID:     message.ConversationID,
		CustomerIdentity:   customer,
		LastMessageID:      message.MessageID,
		LastMessageBody:    message.Body,
		LastMessageAt:      message.CreatedAt,
		LastSenderIdentity: message.SenderIdentity,
		CreatedAt:          now.UnixMilli(),
		UpdatedAt:          now.UnixMilli(),
	}
}
