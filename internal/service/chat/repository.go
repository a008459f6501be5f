package chat

import (
	"context"
	"errors"

	"quote-desk-backend/internal/database"
	"quote-desk-backend/internal/model"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

var ErrNotFound = errors.New("chat repository: not found")

type Repository interface {
	GetMessage(ctx context.Context, conversationID, messageID string) (model.MessageItem, error)
	ListMessages(ctx context.Context, conversationID string, limit int) ([]model.MessageItem, error)
	GetSummary(ctx context.Context, conversationID string) (model.ConversationSummaryItem, error)
	ListSummaries(ctx context.Context) ([]model.ConversationSummaryItem, error)
	// SaveMessage writes the message and, when summary is not nil, its
	// last-message fields in a single transaction.
	SaveMessage(ctx context.Context, message model.MessageItem, summary *model.ConversationSummaryItem) error
	SetArchived(ctx context.Context, conversationID string, archived bool, updatedAt int64) error
	SetUnreadCounts(ctx context.Context, conversationID string, counts map[string]int, updatedAt int64) error
}

type DynamoRepository struct {
	db *database.Database
}

func NewDynamoRepository(db *database.Database) Repository {
	return &DynamoRepository{db: db}
}

func (r *DynamoRepository) GetMessage(ctx context.Context, conversationID, messageID string) (model.MessageItem, error) {
	var message model.MessageItem
	err := r.db.Client.GetItem(
		ctx,
		model.MessagesTable,
		map[string]types.AttributeValue{
			"pk": database.AttrString(model.MessagePK(conversationID, messageID)),
		},
		&message,
	)
	if err != nil {
		if database.IsNotFound(err) {
			return model.MessageItem{}, ErrNotFound
		}
		return model.MessageItem{}, err
	}
	return message, nil
}

// ListMessages returns up to limit of the newest messages, unordered; the
// service sorts them.
func (r *DynamoRepository) ListMessages(ctx context.Context, conversationID string, limit int) ([]model.MessageItem, error) {
	items, err := r.db.Client.QueryPage(
		ctx,
		model.MessagesTable,
		aws.String(model.MessagesByConversationIndex),
		"conversationId = :conversationId",
		map[string]types.AttributeValue{
			":conversationId": database.AttrString(conversationID),
		},
		false,
		limit,
	)
	if err != nil && !database.IsIndexNotFound(err) {
		return nil, err
	}

	if err != nil {
		items, err = r.db.Client.ScanAll(
			ctx,
			model.MessagesTable,
			"conversationId = :conversationId",
			map[string]types.AttributeValue{
				":conversationId": database.AttrString(conversationID),
			},
			nil,
		)
		if err != nil {
			return nil, err
		}
	}

	messages := make([]model.MessageItem, 0, len(items))
	for _, item := range items {
		var message model.MessageItem
		if err := attributevalue.UnmarshalMap(item, &message); err != nil {
			return nil, err
		}
		messages = append(messages, message)
	}
	return messages, nil
}

func (r *DynamoRepository) GetSummary(ctx context.Context, conversationID string) (model.ConversationSummaryItem, error) {
	var summary model.ConversationSummaryItem
	err := r.db.Client.GetItem(
		ctx,
		model.ConversationSummariesTable,
		summaryKey(conversationID),
		&summary,
	)
	if err != nil {
		if database.IsNotFound(err) {
			return model.ConversationSummaryItem{}, ErrNotFound
		}
		return model.ConversationSummaryItem{}, err
	}
	return summary, nil
}

func (r *DynamoRepository) ListSummaries(ctx context.Context) ([]model.ConversationSummaryItem, error) {
	items, err := r.db.Client.ScanAll(ctx, model.ConversationSummariesTable, "", nil, nil)
	if err != nil {
		return nil, err
	}
	summaries := make([]model.ConversationSummaryItem, 0, len(items))
	for _, item := range items {
		var summary model.ConversationSummaryItem
		if err := attributevalue.UnmarshalMap(item, &summary); err != nil {
			return nil, err
		}
		summaries = append(summaries, summary)
	}
	return summaries, nil
}

func (r *DynamoRepository) SaveMessage(ctx context.Context, message model.MessageItem, summary *model.ConversationSummaryItem) error {
	put, err := MessageWrite(message)
	if err != nil {
		return err
	}
	if summary == nil {
		return r.db.Client.TransactWrite(ctx, put)
	}
	err = r.db.Client.TransactWrite(ctx, put, SummaryWrite(*summary))
	if database.ConditionFailedAt(err, 1) {
		// a newer message already heads the summary
		return r.db.Client.TransactWrite(ctx, put)
	}
	return err
}

// MessageWrite is the transaction item that stores a message.
func MessageWrite(message model.MessageItem) (types.TransactWriteItem, error) {
	return database.TransactPut(model.MessagesTable, message, "", nil, nil)
}

// SummaryHeadCondition lets a summary write through only when its message
// is not older than the stored head, ordered by (lastMessageAt, lastMessageId).
// Rewriting the current head, for edits, passes.
const SummaryHeadCondition = "attribute_not_exists(#lastAt) OR #lastAt < :lastAt OR (#lastAt = :lastAt AND #lastId <= :lastId)"

// SummaryWrite is the transaction item that moves a summary to a new last
// message. Unread counters and the archived flag are not touched; createdAt
// and customerIdentity are only set on the first write. The write fails its
// condition when a newer message already heads the summary.
func SummaryWrite(summary model.ConversationSummaryItem) types.TransactWriteItem {
	return database.TransactUpdate(
		model.ConversationSummariesTable,
		summaryKey(summary.ConversationID),
		"SET #customer = if_not_exists(#customer, :customer), #createdAt = if_not_exists(#createdAt, :createdAt), "+
			"#lastId = :lastId, #lastBody = :lastBody, #lastAt = :lastAt, #lastSender = :lastSender, #updatedAt = :updatedAt",
		SummaryHeadCondition,
		map[string]types.AttributeValue{
			":customer":   database.AttrString(summary.CustomerIdentity),
			":createdAt":  database.AttrNumber(summary.CreatedAt),
			":lastId":     database.AttrString(summary.LastMessageID),
			":lastBody":   database.AttrString(summary.LastMessageBody),
			":lastAt":     database.AttrNumber(summary.LastMessageAt),
			":lastSender": database.AttrString(summary.LastSenderIdentity),
			":updatedAt":  database.AttrNumber(summary.UpdatedAt),
		},
		map[string]string{
			"#customer":   "customerIdentity",
			"#createdAt":  "createdAt",
			"#lastId":     "lastMessageId",
			"#lastBody":   "lastMessageBody",
			"#lastAt":     "lastMessageAt",
			"#lastSender": "lastSenderIdentity",
			"#updatedAt":  "updatedAt",
		},
	)
}

func (r *DynamoRepository) SetArchived(ctx context.Context, conversationID string, archived bool, updatedAt int64) error {
	err := r.db.Client.UpdateItem(
		ctx,
		model.ConversationSummariesTable,
		summaryKey(conversationID),
		"SET #archived = :archived, #updatedAt = :updatedAt",
		map[string]types.AttributeValue{
			":archived":  &types.AttributeValueMemberBOOL{Value: archived},
			":updatedAt": database.AttrNumber(updatedAt),
		},
		map[string]string{
			"#archived":  "archived",
			"#updatedAt": "updatedAt",
		},
		nil,
	)
	if database.IsNotFound(err) {
		return ErrNotFound
	}
	return err
}

func (r *DynamoRepository) SetUnreadCounts(ctx context.Context, conversationID string, counts map[string]int, updatedAt int64) error {
	if counts == nil {
		counts = map[string]int{}
	}
	av, err := attributevalue.Marshal(counts)
	if err != nil {
		return err
	}
	return r.db.Client.UpdateItem(
		ctx,
		model.ConversationSummariesTable,
		summaryKey(conversationID),
		"SET #unread = :unread, #updatedAt = :updatedAt",
		map[string]types.AttributeValue{
			":unread":    av,
			":updatedAt": database.AttrNumber(updatedAt),
		},
		map[string]string{
			"#unread":    "unreadCountByAdmin",
			"#updatedAt": "updatedAt",
		},
		nil,
	)
}

func summaryKey(conversationID string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"conversationId": database.AttrString(conversationID),
	}
}
