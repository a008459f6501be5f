package quotation

import (
	"context"
	"errors"
	"sort"

	"quote-desk-backend/internal/database"
	"quote-desk-backend/internal/model"
	"quote-desk-backend/internal/service/chat"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

var (
	ErrNotFound = errors.New("quotation repository: not found")
	// ErrStatusConflict means the stored status no longer matches the one the
	// change was computed from.
	ErrStatusConflict = errors.New("quotation repository: status changed concurrently")
)

type Repository interface {
	Create(ctx context.Context, q model.QuotationItem) error
	Get(ctx context.Context, quotationID string) (model.QuotationItem, error)
	ListByCustomer(ctx context.Context, customer string) ([]model.QuotationItem, error)
	// List returns every quotation, or only those in status when it is set.
	List(ctx context.Context, status model.QuotationStatus) ([]model.QuotationItem, error)
	// CommitStatusChange stores q, the status message and the summary update
	// in one transaction, provided the stored status is still previous.
	CommitStatusChange(ctx context.Context, q model.QuotationItem, previous model.QuotationStatus, message model.MessageItem, summary model.ConversationSummaryItem) error
}

type DynamoRepository struct {
	db *database.Database
}

func NewDynamoRepository(db *database.Database) Repository {
	return &DynamoRepository{db: db}
}

func (r *DynamoRepository) Create(ctx context.Context, q model.QuotationItem) error {
	put, err := database.TransactPut(
		model.QuotationsTable,
		q,
		"attribute_not_exists(#id)",
		nil,
		map[string]string{"#id": "quotationId"},
	)
	if err != nil {
		return err
	}
	err = r.db.Client.TransactWrite(ctx, put)
	if database.IsConditionFailed(err) {
		return ErrStatusConflict
	}
	return err
}

func (r *DynamoRepository) Get(ctx context.Context, quotationID string) (model.QuotationItem, error) {
	var q model.QuotationItem
	err := r.db.Client.GetItem(
		ctx,
		model.QuotationsTable,
		map[string]types.AttributeValue{
			"quotationId": database.AttrString(quotationID),
		},
		&q,
	)
	if err != nil {
		if database.IsNotFound(err) {
			return model.QuotationItem{}, ErrNotFound
		}
		return model.QuotationItem{}, err
	}
	return q, nil
}

func (r *DynamoRepository) ListByCustomer(ctx context.Context, customer string) ([]model.QuotationItem, error) {
	values := map[string]types.AttributeValue{
		":customer": database.AttrString(customer),
	}
	items, err := r.db.Client.QueryAll(
		ctx,
		model.QuotationsTable,
		aws.String(model.QuotationsByCustomerIndex),
		"customerIdentity = :customer",
		values,
		nil,
	)
	if err != nil {
		if !database.IsIndexNotFound(err) {
			return nil, err
		}
		items, err = r.db.Client.ScanAll(ctx, model.QuotationsTable, "customerIdentity = :customer", values, nil)
		if err != nil {
			return nil, err
		}
	}
	return unmarshalQuotations(items)
}

func (r *DynamoRepository) List(ctx context.Context, status model.QuotationStatus) ([]model.QuotationItem, error) {
	if status == "" {
		items, err := r.db.Client.ScanAll(ctx, model.QuotationsTable, "", nil, nil)
		if err != nil {
			return nil, err
		}
		return unmarshalQuotations(items)
	}

	values := map[string]types.AttributeValue{
		":status": database.AttrString(string(status)),
	}
	names := map[string]string{"#status": "status"}
	items, err := r.db.Client.QueryAll(
		ctx,
		model.QuotationsTable,
		aws.String(model.QuotationsByStatusIndex),
		"#status = :status",
		values,
		names,
	)
	if err != nil {
		if !database.IsIndexNotFound(err) {
			return nil, err
		}
		items, err = r.db.Client.ScanAll(ctx, model.QuotationsTable, "#status = :status", values, names)
		if err != nil {
			return nil, err
		}
	}
	return unmarshalQuotations(items)
}

func (r *DynamoRepository) CommitStatusChange(ctx context.Context, q model.QuotationItem, previous model.QuotationStatus, message model.MessageItem, summary model.ConversationSummaryItem) error {
	quotationPut, err := database.TransactPut(
		model.QuotationsTable,
		q,
		"#status = :previous",
		map[string]types.AttributeValue{
			":previous": database.AttrString(string(previous)),
		},
		map[string]string{"#status": "status"},
	)
	if err != nil {
		return err
	}
	messagePut, err := chat.MessageWrite(message)
	if err != nil {
		return err
	}

	err = r.db.Client.TransactWrite(ctx, quotationPut, messagePut, chat.SummaryWrite(summary))
	if database.ConditionFailedAt(err, 2) && !database.ConditionFailedAt(err, 0) {
		// the status message is older than the summary head; keep the head
		err = r.db.Client.TransactWrite(ctx, quotationPut, messagePut)
	}
	if database.IsConditionFailed(err) {
		return ErrStatusConflict
	}
	return err
}

func unmarshalQuotations(items []map[string]types.AttributeValue) ([]model.QuotationItem, error) {
	out := make([]model.QuotationItem, 0, len(items))
	for _, item := range items {
		var q model.QuotationItem
		if err := attributevalue.UnmarshalMap(item, &q); err != nil {
			return nil, err
		}
		out = append(out, q)
	}
	sortNewestFirst(out)
	return out, nil
}

func sortNewestFirst(items []model.QuotationItem) {
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].CreatedAt != items[j].CreatedAt {
			return items[i].CreatedAt > items[j].CreatedAt
		}
		return items[i].ID < items[j].ID
	})
}
