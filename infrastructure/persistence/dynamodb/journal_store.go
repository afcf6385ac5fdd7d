// Package dynamodb implements the journal store on a DynamoDB table keyed by
// a string partition key "id".
package dynamodb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"journals-backend/application/ports"
	"journals-backend/domain/journal"
	"journals-backend/infrastructure/persistence/connection"
	apperrors "journals-backend/pkg/errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	keyAttribute       = "id"
	createdAtAttribute = "created_at"

	// createdAtLayout is fixed width so string order matches time order.
	createdAtLayout = "2006-01-02T15:04:05.000000000Z"
)

// DBClient defines the DynamoDB operations the store uses, making it testable.
type DBClient interface {
	DescribeTable(ctx context.Context, params *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
}

// ClientFactory builds the client on first dial.
type ClientFactory func(ctx context.Context) (DBClient, error)

// item is the stored shape
type item struct {
	journal.Journal
	CreatedAt string `dynamodbav:"created_at"`
}

// JournalStore is a DynamoDB-backed ports.JournalStore
type JournalStore struct {
	tableName string
	factory   ClientFactory
	logger    *zap.Logger
	now       func() time.Time

	mu     sync.RWMutex
	client DBClient

	reporterMu sync.RWMutex
	reporter   connection.Reporter
}

// NewJournalStore creates a store that builds its client lazily via factory
func NewJournalStore(tableName string, factory ClientFactory, logger *zap.Logger) *JournalStore {
	return &JournalStore{
		tableName: tableName,
		factory:   factory,
		logger:    logger,
		now:       time.Now,
	}
}

// SetReporter registers the receiver of transport failure reports
func (s *JournalStore) SetReporter(r connection.Reporter) {
	s.reporterMu.Lock()
	defer s.reporterMu.Unlock()
	s.reporter = r
}

// Dial implements connection.Dialer. It creates the client if needed and
// checks the table is usable.
func (s *JournalStore) Dial(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.client == nil {
		client, err := s.factory(ctx)
		if err != nil {
			return fmt.Errorf("failed to create dynamodb client: %w", err)
		}
		s.client = client
	}

	out, err := s.client.DescribeTable(ctx, &dynamodb.DescribeTableInput{
		TableName: aws.String(s.tableName),
	})
	if err != nil {
		return fmt.Errorf("failed to describe table %s: %w", s.tableName, err)
	}
	if out.Table == nil {
		return fmt.Errorf("table %s has no description", s.tableName)
	}
	switch out.Table.TableStatus {
	case types.TableStatusActive, types.TableStatusUpdating:
		return nil
	default:
		return fmt.Errorf("table %s is %s", s.tableName, out.Table.TableStatus)
	}
}

func (s *JournalStore) db() (DBClient, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.client == nil {
		return nil, apperrors.NewConnection("record store not connected", errors.New("dynamodb client not initialized"))
	}
	return s.client, nil
}

// List scans the table and returns journals in creation order
func (s *JournalStore) List(ctx context.Context, opts ports.ListOptions) ([]journal.Journal, error) {
	client, err := s.db()
	if err != nil {
		return nil, err
	}

	input := &dynamodb.ScanInput{TableName: aws.String(s.tableName)}
	if len(opts.Fields) > 0 {
		proj := expression.NamesList(expression.Name(keyAttribute), expression.Name(createdAtAttribute))
		for _, f := range opts.Fields {
			proj = proj.AddNames(expression.Name(f))
		}
		expr, err := expression.NewBuilder().WithProjection(proj).Build()
		if err != nil {
			return nil, apperrors.NewStore("failed to build projection", err)
		}
		input.ProjectionExpression = expr.Projection()
		input.ExpressionAttributeNames = expr.Names()
	}

	var items []item
	paginator := dynamodb.NewScanPaginator(client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, s.storeError("failed to list journals", err)
		}
		var batch []item
		if err := attributevalue.UnmarshalListOfMaps(page.Items, &batch); err != nil {
			return nil, apperrors.NewStore("failed to decode journals", err)
		}
		items = append(items, batch...)
	}

	sort.SliceStable(items, func(i, j int) bool {
		if items[i].CreatedAt != items[j].CreatedAt {
			return items[i].CreatedAt < items[j].CreatedAt
		}
		return items[i].ID < items[j].ID
	})

	journals := make([]journal.Journal, 0, len(items))
	for _, it := range items {
		journals = append(journals, it.Journal)
	}
	return journals, nil
}

// Create puts a new item under a fresh uuid
func (s *JournalStore) Create(ctx context.Context, fields journal.Fields) (journal.Journal, error) {
	client, err := s.db()
	if err != nil {
		return journal.Journal{}, err
	}

	it := item{
		Journal:   journal.Journal{ID: uuid.NewString(), Fields: fields},
		CreatedAt: s.now().UTC().Format(createdAtLayout),
	}
	av, err := attributevalue.MarshalMap(it)
	if err != nil {
		return journal.Journal{}, apperrors.NewValidation(fmt.Sprintf("journal cannot be stored: %v", err))
	}

	expr, err := expression.NewBuilder().
		WithCondition(expression.AttributeNotExists(expression.Name(keyAttribute))).
		Build()
	if err != nil {
		return journal.Journal{}, apperrors.NewStore("failed to build expression", err)
	}

	_, err = client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:                aws.String(s.tableName),
		Item:                     av,
		ConditionExpression:      expr.Condition(),
		ExpressionAttributeNames: expr.Names(),
	})
	if err != nil {
		return journal.Journal{}, s.storeError("failed to create journal", err)
	}

	s.logger.Debug("Journal created", zap.String("id", it.ID))
	return it.Journal, nil
}

// Update sets the supplied attributes on an existing item
func (s *JournalStore) Update(ctx context.Context, id string, patch journal.Patch) (journal.Journal, error) {
	client, err := s.db()
	if err != nil {
		return journal.Journal{}, err
	}
	key := map[string]types.AttributeValue{
		keyAttribute: &types.AttributeValueMemberS{Value: id},
	}

	if patch.IsEmpty() {
		out, err := client.GetItem(ctx, &dynamodb.GetItemInput{
			TableName: aws.String(s.tableName),
			Key:       key,
		})
		if err != nil {
			return journal.Journal{}, s.storeError("failed to get journal", err)
		}
		if out.Item == nil {
			return journal.Journal{}, apperrors.NewNotFound("Journal not found")
		}
		return decodeJournal(out.Item)
	}

	values, err := patchValues(patch)
	if err != nil {
		return journal.Journal{}, apperrors.NewValidation(err.Error())
	}
	var update expression.UpdateBuilder
	for name, value := range values {
		update = update.Set(expression.Name(name), expression.Value(value))
	}

	expr, err := expression.NewBuilder().
		WithUpdate(update).
		WithCondition(expression.AttributeExists(expression.Name(keyAttribute))).
		Build()
	if err != nil {
		return journal.Journal{}, apperrors.NewStore("failed to build expression", err)
	}

	out, err := client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(s.tableName),
		Key:                       key,
		UpdateExpression:          expr.Update(),
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ReturnValues:              types.ReturnValueAllNew,
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return journal.Journal{}, apperrors.NewNotFound("Journal not found")
		}
		return journal.Journal{}, s.storeError("failed to update journal", err)
	}
	return decodeJournal(out.Attributes)
}

// Delete removes an existing item
func (s *JournalStore) Delete(ctx context.Context, id string) error {
	client, err := s.db()
	if err != nil {
		return err
	}

	expr, err := expression.NewBuilder().
		WithCondition(expression.AttributeExists(expression.Name(keyAttribute))).
		Build()
	if err != nil {
		return apperrors.NewStore("failed to build expression", err)
	}

	_, err = client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(s.tableName),
		Key: map[string]types.AttributeValue{
			keyAttribute: &types.AttributeValueMemberS{Value: id},
		},
		ConditionExpression:      expr.Condition(),
		ExpressionAttributeNames: expr.Names(),
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return apperrors.NewNotFound("Journal not found")
		}
		return s.storeError("failed to delete journal", err)
	}
	return nil
}

// storeError classifies an SDK error. An error without a service response,
// or a missing table, means the link is unusable and is reported.
func (s *JournalStore) storeError(message string, err error) error {
	var apiErr smithy.APIError
	switch {
	case errors.Is(err, context.Canceled):
	case !errors.As(err, &apiErr):
		s.report(err)
	case apiErr.ErrorCode() == "ResourceNotFoundException":
		s.report(err)
	}
	return apperrors.NewStore(message, err)
}

func (s *JournalStore) report(err error) {
	s.reporterMu.RLock()
	r := s.reporter
	s.reporterMu.RUnlock()
	if r != nil {
		r.Invalidate(err)
	}
}

func decodeJournal(av map[string]types.AttributeValue) (journal.Journal, error) {
	var it item
	if err := attributevalue.UnmarshalMap(av, &it); err != nil {
		return journal.Journal{}, apperrors.NewStore("failed to decode journal", err)
	}
	return it.Journal, nil
}

// patchValues returns the supplied attributes of patch keyed by wire name.
func patchValues(patch journal.Patch) (map[string]any, error) {
	raw, err := json.Marshal(patch)
	if err != nil {
		return nil, fmt.Errorf("invalid journal patch: %w", err)
	}
	values := make(map[string]any)
	if err := json.Unmarshal(raw, &values); err != nil {
		return nil, fmt.Errorf("invalid journal patch: %w", err)
	}
	return values, nil
}
