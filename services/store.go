package services

import (
	"context"
	"errors"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

var (
	// ErrItemNotFound is returned by GetItem when no record exists for the key.
	ErrItemNotFound = errors.New("item not found")

	// ErrConditionFailed is returned when a conditional write loses: the record
	// already exists for create-if-absent writes, or a guarded field no longer
	// holds the expected value for conditional updates. Handlers treat it as
	// "the race is already resolved", not as a failure.
	ErrConditionFailed = errors.New("conditional write failed")
)

// Store is the durable-store surface the pipeline runs on. All coordination
// between concurrently running handlers happens through these primitives;
// nothing in the pipeline relies on in-process state.
//
// DynamoService implements it against DynamoDB; MemoryStore implements the
// same conditional semantics in memory for tests and local development.
type Store interface {
	// PutItem writes an item unconditionally.
	PutItem(ctx context.Context, tableName string, item interface{}) error

	// PutItemIfAbsent writes an item only if no item with the same value of
	// keyAttr exists yet. Returns ErrConditionFailed if one does.
	PutItemIfAbsent(ctx context.Context, tableName string, item interface{}, keyAttr string) error

	// TransactPutIfAbsent writes all items in one atomic transaction, each
	// conditioned on keyAttr not existing. Either every item appears or none
	// does; ErrConditionFailed if any of them already exists.
	TransactPutIfAbsent(ctx context.Context, tableName string, items []interface{}, keyAttr string) error

	// GetItem retrieves a single item; ErrItemNotFound if absent.
	GetItem(ctx context.Context, tableName string, key map[string]types.AttributeValue) (map[string]types.AttributeValue, error)

	// QueryByPK returns items sharing a partition key value.
	QueryByPK(ctx context.Context, tableName, pkAttr, pkValue string, limit int32) ([]map[string]types.AttributeValue, error)

	// QueryByPrefix returns items under one partition key whose sort key starts
	// with skPrefix, newest first when latestFirst is set.
	QueryByPrefix(ctx context.Context, tableName, pkAttr, pkValue, skAttr, skPrefix string, limit int32, latestFirst bool) ([]map[string]types.AttributeValue, error)

	// Scan returns every item of a table. Used for access patterns the key
	// schema does not serve; callers filter in code.
	Scan(ctx context.Context, tableName string) ([]map[string]types.AttributeValue, error)

	// UpdateFields sets the given attributes on an existing item, conditioned
	// on every attribute in conditionEquals currently holding the given value.
	// ErrConditionFailed if the item is absent or a guard does not hold.
	UpdateFields(ctx context.Context, tableName string, key map[string]types.AttributeValue, set map[string]types.AttributeValue, conditionEquals map[string]types.AttributeValue) error
}
