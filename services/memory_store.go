package services

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"

	"gitalong_server/models"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// MemoryStore implements Store in memory with the same conditional-write
// semantics as DynamoDB. A single mutex stands in for DynamoDB's per-item
// atomicity, which makes it safe to exercise the pipeline's races from
// concurrent goroutines in tests and to run the server with STORE=memory.
type MemoryStore struct {
	mu        sync.Mutex
	tables    map[string]map[string]map[string]types.AttributeValue
	tableKeys map[string][]string
}

// NewMemoryStore creates an empty in-memory store preloaded with the key
// schema of every table the server uses.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		tables: map[string]map[string]map[string]types.AttributeValue{},
		tableKeys: map[string][]string{
			models.SwipesTable:           {"PK", "SK"},
			models.MatchesTable:          {"id"},
			models.NotificationJobsTable: {"id"},
			models.UserProfilesTable:     {"userId"},
		},
	}
}

func (ms *MemoryStore) keySchema(tableName string) ([]string, error) {
	schema, ok := ms.tableKeys[tableName]
	if !ok {
		return nil, fmt.Errorf("unknown table '%s'", tableName)
	}
	return schema, nil
}

func compositeKey(item map[string]types.AttributeValue, schema []string) (string, error) {
	parts := make([]string, 0, len(schema))
	for _, attr := range schema {
		s, ok := item[attr].(*types.AttributeValueMemberS)
		if !ok {
			return "", fmt.Errorf("missing key attribute '%s'", attr)
		}
		parts = append(parts, s.Value)
	}
	return strings.Join(parts, "\x00"), nil
}

func (ms *MemoryStore) table(tableName string) map[string]map[string]types.AttributeValue {
	t, ok := ms.tables[tableName]
	if !ok {
		t = map[string]map[string]types.AttributeValue{}
		ms.tables[tableName] = t
	}
	return t
}

// PutItem writes an item unconditionally.
func (ms *MemoryStore) PutItem(ctx context.Context, tableName string, item interface{}) error {
	marshaled, err := attributevalue.MarshalMap(item)
	if err != nil {
		return fmt.Errorf("failed to marshal item: %w", err)
	}
	schema, err := ms.keySchema(tableName)
	if err != nil {
		return err
	}
	key, err := compositeKey(marshaled, schema)
	if err != nil {
		return err
	}

	ms.mu.Lock()
	defer ms.mu.Unlock()
	ms.table(tableName)[key] = marshaled
	return nil
}

// PutItemIfAbsent writes the item only if no item with the same key exists.
func (ms *MemoryStore) PutItemIfAbsent(ctx context.Context, tableName string, item interface{}, keyAttr string) error {
	marshaled, err := attributevalue.MarshalMap(item)
	if err != nil {
		return fmt.Errorf("failed to marshal item: %w", err)
	}
	schema, err := ms.keySchema(tableName)
	if err != nil {
		return err
	}
	key, err := compositeKey(marshaled, schema)
	if err != nil {
		return err
	}

	ms.mu.Lock()
	defer ms.mu.Unlock()
	t := ms.table(tableName)
	if _, exists := t[key]; exists {
		return ErrConditionFailed
	}
	t[key] = marshaled
	return nil
}

// TransactPutIfAbsent writes all items under one lock: every condition is
// checked before anything is written, so the batch is all-or-nothing.
func (ms *MemoryStore) TransactPutIfAbsent(ctx context.Context, tableName string, items []interface{}, keyAttr string) error {
	schema, err := ms.keySchema(tableName)
	if err != nil {
		return err
	}

	marshaled := make([]map[string]types.AttributeValue, 0, len(items))
	keys := make([]string, 0, len(items))
	for _, item := range items {
		m, err := attributevalue.MarshalMap(item)
		if err != nil {
			return fmt.Errorf("failed to marshal item: %w", err)
		}
		key, err := compositeKey(m, schema)
		if err != nil {
			return err
		}
		marshaled = append(marshaled, m)
		keys = append(keys, key)
	}

	ms.mu.Lock()
	defer ms.mu.Unlock()
	t := ms.table(tableName)
	for _, key := range keys {
		if _, exists := t[key]; exists {
			return ErrConditionFailed
		}
	}
	for i, key := range keys {
		t[key] = marshaled[i]
	}
	return nil
}

// GetItem retrieves a single item; ErrItemNotFound if absent.
func (ms *MemoryStore) GetItem(ctx context.Context, tableName string, key map[string]types.AttributeValue) (map[string]types.AttributeValue, error) {
	schema, err := ms.keySchema(tableName)
	if err != nil {
		return nil, err
	}
	composite, err := compositeKey(key, schema)
	if err != nil {
		return nil, err
	}

	ms.mu.Lock()
	defer ms.mu.Unlock()
	item, exists := ms.table(tableName)[composite]
	if !exists {
		return nil, ErrItemNotFound
	}
	return copyItem(item), nil
}

// QueryByPK returns items sharing a partition key value, sorted by sort key.
func (ms *MemoryStore) QueryByPK(ctx context.Context, tableName, pkAttr, pkValue string, limit int32) ([]map[string]types.AttributeValue, error) {
	return ms.QueryByPrefix(ctx, tableName, pkAttr, pkValue, "", "", limit, false)
}

// QueryByPrefix returns items under one partition key whose sort key begins
// with skPrefix, newest first when latestFirst is set.
func (ms *MemoryStore) QueryByPrefix(ctx context.Context, tableName, pkAttr, pkValue, skAttr, skPrefix string, limit int32, latestFirst bool) ([]map[string]types.AttributeValue, error) {
	schema, err := ms.keySchema(tableName)
	if err != nil {
		return nil, err
	}
	sortAttr := skAttr
	if sortAttr == "" && len(schema) > 1 {
		sortAttr = schema[1]
	}

	ms.mu.Lock()
	var matched []map[string]types.AttributeValue
	for _, item := range ms.table(tableName) {
		pk, ok := item[pkAttr].(*types.AttributeValueMemberS)
		if !ok || pk.Value != pkValue {
			continue
		}
		if skPrefix != "" {
			sk, ok := item[skAttr].(*types.AttributeValueMemberS)
			if !ok || !strings.HasPrefix(sk.Value, skPrefix) {
				continue
			}
		}
		matched = append(matched, copyItem(item))
	}
	ms.mu.Unlock()

	if sortAttr != "" {
		sort.Slice(matched, func(i, j int) bool {
			a, _ := matched[i][sortAttr].(*types.AttributeValueMemberS)
			b, _ := matched[j][sortAttr].(*types.AttributeValueMemberS)
			if a == nil || b == nil {
				return false
			}
			if latestFirst {
				return a.Value > b.Value
			}
			return a.Value < b.Value
		})
	}
	if limit > 0 && int32(len(matched)) > limit {
		matched = matched[:limit]
	}
	return matched, nil
}

// Scan returns every item of a table.
func (ms *MemoryStore) Scan(ctx context.Context, tableName string) ([]map[string]types.AttributeValue, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	var items []map[string]types.AttributeValue
	for _, item := range ms.table(tableName) {
		items = append(items, copyItem(item))
	}
	return items, nil
}

// UpdateFields sets attributes on an existing item, guarded by equality
// conditions on the current values.
func (ms *MemoryStore) UpdateFields(ctx context.Context, tableName string, key map[string]types.AttributeValue, set map[string]types.AttributeValue, conditionEquals map[string]types.AttributeValue) error {
	schema, err := ms.keySchema(tableName)
	if err != nil {
		return err
	}
	composite, err := compositeKey(key, schema)
	if err != nil {
		return err
	}

	ms.mu.Lock()
	defer ms.mu.Unlock()
	item, exists := ms.table(tableName)[composite]
	if !exists {
		return ErrConditionFailed
	}
	for attr, expected := range conditionEquals {
		if !reflect.DeepEqual(item[attr], expected) {
			return ErrConditionFailed
		}
	}
	for attr, value := range set {
		item[attr] = value
	}
	return nil
}

func copyItem(item map[string]types.AttributeValue) map[string]types.AttributeValue {
	out := make(map[string]types.AttributeValue, len(item))
	for k, v := range item {
		out[k] = v
	}
	return out
}
