package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// DynamoService is the production Store implementation.
type DynamoService struct {
	Client *dynamodb.Client
}

// InitializeDynamoDBClient initializes the DynamoDB client
func InitializeDynamoDBClient() *dynamodb.Client {
	cfg, err := config.LoadDefaultConfig(context.TODO(), config.WithRegion(os.Getenv("AWS_REGION")))
	if err != nil {
		log.Fatalf("Failed to load AWS config: %v", err)
	}
	return dynamodb.NewFromConfig(cfg)
}

// PutItem writes an item unconditionally.
func (ds *DynamoService) PutItem(ctx context.Context, tableName string, item interface{}) error {
	marshaledItem, err := attributevalue.MarshalMap(item)
	if err != nil {
		return fmt.Errorf("failed to marshal item: %w", err)
	}

	_, err = ds.Client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: &tableName,
		Item:      marshaledItem,
	})
	if err != nil {
		return fmt.Errorf("failed to put item in table '%s': %w", tableName, err)
	}
	return nil
}

// PutItemIfAbsent performs a create-if-absent write: the put succeeds only if
// no item with the same keyAttr exists. The losing side of a creation race
// gets ErrConditionFailed and treats the record as already created.
func (ds *DynamoService) PutItemIfAbsent(ctx context.Context, tableName string, item interface{}, keyAttr string) error {
	marshaledItem, err := attributevalue.MarshalMap(item)
	if err != nil {
		return fmt.Errorf("failed to marshal item: %w", err)
	}

	_, err = ds.Client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:                &tableName,
		Item:                     marshaledItem,
		ConditionExpression:      aws.String("attribute_not_exists(#k)"),
		ExpressionAttributeNames: map[string]string{"#k": keyAttr},
	})
	if err != nil {
		var conditionErr *types.ConditionalCheckFailedException
		if errors.As(err, &conditionErr) {
			return ErrConditionFailed
		}
		return fmt.Errorf("failed conditional put in table '%s': %w", tableName, err)
	}
	return nil
}

// TransactPutIfAbsent writes every item in a single TransactWriteItems call,
// each put conditioned on its keyAttr not existing. DynamoDB cancels the whole
// transaction if any condition fails, so the batch is all-or-nothing.
func (ds *DynamoService) TransactPutIfAbsent(ctx context.Context, tableName string, items []interface{}, keyAttr string) error {
	if len(items) == 0 {
		return nil
	}

	transactItems := make([]types.TransactWriteItem, 0, len(items))
	for _, item := range items {
		marshaledItem, err := attributevalue.MarshalMap(item)
		if err != nil {
			return fmt.Errorf("failed to marshal item: %w", err)
		}
		transactItems = append(transactItems, types.TransactWriteItem{
			Put: &types.Put{
				TableName:                &tableName,
				Item:                     marshaledItem,
				ConditionExpression:      aws.String("attribute_not_exists(#k)"),
				ExpressionAttributeNames: map[string]string{"#k": keyAttr},
			},
		})
	}

	_, err := ds.Client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: transactItems,
	})
	if err != nil {
		var canceled *types.TransactionCanceledException
		if errors.As(err, &canceled) {
			for _, reason := range canceled.CancellationReasons {
				if reason.Code != nil && *reason.Code == "ConditionalCheckFailed" {
					return ErrConditionFailed
				}
			}
		}
		return fmt.Errorf("failed transactional put in table '%s': %w", tableName, err)
	}
	return nil
}

// GetItem retrieves an item from DynamoDB
func (ds *DynamoService) GetItem(ctx context.Context, tableName string, key map[string]types.AttributeValue) (map[string]types.AttributeValue, error) {
	output, err := ds.Client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: &tableName,
		Key:       key,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get item from table '%s': %w", tableName, err)
	}

	if output.Item == nil {
		return nil, ErrItemNotFound
	}

	return output.Item, nil
}

// QueryByPK queries all items under one partition key value.
func (ds *DynamoService) QueryByPK(ctx context.Context, tableName, pkAttr, pkValue string, limit int32) ([]map[string]types.AttributeValue, error) {
	output, err := ds.Client.Query(ctx, &dynamodb.QueryInput{
		TableName:                &tableName,
		KeyConditionExpression:   aws.String("#pk = :pk"),
		ExpressionAttributeNames: map[string]string{"#pk": pkAttr},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk": &types.AttributeValueMemberS{Value: pkValue},
		},
		Limit: &limit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query table '%s': %w", tableName, err)
	}
	return output.Items, nil
}

// QueryByPrefix queries items under one partition key whose sort key begins
// with skPrefix. latestFirst flips the scan direction so the newest sort key
// comes back first.
func (ds *DynamoService) QueryByPrefix(ctx context.Context, tableName, pkAttr, pkValue, skAttr, skPrefix string, limit int32, latestFirst bool) ([]map[string]types.AttributeValue, error) {
	scanIndexForward := !latestFirst

	output, err := ds.Client.Query(ctx, &dynamodb.QueryInput{
		TableName:              &tableName,
		KeyConditionExpression: aws.String("#pk = :pk AND begins_with(#sk, :prefix)"),
		ExpressionAttributeNames: map[string]string{
			"#pk": pkAttr,
			"#sk": skAttr,
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk":     &types.AttributeValueMemberS{Value: pkValue},
			":prefix": &types.AttributeValueMemberS{Value: skPrefix},
		},
		Limit:            &limit,
		ScanIndexForward: &scanIndexForward,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query table '%s': %w", tableName, err)
	}
	return output.Items, nil
}

// Scan performs a full table scan, following pagination until exhausted.
func (ds *DynamoService) Scan(ctx context.Context, tableName string) ([]map[string]types.AttributeValue, error) {
	var items []map[string]types.AttributeValue
	var startKey map[string]types.AttributeValue

	for {
		output, err := ds.Client.Scan(ctx, &dynamodb.ScanInput{
			TableName:         &tableName,
			ExclusiveStartKey: startKey,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to scan table '%s': %w", tableName, err)
		}
		items = append(items, output.Items...)
		if output.LastEvaluatedKey == nil {
			break
		}
		startKey = output.LastEvaluatedKey
	}
	return items, nil
}

// UpdateFields sets attributes on an existing item, guarded by equality
// conditions on the current values. The item existing at all is part of the
// condition, so updates never upsert.
func (ds *DynamoService) UpdateFields(ctx context.Context, tableName string, key map[string]types.AttributeValue, set map[string]types.AttributeValue, conditionEquals map[string]types.AttributeValue) error {
	if len(set) == 0 {
		return errors.New("update failed: no attributes to set")
	}

	names := map[string]string{}
	values := map[string]types.AttributeValue{}

	var keyAttr string
	for attr := range key {
		keyAttr = attr
		break
	}
	names["#key"] = keyAttr

	setParts := make([]string, 0, len(set))
	for _, attr := range sortedAttrs(set) {
		placeholder := fmt.Sprintf("s%d", len(setParts))
		names["#"+placeholder] = attr
		values[":"+placeholder] = set[attr]
		setParts = append(setParts, fmt.Sprintf("#%s = :%s", placeholder, placeholder))
	}

	conditionParts := []string{"attribute_exists(#key)"}
	for i, attr := range sortedAttrs(conditionEquals) {
		placeholder := fmt.Sprintf("c%d", i)
		names["#"+placeholder] = attr
		values[":"+placeholder] = conditionEquals[attr]
		conditionParts = append(conditionParts, fmt.Sprintf("#%s = :%s", placeholder, placeholder))
	}

	updateExpression := "SET " + strings.Join(setParts, ", ")
	conditionExpression := strings.Join(conditionParts, " AND ")

	_, err := ds.Client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 &tableName,
		Key:                       key,
		UpdateExpression:          &updateExpression,
		ConditionExpression:       &conditionExpression,
		ExpressionAttributeNames:  names,
		ExpressionAttributeValues: values,
	})
	if err != nil {
		var conditionErr *types.ConditionalCheckFailedException
		if errors.As(err, &conditionErr) {
			return ErrConditionFailed
		}
		return fmt.Errorf("failed to update item in table '%s': %w", tableName, err)
	}
	return nil
}

// sortedAttrs keeps expression placeholders stable across invocations.
func sortedAttrs(attrs map[string]types.AttributeValue) []string {
	keys := make([]string, 0, len(attrs))
	for attr := range attrs {
		keys = append(keys, attr)
	}
	sort.Strings(keys)
	return keys
}
