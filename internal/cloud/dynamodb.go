package cloud

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"

	"github.com/ANIKETSHETTY47/ecobin-smart-trash-system/internal/domain"
)

type dynamoAPI interface {
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	Query(ctx context.Context, in *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
}

// DynamoDBClient stores the trash log of one bin in a DynamoDB table keyed
// by binId (partition) and ts in epoch milliseconds (sort).
type DynamoDBClient struct {
	svc   dynamoAPI
	table string
	binID string
	now   func() time.Time
}

// NewDynamoDBClient loads AWS configuration from the environment/credentials chain.
func NewDynamoDBClient(ctx context.Context, region, table, binID string) (*DynamoDBClient, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("unable to load SDK config: %w", err)
	}
	return newDynamoDBClient(dynamodb.NewFromConfig(cfg), table, binID), nil
}

func newDynamoDBClient(svc dynamoAPI, table, binID string) *DynamoDBClient {
	return &DynamoDBClient{svc: svc, table: table, binID: binID, now: time.Now}
}

// LogItem is the DynamoDB shape of a trash log entry.
type LogItem struct {
	BinID string `dynamodbav:"binId"`
	TS    int64  `dynamodbav:"ts"`
	ID    string `dynamodbav:"id"`
	Event string `dynamodbav:"event"`
}

func (it LogItem) toDoc() domain.EventDoc {
	return domain.EventDoc{ID: it.ID, BinID: it.BinID, Event: it.Event, TS: time.UnixMilli(it.TS).UTC()}
}

// Append writes an event stamped with the service clock. The condition keeps
// the log append-only if two writes land on the same millisecond.
func (c *DynamoDBClient) Append(ctx context.Context, event string) (domain.EventDoc, error) {
	it := LogItem{BinID: c.binID, TS: c.now().UnixMilli(), ID: uuid.NewString(), Event: event}

	item, err := attributevalue.MarshalMap(it)
	if err != nil {
		return domain.EventDoc{}, fmt.Errorf("failed to marshal event: %w", err)
	}

	_, err = c.svc.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(c.table),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(#ts)"),
		ExpressionAttributeNames: map[string]string{
			"#ts": "ts",
		},
	})
	if err != nil {
		return domain.EventDoc{}, fmt.Errorf("failed to put item in DynamoDB: %w", err)
	}
	return it.toDoc(), nil
}

// CountBetween counts events of one type with from <= ts <= to.
func (c *DynamoDBClient) CountBetween(ctx context.Context, event string, from, to time.Time) (int, error) {
	input := &dynamodb.QueryInput{
		TableName:              aws.String(c.table),
		KeyConditionExpression: aws.String("binId = :bin AND #ts BETWEEN :from AND :to"),
		FilterExpression:       aws.String("#ev = :ev"),
		ExpressionAttributeNames: map[string]string{
			"#ts": "ts",
			"#ev": "event",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":bin":  &types.AttributeValueMemberS{Value: c.binID},
			":from": millis(from),
			":to":   millis(to),
			":ev":   &types.AttributeValueMemberS{Value: event},
		},
		Select: types.SelectCount,
	}

	total := 0
	paginator := dynamodb.NewQueryPaginator(c.svc, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return 0, fmt.Errorf("failed to count events: %w", err)
		}
		total += int(page.Count)
	}
	return total, nil
}

func (c *DynamoDBClient) ListByEvent(ctx context.Context, event string) ([]domain.EventDoc, error) {
	return c.queryAll(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(c.table),
		KeyConditionExpression: aws.String("binId = :bin"),
		FilterExpression:       aws.String("#ev = :ev"),
		ExpressionAttributeNames: map[string]string{
			"#ev": "event",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":bin": &types.AttributeValueMemberS{Value: c.binID},
			":ev":  &types.AttributeValueMemberS{Value: event},
		},
		ScanIndexForward: aws.Bool(false),
	})
}

func (c *DynamoDBClient) ListSince(ctx context.Context, from time.Time) ([]domain.EventDoc, error) {
	return c.queryAll(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(c.table),
		KeyConditionExpression: aws.String("binId = :bin AND #ts >= :from"),
		ExpressionAttributeNames: map[string]string{
			"#ts": "ts",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":bin":  &types.AttributeValueMemberS{Value: c.binID},
			":from": millis(from),
		},
	})
}

// Recent returns up to limit events, newest first.
func (c *DynamoDBClient) Recent(ctx context.Context, limit int) ([]domain.EventDoc, error) {
	result, err := c.svc.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(c.table),
		KeyConditionExpression: aws.String("binId = :bin"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":bin": &types.AttributeValueMemberS{Value: c.binID},
		},
		ScanIndexForward: aws.Bool(false),
		Limit:            aws.Int32(int32(limit)),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query DynamoDB: %w", err)
	}
	return toDocs(result.Items)
}

func (c *DynamoDBClient) queryAll(ctx context.Context, input *dynamodb.QueryInput) ([]domain.EventDoc, error) {
	var out []domain.EventDoc
	paginator := dynamodb.NewQueryPaginator(c.svc, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to query DynamoDB: %w", err)
		}
		docs, err := toDocs(page.Items)
		if err != nil {
			return nil, err
		}
		out = append(out, docs...)
	}
	return out, nil
}

func toDocs(items []map[string]types.AttributeValue) ([]domain.EventDoc, error) {
	var logItems []LogItem
	if err := attributevalue.UnmarshalListOfMaps(items, &logItems); err != nil {
		return nil, fmt.Errorf("failed to unmarshal events: %w", err)
	}
	docs := make([]domain.EventDoc, len(logItems))
	for i, it := range logItems {
		docs[i] = it.toDoc()
	}
	return docs, nil
}

func millis(t time.Time) *types.AttributeValueMemberN {
	return &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", t.UnixMilli())}
}
