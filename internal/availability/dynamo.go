package availability

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/turnoflow/booking-platform/pkg/logging"
)

// exceptionsSortKey is the sentinel sort key storing the exception list next
// to the per-day weekly items.
const exceptionsSortKey = "EXCEPTIONS"

type dynamoAPI interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
}

// DynamoStore keeps provider schedules in one table: the partition key is
// "tenantId#providerId", the sort key is the day of week, and one sentinel
// item per provider holds the exception list.
type DynamoStore struct {
	client    dynamoAPI
	tableName string
	logger    *logging.Logger
}

var _ Repository = (*DynamoStore)(nil)

// NewDynamoStore builds a schedule store backed by the provided DynamoDB client.
func NewDynamoStore(client dynamoAPI, tableName string, logger *logging.Logger) *DynamoStore {
	if client == nil {
		panic("availability: DynamoDB client cannot be nil")
	}
	if tableName == "" {
		panic("availability: table name cannot be empty")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &DynamoStore{client: client, tableName: tableName, logger: logger}
}

func scheduleKey(tenantID, providerID string) string {
	return tenantID + "#" + providerID
}

type weeklyItem struct {
	PK string `dynamodbav:"pk"`
	SK string `dynamodbav:"sk"`
	WeeklyRule
}

type exceptionsItem struct {
	PK    string          `dynamodbav:"pk"`
	SK    string          `dynamodbav:"sk"`
	Rules []ExceptionRule `dynamodbav:"rules"`
}

// GetWeeklyRules loads every per-day item of the provider.
func (s *DynamoStore) GetWeeklyRules(ctx context.Context, tenantID, providerID string) ([]WeeklyRule, error) {
	if tenantID == "" || providerID == "" {
		return nil, errors.New("availability: tenantID and providerID required")
	}
	out, err := s.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(s.tableName),
		KeyConditionExpression: aws.String("pk = :pk"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk": &types.AttributeValueMemberS{Value: scheduleKey(tenantID, providerID)},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("availability: query schedule: %w", err)
	}

	rules := make([]WeeklyRule, 0, len(out.Items))
	for _, item := range out.Items {
		var row weeklyItem
		if err := attributevalue.UnmarshalMap(item, &row); err != nil {
			return nil, fmt.Errorf("availability: decode schedule item: %w", err)
		}
		if row.SK == exceptionsSortKey {
			continue
		}
		rules = append(rules, row.WeeklyRule)
	}
	return rules, nil
}

// PutWeeklyRules replaces the weekly schedule: each rule becomes one item and
// per-day items missing from the new set are removed.
func (s *DynamoStore) PutWeeklyRules(ctx context.Context, tenantID, providerID string, rules []WeeklyRule) error {
	existing, err := s.GetWeeklyRules(ctx, tenantID, providerID)
	if err != nil {
		return err
	}

	keep := make(map[string]bool, len(rules))
	pk := scheduleKey(tenantID, providerID)
	for _, rule := range rules {
		keep[rule.DayOfWeek] = true
		item, err := attributevalue.MarshalMap(weeklyItem{PK: pk, SK: rule.DayOfWeek, WeeklyRule: rule})
		if err != nil {
			return fmt.Errorf("availability: marshal schedule item: %w", err)
		}
		if _, err := s.client.PutItem(ctx, &dynamodb.PutItemInput{
			TableName: aws.String(s.tableName),
			Item:      item,
		}); err != nil {
			return fmt.Errorf("availability: persist schedule item: %w", err)
		}
	}

	for _, old := range existing {
		if keep[old.DayOfWeek] {
			continue
		}
		if _, err := s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
			TableName: aws.String(s.tableName),
			Key: map[string]types.AttributeValue{
				"pk": &types.AttributeValueMemberS{Value: pk},
				"sk": &types.AttributeValueMemberS{Value: old.DayOfWeek},
			},
		}); err != nil {
			return fmt.Errorf("availability: remove stale schedule item: %w", err)
		}
	}
	return nil
}

// GetExceptions loads the exception list of the provider. A missing sentinel
// item means no exceptions.
func (s *DynamoStore) GetExceptions(ctx context.Context, tenantID, providerID string) ([]ExceptionRule, error) {
	if tenantID == "" || providerID == "" {
		return nil, errors.New("availability: tenantID and providerID required")
	}
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.tableName),
		Key: map[string]types.AttributeValue{
			"pk": &types.AttributeValueMemberS{Value: scheduleKey(tenantID, providerID)},
			"sk": &types.AttributeValueMemberS{Value: exceptionsSortKey},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("availability: fetch exceptions: %w", err)
	}
	if out.Item == nil {
		return nil, nil
	}
	var row exceptionsItem
	if err := attributevalue.UnmarshalMap(out.Item, &row); err != nil {
		return nil, fmt.Errorf("availability: decode exceptions: %w", err)
	}
	return row.Rules, nil
}

// PutExceptions replaces the exception list of the provider.
func (s *DynamoStore) PutExceptions(ctx context.Context, tenantID, providerID string, exceptions []ExceptionRule) error {
	item, err := attributevalue.MarshalMap(exceptionsItem{
		PK:    scheduleKey(tenantID, providerID),
		SK:    exceptionsSortKey,
		Rules: exceptions,
	})
	if err != nil {
		return fmt.Errorf("availability: marshal exceptions: %w", err)
	}
	if _, err := s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.tableName),
		Item:      item,
	}); err != nil {
		return fmt.Errorf("availability: persist exceptions: %w", err)
	}
	return nil
}
