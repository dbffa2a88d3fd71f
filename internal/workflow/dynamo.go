package workflow

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/turnoflow/booking-platform/internal/domain"
	"github.com/turnoflow/booking-platform/pkg/logging"
)

type dynamoAPI interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
}

// DynamoWorkflowStore keeps workflow definitions keyed by tenantId/workflowId.
type DynamoWorkflowStore struct {
	client    dynamoAPI
	tableName string
	logger    *logging.Logger
}

var _ WorkflowStore = (*DynamoWorkflowStore)(nil)

// NewDynamoWorkflowStore builds a workflow store over the given table.
func NewDynamoWorkflowStore(client dynamoAPI, tableName string, logger *logging.Logger) *DynamoWorkflowStore {
	if client == nil {
		panic("workflow: DynamoDB client cannot be nil")
	}
	if tableName == "" {
		panic("workflow: table name cannot be empty")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &DynamoWorkflowStore{client: client, tableName: tableName, logger: logger}
}

func (s *DynamoWorkflowStore) List(ctx context.Context, tenantID string) ([]Workflow, error) {
	if tenantID == "" {
		return nil, errors.New("workflow: tenantID required")
	}
	out, err := s.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(s.tableName),
		KeyConditionExpression: aws.String("tenantId = :tenant"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":tenant": &types.AttributeValueMemberS{Value: tenantID},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("workflow: query workflows: %w", err)
	}
	workflows := make([]Workflow, 0, len(out.Items))
	for _, item := range out.Items {
		var w Workflow
		if err := attributevalue.UnmarshalMap(item, &w); err != nil {
			return nil, fmt.Errorf("workflow: decode workflow item: %w", err)
		}
		workflows = append(workflows, w)
	}
	return workflows, nil
}

func (s *DynamoWorkflowStore) Get(ctx context.Context, tenantID, workflowID string) (*Workflow, error) {
	if tenantID == "" || workflowID == "" {
		return nil, errors.New("workflow: tenantID and workflowID required")
	}
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.tableName),
		Key: map[string]types.AttributeValue{
			"tenantId":   &types.AttributeValueMemberS{Value: tenantID},
			"workflowId": &types.AttributeValueMemberS{Value: workflowID},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("workflow: fetch workflow: %w", err)
	}
	if out.Item == nil {
		return nil, domain.NewNotFound("workflow", workflowID)
	}
	var w Workflow
	if err := attributevalue.UnmarshalMap(out.Item, &w); err != nil {
		return nil, fmt.Errorf("workflow: decode workflow item: %w", err)
	}
	return &w, nil
}

func (s *DynamoWorkflowStore) Put(ctx context.Context, w *Workflow) error {
	if w == nil {
		return errors.New("workflow: workflow cannot be nil")
	}
	item, err := attributevalue.MarshalMap(w)
	if err != nil {
		return fmt.Errorf("workflow: marshal workflow: %w", err)
	}
	if _, err := s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.tableName),
		Item:      item,
	}); err != nil {
		return fmt.Errorf("workflow: persist workflow: %w", err)
	}
	return nil
}

func (s *DynamoWorkflowStore) Delete(ctx context.Context, tenantID, workflowID string) error {
	if tenantID == "" || workflowID == "" {
		return errors.New("workflow: tenantID and workflowID required")
	}
	if _, err := s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(s.tableName),
		Key: map[string]types.AttributeValue{
			"tenantId":   &types.AttributeValueMemberS{Value: tenantID},
			"workflowId": &types.AttributeValueMemberS{Value: workflowID},
		},
	}); err != nil {
		return fmt.Errorf("workflow: delete workflow: %w", err)
	}
	return nil
}

// DynamoConversationStore keeps conversation state keyed by
// tenantId/conversationId. It is the durable tier under the Redis cache.
type DynamoConversationStore struct {
	client    dynamoAPI
	tableName string
	logger    *logging.Logger
}

var _ ConversationStore = (*DynamoConversationStore)(nil)

// NewDynamoConversationStore builds a conversation store over the given table.
func NewDynamoConversationStore(client dynamoAPI, tableName string, logger *logging.Logger) *DynamoConversationStore {
	if client == nil {
		panic("workflow: DynamoDB client cannot be nil")
	}
	if tableName == "" {
		panic("workflow: table name cannot be empty")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &DynamoConversationStore{client: client, tableName: tableName, logger: logger}
}

func (s *DynamoConversationStore) Get(ctx context.Context, tenantID, conversationID string) (*Conversation, error) {
	if tenantID == "" || conversationID == "" {
		return nil, errors.New("workflow: tenantID and conversationID required")
	}
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.tableName),
		Key: map[string]types.AttributeValue{
			"tenantId":       &types.AttributeValueMemberS{Value: tenantID},
			"conversationId": &types.AttributeValueMemberS{Value: conversationID},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("workflow: fetch conversation: %w", err)
	}
	if out.Item == nil {
		return nil, domain.NewNotFound("conversation", conversationID)
	}
	var c Conversation
	if err := attributevalue.UnmarshalMap(out.Item, &c); err != nil {
		return nil, fmt.Errorf("workflow: decode conversation item: %w", err)
	}
	return &c, nil
}

func (s *DynamoConversationStore) Put(ctx context.Context, c *Conversation) error {
	if c == nil {
		return errors.New("workflow: conversation cannot be nil")
	}
	item, err := attributevalue.MarshalMap(c)
	if err != nil {
		return fmt.Errorf("workflow: marshal conversation: %w", err)
	}
	if _, err := s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.tableName),
		Item:      item,
	}); err != nil {
		return fmt.Errorf("workflow: persist conversation: %w", err)
	}
	return nil
}
