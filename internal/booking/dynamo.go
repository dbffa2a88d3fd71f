package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/turnoflow/booking-platform/internal/domain"
	"github.com/turnoflow/booking-platform/pkg/logging"
)

// GSI names on the bookings table.
const (
	bookingIDIndex    = "bookingId-index"
	clientEmailIndex  = "clientEmail-index"
	conversationIndex = "conversationId-index"
)

type dynamoAPI interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
}

// DynamoStore keeps bookings in one table: the partition key is
// "tenantId#providerId" and the sort key is the RFC3339 start time, so the
// conditional put on that key pair is exactly the "at most one booking per
// provider per start timestamp" invariant.
type DynamoStore struct {
	client    dynamoAPI
	tableName string
	logger    *logging.Logger
}

var _ Store = (*DynamoStore)(nil)

// NewDynamoStore builds a booking store backed by the provided DynamoDB client.
func NewDynamoStore(client dynamoAPI, tableName string, logger *logging.Logger) *DynamoStore {
	if client == nil {
		panic("booking: DynamoDB client cannot be nil")
	}
	if tableName == "" {
		panic("booking: table name cannot be empty")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &DynamoStore{client: client, tableName: tableName, logger: logger}
}

type bookingItem struct {
	PK          string `dynamodbav:"pk"`
	SK          string `dynamodbav:"sk"`
	ClientEmail string `dynamodbav:"clientEmail"`
	Booking
}

func providerKey(tenantID, providerID string) string {
	return tenantID + "#" + providerID
}

func newBookingItem(b *Booking) bookingItem {
	return bookingItem{
		PK:          providerKey(b.TenantID, b.ProviderID),
		SK:          domain.FormatTime(b.StartTime),
		ClientEmail: domain.NormalizeEmail(b.Customer.Email),
		Booking:     *b,
	}
}

// CreateIfAbsent inserts the booking with a precondition that no item exists
// at its key. A lost race comes back as domain.ErrConflict.
func (s *DynamoStore) CreateIfAbsent(ctx context.Context, b *Booking) error {
	if b == nil {
		return errors.New("booking: booking cannot be nil")
	}
	item, err := attributevalue.MarshalMap(newBookingItem(b))
	if err != nil {
		return fmt.Errorf("booking: marshal booking: %w", err)
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(s.tableName),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(pk) AND attribute_not_exists(sk)"),
	})
	if err != nil {
		var conditionFailed *types.ConditionalCheckFailedException
		if errors.As(err, &conditionFailed) {
			return domain.ErrConflict
		}
		return fmt.Errorf("booking: persist booking: %w", err)
	}
	return nil
}

// Get resolves a booking id through the bookingId GSI.
func (s *DynamoStore) Get(ctx context.Context, tenantID, bookingID string) (*Booking, error) {
	if tenantID == "" || bookingID == "" {
		return nil, errors.New("booking: tenantID and bookingID required")
	}
	out, err := s.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(s.tableName),
		IndexName:              aws.String(bookingIDIndex),
		KeyConditionExpression: aws.String("tenantId = :tenant AND bookingId = :id"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":tenant": &types.AttributeValueMemberS{Value: tenantID},
			":id":     &types.AttributeValueMemberS{Value: bookingID},
		},
		Limit: aws.Int32(1),
	})
	if err != nil {
		return nil, fmt.Errorf("booking: fetch booking: %w", err)
	}
	if len(out.Items) == 0 {
		return nil, domain.NewNotFound("booking", bookingID)
	}
	return decodeBooking(out.Items[0])
}

// Update replaces the booking item in place. The key attributes never change
// after creation, so a plain put on the same key is a full-record update.
func (s *DynamoStore) Update(ctx context.Context, b *Booking) error {
	if b == nil {
		return errors.New("booking: booking cannot be nil")
	}
	item, err := attributevalue.MarshalMap(newBookingItem(b))
	if err != nil {
		return fmt.Errorf("booking: marshal booking: %w", err)
	}
	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(s.tableName),
		Item:                item,
		ConditionExpression: aws.String("attribute_exists(pk)"),
	})
	if err != nil {
		var conditionFailed *types.ConditionalCheckFailedException
		if errors.As(err, &conditionFailed) {
			return domain.NewNotFound("booking", b.ID)
		}
		return fmt.Errorf("booking: update booking: %w", err)
	}
	return nil
}

// ListByProviderBetween queries the provider partition by sort-key range.
func (s *DynamoStore) ListByProviderBetween(ctx context.Context, tenantID, providerID string, from, to time.Time) ([]Booking, error) {
	if tenantID == "" || providerID == "" {
		return nil, errors.New("booking: tenantID and providerID required")
	}
	out, err := s.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(s.tableName),
		KeyConditionExpression: aws.String("pk = :pk AND sk BETWEEN :from AND :to"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk":   &types.AttributeValueMemberS{Value: providerKey(tenantID, providerID)},
			":from": &types.AttributeValueMemberS{Value: domain.FormatTime(from)},
			":to":   &types.AttributeValueMemberS{Value: domain.FormatTime(to)},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("booking: query provider bookings: %w", err)
	}
	return decodeBookings(out.Items)
}

// ListByCustomerEmail queries the clientEmail GSI with the normalized address.
func (s *DynamoStore) ListByCustomerEmail(ctx context.Context, tenantID, email string) ([]Booking, error) {
	if tenantID == "" || email == "" {
		return nil, errors.New("booking: tenantID and email required")
	}
	out, err := s.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(s.tableName),
		IndexName:              aws.String(clientEmailIndex),
		KeyConditionExpression: aws.String("tenantId = :tenant AND clientEmail = :email"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":tenant": &types.AttributeValueMemberS{Value: tenantID},
			":email":  &types.AttributeValueMemberS{Value: domain.NormalizeEmail(email)},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("booking: query customer bookings: %w", err)
	}
	return decodeBookings(out.Items)
}

// GetByConversation queries the conversationId GSI.
func (s *DynamoStore) GetByConversation(ctx context.Context, tenantID, conversationID string) (*Booking, error) {
	if tenantID == "" || conversationID == "" {
		return nil, errors.New("booking: tenantID and conversationID required")
	}
	out, err := s.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(s.tableName),
		IndexName:              aws.String(conversationIndex),
		KeyConditionExpression: aws.String("tenantId = :tenant AND conversationId = :conv"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":tenant": &types.AttributeValueMemberS{Value: tenantID},
			":conv":   &types.AttributeValueMemberS{Value: conversationID},
		},
		Limit: aws.Int32(1),
	})
	if err != nil {
		return nil, fmt.Errorf("booking: query conversation booking: %w", err)
	}
	if len(out.Items) == 0 {
		return nil, domain.NewNotFound("booking", conversationID)
	}
	return decodeBooking(out.Items[0])
}

func decodeBooking(item map[string]types.AttributeValue) (*Booking, error) {
	var row bookingItem
	if err := attributevalue.UnmarshalMap(item, &row); err != nil {
		return nil, fmt.Errorf("booking: decode booking item: %w", err)
	}
	b := row.Booking
	return &b, nil
}

func decodeBookings(items []map[string]types.AttributeValue) ([]Booking, error) {
	out := make([]Booking, 0, len(items))
	for _, item := range items {
		b, err := decodeBooking(item)
		if err != nil {
			return nil, err
		}
		out = append(out, *b)
	}
	return out, nil
}
