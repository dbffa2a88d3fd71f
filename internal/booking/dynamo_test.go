package booking

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turnoflow/booking-platform/internal/domain"
	"github.com/turnoflow/booking-platform/pkg/logging"
)

type mockDynamo struct {
	putInputs   []*dynamodb.PutItemInput
	putErr      error
	queryInputs []*dynamodb.QueryInput
	queryOutput *dynamodb.QueryOutput
	queryErr    error
}

func (m *mockDynamo) PutItem(ctx context.Context, input *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	m.putInputs = append(m.putInputs, input)
	if m.putErr != nil {
		return nil, m.putErr
	}
	return &dynamodb.PutItemOutput{}, nil
}

func (m *mockDynamo) Query(ctx context.Context, input *dynamodb.QueryInput, _ ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	m.queryInputs = append(m.queryInputs, input)
	if m.queryErr != nil {
		return nil, m.queryErr
	}
	if m.queryOutput == nil {
		return &dynamodb.QueryOutput{}, nil
	}
	return m.queryOutput, nil
}

func sampleBooking() *Booking {
	start := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	return &Booking{
		ID:         "bkg_11111111",
		TenantID:   "tnt_1",
		ServiceID:  "svc_cut",
		ProviderID: "prv_ana",
		Customer:   Customer{ID: "cus_abc", Name: "María", Email: "maria@example.com"},
		StartTime:  start,
		EndTime:    start.Add(30 * time.Minute),
		Status:     StatusPending,
	}
}

func TestDynamoStore_CreateIfAbsentIsConditional(t *testing.T) {
	mock := &mockDynamo{}
	store := NewDynamoStore(mock, "bookings", logging.Default())

	require.NoError(t, store.CreateIfAbsent(context.Background(), sampleBooking()))
	require.Len(t, mock.putInputs, 1)

	input := mock.putInputs[0]
	require.NotNil(t, input.ConditionExpression)
	assert.Equal(t, "attribute_not_exists(pk) AND attribute_not_exists(sk)", *input.ConditionExpression)

	pk := input.Item["pk"].(*types.AttributeValueMemberS).Value
	sk := input.Item["sk"].(*types.AttributeValueMemberS).Value
	assert.Equal(t, "tnt_1#prv_ana", pk)
	assert.Equal(t, "2026-03-02T09:00:00Z", sk)
}

func TestDynamoStore_CreateIfAbsentMapsConditionFailure(t *testing.T) {
	mock := &mockDynamo{putErr: &types.ConditionalCheckFailedException{}}
	store := NewDynamoStore(mock, "bookings", logging.Default())

	err := store.CreateIfAbsent(context.Background(), sampleBooking())
	assert.True(t, errors.Is(err, domain.ErrConflict))
}

func TestDynamoStore_GetDecodesItem(t *testing.T) {
	item, err := attributevalue.MarshalMap(newBookingItem(sampleBooking()))
	require.NoError(t, err)

	mock := &mockDynamo{queryOutput: &dynamodb.QueryOutput{Items: []map[string]types.AttributeValue{item}}}
	store := NewDynamoStore(mock, "bookings", logging.Default())

	got, err := store.Get(context.Background(), "tnt_1", "bkg_11111111")
	require.NoError(t, err)
	assert.Equal(t, "bkg_11111111", got.ID)
	assert.Equal(t, "prv_ana", got.ProviderID)
	assert.True(t, got.StartTime.Equal(sampleBooking().StartTime))

	require.Len(t, mock.queryInputs, 1)
	assert.Equal(t, bookingIDIndex, *mock.queryInputs[0].IndexName)
}

func TestDynamoStore_GetNotFound(t *testing.T) {
	store := NewDynamoStore(&mockDynamo{}, "bookings", logging.Default())

	_, err := store.Get(context.Background(), "tnt_1", "bkg_ghost")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestDynamoStore_ListByCustomerEmailNormalizes(t *testing.T) {
	mock := &mockDynamo{}
	store := NewDynamoStore(mock, "bookings", logging.Default())

	_, err := store.ListByCustomerEmail(context.Background(), "tnt_1", " MARIA@Example.com ")
	require.NoError(t, err)

	require.Len(t, mock.queryInputs, 1)
	email := mock.queryInputs[0].ExpressionAttributeValues[":email"].(*types.AttributeValueMemberS).Value
	assert.Equal(t, "maria@example.com", email)
	assert.Equal(t, clientEmailIndex, *mock.queryInputs[0].IndexName)
}

func TestDynamoStore_ListByProviderBetweenUsesSortKeyRange(t *testing.T) {
	mock := &mockDynamo{}
	store := NewDynamoStore(mock, "bookings", logging.Default())

	from := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	_, err := store.ListByProviderBetween(context.Background(), "tnt_1", "prv_ana", from, from.Add(24*time.Hour))
	require.NoError(t, err)

	require.Len(t, mock.queryInputs, 1)
	input := mock.queryInputs[0]
	assert.Nil(t, input.IndexName, "range queries run on the base table")
	assert.Contains(t, *input.KeyConditionExpression, "BETWEEN")
}
