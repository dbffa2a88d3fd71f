package catalog

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turnoflow/booking-platform/internal/domain"
	"github.com/turnoflow/booking-platform/pkg/logging"
)

type mockDynamo struct {
	getOutput   *dynamodb.GetItemOutput
	getErr      error
	putInputs   []*dynamodb.PutItemInput
	putErr      error
	queryOutput *dynamodb.QueryOutput
	queryInput  *dynamodb.QueryInput
	queryErr    error
}

func (m *mockDynamo) GetItem(ctx context.Context, input *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	if m.getOutput == nil {
		return &dynamodb.GetItemOutput{}, nil
	}
	return m.getOutput, nil
}

func (m *mockDynamo) PutItem(ctx context.Context, input *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	m.putInputs = append(m.putInputs, input)
	return &dynamodb.PutItemOutput{}, m.putErr
}

func (m *mockDynamo) Query(ctx context.Context, input *dynamodb.QueryInput, _ ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	m.queryInput = input
	if m.queryErr != nil {
		return nil, m.queryErr
	}
	if m.queryOutput == nil {
		return &dynamodb.QueryOutput{}, nil
	}
	return m.queryOutput, nil
}

func testTables() Tables {
	return Tables{Tenants: "tenants", Services: "services", Providers: "providers", FAQs: "faqs"}
}

func TestDynamoStore_GetTenant(t *testing.T) {
	item, err := attributevalue.MarshalMap(&Tenant{ID: "tnt_1", Name: "Salon Uno", Status: TenantActive, Plan: PlanPro})
	require.NoError(t, err)

	mock := &mockDynamo{getOutput: &dynamodb.GetItemOutput{Item: item}}
	store := NewDynamoStore(mock, testTables(), logging.Default())

	got, err := store.Tenants().Get(context.Background(), "tnt_1")
	require.NoError(t, err)
	assert.Equal(t, "Salon Uno", got.Name)
	assert.True(t, got.CanCreateBooking())
}

func TestDynamoStore_GetTenantMissing(t *testing.T) {
	store := NewDynamoStore(&mockDynamo{}, testTables(), logging.Default())

	_, err := store.Tenants().Get(context.Background(), "tnt_absent")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrNotFound))

	var nf *domain.NotFoundError
	require.True(t, errors.As(err, &nf))
	assert.Equal(t, "tenant", nf.Entity)
}

func TestDynamoStore_ListActiveServicesFiltersInactive(t *testing.T) {
	active, err := attributevalue.MarshalMap(&Service{ID: "svc_1", TenantID: "tnt_1", Name: "Corte", DurationMinutes: 30, Active: true})
	require.NoError(t, err)
	inactive, err := attributevalue.MarshalMap(&Service{ID: "svc_2", TenantID: "tnt_1", Name: "Color", DurationMinutes: 60, Active: false})
	require.NoError(t, err)

	mock := &mockDynamo{queryOutput: &dynamodb.QueryOutput{Items: []map[string]types.AttributeValue{active, inactive}}}
	store := NewDynamoStore(mock, testTables(), logging.Default())

	got, err := store.Services().ListActive(context.Background(), "tnt_1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "svc_1", got[0].ID)

	require.NotNil(t, mock.queryInput)
	assert.Equal(t, "tenantId = :tenant", *mock.queryInput.KeyConditionExpression)
}

func TestDynamoStore_ListByServiceFiltersOffers(t *testing.T) {
	offers, err := attributevalue.MarshalMap(&Provider{ID: "prv_1", TenantID: "tnt_1", Name: "Ana", ServiceIDs: []string{"svc_1"}, Active: true})
	require.NoError(t, err)
	other, err := attributevalue.MarshalMap(&Provider{ID: "prv_2", TenantID: "tnt_1", Name: "Luis", ServiceIDs: []string{"svc_9"}, Active: true})
	require.NoError(t, err)

	mock := &mockDynamo{queryOutput: &dynamodb.QueryOutput{Items: []map[string]types.AttributeValue{offers, other}}}
	store := NewDynamoStore(mock, testTables(), logging.Default())

	got, err := store.Providers().ListByService(context.Background(), "tnt_1", "svc_1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "prv_1", got[0].ID)
}

func TestDynamoStore_PutService(t *testing.T) {
	mock := &mockDynamo{}
	store := NewDynamoStore(mock, testTables(), logging.Default())

	err := store.PutService(context.Background(), &Service{ID: "svc_1", TenantID: "tnt_1", Name: "Corte", DurationMinutes: 30, Active: true})
	require.NoError(t, err)
	require.Len(t, mock.putInputs, 1)
	assert.Equal(t, "services", *mock.putInputs[0].TableName)
}

func TestNewDynamoStorePanicsOnMissingDeps(t *testing.T) {
	assert.Panics(t, func() { NewDynamoStore(nil, testTables(), nil) })
	assert.Panics(t, func() { NewDynamoStore(&mockDynamo{}, Tables{}, nil) })
}
