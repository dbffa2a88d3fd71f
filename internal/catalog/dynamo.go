package catalog

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

// dynamoAPI is the slice of the DynamoDB client the catalog store needs.
type dynamoAPI interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
}

// Tables names the DynamoDB tables backing the catalog.
type Tables struct {
	Tenants   string
	Services  string
	Providers string
	FAQs      string
}

// DynamoStore persists the catalog in DynamoDB. Tenants key on tenantId;
// services, providers and FAQs key on (tenantId, <entity>Id).
type DynamoStore struct {
	client dynamoAPI
	tables Tables
	logger *logging.Logger
}

// NewDynamoStore builds a catalog store backed by the provided DynamoDB client.
func NewDynamoStore(client dynamoAPI, tables Tables, logger *logging.Logger) *DynamoStore {
	if client == nil {
		panic("catalog: DynamoDB client cannot be nil")
	}
	if tables.Tenants == "" || tables.Services == "" || tables.Providers == "" || tables.FAQs == "" {
		panic("catalog: all table names are required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &DynamoStore{client: client, tables: tables, logger: logger}
}

// Tenants returns the store as a TenantRepository.
func (s *DynamoStore) Tenants() TenantRepository { return dynTenants{s} }

// Services returns the store as a ServiceRepository.
func (s *DynamoStore) Services() ServiceRepository { return dynServices{s} }

// Providers returns the store as a ProviderRepository.
func (s *DynamoStore) Providers() ProviderRepository { return dynProviders{s} }

// FAQs returns the store as an FAQRepository.
func (s *DynamoStore) FAQs() FAQRepository { return dynFAQs{s} }

// PutTenant writes a tenant row. Used by seeding and onboarding.
func (s *DynamoStore) PutTenant(ctx context.Context, t *Tenant) error {
	return s.put(ctx, s.tables.Tenants, t, "tenant")
}

// PutService writes a service row.
func (s *DynamoStore) PutService(ctx context.Context, svc *Service) error {
	return s.put(ctx, s.tables.Services, svc, "service")
}

// PutProvider writes a provider row.
func (s *DynamoStore) PutProvider(ctx context.Context, p *Provider) error {
	return s.put(ctx, s.tables.Providers, p, "provider")
}

// PutFAQ writes an FAQ row.
func (s *DynamoStore) PutFAQ(ctx context.Context, f *FAQ) error {
	return s.put(ctx, s.tables.FAQs, f, "faq")
}

func (s *DynamoStore) put(ctx context.Context, table string, entity any, kind string) error {
	if entity == nil {
		return fmt.Errorf("catalog: %s cannot be nil", kind)
	}
	item, err := attributevalue.MarshalMap(entity)
	if err != nil {
		return fmt.Errorf("catalog: failed to marshal %s: %w", kind, err)
	}
	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(table),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("catalog: failed to persist %s: %w", kind, err)
	}
	return nil
}

func (s *DynamoStore) queryTenant(ctx context.Context, table, tenantID string) ([]map[string]types.AttributeValue, error) {
	if tenantID == "" {
		return nil, errors.New("catalog: tenantID required")
	}
	out, err := s.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(table),
		KeyConditionExpression: aws.String("tenantId = :tenant"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":tenant": &types.AttributeValueMemberS{Value: tenantID},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("catalog: query %s: %w", table, err)
	}
	return out.Items, nil
}

type dynTenants struct{ store *DynamoStore }

var _ TenantRepository = dynTenants{}

func (v dynTenants) Get(ctx context.Context, tenantID string) (*Tenant, error) {
	if tenantID == "" {
		return nil, errors.New("catalog: tenantID required")
	}
	out, err := v.store.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(v.store.tables.Tenants),
		Key: map[string]types.AttributeValue{
			"tenantId": &types.AttributeValueMemberS{Value: tenantID},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("catalog: fetch tenant: %w", err)
	}
	if out.Item == nil {
		return nil, domain.NewNotFound("tenant", tenantID)
	}
	var t Tenant
	if err := attributevalue.UnmarshalMap(out.Item, &t); err != nil {
		return nil, fmt.Errorf("catalog: decode tenant: %w", err)
	}
	return &t, nil
}

type dynServices struct{ store *DynamoStore }

var _ ServiceRepository = dynServices{}

func (v dynServices) Get(ctx context.Context, tenantID, serviceID string) (*Service, error) {
	out, err := v.store.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(v.store.tables.Services),
		Key: map[string]types.AttributeValue{
			"tenantId":  &types.AttributeValueMemberS{Value: tenantID},
			"serviceId": &types.AttributeValueMemberS{Value: serviceID},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("catalog: fetch service: %w", err)
	}
	if out.Item == nil {
		return nil, domain.NewNotFound("service", serviceID)
	}
	var svc Service
	if err := attributevalue.UnmarshalMap(out.Item, &svc); err != nil {
		return nil, fmt.Errorf("catalog: decode service: %w", err)
	}
	return &svc, nil
}

func (v dynServices) ListActive(ctx context.Context, tenantID string) ([]Service, error) {
	items, err := v.store.queryTenant(ctx, v.store.tables.Services, tenantID)
	if err != nil {
		return nil, err
	}
	out := make([]Service, 0, len(items))
	for _, item := range items {
		var svc Service
		if err := attributevalue.UnmarshalMap(item, &svc); err != nil {
			return nil, fmt.Errorf("catalog: decode service: %w", err)
		}
		if svc.Active {
			out = append(out, svc)
		}
	}
	return out, nil
}

type dynProviders struct{ store *DynamoStore }

var _ ProviderRepository = dynProviders{}

func (v dynProviders) Get(ctx context.Context, tenantID, providerID string) (*Provider, error) {
	out, err := v.store.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(v.store.tables.Providers),
		Key: map[string]types.AttributeValue{
			"tenantId":   &types.AttributeValueMemberS{Value: tenantID},
			"providerId": &types.AttributeValueMemberS{Value: providerID},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("catalog: fetch provider: %w", err)
	}
	if out.Item == nil {
		return nil, domain.NewNotFound("provider", providerID)
	}
	var p Provider
	if err := attributevalue.UnmarshalMap(out.Item, &p); err != nil {
		return nil, fmt.Errorf("catalog: decode provider: %w", err)
	}
	return &p, nil
}

func (v dynProviders) ListActive(ctx context.Context, tenantID string) ([]Provider, error) {
	items, err := v.store.queryTenant(ctx, v.store.tables.Providers, tenantID)
	if err != nil {
		return nil, err
	}
	out := make([]Provider, 0, len(items))
	for _, item := range items {
		var p Provider
		if err := attributevalue.UnmarshalMap(item, &p); err != nil {
			return nil, fmt.Errorf("catalog: decode provider: %w", err)
		}
		if p.Active {
			out = append(out, p)
		}
	}
	return out, nil
}

func (v dynProviders) ListByService(ctx context.Context, tenantID, serviceID string) ([]Provider, error) {
	all, err := v.ListActive(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	out := make([]Provider, 0, len(all))
	for _, p := range all {
		if p.Offers(serviceID) {
			out = append(out, p)
		}
	}
	return out, nil
}

type dynFAQs struct{ store *DynamoStore }

var _ FAQRepository = dynFAQs{}

func (v dynFAQs) ListActive(ctx context.Context, tenantID string) ([]FAQ, error) {
	items, err := v.store.queryTenant(ctx, v.store.tables.FAQs, tenantID)
	if err != nil {
		return nil, err
	}
	out := make([]FAQ, 0, len(items))
	for _, item := range items {
		var f FAQ
		if err := attributevalue.UnmarshalMap(item, &f); err != nil {
			return nil, fmt.Errorf("catalog: decode faq: %w", err)
		}
		if f.Active {
			out = append(out, f)
		}
	}
	return out, nil
}
