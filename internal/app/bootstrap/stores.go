package bootstrap

import (
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/redis/go-redis/v9"

	"github.com/turnoflow/booking-platform/internal/availability"
	"github.com/turnoflow/booking-platform/internal/booking"
	"github.com/turnoflow/booking-platform/internal/catalog"
	appconfig "github.com/turnoflow/booking-platform/internal/config"
	"github.com/turnoflow/booking-platform/internal/workflow"
	"github.com/turnoflow/booking-platform/pkg/logging"
)

// BuildCatalogStore wires the DynamoDB-backed tenant catalog.
func BuildCatalogStore(client *dynamodb.Client, cfg *appconfig.Config, logger *logging.Logger) *catalog.DynamoStore {
	return catalog.NewDynamoStore(client, catalog.Tables{
		Tenants:   cfg.TenantsTable,
		Services:  cfg.ServicesTable,
		Providers: cfg.ProvidersTable,
		FAQs:      cfg.FAQsTable,
	}, logger)
}

// BuildBookingStore wires the DynamoDB bookings table.
func BuildBookingStore(client *dynamodb.Client, cfg *appconfig.Config, logger *logging.Logger) *booking.DynamoStore {
	return booking.NewDynamoStore(client, cfg.BookingsTable, logger)
}

// BuildScheduleRepository wires the DynamoDB provider-schedule table.
func BuildScheduleRepository(client *dynamodb.Client, cfg *appconfig.Config, logger *logging.Logger) *availability.DynamoStore {
	return availability.NewDynamoStore(client, cfg.AvailabilityTable, logger)
}

// BuildWorkflowStore wires the DynamoDB workflows table.
func BuildWorkflowStore(client *dynamodb.Client, cfg *appconfig.Config, logger *logging.Logger) *workflow.DynamoWorkflowStore {
	return workflow.NewDynamoWorkflowStore(client, cfg.WorkflowsTable, logger)
}

// BuildConversationStore wires the DynamoDB conversations table, fronted by
// the Redis cache when a Redis client is available.
func BuildConversationStore(client *dynamodb.Client, redisClient *redis.Client, cfg *appconfig.Config, logger *logging.Logger) workflow.ConversationStore {
	store := workflow.NewDynamoConversationStore(client, cfg.ConversationsTable, logger)
	if redisClient == nil {
		return store
	}
	return workflow.NewCachedConversationStore(redisClient, store, cfg.ConversationTTL, logger)
}
