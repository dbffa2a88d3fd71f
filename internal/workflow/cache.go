package workflow

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/turnoflow/booking-platform/pkg/logging"
)

// DefaultConversationTTL is how long a cached conversation lives without a
// new turn.
const DefaultConversationTTL = 24 * time.Hour

// CachedConversationStore is a write-through Redis cache in front of a
// durable ConversationStore. Reads try the cache first and fall back to the
// backing store on a miss; cache failures are logged and never fail the turn.
type CachedConversationStore struct {
	redis   *redis.Client
	backing ConversationStore
	ttl     time.Duration
	tracer  trace.Tracer
	logger  *logging.Logger
}

var _ ConversationStore = (*CachedConversationStore)(nil)

// NewCachedConversationStore wraps backing with a Redis cache.
func NewCachedConversationStore(client *redis.Client, backing ConversationStore, ttl time.Duration, logger *logging.Logger) *CachedConversationStore {
	if client == nil {
		panic("workflow: redis client cannot be nil")
	}
	if backing == nil {
		panic("workflow: backing conversation store cannot be nil")
	}
	if ttl <= 0 {
		ttl = DefaultConversationTTL
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &CachedConversationStore{
		redis:   client,
		backing: backing,
		ttl:     ttl,
		tracer:  otel.Tracer("turnoflow.internal.workflow.cache"),
		logger:  logger,
	}
}

func conversationCacheKey(tenantID, conversationID string) string {
	return fmt.Sprintf("conversation:%s:%s", tenantID, conversationID)
}

func (s *CachedConversationStore) Get(ctx context.Context, tenantID, conversationID string) (*Conversation, error) {
	ctx, span := s.tracer.Start(ctx, "workflow.conversation_cache.get")
	defer span.End()

	data, err := s.redis.Get(ctx, conversationCacheKey(tenantID, conversationID)).Bytes()
	switch {
	case err == nil:
		var c Conversation
		if jsonErr := json.Unmarshal(data, &c); jsonErr == nil {
			return &c, nil
		}
		// A corrupt cache entry falls through to the durable store.
		s.logger.Warn("dropping undecodable cached conversation",
			"tenant_id", tenantID, "conversation_id", conversationID)
	case err != redis.Nil:
		span.RecordError(err)
		s.logger.Warn("conversation cache read failed",
			"tenant_id", tenantID, "conversation_id", conversationID, "error", err.Error())
	}

	c, err := s.backing.Get(ctx, tenantID, conversationID)
	if err != nil {
		return nil, err
	}
	s.fill(ctx, c)
	return c, nil
}

func (s *CachedConversationStore) Put(ctx context.Context, c *Conversation) error {
	ctx, span := s.tracer.Start(ctx, "workflow.conversation_cache.put")
	defer span.End()

	if err := s.backing.Put(ctx, c); err != nil {
		return err
	}
	s.fill(ctx, c)
	return nil
}

func (s *CachedConversationStore) fill(ctx context.Context, c *Conversation) {
	data, err := json.Marshal(c)
	if err != nil {
		s.logger.Warn("conversation cache encode failed",
			"tenant_id", c.TenantID, "conversation_id", c.ID, "error", err.Error())
		return
	}
	if err := s.redis.Set(ctx, conversationCacheKey(c.TenantID, c.ID), data, s.ttl).Err(); err != nil {
		s.logger.Warn("conversation cache write failed",
			"tenant_id", c.TenantID, "conversation_id", c.ID, "error", err.Error())
	}
}
