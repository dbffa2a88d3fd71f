package workflow

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turnoflow/booking-platform/pkg/logging"
)

func newCacheFixture(t *testing.T) (*CachedConversationStore, *miniredis.Miniredis, *MemoryConversationStore) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	backing := NewMemoryConversationStore()
	cache := NewCachedConversationStore(client, backing, time.Hour, logging.New("error"))
	return cache, mr, backing
}

func sampleConversation() *Conversation {
	return &Conversation{
		ID:            "conv_1",
		TenantID:      "tnt_1",
		WorkflowID:    "wf_1",
		CurrentStepID: "start",
		Context:       Context{ServiceID: "svc_cut"},
	}
}

func TestCachePut_WritesThrough(t *testing.T) {
	cache, mr, backing := newCacheFixture(t)
	ctx := context.Background()

	require.NoError(t, cache.Put(ctx, sampleConversation()))

	// Durable store has it.
	stored, err := backing.Get(ctx, "tnt_1", "conv_1")
	require.NoError(t, err)
	assert.Equal(t, "start", stored.CurrentStepID)

	// Cache has it with the configured TTL.
	key := conversationCacheKey("tnt_1", "conv_1")
	assert.True(t, mr.Exists(key))
	assert.Equal(t, time.Hour, mr.TTL(key))
}

func TestCacheGet_ServesFromCacheWithoutBacking(t *testing.T) {
	cache, _, backing := newCacheFixture(t)
	ctx := context.Background()

	require.NoError(t, cache.Put(ctx, sampleConversation()))

	// Remove it from the durable store; the cache still answers.
	backing.items = map[string]*Conversation{}

	got, err := cache.Get(ctx, "tnt_1", "conv_1")
	require.NoError(t, err)
	assert.Equal(t, "svc_cut", got.Context.ServiceID)
}

func TestCacheGet_MissFallsBackAndRefills(t *testing.T) {
	cache, mr, backing := newCacheFixture(t)
	ctx := context.Background()

	require.NoError(t, backing.Put(ctx, sampleConversation()))

	got, err := cache.Get(ctx, "tnt_1", "conv_1")
	require.NoError(t, err)
	assert.Equal(t, "start", got.CurrentStepID)
	assert.True(t, mr.Exists(conversationCacheKey("tnt_1", "conv_1")))
}

func TestCacheGet_CorruptEntryFallsBack(t *testing.T) {
	cache, mr, backing := newCacheFixture(t)
	ctx := context.Background()

	require.NoError(t, backing.Put(ctx, sampleConversation()))
	require.NoError(t, mr.Set(conversationCacheKey("tnt_1", "conv_1"), "{not json"))

	got, err := cache.Get(ctx, "tnt_1", "conv_1")
	require.NoError(t, err)
	assert.Equal(t, "conv_1", got.ID)
}

func TestCache_RedisDownIsNonFatal(t *testing.T) {
	cache, mr, backing := newCacheFixture(t)
	ctx := context.Background()
	mr.Close()

	require.NoError(t, cache.Put(ctx, sampleConversation()))

	got, err := cache.Get(ctx, "tnt_1", "conv_1")
	require.NoError(t, err)
	assert.Equal(t, "conv_1", got.ID)

	// Durable store was still written despite the dead cache.
	stored, err := backing.Get(ctx, "tnt_1", "conv_1")
	require.NoError(t, err)
	assert.Equal(t, "start", stored.CurrentStepID)
}
