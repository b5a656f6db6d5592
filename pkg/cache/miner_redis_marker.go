package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ProcessedMarker records provider message IDs that already went through a
// pipeline, so a re-run within the fetch window skips them before any model
// call. Nil-safe: without Redis every message looks unseen and the DB-level
// conflict skip is the only idempotency layer.
type ProcessedMarker struct {
	client *redis.Client
	ttl    time.Duration
}

// NewProcessedMarker creates a marker store. client may be nil.
func NewProcessedMarker(client *redis.Client, ttl time.Duration) *ProcessedMarker {
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	return &ProcessedMarker{client: client, ttl: ttl}
}

func (m *ProcessedMarker) key(userEmail, messageID string) string {
	return fmt.Sprintf("jobminer:processed:%s:%s", userEmail, messageID)
}

// Seen reports whether the message was already processed for this user.
// Redis errors degrade to "unseen" so a cache outage never stalls a cycle.
func (m *ProcessedMarker) Seen(ctx context.Context, userEmail, messageID string) bool {
	if m == nil || m.client == nil {
		return false
	}
	n, err := m.client.Exists(ctx, m.key(userEmail, messageID)).Result()
	return err == nil && n > 0
}

// Mark records the message as processed.
func (m *ProcessedMarker) Mark(ctx context.Context, userEmail, messageID string) {
	if m == nil || m.client == nil {
		return
	}
	m.client.SetNX(ctx, m.key(userEmail, messageID), "1", m.ttl)
}
