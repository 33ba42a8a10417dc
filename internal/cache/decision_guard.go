package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// DecisionGuard enforces at-most-once delivery of approval decisions. Each
// decision step consumes exactly one chain position, so a duplicate request
// (double click, client retry) must not advance the chain twice. The guard
// takes a short-lived SETNX lock keyed by ticket, owner and version; the
// optimistic lock in the store remains the authoritative barrier.
type DecisionGuard struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewDecisionGuard builds the guard. A nil client disables it (every acquire
// succeeds), which keeps single-node development setups working without Redis.
func NewDecisionGuard(client *redis.Client, ttl time.Duration, logger *zap.Logger) *DecisionGuard {
	if ttl <= 0 {
		ttl = 10 * time.Second
	}
	return &DecisionGuard{client: client, ttl: ttl, logger: logger}
}

// Acquire attempts to take the lock for one approval step. Returns false when
// an identical step is already in flight or was just processed.
func (g *DecisionGuard) Acquire(ctx context.Context, ticketID, ownerUserID string, version int64) bool {
	if g == nil || g.client == nil {
		return true
	}
	key := fmt.Sprintf("approval:decision:%s:%s:%d", ticketID, ownerUserID, version)
	ok, err := g.client.SetNX(ctx, key, 1, g.ttl).Result()
	if err != nil {
		// Redis being unreachable must not block approvals; the version
		// check in the store still prevents double commits.
		g.logger.Warn("decision guard unavailable", zap.Error(err))
		return true
	}
	return ok
}

// Release frees the lock early after a failed attempt so the caller can retry
// with corrected input before the TTL expires.
func (g *DecisionGuard) Release(ctx context.Context, ticketID, ownerUserID string, version int64) {
	if g == nil || g.client == nil {
		return
	}
	key := fmt.Sprintf("approval:decision:%s:%s:%d", ticketID, ownerUserID, version)
	if err := g.client.Del(ctx, key).Err(); err != nil {
		g.logger.Warn("decision guard release failed", zap.Error(err))
	}
}
