package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

const rbacVersionKey = "rbac:version"

// PermissionCache fronts a GrantSource with Redis. Entries are keyed by a
// global version so one INCR drops every cached set after an RBAC change.
type PermissionCache struct {
	source GrantSource
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewPermissionCache wraps source. A nil client disables caching.
func NewPermissionCache(source GrantSource, client *redis.Client, ttl time.Duration, logger *zap.Logger) *PermissionCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PermissionCache{source: source, client: client, ttl: ttl, logger: logger}
}

// GrantsForUser returns the cached grants, loading and storing them on a miss.
func (pc *PermissionCache) GrantsForUser(ctx context.Context, userID string) (domain.Grants, error) {
	if pc.client == nil || pc.ttl <= 0 {
		return pc.source.GrantsForUser(ctx, userID)
	}

	version, err := pc.version(ctx)
	if err != nil {
		pc.logger.Warn("rbac cache version lookup failed", zap.Error(err))
		return pc.source.GrantsForUser(ctx, userID)
	}
	key := grantsKey(version, userID)

	raw, err := pc.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var grants domain.Grants
		if jsonErr := json.Unmarshal(raw, &grants); jsonErr == nil {
			return grants, nil
		}
		pc.logger.Warn("rbac cache entry corrupt", zap.String("key", key))
	case !errors.Is(err, redis.Nil):
		pc.logger.Warn("rbac cache read failed", zap.Error(err))
	}

	grants, err := pc.source.GrantsForUser(ctx, userID)
	if err != nil {
		return domain.Grants{}, err
	}
	if payload, err := json.Marshal(grants); err == nil {
		if err := pc.client.Set(ctx, key, payload, pc.ttl).Err(); err != nil {
			pc.logger.Warn("rbac cache write failed", zap.Error(err))
		}
	}
	return grants, nil
}

// Invalidate bumps the cache version.
func (pc *PermissionCache) Invalidate(ctx context.Context) {
	if pc == nil || pc.client == nil {
		return
	}
	if err := pc.client.Incr(ctx, rbacVersionKey).Err(); err != nil {
		pc.logger.Warn("rbac cache invalidation failed", zap.Error(err))
	}
}

func (pc *PermissionCache) version(ctx context.Context) (int64, error) {
	v, err := pc.client.Get(ctx, rbacVersionKey).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return v, err
}

func grantsKey(version int64, userID string) string {
	return fmt.Sprintf("rbac:perms:v%d:%s", version, userID)
}
