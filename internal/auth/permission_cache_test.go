package auth

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

func newCache(t *testing.T, source GrantSource) (*PermissionCache, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewPermissionCache(source, client, time.Minute, nil), mr
}

func TestPermissionCacheServesRepeatLookupsFromRedis(t *testing.T) {
	source := &stubGrants{grants: map[string]domain.Grants{
		"u1": {Roles: []string{"agent"}, Permissions: []string{"tickets-access"}},
	}}
	cache, mr := newCache(t, source)
	ctx := context.Background()

	first, err := cache.GrantsForUser(ctx, "u1")
	require.NoError(t, err)
	second, err := cache.GrantsForUser(ctx, "u1")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, source.calls)
	assert.True(t, mr.Exists("rbac:perms:v0:u1"))
}

func TestPermissionCacheInvalidateForcesReload(t *testing.T) {
	source := &stubGrants{grants: map[string]domain.Grants{
		"u1": {Permissions: []string{"tickets-access"}},
	}}
	cache, _ := newCache(t, source)
	ctx := context.Background()

	_, err := cache.GrantsForUser(ctx, "u1")
	require.NoError(t, err)

	source.grants["u1"] = domain.Grants{Permissions: []string{"tickets-access", "tickets-delete"}}
	cache.Invalidate(ctx)

	grants, err := cache.GrantsForUser(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, []string{"tickets-access", "tickets-delete"}, grants.Permissions)
	assert.Equal(t, 2, source.calls)
}

func TestPermissionCacheFallsBackWhenRedisIsDown(t *testing.T) {
	source := &stubGrants{grants: map[string]domain.Grants{
		"u1": {Permissions: []string{"users-access"}},
	}}
	cache, mr := newCache(t, source)
	mr.Close()

	grants, err := cache.GrantsForUser(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, []string{"users-access"}, grants.Permissions)
	cache.Invalidate(context.Background())
}

func TestPermissionCacheWithoutClientPassesThrough(t *testing.T) {
	source := &stubGrants{grants: map[string]domain.Grants{"u1": {Permissions: []string{"roles-access"}}}}
	cache := NewPermissionCache(source, nil, time.Minute, nil)

	for range 2 {
		_, err := cache.GrantsForUser(context.Background(), "u1")
		require.NoError(t, err)
	}
	assert.Equal(t, 2, source.calls)
	cache.Invalidate(context.Background())
}
