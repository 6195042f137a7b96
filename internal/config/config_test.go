package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("RBAC_CACHE_TTL_SECONDS", "0")
	t.Setenv("HTTP_REQUEST_TIMEOUT_SECONDS", "5")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 15, cfg.Pagination.DefaultPerPage)
	assert.Equal(t, 100, cfg.Pagination.MaxPerPage)
	assert.Zero(t, cfg.RBAC.CacheTTL())
	assert.Equal(t, "5s", cfg.App.RequestTimeout().String())
	assert.True(t, cfg.Logger.Development)
}

func TestProductionRefusesDefaultSecret(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("AUTH_JWT_SECRET", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "AUTH_JWT_SECRET must be set in production")
}

func TestValidateCollectsErrors(t *testing.T) {
	cfg := Config{
		Auth:         AuthConfig{JWTSecret: "s", AccessTokenTTLMinutes: 60, BcryptCost: 2},
		Pagination:   PaginationConfig{DefaultPerPage: 50, MaxPerPage: 20},
		Notification: NotificationConfig{Workers: 1},
	}
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "AUTH_BCRYPT_COST 2 out of range")
	assert.Contains(t, err.Error(), "PAGINATION_DEFAULT_PER_PAGE 50 out of range 1..20")
}
