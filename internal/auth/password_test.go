package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHashPasswordRoundTrip(t *testing.T) {
	hash, err := HashPassword("correct horse", bcrypt.MinCost)
	require.NoError(t, err)

	cost, err := bcrypt.Cost([]byte(hash))
	require.NoError(t, err)
	assert.Equal(t, bcrypt.MinCost, cost)
	assert.NoError(t, ComparePassword(hash, "correct horse"))
	assert.ErrorIs(t, ComparePassword(hash, "wrong horse"), bcrypt.ErrMismatchedHashAndPassword)
}

func TestHashPasswordRejectsCostOutOfRange(t *testing.T) {
	for _, cost := range []int{0, 3, 32} {
		_, err := HashPassword("correct horse", cost)
		require.Error(t, err, "cost %d", cost)
		assert.Contains(t, err.Error(), "out of range 4..31")
	}
}

func TestCheckCostBounds(t *testing.T) {
	assert.NoError(t, CheckCost(bcrypt.MinCost))
	assert.NoError(t, CheckCost(bcrypt.MaxCost))
	assert.Error(t, CheckCost(bcrypt.MinCost-1))
	assert.Error(t, CheckCost(bcrypt.MaxCost+1))
}
