package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestPasswordHashing(t *testing.T) {
	h := NewBcryptHasher(bcrypt.MinCost)

	hash, err := h.Hash("longenough1")
	require.NoError(t, err)
	assert.NoError(t, h.Compare(hash, "longenough1"))
	assert.ErrorIs(t, h.Compare(hash, "wrong"), ErrPasswordMismatch)
}

func TestPasswordHashing_DefaultCost(t *testing.T) {
	hash, err := NewBcryptHasher(DefaultCost).Hash("longenough1")
	require.NoError(t, err)

	cost, err := bcrypt.Cost([]byte(hash))
	require.NoError(t, err)
	assert.Equal(t, 10, cost)
}

func TestPasswordHashing_SaltsEachHash(t *testing.T) {
	h := NewBcryptHasher(bcrypt.MinCost)
	a, err := h.Hash("same-password")
	require.NoError(t, err)
	b, err := h.Hash("same-password")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestPasswordCompare_MalformedHash(t *testing.T) {
	err := NewBcryptHasher(bcrypt.MinCost).Compare("not-a-hash", "longenough1")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrPasswordMismatch)
}

func TestNewBcryptHasher_ClampsCost(t *testing.T) {
	assert.Equal(t, bcrypt.MinCost, NewBcryptHasher(1).cost)
	assert.Equal(t, bcrypt.MaxCost, NewBcryptHasher(99).cost)
}
