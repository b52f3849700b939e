package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHashAndComparePassword(t *testing.T) {
	hash, err := HashPassword("s3cret-pass", bcrypt.MinCost)
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret-pass", hash)

	assert.NoError(t, ComparePassword(hash, "s3cret-pass"))
	assert.Error(t, ComparePassword(hash, "wrong-pass"))
}

func TestHashPasswordClampsOutOfRangeCost(t *testing.T) {
	// 0 and 99 are both outside bcrypt's range; hashing still succeeds
	// at the default cost instead of erroring out.
	for _, cost := range []int{0, 99} {
		hash, err := HashPassword("s3cret-pass", cost)
		require.NoError(t, err)

		actual, err := bcrypt.Cost([]byte(hash))
		require.NoError(t, err)
		assert.Equal(t, bcrypt.DefaultCost, actual)
	}
}
