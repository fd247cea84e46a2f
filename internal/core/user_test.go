package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestCheckPassword(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret-pass"), bcrypt.MinCost)
	require.NoError(t, err)

	assert.NoError(t, CheckPassword(string(hash), "s3cret-pass"))
	assert.Error(t, CheckPassword(string(hash), "wrong"))
	assert.Error(t, CheckPassword("not-a-hash", "s3cret-pass"))
}
