package password

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHashAndVerify(t *testing.T) {
	encoded, err := Hash("s3cret-pass")
	require.NoError(t, err)

	assert.True(t, Verify("s3cret-pass", encoded))
	assert.False(t, Verify("wrong", encoded))
	assert.False(t, NeedsRehash(encoded))
}

func TestVerifyLegacyBcrypt(t *testing.T) {
	legacy, err := bcrypt.GenerateFromPassword([]byte("legacy-pass"), bcrypt.MinCost)
	require.NoError(t, err)

	assert.True(t, Verify("legacy-pass", string(legacy)))
	assert.False(t, Verify("nope", string(legacy)))
	assert.True(t, NeedsRehash(string(legacy)))
}

func TestVerifyRejectsMalformed(t *testing.T) {
	assert.False(t, Verify("x", ""))
	assert.False(t, Verify("x", "$argon2id$v=19$m=1$abc$def"))
	assert.True(t, NeedsRehash("plain"))
}
