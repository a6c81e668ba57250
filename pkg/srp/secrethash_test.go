package srp_test

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calderaid/caldera-go/pkg/srp"
)

func TestSecretHash(t *testing.T) {
	// Fixed vector shared with the server implementation.
	assert.Equal(t, "qnR8UCqJggD55PohusaBNviGoOJ67HC6Btry4qXLVZc=",
		srp.SecretHash("Mess", "age", "secret"))
}

func TestSecretHashDistinguishesInputs(t *testing.T) {
	base := srp.SecretHash("user", "client", "secret")

	assert.NotEqual(t, base, srp.SecretHash("user2", "client", "secret"))
	assert.NotEqual(t, base, srp.SecretHash("user", "client2", "secret"))
	assert.NotEqual(t, base, srp.SecretHash("user", "client", "secret2"))

	// The key/data split matters: moving a byte across the boundary between
	// userID and clientID changes nothing, moving it into the key does.
	assert.Equal(t, srp.SecretHash("ab", "c", "k"), srp.SecretHash("a", "bc", "k"))
	assert.NotEqual(t, srp.SecretHash("ab", "c", "k"), srp.SecretHash("ab", "ck", ""))
}

func TestSecretHashIsValidBase64(t *testing.T) {
	raw, err := base64.StdEncoding.DecodeString(srp.SecretHash("user", "client", "secret"))
	require.NoError(t, err)
	assert.Len(t, raw, 32)
}
