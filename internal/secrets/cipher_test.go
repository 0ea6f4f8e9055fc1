package secrets_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wallubot/wallu-telegram/internal/secrets"
)

func TestCipher_Roundtrip(t *testing.T) {
	t.Parallel()

	c, err := secrets.NewCipher("correct horse battery staple")
	require.NoError(t, err)

	for _, plain := range []string{"wallu-api-key-123", "", "ключ with unicode ✅"} {
		sealed, err := c.Encrypt(plain)
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(sealed, "v1:"))

		opened, err := c.Decrypt(sealed)
		require.NoError(t, err)
		assert.Equal(t, plain, opened)
	}
}

func TestCipher_FreshNonce(t *testing.T) {
	t.Parallel()

	c, err := secrets.NewCipher("secret")
	require.NoError(t, err)

	a, err := c.Encrypt("same")
	require.NoError(t, err)
	b, err := c.Encrypt("same")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestNewCipher_MissingSecret(t *testing.T) {
	t.Parallel()

	for _, secret := range []string{"", "   "} {
		_, err := secrets.NewCipher(secret)
		assert.ErrorIs(t, err, secrets.ErrMissingSecret)
	}
}

func TestCipher_RotatedSecret(t *testing.T) {
	t.Parallel()

	oldCipher, err := secrets.NewCipher("old-secret")
	require.NoError(t, err)
	newCipher, err := secrets.NewCipher("new-secret")
	require.NoError(t, err)

	sealed, err := oldCipher.Encrypt("api-key")
	require.NoError(t, err)

	_, err = newCipher.Decrypt(sealed)
	assert.ErrorIs(t, err, secrets.ErrDecryptionFailed)
}

func TestCipher_Malformed(t *testing.T) {
	t.Parallel()

	c, err := secrets.NewCipher("secret")
	require.NoError(t, err)

	tests := []struct {
		name  string
		input string
	}{
		{name: "plaintext", input: "api-key"},
		{name: "bad base64", input: "v1:!!!"},
		{name: "too short", input: "v1:AAAA"},
		{name: "empty", input: ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := c.Decrypt(tc.input)
			assert.ErrorIs(t, err, secrets.ErrInvalidCiphertext)
		})
	}
}
