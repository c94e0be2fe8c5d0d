package crypto

import (
	"encoding/base64"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testKey = base64.StdEncoding.EncodeToString([]byte("0123456789abcdef0123456789abcdef"))

func TestFieldCipher_EncryptDecrypt(t *testing.T) {
	c, err := NewFieldCipher(testKey)
	require.NoError(t, err)

	for _, plain := range []string{"a", "exactly sixteen!", "knee surgery in 2023, avoid deep squats"} {
		enc, err := c.Encrypt(plain)
		require.NoError(t, err)
		assert.NotContains(t, enc, plain)

		dec, err := c.Decrypt(enc)
		require.NoError(t, err)
		assert.Equal(t, plain, dec)
	}
}

func TestFieldCipher_RandomIV(t *testing.T) {
	c, err := NewFieldCipher(testKey)
	require.NoError(t, err)

	a, _ := c.Encrypt("same text")
	b, _ := c.Encrypt("same text")
	assert.NotEqual(t, a, b)
}

func TestFieldCipher_Empty(t *testing.T) {
	c, err := NewFieldCipher(testKey)
	require.NoError(t, err)

	enc, err := c.Encrypt("")
	require.NoError(t, err)
	assert.Empty(t, enc)

	dec, err := c.Decrypt("")
	require.NoError(t, err)
	assert.Empty(t, dec)
}

func TestNewFieldCipher_InvalidKey(t *testing.T) {
	for _, key := range []string{"", "not base64!!", base64.StdEncoding.EncodeToString([]byte("short"))} {
		_, err := NewFieldCipher(key)
		assert.ErrorIs(t, err, ErrInvalidKey, "key %q", key)
	}
}

func TestFieldCipher_Tampered(t *testing.T) {
	c, err := NewFieldCipher(testKey)
	require.NoError(t, err)

	_, err = c.Decrypt("%%%")
	assert.ErrorIs(t, err, ErrInvalidCiphertext)

	_, err = c.Decrypt(base64.StdEncoding.EncodeToString([]byte(strings.Repeat("0", 20))))
	assert.ErrorIs(t, err, ErrInvalidCiphertext)

	_, err = c.Decrypt(base64.StdEncoding.EncodeToString([]byte(strings.Repeat("0", 32) + "abc")))
	assert.ErrorIs(t, err, ErrInvalidCiphertext)

	other, err := NewFieldCipher(base64.StdEncoding.EncodeToString([]byte("fedcba9876543210fedcba9876543210")))
	require.NoError(t, err)
	enc, err := c.Encrypt("secret notes")
	require.NoError(t, err)
	if dec, err := other.Decrypt(enc); err == nil {
		assert.NotEqual(t, "secret notes", dec)
	}
}
