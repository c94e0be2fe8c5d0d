// Package crypto encrypts sensitive profile fields (medical notes) at rest.
//
// Ciphertexts are AES-256-CBC with PKCS#7 padding, serialised as
// base64(hex(iv) + hex(ciphertext)) so existing stored values keep decrypting.
package crypto

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
)

const (
	keySize  = 32
	ivHexLen = aes.BlockSize * 2
)

var (
	ErrInvalidKey        = errors.New("encryption key must decode to 32 bytes (AES-256)")
	ErrInvalidCiphertext = errors.New("invalid ciphertext")
)

// FieldCipher encrypts and decrypts short text fields with a fixed key.
type FieldCipher struct {
	block cipher.Block
}

// NewFieldCipher builds a cipher from a base64-encoded 32-byte key.
func NewFieldCipher(keyBase64 string) (*FieldCipher, error) {
	if keyBase64 == "" {
		return nil, fmt.Errorf("%w: key is empty", ErrInvalidKey)
	}
	key, err := base64.StdEncoding.DecodeString(keyBase64)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}
	if len(key) != keySize {
		return nil, ErrInvalidKey
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create AES cipher: %w", err)
	}
	return &FieldCipher{block: block}, nil
}

// Encrypt returns the serialised ciphertext of plainText. Empty input stays empty.
func (c *FieldCipher) Encrypt(plainText string) (string, error) {
	if plainText == "" {
		return "", nil
	}

	padded := pad([]byte(plainText))
	iv := make([]byte, aes.BlockSize)
	if _, err := io.ReadFull(rand.Reader, iv); err != nil {
		return "", fmt.Errorf("failed to generate IV: %w", err)
	}

	out := make([]byte, len(padded))
	cipher.NewCBCEncrypter(c.block, iv).CryptBlocks(out, padded)

	combined := hex.EncodeToString(iv) + hex.EncodeToString(out)
	return base64.StdEncoding.EncodeToString([]byte(combined)), nil
}

// Decrypt reverses Encrypt. Empty input stays empty.
func (c *FieldCipher) Decrypt(encoded string) (string, error) {
	if encoded == "" {
		return "", nil
	}

	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidCiphertext, err)
	}
	if len(raw) < ivHexLen {
		return "", fmt.Errorf("%w: too short", ErrInvalidCiphertext)
	}

	iv, err := hex.DecodeString(string(raw[:ivHexLen]))
	if err != nil {
		return "", fmt.Errorf("%w: bad IV: %v", ErrInvalidCiphertext, err)
	}
	data, err := hex.DecodeString(string(raw[ivHexLen:]))
	if err != nil {
		return "", fmt.Errorf("%w: bad body: %v", ErrInvalidCiphertext, err)
	}
	if len(data) == 0 || len(data)%aes.BlockSize != 0 {
		return "", fmt.Errorf("%w: not a multiple of the block size", ErrInvalidCiphertext)
	}

	plain := make([]byte, len(data))
	cipher.NewCBCDecrypter(c.block, iv).CryptBlocks(plain, data)

	unpadded, err := unpad(plain)
	if err != nil {
		return "", err
	}
	return string(unpadded), nil
}

func pad(b []byte) []byte {
	n := aes.BlockSize - len(b)%aes.BlockSize
	return append(b, bytes.Repeat([]byte{byte(n)}, n)...)
}

func unpad(b []byte) ([]byte, error) {
	n := int(b[len(b)-1])
	if n == 0 || n > aes.BlockSize || n > len(b) {
		return nil, fmt.Errorf("%w: bad padding", ErrInvalidCiphertext)
	}
	for _, p := range b[len(b)-n:] {
		if int(p) != n {
			return nil, fmt.Errorf("%w: bad padding", ErrInvalidCiphertext)
		}
	}
	return b[:len(b)-n], nil
}
