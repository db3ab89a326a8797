package crypto

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/chacha20poly1305"
)

// encPrefix tags ciphertext so encrypted values can be recognized by
// format inspection instead of trial decryption.
const encPrefix = "enc.v1:"

var (
	ErrEmptyKey          = errors.New("encryption key is empty")
	ErrInvalidCiphertext = errors.New("invalid ciphertext")
)

// SecretBox шифрует секреты для хранения в базе (ChaCha20-Poly1305).
type SecretBox struct {
	key []byte
}

// NewSecretBox derives a fixed-size key from the configured master key.
func NewSecretBox(masterKey string) (*SecretBox, error) {
	if masterKey == "" {
		return nil, ErrEmptyKey
	}
	sum := sha256.Sum256([]byte(masterKey))
	return &SecretBox{key: sum[:]}, nil
}

// Encrypt seals the plaintext and returns the tagged base64 form.
// Already-encrypted input is returned unchanged so the operation is
// idempotent across repeated settings updates.
func (b *SecretBox) Encrypt(plaintext string) (string, error) {
	if IsEncrypted(plaintext) {
		return plaintext, nil
	}

	aead, err := chacha20poly1305.NewX(b.key)
	if err != nil {
		return "", fmt.Errorf("failed to create cipher: %w", err)
	}

	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}

	sealed := aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return encPrefix + base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt opens a tagged ciphertext produced by Encrypt.
func (b *SecretBox) Decrypt(value string) (string, error) {
	if !IsEncrypted(value) {
		return "", ErrInvalidCiphertext
	}

	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(value, encPrefix))
	if err != nil {
		return "", fmt.Errorf("failed to decode ciphertext: %w", err)
	}

	aead, err := chacha20poly1305.NewX(b.key)
	if err != nil {
		return "", fmt.Errorf("failed to create cipher: %w", err)
	}

	if len(raw) < aead.NonceSize() {
		return "", ErrInvalidCiphertext
	}

	nonce, sealed := raw[:aead.NonceSize()], raw[aead.NonceSize():]
	plaintext, err := aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return "", fmt.Errorf("failed to decrypt value: %w", err)
	}

	return string(plaintext), nil
}

// IsEncrypted reports whether the value carries the ciphertext format tag.
func IsEncrypted(value string) bool {
	return strings.HasPrefix(value, encPrefix)
}
