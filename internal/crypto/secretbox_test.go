package crypto

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSecretBox_EmptyKey(t *testing.T) {
	box, err := NewSecretBox("")
	assert.Nil(t, box)
	assert.ErrorIs(t, err, ErrEmptyKey)
}

func TestSecretBox_EncryptDecryptRoundtrip(t *testing.T) {
	box, err := NewSecretBox("test-master-key")
	require.NoError(t, err)

	ciphertext, err := box.Encrypt("my-secret-token")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(ciphertext, "enc.v1:"))
	assert.NotContains(t, ciphertext, "my-secret-token")

	plaintext, err := box.Decrypt(ciphertext)
	require.NoError(t, err)
	assert.Equal(t, "my-secret-token", plaintext)
}

func TestSecretBox_EncryptIsIdempotent(t *testing.T) {
	box, err := NewSecretBox("test-master-key")
	require.NoError(t, err)

	first, err := box.Encrypt("my-secret-token")
	require.NoError(t, err)

	// Повторное шифрование уже зашифрованного значения ничего не меняет
	second, err := box.Encrypt(first)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	plaintext, err := box.Decrypt(second)
	require.NoError(t, err)
	assert.Equal(t, "my-secret-token", plaintext)
}

func TestSecretBox_EncryptProducesUniqueCiphertext(t *testing.T) {
	box, err := NewSecretBox("test-master-key")
	require.NoError(t, err)

	first, err := box.Encrypt("same-value")
	require.NoError(t, err)
	second, err := box.Encrypt("same-value")
	require.NoError(t, err)

	// Случайный nonce: одинаковый plaintext дает разный ciphertext
	assert.NotEqual(t, first, second)
}

func TestSecretBox_DecryptRejectsUntaggedValue(t *testing.T) {
	box, err := NewSecretBox("test-master-key")
	require.NoError(t, err)

	_, err = box.Decrypt("plain-value")
	assert.ErrorIs(t, err, ErrInvalidCiphertext)
}

func TestSecretBox_DecryptRejectsCorruptCiphertext(t *testing.T) {
	box, err := NewSecretBox("test-master-key")
	require.NoError(t, err)

	_, err = box.Decrypt("enc.v1:not-valid-base64!!!")
	assert.Error(t, err)

	_, err = box.Decrypt("enc.v1:c2hvcnQ=") // valid base64, shorter than a nonce
	assert.ErrorIs(t, err, ErrInvalidCiphertext)
}

func TestSecretBox_DecryptWithWrongKey(t *testing.T) {
	box1, err := NewSecretBox("key-one")
	require.NoError(t, err)
	box2, err := NewSecretBox("key-two")
	require.NoError(t, err)

	ciphertext, err := box1.Encrypt("secret")
	require.NoError(t, err)

	_, err = box2.Decrypt(ciphertext)
	assert.Error(t, err)
}

func TestIsEncrypted(t *testing.T) {
	assert.True(t, IsEncrypted("enc.v1:abc"))
	assert.False(t, IsEncrypted("plain-token"))
	assert.False(t, IsEncrypted(""))
	assert.False(t, IsEncrypted("ENC.V1:abc"))
}
