package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testJWTService(ttl time.Duration) *JWTService {
	return NewJWTService(&JWTConfig{
		SecretKey:           []byte("test-secret"),
		AccessTokenDuration: ttl,
		Issuer:              "AffLink-Backend",
	})
}

func TestJWTService_GenerateAndValidate(t *testing.T) {
	svc := testJWTService(time.Hour)

	token, err := svc.GenerateAccessToken("admin@example.com")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "admin@example.com", claims.Email)
	assert.Equal(t, "AffLink-Backend", claims.Issuer)
}

func TestJWTService_ExpiredToken(t *testing.T) {
	svc := testJWTService(-time.Minute)

	token, err := svc.GenerateAccessToken("admin@example.com")
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestJWTService_WrongSecret(t *testing.T) {
	token, err := testJWTService(time.Hour).GenerateAccessToken("admin@example.com")
	require.NoError(t, err)

	other := NewJWTService(&JWTConfig{
		SecretKey:           []byte("different-secret"),
		AccessTokenDuration: time.Hour,
		Issuer:              "AffLink-Backend",
	})
	_, err = other.ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestExtractTokenFromBearer(t *testing.T) {
	assert.Equal(t, "abc.def.ghi", ExtractTokenFromBearer("Bearer abc.def.ghi"))
	assert.Empty(t, ExtractTokenFromBearer("abc.def.ghi"))
	assert.Empty(t, ExtractTokenFromBearer("Bearer "))
	assert.Empty(t, ExtractTokenFromBearer(""))
}

func TestPasswordService(t *testing.T) {
	svc := NewPasswordService()

	hash, err := svc.HashPassword("correct-horse")
	require.NoError(t, err)
	assert.NotEqual(t, "correct-horse", hash)

	assert.NoError(t, svc.VerifyPassword(hash, "correct-horse"))
	assert.Error(t, svc.VerifyPassword(hash, "wrong-password"))
}
