package jwt

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test_secret_key_1234567890"

func TestNewJWTMaker_Validation(t *testing.T) {
	_, err := NewJWTMaker("", time.Hour)
	assert.Error(t, err)

	_, err = NewJWTMaker(testSecret, 0)
	assert.Error(t, err)

	m, err := NewJWTMaker(testSecret, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, time.Hour, m.TTL())
}

func TestJWTMaker_GenerateAndParseToken_ValidCases(t *testing.T) {
	maker, err := NewJWTMaker(testSecret, time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name    string
		subject string
	}{
		{
			name:    "uuid subject",
			subject: "9b2f7d1e-3f4c-4b8a-9c51-0a6de2b8f001",
		},
		{
			name:    "numeric subject",
			subject: "42",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, err := maker.GenerateToken(tt.subject)
			require.NoError(t, err)
			assert.Len(t, strings.Split(token, "."), 3)

			claims, err := maker.ParseToken(token)
			require.NoError(t, err)

			assert.Equal(t, tt.subject, claims.Subject)
			assert.WithinDuration(t, time.Now(), claims.IssuedAt.Time, time.Second)
			assert.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt.Time, time.Second)
		})
	}
}

func TestJWTMaker_GenerateToken_EmptySubject(t *testing.T) {
	maker, err := NewJWTMaker(testSecret, time.Hour)
	require.NoError(t, err)

	_, err = maker.GenerateToken("")
	assert.Error(t, err)
}

func TestJWTMaker_ParseToken_InvalidTokens(t *testing.T) {
	maker, err := NewJWTMaker(testSecret, 15*time.Minute)
	require.NoError(t, err)

	validToken, err := maker.GenerateToken("user-1")
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{
			name:  "empty token",
			token: "",
		},
		{
			name:  "malformed token",
			token: "invalid.token.here",
		},
		{
			name:  "two segments",
			token: strings.Join(strings.Split(validToken, ".")[:2], "."),
		},
		{
			name:  "wrong secret key",
			token: createTokenWithWrongSecret(t),
		},
		{
			name:  "tampered token",
			token: validToken + "tampered",
		},
		{
			name:  "none algorithm",
			token: createUnsignedToken(t),
		},
		{
			name:  "other hmac algorithm",
			token: createHS512Token(t),
		},
		{
			name:  "token without subject",
			token: createTokenWithoutSubject(t),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := maker.ParseToken(tt.token)
			assert.ErrorIs(t, err, ErrInvalidToken)
			assert.Nil(t, claims)
		})
	}
}

func TestJWTMaker_ParseToken_TamperedSignatureBytes(t *testing.T) {
	maker, err := NewJWTMaker(testSecret, time.Hour)
	require.NoError(t, err)

	token, err := maker.GenerateToken("user-1")
	require.NoError(t, err)

	parts := strings.Split(token, ".")
	require.Len(t, parts, 3)
	signature := []byte(parts[2])

	for i := range signature {
		tampered := make([]byte, len(signature))
		copy(tampered, signature)
		if tampered[i] == 'A' {
			tampered[i] = 'B'
		} else {
			tampered[i] = 'A'
		}

		forged := parts[0] + "." + parts[1] + "." + string(tampered)
		claims, err := maker.ParseToken(forged)
		assert.ErrorIs(t, err, ErrInvalidToken, "signature byte %d", i)
		assert.Nil(t, claims)
	}
}

func TestJWTMaker_TokenExpiration(t *testing.T) {
	issuedAt := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	now := issuedAt

	maker, err := NewJWTMaker(testSecret, time.Hour, WithClock(func() time.Time { return now }))
	require.NoError(t, err)

	token, err := maker.GenerateToken("user-1")
	require.NoError(t, err)

	now = issuedAt.Add(time.Hour - time.Second)
	claims, err := maker.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.Subject)

	now = issuedAt.Add(time.Hour + time.Second)
	claims, err = maker.ParseToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
	assert.Nil(t, claims)
	assert.Contains(t, err.Error(), "expired")
}

func TestJWTMaker_DifferentSecretKeys(t *testing.T) {
	maker1, err := NewJWTMaker("first_secret_key", 15*time.Minute)
	require.NoError(t, err)
	maker2, err := NewJWTMaker("different_secret_key", 15*time.Minute)
	require.NoError(t, err)

	token, err := maker1.GenerateToken("user-1")
	require.NoError(t, err)

	claims, err := maker2.ParseToken(token)
	assert.Error(t, err)
	assert.Nil(t, claims)

	claims, err = maker1.ParseToken(token)
	assert.NoError(t, err)
	assert.NotNil(t, claims)
}

func createTokenWithWrongSecret(t *testing.T) string {
	wrongMaker, err := NewJWTMaker("wrong_secret_key", 15*time.Minute)
	require.NoError(t, err)
	token, err := wrongMaker.GenerateToken("user-1")
	require.NoError(t, err)
	return token
}

func createUnsignedToken(t *testing.T) string {
	claims := jwt.RegisteredClaims{
		Subject:   "user-1",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	return token
}

func createHS512Token(t *testing.T) string {
	claims := jwt.RegisteredClaims{
		Subject:   "user-1",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return token
}

func createTokenWithoutSubject(t *testing.T) string {
	claims := jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return token
}
