package utils

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTUtil_GenerateToken(t *testing.T) {
	jwtUtil := NewJWTUtil("secret", 1)
	id := Identity{UserID: "5f0c2e8a-7f4e-4d7b-9a41-2a7c0b1d9e11", Role: "employee", StoreID: "s-1"}

	tokenString, err := jwtUtil.GenerateToken(id)
	require.NoError(t, err)
	assert.NotEmpty(t, tokenString)

	claims, err := jwtUtil.ValidateToken(tokenString)
	require.NoError(t, err)
	assert.Equal(t, id, claims.Identity())
	assert.Equal(t, "attendance-tracker", claims.Issuer)
	assert.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt.Time, 5*time.Second)
}

func TestJWTUtil_GenerateToken_AdminHasNoStore(t *testing.T) {
	jwtUtil := NewJWTUtil("secret", 1)
	tokenString, err := jwtUtil.GenerateToken(Identity{UserID: "a-1", Role: "admin"})
	require.NoError(t, err)

	claims, err := jwtUtil.ValidateToken(tokenString)
	require.NoError(t, err)
	assert.Empty(t, claims.StoreID)
}

func TestJWTUtil_GenerateToken_RequiresUserAndRole(t *testing.T) {
	jwtUtil := NewJWTUtil("secret", 1)
	_, err := jwtUtil.GenerateToken(Identity{Role: "admin"})
	assert.Error(t, err)
	_, err = jwtUtil.GenerateToken(Identity{UserID: "u-1"})
	assert.Error(t, err)
}

func TestJWTUtil_ValidateToken_InvalidToken(t *testing.T) {
	jwtUtil := NewJWTUtil("secret", 1)

	_, err := jwtUtil.ValidateToken("invalid.token.string")
	assert.Error(t, err)
}

func TestJWTUtil_ValidateToken_ExpiredToken(t *testing.T) {
	jwtUtil := NewJWTUtil("secret", -1)

	tokenString, _ := jwtUtil.GenerateToken(Identity{UserID: "u-1", Role: "admin"})

	_, err := jwtUtil.ValidateToken(tokenString)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestJWTUtil_ValidateToken_WrongSecret(t *testing.T) {
	jwtUtil1 := NewJWTUtil("secret1", 1)
	jwtUtil2 := NewJWTUtil("secret2", 1)

	tokenString, _ := jwtUtil1.GenerateToken(Identity{UserID: "u-1", Role: "employee", StoreID: "s-1"})

	_, err := jwtUtil2.ValidateToken(tokenString)
	assert.Error(t, err)
}

func TestJWTUtil_ValidateToken_RejectsForeignClaims(t *testing.T) {
	jwtUtil := NewJWTUtil("secret", 1)
	valid := jwt.RegisteredClaims{
		Issuer:    "attendance-tracker",
		Subject:   "u-1",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}

	tests := []struct {
		name   string
		method jwt.SigningMethod
		claims func(*JWTClaims)
	}{
		{"other signing method", jwt.SigningMethodHS384, func(*JWTClaims) {}},
		{"other issuer", jwt.SigningMethodHS256, func(c *JWTClaims) { c.Issuer = "someone-else" }},
		{"no expiry", jwt.SigningMethodHS256, func(c *JWTClaims) { c.ExpiresAt = nil }},
		{"subject mismatch", jwt.SigningMethodHS256, func(c *JWTClaims) { c.Subject = "u-2" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims := &JWTClaims{UserID: "u-1", Role: "employee", RegisteredClaims: valid}
			tt.claims(claims)
			tokenString, err := jwt.NewWithClaims(tt.method, claims).SignedString([]byte("secret"))
			require.NoError(t, err)

			_, err = jwtUtil.ValidateToken(tokenString)
			assert.Error(t, err)
		})
	}
}
