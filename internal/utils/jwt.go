package utils

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const tokenIssuer = "attendance-tracker"

// Identity is what a session token says about its bearer. StoreID is set
// for employees only.
type Identity struct {
	UserID  string
	Role    string
	StoreID string
}

// JWTClaims custom claims for JWT
type JWTClaims struct {
	UserID  string `json:"user_id"`
	Role    string `json:"role"`
	StoreID string `json:"store_id,omitempty"`
	jwt.RegisteredClaims
}

func (c *JWTClaims) Identity() Identity {
	return Identity{UserID: c.UserID, Role: c.Role, StoreID: c.StoreID}
}

// JWTUtil signs and checks session tokens.
type JWTUtil struct {
	secretKey []byte
	ttl       time.Duration
	parser    *jwt.Parser
}

func NewJWTUtil(secretKey string, expirationHours int64) *JWTUtil {
	return &JWTUtil{
		secretKey: []byte(secretKey),
		ttl:       time.Duration(expirationHours) * time.Hour,
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithIssuer(tokenIssuer),
			jwt.WithExpirationRequired(),
		),
	}
}

// GenerateToken signs a token for id that expires after the configured TTL.
func (ju *JWTUtil) GenerateToken(id Identity) (string, error) {
	if id.UserID == "" || id.Role == "" {
		return "", errors.New("token identity needs a user and a role")
	}
	now := time.Now()
	claims := &JWTClaims{
		UserID:  id.UserID,
		Role:    id.Role,
		StoreID: id.StoreID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			Subject:   id.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ju.ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(ju.secretKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// ValidateToken checks the signature, issuer and expiry of tokenString.
func (ju *JWTUtil) ValidateToken(tokenString string) (*JWTClaims, error) {
	claims := &JWTClaims{}
	_, err := ju.parser.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
		return ju.secretKey, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}
	if claims.UserID == "" || claims.UserID != claims.Subject {
		return nil, errors.New("invalid token subject")
	}
	return claims, nil
}
