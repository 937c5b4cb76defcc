package jwtutil

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"

	"note-service/pkg/config"
)

// UserClaims is the verified claim set carried by a session token. The JSON
// keys are the token's wire format and must stay stable across releases.
// Plan and role are snapshots taken at issue time; a plan upgrade is not
// visible to tokens issued before it.
type UserClaims struct {
	UserID     uint   `json:"userId"`
	TenantID   uint   `json:"tenantId"`
	Role       string `json:"role"`
	TenantSlug string `json:"tenantSlug"`
	Plan       string `json:"plan"`
	jwt.RegisteredClaims
}

// JWTUtil mints and verifies session tokens.
type JWTUtil struct {
	config *config.JWTConfig
}

// New creates a JWT utility with the given configuration.
func New(cfg *config.JWTConfig) *JWTUtil {
	return &JWTUtil{config: cfg}
}

// GenerateToken creates a signed token embedding the user's tenant and
// authorization attributes, expiring after the configured duration.
func (j *JWTUtil) GenerateToken(userID, tenantID uint, role, tenantSlug, plan string) (string, error) {
	if j.config == nil {
		return "", errors.New("JWT configuration not provided")
	}

	now := time.Now()
	claims := UserClaims{
		UserID:     userID,
		TenantID:   tenantID,
		Role:       role,
		TenantSlug: tenantSlug,
		Plan:       plan,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Duration(j.config.ExpirationHours) * time.Hour)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(j.config.SigningKey))
}

// ValidateToken validates and parses the token. Expired, tampered and
// malformed tokens all fail the same way; callers cannot tell them apart.
func (j *JWTUtil) ValidateToken(tokenString string) (*UserClaims, error) {
	if j.config == nil {
		return nil, errors.New("JWT configuration not provided")
	}

	token, err := jwt.ParseWithClaims(
		tokenString,
		&UserClaims{},
		func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return []byte(j.config.SigningKey), nil
		},
	)

	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*UserClaims); ok && token.Valid {
		return claims, nil
	}

	return nil, errors.New("invalid token")
}
