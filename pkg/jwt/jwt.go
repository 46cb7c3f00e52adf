package jwt

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenType represents the type of token
type TokenType string

const (
	AccessToken TokenType = "access"
)

// Claims represents JWT claims. The recipient id travels in the subject.
type Claims struct {
	TokenType TokenType `json:"token_type"`
	jwt.RegisteredClaims
}

// RecipientID returns the recipient the token was issued for
func (c *Claims) RecipientID() string {
	return c.Subject
}

// TokenManager handles JWT token operations
type TokenManager struct {
	secret         string
	accessTokenTTL time.Duration
	issuer         string
}

// NewTokenManager creates a new token manager
func NewTokenManager(secret string, accessTokenTTL time.Duration, issuer string) *TokenManager {
	return &TokenManager{
		secret:         secret,
		accessTokenTTL: accessTokenTTL,
		issuer:         issuer,
	}
}

// GenerateAccessToken generates a new access token for a recipient
func (tm *TokenManager) GenerateAccessToken(recipientID string) (string, time.Time, error) {
	expiresAt := time.Now().Add(tm.accessTokenTTL)

	claims := &Claims{
		TokenType: AccessToken,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			NotBefore: jwt.NewNumericDate(time.Now()),
			Issuer:    tm.issuer,
			Subject:   recipientID,
			ID:        uuid.New().String(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(tm.secret))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign access token: %w", err)
	}

	return tokenString, expiresAt, nil
}

// ValidateAccessToken validates an access token and returns its claims
func (tm *TokenManager) ValidateAccessToken(tokenString string) (*Claims, error) {
	options := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if tm.issuer != "" {
		options = append(options, jwt.WithIssuer(tm.issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(tm.secret), nil
	}, options...)
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}

	if claims.TokenType != AccessToken {
		return nil, fmt.Errorf("not an access token")
	}

	if claims.Subject == "" {
		return nil, fmt.Errorf("token has no subject")
	}

	return claims, nil
}
