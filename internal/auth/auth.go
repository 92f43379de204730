package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/frahmantamala/gatepass/internal"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type TokenKind string

const (
	AccessToken  TokenKind = "access"
	RefreshToken TokenKind = "refresh"
)

// Claims represents JWT token claims. RegisteredClaims.ID carries the jti used
// by the blacklist.
type Claims struct {
	UserID int64     `json:"user_id"`
	Role   string    `json:"role"`
	Kind   TokenKind `json:"kind"`
	jwt.RegisteredClaims
}

// Remaining is how long the token stays valid from now.
func (c *Claims) Remaining(now time.Time) time.Duration {
	if c.ExpiresAt == nil {
		return 0
	}
	return c.ExpiresAt.Time.Sub(now)
}

type AuthTokens struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
}

type JWTTokenGenerator struct {
	AccessTokenSecret  []byte
	RefreshTokenSecret []byte
	AccessTokenTTL     time.Duration
	RefreshTokenTTL    time.Duration
	now                func() time.Time
}

func NewJWTTokenGenerator(cfg internal.SecurityConfig) *JWTTokenGenerator {
	return &JWTTokenGenerator{
		AccessTokenSecret:  []byte(cfg.JWTSecret),
		RefreshTokenSecret: []byte(cfg.JWTRefreshSecret),
		AccessTokenTTL:     cfg.AccessTokenDuration,
		RefreshTokenTTL:    cfg.RefreshTokenDuration,
		now:                time.Now,
	}
}

func (j *JWTTokenGenerator) secret(kind TokenKind) []byte {
	if kind == RefreshToken {
		return j.RefreshTokenSecret
	}
	return j.AccessTokenSecret
}

// Generate signs a token of the given kind. ttl overrides the configured lifetime when positive.
func (j *JWTTokenGenerator) Generate(kind TokenKind, userID int64, role string, ttl time.Duration) (string, time.Time, error) {
	if ttl <= 0 {
		ttl = j.AccessTokenTTL
		if kind == RefreshToken {
			ttl = j.RefreshTokenTTL
		}
	}
	now := j.now()
	expiresAt := now.Add(ttl)

	claims := &Claims{
		UserID: userID,
		Role:   role,
		Kind:   kind,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   fmt.Sprintf("%d", userID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(j.secret(kind))
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// Validate parses a token signed with the secret for kind.
func (j *JWTTokenGenerator) Validate(kind TokenKind, tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return j.secret(kind), nil
	}, jwt.WithTimeFunc(j.now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, internal.ErrTokenExpired
		}
		return nil, internal.ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Kind != kind || claims.UserID == 0 {
		return nil, internal.ErrInvalidToken
	}
	return claims, nil
}
