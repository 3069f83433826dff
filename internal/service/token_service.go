package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"twitt/internal/cache"
	"twitt/internal/config"
	"twitt/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	TokenIssuer   = "twitt-api"
	TokenAudience = "twitt-client"
)

// TokenType distinguishes access from refresh tokens.
type TokenType string

const (
	AccessToken  TokenType = "access"
	RefreshToken TokenType = "refresh"
)

// Claims are the JWT claims issued by TokenService.
type Claims struct {
	Type TokenType `json:"typ"`
	jwt.RegisteredClaims
}

// UserID returns the subject as a UUID.
func (c *Claims) UserID() (uuid.UUID, error) {
	return uuid.Parse(c.Subject)
}

// ErrTicketStoreUnavailable is returned when WebSocket tickets cannot be issued.
var ErrTicketStoreUnavailable = errors.New("websocket ticket store unavailable")

// TokenService issues and verifies JWTs and one-time WebSocket tickets.
// Revocation and tickets live in Redis; with no Redis client revocation is a no-op.
type TokenService struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	rdb        *redis.Client
	now        func() time.Time
}

// NewTokenService builds a TokenService from config.
func NewTokenService(cfg *config.Config, rdb *redis.Client) *TokenService {
	accessTTL := time.Duration(cfg.AccessTokenTTLMin) * time.Minute
	if accessTTL <= 0 {
		accessTTL = 15 * time.Minute
	}
	refreshTTL := time.Duration(cfg.RefreshTokenTTLHours) * time.Hour
	if refreshTTL <= 0 {
		refreshTTL = 7 * 24 * time.Hour
	}
	return &TokenService{
		secret:     []byte(cfg.JWTSecret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		rdb:        rdb,
		now:        time.Now,
	}
}

// IssuePair signs a fresh access and refresh token for userID.
func (s *TokenService) IssuePair(userID uuid.UUID) (models.TokenPair, error) {
	access, err := s.sign(userID, AccessToken, s.accessTTL)
	if err != nil {
		return models.TokenPair{}, err
	}
	refresh, err := s.sign(userID, RefreshToken, s.refreshTTL)
	if err != nil {
		return models.TokenPair{}, err
	}
	return models.TokenPair{Access: access, Refresh: refresh}, nil
}

func (s *TokenService) sign(userID uuid.UUID, typ TokenType, ttl time.Duration) (string, error) {
	if len(s.secret) == 0 {
		return "", fmt.Errorf("JWT secret not configured")
	}
	now := s.now()
	claims := Claims{
		Type: typ,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			Issuer:    TokenIssuer,
			Audience:  jwt.ClaimStrings{TokenAudience},
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ID:        uuid.NewString(),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// Parse verifies signature, issuer, audience, expiry and token type.
// Every failure maps to models.ErrInvalidToken.
func (s *TokenService) Parse(raw string, want TokenType) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	},
		jwt.WithIssuer(TokenIssuer),
		jwt.WithAudience(TokenAudience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !token.Valid {
		return nil, models.ErrInvalidToken
	}
	if claims.Type != want || claims.ID == "" {
		return nil, models.ErrInvalidToken
	}
	if _, err := claims.UserID(); err != nil {
		return nil, models.ErrInvalidToken
	}
	return claims, nil
}

// Revoke blacklists the token's jti until it would have expired anyway.
func (s *TokenService) Revoke(ctx context.Context, claims *Claims) error {
	if s.rdb == nil || claims == nil || claims.ID == "" {
		return nil
	}
	ttl := time.Minute
	if claims.ExpiresAt != nil {
		ttl = claims.ExpiresAt.Sub(s.now())
	}
	if ttl <= 0 {
		return nil
	}
	return s.rdb.Set(ctx, cache.BlacklistKey(claims.ID), "1", ttl).Err()
}

// IsRevoked reports whether jti was blacklisted. Redis errors fail open.
func (s *TokenService) IsRevoked(ctx context.Context, jti string) bool {
	if s.rdb == nil || jti == "" {
		return false
	}
	n, err := s.rdb.Exists(ctx, cache.BlacklistKey(jti)).Result()
	return err == nil && n > 0
}

// IssueWSTicket stores a random single-use ticket bound to userID.
func (s *TokenService) IssueWSTicket(ctx context.Context, userID uuid.UUID) (string, error) {
	if s.rdb == nil {
		return "", ErrTicketStoreUnavailable
	}
	buf := make([]byte, 24)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	ticket := base64.RawURLEncoding.EncodeToString(buf)
	if err := s.rdb.Set(ctx, cache.WSTicketKey(ticket), userID.String(), cache.WSTicketTTL).Err(); err != nil {
		return "", err
	}
	return ticket, nil
}

// ConsumeWSTicket atomically reads and deletes a ticket.
func (s *TokenService) ConsumeWSTicket(ctx context.Context, ticket string) (uuid.UUID, error) {
	if s.rdb == nil || ticket == "" {
		return uuid.Nil, models.ErrInvalidToken
	}
	raw, err := s.rdb.GetDel(ctx, cache.WSTicketKey(ticket)).Result()
	if err != nil {
		return uuid.Nil, models.ErrInvalidToken
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, models.ErrInvalidToken
	}
	return id, nil
}
