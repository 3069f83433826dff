// Package middleware provides the fiber middleware shared by every route group.
package middleware

import (
	"context"
	"strings"

	"twitt/internal/models"
	"twitt/internal/observability"
	"twitt/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// Fiber locals written by AuthRequired.
const (
	LocalUserID = "userID"
	LocalClaims = "claims"
)

// TokenVerifier checks access tokens and their revocation state.
type TokenVerifier interface {
	Parse(raw string, want service.TokenType) (*service.Claims, error)
	IsRevoked(ctx context.Context, jti string) bool
}

// AuthRequired rejects requests without a valid, unrevoked Bearer access token
// and stores the caller's id in c.Locals("userID") as a uuid.UUID.
func AuthRequired(tokens TokenVerifier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw, ok := bearerToken(c.Get(fiber.HeaderAuthorization))
		if !ok {
			return models.ErrAuthRequired
		}

		claims, err := tokens.Parse(raw, service.AccessToken)
		if err != nil {
			return models.ErrInvalidToken
		}
		if tokens.IsRevoked(c.UserContext(), claims.ID) {
			return models.ErrInvalidToken
		}
		userID, err := claims.UserID()
		if err != nil {
			return models.ErrInvalidToken
		}

		c.Locals(LocalUserID, userID)
		c.Locals(LocalClaims, claims)
		c.SetUserContext(observability.WithUserID(c.UserContext(), userID))
		return c.Next()
	}
}

// UserID returns the authenticated user id, if any.
func UserID(c *fiber.Ctx) (uuid.UUID, bool) {
	id, ok := c.Locals(LocalUserID).(uuid.UUID)
	return id, ok && id != uuid.Nil
}

// Claims returns the verified access token claims, if any.
func Claims(c *fiber.Ctx) *service.Claims {
	claims, _ := c.Locals(LocalClaims).(*service.Claims)
	return claims
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
