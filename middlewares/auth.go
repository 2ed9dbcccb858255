package middlewares

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"companyhub-backend/database"
	"companyhub-backend/token"
)

const (
	authHeader   = "Authorization"
	bearerPrefix = "Bearer "

	localClaims = "claims"
)

// IsAuthenticatedHeader validates a Bearer identity token and stashes the
// verified claims for the tenant middleware. Signature and expiry failures
// are rejected here, before the connection cache is ever consulted.
func IsAuthenticatedHeader() fiber.Handler {
	return func(c *fiber.Ctx) error {
		h := c.Get(authHeader)
		if h == "" || !strings.HasPrefix(strings.ToLower(h), strings.ToLower(bearerPrefix)) {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "missing/invalid Authorization header"})
		}
		raw := strings.TrimSpace(h[len(bearerPrefix):])
		if raw == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "invalid bearer token"})
		}

		claims, err := token.Parse(raw)
		if err != nil {
			if errors.Is(err, token.ErrTokenExpired) {
				return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "token expired, please log in again"})
			}
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "invalid or expired token"})
		}

		c.Locals(localClaims, claims)
		c.Locals(database.LocalTenantID, claims.TenantID())

		return c.Next()
	}
}

// ClaimsFromCtx returns the verified identity claims for the request, or nil
// on public endpoints.
func ClaimsFromCtx(c *fiber.Ctx) *token.Claims {
	claims, _ := c.Locals(localClaims).(*token.Claims)
	return claims
}
