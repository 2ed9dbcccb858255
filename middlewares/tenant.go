package middlewares

import (
	"github.com/gofiber/fiber/v2"

	"companyhub-backend/database"
)

// TenantConn resolves the authenticated request to its tenant database and
// makes the handle available via database.TenantDB(c) for the duration of the
// request. Order: run AFTER IsAuthenticatedHeader() so the claims are present.
func TenantConn(router *database.Router) fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims := ClaimsFromCtx(c)
		if claims == nil {
			// Public endpoints carry no claims; nothing to resolve.
			return c.Next()
		}

		db, err := router.Resolve(c.UserContext(), claims)
		if err != nil {
			// The central error handler maps the taxonomy to a status.
			return err
		}

		c.Locals(database.LocalTenantDB, db)
		return c.Next()
	}
}
