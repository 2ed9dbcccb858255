package database

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/mongo"
)

// Request-local keys set by the tenant middleware.
const (
	LocalTenantDB = "tenantDB"
	LocalTenantID = "tenantID"
)

// TenantDB returns the request's resolved tenant database. The tenant
// middleware must have run; handlers use the handle for one request and never
// close it.
func TenantDB(c *fiber.Ctx) (*mongo.Database, error) {
	if v := c.Locals(LocalTenantDB); v != nil {
		if db, ok := v.(*mongo.Database); ok && db != nil {
			return db, nil
		}
	}
	return nil, errors.New("tenant database missing from request context")
}

// TenantID returns the authenticated tenant's identifier for the request.
func TenantID(c *fiber.Ctx) (string, error) {
	if v := c.Locals(LocalTenantID); v != nil {
		if id, ok := v.(string); ok && id != "" {
			return id, nil
		}
	}
	return "", errors.New("tenant identity missing from request context")
}
