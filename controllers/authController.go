package controllers

import (
	"context"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"companyhub-backend/database"
	"companyhub-backend/middlewares"
	"companyhub-backend/models"
	"companyhub-backend/token"
)

type registerDTO struct {
	Name            string `json:"name" validate:"required,min=2,max=100"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required,min=8"`
	PasswordConfirm string `json:"password_confirm" validate:"required"`
}

type loginDTO struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// NewDatabaseName derives a tenant store name from a random identifier.
// Never from the display name: display names collide, database names must not.
func NewDatabaseName() string {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	return "company_" + id[:8]
}

// Register creates the tenant record in the global store and provisions its
// isolated database. A provisioning failure removes the record again so the
// registration can be retried.
func Register(provisioner *database.Provisioner, log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var dto registerDTO
		if err := middlewares.BindAndValidate(c, &dto); err != nil {
			return err
		}
		if dto.Password != dto.PasswordConfirm {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"message": "passwords do not match",
			})
		}

		ctx := c.UserContext()
		n, err := database.Tenants().CountDocuments(ctx, bson.M{
			"$or": []bson.M{{"email": dto.Email}, {"name": dto.Name}},
		})
		if err != nil {
			return err
		}
		if n > 0 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"message": "company name or email already exists",
			})
		}

		tenant := models.Tenant{
			TenantID:     uuid.NewString(),
			Name:         dto.Name,
			Email:        dto.Email,
			DatabaseName: NewDatabaseName(),
			IsActive:     true,
			CreatedAt:    time.Now().UTC(),
		}
		tenant.SetPassword(dto.Password)

		if _, err := database.Tenants().InsertOne(ctx, &tenant); err != nil {
			if mongo.IsDuplicateKeyError(err) {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
					"message": "company name or email already exists",
				})
			}
			return err
		}

		if err := provisioner.Provision(ctx, tenant.DatabaseName, tenant.TenantID); err != nil {
			// Roll the registration back so the name and email stay free. Not
			// on the request context: a dropped client may be why provisioning
			// failed, and the rollback must still run.
			rctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if _, derr := database.Tenants().DeleteOne(rctx, bson.M{"tenantId": tenant.TenantID}); derr != nil {
				log.Warn("failed to remove tenant record after provisioning failure",
					zap.String("tenant_id", tenant.TenantID),
					zap.Error(derr))
			}
			return err
		}

		log.Info("tenant registered",
			zap.String("tenant_id", tenant.TenantID),
			zap.String("database", tenant.DatabaseName))
		return c.Status(fiber.StatusCreated).JSON(tenant)
	}
}

// Login verifies credentials against the global store and issues the identity
// token embedding the tenant's database name.
func Login(log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var dto loginDTO
		if err := middlewares.BindAndValidate(c, &dto); err != nil {
			return err
		}

		ctx := c.UserContext()
		var tenant models.Tenant
		err := database.Tenants().FindOne(ctx, bson.M{"email": dto.Email}).Decode(&tenant)
		if err == mongo.ErrNoDocuments {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"message": "invalid credentials",
			})
		}
		if err != nil {
			return err
		}

		if err := tenant.ComparePassword(dto.Password); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"message": "invalid credentials",
			})
		}
		if !tenant.IsActive {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"message": "account is deactivated",
			})
		}

		signed, err := token.Generate(tenant.TenantID, tenant.Name, tenant.DatabaseName)
		if err != nil {
			return err
		}

		log.Info("tenant logged in", zap.String("tenant_id", tenant.TenantID))
		return c.JSON(fiber.Map{
			"token": signed,
			"tenant": fiber.Map{
				"id":    tenant.TenantID,
				"name":  tenant.Name,
				"email": tenant.Email,
			},
		})
	}
}

// Deactivate turns the authenticated tenant's account off and evicts its
// cached connection. Tokens already issued stay cryptographically valid but
// fail the active check on their next request.
func Deactivate(cache *database.Cache, log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims := middlewares.ClaimsFromCtx(c)
		if claims == nil {
			return fiber.ErrUnauthorized
		}

		res, err := database.Tenants().UpdateOne(
			c.UserContext(),
			bson.M{"tenantId": claims.TenantID()},
			bson.M{"$set": bson.M{"isActive": false}},
		)
		if err != nil {
			return err
		}
		if res.MatchedCount == 0 {
			return fiber.NewError(fiber.StatusNotFound, "company not found")
		}

		cache.Evict(c.UserContext(), claims.DatabaseName)

		log.Info("tenant deactivated", zap.String("tenant_id", claims.TenantID()))
		return c.JSON(fiber.Map{"message": "company deactivated"})
	}
}

func Logout() fiber.Handler {
	return func(c *fiber.Ctx) error {
		cookie := fiber.Cookie{
			Name:     "jwt",
			Value:    "",
			Expires:  time.Now().Add(-time.Hour),
			HTTPOnly: true,
		}
		c.Cookie(&cookie)
		return c.JSON(fiber.Map{
			"message": "success",
		})
	}
}
