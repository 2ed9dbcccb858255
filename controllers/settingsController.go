package controllers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"companyhub-backend/database"
	"companyhub-backend/middlewares"
	"companyhub-backend/models"
)

type settingDTO struct {
	Value       string `json:"value" validate:"required,max=500"`
	Description string `json:"description" validate:"max=500"`
}

func GetSettings() fiber.Handler {
	return func(c *fiber.Ctx) error {
		db, err := database.TenantDB(c)
		if err != nil {
			return err
		}

		cur, err := db.Collection("settings").Find(c.UserContext(), bson.M{},
			options.Find().SetSort(bson.D{{Key: "key", Value: 1}}))
		if err != nil {
			return err
		}
		settings := []models.Setting{}
		if err := cur.All(c.UserContext(), &settings); err != nil {
			return err
		}
		return c.JSON(settings)
	}
}

// UpdateSetting upserts one configuration value by key.
func UpdateSetting() fiber.Handler {
	return func(c *fiber.Ctx) error {
		key := c.Params("key")
		if key == "" {
			return fiber.NewError(fiber.StatusBadRequest, "missing setting key")
		}

		var dto settingDTO
		if err := middlewares.BindAndValidate(c, &dto); err != nil {
			return err
		}

		db, err := database.TenantDB(c)
		if err != nil {
			return err
		}
		tenantID, err := database.TenantID(c)
		if err != nil {
			return err
		}

		var setting models.Setting
		err = db.Collection("settings").FindOneAndUpdate(
			c.UserContext(),
			bson.M{"key": key, "companyId": tenantID},
			bson.M{
				"$set": bson.M{
					"value":       dto.Value,
					"description": dto.Description,
					"updatedAt":   time.Now().UTC(),
				},
				"$setOnInsert": bson.M{"createdAt": time.Now().UTC()},
			},
			options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
		).Decode(&setting)
		if err != nil && err != mongo.ErrNoDocuments {
			return err
		}
		return c.JSON(setting)
	}
}
