package controllers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"companyhub-backend/database"
	"companyhub-backend/middlewares"
	"companyhub-backend/models"
	"companyhub-backend/utils"
)

type productDTO struct {
	Name        string  `json:"name" validate:"required,min=1,max=200"`
	SKU         string  `json:"sku" validate:"omitempty,max=64"`
	Description string  `json:"description" validate:"max=2000"`
	UnitPrice   float64 `json:"unit_price" validate:"gte=0"`
	Stock       int     `json:"stock" validate:"gte=0"`
}

type productPatchDTO struct {
	Name        *string  `json:"name" validate:"omitempty,min=1,max=200"`
	SKU         *string  `json:"sku" validate:"omitempty,max=64"`
	Description *string  `json:"description" validate:"omitempty,max=2000"`
	UnitPrice   *float64 `json:"unit_price" validate:"omitempty,gte=0"`
	Stock       *int     `json:"stock" validate:"omitempty,gte=0"`
}

// productFieldRenames maps json names onto stored field names for patches.
var productFieldRenames = map[string]string{
	"unit_price": "unitPrice",
}

func CreateProduct() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var dto productDTO
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

		now := time.Now().UTC()
		product := models.Product{
			Name:        dto.Name,
			SKU:         dto.SKU,
			Description: dto.Description,
			UnitPrice:   dto.UnitPrice,
			Stock:       dto.Stock,
			TenantID:    tenantID,
			CreatedAt:   now,
			UpdatedAt:   now,
		}

		res, err := db.Collection("products").InsertOne(c.UserContext(), &product)
		if err != nil {
			if mongo.IsDuplicateKeyError(err) {
				return c.Status(fiber.StatusConflict).JSON(fiber.Map{"message": "sku already exists"})
			}
			return err
		}
		product.ID = res.InsertedID.(primitive.ObjectID)
		return c.Status(fiber.StatusCreated).JSON(product)
	}
}

func GetProducts() fiber.Handler {
	return func(c *fiber.Ctx) error {
		db, err := database.TenantDB(c)
		if err != nil {
			return err
		}

		filter := bson.M{}
		if q := c.Query("q"); q != "" {
			filter["name"] = bson.M{"$regex": q, "$options": "i"}
		}

		opts := options.Find().
			SetSort(bson.D{{Key: "createdAt", Value: -1}}).
			SetLimit(int64(utils.ParseIntDefault(c.Query("limit"), 100)))

		cur, err := db.Collection("products").Find(c.UserContext(), filter, opts)
		if err != nil {
			return err
		}
		products := []models.Product{}
		if err := cur.All(c.UserContext(), &products); err != nil {
			return err
		}
		return c.JSON(products)
	}
}

func GetProduct() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := primitive.ObjectIDFromHex(c.Params("id"))
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid product id")
		}

		db, err := database.TenantDB(c)
		if err != nil {
			return err
		}

		var product models.Product
		err = db.Collection("products").FindOne(c.UserContext(), bson.M{"_id": id}).Decode(&product)
		if err == mongo.ErrNoDocuments {
			return fiber.NewError(fiber.StatusNotFound, "product not found")
		}
		if err != nil {
			return err
		}
		return c.JSON(product)
	}
}

func UpdateProduct() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := primitive.ObjectIDFromHex(c.Params("id"))
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid product id")
		}

		var dto productPatchDTO
		if err := middlewares.BindAndValidate(c, &dto); err != nil {
			return err
		}
		updates := utils.UpdatesFromPtrDTO(&dto, productFieldRenames)
		if len(updates) == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "no fields to update")
		}
		updates["updatedAt"] = time.Now().UTC()

		db, err := database.TenantDB(c)
		if err != nil {
			return err
		}

		var product models.Product
		err = db.Collection("products").FindOneAndUpdate(
			c.UserContext(),
			bson.M{"_id": id},
			bson.M{"$set": updates},
			options.FindOneAndUpdate().SetReturnDocument(options.After),
		).Decode(&product)
		if err == mongo.ErrNoDocuments {
			return fiber.NewError(fiber.StatusNotFound, "product not found")
		}
		if err != nil {
			if mongo.IsDuplicateKeyError(err) {
				return c.Status(fiber.StatusConflict).JSON(fiber.Map{"message": "sku already exists"})
			}
			return err
		}
		return c.JSON(product)
	}
}

func DeleteProduct() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := primitive.ObjectIDFromHex(c.Params("id"))
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid product id")
		}

		db, err := database.TenantDB(c)
		if err != nil {
			return err
		}

		res, err := db.Collection("products").DeleteOne(c.UserContext(), bson.M{"_id": id})
		if err != nil {
			return err
		}
		if res.DeletedCount == 0 {
			return fiber.NewError(fiber.StatusNotFound, "product not found")
		}
		return c.JSON(fiber.Map{"message": "deleted"})
	}
}
