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

type userDTO struct {
	FirstName string `json:"first_name" validate:"required,max=100"`
	LastName  string `json:"last_name" validate:"required,max=100"`
	Email     string `json:"email" validate:"required,email"`
	Role      string `json:"role" validate:"required,max=40"`
}

type userPatchDTO struct {
	FirstName *string `json:"first_name" validate:"omitempty,max=100"`
	LastName  *string `json:"last_name" validate:"omitempty,max=100"`
	Email     *string `json:"email" validate:"omitempty,email"`
	Role      *string `json:"role" validate:"omitempty,max=40"`
}

var userFieldRenames = map[string]string{
	"first_name": "firstName",
	"last_name":  "lastName",
}

func CreateUser() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var dto userDTO
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

		user := models.User{
			FirstName: dto.FirstName,
			LastName:  dto.LastName,
			Email:     dto.Email,
			Role:      dto.Role,
			TenantID:  tenantID,
			CreatedAt: time.Now().UTC(),
		}

		res, err := db.Collection("users").InsertOne(c.UserContext(), &user)
		if err != nil {
			if mongo.IsDuplicateKeyError(err) {
				return c.Status(fiber.StatusConflict).JSON(fiber.Map{"message": "user email already exists"})
			}
			return err
		}
		user.ID = res.InsertedID.(primitive.ObjectID)
		return c.Status(fiber.StatusCreated).JSON(user)
	}
}

func GetUsers() fiber.Handler {
	return func(c *fiber.Ctx) error {
		db, err := database.TenantDB(c)
		if err != nil {
			return err
		}

		opts := options.Find().
			SetSort(bson.D{{Key: "createdAt", Value: -1}}).
			SetLimit(int64(utils.ParseIntDefault(c.Query("limit"), 100)))

		cur, err := db.Collection("users").Find(c.UserContext(), bson.M{}, opts)
		if err != nil {
			return err
		}
		users := []models.User{}
		if err := cur.All(c.UserContext(), &users); err != nil {
			return err
		}
		return c.JSON(users)
	}
}

func GetUser() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := primitive.ObjectIDFromHex(c.Params("id"))
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid user id")
		}

		db, err := database.TenantDB(c)
		if err != nil {
			return err
		}

		var user models.User
		err = db.Collection("users").FindOne(c.UserContext(), bson.M{"_id": id}).Decode(&user)
		if err == mongo.ErrNoDocuments {
			return fiber.NewError(fiber.StatusNotFound, "user not found")
		}
		if err != nil {
			return err
		}
		return c.JSON(user)
	}
}

func UpdateUser() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := primitive.ObjectIDFromHex(c.Params("id"))
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid user id")
		}

		var dto userPatchDTO
		if err := middlewares.BindAndValidate(c, &dto); err != nil {
			return err
		}
		updates := utils.UpdatesFromPtrDTO(&dto, userFieldRenames)
		if len(updates) == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "no fields to update")
		}
		updates["updatedAt"] = time.Now().UTC()

		db, err := database.TenantDB(c)
		if err != nil {
			return err
		}

		var user models.User
		err = db.Collection("users").FindOneAndUpdate(
			c.UserContext(),
			bson.M{"_id": id},
			bson.M{"$set": updates},
			options.FindOneAndUpdate().SetReturnDocument(options.After),
		).Decode(&user)
		if err == mongo.ErrNoDocuments {
			return fiber.NewError(fiber.StatusNotFound, "user not found")
		}
		if err != nil {
			if mongo.IsDuplicateKeyError(err) {
				return c.Status(fiber.StatusConflict).JSON(fiber.Map{"message": "user email already exists"})
			}
			return err
		}
		return c.JSON(user)
	}
}

func DeleteUser() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := primitive.ObjectIDFromHex(c.Params("id"))
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid user id")
		}

		db, err := database.TenantDB(c)
		if err != nil {
			return err
		}

		res, err := db.Collection("users").DeleteOne(c.UserContext(), bson.M{"_id": id})
		if err != nil {
			return err
		}
		if res.DeletedCount == 0 {
			return fiber.NewError(fiber.StatusNotFound, "user not found")
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}
