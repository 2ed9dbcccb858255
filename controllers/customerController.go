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

type customerDTO struct {
	FirstName   string `json:"first_name" validate:"required,max=100"`
	LastName    string `json:"last_name" validate:"required,max=100"`
	CompanyName string `json:"company_name" validate:"max=200"`
	Email       string `json:"email" validate:"required,email"`
	PhoneNumber string `json:"phone_number" validate:"max=40"`
	Address     string `json:"address" validate:"max=300"`
	City        string `json:"city" validate:"max=100"`
	Country     string `json:"country" validate:"max=100"`
	Zip         string `json:"zip" validate:"max=20"`
}

type customerPatchDTO struct {
	FirstName   *string `json:"first_name" validate:"omitempty,max=100"`
	LastName    *string `json:"last_name" validate:"omitempty,max=100"`
	CompanyName *string `json:"company_name" validate:"omitempty,max=200"`
	Email       *string `json:"email" validate:"omitempty,email"`
	PhoneNumber *string `json:"phone_number" validate:"omitempty,max=40"`
	Address     *string `json:"address" validate:"omitempty,max=300"`
	City        *string `json:"city" validate:"omitempty,max=100"`
	Country     *string `json:"country" validate:"omitempty,max=100"`
	Zip         *string `json:"zip" validate:"omitempty,max=20"`
}

var customerFieldRenames = map[string]string{
	"first_name":   "firstName",
	"last_name":    "lastName",
	"company_name": "companyName",
	"phone_number": "phoneNumber",
}

func CreateCustomer() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var dto customerDTO
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
		customer := models.Customer{
			FirstName:   dto.FirstName,
			LastName:    dto.LastName,
			CompanyName: dto.CompanyName,
			Email:       dto.Email,
			PhoneNumber: dto.PhoneNumber,
			Address:     dto.Address,
			City:        dto.City,
			Country:     dto.Country,
			Zip:         dto.Zip,
			TenantID:    tenantID,
			CreatedAt:   now,
			UpdatedAt:   now,
		}

		res, err := db.Collection("customers").InsertOne(c.UserContext(), &customer)
		if err != nil {
			if mongo.IsDuplicateKeyError(err) {
				return c.Status(fiber.StatusConflict).JSON(fiber.Map{"message": "customer email already exists"})
			}
			return err
		}
		customer.ID = res.InsertedID.(primitive.ObjectID)
		return c.Status(fiber.StatusCreated).JSON(customer)
	}
}

func GetCustomers() fiber.Handler {
	return func(c *fiber.Ctx) error {
		db, err := database.TenantDB(c)
		if err != nil {
			return err
		}

		opts := options.Find().
			SetSort(bson.D{{Key: "createdAt", Value: -1}}).
			SetLimit(int64(utils.ParseIntDefault(c.Query("limit"), 100)))

		cur, err := db.Collection("customers").Find(c.UserContext(), bson.M{}, opts)
		if err != nil {
			return err
		}
		customers := []models.Customer{}
		if err := cur.All(c.UserContext(), &customers); err != nil {
			return err
		}
		return c.JSON(customers)
	}
}

func UpdateCustomer() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := primitive.ObjectIDFromHex(c.Params("id"))
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid customer id")
		}

		var dto customerPatchDTO
		if err := middlewares.BindAndValidate(c, &dto); err != nil {
			return err
		}
		updates := utils.UpdatesFromPtrDTO(&dto, customerFieldRenames)
		if len(updates) == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "no fields to update")
		}
		updates["updatedAt"] = time.Now().UTC()

		db, err := database.TenantDB(c)
		if err != nil {
			return err
		}

		var customer models.Customer
		err = db.Collection("customers").FindOneAndUpdate(
			c.UserContext(),
			bson.M{"_id": id},
			bson.M{"$set": updates},
			options.FindOneAndUpdate().SetReturnDocument(options.After),
		).Decode(&customer)
		if err == mongo.ErrNoDocuments {
			return fiber.NewError(fiber.StatusNotFound, "customer not found")
		}
		if err != nil {
			if mongo.IsDuplicateKeyError(err) {
				return c.Status(fiber.StatusConflict).JSON(fiber.Map{"message": "customer email already exists"})
			}
			return err
		}
		return c.JSON(customer)
	}
}
