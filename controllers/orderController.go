package controllers

import (
	"fmt"
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

type orderItemDTO struct {
	ProductID string `json:"product_id" validate:"required"`
	Quantity  int    `json:"quantity" validate:"required,gte=1"`
}

type orderDTO struct {
	CustomerID string         `json:"customer_id" validate:"omitempty"`
	Items      []orderItemDTO `json:"items" validate:"required,min=1,dive"`
}

// CreateOrder prices the requested items from the products collection and
// numbers the order from the seeded order_prefix setting plus a per-tenant
// sequence.
func CreateOrder() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var dto orderDTO
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
		ctx := c.UserContext()

		order := models.Order{
			Status:    "open",
			TenantID:  tenantID,
			CreatedAt: time.Now().UTC(),
		}
		if dto.CustomerID != "" {
			cid, err := primitive.ObjectIDFromHex(dto.CustomerID)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "invalid customer id")
			}
			order.CustomerID = cid
		}

		for _, item := range dto.Items {
			pid, err := primitive.ObjectIDFromHex(item.ProductID)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "invalid product id")
			}
			var product models.Product
			err = db.Collection("products").FindOne(ctx, bson.M{"_id": pid}).Decode(&product)
			if err == mongo.ErrNoDocuments {
				return fiber.NewError(fiber.StatusBadRequest, fmt.Sprintf("unknown product %s", item.ProductID))
			}
			if err != nil {
				return err
			}
			order.Items = append(order.Items, models.OrderItem{
				ProductID: pid,
				Name:      product.Name,
				Quantity:  item.Quantity,
				UnitPrice: product.UnitPrice,
			})
			order.Total += product.UnitPrice * float64(item.Quantity)
		}

		number, err := nextOrderNumber(c, db, tenantID)
		if err != nil {
			return err
		}
		order.OrderNumber = number

		res, err := db.Collection("orders").InsertOne(ctx, &order)
		if err != nil {
			return err
		}
		order.ID = res.InsertedID.(primitive.ObjectID)
		return c.Status(fiber.StatusCreated).JSON(order)
	}
}

// nextOrderNumber combines the seeded order_prefix setting with an atomically
// incremented per-tenant counter.
func nextOrderNumber(c *fiber.Ctx, db *mongo.Database, tenantID string) (string, error) {
	ctx := c.UserContext()
	settings := db.Collection("settings")

	prefix := "ORD"
	var prefixSetting models.Setting
	err := settings.FindOne(ctx, bson.M{"key": "order_prefix", "companyId": tenantID}).Decode(&prefixSetting)
	if err == nil && prefixSetting.Value != "" {
		prefix = prefixSetting.Value
	} else if err != nil && err != mongo.ErrNoDocuments {
		return "", err
	}

	var counter models.Setting
	err = settings.FindOneAndUpdate(
		ctx,
		bson.M{"key": "order_seq", "companyId": tenantID},
		bson.M{
			"$inc":         bson.M{"seq": 1},
			"$setOnInsert": bson.M{"description": "Order number sequence", "createdAt": time.Now().UTC()},
		},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&counter)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("%s-%05d", prefix, counter.Seq), nil
}

func GetOrders() fiber.Handler {
	return func(c *fiber.Ctx) error {
		db, err := database.TenantDB(c)
		if err != nil {
			return err
		}

		filter := bson.M{}
		if status := c.Query("status"); status != "" {
			filter["status"] = status
		}

		opts := options.Find().
			SetSort(bson.D{{Key: "createdAt", Value: -1}}).
			SetLimit(int64(utils.ParseIntDefault(c.Query("limit"), 100)))

		cur, err := db.Collection("orders").Find(c.UserContext(), filter, opts)
		if err != nil {
			return err
		}
		orders := []models.Order{}
		if err := cur.All(c.UserContext(), &orders); err != nil {
			return err
		}
		return c.JSON(orders)
	}
}

func GetOrder() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := primitive.ObjectIDFromHex(c.Params("id"))
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid order id")
		}

		db, err := database.TenantDB(c)
		if err != nil {
			return err
		}

		var order models.Order
		err = db.Collection("orders").FindOne(c.UserContext(), bson.M{"_id": id}).Decode(&order)
		if err == mongo.ErrNoDocuments {
			return fiber.NewError(fiber.StatusNotFound, "order not found")
		}
		if err != nil {
			return err
		}
		return c.JSON(order)
	}
}
