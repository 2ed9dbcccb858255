package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type OrderItem struct {
	ProductID primitive.ObjectID `json:"product_id" bson:"productId"`
	Name      string             `json:"name" bson:"name"`
	Quantity  int                `json:"quantity" bson:"quantity"`
	UnitPrice float64            `json:"unit_price" bson:"unitPrice"`
}

type Order struct {
	ID          primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	OrderNumber string             `json:"order_number" bson:"orderNumber"`
	CustomerID  primitive.ObjectID `json:"customer_id,omitempty" bson:"customerId,omitempty"`
	Items       []OrderItem        `json:"items" bson:"items"`
	Total       float64            `json:"total" bson:"total"`
	Status      string             `json:"status" bson:"status"`
	TenantID    string             `json:"-" bson:"companyId"`
	CreatedAt   time.Time          `json:"created_at" bson:"createdAt"`
}

var OrderIndexes = []mongo.IndexModel{
	{
		Keys:    bson.D{{Key: "orderNumber", Value: 1}},
		Options: options.Index().SetName("uniq_order_number").SetUnique(true),
	},
	{
		Keys:    bson.D{{Key: "companyId", Value: 1}},
		Options: options.Index().SetName("idx_company_id"),
	},
}
