package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Product struct {
	ID          primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Name        string             `json:"name" bson:"name"`
	SKU         string             `json:"sku,omitempty" bson:"sku,omitempty"`
	Description string             `json:"description" bson:"description"`
	UnitPrice   float64            `json:"unit_price" bson:"unitPrice"`
	Stock       int                `json:"stock" bson:"stock"`
	TenantID    string             `json:"-" bson:"companyId"`
	CreatedAt   time.Time          `json:"created_at" bson:"createdAt"`
	UpdatedAt   time.Time          `json:"updated_at" bson:"updatedAt"`
}

// SKU is optional, so the uniqueness index is sparse.
var ProductIndexes = []mongo.IndexModel{
	{
		Keys:    bson.D{{Key: "sku", Value: 1}},
		Options: options.Index().SetName("uniq_sku").SetUnique(true).SetSparse(true),
	},
	{
		Keys:    bson.D{{Key: "companyId", Value: 1}},
		Options: options.Index().SetName("idx_company_id"),
	},
}
