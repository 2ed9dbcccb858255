package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// User is a staff account inside a tenant's own store, distinct from the
// Tenant record in the global store.
type User struct {
	ID        primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	FirstName string             `json:"first_name" bson:"firstName"`
	LastName  string             `json:"last_name" bson:"lastName"`
	Email     string             `json:"email" bson:"email"`
	Role      string             `json:"role" bson:"role"`
	TenantID  string             `json:"-" bson:"companyId"`
	CreatedAt time.Time          `json:"created_at" bson:"createdAt"`
	UpdatedAt time.Time          `json:"updated_at,omitempty" bson:"updatedAt,omitempty"`
}

var UserIndexes = []mongo.IndexModel{
	{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetName("uniq_email").SetUnique(true),
	},
	{
		Keys:    bson.D{{Key: "companyId", Value: 1}},
		Options: options.Index().SetName("idx_company_id"),
	},
}
