package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Customer struct {
	ID          primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	FirstName   string             `json:"first_name" bson:"firstName"`
	LastName    string             `json:"last_name" bson:"lastName"`
	CompanyName string             `json:"company_name" bson:"companyName"`
	Email       string             `json:"email" bson:"email"`
	PhoneNumber string             `json:"phone_number" bson:"phoneNumber"`
	Address     string             `json:"address" bson:"address"`
	City        string             `json:"city" bson:"city"`
	Country     string             `json:"country" bson:"country"`
	Zip         string             `json:"zip" bson:"zip"`
	TenantID    string             `json:"-" bson:"companyId"`
	CreatedAt   time.Time          `json:"created_at" bson:"createdAt"`
	UpdatedAt   time.Time          `json:"updated_at" bson:"updatedAt"`
}

var CustomerIndexes = []mongo.IndexModel{
	{
		Keys:    bson.D{{Key: "email", Value: 1}, {Key: "companyId", Value: 1}},
		Options: options.Index().SetName("uniq_email_company").SetUnique(true),
	},
}
