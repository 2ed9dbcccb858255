package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Setting struct {
	ID          primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Key         string             `json:"key" bson:"key"`
	Value       string             `json:"value" bson:"value"`
	Description string             `json:"description" bson:"description"`
	// Seq backs counter settings such as the order number sequence.
	Seq       int64     `json:"-" bson:"seq,omitempty"`
	TenantID  string    `json:"-" bson:"companyId"`
	CreatedAt time.Time `json:"created_at" bson:"createdAt"`
	UpdatedAt time.Time `json:"updated_at,omitempty" bson:"updatedAt,omitempty"`
}

var SettingIndexes = []mongo.IndexModel{
	{
		Keys:    bson.D{{Key: "key", Value: 1}, {Key: "companyId", Value: 1}},
		Options: options.Index().SetName("uniq_key_company").SetUnique(true),
	},
}
