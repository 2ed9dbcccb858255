package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/crypto/bcrypt"
)

// Tenant is the company record kept in the shared global store.
// DatabaseName is assigned once at registration and never recomputed;
// all routing depends on it staying stable.
type Tenant struct {
	ID           primitive.ObjectID `json:"-" bson:"_id,omitempty"`
	TenantID     string             `json:"tenant_id" bson:"tenantId"`
	Name         string             `json:"name" bson:"name"`
	Email        string             `json:"email" bson:"email"`
	PasswordHash []byte             `json:"-" bson:"passwordHash"`
	DatabaseName string             `json:"-" bson:"databaseName"`
	IsActive     bool               `json:"is_active" bson:"isActive"`
	CreatedAt    time.Time          `json:"created_at" bson:"createdAt"`
}

func (t *Tenant) SetPassword(password string) {
	hashedPassword, _ := bcrypt.GenerateFromPassword([]byte(password), 12)
	t.PasswordHash = hashedPassword
}

func (t *Tenant) ComparePassword(password string) error {
	return bcrypt.CompareHashAndPassword(t.PasswordHash, []byte(password))
}

// TenantIndexes are created on the global tenants collection at startup.
var TenantIndexes = []mongo.IndexModel{
	{
		Keys:    bson.D{{Key: "tenantId", Value: 1}},
		Options: options.Index().SetName("uniq_tenant_id").SetUnique(true),
	},
	{
		Keys:    bson.D{{Key: "name", Value: 1}},
		Options: options.Index().SetName("uniq_name").SetUnique(true),
	},
	{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetName("uniq_email").SetUnique(true),
	},
	{
		Keys:    bson.D{{Key: "databaseName", Value: 1}},
		Options: options.Index().SetName("uniq_database_name").SetUnique(true),
	},
}
