package models

import (
	"time"

	"go.mongodb.org/mongo-driver/mongo"
)

// CollectionSpec declares one collection of the fixed per-tenant schema set
// together with its index models. Provisioning creates the whole set exactly
// once for a new tenant store.
type CollectionSpec struct {
	Name    string
	Indexes []mongo.IndexModel
}

// TenantCollections returns the fixed schema set every tenant store is
// provisioned with.
func TenantCollections() []CollectionSpec {
	return []CollectionSpec{
		{Name: "users", Indexes: UserIndexes},
		{Name: "products", Indexes: ProductIndexes},
		{Name: "orders", Indexes: OrderIndexes},
		{Name: "customers", Indexes: CustomerIndexes},
		{Name: "settings", Indexes: SettingIndexes},
	}
}

// DefaultSettings returns the baseline configuration documents inserted into a
// freshly provisioned tenant store.
func DefaultSettings(tenantID string, now time.Time) []interface{} {
	return []interface{}{
		Setting{
			Key:         "company_currency",
			Value:       "TRY",
			Description: "Default company currency",
			TenantID:    tenantID,
			CreatedAt:   now,
		},
		Setting{
			Key:         "order_prefix",
			Value:       "ORD",
			Description: "Order number prefix",
			TenantID:    tenantID,
			CreatedAt:   now,
		},
		Setting{
			Key:         "timezone",
			Value:       "Europe/Istanbul",
			Description: "Company timezone",
			TenantID:    tenantID,
			CreatedAt:   now,
		},
	}
}
