package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTenantCollectionsFixedSet(t *testing.T) {
	specs := TenantCollections()
	require.Len(t, specs, 5)

	names := make([]string, 0, len(specs))
	for _, spec := range specs {
		names = append(names, spec.Name)
		assert.NotEmpty(t, spec.Indexes, "collection %s has no index declarations", spec.Name)
	}
	assert.Equal(t, []string{"users", "products", "orders", "customers", "settings"}, names)
}

func TestDefaultSettings(t *testing.T) {
	now := time.Now().UTC()
	seed := DefaultSettings("T1", now)
	require.Len(t, seed, 3)

	keys := make(map[string]Setting, len(seed))
	for _, doc := range seed {
		s, ok := doc.(Setting)
		require.True(t, ok)
		assert.Equal(t, "T1", s.TenantID)
		assert.Equal(t, now, s.CreatedAt)
		keys[s.Key] = s
	}

	assert.Contains(t, keys, "company_currency")
	assert.Contains(t, keys, "order_prefix")
	assert.Contains(t, keys, "timezone")
	assert.Equal(t, "ORD", keys["order_prefix"].Value)
}

func TestTenantPasswordRoundTrip(t *testing.T) {
	var tenant Tenant
	tenant.SetPassword("s3cret-enough")

	assert.NoError(t, tenant.ComparePassword("s3cret-enough"))
	assert.Error(t, tenant.ComparePassword("wrong"))
}
