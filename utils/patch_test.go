package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson"
)

func TestUpdatesFromPtrDTO(t *testing.T) {
	type dto struct {
		Name      *string  `json:"name"`
		UnitPrice *float64 `json:"unit_price"`
		Stock     *int     `json:"stock"`
		Ignored   *string  `json:"-"`
		NotPtr    string   `json:"not_ptr"`
	}

	name := "Widget"
	price := 9.99
	ignored := "x"
	d := dto{Name: &name, UnitPrice: &price, Ignored: &ignored, NotPtr: "y"}

	got := UpdatesFromPtrDTO(&d, map[string]string{"unit_price": "unitPrice"})

	assert.Equal(t, bson.M{"name": "Widget", "unitPrice": 9.99}, got)
}

func TestUpdatesFromPtrDTONonStruct(t *testing.T) {
	assert.Empty(t, UpdatesFromPtrDTO("nope", nil))
	x := 1
	assert.Empty(t, UpdatesFromPtrDTO(&x, nil))
}

func TestParseIntDefault(t *testing.T) {
	assert.Equal(t, 42, ParseIntDefault("42", 5))
	assert.Equal(t, 42, ParseIntDefault(" 42 ", 5))
	assert.Equal(t, 5, ParseIntDefault("", 5))
	assert.Equal(t, 5, ParseIntDefault("abc", 5))
	assert.Equal(t, 5, ParseIntDefault("-3", 5))
}
