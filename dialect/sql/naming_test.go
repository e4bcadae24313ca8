package sql

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResolveName(t *testing.T) {
	tests := []struct {
		declared string
		resolved string
	}{
		{"cityId", "city_id"},
		{"OrderItem", "order_item"},
		{"name", "name"},
		{"createdAt", "created_at"},
		{"HTTPCode", "http_code"},
	}
	for _, tt := range tests {
		require.Equal(t, tt.resolved, ResolveName(tt.declared))
		// Memoized lookups resolve identically.
		require.Equal(t, tt.resolved, ResolveName(tt.declared))
	}
}

func TestEntity_TableName(t *testing.T) {
	require.Equal(t, "order_item", Entity{Name: "OrderItem"}.TableName())
	require.Equal(t, "quarry_migrations", Table("quarry_migrations").TableName())
	require.Equal(t, "custom", Entity{Name: "User"}.WithTable("custom").TableName())
}
