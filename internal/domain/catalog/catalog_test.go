package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCache_ReplaceWholesale(t *testing.T) {
	c := NewCache()
	c.Replace([]Product{
		{ID: "tee", Name: "Tee", PriceCents: 1999},
		{ID: "mug", Name: "Mug", PriceCents: 899},
	})
	require.Equal(t, 2, c.Len())

	// A refetch replaces everything: old entries disappear.
	c.Replace([]Product{{ID: "cap", Name: "Cap", PriceCents: 1499}})

	assert.Equal(t, 1, c.Len())
	_, ok := c.Get("tee")
	assert.False(t, ok)
	got, ok := c.Get("cap")
	require.True(t, ok)
	assert.Equal(t, "Cap", got.Name)
}

func TestCache_PriceOf(t *testing.T) {
	c := NewCache()
	c.Replace([]Product{{ID: "tee", PriceCents: 1999}})

	price, ok := c.PriceOf("tee")
	require.True(t, ok)
	assert.Equal(t, int64(1999), price)

	_, ok = c.PriceOf("ghost")
	assert.False(t, ok)
}

func TestCache_ListPreservesOrder(t *testing.T) {
	c := NewCache()
	c.Replace([]Product{{ID: "b"}, {ID: "a"}, {ID: "c"}})

	list := c.List()
	require.Len(t, list, 3)
	assert.Equal(t, "b", list[0].ID)
	assert.Equal(t, "a", list[1].ID)
	assert.Equal(t, "c", list[2].ID)
}

func TestDisplayPrice_MinorUnits(t *testing.T) {
	assert.Equal(t, "5.00", Product{PriceCents: 500}.DisplayPrice().StringFixed(2))
	assert.Equal(t, "19.99", Product{PriceCents: 1999}.DisplayPrice().StringFixed(2))
	assert.Equal(t, "0.05", Product{PriceCents: 5}.DisplayPrice().StringFixed(2))
}
