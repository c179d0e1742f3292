package catalog

import (
	"sync"

	"github.com/shopspring/decimal"
)

// Product represents a catalog item available for purchase. Products are
// immutable once fetched; the cache replaces them wholesale on refresh.
type Product struct {
	ID          string
	Name        string
	Description string
	PriceCents  int64
	Image       string
}

// DisplayPrice returns the product price in major currency units with two
// fraction digits (the server speaks integer minor units).
func (p Product) DisplayPrice() decimal.Decimal {
	return decimal.New(p.PriceCents, -2)
}

// Cache holds the products known to the client. It is populated from the
// remote catalog at startup and only ever replaced as a whole.
type Cache struct {
	mu       sync.RWMutex
	products []Product
	byID     map[string]int
}

// NewCache returns an empty catalog cache.
func NewCache() *Cache {
	return &Cache{byID: make(map[string]int)}
}

// Replace swaps the entire cached catalog for the given products. Later
// duplicates of an ID win, matching a keyed lookup over the fetched list.
func (c *Cache) Replace(products []Product) {
	byID := make(map[string]int, len(products))
	for i, p := range products {
		byID[p.ID] = i
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.products = products
	c.byID = byID
}

// List returns a snapshot of the cached products in catalog order.
func (c *Cache) List() []Product {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]Product, len(c.products))
	copy(out, c.products)
	return out
}

// Get returns the cached product with the given ID.
func (c *Cache) Get(id string) (Product, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	i, ok := c.byID[id]
	if !ok {
		return Product{}, false
	}
	return c.products[i], true
}

// PriceOf reports the unit price in minor units for the given product ID,
// or false if the product is not in the cache.
func (c *Cache) PriceOf(id string) (int64, bool) {
	p, ok := c.Get(id)
	if !ok {
		return 0, false
	}
	return p.PriceCents, true
}

// Len returns the number of cached products.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.products)
}
