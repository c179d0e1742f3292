package cart

import "sync"

// Line is a (product, quantity) pair representing intended purchase quantity.
// A line never exists with a quantity below 1.
type Line struct {
	ProductID string `json:"id"`
	Quantity  int    `json:"quantity"`
}

// Pricer resolves a product ID to its unit price in minor currency units.
// The catalog cache satisfies this.
type Pricer interface {
	PriceOf(id string) (int64, bool)
}

// Cart is the client's in-memory cart: an insertion-ordered mapping from
// product ID to quantity. Logical ownership is the single active UI session,
// but mutations arrive on server goroutines, so access is mutex-guarded.
type Cart struct {
	mu    sync.Mutex
	lines []Line
	index map[string]int
}

// New returns an empty cart.
func New() *Cart {
	return &Cart{index: make(map[string]int)}
}

// AddOne increments the quantity for the given product by one, inserting a
// new line at quantity 1 if the product is not yet in the cart.
func (c *Cart) AddOne(productID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if i, ok := c.index[productID]; ok {
		c.lines[i].Quantity++
		return
	}
	c.index[productID] = len(c.lines)
	c.lines = append(c.lines, Line{ProductID: productID, Quantity: 1})
}

// RemoveOne decrements the quantity for the given product by one. When the
// quantity would drop below 1 the line is deleted entirely; removing a
// product that is not in the cart is a no-op.
func (c *Cart) RemoveOne(productID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	i, ok := c.index[productID]
	if !ok {
		return
	}
	if c.lines[i].Quantity > 1 {
		c.lines[i].Quantity--
		return
	}

	c.lines = append(c.lines[:i], c.lines[i+1:]...)
	delete(c.index, productID)
	for j := i; j < len(c.lines); j++ {
		c.index[c.lines[j].ProductID] = j
	}
}

// Lines returns an ordered snapshot of the cart contents.
func (c *Cart) Lines() []Line {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]Line, len(c.lines))
	copy(out, c.lines)
	return out
}

// Quantity returns the current quantity for the given product, zero when the
// product is not in the cart.
func (c *Cart) Quantity(productID string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	if i, ok := c.index[productID]; ok {
		return c.lines[i].Quantity
	}
	return 0
}

// LineCount returns the sum of all quantities, for display purposes.
func (c *Cart) LineCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := 0
	for _, l := range c.lines {
		n += l.Quantity
	}
	return n
}

// TotalCents sums quantity times unit price over all lines resolvable
// against the given pricer. Lines the pricer cannot resolve (product dropped
// from the catalog after it entered the cart) contribute zero.
func (c *Cart) TotalCents(pricer Pricer) int64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	var total int64
	for _, l := range c.lines {
		price, ok := pricer.PriceOf(l.ProductID)
		if !ok {
			continue
		}
		total += price * int64(l.Quantity)
	}
	return total
}

// Clear empties the cart.
func (c *Cart) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.lines = nil
	c.index = make(map[string]int)
}
