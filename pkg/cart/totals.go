package cart

import "github.com/shopspring/decimal"

// Discounts resolves promo codes to a discount fraction in [0, 1].
type Discounts interface {
	Lookup(code string) (rate decimal.Decimal, ok bool)
}

// Discounted applies rate to amount. The rate is clamped to [0, 1] and the
// result rounded to cents.
func Discounted(amount, rate decimal.Decimal) decimal.Decimal {
	switch {
	case rate.IsNegative():
		rate = decimal.Zero
	case rate.GreaterThan(decimal.NewFromInt(1)):
		rate = decimal.NewFromInt(1)
	}
	return amount.Mul(decimal.NewFromInt(1).Sub(rate)).Round(2)
}

// Count returns the total quantity in the cart.
func (c *Cache) Count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.items.Count()
}

// Subtotal returns the undiscounted total of the current snapshot.
func (c *Cache) Subtotal() decimal.Decimal {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.items.Subtotal()
}

// DiscountedTotal returns the subtotal with rate applied.
func (c *Cache) DiscountedTotal(rate decimal.Decimal) decimal.Decimal {
	return Discounted(c.Subtotal(), rate)
}

// ApplyPromo looks code up in table and returns the discounted total. An
// unknown code yields the plain subtotal and false. The lookup is local; the
// server never sees the code.
func (c *Cache) ApplyPromo(code string, table Discounts) (decimal.Decimal, bool) {
	subtotal := c.Subtotal()
	if table == nil {
		return subtotal, false
	}
	rate, ok := table.Lookup(code)
	if !ok {
		return subtotal, false
	}
	return Discounted(subtotal, rate), true
}
