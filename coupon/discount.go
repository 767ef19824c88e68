package coupon

import "github.com/xraph/checkout/types"

// Discount computes the amount a coupon takes off a basket. Pure function:
// no clock, no storage, no mutation.
//
// The base depends on the coupon scope: the order subtotal for
// ScopeWholeOrder, the shipping fee for ScopeFreeShipping, and the sum of
// the matching line subtotals for ScopeProducts. The result is clamped to
// the base (a discount never exceeds what it discounts) and never negative.
// Percent discounts use integer floor division and honor MaxDiscount when
// set.
func Discount(c *Coupon, b Basket) types.Money {
	base := discountBase(c, b)
	if !base.IsPositive() {
		return types.Zero(b.Subtotal.Currency)
	}

	var d types.Money
	switch c.Kind {
	case KindPercentOff:
		d = base.Multiply(int64(c.Percentage)).Divide(100)
		if c.MaxDiscount.IsPositive() && d.Amount > c.MaxDiscount.Amount {
			d = types.Money{Amount: c.MaxDiscount.Amount, Currency: d.Currency}
		}
	case KindAmountOff:
		d = types.Money{Amount: c.Amount.Amount, Currency: base.Currency}
	default:
		return types.Zero(base.Currency)
	}

	if d.IsNegative() {
		return types.Zero(base.Currency)
	}
	if d.Amount > base.Amount {
		return base
	}
	return d
}

// discountBase resolves the scope to the amount the coupon applies against.
func discountBase(c *Coupon, b Basket) types.Money {
	switch c.Scope {
	case ScopeWholeOrder:
		return b.Subtotal
	case ScopeFreeShipping:
		return b.Shipping
	case ScopeProducts:
		sum := types.Zero(b.Subtotal.Currency)
		for _, pid := range c.ProductIDs {
			if line, ok := b.Lines[pid.String()]; ok {
				sum = sum.Add(line)
			}
		}
		return sum
	default:
		return types.Zero(b.Subtotal.Currency)
	}
}
