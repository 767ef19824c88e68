package coupon

import (
	"time"

	"github.com/xraph/checkout/types"
)

// DefaultMaxPerOrder is the cap on coupons applied to a single order.
const DefaultMaxPerOrder = 3

// Evaluator decides whether a coupon applies to a basket. It is stateless:
// it inspects a coupon snapshot and returns a verdict without touching
// storage or mutating anything. Usage accounting happens later, in the
// store's atomic commit.
type Evaluator struct {
	// MaxPerOrder caps accepted coupons per order. Zero means
	// DefaultMaxPerOrder.
	MaxPerOrder int

	// Now supplies the clock for window checks. Nil means time.Now.
	Now func() time.Time
}

// Verdict is the result of evaluating one coupon. Reason is empty when
// the coupon is accepted.
type Verdict struct {
	Discount types.Money
	Reason   RejectReason
}

// Evaluate runs the ordered eligibility checks and stops at the first
// failure:
//
//	inactive, out of window, global limit, per-user limit, order minimum,
//	per-order cap, scope uniqueness, eligible items.
//
// usedScopes holds the scopes of coupons already accepted for this order;
// accepted is how many have been accepted so far.
func (e Evaluator) Evaluate(c *Coupon, userID string, b Basket, usedScopes map[Scope]bool, accepted int) Verdict {
	if !c.Active {
		return rejected(ReasonInactive, b)
	}

	now := time.Now()
	if e.Now != nil {
		now = e.Now()
	}
	if !c.InWindow(now) {
		return rejected(ReasonOutOfWindow, b)
	}

	if c.MaxUses > 0 && c.TimesUsed >= c.MaxUses {
		return rejected(ReasonGlobalLimit, b)
	}

	if c.MaxUsesPerUser > 0 && c.UsedByUser(userID) >= c.MaxUsesPerUser {
		return rejected(ReasonUserLimit, b)
	}

	if c.MinOrderValue.IsPositive() && b.Subtotal.Amount < c.MinOrderValue.Amount {
		return rejected(ReasonBelowMinimum, b)
	}

	maxPerOrder := e.MaxPerOrder
	if maxPerOrder <= 0 {
		maxPerOrder = DefaultMaxPerOrder
	}
	if accepted >= maxPerOrder {
		return rejected(ReasonTooManyCoupons, b)
	}
	if usedScopes[c.Scope] {
		return rejected(ReasonScopeUsed, b)
	}

	d := Discount(c, b)
	if !d.IsPositive() {
		return rejected(ReasonNoEligible, b)
	}

	return Verdict{Discount: d}
}

func rejected(reason RejectReason, b Basket) Verdict {
	return Verdict{Discount: types.Zero(b.Subtotal.Currency), Reason: reason}
}
