package coupon

import (
	"testing"
	"time"

	"github.com/xraph/checkout/types"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func activeCoupon() Coupon {
	return Coupon{
		Code:       "SAVE10",
		Kind:       KindPercentOff,
		Percentage: 10,
		Scope:      ScopeWholeOrder,
		Active:     true,
	}
}

func TestEvaluateAccepted(t *testing.T) {
	c := activeCoupon()
	e := Evaluator{}

	v := e.Evaluate(&c, "user-1", vndBasket(500000, 30000, nil), map[Scope]bool{}, 0)
	if v.Reason != "" {
		t.Fatalf("unexpected rejection: %s", v.Reason)
	}
	if v.Discount.Amount != 50000 {
		t.Errorf("Discount = %d, want 50000", v.Discount.Amount)
	}
}

func TestEvaluateOrderedChecks(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	past := now.Add(-48 * time.Hour)
	future := now.Add(48 * time.Hour)

	tests := []struct {
		name       string
		mutate     func(*Coupon)
		userID     string
		basket     Basket
		usedScopes map[Scope]bool
		accepted   int
		want       RejectReason
	}{
		{
			name:   "inactive",
			mutate: func(c *Coupon) { c.Active = false },
			want:   ReasonInactive,
		},
		{
			name:   "not yet started",
			mutate: func(c *Coupon) { c.StartsAt = &future },
			want:   ReasonOutOfWindow,
		},
		{
			name:   "expired",
			mutate: func(c *Coupon) { c.ExpiresAt = &past },
			want:   ReasonOutOfWindow,
		},
		{
			name: "inactive wins over expired",
			mutate: func(c *Coupon) {
				c.Active = false
				c.ExpiresAt = &past
			},
			want: ReasonInactive,
		},
		{
			name: "global limit reached",
			mutate: func(c *Coupon) {
				c.MaxUses = 100
				c.TimesUsed = 100
			},
			want: ReasonGlobalLimit,
		},
		{
			name: "global limit wins over user limit",
			mutate: func(c *Coupon) {
				c.MaxUses = 100
				c.TimesUsed = 100
				c.MaxUsesPerUser = 1
				c.UsedBy = map[string]int{"user-1": 1}
			},
			want: ReasonGlobalLimit,
		},
		{
			name: "user limit reached",
			mutate: func(c *Coupon) {
				c.MaxUsesPerUser = 2
				c.UsedBy = map[string]int{"user-1": 2}
			},
			want: ReasonUserLimit,
		},
		{
			name: "other user's usage does not count",
			mutate: func(c *Coupon) {
				c.MaxUsesPerUser = 2
				c.UsedBy = map[string]int{"user-2": 2}
			},
			want: "",
		},
		{
			name:   "below minimum",
			mutate: func(c *Coupon) { c.MinOrderValue = types.VND(600000) },
			want:   ReasonBelowMinimum,
		},
		{
			name:   "minimum met exactly",
			mutate: func(c *Coupon) { c.MinOrderValue = types.VND(500000) },
			want:   "",
		},
		{
			name:     "too many coupons",
			mutate:   func(c *Coupon) {},
			accepted: 3,
			want:     ReasonTooManyCoupons,
		},
		{
			name:       "scope already used",
			mutate:     func(c *Coupon) {},
			usedScopes: map[Scope]bool{ScopeWholeOrder: true},
			want:       ReasonScopeUsed,
		},
		{
			name: "third coupon on fresh scope still passes cap",
			mutate: func(c *Coupon) {
				c.Scope = ScopeFreeShipping
				c.Percentage = 100
			},
			usedScopes: map[Scope]bool{ScopeWholeOrder: true, ScopeProducts: true},
			accepted:   2,
			want:       "",
		},
		{
			name: "third coupon on duplicate scope is scope rejection not cap",
			mutate: func(c *Coupon) {
				c.Scope = ScopeWholeOrder
			},
			usedScopes: map[Scope]bool{ScopeWholeOrder: true, ScopeFreeShipping: true},
			accepted:   2,
			want:       ReasonScopeUsed,
		},
		{
			name: "no eligible items",
			mutate: func(c *Coupon) {
				c.Scope = ScopeProducts
				c.ProductIDs = nil
			},
			want: ReasonNoEligible,
		},
		{
			name: "free shipping with zero shipping",
			mutate: func(c *Coupon) {
				c.Scope = ScopeFreeShipping
				c.Percentage = 100
			},
			basket: vndBasket(500000, 0, nil),
			want:   ReasonNoEligible,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := activeCoupon()
			tt.mutate(&c)

			userID := tt.userID
			if userID == "" {
				userID = "user-1"
			}
			basket := tt.basket
			if basket.Subtotal.Currency == "" {
				basket = vndBasket(500000, 30000, nil)
			}
			usedScopes := tt.usedScopes
			if usedScopes == nil {
				usedScopes = map[Scope]bool{}
			}

			e := Evaluator{Now: fixedClock(now)}
			v := e.Evaluate(&c, userID, basket, usedScopes, tt.accepted)
			if v.Reason != tt.want {
				t.Errorf("Reason = %q, want %q", v.Reason, tt.want)
			}
			if tt.want != "" && !v.Discount.IsZero() {
				t.Errorf("rejected verdict carries discount %d", v.Discount.Amount)
			}
		})
	}
}

func TestEvaluateWindowBounds(t *testing.T) {
	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC)

	c := activeCoupon()
	c.StartsAt = &start
	c.ExpiresAt = &end

	basket := vndBasket(500000, 0, nil)

	// Bounds are inclusive.
	for _, at := range []time.Time{start, end} {
		e := Evaluator{Now: fixedClock(at)}
		if v := e.Evaluate(&c, "u", basket, map[Scope]bool{}, 0); v.Reason != "" {
			t.Errorf("at %v: Reason = %q, want accepted", at, v.Reason)
		}
	}
}

func TestEvaluateCustomCap(t *testing.T) {
	c := activeCoupon()
	e := Evaluator{MaxPerOrder: 1}

	v := e.Evaluate(&c, "u", vndBasket(500000, 0, nil), map[Scope]bool{}, 1)
	if v.Reason != ReasonTooManyCoupons {
		t.Errorf("Reason = %q, want %q", v.Reason, ReasonTooManyCoupons)
	}
}

func TestEvaluateDoesNotMutate(t *testing.T) {
	c := activeCoupon()
	c.MaxUses = 10
	c.TimesUsed = 4
	c.UsedBy = map[string]int{"u": 1}

	e := Evaluator{}
	_ = e.Evaluate(&c, "u", vndBasket(500000, 0, nil), map[Scope]bool{}, 0)

	if c.TimesUsed != 4 || c.UsedBy["u"] != 1 {
		t.Error("evaluator mutated coupon counters")
	}
}
