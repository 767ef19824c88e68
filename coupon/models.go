package coupon

import (
	"time"

	"github.com/xraph/checkout/id"
	"github.com/xraph/checkout/types"
)

// Coupon is a discount definition plus its usage counters. The counters
// (TimesUsed, UsedBy) are only ever moved by the store's atomic
// commit/revert operations, never by business code.
type Coupon struct {
	types.Entity
	ID             id.CouponID       `json:"id"`
	Code           string            `json:"code"`
	Name           string            `json:"name"`
	Kind           Kind              `json:"kind"`
	Amount         types.Money       `json:"amount,omitempty"`
	Percentage     int               `json:"percentage,omitempty"`
	MaxDiscount    types.Money       `json:"max_discount,omitempty"`
	MinOrderValue  types.Money       `json:"min_order_value,omitempty"`
	Scope          Scope             `json:"scope"`
	ProductIDs     []id.ProductID    `json:"product_ids,omitempty"`
	StartsAt       *time.Time        `json:"starts_at,omitempty"`
	ExpiresAt      *time.Time        `json:"expires_at,omitempty"`
	MaxUses        int               `json:"max_uses"`
	MaxUsesPerUser int               `json:"max_uses_per_user"`
	TimesUsed      int               `json:"times_used"`
	UsedBy         map[string]int    `json:"used_by,omitempty"`
	Active         bool              `json:"active"`
	AppID          string            `json:"app_id"`
	Metadata       map[string]string `json:"metadata,omitempty"`
}

type Kind string

const (
	KindPercentOff Kind = "percent_off"
	KindAmountOff  Kind = "amount_off"
)

type Scope string

const (
	ScopeWholeOrder   Scope = "whole_order"
	ScopeFreeShipping Scope = "free_shipping"
	ScopeProducts     Scope = "products"
)

// RejectReason explains why a coupon did not apply to a checkout.
type RejectReason string

const (
	ReasonNotFound       RejectReason = "not_found"
	ReasonInactive       RejectReason = "inactive"
	ReasonOutOfWindow    RejectReason = "out_of_window"
	ReasonGlobalLimit    RejectReason = "global_limit_reached"
	ReasonUserLimit      RejectReason = "user_limit_reached"
	ReasonBelowMinimum   RejectReason = "below_minimum"
	ReasonScopeUsed      RejectReason = "scope_already_used"
	ReasonTooManyCoupons RejectReason = "too_many_coupons"
	ReasonNoEligible     RejectReason = "no_eligible_items"
	ReasonVetoed         RejectReason = "vetoed"
)

// Outcome records the result of evaluating one requested code.
// Outcomes are returned in request order, accepted or not.
type Outcome struct {
	Code     string       `json:"code"`
	Applied  bool         `json:"applied"`
	Discount types.Money  `json:"discount"`
	Reason   RejectReason `json:"reason,omitempty"`
}

// Basket is the pure evaluation input: order amounts only, no identity,
// no storage handles.
type Basket struct {
	Subtotal types.Money
	Shipping types.Money
	// Lines maps product ID strings to per-line subtotals.
	Lines map[string]types.Money
}

// UsesRemaining reports how many global redemptions are left.
// Returns -1 for unlimited coupons.
func (c *Coupon) UsesRemaining() int {
	if c.MaxUses <= 0 {
		return -1
	}
	if rem := c.MaxUses - c.TimesUsed; rem > 0 {
		return rem
	}
	return 0
}

// UsedByUser returns how many times the given user has redeemed the coupon.
func (c *Coupon) UsedByUser(userID string) int {
	if c.UsedBy == nil {
		return 0
	}
	return c.UsedBy[userID]
}

// InWindow reports whether the coupon's validity window contains t.
// Nil bounds are open-ended.
func (c *Coupon) InWindow(t time.Time) bool {
	if c.StartsAt != nil && t.Before(*c.StartsAt) {
		return false
	}
	if c.ExpiresAt != nil && t.After(*c.ExpiresAt) {
		return false
	}
	return true
}
