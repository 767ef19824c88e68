package coupon

import (
	"context"

	"github.com/xraph/checkout/id"
)

// Store is the coupon persistence contract.
//
// CommitUsage and RevertUsage are the usage ledger: each must be a single
// conditional write on the backend so that concurrent checkouts can never
// push a counter past its cap. Reading the coupon and writing an
// incremented copy back is not an acceptable implementation.
type Store interface {
	Create(ctx context.Context, c *Coupon) error
	Get(ctx context.Context, code string, appID string) (*Coupon, error)
	GetByID(ctx context.Context, couponID id.CouponID) (*Coupon, error)
	List(ctx context.Context, appID string, opts ListOpts) ([]*Coupon, error)
	Update(ctx context.Context, c *Coupon) error
	Delete(ctx context.Context, couponID id.CouponID) error

	// CommitUsage atomically increments the global counter and the
	// per-user counter iff both are below their caps (a cap of zero is
	// unlimited). Fails with the exhaustion sentinel when either cap
	// would be exceeded.
	CommitUsage(ctx context.Context, couponID id.CouponID, userID string) error

	// RevertUsage atomically decrements both counters, flooring at zero.
	// The global counter is decremented even when the per-user entry is
	// already gone.
	RevertUsage(ctx context.Context, couponID id.CouponID, userID string) error
}

type ListOpts struct {
	Active bool
	Limit  int
	Offset int
}
