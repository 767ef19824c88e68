package product

import (
	"context"

	"github.com/xraph/checkout/id"
)

// Store is the product persistence contract.
//
// DecrementStock must be a single conditional write (succeed iff
// quantity >= qty) so concurrent checkouts cannot oversell.
type Store interface {
	Create(ctx context.Context, p *Product) error
	Get(ctx context.Context, productID id.ProductID) (*Product, error)
	List(ctx context.Context, appID string, opts ListOpts) ([]*Product, error)
	Update(ctx context.Context, p *Product) error
	Delete(ctx context.Context, productID id.ProductID) error

	// DecrementStock atomically subtracts qty iff enough stock is on
	// hand. Fails with the insufficient-stock sentinel otherwise.
	DecrementStock(ctx context.Context, productID id.ProductID, qty int64) error

	// Restock atomically adds qty back. Used by admin restocking and by
	// checkout compensation when a later step fails.
	Restock(ctx context.Context, productID id.ProductID, qty int64) error
}

type ListOpts struct {
	Active bool
	Limit  int
	Offset int
}
