package product

import (
	"github.com/xraph/checkout/id"
	"github.com/xraph/checkout/types"
)

// Product is a sellable catalog item. Quantity is the on-hand stock and
// is only moved through the store's atomic decrement/restock operations.
type Product struct {
	types.Entity
	ID       id.ProductID      `json:"id"`
	Name     string            `json:"name"`
	SKU      string            `json:"sku,omitempty"`
	Price    types.Money       `json:"price"`
	Quantity int64             `json:"quantity"`
	Active   bool              `json:"active"`
	AppID    string            `json:"app_id"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// InStock reports whether at least qty units are on hand. This is a
// snapshot check for display purposes; reservations go through the
// store's conditional decrement.
func (p *Product) InStock(qty int64) bool {
	return p.Quantity >= qty
}
