package order

import (
	"context"

	"github.com/xraph/checkout/id"
)

// Store is the order persistence contract. Status transitions are
// validated by the engine; SetStatus writes are conditional on the
// current status being pending so concurrent settlement paths cannot
// double-finalize an order.
type Store interface {
	Create(ctx context.Context, o *Order) error
	Get(ctx context.Context, orderID id.OrderID) (*Order, error)
	GetByCode(ctx context.Context, code string, appID string) (*Order, error)
	List(ctx context.Context, userID string, appID string, opts ListOpts) ([]*Order, error)

	// SetStatus moves a pending order to next. Fails with the
	// not-cancellable sentinel when the order is already final.
	SetStatus(ctx context.Context, orderID id.OrderID, next Status) error

	// SetPayment links the payment record created for this order.
	SetPayment(ctx context.Context, orderID id.OrderID, paymentID id.PaymentID) error
}

type ListOpts struct {
	Status Status
	Limit  int
	Offset int
}
