package payment

import (
	"context"
	"time"

	"github.com/xraph/checkout/id"
)

// Store is the payment persistence contract.
type Store interface {
	Create(ctx context.Context, p *Payment) error
	Get(ctx context.Context, paymentID id.PaymentID) (*Payment, error)
	GetByOrder(ctx context.Context, orderID id.OrderID) (*Payment, error)
	GetByProviderRef(ctx context.Context, ref string, appID string) (*Payment, error)

	// SetStatus moves a payment to next; completedAt is recorded for
	// terminal successes. Writes are conditional on the payment not
	// already being final.
	SetStatus(ctx context.Context, paymentID id.PaymentID, next Status, completedAt *time.Time) error

	// ListExpired returns pending payments whose expiry passed before
	// asOf. The engine's sweeper cancels their orders.
	ListExpired(ctx context.Context, asOf time.Time, limit int) ([]*Payment, error)
}
