package order

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/xraph/checkout/id"
	"github.com/xraph/checkout/types"
)

// Order is the persisted result of a checkout. Line items snapshot the
// product name and unit price at purchase time so later catalog edits do
// not rewrite history.
type Order struct {
	types.Entity
	ID            id.OrderID        `json:"id"`
	Code          string            `json:"code"`
	UserID        string            `json:"user_id"`
	Items         []LineItem        `json:"items"`
	Subtotal      types.Money       `json:"subtotal"`
	Shipping      types.Money       `json:"shipping"`
	Discount      types.Money       `json:"discount"`
	Total         types.Money       `json:"total"`
	CouponCodes   []string          `json:"coupon_codes,omitempty"`
	PaymentMethod string            `json:"payment_method"`
	PaymentID     id.PaymentID      `json:"payment_id,omitempty"`
	Status        Status            `json:"status"`
	AppID         string            `json:"app_id"`
	Metadata      map[string]string `json:"metadata,omitempty"`
}

// LineItem is one purchased product with snapshotted pricing.
type LineItem struct {
	ID        id.LineItemID `json:"id"`
	ProductID id.ProductID  `json:"product_id"`
	Name      string        `json:"name"`
	UnitPrice types.Money   `json:"unit_price"`
	Quantity  int64         `json:"quantity"`
	Subtotal  types.Money   `json:"subtotal"`
}

// Status is the payment state of an order.
type Status string

const (
	StatusPending   Status = "pending"
	StatusPaid      Status = "paid"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

// CanTransitionTo enforces the order status machine: pending is the only
// non-terminal state.
func (s Status) CanTransitionTo(next Status) bool {
	if s != StatusPending {
		return false
	}
	switch next {
	case StatusPaid, StatusFailed, StatusCancelled:
		return true
	default:
		return false
	}
}

// IsFinal reports whether the status is terminal.
func (s Status) IsFinal() bool {
	return s == StatusPaid || s == StatusFailed || s == StatusCancelled
}

// NewCode generates a human-facing order code like "SO-20260829-1A2B3C".
func NewCode(t time.Time) string {
	buf := make([]byte, 3)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand failing means the platform is broken; fall back to
		// the timestamp alone rather than panicking mid-checkout.
		return fmt.Sprintf("SO-%s", t.UTC().Format("20060102150405.000000"))
	}
	return fmt.Sprintf("SO-%s-%s", t.UTC().Format("20060102"), strings.ToUpper(hex.EncodeToString(buf)))
}
