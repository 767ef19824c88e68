// Package plugin provides an extensible plugin system for Checkout.
// Plugins can hook into various lifecycle events to extend functionality.
package plugin

import (
	"context"
	"time"
)

// Plugin is the base interface that all plugins must implement.
type Plugin interface {
	Name() string
}

// ──────────────────────────────────────────────────
// Lifecycle hooks
// ──────────────────────────────────────────────────

// OnInit is called when the plugin is initialized.
type OnInit interface {
	Plugin
	OnInit(ctx context.Context, engine interface{}) error
}

// OnShutdown is called when the plugin is shutting down.
type OnShutdown interface {
	Plugin
	OnShutdown(ctx context.Context) error
}

// ──────────────────────────────────────────────────
// Coupon lifecycle hooks
// ──────────────────────────────────────────────────

// OnCouponCreated is called when a new coupon is created.
type OnCouponCreated interface {
	Plugin
	OnCouponCreated(ctx context.Context, coupon interface{}) error
}

// OnCouponRedeemed is called when a coupon usage is committed during
// checkout.
type OnCouponRedeemed interface {
	Plugin
	OnCouponRedeemed(ctx context.Context, couponID, userID string) error
}

// OnCouponReverted is called when a committed usage is released again
// (compensation, cancellation or failed payment).
type OnCouponReverted interface {
	Plugin
	OnCouponReverted(ctx context.Context, couponID, userID string) error
}

// ──────────────────────────────────────────────────
// Order lifecycle hooks
// ──────────────────────────────────────────────────

// OnOrderCreated is called when an order is persisted.
type OnOrderCreated interface {
	Plugin
	OnOrderCreated(ctx context.Context, ord interface{}) error
}

// OnOrderPaid is called when an order's payment settles successfully.
type OnOrderPaid interface {
	Plugin
	OnOrderPaid(ctx context.Context, ord interface{}) error
}

// OnOrderFailed is called when an order's payment fails definitively.
type OnOrderFailed interface {
	Plugin
	OnOrderFailed(ctx context.Context, ord interface{}) error
}

// OnOrderCanceled is called when an order is cancelled and its holds
// released.
type OnOrderCanceled interface {
	Plugin
	OnOrderCanceled(ctx context.Context, ord interface{}) error
}

// ──────────────────────────────────────────────────
// Payment hooks
// ──────────────────────────────────────────────────

// OnPaymentInitiated is called when a payment intent is created.
type OnPaymentInitiated interface {
	Plugin
	OnPaymentInitiated(ctx context.Context, pay interface{}) error
}

// OnPaymentFailed is called when payment initiation or settlement fails.
type OnPaymentFailed interface {
	Plugin
	OnPaymentFailed(ctx context.Context, pay interface{}, err error) error
}

// ──────────────────────────────────────────────────
// Checkout pipeline hooks
// ──────────────────────────────────────────────────

// OnCheckoutRejected is called when a checkout is turned away before an
// order exists (coupon rejection, insufficient stock).
type OnCheckoutRejected interface {
	Plugin
	OnCheckoutRejected(ctx context.Context, userID string, reason string) error
}

// OnCheckoutCompleted is called after a checkout finishes successfully.
type OnCheckoutCompleted interface {
	Plugin
	OnCheckoutCompleted(ctx context.Context, ord interface{}, elapsed time.Duration) error
}

// OnStockDepleted is called when a stock reservation fails.
type OnStockDepleted interface {
	Plugin
	OnStockDepleted(ctx context.Context, productID string, requested int64) error
}

// ──────────────────────────────────────────────────
// Payment provider plugins
// ──────────────────────────────────────────────────

// PaymentProviderPlugin provides a payment provider implementation.
// Provider returns a payment.WalletProvider or payment.BankTransferProvider;
// the engine adopts it at Start when no provider is configured directly.
type PaymentProviderPlugin interface {
	Plugin
	Provider() interface{}
}

// ──────────────────────────────────────────────────
// Coupon validators
// ──────────────────────────────────────────────────

// CouponValidator provides custom coupon validation logic. Returning an
// error vetoes a coupon the built-in checks would have accepted.
type CouponValidator interface {
	Plugin
	ValidateCoupon(ctx context.Context, coupon interface{}, basket interface{}) error
}
