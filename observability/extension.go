// Package observability provides a metrics extension for Checkout that records
// lifecycle event counts via go-utils MetricFactory.
package observability

import (
	"context"
	"time"

	"github.com/xraph/checkout/plugin"
)

// Ensure MetricsExtension implements required interfaces.
var (
	_ plugin.Plugin              = (*MetricsExtension)(nil)
	_ plugin.OnInit              = (*MetricsExtension)(nil)
	_ plugin.OnCouponCreated     = (*MetricsExtension)(nil)
	_ plugin.OnCouponRedeemed    = (*MetricsExtension)(nil)
	_ plugin.OnCouponReverted    = (*MetricsExtension)(nil)
	_ plugin.OnOrderCreated      = (*MetricsExtension)(nil)
	_ plugin.OnOrderPaid         = (*MetricsExtension)(nil)
	_ plugin.OnOrderFailed       = (*MetricsExtension)(nil)
	_ plugin.OnOrderCanceled     = (*MetricsExtension)(nil)
	_ plugin.OnPaymentInitiated  = (*MetricsExtension)(nil)
	_ plugin.OnPaymentFailed     = (*MetricsExtension)(nil)
	_ plugin.OnCheckoutRejected  = (*MetricsExtension)(nil)
	_ plugin.OnCheckoutCompleted = (*MetricsExtension)(nil)
	_ plugin.OnStockDepleted     = (*MetricsExtension)(nil)
)

// Counter interface for metric counters.
type Counter interface {
	Inc()
	Add(float64)
}

// Histogram interface for metric histograms.
type Histogram interface {
	Observe(float64)
}

// MetricFactory creates metrics.
type MetricFactory interface {
	Counter(name string) Counter
	Histogram(name string) Histogram
}

// MetricsExtension records system-wide lifecycle metrics.
// Register it as a Checkout plugin to automatically track commerce metrics.
type MetricsExtension struct {
	factory MetricFactory

	// Coupon metrics
	CouponCreated  Counter
	CouponRedeemed Counter
	CouponReverted Counter

	// Order metrics
	OrderCreated  Counter
	OrderPaid     Counter
	OrderFailed   Counter
	OrderCanceled Counter

	// Payment metrics
	PaymentInitiated Counter
	PaymentFailed    Counter

	// Checkout pipeline metrics
	CheckoutCompleted Counter
	CheckoutRejected  Counter
	CheckoutLatency   Histogram
	StockDepleted     Counter

	// Error metrics
	StoreErrors  Counter
	PluginErrors Counter
}

// NewMetricsExtension creates a MetricsExtension with the provided MetricFactory.
// Use app.Metrics() in forge extensions.
func NewMetricsExtension(factory MetricFactory) *MetricsExtension {
	return &MetricsExtension{
		factory: factory,

		// Coupon metrics
		CouponCreated:  factory.Counter("checkout.coupon.created"),
		CouponRedeemed: factory.Counter("checkout.coupon.redeemed"),
		CouponReverted: factory.Counter("checkout.coupon.reverted"),

		// Order metrics
		OrderCreated:  factory.Counter("checkout.order.created"),
		OrderPaid:     factory.Counter("checkout.order.paid"),
		OrderFailed:   factory.Counter("checkout.order.failed"),
		OrderCanceled: factory.Counter("checkout.order.canceled"),

		// Payment metrics
		PaymentInitiated: factory.Counter("checkout.payment.initiated"),
		PaymentFailed:    factory.Counter("checkout.payment.failed"),

		// Checkout pipeline metrics
		CheckoutCompleted: factory.Counter("checkout.pipeline.completed"),
		CheckoutRejected:  factory.Counter("checkout.pipeline.rejected"),
		CheckoutLatency:   factory.Histogram("checkout.pipeline.latency_ms"),
		StockDepleted:     factory.Counter("checkout.stock.depleted"),

		// Error metrics
		StoreErrors:  factory.Counter("checkout.store.errors"),
		PluginErrors: factory.Counter("checkout.plugin.errors"),
	}
}

// Name implements plugin.Plugin.
func (m *MetricsExtension) Name() string { return "observability-metrics" }

// OnInit implements plugin.OnInit.
func (m *MetricsExtension) OnInit(_ context.Context, _ interface{}) error {
	// No initialization needed
	return nil
}

// ──────────────────────────────────────────────────
// Coupon lifecycle hooks
// ──────────────────────────────────────────────────

// OnCouponCreated implements plugin.OnCouponCreated.
func (m *MetricsExtension) OnCouponCreated(_ context.Context, _ interface{}) error {
	m.CouponCreated.Inc()
	return nil
}

// OnCouponRedeemed implements plugin.OnCouponRedeemed.
func (m *MetricsExtension) OnCouponRedeemed(_ context.Context, _, _ string) error {
	m.CouponRedeemed.Inc()
	return nil
}

// OnCouponReverted implements plugin.OnCouponReverted.
func (m *MetricsExtension) OnCouponReverted(_ context.Context, _, _ string) error {
	m.CouponReverted.Inc()
	return nil
}

// ──────────────────────────────────────────────────
// Order lifecycle hooks
// ──────────────────────────────────────────────────

// OnOrderCreated implements plugin.OnOrderCreated.
func (m *MetricsExtension) OnOrderCreated(_ context.Context, _ interface{}) error {
	m.OrderCreated.Inc()
	return nil
}

// OnOrderPaid implements plugin.OnOrderPaid.
func (m *MetricsExtension) OnOrderPaid(_ context.Context, _ interface{}) error {
	m.OrderPaid.Inc()
	return nil
}

// OnOrderFailed implements plugin.OnOrderFailed.
func (m *MetricsExtension) OnOrderFailed(_ context.Context, _ interface{}) error {
	m.OrderFailed.Inc()
	return nil
}

// OnOrderCanceled implements plugin.OnOrderCanceled.
func (m *MetricsExtension) OnOrderCanceled(_ context.Context, _ interface{}) error {
	m.OrderCanceled.Inc()
	return nil
}

// ──────────────────────────────────────────────────
// Payment hooks
// ──────────────────────────────────────────────────

// OnPaymentInitiated implements plugin.OnPaymentInitiated.
func (m *MetricsExtension) OnPaymentInitiated(_ context.Context, _ interface{}) error {
	m.PaymentInitiated.Inc()
	return nil
}

// OnPaymentFailed implements plugin.OnPaymentFailed.
func (m *MetricsExtension) OnPaymentFailed(_ context.Context, _ interface{}, _ error) error {
	m.PaymentFailed.Inc()
	return nil
}

// ──────────────────────────────────────────────────
// Checkout pipeline hooks
// ──────────────────────────────────────────────────

// OnCheckoutRejected implements plugin.OnCheckoutRejected.
func (m *MetricsExtension) OnCheckoutRejected(_ context.Context, _, _ string) error {
	m.CheckoutRejected.Inc()
	return nil
}

// OnCheckoutCompleted implements plugin.OnCheckoutCompleted.
func (m *MetricsExtension) OnCheckoutCompleted(_ context.Context, _ interface{}, elapsed time.Duration) error {
	m.CheckoutCompleted.Inc()
	m.CheckoutLatency.Observe(float64(elapsed.Milliseconds()))
	return nil
}

// OnStockDepleted implements plugin.OnStockDepleted.
func (m *MetricsExtension) OnStockDepleted(_ context.Context, _ string, _ int64) error {
	m.StockDepleted.Inc()
	return nil
}
