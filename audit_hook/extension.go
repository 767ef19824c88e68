// Package audithook bridges Checkout lifecycle events to an audit trail backend.
//
// It defines a local Recorder interface so the package does not import
// Chronicle directly. Callers inject a RecorderFunc adapter that bridges
// to Chronicle at wiring time.
package audithook

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/xraph/checkout/plugin"
)

// Compile-time interface checks.
var (
	_ plugin.Plugin              = (*Extension)(nil)
	_ plugin.OnCouponCreated     = (*Extension)(nil)
	_ plugin.OnCouponRedeemed    = (*Extension)(nil)
	_ plugin.OnCouponReverted    = (*Extension)(nil)
	_ plugin.OnOrderCreated      = (*Extension)(nil)
	_ plugin.OnOrderPaid         = (*Extension)(nil)
	_ plugin.OnOrderFailed       = (*Extension)(nil)
	_ plugin.OnOrderCanceled     = (*Extension)(nil)
	_ plugin.OnPaymentInitiated  = (*Extension)(nil)
	_ plugin.OnPaymentFailed     = (*Extension)(nil)
	_ plugin.OnCheckoutRejected  = (*Extension)(nil)
	_ plugin.OnStockDepleted     = (*Extension)(nil)
)

// Recorder is the interface that audit backends must implement.
// This matches chronicle.Emitter but is defined locally so that the
// audit_hook package does not import Chronicle directly — callers inject
// the concrete *chronicle.Chronicle at wiring time.
type Recorder interface {
	Record(ctx context.Context, event *AuditEvent) error
}

// AuditEvent is a local representation of an audit event.
// It mirrors chronicle/audit.Event but avoids a module dependency.
type AuditEvent struct {
	Action     string         `json:"action"`
	Resource   string         `json:"resource"`
	Category   string         `json:"category"`
	ResourceID string         `json:"resource_id,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	Outcome    string         `json:"outcome"`
	Severity   string         `json:"severity"`
	Reason     string         `json:"reason,omitempty"`
}

// RecorderFunc is an adapter to use a plain function as a Recorder.
type RecorderFunc func(ctx context.Context, event *AuditEvent) error

// Record implements Recorder.
func (f RecorderFunc) Record(ctx context.Context, event *AuditEvent) error {
	return f(ctx, event)
}

// Extension bridges Checkout lifecycle events to an audit trail backend.
type Extension struct {
	recorder Recorder
	enabled  map[string]bool // nil = all enabled
	logger   *slog.Logger
}

// New creates an Extension that emits audit events through the provided Recorder.
func New(r Recorder, opts ...Option) *Extension {
	e := &Extension{
		recorder: r,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name implements plugin.Plugin.
func (e *Extension) Name() string { return "audit-hook" }

// ──────────────────────────────────────────────────
// Coupon lifecycle hooks
// ──────────────────────────────────────────────────

// OnCouponCreated implements plugin.OnCouponCreated.
func (e *Extension) OnCouponCreated(ctx context.Context, _ interface{}) error {
	return e.record(ctx, ActionCouponCreated, SeverityInfo, OutcomeSuccess,
		ResourceCoupon, "", CategoryPromotion, nil,
		"event", "coupon_created",
	)
}

// OnCouponRedeemed implements plugin.OnCouponRedeemed.
func (e *Extension) OnCouponRedeemed(ctx context.Context, couponID, userID string) error {
	return e.record(ctx, ActionCouponRedeemed, SeverityInfo, OutcomeSuccess,
		ResourceCoupon, couponID, CategoryPromotion, nil,
		"coupon_id", couponID,
		"user_id", userID,
	)
}

// OnCouponReverted implements plugin.OnCouponReverted.
func (e *Extension) OnCouponReverted(ctx context.Context, couponID, userID string) error {
	return e.record(ctx, ActionCouponReverted, SeverityInfo, OutcomeSuccess,
		ResourceCoupon, couponID, CategoryPromotion, nil,
		"coupon_id", couponID,
		"user_id", userID,
	)
}

// ──────────────────────────────────────────────────
// Order lifecycle hooks
// ──────────────────────────────────────────────────

// OnOrderCreated implements plugin.OnOrderCreated.
func (e *Extension) OnOrderCreated(ctx context.Context, _ interface{}) error {
	return e.record(ctx, ActionOrderCreated, SeverityInfo, OutcomeSuccess,
		ResourceOrder, "", CategoryCommerce, nil,
		"event", "order_created",
	)
}

// OnOrderPaid implements plugin.OnOrderPaid.
func (e *Extension) OnOrderPaid(ctx context.Context, _ interface{}) error {
	return e.record(ctx, ActionOrderPaid, SeverityInfo, OutcomeSuccess,
		ResourceOrder, "", CategoryPayment, nil,
		"event", "order_paid",
	)
}

// OnOrderFailed implements plugin.OnOrderFailed.
func (e *Extension) OnOrderFailed(ctx context.Context, _ interface{}) error {
	return e.record(ctx, ActionOrderFailed, SeverityWarning, OutcomeFailure,
		ResourceOrder, "", CategoryPayment, nil,
		"event", "order_failed",
	)
}

// OnOrderCanceled implements plugin.OnOrderCanceled.
func (e *Extension) OnOrderCanceled(ctx context.Context, _ interface{}) error {
	return e.record(ctx, ActionOrderCanceled, SeverityInfo, OutcomeSuccess,
		ResourceOrder, "", CategoryCommerce, nil,
		"event", "order_canceled",
	)
}

// ──────────────────────────────────────────────────
// Payment hooks
// ──────────────────────────────────────────────────

// OnPaymentInitiated implements plugin.OnPaymentInitiated.
func (e *Extension) OnPaymentInitiated(ctx context.Context, _ interface{}) error {
	return e.record(ctx, ActionPaymentInitiated, SeverityInfo, OutcomeSuccess,
		ResourcePayment, "", CategoryPayment, nil,
		"event", "payment_initiated",
	)
}

// OnPaymentFailed implements plugin.OnPaymentFailed.
func (e *Extension) OnPaymentFailed(ctx context.Context, _ interface{}, err error) error {
	return e.record(ctx, ActionPaymentFailed, SeverityCritical, OutcomeFailure,
		ResourcePayment, "", CategoryPayment, err,
		"event", "payment_failed",
	)
}

// ──────────────────────────────────────────────────
// Checkout pipeline hooks
// ──────────────────────────────────────────────────

// OnCheckoutRejected implements plugin.OnCheckoutRejected.
func (e *Extension) OnCheckoutRejected(ctx context.Context, userID, reason string) error {
	return e.record(ctx, ActionCheckoutRejected, SeverityWarning, OutcomeFailure,
		ResourceOrder, "", CategoryCommerce, errors.New(reason),
		"user_id", userID,
		"reject_reason", reason,
	)
}

// OnStockDepleted implements plugin.OnStockDepleted.
func (e *Extension) OnStockDepleted(ctx context.Context, productID string, requested int64) error {
	return e.record(ctx, ActionStockDepleted, SeverityWarning, OutcomeFailure,
		ResourceProduct, productID, CategoryInventory, nil,
		"product_id", productID,
		"requested", requested,
	)
}

// ──────────────────────────────────────────────────
// Internal helpers
// ──────────────────────────────────────────────────

// record builds and sends an audit event if the action is enabled.
func (e *Extension) record(
	ctx context.Context,
	action, severity, outcome string,
	resource, resourceID, category string,
	err error,
	kvPairs ...any,
) error {
	if e.enabled != nil && !e.enabled[action] {
		return nil
	}

	meta := make(map[string]any, len(kvPairs)/2+1)
	for i := 0; i+1 < len(kvPairs); i += 2 {
		key, ok := kvPairs[i].(string)
		if !ok {
			key = fmt.Sprintf("%v", kvPairs[i])
		}
		meta[key] = kvPairs[i+1]
	}

	var reason string
	if err != nil {
		reason = err.Error()
		meta["error"] = err.Error()
	}

	evt := &AuditEvent{
		Action:     action,
		Resource:   resource,
		Category:   category,
		ResourceID: resourceID,
		Metadata:   meta,
		Outcome:    outcome,
		Severity:   severity,
		Reason:     reason,
	}

	if recErr := e.recorder.Record(ctx, evt); recErr != nil {
		e.logger.Warn("audit_hook: failed to record audit event",
			"action", action,
			"resource_id", resourceID,
			"error", recErr,
		)
	}
	return nil
}
