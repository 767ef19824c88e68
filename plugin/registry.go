package plugin

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"sync"
	"time"
)

// Registry manages all registered plugins and provides efficient dispatch.
// It uses type-cached discovery for O(1) dispatch performance.
type Registry struct {
	mu      sync.RWMutex
	plugins []Plugin
	logger  *slog.Logger

	// Type-cached plugin lists for efficient dispatch
	onInit              []OnInit
	onShutdown          []OnShutdown
	onCouponCreated     []OnCouponCreated
	onCouponRedeemed    []OnCouponRedeemed
	onCouponReverted    []OnCouponReverted
	onOrderCreated      []OnOrderCreated
	onOrderPaid         []OnOrderPaid
	onOrderFailed       []OnOrderFailed
	onOrderCanceled     []OnOrderCanceled
	onPaymentInitiated  []OnPaymentInitiated
	onPaymentFailed     []OnPaymentFailed
	onCheckoutRejected  []OnCheckoutRejected
	onCheckoutCompleted []OnCheckoutCompleted
	onStockDepleted     []OnStockDepleted
	paymentProviders    []PaymentProviderPlugin
	couponValidators    []CouponValidator
}

// NewRegistry creates a new plugin registry.
func NewRegistry() *Registry {
	return &Registry{
		logger: slog.Default(),
	}
}

// WithLogger sets the logger for the registry.
func (r *Registry) WithLogger(logger *slog.Logger) *Registry {
	r.logger = logger
	return r
}

// Register adds a plugin to the registry and caches its interfaces.
func (r *Registry) Register(p Plugin) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Check for duplicate
	for _, existing := range r.plugins {
		if existing.Name() == p.Name() {
			return fmt.Errorf("plugin: duplicate registration: %s", p.Name())
		}
	}

	r.plugins = append(r.plugins, p)

	// Type-switch to cache interfaces
	if v, ok := p.(OnInit); ok {
		r.onInit = append(r.onInit, v)
	}
	if v, ok := p.(OnShutdown); ok {
		r.onShutdown = append(r.onShutdown, v)
	}
	if v, ok := p.(OnCouponCreated); ok {
		r.onCouponCreated = append(r.onCouponCreated, v)
	}
	if v, ok := p.(OnCouponRedeemed); ok {
		r.onCouponRedeemed = append(r.onCouponRedeemed, v)
	}
	if v, ok := p.(OnCouponReverted); ok {
		r.onCouponReverted = append(r.onCouponReverted, v)
	}
	if v, ok := p.(OnOrderCreated); ok {
		r.onOrderCreated = append(r.onOrderCreated, v)
	}
	if v, ok := p.(OnOrderPaid); ok {
		r.onOrderPaid = append(r.onOrderPaid, v)
	}
	if v, ok := p.(OnOrderFailed); ok {
		r.onOrderFailed = append(r.onOrderFailed, v)
	}
	if v, ok := p.(OnOrderCanceled); ok {
		r.onOrderCanceled = append(r.onOrderCanceled, v)
	}
	if v, ok := p.(OnPaymentInitiated); ok {
		r.onPaymentInitiated = append(r.onPaymentInitiated, v)
	}
	if v, ok := p.(OnPaymentFailed); ok {
		r.onPaymentFailed = append(r.onPaymentFailed, v)
	}
	if v, ok := p.(OnCheckoutRejected); ok {
		r.onCheckoutRejected = append(r.onCheckoutRejected, v)
	}
	if v, ok := p.(OnCheckoutCompleted); ok {
		r.onCheckoutCompleted = append(r.onCheckoutCompleted, v)
	}
	if v, ok := p.(OnStockDepleted); ok {
		r.onStockDepleted = append(r.onStockDepleted, v)
	}
	if v, ok := p.(PaymentProviderPlugin); ok {
		r.paymentProviders = append(r.paymentProviders, v)
	}
	if v, ok := p.(CouponValidator); ok {
		r.couponValidators = append(r.couponValidators, v)
	}

	r.logger.Info("plugin registered",
		"name", p.Name(),
		"interfaces", r.getImplementedInterfaces(p),
	)

	return nil
}

// getImplementedInterfaces returns a list of interfaces implemented by the plugin.
func (r *Registry) getImplementedInterfaces(p Plugin) []string {
	var interfaces []string
	v := reflect.TypeOf(p)

	// Check each interface
	checkInterface := func(iface reflect.Type, name string) {
		if v.Implements(iface) {
			interfaces = append(interfaces, name)
		}
	}

	// List all interfaces to check
	checkInterface(reflect.TypeOf((*OnInit)(nil)).Elem(), "OnInit")
	checkInterface(reflect.TypeOf((*OnShutdown)(nil)).Elem(), "OnShutdown")
	checkInterface(reflect.TypeOf((*OnCouponCreated)(nil)).Elem(), "OnCouponCreated")
	checkInterface(reflect.TypeOf((*OnCouponRedeemed)(nil)).Elem(), "OnCouponRedeemed")
	checkInterface(reflect.TypeOf((*OnOrderCreated)(nil)).Elem(), "OnOrderCreated")
	checkInterface(reflect.TypeOf((*OnOrderPaid)(nil)).Elem(), "OnOrderPaid")
	checkInterface(reflect.TypeOf((*OnPaymentInitiated)(nil)).Elem(), "OnPaymentInitiated")
	checkInterface(reflect.TypeOf((*OnCheckoutCompleted)(nil)).Elem(), "OnCheckoutCompleted")
	checkInterface(reflect.TypeOf((*PaymentProviderPlugin)(nil)).Elem(), "PaymentProvider")
	checkInterface(reflect.TypeOf((*CouponValidator)(nil)).Elem(), "CouponValidator")

	return interfaces
}

// Get returns a plugin by name.
func (r *Registry) Get(name string) Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range r.plugins {
		if p.Name() == name {
			return p
		}
	}
	return nil
}

// List returns all registered plugins.
func (r *Registry) List() []Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Plugin, len(r.plugins))
	copy(result, r.plugins)
	return result
}

// Count returns the number of registered plugins.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.plugins)
}

// ──────────────────────────────────────────────────
// Event emission methods
// ──────────────────────────────────────────────────

// EmitInit calls OnInit for all plugins that implement it.
func (r *Registry) EmitInit(ctx context.Context, engine interface{}) {
	r.mu.RLock()
	plugins := r.onInit
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnInit(ctx, engine)
		}); err != nil {
			r.logger.Warn("plugin OnInit failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitShutdown calls OnShutdown for all plugins that implement it.
func (r *Registry) EmitShutdown(ctx context.Context) {
	r.mu.RLock()
	plugins := r.onShutdown
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnShutdown(ctx)
		}); err != nil {
			r.logger.Warn("plugin OnShutdown failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitCouponCreated emits a coupon created event.
func (r *Registry) EmitCouponCreated(ctx context.Context, c interface{}) {
	r.mu.RLock()
	plugins := r.onCouponCreated
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnCouponCreated(ctx, c)
		}); err != nil {
			r.logger.Warn("plugin OnCouponCreated failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitCouponRedeemed emits a coupon redeemed event.
func (r *Registry) EmitCouponRedeemed(ctx context.Context, couponID, userID string) {
	r.mu.RLock()
	plugins := r.onCouponRedeemed
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnCouponRedeemed(ctx, couponID, userID)
		}); err != nil {
			r.logger.Warn("plugin OnCouponRedeemed failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitCouponReverted emits a coupon usage reverted event.
func (r *Registry) EmitCouponReverted(ctx context.Context, couponID, userID string) {
	r.mu.RLock()
	plugins := r.onCouponReverted
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnCouponReverted(ctx, couponID, userID)
		}); err != nil {
			r.logger.Warn("plugin OnCouponReverted failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitOrderCreated emits an order created event.
func (r *Registry) EmitOrderCreated(ctx context.Context, ord interface{}) {
	r.mu.RLock()
	plugins := r.onOrderCreated
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnOrderCreated(ctx, ord)
		}); err != nil {
			r.logger.Warn("plugin OnOrderCreated failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitOrderPaid emits an order paid event.
func (r *Registry) EmitOrderPaid(ctx context.Context, ord interface{}) {
	r.mu.RLock()
	plugins := r.onOrderPaid
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnOrderPaid(ctx, ord)
		}); err != nil {
			r.logger.Warn("plugin OnOrderPaid failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitOrderFailed emits an order failed event.
func (r *Registry) EmitOrderFailed(ctx context.Context, ord interface{}) {
	r.mu.RLock()
	plugins := r.onOrderFailed
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnOrderFailed(ctx, ord)
		}); err != nil {
			r.logger.Warn("plugin OnOrderFailed failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitOrderCanceled emits an order canceled event.
func (r *Registry) EmitOrderCanceled(ctx context.Context, ord interface{}) {
	r.mu.RLock()
	plugins := r.onOrderCanceled
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnOrderCanceled(ctx, ord)
		}); err != nil {
			r.logger.Warn("plugin OnOrderCanceled failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitPaymentInitiated emits a payment initiated event.
func (r *Registry) EmitPaymentInitiated(ctx context.Context, pay interface{}) {
	r.mu.RLock()
	plugins := r.onPaymentInitiated
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnPaymentInitiated(ctx, pay)
		}); err != nil {
			r.logger.Warn("plugin OnPaymentInitiated failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitPaymentFailed emits a payment failed event.
func (r *Registry) EmitPaymentFailed(ctx context.Context, pay interface{}, cause error) {
	r.mu.RLock()
	plugins := r.onPaymentFailed
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnPaymentFailed(ctx, pay, cause)
		}); err != nil {
			r.logger.Warn("plugin OnPaymentFailed failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitCheckoutRejected emits a checkout rejected event.
func (r *Registry) EmitCheckoutRejected(ctx context.Context, userID, reason string) {
	r.mu.RLock()
	plugins := r.onCheckoutRejected
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnCheckoutRejected(ctx, userID, reason)
		}); err != nil {
			r.logger.Warn("plugin OnCheckoutRejected failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitCheckoutCompleted emits a checkout completed event.
func (r *Registry) EmitCheckoutCompleted(ctx context.Context, ord interface{}, elapsed time.Duration) {
	r.mu.RLock()
	plugins := r.onCheckoutCompleted
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnCheckoutCompleted(ctx, ord, elapsed)
		}); err != nil {
			r.logger.Warn("plugin OnCheckoutCompleted failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitStockDepleted emits a stock depleted event.
func (r *Registry) EmitStockDepleted(ctx context.Context, productID string, requested int64) {
	r.mu.RLock()
	plugins := r.onStockDepleted
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnStockDepleted(ctx, productID, requested)
		}); err != nil {
			r.logger.Warn("plugin OnStockDepleted failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// GetPaymentProviders returns all registered payment provider plugins.
func (r *Registry) GetPaymentProviders() []PaymentProviderPlugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]PaymentProviderPlugin, len(r.paymentProviders))
	copy(result, r.paymentProviders)
	return result
}

// GetCouponValidators returns all registered coupon validators.
func (r *Registry) GetCouponValidators() []CouponValidator {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]CouponValidator, len(r.couponValidators))
	copy(result, r.couponValidators)
	return result
}

// callWithTimeout calls a plugin function with a timeout.
// Plugins should never block the checkout pipeline.
func (r *Registry) callWithTimeout(ctx context.Context, pluginName string, fn func() error) error {
	done := make(chan error, 1)

	go func() {
		done <- fn()
	}()

	select {
	case err := <-done:
		return err
	case <-time.After(5 * time.Second):
		return fmt.Errorf("plugin timeout: %s", pluginName)
	case <-ctx.Done():
		return ctx.Err()
	}
}
