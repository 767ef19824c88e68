package checkout

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/xraph/checkout/coupon"
	"github.com/xraph/checkout/id"
	"github.com/xraph/checkout/order"
	"github.com/xraph/checkout/payment"
	"github.com/xraph/checkout/plugin"
	"github.com/xraph/checkout/product"
	"github.com/xraph/checkout/store"
	"github.com/xraph/checkout/types"
)

// Engine is the checkout orchestrator. It owns the evaluation, reservation
// and payment-dispatch pipeline; all state lives in the injected store.
type Engine struct {
	store      store.Store
	plugins    *plugin.Registry
	logger     *slog.Logger
	dispatcher *payment.Dispatcher

	// Background workers
	stopChan chan struct{}
	wg       sync.WaitGroup

	// Configuration
	maxCouponsPerOrder int
	sweepInterval      time.Duration
	sweepBatchSize     int
	callbackSecret     string
	now                func() time.Time
}

// New creates a new Engine instance.
func New(s store.Store, opts ...Option) *Engine {
	e := &Engine{
		store:              s,
		plugins:            plugin.NewRegistry(),
		logger:             slog.Default(),
		dispatcher:         &payment.Dispatcher{},
		stopChan:           make(chan struct{}),
		maxCouponsPerOrder: coupon.DefaultMaxPerOrder,
		sweepInterval:      time.Minute,
		sweepBatchSize:     100,
		now:                time.Now,
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Option configures an Engine instance.
type Option func(*Engine)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
		e.plugins.WithLogger(logger)
	}
}

// WithPlugin registers a plugin.
func WithPlugin(p plugin.Plugin) Option {
	return func(e *Engine) {
		_ = e.plugins.Register(p) //nolint:errcheck // best-effort plugin registration during init
	}
}

// WithWalletProvider sets the wallet payment gateway.
func WithWalletProvider(p payment.WalletProvider) Option {
	return func(e *Engine) {
		e.dispatcher.Wallet = p
	}
}

// WithBankTransferProvider sets the bank-transfer payment gateway.
func WithBankTransferProvider(p payment.BankTransferProvider) Option {
	return func(e *Engine) {
		e.dispatcher.Bank = p
	}
}

// WithMaxCouponsPerOrder caps how many coupons one order may apply.
func WithMaxCouponsPerOrder(n int) Option {
	return func(e *Engine) {
		e.maxCouponsPerOrder = n
	}
}

// WithSweepInterval configures how often expired pending payments are
// swept and their orders failed. Zero disables the sweeper.
func WithSweepInterval(d time.Duration) Option {
	return func(e *Engine) {
		e.sweepInterval = d
	}
}

// WithCallbackSecret sets the shared secret used to verify gateway
// callback checksums. Empty disables verification.
func WithCallbackSecret(secret string) Option {
	return func(e *Engine) {
		e.callbackSecret = secret
	}
}

// WithClock overrides the time source. Used in tests.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// Start migrates the store, initializes plugins and begins background
// workers.
func (e *Engine) Start(ctx context.Context) error {
	if err := e.store.Migrate(ctx); err != nil {
		return err
	}

	e.plugins.EmitInit(ctx, e)

	// Adopt gateway implementations offered by plugins, unless one was
	// configured directly.
	for _, pp := range e.plugins.GetPaymentProviders() {
		switch p := pp.Provider().(type) {
		case payment.WalletProvider:
			if e.dispatcher.Wallet == nil {
				e.dispatcher.Wallet = p
			}
		case payment.BankTransferProvider:
			if e.dispatcher.Bank == nil {
				e.dispatcher.Bank = p
			}
		}
	}

	if e.sweepInterval > 0 {
		e.wg.Add(1)
		go e.expiredPaymentSweeper(ctx)
	}

	e.logger.Info("checkout engine started",
		"max_coupons_per_order", e.maxCouponsPerOrder,
		"sweep_interval", e.sweepInterval,
	)

	return nil
}

// Stop shuts down the Engine.
func (e *Engine) Stop(ctx context.Context) error {
	close(e.stopChan)
	e.wg.Wait()

	e.plugins.EmitShutdown(ctx)

	return e.store.Close()
}

// ──────────────────────────────────────────────────
// Checkout Pipeline
// ──────────────────────────────────────────────────

// ItemRequest is one requested product and quantity.
type ItemRequest struct {
	ProductID id.ProductID `json:"product_id"`
	Quantity  int64        `json:"quantity"`
}

// Request is the input to Checkout.
type Request struct {
	UserID        string            `json:"user_id"`
	AppID         string            `json:"app_id,omitempty"`
	Items         []ItemRequest     `json:"items"`
	Shipping      types.Money       `json:"shipping"`
	PaymentMethod payment.Method    `json:"payment_method"`
	CouponCodes   []string          `json:"coupon_codes,omitempty"`
	ReturnURL     string            `json:"return_url,omitempty"`
	CancelURL     string            `json:"cancel_url,omitempty"`
	Metadata      map[string]string `json:"metadata,omitempty"`
}

// Result is the outcome of a successful checkout, or a partial outcome
// when coupons were rejected (Outcomes is populated either way).
type Result struct {
	Order    *order.Order     `json:"order,omitempty"`
	Payment  *payment.Payment `json:"payment,omitempty"`
	Intent   *payment.Intent  `json:"intent,omitempty"`
	Outcomes []coupon.Outcome `json:"coupon_outcomes,omitempty"`
}

// Checkout runs the whole pipeline: validate, price, evaluate coupons,
// reserve stock, commit coupon usage, persist the order and dispatch the
// payment intent.
//
// Coupons are all-or-nothing: if any requested code does not apply, the
// checkout is rejected before anything is reserved and the per-code
// Outcomes explain why. Stock and usage holds are taken before the order
// is persisted; any failure before the order exists releases them. A
// payment-provider failure after the order exists leaves the order
// pending and its holds in place so payment can be retried.
func (e *Engine) Checkout(ctx context.Context, req Request) (*Result, error) {
	start := e.now()

	if err := e.validateRequest(req); err != nil {
		return nil, err
	}

	lines, subtotal, basket, err := e.priceItems(ctx, req)
	if err != nil {
		return nil, err
	}

	shipping := req.Shipping
	if shipping.Currency == "" {
		shipping = types.Zero(subtotal.Currency)
	}
	if shipping.Currency != subtotal.Currency {
		return nil, ValidationError{Field: "shipping", Message: "currency does not match item prices"}
	}
	basket.Shipping = shipping

	applied, outcomes, err := e.evaluateCoupons(ctx, req, basket)
	if err != nil {
		return &Result{Outcomes: outcomes}, err
	}

	discount := types.Zero(subtotal.Currency)
	for _, out := range outcomes {
		if out.Applied {
			discount = discount.Add(out.Discount)
		}
	}
	total := subtotal.Add(shipping).Subtract(discount)
	if total.IsNegative() {
		total = types.Zero(subtotal.Currency)
	}

	if err := e.reserveStock(ctx, req.Items); err != nil {
		return &Result{Outcomes: outcomes}, err
	}

	if err := e.commitUsages(ctx, req, applied, outcomes); err != nil {
		e.restock(ctx, req.Items)
		return &Result{Outcomes: outcomes}, err
	}

	ord := &order.Order{
		Entity:        types.NewEntity(),
		ID:            id.NewOrderID(),
		Code:          order.NewCode(start),
		UserID:        req.UserID,
		Items:         lines,
		Subtotal:      subtotal,
		Shipping:      shipping,
		Discount:      discount,
		Total:         total,
		CouponCodes:   appliedCodes(outcomes),
		PaymentMethod: string(req.PaymentMethod),
		Status:        order.StatusPending,
		AppID:         req.AppID,
		Metadata:      req.Metadata,
	}

	if err := e.store.CreateOrder(ctx, ord); err != nil {
		e.revertUsages(ctx, req.UserID, applied)
		e.restock(ctx, req.Items)
		return &Result{Outcomes: outcomes}, err
	}
	e.plugins.EmitOrderCreated(ctx, ord)

	pay, intent, err := e.initiatePayment(ctx, req, ord)
	if err != nil {
		// The order exists and its holds are valid; leave it pending so
		// payment can be retried or the order cancelled.
		return &Result{Order: ord, Payment: pay, Outcomes: outcomes}, err
	}

	e.plugins.EmitCheckoutCompleted(ctx, ord, time.Since(start))
	e.logger.Info("checkout completed",
		"order", ord.Code,
		"user_id", ord.UserID,
		"total", ord.Total.String(),
		"method", ord.PaymentMethod,
	)

	return &Result{Order: ord, Payment: pay, Intent: intent, Outcomes: outcomes}, nil
}

func (e *Engine) validateRequest(req Request) error {
	if req.UserID == "" {
		return ValidationError{Field: "user_id", Message: "required"}
	}
	if len(req.Items) == 0 {
		return ErrEmptyOrder
	}
	for _, it := range req.Items {
		if it.ProductID.IsNil() {
			return ValidationError{Field: "items.product_id", Message: "required"}
		}
		if it.Quantity <= 0 {
			return ErrInvalidQuantity
		}
	}
	if !req.PaymentMethod.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownPaymentMethod, req.PaymentMethod)
	}
	distinct := make(map[string]bool, len(req.CouponCodes))
	for _, raw := range req.CouponCodes {
		distinct[strings.ToUpper(strings.TrimSpace(raw))] = true
	}
	if len(distinct) > e.maxCouponsPerOrder {
		return fmt.Errorf("%w: at most %d coupons per order", ErrCouponRejected, e.maxCouponsPerOrder)
	}
	return nil
}

// priceItems loads every product, snapshots prices into line items and
// builds the evaluation basket.
func (e *Engine) priceItems(ctx context.Context, req Request) ([]order.LineItem, types.Money, coupon.Basket, error) {
	var (
		lines    = make([]order.LineItem, 0, len(req.Items))
		subtotal types.Money
		basket   = coupon.Basket{Lines: make(map[string]types.Money, len(req.Items))}
	)

	for _, it := range req.Items {
		p, err := e.store.GetProduct(ctx, it.ProductID)
		if err != nil {
			return nil, subtotal, basket, err
		}
		if !p.Active {
			return nil, subtotal, basket, fmt.Errorf("%w: %s", ErrProductInactive, p.Name)
		}

		if subtotal.Currency == "" {
			subtotal = types.Zero(p.Price.Currency)
		} else if p.Price.Currency != subtotal.Currency {
			return nil, subtotal, basket, ValidationError{Field: "items", Message: "mixed currencies in one order"}
		}

		lineTotal := p.Price.Multiply(it.Quantity)
		lines = append(lines, order.LineItem{
			ID:        id.NewLineItemID(),
			ProductID: p.ID,
			Name:      p.Name,
			UnitPrice: p.Price,
			Quantity:  it.Quantity,
			Subtotal:  lineTotal,
		})
		subtotal = subtotal.Add(lineTotal)
		basket.Lines[p.ID.String()] = lineTotal
	}

	basket.Subtotal = subtotal
	return lines, subtotal, basket, nil
}

// evaluateCoupons resolves and evaluates every requested code in order.
// All-or-nothing: one rejection rejects the checkout.
func (e *Engine) evaluateCoupons(ctx context.Context, req Request, basket coupon.Basket) ([]*coupon.Coupon, []coupon.Outcome, error) {
	if len(req.CouponCodes) == 0 {
		return nil, nil, nil
	}

	eval := coupon.Evaluator{MaxPerOrder: e.maxCouponsPerOrder, Now: e.now}
	validators := e.plugins.GetCouponValidators()

	var (
		applied    []*coupon.Coupon
		outcomes   = make([]coupon.Outcome, 0, len(req.CouponCodes))
		usedScopes = make(map[coupon.Scope]bool)
		seen       = make(map[string]bool, len(req.CouponCodes))
		rejected   bool
	)

	for _, raw := range req.CouponCodes {
		code := strings.ToUpper(strings.TrimSpace(raw))
		if seen[code] {
			// Same code twice collapses to one application.
			continue
		}
		seen[code] = true
		out := coupon.Outcome{Code: code, Discount: types.Zero(basket.Subtotal.Currency)}

		c, err := e.store.GetCoupon(ctx, code, req.AppID)
		switch {
		case errors.Is(err, ErrCouponNotFound):
			out.Reason = coupon.ReasonNotFound
		case err != nil:
			return nil, outcomes, err
		default:
			v := eval.Evaluate(c, req.UserID, basket, usedScopes, len(applied))
			out.Discount = v.Discount
			out.Reason = v.Reason

			if v.Reason == "" {
				for _, cv := range validators {
					if verr := cv.ValidateCoupon(ctx, c, basket); verr != nil {
						out.Reason = coupon.ReasonVetoed
						out.Discount = types.Zero(basket.Subtotal.Currency)
						break
					}
				}
			}
			if out.Reason == "" {
				out.Applied = true
				usedScopes[c.Scope] = true
				applied = append(applied, c)
			}
		}

		if !out.Applied {
			rejected = true
		}
		outcomes = append(outcomes, out)
	}

	if rejected {
		for _, out := range outcomes {
			if !out.Applied {
				e.plugins.EmitCheckoutRejected(ctx, req.UserID, string(out.Reason))
				return nil, outcomes, fmt.Errorf("%w: %s: %s", ErrCouponRejected, out.Code, out.Reason)
			}
		}
	}

	return applied, outcomes, nil
}

// reserveStock decrements every line atomically; the first failure
// restores all prior decrements.
func (e *Engine) reserveStock(ctx context.Context, items []ItemRequest) error {
	for i, it := range items {
		if err := e.store.DecrementStock(ctx, it.ProductID, it.Quantity); err != nil {
			e.restock(ctx, items[:i])
			if errors.Is(err, ErrInsufficientStock) {
				e.plugins.EmitStockDepleted(ctx, it.ProductID.String(), it.Quantity)
			}
			return err
		}
	}
	return nil
}

func (e *Engine) restock(ctx context.Context, items []ItemRequest) {
	for _, it := range items {
		if err := e.store.RestockProduct(ctx, it.ProductID, it.Quantity); err != nil {
			e.logger.Error("failed to restock after checkout failure",
				"product_id", it.ProductID.String(),
				"quantity", it.Quantity,
				"error", err,
			)
		}
	}
}

// commitUsages burns one usage per applied coupon. A commit can still lose
// a race against a concurrent checkout even though evaluation passed; in
// that case already-committed usages are reverted and the losing outcome
// is rewritten with the limit that was hit.
func (e *Engine) commitUsages(ctx context.Context, req Request, applied []*coupon.Coupon, outcomes []coupon.Outcome) error {
	for i, c := range applied {
		err := e.store.CommitCouponUsage(ctx, c.ID, req.UserID)
		if err == nil {
			e.plugins.EmitCouponRedeemed(ctx, c.ID.String(), req.UserID)
			continue
		}

		e.revertUsages(ctx, req.UserID, applied[:i])

		if errors.Is(err, ErrCouponExhausted) {
			reason := coupon.ReasonGlobalLimit
			if fresh, gerr := e.store.GetCouponByID(ctx, c.ID); gerr == nil {
				if fresh.MaxUses <= 0 || fresh.TimesUsed < fresh.MaxUses {
					reason = coupon.ReasonUserLimit
				}
			}
			for j := range outcomes {
				if outcomes[j].Code == c.Code {
					outcomes[j].Applied = false
					outcomes[j].Reason = reason
					outcomes[j].Discount = types.Zero(outcomes[j].Discount.Currency)
				}
			}
			e.plugins.EmitCheckoutRejected(ctx, req.UserID, string(reason))
			return fmt.Errorf("%w: %s: %s", ErrCouponRejected, c.Code, reason)
		}
		return err
	}
	return nil
}

func (e *Engine) revertUsages(ctx context.Context, userID string, committed []*coupon.Coupon) {
	for _, c := range committed {
		if err := e.store.RevertCouponUsage(ctx, c.ID, userID); err != nil {
			e.logger.Error("failed to revert coupon usage",
				"coupon_id", c.ID.String(),
				"user_id", userID,
				"error", err,
			)
			continue
		}
		e.plugins.EmitCouponReverted(ctx, c.ID.String(), userID)
	}
}

// initiatePayment creates the payment record and dispatches the intent.
// Provider failures persist a failed payment record but keep the order
// pending.
func (e *Engine) initiatePayment(ctx context.Context, req Request, ord *order.Order) (*payment.Payment, *payment.Intent, error) {
	intent, ierr := e.dispatcher.CreateIntent(ctx, payment.Request{
		OrderID:   ord.ID,
		OrderCode: ord.Code,
		Method:    req.PaymentMethod,
		Amount:    ord.Total,
		ReturnURL: req.ReturnURL,
		CancelURL: req.CancelURL,
	})

	pay := &payment.Payment{
		Entity:  types.NewEntity(),
		ID:      id.NewPaymentID(),
		OrderID: ord.ID,
		Method:  req.PaymentMethod,
		Amount:  ord.Total,
		Status:  payment.StatusPending,
		AppID:   ord.AppID,
	}
	if intent != nil {
		pay.ProviderRef = intent.ProviderRef
		pay.PayURL = intent.PayURL
		pay.Message = intent.Message
		pay.Accounts = intent.Accounts
		pay.ExpiresAt = intent.ExpiresAt
	}
	if ierr != nil {
		pay.Status = payment.StatusFailed
	}

	if err := e.store.CreatePayment(ctx, pay); err != nil {
		e.logger.Error("failed to persist payment record",
			"order", ord.Code,
			"error", err,
		)
		if ierr == nil {
			return nil, nil, err
		}
	} else {
		if err := e.store.SetOrderPayment(ctx, ord.ID, pay.ID); err != nil {
			e.logger.Error("failed to link payment to order",
				"order", ord.Code,
				"payment_id", pay.ID.String(),
				"error", err,
			)
		}
		ord.PaymentID = pay.ID
	}

	if ierr != nil {
		e.plugins.EmitPaymentFailed(ctx, pay, ierr)
		return pay, nil, ierr
	}

	e.plugins.EmitPaymentInitiated(ctx, pay)
	return pay, intent, nil
}

func appliedCodes(outcomes []coupon.Outcome) []string {
	var codes []string
	for _, out := range outcomes {
		if out.Applied {
			codes = append(codes, out.Code)
		}
	}
	return codes
}

// ──────────────────────────────────────────────────
// Payment Settlement
// ──────────────────────────────────────────────────

// ConfirmPayment processes a gateway settlement callback. The payment is
// located by provider reference, falling back to the order code. Success
// marks the payment completed and the order paid; failure marks both
// failed and releases the order's stock and coupon holds.
//
// Status writes are conditional on the current state, so replayed
// callbacks are idempotent: a callback matching the already-settled state
// returns the order unchanged, a conflicting one fails with
// ErrOrderFinalized.
func (e *Engine) ConfirmPayment(ctx context.Context, appID string, cb payment.Callback) (*order.Order, error) {
	if e.callbackSecret != "" {
		if !payment.VerifyChecksum(e.callbackSecret, cb.Fields, cb.Signature) {
			return nil, ErrBadSignature
		}
	}

	pay, err := e.findCallbackPayment(ctx, appID, cb)
	if err != nil {
		return nil, err
	}

	ord, err := e.store.GetOrder(ctx, pay.OrderID)
	if err != nil {
		return nil, err
	}

	if cb.Success {
		return e.settlePaid(ctx, ord, pay)
	}
	return e.settleFailed(ctx, ord, pay, errors.New("gateway reported failure"))
}

func (e *Engine) findCallbackPayment(ctx context.Context, appID string, cb payment.Callback) (*payment.Payment, error) {
	if cb.ProviderRef != "" {
		pay, err := e.store.GetPaymentByProviderRef(ctx, cb.ProviderRef, appID)
		if err == nil || !errors.Is(err, ErrPaymentNotFound) || cb.OrderCode == "" {
			return pay, err
		}
	}
	if cb.OrderCode != "" {
		ord, err := e.store.GetOrderByCode(ctx, cb.OrderCode, appID)
		if err != nil {
			return nil, err
		}
		return e.store.GetPaymentByOrder(ctx, ord.ID)
	}
	return nil, fmt.Errorf("%w: callback carries neither provider_ref nor order_code", ErrPaymentNotFound)
}

func (e *Engine) settlePaid(ctx context.Context, ord *order.Order, pay *payment.Payment) (*order.Order, error) {
	completedAt := e.now()
	if err := e.store.SetPaymentStatus(ctx, pay.ID, payment.StatusCompleted, &completedAt); err != nil {
		if errors.Is(err, ErrOrderFinalized) && pay.Status == payment.StatusCompleted {
			return ord, nil // replayed callback
		}
		return nil, err
	}
	if err := e.store.SetOrderStatus(ctx, ord.ID, order.StatusPaid); err != nil {
		if !errors.Is(err, ErrOrderFinalized) || ord.Status != order.StatusPaid {
			return nil, err
		}
	}
	ord.Status = order.StatusPaid
	pay.Status = payment.StatusCompleted

	e.plugins.EmitOrderPaid(ctx, ord)
	e.logger.Info("order paid",
		"order", ord.Code,
		"total", ord.Total.String(),
	)
	return ord, nil
}

func (e *Engine) settleFailed(ctx context.Context, ord *order.Order, pay *payment.Payment, cause error) (*order.Order, error) {
	if err := e.store.SetPaymentStatus(ctx, pay.ID, payment.StatusFailed, nil); err != nil {
		if errors.Is(err, ErrOrderFinalized) && pay.Status == payment.StatusFailed {
			return ord, nil // replayed callback
		}
		return nil, err
	}
	if err := e.store.SetOrderStatus(ctx, ord.ID, order.StatusFailed); err != nil {
		return nil, err
	}
	ord.Status = order.StatusFailed
	pay.Status = payment.StatusFailed

	e.releaseHolds(ctx, ord)
	e.plugins.EmitPaymentFailed(ctx, pay, cause)
	e.plugins.EmitOrderFailed(ctx, ord)
	e.logger.Info("order failed",
		"order", ord.Code,
		"cause", cause.Error(),
	)
	return ord, nil
}

// ──────────────────────────────────────────────────
// Order Cancellation
// ──────────────────────────────────────────────────

// CancelOrder cancels a pending order, releasing its stock and coupon
// holds. Finalized orders fail with ErrOrderNotCancellable.
func (e *Engine) CancelOrder(ctx context.Context, orderID id.OrderID) (*order.Order, error) {
	ord, err := e.store.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if err := e.store.SetOrderStatus(ctx, orderID, order.StatusCancelled); err != nil {
		if errors.Is(err, ErrOrderFinalized) {
			return nil, fmt.Errorf("%w: order is %s", ErrOrderNotCancellable, ord.Status)
		}
		return nil, err
	}
	ord.Status = order.StatusCancelled

	if !ord.PaymentID.IsNil() {
		if err := e.store.SetPaymentStatus(ctx, ord.PaymentID, payment.StatusCancelled, nil); err != nil && !errors.Is(err, ErrOrderFinalized) {
			e.logger.Error("failed to cancel payment",
				"order", ord.Code,
				"payment_id", ord.PaymentID.String(),
				"error", err,
			)
		}
	}

	e.releaseHolds(ctx, ord)
	e.plugins.EmitOrderCanceled(ctx, ord)
	e.logger.Info("order cancelled", "order", ord.Code)

	return ord, nil
}

// releaseHolds returns an order's reserved stock and reverts its coupon
// usages. Failures are logged, not returned: the order status has already
// moved and the remaining releases must still be attempted.
func (e *Engine) releaseHolds(ctx context.Context, ord *order.Order) {
	for _, line := range ord.Items {
		if err := e.store.RestockProduct(ctx, line.ProductID, line.Quantity); err != nil {
			e.logger.Error("failed to restock released order",
				"order", ord.Code,
				"product_id", line.ProductID.String(),
				"error", err,
			)
		}
	}

	for _, code := range ord.CouponCodes {
		c, err := e.store.GetCoupon(ctx, code, ord.AppID)
		if err != nil {
			e.logger.Error("failed to resolve coupon for usage revert",
				"order", ord.Code,
				"code", code,
				"error", err,
			)
			continue
		}
		if err := e.store.RevertCouponUsage(ctx, c.ID, ord.UserID); err != nil {
			e.logger.Error("failed to revert coupon usage",
				"order", ord.Code,
				"code", code,
				"error", err,
			)
			continue
		}
		e.plugins.EmitCouponReverted(ctx, c.ID.String(), ord.UserID)
	}
}

// ──────────────────────────────────────────────────
// Expired Payment Sweeper
// ──────────────────────────────────────────────────

// expiredPaymentSweeper fails pending payments whose bank-transfer links
// have expired, releasing the holds of their orders.
func (e *Engine) expiredPaymentSweeper(ctx context.Context) {
	defer e.wg.Done()

	ticker := time.NewTicker(e.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-e.stopChan:
			return
		case <-ticker.C:
			e.sweepExpiredPayments(ctx)
		}
	}
}

func (e *Engine) sweepExpiredPayments(ctx context.Context) {
	expired, err := e.store.ListExpiredPayments(ctx, e.now(), e.sweepBatchSize)
	if err != nil {
		e.logger.Error("failed to list expired payments", "error", err)
		return
	}

	for _, pay := range expired {
		ord, err := e.store.GetOrder(ctx, pay.OrderID)
		if err != nil {
			e.logger.Error("failed to load order for expired payment",
				"payment_id", pay.ID.String(),
				"error", err,
			)
			continue
		}
		if _, err := e.settleFailed(ctx, ord, pay, errors.New("payment link expired")); err != nil {
			// A concurrent callback may have settled it first.
			if !errors.Is(err, ErrOrderFinalized) {
				e.logger.Error("failed to expire payment",
					"payment_id", pay.ID.String(),
					"error", err,
				)
			}
		}
	}

	if len(expired) > 0 {
		e.logger.Debug("swept expired payments", "count", len(expired))
	}
}

// ──────────────────────────────────────────────────
// Coupon Management
// ──────────────────────────────────────────────────

// CreateCoupon validates and persists a new coupon. Codes are normalized
// to upper case.
func (e *Engine) CreateCoupon(ctx context.Context, c *coupon.Coupon) error {
	c.Code = strings.ToUpper(strings.TrimSpace(c.Code))
	if err := validateCoupon(c); err != nil {
		return err
	}

	if c.ID.IsNil() {
		c.ID = id.NewCouponID()
	}
	c.Entity = types.NewEntity()

	if err := e.store.CreateCoupon(ctx, c); err != nil {
		return err
	}

	e.plugins.EmitCouponCreated(ctx, c)
	return nil
}

func validateCoupon(c *coupon.Coupon) error {
	if c.Code == "" {
		return ValidationError{Field: "code", Message: "required"}
	}
	switch c.Kind {
	case coupon.KindPercentOff:
		if c.Percentage < 1 || c.Percentage > 100 {
			return ValidationError{Field: "percentage", Message: "must be between 1 and 100"}
		}
	case coupon.KindAmountOff:
		if !c.Amount.IsPositive() {
			return ValidationError{Field: "amount", Message: "must be positive"}
		}
	default:
		return ValidationError{Field: "kind", Message: fmt.Sprintf("unknown kind %q", c.Kind)}
	}
	switch c.Scope {
	case coupon.ScopeWholeOrder, coupon.ScopeFreeShipping:
	case coupon.ScopeProducts:
		if len(c.ProductIDs) == 0 {
			return ValidationError{Field: "product_ids", Message: "required for product-scoped coupons"}
		}
	default:
		return ValidationError{Field: "scope", Message: fmt.Sprintf("unknown scope %q", c.Scope)}
	}
	if c.StartsAt != nil && c.ExpiresAt != nil && c.ExpiresAt.Before(*c.StartsAt) {
		return ValidationError{Field: "expires_at", Message: "before starts_at"}
	}
	return nil
}

// GetCoupon retrieves a coupon by code.
func (e *Engine) GetCoupon(ctx context.Context, code, appID string) (*coupon.Coupon, error) {
	return e.store.GetCoupon(ctx, strings.ToUpper(strings.TrimSpace(code)), appID)
}

// GetCouponByID retrieves a coupon by ID.
func (e *Engine) GetCouponByID(ctx context.Context, couponID id.CouponID) (*coupon.Coupon, error) {
	return e.store.GetCouponByID(ctx, couponID)
}

// ListCoupons lists coupons for an app.
func (e *Engine) ListCoupons(ctx context.Context, appID string, opts coupon.ListOpts) ([]*coupon.Coupon, error) {
	return e.store.ListCoupons(ctx, appID, opts)
}

// UpdateCoupon updates a coupon's definition. Usage counters are owned by
// the commit/revert path and are never touched here.
func (e *Engine) UpdateCoupon(ctx context.Context, c *coupon.Coupon) error {
	c.Code = strings.ToUpper(strings.TrimSpace(c.Code))
	if err := validateCoupon(c); err != nil {
		return err
	}
	c.Touch()
	return e.store.UpdateCoupon(ctx, c)
}

// DisableCoupon deactivates a coupon without deleting its usage history.
func (e *Engine) DisableCoupon(ctx context.Context, couponID id.CouponID) error {
	c, err := e.store.GetCouponByID(ctx, couponID)
	if err != nil {
		return err
	}
	c.Active = false
	c.Touch()
	return e.store.UpdateCoupon(ctx, c)
}

// DeleteCoupon removes a coupon.
func (e *Engine) DeleteCoupon(ctx context.Context, couponID id.CouponID) error {
	return e.store.DeleteCoupon(ctx, couponID)
}

// ──────────────────────────────────────────────────
// Product Management
// ──────────────────────────────────────────────────

// CreateProduct validates and persists a new catalog product.
func (e *Engine) CreateProduct(ctx context.Context, p *product.Product) error {
	if p.Name == "" {
		return ValidationError{Field: "name", Message: "required"}
	}
	if !p.Price.IsPositive() {
		return ValidationError{Field: "price", Message: "must be positive"}
	}
	if p.Quantity < 0 {
		return ValidationError{Field: "quantity", Message: "must not be negative"}
	}

	if p.ID.IsNil() {
		p.ID = id.NewProductID()
	}
	p.Entity = types.NewEntity()

	return e.store.CreateProduct(ctx, p)
}

// GetProduct retrieves a product by ID.
func (e *Engine) GetProduct(ctx context.Context, productID id.ProductID) (*product.Product, error) {
	return e.store.GetProduct(ctx, productID)
}

// ListProducts lists products for an app.
func (e *Engine) ListProducts(ctx context.Context, appID string, opts product.ListOpts) ([]*product.Product, error) {
	return e.store.ListProducts(ctx, appID, opts)
}

// UpdateProduct updates a product's catalog fields. Stock is owned by the
// decrement/restock path and is never touched here.
func (e *Engine) UpdateProduct(ctx context.Context, p *product.Product) error {
	if p.Name == "" {
		return ValidationError{Field: "name", Message: "required"}
	}
	if !p.Price.IsPositive() {
		return ValidationError{Field: "price", Message: "must be positive"}
	}
	p.Touch()
	return e.store.UpdateProduct(ctx, p)
}

// DeleteProduct removes a product.
func (e *Engine) DeleteProduct(ctx context.Context, productID id.ProductID) error {
	return e.store.DeleteProduct(ctx, productID)
}

// RestockProduct adds qty units back to a product's stock.
func (e *Engine) RestockProduct(ctx context.Context, productID id.ProductID, qty int64) error {
	if qty <= 0 {
		return ErrInvalidQuantity
	}
	return e.store.RestockProduct(ctx, productID, qty)
}

// ──────────────────────────────────────────────────
// Order and Payment Queries
// ──────────────────────────────────────────────────

// GetOrder retrieves an order by ID.
func (e *Engine) GetOrder(ctx context.Context, orderID id.OrderID) (*order.Order, error) {
	return e.store.GetOrder(ctx, orderID)
}

// GetOrderByCode retrieves an order by its human-facing code.
func (e *Engine) GetOrderByCode(ctx context.Context, code, appID string) (*order.Order, error) {
	return e.store.GetOrderByCode(ctx, code, appID)
}

// ListOrders lists a user's orders.
func (e *Engine) ListOrders(ctx context.Context, userID, appID string, opts order.ListOpts) ([]*order.Order, error) {
	return e.store.ListOrders(ctx, userID, appID, opts)
}

// GetPayment retrieves a payment by ID.
func (e *Engine) GetPayment(ctx context.Context, paymentID id.PaymentID) (*payment.Payment, error) {
	return e.store.GetPayment(ctx, paymentID)
}

// GetPaymentByOrder retrieves the payment record for an order.
func (e *Engine) GetPaymentByOrder(ctx context.Context, orderID id.OrderID) (*payment.Payment, error) {
	return e.store.GetPaymentByOrder(ctx, orderID)
}

// Plugins exposes the plugin registry, mainly for introspection.
func (e *Engine) Plugins() *plugin.Registry {
	return e.plugins
}
