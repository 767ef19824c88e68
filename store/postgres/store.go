package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/pgdriver"
	"github.com/xraph/grove/migrate"

	checkout "github.com/xraph/checkout"
	"github.com/xraph/checkout/coupon"
	"github.com/xraph/checkout/id"
	"github.com/xraph/checkout/order"
	"github.com/xraph/checkout/payment"
	"github.com/xraph/checkout/product"
	checkoutstore "github.com/xraph/checkout/store"
)

// compile-time interface check
var _ checkoutstore.Store = (*Store)(nil)

// Store implements store.Store using PostgreSQL via Grove ORM.
//
// All counter moves (coupon usage, stock) are single conditional UPDATEs:
// the guard sits in the WHERE clause, so the row is checked and mutated in
// one statement.
type Store struct {
	db *grove.DB
	pg *pgdriver.PgDB
}

// New creates a new PostgreSQL store backed by Grove ORM.
func New(db *grove.DB) *Store {
	return &Store{
		db: db,
		pg: pgdriver.Unwrap(db),
	}
}

// DB returns the underlying grove database for direct access.
func (s *Store) DB() *grove.DB { return s.db }

// Migrate creates the required tables and indexes using the grove orchestrator.
func (s *Store) Migrate(ctx context.Context) error {
	executor, err := migrate.NewExecutorFor(s.pg)
	if err != nil {
		return fmt.Errorf("checkout/postgres: create migration executor: %w", err)
	}
	orch := migrate.NewOrchestrator(executor, Migrations)
	if _, err := orch.Migrate(ctx); err != nil {
		return fmt.Errorf("checkout/postgres: migration failed: %w", err)
	}
	return nil
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// ==================== Coupon Store ====================

func (s *Store) CreateCoupon(ctx context.Context, c *coupon.Coupon) error {
	m := toCouponModel(c)
	_, err := s.pg.NewInsert(m).Exec(ctx)
	if err != nil {
		if isUniqueViolation(err) {
			return checkout.ErrCouponCodeTaken
		}
		return err
	}
	return nil
}

func (s *Store) GetCoupon(ctx context.Context, code, appID string) (*coupon.Coupon, error) {
	m := new(couponModel)
	err := s.pg.NewSelect(m).
		Where("code = $1", code).
		Where("app_id = $2", appID).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, checkout.ErrCouponNotFound
		}
		return nil, err
	}
	return fromCouponModel(m)
}

func (s *Store) GetCouponByID(ctx context.Context, couponID id.CouponID) (*coupon.Coupon, error) {
	m := new(couponModel)
	err := s.pg.NewSelect(m).
		Where("id = $1", couponID.String()).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, checkout.ErrCouponNotFound
		}
		return nil, err
	}
	return fromCouponModel(m)
}

func (s *Store) ListCoupons(ctx context.Context, appID string, opts coupon.ListOpts) ([]*coupon.Coupon, error) {
	var models []couponModel
	q := s.pg.NewSelect(&models).Where("app_id = $1", appID)

	if opts.Active {
		q = q.Where("active = $2", true)
	}
	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}
	if opts.Offset > 0 {
		q = q.Offset(opts.Offset)
	}
	q = q.OrderExpr("created_at DESC")

	if err := q.Scan(ctx); err != nil {
		return nil, err
	}

	result := make([]*coupon.Coupon, len(models))
	for i := range models {
		c, err := fromCouponModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = c
	}
	return result, nil
}

// UpdateCoupon replaces the coupon definition. The usage counters
// (times_used, used_by) are deliberately not in the SET list; they only
// move through CommitCouponUsage and RevertCouponUsage.
func (s *Store) UpdateCoupon(ctx context.Context, c *coupon.Coupon) error {
	m := toCouponModel(c)

	res, err := s.pg.NewUpdate((*couponModel)(nil)).
		Set("code = $1", m.Code).
		Set("name = $2", m.Name).
		Set("kind = $3", m.Kind).
		Set("amount_cents = $4", m.AmountCents).
		Set("amount_currency = $5", m.AmountCurrency).
		Set("percentage = $6", m.Percentage).
		Set("max_discount_cents = $7", m.MaxDiscountCents).
		Set("max_discount_currency = $8", m.MaxDiscountCurrency).
		Set("min_order_cents = $9", m.MinOrderCents).
		Set("min_order_currency = $10", m.MinOrderCurrency).
		Set("scope = $11", m.Scope).
		Set("product_ids = $12", m.ProductIDs).
		Set("starts_at = $13", m.StartsAt).
		Set("expires_at = $14", m.ExpiresAt).
		Set("max_uses = $15", m.MaxUses).
		Set("max_uses_per_user = $16", m.MaxUsesPerUser).
		Set("active = $17", m.Active).
		Set("metadata = $18", m.Metadata).
		Set("updated_at = $19", now()).
		Where("id = $20", m.ID).
		Exec(ctx)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return checkout.ErrCouponNotFound
	}
	return nil
}

func (s *Store) DeleteCoupon(ctx context.Context, couponID id.CouponID) error {
	_, err := s.pg.NewDelete((*couponModel)(nil)).
		Where("id = $1", couponID.String()).
		Exec(ctx)
	return err
}

// CommitCouponUsage increments both usage counters iff both caps still
// have headroom. Both cap checks live in the WHERE clause of a single
// UPDATE, so concurrent commits cannot push a counter past its cap.
func (s *Store) CommitCouponUsage(ctx context.Context, couponID id.CouponID, userID string) error {
	var timesUsed int
	err := s.pg.NewRaw(`
		UPDATE checkout_coupons
		SET times_used = times_used + 1,
		    used_by = jsonb_set(
		        COALESCE(used_by, '{}'::jsonb),
		        ARRAY[$2],
		        to_jsonb(COALESCE((used_by->>$2)::int, 0) + 1)
		    ),
		    updated_at = $3
		WHERE id = $1
		  AND (max_uses <= 0 OR times_used < max_uses)
		  AND (max_uses_per_user <= 0 OR COALESCE((used_by->>$2)::int, 0) < max_uses_per_user)
		RETURNING times_used
	`, couponID.String(), userID, now()).Scan(ctx, &timesUsed)
	if err != nil {
		if isNoRows(err) {
			// Either the coupon is gone or a cap was hit; disambiguate.
			if _, getErr := s.GetCouponByID(ctx, couponID); getErr != nil {
				return getErr
			}
			return checkout.ErrCouponExhausted
		}
		return err
	}
	return nil
}

// RevertCouponUsage releases one committed usage, flooring both counters
// at zero. Each decrement carries its own guard so a duplicate revert is a
// no-op instead of an underflow.
func (s *Store) RevertCouponUsage(ctx context.Context, couponID id.CouponID, userID string) error {
	t := now()

	var timesUsed int
	err := s.pg.NewRaw(`
		UPDATE checkout_coupons
		SET times_used = times_used - 1, updated_at = $2
		WHERE id = $1 AND times_used > 0
		RETURNING times_used
	`, couponID.String(), t).Scan(ctx, &timesUsed)
	if err != nil {
		if isNoRows(err) {
			if _, getErr := s.GetCouponByID(ctx, couponID); getErr != nil {
				return getErr
			}
			return nil
		}
		return err
	}

	var userUses int
	err = s.pg.NewRaw(`
		UPDATE checkout_coupons
		SET used_by = jsonb_set(used_by, ARRAY[$2], to_jsonb((used_by->>$2)::int - 1)),
		    updated_at = $3
		WHERE id = $1 AND COALESCE((used_by->>$2)::int, 0) > 0
		RETURNING COALESCE((used_by->>$2)::int, 0)
	`, couponID.String(), userID, t).Scan(ctx, &userUses)
	if err != nil && !isNoRows(err) {
		return err
	}
	return nil
}

// ==================== Product Store ====================

func (s *Store) CreateProduct(ctx context.Context, p *product.Product) error {
	m := toProductModel(p)
	_, err := s.pg.NewInsert(m).Exec(ctx)
	if err != nil {
		if isUniqueViolation(err) {
			return checkout.ErrAlreadyExists
		}
		return err
	}
	return nil
}

func (s *Store) GetProduct(ctx context.Context, productID id.ProductID) (*product.Product, error) {
	m := new(productModel)
	err := s.pg.NewSelect(m).
		Where("id = $1", productID.String()).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, checkout.ErrProductNotFound
		}
		return nil, err
	}
	return fromProductModel(m)
}

func (s *Store) ListProducts(ctx context.Context, appID string, opts product.ListOpts) ([]*product.Product, error) {
	var models []productModel
	q := s.pg.NewSelect(&models).Where("app_id = $1", appID)

	if opts.Active {
		q = q.Where("active = $2", true)
	}
	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}
	if opts.Offset > 0 {
		q = q.Offset(opts.Offset)
	}
	q = q.OrderExpr("created_at DESC")

	if err := q.Scan(ctx); err != nil {
		return nil, err
	}

	result := make([]*product.Product, len(models))
	for i := range models {
		p, err := fromProductModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = p
	}
	return result, nil
}

// UpdateProduct replaces the product definition. Quantity is left out of
// the SET list; stock only moves through DecrementStock and RestockProduct.
func (s *Store) UpdateProduct(ctx context.Context, p *product.Product) error {
	m := toProductModel(p)

	res, err := s.pg.NewUpdate((*productModel)(nil)).
		Set("name = $1", m.Name).
		Set("sku = $2", m.SKU).
		Set("price_cents = $3", m.PriceCents).
		Set("price_currency = $4", m.PriceCurrency).
		Set("active = $5", m.Active).
		Set("metadata = $6", m.Metadata).
		Set("updated_at = $7", now()).
		Where("id = $8", m.ID).
		Exec(ctx)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return checkout.ErrProductNotFound
	}
	return nil
}

func (s *Store) DeleteProduct(ctx context.Context, productID id.ProductID) error {
	_, err := s.pg.NewDelete((*productModel)(nil)).
		Where("id = $1", productID.String()).
		Exec(ctx)
	return err
}

// DecrementStock reserves qty units iff that many are on hand. The stock
// check lives in the WHERE clause of the UPDATE.
func (s *Store) DecrementStock(ctx context.Context, productID id.ProductID, qty int64) error {
	if qty <= 0 {
		return checkout.ErrInvalidQuantity
	}

	res, err := s.pg.NewUpdate((*productModel)(nil)).
		Set("quantity = quantity - $1", qty).
		Set("updated_at = $2", now()).
		Where("id = $3", productID.String()).
		Where("quantity >= $4", qty).
		Exec(ctx)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		if _, getErr := s.GetProduct(ctx, productID); getErr != nil {
			return getErr
		}
		return checkout.ErrInsufficientStock
	}
	return nil
}

func (s *Store) RestockProduct(ctx context.Context, productID id.ProductID, qty int64) error {
	if qty <= 0 {
		return checkout.ErrInvalidQuantity
	}

	res, err := s.pg.NewUpdate((*productModel)(nil)).
		Set("quantity = quantity + $1", qty).
		Set("updated_at = $2", now()).
		Where("id = $3", productID.String()).
		Exec(ctx)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return checkout.ErrProductNotFound
	}
	return nil
}

// ==================== Order Store ====================

func (s *Store) CreateOrder(ctx context.Context, o *order.Order) error {
	m := toOrderModel(o)
	_, err := s.pg.NewInsert(m).Exec(ctx)
	if err != nil {
		if isUniqueViolation(err) {
			return checkout.ErrAlreadyExists
		}
		return err
	}
	return nil
}

func (s *Store) GetOrder(ctx context.Context, orderID id.OrderID) (*order.Order, error) {
	m := new(orderModel)
	err := s.pg.NewSelect(m).
		Where("id = $1", orderID.String()).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, checkout.ErrOrderNotFound
		}
		return nil, err
	}
	return fromOrderModel(m)
}

func (s *Store) GetOrderByCode(ctx context.Context, code, appID string) (*order.Order, error) {
	m := new(orderModel)
	err := s.pg.NewSelect(m).
		Where("code = $1", code).
		Where("app_id = $2", appID).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, checkout.ErrOrderNotFound
		}
		return nil, err
	}
	return fromOrderModel(m)
}

func (s *Store) ListOrders(ctx context.Context, userID, appID string, opts order.ListOpts) ([]*order.Order, error) {
	var models []orderModel
	q := s.pg.NewSelect(&models).
		Where("user_id = $1", userID).
		Where("app_id = $2", appID)

	if opts.Status != "" {
		q = q.Where("status = $3", string(opts.Status))
	}
	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}
	if opts.Offset > 0 {
		q = q.Offset(opts.Offset)
	}
	q = q.OrderExpr("created_at DESC")

	if err := q.Scan(ctx); err != nil {
		return nil, err
	}

	result := make([]*order.Order, len(models))
	for i := range models {
		o, err := fromOrderModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = o
	}
	return result, nil
}

// SetOrderStatus finalizes a pending order. The status guard lives in the
// WHERE clause: an already-finalized order matches no rows and stays
// untouched.
func (s *Store) SetOrderStatus(ctx context.Context, orderID id.OrderID, next order.Status) error {
	if !order.StatusPending.CanTransitionTo(next) {
		return checkout.ErrInvalidInput
	}

	res, err := s.pg.NewUpdate((*orderModel)(nil)).
		Set("status = $1", string(next)).
		Set("updated_at = $2", now()).
		Where("id = $3", orderID.String()).
		Where("status = $4", string(order.StatusPending)).
		Exec(ctx)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		if _, getErr := s.GetOrder(ctx, orderID); getErr != nil {
			return getErr
		}
		return checkout.ErrOrderFinalized
	}
	return nil
}

func (s *Store) SetOrderPayment(ctx context.Context, orderID id.OrderID, paymentID id.PaymentID) error {
	res, err := s.pg.NewUpdate((*orderModel)(nil)).
		Set("payment_id = $1", paymentID.String()).
		Set("updated_at = $2", now()).
		Where("id = $3", orderID.String()).
		Exec(ctx)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return checkout.ErrOrderNotFound
	}
	return nil
}

// ==================== Payment Store ====================

func (s *Store) CreatePayment(ctx context.Context, p *payment.Payment) error {
	m := toPaymentModel(p)
	_, err := s.pg.NewInsert(m).Exec(ctx)
	if err != nil {
		if isUniqueViolation(err) {
			return checkout.ErrAlreadyExists
		}
		return err
	}
	return nil
}

func (s *Store) GetPayment(ctx context.Context, paymentID id.PaymentID) (*payment.Payment, error) {
	m := new(paymentModel)
	err := s.pg.NewSelect(m).
		Where("id = $1", paymentID.String()).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, checkout.ErrPaymentNotFound
		}
		return nil, err
	}
	return fromPaymentModel(m)
}

func (s *Store) GetPaymentByOrder(ctx context.Context, orderID id.OrderID) (*payment.Payment, error) {
	m := new(paymentModel)
	err := s.pg.NewSelect(m).
		Where("order_id = $1", orderID.String()).
		OrderExpr("created_at DESC").
		Limit(1).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, checkout.ErrPaymentNotFound
		}
		return nil, err
	}
	return fromPaymentModel(m)
}

func (s *Store) GetPaymentByProviderRef(ctx context.Context, ref, appID string) (*payment.Payment, error) {
	m := new(paymentModel)
	err := s.pg.NewSelect(m).
		Where("provider_ref = $1", ref).
		Where("app_id = $2", appID).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, checkout.ErrPaymentNotFound
		}
		return nil, err
	}
	return fromPaymentModel(m)
}

// SetPaymentStatus moves a non-final payment to next. Final payments match
// no rows, so duplicate gateway callbacks cannot flip a settled record.
func (s *Store) SetPaymentStatus(ctx context.Context, paymentID id.PaymentID, next payment.Status, completedAt *time.Time) error {
	res, err := s.pg.NewUpdate((*paymentModel)(nil)).
		Set("status = $1", string(next)).
		Set("completed_at = $2", completedAt).
		Set("updated_at = $3", now()).
		Where("id = $4", paymentID.String()).
		Where("status IN ($5, $6)", string(payment.StatusPending), string(payment.StatusProcessing)).
		Exec(ctx)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		if _, getErr := s.GetPayment(ctx, paymentID); getErr != nil {
			return getErr
		}
		return checkout.ErrOrderFinalized
	}
	return nil
}

func (s *Store) ListExpiredPayments(ctx context.Context, asOf time.Time, limit int) ([]*payment.Payment, error) {
	var models []paymentModel
	q := s.pg.NewSelect(&models).
		Where("status = $1", string(payment.StatusPending)).
		Where("expires_at IS NOT NULL AND expires_at < $2", asOf).
		OrderExpr("expires_at ASC")

	if limit > 0 {
		q = q.Limit(limit)
	}

	if err := q.Scan(ctx); err != nil {
		return nil, err
	}

	result := make([]*payment.Payment, len(models))
	for i := range models {
		p, err := fromPaymentModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = p
	}
	return result, nil
}

// ==================== Helpers ====================

// now returns the current UTC time.
func now() time.Time {
	return time.Now().UTC()
}

// isNoRows checks for the standard sql.ErrNoRows sentinel.
func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

// isUniqueViolation matches a unique-constraint failure without binding to
// a specific driver error type. 23505 is the SQLSTATE code postgres
// drivers surface for it.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "23505") || strings.Contains(msg, "duplicate key")
}
