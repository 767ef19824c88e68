package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/mongodriver"

	checkout "github.com/xraph/checkout"
	"github.com/xraph/checkout/coupon"
	"github.com/xraph/checkout/id"
	"github.com/xraph/checkout/order"
	"github.com/xraph/checkout/payment"
	"github.com/xraph/checkout/product"
	checkoutstore "github.com/xraph/checkout/store"
)

// Collection name constants.
const (
	colCoupons  = "checkout_coupons"
	colProducts = "checkout_products"
	colOrders   = "checkout_orders"
	colPayments = "checkout_payments"
)

// compile-time interface check
var _ checkoutstore.Store = (*Store)(nil)

// Store implements store.Store using MongoDB via Grove ORM.
//
// All counter moves (coupon usage, stock) are single filtered updates so
// the condition and the increment are evaluated atomically by the server.
type Store struct {
	db  *grove.DB
	mdb *mongodriver.MongoDB
}

// New creates a new MongoDB store backed by Grove ORM.
func New(db *grove.DB) *Store {
	return &Store{
		db:  db,
		mdb: mongodriver.Unwrap(db),
	}
}

// DB returns the underlying grove database for direct access.
func (s *Store) DB() *grove.DB { return s.db }

// Migrate creates indexes for all checkout collections.
func (s *Store) Migrate(ctx context.Context) error {
	indexes := migrationIndexes()

	for col, models := range indexes {
		if len(models) == 0 {
			continue
		}
		_, err := s.mdb.Collection(col).Indexes().CreateMany(ctx, models)
		if err != nil {
			return fmt.Errorf("checkout/mongo: migrate %s indexes: %w", col, err)
		}
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
	_, err := s.mdb.NewInsert(m).Exec(ctx)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return checkout.ErrCouponCodeTaken
		}
		return fmt.Errorf("checkout/mongo: create coupon: %w", err)
	}
	return nil
}

func (s *Store) GetCoupon(ctx context.Context, code, appID string) (*coupon.Coupon, error) {
	var m couponModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"code": code, "app_id": appID}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, checkout.ErrCouponNotFound
		}
		return nil, fmt.Errorf("checkout/mongo: get coupon: %w", err)
	}
	return fromCouponModel(&m)
}

func (s *Store) GetCouponByID(ctx context.Context, couponID id.CouponID) (*coupon.Coupon, error) {
	var m couponModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": couponID.String()}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, checkout.ErrCouponNotFound
		}
		return nil, fmt.Errorf("checkout/mongo: get coupon by id: %w", err)
	}
	return fromCouponModel(&m)
}

func (s *Store) ListCoupons(ctx context.Context, appID string, opts coupon.ListOpts) ([]*coupon.Coupon, error) {
	var models []couponModel

	filter := bson.M{"app_id": appID}
	if opts.Active {
		filter["active"] = true
	}

	q := s.mdb.NewFind(&models).
		Filter(filter).
		Sort(bson.D{{Key: "created_at", Value: -1}})

	if opts.Limit > 0 {
		q = q.Limit(int64(opts.Limit))
	}
	if opts.Offset > 0 {
		q = q.Skip(int64(opts.Offset))
	}

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("checkout/mongo: list coupons: %w", err)
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
// (times_used, used_by) are deliberately left out of the update; they only
// move through CommitCouponUsage and RevertCouponUsage.
func (s *Store) UpdateCoupon(ctx context.Context, c *coupon.Coupon) error {
	m := toCouponModel(c)
	t := now()

	res, err := s.mdb.NewUpdate((*couponModel)(nil)).
		Filter(bson.M{"_id": m.ID}).
		SetUpdate(bson.M{"$set": bson.M{
			"code":                  m.Code,
			"name":                  m.Name,
			"kind":                  m.Kind,
			"amount_cents":          m.AmountCents,
			"amount_currency":       m.AmountCurrency,
			"percentage":            m.Percentage,
			"max_discount_cents":    m.MaxDiscountCents,
			"max_discount_currency": m.MaxDiscountCurrency,
			"min_order_cents":       m.MinOrderCents,
			"min_order_currency":    m.MinOrderCurrency,
			"scope":                 m.Scope,
			"product_ids":           m.ProductIDs,
			"starts_at":             m.StartsAt,
			"expires_at":            m.ExpiresAt,
			"max_uses":              m.MaxUses,
			"max_uses_per_user":     m.MaxUsesPerUser,
			"active":                m.Active,
			"metadata":              m.Metadata,
			"updated_at":            t,
		}}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("checkout/mongo: update coupon: %w", err)
	}
	if res.MatchedCount() == 0 {
		return checkout.ErrCouponNotFound
	}
	return nil
}

func (s *Store) DeleteCoupon(ctx context.Context, couponID id.CouponID) error {
	_, err := s.mdb.NewDelete((*couponModel)(nil)).
		Filter(bson.M{"_id": couponID.String()}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("checkout/mongo: delete coupon: %w", err)
	}
	return nil
}

// CommitCouponUsage increments both usage counters iff both caps still
// have headroom. The cap checks live in the update filter, so the server
// evaluates condition and increment as one operation.
func (s *Store) CommitCouponUsage(ctx context.Context, couponID id.CouponID, userID string) error {
	userField := "used_by." + userID

	filter := bson.M{
		"_id": couponID.String(),
		"$expr": bson.M{"$and": bson.A{
			bson.M{"$or": bson.A{
				bson.M{"$lte": bson.A{"$max_uses", 0}},
				bson.M{"$lt": bson.A{"$times_used", "$max_uses"}},
			}},
			bson.M{"$or": bson.A{
				bson.M{"$lte": bson.A{"$max_uses_per_user", 0}},
				bson.M{"$lt": bson.A{
					bson.M{"$ifNull": bson.A{"$" + userField, 0}},
					"$max_uses_per_user",
				}},
			}},
		}},
	}

	res, err := s.mdb.NewUpdate((*couponModel)(nil)).
		Filter(filter).
		SetUpdate(bson.M{
			"$inc": bson.M{"times_used": 1, userField: 1},
			"$set": bson.M{"updated_at": now()},
		}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("checkout/mongo: commit coupon usage: %w", err)
	}
	if res.MatchedCount() == 0 {
		// Either the coupon is gone or a cap was hit; disambiguate.
		if _, getErr := s.GetCouponByID(ctx, couponID); getErr != nil {
			return getErr
		}
		return checkout.ErrCouponExhausted
	}
	return nil
}

// RevertCouponUsage releases one committed usage, flooring both counters
// at zero. Each decrement carries its own guard so a duplicate revert is a
// no-op instead of an underflow.
func (s *Store) RevertCouponUsage(ctx context.Context, couponID id.CouponID, userID string) error {
	userField := "used_by." + userID
	t := now()

	res, err := s.mdb.NewUpdate((*couponModel)(nil)).
		Filter(bson.M{"_id": couponID.String(), "times_used": bson.M{"$gt": 0}}).
		SetUpdate(bson.M{
			"$inc": bson.M{"times_used": -1},
			"$set": bson.M{"updated_at": t},
		}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("checkout/mongo: revert coupon usage: %w", err)
	}
	if res.MatchedCount() == 0 {
		if _, getErr := s.GetCouponByID(ctx, couponID); getErr != nil {
			return getErr
		}
		return nil
	}

	_, err = s.mdb.NewUpdate((*couponModel)(nil)).
		Filter(bson.M{"_id": couponID.String(), userField: bson.M{"$gt": 0}}).
		SetUpdate(bson.M{
			"$inc": bson.M{userField: -1},
			"$set": bson.M{"updated_at": t},
		}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("checkout/mongo: revert coupon user usage: %w", err)
	}
	return nil
}

// ==================== Product Store ====================

func (s *Store) CreateProduct(ctx context.Context, p *product.Product) error {
	m := toProductModel(p)
	_, err := s.mdb.NewInsert(m).Exec(ctx)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return checkout.ErrAlreadyExists
		}
		return fmt.Errorf("checkout/mongo: create product: %w", err)
	}
	return nil
}

func (s *Store) GetProduct(ctx context.Context, productID id.ProductID) (*product.Product, error) {
	var m productModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": productID.String()}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, checkout.ErrProductNotFound
		}
		return nil, fmt.Errorf("checkout/mongo: get product: %w", err)
	}
	return fromProductModel(&m)
}

func (s *Store) ListProducts(ctx context.Context, appID string, opts product.ListOpts) ([]*product.Product, error) {
	var models []productModel

	filter := bson.M{"app_id": appID}
	if opts.Active {
		filter["active"] = true
	}

	q := s.mdb.NewFind(&models).
		Filter(filter).
		Sort(bson.D{{Key: "created_at", Value: -1}})

	if opts.Limit > 0 {
		q = q.Limit(int64(opts.Limit))
	}
	if opts.Offset > 0 {
		q = q.Skip(int64(opts.Offset))
	}

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("checkout/mongo: list products: %w", err)
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

// UpdateProduct replaces the product definition. Quantity is left out;
// stock only moves through DecrementStock and RestockProduct.
func (s *Store) UpdateProduct(ctx context.Context, p *product.Product) error {
	m := toProductModel(p)

	res, err := s.mdb.NewUpdate((*productModel)(nil)).
		Filter(bson.M{"_id": m.ID}).
		SetUpdate(bson.M{"$set": bson.M{
			"name":           m.Name,
			"sku":            m.SKU,
			"price_cents":    m.PriceCents,
			"price_currency": m.PriceCurrency,
			"active":         m.Active,
			"metadata":       m.Metadata,
			"updated_at":     now(),
		}}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("checkout/mongo: update product: %w", err)
	}
	if res.MatchedCount() == 0 {
		return checkout.ErrProductNotFound
	}
	return nil
}

func (s *Store) DeleteProduct(ctx context.Context, productID id.ProductID) error {
	_, err := s.mdb.NewDelete((*productModel)(nil)).
		Filter(bson.M{"_id": productID.String()}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("checkout/mongo: delete product: %w", err)
	}
	return nil
}

// DecrementStock reserves qty units iff that many are on hand. The stock
// check lives in the update filter.
func (s *Store) DecrementStock(ctx context.Context, productID id.ProductID, qty int64) error {
	if qty <= 0 {
		return checkout.ErrInvalidQuantity
	}

	res, err := s.mdb.NewUpdate((*productModel)(nil)).
		Filter(bson.M{
			"_id":      productID.String(),
			"quantity": bson.M{"$gte": qty},
		}).
		SetUpdate(bson.M{
			"$inc": bson.M{"quantity": -qty},
			"$set": bson.M{"updated_at": now()},
		}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("checkout/mongo: decrement stock: %w", err)
	}
	if res.MatchedCount() == 0 {
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

	res, err := s.mdb.NewUpdate((*productModel)(nil)).
		Filter(bson.M{"_id": productID.String()}).
		SetUpdate(bson.M{
			"$inc": bson.M{"quantity": qty},
			"$set": bson.M{"updated_at": now()},
		}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("checkout/mongo: restock product: %w", err)
	}
	if res.MatchedCount() == 0 {
		return checkout.ErrProductNotFound
	}
	return nil
}

// ==================== Order Store ====================

func (s *Store) CreateOrder(ctx context.Context, o *order.Order) error {
	m := toOrderModel(o)
	_, err := s.mdb.NewInsert(m).Exec(ctx)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return checkout.ErrAlreadyExists
		}
		return fmt.Errorf("checkout/mongo: create order: %w", err)
	}
	return nil
}

func (s *Store) GetOrder(ctx context.Context, orderID id.OrderID) (*order.Order, error) {
	var m orderModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": orderID.String()}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, checkout.ErrOrderNotFound
		}
		return nil, fmt.Errorf("checkout/mongo: get order: %w", err)
	}
	return fromOrderModel(&m)
}

func (s *Store) GetOrderByCode(ctx context.Context, code, appID string) (*order.Order, error) {
	var m orderModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"code": code, "app_id": appID}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, checkout.ErrOrderNotFound
		}
		return nil, fmt.Errorf("checkout/mongo: get order by code: %w", err)
	}
	return fromOrderModel(&m)
}

func (s *Store) ListOrders(ctx context.Context, userID, appID string, opts order.ListOpts) ([]*order.Order, error) {
	var models []orderModel

	filter := bson.M{"user_id": userID, "app_id": appID}
	if opts.Status != "" {
		filter["status"] = string(opts.Status)
	}

	q := s.mdb.NewFind(&models).
		Filter(filter).
		Sort(bson.D{{Key: "created_at", Value: -1}})

	if opts.Limit > 0 {
		q = q.Limit(int64(opts.Limit))
	}
	if opts.Offset > 0 {
		q = q.Skip(int64(opts.Offset))
	}

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("checkout/mongo: list orders: %w", err)
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
// filter: an already-finalized order matches nothing and stays untouched.
func (s *Store) SetOrderStatus(ctx context.Context, orderID id.OrderID, next order.Status) error {
	if !order.StatusPending.CanTransitionTo(next) {
		return checkout.ErrInvalidInput
	}

	res, err := s.mdb.NewUpdate((*orderModel)(nil)).
		Filter(bson.M{
			"_id":    orderID.String(),
			"status": string(order.StatusPending),
		}).
		SetUpdate(bson.M{"$set": bson.M{
			"status":     string(next),
			"updated_at": now(),
		}}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("checkout/mongo: set order status: %w", err)
	}
	if res.MatchedCount() == 0 {
		if _, getErr := s.GetOrder(ctx, orderID); getErr != nil {
			return getErr
		}
		return checkout.ErrOrderFinalized
	}
	return nil
}

func (s *Store) SetOrderPayment(ctx context.Context, orderID id.OrderID, paymentID id.PaymentID) error {
	res, err := s.mdb.NewUpdate((*orderModel)(nil)).
		Filter(bson.M{"_id": orderID.String()}).
		SetUpdate(bson.M{"$set": bson.M{
			"payment_id": paymentID.String(),
			"updated_at": now(),
		}}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("checkout/mongo: set order payment: %w", err)
	}
	if res.MatchedCount() == 0 {
		return checkout.ErrOrderNotFound
	}
	return nil
}

// ==================== Payment Store ====================

func (s *Store) CreatePayment(ctx context.Context, p *payment.Payment) error {
	m := toPaymentModel(p)
	_, err := s.mdb.NewInsert(m).Exec(ctx)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return checkout.ErrAlreadyExists
		}
		return fmt.Errorf("checkout/mongo: create payment: %w", err)
	}
	return nil
}

func (s *Store) GetPayment(ctx context.Context, paymentID id.PaymentID) (*payment.Payment, error) {
	var m paymentModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": paymentID.String()}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, checkout.ErrPaymentNotFound
		}
		return nil, fmt.Errorf("checkout/mongo: get payment: %w", err)
	}
	return fromPaymentModel(&m)
}

func (s *Store) GetPaymentByOrder(ctx context.Context, orderID id.OrderID) (*payment.Payment, error) {
	var m paymentModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"order_id": orderID.String()}).
		Sort(bson.D{{Key: "created_at", Value: -1}}).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, checkout.ErrPaymentNotFound
		}
		return nil, fmt.Errorf("checkout/mongo: get payment by order: %w", err)
	}
	return fromPaymentModel(&m)
}

func (s *Store) GetPaymentByProviderRef(ctx context.Context, ref, appID string) (*payment.Payment, error) {
	var m paymentModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"provider_ref": ref, "app_id": appID}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, checkout.ErrPaymentNotFound
		}
		return nil, fmt.Errorf("checkout/mongo: get payment by provider ref: %w", err)
	}
	return fromPaymentModel(&m)
}

// SetPaymentStatus moves a non-final payment to next. Final payments match
// nothing, so duplicate gateway callbacks cannot flip a settled record.
func (s *Store) SetPaymentStatus(ctx context.Context, paymentID id.PaymentID, next payment.Status, completedAt *time.Time) error {
	set := bson.M{
		"status":     string(next),
		"updated_at": now(),
	}
	if completedAt != nil {
		set["completed_at"] = *completedAt
	}

	res, err := s.mdb.NewUpdate((*paymentModel)(nil)).
		Filter(bson.M{
			"_id": paymentID.String(),
			"status": bson.M{"$in": []string{
				string(payment.StatusPending),
				string(payment.StatusProcessing),
			}},
		}).
		SetUpdate(bson.M{"$set": set}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("checkout/mongo: set payment status: %w", err)
	}
	if res.MatchedCount() == 0 {
		if _, getErr := s.GetPayment(ctx, paymentID); getErr != nil {
			return getErr
		}
		return checkout.ErrOrderFinalized
	}
	return nil
}

func (s *Store) ListExpiredPayments(ctx context.Context, asOf time.Time, limit int) ([]*payment.Payment, error) {
	var models []paymentModel

	q := s.mdb.NewFind(&models).
		Filter(bson.M{
			"status":     string(payment.StatusPending),
			"expires_at": bson.M{"$lt": asOf},
		}).
		Sort(bson.D{{Key: "expires_at", Value: 1}})

	if limit > 0 {
		q = q.Limit(int64(limit))
	}

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("checkout/mongo: list expired payments: %w", err)
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

// isNoDocuments checks if an error wraps mongo.ErrNoDocuments.
func isNoDocuments(err error) bool {
	return errors.Is(err, mongo.ErrNoDocuments)
}

// migrationIndexes returns the index definitions for all checkout collections.
func migrationIndexes() map[string][]mongo.IndexModel {
	return map[string][]mongo.IndexModel{
		colCoupons: {
			{
				Keys:    bson.D{{Key: "code", Value: 1}, {Key: "app_id", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
			{Keys: bson.D{{Key: "app_id", Value: 1}, {Key: "active", Value: 1}}},
			{Keys: bson.D{{Key: "app_id", Value: 1}, {Key: "created_at", Value: -1}}},
		},
		colProducts: {
			{Keys: bson.D{{Key: "app_id", Value: 1}, {Key: "active", Value: 1}}},
			{Keys: bson.D{{Key: "app_id", Value: 1}, {Key: "sku", Value: 1}}},
			{Keys: bson.D{{Key: "app_id", Value: 1}, {Key: "created_at", Value: -1}}},
		},
		colOrders: {
			{
				Keys:    bson.D{{Key: "code", Value: 1}, {Key: "app_id", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
			{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "app_id", Value: 1}, {Key: "created_at", Value: -1}}},
			{Keys: bson.D{{Key: "app_id", Value: 1}, {Key: "status", Value: 1}}},
		},
		colPayments: {
			{Keys: bson.D{{Key: "order_id", Value: 1}, {Key: "created_at", Value: -1}}},
			{
				Keys:    bson.D{{Key: "provider_ref", Value: 1}, {Key: "app_id", Value: 1}},
				Options: options.Index().SetUnique(true).SetSparse(true),
			},
			{Keys: bson.D{{Key: "status", Value: 1}, {Key: "expires_at", Value: 1}}},
		},
	}
}
