package store

import (
	"context"
	"time"

	"github.com/xraph/checkout/coupon"
	"github.com/xraph/checkout/id"
	"github.com/xraph/checkout/order"
	"github.com/xraph/checkout/payment"
	"github.com/xraph/checkout/product"
)

// Store is the unified storage interface for all Checkout entities.
// Instead of embedding the sub-interfaces, we explicitly declare all methods
// to avoid naming conflicts.
//
// The commit/decrement/status methods are conditional writes: each must be
// a single atomic statement on the backend so that concurrent checkouts
// cannot oversell stock, overspend a coupon, or double-finalize an order.
type Store interface {
	// Coupon methods
	CreateCoupon(ctx context.Context, c *coupon.Coupon) error
	GetCoupon(ctx context.Context, code string, appID string) (*coupon.Coupon, error)
	GetCouponByID(ctx context.Context, couponID id.CouponID) (*coupon.Coupon, error)
	ListCoupons(ctx context.Context, appID string, opts coupon.ListOpts) ([]*coupon.Coupon, error)
	UpdateCoupon(ctx context.Context, c *coupon.Coupon) error
	DeleteCoupon(ctx context.Context, couponID id.CouponID) error
	CommitCouponUsage(ctx context.Context, couponID id.CouponID, userID string) error
	RevertCouponUsage(ctx context.Context, couponID id.CouponID, userID string) error

	// Product methods
	CreateProduct(ctx context.Context, p *product.Product) error
	GetProduct(ctx context.Context, productID id.ProductID) (*product.Product, error)
	ListProducts(ctx context.Context, appID string, opts product.ListOpts) ([]*product.Product, error)
	UpdateProduct(ctx context.Context, p *product.Product) error
	DeleteProduct(ctx context.Context, productID id.ProductID) error
	DecrementStock(ctx context.Context, productID id.ProductID, qty int64) error
	RestockProduct(ctx context.Context, productID id.ProductID, qty int64) error

	// Order methods
	CreateOrder(ctx context.Context, o *order.Order) error
	GetOrder(ctx context.Context, orderID id.OrderID) (*order.Order, error)
	GetOrderByCode(ctx context.Context, code string, appID string) (*order.Order, error)
	ListOrders(ctx context.Context, userID string, appID string, opts order.ListOpts) ([]*order.Order, error)
	SetOrderStatus(ctx context.Context, orderID id.OrderID, next order.Status) error
	SetOrderPayment(ctx context.Context, orderID id.OrderID, paymentID id.PaymentID) error

	// Payment methods
	CreatePayment(ctx context.Context, p *payment.Payment) error
	GetPayment(ctx context.Context, paymentID id.PaymentID) (*payment.Payment, error)
	GetPaymentByOrder(ctx context.Context, orderID id.OrderID) (*payment.Payment, error)
	GetPaymentByProviderRef(ctx context.Context, ref string, appID string) (*payment.Payment, error)
	SetPaymentStatus(ctx context.Context, paymentID id.PaymentID, next payment.Status, completedAt *time.Time) error
	ListExpiredPayments(ctx context.Context, asOf time.Time, limit int) ([]*payment.Payment, error)

	// Core methods
	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}
