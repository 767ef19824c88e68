// Package memory provides an in-memory Store for tests and examples.
// It is the reference implementation of the conditional-write semantics:
// every counter move happens under one lock acquisition with its guard.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/xraph/checkout"
	"github.com/xraph/checkout/coupon"
	"github.com/xraph/checkout/id"
	"github.com/xraph/checkout/order"
	"github.com/xraph/checkout/payment"
	"github.com/xraph/checkout/product"
)

type Store struct {
	mu sync.RWMutex

	coupons  map[string]*coupon.Coupon
	products map[string]*product.Product
	orders   map[string]*order.Order
	payments map[string]*payment.Payment
}

func New() *Store {
	return &Store{
		coupons:  make(map[string]*coupon.Coupon),
		products: make(map[string]*product.Product),
		orders:   make(map[string]*order.Order),
		payments: make(map[string]*payment.Payment),
	}
}

// Coupon Store implementation

func (s *Store) CreateCoupon(_ context.Context, c *coupon.Coupon) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.coupons[c.ID.String()]; exists {
		return checkout.ErrAlreadyExists
	}
	for _, existing := range s.coupons {
		if existing.Code == c.Code && existing.AppID == c.AppID {
			return checkout.ErrCouponCodeTaken
		}
	}
	s.coupons[c.ID.String()] = c
	return nil
}

func (s *Store) GetCoupon(_ context.Context, code, appID string) (*coupon.Coupon, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, c := range s.coupons {
		if c.Code == code && c.AppID == appID {
			return c, nil
		}
	}
	return nil, checkout.ErrCouponNotFound
}

func (s *Store) GetCouponByID(_ context.Context, couponID id.CouponID) (*coupon.Coupon, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if c, ok := s.coupons[couponID.String()]; ok {
		return c, nil
	}
	return nil, checkout.ErrCouponNotFound
}

func (s *Store) ListCoupons(_ context.Context, appID string, opts coupon.ListOpts) ([]*coupon.Coupon, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*coupon.Coupon, 0)
	for _, c := range s.coupons {
		if c.AppID != appID {
			continue
		}
		if opts.Active && !c.Active {
			continue
		}
		result = append(result, c)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID.String() < result[j].ID.String() })
	return paginate(result, opts.Offset, opts.Limit), nil
}

func (s *Store) UpdateCoupon(_ context.Context, c *coupon.Coupon) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.coupons[c.ID.String()]
	if !ok {
		return checkout.ErrCouponNotFound
	}
	// Usage counters belong to the commit/revert path, not Update.
	c.TimesUsed = existing.TimesUsed
	c.UsedBy = existing.UsedBy
	s.coupons[c.ID.String()] = c
	return nil
}

func (s *Store) DeleteCoupon(_ context.Context, couponID id.CouponID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.coupons, couponID.String())
	return nil
}

// CommitCouponUsage checks both caps and increments both counters under a
// single lock acquisition, mirroring the one-statement guarantee of the
// database backends.
func (s *Store) CommitCouponUsage(_ context.Context, couponID id.CouponID, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.coupons[couponID.String()]
	if !ok {
		return checkout.ErrCouponNotFound
	}
	if c.MaxUses > 0 && c.TimesUsed >= c.MaxUses {
		return checkout.ErrCouponExhausted
	}
	if c.MaxUsesPerUser > 0 && c.UsedBy[userID] >= c.MaxUsesPerUser {
		return checkout.ErrCouponExhausted
	}

	c.TimesUsed++
	if c.UsedBy == nil {
		c.UsedBy = make(map[string]int)
	}
	c.UsedBy[userID]++
	return nil
}

func (s *Store) RevertCouponUsage(_ context.Context, couponID id.CouponID, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.coupons[couponID.String()]
	if !ok {
		return checkout.ErrCouponNotFound
	}
	if c.TimesUsed > 0 {
		c.TimesUsed--
	}
	if c.UsedBy[userID] > 0 {
		c.UsedBy[userID]--
		if c.UsedBy[userID] == 0 {
			delete(c.UsedBy, userID)
		}
	}
	return nil
}

// Product Store implementation

func (s *Store) CreateProduct(_ context.Context, p *product.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.products[p.ID.String()]; exists {
		return checkout.ErrAlreadyExists
	}
	s.products[p.ID.String()] = p
	return nil
}

func (s *Store) GetProduct(_ context.Context, productID id.ProductID) (*product.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if p, ok := s.products[productID.String()]; ok {
		return p, nil
	}
	return nil, checkout.ErrProductNotFound
}

func (s *Store) ListProducts(_ context.Context, appID string, opts product.ListOpts) ([]*product.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*product.Product, 0)
	for _, p := range s.products {
		if p.AppID != appID {
			continue
		}
		if opts.Active && !p.Active {
			continue
		}
		result = append(result, p)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID.String() < result[j].ID.String() })
	return paginate(result, opts.Offset, opts.Limit), nil
}

func (s *Store) UpdateProduct(_ context.Context, p *product.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.products[p.ID.String()]
	if !ok {
		return checkout.ErrProductNotFound
	}
	// Stock belongs to the decrement/restock path, not Update.
	p.Quantity = existing.Quantity
	s.products[p.ID.String()] = p
	return nil
}

func (s *Store) DeleteProduct(_ context.Context, productID id.ProductID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.products, productID.String())
	return nil
}

func (s *Store) DecrementStock(_ context.Context, productID id.ProductID, qty int64) error {
	if qty <= 0 {
		return checkout.ErrInvalidQuantity
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.products[productID.String()]
	if !ok {
		return checkout.ErrProductNotFound
	}
	if p.Quantity < qty {
		return checkout.ErrInsufficientStock
	}
	p.Quantity -= qty
	return nil
}

func (s *Store) RestockProduct(_ context.Context, productID id.ProductID, qty int64) error {
	if qty <= 0 {
		return checkout.ErrInvalidQuantity
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.products[productID.String()]
	if !ok {
		return checkout.ErrProductNotFound
	}
	p.Quantity += qty
	return nil
}

// Order Store implementation

func (s *Store) CreateOrder(_ context.Context, o *order.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.orders[o.ID.String()]; exists {
		return checkout.ErrAlreadyExists
	}
	s.orders[o.ID.String()] = o
	return nil
}

func (s *Store) GetOrder(_ context.Context, orderID id.OrderID) (*order.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if o, ok := s.orders[orderID.String()]; ok {
		return o, nil
	}
	return nil, checkout.ErrOrderNotFound
}

func (s *Store) GetOrderByCode(_ context.Context, code, appID string) (*order.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, o := range s.orders {
		if o.Code == code && o.AppID == appID {
			return o, nil
		}
	}
	return nil, checkout.ErrOrderNotFound
}

func (s *Store) ListOrders(_ context.Context, userID, appID string, opts order.ListOpts) ([]*order.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*order.Order, 0)
	for _, o := range s.orders {
		if o.UserID != userID || o.AppID != appID {
			continue
		}
		if opts.Status != "" && o.Status != opts.Status {
			continue
		}
		result = append(result, o)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID.String() < result[j].ID.String() })
	return paginate(result, opts.Offset, opts.Limit), nil
}

// SetOrderStatus transitions a pending order; finalized orders are
// immutable, matching the conditional UPDATE in the database backends.
func (s *Store) SetOrderStatus(_ context.Context, orderID id.OrderID, next order.Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.orders[orderID.String()]
	if !ok {
		return checkout.ErrOrderNotFound
	}
	if !o.Status.CanTransitionTo(next) {
		return checkout.ErrOrderFinalized
	}
	o.Status = next
	o.Touch()
	return nil
}

func (s *Store) SetOrderPayment(_ context.Context, orderID id.OrderID, paymentID id.PaymentID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.orders[orderID.String()]
	if !ok {
		return checkout.ErrOrderNotFound
	}
	o.PaymentID = paymentID
	o.Touch()
	return nil
}

// Payment Store implementation

func (s *Store) CreatePayment(_ context.Context, p *payment.Payment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.payments[p.ID.String()]; exists {
		return checkout.ErrAlreadyExists
	}
	s.payments[p.ID.String()] = p
	return nil
}

func (s *Store) GetPayment(_ context.Context, paymentID id.PaymentID) (*payment.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if p, ok := s.payments[paymentID.String()]; ok {
		return p, nil
	}
	return nil, checkout.ErrPaymentNotFound
}

func (s *Store) GetPaymentByOrder(_ context.Context, orderID id.OrderID) (*payment.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, p := range s.payments {
		if p.OrderID.String() == orderID.String() {
			return p, nil
		}
	}
	return nil, checkout.ErrPaymentNotFound
}

func (s *Store) GetPaymentByProviderRef(_ context.Context, ref, appID string) (*payment.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, p := range s.payments {
		if p.ProviderRef == ref && p.AppID == appID {
			return p, nil
		}
	}
	return nil, checkout.ErrPaymentNotFound
}

func (s *Store) SetPaymentStatus(_ context.Context, paymentID id.PaymentID, next payment.Status, completedAt *time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.payments[paymentID.String()]
	if !ok {
		return checkout.ErrPaymentNotFound
	}
	if p.Status.IsFinal() {
		return checkout.ErrOrderFinalized
	}
	p.Status = next
	p.CompletedAt = completedAt
	p.Touch()
	return nil
}

func (s *Store) ListExpiredPayments(_ context.Context, asOf time.Time, limit int) ([]*payment.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*payment.Payment, 0)
	for _, p := range s.payments {
		if p.Status != payment.StatusPending || p.ExpiresAt == nil {
			continue
		}
		if p.ExpiresAt.Before(asOf) {
			result = append(result, p)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID.String() < result[j].ID.String() })
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

// Store management

func (s *Store) Migrate(_ context.Context) error {
	return nil // No migration needed for memory store
}

func (s *Store) Ping(_ context.Context) error {
	return nil // Always available
}

func (s *Store) Close() error {
	return nil // Nothing to close
}

func paginate[T any](items []T, offset, limit int) []T {
	start := offset
	if start > len(items) {
		start = len(items)
	}
	end := start + limit
	if limit == 0 || end > len(items) {
		end = len(items)
	}
	return items[start:end]
}
