package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/xraph/checkout"
	"github.com/xraph/checkout/coupon"
	"github.com/xraph/checkout/id"
	"github.com/xraph/checkout/order"
	"github.com/xraph/checkout/payment"
	"github.com/xraph/checkout/product"
	"github.com/xraph/checkout/types"
)

func newCoupon(code string) *coupon.Coupon {
	return &coupon.Coupon{
		Entity: types.NewEntity(),
		ID:     id.NewCouponID(),
		Code:   code,
		Kind:   coupon.KindPercentOff,
		Scope:  coupon.ScopeWholeOrder,
		Active: true,
		AppID:  "app1",
	}
}

func newProduct(name string, qty int64) *product.Product {
	return &product.Product{
		Entity:   types.NewEntity(),
		ID:       id.NewProductID(),
		Name:     name,
		Price:    types.VND(100000),
		Quantity: qty,
		Active:   true,
		AppID:    "app1",
	}
}

func TestCouponCRUD(t *testing.T) {
	ctx := context.Background()
	s := New()

	c := newCoupon("SAVE10")
	if err := s.CreateCoupon(ctx, c); err != nil {
		t.Fatalf("CreateCoupon() error = %v", err)
	}
	if err := s.CreateCoupon(ctx, c); !errors.Is(err, checkout.ErrAlreadyExists) {
		t.Errorf("duplicate CreateCoupon() error = %v, want ErrAlreadyExists", err)
	}

	dup := newCoupon("SAVE10")
	if err := s.CreateCoupon(ctx, dup); !errors.Is(err, checkout.ErrCouponCodeTaken) {
		t.Errorf("same code CreateCoupon() error = %v, want ErrCouponCodeTaken", err)
	}

	got, err := s.GetCoupon(ctx, "SAVE10", "app1")
	if err != nil {
		t.Fatalf("GetCoupon() error = %v", err)
	}
	if got.ID.String() != c.ID.String() {
		t.Errorf("GetCoupon() ID = %v, want %v", got.ID, c.ID)
	}

	if _, err := s.GetCoupon(ctx, "SAVE10", "other-app"); !errors.Is(err, checkout.ErrCouponNotFound) {
		t.Errorf("GetCoupon() wrong app error = %v, want ErrCouponNotFound", err)
	}

	if _, err := s.GetCouponByID(ctx, c.ID); err != nil {
		t.Errorf("GetCouponByID() error = %v", err)
	}

	if err := s.DeleteCoupon(ctx, c.ID); err != nil {
		t.Errorf("DeleteCoupon() error = %v", err)
	}
	if _, err := s.GetCouponByID(ctx, c.ID); !errors.Is(err, checkout.ErrCouponNotFound) {
		t.Errorf("GetCouponByID() after delete error = %v, want ErrCouponNotFound", err)
	}
}

func TestUpdateCouponPreservesCounters(t *testing.T) {
	ctx := context.Background()
	s := New()

	c := newCoupon("SAVE10")
	c.MaxUses = 10
	if err := s.CreateCoupon(ctx, c); err != nil {
		t.Fatalf("CreateCoupon() error = %v", err)
	}
	if err := s.CommitCouponUsage(ctx, c.ID, "user1"); err != nil {
		t.Fatalf("CommitCouponUsage() error = %v", err)
	}

	upd := newCoupon("SAVE10")
	upd.ID = c.ID
	upd.Name = "Renamed"
	upd.TimesUsed = 99
	upd.UsedBy = map[string]int{"user9": 9}
	if err := s.UpdateCoupon(ctx, upd); err != nil {
		t.Fatalf("UpdateCoupon() error = %v", err)
	}

	got, _ := s.GetCouponByID(ctx, c.ID)
	if got.Name != "Renamed" {
		t.Errorf("Name = %q, want Renamed", got.Name)
	}
	if got.TimesUsed != 1 {
		t.Errorf("TimesUsed = %d, want 1 (counters are not updatable)", got.TimesUsed)
	}
	if got.UsedBy["user1"] != 1 {
		t.Errorf("UsedBy[user1] = %d, want 1", got.UsedBy["user1"])
	}
}

func TestListCoupons(t *testing.T) {
	ctx := context.Background()
	s := New()

	for i, code := range []string{"A", "B", "C", "D"} {
		c := newCoupon(code)
		c.Active = i%2 == 0
		if err := s.CreateCoupon(ctx, c); err != nil {
			t.Fatalf("CreateCoupon(%s) error = %v", code, err)
		}
	}

	all, err := s.ListCoupons(ctx, "app1", coupon.ListOpts{})
	if err != nil {
		t.Fatalf("ListCoupons() error = %v", err)
	}
	if len(all) != 4 {
		t.Errorf("ListCoupons() len = %d, want 4", len(all))
	}

	active, _ := s.ListCoupons(ctx, "app1", coupon.ListOpts{Active: true})
	if len(active) != 2 {
		t.Errorf("ListCoupons(Active) len = %d, want 2", len(active))
	}

	page, _ := s.ListCoupons(ctx, "app1", coupon.ListOpts{Limit: 2, Offset: 3})
	if len(page) != 1 {
		t.Errorf("ListCoupons(Limit=2, Offset=3) len = %d, want 1", len(page))
	}

	none, _ := s.ListCoupons(ctx, "other-app", coupon.ListOpts{})
	if len(none) != 0 {
		t.Errorf("ListCoupons(other-app) len = %d, want 0", len(none))
	}
}

func TestCommitCouponUsage(t *testing.T) {
	ctx := context.Background()
	s := New()

	c := newCoupon("LIMITED")
	c.MaxUses = 2
	c.MaxUsesPerUser = 1
	if err := s.CreateCoupon(ctx, c); err != nil {
		t.Fatalf("CreateCoupon() error = %v", err)
	}

	if err := s.CommitCouponUsage(ctx, c.ID, "user1"); err != nil {
		t.Fatalf("first commit error = %v", err)
	}
	if err := s.CommitCouponUsage(ctx, c.ID, "user1"); !errors.Is(err, checkout.ErrCouponExhausted) {
		t.Errorf("per-user repeat commit error = %v, want ErrCouponExhausted", err)
	}
	if err := s.CommitCouponUsage(ctx, c.ID, "user2"); err != nil {
		t.Fatalf("second user commit error = %v", err)
	}
	if err := s.CommitCouponUsage(ctx, c.ID, "user3"); !errors.Is(err, checkout.ErrCouponExhausted) {
		t.Errorf("global cap commit error = %v, want ErrCouponExhausted", err)
	}

	got, _ := s.GetCouponByID(ctx, c.ID)
	if got.TimesUsed != 2 {
		t.Errorf("TimesUsed = %d, want 2", got.TimesUsed)
	}
}

func TestRevertCouponUsage(t *testing.T) {
	ctx := context.Background()
	s := New()

	c := newCoupon("LIMITED")
	c.MaxUses = 1
	if err := s.CreateCoupon(ctx, c); err != nil {
		t.Fatalf("CreateCoupon() error = %v", err)
	}
	if err := s.CommitCouponUsage(ctx, c.ID, "user1"); err != nil {
		t.Fatalf("commit error = %v", err)
	}
	if err := s.RevertCouponUsage(ctx, c.ID, "user1"); err != nil {
		t.Fatalf("revert error = %v", err)
	}

	got, _ := s.GetCouponByID(ctx, c.ID)
	if got.TimesUsed != 0 {
		t.Errorf("TimesUsed after revert = %d, want 0", got.TimesUsed)
	}
	if got.UsedByUser("user1") != 0 {
		t.Errorf("UsedByUser after revert = %d, want 0", got.UsedByUser("user1"))
	}

	// The slot is free again.
	if err := s.CommitCouponUsage(ctx, c.ID, "user2"); err != nil {
		t.Errorf("commit after revert error = %v", err)
	}

	// Revert never goes negative.
	if err := s.RevertCouponUsage(ctx, c.ID, "never-used"); err != nil {
		t.Errorf("revert for unused user error = %v", err)
	}
	got, _ = s.GetCouponByID(ctx, c.ID)
	if got.TimesUsed != 0 {
		t.Errorf("TimesUsed floored at = %d, want 0", got.TimesUsed)
	}
}

func TestConcurrentCommitsRespectCap(t *testing.T) {
	ctx := context.Background()
	s := New()

	const maxUses = 7
	const workers = 50

	c := newCoupon("RACE")
	c.MaxUses = maxUses
	if err := s.CreateCoupon(ctx, c); err != nil {
		t.Fatalf("CreateCoupon() error = %v", err)
	}

	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded := 0

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			if err := s.CommitCouponUsage(ctx, c.ID, "user"+string(rune('a'+n%26))); err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()

	if succeeded != maxUses {
		t.Errorf("succeeded = %d, want exactly %d", succeeded, maxUses)
	}
	got, _ := s.GetCouponByID(ctx, c.ID)
	if got.TimesUsed != maxUses {
		t.Errorf("TimesUsed = %d, want %d", got.TimesUsed, maxUses)
	}
}

func TestDecrementStock(t *testing.T) {
	ctx := context.Background()
	s := New()

	p := newProduct("Keyboard", 5)
	if err := s.CreateProduct(ctx, p); err != nil {
		t.Fatalf("CreateProduct() error = %v", err)
	}

	if err := s.DecrementStock(ctx, p.ID, 3); err != nil {
		t.Fatalf("DecrementStock(3) error = %v", err)
	}
	if err := s.DecrementStock(ctx, p.ID, 3); !errors.Is(err, checkout.ErrInsufficientStock) {
		t.Errorf("DecrementStock(3) with 2 left error = %v, want ErrInsufficientStock", err)
	}
	if err := s.DecrementStock(ctx, p.ID, 0); !errors.Is(err, checkout.ErrInvalidQuantity) {
		t.Errorf("DecrementStock(0) error = %v, want ErrInvalidQuantity", err)
	}
	if err := s.DecrementStock(ctx, p.ID, -1); !errors.Is(err, checkout.ErrInvalidQuantity) {
		t.Errorf("DecrementStock(-1) error = %v, want ErrInvalidQuantity", err)
	}

	got, _ := s.GetProduct(ctx, p.ID)
	if got.Quantity != 2 {
		t.Errorf("Quantity = %d, want 2", got.Quantity)
	}

	if err := s.RestockProduct(ctx, p.ID, 10); err != nil {
		t.Fatalf("RestockProduct() error = %v", err)
	}
	got, _ = s.GetProduct(ctx, p.ID)
	if got.Quantity != 12 {
		t.Errorf("Quantity after restock = %d, want 12", got.Quantity)
	}
}

func TestConcurrentDecrementsNeverOversell(t *testing.T) {
	ctx := context.Background()
	s := New()

	const stock = 10
	const workers = 40

	p := newProduct("Limited Run", stock)
	if err := s.CreateProduct(ctx, p); err != nil {
		t.Fatalf("CreateProduct() error = %v", err)
	}

	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded := 0

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := s.DecrementStock(ctx, p.ID, 1); err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if succeeded != stock {
		t.Errorf("succeeded = %d, want exactly %d", succeeded, stock)
	}
	got, _ := s.GetProduct(ctx, p.ID)
	if got.Quantity != 0 {
		t.Errorf("Quantity = %d, want 0", got.Quantity)
	}
}

func TestOrderStatusTransitions(t *testing.T) {
	ctx := context.Background()
	s := New()

	o := &order.Order{
		Entity: types.NewEntity(),
		ID:     id.NewOrderID(),
		Code:   order.NewCode(time.Now()),
		UserID: "user1",
		Status: order.StatusPending,
		AppID:  "app1",
	}
	if err := s.CreateOrder(ctx, o); err != nil {
		t.Fatalf("CreateOrder() error = %v", err)
	}

	if err := s.SetOrderStatus(ctx, o.ID, order.StatusPaid); err != nil {
		t.Fatalf("SetOrderStatus(paid) error = %v", err)
	}
	if err := s.SetOrderStatus(ctx, o.ID, order.StatusCancelled); !errors.Is(err, checkout.ErrOrderFinalized) {
		t.Errorf("SetOrderStatus on paid order error = %v, want ErrOrderFinalized", err)
	}

	got, _ := s.GetOrder(ctx, o.ID)
	if got.Status != order.StatusPaid {
		t.Errorf("Status = %v, want paid", got.Status)
	}

	byCode, err := s.GetOrderByCode(ctx, o.Code, "app1")
	if err != nil {
		t.Fatalf("GetOrderByCode() error = %v", err)
	}
	if byCode.ID.String() != o.ID.String() {
		t.Errorf("GetOrderByCode() ID = %v, want %v", byCode.ID, o.ID)
	}
}

func TestListOrders(t *testing.T) {
	ctx := context.Background()
	s := New()

	for i := 0; i < 3; i++ {
		o := &order.Order{
			Entity: types.NewEntity(),
			ID:     id.NewOrderID(),
			Code:   order.NewCode(time.Now()),
			UserID: "user1",
			Status: order.StatusPending,
			AppID:  "app1",
		}
		if i == 0 {
			o.Status = order.StatusPaid
		}
		if err := s.CreateOrder(ctx, o); err != nil {
			t.Fatalf("CreateOrder() error = %v", err)
		}
	}

	all, err := s.ListOrders(ctx, "user1", "app1", order.ListOpts{})
	if err != nil {
		t.Fatalf("ListOrders() error = %v", err)
	}
	if len(all) != 3 {
		t.Errorf("ListOrders() len = %d, want 3", len(all))
	}

	paid, _ := s.ListOrders(ctx, "user1", "app1", order.ListOpts{Status: order.StatusPaid})
	if len(paid) != 1 {
		t.Errorf("ListOrders(paid) len = %d, want 1", len(paid))
	}
}

func TestPaymentLifecycle(t *testing.T) {
	ctx := context.Background()
	s := New()

	orderID := id.NewOrderID()
	p := &payment.Payment{
		Entity:      types.NewEntity(),
		ID:          id.NewPaymentID(),
		OrderID:     orderID,
		Method:      payment.MethodWallet,
		Amount:      types.VND(480000),
		Status:      payment.StatusPending,
		ProviderRef: "wlt-123",
		AppID:       "app1",
	}
	if err := s.CreatePayment(ctx, p); err != nil {
		t.Fatalf("CreatePayment() error = %v", err)
	}

	byOrder, err := s.GetPaymentByOrder(ctx, orderID)
	if err != nil {
		t.Fatalf("GetPaymentByOrder() error = %v", err)
	}
	if byOrder.ID.String() != p.ID.String() {
		t.Errorf("GetPaymentByOrder() ID = %v, want %v", byOrder.ID, p.ID)
	}

	byRef, err := s.GetPaymentByProviderRef(ctx, "wlt-123", "app1")
	if err != nil {
		t.Fatalf("GetPaymentByProviderRef() error = %v", err)
	}
	if byRef.ID.String() != p.ID.String() {
		t.Errorf("GetPaymentByProviderRef() ID = %v, want %v", byRef.ID, p.ID)
	}

	now := time.Now().UTC()
	if err := s.SetPaymentStatus(ctx, p.ID, payment.StatusCompleted, &now); err != nil {
		t.Fatalf("SetPaymentStatus(completed) error = %v", err)
	}
	if err := s.SetPaymentStatus(ctx, p.ID, payment.StatusFailed, nil); err == nil {
		t.Error("SetPaymentStatus on completed payment succeeded, want error")
	}

	got, _ := s.GetPayment(ctx, p.ID)
	if got.Status != payment.StatusCompleted {
		t.Errorf("Status = %v, want completed", got.Status)
	}
	if got.CompletedAt == nil {
		t.Error("CompletedAt = nil, want set")
	}
}

func TestListExpiredPayments(t *testing.T) {
	ctx := context.Background()
	s := New()

	now := time.Now().UTC()
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	mk := func(exp *time.Time, status payment.Status) {
		p := &payment.Payment{
			Entity:    types.NewEntity(),
			ID:        id.NewPaymentID(),
			OrderID:   id.NewOrderID(),
			Method:    payment.MethodBankTransfer,
			Amount:    types.VND(100000),
			Status:    status,
			ExpiresAt: exp,
			AppID:     "app1",
		}
		if err := s.CreatePayment(ctx, p); err != nil {
			t.Fatalf("CreatePayment() error = %v", err)
		}
	}

	mk(&past, payment.StatusPending)   // expired
	mk(&past, payment.StatusCompleted) // final, ignored
	mk(&future, payment.StatusPending) // not yet expired
	mk(nil, payment.StatusPending)     // no deadline

	expired, err := s.ListExpiredPayments(ctx, now, 10)
	if err != nil {
		t.Fatalf("ListExpiredPayments() error = %v", err)
	}
	if len(expired) != 1 {
		t.Fatalf("ListExpiredPayments() len = %d, want 1", len(expired))
	}
	if expired[0].Status != payment.StatusPending {
		t.Errorf("expired payment status = %v, want pending", expired[0].Status)
	}
}
