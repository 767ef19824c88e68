package checkout_test

import (
	"context"
	"log"
	"log/slog"
	"testing"
	"time"

	"github.com/xraph/checkout"
	"github.com/xraph/checkout/coupon"
	"github.com/xraph/checkout/payment"
	"github.com/xraph/checkout/product"
	"github.com/xraph/checkout/store/memory"
	"github.com/xraph/checkout/types"
)

// TestDocumentationExamples verifies that all examples in the documentation compile
func TestDocumentationExamples(t *testing.T) {
	// Test Quick Start example from README
	t.Run("QuickStartExample", func(t *testing.T) {
		// Create store (memory for demo, use PostgreSQL in production)
		store := memory.New()

		// Initialize Checkout
		eng := checkout.New(store,
			checkout.WithLogger(slog.Default()),
			checkout.WithMaxCouponsPerOrder(3),
			checkout.WithSweepInterval(time.Minute),
		)

		// Start the engine
		ctx := context.Background()
		if err := eng.Start(ctx); err != nil {
			t.Fatal(err)
		}
		defer eng.Stop(ctx)

		// Create a product
		p := &product.Product{
			Name:     "Mechanical Keyboard",
			Price:    checkout.VND(500000),
			Quantity: 25,
			Active:   true,
		}
		if err := eng.CreateProduct(ctx, p); err != nil {
			t.Fatal(err)
		}

		// Create a coupon
		c := &coupon.Coupon{
			Code:       "SAVE10",
			Name:       "10% off everything",
			Kind:       coupon.KindPercentOff,
			Percentage: 10,
			Scope:      coupon.ScopeWholeOrder,
			MaxUses:    1000,
			Active:     true,
		}
		if err := eng.CreateCoupon(ctx, c); err != nil {
			t.Fatal(err)
		}

		// Run a checkout
		res, err := eng.Checkout(ctx, checkout.Request{
			UserID:        "user-42",
			Items:         []checkout.ItemRequest{{ProductID: p.ID, Quantity: 1}},
			Shipping:      checkout.VND(30000),
			PaymentMethod: payment.MethodCOD,
			CouponCodes:   []string{"SAVE10"},
		})
		if err != nil {
			t.Fatal(err)
		}

		log.Printf("Order %s total: %s\n", res.Order.Code, res.Order.Total.String())
		log.Printf("Next step: %s\n", res.Intent.Message)
	})

	// Test Money type examples
	t.Run("MoneyExamples", func(t *testing.T) {
		// Constructors
		_ = types.USD(4900)   // $49.00
		_ = types.VND(500000) // 500,000 dong
		_ = types.Zero("vnd") // zero dong

		// Arithmetic
		m1 := types.USD(100)
		m2 := types.USD(200)
		_ = m1.Add(m2)     // $3.00
		_ = m1.Multiply(3) // $3.00
		_ = m1.Divide(2)   // $0.50

		// Comparison
		if m1.LessThan(m2) {
			// m1 is less than m2
		}

		// Formatting
		_ = m1.String()      // "$1.00"
		_ = m1.FormatMajor() // "1.00"
	})
}
