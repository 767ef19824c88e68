// Package checkout provides a composable checkout orchestration engine for Go
// storefronts.
//
// Checkout is designed as a library, not a service. Import it directly into
// your Go application and drive it from your own transport layer. It provides:
//
//   - Coupon evaluation with ordered eligibility checks and typed reject
//     reasons
//   - Race-safe usage and inventory ledgers built on conditional writes
//   - Pure discount calculation (percent and flat, scoped to the whole
//     order, shipping, or specific products)
//   - Payment dispatch by method tag (COD, wallet redirect, bank transfer)
//     behind injectable provider interfaces
//   - An all-or-nothing checkout pipeline with compensation on failure
//
// # Quick Start
//
// Create an engine with your preferred store:
//
//	import (
//	    "github.com/xraph/checkout"
//	    "github.com/xraph/checkout/store/postgres"
//	)
//
//	// Initialize store
//	store, err := postgres.New(databaseURL)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Create engine
//	eng := checkout.New(store)
//
//	// Start the engine (runs migrations, begins background workers)
//	if err := eng.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer eng.Stop(ctx)
//
// # Core Concepts
//
// Products carry a price and on-hand stock:
//
//	p := &product.Product{
//	    Name:     "Mechanical Keyboard",
//	    Price:    checkout.VND(500000),
//	    Quantity: 25,
//	    Active:   true,
//	}
//
// Coupons are discount definitions with usage caps:
//
//	c := &coupon.Coupon{
//	    Code:       "SAVE10",
//	    Kind:       coupon.KindPercentOff,
//	    Percentage: 10,
//	    Scope:      coupon.ScopeWholeOrder,
//	    MaxUses:    1000,
//	    Active:     true,
//	}
//
// Checkout runs the whole pipeline in one call:
//
//	res, err := eng.Checkout(ctx, checkout.Request{
//	    UserID:        "user-42",
//	    Items:         []checkout.ItemRequest{{ProductID: p.ID, Quantity: 2}},
//	    Shipping:      checkout.VND(30000),
//	    PaymentMethod: payment.MethodCOD,
//	    CouponCodes:   []string{"SAVE10"},
//	})
//
// # Consistency
//
// Usage counters and stock levels only move through single conditional
// writes on the store: commit-usage succeeds iff both the global and the
// per-user cap still have headroom, and stock decrements succeed iff enough
// units are on hand. Concurrent checkouts can therefore never oversell a
// product or overspend a coupon, regardless of backend.
//
// Stock is reserved and coupon usage is committed before the order is
// persisted; every failure before the order exists releases the holds. A
// payment-provider failure after the order exists leaves it pending and
// recoverable.
//
// All monetary calculations use integer arithmetic to avoid floating-point
// precision issues. The Money type represents amounts in the smallest
// currency unit (cents for USD, dong for VND, etc).
//
// # TypeID
//
// All entities use TypeID for globally unique, type-safe identifiers:
//
//	ord_01h2xcejqtf2nbrexx3vqjhp41   // Order ID
//	cpn_01h2xcejqtf2nbrexx3vqjhp41   // Coupon ID
//	pay_01h455vb4pex5vsknk084sn02q   // Payment ID
//
// TypeIDs are K-sortable, making them ideal for database indexes and
// providing natural time-ordering of entities.
package checkout
