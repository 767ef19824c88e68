package coupon

import (
	"testing"

	"github.com/xraph/checkout/id"
	"github.com/xraph/checkout/types"
)

func vndBasket(subtotal, shipping int64, lines map[string]int64) Basket {
	b := Basket{
		Subtotal: types.VND(subtotal),
		Shipping: types.VND(shipping),
	}
	if lines != nil {
		b.Lines = make(map[string]types.Money, len(lines))
		for k, v := range lines {
			b.Lines[k] = types.VND(v)
		}
	}
	return b
}

func TestDiscountPercentOff(t *testing.T) {
	tests := []struct {
		name   string
		coupon Coupon
		basket Basket
		want   int64
	}{
		{
			name:   "ten percent of whole order",
			coupon: Coupon{Kind: KindPercentOff, Percentage: 10, Scope: ScopeWholeOrder},
			basket: vndBasket(500000, 30000, nil),
			want:   50000,
		},
		{
			name:   "floor division",
			coupon: Coupon{Kind: KindPercentOff, Percentage: 3, Scope: ScopeWholeOrder},
			basket: vndBasket(99999, 0, nil),
			want:   2999,
		},
		{
			name: "capped by max discount",
			coupon: Coupon{
				Kind: KindPercentOff, Percentage: 50, Scope: ScopeWholeOrder,
				MaxDiscount: types.VND(20000),
			},
			basket: vndBasket(500000, 0, nil),
			want:   20000,
		},
		{
			name:   "hundred percent",
			coupon: Coupon{Kind: KindPercentOff, Percentage: 100, Scope: ScopeWholeOrder},
			basket: vndBasket(120000, 0, nil),
			want:   120000,
		},
		{
			name:   "over hundred percent clamps to base",
			coupon: Coupon{Kind: KindPercentOff, Percentage: 150, Scope: ScopeWholeOrder},
			basket: vndBasket(120000, 0, nil),
			want:   120000,
		},
		{
			name:   "zero percent yields zero",
			coupon: Coupon{Kind: KindPercentOff, Percentage: 0, Scope: ScopeWholeOrder},
			basket: vndBasket(120000, 0, nil),
			want:   0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Discount(&tt.coupon, tt.basket)
			if got.Amount != tt.want {
				t.Errorf("Discount = %d, want %d", got.Amount, tt.want)
			}
			if got.Currency != "vnd" {
				t.Errorf("Currency = %q, want vnd", got.Currency)
			}
		})
	}
}

func TestDiscountAmountOff(t *testing.T) {
	tests := []struct {
		name   string
		coupon Coupon
		basket Basket
		want   int64
	}{
		{
			name:   "flat amount under base",
			coupon: Coupon{Kind: KindAmountOff, Amount: types.VND(25000), Scope: ScopeWholeOrder},
			basket: vndBasket(500000, 0, nil),
			want:   25000,
		},
		{
			name:   "flat amount clamped to base",
			coupon: Coupon{Kind: KindAmountOff, Amount: types.VND(80000), Scope: ScopeWholeOrder},
			basket: vndBasket(50000, 0, nil),
			want:   50000,
		},
		{
			name:   "flat amount against shipping only",
			coupon: Coupon{Kind: KindAmountOff, Amount: types.VND(100000), Scope: ScopeFreeShipping},
			basket: vndBasket(500000, 30000, nil),
			want:   30000,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Discount(&tt.coupon, tt.basket)
			if got.Amount != tt.want {
				t.Errorf("Discount = %d, want %d", got.Amount, tt.want)
			}
		})
	}
}

func TestDiscountFreeShipping(t *testing.T) {
	c := Coupon{Kind: KindPercentOff, Percentage: 100, Scope: ScopeFreeShipping}

	got := Discount(&c, vndBasket(500000, 30000, nil))
	if got.Amount != 30000 {
		t.Errorf("Discount = %d, want 30000", got.Amount)
	}

	// Free shipping against zero shipping discounts nothing.
	got = Discount(&c, vndBasket(500000, 0, nil))
	if !got.IsZero() {
		t.Errorf("Discount = %d, want 0", got.Amount)
	}
}

func TestDiscountProductScope(t *testing.T) {
	p1 := id.NewProductID()
	p2 := id.NewProductID()
	p3 := id.NewProductID()

	lines := map[string]int64{
		p1.String(): 200000,
		p2.String(): 300000,
	}

	t.Run("sums matching lines only", func(t *testing.T) {
		c := Coupon{
			Kind: KindPercentOff, Percentage: 10,
			Scope:      ScopeProducts,
			ProductIDs: []id.ProductID{p1, p3},
		}
		got := Discount(&c, vndBasket(500000, 0, lines))
		if got.Amount != 20000 {
			t.Errorf("Discount = %d, want 20000", got.Amount)
		}
	})

	t.Run("no matching lines yields zero", func(t *testing.T) {
		c := Coupon{
			Kind: KindPercentOff, Percentage: 10,
			Scope:      ScopeProducts,
			ProductIDs: []id.ProductID{p3},
		}
		got := Discount(&c, vndBasket(500000, 0, lines))
		if !got.IsZero() {
			t.Errorf("Discount = %d, want 0", got.Amount)
		}
	})

	t.Run("amount off clamped to matching subtotal", func(t *testing.T) {
		c := Coupon{
			Kind: KindAmountOff, Amount: types.VND(999999),
			Scope:      ScopeProducts,
			ProductIDs: []id.ProductID{p1},
		}
		got := Discount(&c, vndBasket(500000, 0, lines))
		if got.Amount != 200000 {
			t.Errorf("Discount = %d, want 200000", got.Amount)
		}
	})
}

func TestDiscountNeverNegative(t *testing.T) {
	c := Coupon{Kind: KindAmountOff, Amount: types.VND(-5000), Scope: ScopeWholeOrder}
	got := Discount(&c, vndBasket(100000, 0, nil))
	if got.IsNegative() {
		t.Errorf("Discount = %d, want non-negative", got.Amount)
	}
}

func BenchmarkDiscount(b *testing.B) {
	c := Coupon{Kind: KindPercentOff, Percentage: 10, Scope: ScopeWholeOrder, MaxDiscount: types.VND(100000)}
	basket := vndBasket(500000, 30000, nil)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = Discount(&c, basket)
	}
}
