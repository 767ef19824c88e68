package postgres

import (
	"encoding/json"
	"time"

	"github.com/xraph/grove"

	"github.com/xraph/checkout/coupon"
	"github.com/xraph/checkout/id"
	"github.com/xraph/checkout/order"
	"github.com/xraph/checkout/payment"
	"github.com/xraph/checkout/product"
	"github.com/xraph/checkout/types"
)

// ==================== Coupon models ====================

type couponModel struct {
	grove.BaseModel `grove:"table:checkout_coupons"`

	ID                  string            `grove:"id,pk"`
	Code                string            `grove:"code"`
	Name                string            `grove:"name"`
	Kind                string            `grove:"kind"`
	AmountCents         int64             `grove:"amount_cents"`
	AmountCurrency      string            `grove:"amount_currency"`
	Percentage          int               `grove:"percentage"`
	MaxDiscountCents    int64             `grove:"max_discount_cents"`
	MaxDiscountCurrency string            `grove:"max_discount_currency"`
	MinOrderCents       int64             `grove:"min_order_cents"`
	MinOrderCurrency    string            `grove:"min_order_currency"`
	Scope               string            `grove:"scope"`
	ProductIDs          json.RawMessage   `grove:"product_ids,type:jsonb"`
	StartsAt            *time.Time        `grove:"starts_at"`
	ExpiresAt           *time.Time        `grove:"expires_at"`
	MaxUses             int               `grove:"max_uses"`
	MaxUsesPerUser      int               `grove:"max_uses_per_user"`
	TimesUsed           int               `grove:"times_used"`
	UsedBy              map[string]int    `grove:"used_by,type:jsonb"`
	Active              bool              `grove:"active"`
	AppID               string            `grove:"app_id"`
	Metadata            map[string]string `grove:"metadata,type:jsonb"`
	CreatedAt           time.Time         `grove:"created_at"`
	UpdatedAt           time.Time         `grove:"updated_at"`
}

func toCouponModel(c *coupon.Coupon) *couponModel {
	productIDs := make([]string, len(c.ProductIDs))
	for i, pid := range c.ProductIDs {
		productIDs[i] = pid.String()
	}
	rawIDs, _ := json.Marshal(productIDs) //nolint:errcheck // best-effort

	return &couponModel{
		ID:                  c.ID.String(),
		Code:                c.Code,
		Name:                c.Name,
		Kind:                string(c.Kind),
		AmountCents:         c.Amount.Amount,
		AmountCurrency:      c.Amount.Currency,
		Percentage:          c.Percentage,
		MaxDiscountCents:    c.MaxDiscount.Amount,
		MaxDiscountCurrency: c.MaxDiscount.Currency,
		MinOrderCents:       c.MinOrderValue.Amount,
		MinOrderCurrency:    c.MinOrderValue.Currency,
		Scope:               string(c.Scope),
		ProductIDs:          rawIDs,
		StartsAt:            c.StartsAt,
		ExpiresAt:           c.ExpiresAt,
		MaxUses:             c.MaxUses,
		MaxUsesPerUser:      c.MaxUsesPerUser,
		TimesUsed:           c.TimesUsed,
		UsedBy:              c.UsedBy,
		Active:              c.Active,
		AppID:               c.AppID,
		Metadata:            c.Metadata,
		CreatedAt:           c.CreatedAt,
		UpdatedAt:           c.UpdatedAt,
	}
}

func fromCouponModel(m *couponModel) (*coupon.Coupon, error) {
	couponID, err := id.ParseCouponID(m.ID)
	if err != nil {
		return nil, err
	}

	var rawIDs []string
	if len(m.ProductIDs) > 0 {
		_ = json.Unmarshal(m.ProductIDs, &rawIDs) //nolint:errcheck // best-effort
	}
	var productIDs []id.ProductID
	for _, pid := range rawIDs {
		parsed, pErr := id.ParseProductID(pid)
		if pErr != nil {
			return nil, pErr
		}
		productIDs = append(productIDs, parsed)
	}

	return &coupon.Coupon{
		Entity: types.Entity{
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		ID:             couponID,
		Code:           m.Code,
		Name:           m.Name,
		Kind:           coupon.Kind(m.Kind),
		Amount:         types.Money{Amount: m.AmountCents, Currency: m.AmountCurrency},
		Percentage:     m.Percentage,
		MaxDiscount:    types.Money{Amount: m.MaxDiscountCents, Currency: m.MaxDiscountCurrency},
		MinOrderValue:  types.Money{Amount: m.MinOrderCents, Currency: m.MinOrderCurrency},
		Scope:          coupon.Scope(m.Scope),
		ProductIDs:     productIDs,
		StartsAt:       m.StartsAt,
		ExpiresAt:      m.ExpiresAt,
		MaxUses:        m.MaxUses,
		MaxUsesPerUser: m.MaxUsesPerUser,
		TimesUsed:      m.TimesUsed,
		UsedBy:         m.UsedBy,
		Active:         m.Active,
		AppID:          m.AppID,
		Metadata:       m.Metadata,
	}, nil
}

// ==================== Product models ====================

type productModel struct {
	grove.BaseModel `grove:"table:checkout_products"`

	ID            string            `grove:"id,pk"`
	Name          string            `grove:"name"`
	SKU           string            `grove:"sku"`
	PriceCents    int64             `grove:"price_cents"`
	PriceCurrency string            `grove:"price_currency"`
	Quantity      int64             `grove:"quantity"`
	Active        bool              `grove:"active"`
	AppID         string            `grove:"app_id"`
	Metadata      map[string]string `grove:"metadata,type:jsonb"`
	CreatedAt     time.Time         `grove:"created_at"`
	UpdatedAt     time.Time         `grove:"updated_at"`
}

func toProductModel(p *product.Product) *productModel {
	return &productModel{
		ID:            p.ID.String(),
		Name:          p.Name,
		SKU:           p.SKU,
		PriceCents:    p.Price.Amount,
		PriceCurrency: p.Price.Currency,
		Quantity:      p.Quantity,
		Active:        p.Active,
		AppID:         p.AppID,
		Metadata:      p.Metadata,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
}

func fromProductModel(m *productModel) (*product.Product, error) {
	productID, err := id.ParseProductID(m.ID)
	if err != nil {
		return nil, err
	}

	return &product.Product{
		Entity: types.Entity{
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		ID:       productID,
		Name:     m.Name,
		SKU:      m.SKU,
		Price:    types.Money{Amount: m.PriceCents, Currency: m.PriceCurrency},
		Quantity: m.Quantity,
		Active:   m.Active,
		AppID:    m.AppID,
		Metadata: m.Metadata,
	}, nil
}

// ==================== Order models ====================

type orderModel struct {
	grove.BaseModel `grove:"table:checkout_orders"`

	ID               string            `grove:"id,pk"`
	Code             string            `grove:"code"`
	UserID           string            `grove:"user_id"`
	Items            json.RawMessage   `grove:"items,type:jsonb"`
	SubtotalCents    int64             `grove:"subtotal_cents"`
	SubtotalCurrency string            `grove:"subtotal_currency"`
	ShippingCents    int64             `grove:"shipping_cents"`
	ShippingCurrency string            `grove:"shipping_currency"`
	DiscountCents    int64             `grove:"discount_cents"`
	DiscountCurrency string            `grove:"discount_currency"`
	TotalCents       int64             `grove:"total_cents"`
	TotalCurrency    string            `grove:"total_currency"`
	CouponCodes      json.RawMessage   `grove:"coupon_codes,type:jsonb"`
	PaymentMethod    string            `grove:"payment_method"`
	PaymentID        string            `grove:"payment_id"`
	Status           string            `grove:"status"`
	AppID            string            `grove:"app_id"`
	Metadata         map[string]string `grove:"metadata,type:jsonb"`
	CreatedAt        time.Time         `grove:"created_at"`
	UpdatedAt        time.Time         `grove:"updated_at"`
}

func toOrderModel(o *order.Order) *orderModel {
	items, _ := json.Marshal(o.Items) //nolint:errcheck // best-effort
	codes, _ := json.Marshal(o.CouponCodes)

	var paymentID string
	if !o.PaymentID.IsNil() {
		paymentID = o.PaymentID.String()
	}

	return &orderModel{
		ID:               o.ID.String(),
		Code:             o.Code,
		UserID:           o.UserID,
		Items:            items,
		SubtotalCents:    o.Subtotal.Amount,
		SubtotalCurrency: o.Subtotal.Currency,
		ShippingCents:    o.Shipping.Amount,
		ShippingCurrency: o.Shipping.Currency,
		DiscountCents:    o.Discount.Amount,
		DiscountCurrency: o.Discount.Currency,
		TotalCents:       o.Total.Amount,
		TotalCurrency:    o.Total.Currency,
		CouponCodes:      codes,
		PaymentMethod:    o.PaymentMethod,
		PaymentID:        paymentID,
		Status:           string(o.Status),
		AppID:            o.AppID,
		Metadata:         o.Metadata,
		CreatedAt:        o.CreatedAt,
		UpdatedAt:        o.UpdatedAt,
	}
}

func fromOrderModel(m *orderModel) (*order.Order, error) {
	orderID, err := id.ParseOrderID(m.ID)
	if err != nil {
		return nil, err
	}

	var items []order.LineItem
	if len(m.Items) > 0 {
		_ = json.Unmarshal(m.Items, &items) //nolint:errcheck // best-effort
	}
	var codes []string
	if len(m.CouponCodes) > 0 {
		_ = json.Unmarshal(m.CouponCodes, &codes) //nolint:errcheck // best-effort
	}

	var paymentID id.PaymentID
	if m.PaymentID != "" {
		paymentID, err = id.ParsePaymentID(m.PaymentID)
		if err != nil {
			return nil, err
		}
	}

	return &order.Order{
		Entity: types.Entity{
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		ID:            orderID,
		Code:          m.Code,
		UserID:        m.UserID,
		Items:         items,
		Subtotal:      types.Money{Amount: m.SubtotalCents, Currency: m.SubtotalCurrency},
		Shipping:      types.Money{Amount: m.ShippingCents, Currency: m.ShippingCurrency},
		Discount:      types.Money{Amount: m.DiscountCents, Currency: m.DiscountCurrency},
		Total:         types.Money{Amount: m.TotalCents, Currency: m.TotalCurrency},
		CouponCodes:   codes,
		PaymentMethod: m.PaymentMethod,
		PaymentID:     paymentID,
		Status:        order.Status(m.Status),
		AppID:         m.AppID,
		Metadata:      m.Metadata,
	}, nil
}

// ==================== Payment models ====================

type paymentModel struct {
	grove.BaseModel `grove:"table:checkout_payments"`

	ID             string          `grove:"id,pk"`
	OrderID        string          `grove:"order_id"`
	Method         string          `grove:"method"`
	AmountCents    int64           `grove:"amount_cents"`
	AmountCurrency string          `grove:"amount_currency"`
	Status         string          `grove:"status"`
	ProviderRef    string          `grove:"provider_ref"`
	PayURL         string          `grove:"pay_url"`
	Message        string          `grove:"message"`
	Accounts       json.RawMessage `grove:"accounts,type:jsonb"`
	ExpiresAt      *time.Time      `grove:"expires_at"`
	CompletedAt    *time.Time      `grove:"completed_at"`
	AppID          string          `grove:"app_id"`
	CreatedAt      time.Time       `grove:"created_at"`
	UpdatedAt      time.Time       `grove:"updated_at"`
}

func toPaymentModel(p *payment.Payment) *paymentModel {
	accounts, _ := json.Marshal(p.Accounts) //nolint:errcheck // best-effort

	return &paymentModel{
		ID:             p.ID.String(),
		OrderID:        p.OrderID.String(),
		Method:         string(p.Method),
		AmountCents:    p.Amount.Amount,
		AmountCurrency: p.Amount.Currency,
		Status:         string(p.Status),
		ProviderRef:    p.ProviderRef,
		PayURL:         p.PayURL,
		Message:        p.Message,
		Accounts:       accounts,
		ExpiresAt:      p.ExpiresAt,
		CompletedAt:    p.CompletedAt,
		AppID:          p.AppID,
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
	}
}

func fromPaymentModel(m *paymentModel) (*payment.Payment, error) {
	paymentID, err := id.ParsePaymentID(m.ID)
	if err != nil {
		return nil, err
	}
	orderID, err := id.ParseOrderID(m.OrderID)
	if err != nil {
		return nil, err
	}

	var accounts []payment.BankAccount
	if len(m.Accounts) > 0 {
		_ = json.Unmarshal(m.Accounts, &accounts) //nolint:errcheck // best-effort
	}

	return &payment.Payment{
		Entity: types.Entity{
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		ID:          paymentID,
		OrderID:     orderID,
		Method:      payment.Method(m.Method),
		Amount:      types.Money{Amount: m.AmountCents, Currency: m.AmountCurrency},
		Status:      payment.Status(m.Status),
		ProviderRef: m.ProviderRef,
		PayURL:      m.PayURL,
		Message:     m.Message,
		Accounts:    accounts,
		ExpiresAt:   m.ExpiresAt,
		CompletedAt: m.CompletedAt,
		AppID:       m.AppID,
	}, nil
}
