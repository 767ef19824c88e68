package mongo

import (
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

	ID                  string            `grove:"id,pk"               bson:"_id"`
	Code                string            `grove:"code"                bson:"code"`
	Name                string            `grove:"name"                bson:"name"`
	Kind                string            `grove:"kind"                bson:"kind"`
	AmountCents         int64             `grove:"amount_cents"        bson:"amount_cents"`
	AmountCurrency      string            `grove:"amount_currency"     bson:"amount_currency"`
	Percentage          int               `grove:"percentage"          bson:"percentage"`
	MaxDiscountCents    int64             `grove:"max_discount_cents"  bson:"max_discount_cents"`
	MaxDiscountCurrency string            `grove:"max_discount_currency" bson:"max_discount_currency"`
	MinOrderCents       int64             `grove:"min_order_cents"     bson:"min_order_cents"`
	MinOrderCurrency    string            `grove:"min_order_currency"  bson:"min_order_currency"`
	Scope               string            `grove:"scope"               bson:"scope"`
	ProductIDs          []string          `grove:"product_ids"         bson:"product_ids,omitempty"`
	StartsAt            *time.Time        `grove:"starts_at"           bson:"starts_at,omitempty"`
	ExpiresAt           *time.Time        `grove:"expires_at"          bson:"expires_at,omitempty"`
	MaxUses             int               `grove:"max_uses"            bson:"max_uses"`
	MaxUsesPerUser      int               `grove:"max_uses_per_user"   bson:"max_uses_per_user"`
	TimesUsed           int               `grove:"times_used"          bson:"times_used"`
	UsedBy              map[string]int    `grove:"used_by"             bson:"used_by,omitempty"`
	Active              bool              `grove:"active"              bson:"active"`
	AppID               string            `grove:"app_id"              bson:"app_id"`
	Metadata            map[string]string `grove:"metadata"            bson:"metadata,omitempty"`
	CreatedAt           time.Time         `grove:"created_at"          bson:"created_at"`
	UpdatedAt           time.Time         `grove:"updated_at"          bson:"updated_at"`
}

func toCouponModel(c *coupon.Coupon) *couponModel {
	productIDs := make([]string, len(c.ProductIDs))
	for i, pid := range c.ProductIDs {
		productIDs[i] = pid.String()
	}
	if len(productIDs) == 0 {
		productIDs = nil
	}

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
		ProductIDs:          productIDs,
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

	productIDs := make([]id.ProductID, len(m.ProductIDs))
	for i, pid := range m.ProductIDs {
		productIDs[i], err = id.ParseProductID(pid)
		if err != nil {
			return nil, err
		}
	}
	if len(productIDs) == 0 {
		productIDs = nil
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

	ID            string            `grove:"id,pk"          bson:"_id"`
	Name          string            `grove:"name"           bson:"name"`
	SKU           string            `grove:"sku"            bson:"sku"`
	PriceCents    int64             `grove:"price_cents"    bson:"price_cents"`
	PriceCurrency string            `grove:"price_currency" bson:"price_currency"`
	Quantity      int64             `grove:"quantity"       bson:"quantity"`
	Active        bool              `grove:"active"         bson:"active"`
	AppID         string            `grove:"app_id"         bson:"app_id"`
	Metadata      map[string]string `grove:"metadata"       bson:"metadata,omitempty"`
	CreatedAt     time.Time         `grove:"created_at"     bson:"created_at"`
	UpdatedAt     time.Time         `grove:"updated_at"     bson:"updated_at"`
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

	ID               string            `grove:"id,pk"             bson:"_id"`
	Code             string            `grove:"code"              bson:"code"`
	UserID           string            `grove:"user_id"           bson:"user_id"`
	Items            []lineItemModel   `grove:"items"             bson:"items"`
	SubtotalCents    int64             `grove:"subtotal_cents"    bson:"subtotal_cents"`
	SubtotalCurrency string            `grove:"subtotal_currency" bson:"subtotal_currency"`
	ShippingCents    int64             `grove:"shipping_cents"    bson:"shipping_cents"`
	ShippingCurrency string            `grove:"shipping_currency" bson:"shipping_currency"`
	DiscountCents    int64             `grove:"discount_cents"    bson:"discount_cents"`
	DiscountCurrency string            `grove:"discount_currency" bson:"discount_currency"`
	TotalCents       int64             `grove:"total_cents"       bson:"total_cents"`
	TotalCurrency    string            `grove:"total_currency"    bson:"total_currency"`
	CouponCodes      []string          `grove:"coupon_codes"      bson:"coupon_codes,omitempty"`
	PaymentMethod    string            `grove:"payment_method"    bson:"payment_method"`
	PaymentID        string            `grove:"payment_id"        bson:"payment_id,omitempty"`
	Status           string            `grove:"status"            bson:"status"`
	AppID            string            `grove:"app_id"            bson:"app_id"`
	Metadata         map[string]string `grove:"metadata"          bson:"metadata,omitempty"`
	CreatedAt        time.Time         `grove:"created_at"        bson:"created_at"`
	UpdatedAt        time.Time         `grove:"updated_at"        bson:"updated_at"`
}

type lineItemModel struct {
	ID                string `bson:"id"`
	ProductID         string `bson:"product_id"`
	Name              string `bson:"name"`
	UnitPriceCents    int64  `bson:"unit_price_cents"`
	UnitPriceCurrency string `bson:"unit_price_currency"`
	Quantity          int64  `bson:"quantity"`
	SubtotalCents     int64  `bson:"subtotal_cents"`
	SubtotalCurrency  string `bson:"subtotal_currency"`
}

func toOrderModel(o *order.Order) *orderModel {
	items := make([]lineItemModel, len(o.Items))
	for i, li := range o.Items {
		items[i] = lineItemModel{
			ID:                li.ID.String(),
			ProductID:         li.ProductID.String(),
			Name:              li.Name,
			UnitPriceCents:    li.UnitPrice.Amount,
			UnitPriceCurrency: li.UnitPrice.Currency,
			Quantity:          li.Quantity,
			SubtotalCents:     li.Subtotal.Amount,
			SubtotalCurrency:  li.Subtotal.Currency,
		}
	}

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
		CouponCodes:      o.CouponCodes,
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

	items := make([]order.LineItem, len(m.Items))
	for i, li := range m.Items {
		liID, liErr := id.ParseLineItemID(li.ID)
		if liErr != nil {
			return nil, liErr
		}
		pID, pErr := id.ParseProductID(li.ProductID)
		if pErr != nil {
			return nil, pErr
		}
		items[i] = order.LineItem{
			ID:        liID,
			ProductID: pID,
			Name:      li.Name,
			UnitPrice: types.Money{Amount: li.UnitPriceCents, Currency: li.UnitPriceCurrency},
			Quantity:  li.Quantity,
			Subtotal:  types.Money{Amount: li.SubtotalCents, Currency: li.SubtotalCurrency},
		}
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
		CouponCodes:   m.CouponCodes,
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

	ID             string             `grove:"id,pk"           bson:"_id"`
	OrderID        string             `grove:"order_id"        bson:"order_id"`
	Method         string             `grove:"method"          bson:"method"`
	AmountCents    int64              `grove:"amount_cents"    bson:"amount_cents"`
	AmountCurrency string             `grove:"amount_currency" bson:"amount_currency"`
	Status         string             `grove:"status"          bson:"status"`
	ProviderRef    string             `grove:"provider_ref"    bson:"provider_ref,omitempty"`
	PayURL         string             `grove:"pay_url"         bson:"pay_url,omitempty"`
	Message        string             `grove:"message"         bson:"message,omitempty"`
	Accounts       []bankAccountModel `grove:"accounts"        bson:"accounts,omitempty"`
	ExpiresAt      *time.Time         `grove:"expires_at"      bson:"expires_at,omitempty"`
	CompletedAt    *time.Time         `grove:"completed_at"    bson:"completed_at,omitempty"`
	AppID          string             `grove:"app_id"          bson:"app_id"`
	CreatedAt      time.Time          `grove:"created_at"      bson:"created_at"`
	UpdatedAt      time.Time          `grove:"updated_at"      bson:"updated_at"`
}

type bankAccountModel struct {
	Bank          string `bson:"bank"`
	AccountNumber string `bson:"account_number"`
	AccountName   string `bson:"account_name"`
}

func toPaymentModel(p *payment.Payment) *paymentModel {
	accounts := make([]bankAccountModel, len(p.Accounts))
	for i, a := range p.Accounts {
		accounts[i] = bankAccountModel{
			Bank:          a.Bank,
			AccountNumber: a.AccountNumber,
			AccountName:   a.AccountName,
		}
	}
	if len(accounts) == 0 {
		accounts = nil
	}

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

	accounts := make([]payment.BankAccount, len(m.Accounts))
	for i, a := range m.Accounts {
		accounts[i] = payment.BankAccount{
			Bank:          a.Bank,
			AccountNumber: a.AccountNumber,
			AccountName:   a.AccountName,
		}
	}
	if len(accounts) == 0 {
		accounts = nil
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
