package audithook

// Action constants for audit events.
const (
	// Coupon actions
	ActionCouponCreated  = "coupon.created"
	ActionCouponRedeemed = "coupon.redeemed"
	ActionCouponReverted = "coupon.reverted"

	// Order actions
	ActionOrderCreated  = "order.created"
	ActionOrderPaid     = "order.paid"
	ActionOrderFailed   = "order.failed"
	ActionOrderCanceled = "order.canceled"

	// Payment actions
	ActionPaymentInitiated = "payment.initiated"
	ActionPaymentFailed    = "payment.failed"

	// Checkout pipeline actions
	ActionCheckoutCompleted = "checkout.completed"
	ActionCheckoutRejected  = "checkout.rejected"
	ActionStockDepleted     = "stock.depleted"
)

// Resource constants for audit events.
const (
	ResourceCoupon  = "coupon"
	ResourceProduct = "product"
	ResourceOrder   = "order"
	ResourcePayment = "payment"
)

// Category constants for audit events.
const (
	CategoryCommerce  = "commerce"
	CategoryPayment   = "payment"
	CategoryInventory = "inventory"
	CategoryPromotion = "promotion"
)

// Severity levels for audit events.
const (
	SeverityInfo     = "info"
	SeverityWarning  = "warning"
	SeverityError    = "error"
	SeverityCritical = "critical"
)

// Outcome values for audit events.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomePartial = "partial"
)
