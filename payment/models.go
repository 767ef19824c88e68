package payment

import (
	"errors"
	"time"

	"github.com/xraph/checkout/id"
	"github.com/xraph/checkout/types"
)

// Method selects how an order is paid. Dispatch switches on this tag;
// there is no provider class hierarchy.
type Method string

const (
	MethodCOD          Method = "cod"
	MethodWallet       Method = "wallet"
	MethodBankTransfer Method = "bank_transfer"
)

// Valid reports whether m is a known method.
func (m Method) Valid() bool {
	switch m {
	case MethodCOD, MethodWallet, MethodBankTransfer:
		return true
	default:
		return false
	}
}

// Status is the state of a payment record.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
	StatusCancelled  Status = "cancelled"
	StatusRefunded   Status = "refunded"
)

// IsFinal reports whether the status is terminal.
func (s Status) IsFinal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusCancelled, StatusRefunded:
		return true
	default:
		return false
	}
}

// Payment is the persisted record of one payment attempt for an order.
type Payment struct {
	types.Entity
	ID          id.PaymentID  `json:"id"`
	OrderID     id.OrderID    `json:"order_id"`
	Method      Method        `json:"method"`
	Amount      types.Money   `json:"amount"`
	Status      Status        `json:"status"`
	ProviderRef string        `json:"provider_ref,omitempty"`
	PayURL      string        `json:"pay_url,omitempty"`
	Message     string        `json:"message,omitempty"`
	Accounts    []BankAccount `json:"accounts,omitempty"`
	ExpiresAt   *time.Time    `json:"expires_at,omitempty"`
	CompletedAt *time.Time    `json:"completed_at,omitempty"`
	AppID       string        `json:"app_id"`
}

// BankAccount is a virtual account a customer can transfer into.
type BankAccount struct {
	Bank          string `json:"bank"`
	AccountNumber string `json:"account_number"`
	AccountName   string `json:"account_name"`
}

// Intent is what the storefront needs to move the customer forward after
// checkout: a confirmation message for COD, a redirect URL for wallets,
// or transfer instructions for bank payments.
type Intent struct {
	Method      Method        `json:"method"`
	Message     string        `json:"message,omitempty"`
	PayURL      string        `json:"pay_url,omitempty"`
	ProviderRef string        `json:"provider_ref,omitempty"`
	Accounts    []BankAccount `json:"accounts,omitempty"`
	ExpiresAt   *time.Time    `json:"expires_at,omitempty"`
}

// Callback is a gateway settlement notification normalized by the
// transport layer. Fields carries the raw key/value pairs the gateway
// signed; Signature is the checksum it sent.
type Callback struct {
	ProviderRef string            `json:"provider_ref"`
	OrderCode   string            `json:"order_code"`
	Success     bool              `json:"success"`
	Fields      map[string]string `json:"fields,omitempty"`
	Signature   string            `json:"signature,omitempty"`
}

// Dispatch sentinels. The engine re-exports these at the module root.
var (
	ErrUnknownMethod         = errors.New("checkout/payment: unknown payment method")
	ErrProviderNotConfigured = errors.New("checkout/payment: provider not configured")
	ErrInitiation            = errors.New("checkout/payment: provider failed to create payment request")
	ErrBadSignature          = errors.New("checkout/payment: callback signature mismatch")
)
