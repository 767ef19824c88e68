package payment

import (
	"context"
	"time"

	"github.com/xraph/checkout/id"
	"github.com/xraph/checkout/types"
)

// WalletRequest is what a wallet gateway needs to open a payment session.
type WalletRequest struct {
	OrderID   id.OrderID
	OrderCode string
	Amount    types.Money
	ReturnURL string
	CancelURL string
}

// WalletIntent is the gateway's answer: where to send the customer and
// how to correlate the eventual callback.
type WalletIntent struct {
	PayURL      string
	ProviderRef string
}

// WalletProvider creates redirect-style payment sessions (MoMo, ZaloPay
// and the like). Implementations live outside this module and are
// injected at engine construction.
type WalletProvider interface {
	CreatePaymentRequest(ctx context.Context, req WalletRequest) (*WalletIntent, error)
}

// BankRequest is what a bank-transfer gateway needs to issue a payment
// link with virtual accounts.
type BankRequest struct {
	OrderID     id.OrderID
	OrderCode   string
	Amount      types.Money
	Description string
	ReturnURL   string
	CancelURL   string
}

// BankIntent carries the transfer instructions the gateway issued.
type BankIntent struct {
	PayURL      string
	ProviderRef string
	Accounts    []BankAccount
	ExpiresAt   time.Time
}

// BankTransferProvider creates bank-transfer payment links. Gateways that
// sign their requests can use Checksum from this package.
type BankTransferProvider interface {
	CreatePaymentLink(ctx context.Context, req BankRequest) (*BankIntent, error)
}
