package payment

import (
	"context"
	"fmt"

	"github.com/xraph/checkout/id"
	"github.com/xraph/checkout/types"
)

// CODMessage is the confirmation shown for cash-on-delivery orders.
const CODMessage = "Order placed. Please prepare the exact amount for the courier."

// Dispatcher routes a checkout to the right payment flow by method tag.
// COD needs no provider; wallet and bank transfer delegate to the
// injected gateway interfaces.
type Dispatcher struct {
	Wallet WalletProvider
	Bank   BankTransferProvider
}

// Request is the method-independent input to CreateIntent.
type Request struct {
	OrderID   id.OrderID
	OrderCode string
	Method    Method
	Amount    types.Money
	ReturnURL string
	CancelURL string
}

// CreateIntent produces the customer-facing next step for a payment.
// Provider failures are wrapped in ErrInitiation so callers can
// distinguish "gateway down" from "bad request".
func (d *Dispatcher) CreateIntent(ctx context.Context, req Request) (*Intent, error) {
	switch req.Method {
	case MethodCOD:
		return &Intent{Method: MethodCOD, Message: CODMessage}, nil

	case MethodWallet:
		if d.Wallet == nil {
			return nil, fmt.Errorf("%w: wallet", ErrProviderNotConfigured)
		}
		wi, err := d.Wallet.CreatePaymentRequest(ctx, WalletRequest{
			OrderID:   req.OrderID,
			OrderCode: req.OrderCode,
			Amount:    req.Amount,
			ReturnURL: req.ReturnURL,
			CancelURL: req.CancelURL,
		})
		if err != nil {
			return nil, fmt.Errorf("%w: wallet: %v", ErrInitiation, err)
		}
		return &Intent{
			Method:      MethodWallet,
			PayURL:      wi.PayURL,
			ProviderRef: wi.ProviderRef,
		}, nil

	case MethodBankTransfer:
		if d.Bank == nil {
			return nil, fmt.Errorf("%w: bank transfer", ErrProviderNotConfigured)
		}
		bi, err := d.Bank.CreatePaymentLink(ctx, BankRequest{
			OrderID:     req.OrderID,
			OrderCode:   req.OrderCode,
			Amount:      req.Amount,
			Description: "Payment for order " + req.OrderCode,
			ReturnURL:   req.ReturnURL,
			CancelURL:   req.CancelURL,
		})
		if err != nil {
			return nil, fmt.Errorf("%w: bank transfer: %v", ErrInitiation, err)
		}
		intent := &Intent{
			Method:      MethodBankTransfer,
			PayURL:      bi.PayURL,
			ProviderRef: bi.ProviderRef,
			Accounts:    bi.Accounts,
		}
		if !bi.ExpiresAt.IsZero() {
			expires := bi.ExpiresAt
			intent.ExpiresAt = &expires
		}
		return intent, nil

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMethod, req.Method)
	}
}
