package payment

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/xraph/checkout/id"
	"github.com/xraph/checkout/types"
)

type fakeWallet struct {
	intent *WalletIntent
	err    error
	got    WalletRequest
}

func (f *fakeWallet) CreatePaymentRequest(_ context.Context, req WalletRequest) (*WalletIntent, error) {
	f.got = req
	if f.err != nil {
		return nil, f.err
	}
	return f.intent, nil
}

type fakeBank struct {
	intent *BankIntent
	err    error
	got    BankRequest
}

func (f *fakeBank) CreatePaymentLink(_ context.Context, req BankRequest) (*BankIntent, error) {
	f.got = req
	if f.err != nil {
		return nil, f.err
	}
	return f.intent, nil
}

func testRequest(m Method) Request {
	return Request{
		OrderID:   id.NewOrderID(),
		OrderCode: "SO-20260301-ABC123",
		Method:    m,
		Amount:    types.VND(480000),
		ReturnURL: "https://shop.example/return",
	}
}

func TestDispatchCOD(t *testing.T) {
	d := &Dispatcher{}

	intent, err := d.CreateIntent(context.Background(), testRequest(MethodCOD))
	if err != nil {
		t.Fatalf("CreateIntent: %v", err)
	}
	if intent.Method != MethodCOD {
		t.Errorf("Method = %q, want cod", intent.Method)
	}
	if intent.Message == "" {
		t.Error("expected a confirmation message")
	}
	if intent.PayURL != "" {
		t.Errorf("COD intent carries a pay URL: %q", intent.PayURL)
	}
}

func TestDispatchWallet(t *testing.T) {
	w := &fakeWallet{intent: &WalletIntent{PayURL: "https://wallet.example/pay/xyz", ProviderRef: "wx-1"}}
	d := &Dispatcher{Wallet: w}

	req := testRequest(MethodWallet)
	intent, err := d.CreateIntent(context.Background(), req)
	if err != nil {
		t.Fatalf("CreateIntent: %v", err)
	}
	if intent.PayURL != "https://wallet.example/pay/xyz" {
		t.Errorf("PayURL = %q", intent.PayURL)
	}
	if intent.ProviderRef != "wx-1" {
		t.Errorf("ProviderRef = %q", intent.ProviderRef)
	}
	if w.got.OrderCode != req.OrderCode || !w.got.Amount.Equal(req.Amount) {
		t.Errorf("provider got %+v", w.got)
	}
}

func TestDispatchWalletErrors(t *testing.T) {
	t.Run("no provider", func(t *testing.T) {
		d := &Dispatcher{}
		_, err := d.CreateIntent(context.Background(), testRequest(MethodWallet))
		if !errors.Is(err, ErrProviderNotConfigured) {
			t.Errorf("err = %v, want ErrProviderNotConfigured", err)
		}
	})

	t.Run("provider failure wrapped", func(t *testing.T) {
		d := &Dispatcher{Wallet: &fakeWallet{err: errors.New("gateway timeout")}}
		_, err := d.CreateIntent(context.Background(), testRequest(MethodWallet))
		if !errors.Is(err, ErrInitiation) {
			t.Errorf("err = %v, want ErrInitiation", err)
		}
	})
}

func TestDispatchBankTransfer(t *testing.T) {
	expires := time.Now().Add(24 * time.Hour)
	b := &fakeBank{intent: &BankIntent{
		PayURL:      "https://bank.example/link/1",
		ProviderRef: "bt-9",
		Accounts:    []BankAccount{{Bank: "ACB", AccountNumber: "123456", AccountName: "SHOP LTD"}},
		ExpiresAt:   expires,
	}}
	d := &Dispatcher{Bank: b}

	req := testRequest(MethodBankTransfer)
	intent, err := d.CreateIntent(context.Background(), req)
	if err != nil {
		t.Fatalf("CreateIntent: %v", err)
	}
	if len(intent.Accounts) != 1 || intent.Accounts[0].Bank != "ACB" {
		t.Errorf("Accounts = %+v", intent.Accounts)
	}
	if intent.ExpiresAt == nil || !intent.ExpiresAt.Equal(expires) {
		t.Errorf("ExpiresAt = %v, want %v", intent.ExpiresAt, expires)
	}
	if b.got.Description == "" {
		t.Error("expected a transfer description")
	}
}

func TestDispatchBankTransferErrors(t *testing.T) {
	t.Run("no provider", func(t *testing.T) {
		d := &Dispatcher{}
		_, err := d.CreateIntent(context.Background(), testRequest(MethodBankTransfer))
		if !errors.Is(err, ErrProviderNotConfigured) {
			t.Errorf("err = %v, want ErrProviderNotConfigured", err)
		}
	})

	t.Run("provider failure wrapped", func(t *testing.T) {
		d := &Dispatcher{Bank: &fakeBank{err: errors.New("link quota exceeded")}}
		_, err := d.CreateIntent(context.Background(), testRequest(MethodBankTransfer))
		if !errors.Is(err, ErrInitiation) {
			t.Errorf("err = %v, want ErrInitiation", err)
		}
	})
}

func TestDispatchUnknownMethod(t *testing.T) {
	d := &Dispatcher{}
	_, err := d.CreateIntent(context.Background(), testRequest(Method("crypto")))
	if !errors.Is(err, ErrUnknownMethod) {
		t.Errorf("err = %v, want ErrUnknownMethod", err)
	}
}

func TestMethodValid(t *testing.T) {
	for _, m := range []Method{MethodCOD, MethodWallet, MethodBankTransfer} {
		if !m.Valid() {
			t.Errorf("%q should be valid", m)
		}
	}
	if Method("paypal").Valid() {
		t.Error("unknown method reported valid")
	}
}

func TestStatusIsFinal(t *testing.T) {
	finals := []Status{StatusCompleted, StatusFailed, StatusCancelled, StatusRefunded}
	for _, s := range finals {
		if !s.IsFinal() {
			t.Errorf("%q should be final", s)
		}
	}
	for _, s := range []Status{StatusPending, StatusProcessing} {
		if s.IsFinal() {
			t.Errorf("%q should not be final", s)
		}
	}
}
