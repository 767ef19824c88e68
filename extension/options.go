package extension

import (
	"time"

	checkout "github.com/xraph/checkout"
	"github.com/xraph/checkout/payment"
	"github.com/xraph/checkout/plugin"
	"github.com/xraph/checkout/store"
)

// Option configures the Checkout Forge extension.
type Option func(*Extension)

// WithStore sets the store for the checkout engine.
func WithStore(s store.Store) Option {
	return func(e *Extension) {
		e.store = s
	}
}

// WithCheckoutOption passes a checkout.Option through to the underlying engine.
func WithCheckoutOption(opt checkout.Option) Option {
	return func(e *Extension) {
		e.checkoutOpts = append(e.checkoutOpts, opt)
	}
}

// WithPlugin registers a checkout plugin.
func WithPlugin(p plugin.Plugin) Option {
	return func(e *Extension) {
		e.checkoutOpts = append(e.checkoutOpts, checkout.WithPlugin(p))
	}
}

// WithWalletProvider sets the wallet payment gateway.
func WithWalletProvider(p payment.WalletProvider) Option {
	return func(e *Extension) {
		e.checkoutOpts = append(e.checkoutOpts, checkout.WithWalletProvider(p))
	}
}

// WithBankTransferProvider sets the bank-transfer payment gateway.
func WithBankTransferProvider(p payment.BankTransferProvider) Option {
	return func(e *Extension) {
		e.checkoutOpts = append(e.checkoutOpts, checkout.WithBankTransferProvider(p))
	}
}

// WithConfig sets the Forge extension configuration.
func WithConfig(cfg Config) Option {
	return func(e *Extension) { e.config = cfg }
}

// WithDisableRoutes prevents HTTP route registration.
func WithDisableRoutes() Option {
	return func(e *Extension) { e.config.DisableRoutes = true }
}

// WithDisableMigrate prevents auto-migration on start.
func WithDisableMigrate() Option {
	return func(e *Extension) { e.config.DisableMigrate = true }
}

// WithBasePath sets the URL prefix for checkout routes.
func WithBasePath(path string) Option {
	return func(e *Extension) { e.config.BasePath = path }
}

// WithRequireConfig requires config to be present in YAML files.
// If true and no config is found, Register returns an error.
func WithRequireConfig(require bool) Option {
	return func(e *Extension) { e.config.RequireConfig = require }
}

// WithMaxCouponsPerOrder caps how many coupons one order may apply.
func WithMaxCouponsPerOrder(n int) Option {
	return func(e *Extension) { e.config.MaxCouponsPerOrder = n }
}

// WithSweepInterval sets how frequently expired pending payments are swept.
func WithSweepInterval(d time.Duration) Option {
	return func(e *Extension) { e.config.SweepInterval = d }
}

// WithCallbackSecret sets the shared secret for callback checksum verification.
func WithCallbackSecret(secret string) Option {
	return func(e *Extension) { e.config.CallbackSecret = secret }
}
