package extension

import "time"

// Config holds the Checkout extension configuration.
// Fields can be set programmatically via Option functions or loaded from
// YAML configuration files (under "extensions.checkout" or "checkout" keys).
type Config struct {
	// DisableRoutes prevents HTTP route registration.
	DisableRoutes bool `json:"disable_routes" mapstructure:"disable_routes" yaml:"disable_routes"`

	// DisableMigrate prevents auto-migration on start.
	DisableMigrate bool `json:"disable_migrate" mapstructure:"disable_migrate" yaml:"disable_migrate"`

	// BasePath is the URL prefix for checkout routes (default: "/checkout").
	BasePath string `json:"base_path" mapstructure:"base_path" yaml:"base_path"`

	// MaxCouponsPerOrder caps how many coupons one order may apply
	// (default: 3).
	MaxCouponsPerOrder int `json:"max_coupons_per_order" mapstructure:"max_coupons_per_order" yaml:"max_coupons_per_order"`

	// SweepInterval is how frequently expired pending payments are swept
	// and their orders failed (default: 1m). Zero disables the sweeper.
	SweepInterval time.Duration `json:"sweep_interval" mapstructure:"sweep_interval" yaml:"sweep_interval"`

	// CallbackSecret is the shared secret used to verify gateway callback
	// checksums. Empty disables verification.
	CallbackSecret string `json:"callback_secret" mapstructure:"callback_secret" yaml:"callback_secret"`

	// RequireConfig requires config to be present in YAML files.
	// If true and no config is found, Register returns an error.
	RequireConfig bool `json:"-" yaml:"-"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		MaxCouponsPerOrder: 3,
		SweepInterval:      time.Minute,
	}
}
