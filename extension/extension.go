// Package extension provides the Forge extension adapter for Checkout.
//
// It implements the forge.Extension interface to integrate Checkout
// into a Forge application with automatic dependency discovery,
// DI registration, and lifecycle management.
//
// Configuration can be provided programmatically via Option functions
// or via YAML configuration files under "extensions.checkout" or "checkout" keys.
package extension

import (
	"context"
	"errors"

	"github.com/xraph/forge"
	"github.com/xraph/vessel"

	checkout "github.com/xraph/checkout"
	"github.com/xraph/checkout/store"
	"github.com/xraph/checkout/store/memory"
)

// ExtensionName is the name registered with Forge.
const ExtensionName = "checkout"

// ExtensionDescription is the human-readable description.
const ExtensionDescription = "Composable checkout orchestration engine"

// ExtensionVersion is the semantic version.
const ExtensionVersion = "0.1.0"

// Ensure Extension implements forge.Extension at compile time.
var _ forge.Extension = (*Extension)(nil)

// Extension adapts Checkout as a Forge extension.
type Extension struct {
	*forge.BaseExtension

	config       Config
	engine       *checkout.Engine
	store        store.Store
	checkoutOpts []checkout.Option
}

// New creates a new Checkout Forge extension with the given options.
func New(opts ...Option) *Extension {
	e := &Extension{
		BaseExtension: forge.NewBaseExtension(ExtensionName, ExtensionVersion, ExtensionDescription),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Engine returns the underlying Checkout engine.
// This is nil until Register is called.
func (e *Extension) Engine() *checkout.Engine { return e.engine }

// Register implements [forge.Extension]. It loads configuration,
// initializes the checkout engine, and registers it in the DI container.
func (e *Extension) Register(fapp forge.App) error {
	if err := e.BaseExtension.Register(fapp); err != nil {
		return err
	}

	if err := e.loadConfiguration(); err != nil {
		return err
	}

	// Use memory store if no store was provided programmatically.
	if e.store == nil {
		e.store = memory.New()
	}

	// Build checkout options from resolved config.
	opts := e.buildCheckoutOpts()

	eng := checkout.New(e.store, opts...)
	e.engine = eng

	return vessel.Provide(fapp.Container(), func() (*checkout.Engine, error) {
		return e.engine, nil
	})
}

// Start implements [forge.Extension].
func (e *Extension) Start(ctx context.Context) error {
	if e.engine == nil {
		return errors.New("checkout: extension not initialized")
	}

	if !e.config.DisableMigrate {
		if err := e.engine.Start(ctx); err != nil {
			return err
		}
	}

	e.MarkStarted()
	return nil
}

// Stop implements [forge.Extension].
func (e *Extension) Stop(ctx context.Context) error {
	if e.engine != nil {
		if err := e.engine.Stop(ctx); err != nil {
			e.MarkStopped()
			return err
		}
	}
	e.MarkStopped()
	return nil
}

// Health implements [forge.Extension].
func (e *Extension) Health(ctx context.Context) error {
	if e.store == nil {
		return errors.New("checkout: store not initialized")
	}
	return e.store.Ping(ctx)
}

// buildCheckoutOpts constructs checkout.Option values from the resolved config.
func (e *Extension) buildCheckoutOpts() []checkout.Option {
	opts := make([]checkout.Option, 0, len(e.checkoutOpts)+3)

	// Apply config-derived options.
	if e.config.MaxCouponsPerOrder > 0 {
		opts = append(opts, checkout.WithMaxCouponsPerOrder(e.config.MaxCouponsPerOrder))
	}
	opts = append(opts, checkout.WithSweepInterval(e.config.SweepInterval))
	if e.config.CallbackSecret != "" {
		opts = append(opts, checkout.WithCallbackSecret(e.config.CallbackSecret))
	}

	// Append any pass-through checkout options.
	opts = append(opts, e.checkoutOpts...)

	return opts
}

// --- Config Loading (mirrors grove/shield extension pattern) ---

// loadConfiguration loads config from YAML files or programmatic sources.
func (e *Extension) loadConfiguration() error {
	programmaticConfig := e.config

	// Try loading from config file.
	fileConfig, configLoaded := e.tryLoadFromConfigFile()

	if !configLoaded {
		if programmaticConfig.RequireConfig {
			return errors.New("checkout: configuration is required but not found in config files; " +
				"ensure 'extensions.checkout' or 'checkout' key exists in your config")
		}

		// Use programmatic config merged with defaults.
		e.config = e.mergeWithDefaults(programmaticConfig)
	} else {
		// Config loaded from YAML -- merge with programmatic options.
		e.config = e.mergeConfigurations(fileConfig, programmaticConfig)
	}

	e.Logger().Debug("checkout: configuration loaded",
		forge.F("disable_routes", e.config.DisableRoutes),
		forge.F("disable_migrate", e.config.DisableMigrate),
		forge.F("base_path", e.config.BasePath),
		forge.F("max_coupons_per_order", e.config.MaxCouponsPerOrder),
		forge.F("sweep_interval", e.config.SweepInterval),
	)

	return nil
}

// tryLoadFromConfigFile attempts to load config from YAML files.
func (e *Extension) tryLoadFromConfigFile() (Config, bool) {
	cm := e.App().Config()
	var cfg Config

	// Try "extensions.checkout" first (namespaced pattern).
	if cm.IsSet("extensions.checkout") {
		if err := cm.Bind("extensions.checkout", &cfg); err == nil {
			e.Logger().Debug("checkout: loaded config from file",
				forge.F("key", "extensions.checkout"),
			)
			return cfg, true
		}
		e.Logger().Warn("checkout: failed to bind extensions.checkout config",
			forge.F("error", "bind failed"),
		)
	}

	// Try legacy "checkout" key.
	if cm.IsSet("checkout") {
		if err := cm.Bind("checkout", &cfg); err == nil {
			e.Logger().Debug("checkout: loaded config from file",
				forge.F("key", "checkout"),
			)
			return cfg, true
		}
		e.Logger().Warn("checkout: failed to bind checkout config",
			forge.F("error", "bind failed"),
		)
	}

	return Config{}, false
}

// mergeWithDefaults fills zero-valued fields with defaults.
func (e *Extension) mergeWithDefaults(cfg Config) Config {
	defaults := DefaultConfig()
	if cfg.MaxCouponsPerOrder == 0 {
		cfg.MaxCouponsPerOrder = defaults.MaxCouponsPerOrder
	}
	if cfg.SweepInterval == 0 {
		cfg.SweepInterval = defaults.SweepInterval
	}
	return cfg
}

// mergeConfigurations merges YAML config with programmatic options.
// YAML config takes precedence for most fields; programmatic bool flags fill gaps.
func (e *Extension) mergeConfigurations(yamlConfig, programmaticConfig Config) Config {
	// Programmatic bool flags override when true.
	if programmaticConfig.DisableRoutes {
		yamlConfig.DisableRoutes = true
	}
	if programmaticConfig.DisableMigrate {
		yamlConfig.DisableMigrate = true
	}

	// String fields: YAML takes precedence.
	if yamlConfig.BasePath == "" && programmaticConfig.BasePath != "" {
		yamlConfig.BasePath = programmaticConfig.BasePath
	}
	if yamlConfig.CallbackSecret == "" && programmaticConfig.CallbackSecret != "" {
		yamlConfig.CallbackSecret = programmaticConfig.CallbackSecret
	}

	// Duration/int fields: YAML takes precedence, programmatic fills gaps.
	if yamlConfig.MaxCouponsPerOrder == 0 && programmaticConfig.MaxCouponsPerOrder != 0 {
		yamlConfig.MaxCouponsPerOrder = programmaticConfig.MaxCouponsPerOrder
	}
	if yamlConfig.SweepInterval == 0 && programmaticConfig.SweepInterval != 0 {
		yamlConfig.SweepInterval = programmaticConfig.SweepInterval
	}

	// Fill remaining zeros with defaults.
	return e.mergeWithDefaults(yamlConfig)
}
