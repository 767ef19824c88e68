package postgres

import (
	"context"

	"github.com/xraph/grove/migrate"
)

// Migrations is the grove migration group for the Checkout store.
var Migrations = migrate.NewGroup("checkout")

func init() {
	Migrations.MustRegister(
		&migrate.Migration{
			Name:    "create_checkout_coupons",
			Version: "20260101000001",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS checkout_coupons (
    id                    TEXT PRIMARY KEY,
    code                  TEXT NOT NULL DEFAULT '',
    name                  TEXT NOT NULL DEFAULT '',
    kind                  TEXT NOT NULL DEFAULT '',
    amount_cents          BIGINT NOT NULL DEFAULT 0,
    amount_currency       TEXT NOT NULL DEFAULT '',
    percentage            INT NOT NULL DEFAULT 0,
    max_discount_cents    BIGINT NOT NULL DEFAULT 0,
    max_discount_currency TEXT NOT NULL DEFAULT '',
    min_order_cents       BIGINT NOT NULL DEFAULT 0,
    min_order_currency    TEXT NOT NULL DEFAULT '',
    scope                 TEXT NOT NULL DEFAULT 'whole_order',
    product_ids           JSONB NOT NULL DEFAULT '[]',
    starts_at             TIMESTAMPTZ,
    expires_at            TIMESTAMPTZ,
    max_uses              INT NOT NULL DEFAULT 0,
    max_uses_per_user     INT NOT NULL DEFAULT 0,
    times_used            INT NOT NULL DEFAULT 0,
    used_by               JSONB NOT NULL DEFAULT '{}',
    active                BOOLEAN NOT NULL DEFAULT FALSE,
    app_id                TEXT NOT NULL DEFAULT '',
    metadata              JSONB NOT NULL DEFAULT '{}',
    created_at            TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at            TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_checkout_coupons_code_app ON checkout_coupons (code, app_id);
CREATE INDEX IF NOT EXISTS idx_checkout_coupons_app ON checkout_coupons (app_id);
CREATE INDEX IF NOT EXISTS idx_checkout_coupons_active ON checkout_coupons (app_id, active);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS checkout_coupons`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_checkout_products",
			Version: "20260101000002",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS checkout_products (
    id             TEXT PRIMARY KEY,
    name           TEXT NOT NULL DEFAULT '',
    sku            TEXT NOT NULL DEFAULT '',
    price_cents    BIGINT NOT NULL DEFAULT 0,
    price_currency TEXT NOT NULL DEFAULT '',
    quantity       BIGINT NOT NULL DEFAULT 0 CHECK (quantity >= 0),
    active         BOOLEAN NOT NULL DEFAULT FALSE,
    app_id         TEXT NOT NULL DEFAULT '',
    metadata       JSONB NOT NULL DEFAULT '{}',
    created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at     TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_checkout_products_app ON checkout_products (app_id);
CREATE INDEX IF NOT EXISTS idx_checkout_products_active ON checkout_products (app_id, active);
CREATE INDEX IF NOT EXISTS idx_checkout_products_sku ON checkout_products (app_id, sku);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS checkout_products`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_checkout_orders",
			Version: "20260101000003",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS checkout_orders (
    id                TEXT PRIMARY KEY,
    code              TEXT NOT NULL DEFAULT '',
    user_id           TEXT NOT NULL DEFAULT '',
    items             JSONB NOT NULL DEFAULT '[]',
    subtotal_cents    BIGINT NOT NULL DEFAULT 0,
    subtotal_currency TEXT NOT NULL DEFAULT '',
    shipping_cents    BIGINT NOT NULL DEFAULT 0,
    shipping_currency TEXT NOT NULL DEFAULT '',
    discount_cents    BIGINT NOT NULL DEFAULT 0,
    discount_currency TEXT NOT NULL DEFAULT '',
    total_cents       BIGINT NOT NULL DEFAULT 0,
    total_currency    TEXT NOT NULL DEFAULT '',
    coupon_codes      JSONB NOT NULL DEFAULT '[]',
    payment_method    TEXT NOT NULL DEFAULT '',
    payment_id        TEXT NOT NULL DEFAULT '',
    status            TEXT NOT NULL DEFAULT 'pending',
    app_id            TEXT NOT NULL DEFAULT '',
    metadata          JSONB NOT NULL DEFAULT '{}',
    created_at        TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at        TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_checkout_orders_code_app ON checkout_orders (code, app_id);
CREATE INDEX IF NOT EXISTS idx_checkout_orders_user ON checkout_orders (user_id, app_id, created_at);
CREATE INDEX IF NOT EXISTS idx_checkout_orders_status ON checkout_orders (app_id, status);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS checkout_orders`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_checkout_payments",
			Version: "20260101000004",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS checkout_payments (
    id              TEXT PRIMARY KEY,
    order_id        TEXT NOT NULL DEFAULT '',
    method          TEXT NOT NULL DEFAULT '',
    amount_cents    BIGINT NOT NULL DEFAULT 0,
    amount_currency TEXT NOT NULL DEFAULT '',
    status          TEXT NOT NULL DEFAULT 'pending',
    provider_ref    TEXT NOT NULL DEFAULT '',
    pay_url         TEXT NOT NULL DEFAULT '',
    message         TEXT NOT NULL DEFAULT '',
    accounts        JSONB NOT NULL DEFAULT '[]',
    expires_at      TIMESTAMPTZ,
    completed_at    TIMESTAMPTZ,
    app_id          TEXT NOT NULL DEFAULT '',
    created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_checkout_payments_order ON checkout_payments (order_id, created_at);
CREATE UNIQUE INDEX IF NOT EXISTS idx_checkout_payments_provider_ref ON checkout_payments (provider_ref, app_id) WHERE provider_ref != '';
CREATE INDEX IF NOT EXISTS idx_checkout_payments_expiry ON checkout_payments (status, expires_at);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS checkout_payments`)
				return err
			},
		},
	)
}
