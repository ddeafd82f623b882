package migrate

import (
	"context"

	"reservation-service/internal/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type MigrateOptions struct {
	CreateExtensions       bool // pgcrypto
	CreateChecks           bool // CHECK constraints
	CreateIndexes          bool // partial and unique indexes
	CreateStatusGuard      bool // trigger rejecting writes to terminal reservations
	CreateUpdatedAtTrigger bool // updated_at triggers on ledger tables
}

func DefaultMigrateOptions() MigrateOptions {
	return MigrateOptions{
		CreateExtensions:       true,
		CreateChecks:           true,
		CreateIndexes:          true,
		CreateStatusGuard:      true,
		CreateUpdatedAtTrigger: true,
	}
}

func MigrateReservationDB(ctx context.Context, db *gorm.DB, log *zap.Logger, opt MigrateOptions) error {
	log.Info("starting reservation schema migration")

	if opt.CreateExtensions {
		if err := db.WithContext(ctx).Exec(`CREATE EXTENSION IF NOT EXISTS pgcrypto`).Error; err != nil {
			log.Error("pgcrypto error", zap.Error(err))
			return err
		}
	}

	log.Info("creating tables: products, product_variants, reservations")
	if err := db.WithContext(ctx).AutoMigrate(
		&models.Product{},
		&models.ProductVariant{},
		&models.Reservation{},
	); err != nil {
		log.Error("AutoMigrate error", zap.Error(err))
		return err
	}

	if opt.CreateUpdatedAtTrigger {
		if err := db.WithContext(ctx).Exec(`
CREATE OR REPLACE FUNCTION set_updated_at() RETURNS trigger AS $$
BEGIN NEW.updated_at = now(); RETURN NEW; END; $$ LANGUAGE plpgsql;

DROP TRIGGER IF EXISTS trg_products_updated ON products;
CREATE TRIGGER trg_products_updated BEFORE UPDATE ON products
FOR EACH ROW EXECUTE FUNCTION set_updated_at();

DROP TRIGGER IF EXISTS trg_product_variants_updated ON product_variants;
CREATE TRIGGER trg_product_variants_updated BEFORE UPDATE ON product_variants
FOR EACH ROW EXECUTE FUNCTION set_updated_at();
`).Error; err != nil {
			log.Error("updated_at triggers error", zap.Error(err))
			return err
		}
	}

	if opt.CreateStatusGuard {
		// CONFIRMED and RELEASED are terminal. Any write that would move
		// such a row again is a bug in the caller and is rejected here,
		// below the application code.
		if err := db.WithContext(ctx).Exec(`
CREATE OR REPLACE FUNCTION reservations_guard_terminal() RETURNS trigger AS $$
BEGIN
	IF OLD.status <> 'ACTIVE' AND NEW.status <> OLD.status THEN
		RAISE EXCEPTION 'reservation % is % and cannot transition to %',
			OLD.id, OLD.status, NEW.status;
	END IF;
	RETURN NEW;
END; $$ LANGUAGE plpgsql;

DROP TRIGGER IF EXISTS trg_reservations_terminal ON reservations;
CREATE TRIGGER trg_reservations_terminal BEFORE UPDATE ON reservations
FOR EACH ROW EXECUTE FUNCTION reservations_guard_terminal();
`).Error; err != nil {
			log.Error("status guard trigger error", zap.Error(err))
			return err
		}
	}

	if opt.CreateChecks {
		if err := db.WithContext(ctx).Exec(`
ALTER TABLE reservations
	DROP CONSTRAINT IF EXISTS chk_reservations_quantity_positive,
	ADD CONSTRAINT chk_reservations_quantity_positive
	CHECK (quantity > 0);
`).Error; err != nil {
			log.Error("chk quantity", zap.Error(err))
			return err
		}

		if err := db.WithContext(ctx).Exec(`
ALTER TABLE reservations
	DROP CONSTRAINT IF EXISTS chk_reservations_status,
	ADD CONSTRAINT chk_reservations_status
	CHECK (status IN ('ACTIVE', 'CONFIRMED', 'RELEASED'));
`).Error; err != nil {
			log.Error("chk status", zap.Error(err))
			return err
		}
	}

	if opt.CreateIndexes {
		// One hold per (order, product, variant); variant NULL folded to
		// the nil uuid so product-level holds dedupe too.
		if err := db.WithContext(ctx).Exec(`
CREATE UNIQUE INDEX IF NOT EXISTS ux_reservations_order_item
ON reservations (order_id, product_id, COALESCE(variant_id, '00000000-0000-0000-0000-000000000000'::uuid));
`).Error; err != nil {
			log.Error("ux order item", zap.Error(err))
			return err
		}

		// Sweep scan: only ACTIVE rows carry a meaningful expiry.
		if err := db.WithContext(ctx).Exec(`
CREATE INDEX IF NOT EXISTS ix_reservations_active_expiry
ON reservations (expires_at) WHERE status = 'ACTIVE';
`).Error; err != nil {
			log.Error("ix active expiry", zap.Error(err))
			return err
		}

		// Availability sums.
		if err := db.WithContext(ctx).Exec(`
CREATE INDEX IF NOT EXISTS ix_reservations_active_product
ON reservations (product_id, tenant_id) WHERE status = 'ACTIVE' AND variant_id IS NULL;

CREATE INDEX IF NOT EXISTS ix_reservations_active_variant
ON reservations (variant_id, tenant_id) WHERE status = 'ACTIVE' AND variant_id IS NOT NULL;
`).Error; err != nil {
			log.Error("ix active sums", zap.Error(err))
			return err
		}

		if err := db.WithContext(ctx).Exec(`
ALTER TABLE product_variants
	DROP CONSTRAINT IF EXISTS fk_product_variants_product,
	ADD CONSTRAINT fk_product_variants_product
	FOREIGN KEY (product_id) REFERENCES products(id) ON DELETE CASCADE;
`).Error; err != nil {
			log.Error("fk variants", zap.Error(err))
			return err
		}
	}

	log.Info("reservation schema migration finished")
	return nil
}
