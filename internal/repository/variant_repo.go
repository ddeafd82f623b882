package repository

import (
	"context"
	"errors"

	"reservation-service/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type VariantRepo interface {
	Create(ctx context.Context, v *models.ProductVariant) error
	GetByID(ctx context.Context, id, tenantID uuid.UUID) (*models.ProductVariant, error)
	GetForUpdate(ctx context.Context, id, tenantID uuid.UUID) (*models.ProductVariant, error)
	SetBaseStock(ctx context.Context, id, tenantID uuid.UUID, stock int32) error
	DecrementBaseStock(ctx context.Context, id, tenantID uuid.UUID, qty int32) (int32, bool, error)
}

type variantRepo struct{ db *gorm.DB }

func NewVariantRepo(db *gorm.DB) VariantRepo { return &variantRepo{db: db} }

func (r *variantRepo) Create(ctx context.Context, v *models.ProductVariant) error {
	return r.db.WithContext(ctx).Create(v).Error
}

func (r *variantRepo) GetByID(ctx context.Context, id, tenantID uuid.UUID) (*models.ProductVariant, error) {
	var v models.ProductVariant
	err := r.db.WithContext(ctx).
		First(&v, "id = ? AND tenant_id = ?", id, tenantID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (r *variantRepo) GetForUpdate(ctx context.Context, id, tenantID uuid.UUID) (*models.ProductVariant, error) {
	var v models.ProductVariant
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&v, "id = ? AND tenant_id = ?", id, tenantID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (r *variantRepo) SetBaseStock(ctx context.Context, id, tenantID uuid.UUID, stock int32) error {
	return r.db.WithContext(ctx).
		Model(&models.ProductVariant{}).
		Where("id = ? AND tenant_id = ?", id, tenantID).
		Update("base_stock", stock).Error
}

func (r *variantRepo) DecrementBaseStock(ctx context.Context, id, tenantID uuid.UUID, qty int32) (int32, bool, error) {
	var stock int32
	tx := r.db.WithContext(ctx).Raw(`
UPDATE product_variants
SET base_stock = base_stock - @q,
    updated_at = now()
WHERE id = @vid
  AND tenant_id = @tid
RETURNING base_stock
`, map[string]any{
		"vid": id,
		"tid": tenantID,
		"q":   qty,
	}).Scan(&stock)
	return stock, tx.RowsAffected > 0, tx.Error
}
