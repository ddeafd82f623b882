package repository

import (
	"context"
	"errors"

	"reservation-service/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ProductRepo interface {
	Create(ctx context.Context, p *models.Product) error
	GetByID(ctx context.Context, id, tenantID uuid.UUID) (*models.Product, error)
	// GetForUpdate takes a row lock on the ledger row for the duration of
	// the surrounding transaction. Reserve paths lock before counting
	// active holds so that two checkouts cannot jointly oversell.
	GetForUpdate(ctx context.Context, id, tenantID uuid.UUID) (*models.Product, error)
	SetStock(ctx context.Context, id, tenantID uuid.UUID, stock int32) error
	// DecrementStock subtracts qty from the authoritative count and
	// returns the resulting stock. The count is deliberately not floored
	// at zero: confirmation always applies what was promised. A negative
	// result means upstream oversold and must be alerted on.
	DecrementStock(ctx context.Context, id, tenantID uuid.UUID, qty int32) (int32, bool, error)
}

type productRepo struct{ db *gorm.DB }

func NewProductRepo(db *gorm.DB) ProductRepo { return &productRepo{db: db} }

func (r *productRepo) Create(ctx context.Context, p *models.Product) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *productRepo) GetByID(ctx context.Context, id, tenantID uuid.UUID) (*models.Product, error) {
	var p models.Product
	err := r.db.WithContext(ctx).
		First(&p, "id = ? AND tenant_id = ?", id, tenantID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *productRepo) GetForUpdate(ctx context.Context, id, tenantID uuid.UUID) (*models.Product, error) {
	var p models.Product
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&p, "id = ? AND tenant_id = ?", id, tenantID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *productRepo) SetStock(ctx context.Context, id, tenantID uuid.UUID, stock int32) error {
	return r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ? AND tenant_id = ?", id, tenantID).
		Update("stock", stock).Error
}

func (r *productRepo) DecrementStock(ctx context.Context, id, tenantID uuid.UUID, qty int32) (int32, bool, error) {
	var stock int32
	tx := r.db.WithContext(ctx).Raw(`
UPDATE products
SET stock = stock - @q,
    updated_at = now()
WHERE id = @pid
  AND tenant_id = @tid
RETURNING stock
`, map[string]any{
		"pid": id,
		"tid": tenantID,
		"q":   qty,
	}).Scan(&stock)
	return stock, tx.RowsAffected > 0, tx.Error
}
