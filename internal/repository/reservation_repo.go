package repository

import (
	"context"
	"time"

	"reservation-service/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ReservationRepo owns the reservation rows. Status writes only ever
// move rows out of ACTIVE; the WHERE guards make confirm, release and
// the expiry sweep idempotent under concurrent callers.
type ReservationRepo interface {
	Create(ctx context.Context, res *models.Reservation) error
	ListByOrder(ctx context.Context, orderID, tenantID uuid.UUID) ([]models.Reservation, error)
	ListActiveByOrder(ctx context.Context, orderID, tenantID uuid.UUID) ([]models.Reservation, error)
	HasAnyForOrder(ctx context.Context, orderID, tenantID uuid.UUID) (bool, error)

	// Active-hold sums feeding the availability calculation.
	SumActiveByProduct(ctx context.Context, productID, tenantID uuid.UUID) (int64, error)
	SumActiveByVariant(ctx context.Context, variantID, tenantID uuid.UUID) (int64, error)

	MarkConfirmed(ctx context.Context, id uuid.UUID) (bool, error)
	ReleaseByOrder(ctx context.Context, orderID, tenantID uuid.UUID) (int64, error)
	ReleaseExpired(ctx context.Context, now time.Time) (int64, error)
}

type reservationRepo struct{ db *gorm.DB }

func NewReservationRepo(db *gorm.DB) ReservationRepo { return &reservationRepo{db: db} }

func (r *reservationRepo) Create(ctx context.Context, res *models.Reservation) error {
	return r.db.WithContext(ctx).Create(res).Error
}

func (r *reservationRepo) ListByOrder(ctx context.Context, orderID, tenantID uuid.UUID) ([]models.Reservation, error) {
	var list []models.Reservation
	err := r.db.WithContext(ctx).
		Where("order_id = ? AND tenant_id = ?", orderID, tenantID).
		Order("created_at ASC").
		Find(&list).Error
	return list, err
}

func (r *reservationRepo) ListActiveByOrder(ctx context.Context, orderID, tenantID uuid.UUID) ([]models.Reservation, error) {
	var list []models.Reservation
	err := r.db.WithContext(ctx).
		Where("order_id = ? AND tenant_id = ? AND status = ?", orderID, tenantID, models.ReservationActive).
		Order("created_at ASC").
		Find(&list).Error
	return list, err
}

func (r *reservationRepo) HasAnyForOrder(ctx context.Context, orderID, tenantID uuid.UUID) (bool, error) {
	var cnt int64
	err := r.db.WithContext(ctx).
		Model(&models.Reservation{}).
		Where("order_id = ? AND tenant_id = ?", orderID, tenantID).
		Count(&cnt).Error
	return cnt > 0, err
}

func (r *reservationRepo) SumActiveByProduct(ctx context.Context, productID, tenantID uuid.UUID) (int64, error) {
	var sum int64
	err := r.db.WithContext(ctx).Raw(`
SELECT COALESCE(SUM(quantity), 0)
FROM reservations
WHERE product_id = @pid
  AND tenant_id = @tid
  AND variant_id IS NULL
  AND status = 'ACTIVE'
`, map[string]any{
		"pid": productID,
		"tid": tenantID,
	}).Scan(&sum).Error
	return sum, err
}

func (r *reservationRepo) SumActiveByVariant(ctx context.Context, variantID, tenantID uuid.UUID) (int64, error) {
	var sum int64
	err := r.db.WithContext(ctx).Raw(`
SELECT COALESCE(SUM(quantity), 0)
FROM reservations
WHERE variant_id = @vid
  AND tenant_id = @tid
  AND status = 'ACTIVE'
`, map[string]any{
		"vid": variantID,
		"tid": tenantID,
	}).Scan(&sum).Error
	return sum, err
}

func (r *reservationRepo) MarkConfirmed(ctx context.Context, id uuid.UUID) (bool, error) {
	tx := r.db.WithContext(ctx).
		Model(&models.Reservation{}).
		Where("id = ? AND status = ?", id, models.ReservationActive).
		Update("status", models.ReservationConfirmed)
	return tx.RowsAffected > 0, tx.Error
}

func (r *reservationRepo) ReleaseByOrder(ctx context.Context, orderID, tenantID uuid.UUID) (int64, error) {
	tx := r.db.WithContext(ctx).
		Model(&models.Reservation{}).
		Where("order_id = ? AND tenant_id = ? AND status = ?", orderID, tenantID, models.ReservationActive).
		Update("status", models.ReservationReleased)
	return tx.RowsAffected, tx.Error
}

// ReleaseExpired is the sweep. A single guarded UPDATE across all
// tenants; running it concurrently from several instances is safe
// because a row can only match the WHERE once.
func (r *reservationRepo) ReleaseExpired(ctx context.Context, now time.Time) (int64, error) {
	tx := r.db.WithContext(ctx).
		Model(&models.Reservation{}).
		Where("status = ? AND expires_at < ?", models.ReservationActive, now).
		Update("status", models.ReservationReleased)
	return tx.RowsAffected, tx.Error
}
