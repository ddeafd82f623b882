package service

import (
	"context"
	"time"

	"reservation-service/internal/alert"
	"reservation-service/internal/models"
	"reservation-service/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type stockService struct {
	repo   *repository.Repository
	alerts OversoldAlerter
	log    *zap.Logger
	now    func() time.Time
}

func NewStockService(repo *repository.Repository, alerts OversoldAlerter, log *zap.Logger) *stockService {
	return &stockService{
		repo:   repo,
		alerts: alerts,
		log:    log,
		now:    time.Now,
	}
}

func clampStock(stock int32, reserved int64) int32 {
	avail := int64(stock) - reserved
	if avail < 0 {
		return 0
	}
	return int32(avail)
}

// GetAvailableStock returns the sellable count for a product: ledger
// stock minus active product-level holds, never negative. A missing
// product is "nothing to sell", not an error.
func (s *stockService) GetAvailableStock(ctx context.Context, productID, tenantID uuid.UUID) (int32, error) {
	p, err := s.repo.Products.GetByID(ctx, productID, tenantID)
	if err != nil {
		return 0, err
	}
	if p == nil {
		return 0, nil
	}
	reserved, err := s.repo.Reservations.SumActiveByProduct(ctx, productID, tenantID)
	if err != nil {
		return 0, err
	}
	return clampStock(p.Stock, reserved), nil
}

func (s *stockService) GetVariantAvailableStock(ctx context.Context, variantID, tenantID uuid.UUID) (int32, error) {
	v, err := s.repo.Variants.GetByID(ctx, variantID, tenantID)
	if err != nil {
		return 0, err
	}
	if v == nil {
		return 0, nil
	}
	reserved, err := s.repo.Reservations.SumActiveByVariant(ctx, variantID, tenantID)
	if err != nil {
		return 0, err
	}
	return clampStock(v.BaseStock, reserved), nil
}

func (s *stockService) CheckStockAvailability(ctx context.Context, items []StockCheckItem, tenantID uuid.UUID) (StockCheck, error) {
	check := StockCheck{Available: true}
	for _, it := range items {
		avail, err := s.GetAvailableStock(ctx, it.ProductID, tenantID)
		if err != nil {
			return StockCheck{}, err
		}
		if it.Quantity > avail {
			check.Available = false
			check.Insufficient = append(check.Insufficient, InsufficientItem{
				ProductID: it.ProductID,
				Requested: it.Quantity,
				Available: avail,
			})
		}
	}
	return check, nil
}

func (s *stockService) CheckVariantStockAvailability(ctx context.Context, items []VariantCheckItem, tenantID uuid.UUID) (StockCheck, error) {
	check := StockCheck{Available: true}
	for _, it := range items {
		avail, err := s.GetVariantAvailableStock(ctx, it.VariantID, tenantID)
		if err != nil {
			return StockCheck{}, err
		}
		if it.Quantity > avail {
			vid := it.VariantID
			check.Available = false
			check.Insufficient = append(check.Insufficient, InsufficientItem{
				VariantID: &vid,
				Requested: it.Quantity,
				Available: avail,
			})
		}
	}
	return check, nil
}

// CreateReservations inserts one ACTIVE hold per item. The ledger is
// not touched. Each product row is locked before the active holds are
// counted, so overlapping checkouts for the same product serialize and
// cannot jointly reserve more than is available; on any shortfall the
// whole order rolls back with ErrOutOfStock.
func (s *stockService) CreateReservations(ctx context.Context, orderID uuid.UUID, items []ReserveItem, tenantID uuid.UUID, expiresAt time.Time) error {
	if len(items) == 0 {
		return nil
	}
	for _, it := range items {
		if it.Quantity <= 0 {
			return ErrInvalidQuantity
		}
	}

	now := s.now()
	return s.repo.WithTx(func(tx *repository.Repository) error {
		exists, err := tx.Reservations.HasAnyForOrder(ctx, orderID, tenantID)
		if err != nil {
			return err
		}
		if exists {
			return ErrReservationExists
		}

		for _, it := range items {
			p, err := tx.Products.GetForUpdate(ctx, it.ProductID, tenantID)
			if err != nil {
				return err
			}
			var available int64
			if p != nil {
				reserved, err := tx.Reservations.SumActiveByProduct(ctx, it.ProductID, tenantID)
				if err != nil {
					return err
				}
				available = int64(p.Stock) - reserved
			}
			if available < int64(it.Quantity) {
				s.log.Info("reservation rejected",
					zap.Stringer("order_id", orderID),
					zap.Stringer("product_id", it.ProductID),
					zap.Int32("requested", it.Quantity),
					zap.Int64("available", available))
				return ErrOutOfStock
			}

			res := &models.Reservation{
				OrderID:   orderID,
				ProductID: it.ProductID,
				Quantity:  it.Quantity,
				TenantID:  tenantID,
				Status:    models.ReservationActive,
				ExpiresAt: expiresAt,
				CreatedAt: now,
			}
			if err := tx.Reservations.Create(ctx, res); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *stockService) CreateVariantReservations(ctx context.Context, orderID uuid.UUID, items []VariantReserveItem, tenantID uuid.UUID, expiresAt time.Time) error {
	if len(items) == 0 {
		return nil
	}
	for _, it := range items {
		if it.Quantity <= 0 {
			return ErrInvalidQuantity
		}
	}

	now := s.now()
	return s.repo.WithTx(func(tx *repository.Repository) error {
		exists, err := tx.Reservations.HasAnyForOrder(ctx, orderID, tenantID)
		if err != nil {
			return err
		}
		if exists {
			return ErrReservationExists
		}

		for _, it := range items {
			v, err := tx.Variants.GetForUpdate(ctx, it.VariantID, tenantID)
			if err != nil {
				return err
			}
			var available int64
			if v != nil {
				reserved, err := tx.Reservations.SumActiveByVariant(ctx, it.VariantID, tenantID)
				if err != nil {
					return err
				}
				available = int64(v.BaseStock) - reserved
			}
			if available < int64(it.Quantity) {
				s.log.Info("variant reservation rejected",
					zap.Stringer("order_id", orderID),
					zap.Stringer("variant_id", it.VariantID),
					zap.Int32("requested", it.Quantity),
					zap.Int64("available", available))
				return ErrOutOfStock
			}

			vid := it.VariantID
			res := &models.Reservation{
				OrderID:   orderID,
				ProductID: it.ProductID,
				VariantID: &vid,
				Quantity:  it.Quantity,
				TenantID:  tenantID,
				Status:    models.ReservationActive,
				ExpiresAt: expiresAt,
				CreatedAt: now,
			}
			if err := tx.Reservations.Create(ctx, res); err != nil {
				return err
			}
		}
		return nil
	})
}

// ConfirmReservations applies each of the order's still-ACTIVE holds to
// the ledger: mark CONFIRMED, decrement, in one transaction per row.
// Rows that already left ACTIVE are skipped, which makes retrying a
// partially confirmed order safe and rules out double decrements.
func (s *stockService) ConfirmReservations(ctx context.Context, orderID, tenantID uuid.UUID) error {
	rows, err := s.repo.Reservations.ListActiveByOrder(ctx, orderID, tenantID)
	if err != nil {
		return err
	}

	for _, r := range rows {
		var oversold *alert.Oversold

		err := s.repo.WithTx(func(tx *repository.Repository) error {
			ok, err := tx.Reservations.MarkConfirmed(ctx, r.ID)
			if err != nil {
				return err
			}
			if !ok {
				// lost the race to a release or an earlier confirm
				return nil
			}

			var stockAfter int32
			var applied bool
			if r.VariantID != nil {
				stockAfter, applied, err = tx.Variants.DecrementBaseStock(ctx, *r.VariantID, r.TenantID, r.Quantity)
			} else {
				stockAfter, applied, err = tx.Products.DecrementStock(ctx, r.ProductID, r.TenantID, r.Quantity)
			}
			if err != nil {
				return err
			}
			if !applied {
				s.log.Warn("ledger row missing at confirmation",
					zap.Stringer("order_id", orderID),
					zap.Stringer("reservation_id", r.ID),
					zap.Stringer("product_id", r.ProductID))
				return nil
			}
			if stockAfter < 0 {
				oversold = &alert.Oversold{
					TenantID:      r.TenantID,
					OrderID:       orderID,
					ProductID:     r.ProductID,
					VariantID:     r.VariantID,
					ReservationID: r.ID,
					Quantity:      r.Quantity,
					StockAfter:    stockAfter,
					OccurredAt:    s.now(),
				}
			}
			return nil
		})
		if err != nil {
			return err
		}

		if oversold != nil {
			s.log.Warn("stock went negative at confirmation",
				zap.Stringer("order_id", orderID),
				zap.Stringer("product_id", r.ProductID),
				zap.Int32("stock_after", oversold.StockAfter))
			if s.alerts != nil {
				if err := s.alerts.Oversold(ctx, *oversold); err != nil {
					s.log.Error("oversold alert publish failed", zap.Error(err))
				}
			}
		}
	}
	return nil
}

// ReleaseReservations frees every ACTIVE hold of the order without
// touching the ledger. Zero matching rows is a no-op, so it is safe to
// call repeatedly or after a confirmation already went through.
func (s *stockService) ReleaseReservations(ctx context.Context, orderID, tenantID uuid.UUID) (int64, error) {
	released, err := s.repo.Reservations.ReleaseByOrder(ctx, orderID, tenantID)
	if err != nil {
		return 0, err
	}
	if released > 0 {
		s.log.Info("reservations released",
			zap.Stringer("order_id", orderID),
			zap.Int64("count", released))
	}
	return released, nil
}

// ReleaseExpiredReservations frees abandoned holds across all tenants.
func (s *stockService) ReleaseExpiredReservations(ctx context.Context) (int64, error) {
	released, err := s.repo.Reservations.ReleaseExpired(ctx, s.now())
	if err != nil {
		return 0, err
	}
	if released > 0 {
		s.log.Info("expired reservations released", zap.Int64("count", released))
	}
	return released, nil
}
