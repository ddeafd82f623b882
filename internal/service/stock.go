package service

import (
	"context"
	"time"

	"reservation-service/internal/alert"

	"github.com/google/uuid"
)

type ReserveItem struct {
	ProductID uuid.UUID
	Quantity  int32
}

type VariantReserveItem struct {
	ProductID uuid.UUID
	VariantID uuid.UUID
	Quantity  int32
}

type StockCheckItem struct {
	ProductID uuid.UUID
	Quantity  int32
}

type VariantCheckItem struct {
	VariantID uuid.UUID
	Quantity  int32
}

type InsufficientItem struct {
	ProductID uuid.UUID
	VariantID *uuid.UUID
	Requested int32
	Available int32
}

// StockCheck is advisory: a passing check is not a guarantee, because
// another checkout can consume the same stock before the caller gets to
// reserve. The reserve path re-checks under a row lock.
type StockCheck struct {
	Available    bool
	Insufficient []InsufficientItem
}

// OversoldAlerter receives events when a confirmation drives the
// authoritative count negative. May be left nil.
type OversoldAlerter interface {
	Oversold(ctx context.Context, e alert.Oversold) error
}

type StockService interface {
	// availability (read-only)
	GetAvailableStock(ctx context.Context, productID, tenantID uuid.UUID) (int32, error)
	GetVariantAvailableStock(ctx context.Context, variantID, tenantID uuid.UUID) (int32, error)
	CheckStockAvailability(ctx context.Context, items []StockCheckItem, tenantID uuid.UUID) (StockCheck, error)
	CheckVariantStockAvailability(ctx context.Context, items []VariantCheckItem, tenantID uuid.UUID) (StockCheck, error)

	// reservation lifecycle
	CreateReservations(ctx context.Context, orderID uuid.UUID, items []ReserveItem, tenantID uuid.UUID, expiresAt time.Time) error
	CreateVariantReservations(ctx context.Context, orderID uuid.UUID, items []VariantReserveItem, tenantID uuid.UUID, expiresAt time.Time) error
	ConfirmReservations(ctx context.Context, orderID, tenantID uuid.UUID) error
	ReleaseReservations(ctx context.Context, orderID, tenantID uuid.UUID) (int64, error)
	ReleaseExpiredReservations(ctx context.Context) (int64, error)
}
