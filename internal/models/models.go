package models

import (
	"time"

	"github.com/google/uuid"
)

// Product mirrors the catalog service's ledger row. The engine only
// reads it and decrements Stock at confirmation time; everything else
// belongs to the catalog.
type Product struct {
	ID       uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	TenantID uuid.UUID `gorm:"type:uuid;not null;index"`
	SKU      string    `gorm:"type:text;not null"`
	Name     string    `gorm:"type:text;not null"`
	Stock    int32     `gorm:"not null;default:0"`

	CreatedAt time.Time `gorm:"not null;default:now()"`
	UpdatedAt time.Time `gorm:"not null;default:now()"`
}

func (Product) TableName() string {
	return "products"
}

type ProductVariant struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	ProductID uuid.UUID `gorm:"type:uuid;not null;index"`
	TenantID  uuid.UUID `gorm:"type:uuid;not null;index"`
	SKU       string    `gorm:"type:text;not null"`
	BaseStock int32     `gorm:"not null;default:0"`

	CreatedAt time.Time `gorm:"not null;default:now()"`
	UpdatedAt time.Time `gorm:"not null;default:now()"`
}

func (ProductVariant) TableName() string {
	return "product_variants"
}

type ReservationStatus string

const (
	ReservationActive    ReservationStatus = "ACTIVE"
	ReservationConfirmed ReservationStatus = "CONFIRMED"
	ReservationReleased  ReservationStatus = "RELEASED"
)

// Reservation is a time-boxed hold against sellable stock. ACTIVE rows
// count against availability; CONFIRMED and RELEASED are terminal and
// are kept for audit, never deleted by the engine.
type Reservation struct {
	ID        uuid.UUID         `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID   uuid.UUID         `gorm:"type:uuid;not null;index"`
	ProductID uuid.UUID         `gorm:"type:uuid;not null;index"`
	VariantID *uuid.UUID        `gorm:"type:uuid;index"` // nil for product-level holds
	Quantity  int32             `gorm:"not null"`
	TenantID  uuid.UUID         `gorm:"type:uuid;not null;index"`
	Status    ReservationStatus `gorm:"type:text;not null;default:'ACTIVE';index"`
	ExpiresAt time.Time         `gorm:"not null;index"`

	CreatedAt time.Time `gorm:"not null;default:now();index"`
}

func (Reservation) TableName() string {
	return "reservations"
}
