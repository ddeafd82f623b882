package repository

import "gorm.io/gorm"

type Repository struct {
	DB           *gorm.DB
	Products     ProductRepo
	Variants     VariantRepo
	Reservations ReservationRepo
}

func New(db *gorm.DB) *Repository {
	return &Repository{
		DB:           db,
		Products:     NewProductRepo(db),
		Variants:     NewVariantRepo(db),
		Reservations: NewReservationRepo(db),
	}
}

// WithTx runs fn with every repo rebound to a single transaction.
func (r *Repository) WithTx(fn func(tx *Repository) error) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		return fn(New(tx))
	})
}
