package service

import "errors"

var (
	ErrInvalidQuantity   = errors.New("quantity must be > 0")
	ErrOutOfStock        = errors.New("insufficient stock to reserve")
	ErrReservationExists = errors.New("reservation already exists for this order")
)
