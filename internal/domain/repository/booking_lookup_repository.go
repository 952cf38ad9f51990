package repository

import (
	"context"

	"voucher-service/internal/domain/entity"
)

// BookingLookupRepository stores the search audit trail
type BookingLookupRepository interface {
	Create(ctx context.Context, lookup *entity.BookingLookup) error
	FindByBookingNumber(ctx context.Context, bookingNumber string, limit int) ([]*entity.BookingLookup, error)
}
