package repository

import (
	"context"

	"voucher-service/internal/domain/entity"
)

// AirlineRepository defines the interface for airline catalog lookups
type AirlineRepository interface {
	GetByName(ctx context.Context, name string) (*entity.Airline, error)
}
