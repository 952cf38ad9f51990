package repository

import (
	"context"

	"voucher-service/internal/domain/entity"
)

// DocumentRepository archives converted documents so sessions survive restarts
type DocumentRepository interface {
	Save(ctx context.Context, doc *entity.VoucherDocument) error
	FindBySessionID(ctx context.Context, sessionID string) (*entity.VoucherDocument, error)
}
