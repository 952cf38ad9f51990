package repository

import (
	"context"
	"time"

	"voucher-service/internal/domain/entity"
)

// EmailRepository defines the interface for mail log storage operations
type EmailRepository interface {
	Save(ctx context.Context, email *entity.Email) error
	FindUnprocessed(ctx context.Context, limit int) ([]*entity.Email, error)
	GetLastEmail(ctx context.Context) (*entity.Email, error)
	ResetProcessingEmails(ctx context.Context) error
	FindByEmailIDs(ctx context.Context, emailIDs []string) (map[string]*entity.Email, error)
	UpdateStatusByEmailID(ctx context.Context, emailID string, status string, startedAt time.Time) error
	MarkAsProcessedByEmailID(ctx context.Context, emailID, status, processorType, errorDetail string, extractedData map[string]interface{}) error
	UpdateProcessStepsByEmailID(ctx context.Context, emailID string, steps entity.ProcessSteps) error
}
