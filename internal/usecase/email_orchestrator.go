package usecase

import (
	"context"
	"fmt"
	"time"

	"voucher-service/internal/domain/entity"
	"voucher-service/internal/domain/repository"
	"voucher-service/pkg/logger"
)

// pendingBatchSize bounds one ProcessPendingEmails pass
const pendingBatchSize = 100

// EmailOrchestrator routes logged mails to their handler and records the outcome
type EmailOrchestrator struct {
	emailRepo repository.EmailRepository
	router    SubjectRouter
	logger    logger.Logger
}

// NewEmailOrchestrator creates a new email orchestrator
func NewEmailOrchestrator(
	emailRepo repository.EmailRepository,
	router SubjectRouter,
	logger logger.Logger,
) *EmailOrchestrator {
	return &EmailOrchestrator{
		emailRepo: emailRepo,
		router:    router,
		logger:    logger,
	}
}

// ProcessEmail processes a single email immediately after fetching
func (o *EmailOrchestrator) ProcessEmail(ctx context.Context, email *entity.Email) error {
	handler := o.router.GetHandler(email.Subject)
	if handler == nil {
		o.logger.Debug("No handler found for email",
			"subject", email.Subject,
			"emailID", email.EmailID)

		// not an error, the mailbox query is broader than what we parse
		return o.emailRepo.MarkAsProcessedByEmailID(
			ctx,
			email.EmailID,
			entity.StatusSkipped,
			"none",
			"No matching handler found",
			map[string]interface{}{
				"subject": email.Subject,
				"reason":  "no_matching_template",
			},
		)
	}

	o.logger.Info("Processing email with handler",
		"emailID", email.EmailID,
		"handler", handler.Name(),
		"subject", email.Subject)

	if err := o.emailRepo.UpdateStatusByEmailID(ctx, email.EmailID, entity.StatusProcessing, time.Now()); err != nil {
		return fmt.Errorf("failed to update status: %w", err)
	}

	extracted, err := handler.Process(ctx, email)
	if err != nil {
		o.logger.Error("Handler failed to process email",
			"emailID", email.EmailID,
			"handler", handler.Name(),
			"error", err)

		// keep going with the other emails
		if markErr := o.emailRepo.MarkAsProcessedByEmailID(
			ctx,
			email.EmailID,
			entity.StatusFailed,
			handler.Name(),
			err.Error(),
			extracted,
		); markErr != nil {
			o.logger.Error("Failed to mark email as failed", "emailID", email.EmailID, "error", markErr)
		}
		return nil
	}

	if err := o.emailRepo.MarkAsProcessedByEmailID(
		ctx,
		email.EmailID,
		entity.StatusCompleted,
		handler.Name(),
		"",
		extracted,
	); err != nil {
		return fmt.Errorf("failed to mark email completed: %w", err)
	}

	o.logger.Info("Email processed successfully",
		"emailID", email.EmailID,
		"handler", handler.Name())

	return nil
}

// ProcessPendingEmails processes any emails that were missed or failed
func (o *EmailOrchestrator) ProcessPendingEmails(ctx context.Context) error {
	if err := o.emailRepo.ResetProcessingEmails(ctx); err != nil {
		o.logger.Error("Failed to reset stale emails", "error", err)
	}

	emails, err := o.emailRepo.FindUnprocessed(ctx, pendingBatchSize)
	if err != nil {
		return fmt.Errorf("failed to find unprocessed emails: %w", err)
	}

	if len(emails) == 0 {
		return nil
	}

	o.logger.Info("Processing pending emails", "count", len(emails))

	for _, email := range emails {
		if err := o.ProcessEmail(ctx, email); err != nil {
			o.logger.Error("Failed to process pending email",
				"emailID", email.EmailID,
				"error", err)
		}
	}

	return nil
}
