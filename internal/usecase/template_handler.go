package usecase

import (
	"context"

	"voucher-service/internal/domain/entity"
)

// TemplateHandler handles one family of inbound mails
type TemplateHandler interface {
	// CanHandle determines if this handler can process the given email subject
	CanHandle(subject string) bool

	// Process consumes the email. The returned map is stored on the mail log.
	Process(ctx context.Context, email *entity.Email) (map[string]interface{}, error)

	// Name identifies the handler in the mail log
	Name() string
}

// SubjectRouter routes emails to the appropriate handler based on subject
type SubjectRouter interface {
	// Register registers a handler for specific subject patterns
	Register(handler TemplateHandler)

	// GetHandler returns the appropriate handler for a given subject
	GetHandler(subject string) TemplateHandler
}
