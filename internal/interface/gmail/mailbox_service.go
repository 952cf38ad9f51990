package gmail

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"voucher-service/internal/domain/entity"
	"voucher-service/internal/domain/repository"
	"voucher-service/internal/usecase"
	"voucher-service/pkg/logger"

	"golang.org/x/oauth2"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
)

// initialLookback is how far back the first poll reaches on an empty mail log
const initialLookback = 7 * 24 * time.Hour

// MailboxService polls Gmail for voucher mails and hands them to the orchestrator
type MailboxService struct {
	gmailService *gmail.Service
	emailRepo    repository.EmailRepository
	orchestrator *usecase.EmailOrchestrator
	logger       logger.Logger
	pollInterval time.Duration
	query        string
}

// NewMailboxService creates a new Gmail mailbox poller
func NewMailboxService(
	ctx context.Context,
	tokenSource oauth2.TokenSource,
	emailRepo repository.EmailRepository,
	logger logger.Logger,
	pollInterval time.Duration,
	query string,
) (*MailboxService, error) {
	service, err := gmail.NewService(ctx, option.WithTokenSource(tokenSource))
	if err != nil {
		return nil, err
	}

	return &MailboxService{
		gmailService: service,
		emailRepo:    emailRepo,
		logger:       logger,
		pollInterval: pollInterval,
		query:        query,
	}, nil
}

// SetOrchestrator attaches the orchestrator. The voucher handler needs this
// service as its attachment fetcher, so the two are wired in two steps.
func (s *MailboxService) SetOrchestrator(o *usecase.EmailOrchestrator) {
	s.orchestrator = o
}

// StartPolling polls Gmail and processes emails immediately
func (s *MailboxService) StartPolling(ctx context.Context) {
	if err := s.orchestrator.ProcessPendingEmails(ctx); err != nil {
		s.logger.Error("Failed to process pending emails on startup", "error", err)
	}
	if err := s.FetchAndProcessEmails(ctx); err != nil {
		s.logger.Error("Error polling Gmail", "error", err)
	}

	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Gmail polling stopped")
			return
		case <-ticker.C:
			s.logger.Debug("Polling Gmail for new emails")
			if err := s.FetchAndProcessEmails(ctx); err != nil {
				s.logger.Error("Error polling Gmail", "error", err)
			}
		}
	}
}

// FetchAndProcessEmails fetches new emails and processes them immediately
func (s *MailboxService) FetchAndProcessEmails(ctx context.Context) error {
	lastEmail, err := s.emailRepo.GetLastEmail(ctx)
	if err != nil {
		s.logger.Error("Failed to get last email", "error", err)
	}

	fetchFrom := time.Now().Add(-initialLookback)
	if lastEmail != nil {
		fetchFrom = lastEmail.ReceivedAt
	}

	resp, err := s.gmailService.Users.Messages.List("me").
		Q(buildQuery(s.query, fetchFrom)).
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("failed to list messages: %w", err)
	}

	if len(resp.Messages) == 0 {
		s.logger.Debug("No new messages found")
		return nil
	}

	emailIDs := make([]string, len(resp.Messages))
	for i, msg := range resp.Messages {
		emailIDs[i] = msg.Id
	}

	existingEmails, err := s.emailRepo.FindByEmailIDs(ctx, emailIDs)
	if err != nil {
		s.logger.Error("Failed to check existing emails", "error", err)
		existingEmails = make(map[string]*entity.Email)
	}

	newCount := 0
	processedCount := 0

	for _, msg := range resp.Messages {
		if _, exists := existingEmails[msg.Id]; exists {
			continue
		}

		fullMsg, err := s.gmailService.Users.Messages.Get("me", msg.Id).Context(ctx).Do()
		if err != nil {
			s.logger.Error("Failed to get message", "msgId", msg.Id, "error", err)
			continue
		}

		email, err := toEmail(fullMsg)
		if err != nil {
			s.logger.Error("Failed to convert message", "msgId", msg.Id, "error", err)
			continue
		}

		if err := s.emailRepo.Save(ctx, email); err != nil {
			s.logger.Error("Failed to save email", "emailID", email.EmailID, "error", err)
			continue
		}
		newCount++

		if err := s.orchestrator.ProcessEmail(ctx, email); err != nil {
			s.logger.Error("Failed to process email", "emailID", email.EmailID, "error", err)
		} else {
			processedCount++
		}
	}

	s.logger.Info("Email fetch and process completed",
		"totalMessages", len(resp.Messages),
		"newEmails", newCount,
		"processedEmails", processedCount)

	return nil
}

// FetchAttachment downloads one attachment body
func (s *MailboxService) FetchAttachment(ctx context.Context, emailID, attachmentID string) ([]byte, error) {
	body, err := s.gmailService.Users.Messages.Attachments.Get("me", emailID, attachmentID).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("get attachment %s: %w", attachmentID, err)
	}
	return decodeBody(body.Data)
}

func buildQuery(base string, after time.Time) string {
	q := fmt.Sprintf("after:%s", after.Format("2006/01/02"))
	if base = strings.TrimSpace(base); base != "" {
		q = base + " " + q
	}
	return q
}

// toEmail converts a Gmail message to the mail log entity. Attachment bodies
// are kept only when Gmail inlined them.
func toEmail(msg *gmail.Message) (*entity.Email, error) {
	email := &entity.Email{
		EmailID:       msg.Id,
		Labels:        msg.LabelIds,
		ProcessStatus: entity.StatusPending,
		ReceivedAt:    time.UnixMilli(msg.InternalDate),
	}
	if msg.Payload == nil {
		return email, nil
	}

	for _, header := range msg.Payload.Headers {
		switch header.Name {
		case "From":
			email.From = header.Value
		case "To":
			email.To = header.Value
		case "Subject":
			email.Subject = header.Value
		}
	}

	if err := collectParts(email, msg.Payload); err != nil {
		return nil, err
	}
	return email, nil
}

func collectParts(email *entity.Email, part *gmail.MessagePart) error {
	switch {
	case part.Filename != "":
		att := entity.Attachment{
			Filename:    part.Filename,
			ContentType: part.MimeType,
		}
		if part.Body != nil {
			att.AttachmentID = part.Body.AttachmentId
			att.Size = part.Body.Size
			if part.Body.Data != "" {
				data, err := decodeBody(part.Body.Data)
				if err != nil {
					return fmt.Errorf("attachment %s: %w", part.Filename, err)
				}
				att.Data = data
			}
		}
		email.Attachments = append(email.Attachments, att)
	case part.MimeType == "text/plain" && part.Body != nil && part.Body.Data != "" && email.Body == "":
		data, err := decodeBody(part.Body.Data)
		if err != nil {
			return err
		}
		email.Body = string(data)
	}

	for _, child := range part.Parts {
		if err := collectParts(email, child); err != nil {
			return err
		}
	}
	return nil
}

// decodeBody accepts Gmail's base64url with or without padding
func decodeBody(data string) ([]byte, error) {
	if strings.HasSuffix(data, "=") {
		return base64.URLEncoding.DecodeString(data)
	}
	return base64.RawURLEncoding.DecodeString(data)
}
