package usecase

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"voucher-service/internal/domain/entity"
	"voucher-service/internal/domain/repository"
	"voucher-service/pkg/logger"
	"voucher-service/pkg/metrics"
)

var voucherSubjectPattern = regexp.MustCompile(`(?i)\b(voucher|vouchers|booking|confirmation|reservation)\b`)

// AttachmentFetcher loads attachment bytes that were not kept in the mail log
type AttachmentFetcher interface {
	FetchAttachment(ctx context.Context, emailID, attachmentID string) ([]byte, error)
}

// VoucherIngester converts a PDF into a cached session
type VoucherIngester interface {
	Ingest(ctx context.Context, source, filename string, data []byte) (*UploadResult, error)
}

// VoucherMailHandler turns voucher PDFs attached to mails into sessions
type VoucherMailHandler struct {
	ingester  VoucherIngester
	fetcher   AttachmentFetcher
	emailRepo repository.EmailRepository
	metrics   *metrics.Metrics
	logger    logger.Logger
}

// NewVoucherMailHandler creates a new voucher mail handler
func NewVoucherMailHandler(
	ingester VoucherIngester,
	fetcher AttachmentFetcher,
	emailRepo repository.EmailRepository,
	metrics *metrics.Metrics,
	logger logger.Logger,
) *VoucherMailHandler {
	return &VoucherMailHandler{
		ingester:  ingester,
		fetcher:   fetcher,
		emailRepo: emailRepo,
		metrics:   metrics,
		logger:    logger,
	}
}

func (h *VoucherMailHandler) Name() string { return "voucher_pdf" }

// CanHandle matches voucher, booking and confirmation subjects
func (h *VoucherMailHandler) CanHandle(subject string) bool {
	return voucherSubjectPattern.MatchString(subject)
}

// Process registers every PDF attachment. One unreadable attachment does not
// stop the others; the mail fails only when no PDF could be registered.
func (h *VoucherMailHandler) Process(ctx context.Context, email *entity.Email) (map[string]interface{}, error) {
	var (
		steps    entity.ProcessSteps
		failures []error
	)

	for _, att := range email.Attachments {
		if !att.IsPDF() {
			continue
		}
		steps.PDFsFound++

		data, err := h.attachmentData(ctx, email.EmailID, att)
		if err != nil {
			failures = append(failures, fmt.Errorf("%s: %w", att.Filename, err))
			continue
		}

		res, err := h.ingester.Ingest(ctx, entity.SourceMail+":"+email.EmailID, att.Filename, data)
		if err != nil {
			h.logger.Warn("Voucher attachment rejected",
				"emailID", email.EmailID,
				"filename", att.Filename,
				"error", err)
			failures = append(failures, fmt.Errorf("%s: %w", att.Filename, err))
			continue
		}

		h.metrics.AttachmentsIngested.Inc()
		steps.SessionsCreated++
		steps.SessionIDs = append(steps.SessionIDs, res.SessionID)
	}

	if err := h.emailRepo.UpdateProcessStepsByEmailID(ctx, email.EmailID, steps); err != nil {
		h.logger.Warn("Failed to update process steps", "emailID", email.EmailID, "error", err)
	}

	extracted := map[string]interface{}{
		"pdfsFound":  steps.PDFsFound,
		"sessionIds": steps.SessionIDs,
	}

	switch {
	case steps.PDFsFound == 0:
		return extracted, errors.New("no pdf attachment found")
	case steps.SessionsCreated == 0:
		return extracted, errors.Join(failures...)
	}
	return extracted, nil
}

func (h *VoucherMailHandler) attachmentData(ctx context.Context, emailID string, att entity.Attachment) ([]byte, error) {
	if len(att.Data) > 0 {
		return att.Data, nil
	}
	if h.fetcher == nil || att.AttachmentID == "" {
		return nil, errors.New("attachment content unavailable")
	}
	return h.fetcher.FetchAttachment(ctx, emailID, att.AttachmentID)
}
