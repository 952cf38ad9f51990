package entity

import (
	"strings"
	"time"
)

// Email Process Status
const (
	StatusPending    = "PENDING"
	StatusProcessing = "PROCESSING"
	StatusCompleted  = "COMPLETED"
	StatusFailed     = "FAILED"
	StatusSkipped    = "SKIPPED"
)

// Email is a mailbox message that may carry voucher PDFs
type Email struct {
	EmailID          string                 `bson:"emailId"`
	From             string                 `bson:"from"`
	To               string                 `bson:"to"`
	Subject          string                 `bson:"subject"`
	Body             string                 `bson:"body"`
	ReceivedAt       time.Time              `bson:"receivedAt"`
	Attachments      []Attachment           `bson:"attachments"`
	Labels           []string               `bson:"labels"`
	ProcessedAt      time.Time              `bson:"processedAt"`
	ProcessStatus    string                 `bson:"processStatus"`
	ProcessorType    string                 `bson:"processorType"`
	ProcessStartedAt time.Time              `bson:"processStartedAt"`
	ProcessSteps     ProcessSteps           `bson:"processSteps"`
	ErrorDetail      string                 `bson:"errorDetail"`
	ExtractedData    map[string]interface{} `bson:"extractedData"`
}

// Attachment is a file on an email. Data is fetched lazily and never stored.
type Attachment struct {
	AttachmentID string `bson:"attachmentId"`
	Filename     string `bson:"filename"`
	ContentType  string `bson:"contentType"`
	Size         int64  `bson:"size"`
	Data         []byte `bson:"-"`
}

// IsPDF reports whether the attachment looks like a PDF document
func (a Attachment) IsPDF() bool {
	if strings.EqualFold(a.ContentType, "application/pdf") {
		return true
	}
	return strings.HasSuffix(strings.ToLower(a.Filename), ".pdf")
}

type ProcessSteps struct {
	PDFsFound       int      `bson:"pdfsFound"`
	SessionsCreated int      `bson:"sessionsCreated"`
	SessionIDs      []string `bson:"sessionIds"`
}
