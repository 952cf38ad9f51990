package entity

import (
	"time"

	"voucher-service/pkg/voucher"
)

// Document sources
const (
	SourceUpload = "upload"
	SourceMail   = "mail"
)

// VoucherDocument is the archived page text of a converted PDF
type VoucherDocument struct {
	SessionID string         `bson:"sessionId"`
	Filename  string         `bson:"filename"`
	Source    string         `bson:"source"`
	Pages     []voucher.Page `bson:"pages"`
	CreatedAt time.Time      `bson:"createdAt"`
}
