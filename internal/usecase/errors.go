package usecase

import "errors"

var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrSessionNotFound    = errors.New("session not found or expired")
	ErrConversionTimeout  = errors.New("pdf conversion timed out")
	ErrUnreadableDocument = errors.New("could not read pdf document")
	ErrDocumentTooLarge   = errors.New("document too large")
	ErrSampleUnavailable  = errors.New("sample document not available")
	ErrHistoryUnavailable = errors.New("lookup history not configured")
)
