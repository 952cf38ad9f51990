package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"voucher-service/internal/domain/entity"
	"voucher-service/internal/domain/repository"
	"voucher-service/internal/infrastructure/pdftext"
	"voucher-service/internal/infrastructure/session"
	"voucher-service/pkg/logger"
	"voucher-service/pkg/metrics"
	"voucher-service/pkg/voucher"
)

// Lookup outcomes recorded in metrics
const (
	outcomeFound          = "found"
	outcomeNotFound       = "not_found"
	outcomeSessionMissing = "session_missing"
)

// ServiceConfig holds the knobs BookingService needs from the app config
type ServiceConfig struct {
	ConvertTimeout  time.Duration
	MaxUploadBytes  int64
	SamplePath      string
	ArrivalPrefix   string
	DeparturePrefix string
}

// Document is a converted PDF held by the session cache
type Document struct {
	SessionID string
	Filename  string
	Source    string
	Pages     []voucher.Page
	Index     *voucher.BookingIndex
	CreatedAt time.Time
}

// Prefixes are per-request flight number prefixes. Empty fields fall back to
// the configured defaults.
type Prefixes struct {
	Arrival   string
	Departure string
}

// UploadResult describes a freshly cached document
type UploadResult struct {
	SessionID string   `json:"sessionId"`
	Pages     int      `json:"pages"`
	Bookings  []string `json:"bookings"`
	Filename  string   `json:"filename"`
}

// AirlineCodes are catalog codes for the detected carriers
type AirlineCodes struct {
	Arrival   *string `json:"arrival"`
	Departure *string `json:"departure"`
}

// LookupResult is a booking result plus request echo fields
type LookupResult struct {
	*voucher.BookingResult
	Booking      string        `json:"booking"`
	SessionID    string        `json:"sessionId,omitempty"`
	AirlineCodes *AirlineCodes `json:"airline_codes,omitempty"`
}

// SessionSummary is a listing entry for an active session
type SessionSummary struct {
	SessionID string    `json:"sessionId"`
	Filename  string    `json:"filename"`
	Source    string    `json:"source"`
	Pages     int       `json:"pages"`
	Bookings  int       `json:"bookings"`
	CreatedAt time.Time `json:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// LookupRecord is one audited search of a booking number
type LookupRecord struct {
	SessionID string    `json:"sessionId"`
	Found     bool      `json:"found"`
	Status    string    `json:"status,omitempty"`
	Service   string    `json:"service,omitempty"`
	PaxAdult  int       `json:"pax_adult"`
	PaxChild  int       `json:"pax_child"`
	CreatedAt time.Time `json:"createdAt"`
}

// History limits
const (
	DefaultHistoryLimit = 20
	MaxHistoryLimit     = 100
)

// BookingService converts vouchers, caches them per session and answers lookups
type BookingService struct {
	extractor pdftext.Extractor
	parser    *voucher.Parser
	sessions  *session.Store[*Document]
	documents repository.DocumentRepository
	lookups   repository.BookingLookupRepository
	airlines  repository.AirlineRepository
	metrics   *metrics.Metrics
	logger    logger.Logger
	cfg       ServiceConfig
	now       func() time.Time
}

// ServiceOption wires an optional dependency
type ServiceOption func(*BookingService)

// WithDocumentArchive persists sessions so they can be reloaded after a restart
func WithDocumentArchive(repo repository.DocumentRepository) ServiceOption {
	return func(s *BookingService) { s.documents = repo }
}

// WithLookupAudit records every search
func WithLookupAudit(repo repository.BookingLookupRepository) ServiceOption {
	return func(s *BookingService) { s.lookups = repo }
}

// WithAirlineCatalog maps detected carriers to catalog codes
func WithAirlineCatalog(repo repository.AirlineRepository) ServiceOption {
	return func(s *BookingService) { s.airlines = repo }
}

// WithServiceClock replaces time.Now for session timestamps
func WithServiceClock(now func() time.Time) ServiceOption {
	return func(s *BookingService) { s.now = now }
}

// NewBookingService creates a new booking service
func NewBookingService(
	extractor pdftext.Extractor,
	parser *voucher.Parser,
	sessions *session.Store[*Document],
	cfg ServiceConfig,
	metrics *metrics.Metrics,
	logger logger.Logger,
	opts ...ServiceOption,
) *BookingService {
	s := &BookingService{
		extractor: extractor,
		parser:    parser,
		sessions:  sessions,
		metrics:   metrics,
		logger:    logger,
		cfg:       cfg,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Upload converts a PDF and caches it under a new session id
func (s *BookingService) Upload(ctx context.Context, filename string, data []byte) (*UploadResult, error) {
	return s.Ingest(ctx, entity.SourceUpload, filename, data)
}

// Ingest converts a PDF from any source and registers the pages
func (s *BookingService) Ingest(ctx context.Context, source, filename string, data []byte) (*UploadResult, error) {
	pages, err := s.convert(ctx, data)
	if err != nil {
		return nil, err
	}
	return s.Register(ctx, source, filename, pages)
}

// Register caches already extracted pages under a new session id
func (s *BookingService) Register(ctx context.Context, source, filename string, pages []voucher.Page) (*UploadResult, error) {
	doc := &Document{
		SessionID: uuid.NewString(),
		Filename:  filename,
		Source:    source,
		Pages:     pages,
		Index:     voucher.NewIndex(pages),
		CreatedAt: s.now(),
	}

	s.sessions.Insert(doc.SessionID, doc, doc.CreatedAt)
	s.metrics.DocumentsUploaded.Inc()
	s.metrics.ActiveSessions.Set(float64(s.sessions.Len()))

	if s.documents != nil {
		err := s.documents.Save(ctx, &entity.VoucherDocument{
			SessionID: doc.SessionID,
			Filename:  filename,
			Source:    source,
			Pages:     pages,
			CreatedAt: doc.CreatedAt,
		})
		if err != nil {
			// the in-memory session still works
			s.metrics.ErrorsCount.WithLabelValues("archive_document").Inc()
			s.logger.Warn("Failed to archive document", "sessionID", doc.SessionID, "error", err)
		}
	}

	s.logger.Info("Document registered",
		"sessionID", doc.SessionID,
		"filename", filename,
		"source", source,
		"pages", len(pages),
		"bookings", doc.Index.Len())

	return &UploadResult{
		SessionID: doc.SessionID,
		Pages:     len(pages),
		Bookings:  doc.Index.Tokens(),
		Filename:  filename,
	}, nil
}

// Search looks a booking up in a cached session
func (s *BookingService) Search(ctx context.Context, sessionID, booking string, prefixes Prefixes) (*LookupResult, error) {
	sessionID = strings.TrimSpace(sessionID)
	booking = strings.TrimSpace(booking)
	if sessionID == "" || booking == "" {
		return nil, fmt.Errorf("%w: booking and sessionId are required", ErrInvalidInput)
	}

	doc, err := s.session(ctx, sessionID)
	if err != nil {
		s.metrics.Lookups.WithLabelValues(outcomeSessionMissing).Inc()
		return nil, err
	}

	res, err := s.extract(doc.Pages, booking, prefixes, doc.Index.Lookup(booking))
	s.audit(ctx, sessionID, booking, res)
	if err != nil {
		return nil, err
	}

	return &LookupResult{
		BookingResult: res,
		Booking:       booking,
		SessionID:     sessionID,
		AirlineCodes:  s.airlineCodes(ctx, res.Airline),
	}, nil
}

// ParseDocument converts and searches a PDF in one call without caching it
func (s *BookingService) ParseDocument(ctx context.Context, filename string, data []byte, booking string, prefixes Prefixes) (*LookupResult, error) {
	booking = strings.TrimSpace(booking)
	if booking == "" {
		return nil, fmt.Errorf("%w: booking is required", ErrInvalidInput)
	}

	pages, err := s.convert(ctx, data)
	if err != nil {
		return nil, err
	}

	res, err := s.extract(pages, booking, prefixes, nil)
	s.audit(ctx, "", booking, res)
	if err != nil {
		return nil, err
	}

	s.logger.Debug("One-shot parse done", "filename", filename, "booking", booking)
	return &LookupResult{
		BookingResult: res,
		Booking:       booking,
		AirlineCodes:  s.airlineCodes(ctx, res.Airline),
	}, nil
}

// ParseSample runs a one-shot parse against the bundled sample voucher
func (s *BookingService) ParseSample(ctx context.Context, booking string, prefixes Prefixes) (*LookupResult, error) {
	if strings.TrimSpace(booking) == "" {
		return nil, fmt.Errorf("%w: booking is required", ErrInvalidInput)
	}

	data, err := os.ReadFile(s.cfg.SamplePath)
	if err != nil {
		s.logger.Warn("Sample document unreadable", "path", s.cfg.SamplePath, "error", err)
		return nil, fmt.Errorf("%w: %s", ErrSampleUnavailable, s.cfg.SamplePath)
	}
	return s.ParseDocument(ctx, s.cfg.SamplePath, data, booking, prefixes)
}

// Sessions lists the live sessions, oldest first
func (s *BookingService) Sessions() []SessionSummary {
	infos := s.sessions.List()
	out := make([]SessionSummary, 0, len(infos))
	for _, info := range infos {
		doc, ok := s.sessions.Get(info.Key)
		if !ok {
			continue
		}
		out = append(out, SessionSummary{
			SessionID: doc.SessionID,
			Filename:  doc.Filename,
			Source:    doc.Source,
			Pages:     len(doc.Pages),
			Bookings:  doc.Index.Len(),
			CreatedAt: info.CreatedAt,
			ExpiresAt: info.ExpiresAt,
		})
	}
	return out
}

// History lists the most recent audited searches for booking, newest first.
func (s *BookingService) History(ctx context.Context, booking string, limit int) ([]LookupRecord, error) {
	booking = strings.TrimSpace(booking)
	if booking == "" {
		return nil, fmt.Errorf("%w: booking required", ErrInvalidInput)
	}
	if s.lookups == nil {
		return nil, ErrHistoryUnavailable
	}
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	limit = min(limit, MaxHistoryLimit)

	rows, err := s.lookups.FindByBookingNumber(ctx, booking, limit)
	if err != nil {
		s.metrics.ErrorsCount.WithLabelValues("lookup_history").Inc()
		return nil, fmt.Errorf("load lookup history: %w", err)
	}

	out := make([]LookupRecord, 0, len(rows))
	for _, r := range rows {
		out = append(out, LookupRecord{
			SessionID: r.SessionID,
			Found:     r.Found,
			Status:    r.Status,
			Service:   r.Service,
			PaxAdult:  r.PaxAdult,
			PaxChild:  r.PaxChild,
			CreatedAt: r.CreatedAt,
		})
	}
	return out, nil
}

// CacheSize is the number of stored sessions, expired ones included until swept
func (s *BookingService) CacheSize() int {
	return s.sessions.Len()
}

// session returns a cached document, reloading it from the archive when the
// process restarted inside the session lifetime.
func (s *BookingService) session(ctx context.Context, sessionID string) (*Document, error) {
	if doc, ok := s.sessions.Get(sessionID); ok {
		return doc, nil
	}
	if s.documents == nil {
		return nil, ErrSessionNotFound
	}

	archived, err := s.documents.FindBySessionID(ctx, sessionID)
	if err != nil {
		s.metrics.ErrorsCount.WithLabelValues("load_document").Inc()
		return nil, fmt.Errorf("load archived session: %w", err)
	}
	if archived == nil || s.now().Sub(archived.CreatedAt) > s.sessions.TTL() {
		return nil, ErrSessionNotFound
	}

	doc := &Document{
		SessionID: archived.SessionID,
		Filename:  archived.Filename,
		Source:    archived.Source,
		Pages:     archived.Pages,
		Index:     voucher.NewIndex(archived.Pages),
		CreatedAt: archived.CreatedAt,
	}
	s.sessions.Insert(doc.SessionID, doc, doc.CreatedAt)
	s.metrics.ActiveSessions.Set(float64(s.sessions.Len()))
	s.logger.Info("Session restored from archive", "sessionID", sessionID)
	return doc, nil
}

func (s *BookingService) convert(ctx context.Context, data []byte) ([]voucher.Page, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty file", ErrInvalidInput)
	}
	if s.cfg.MaxUploadBytes > 0 && int64(len(data)) > s.cfg.MaxUploadBytes {
		return nil, fmt.Errorf("%w: %d bytes exceeds %d", ErrDocumentTooLarge, len(data), s.cfg.MaxUploadBytes)
	}

	cctx, cancel := context.WithTimeout(ctx, s.cfg.ConvertTimeout)
	defer cancel()

	type extraction struct {
		pages []voucher.Page
		err   error
	}
	// buffered so a worker that outlives the deadline can still finish and exit
	done := make(chan extraction, 1)

	start := time.Now()
	go func() {
		pages, err := s.extractor.Extract(cctx, data)
		done <- extraction{pages: pages, err: err}
	}()

	var pages []voucher.Page
	var err error
	select {
	case res := <-done:
		pages, err = res.pages, res.err
	case <-cctx.Done():
		err = cctx.Err()
	}
	s.metrics.ConversionTime.Observe(time.Since(start).Seconds())

	if err != nil {
		s.metrics.ErrorsCount.WithLabelValues("convert").Inc()
		switch {
		case errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil:
			return nil, ErrConversionTimeout
		case errors.Is(err, pdftext.ErrUnreadable):
			return nil, fmt.Errorf("%w: %v", ErrUnreadableDocument, err)
		default:
			return nil, fmt.Errorf("convert pdf: %w", err)
		}
	}

	s.metrics.PagesExtracted.Add(float64(len(pages)))
	return pages, nil
}

func (s *BookingService) extract(pages []voucher.Page, booking string, prefixes Prefixes, matched []voucher.Page) (*voucher.BookingResult, error) {
	opts := voucher.Options{
		ArrivalPrefix:   firstNonEmpty(prefixes.Arrival, s.cfg.ArrivalPrefix),
		DeparturePrefix: firstNonEmpty(prefixes.Departure, s.cfg.DeparturePrefix),
		PreMatched:      matched,
	}

	start := time.Now()
	res, err := s.parser.Parse(pages, booking, opts)
	s.metrics.ExtractionTime.Observe(time.Since(start).Seconds())

	if err != nil {
		s.metrics.Lookups.WithLabelValues(outcomeNotFound).Inc()
		return nil, err
	}
	s.metrics.Lookups.WithLabelValues(outcomeFound).Inc()
	return res, nil
}

func (s *BookingService) airlineCodes(ctx context.Context, pair voucher.AirlinePair) *AirlineCodes {
	if s.airlines == nil || (pair.Arrival == nil && pair.Departure == nil) {
		return nil
	}

	codes := &AirlineCodes{
		Arrival:   s.airlineCode(ctx, pair.Arrival),
		Departure: s.airlineCode(ctx, pair.Departure),
	}
	if codes.Arrival == nil && codes.Departure == nil {
		return nil
	}
	return codes
}

func (s *BookingService) airlineCode(ctx context.Context, name *string) *string {
	if name == nil {
		return nil
	}
	airline, err := s.airlines.GetByName(ctx, *name)
	if err != nil {
		s.logger.Debug("Airline not in catalog", "name", *name, "error", err)
		return nil
	}
	return &airline.Code
}

// audit writes the lookup trail; failures only log.
func (s *BookingService) audit(ctx context.Context, sessionID, booking string, res *voucher.BookingResult) {
	if s.lookups == nil {
		return
	}

	record := &entity.BookingLookup{
		SessionID:     sessionID,
		BookingNumber: booking,
		Found:         res != nil,
	}
	if res != nil {
		record.Status = deref(res.Status)
		record.Service = deref(res.Service)
		record.PaxAdult = res.PaxAdult
		record.PaxChild = res.PaxChild
		if raw, err := json.Marshal(res); err == nil {
			record.Result = raw
		}
	}

	if err := s.lookups.Create(ctx, record); err != nil {
		s.metrics.ErrorsCount.WithLabelValues("audit_lookup").Inc()
		s.logger.Warn("Failed to record lookup", "booking", booking, "error", err)
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
