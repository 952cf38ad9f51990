package usecase

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"voucher-service/internal/domain/entity"
	"voucher-service/internal/infrastructure/session"
	"voucher-service/pkg/logger"
	"voucher-service/pkg/metrics"
	"voucher-service/pkg/voucher"
)

var testNow = time.Date(2025, 6, 15, 9, 0, 0, 0, time.UTC)

var voucherPages = []voucher.Page{
	{Number: 1, Text: "Booking 123456\nMr John Doe 01-01-90\nFlight 1234 Departure time 10:30"},
	{Number: 2, Text: "Booking 555555\nMrs Jane Roe 02-02-91"},
}

type fakeExtractor struct {
	pages []voucher.Page
	err   error
	block bool
	delay time.Duration // slept without watching ctx
	calls int
}

func (f *fakeExtractor) Extract(ctx context.Context, data []byte) ([]voucher.Page, error) {
	f.calls++
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if f.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return f.pages, f.err
}

type fakeDocumentRepo struct {
	mu   sync.Mutex
	docs map[string]*entity.VoucherDocument
	err  error
}

func newFakeDocumentRepo() *fakeDocumentRepo {
	return &fakeDocumentRepo{docs: make(map[string]*entity.VoucherDocument)}
}

func (r *fakeDocumentRepo) Save(ctx context.Context, doc *entity.VoucherDocument) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.docs[doc.SessionID] = doc
	return nil
}

func (r *fakeDocumentRepo) FindBySessionID(ctx context.Context, sessionID string) (*entity.VoucherDocument, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.docs[sessionID], nil
}

type fakeLookupRepo struct {
	records []*entity.BookingLookup
	err     error // returned by reads
}

func (r *fakeLookupRepo) Create(ctx context.Context, lookup *entity.BookingLookup) error {
	lookup.ID = uint(len(r.records) + 1)
	r.records = append(r.records, lookup)
	return nil
}

func (r *fakeLookupRepo) FindByBookingNumber(ctx context.Context, bookingNumber string, limit int) ([]*entity.BookingLookup, error) {
	if r.err != nil {
		return nil, r.err
	}
	var out []*entity.BookingLookup
	for i := len(r.records) - 1; i >= 0 && len(out) < limit; i-- {
		if r.records[i].BookingNumber == bookingNumber {
			out = append(out, r.records[i])
		}
	}
	return out, nil
}

type fakeAirlineRepo map[string]string

func (r fakeAirlineRepo) GetByName(ctx context.Context, name string) (*entity.Airline, error) {
	if code, ok := r[name]; ok {
		return &entity.Airline{Code: code, Name: name}, nil
	}
	return nil, errors.New("record not found")
}

type fakeEmailRepo struct {
	mu     sync.Mutex
	emails map[string]*entity.Email
	steps  map[string]entity.ProcessSteps
	resets int
}

func newFakeEmailRepo(emails ...*entity.Email) *fakeEmailRepo {
	r := &fakeEmailRepo{
		emails: make(map[string]*entity.Email),
		steps:  make(map[string]entity.ProcessSteps),
	}
	for _, e := range emails {
		r.emails[e.EmailID] = e
	}
	return r
}

func (r *fakeEmailRepo) Save(ctx context.Context, email *entity.Email) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if email.ProcessStatus == "" {
		email.ProcessStatus = entity.StatusPending
	}
	r.emails[email.EmailID] = email
	return nil
}

func (r *fakeEmailRepo) FindUnprocessed(ctx context.Context, limit int) ([]*entity.Email, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.Email
	for _, e := range r.emails {
		if e.ProcessStatus == "" || e.ProcessStatus == entity.StatusPending {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *fakeEmailRepo) GetLastEmail(ctx context.Context) (*entity.Email, error) { return nil, nil }

func (r *fakeEmailRepo) ResetProcessingEmails(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.emails {
		if e.ProcessStatus == entity.StatusProcessing {
			e.ProcessStatus = entity.StatusPending
			r.resets++
		}
	}
	return nil
}

func (r *fakeEmailRepo) FindByEmailIDs(ctx context.Context, emailIDs []string) (map[string]*entity.Email, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]*entity.Email)
	for _, id := range emailIDs {
		if e, ok := r.emails[id]; ok {
			out[id] = e
		}
	}
	return out, nil
}

func (r *fakeEmailRepo) UpdateStatusByEmailID(ctx context.Context, emailID string, status string, startedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.emails[emailID]
	if !ok {
		return errors.New("no document found")
	}
	e.ProcessStatus = status
	e.ProcessStartedAt = startedAt
	return nil
}

func (r *fakeEmailRepo) MarkAsProcessedByEmailID(ctx context.Context, emailID, status, processorType, errorDetail string, extractedData map[string]interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.emails[emailID]
	if !ok {
		return errors.New("no document found")
	}
	e.ProcessStatus = status
	e.ProcessorType = processorType
	e.ErrorDetail = errorDetail
	e.ExtractedData = extractedData
	return nil
}

func (r *fakeEmailRepo) UpdateProcessStepsByEmailID(ctx context.Context, emailID string, steps entity.ProcessSteps) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.steps[emailID] = steps
	return nil
}

func (r *fakeEmailRepo) status(emailID string) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.emails[emailID].ProcessStatus
}

func newTestMetrics() *metrics.Metrics {
	return metrics.NewMetrics("test", prometheus.NewRegistry())
}

func newTestService(ext *fakeExtractor, opts ...ServiceOption) *BookingService {
	log := logger.NewNopLogger()
	parser := voucher.NewParser(log).WithClock(func() time.Time { return testNow })
	store := session.NewStore[*Document](30 * time.Minute).WithClock(func() time.Time { return testNow })

	cfg := ServiceConfig{
		ConvertTimeout: time.Second,
		MaxUploadBytes: 1 << 20,
		SamplePath:     "testdata/missing-sample.pdf",
	}
	opts = append([]ServiceOption{WithServiceClock(func() time.Time { return testNow })}, opts...)
	return NewBookingService(ext, parser, store, cfg, newTestMetrics(), log, opts...)
}
