package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"voucher-service/internal/usecase"
	"voucher-service/pkg/logger"
	"voucher-service/pkg/voucher"
)

type fakeBookingService struct {
	err         error
	lastBooking string
	lastPrefix  usecase.Prefixes
	lastData    []byte
	lastLimit   int
}

func (f *fakeBookingService) result(booking, sessionID string) *usecase.LookupResult {
	return &usecase.LookupResult{
		BookingResult: &voucher.BookingResult{Passengers: []string{"Mr John Doe"}, PaxAdult: 1},
		Booking:       booking,
		SessionID:     sessionID,
	}
}

func (f *fakeBookingService) Upload(ctx context.Context, filename string, data []byte) (*usecase.UploadResult, error) {
	f.lastData = data
	if f.err != nil {
		return nil, f.err
	}
	return &usecase.UploadResult{SessionID: "sess-1", Pages: 3, Bookings: []string{"123456"}, Filename: filename}, nil
}

func (f *fakeBookingService) Search(ctx context.Context, sessionID, booking string, p usecase.Prefixes) (*usecase.LookupResult, error) {
	f.lastBooking, f.lastPrefix = booking, p
	if f.err != nil {
		return nil, f.err
	}
	return f.result(booking, sessionID), nil
}

func (f *fakeBookingService) ParseDocument(ctx context.Context, filename string, data []byte, booking string, p usecase.Prefixes) (*usecase.LookupResult, error) {
	f.lastBooking, f.lastPrefix, f.lastData = booking, p, data
	if f.err != nil {
		return nil, f.err
	}
	return f.result(booking, ""), nil
}

func (f *fakeBookingService) ParseSample(ctx context.Context, booking string, p usecase.Prefixes) (*usecase.LookupResult, error) {
	f.lastBooking = booking
	if f.err != nil {
		return nil, f.err
	}
	return f.result(booking, ""), nil
}

func (f *fakeBookingService) Sessions() []usecase.SessionSummary {
	return []usecase.SessionSummary{{SessionID: "sess-1", Pages: 3}}
}

func (f *fakeBookingService) History(ctx context.Context, booking string, limit int) ([]usecase.LookupRecord, error) {
	f.lastBooking, f.lastLimit = booking, limit
	if f.err != nil {
		return nil, f.err
	}
	return []usecase.LookupRecord{{SessionID: "sess-1", Found: true, PaxAdult: 1}}, nil
}

func (f *fakeBookingService) CacheSize() int { return 1 }

func newTestRouter(svc *fakeBookingService, maxUpload int64) *gin.Engine {
	gin.SetMode(gin.TestMode)
	return SetupRouter(NewBookingHandler(svc, maxUpload), RouterConfig{Version: "test"}, logger.NewNopLogger())
}

func multipartBody(t *testing.T, fields map[string]string, file []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			t.Fatal(err)
		}
	}
	if file != nil {
		fw, err := w.CreateFormFile("file", "voucher.pdf")
		if err != nil {
			t.Fatal(err)
		}
		fw.Write(file)
	}
	w.Close()
	return &buf, w.FormDataContentType()
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return body
}

func TestHealth(t *testing.T) {
	r := newTestRouter(&fakeBookingService{}, 0)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := decode(t, rec)
	if body["status"] != "ok" || body["sessions"] != float64(1) || body["version"] != "test" {
		t.Errorf("body = %v", body)
	}
}

func TestUpload(t *testing.T) {
	svc := &fakeBookingService{}
	r := newTestRouter(svc, 0)

	buf, ct := multipartBody(t, nil, []byte("%PDF-1.4"))
	req := httptest.NewRequest(http.MethodPost, "/api/upload", buf)
	req.Header.Set("Content-Type", ct)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body = %s", rec.Code, rec.Body)
	}
	body := decode(t, rec)
	if body["sessionId"] != "sess-1" || body["pages"] != float64(3) || body["filename"] != "voucher.pdf" {
		t.Errorf("body = %v", body)
	}
	if string(svc.lastData) != "%PDF-1.4" {
		t.Errorf("service got %q", svc.lastData)
	}
}

func TestUploadReadsOnePastLimit(t *testing.T) {
	svc := &fakeBookingService{}
	r := newTestRouter(svc, 4)

	buf, ct := multipartBody(t, nil, []byte("0123456789"))
	req := httptest.NewRequest(http.MethodPost, "/api/upload", buf)
	req.Header.Set("Content-Type", ct)
	r.ServeHTTP(httptest.NewRecorder(), req)

	if len(svc.lastData) != 5 {
		t.Errorf("service got %d bytes, want 5", len(svc.lastData))
	}
}

func TestUploadWithoutFile(t *testing.T) {
	r := newTestRouter(&fakeBookingService{}, 0)
	buf, ct := multipartBody(t, map[string]string{"x": "y"}, nil)
	req := httptest.NewRequest(http.MethodPost, "/api/upload", buf)
	req.Header.Set("Content-Type", ct)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest || decode(t, rec)["detail"] != "file required" {
		t.Errorf("status = %d body = %s", rec.Code, rec.Body)
	}
}

func TestSearchFormAndJSON(t *testing.T) {
	svc := &fakeBookingService{}
	r := newTestRouter(svc, 0)

	form := url.Values{"booking": {"123456"}, "sessionId": {"sess-1"}, "departurePrefix": {"TG"}}
	req := httptest.NewRequest(http.MethodPost, "/api/search", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("form status = %d body = %s", rec.Code, rec.Body)
	}
	body := decode(t, rec)
	if body["booking"] != "123456" || body["sessionId"] != "sess-1" || body["pax_adult"] != float64(1) {
		t.Errorf("body = %v", body)
	}
	if svc.lastPrefix.Departure != "TG" {
		t.Errorf("prefix = %+v", svc.lastPrefix)
	}

	req = httptest.NewRequest(http.MethodPost, "/api/search", strings.NewReader(`{"booking":"555555","sessionId":"sess-1"}`))
	req.Header.Set("Content-Type", "application/json")
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK || svc.lastBooking != "555555" {
		t.Errorf("json status = %d booking = %q", rec.Code, svc.lastBooking)
	}
}

func TestSearchMissingFields(t *testing.T) {
	r := newTestRouter(&fakeBookingService{}, 0)
	req := httptest.NewRequest(http.MethodPost, "/api/search", strings.NewReader(`{"booking":"123456"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest || decode(t, rec)["detail"] != "booking and sessionId required" {
		t.Errorf("status = %d body = %s", rec.Code, rec.Body)
	}
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		err        error
		wantStatus int
		wantDetail string
	}{
		{usecase.ErrSessionNotFound, http.StatusNotFound, "Session not found or expired"},
		{fmt.Errorf("%w: 999999", voucher.ErrBookingNotFound), http.StatusNotFound, "Booking not found"},
		{usecase.ErrConversionTimeout, http.StatusGatewayTimeout, "PDF conversion timed out"},
		{fmt.Errorf("%w: bad xref", usecase.ErrUnreadableDocument), http.StatusUnprocessableEntity, "Could not read PDF"},
		{usecase.ErrDocumentTooLarge, http.StatusRequestEntityTooLarge, "File too large"},
		{usecase.ErrHistoryUnavailable, http.StatusServiceUnavailable, "Lookup history not enabled"},
		{errors.New("disk on fire"), http.StatusInternalServerError, "Internal server error"},
	}
	for _, tt := range tests {
		t.Run(tt.wantDetail, func(t *testing.T) {
			r := newTestRouter(&fakeBookingService{err: tt.err}, 0)
			req := httptest.NewRequest(http.MethodPost, "/api/search", strings.NewReader(`{"booking":"999999","sessionId":"s"}`))
			req.Header.Set("Content-Type", "application/json")
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if got := decode(t, rec)["detail"]; got != tt.wantDetail {
				t.Errorf("detail = %v, want %q", got, tt.wantDetail)
			}
		})
	}
}

func TestParse(t *testing.T) {
	svc := &fakeBookingService{}
	r := newTestRouter(svc, 0)

	buf, ct := multipartBody(t, map[string]string{"booking": "123456", "arrivalPrefix": "XX"}, []byte("%PDF"))
	req := httptest.NewRequest(http.MethodPost, "/api/parse", buf)
	req.Header.Set("Content-Type", ct)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body = %s", rec.Code, rec.Body)
	}
	body := decode(t, rec)
	if body["booking"] != "123456" {
		t.Errorf("body = %v", body)
	}
	if _, ok := body["sessionId"]; ok {
		t.Error("one-shot parse must not report a session")
	}
	if svc.lastPrefix.Arrival != "XX" || string(svc.lastData) != "%PDF" {
		t.Errorf("service got prefix %+v data %q", svc.lastPrefix, svc.lastData)
	}
}

func TestParseRequiresBooking(t *testing.T) {
	r := newTestRouter(&fakeBookingService{}, 0)
	buf, ct := multipartBody(t, nil, []byte("%PDF"))
	req := httptest.NewRequest(http.MethodPost, "/api/parse", buf)
	req.Header.Set("Content-Type", ct)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest || decode(t, rec)["detail"] != "booking required" {
		t.Errorf("status = %d body = %s", rec.Code, rec.Body)
	}
}

func TestParseSampleNotFound(t *testing.T) {
	r := newTestRouter(&fakeBookingService{err: voucher.ErrBookingNotFound}, 0)
	form := url.Values{"booking": {"123456"}}
	req := httptest.NewRequest(http.MethodPost, "/api/parse_sample", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound || decode(t, rec)["detail"] != "Booking not found in sample file" {
		t.Errorf("status = %d body = %s", rec.Code, rec.Body)
	}
}

func TestSessionsAndRoot(t *testing.T) {
	r := newTestRouter(&fakeBookingService{}, 0)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/sessions", nil))
	sessions, ok := decode(t, rec)["sessions"].([]interface{})
	if rec.Code != http.StatusOK || !ok || len(sessions) != 1 {
		t.Errorf("sessions status = %d body = %s", rec.Code, rec.Body)
	}

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusOK || decode(t, rec)["msg"] == nil {
		t.Errorf("root status = %d body = %s", rec.Code, rec.Body)
	}
}

func TestLookupHistory(t *testing.T) {
	svc := &fakeBookingService{}
	r := newTestRouter(svc, 0)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/lookups/123456?limit=5", nil))
	body := decode(t, rec)
	lookups, ok := body["lookups"].([]interface{})
	if rec.Code != http.StatusOK || !ok || len(lookups) != 1 || body["booking"] != "123456" {
		t.Errorf("status = %d body = %s", rec.Code, rec.Body)
	}
	if svc.lastBooking != "123456" || svc.lastLimit != 5 {
		t.Errorf("service called with (%q, %d)", svc.lastBooking, svc.lastLimit)
	}

	for _, q := range []string{"?limit=0", "?limit=ten"} {
		rec = httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/lookups/123456"+q, nil))
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s status = %d, want 400", q, rec.Code)
		}
	}

	r = newTestRouter(&fakeBookingService{err: usecase.ErrHistoryUnavailable}, 0)
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/lookups/123456", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("unconfigured status = %d, want 503", rec.Code)
	}
}

func TestCORSWildcard(t *testing.T) {
	r := newTestRouter(&fakeBookingService{}, 0)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "http://frontend.local")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Allow-Origin = %q, want *", got)
	}
}
