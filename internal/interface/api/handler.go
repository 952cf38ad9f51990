package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"voucher-service/internal/usecase"
	"voucher-service/pkg/voucher"
)

// BookingUsecase is the slice of the booking service the HTTP layer uses
type BookingUsecase interface {
	Upload(ctx context.Context, filename string, data []byte) (*usecase.UploadResult, error)
	Search(ctx context.Context, sessionID, booking string, prefixes usecase.Prefixes) (*usecase.LookupResult, error)
	ParseDocument(ctx context.Context, filename string, data []byte, booking string, prefixes usecase.Prefixes) (*usecase.LookupResult, error)
	ParseSample(ctx context.Context, booking string, prefixes usecase.Prefixes) (*usecase.LookupResult, error)
	History(ctx context.Context, booking string, limit int) ([]usecase.LookupRecord, error)
	Sessions() []usecase.SessionSummary
	CacheSize() int
}

// BookingHandler serves the booking endpoints
type BookingHandler struct {
	service        BookingUsecase
	maxUploadBytes int64
}

// NewBookingHandler creates a new booking handler
func NewBookingHandler(service BookingUsecase, maxUploadBytes int64) *BookingHandler {
	return &BookingHandler{service: service, maxUploadBytes: maxUploadBytes}
}

// SearchRequest binds from a form or a JSON body
type SearchRequest struct {
	Booking         string `form:"booking" json:"booking"`
	SessionID       string `form:"sessionId" json:"sessionId"`
	ArrivalPrefix   string `form:"arrivalPrefix" json:"arrivalPrefix"`
	DeparturePrefix string `form:"departurePrefix" json:"departurePrefix"`
}

func (r SearchRequest) prefixes() usecase.Prefixes {
	return usecase.Prefixes{Arrival: r.ArrivalPrefix, Departure: r.DeparturePrefix}
}

// Upload handles POST /api/upload
func (h *BookingHandler) Upload(c *gin.Context) {
	filename, data, ok := h.readFile(c)
	if !ok {
		return
	}

	res, err := h.service.Upload(c.Request.Context(), filename, data)
	if err != nil {
		writeError(c, err, "Booking not found")
		return
	}
	c.JSON(http.StatusOK, res)
}

// Search handles POST /api/search
func (h *BookingHandler) Search(c *gin.Context) {
	var req SearchRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "invalid request body"})
		return
	}
	if req.Booking == "" || req.SessionID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "booking and sessionId required"})
		return
	}

	res, err := h.service.Search(c.Request.Context(), req.SessionID, req.Booking, req.prefixes())
	if err != nil {
		writeError(c, err, "Booking not found")
		return
	}
	c.JSON(http.StatusOK, res)
}

// Parse handles POST /api/parse
func (h *BookingHandler) Parse(c *gin.Context) {
	var req SearchRequest
	if err := c.ShouldBind(&req); err != nil || req.Booking == "" {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "booking required"})
		return
	}

	filename, data, ok := h.readFile(c)
	if !ok {
		return
	}

	res, err := h.service.ParseDocument(c.Request.Context(), filename, data, req.Booking, req.prefixes())
	if err != nil {
		writeError(c, err, "Booking not found")
		return
	}
	c.JSON(http.StatusOK, res)
}

// ParseSample handles POST /api/parse_sample
func (h *BookingHandler) ParseSample(c *gin.Context) {
	var req SearchRequest
	if err := c.ShouldBind(&req); err != nil || req.Booking == "" {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "booking required"})
		return
	}

	res, err := h.service.ParseSample(c.Request.Context(), req.Booking, req.prefixes())
	if err != nil {
		writeError(c, err, "Booking not found in sample file")
		return
	}
	c.JSON(http.StatusOK, res)
}

// Sessions handles GET /api/sessions
func (h *BookingHandler) Sessions(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"sessions": h.service.Sessions()})
}

// History handles GET /api/lookups/:booking
func (h *BookingHandler) History(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"detail": "limit must be a positive integer"})
			return
		}
		limit = n
	}

	booking := c.Param("booking")
	records, err := h.service.History(c.Request.Context(), booking, limit)
	if err != nil {
		writeError(c, err, "Booking not found")
		return
	}
	c.JSON(http.StatusOK, gin.H{"booking": booking, "lookups": records})
}

// readFile pulls the multipart "file" field. It reads one byte past the limit
// so the service can tell an oversized upload apart from one at the limit.
func (h *BookingHandler) readFile(c *gin.Context) (string, []byte, bool) {
	fh, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "file required"})
		return "", nil, false
	}

	f, err := fh.Open()
	if err != nil {
		c.Error(err)
		c.JSON(http.StatusBadRequest, gin.H{"detail": "file unreadable"})
		return "", nil, false
	}
	defer f.Close()

	var r io.Reader = f
	if h.maxUploadBytes > 0 {
		r = io.LimitReader(f, h.maxUploadBytes+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		c.Error(err)
		c.JSON(http.StatusBadRequest, gin.H{"detail": "file unreadable"})
		return "", nil, false
	}
	return fh.Filename, data, true
}

// writeError maps service errors onto status codes and a {"detail": ...} body
func writeError(c *gin.Context, err error, notFound string) {
	status, detail := http.StatusInternalServerError, "Internal server error"

	switch {
	case errors.Is(err, usecase.ErrInvalidInput):
		status, detail = http.StatusBadRequest, err.Error()
	case errors.Is(err, usecase.ErrDocumentTooLarge):
		status, detail = http.StatusRequestEntityTooLarge, "File too large"
	case errors.Is(err, usecase.ErrUnreadableDocument):
		status, detail = http.StatusUnprocessableEntity, "Could not read PDF"
	case errors.Is(err, usecase.ErrSessionNotFound):
		status, detail = http.StatusNotFound, "Session not found or expired"
	case errors.Is(err, usecase.ErrSampleUnavailable):
		status, detail = http.StatusNotFound, "Sample file not found"
	case errors.Is(err, voucher.ErrBookingNotFound):
		status, detail = http.StatusNotFound, notFound
	case errors.Is(err, usecase.ErrConversionTimeout):
		status, detail = http.StatusGatewayTimeout, "PDF conversion timed out"
	case errors.Is(err, usecase.ErrHistoryUnavailable):
		status, detail = http.StatusServiceUnavailable, "Lookup history not enabled"
	}

	if status >= http.StatusInternalServerError {
		c.Error(err)
	}
	c.JSON(status, gin.H{"detail": detail})
}
