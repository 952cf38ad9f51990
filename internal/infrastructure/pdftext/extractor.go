// Package pdftext turns PDF bytes into per-page plain text.
package pdftext

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"golang.org/x/sync/errgroup"

	"voucher-service/pkg/logger"
	"voucher-service/pkg/voucher"
)

// ErrUnreadable is returned when neither PDF backend can open the document.
var ErrUnreadable = errors.New("unreadable pdf document")

// Extractor converts a PDF document into pages of text.
type Extractor interface {
	Extract(ctx context.Context, data []byte) ([]voucher.Page, error)
}

// PDFExtractor reads text rows with ledongthuc/pdf, fanning pages out over a
// bounded worker group. pdfcpu validates the file and supplies the page count.
type PDFExtractor struct {
	workers int
	logger  logger.Logger
}

// NewPDFExtractor creates an extractor with the given worker bound
func NewPDFExtractor(workers int, logger logger.Logger) *PDFExtractor {
	if workers < 1 {
		workers = 1
	}
	return &PDFExtractor{workers: workers, logger: logger}
}

// Extract returns one Page per PDF page, numbered from 1.
func (e *PDFExtractor) Extract(ctx context.Context, data []byte) ([]voucher.Page, error) {
	if len(data) == 0 {
		return nil, ErrUnreadable
	}

	count, err := e.pageCount(data)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	pages := make([]voucher.Page, count)
	for i := range pages {
		pages[i].Number = i + 1
	}
	if count == 0 {
		return pages, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, r := range splitRanges(count, e.workers) {
		r := r
		g.Go(func() error {
			return e.extractRange(gctx, data, pages, r[0], r[1])
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return pages, nil
}

// pageCount asks pdfcpu first and falls back to ledongthuc when pdfcpu
// rejects a file that is still readable.
func (e *PDFExtractor) pageCount(data []byte) (int, error) {
	pctx, err := api.ReadValidateAndOptimize(bytes.NewReader(data), model.NewDefaultConfiguration())
	if err == nil {
		return pctx.PageCount, nil
	}
	e.logger.Warn("pdfcpu validation failed, falling back", "error", err)

	r, err := openReader(data)
	if err != nil {
		return 0, err
	}
	return r.NumPage(), nil
}

// extractRange fills pages[from:to] using its own reader.
func (e *PDFExtractor) extractRange(ctx context.Context, data []byte, pages []voucher.Page, from, to int) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("%w: %v", ErrUnreadable, rec)
		}
	}()

	r, err := openReader(data)
	if err != nil {
		return err
	}
	n := r.NumPage()

	for i := from; i < to; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if i+1 > n {
			break
		}
		p := r.Page(i + 1)
		if p.V.IsNull() {
			continue
		}
		rows, err := p.GetTextByRow()
		if err != nil {
			e.logger.Warn("page text unavailable", "page", i+1, "error", err)
			continue
		}
		pages[i].Text = joinRows(rows)
	}
	return nil
}

func openReader(data []byte) (r *pdf.Reader, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			r, err = nil, fmt.Errorf("%w: %v", ErrUnreadable, rec)
		}
	}()

	r, err = pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadable, err)
	}
	return r, nil
}

// joinRows puts single spaces between words and newlines between rows.
func joinRows(rows pdf.Rows) string {
	lines := make([]string, 0, len(rows))
	for _, row := range rows {
		if row == nil {
			continue
		}
		words := make([]string, 0, len(row.Content))
		for _, w := range row.Content {
			if s := strings.TrimSpace(w.S); s != "" {
				words = append(words, s)
			}
		}
		lines = append(lines, strings.Join(words, " "))
	}
	return strings.Join(lines, "\n")
}

// splitRanges cuts [0,n) into at most parts contiguous half-open ranges.
func splitRanges(n, parts int) [][2]int {
	if n <= 0 {
		return nil
	}
	if parts > n {
		parts = n
	}
	size := (n + parts - 1) / parts
	var out [][2]int
	for start := 0; start < n; start += size {
		end := start + size
		if end > n {
			end = n
		}
		out = append(out, [2]int{start, end})
	}
	return out
}
