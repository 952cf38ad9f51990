package voucher

import (
	"fmt"
	"regexp"
	"sort"
)

// Booking numbers are 6 to 10 digit tokens
const (
	DefaultMinDigits = 6
	DefaultMaxDigits = 10
)

// BookingIndex maps booking-shaped tokens to the pages that contain them.
// It is immutable once built and safe for concurrent readers.
type BookingIndex struct {
	pages map[string][]Page
}

// BuildIndex scans every page once for standalone digit tokens of the given length.
// A page is listed at most once per token, in page order.
func BuildIndex(pages []Page, minDigits, maxDigits int) *BookingIndex {
	re := regexp.MustCompile(fmt.Sprintf(`\b\d{%d,%d}\b`, minDigits, maxDigits))
	idx := &BookingIndex{pages: make(map[string][]Page)}

	for _, p := range pages {
		if p.Text == "" {
			continue
		}
		for _, token := range re.FindAllString(p.Text, -1) {
			listed := idx.pages[token]
			if n := len(listed); n > 0 && listed[n-1].Number == p.Number {
				continue
			}
			idx.pages[token] = append(listed, p)
		}
	}
	return idx
}

// NewIndex builds an index with the default booking number length.
func NewIndex(pages []Page) *BookingIndex {
	return BuildIndex(pages, DefaultMinDigits, DefaultMaxDigits)
}

// Lookup returns the pages holding token, or nil when the token was never seen.
func (ix *BookingIndex) Lookup(token string) []Page {
	if ix == nil {
		return nil
	}
	return ix.pages[token]
}

// Len is the number of distinct tokens
func (ix *BookingIndex) Len() int {
	if ix == nil {
		return 0
	}
	return len(ix.pages)
}

// Tokens lists every indexed token in ascending order.
func (ix *BookingIndex) Tokens() []string {
	if ix == nil {
		return nil
	}
	tokens := make([]string, 0, len(ix.pages))
	for t := range ix.pages {
		tokens = append(tokens, t)
	}
	sort.Strings(tokens)
	return tokens
}
