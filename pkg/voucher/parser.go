package voucher

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"voucher-service/pkg/logger"
)

// maxContinuationLines is how many lines after a booking line are still
// read for passenger names when a table row wraps.
const maxContinuationLines = 2

var bookingTokenPattern = regexp.MustCompile(`\b\d{6,10}\b`)

// Parser extracts booking details from voucher page text.
// It keeps no per-call state and is safe for concurrent use.
type Parser struct {
	logger logger.Logger
	now    func() time.Time
}

// NewParser creates a parser that reads the wall clock when no reference date is given
func NewParser(logger logger.Logger) *Parser {
	return &Parser{
		logger: logger,
		now:    time.Now,
	}
}

// WithClock returns a copy of the parser using now as its clock
func (p *Parser) WithClock(now func() time.Time) *Parser {
	cp := *p
	cp.now = now
	return &cp
}

// Parse extracts everything known about bookingNo from pages.
// It fails only with ErrBookingNotFound; missing details are left nil.
func (p *Parser) Parse(pages []Page, bookingNo string, opts Options) (*BookingResult, error) {
	bookingNo = strings.TrimSpace(bookingNo)
	if bookingNo == "" {
		return nil, ErrBookingNotFound
	}

	matched := matchPages(pages, bookingNo, opts.PreMatched)
	if len(matched) == 0 {
		p.logger.Debug("Booking not present in document", "booking", bookingNo, "pages", len(pages))
		return nil, fmt.Errorf("%w: %s", ErrBookingNotFound, bookingNo)
	}

	ref := opts.ReferenceDate
	if ref.IsZero() {
		ref = p.now()
	}

	depAnchor := matched[0].Number
	arrAnchor := matched[len(matched)-1].Number
	p.logger.Debug("Matched booking pages",
		"booking", bookingNo,
		"pages", pageNumbers(matched),
		"departureAnchor", depAnchor,
		"arrivalAnchor", arrAnchor)

	arrival := scanPages(pages, pageIndex(pages, arrAnchor), Arrival, -1)
	departure, source := resolveDeparture(departureInput{
		pages:     pages,
		anchor:    depAnchor,
		anchorIdx: pageIndex(pages, depAnchor),
	})
	p.logger.Debug("Resolved flight legs",
		"arrivalFlight", arrival.flight,
		"arrivalTime", arrival.time,
		"departureFlight", departure.flight,
		"departureTime", departure.time,
		"departureSource", source)

	passengers := newPassengerList()
	var (
		entries []*serviceEntry
		status  string
		pool    []time.Time
	)

	for _, mp := range matched {
		if mp.Text == "" {
			continue
		}
		lines := splitLines(mp.Text)
		for i, line := range lines {
			if !strings.Contains(line, bookingNo) {
				continue
			}

			birth := ""
			if pm, ok := matchPassenger(line, ref); ok {
				passengers.add(pm.name)
				birth = pm.birth
			}
			for _, next := range continuationLines(lines, i, bookingNo) {
				if pm, ok := matchPassenger(next, ref); ok {
					passengers.add(pm.name)
				}
			}

			if se, ok := matchService(line, bookingNo); ok {
				entries = append(entries, se)
			}

			if s := matchStatus(line); s != "" {
				status = s
			}

			dates := lineDates(line, birth, ref)
			pool = append(pool, dates...)
			attachDates(entries, dates, mp.Number)
		}
	}

	result := &BookingResult{
		ServiceDateRanges: []ServiceDateRange{},
		MatchedLines:      []MatchedLine{},
	}
	result.Arrival, result.Airline.Arrival = finishLeg(pages, arrival, arrAnchor, opts.ArrivalPrefix)
	result.Departure, result.Airline.Departure = finishLeg(pages, departure, depAnchor, opts.DeparturePrefix)

	services := finalizeServices(entries, bookingNo, passengers.names)
	names := make([]string, 0, len(services))
	for _, s := range services {
		names = append(names, s.name)
		r := ServiceDateRange{Service: s.name}
		if lo, hi, ok := dateRange(s.dates); ok {
			r.Start = stringPtr(lo.Format(ServiceDateLayout))
			r.End = stringPtr(hi.Format(ServiceDateLayout))
		}
		result.ServiceDateRanges = append(result.ServiceDateRanges, r)
	}
	result.Service = optionalString(strings.Join(names, "; "))
	p.logger.Debug("Finalised services", "pending", len(entries), "kept", len(services))

	if passengers.empty() {
		for _, mp := range matched {
			for _, line := range splitLines(mp.Text) {
				if !strings.Contains(line, bookingNo) {
					continue
				}
				result.MatchedLines = append(result.MatchedLines, MatchedLine{Page: mp.Number, Line: line})
				if name, ok := matchRelaxedPassenger(line, ref); ok {
					passengers.add(name)
				}
			}
		}
		p.logger.Debug("Relaxed passenger pass", "matchedLines", len(result.MatchedLines), "passengers", len(passengers.names))
	}

	if lo, hi, ok := dateRange(pool); ok {
		result.StartDate = stringPtr(lo.Format(StayDateLayout))
		result.EndDate = stringPtr(hi.Format(StayDateLayout))
	}

	result.Passengers = passengers.names
	for _, name := range result.Passengers {
		if isChild(name) {
			result.PaxChild++
		} else {
			result.PaxAdult++
		}
	}
	result.PaxSummary = fmt.Sprintf("Adult = %d PAX\nChild = %d PAX", result.PaxAdult, result.PaxChild)
	result.Status = optionalString(status)

	return result, nil
}

// finishLeg applies the caller prefix and then, when the page names a known
// carrier, the carrier's own flight number style on top of it.
func finishLeg(pages []Page, hit legHit, anchor int, prefix string) (FlightLeg, *string) {
	flight := FormatFlightNumber(hit.flight, prefix)
	airline := DetectAirline(pageText(pages, legPage(hit, anchor)))
	if airline != "" {
		base := flight
		if base == "" {
			base = hit.flight
		}
		flight = FormatByAirline(base, airline)
	}
	return FlightLeg{
		Flight: optionalString(flight),
		Time:   optionalString(hit.time),
		Page:   optionalPage(hit.page),
	}, optionalString(airline)
}

// matchPages returns the pages mentioning bookingNo, sorted and unique by number.
func matchPages(pages []Page, bookingNo string, preMatched []Page) []Page {
	var matched []Page
	if preMatched != nil {
		matched = append(matched, preMatched...)
	} else {
		for _, p := range pages {
			if strings.Contains(p.Text, bookingNo) {
				matched = append(matched, p)
			}
		}
	}

	sort.SliceStable(matched, func(i, j int) bool { return matched[i].Number < matched[j].Number })
	out := make([]Page, 0, len(matched))
	for _, p := range matched {
		if n := len(out); n > 0 && out[n-1].Number == p.Number {
			continue
		}
		out = append(out, p)
	}
	return out
}

// continuationLines are the lines wrapped under a booking line, up to the
// next line that carries a booking-shaped number.
func continuationLines(lines []string, i int, bookingNo string) []string {
	var out []string
	for j := i + 1; j < len(lines) && j <= i+maxContinuationLines; j++ {
		if strings.Contains(lines[j], bookingNo) || bookingTokenPattern.MatchString(lines[j]) {
			break
		}
		out = append(out, lines[j])
	}
	return out
}

// pageIndex finds the position of page number n in pages.
func pageIndex(pages []Page, n int) int {
	for i, p := range pages {
		if p.Number == n {
			return i
		}
	}
	idx := n - 1
	if idx >= len(pages) {
		idx = len(pages) - 1
	}
	return max(idx, 0)
}

func pageText(pages []Page, n int) string {
	for _, p := range pages {
		if p.Number == n {
			return p.Text
		}
	}
	return ""
}

func legPage(hit legHit, anchor int) int {
	if hit.page > 0 {
		return hit.page
	}
	return anchor
}

func pageNumbers(pages []Page) []int {
	out := make([]int, len(pages))
	for i, p := range pages {
		out[i] = p.Number
	}
	return out
}

func splitLines(text string) []string {
	return strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
}
