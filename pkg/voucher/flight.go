package voucher

import (
	"regexp"
	"strings"
)

// LegType selects which leg a scan is looking for
type LegType int

const (
	Arrival LegType = iota
	Departure
)

func (l LegType) String() string {
	if l == Arrival {
		return "arrival"
	}
	return "departure"
}

var (
	flightNumberPattern = regexp.MustCompile(`\b(\d{3,5})\b`)
	timePattern         = regexp.MustCompile(`(\d{1,2}:\d{2})`)
	arrivalTimeLabel    = regexp.MustCompile(`(?i)arrival time[^\d]*(\d{1,2}:\d{2})`)
	departureTimeLabel  = regexp.MustCompile(`(?i)departure time[^\d]*(\d{1,2}:\d{2})`)
	looseDepartureLabel = regexp.MustCompile(`(?i)depart(?:ure)?[^\d]*(\d{1,2}:\d{2})`)
)

// ExtractFlightNumber returns the first standalone 3-5 digit run on a line.
func ExtractFlightNumber(line string) string {
	m := flightNumberPattern.FindStringSubmatch(line)
	if m == nil {
		return ""
	}
	return m[1]
}

// legHit is the raw outcome of one scan
type legHit struct {
	flight string
	time   string
	page   int
}

func (h legHit) empty() bool {
	return h.flight == "" && h.time == ""
}

func (l LegType) label() *regexp.Regexp {
	if l == Arrival {
		return arrivalTimeLabel
	}
	return departureTimeLabel
}

// opposite is the keyword that marks a window as belonging to the other leg
func (l LegType) opposite() string {
	if l == Arrival {
		return "depart"
	}
	return "arriv"
}

func (l LegType) lineLabelled(lower string) bool {
	if l == Arrival {
		return strings.Contains(lower, "arrival time") || strings.Contains(lower, "arrive")
	}
	return strings.Contains(lower, "departure time") || strings.Contains(lower, "depart")
}

// ScanBackward walks from start down to the first page.
func ScanBackward(pages []Page, start int, leg LegType) (flight, flightTime string, page int) {
	h := scanPages(pages, start, leg, -1)
	return h.flight, h.time, h.page
}

// ScanForward walks from start up to the last page.
func ScanForward(pages []Page, start int, leg LegType) (flight, flightTime string, page int) {
	h := scanPages(pages, start, leg, 1)
	return h.flight, h.time, h.page
}

// scanPages visits pages[start], pages[start+step], ... and stops on the first
// page where both a flight number and a time are known. Findings accumulate
// across pages, so a flight from one page may pair with a time from another.
func scanPages(pages []Page, start int, leg LegType, step int) legHit {
	var hit legHit
	if len(pages) == 0 {
		return hit
	}
	if start >= len(pages) {
		start = len(pages) - 1
	}

	for idx := start; idx >= 0 && idx < len(pages); idx += step {
		p := pages[idx]
		if p.Text == "" {
			continue
		}

		lines := splitLines(p.Text)
		for i, line := range lines {
			lower := strings.ToLower(line)

			if strings.Contains(lower, "flight") || strings.Contains(lower, "flt") {
				if fnum := ExtractFlightNumber(line); fnum != "" {
					hit.flight = fnum
					if m := leg.label().FindStringSubmatch(p.Text); m != nil {
						hit.time = m[1]
					}
					if hit.time == "" {
						window := strings.Join(lines[max(0, i-2):min(len(lines), i+4)], "\n")
						if m := timePattern.FindStringSubmatch(window); m != nil &&
							!strings.Contains(strings.ToLower(window), leg.opposite()) {
							hit.time = m[1]
						}
					}
				}
			}

			if leg.lineLabelled(lower) {
				if m := timePattern.FindStringSubmatch(line); m != nil {
					hit.time = m[1]
				}
			}
		}

		if !hit.empty() {
			hit.page = p.Number
			if hit.flight != "" && hit.time != "" {
				break
			}
		}
	}
	return hit
}
