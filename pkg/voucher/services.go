package voucher

import (
	"regexp"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

var (
	starServicePattern = regexp.MustCompile(`\*\s*(.*?)\s*(?:DLX|\(|$)`)
	starServiceCut     = regexp.MustCompile(`\s+(?:[A-Z]+/[A-Z0-9]+|\d{1,2}\b|\d{2}-\d{2}-\d{2})`)
	capsServicePattern = regexp.MustCompile(`([A-Z][A-Z0-9 ]{2,}?)\s+(?:[A-Z]+/[A-Z0-9]+|\d{1,2}\b|\d{2}-\d{2}-\d{2}|DLX|\(|$)`)
	statusPattern      = regexp.MustCompile(`\b(OK|OP|RQ|CNX)\b`)
	dateTokenPattern   = regexp.MustCompile(`\d{2}-\d{2}-\d{2}`)
	anyDigitPattern    = regexp.MustCompile(`\d`)
)

// hotelKeywords mark a service as accommodation. Matching is by substring.
var hotelKeywords = []string{
	"HOTEL", "RESORT", "VILLA", "SOFITEL", "DUSIT", "CHA-DA", "CHA DA", "PHOKEETHRA",
	"THANI", "KRABI", "PHUKET", "LA", "KANTARY", "SANTHIYA", "GRACELAND", "MY", "MIDA",
	"LE", "MAIKHAO", "KATATHANI", "DEEVANA", "KHAOLAK", "DIAMOND", "BARCELO", "KORA",
	"MORACEA", "CAPE", "THE", "MANDARAVA", "VERANDA", "BEST",
}

// matchService pulls a service candidate off a booking line.
// Lines that start with the booking header never yield one.
func matchService(line, bookingNo string) (*serviceEntry, bool) {
	if strings.HasPrefix(strings.ToUpper(strings.TrimSpace(line)), "B "+bookingNo) {
		return nil, false
	}

	if m := starServicePattern.FindStringSubmatch(line); m != nil {
		raw := strings.TrimSpace(m[1])
		cleaned := raw
		if loc := starServiceCut.FindStringIndex(raw); loc != nil {
			cleaned = raw[:loc[0]]
		}
		cleaned = strings.TrimSpace(cleaned)
		if cleaned == "" {
			return nil, false
		}
		return &serviceEntry{raw: raw, cleaned: cleaned}, true
	}

	m := capsServicePattern.FindStringSubmatch(line)
	if m == nil {
		return nil, false
	}
	cand := strings.TrimSpace(m[1])
	if cand == "" || titleKeywordPattern.MatchString(line) {
		return nil, false
	}
	return &serviceEntry{raw: cand, cleaned: cand}, true
}

// matchStatus returns the first status code on the line
func matchStatus(line string) string {
	m := statusPattern.FindStringSubmatch(line)
	if m == nil {
		return ""
	}
	return m[1]
}

// lineDates parses every date token on the line except skip and keeps
// the ones inside the stay window.
func lineDates(line, skip string, ref time.Time) []time.Time {
	var out []time.Time
	for _, tok := range dateTokenPattern.FindAllString(line, -1) {
		if skip != "" && tok == skip {
			continue
		}
		d, ok := ParseDate(tok)
		if !ok || !inStayWindow(d, ref) {
			continue
		}
		out = append(out, d)
	}
	return out
}

// attachDates gives dates to the newest service that has none yet.
func attachDates(entries []*serviceEntry, dates []time.Time, page int) {
	if len(dates) == 0 {
		return
	}
	for i := len(entries) - 1; i >= 0; i-- {
		if entries[i].page == 0 {
			entries[i].dates = append(entries[i].dates, dates...)
			entries[i].page = page
			return
		}
	}
}

// cleanServiceName drops everything from the first code-like token onwards.
func cleanServiceName(s string) string {
	var kept []string
	for _, t := range strings.Fields(s) {
		if strings.Contains(t, "/") || allDigits(t) {
			break
		}
		if anyDigitPattern.MatchString(t) && utf8.RuneCountInString(t) <= 4 {
			break
		}
		kept = append(kept, t)
	}
	return strings.Trim(strings.TrimSpace(strings.Join(kept, " ")), ",;")
}

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

func hasHotelKeyword(upper string) bool {
	for _, k := range hotelKeywords {
		if strings.Contains(upper, k) {
			return true
		}
	}
	return false
}

// finalService is a service that survived finalisation
type finalService struct {
	name  string
	upper string
	dates []time.Time
}

// finalizeServices dedupes the pending entries, drops the ones that look like
// passenger names and prefers accommodation-like names when any exist.
func finalizeServices(entries []*serviceEntry, bookingNo string, passengers []string) []finalService {
	var cleaned []finalService
	seen := make(map[string]struct{})
	for _, se := range entries {
		cand := se.cleaned
		if cand == "" {
			cand = se.raw
		}
		if cand == "" || strings.Contains(cand, bookingNo) {
			continue
		}
		key := strings.ToUpper(strings.TrimSpace(cand))
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		name := cleanServiceName(cand)
		cleaned = append(cleaned, finalService{name: name, upper: strings.ToUpper(name), dates: se.dates})
	}

	names := surnames(passengers)
	var filtered, preferred []finalService
	for _, e := range cleaned {
		if containsAny(e.upper, names) {
			continue
		}
		filtered = append(filtered, e)
		if hasHotelKeyword(e.upper) {
			preferred = append(preferred, e)
		}
	}

	chosen := cleaned
	switch {
	case len(preferred) > 0:
		chosen = preferred
	case len(filtered) > 0:
		chosen = filtered
	}

	var out []finalService
	seenFinal := make(map[string]struct{})
	for _, e := range chosen {
		if e.name == "" {
			continue
		}
		if _, ok := seenFinal[e.upper]; ok {
			continue
		}
		seenFinal[e.upper] = struct{}{}
		out = append(out, e)
	}
	return out
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if sub != "" && strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// dateRange returns the earliest and latest of dates
func dateRange(dates []time.Time) (time.Time, time.Time, bool) {
	if len(dates) == 0 {
		return time.Time{}, time.Time{}, false
	}
	lo, hi := dates[0], dates[0]
	for _, d := range dates[1:] {
		if d.Before(lo) {
			lo = d
		}
		if d.After(hi) {
			hi = d
		}
	}
	return lo, hi, true
}
