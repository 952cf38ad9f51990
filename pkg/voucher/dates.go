package voucher

import (
	"fmt"
	"time"
)

// dateLayouts are tried in order; the first layout that parses wins.
// Two-digit years are therefore resolved by position, not by century guessing.
var dateLayouts = []string{
	"06-01-02",
	"2006-01-02",
	"02-01-06",
	"02-01-2006",
}

// ParseDate parses a dash separated date token.
func ParseDate(s string) (time.Time, bool) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// AgeSuffix renders the age of someone born on birth as of ref,
// either "{n}YO" or, under a year, "{n}Month".
func AgeSuffix(birth string, ref time.Time) (string, bool) {
	b, ok := ParseDate(birth)
	if !ok {
		return "", false
	}

	years := ref.Year() - b.Year()
	if ref.Month() < b.Month() || (ref.Month() == b.Month() && ref.Day() < b.Day()) {
		years--
	}
	if years >= 1 {
		return fmt.Sprintf("%dYO", years), true
	}

	months := (ref.Year()-b.Year())*12 + int(ref.Month()) - int(b.Month())
	if ref.Day() < b.Day() {
		months--
	}
	if months < 0 {
		months = 0
	}
	return fmt.Sprintf("%dMonth", months), true
}

// inStayWindow rejects dates that are more likely birth dates than travel dates.
func inStayWindow(d, ref time.Time) bool {
	return d.Year() >= 2000 && d.Year() <= ref.Year()+10
}
