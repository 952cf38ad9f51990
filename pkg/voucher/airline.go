package voucher

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Airline names produced by DetectAirline
const (
	AirlineLOT     = "LOT"
	AirlineNeosAir = "Neos Air"
)

var (
	lotPattern    = regexp.MustCompile(`\bPLL\s+LOT\b|\bLOT\b`)
	neosPattern   = regexp.MustCompile(`\bNEOS\b|\bNEOS\s+AIR\b`)
	digitsPattern = regexp.MustCompile(`\d+`)
)

// DetectAirline classifies a page by the carrier it mentions. LOT wins over Neos.
func DetectAirline(text string) string {
	if text == "" {
		return ""
	}
	upper := strings.ToUpper(text)
	if lotPattern.MatchString(upper) {
		return AirlineLOT
	}
	if neosPattern.MatchString(upper) {
		return AirlineNeosAir
	}
	return ""
}

// FormatByAirline rewrites a flight number in the carrier's own style.
func FormatByAirline(raw, airline string) string {
	if raw == "" {
		return ""
	}
	digits := digitsPattern.FindString(raw)

	switch airline {
	case AirlineNeosAir:
		if digits == "" {
			return "NO" + raw
		}
		n, err := strconv.Atoi(digits)
		if err != nil {
			return "NO" + digits
		}
		return fmt.Sprintf("NO%04d", n)
	case AirlineLOT:
		if digits == "" {
			return "LOT" + raw
		}
		return "LOT" + digits
	default:
		return raw
	}
}

// FormatFlightNumber prepends a caller supplied prefix to a raw flight number.
func FormatFlightNumber(flightNumber, prefix string) string {
	if flightNumber == "" {
		return ""
	}
	return prefix + flightNumber
}
