package voucher

import (
	"errors"
	"time"
)

// ErrBookingNotFound is returned when no page mentions the booking number.
var ErrBookingNotFound = errors.New("booking not found")

// Layouts used when rendering dates in a BookingResult
const (
	StayDateLayout    = "02/01/2006"
	ServiceDateLayout = "2006-01-02"
)

// Page is one page of extracted document text. Number is 1-based.
type Page struct {
	Number int    `json:"number" bson:"number"`
	Text   string `json:"text" bson:"text"`
}

// FlightLeg holds what was resolved for the arrival or the departure leg.
type FlightLeg struct {
	Flight *string `json:"flight"`
	Time   *string `json:"time"`
	Page   *int    `json:"page"`
}

// AirlinePair holds the airline detected for each leg
type AirlinePair struct {
	Arrival   *string `json:"arrival"`
	Departure *string `json:"departure"`
}

// ServiceDateRange is the first and last date attached to a service.
type ServiceDateRange struct {
	Service string  `json:"service"`
	Start   *string `json:"start"`
	End     *string `json:"end"`
}

// MatchedLine is a raw booking line kept for diagnostics.
type MatchedLine struct {
	Page int    `json:"page"`
	Line string `json:"line"`
}

// BookingResult is everything extracted for one booking number.
type BookingResult struct {
	Arrival           FlightLeg          `json:"arrival"`
	Departure         FlightLeg          `json:"departure"`
	Passengers        []string           `json:"passengers"`
	PaxAdult          int                `json:"pax_adult"`
	PaxChild          int                `json:"pax_child"`
	PaxSummary        string             `json:"pax_summary"`
	Airline           AirlinePair        `json:"airline"`
	Service           *string            `json:"service"`
	ServiceDateRanges []ServiceDateRange `json:"service_date_ranges"`
	Status            *string            `json:"status"`
	StartDate         *string            `json:"start_date"`
	EndDate           *string            `json:"end_date"`
	MatchedLines      []MatchedLine      `json:"matched_lines"`
}

// Options tunes a single Parse call.
type Options struct {
	ArrivalPrefix   string
	DeparturePrefix string

	// PreMatched are pages already known to contain the booking number.
	// A nil slice means "scan every page".
	PreMatched []Page

	// ReferenceDate is "today" for age suffixes and the accepted date window.
	// Zero means the parser's clock.
	ReferenceDate time.Time
}

// serviceEntry is a pending service candidate collected from a booking line
type serviceEntry struct {
	raw     string
	cleaned string
	dates   []time.Time
	page    int // 0 until dates are attached
}

func stringPtr(s string) *string {
	return &s
}

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func optionalPage(p int) *int {
	if p <= 0 {
		return nil
	}
	return &p
}
