package voucher

import "testing"

func TestExtractFlightNumber(t *testing.T) {
	tests := []struct {
		line string
		want string
	}{
		{"Flight 1234 at 10:30", "1234"},
		{"Flight No. 98765", "98765"},
		{"Booking 555555", ""},
		{"FLT12", ""},
		{"no digits here", ""},
	}
	for _, tt := range tests {
		if got := ExtractFlightNumber(tt.line); got != tt.want {
			t.Errorf("ExtractFlightNumber(%q) = %q, want %q", tt.line, got, tt.want)
		}
	}
}

func TestScan(t *testing.T) {
	pages := []Page{
		{Number: 1, Text: "Hotel info\nnothing to see"},
		{Number: 2, Text: "Flight 4321\nDeparture 08:15"},
		{Number: 3, Text: "Flight 9999\nArrival time 18:40"},
	}

	tests := []struct {
		name       string
		scan       func([]Page, int, LegType) (string, string, int)
		start      int
		leg        LegType
		wantFlight string
		wantTime   string
		wantPage   int
	}{
		{"forward departure", ScanForward, 0, Departure, "4321", "08:15", 2},
		{"backward arrival", ScanBackward, 2, Arrival, "9999", "18:40", 3},
		{"backward arrival clamps start", ScanBackward, 10, Arrival, "9999", "18:40", 3},
		{"forward from last page", ScanForward, 2, Departure, "9999", "", 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			flight, tm, page := tt.scan(pages, tt.start, tt.leg)
			if flight != tt.wantFlight || tm != tt.wantTime || page != tt.wantPage {
				t.Errorf("got (%q, %q, %d), want (%q, %q, %d)", flight, tm, page, tt.wantFlight, tt.wantTime, tt.wantPage)
			}
		})
	}
}

func TestScanRejectsOppositeLegWindow(t *testing.T) {
	pages := []Page{{Number: 1, Text: "Flight 1111\nArrival 09:00"}}

	flight, tm, page := ScanForward(pages, 0, Departure)
	if flight != "1111" || tm != "" || page != 1 {
		t.Errorf("got (%q, %q, %d), want (\"1111\", \"\", 1)", flight, tm, page)
	}
}

func TestScanSkipsEmptyPages(t *testing.T) {
	pages := []Page{
		{Number: 1, Text: ""},
		{Number: 2, Text: "Flt 2222 depart 07:05"},
	}

	flight, tm, page := ScanForward(pages, 0, Departure)
	if flight != "2222" || tm != "07:05" || page != 2 {
		t.Errorf("got (%q, %q, %d), want (\"2222\", \"07:05\", 2)", flight, tm, page)
	}
}

func TestScanKeepsFlightAcrossPages(t *testing.T) {
	// flight on page 1, labelled time only on page 2
	pages := []Page{
		{Number: 1, Text: "Flight 3333"},
		{Number: 2, Text: "Departure time 11:20"},
	}

	flight, tm, page := ScanForward(pages, 0, Departure)
	if flight != "3333" || tm != "11:20" || page != 2 {
		t.Errorf("got (%q, %q, %d), want (\"3333\", \"11:20\", 2)", flight, tm, page)
	}
}

func TestScanNoPages(t *testing.T) {
	flight, tm, page := ScanBackward(nil, 0, Arrival)
	if flight != "" || tm != "" || page != 0 {
		t.Errorf("got (%q, %q, %d), want empty", flight, tm, page)
	}
}
