package entity

import "time"

// BookingLookup records one booking search for auditing
type BookingLookup struct {
	ID            uint
	SessionID     string
	BookingNumber string
	Found         bool
	Status        string
	Service       string
	PaxAdult      int
	PaxChild      int
	Result        []byte
	CreatedAt     time.Time
}
