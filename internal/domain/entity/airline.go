package entity

import (
	"time"

	"gorm.io/gorm"
)

// Airline is a row of the airline catalog. Name matches the carrier names
// detected on vouchers ("LOT", "Neos Air").
type Airline struct {
	ID        uint
	Code      string
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt gorm.DeletedAt
}
