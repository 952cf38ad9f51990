package repository

import (
	"context"

	"voucher-service/internal/domain/entity"
	"voucher-service/internal/domain/repository"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// GormBookingLookupRepository implements the BookingLookupRepository interface
type GormBookingLookupRepository struct {
	db *gorm.DB
}

// NewGormBookingLookupRepository creates a new GORM lookup audit repository
func NewGormBookingLookupRepository(db *gorm.DB) repository.BookingLookupRepository {
	return &GormBookingLookupRepository{
		db: db,
	}
}

// BookingLookups GORM model for database mapping
type BookingLookups struct {
	gorm.Model
	SessionID     string         `gorm:"column:session_id;size:64;index"`
	BookingNumber string         `gorm:"column:booking_number;size:32;index"`
	Found         bool           `gorm:"column:found"`
	Status        string         `gorm:"column:status;size:16"`
	Service       string         `gorm:"column:service"`
	PaxAdult      int            `gorm:"column:pax_adult"`
	PaxChild      int            `gorm:"column:pax_child"`
	Result        datatypes.JSON `gorm:"column:result"`
}

// TableName overrides the default table name
func (BookingLookups) TableName() string {
	return "booking_lookups"
}

// Create inserts a new lookup record
func (r *GormBookingLookupRepository) Create(ctx context.Context, lookup *entity.BookingLookup) error {
	model := BookingLookups{
		SessionID:     lookup.SessionID,
		BookingNumber: lookup.BookingNumber,
		Found:         lookup.Found,
		Status:        lookup.Status,
		Service:       lookup.Service,
		PaxAdult:      lookup.PaxAdult,
		PaxChild:      lookup.PaxChild,
	}
	if len(lookup.Result) > 0 {
		model.Result = datatypes.JSON(lookup.Result)
	}

	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		return err
	}

	// Update the entity with the generated ID
	lookup.ID = model.ID
	lookup.CreatedAt = model.CreatedAt
	return nil
}

// FindByBookingNumber returns the most recent lookups for a booking
func (r *GormBookingLookupRepository) FindByBookingNumber(ctx context.Context, bookingNumber string, limit int) ([]*entity.BookingLookup, error) {
	var rows []BookingLookups
	result := r.db.WithContext(ctx).
		Where("booking_number = ?", bookingNumber).
		Order("created_at DESC").
		Limit(limit).
		Find(&rows)
	if result.Error != nil {
		return nil, result.Error
	}

	entities := make([]*entity.BookingLookup, 0, len(rows))
	for _, row := range rows {
		entities = append(entities, &entity.BookingLookup{
			ID:            row.ID,
			SessionID:     row.SessionID,
			BookingNumber: row.BookingNumber,
			Found:         row.Found,
			Status:        row.Status,
			Service:       row.Service,
			PaxAdult:      row.PaxAdult,
			PaxChild:      row.PaxChild,
			Result:        []byte(row.Result),
			CreatedAt:     row.CreatedAt,
		})
	}
	return entities, nil
}
