package repository

import (
	"context"
	"time"

	"voucher-service/internal/domain/entity"
	"voucher-service/internal/domain/repository"

	"gorm.io/gorm"
)

// GormAirlineRepository implements the AirlineRepository interface
type GormAirlineRepository struct {
	db *gorm.DB
}

// NewGormAirlineRepository creates a new GORM airline repository
func NewGormAirlineRepository(db *gorm.DB) repository.AirlineRepository {
	return &GormAirlineRepository{
		db: db,
	}
}

// Airlines GORM model for database mapping
type Airlines struct {
	ID        uint           `gorm:"primaryKey"`
	Code      string         `gorm:"column:code;unique"`
	Name      string         `gorm:"column:name;unique"`
	DeletedAt gorm.DeletedAt `gorm:"index"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName overrides the default table name
func (Airlines) TableName() string {
	return "m_airlines"
}

// GetByName finds an airline by its display name, ignoring case
func (r *GormAirlineRepository) GetByName(ctx context.Context, name string) (*entity.Airline, error) {
	var airline Airlines
	if err := r.db.WithContext(ctx).Where("LOWER(name) = LOWER(?)", name).First(&airline).Error; err != nil {
		return nil, err
	}
	return toAirlineEntity(airline), nil
}

func toAirlineEntity(a Airlines) *entity.Airline {
	return &entity.Airline{
		ID:        a.ID,
		Code:      a.Code,
		Name:      a.Name,
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
		DeletedAt: a.DeletedAt,
	}
}
