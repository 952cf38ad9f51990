package repository

// SQLModels lists the gorm models auto-migrated at startup
func SQLModels() []interface{} {
	return []interface{}{&Airlines{}, &BookingLookups{}}
}
