package models

import (
	"fmt"

	"gorm.io/gorm"
)

// All returns every model managed by AutoMigrate, in dependency order
func All() []interface{} {
	return []interface{}{
		&User{},
		&ServiceCenter{},
		&Booking{},
		&ServiceCenterBooking{},
		&Job{},
		&TransportRequest{},
	}
}

// partialIndexes back the "one active row" rules at the database level.
// MySQL has no partial indexes, so there the service-level checks are the
// only guard.
var partialIndexes = []string{
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_bookings_active_email_date
		ON bookings (email, preferred_date)
		WHERE status <> 'cancelled' AND deleted_at IS NULL`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_sc_bookings_open_booking
		ON service_center_bookings (booking_id)
		WHERE status <> 'completed' AND deleted_at IS NULL`,
}

// AutoMigrate creates or updates all tables and indexes
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(All()...); err != nil {
		return fmt.Errorf("failed to migrate models: %w", err)
	}

	if db.Dialector.Name() == "mysql" {
		return nil
	}
	for _, stmt := range partialIndexes {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("failed to create partial index: %w", err)
		}
	}
	return nil
}
