package scope

import "gorm.io/gorm"

// OrderByRecordedAsc keeps history rows in submission order.
func OrderByRecordedAsc(db *gorm.DB) *gorm.DB {
	return db.Order("recorded_at ASC, created_at ASC")
}
