package repository

import "gorm.io/gorm"

// Every query that must hide tombstoned rows goes through these scopes.

func notTombstoned(column string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where(column + " IS NULL")
	}
}

var (
	ActiveParticipants = notTombstoned("left_at")
	LiveMessages       = notTombstoned("deleted_at")
)
