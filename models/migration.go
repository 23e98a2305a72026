package models

import (
	"gorm.io/gorm"
)

// MigrateTable creates the tables the portal reads. Schema ownership belongs to the
// CRUD side; this exists for local development and integration tests.
func MigrateTable(db *gorm.DB) error {
	return db.AutoMigrate(
		&Company{}, &Category{},
		&User{},
		&Product{},
		&Order{}, &OrderItem{}, &Payment{},
		&AuditLog{},
	)
}
