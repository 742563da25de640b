package bootstrap

import (
	"mediagrid-be/internal/model"
	"mediagrid-be/internal/platform/docstore"
	"mediagrid-be/internal/platform/identity"

	"gorm.io/gorm"
)

// Migrate applies the schema for every persistent table.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&identity.Credential{},
		&docstore.Document{},
		&model.Notification{},
	)
}
