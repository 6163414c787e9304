package testutil

import (
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/repairhub/repairhub-api/models"
)

// NewTestDB opens a migrated in-memory SQLite database. The pool is pinned
// to one connection so every query sees the same in-memory database.
func NewTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("Failed to get underlying sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := models.AutoMigrate(db); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}
	return db
}

// CreateUser stores a user with the given role
func CreateUser(t *testing.T, db *gorm.DB, auth0ID, name, email string, role models.Role) *models.User {
	t.Helper()

	user := &models.User{Auth0ID: auth0ID, Name: name, Email: email, Role: role}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("Failed to create user %s: %v", auth0ID, err)
	}
	return user
}

// CreateServiceCenter stores a service center
func CreateServiceCenter(t *testing.T, db *gorm.DB, name, address string) *models.ServiceCenter {
	t.Helper()

	center := &models.ServiceCenter{Name: name, Address: address, Phone: "+15550001111"}
	if err := db.Create(center).Error; err != nil {
		t.Fatalf("Failed to create service center %s: %v", name, err)
	}
	return center
}
