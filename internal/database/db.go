package database

import (
	"log"
	"strings"

	"catalog/internal/config"
	"catalog/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// Connect opens the configured database and creates the products table if it
// does not exist yet.
func Connect(cfg *config.Config) *gorm.DB {
	db, err := Open(cfg.DatabaseDSN)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	if err := db.AutoMigrate(&models.Product{}); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}
	log.Println("Database connected and schema migrated")
	return db
}

// Open selects the driver from the DSN shape: key=value and URL style DSNs
// use the postgres driver, anything else is treated as a sqlite path.
func Open(dsn string) (*gorm.DB, error) {
	if strings.HasPrefix(dsn, "host=") ||
		strings.HasPrefix(dsn, "postgres://") ||
		strings.HasPrefix(dsn, "postgresql://") {
		return gorm.Open(postgres.Open(dsn), &gorm.Config{})
	}
	return gorm.Open(sqlite.Open(dsn), &gorm.Config{})
}
