package database

import (
	"fmt"

	"github.com/jinzhu/gorm"
	_ "github.com/jinzhu/gorm/dialects/postgres" // PostgreSQL dialect
	_ "github.com/jinzhu/gorm/dialects/sqlite"   // SQLite dialect

	"takeaway/internal/models"
)

var DB *gorm.DB

// InitDB opens the orders database and migrates the schema. Driver is
// "sqlite3" or "postgres".
func InitDB(driver, dsn string) error {
	db, err := gorm.Open(driver, dsn)
	if err != nil {
		return fmt.Errorf("failed to open %s database: %w", driver, err)
	}
	db.AutoMigrate(&models.User{}, &models.Order{})
	DB = db
	return nil
}

// GetDB returns the database instance
func GetDB() *gorm.DB {
	return DB
}

// CloseDB closes the database connection
func CloseDB() error {
	if DB != nil {
		return DB.Close()
	}
	return nil
}
