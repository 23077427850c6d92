// file: database/connect.go
package database

import (
	"log"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"github.com/lqSky7/pwncore/models"
)

var DB *gorm.DB

func Connect(dsn string) {
	var err error
	DB, err = gorm.Open(mysql.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	sqlDB, err := DB.DB()
	if err != nil {
		log.Fatal("Failed to get underlying sql.DB:", err)
	}

	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	// Keeps pooled connections younger than MySQL's wait_timeout.
	sqlDB.SetConnMaxLifetime(time.Hour)

	log.Println("Database connection established and connection pool configured.")
}

func MigrateTables() {
	err := DB.AutoMigrate(
		&models.User{},
		&models.Team{},
		&models.Problem{},
		&models.Hint{},
		&models.ViewedHint{},
		&models.SolvedProblem{},
	)
	if err != nil {
		log.Fatal("Failed to migrate database:", err)
	}
	log.Println("Database migration completed.")
}
