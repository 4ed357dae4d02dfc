package database

import (
	"fmt"
	"log"
	"time"

	"github.com/golang-migrate/migrate/v4"
	migratemysql "github.com/golang-migrate/migrate/v4/database/mysql"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"github.com/citymaid/citymaid/app/models"
	"github.com/citymaid/citymaid/internal/pkg/env"
)

const maxRetries = 5
const retryDelay = 5 * time.Second

var DB *gorm.DB

func SetupDatabase() {
	var err error
	// multiStatements is required for the migration runner; migration files
	// contain more than one statement.
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local&multiStatements=true",
		env.GetEnv("DB_USER", ""),
		env.GetEnv("DB_PASSWORD", ""),
		env.GetEnv("DB_HOST", "127.0.0.1"),
		env.GetEnv("DB_PORT", "3306"),
		env.GetEnv("DB_NAME", ""),
	)

	for i := 0; i < maxRetries; i++ {
		DB, err = gorm.Open(mysql.New(mysql.Config{
			DSN:                       dsn,
			DefaultStringSize:         256,
			DisableDatetimePrecision:  true,
			DontSupportRenameIndex:    true,
			DontSupportRenameColumn:   true,
			SkipInitializeWithVersion: false,
		}), &gorm.Config{TranslateError: true})
		if err == nil {
			// Migrations must run before AutoMigrate. AutoMigrate builds
			// tables from the model fields only, so on a fresh database it
			// would create payment_requests without the active_key generated
			// column, and the migration's CREATE TABLE IF NOT EXISTS would
			// then skip it while still recording the version as applied.
			// Without that unique index two concurrent creates can both pass
			// the count check and insert.
			if merr := runMigrations(); merr != nil {
				panic(fmt.Sprintf("database migrations failed: %v", merr))
			}

			DB.AutoMigrate(
				&models.User{},
				&models.Post{},
				&models.PaymentRequest{},
			)

			return
		}

		log.Printf("Failed to connect to database (try %d/%d): %v", i+1, maxRetries, err)
		if i < maxRetries-1 {
			log.Printf("Retrying in %v...", retryDelay)
			time.Sleep(retryDelay)
		}
	}

	if err != nil {
		panic(err)
	}
}

// runMigrations applies all pending SQL migrations on the open connection.
// cmd/migrate stays available for manual operations (down, goto, status).
func runMigrations() error {
	sqlDB, err := DB.DB()
	if err != nil {
		return err
	}

	driver, err := migratemysql.WithInstance(sqlDB, &migratemysql.Config{})
	if err != nil {
		return err
	}

	m, err := migrate.NewWithDatabaseInstance(
		"file://"+env.GetEnv("MIGRATIONS_PATH", "migrations"),
		"mysql", driver,
	)
	if err != nil {
		return err
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return err
	}
	return nil
}

// GetDB returns the process-wide GORM handle.
func GetDB() *gorm.DB {
	return DB
}
