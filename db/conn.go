// Package db opens the database backing the shared rate-limit store
package db

import (
	"fmt"

	"guestbook-api/model"

	"github.com/spf13/viper"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// New opens the database selected by ratelimit.store and migrates the
// rate-limit table. Only called when the store isn't "memory".
func New() (*gorm.DB, error) {
	var (
		db  *gorm.DB
		err error
	)

	switch viper.GetString("ratelimit.store") {
	case "sqlite":
		dsn := viper.GetString("ratelimit.dsn")
		if dsn == "" {
			dsn = "ratelimit.db"
		}

		db, err = gorm.Open(sqlite.Open(dsn))
	case "postgres":
		db, err = gorm.Open(postgres.Open(viper.GetString("ratelimit.dsn")))
	default:
		return nil, fmt.Errorf("unsupported rate limit store '%s'", viper.GetString("ratelimit.store"))
	}

	if err != nil {
		return nil, fmt.Errorf("failed to open rate limit database, %w", err)
	}

	err = db.AutoMigrate(model.RateLimit{})
	if err != nil {
		return nil, fmt.Errorf("failed to automigrate tables, %w", err)
	}

	return db, nil
}
