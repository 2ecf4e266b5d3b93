package ratelimit

import (
	"errors"
	"time"

	"guestbook-api/model"

	"gorm.io/gorm"
)

// DBStore keeps cooldown state in a database so the limit holds across
// restarts and, with postgres, across multiple instances.
type DBStore struct {
	db       *gorm.DB
	cooldown time.Duration
}

func NewDBStore(db *gorm.DB, cooldown time.Duration) *DBStore {
	return &DBStore{
		db:       db,
		cooldown: cooldown,
	}
}

func (s *DBStore) Allow(key string) (bool, error) {
	now := time.Now().UnixMilli()
	allowed := false

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var row model.RateLimit

		err := tx.Where("client_key = ?", key).First(&row).Error
		if err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}

			allowed = true
			return tx.Create(&model.RateLimit{ClientKey: key, LastRequest: now}).Error
		}

		if now-row.LastRequest < s.cooldown.Milliseconds() {
			return nil
		}

		allowed = true
		return tx.Model(&model.RateLimit{}).
			Where("client_key = ?", key).
			Update("last_request", now).
			Error
	})
	if err != nil {
		return false, err
	}

	return allowed, nil
}
