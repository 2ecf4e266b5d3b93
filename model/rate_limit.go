// Package model holds the gorm models backing the shared rate-limit
// store
package model

type RateLimit struct {
	ClientKey   string `gorm:"primaryKey"`
	LastRequest int64  // epoch millis of the last accepted request
}
