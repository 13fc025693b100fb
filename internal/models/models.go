package models

import (
	"time"

	"gorm.io/gorm"
)

// User is an account holder. Accounts are never updated or deleted.
type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Username     string    `gorm:"uniqueIndex;size:100;not null" json:"username"`
	PasswordHash string    `gorm:"not null" json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// RegistrationQuota counts accounts created per originating network address.
// The counter only ever grows; there is no TTL.
type RegistrationQuota struct {
	Address string `gorm:"primaryKey;size:64" json:"address"`
	Count   int    `gorm:"not null" json:"count"`
}

// QRClaimToken is a short-lived, single-use login token. The row is deleted
// on claim, or lazily on the first lookup past ExpiresAt.
type QRClaimToken struct {
	Token     string `gorm:"primaryKey;size:128" json:"token"`
	Username  string `gorm:"size:100;not null" json:"username"`
	ExpiresAt int64  `gorm:"not null" json:"expires_at"` // unix seconds
}

// AutoMigrate runs database migrations for all models
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&User{},
		&RegistrationQuota{},
		&QRClaimToken{},
	)
}
