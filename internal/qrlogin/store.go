// Package qrlogin implements single-use claim tokens for QR login. A token
// exchanges exactly once for a session; expired rows are deleted lazily on
// the lookup that finds them.
package qrlogin

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"time"

	"github.com/nasmini/backend/internal/common"
	"github.com/nasmini/backend/internal/models"
	"gorm.io/gorm"
)

type Store struct {
	db  *gorm.DB
	ttl time.Duration
	now func() time.Time
}

func NewStore(db *gorm.DB, ttl time.Duration) *Store {
	return &Store{db: db, ttl: ttl, now: time.Now}
}

// Create issues a fresh claim token bound to username.
func (s *Store) Create(ctx context.Context, username string) (token string, expiresAt int64, err error) {
	token, err = newToken()
	if err != nil {
		return "", 0, err
	}
	expiresAt = s.now().Add(s.ttl).Unix()

	row := &models.QRClaimToken{Token: token, Username: username, ExpiresAt: expiresAt}
	if err := s.db.WithContext(ctx).Create(row).Error; err != nil {
		return "", 0, err
	}
	return token, expiresAt, nil
}

// Claim consumes a token and returns the bound username. The row is deleted
// whether the token was claimed or found expired, so a token can never be
// accepted twice. An expired row still commits its delete, which is why the
// expiry result is carried out of the transaction instead of rolling it back.
func (s *Store) Claim(ctx context.Context, token string) (string, error) {
	var username string
	var expired bool
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row models.QRClaimToken
		if err := tx.Where("token = ?", token).First(&row).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return common.ErrInvalidOrExpiredToken
			}
			return err
		}
		res := tx.Delete(&models.QRClaimToken{}, "token = ?", token)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			// a concurrent claim got here first
			return common.ErrInvalidOrExpiredToken
		}
		if s.now().Unix() >= row.ExpiresAt {
			expired = true
			return nil
		}
		username = row.Username
		return nil
	})
	if err != nil {
		return "", err
	}
	if expired {
		return "", common.ErrInvalidOrExpiredToken
	}
	return username, nil
}

func newToken() (string, error) {
	b := make([]byte, 24)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
