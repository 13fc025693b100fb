// Package users implements the credential store: registration with a
// per-address account cap and password verification.
package users

import (
	"context"
	"errors"
	"log"
	"sync"

	"github.com/nasmini/backend/internal/common"
	"github.com/nasmini/backend/internal/models"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// dummyHash is compared against when the username is unknown, so lookup
// misses and password mismatches take the same time and return the same
// error.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("nasmini-timing-pad"), bcrypt.DefaultCost)

type Service struct {
	db        *gorm.DB
	cap       int
	provision func(username string) error

	// serializes the quota check-then-increment; without it two concurrent
	// registrations from one address could both pass the cap check
	mu sync.Mutex
}

// NewService creates a credential store. provision is called once per new
// account to create the user's storage directory; it may be nil.
func NewService(db *gorm.DB, cap int, provision func(username string) error) *Service {
	return &Service{db: db, cap: cap, provision: provision}
}

// Register creates an account, enforcing username uniqueness and the
// per-address registration cap.
func (s *Service) Register(ctx context.Context, username, password, originAddr string) (*models.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	user := &models.User{Username: username, PasswordHash: string(hash)}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var quota models.RegistrationQuota
		err := tx.Where("address = ?", originAddr).First(&quota).Error
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if quota.Count >= s.cap {
			return common.ErrQuotaExceeded
		}

		var count int64
		if err := tx.Model(&models.User{}).Where("username = ?", username).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return common.ErrDuplicateUsername
		}

		if err := tx.Create(user).Error; err != nil {
			return err
		}

		if quota.Address == "" {
			return tx.Create(&models.RegistrationQuota{Address: originAddr, Count: 1}).Error
		}
		return tx.Model(&models.RegistrationQuota{}).
			Where("address = ?", originAddr).
			Update("count", gorm.Expr("count + 1")).Error
	})
	if err != nil {
		return nil, err
	}

	if s.provision != nil {
		// the account is committed at this point; the directory is created
		// on demand by the file store, so a failure here is not fatal
		if err := s.provision(username); err != nil {
			log.Printf("Provision directory for %s failed: %v", username, err)
		}
	}
	return user, nil
}

// Authenticate verifies a username/password pair. Unknown usernames and
// wrong passwords are indistinguishable to the caller.
func (s *Service) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where("username = ?", username).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
			return nil, common.ErrInvalidCredentials
		}
		return nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, common.ErrInvalidCredentials
	}
	return &user, nil
}
