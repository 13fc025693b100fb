package users

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/nasmini/backend/internal/common"
	"github.com/nasmini/backend/internal/models"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:" + strings.ReplaceAll(t.Name(), "/", "_") + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, models.AutoMigrate(db))
	return db
}

func TestRegisterThenAuthenticate(t *testing.T) {
	svc := NewService(newTestDB(t), 2, nil)
	ctx := context.Background()

	user, err := svc.Register(ctx, "alice", "hunter2", "10.0.0.1")
	require.NoError(t, err)
	require.Equal(t, "alice", user.Username)
	require.NotEqual(t, "hunter2", user.PasswordHash)

	got, err := svc.Authenticate(ctx, "alice", "hunter2")
	require.NoError(t, err)
	require.Equal(t, user.ID, got.ID)
}

func TestAuthenticate_WrongPassword(t *testing.T) {
	svc := NewService(newTestDB(t), 2, nil)
	ctx := context.Background()

	_, err := svc.Register(ctx, "alice", "hunter2", "10.0.0.1")
	require.NoError(t, err)

	_, err = svc.Authenticate(ctx, "alice", "wrong")
	require.ErrorIs(t, err, common.ErrInvalidCredentials)
}

func TestAuthenticate_UnknownUser(t *testing.T) {
	svc := NewService(newTestDB(t), 2, nil)

	_, err := svc.Authenticate(context.Background(), "nobody", "whatever")
	require.ErrorIs(t, err, common.ErrInvalidCredentials)
}

func TestRegister_DuplicateUsername(t *testing.T) {
	svc := NewService(newTestDB(t), 10, nil)
	ctx := context.Background()

	_, err := svc.Register(ctx, "alice", "one", "10.0.0.1")
	require.NoError(t, err)

	_, err = svc.Register(ctx, "alice", "two", "10.0.0.2")
	require.ErrorIs(t, err, common.ErrDuplicateUsername)
}

func TestRegister_QuotaCap(t *testing.T) {
	svc := NewService(newTestDB(t), 2, nil)
	ctx := context.Background()

	_, err := svc.Register(ctx, "a1", "pw", "10.0.0.1")
	require.NoError(t, err)
	_, err = svc.Register(ctx, "a2", "pw", "10.0.0.1")
	require.NoError(t, err)

	_, err = svc.Register(ctx, "a3", "pw", "10.0.0.1")
	require.ErrorIs(t, err, common.ErrQuotaExceeded)

	// another address is unaffected
	_, err = svc.Register(ctx, "b1", "pw", "10.0.0.2")
	require.NoError(t, err)
}

func TestRegister_QuotaCapConcurrent(t *testing.T) {
	svc := NewService(newTestDB(t), 2, nil)
	ctx := context.Background()

	const attempts = 8
	results := make(chan error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := svc.Register(ctx, "user"+string(rune('a'+i)), "pw", "10.9.9.9")
			results <- err
		}(i)
	}
	wg.Wait()
	close(results)

	var ok, capped int
	for err := range results {
		switch {
		case err == nil:
			ok++
		default:
			require.ErrorIs(t, err, common.ErrQuotaExceeded)
			capped++
		}
	}
	require.Equal(t, 2, ok)
	require.Equal(t, attempts-2, capped)
}

func TestRegister_ProvisionsDirectory(t *testing.T) {
	var provisioned []string
	svc := NewService(newTestDB(t), 2, func(username string) error {
		provisioned = append(provisioned, username)
		return nil
	})

	_, err := svc.Register(context.Background(), "alice", "pw", "10.0.0.1")
	require.NoError(t, err)
	require.Equal(t, []string{"alice"}, provisioned)
}

func TestRegister_ProvisionFailureIsNotFatal(t *testing.T) {
	svc := NewService(newTestDB(t), 2, func(username string) error {
		return errors.New("disk on fire")
	})
	ctx := context.Background()

	user, err := svc.Register(ctx, "alice", "pw", "10.0.0.1")
	require.NoError(t, err)
	require.Equal(t, "alice", user.Username)

	// the account is usable despite the failed provisioning
	_, err = svc.Authenticate(ctx, "alice", "pw")
	require.NoError(t, err)
}
