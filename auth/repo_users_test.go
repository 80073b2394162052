package auth_test

import (
	"context"
	"testing"
	"time"

	"github.com/Gspeed-bit/invoica-backend/auth"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
)

func TestRegisterAssignsDefaults(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	users := auth.NewUsersRepository(db)

	record := seedUser(t, users, func(u *auth.User) {
		u.AccountType = ""
	})

	assert.NotEqual(t, "", record.ID.String())
	assert.Equal(t, auth.AccountTypeIndividual, record.AccountType)
	assert.False(t, record.EmailVerified)
}

func TestRegisterDuplicateConflicts(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	users := auth.NewUsersRepository(db)
	seedUser(t, users)

	ctx := context.Background()

	t.Run("duplicate email", func(t *testing.T) {
		_, err := users.Register(ctx, &auth.User{
			FirstName:    "Other",
			LastName:     "Person",
			Username:     "other",
			Email:        "ada@example.com",
			PasswordHash: "x",
		})
		assert.ErrorIs(t, err, auth.ErrEmailExists)
	})

	t.Run("duplicate username", func(t *testing.T) {
		_, err := users.Register(ctx, &auth.User{
			FirstName:    "Other",
			LastName:     "Person",
			Username:     "ada",
			Email:        "other@example.com",
			PasswordHash: "x",
		})
		assert.ErrorIs(t, err, auth.ErrUsernameExists)
	})
}

func TestGetByIdentifier(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	users := auth.NewUsersRepository(db)
	seeded := seedUser(t, users)

	ctx := context.Background()

	t.Run("by email", func(t *testing.T) {
		record, err := users.GetByIdentifier(ctx, "ada@example.com")
		require.NoError(t, err)
		assert.Equal(t, seeded.ID, record.ID)
	})

	t.Run("by username", func(t *testing.T) {
		record, err := users.GetByIdentifier(ctx, "ada")
		require.NoError(t, err)
		assert.Equal(t, seeded.ID, record.ID)
	})

	t.Run("unknown identifier", func(t *testing.T) {
		_, err := users.GetByIdentifier(ctx, "nobody")
		assert.True(t, repository.IsRecordNotFound(err))
	})
}

func TestGetByEmailInsideTransaction(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	users := auth.NewUsersRepository(db)
	seeded := seedUser(t, users)

	// The suite runs on a single connection, so a lookup that bypasses the
	// open transaction starves instead of returning.
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	err := db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		record, err := users.GetByEmailTx(ctx, tx, "ada@example.com")
		if err != nil {
			return err
		}
		assert.Equal(t, seeded.ID, record.ID)

		_, err = users.GetByEmailTx(ctx, tx, "nobody@example.com")
		assert.True(t, repository.IsRecordNotFound(err))

		return nil
	})
	require.NoError(t, err)
}

func TestExistenceChecks(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	users := auth.NewUsersRepository(db)
	seedUser(t, users)

	ctx := context.Background()

	emailTaken, err := users.EmailExists(ctx, "ada@example.com")
	require.NoError(t, err)
	assert.True(t, emailTaken)

	emailFree, err := users.EmailExists(ctx, "free@example.com")
	require.NoError(t, err)
	assert.False(t, emailFree)

	usernameTaken, err := users.UsernameExists(ctx, "ada")
	require.NoError(t, err)
	assert.True(t, usernameTaken)

	usernameFree, err := users.UsernameExists(ctx, "free")
	require.NoError(t, err)
	assert.False(t, usernameFree)
}

func TestConsumeVerificationToken(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	users := auth.NewUsersRepository(db)
	ctx := context.Background()

	token := "verification-token-value"
	seeded := seedUser(t, users, func(u *auth.User) {
		u.EmailVerificationToken = &token
		u.EmailVerificationExpiresAt = futureTime(time.Hour)
	})

	t.Run("valid token verifies and clears", func(t *testing.T) {
		record, err := users.ConsumeVerificationToken(ctx, token, time.Now().UTC())
		require.NoError(t, err)

		assert.Equal(t, seeded.ID, record.ID)
		assert.True(t, record.EmailVerified)
		assert.Nil(t, record.EmailVerificationToken)
		assert.Nil(t, record.EmailVerificationExpiresAt)
	})

	t.Run("replay fails", func(t *testing.T) {
		_, err := users.ConsumeVerificationToken(ctx, token, time.Now().UTC())
		assert.ErrorIs(t, err, auth.ErrInvalidOrExpiredToken)
	})

	t.Run("unknown token fails", func(t *testing.T) {
		_, err := users.ConsumeVerificationToken(ctx, "never-issued", time.Now().UTC())
		assert.ErrorIs(t, err, auth.ErrInvalidOrExpiredToken)
	})

	t.Run("empty token fails", func(t *testing.T) {
		_, err := users.ConsumeVerificationToken(ctx, "", time.Now().UTC())
		assert.ErrorIs(t, err, auth.ErrInvalidOrExpiredToken)
	})
}

func TestConsumeVerificationTokenExpiry(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	users := auth.NewUsersRepository(db)
	ctx := context.Background()

	token := "expiring-token"
	expiry := time.Now().Add(time.Hour).UTC()
	seedUser(t, users, func(u *auth.User) {
		u.EmailVerificationToken = &token
		u.EmailVerificationExpiresAt = &expiry
	})

	t.Run("at the expiry instant the token is already dead", func(t *testing.T) {
		_, err := users.ConsumeVerificationToken(ctx, token, expiry)
		assert.ErrorIs(t, err, auth.ErrInvalidOrExpiredToken)
	})

	t.Run("after expiry it stays dead", func(t *testing.T) {
		_, err := users.ConsumeVerificationToken(ctx, token, expiry.Add(time.Minute))
		assert.ErrorIs(t, err, auth.ErrInvalidOrExpiredToken)
	})

	t.Run("before expiry it is live", func(t *testing.T) {
		record, err := users.ConsumeVerificationToken(ctx, token, expiry.Add(-time.Minute))
		require.NoError(t, err)
		assert.True(t, record.EmailVerified)
	})
}

func TestResetTokenLifecycle(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	users := auth.NewUsersRepository(db)
	ctx := context.Background()

	seeded := seedUser(t, users)
	originalHash := seeded.PasswordHash

	first := "first-reset-token"
	second := "second-reset-token"

	require.NoError(t, users.StoreResetToken(ctx, seeded.ID, first, *futureTime(time.Hour)))

	t.Run("storing a new token invalidates the previous one", func(t *testing.T) {
		require.NoError(t, users.StoreResetToken(ctx, seeded.ID, second, *futureTime(time.Hour)))

		_, err := users.ConsumeResetToken(ctx, first, "new-hash", time.Now().UTC())
		assert.ErrorIs(t, err, auth.ErrInvalidOrExpiredToken)
	})

	t.Run("live token swaps the password hash once", func(t *testing.T) {
		record, err := users.ConsumeResetToken(ctx, second, "new-hash", time.Now().UTC())
		require.NoError(t, err)

		assert.Equal(t, "new-hash", record.PasswordHash)
		assert.NotEqual(t, originalHash, record.PasswordHash)
		assert.Nil(t, record.ResetPasswordToken)
		assert.Nil(t, record.ResetPasswordExpiresAt)

		_, err = users.ConsumeResetToken(ctx, second, "other-hash", time.Now().UTC())
		assert.ErrorIs(t, err, auth.ErrInvalidOrExpiredToken)
	})

	t.Run("storing a token for a missing user fails", func(t *testing.T) {
		err := users.StoreResetToken(ctx, uuid.New(), "orphan-token", *futureTime(time.Hour))
		assert.True(t, repository.IsRecordNotFound(err))
	})
}
