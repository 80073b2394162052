package auth_test

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"testing"
	"time"

	"github.com/Gspeed-bit/invoica-backend/auth"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"

	_ "github.com/mattn/go-sqlite3"
)

func setupTestDB(t *testing.T) (*bun.DB, func()) {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)

	bunDB := bun.NewDB(db, sqlitedialect.New())

	require.NoError(t, auth.RunMigrations(context.Background(), bunDB))

	cleanup := func() {
		_ = bunDB.Close()
		_ = db.Close()
	}

	return bunDB, cleanup
}

// testRepoManager is the in-test RepositoryManager wired to the sqlite DB
type testRepoManager struct {
	db    *bun.DB
	users auth.Users
}

func newTestRepoManager(db *bun.DB) *testRepoManager {
	return &testRepoManager{
		db:    db,
		users: auth.NewUsersRepository(db),
	}
}

func (m *testRepoManager) Validate() error {
	if m.users == nil {
		return errors.New("repository users should be initialized")
	}
	return nil
}

func (m *testRepoManager) MustValidate() {
	if err := m.Validate(); err != nil {
		log.Panic(err)
	}
}

func (m *testRepoManager) RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error {
	return m.db.RunInTx(ctx, opts, f)
}

func (m *testRepoManager) Users() auth.Users {
	return m.users
}

func seedUser(t *testing.T, users auth.Users, mutate ...func(*auth.User)) *auth.User {
	t.Helper()

	hash, err := auth.HashPassword("password123!")
	require.NoError(t, err)

	user := &auth.User{
		FirstName:    "Ada",
		LastName:     "Lovelace",
		Username:     "ada",
		Email:        "ada@example.com",
		AccountType:  auth.AccountTypeIndividual,
		PasswordHash: hash,
	}

	for _, fn := range mutate {
		fn(user)
	}

	record, err := users.Register(context.Background(), user)
	require.NoError(t, err)
	require.NotNil(t, record)

	return record
}

func futureTime(d time.Duration) *time.Time {
	ts := time.Now().Add(d).UTC()
	return &ts
}
