package auth

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// ConsumeVerificationTokenSQL flips the verified flag and clears the token
// fields in one statement, conditioned on the token still matching and being
// unexpired. Zero rows back means the token was never issued, already
// consumed, or expired; the caller cannot distinguish and must not try.
var ConsumeVerificationTokenSQL = `UPDATE "users" AS "usr"
SET
	"is_email_verified" = TRUE,
	"email_verification_token" = NULL,
	"email_verification_expires_at" = NULL,
	"updated_at" = ?
WHERE
	"usr"."email_verification_token" = ?
AND (
	"usr"."email_verification_expires_at" > ?
) RETURNING *;`

// ConsumeResetTokenSQL replaces the password hash and clears the reset token
// fields in one statement with the same compare-and-swap condition.
var ConsumeResetTokenSQL = `UPDATE "users" AS "usr"
SET
	"password_hash" = ?,
	"reset_password_token" = NULL,
	"reset_password_expires_at" = NULL,
	"updated_at" = ?
WHERE
	"usr"."reset_password_token" = ?
AND (
	"usr"."reset_password_expires_at" > ?
) RETURNING *;`

// StoreResetTokenSQL overwrites any outstanding reset token, which is how a
// prior pending token gets invalidated.
var StoreResetTokenSQL = `UPDATE "users" AS "usr"
SET
	"reset_password_token" = ?,
	"reset_password_expires_at" = ?,
	"updated_at" = ?
WHERE
	"usr"."id" = ? RETURNING *;`

type Users interface {
	repository.Repository[*User]

	Register(ctx context.Context, user *User) (*User, error)
	RegisterTx(ctx context.Context, tx bun.IDB, user *User) (*User, error)

	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByEmailTx(ctx context.Context, tx bun.IDB, email string) (*User, error)

	EmailExists(ctx context.Context, email string) (bool, error)
	EmailExistsTx(ctx context.Context, tx bun.IDB, email string) (bool, error)
	UsernameExists(ctx context.Context, username string) (bool, error)
	UsernameExistsTx(ctx context.Context, tx bun.IDB, username string) (bool, error)

	StoreResetToken(ctx context.Context, id uuid.UUID, token string, expiresAt time.Time) error
	StoreResetTokenTx(ctx context.Context, tx bun.IDB, id uuid.UUID, token string, expiresAt time.Time) error

	ConsumeVerificationToken(ctx context.Context, token string, now time.Time) (*User, error)
	ConsumeVerificationTokenTx(ctx context.Context, tx bun.IDB, token string, now time.Time) (*User, error)
	ConsumeResetToken(ctx context.Context, token, passwordHash string, now time.Time) (*User, error)
	ConsumeResetTokenTx(ctx context.Context, tx bun.IDB, token, passwordHash string, now time.Time) (*User, error)
}

type users struct {
	repository.Repository[*User]
	db *bun.DB
}

var (
	_ Users                        = (*users)(nil)
	_ repository.Repository[*User] = (*users)(nil)
)

func NewUsersRepository(db *bun.DB) Users {
	repo := repository.NewRepository[*User](db, repository.ModelHandlers[*User]{
		NewRecord: func() *User { return &User{} },
		GetID: func(u *User) uuid.UUID {
			if u == nil {
				return uuid.Nil
			}
			return u.ID
		},
		SetID: func(u *User, id uuid.UUID) {
			if u != nil {
				u.ID = id
			}
		},
		GetIdentifier: func() string {
			return "email"
		},
	})

	return &users{
		Repository: repo,
		db:         db,
	}
}

func (a *users) Register(ctx context.Context, user *User) (*User, error) {
	return a.RegisterTx(ctx, a.db, user)
}

// RegisterTx inserts a new user. The unique indexes on email and username are
// the authoritative duplicate guard: a race past the existence pre-checks
// still surfaces here as a conflict.
func (a *users) RegisterTx(ctx context.Context, tx bun.IDB, user *User) (*User, error) {
	prepareUserDefaults(user)

	record, err := a.Repository.CreateTx(ctx, tx, user)
	if err != nil {
		if conflict := uniqueConflict(err); conflict != nil {
			return nil, conflict
		}
		return nil, err
	}

	return record, nil
}

// GetByIdentifier finds a user by email or username in a single query.
func (a *users) GetByIdentifier(ctx context.Context, identifier string, criteria ...repository.SelectCriteria) (*User, error) {
	return a.GetByIdentifierTx(ctx, a.db, identifier, criteria...)
}

func (a *users) GetByIdentifierTx(ctx context.Context, tx bun.IDB, identifier string, criteria ...repository.SelectCriteria) (*User, error) {
	record := &User{}

	q := tx.NewSelect().Model(record)

	for _, c := range criteria {
		q.Apply(c)
	}

	err := q.
		WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.
				Where("?TableAlias.email = ?", identifier).
				WhereOr("?TableAlias.username = ?", identifier)
		}).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if isNoRows(err) {
			return nil, repository.NewRecordNotFound().
				WithMetadata(map[string]any{
					"identifier": identifier,
				})
		}
		return nil, err
	}

	return record, nil
}

func (a *users) GetByEmail(ctx context.Context, email string) (*User, error) {
	return a.GetByEmailTx(ctx, a.db, email)
}

func (a *users) GetByEmailTx(ctx context.Context, tx bun.IDB, email string) (*User, error) {
	record := &User{}

	err := tx.NewSelect().
		Model(record).
		Where("?TableAlias.email = ?", email).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if isNoRows(err) {
			return nil, repository.NewRecordNotFound().
				WithMetadata(map[string]any{
					"email": email,
				})
		}
		return nil, err
	}

	return record, nil
}

func (a *users) EmailExists(ctx context.Context, email string) (bool, error) {
	return a.EmailExistsTx(ctx, a.db, email)
}

func (a *users) EmailExistsTx(ctx context.Context, tx bun.IDB, email string) (bool, error) {
	return tx.NewSelect().
		Model((*User)(nil)).
		Where("?TableAlias.email = ?", email).
		Exists(ctx)
}

func (a *users) UsernameExists(ctx context.Context, username string) (bool, error) {
	return a.UsernameExistsTx(ctx, a.db, username)
}

func (a *users) UsernameExistsTx(ctx context.Context, tx bun.IDB, username string) (bool, error) {
	return tx.NewSelect().
		Model((*User)(nil)).
		Where("?TableAlias.username = ?", username).
		Exists(ctx)
}

func (a *users) StoreResetToken(ctx context.Context, id uuid.UUID, token string, expiresAt time.Time) error {
	return a.StoreResetTokenTx(ctx, a.db, id, token, expiresAt)
}

func (a *users) StoreResetTokenTx(ctx context.Context, tx bun.IDB, id uuid.UUID, token string, expiresAt time.Time) error {
	res, err := a.Repository.RawTx(ctx, tx, StoreResetTokenSQL, token, expiresAt, time.Now(), id.String())
	if err != nil {
		return err
	}

	if len(res) == 0 {
		return repository.NewRecordNotFound().
			WithMetadata(map[string]any{
				"id": id.String(),
			})
	}

	return nil
}

func (a *users) ConsumeVerificationToken(ctx context.Context, token string, now time.Time) (*User, error) {
	return a.ConsumeVerificationTokenTx(ctx, a.db, token, now)
}

func (a *users) ConsumeVerificationTokenTx(ctx context.Context, tx bun.IDB, token string, now time.Time) (*User, error) {
	if token == "" {
		return nil, ErrInvalidOrExpiredToken
	}

	res, err := a.Repository.RawTx(ctx, tx, ConsumeVerificationTokenSQL, now, token, now)
	if err != nil {
		return nil, err
	}

	if len(res) == 0 {
		return nil, ErrInvalidOrExpiredToken
	}

	return res[0], nil
}

func (a *users) ConsumeResetToken(ctx context.Context, token, passwordHash string, now time.Time) (*User, error) {
	return a.ConsumeResetTokenTx(ctx, a.db, token, passwordHash, now)
}

func (a *users) ConsumeResetTokenTx(ctx context.Context, tx bun.IDB, token, passwordHash string, now time.Time) (*User, error) {
	if token == "" {
		return nil, ErrInvalidOrExpiredToken
	}

	res, err := a.Repository.RawTx(ctx, tx, ConsumeResetTokenSQL, passwordHash, now, token, now)
	if err != nil {
		return nil, err
	}

	if len(res) == 0 {
		return nil, ErrInvalidOrExpiredToken
	}

	return res[0], nil
}

func prepareUserDefaults(record *User) {
	if record == nil {
		return
	}

	if record.AccountType == "" {
		record.AccountType = AccountTypeIndividual
	}

	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
}

// uniqueConflict maps storage-level uniqueness violations to the domain
// conflict errors. Covers sqlite and postgres phrasings.
func uniqueConflict(err error) error {
	if err == nil {
		return nil
	}

	msg := err.Error()
	if !strings.Contains(msg, "UNIQUE constraint failed") &&
		!strings.Contains(msg, "duplicate key value") {
		return nil
	}

	if strings.Contains(msg, "email") {
		return ErrEmailExists
	}

	if strings.Contains(msg, "username") {
		return ErrUsernameExists
	}

	return ErrEmailExists
}

func isNoRows(err error) bool {
	return err == sql.ErrNoRows || repository.IsRecordNotFound(err)
}
