package auth

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// AccountType is the kind of account a user registered
type AccountType string

const (
	// AccountTypeIndividual is a personal account
	AccountTypeIndividual AccountType = "individual"
	// AccountTypeBusiness is a business account, it carries a business name
	AccountTypeBusiness AccountType = "business"
)

// User is the user model
type User struct {
	bun.BaseModel `bun:"table:users,alias:usr"`

	ID           uuid.UUID   `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	FirstName    string      `bun:"first_name,notnull" json:"first_name,omitempty"`
	LastName     string      `bun:"last_name,notnull" json:"last_name,omitempty"`
	Username     string      `bun:"username,notnull,unique" json:"username,omitempty"`
	Email        string      `bun:"email,notnull,unique" json:"email,omitempty"`
	Phone        string      `bun:"phone_number" json:"phone_number,omitempty"`
	BusinessName string      `bun:"business_name" json:"business_name,omitempty"`
	AccountType  AccountType `bun:"account_type,notnull" json:"account_type,omitempty"`
	PasswordHash string      `bun:"password_hash" json:"-"`

	EmailVerified              bool       `bun:"is_email_verified" json:"is_email_verified"`
	EmailVerificationToken     *string    `bun:"email_verification_token,nullzero" json:"-"`
	EmailVerificationExpiresAt *time.Time `bun:"email_verification_expires_at,nullzero" json:"-"`
	ResetPasswordToken         *string    `bun:"reset_password_token,nullzero" json:"-"`
	ResetPasswordExpiresAt     *time.Time `bun:"reset_password_expires_at,nullzero" json:"-"`

	CreatedAt *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// HasOutstandingReset reports whether an unconsumed, unexpired reset token
// exists at the given instant. Expiry is exclusive: a token presented exactly
// at its expiry time is already expired.
func (u *User) HasOutstandingReset(now time.Time) bool {
	return u.ResetPasswordToken != nil &&
		u.ResetPasswordExpiresAt != nil &&
		u.ResetPasswordExpiresAt.After(now)
}

// HasOutstandingVerification reports whether an unconsumed, unexpired
// verification token exists at the given instant.
func (u *User) HasOutstandingVerification(now time.Time) bool {
	return u.EmailVerificationToken != nil &&
		u.EmailVerificationExpiresAt != nil &&
		u.EmailVerificationExpiresAt.After(now)
}

// Profile is the sanitized projection of a User. It is the only user shape
// that crosses the HTTP boundary; hashes and tokens never appear on it.
type Profile struct {
	ID           uuid.UUID   `json:"id"`
	FirstName    string      `json:"first_name"`
	LastName     string      `json:"last_name"`
	Username     string      `json:"username"`
	Email        string      `json:"email"`
	Phone        string      `json:"phone_number,omitempty"`
	BusinessName string      `json:"business_name,omitempty"`
	AccountType  AccountType `json:"account_type"`
	Verified     bool        `json:"is_email_verified"`
	CreatedAt    *time.Time  `json:"created_at,omitempty"`
}

// NewProfile builds the sanitized projection at the data access boundary.
func NewProfile(u *User) *Profile {
	if u == nil {
		return nil
	}
	return &Profile{
		ID:           u.ID,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		Username:     u.Username,
		Email:        u.Email,
		Phone:        u.Phone,
		BusinessName: u.BusinessName,
		AccountType:  u.AccountType,
		Verified:     u.EmailVerified,
		CreatedAt:    u.CreatedAt,
	}
}

type authIdentity struct {
	id       string
	email    string
	username string
}

func (a authIdentity) ID() string       { return a.id }
func (a authIdentity) Email() string    { return a.email }
func (a authIdentity) Username() string { return a.username }

// IdentityFromUser adapts a User record to the Identity interface.
func IdentityFromUser(u *User) Identity {
	return authIdentity{
		id:       u.ID.String(),
		email:    u.Email,
		username: u.Username,
	}
}
