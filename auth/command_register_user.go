package auth

import (
	"context"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/uptrace/bun"
)

type RegisterUserMessage struct {
	FirstName       string      `json:"first_name"`
	LastName        string      `json:"last_name"`
	Username        string      `json:"username"`
	Email           string      `json:"email"`
	Phone           string      `json:"phone"`
	BusinessName    string      `json:"business_name"`
	AccountType     AccountType `json:"account_type"`
	Password        string      `json:"password"`
	ConfirmPassword string      `json:"confirm_password"`
	UseHashid       bool
}

func (e RegisterUserMessage) Type() string { return "user.register" }

// RegisterUserHandler creates a user in the unverified state, with a pending
// verification artifact, and asks the notifier to deliver it. Notifier
// failure does not roll the user back: the account exists and stays
// unverified until a fresh code is requested.
type RegisterUserHandler struct {
	repo     RepositoryManager
	notifier Notifier
	cfg      Config
	logger   Logger
}

func NewRegisterUserHandler(repo RepositoryManager, notifier Notifier, cfg Config) *RegisterUserHandler {
	return &RegisterUserHandler{
		repo:     repo,
		notifier: notifier,
		cfg:      cfg,
		logger:   defLogger{},
	}
}

func (h *RegisterUserHandler) WithLogger(logger Logger) *RegisterUserHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *RegisterUserHandler) Execute(ctx context.Context, event RegisterUserMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during user registration",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *RegisterUserHandler) execute(ctx context.Context, event RegisterUserMessage) error {
	if event.Password != event.ConfirmPassword {
		return ErrPasswordMismatch
	}

	user := &User{}
	verification := ""

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	err := h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		// Both existence checks run even when the first hits, so either
		// conflict can be reported; email wins when both collide.
		emailExists, err := h.repo.Users().EmailExistsTx(ctx, tx, event.Email)
		if err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to check email existence")
		}

		usernameExists, err := h.repo.Users().UsernameExistsTx(ctx, tx, event.Username)
		if err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to check username existence")
		}

		if emailExists {
			return ErrEmailExists
		}

		if usernameExists {
			return ErrUsernameExists
		}

		hash, err := HashPassword(event.Password)
		if err != nil {
			var richErr *goerrors.Error
			if goerrors.As(err, &richErr) {
				return goerrors.Wrap(richErr, goerrors.CategoryValidation, "invalid password provided")
			}
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash password")
		}

		token, err := NewArtifact()
		if err != nil {
			return err
		}

		expiresAt := time.Now().Add(ArtifactTTL(h.cfg))

		user.PasswordHash = hash
		user.Email = event.Email
		user.Phone = event.Phone
		user.FirstName = event.FirstName
		user.LastName = event.LastName
		user.BusinessName = event.BusinessName
		user.AccountType = event.AccountType
		user.Username = getUsername(event.Username, event.Email)
		user.EmailVerified = false
		user.EmailVerificationToken = &token
		user.EmailVerificationExpiresAt = &expiresAt
		if event.UseHashid {
			if id, err := hashid.NewUUID(event.Email); err == nil {
				user.ID = id
			}
		}

		if user, err = h.repo.Users().RegisterTx(ctx, tx, user); err != nil {
			var richErr *goerrors.Error
			if goerrors.As(err, &richErr) {
				return richErr
			}
			return goerrors.Wrap(err, goerrors.CategoryConflict, "could not create user")
		}

		verification = token
		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}

		return goerrors.Wrap(err, goerrors.CategoryInternal, "user registration transaction failed")
	}

	if err := h.notifier.SendVerificationEmail(ctx, user.Email, verification); err != nil {
		h.logger.Error("verification email delivery failed", "email", user.Email, "error", err)
	}

	return nil
}

func getUsername(username, email string) string {
	if username != "" {
		return username
	}

	if strings.Contains(email, "@") {
		username = strings.Split(email, "@")[0]
	}

	return username
}
