package auth

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/uptrace/bun"
)

type InitializePasswordResetMessage struct {
	Email string `json:"email"`
}

func (p InitializePasswordResetMessage) Type() string { return "user.password_reset" }

// InitializePasswordResetHandler issues a fresh reset artifact for the user,
// overwriting any outstanding one, and asks the notifier to deliver it.
type InitializePasswordResetHandler struct {
	repo     RepositoryManager
	notifier Notifier
	cfg      Config
	logger   Logger
}

func NewInitializePasswordResetHandler(repo RepositoryManager, notifier Notifier, cfg Config) *InitializePasswordResetHandler {
	return &InitializePasswordResetHandler{
		repo:     repo,
		notifier: notifier,
		cfg:      cfg,
		logger:   defLogger{},
	}
}

func (h *InitializePasswordResetHandler) WithLogger(logger Logger) *InitializePasswordResetHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *InitializePasswordResetHandler) Execute(ctx context.Context, event InitializePasswordResetMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during password reset initialization",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *InitializePasswordResetHandler) execute(ctx context.Context, event InitializePasswordResetMessage) error {
	user := &User{}
	token := ""

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	var err error

	err = h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		user, err = h.repo.Users().GetByEmailTx(ctx, tx, event.Email)
		if err != nil {
			if repository.IsRecordNotFound(err) {
				// Unknown emails are rejected, not silently accepted.
				return ErrUserNotFound
			}
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve user for password reset")
		}

		token, err = NewArtifact()
		if err != nil {
			return err
		}

		expiresAt := time.Now().Add(ArtifactTTL(h.cfg))

		if err := h.repo.Users().StoreResetTokenTx(ctx, tx, user.ID, token, expiresAt); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to store password reset token")
		}

		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to initialize password reset")
	}

	if err := h.notifier.SendPasswordResetEmail(ctx, user.Email, token); err != nil {
		h.logger.Error("reset email delivery failed", "email", user.Email, "error", err)
	}

	return nil
}
