package auth

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
)

type VerifyEmailMessage struct {
	Token string `json:"token"`
}

func (p VerifyEmailMessage) Type() string { return "user.email_verification" }

// VerifyEmailHandler consumes a verification artifact: the verified flag flip
// and the token clearing are one conditional update. Replaying a consumed
// token finds nothing to match and fails, which is the required idempotent
// failure mode.
type VerifyEmailHandler struct {
	repo   RepositoryManager
	logger Logger
}

func NewVerifyEmailHandler(repo RepositoryManager) *VerifyEmailHandler {
	return &VerifyEmailHandler{
		repo:   repo,
		logger: defLogger{},
	}
}

func (h *VerifyEmailHandler) WithLogger(logger Logger) *VerifyEmailHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *VerifyEmailHandler) Execute(ctx context.Context, event VerifyEmailMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(ctx.Err(), goerrors.CategoryOperation, "context cancelled during email verification")
	default:
		return h.execute(ctx, event)
	}
}

func (h *VerifyEmailHandler) execute(ctx context.Context, event VerifyEmailMessage) error {
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	err := h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := h.repo.Users().ConsumeVerificationTokenTx(ctx, tx, event.Token, time.Now()); err != nil {
			return err
		}
		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to verify email")
	}

	return nil
}
