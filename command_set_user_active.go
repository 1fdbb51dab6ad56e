package auth

import (
	"context"

	"github.com/goliatone/go-command"
	goerrors "github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
)

// SetUserActiveMessage enables or disables an account. Disabled accounts
// keep their password but can no longer sign in.
type SetUserActiveMessage struct {
	Username  string      `json:"username"`
	Active    bool        `json:"active"`
	OnUpdated func(*User) `json:"-"`
}

func (e SetUserActiveMessage) Type() string { return "user.set_active" }

type SetUserActiveHandler struct {
	repo RepositoryManager
}

var (
	_ command.Message                        = SetUserActiveMessage{}
	_ command.Commander[SetUserActiveMessage] = (*SetUserActiveHandler)(nil)
)

func NewSetUserActiveHandler(repo RepositoryManager) *SetUserActiveHandler {
	return &SetUserActiveHandler{repo: repo}
}

func (h *SetUserActiveHandler) Execute(ctx context.Context, event SetUserActiveMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during user update",
		)
	default:
	}

	ctx, cancel := context.WithTimeout(ctx, commandTimeout)
	defer cancel()

	var user *User
	err := h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		var err error
		user, err = h.repo.Users().SetActiveTx(ctx, tx, event.Username, event.Active)
		return err
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return err
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "user update transaction failed")
	}

	if event.OnUpdated != nil {
		event.OnUpdated(user)
	}
	return nil
}
