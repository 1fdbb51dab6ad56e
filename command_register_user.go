package auth

import (
	"context"
	"strings"
	"time"

	"github.com/goliatone/go-command"
	goerrors "github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
)

const commandTimeout = 10 * time.Second

// RegisterUserMessage asks for a new active account
type RegisterUserMessage struct {
	Username string `json:"username"`
	Password string `json:"password"`
	// OnCreated receives the stored user once the transaction commits
	OnCreated func(*User) `json:"-"`
}

func (e RegisterUserMessage) Type() string { return "user.register" }

// RegisterUserHandler hashes the password and stores the user in a single
// transaction
type RegisterUserHandler struct {
	repo   RepositoryManager
	hasher *Hasher
}

var (
	_ command.Message                       = RegisterUserMessage{}
	_ command.Commander[RegisterUserMessage] = (*RegisterUserHandler)(nil)
)

func NewRegisterUserHandler(repo RepositoryManager, hasher *Hasher) *RegisterUserHandler {
	return &RegisterUserHandler{repo: repo, hasher: hasher}
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
	username := strings.TrimSpace(event.Username)
	if username == "" {
		return goerrors.New("username is required", goerrors.CategoryValidation).
			WithCode(goerrors.CodeBadRequest)
	}

	// hashing stays outside the transaction, argon2 is slow on purpose
	hash, err := h.hasher.Hash(event.Password)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, commandTimeout)
	defer cancel()

	var user *User
	err = h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		var err error
		user, err = h.repo.Users().CreateTx(ctx, tx, NewUser(username, hash))
		return err
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return err
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "user registration transaction failed")
	}

	if event.OnCreated != nil {
		event.OnCreated(user)
	}
	return nil
}
