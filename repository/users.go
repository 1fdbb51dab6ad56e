package repository

import (
	"context"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	auth "github.com/goliatone/go-shop-auth"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// UserRepository implements auth.Users on top of a generic repository keyed
// by username.
type UserRepository struct {
	repo repository.Repository[*auth.User]
	db   *bun.DB
}

var _ auth.Users = (*UserRepository)(nil)

// NewUserRepository creates a new repository.
func NewUserRepository(db *bun.DB) *UserRepository {
	repo := repository.NewRepository[*auth.User](db, repository.ModelHandlers[*auth.User]{
		NewRecord: func() *auth.User { return &auth.User{} },
		GetID: func(u *auth.User) uuid.UUID {
			if u == nil {
				return uuid.Nil
			}
			return u.ID
		},
		SetID: func(u *auth.User, id uuid.UUID) {
			if u != nil {
				u.ID = id
			}
		},
		GetIdentifier: func() string {
			return "username"
		},
	})

	return &UserRepository{repo: repo, db: db}
}

// FindByUsername implements auth.UserStore.
func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*auth.User, error) {
	return r.findTx(ctx, r.db, username)
}

func (r *UserRepository) findTx(ctx context.Context, tx bun.IDB, username string) (*auth.User, error) {
	user, err := r.repo.GetByIdentifierTx(ctx, tx, strings.TrimSpace(username))
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, auth.ErrUserNotFound
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "find user")
	}
	return user, nil
}

// Create implements auth.UserStore.
func (r *UserRepository) Create(ctx context.Context, user *auth.User) (*auth.User, error) {
	return r.CreateTx(ctx, r.db, user)
}

// CreateTx inserts user using tx, a taken username is auth.ErrUsernameTaken
func (r *UserRepository) CreateTx(ctx context.Context, tx bun.IDB, user *auth.User) (*auth.User, error) {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	now := time.Now().UTC()
	if user.CreatedAt == nil {
		user.CreatedAt = &now
	}
	user.UpdatedAt = &now

	created, err := r.repo.CreateTx(ctx, tx, user)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, auth.ErrUsernameTaken
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "create user")
	}
	return created, nil
}

// UpdatePasswordHash implements auth.UserStore.
func (r *UserRepository) UpdatePasswordHash(ctx context.Context, user *auth.User, hash string) error {
	res, err := r.db.NewUpdate().
		Model((*auth.User)(nil)).
		Set("password_hash = ?", hash).
		Set("updated_at = ?", time.Now().UTC()).
		Where("id = ?", user.ID).
		Exec(ctx)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "update password hash")
	}

	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return auth.ErrUserNotFound
	}
	return nil
}

// SetActive enables or disables an account
func (r *UserRepository) SetActive(ctx context.Context, username string, active bool) (*auth.User, error) {
	return r.SetActiveTx(ctx, r.db, username, active)
}

// SetActiveTx loads the user by username and stores the new flag using tx
func (r *UserRepository) SetActiveTx(ctx context.Context, tx bun.IDB, username string, active bool) (*auth.User, error) {
	user, err := r.findTx(ctx, tx, username)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	user.Active = active
	user.UpdatedAt = &now

	updated, err := r.repo.UpdateTx(ctx, tx, user, repository.UpdateByID(user.ID.String()))
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, auth.ErrUserNotFound
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "set user active")
	}
	return updated, nil
}
