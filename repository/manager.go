package repository

import (
	"context"
	"database/sql"
	"errors"

	auth "github.com/goliatone/go-shop-auth"
	"github.com/uptrace/bun"
)

// Manager groups the repositories sharing one database handle
type Manager struct {
	db      *bun.DB
	users   *UserRepository
	tenants *TenantRepository
}

var _ auth.RepositoryManager = (*Manager)(nil)

func NewManager(db *bun.DB) *Manager {
	return &Manager{
		db:      db,
		users:   NewUserRepository(db),
		tenants: NewTenantRepository(db),
	}
}

func (m *Manager) Validate() error {
	if m.db == nil {
		return errors.New("repository db should be initialized")
	}
	if m.users == nil {
		return errors.New("repository users should be initialized")
	}
	if m.tenants == nil {
		return errors.New("repository tenants should be initialized")
	}
	return nil
}

// Migrate creates the schema
func (m *Manager) Migrate(ctx context.Context) error {
	return CreateSchema(ctx, m.db)
}

// RunInTx runs f in a transaction, repository Tx methods take the tx
func (m *Manager) RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return m.db.RunInTx(ctx, opts, f)
	}
}

func (m *Manager) Users() auth.Users {
	return m.users
}

func (m *Manager) Tenants() *TenantRepository {
	return m.tenants
}

func (m *Manager) Close() error {
	return m.db.Close()
}
