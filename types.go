package auth

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/uptrace/bun"
)

// Logger is the logging surface used across the package. Arguments after the
// message are key/value pairs.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// UserStore is the persistence collaborator used during login and
// registration.
type UserStore interface {
	FindByUsername(ctx context.Context, username string) (*User, error)
	Create(ctx context.Context, user *User) (*User, error)
	UpdatePasswordHash(ctx context.Context, user *User, hash string) error
}

// Users is the account store the commands run against, the Tx variants
// take part in a caller's transaction
type Users interface {
	UserStore
	CreateTx(ctx context.Context, tx bun.IDB, user *User) (*User, error)
	SetActive(ctx context.Context, username string, active bool) (*User, error)
	SetActiveTx(ctx context.Context, tx bun.IDB, username string, active bool) (*User, error)
}

// RepositoryManager exposes the user store and its transaction boundary
type RepositoryManager interface {
	RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error
	Users() Users
}

// TenantSource provides the bulk list of shops used to (re)build the
// registry.
type TenantSource interface {
	FetchAllTenants(ctx context.Context) ([]TenantConfig, error)
}

// SessionVerifier is the read side of the session codec
type SessionVerifier interface {
	Verify(token string) (*SessionClaims, bool)
}

// NopLogger drops every message
type NopLogger struct{}

func (NopLogger) Debug(string, ...any) {}
func (NopLogger) Info(string, ...any)  {}
func (NopLogger) Warn(string, ...any)  {}
func (NopLogger) Error(string, ...any) {}

type defLogger struct{}

func (d defLogger) Debug(msg string, args ...any) {
	fmt.Print("[DBG] SHOP " + line(msg, args))
}

func (d defLogger) Info(msg string, args ...any) {
	fmt.Print("[INF] SHOP " + line(msg, args))
}

func (d defLogger) Warn(msg string, args ...any) {
	fmt.Print("[WRN] SHOP " + line(msg, args))
}

func (d defLogger) Error(msg string, args ...any) {
	fmt.Print("[ERR] SHOP " + line(msg, args))
}

// DefaultLogger returns the stdout fallback logger
func DefaultLogger() Logger {
	return defLogger{}
}

func line(msg string, args []any) string {
	var b strings.Builder
	b.WriteString(msg)
	for i := 0; i < len(args); i += 2 {
		b.WriteByte(' ')
		if i+1 < len(args) {
			fmt.Fprintf(&b, "%v=%v", args[i], args[i+1])
		} else {
			fmt.Fprintf(&b, "%v", args[i])
		}
	}
	b.WriteByte('\n')
	return b.String()
}

// SessionIssuer is the write side of the session codec
type SessionIssuer interface {
	Issue(claims *SessionClaims) (string, error)
}
