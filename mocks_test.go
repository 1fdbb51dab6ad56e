package auth_test

import (
	"context"
	"database/sql"
	"sync"

	auth "github.com/goliatone/go-shop-auth"
	"github.com/stretchr/testify/mock"
	"github.com/uptrace/bun"
)

// MockUserStore implements auth.UserStore
type MockUserStore struct {
	mock.Mock
}

func (m *MockUserStore) FindByUsername(ctx context.Context, username string) (*auth.User, error) {
	args := m.Called(ctx, username)
	user, _ := args.Get(0).(*auth.User)
	return user, args.Error(1)
}

func (m *MockUserStore) Create(ctx context.Context, user *auth.User) (*auth.User, error) {
	args := m.Called(ctx, user)
	if fn, ok := args.Get(0).(func(context.Context, *auth.User) *auth.User); ok {
		return fn(ctx, user), args.Error(1)
	}
	out, _ := args.Get(0).(*auth.User)
	return out, args.Error(1)
}

func (m *MockUserStore) UpdatePasswordHash(ctx context.Context, user *auth.User, hash string) error {
	args := m.Called(ctx, user, hash)
	return args.Error(0)
}

func (m *MockUserStore) CreateTx(ctx context.Context, tx bun.IDB, user *auth.User) (*auth.User, error) {
	args := m.Called(ctx, tx, user)
	if fn, ok := args.Get(0).(func(context.Context, *auth.User) *auth.User); ok {
		return fn(ctx, user), args.Error(1)
	}
	out, _ := args.Get(0).(*auth.User)
	return out, args.Error(1)
}

func (m *MockUserStore) SetActive(ctx context.Context, username string, active bool) (*auth.User, error) {
	args := m.Called(ctx, username, active)
	out, _ := args.Get(0).(*auth.User)
	return out, args.Error(1)
}

func (m *MockUserStore) SetActiveTx(ctx context.Context, tx bun.IDB, username string, active bool) (*auth.User, error) {
	args := m.Called(ctx, tx, username, active)
	out, _ := args.Get(0).(*auth.User)
	return out, args.Error(1)
}

// MockRepositoryManager implements auth.RepositoryManager, RunInTx calls f
// with a zero bun.Tx unless an error is configured
type MockRepositoryManager struct {
	mock.Mock
	users *MockUserStore
}

func (m *MockRepositoryManager) RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error {
	args := m.Called(ctx, opts)
	if err := args.Error(0); err != nil {
		return err
	}
	return f(ctx, bun.Tx{})
}

func (m *MockRepositoryManager) Users() auth.Users {
	return m.users
}

// MockTenantSource implements auth.TenantSource
type MockTenantSource struct {
	mock.Mock
}

func (m *MockTenantSource) FetchAllTenants(ctx context.Context) ([]auth.TenantConfig, error) {
	args := m.Called(ctx)
	out, _ := args.Get(0).([]auth.TenantConfig)
	return out, args.Error(1)
}

// MockIssuer implements auth.SessionIssuer
type MockIssuer struct {
	mock.Mock
}

func (m *MockIssuer) Issue(claims *auth.SessionClaims) (string, error) {
	args := m.Called(claims)
	return args.String(0), args.Error(1)
}

// MockLogger implements auth.Logger for testing
type MockLogger struct {
	mock.Mock
}

func (m *MockLogger) Debug(format string, args ...any) {
	m.Called(format, args)
}

func (m *MockLogger) Info(format string, args ...any) {
	m.Called(format, args)
}

func (m *MockLogger) Warn(format string, args ...any) {
	m.Called(format, args)
}

func (m *MockLogger) Error(format string, args ...any) {
	m.Called(format, args)
}

// recordingLogger keeps every line so tests can assert on what was logged
type recordingLogger struct {
	mu    sync.Mutex
	lines []string
	args  [][]any
}

func (r *recordingLogger) record(msg string, args []any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lines = append(r.lines, msg)
	r.args = append(r.args, args)
}

func (r *recordingLogger) Debug(msg string, args ...any) { r.record(msg, args) }
func (r *recordingLogger) Info(msg string, args ...any)  { r.record(msg, args) }
func (r *recordingLogger) Warn(msg string, args ...any)  { r.record(msg, args) }
func (r *recordingLogger) Error(msg string, args ...any) { r.record(msg, args) }

// recordingSink keeps activity events
type recordingSink struct {
	mu     sync.Mutex
	events []auth.ActivityEvent
}

func (r *recordingSink) Record(_ context.Context, event auth.ActivityEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

func (r *recordingSink) types() []auth.ActivityEventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]auth.ActivityEventType, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.EventType)
	}
	return out
}
