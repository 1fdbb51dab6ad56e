package auth

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/goliatone/go-command"
	goerrors "github.com/goliatone/go-errors"
)

// dummyPassword is hashed once and verified against when the username does
// not exist, so unknown users cost the same as a wrong password.
const dummyPassword = "shop-auth-timing-equalizer"

// LoginResult is returned on a successful login
type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	Remember  bool
	Claims    *SessionClaims
	User      *User
}

// Authenticator checks credentials against the user store and mints
// session tokens.
type Authenticator struct {
	users    UserStore
	hasher   *Hasher
	issuer   SessionIssuer
	now      func() time.Time
	logger   Logger
	activity ActivitySink
	// registrar runs registrations, without one the user store is called
	// directly
	registrar command.Commander[RegisterUserMessage]

	dummyOnce sync.Once
	dummyHash string
}

// NewAuthenticator returns a new Authenticator
func NewAuthenticator(users UserStore, hasher *Hasher, issuer SessionIssuer) *Authenticator {
	return &Authenticator{
		users:    users,
		hasher:   hasher,
		issuer:   issuer,
		now:      time.Now,
		logger:   defLogger{},
		activity: noopActivitySink{},
	}
}

func (a *Authenticator) WithLogger(logger Logger) *Authenticator {
	if logger != nil {
		a.logger = logger
	}
	return a
}

// WithActivitySink configures an ActivitySink for emitting auth events.
func (a *Authenticator) WithActivitySink(sink ActivitySink) *Authenticator {
	a.activity = normalizeActivitySink(sink)
	return a
}

// WithRegistrar routes Register through cmd, usually a RegisterUserHandler
func (a *Authenticator) WithRegistrar(cmd command.Commander[RegisterUserMessage]) *Authenticator {
	a.registrar = cmd
	return a
}

// WithClock sets the time source for session claims, it should match the
// clock of the codec verifying the tokens
func (a *Authenticator) WithClock(now func() time.Time) *Authenticator {
	if now != nil {
		a.now = now
	}
	return a
}

// VerifyLogin checks password against storedHash. A mismatch is
// (false, nil), an unreadable hash is an error.
func (a *Authenticator) VerifyLogin(storedHash, password string) (bool, error) {
	return a.hasher.Verify(storedHash, password)
}

// Login verifies username and password and returns a session token valid
// for a day, or a week when remember is set.
func (a *Authenticator) Login(ctx context.Context, username, password string, remember bool) (*LoginResult, error) {
	user, err := a.users.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			a.equalizeTiming(password)
			a.emit(ctx, ActivityEventLoginFailure, nil, username, "unknown user")
			return nil, ErrInvalidCredentials
		}
		a.logger.Error("login user lookup failed", "error", err)
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "find user")
	}

	ok, err := a.VerifyLogin(user.PasswordHash, password)
	if err != nil {
		a.logger.Error("login stored hash unreadable", "user_id", user.ID, "error", err)
		return nil, err
	}
	if !ok {
		a.emit(ctx, ActivityEventLoginFailure, user, username, "password mismatch")
		return nil, ErrInvalidCredentials
	}

	if !user.Active {
		a.emit(ctx, ActivityEventLoginFailure, user, username, "account disabled")
		return nil, ErrAccountDisabled
	}

	if a.hasher.NeedsRehash(user.PasswordHash) {
		a.rehash(ctx, user, password)
	}

	now := a.now()
	claims := NewSessionClaims(user.ID.String(), user.Username, CookieTTL(remember), now)

	token, err := a.issuer.Issue(claims)
	if err != nil {
		a.logger.Error("login issue session failed", "user_id", user.ID, "error", err)
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "issue session")
	}

	a.emit(ctx, ActivityEventLoginSuccess, user, username, "")

	return &LoginResult{
		Token:     token,
		ExpiresAt: claims.Expires(),
		Remember:  remember,
		Claims:    claims,
		User:      user,
	}, nil
}

// Register creates an active user with a freshly hashed password
func (a *Authenticator) Register(ctx context.Context, username, password string) (*User, error) {
	var user *User
	msg := RegisterUserMessage{
		Username:  username,
		Password:  password,
		OnCreated: func(u *User) { user = u },
	}

	var err error
	if a.registrar != nil {
		err = a.registrar.Execute(ctx, msg)
	} else {
		err = a.registerDirect(ctx, msg)
	}
	if err != nil {
		if IsInternal(err) {
			a.logger.Error("register user failed", "error", err)
		}
		return nil, err
	}

	a.emit(ctx, ActivityEventRegistered, user, username, "")
	return user, nil
}

func (a *Authenticator) registerDirect(ctx context.Context, msg RegisterUserMessage) error {
	hash, err := a.hasher.Hash(msg.Password)
	if err != nil {
		return err
	}

	user, err := a.users.Create(ctx, NewUser(msg.Username, hash))
	if err != nil {
		return err
	}

	msg.OnCreated(user)
	return nil
}

func (a *Authenticator) rehash(ctx context.Context, user *User, password string) {
	hash, err := a.hasher.Hash(password)
	if err != nil {
		a.logger.Warn("rehash on login failed", "user_id", user.ID, "error", err)
		return
	}

	if err := a.users.UpdatePasswordHash(ctx, user, hash); err != nil {
		a.logger.Warn("rehash on login not stored", "user_id", user.ID, "error", err)
		return
	}

	user.PasswordHash = hash
	a.emit(ctx, ActivityEventPasswordRehashed, user, user.Username, "")
}

func (a *Authenticator) equalizeTiming(password string) {
	a.dummyOnce.Do(func() {
		h, err := a.hasher.Hash(dummyPassword)
		if err != nil {
			a.logger.Warn("timing equalizer hash unavailable", "error", err)
			return
		}
		a.dummyHash = h
	})

	if a.dummyHash != "" {
		_, _ = a.hasher.Verify(a.dummyHash, password)
	}
}

// Logout records the end of a session. Tokens stay valid until they expire,
// the caller is expected to drop the cookie.
func (a *Authenticator) Logout(ctx context.Context, claims *SessionClaims) {
	event := ActivityEvent{
		EventType:  ActivityEventLogout,
		OccurredAt: a.now(),
	}
	if claims != nil {
		event.UserID = claims.Subject
		event.Username = claims.Username
	}

	if err := a.activity.Record(ctx, event); err != nil {
		a.logger.Warn("activity sink error", "event", ActivityEventLogout, "error", err)
	}
}

func (a *Authenticator) emit(ctx context.Context, eventType ActivityEventType, user *User, username, reason string) {
	event := ActivityEvent{
		EventType:  eventType,
		Username:   username,
		Reason:     reason,
		OccurredAt: a.now(),
	}
	if user != nil {
		event.UserID = user.ID.String()
	}

	if err := a.activity.Record(ctx, event); err != nil {
		a.logger.Warn("activity sink error", "event", eventType, "error", err)
	}
}
