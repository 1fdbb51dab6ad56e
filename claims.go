package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// SessionClaims is the payload sealed inside a session token. Registered
// claims carry subject (user id), expiration, issued at, not before and the
// token id. Claims are not edited after issue, a new token is minted instead.
type SessionClaims struct {
	jwt.RegisteredClaims
	Username string            `json:"username,omitempty"`
	Extra    map[string]string `json:"extra,omitempty"`
}

// Verify interface compliance
var _ jwt.ClaimsValidator = (*SessionClaims)(nil)

// NewSessionClaims builds claims for subject valid for ttl starting at now
func NewSessionClaims(subject, username string, ttl time.Duration, now time.Time) *SessionClaims {
	return &SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Username: username,
	}
}

// Validate is called by the jwt validator after the time based checks
func (c *SessionClaims) Validate() error {
	if c.Subject == "" {
		return ErrClaimsIncomplete
	}
	return nil
}

// UserID returns the subject claim
func (c *SessionClaims) UserID() string {
	return c.Subject
}

// Expires returns the expiration time
func (c *SessionClaims) Expires() time.Time {
	if c.ExpiresAt != nil {
		return c.ExpiresAt.Time
	}
	return time.Time{}
}

// Issued returns the issued at time
func (c *SessionClaims) Issued() time.Time {
	if c.IssuedAt != nil {
		return c.IssuedAt.Time
	}
	return time.Time{}
}

// Get returns an additional claim
func (c *SessionClaims) Get(key string) (string, bool) {
	v, ok := c.Extra[key]
	return v, ok
}

// With returns a copy of the claims with an additional field set
func (c *SessionClaims) With(key, value string) *SessionClaims {
	out := *c
	out.Extra = make(map[string]string, len(c.Extra)+1)
	for k, v := range c.Extra {
		out.Extra[k] = v
	}
	out.Extra[key] = value
	return &out
}

// Identity is the subset of the claims exposed to page handlers
func (c *SessionClaims) Identity() Identity {
	return Identity{
		UserID:    c.Subject,
		Username:  c.Username,
		ExpiresAt: c.Expires(),
	}
}

// Identity is the decoded caller attached to the request context
type Identity struct {
	UserID    string    `json:"user_id"`
	Username  string    `json:"username"`
	ExpiresAt time.Time `json:"expires_at"`
}
