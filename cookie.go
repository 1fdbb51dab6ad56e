package auth

import (
	"time"

	"github.com/goliatone/go-router"
)

// CookieKind is the closed set of cookies the shops set
type CookieKind int

const (
	// CookieAuth carries the session token
	CookieAuth CookieKind = iota
	// CookieShoppingCart carries the anonymous cart ids, one per shop
	CookieShoppingCart
)

const (
	cookieTTL         = 24 * time.Hour
	cookieRememberTTL = 7 * 24 * time.Hour
)

// Name returns the cookie name sent to the browser
func (k CookieKind) Name() string {
	switch k {
	case CookieAuth:
		return "auth"
	case CookieShoppingCart:
		return "shopping_carts"
	}
	return ""
}

func (k CookieKind) String() string {
	if n := k.Name(); n != "" {
		return n
	}
	return "unknown"
}

// CookieTTL returns how long a cookie lives, a week when the user asked to
// be remembered and a day otherwise
func CookieTTL(remember bool) time.Duration {
	if remember {
		return cookieRememberTTL
	}
	return cookieTTL
}

// cookieSameSite is sent on every cookie the shops set
const cookieSameSite = "Lax"

// NewCookie builds a cookie of kind holding value
func NewCookie(kind CookieKind, value string, remember, secure bool, now time.Time) *router.Cookie {
	return &router.Cookie{
		Name:     kind.Name(),
		Value:    value,
		Path:     "/",
		Expires:  now.Add(CookieTTL(remember)),
		HTTPOnly: true,
		Secure:   secure,
		SameSite: cookieSameSite,
	}
}

// ExpireCookie returns a cookie that makes the browser drop kind
func ExpireCookie(kind CookieKind, secure bool) *router.Cookie {
	return ExpireNamedCookie(kind.Name(), secure)
}

// ExpireNamedCookie is ExpireCookie for a configured cookie name
func ExpireNamedCookie(name string, secure bool) *router.Cookie {
	return &router.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		HTTPOnly: true,
		Secure:   secure,
		SameSite: cookieSameSite,
	}
}
