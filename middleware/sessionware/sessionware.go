// Package sessionware is the auth interceptor. It reads the session token
// from the request, attaches verified claims, and sends anonymous callers on
// protected paths to the login page.
package sessionware

import (
	"net/url"
	"strings"

	"github.com/goliatone/go-router"
	auth "github.com/goliatone/go-shop-auth"
)

// defaultTokenLookup reads the session cookie first, then a bearer header
func defaultTokenLookup(cookieName string) string {
	return "cookie:" + cookieName + ",header:" + router.HeaderAuthorization
}

type Config struct {
	// Next skips the interceptor entirely when it returns true
	Next func(c router.Context) bool
	// Verifier is required
	Verifier auth.SessionVerifier
	// TokenLookup "<source>:<name>" pairs tried in order, the default reads
	// the CookieName cookie then the Authorization header
	TokenLookup string
	AuthScheme  string
	// AllowList paths reachable without a session, exact or "/prefix/*"
	AllowList []string
	// LoginURL is always reachable and is where anonymous callers go
	LoginURL string
	// RedirectStatus defaults to 303
	RedirectStatus int
	// AppendNext adds ?next=<original path> to the login redirect
	AppendNext bool
	// Unauthorized replaces the redirect when set
	Unauthorized router.HandlerFunc
	// ClearInvalidCookie drops a cookie that failed verification
	ClearInvalidCookie *bool
	// CookieName is the session cookie read and cleared, defaults to "auth"
	CookieName   string
	CookieSecure bool
	Logger       auth.Logger
}

func New(config ...Config) router.MiddlewareFunc {
	cfg := GetDefaultConfig(config...)
	extractors := GetExtractors(cfg.TokenLookup, cfg.AuthScheme)
	allow := newAllowList(cfg.LoginURL, cfg.AllowList)

	return func(hf router.HandlerFunc) router.HandlerFunc {
		return func(c router.Context) error {
			return cfg.handle(c, extractors, allow)
		}
	}
}

func (cfg Config) handle(c router.Context, extractors []Extractor, allow allowList) error {
	if cfg.Next != nil && cfg.Next(c) {
		return c.Next()
	}

	state, claims := Classify(ExtractToken(c, extractors), cfg.Verifier)

	switch state {
	case CredentialValid:
		auth.SetSession(c, claims)
		return c.Next()
	case CredentialInvalid:
		cfg.Logger.Debug("session rejected", "path", c.Path())
		if *cfg.ClearInvalidCookie && c.Cookies(cfg.CookieName) != "" {
			c.Cookie(auth.ExpireNamedCookie(cfg.CookieName, cfg.CookieSecure))
		}
	}

	if allow.match(c.Path()) {
		return c.Next()
	}

	if cfg.Unauthorized != nil {
		return cfg.Unauthorized(c)
	}

	return c.Redirect(cfg.loginTarget(c), cfg.RedirectStatus)
}

func GetDefaultConfig(config ...Config) (cfg Config) {
	if len(config) > 0 {
		cfg = config[0]
	}

	if cfg.Verifier == nil {
		panic("SHOP: session middleware configuration: Verifier is required.")
	}

	if cfg.CookieName == "" {
		cfg.CookieName = auth.CookieAuth.Name()
	}

	if cfg.TokenLookup == "" {
		cfg.TokenLookup = defaultTokenLookup(cfg.CookieName)
	}

	if cfg.AuthScheme == "" {
		cfg.AuthScheme = "Bearer"
	}

	if cfg.LoginURL == "" {
		cfg.LoginURL = "/login"
	}

	if cfg.RedirectStatus == 0 {
		cfg.RedirectStatus = router.StatusSeeOther
	}

	if cfg.ClearInvalidCookie == nil {
		enabled := true
		cfg.ClearInvalidCookie = &enabled
	}

	if cfg.Logger == nil {
		cfg.Logger = auth.NopLogger{}
	}

	return cfg
}

func (cfg Config) loginTarget(c router.Context) string {
	if !cfg.AppendNext {
		return cfg.LoginURL
	}
	return cfg.LoginURL + "?next=" + url.QueryEscape(c.OriginalURL())
}

type allowList struct {
	exact    map[string]bool
	prefixes []string
}

func newAllowList(loginURL string, paths []string) allowList {
	a := allowList{exact: map[string]bool{loginURL: true}}
	for _, p := range paths {
		if prefix, ok := strings.CutSuffix(p, "*"); ok {
			a.prefixes = append(a.prefixes, prefix)
			continue
		}
		a.exact[p] = true
	}
	return a
}

func (a allowList) match(path string) bool {
	if a.exact[path] {
		return true
	}
	for _, prefix := range a.prefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}
