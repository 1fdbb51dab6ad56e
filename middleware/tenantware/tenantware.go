// Package tenantware resolves the shop for each request from its Host.
package tenantware

import (
	"net"
	"strings"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-router"
	auth "github.com/goliatone/go-shop-auth"
)

// HeaderHost is read to find the shop
const HeaderHost = "Host"

// ErrShopNotFound is returned by NotFound
var ErrShopNotFound = goerrors.New("shop not found", goerrors.CategoryNotFound).
	WithTextCode("SHOP_NOT_FOUND").
	WithCode(goerrors.CodeNotFound)

// Resolver is the read side of the tenant registry
type Resolver interface {
	Lookup(domain string) (auth.TenantConfig, bool)
}

type Config struct {
	// Next skips the interceptor entirely when it returns true
	Next func(c router.Context) bool
	// Registry is required
	Registry Resolver
	// OnMissing runs when no shop matches. Leave nil to keep serving, the
	// outcome is still attached with Found() == false.
	OnMissing router.HandlerFunc
	Logger    auth.Logger
}

func New(config ...Config) router.MiddlewareFunc {
	var cfg Config
	if len(config) > 0 {
		cfg = config[0]
	}
	if cfg.Registry == nil {
		panic("SHOP: tenant middleware configuration: Registry is required.")
	}
	if cfg.Logger == nil {
		cfg.Logger = auth.NopLogger{}
	}

	return func(hf router.HandlerFunc) router.HandlerFunc {
		return func(c router.Context) error {
			if cfg.Next != nil && cfg.Next(c) {
				return c.Next()
			}

			host := HostOnly(c.Header(HeaderHost))
			resolved := auth.ResolvedTenant{Host: host}
			if tc, ok := cfg.Registry.Lookup(host); ok {
				resolved.Config = &tc
			}

			auth.SetTenant(c, resolved)

			if !resolved.Found() {
				cfg.Logger.Debug("no shop for host", "host", host)
				if cfg.OnMissing != nil {
					return cfg.OnMissing(c)
				}
			}

			return c.Next()
		}
	}
}

// NotFound is an OnMissing handler failing with ErrShopNotFound
func NotFound(c router.Context) error {
	return ErrShopNotFound
}

// HostOnly strips a port from host and normalizes it. IPv6 literals keep no
// brackets.
func HostOnly(host string) string {
	host = strings.TrimSpace(host)
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	} else {
		host = strings.TrimSuffix(strings.TrimPrefix(host, "["), "]")
	}
	return auth.NormalizeDomain(host)
}
