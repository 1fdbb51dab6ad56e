// Package msgware attaches a short lived message to each request, pages
// render it as a banner.
package msgware

import (
	"unicode/utf8"

	"github.com/goliatone/go-router"
	auth "github.com/goliatone/go-shop-auth"
)

// DefaultQueryParam carries a message across a redirect
const DefaultQueryParam = "msg"

// MaxMessageLen is the longest message kept, in bytes
const MaxMessageLen = 200

type Config struct {
	// Message returns the text for the request, an empty string sets nothing
	Message func(c router.Context) string
}

// New sets the message when Message returns one. Without a Message func the
// "msg" query parameter is used.
func New(config ...Config) router.MiddlewareFunc {
	var cfg Config
	if len(config) > 0 {
		cfg = config[0]
	}
	if cfg.Message == nil {
		cfg.Message = FromQuery(DefaultQueryParam)
	}

	return func(hf router.HandlerFunc) router.HandlerFunc {
		return func(c router.Context) error {
			if msg := Truncate(cfg.Message(c), MaxMessageLen); msg != "" {
				auth.SetMessage(c, msg)
			}
			return c.Next()
		}
	}
}

// Truncate cuts msg to at most max bytes without splitting a rune
func Truncate(msg string, max int) string {
	if len(msg) <= max {
		return msg
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(msg[cut]) {
		cut--
	}
	return msg[:cut]
}

// Static always sets msg
func Static(msg string) func(c router.Context) string {
	return func(router.Context) string { return msg }
}

// FromQuery reads the message from a query parameter
func FromQuery(param string) func(c router.Context) string {
	return func(c router.Context) string {
		return c.Query(param, "")
	}
}
