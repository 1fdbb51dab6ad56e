// Package chain assembles the ordered interceptor pipeline every request
// passes through. Interceptors run inbound in registration order and
// outbound in reverse, as each one wraps the rest of the chain via Next().
//
// An interceptor is either transport level, a fiber.Handler mounted on the
// app ahead of every route, or router level, a router.MiddlewareFunc mounted
// on the go-router Router. Transport level interceptors always run first, so
// a chain must list all of them before any router level one.
package chain

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-router"
	auth "github.com/goliatone/go-shop-auth"
)

var (
	// ErrUnknownInterceptor is returned when configuration names an
	// interceptor that was not provided
	ErrUnknownInterceptor = errors.New("unknown interceptor")
	// ErrDuplicateInterceptor is returned when a name appears twice
	ErrDuplicateInterceptor = errors.New("duplicate interceptor")
	// ErrInterceptorOrder is returned when a transport level interceptor
	// follows a router level one
	ErrInterceptorOrder = errors.New("transport interceptor after router interceptor")
)

// Interceptor is a named stage of the pipeline. Exactly one of Handler and
// Middleware is set.
type Interceptor struct {
	Name       string
	Enabled    bool
	Handler    fiber.Handler
	Middleware router.MiddlewareFunc
}

func (i Interceptor) transport() bool {
	return i.Handler != nil
}

// Transport returns an enabled transport level interceptor
func Transport(name string, h fiber.Handler) Interceptor {
	return Interceptor{Name: name, Enabled: true, Handler: h}
}

// Route returns an enabled router level interceptor
func Route(name string, m router.MiddlewareFunc) Interceptor {
	return Interceptor{Name: name, Enabled: true, Middleware: m}
}

// Entry is the configuration form of an interceptor, order matters
type Entry struct {
	Name    string `mapstructure:"name" yaml:"name" json:"name"`
	Enabled bool   `mapstructure:"enabled" yaml:"enabled" json:"enabled"`
}

// Chain is an ordered list of interceptors
type Chain struct {
	interceptors []Interceptor
}

// New returns a chain with the given interceptors in order. It panics when
// a transport level interceptor follows a router level one.
func New(interceptors ...Interceptor) *Chain {
	c := &Chain{}
	for _, i := range interceptors {
		if err := c.add(i); err != nil {
			panic(err)
		}
	}
	return c
}

// add drops disabled interceptors so they never observe or change anything
func (c *Chain) add(i Interceptor) error {
	if !i.Enabled || (i.Handler == nil && i.Middleware == nil) {
		return nil
	}
	if i.transport() && len(c.interceptors) > 0 && !c.interceptors[len(c.interceptors)-1].transport() {
		return fmt.Errorf("%w: %q", ErrInterceptorOrder, i.Name)
	}
	c.interceptors = append(c.interceptors, i)
	return nil
}

// Use appends an enabled transport level interceptor
func (c *Chain) Use(name string, h fiber.Handler) *Chain {
	return c.UseIf(name, true, h)
}

// UseIf appends the transport level interceptor only when enabled is true
func (c *Chain) UseIf(name string, enabled bool, h fiber.Handler) *Chain {
	if err := c.add(Interceptor{Name: name, Enabled: enabled, Handler: h}); err != nil {
		panic(err)
	}
	return c
}

// UseRoute appends an enabled router level interceptor
func (c *Chain) UseRoute(name string, m router.MiddlewareFunc) *Chain {
	return c.UseRouteIf(name, true, m)
}

// UseRouteIf appends the router level interceptor only when enabled is true
func (c *Chain) UseRouteIf(name string, enabled bool, m router.MiddlewareFunc) *Chain {
	if err := c.add(Interceptor{Name: name, Enabled: enabled, Middleware: m}); err != nil {
		panic(err)
	}
	return c
}

// Names returns the registered interceptor names in order
func (c *Chain) Names() []string {
	out := make([]string, 0, len(c.interceptors))
	for _, i := range c.interceptors {
		out = append(out, i.Name)
	}
	return out
}

// Len returns the number of registered interceptors
func (c *Chain) Len() int {
	return len(c.interceptors)
}

// MountTransport registers the transport level interceptors on app. Call it
// before any route is added.
func (c *Chain) MountTransport(app fiber.Router) {
	for _, i := range c.interceptors {
		if i.transport() {
			app.Use(i.Handler)
		}
	}
}

// Middlewares returns the router level interceptors in order
func (c *Chain) Middlewares() []router.MiddlewareFunc {
	out := make([]router.MiddlewareFunc, 0, len(c.interceptors))
	for _, i := range c.interceptors {
		if !i.transport() {
			out = append(out, i.Middleware)
		}
	}
	return out
}

// Mount registers the router level interceptors of c on r
func Mount[T any](c *Chain, r router.Router[T]) {
	if mws := c.Middlewares(); len(mws) > 0 {
		r.Use(mws...)
	}
}

// FromConfig builds a chain following the order of entries, looking up each
// interceptor by name in available. The Name and Enabled fields of the
// available values are ignored.
func FromConfig(entries []Entry, available map[string]Interceptor) (*Chain, error) {
	c := &Chain{}
	seen := make(map[string]bool, len(entries))

	for _, e := range entries {
		if seen[e.Name] {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateInterceptor, e.Name)
		}
		seen[e.Name] = true

		i, ok := available[e.Name]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownInterceptor, e.Name)
		}

		i.Name, i.Enabled = e.Name, e.Enabled
		if err := c.add(i); err != nil {
			return nil, err
		}
	}

	return c, nil
}

// ErrorHandler is meant for fiber.Config.ErrorHandler. Categorized errors
// answer with their code, or the code of their category. Anything else is a
// 500 with no detail.
func ErrorHandler(logger auth.Logger) fiber.ErrorHandler {
	if logger == nil {
		logger = auth.DefaultLogger()
	}

	return func(c *fiber.Ctx, err error) error {
		var ferr *fiber.Error
		if errors.As(err, &ferr) {
			if ferr.Code >= fiber.StatusInternalServerError {
				logger.Error("request failed", "method", c.Method(), "path", c.Path(), "status", ferr.Code, "error", err)
			}
			return c.Status(ferr.Code).SendString(ferr.Message)
		}

		var richErr *goerrors.Error
		if !goerrors.As(err, &richErr) {
			richErr = goerrors.Wrap(err, goerrors.CategoryInternal, "An unexpected server error occurred").
				WithCode(goerrors.CodeInternal)
		}

		status := StatusCode(richErr)
		if status >= fiber.StatusInternalServerError {
			logger.Error("request failed",
				"method", c.Method(),
				"path", c.Path(),
				"status", status,
				"category", richErr.Category,
				"text_code", richErr.TextCode,
				"error", err,
			)
			return c.Status(status).SendString("internal server error")
		}

		return c.Status(status).SendString(richErr.Message)
	}
}

// StatusOf returns the status ErrorHandler answers err with
func StatusOf(err error) int {
	var ferr *fiber.Error
	if errors.As(err, &ferr) {
		return ferr.Code
	}
	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		return StatusCode(richErr)
	}
	return fiber.StatusInternalServerError
}

// StatusCode returns the HTTP status for err, its Code when set and the
// status of its category otherwise
func StatusCode(err *goerrors.Error) int {
	if err == nil {
		return fiber.StatusInternalServerError
	}
	if err.Code >= 400 && err.Code < 600 {
		return err.Code
	}

	switch err.Category {
	case goerrors.CategoryAuth:
		return goerrors.CodeUnauthorized
	case goerrors.CategoryAuthz:
		return goerrors.CodeForbidden
	case goerrors.CategoryNotFound:
		return goerrors.CodeNotFound
	case goerrors.CategoryConflict:
		return goerrors.CodeConflict
	case goerrors.CategoryValidation, goerrors.CategoryBadInput:
		return goerrors.CodeBadRequest
	case goerrors.CategoryRateLimit:
		return goerrors.CodeTooManyRequests
	case goerrors.CategoryMethodNotAllowed:
		return fiber.StatusMethodNotAllowed
	}
	return goerrors.CodeInternal
}
