package sessionware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-router"
	auth "github.com/goliatone/go-shop-auth"
	"github.com/goliatone/go-shop-auth/middleware/sessionware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCodec(t *testing.T) *auth.SessionCodec {
	t.Helper()
	key, err := auth.GenerateSymmetricKey()
	require.NoError(t, err)
	codec, err := auth.NewSessionCodec(key, []byte("aad"))
	require.NoError(t, err)
	return codec
}

func issue(t *testing.T, codec *auth.SessionCodec, ttl time.Duration) string {
	t.Helper()
	token, err := codec.Issue(auth.NewSessionClaims("user-1", "alice", ttl, time.Now()))
	require.NoError(t, err)
	return token
}

type result struct {
	called   bool
	username string
}

func newApp(t *testing.T, cfg sessionware.Config, res *result) *fiber.App {
	t.Helper()
	srv := router.NewFiberAdapter(func(_ *fiber.App) *fiber.App {
		return fiber.New(fiber.Config{DisableStartupMessage: true})
	})
	srv.Router().Use(sessionware.New(cfg))
	srv.Router().Get("/*", func(c router.Context) error {
		res.called = true
		if claims, ok := auth.SessionFrom(c); ok {
			res.username = claims.Username
		}
		return c.SendString("page")
	})
	return srv.WrappedRouter()
}

func get(t *testing.T, app *fiber.App, path string, mutate ...func(*http.Request)) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for _, m := range mutate {
		m(req)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	return resp
}

func withCookie(token string) func(*http.Request) {
	return withNamedCookie("auth", token)
}

func withNamedCookie(name, token string) func(*http.Request) {
	return func(r *http.Request) {
		r.AddCookie(&http.Cookie{Name: name, Value: token})
	}
}

func clearedCookies(resp *http.Response) []string {
	var names []string
	for _, c := range resp.Cookies() {
		if c.Value == "" {
			names = append(names, c.Name)
		}
	}
	return names
}

func TestValidSessionAttachesClaims(t *testing.T) {
	codec := newCodec(t)
	res := &result{}
	app := newApp(t, sessionware.Config{Verifier: codec}, res)

	resp := get(t, app, "/account", withCookie(issue(t, codec, time.Hour)))

	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.True(t, res.called)
	assert.Equal(t, "alice", res.username)
}

func TestBearerHeader(t *testing.T) {
	codec := newCodec(t)
	res := &result{}
	app := newApp(t, sessionware.Config{Verifier: codec}, res)

	token := issue(t, codec, time.Hour)
	resp := get(t, app, "/account", func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer "+token)
	})

	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "alice", res.username)
}

func TestMissingSessionRedirects(t *testing.T) {
	res := &result{}
	app := newApp(t, sessionware.Config{Verifier: newCodec(t)}, res)

	resp := get(t, app, "/account")

	assert.Equal(t, fiber.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/login", resp.Header.Get("Location"))
	assert.False(t, res.called, "page handler must not run")
}

func TestInvalidSessionRedirectsAndClearsCookie(t *testing.T) {
	codec := newCodec(t)
	res := &result{}
	app := newApp(t, sessionware.Config{Verifier: codec}, res)

	resp := get(t, app, "/account", withCookie(issue(t, codec, -time.Minute)))

	assert.Equal(t, fiber.StatusSeeOther, resp.StatusCode)
	assert.False(t, res.called)

	assert.Equal(t, []string{"auth"}, clearedCookies(resp))
}

func TestInvalidSessionClearsConfiguredCookie(t *testing.T) {
	codec := newCodec(t)
	res := &result{}
	app := newApp(t, sessionware.Config{Verifier: codec, CookieName: "shop_session"}, res)

	expired := issue(t, codec, -time.Minute)
	resp := get(t, app, "/account", withNamedCookie("shop_session", expired), withCookie("unrelated"))

	assert.Equal(t, fiber.StatusSeeOther, resp.StatusCode)
	assert.False(t, res.called)
	assert.Equal(t, []string{"shop_session"}, clearedCookies(resp), "only the configured cookie is expired")
}

func TestConfiguredCookieNameIsRead(t *testing.T) {
	codec := newCodec(t)
	res := &result{}
	app := newApp(t, sessionware.Config{Verifier: codec, CookieName: "shop_session"}, res)

	resp := get(t, app, "/account", withNamedCookie("shop_session", issue(t, codec, time.Hour)))
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "alice", res.username)

	*res = result{}
	resp = get(t, app, "/account", withCookie(issue(t, codec, time.Hour)))
	assert.Equal(t, fiber.StatusSeeOther, resp.StatusCode, "the default cookie is not read")
}

func TestTokenFromOtherKeyIsInvalid(t *testing.T) {
	res := &result{}
	app := newApp(t, sessionware.Config{Verifier: newCodec(t)}, res)

	resp := get(t, app, "/account", withCookie(issue(t, newCodec(t), time.Hour)))

	assert.Equal(t, fiber.StatusSeeOther, resp.StatusCode)
	assert.False(t, res.called)
}

func TestAllowListedPaths(t *testing.T) {
	codec := newCodec(t)
	res := &result{}
	app := newApp(t, sessionware.Config{
		Verifier:  codec,
		AllowList: []string{"/", "/static/*"},
	}, res)

	for _, path := range []string{"/", "/static/app.css", "/login"} {
		*res = result{}
		resp := get(t, app, path)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode, path)
		assert.True(t, res.called, path)
		assert.Empty(t, res.username, path)
	}

	*res = result{}
	resp := get(t, app, "/", withCookie(issue(t, codec, time.Hour)))
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "alice", res.username, "valid sessions are attached on public paths too")

	*res = result{}
	resp = get(t, app, "/staticfile")
	assert.Equal(t, fiber.StatusSeeOther, resp.StatusCode)
}

func TestUnauthorizedOverrideAndNext(t *testing.T) {
	res := &result{}
	app := newApp(t, sessionware.Config{
		Verifier: newCodec(t),
		Unauthorized: func(c router.Context) error {
			return c.Status(http.StatusUnauthorized).SendString("unauthorized")
		},
		Next: func(c router.Context) bool {
			return c.Path() == "/healthz"
		},
	}, res)

	resp := get(t, app, "/account")
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	resp = get(t, app, "/healthz")
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestAppendNext(t *testing.T) {
	res := &result{}
	app := newApp(t, sessionware.Config{Verifier: newCodec(t), AppendNext: true}, res)

	resp := get(t, app, "/cart?item=1")
	assert.Equal(t, "/login?next=%2Fcart%3Fitem%3D1", resp.Header.Get("Location"))
}

func TestMissingVerifierPanics(t *testing.T) {
	assert.Panics(t, func() {
		sessionware.New(sessionware.Config{})
	})
}
