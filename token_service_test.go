package auth_test

import (
	"encoding/base64"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	auth "github.com/goliatone/go-shop-auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	testAAD = []byte("server-aad-secret")
	testNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
)

func testKey(t *testing.T, fill byte) auth.SymmetricKey {
	t.Helper()
	var k auth.SymmetricKey
	for i := range k {
		k[i] = fill + byte(i)
	}
	return k
}

func fixedClock(ts time.Time) func() time.Time {
	return func() time.Time { return ts }
}

func newTestCodec(t *testing.T, opts ...auth.CodecOption) *auth.SessionCodec {
	t.Helper()
	opts = append([]auth.CodecOption{auth.WithClock(fixedClock(testNow))}, opts...)
	codec, err := auth.NewSessionCodec(testKey(t, 1), testAAD, opts...)
	require.NoError(t, err)
	return codec
}

func TestSessionCodec_RoundTrip(t *testing.T) {
	codec := newTestCodec(t)

	claims := auth.NewSessionClaims("user-42", "alice", time.Hour, testNow)
	claims = claims.With("cart", "c-1")

	token, err := codec.Issue(claims)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(token, auth.TokenHeader))
	assert.NotContains(t, token, "alice")

	got, ok := codec.Verify(token)
	require.True(t, ok)
	assert.Equal(t, "user-42", got.UserID())
	assert.Equal(t, "alice", got.Username)
	assert.Equal(t, testNow.Add(time.Hour).Unix(), got.Expires().Unix())
	assert.Equal(t, testNow.Unix(), got.Issued().Unix())
	assert.NotEmpty(t, got.ID, "token id should be assigned on issue")

	v, found := got.Get("cart")
	assert.True(t, found)
	assert.Equal(t, "c-1", v)
}

func TestSessionCodec_RoundTripWholeClaims(t *testing.T) {
	codec := newTestCodec(t)

	// NumericDate decodes through time.Unix, build the expected claims the
	// same way so locations match
	issued := time.Unix(testNow.Unix(), 0)
	claims := auth.NewSessionClaims("user-42", "alice", time.Hour, issued).
		With("cart", "c-1").
		With("locale", "en")
	claims.ID = "tok-1"

	token, err := codec.Issue(claims)
	require.NoError(t, err)

	got, ok := codec.Verify(token)
	require.True(t, ok)
	assert.Equal(t, claims, got)
}

func TestSessionCodec_FreshNoncePerIssue(t *testing.T) {
	codec := newTestCodec(t)
	claims := auth.NewSessionClaims("user-42", "alice", time.Hour, testNow)
	claims.ID = "fixed-id"

	a, err := codec.Issue(claims)
	require.NoError(t, err)
	b, err := codec.Issue(claims)
	require.NoError(t, err)

	assert.NotEqual(t, a, b)

	ca, ok := codec.Verify(a)
	require.True(t, ok)
	cb, ok := codec.Verify(b)
	require.True(t, ok)
	assert.Equal(t, ca.ID, cb.ID)
}

func TestSessionCodec_IssueRequiresSubjectAndExpiry(t *testing.T) {
	codec := newTestCodec(t)

	tests := []struct {
		name   string
		claims *auth.SessionClaims
	}{
		{name: "nil claims", claims: nil},
		{name: "missing subject", claims: auth.NewSessionClaims("", "alice", time.Hour, testNow)},
		{name: "missing expiry", claims: &auth.SessionClaims{
			RegisteredClaims: jwt.RegisteredClaims{Subject: "user-42"},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, err := codec.Issue(tt.claims)
			assert.Empty(t, token)
			assert.True(t, errors.Is(err, auth.ErrClaimsIncomplete))
		})
	}
}

func TestSessionCodec_Expired(t *testing.T) {
	codec := newTestCodec(t)

	past := auth.NewSessionClaims("user-42", "alice", time.Hour, testNow.Add(-2*time.Hour))
	token, err := codec.Issue(past)
	require.NoError(t, err, "expired claims still encode")

	got, ok := codec.Verify(token)
	assert.False(t, ok)
	assert.Nil(t, got)
}

func TestSessionCodec_ExpiryBoundary(t *testing.T) {
	claims := auth.NewSessionClaims("user-42", "alice", time.Minute, testNow)

	issuer := newTestCodec(t)
	token, err := issuer.Issue(claims)
	require.NoError(t, err)

	before := newTestCodec(t, auth.WithClock(fixedClock(testNow.Add(59*time.Second))))
	_, ok := before.Verify(token)
	assert.True(t, ok)

	after := newTestCodec(t, auth.WithClock(fixedClock(testNow.Add(61*time.Second))))
	_, ok = after.Verify(token)
	assert.False(t, ok)

	lenient := newTestCodec(t,
		auth.WithClock(fixedClock(testNow.Add(61*time.Second))),
		auth.WithLeeway(5*time.Second),
	)
	_, ok = lenient.Verify(token)
	assert.True(t, ok)
}

func TestSessionCodec_NotBeforeInFuture(t *testing.T) {
	codec := newTestCodec(t)

	claims := auth.NewSessionClaims("user-42", "alice", time.Hour, testNow)
	claims.NotBefore = jwt.NewNumericDate(testNow.Add(10 * time.Minute))

	token, err := codec.Issue(claims)
	require.NoError(t, err)

	_, ok := codec.Verify(token)
	assert.False(t, ok)
}

func TestSessionCodec_WrongKeyOrAAD(t *testing.T) {
	codec := newTestCodec(t)
	token, err := codec.Issue(auth.NewSessionClaims("user-42", "alice", time.Hour, testNow))
	require.NoError(t, err)

	otherKey, err := auth.NewSessionCodec(testKey(t, 9), testAAD, auth.WithClock(fixedClock(testNow)))
	require.NoError(t, err)
	_, ok := otherKey.Verify(token)
	assert.False(t, ok, "different key")

	otherAAD, err := auth.NewSessionCodec(testKey(t, 1), []byte("another-secret"), auth.WithClock(fixedClock(testNow)))
	require.NoError(t, err)
	_, ok = otherAAD.Verify(token)
	assert.False(t, ok, "different aad")
}

func TestSessionCodec_Tampered(t *testing.T) {
	codec := newTestCodec(t)
	token, err := codec.Issue(auth.NewSessionClaims("user-42", "alice", time.Hour, testNow))
	require.NoError(t, err)

	raw, err := base64.RawURLEncoding.DecodeString(strings.TrimPrefix(token, auth.TokenHeader))
	require.NoError(t, err)

	for _, idx := range []int{0, 30, len(raw) - 1} {
		mutated := append([]byte(nil), raw...)
		mutated[idx] ^= 0x01
		_, ok := codec.Verify(auth.TokenHeader + base64.RawURLEncoding.EncodeToString(mutated))
		assert.False(t, ok, "flipped byte %d", idx)
	}

	_, ok := codec.Verify("sess.v2." + strings.TrimPrefix(token, auth.TokenHeader))
	assert.False(t, ok, "header is authenticated")
}

func TestSessionCodec_Garbage(t *testing.T) {
	codec := newTestCodec(t)

	inputs := []string{
		"",
		"sess.v1.",
		"sess.v1.!!!not-base64!!!",
		"sess.v1." + base64.RawURLEncoding.EncodeToString([]byte("short")),
		"eyJhbGciOiJIUzI1NiJ9.eyJzdWIiOiIxIn0.sig",
		"v4.local.AAAA",
	}

	for _, in := range inputs {
		got, ok := codec.Verify(in)
		assert.False(t, ok, "input %q", in)
		assert.Nil(t, got)
	}
}

func TestPackageIssueVerify(t *testing.T) {
	key := testKey(t, 3)
	claims := auth.NewSessionClaims("user-7", "bob", time.Hour, time.Now())

	token, err := auth.Issue(claims, key, testAAD)
	require.NoError(t, err)

	got, ok := auth.Verify(token, key, testAAD)
	require.True(t, ok)
	assert.Equal(t, "bob", got.Username)

	_, ok = auth.Verify(token, key, nil)
	assert.False(t, ok)
}

func TestParseSymmetricKey(t *testing.T) {
	key, err := auth.GenerateSymmetricKey()
	require.NoError(t, err)

	encoded := key.Encode()
	assert.True(t, strings.HasPrefix(encoded, "k4.local."))

	parsed, err := auth.ParseSymmetricKey(encoded)
	require.NoError(t, err)
	assert.Equal(t, key, parsed)

	std := base64.StdEncoding.EncodeToString(key[:])
	parsed, err = auth.ParseSymmetricKey(std)
	require.NoError(t, err)
	assert.Equal(t, key, parsed)

	assert.NotContains(t, key.String(), encoded[len("k4.local."):])

	for _, bad := range []string{"", "k4.local.", "c2hvcnQ", "k4.local.***"} {
		_, err := auth.ParseSymmetricKey(bad)
		assert.True(t, errors.Is(err, auth.ErrInvalidKey), "input %q", bad)
	}
}
