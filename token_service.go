package auth

import (
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/chacha20poly1305"
)

// TokenHeader prefixes every session token and is bound into the AEAD
// additional data, bump the version when the payload layout changes.
const TokenHeader = "sess.v1."

// CodecOption configures a SessionCodec
type CodecOption func(*SessionCodec)

// WithClock sets the time source used for issue and verification
func WithClock(now func() time.Time) CodecOption {
	return func(sc *SessionCodec) {
		if now != nil {
			sc.now = now
		}
	}
}

// WithLeeway allows for clock skew when checking exp and nbf
func WithLeeway(d time.Duration) CodecOption {
	return func(sc *SessionCodec) {
		sc.leeway = d
	}
}

// WithNonceSource overrides crypto/rand for nonce generation
func WithNonceSource(r io.Reader) CodecOption {
	return func(sc *SessionCodec) {
		if r != nil {
			sc.rand = r
		}
	}
}

// SessionCodec seals SessionClaims into opaque, authenticated tokens. Tokens
// are only readable by holders of the key and AAD secret.
type SessionCodec struct {
	aead      cipher.AEAD
	ad        []byte
	now       func() time.Time
	leeway    time.Duration
	rand      io.Reader
	validator *jwt.Validator
}

// Verify interface compliance
var _ SessionVerifier = (*SessionCodec)(nil)

// NewSessionCodec returns a codec for key, binding every token to aad
func NewSessionCodec(key SymmetricKey, aad []byte, opts ...CodecOption) (*SessionCodec, error) {
	aead, err := chacha20poly1305.NewX(key[:])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}

	sc := &SessionCodec{
		aead: aead,
		now:  time.Now,
		rand: rand.Reader,
	}

	for _, opt := range opts {
		opt(sc)
	}

	sc.ad = make([]byte, 0, len(TokenHeader)+len(aad))
	sc.ad = append(sc.ad, TokenHeader...)
	sc.ad = append(sc.ad, aad...)

	sc.validator = jwt.NewValidator(
		jwt.WithTimeFunc(sc.now),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithLeeway(sc.leeway),
	)

	return sc, nil
}

// Issue encrypts claims into a token. Subject and expiration are required,
// issued at, not before and token id are filled in when empty. Claims that
// are already expired still encode, they just never verify.
func (sc *SessionCodec) Issue(claims *SessionClaims) (string, error) {
	if claims == nil || claims.Subject == "" || claims.ExpiresAt == nil {
		return "", ErrClaimsIncomplete
	}

	out := *claims
	if out.IssuedAt == nil {
		out.IssuedAt = jwt.NewNumericDate(sc.now())
	}
	if out.NotBefore == nil {
		out.NotBefore = out.IssuedAt
	}
	if out.ID == "" {
		out.ID = uuid.NewString()
	}

	payload, err := json.Marshal(&out)
	if err != nil {
		return "", fmt.Errorf("encode session claims: %w", err)
	}

	nonce := make([]byte, sc.aead.NonceSize(), sc.aead.NonceSize()+len(payload)+sc.aead.Overhead())
	if _, err := io.ReadFull(sc.rand, nonce); err != nil {
		return "", fmt.Errorf("session nonce: %w", err)
	}

	sealed := sc.aead.Seal(nonce, nonce, payload, sc.ad)

	return TokenHeader + base64.RawURLEncoding.EncodeToString(sealed), nil
}

// Verify decrypts token and validates its claims. Every failure mode is
// reported the same way so callers cannot tell them apart.
func (sc *SessionCodec) Verify(token string) (*SessionClaims, bool) {
	body, ok := strings.CutPrefix(token, TokenHeader)
	if !ok || body == "" {
		return nil, false
	}

	raw, err := base64.RawURLEncoding.DecodeString(body)
	if err != nil {
		return nil, false
	}

	ns := sc.aead.NonceSize()
	if len(raw) < ns+sc.aead.Overhead() {
		return nil, false
	}

	plain, err := sc.aead.Open(nil, raw[:ns], raw[ns:], sc.ad)
	if err != nil {
		return nil, false
	}

	claims := &SessionClaims{}
	if err := json.Unmarshal(plain, claims); err != nil {
		return nil, false
	}

	if err := sc.validator.Validate(claims); err != nil {
		return nil, false
	}

	return claims, true
}

// Issue encodes claims with a one off codec
func Issue(claims *SessionClaims, key SymmetricKey, aad []byte) (string, error) {
	sc, err := NewSessionCodec(key, aad)
	if err != nil {
		return "", err
	}
	return sc.Issue(claims)
}

// Verify decodes token with a one off codec
func Verify(token string, key SymmetricKey, aad []byte) (*SessionClaims, bool) {
	sc, err := NewSessionCodec(key, aad)
	if err != nil {
		return nil, false
	}
	return sc.Verify(token)
}
