package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"io"
	"strconv"
	"strings"

	"golang.org/x/crypto/argon2"
)

const (
	argon2ID = "argon2id"

	minMemoryKiB   uint32 = 8 * 1024
	minTime        uint32 = 1
	minParallelism uint8  = 1
	minSaltLength  uint32 = 16
	minKeyLength   uint32 = 16

	// upper bounds, also enforced on parameters read from stored hashes
	maxMemoryKiB uint32 = 4 * 1024 * 1024
	maxTime      uint32 = 64
)

// HasherParams are the argon2id cost parameters. Defaults match the argon2
// reference recommendation used by the shops' existing hashes.
type HasherParams struct {
	Memory      uint32 // KiB
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// DefaultHasherParams m=19456,t=2,p=1 with a 16 byte salt and 32 byte digest
func DefaultHasherParams() HasherParams {
	return HasherParams{
		Memory:      19456,
		Time:        2,
		Parallelism: 1,
		SaltLength:  16,
		KeyLength:   32,
	}
}

// Validate checks the parameters against the minimum accepted cost
func (p HasherParams) Validate() error {
	switch {
	case p.Memory < minMemoryKiB || p.Memory > maxMemoryKiB:
		return fmt.Errorf("argon2 memory must be between %d and %d KiB", minMemoryKiB, maxMemoryKiB)
	case p.Time < minTime || p.Time > maxTime:
		return fmt.Errorf("argon2 time must be between %d and %d", minTime, maxTime)
	case p.Parallelism < minParallelism:
		return fmt.Errorf("argon2 parallelism must be >= %d", minParallelism)
	case p.SaltLength < minSaltLength:
		return fmt.Errorf("argon2 salt length must be >= %d", minSaltLength)
	case p.KeyLength < minKeyLength:
		return fmt.Errorf("argon2 key length must be >= %d", minKeyLength)
	}
	return nil
}

// HasherOption configures a Hasher
type HasherOption func(*Hasher)

// WithHasherParams overrides the argon2id parameters
func WithHasherParams(p HasherParams) HasherOption {
	return func(h *Hasher) {
		h.params = p
	}
}

// WithRandom sets the salt source, used by tests to force failures
func WithRandom(r io.Reader) HasherOption {
	return func(h *Hasher) {
		if r != nil {
			h.rand = r
		}
	}
}

// Hasher produces and verifies self describing argon2id credential hashes.
// It is safe for concurrent use.
type Hasher struct {
	params HasherParams
	rand   io.Reader
}

// NewHasher returns a Hasher with the default parameters unless overridden
func NewHasher(opts ...HasherOption) (*Hasher, error) {
	h := &Hasher{
		params: DefaultHasherParams(),
		rand:   rand.Reader,
	}
	for _, opt := range opts {
		opt(h)
	}
	if err := h.params.Validate(); err != nil {
		return nil, err
	}
	return h, nil
}

// Params returns the parameters used for new hashes
func (h *Hasher) Params() HasherParams {
	return h.params
}

// Hash derives a PHC encoded argon2id hash using a fresh random salt.
func (h *Hasher) Hash(password string) (string, error) {
	salt := make([]byte, h.params.SaltLength)
	if _, err := io.ReadFull(h.rand, salt); err != nil {
		return "", fmt.Errorf("%w: reading salt: %v", ErrHashingFailed, err)
	}

	digest := argon2.IDKey(
		[]byte(password),
		salt,
		h.params.Time,
		h.params.Memory,
		h.params.Parallelism,
		h.params.KeyLength,
	)

	return fmt.Sprintf(
		"$%s$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2ID,
		argon2.Version,
		h.params.Memory,
		h.params.Time,
		h.params.Parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(digest),
	), nil
}

// Verify recomputes the digest of candidate with the salt and cost stored in
// hash. A wrong password is (false, nil); only an unparseable hash is an
// error.
func (h *Hasher) Verify(hash, candidate string) (bool, error) {
	if isBcryptHash(hash) {
		return compareBcrypt(hash, candidate)
	}

	parsed, err := parsePHC(hash)
	if err != nil {
		return false, err
	}

	computed := argon2.IDKey(
		[]byte(candidate),
		parsed.salt,
		parsed.time,
		parsed.memory,
		parsed.parallelism,
		uint32(len(parsed.digest)),
	)

	return subtle.ConstantTimeCompare(computed, parsed.digest) == 1, nil
}

// NeedsRehash reports whether hash was produced with an older algorithm or
// weaker parameters than the hasher's current ones. Malformed hashes report
// false, Verify is the place that surfaces them.
func (h *Hasher) NeedsRehash(hash string) bool {
	if isBcryptHash(hash) {
		return true
	}

	parsed, err := parsePHC(hash)
	if err != nil {
		return false
	}

	return parsed.memory < h.params.Memory ||
		parsed.time < h.params.Time ||
		parsed.parallelism < h.params.Parallelism ||
		uint32(len(parsed.digest)) != h.params.KeyLength
}

type phc struct {
	memory      uint32
	time        uint32
	parallelism uint8
	salt        []byte
	digest      []byte
}

func parsePHC(encoded string) (*phc, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[0] != "" {
		return nil, fmt.Errorf("%w: invalid PHC format", ErrMalformedHash)
	}

	if parts[1] != argon2ID {
		return nil, fmt.Errorf("%w: unsupported algorithm %q", ErrMalformedHash, parts[1])
	}

	if !strings.HasPrefix(parts[2], "v=") {
		return nil, fmt.Errorf("%w: missing version", ErrMalformedHash)
	}
	version, err := strconv.Atoi(strings.TrimPrefix(parts[2], "v="))
	if err != nil || version != argon2.Version {
		return nil, fmt.Errorf("%w: unsupported version", ErrMalformedHash)
	}

	out := &phc{}
	if err := parseParams(parts[3], out); err != nil {
		return nil, err
	}

	if out.salt, err = decodeB64(parts[4]); err != nil || len(out.salt) < 8 {
		return nil, fmt.Errorf("%w: invalid salt", ErrMalformedHash)
	}

	if out.digest, err = decodeB64(parts[5]); err != nil || len(out.digest) < 4 {
		return nil, fmt.Errorf("%w: invalid digest", ErrMalformedHash)
	}

	return out, nil
}

func parseParams(part string, out *phc) error {
	pairs := strings.Split(part, ",")
	if len(pairs) != 3 {
		return fmt.Errorf("%w: invalid parameter list", ErrMalformedHash)
	}

	var seenM, seenT, seenP bool
	for _, pair := range pairs {
		k, v, ok := strings.Cut(pair, "=")
		if !ok {
			return fmt.Errorf("%w: invalid parameter %q", ErrMalformedHash, pair)
		}
		switch k {
		case "m":
			n, err := strconv.ParseUint(v, 10, 32)
			if err != nil || n < 1 || n > uint64(maxMemoryKiB) {
				return fmt.Errorf("%w: invalid memory", ErrMalformedHash)
			}
			out.memory, seenM = uint32(n), true
		case "t":
			n, err := strconv.ParseUint(v, 10, 32)
			if err != nil || n < 1 || n > uint64(maxTime) {
				return fmt.Errorf("%w: invalid time", ErrMalformedHash)
			}
			out.time, seenT = uint32(n), true
		case "p":
			n, err := strconv.ParseUint(v, 10, 8)
			if err != nil || n < 1 {
				return fmt.Errorf("%w: invalid parallelism", ErrMalformedHash)
			}
			out.parallelism, seenP = uint8(n), true
		default:
			return fmt.Errorf("%w: unknown parameter %q", ErrMalformedHash, k)
		}
	}

	if !seenM || !seenT || !seenP {
		return fmt.Errorf("%w: missing parameters", ErrMalformedHash)
	}
	return nil
}

// PHC strings omit padding, some encoders add it anyway
func decodeB64(s string) ([]byte, error) {
	return base64.RawStdEncoding.DecodeString(strings.TrimRight(s, "="))
}
