package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/odyssey-erp/course-catalog/internal/shared"
)

const (
	// DefaultTokenTTL is the lifetime of an issued token.
	DefaultTokenTTL = time.Hour
	// MinSigningKeyBytes is the shortest HS256 key accepted at startup.
	MinSigningKeyBytes = 32
)

var (
	// ErrTokenInvalid is the parent of every token rejection.
	ErrTokenInvalid = errors.New("auth: invalid token")
	// ErrTokenMalformed means the token could not be parsed.
	ErrTokenMalformed = fmt.Errorf("%w: malformed", ErrTokenInvalid)
	// ErrTokenBadSignature means the signature did not verify or the algorithm is not HS256.
	ErrTokenBadSignature = fmt.Errorf("%w: bad signature", ErrTokenInvalid)
	// ErrTokenExpired means the token is past its exp claim.
	ErrTokenExpired = fmt.Errorf("%w: expired", ErrTokenInvalid)

	// ErrSigningKeyTooShort is returned when the configured key is unusable.
	ErrSigningKeyTooShort = fmt.Errorf("auth: signing key must be at least %d bytes", MinSigningKeyBytes)
)

// Claims is the payload carried by an issued token.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// TokenIssuer mints tokens for verified identities.
type TokenIssuer interface {
	Issue(identity *Identity) (string, error)
}

// TokenValidator checks tokens presented by clients.
type TokenValidator interface {
	Validate(raw string) (*Claims, error)
}

// CodecOption customises a TokenCodec.
type CodecOption func(*TokenCodec)

// WithClock overrides the time source used for iat, exp and validation.
func WithClock(now func() time.Time) CodecOption {
	return func(c *TokenCodec) {
		if now != nil {
			c.now = now
		}
	}
}

// TokenCodec issues and validates HS256 tokens with a single process-wide key.
type TokenCodec struct {
	key    []byte
	ttl    time.Duration
	now    func() time.Time
	parser *jwt.Parser
}

// NewTokenCodec builds a codec. The key is copied and must be at least MinSigningKeyBytes long.
func NewTokenCodec(key []byte, ttl time.Duration, opts ...CodecOption) (*TokenCodec, error) {
	if len(key) < MinSigningKeyBytes {
		return nil, ErrSigningKeyTooShort
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	c := &TokenCodec{
		key: append([]byte(nil), key...),
		ttl: ttl,
		now: time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.parser = jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithStrictDecoding(),
		jwt.WithTimeFunc(c.now),
	)
	return c, nil
}

// TTL returns the configured token lifetime.
func (c *TokenCodec) TTL() time.Duration {
	return c.ttl
}

// Issue signs a token whose subject is the identity's username.
func (c *TokenCodec) Issue(identity *Identity) (string, error) {
	if identity == nil || identity.Username == "" {
		return "", errors.New("auth: cannot issue token without username")
	}
	now := c.now()
	claims := Claims{
		Role: roleFor(identity.IsAdmin),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity.Username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.key)
	if err != nil {
		return "", fmt.Errorf("auth: sign token: %w", err)
	}
	return signed, nil
}

// Validate verifies signature, algorithm and expiry and returns the claims.
func (c *TokenCodec) Validate(raw string) (*Claims, error) {
	claims := &Claims{}
	_, err := c.parser.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return c.key, nil
	})
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrTokenExpired
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return nil, ErrTokenBadSignature
		default:
			return nil, fmt.Errorf("%w: %v", ErrTokenMalformed, err)
		}
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrTokenMalformed)
	}
	return claims, nil
}

// RejectionReason names a validation error for logs and metrics.
func RejectionReason(err error) string {
	switch {
	case errors.Is(err, ErrTokenExpired):
		return "expired"
	case errors.Is(err, ErrTokenBadSignature):
		return "bad_signature"
	case errors.Is(err, ErrTokenMalformed):
		return "malformed"
	default:
		return "unknown"
	}
}

func roleFor(isAdmin bool) string {
	if isAdmin {
		return shared.AuthorityAdmin
	}
	return shared.AuthorityUser
}

var (
	_ TokenIssuer    = (*TokenCodec)(nil)
	_ TokenValidator = (*TokenCodec)(nil)
)
