// Package auth mints the per-device JWTs used as MQTT passwords. Tokens are
// signed with the device private key and scoped to the cloud project.
package auth

import (
	"crypto"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	domain "github.com/tamahiro5/iotlab-edge/pkg/types"
)

const (
	// DefaultTTL is the token lifetime the broker expects.
	DefaultTTL = 60 * time.Minute

	// defaultRefreshBuffer is how long before expiry a cached token stops
	// being served, so a connection never starts on a nearly-dead token.
	defaultRefreshBuffer = 10 * time.Minute
)

// TokenSource supplies a signed, unexpired JWT. Implementations are safe for
// concurrent use.
type TokenSource interface {
	Token() (string, error)
}

// JWTSource implements TokenSource with a private key on disk. It caches the
// minted token and re-signs automatically when the cached one is expired or
// within the refresh buffer of expiry. Thread-safe via mutex.
type JWTSource struct {
	projectID     string
	key           crypto.PrivateKey
	method        jwt.SigningMethod
	ttl           time.Duration
	refreshBuffer time.Duration

	mu      sync.Mutex
	token   string
	expiry  time.Time
	nowFunc func() time.Time // for testing
}

// JWTOption configures the JWTSource.
type JWTOption func(*JWTSource)

// WithTTL overrides the token lifetime.
func WithTTL(d time.Duration) JWTOption {
	return func(s *JWTSource) {
		s.ttl = d
	}
}

// WithRefreshBuffer overrides how early a cached token is considered stale.
func WithRefreshBuffer(d time.Duration) JWTOption {
	return func(s *JWTSource) {
		s.refreshBuffer = d
	}
}

// WithNowFunc overrides the time function for testing.
func WithNowFunc(f func() time.Time) JWTOption {
	return func(s *JWTSource) {
		s.nowFunc = f
	}
}

// NewJWTSource loads the private key at keyFile and returns a source minting
// tokens for projectID with the given algorithm. The key is parsed once at
// construction so a bad key path fails fast, before any connection attempt.
func NewJWTSource(
	projectID, keyFile string,
	alg domain.Algorithm,
	opts ...JWTOption,
) (*JWTSource, error) {
	pemBytes, err := os.ReadFile(keyFile)
	if err != nil {
		return nil, fmt.Errorf("reading private key: %w", err)
	}

	s := &JWTSource{
		projectID:     projectID,
		ttl:           DefaultTTL,
		refreshBuffer: defaultRefreshBuffer,
		nowFunc:       time.Now,
	}

	switch alg {
	case domain.AlgorithmRS256:
		key, err := jwt.ParseRSAPrivateKeyFromPEM(pemBytes)
		if err != nil {
			return nil, fmt.Errorf("parsing RSA private key: %w", err)
		}
		s.key = key
		s.method = jwt.SigningMethodRS256
	case domain.AlgorithmES256:
		key, err := jwt.ParseECPrivateKeyFromPEM(pemBytes)
		if err != nil {
			return nil, fmt.Errorf("parsing EC private key: %w", err)
		}
		s.key = key
		s.method = jwt.SigningMethodES256
	default:
		return nil, fmt.Errorf("unsupported signing algorithm %q", alg)
	}

	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Token returns a valid signed JWT, minting a fresh one if necessary.
func (s *JWTSource) Token() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.token != "" && s.nowFunc().Before(s.expiry.Add(-s.refreshBuffer)) {
		return s.token, nil
	}

	return s.mintLocked()
}

func (s *JWTSource) mintLocked() (string, error) {
	now := s.nowFunc()
	expiry := now.Add(s.ttl)

	// aud must be the bare project ID string, not a single-element array.
	claims := jwt.MapClaims{
		"iat": now.Unix(),
		"exp": expiry.Unix(),
		"aud": s.projectID,
	}

	signed, err := jwt.NewWithClaims(s.method, claims).SignedString(s.key)
	if err != nil {
		return "", fmt.Errorf("signing device token: %w", err)
	}

	s.token = signed
	s.expiry = expiry

	return signed, nil
}

// ValidUntil reports when the currently cached token expires. The zero time
// means no token has been minted yet.
func (s *JWTSource) ValidUntil() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.expiry
}
