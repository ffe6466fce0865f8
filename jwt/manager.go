package jwt

import (
	"bytes"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Config holds codec parameters. Access and refresh tokens are signed
// with distinct secrets so that a leaked access secret cannot forge
// refresh tokens and vice versa.
//
// Config instances are treated as immutable after the Manager is built.
type Config struct {
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	AccessSecret  []byte
	RefreshSecret []byte
	Issuer        string
	Leeway        time.Duration
	RequireIAT    bool
	MaxFutureIAT  time.Duration
}

// Manager is the stateless signing/verification codec for both token
// kinds. It performs no I/O and holds no mutable state; a single
// Manager is safe for concurrent use.
type Manager struct {
	config Config
}

// AccessClaims is the claim set carried by access tokens: Subject is
// the owning user ID. ID (jti) is empty for ordinary access tokens and
// set only on session-bound bridging tokens minted during provider
// login, which remain revocable through the revocation store.
type AccessClaims struct {
	jwt.RegisteredClaims
}

// RefreshClaims is the claim set carried by refresh tokens: Subject is
// the owning user ID and ID is the rotation identifier (jti) naming the
// live session key in the revocation store.
type RefreshClaims struct {
	jwt.RegisteredClaims
}

// NewManager validates cfg and returns a codec. Both secrets must be
// present and must differ.
func NewManager(cfg Config) (*Manager, error) {
	if cfg.AccessTTL <= 0 || cfg.RefreshTTL <= 0 {
		return nil, errors.New("invalid TTL configuration")
	}
	if len(cfg.AccessSecret) == 0 {
		return nil, errors.New("access secret required")
	}
	if len(cfg.RefreshSecret) == 0 {
		return nil, errors.New("refresh secret required")
	}
	if bytes.Equal(cfg.AccessSecret, cfg.RefreshSecret) {
		return nil, errors.New("access and refresh secrets must differ")
	}
	if cfg.Leeway < 0 || cfg.Leeway > 2*time.Minute {
		return nil, errors.New("invalid leeway configuration")
	}
	if cfg.MaxFutureIAT == 0 {
		cfg.MaxFutureIAT = 10 * time.Minute
	}
	if cfg.MaxFutureIAT < 0 || cfg.MaxFutureIAT > 24*time.Hour {
		return nil, errors.New("invalid MaxFutureIAT configuration")
	}

	return &Manager{config: cfg}, nil
}

// AccessTTL reports the configured access-token lifetime.
func (m *Manager) AccessTTL() time.Duration {
	return m.config.AccessTTL
}

// RefreshTTL reports the configured default refresh-token lifetime.
func (m *Manager) RefreshTTL() time.Duration {
	return m.config.RefreshTTL
}

// CreateAccess signs an access token for userID. jti is empty for
// ordinary access tokens; a non-empty jti produces a session-bound
// token whose liveness can still be checked against the revocation
// store.
func (m *Manager) CreateAccess(userID, jti string) (string, error) {
	if userID == "" {
		return "", errors.New("empty user id")
	}

	now := time.Now()
	claims := AccessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ID:        jti,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.config.AccessTTL)),
			Issuer:    m.config.Issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.config.AccessSecret)
}

// CreateRefresh signs a refresh token bound to jti. ttl caps the token
// lifetime: issuance passes zero to use the configured default, while
// rotation passes the remaining lifetime of the consumed token so a
// rotated token never outlives the original grant.
func (m *Manager) CreateRefresh(userID, jti string, ttl time.Duration) (string, error) {
	if userID == "" {
		return "", errors.New("empty user id")
	}
	if jti == "" {
		return "", errors.New("empty jti")
	}
	if ttl <= 0 {
		ttl = m.config.RefreshTTL
	}

	now := time.Now()
	claims := RefreshClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ID:        jti,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			Issuer:    m.config.Issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.config.RefreshSecret)
}

// ParseAccess verifies an access token against the access secret.
// Expired tokens fail with an error matching jwt.ErrTokenExpired.
func (m *Manager) ParseAccess(tokenStr string) (*AccessClaims, error) {
	claims := &AccessClaims{}
	if err := m.parse(tokenStr, claims, m.config.AccessSecret); err != nil {
		return nil, err
	}
	return claims, nil
}

// ParseRefresh verifies a refresh token against the refresh secret.
func (m *Manager) ParseRefresh(tokenStr string) (*RefreshClaims, error) {
	claims := &RefreshClaims{}
	if err := m.parse(tokenStr, claims, m.config.RefreshSecret); err != nil {
		return nil, err
	}
	if claims.ID == "" {
		return nil, errors.New("refresh token missing jti")
	}
	return claims, nil
}

func (m *Manager) parse(tokenStr string, claims jwt.Claims, secret []byte) error {
	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if m.config.Leeway > 0 {
		options = append(options, jwt.WithLeeway(m.config.Leeway))
	}
	if m.config.RequireIAT {
		options = append(options, jwt.WithIssuedAt())
	}
	if m.config.Issuer != "" {
		options = append(options, jwt.WithIssuer(m.config.Issuer))
	}

	parser := jwt.NewParser(options...)
	token, err := parser.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, fmt.Errorf("unexpected signing algorithm: %s", t.Method.Alg())
		}
		return secret, nil
	})
	if err != nil {
		return err
	}
	if !token.Valid {
		return jwt.ErrTokenInvalidClaims
	}

	if m.config.MaxFutureIAT > 0 {
		if iat, iatErr := claims.GetIssuedAt(); iatErr == nil && iat != nil {
			if iat.Time.After(time.Now().Add(m.config.MaxFutureIAT)) {
				return errors.New("token iat too far in the future")
			}
		}
	}

	return nil
}
