package authcore

import (
	"bytes"
	"errors"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config carries every tunable of the Engine. Zero values are filled
// from defaultConfig by the Builder; a populated Config is treated as
// immutable after Build.
type Config struct {
	JWT      JWTConfig
	Session  SessionConfig
	Mirror   MirrorConfig
	Audit    AuditConfig
	Metrics  MetricsConfig
	Security SecurityConfig
}

/*
====================================
JWT CONFIG
====================================
*/

// JWTConfig controls token minting and verification. Access and
// refresh tokens are signed with independent HS256 secrets so a leak
// of one plane never compromises the other.
type JWTConfig struct {
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	AccessSecret  []byte
	RefreshSecret []byte
	Issuer        string
	Leeway        time.Duration
	RequireIAT    bool
	MaxFutureIAT  time.Duration
}

/*
====================================
SESSION CONFIG
====================================
*/

// SessionConfig controls the revocation store key namespace.
type SessionConfig struct {
	RedisPrefix string
}

// MirrorConfig controls the optional durable mirror. The mirror keeps
// an audit-grade lineage of refresh sessions in Postgres; the
// revocation store stays the sole authority for liveness.
type MirrorConfig struct {
	Enabled bool
}

// AuditConfig controls the async audit event dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig controls the in-process metrics collector.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

/*
====================================
SECURITY CONFIG
====================================
*/

// SecurityConfig controls the Redis-backed throttles. Both throttles
// are off by default; hosts that front the Engine with their own rate
// limiting leave them off.
type SecurityConfig struct {
	EnableIPThrottle        bool
	EnableRefreshThrottle   bool
	MaxLoginAttempts        int
	LoginCooldownDuration   time.Duration
	MaxRefreshAttempts      int
	RefreshCooldownDuration time.Duration
}

func defaultConfig() Config {
	return Config{
		JWT: JWTConfig{
			AccessTTL:    15 * time.Minute,
			RefreshTTL:   7 * 24 * time.Hour,
			Leeway:       30 * time.Second,
			MaxFutureIAT: 10 * time.Minute,
		},
		Session: SessionConfig{
			RedisPrefix: "refresh",
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 256,
			DropIfFull: true,
		},
		Security: SecurityConfig{
			MaxLoginAttempts:        5,
			LoginCooldownDuration:   15 * time.Minute,
			MaxRefreshAttempts:      10,
			RefreshCooldownDuration: time.Minute,
		},
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.JWT.AccessSecret = cloneBytes(cfg.JWT.AccessSecret)
	out.JWT.RefreshSecret = cloneBytes(cfg.JWT.RefreshSecret)
	return out
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

// Validate reports the first configuration problem found.
//
// RefreshTTL is expected to exceed AccessTTL in any sane deployment,
// but the inverse is not rejected: short-lived refresh windows are a
// legitimate setup for high-security hosts.
func (c Config) Validate() error {
	if c.JWT.AccessTTL <= 0 {
		return errors.New("JWT.AccessTTL must be positive")
	}
	if c.JWT.RefreshTTL <= 0 {
		return errors.New("JWT.RefreshTTL must be positive")
	}
	if len(c.JWT.AccessSecret) == 0 {
		return errors.New("JWT.AccessSecret is required")
	}
	if len(c.JWT.RefreshSecret) == 0 {
		return errors.New("JWT.RefreshSecret is required")
	}
	if bytes.Equal(c.JWT.AccessSecret, c.JWT.RefreshSecret) {
		return errors.New("JWT access and refresh secrets must differ")
	}
	if c.JWT.Leeway < 0 {
		return errors.New("JWT.Leeway must not be negative")
	}
	if c.Audit.Enabled && c.Audit.BufferSize < 0 {
		return errors.New("Audit.BufferSize must not be negative")
	}
	if c.Security.EnableIPThrottle || c.Security.EnableRefreshThrottle {
		if c.Security.MaxLoginAttempts <= 0 {
			return errors.New("Security.MaxLoginAttempts must be positive when throttling is enabled")
		}
		if c.Security.LoginCooldownDuration <= 0 {
			return errors.New("Security.LoginCooldownDuration must be positive when throttling is enabled")
		}
	}
	return nil
}

type envConfig struct {
	AccessTTL     time.Duration `env:"AUTHCORE_ACCESS_TTL" envDefault:"15m"`
	RefreshTTL    time.Duration `env:"AUTHCORE_REFRESH_TTL" envDefault:"168h"`
	AccessSecret  string        `env:"AUTHCORE_ACCESS_SECRET"`
	RefreshSecret string        `env:"AUTHCORE_REFRESH_SECRET"`
	Issuer        string        `env:"AUTHCORE_ISSUER"`
	Leeway        time.Duration `env:"AUTHCORE_LEEWAY" envDefault:"30s"`

	RedisPrefix string `env:"AUTHCORE_REDIS_PREFIX" envDefault:"refresh"`

	MirrorEnabled bool `env:"AUTHCORE_MIRROR_ENABLED" envDefault:"false"`

	AuditEnabled    bool `env:"AUTHCORE_AUDIT_ENABLED" envDefault:"false"`
	AuditBufferSize int  `env:"AUTHCORE_AUDIT_BUFFER" envDefault:"256"`

	MetricsEnabled   bool `env:"AUTHCORE_METRICS_ENABLED" envDefault:"false"`
	LatencyHistogram bool `env:"AUTHCORE_METRICS_LATENCY" envDefault:"false"`

	IPThrottle      bool          `env:"AUTHCORE_IP_THROTTLE" envDefault:"false"`
	RefreshThrottle bool          `env:"AUTHCORE_REFRESH_THROTTLE" envDefault:"false"`
	MaxLogin        int           `env:"AUTHCORE_MAX_LOGIN_ATTEMPTS" envDefault:"5"`
	LoginCooldown   time.Duration `env:"AUTHCORE_LOGIN_COOLDOWN" envDefault:"15m"`
	MaxRefresh      int           `env:"AUTHCORE_MAX_REFRESH_ATTEMPTS" envDefault:"10"`
	RefreshCooldown time.Duration `env:"AUTHCORE_REFRESH_COOLDOWN" envDefault:"1m"`
}

// ConfigFromEnv builds a Config from AUTHCORE_* environment variables.
// Unset variables fall back to the same defaults New uses; the result
// still goes through Validate at Build time.
func ConfigFromEnv() (Config, error) {
	var ec envConfig
	if err := env.Parse(&ec); err != nil {
		return Config{}, err
	}

	cfg := defaultConfig()
	cfg.JWT.AccessTTL = ec.AccessTTL
	cfg.JWT.RefreshTTL = ec.RefreshTTL
	cfg.JWT.AccessSecret = []byte(ec.AccessSecret)
	cfg.JWT.RefreshSecret = []byte(ec.RefreshSecret)
	cfg.JWT.Issuer = ec.Issuer
	cfg.JWT.Leeway = ec.Leeway
	cfg.Session.RedisPrefix = ec.RedisPrefix
	cfg.Mirror.Enabled = ec.MirrorEnabled
	cfg.Audit.Enabled = ec.AuditEnabled
	cfg.Audit.BufferSize = ec.AuditBufferSize
	cfg.Metrics.Enabled = ec.MetricsEnabled
	cfg.Metrics.EnableLatencyHistograms = ec.LatencyHistogram
	cfg.Security.EnableIPThrottle = ec.IPThrottle
	cfg.Security.EnableRefreshThrottle = ec.RefreshThrottle
	cfg.Security.MaxLoginAttempts = ec.MaxLogin
	cfg.Security.LoginCooldownDuration = ec.LoginCooldown
	cfg.Security.MaxRefreshAttempts = ec.MaxRefresh
	cfg.Security.RefreshCooldownDuration = ec.RefreshCooldown

	return cfg, nil
}
