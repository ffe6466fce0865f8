package authcore

import (
	"errors"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/glasswing-io/authcore/internal"
	"github.com/glasswing-io/authcore/internal/flows"
	"github.com/glasswing-io/authcore/internal/rate"
	"github.com/glasswing-io/authcore/jwt"
	"github.com/glasswing-io/authcore/mirror"
	"github.com/glasswing-io/authcore/revocation"
)

// Builder assembles an Engine. A Builder is single-use: Build consumes
// it.
type Builder struct {
	config Config
	redis  redis.UniversalClient

	directory  Directory
	verifier   CredentialVerifier
	mirrorPool *pgxpool.Pool
	auditSink  AuditSink

	built bool
}

// New returns a Builder preloaded with defaults. At minimum, WithRedis
// and the two JWT secrets (via WithConfig) are required before Build.
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig replaces the entire configuration. The Config is cloned;
// later mutation of cfg does not affect the Builder.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithRedis sets the Redis client backing the revocation store and the
// throttles.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithDirectory enables the credential operations (SignIn, SignUp,
// ProviderLogin) against the host's identity backend. Engines built
// without one still support the full token lifecycle.
func (b *Builder) WithDirectory(d Directory, v CredentialVerifier) *Builder {
	b.directory = d
	b.verifier = v
	return b
}

// WithMirror enables the durable Postgres mirror on the given pool.
func (b *Builder) WithMirror(pool *pgxpool.Pool) *Builder {
	b.mirrorPool = pool
	b.config.Mirror.Enabled = pool != nil
	return b
}

// WithAuditSink sets the destination for audit events. Only consulted
// when Audit.Enabled is set.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build validates the configuration, wires every subsystem, and
// returns a ready Engine.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)

	if b.redis == nil {
		return nil, errors.New("redis client required")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if (b.directory == nil) != (b.verifier == nil) {
		return nil, errors.New("directory and credential verifier must be provided together")
	}

	if cfg.Mirror.Enabled && b.mirrorPool == nil {
		return nil, errors.New("mirror enabled without a postgres pool")
	}

	jm, err := jwt.NewManager(jwt.Config{
		AccessTTL:     cfg.JWT.AccessTTL,
		RefreshTTL:    cfg.JWT.RefreshTTL,
		AccessSecret:  cloneBytes(cfg.JWT.AccessSecret),
		RefreshSecret: cloneBytes(cfg.JWT.RefreshSecret),
		Issuer:        cfg.JWT.Issuer,
		Leeway:        cfg.JWT.Leeway,
		RequireIAT:    cfg.JWT.RequireIAT,
		MaxFutureIAT:  cfg.JWT.MaxFutureIAT,
	})
	if err != nil {
		return nil, err
	}

	store := revocation.NewStore(b.redis, cfg.Session.RedisPrefix)

	limiter := rate.New(b.redis, rate.Config{
		EnableIPThrottle:        cfg.Security.EnableIPThrottle,
		EnableRefreshThrottle:   cfg.Security.EnableRefreshThrottle,
		MaxLoginAttempts:        cfg.Security.MaxLoginAttempts,
		LoginCooldownDuration:   cfg.Security.LoginCooldownDuration,
		MaxRefreshAttempts:      cfg.Security.MaxRefreshAttempts,
		RefreshCooldownDuration: cfg.Security.RefreshCooldownDuration,
	})

	engine := &Engine{
		config:       cfg,
		sessionStore: store,
		rateLimiter:  limiter,
		jwtManager:   jm,
		directory:    b.directory,
		verifier:     b.verifier,
	}

	if b.mirrorPool != nil {
		engine.mirror = mirror.NewStore(b.mirrorPool)
	}

	engine.audit = newAuditDispatcher(cfg.Audit, b.auditSink)
	engine.metrics = NewMetrics(cfg.Metrics)

	svc, err := flows.New(engine.flowDeps())
	if err != nil {
		return nil, err
	}
	engine.flows = svc

	b.built = true

	return engine, nil
}

func (e *Engine) flowDeps() flows.Deps {
	deps := flows.Deps{
		NewJTI:       internal.NewJTI,
		RefreshTTL:   e.config.JWT.RefreshTTL,
		SignAccess:   e.jwtManager.CreateAccess,
		SignRefresh:  e.jwtManager.CreateRefresh,
		ParseAccess:  e.parseAccessInfo,
		ParseRefresh: e.parseRefreshInfo,
		IsExpiredErr: func(err error) bool {
			return errors.Is(err, jwtlib.ErrTokenExpired)
		},
		SessionStore: e.sessionStore,
		Warn:         warnf,
	}

	if e.mirror != nil {
		deps.Mirror = e.mirror
	}

	if e.directory != nil {
		deps.FindByEmail = e.findDirectoryUser
		deps.IsNotFoundErr = func(err error) bool {
			return errors.Is(err, ErrUserNotFound)
		}
		deps.VerifyPassword = e.verifier.VerifyPassword
		deps.Limiter = signInThrottle{limiter: e.rateLimiter}
	}

	return deps
}
