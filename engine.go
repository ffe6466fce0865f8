package authcore

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/glasswing-io/authcore/internal/flows"
	"github.com/glasswing-io/authcore/internal/rate"
	"github.com/glasswing-io/authcore/jwt"
	"github.com/glasswing-io/authcore/mirror"
	"github.com/glasswing-io/authcore/revocation"
)

// Engine is the session lifecycle core. Construct it through the
// Builder; a zero Engine is not usable. All methods are safe for
// concurrent use.
type Engine struct {
	config       Config
	sessionStore *revocation.Store
	rateLimiter  *rate.Limiter
	jwtManager   *jwt.Manager
	mirror       *mirror.Store
	directory    Directory
	verifier     CredentialVerifier
	flows        *flows.Service
	audit        *auditDispatcher
	metrics      *Metrics
}

// Close flushes and stops the audit dispatcher. The Engine must not be
// used after Close.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	if e.audit != nil {
		e.audit.Close()
	}
}

// AuditDropped returns the number of audit events shed because the
// dispatcher buffer was full.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

// MetricsSnapshot returns a point-in-time copy of the in-process
// metrics.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return e.metrics.Snapshot()
}

// Metrics exposes the collector for exporters.
func (e *Engine) Metrics() *Metrics {
	if e == nil {
		return nil
	}
	return e.metrics
}

// ActiveSessions returns an upper bound on the user's live refresh
// sessions.
func (e *Engine) ActiveSessions(ctx context.Context, userID string) (int, error) {
	if e == nil || e.sessionStore == nil {
		return 0, ErrEngineNotReady
	}
	count, err := e.sessionStore.ActiveSessionCount(ctx, userID)
	if err != nil {
		return 0, storeErr(err)
	}
	return count, nil
}

// Ping checks revocation store reachability and returns the observed
// latency.
func (e *Engine) Ping(ctx context.Context) (time.Duration, error) {
	if e == nil || e.sessionStore == nil {
		return 0, ErrEngineNotReady
	}
	latency, err := e.sessionStore.Ping(ctx)
	if err != nil {
		return latency, storeErr(err)
	}
	return latency, nil
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

func (e *Engine) metricObserve(id MetricID, d time.Duration) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Observe(id, d)
}

func warnf(format string, args ...any) {
	log.Printf("[authcore] "+format, args...)
}

func storeErr(err error) error {
	if errors.Is(err, revocation.ErrUnavailable) {
		return ErrStoreUnavailable
	}
	return err
}

// signInThrottle adapts the rate limiter to the sign-in flow contract:
// an active cooldown becomes a clean "not allowed" instead of an error.
type signInThrottle struct {
	limiter *rate.Limiter
}

func (t signInThrottle) CheckLogin(ctx context.Context, email, ip string) (bool, error) {
	err := t.limiter.CheckSignIn(ctx, email, ip)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, rate.ErrRateLimited) {
		return false, nil
	}
	return false, err
}

func (t signInThrottle) IncrementLogin(ctx context.Context, email, ip string) error {
	err := t.limiter.IncrementSignIn(ctx, email, ip)
	// Crossing the threshold on this very attempt is not a transport
	// failure; the next CheckLogin will report the cooldown.
	if errors.Is(err, rate.ErrRateLimited) {
		return nil
	}
	return err
}

func (t signInThrottle) ResetLogin(ctx context.Context, email, ip string) error {
	return t.limiter.ResetSignIn(ctx, email, ip)
}
