package internaldefs

import (
	authcore "github.com/glasswing-io/authcore"
)

// CounterDef binds a core metric ID to its exported name.
type CounterDef struct {
	ID   authcore.MetricID
	Name string
	Help string
}

// HistogramDef binds a core histogram ID to its exported name.
type HistogramDef struct {
	ID   authcore.MetricID
	Name string
	Help string
}

var CounterDefs = []CounterDef{
	{ID: authcore.MetricSignInSuccess, Name: "authcore_signin_success_total", Help: "Successful sign-in attempts."},
	{ID: authcore.MetricSignInFailure, Name: "authcore_signin_failure_total", Help: "Failed sign-in attempts."},
	{ID: authcore.MetricSignInRateLimited, Name: "authcore_signin_rate_limited_total", Help: "Rate-limited sign-in attempts."},
	{ID: authcore.MetricIssueSuccess, Name: "authcore_issue_success_total", Help: "Successfully issued token pairs."},
	{ID: authcore.MetricIssueFailure, Name: "authcore_issue_failure_total", Help: "Failed issuance attempts."},
	{ID: authcore.MetricRefreshSuccess, Name: "authcore_refresh_success_total", Help: "Successful refresh rotations."},
	{ID: authcore.MetricRefreshFailure, Name: "authcore_refresh_failure_total", Help: "Failed refresh attempts."},
	{ID: authcore.MetricRefreshReuseDetected, Name: "authcore_refresh_reuse_detected_total", Help: "Detected refresh token reuses."},
	{ID: authcore.MetricRefreshRateLimited, Name: "authcore_refresh_rate_limited_total", Help: "Rate-limited refresh attempts."},
	{ID: authcore.MetricValidateSuccess, Name: "authcore_validate_success_total", Help: "Successful access token validations."},
	{ID: authcore.MetricValidateFailure, Name: "authcore_validate_failure_total", Help: "Failed access token validations."},
	{ID: authcore.MetricTokenRevokedHit, Name: "authcore_token_revoked_hit_total", Help: "Session-bound tokens rejected because their session died."},
	{ID: authcore.MetricRevoke, Name: "authcore_revoke_total", Help: "Single-session revocations."},
	{ID: authcore.MetricRevokeAll, Name: "authcore_revoke_all_total", Help: "Bulk per-user revocations."},
	{ID: authcore.MetricStoreUnavailable, Name: "authcore_store_unavailable_total", Help: "Operations failed closed on revocation store outage."},
}

var HistogramDefs = []HistogramDef{
	{ID: authcore.MetricValidateLatency, Name: "authcore_validate_latency_seconds", Help: "Validate latency histogram."},
}

var HistogramBounds = []string{
	"0.005",
	"0.01",
	"0.025",
	"0.05",
	"0.1",
	"0.25",
	"0.5",
	"+Inf",
}

var HistogramBoundSuffix = []string{
	"0_005",
	"0_01",
	"0_025",
	"0_05",
	"0_1",
	"0_25",
	"0_5",
	"inf",
}

// NormalizeBuckets pads or truncates a raw snapshot slice to the fixed
// bucket count.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets converts per-bucket counts to the cumulative form
// both exposition formats expect.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
