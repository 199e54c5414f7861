package token

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/golang-jwt/jwt/v5"

	"medcred/internal/platform/config"
	"medcred/internal/platform/metrics"
	"medcred/internal/platform/tracer"
	dErrors "medcred/pkg/domain-errors"
)

const (
	identityHeader  = "X-IDENTITY-HEADER"
	maxResponseSize = 1 << 20
)

// ManagedIdentityProvider fetches a token from the identity endpoint on
// every call. Wrap it in a CachingProvider to reuse tokens.
type ManagedIdentityProvider struct {
	cfg     config.IdentityConfig
	http    HTTPDoer
	now     func() time.Time
	logger  *slog.Logger
	metrics *metrics.Metrics
	tracer  tracer.Tracer
}

type Option func(*ManagedIdentityProvider)

func WithHTTPClient(c HTTPDoer) Option {
	return func(p *ManagedIdentityProvider) { p.http = c }
}

func WithClock(now func() time.Time) Option {
	return func(p *ManagedIdentityProvider) { p.now = now }
}

func WithLogger(l *slog.Logger) Option {
	return func(p *ManagedIdentityProvider) { p.logger = l }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(p *ManagedIdentityProvider) { p.metrics = m }
}

func WithTracer(t tracer.Tracer) Option {
	return func(p *ManagedIdentityProvider) { p.tracer = t }
}

// NewManagedIdentityProvider builds a provider. Missing endpoint settings are
// reported per call, not here.
func NewManagedIdentityProvider(cfg config.IdentityConfig, opts ...Option) *ManagedIdentityProvider {
	if cfg.Resource == "" {
		cfg.Resource = config.VerifiedIDResource
	}
	if cfg.APIVersion == "" {
		cfg.APIVersion = "2019-08-01"
	}
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	p := &ManagedIdentityProvider{
		cfg:    cfg,
		http:   &http.Client{},
		now:    time.Now,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		tracer: tracer.NewNoop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

type tokenResponse struct {
	AccessToken string    `json:"access_token"`
	ExpiresOn   flexInt64 `json:"expires_on"`
	ExpiresIn   flexInt64 `json:"expires_in"`
}

// flexInt64 accepts numbers and numeric strings; IMDS and App Service
// disagree on which they send.
type flexInt64 int64

func (f *flexInt64) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return fmt.Errorf("expected integer, got %s", b)
	}
	*f = flexInt64(n)
	return nil
}

// Token performs one logical acquisition, retrying transient failures.
func (p *ManagedIdentityProvider) Token(ctx context.Context) (AccessToken, error) {
	if p.cfg.Endpoint == "" {
		return AccessToken{}, dErrors.New(dErrors.CodeConfiguration, "identity endpoint is not configured (IDENTITY_ENDPOINT)")
	}
	if p.cfg.Header == "" {
		return AccessToken{}, dErrors.New(dErrors.CodeConfiguration, "identity secret is not configured (IDENTITY_HEADER)")
	}
	endpoint, err := p.requestURL()
	if err != nil {
		return AccessToken{}, err
	}

	ctx, span := p.tracer.Start(ctx, tracer.SpanTokenAcquire)
	if p.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.cfg.Timeout)
		defer cancel()
	}

	var (
		tok     AccessToken
		attempt int
	)
	operation := func() error {
		attempt++
		start := p.now()
		var opErr error
		tok, opErr = p.fetch(ctx, endpoint)
		outcome := metrics.OutcomeSuccess
		if opErr != nil {
			outcome = metrics.OutcomeFailure
			p.logger.WarnContext(ctx, "identity token attempt failed",
				"attempt", attempt,
				"error", opErr,
			)
		}
		p.metrics.RecordTokenFetch(outcome)
		p.metrics.ObserveUpstream("identity", outcome, p.now().Sub(start))
		return opErr
	}

	err = backoff.Retry(operation, backoff.WithContext(p.backoff(), ctx))
	if err != nil {
		err = p.classify(ctx, err)
	}
	span.SetAttributes(tracer.Int(tracer.AttrAttempt, attempt))
	span.End(err)
	if err != nil {
		return AccessToken{}, err
	}
	return tok, nil
}

func (p *ManagedIdentityProvider) backoff() backoff.BackOff {
	eb := backoff.NewExponentialBackOff()
	if p.cfg.InitialDelay > 0 {
		eb.InitialInterval = p.cfg.InitialDelay
	}
	eb.MaxElapsedTime = 0
	return backoff.WithMaxRetries(eb, uint64(p.cfg.MaxAttempts-1)) //nolint:gosec // MaxAttempts >= 1
}

// classify maps context expiry onto the timeout kind; everything else
// already carries its domain code.
func (p *ManagedIdentityProvider) classify(ctx context.Context, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return &dErrors.Error{Code: dErrors.CodeUpstreamTimeout, Message: "identity endpoint timed out", Err: err}
	}
	if errors.Is(err, context.Canceled) {
		return &dErrors.Error{Code: dErrors.CodeUpstreamAuth, Message: "token request canceled", Err: err}
	}
	return err
}

func (p *ManagedIdentityProvider) requestURL() (string, error) {
	u, err := url.Parse(p.cfg.Endpoint)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "", dErrors.Newf(dErrors.CodeConfiguration, "identity endpoint %q is not a valid URL", p.cfg.Endpoint)
	}
	q := u.Query()
	q.Set("resource", p.cfg.Resource)
	q.Set("api-version", p.cfg.APIVersion)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// fetch performs one HTTP round trip. Errors that must not be retried are
// wrapped in backoff.Permanent.
func (p *ManagedIdentityProvider) fetch(ctx context.Context, endpoint string) (AccessToken, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return AccessToken{}, backoff.Permanent(dErrors.Wrap(err, dErrors.CodeInternal, "build token request"))
	}
	req.Header.Set(identityHeader, p.cfg.Header)
	req.Header.Set("Metadata", "true")

	resp, err := p.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return AccessToken{}, backoff.Permanent(ctx.Err())
		}
		return AccessToken{}, &dErrors.Error{Code: dErrors.CodeUpstreamAuth, Message: "identity endpoint unreachable", Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return AccessToken{}, &dErrors.Error{Code: dErrors.CodeUpstreamAuth, Message: "read identity response", Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		upstreamErr := dErrors.Newf(dErrors.CodeUpstreamAuth,
			"identity endpoint returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
		if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
			return AccessToken{}, upstreamErr
		}
		return AccessToken{}, backoff.Permanent(upstreamErr)
	}

	var parsed tokenResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return AccessToken{}, backoff.Permanent(&dErrors.Error{
			Code: dErrors.CodeMalformedResponse, Message: "identity endpoint returned invalid JSON", Err: err,
		})
	}
	if parsed.AccessToken == "" {
		return AccessToken{}, backoff.Permanent(dErrors.New(dErrors.CodeMalformedResponse, "identity response has no access_token"))
	}

	return AccessToken{Value: parsed.AccessToken, ExpiresAt: p.expiry(parsed)}, nil
}

func (p *ManagedIdentityProvider) expiry(r tokenResponse) time.Time {
	now := p.now()
	switch {
	case r.ExpiresOn > 0:
		return time.Unix(int64(r.ExpiresOn), 0)
	case r.ExpiresIn > 0:
		return now.Add(time.Duration(r.ExpiresIn) * time.Second)
	}
	if exp, ok := jwtExpiry(r.AccessToken); ok {
		return exp
	}
	return now.Add(DefaultLifetime)
}

// jwtExpiry reads the exp claim without verifying the signature; the token
// is only inspected for scheduling, never trusted.
func jwtExpiry(raw string) (time.Time, bool) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err != nil {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}
