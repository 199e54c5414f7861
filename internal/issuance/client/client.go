// Package client talks to the Verified ID issuance API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"medcred/internal/issuance/models"
	"medcred/internal/platform/config"
	"medcred/internal/platform/metrics"
	"medcred/internal/platform/tracer"
	dErrors "medcred/pkg/domain-errors"
)

const maxResponseSize = 1 << 20

// HTTPDoer is the subset of *http.Client the client needs.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// StatusError carries the upstream status of a rejected issuance request.
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("issuance service status %d", e.StatusCode)
}

// Client posts issuance requests on behalf of one tenant.
type Client struct {
	baseURL  string
	tenantID string
	timeout  time.Duration
	http     HTTPDoer
	logger   *slog.Logger
	metrics  *metrics.Metrics
	tracer   tracer.Tracer
}

type Option func(*Client)

// WithHTTPClient sets a custom HTTP client (for testing).
func WithHTTPClient(c HTTPDoer) Option {
	return func(cl *Client) { cl.http = c }
}

func WithLogger(l *slog.Logger) Option {
	return func(cl *Client) { cl.logger = l }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(cl *Client) { cl.metrics = m }
}

func WithTracer(t tracer.Tracer) Option {
	return func(cl *Client) { cl.tracer = t }
}

// New creates an issuance API client.
func New(cfg config.IssuanceConfig, opts ...Option) *Client {
	c := &Client{
		baseURL:  strings.TrimRight(cfg.APIBase, "/"),
		tenantID: cfg.TenantID,
		timeout:  cfg.Timeout,
		http:     &http.Client{},
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		tracer:   tracer.NewNoop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Endpoint returns the issuance request URL for the configured tenant.
func (c *Client) Endpoint() (string, error) {
	if c.tenantID == "" {
		return "", dErrors.New(dErrors.CodeConfiguration, "tenant is not configured (TENANT_ID)")
	}
	if c.baseURL == "" {
		return "", dErrors.New(dErrors.CodeConfiguration, "issuance API base is not configured (ISSUANCE_API_BASE)")
	}
	return c.baseURL + "/v1.0/" + url.PathEscape(c.tenantID) + "/verifiableCredentials/issuanceRequests", nil
}

// CreateIssuanceRequest posts payload with the bearer token. On success the
// upstream body is returned untouched.
func (c *Client) CreateIssuanceRequest(ctx context.Context, bearer string, payload models.Payload) (models.Response, error) {
	endpoint, err := c.Endpoint()
	if err != nil {
		return models.Response{}, err
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return models.Response{}, dErrors.Wrap(err, dErrors.CodeInternal, "encode issuance payload")
	}

	ctx, span := c.tracer.Start(ctx, tracer.SpanIssuanceCall,
		tracer.String(tracer.AttrCredentialType, payload.Type.String()),
		tracer.String(tracer.AttrState, payload.Callback.State),
	)
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	start := time.Now()
	resp, err := c.do(ctx, endpoint, bearer, body)
	outcome := metrics.OutcomeSuccess
	if err != nil {
		outcome = metrics.OutcomeFailure
	} else {
		span.SetAttributes(
			tracer.Int(tracer.AttrStatusCode, resp.StatusCode),
			tracer.String(tracer.AttrRequestID, resp.RequestID),
		)
	}
	c.metrics.ObserveUpstream("issuance", outcome, time.Since(start))
	span.End(err)
	return resp, err
}

func (c *Client) do(ctx context.Context, endpoint, bearer string, body []byte) (models.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return models.Response{}, dErrors.Wrap(err, dErrors.CodeInternal, "build issuance request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+bearer)

	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return models.Response{}, &dErrors.Error{Code: dErrors.CodeUpstreamTimeout, Message: "issuance service timed out", Err: err}
		}
		return models.Response{}, &dErrors.Error{Code: dErrors.CodeUpstreamIssuance, Message: "issuance service unreachable", Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return models.Response{}, &dErrors.Error{Code: dErrors.CodeUpstreamTimeout, Message: "issuance service timed out", Err: err}
		}
		return models.Response{}, &dErrors.Error{Code: dErrors.CodeUpstreamIssuance, Message: "read issuance response", Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.WarnContext(ctx, "issuance service rejected request",
			"status", resp.StatusCode,
		)
		return models.Response{}, &dErrors.Error{
			Code:    dErrors.CodeUpstreamIssuance,
			Message: fmt.Sprintf("issuance service returned %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody))),
			Err:     &StatusError{StatusCode: resp.StatusCode},
		}
	}

	if !json.Valid(respBody) {
		return models.Response{}, dErrors.New(dErrors.CodeMalformedResponse, "issuance service returned a non-JSON body")
	}
	var parsed struct {
		RequestID string `json:"requestId"`
	}
	_ = json.Unmarshal(respBody, &parsed) //nolint:errcheck // requestId is informational

	return models.Response{
		Body:       respBody,
		StatusCode: resp.StatusCode,
		RequestID:  parsed.RequestID,
	}, nil
}
