// Package service composes token acquisition, user resolution, claim
// building and the issuance call into one request flow, and correlates the
// callbacks that follow.
package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	directory "medcred/internal/directory/models"
	"medcred/internal/issuance/claims"
	"medcred/internal/issuance/client"
	"medcred/internal/issuance/events"
	"medcred/internal/issuance/models"
	"medcred/internal/issuance/store"
	"medcred/internal/issuance/token"
	"medcred/internal/platform/config"
	"medcred/internal/platform/metrics"
	"medcred/internal/platform/tracer"
	dErrors "medcred/pkg/domain-errors"
	"medcred/pkg/requestcontext"
)

// CallbackKeyHeader carries the shared secret on callbacks.
const CallbackKeyHeader = "api-key"

// TokenProvider yields bearer tokens and can drop a cached one the
// issuance service rejected.
type TokenProvider interface {
	Token(ctx context.Context) (token.AccessToken, error)
	Invalidate()
}

// Directory resolves the credential subject. An empty id means the active user.
type Directory interface {
	Resolve(ctx context.Context, id directory.UserID) (directory.User, error)
}

// IssuanceClient posts payloads to the issuance API.
type IssuanceClient interface {
	CreateIssuanceRequest(ctx context.Context, bearer string, payload models.Payload) (models.Response, error)
}

// Store persists issuance sessions.
// Error Contract:
// - Find and Update return store.ErrNotFound when no live session exists
type Store interface {
	Save(ctx context.Context, session models.Session) error
	Find(ctx context.Context, state string) (models.Session, error)
	Update(ctx context.Context, state string, fn func(*models.Session) error) (models.Session, error)
}

type Option func(*Service)

func WithStore(st Store) Option {
	return func(s *Service) {
		s.store = st
	}
}

func WithPublisher(p events.Publisher) Option {
	return func(s *Service) {
		s.publisher = p
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithTracer(t tracer.Tracer) Option {
	return func(s *Service) {
		s.tracer = t
	}
}

// WithStateGenerator replaces the random correlation state source.
func WithStateGenerator(fn func() string) Option {
	return func(s *Service) {
		s.newState = fn
	}
}

// Service runs issuance requests and callbacks.
type Service struct {
	cfg       config.IssuanceConfig
	tokens    TokenProvider
	directory Directory
	client    IssuanceClient
	store     Store
	publisher events.Publisher
	logger    *slog.Logger
	metrics   *metrics.Metrics
	tracer    tracer.Tracer
	newState  func() string
}

// NewService wires the requester. Sessions default to an in-memory store
// and callbacks are not forwarded unless a publisher is configured.
func NewService(cfg config.IssuanceConfig, tokens TokenProvider, dir Directory, c IssuanceClient, opts ...Option) *Service {
	svc := &Service{
		cfg:       cfg,
		tokens:    tokens,
		directory: dir,
		client:    c,
		publisher: events.NoopPublisher{},
		tracer:    tracer.NewNoop(),
		newState:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(svc)
	}
	if svc.store == nil {
		svc.store = store.NewInMemory(cfg.SessionTTL)
	}
	if svc.logger == nil {
		svc.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return svc
}

// RequestIssuance asks the issuance service to issue the described credential
// to the selected user. The upstream body is returned unchanged.
func (s *Service) RequestIssuance(ctx context.Context, req models.IssueRequest) (models.Response, error) {
	credType := req.Descriptor.Type.String()
	ctx, span := s.tracer.Start(ctx, tracer.SpanIssue,
		tracer.String(tracer.AttrCredentialType, credType),
	)

	s.logger.InfoContext(ctx, "issuance requested",
		"credential_type", credType,
		"requested_user_id", req.UserID,
		"client_platform", req.Client.Platform,
	)

	resp, err := s.requestIssuance(ctx, req, span)
	span.End(err)

	if err != nil {
		code := dErrors.CodeOf(err)
		s.metrics.RecordIssuance(credType, metrics.OutcomeFailure, string(code))
		s.logger.ErrorContext(ctx, "issuance request failed",
			"credential_type", credType,
			"code", code,
			"error", err,
		)
		return models.Response{}, err
	}

	s.metrics.RecordIssuance(credType, metrics.OutcomeSuccess, "")
	s.logger.InfoContext(ctx, "issuance request accepted",
		"credential_type", credType,
		"status_code", resp.StatusCode,
		"request_id", resp.RequestID,
		"state", resp.State,
	)
	return resp, nil
}

func (s *Service) requestIssuance(ctx context.Context, req models.IssueRequest, span tracer.Span) (models.Response, error) {
	if s.cfg.AuthorityDID == "" {
		return models.Response{}, dErrors.New(dErrors.CodeConfiguration, "AUTHORITY_DID is not configured")
	}

	tok, err := s.tokens.Token(ctx)
	if err != nil {
		return models.Response{}, err
	}

	user, err := s.directory.Resolve(ctx, req.UserID)
	if err != nil {
		return models.Response{}, err
	}
	span.SetAttributes(tracer.String(tracer.AttrUserHash, tracer.HashUserID(user.ID.String())))

	credClaims := claims.Build(req.Descriptor.Type, user)
	if len(credClaims) == 0 {
		s.logger.WarnContext(ctx, "no claims for credential type",
			"credential_type", req.Descriptor.Type,
		)
	}
	s.logger.DebugContext(ctx, "issuance subject resolved",
		"user_id", user.ID,
		"claim_keys", credClaims.Keys(),
	)

	payload := s.buildPayload(req.Descriptor, credClaims)
	span.SetAttributes(tracer.String(tracer.AttrState, payload.Callback.State))

	resp, err := s.client.CreateIssuanceRequest(ctx, tok.Value, payload)
	if err != nil {
		var statusErr *client.StatusError
		if errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusUnauthorized {
			s.tokens.Invalidate()
		}
		return models.Response{}, err
	}
	resp.State = payload.Callback.State

	s.recordSession(ctx, req, user.ID, resp)
	return resp, nil
}

func (s *Service) buildPayload(d models.Descriptor, credClaims models.Claims) models.Payload {
	state := s.cfg.CallbackState
	if state == "" {
		state = s.newState()
	}

	payload := models.Payload{
		Authority: s.cfg.AuthorityDID,
		Type:      d.Type,
		Manifest:  d.Manifest,
		Callback: models.Callback{
			URL:   s.cfg.CallbackURL,
			State: state,
		},
		Claims: credClaims,
	}
	if s.cfg.CallbackSecret != "" {
		payload.Callback.Headers = map[string]string{CallbackKeyHeader: s.cfg.CallbackSecret}
	}
	if s.cfg.RegistrationName != "" {
		payload.Registration = &models.Registration{ClientName: s.cfg.RegistrationName}
	}
	return payload
}

// recordSession stores the pending session. Failures are logged only; the
// credential offer is already live at the issuance service.
func (s *Service) recordSession(ctx context.Context, req models.IssueRequest, userID directory.UserID, resp models.Response) {
	now := requestcontext.Now(ctx)
	session := models.Session{
		State:     resp.State,
		RequestID: resp.RequestID,
		Type:      req.Descriptor.Type,
		UserID:    userID,
		Status:    models.StatusPending,
		Client:    req.Client,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.Save(ctx, session); err != nil {
		s.logger.WarnContext(ctx, "failed to record issuance session",
			"state", resp.State,
			"error", err,
		)
	}
}

// AuthenticateCallback reports whether apiKey matches the configured
// callback secret. Without a secret every callback is accepted.
func (s *Service) AuthenticateCallback(apiKey string) bool {
	if s.cfg.CallbackSecret == "" {
		return true
	}
	return subtle.ConstantTimeCompare([]byte(apiKey), []byte(s.cfg.CallbackSecret)) == 1
}

// RecordDroppedCallback counts a callback rejected before processing.
func (s *Service) RecordDroppedCallback() {
	s.metrics.RecordCallbackDropped()
}

var errIgnored = errors.New("callback ignored")

// HandleCallback transitions the session named by ev.State and forwards the
// event. Callbacks for unknown or finished sessions are still forwarded.
// Only unexpected store failures are returned.
func (s *Service) HandleCallback(ctx context.Context, ev models.CallbackEvent) error {
	ctx, span := s.tracer.Start(ctx, tracer.SpanCallback,
		tracer.String(tracer.AttrState, ev.State),
		tracer.String(tracer.AttrCallbackStatus, ev.RequestStatus),
	)

	status := ev.RequestStatus
	if _, ok := models.ParseSessionStatus(status); !ok {
		status = "unknown"
	}
	s.metrics.RecordCallback(status)

	s.logger.InfoContext(ctx, "issuance callback received",
		"state", ev.State,
		"request_id", ev.RequestID,
		"request_status", ev.RequestStatus,
	)

	err := s.updateSession(ctx, ev)
	if pubErr := s.publisher.Publish(ctx, ev); pubErr != nil {
		s.logger.WarnContext(ctx, "failed to publish callback event",
			"state", ev.State,
			"error", pubErr,
		)
	}
	span.End(err)
	return err
}

func (s *Service) updateSession(ctx context.Context, ev models.CallbackEvent) error {
	if ev.State == "" {
		s.logger.WarnContext(ctx, "callback without state")
		return nil
	}

	ctx, span := s.tracer.Start(ctx, tracer.SpanSessionUpdate, tracer.String(tracer.AttrState, ev.State))
	now := requestcontext.Now(ctx)
	session, err := s.store.Update(ctx, ev.State, func(sess *models.Session) error {
		if !sess.Apply(ev, now) {
			return errIgnored
		}
		return nil
	})
	switch {
	case err == nil:
		span.End(nil)
		s.logger.InfoContext(ctx, "issuance session updated",
			"state", session.State,
			"status", session.Status,
		)
		return nil
	case errors.Is(err, errIgnored):
		span.End(nil)
		s.logger.DebugContext(ctx, "callback ignored for session", "state", ev.State)
		return nil
	case errors.Is(err, store.ErrNotFound):
		span.End(nil)
		s.logger.InfoContext(ctx, "callback for unknown session", "state", ev.State)
		return nil
	default:
		span.End(err)
		return dErrors.Wrap(err, dErrors.CodeInternal, "update issuance session")
	}
}

// Session returns the session tracked under state.
func (s *Service) Session(ctx context.Context, state string) (models.Session, error) {
	return s.store.Find(ctx, state)
}
