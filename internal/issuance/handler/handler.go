package handler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	directory "medcred/internal/directory/models"
	"medcred/internal/issuance/catalog"
	"medcred/internal/issuance/models"
	dErrors "medcred/pkg/domain-errors"
	"medcred/pkg/platform/httputil"
	"medcred/pkg/requestcontext"
	"medcred/pkg/validation"
)

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks Service

// callbackKeyHeader carries the shared callback secret.
const callbackKeyHeader = "api-key"

const maxCallbackBytes = 1 << 20

// StateHeader exposes the callback state of a new issuance request so
// callers can poll its session.
const StateHeader = "X-Issuance-State"

// Service defines the issuance operations used by the handler.
type Service interface {
	RequestIssuance(ctx context.Context, req models.IssueRequest) (models.Response, error)
	HandleCallback(ctx context.Context, ev models.CallbackEvent) error
	Session(ctx context.Context, state string) (models.Session, error)
	AuthenticateCallback(apiKey string) bool
	RecordDroppedCallback()
}

// Handler serves the issuance, callback and session endpoints.
type Handler struct {
	service Service
	catalog *catalog.Catalog
	logger  *slog.Logger
}

// New constructs an issuance handler over the credential catalog.
func New(service Service, cat *catalog.Catalog, logger *slog.Logger) *Handler {
	return &Handler{service: service, catalog: cat, logger: logger}
}

// Register mounts the issuance routes.
func (h *Handler) Register(r chi.Router) {
	r.Get("/api/issue/{credential}", h.HandleIssue)
	r.Post("/api/issue/{credential}", h.HandleIssue)
	r.Post("/api/callback", h.HandleCallback)
	r.Get("/api/issuance/{state}", h.HandleSession)
}

// IssueRequest optionally names the subject of the credential.
type IssueRequest struct {
	UserID string `json:"userId" validate:"max=64,excludesall=/?#"`
}

func (r *IssueRequest) Normalize() {
	r.UserID = strings.TrimSpace(r.UserID)
}

func (r *IssueRequest) Validate() error {
	return validation.Validate(r)
}

// HandleIssue starts an issuance for the credential named in the path.
// GET takes ?userId=, POST an optional {"userId": ...} body; without either
// the active user is the subject.
func (h *Handler) HandleIssue(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	suffix := chi.URLParam(r, "credential")

	descriptor, ok := h.catalog.Lookup(suffix)
	if !ok {
		httputil.WriteError(w, dErrors.Newf(dErrors.CodeNotFound, "unknown credential %q", suffix))
		return
	}

	req, ok := httputil.DecodeOptionalJSON[IssueRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	if req.UserID == "" {
		req.UserID = r.URL.Query().Get("userId")
		if err := httputil.PrepareRequest(req); err != nil {
			httputil.WriteError(w, err)
			return
		}
	}

	resp, err := h.service.RequestIssuance(ctx, models.IssueRequest{
		Descriptor: descriptor,
		UserID:     directory.UserID(req.UserID),
		Client: models.ClientInfo{
			Platform:  requestcontext.ClientPlatform(ctx),
			UserAgent: requestcontext.UserAgent(ctx),
		},
	})
	if err != nil {
		h.logger.WarnContext(ctx, "issuance failed",
			"error", err,
			"credential", suffix,
			"request_id", requestID,
		)
		httputil.WriteError(w, err)
		return
	}

	if resp.State != "" {
		w.Header().Set(StateHeader, resp.State)
	}
	httputil.WriteRawJSON(w, http.StatusOK, resp.Body)
}

// HandleCallback acknowledges every notification. Unauthenticated or
// undecodable bodies are logged and dropped.
func (h *Handler) HandleCallback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	defer w.WriteHeader(http.StatusOK)

	if !h.service.AuthenticateCallback(r.Header.Get(callbackKeyHeader)) {
		h.service.RecordDroppedCallback()
		h.logger.WarnContext(ctx, "callback rejected: api-key mismatch",
			"request_id", requestID,
		)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxCallbackBytes))
	if err != nil {
		h.logger.WarnContext(ctx, "failed to read callback body", "error", err, "request_id", requestID)
		return
	}

	var ev models.CallbackEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		h.service.RecordDroppedCallback()
		h.logger.WarnContext(ctx, "callback body is not an issuance event",
			"error", err,
			"request_id", requestID,
		)
		return
	}
	ev.Raw = body

	if err := h.service.HandleCallback(ctx, ev); err != nil {
		h.logger.ErrorContext(ctx, "failed to process callback",
			"error", err,
			"state", ev.State,
			"request_id", requestID,
		)
	}
}

// HandleSession returns the issuance session tracked under state.
func (h *Handler) HandleSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	session, err := h.service.Session(ctx, chi.URLParam(r, "state"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, session)
}
