package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"medcred/internal/directory/models"
	"medcred/pkg/platform/httputil"
	"medcred/pkg/requestcontext"
)

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks Service

// Service defines the directory operations used by the handler.
type Service interface {
	SetActive(ctx context.Context, id models.UserID) (models.User, error)
	List(ctx context.Context) []models.UserSummary
	ActiveID() models.UserID
}

// Handler exposes the demo user directory.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a directory handler.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the read-only directory endpoints.
func (h *Handler) Register(r chi.Router) {
	r.Get("/api/users", h.HandleList)
}

// RegisterAdmin mounts the active-user switch. Callers wrap r with the
// admin guard when one is configured.
func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Post("/api/setUser/{id}", h.HandleSetActive)
}

// ActiveUserResponse is returned after switching the active user.
type ActiveUserResponse struct {
	ActiveUserID models.UserID      `json:"activeUserId"`
	User         models.UserSummary `json:"user"`
}

// UserListResponse lists directory entries and the current selection.
type UserListResponse struct {
	ActiveUserID models.UserID        `json:"activeUserId"`
	Users        []models.UserSummary `json:"users"`
}

// HandleSetActive switches the process-wide active user.
func (h *Handler) HandleSetActive(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	id := models.UserID(chi.URLParam(r, "id"))

	user, err := h.service.SetActive(ctx, id)
	if err != nil {
		h.logger.WarnContext(ctx, "failed to set active user",
			"error", err,
			"user_id", id,
			"request_id", requestID,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, ActiveUserResponse{
		ActiveUserID: user.ID,
		User:         user.Summary(),
	})
}

// HandleList returns every directory user.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, UserListResponse{
		ActiveUserID: h.service.ActiveID(),
		Users:        h.service.List(r.Context()),
	})
}
