package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"medcred/internal/directory/models"
	"medcred/internal/directory/store"
	"medcred/internal/platform/metrics"
	dErrors "medcred/pkg/domain-errors"
)

// Store is the read-only user table the service resolves against.
type Store interface {
	FindByID(id models.UserID) (models.User, error)
	List() []models.User
}

// Option configures the directory service.
type Option func(*Service)

// WithLogger configures a logger for the service.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithMetrics records active-user switches.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// Service resolves demo users and owns the process-wide active-user selector.
// The selector is guarded by a mutex; last writer wins.
type Service struct {
	store   Store
	logger  *slog.Logger
	metrics *metrics.Metrics

	mu       sync.RWMutex
	activeID models.UserID
}

// NewService creates a directory service. When initialActive is empty the
// first listed user becomes active.
func NewService(st Store, initialActive models.UserID, opts ...Option) *Service {
	svc := &Service{store: st, activeID: initialActive}
	for _, opt := range opts {
		opt(svc)
	}
	if svc.activeID.IsNil() {
		if users := st.List(); len(users) > 0 {
			svc.activeID = users[0].ID
		}
	}
	return svc
}

// Lookup returns the user with the given ID or an unknown-user error.
func (s *Service) Lookup(_ context.Context, id models.UserID) (models.User, error) {
	u, err := s.store.FindByID(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return models.User{}, dErrors.Newf(dErrors.CodeUnknownUser, "unknown user %q", id)
		}
		return models.User{}, dErrors.Wrap(err, dErrors.CodeInternal, "user lookup failed")
	}
	return u, nil
}

// List returns the listing view of every directory user.
func (s *Service) List(_ context.Context) []models.UserSummary {
	users := s.store.List()
	out := make([]models.UserSummary, 0, len(users))
	for _, u := range users {
		out = append(out, u.Summary())
	}
	return out
}

// SetActive switches the active user. An unknown ID fails with an
// unknown-user error and leaves the previous selection in place.
func (s *Service) SetActive(ctx context.Context, id models.UserID) (models.User, error) {
	u, err := s.Lookup(ctx, id)
	if err != nil {
		return models.User{}, err
	}

	s.mu.Lock()
	previous := s.activeID
	s.activeID = u.ID
	s.mu.Unlock()

	s.metrics.RecordActiveUserChange()
	if s.logger != nil {
		s.logger.InfoContext(ctx, "active user changed",
			"previous_user_id", previous,
			"user_id", u.ID,
		)
	}
	return u, nil
}

// ActiveID returns the currently selected user ID.
func (s *Service) ActiveID() models.UserID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.activeID
}

// ActiveUser resolves the active selector. A selector that names no
// directory entry fails explicitly instead of yielding an empty user.
func (s *Service) ActiveUser(ctx context.Context) (models.User, error) {
	id := s.ActiveID()
	if id.IsNil() {
		return models.User{}, dErrors.New(dErrors.CodeUnknownActiveUser, "no active user selected")
	}
	u, err := s.store.FindByID(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return models.User{}, dErrors.Newf(dErrors.CodeUnknownActiveUser, "active user %q is not in the directory", id)
		}
		return models.User{}, dErrors.Wrap(err, dErrors.CodeInternal, "active user lookup failed")
	}
	return u, nil
}

// Resolve returns the explicitly requested user, or the active user when
// requested is empty.
func (s *Service) Resolve(ctx context.Context, requested models.UserID) (models.User, error) {
	if requested.IsNil() {
		return s.ActiveUser(ctx)
	}
	return s.Lookup(ctx, requested)
}
