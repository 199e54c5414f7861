// Package store keeps outstanding issuance sessions keyed by the callback
// correlation state.
package store

import (
	"context"

	"medcred/internal/issuance/models"
	dErrors "medcred/pkg/domain-errors"
)

// ErrNotFound is returned when no live session carries the state.
var ErrNotFound = dErrors.New(dErrors.CodeNotFound, "issuance session not found")

// Store persists sessions for their TTL.
type Store interface {
	Save(ctx context.Context, session models.Session) error
	Find(ctx context.Context, state string) (models.Session, error)
	// Update applies fn to the stored session atomically and keeps its TTL.
	Update(ctx context.Context, state string, fn func(*models.Session) error) (models.Session, error)
}
