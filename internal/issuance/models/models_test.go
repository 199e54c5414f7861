package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSessionApply(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	t.Run("moves through the issuance lifecycle", func(t *testing.T) {
		s := &Session{State: "st", Status: StatusPending}

		assert.True(t, s.Apply(CallbackEvent{RequestStatus: "request_retrieved", RequestID: "r1"}, now))
		assert.Equal(t, StatusRequestRetrieved, s.Status)
		assert.Equal(t, "r1", s.RequestID)

		assert.True(t, s.Apply(CallbackEvent{RequestStatus: "issuance_successful"}, now))
		assert.Equal(t, StatusIssuanceSuccessful, s.Status)
		assert.Equal(t, "r1", s.RequestID)
		assert.Equal(t, now, s.UpdatedAt)
	})

	t.Run("records callback errors", func(t *testing.T) {
		s := &Session{Status: StatusRequestRetrieved}
		ok := s.Apply(CallbackEvent{
			RequestStatus: "issuance_error",
			Error:         &CallbackError{Code: "issuance_service_error", Message: "wallet declined"},
		}, now)

		assert.True(t, ok)
		assert.Equal(t, "wallet declined", s.Error.Message)
	})

	t.Run("ignores callbacks after a terminal status", func(t *testing.T) {
		s := &Session{Status: StatusIssuanceError}
		assert.False(t, s.Apply(CallbackEvent{RequestStatus: "issuance_successful"}, now))
		assert.Equal(t, StatusIssuanceError, s.Status)
	})

	t.Run("ignores unknown statuses", func(t *testing.T) {
		s := &Session{Status: StatusPending}
		assert.False(t, s.Apply(CallbackEvent{RequestStatus: "presentation_verified"}, now))
		assert.Equal(t, StatusPending, s.Status)
	})
}
