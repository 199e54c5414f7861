package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"medcred/internal/directory/models"
	"medcred/internal/directory/store"
	dErrors "medcred/pkg/domain-errors"
	"medcred/pkg/testutil"
)

type ServiceSuite struct {
	suite.Suite
	ctx   context.Context
	store *store.InMemoryStore
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.ctx = context.Background()
	st, err := store.New([]models.User{
		{ID: "u1", FirstName: "Ann", LastName: "Lee", EmployeeID: "E1"},
		{ID: "u2", FirstName: "Raj", LastName: "Patel"},
	})
	s.Require().NoError(err)
	s.store = st
}

func (s *ServiceSuite) TestInitialActive() {
	s.Run("defaults to the first listed user", func() {
		svc := NewService(s.store, "")
		s.Equal(models.UserID("u1"), svc.ActiveID())
	})

	s.Run("honors the configured user", func() {
		svc := NewService(s.store, "u2")
		s.Equal(models.UserID("u2"), svc.ActiveID())
	})
}

func (s *ServiceSuite) TestSetActive() {
	s.Run("switches to a known user", func() {
		svc := NewService(s.store, "u1")

		u, err := svc.SetActive(s.ctx, "u2")
		s.Require().NoError(err)
		s.Equal("Raj", u.FirstName)
		s.Equal(models.UserID("u2"), svc.ActiveID())
	})

	s.Run("unknown user fails and keeps previous selection", func() {
		svc := NewService(s.store, "u1")

		_, err := svc.SetActive(s.ctx, "nobody")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeUnknownUser))
		s.Equal(models.UserID("u1"), svc.ActiveID())
	})

	s.Run("concurrent writers leave a valid selection", func() {
		svc := NewService(s.store, "u1")
		res := testutil.RunConcurrent(100, func(i int) error {
			if i%2 == 0 {
				_, err := svc.SetActive(s.ctx, "u2")
				return err
			}
			_, err := svc.ActiveUser(s.ctx)
			return err
		})
		s.Equal(int32(100), res.Successes)
		s.Equal(models.UserID("u2"), svc.ActiveID())
	})

	s.Run("unknown ids under contention never clobber the selection", func() {
		svc := NewService(s.store, "u1")
		res := testutil.RunConcurrent(20, func(int) error {
			_, err := svc.SetActive(s.ctx, "nobody")
			return err
		})
		s.Equal(int32(20), res.NotFounds)
		s.Equal(models.UserID("u1"), svc.ActiveID())
	})
}

func (s *ServiceSuite) TestActiveUser() {
	s.Run("resolves the active user", func() {
		svc := NewService(s.store, "u1")
		u, err := svc.ActiveUser(s.ctx)
		s.Require().NoError(err)
		s.Equal("E1", u.EmployeeID)
	})

	s.Run("dangling selector fails explicitly", func() {
		svc := NewService(s.store, "ghost")
		_, err := svc.ActiveUser(s.ctx)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeUnknownActiveUser))
	})

	s.Run("empty directory has no active user", func() {
		empty, err := store.New(nil)
		s.Require().NoError(err)
		svc := NewService(empty, "")
		_, err = svc.ActiveUser(s.ctx)
		s.True(dErrors.HasCode(err, dErrors.CodeUnknownActiveUser))
	})
}

func (s *ServiceSuite) TestResolve() {
	svc := NewService(s.store, "u1")

	s.Run("explicit id wins over the selector", func() {
		u, err := svc.Resolve(s.ctx, "u2")
		s.Require().NoError(err)
		s.Equal(models.UserID("u2"), u.ID)
	})

	s.Run("empty id falls back to the selector", func() {
		u, err := svc.Resolve(s.ctx, "")
		s.Require().NoError(err)
		s.Equal(models.UserID("u1"), u.ID)
	})

	s.Run("explicit unknown id is an unknown user", func() {
		_, err := svc.Resolve(s.ctx, "nobody")
		s.True(dErrors.HasCode(err, dErrors.CodeUnknownUser))
	})
}

func (s *ServiceSuite) TestList() {
	svc := NewService(s.store, "")
	list := svc.List(s.ctx)
	s.Require().Len(list, 2)
	s.Equal(models.UserSummary{ID: "u1", FirstName: "Ann", LastName: "Lee"}, list[0])
}
