//go:build integration

package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"medcred/internal/issuance/models"
	"medcred/pkg/testutil/containers"
)

type RedisStoreSuite struct {
	suite.Suite
	ctx   context.Context
	redis *containers.RedisContainer
	store *RedisStore
}

func TestRedisStoreSuite(t *testing.T) {
	suite.Run(t, new(RedisStoreSuite))
}

func (s *RedisStoreSuite) SetupSuite() {
	s.ctx = context.Background()
	s.redis = containers.GetManager().GetRedis(s.T())
}

func (s *RedisStoreSuite) SetupTest() {
	s.Require().NoError(s.redis.Client.FlushDB(s.ctx).Err())
	s.store = NewRedis(s.redis.Client, time.Minute)
}

func (s *RedisStoreSuite) TestRoundTrip() {
	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	session := models.Session{
		State:     "st-1",
		Type:      models.AMACredential,
		UserID:    "u1",
		Status:    models.StatusPending,
		CreatedAt: created,
		UpdatedAt: created,
	}
	s.Require().NoError(s.store.Save(s.ctx, session))

	got, err := s.store.Find(s.ctx, "st-1")
	s.Require().NoError(err)
	s.Equal(session.Type, got.Type)
	s.True(created.Equal(got.CreatedAt))

	ttl, err := s.redis.Client.TTL(s.ctx, "issuance:session:st-1").Result()
	s.Require().NoError(err)
	s.Greater(ttl, 50*time.Second)
}

func (s *RedisStoreSuite) TestFindMissing() {
	_, err := s.store.Find(s.ctx, "ghost")
	s.ErrorIs(err, ErrNotFound)
}

func (s *RedisStoreSuite) TestUpdateKeepsTTL() {
	s.Require().NoError(s.store.Save(s.ctx, models.Session{State: "st-2", Status: models.StatusPending}))

	got, err := s.store.Update(s.ctx, "st-2", func(sess *models.Session) error {
		sess.Status = models.StatusIssuanceSuccessful
		return nil
	})
	s.Require().NoError(err)
	s.Equal(models.StatusIssuanceSuccessful, got.Status)

	ttl, err := s.redis.Client.TTL(s.ctx, "issuance:session:st-2").Result()
	s.Require().NoError(err)
	s.Greater(ttl, time.Duration(0))

	_, err = s.store.Update(s.ctx, "ghost", func(*models.Session) error { return nil })
	s.ErrorIs(err, ErrNotFound)
}
