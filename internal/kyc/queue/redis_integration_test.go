//go:build integration

package queue_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"provena/internal/kyc"
	"provena/internal/kyc/queue"
	"provena/pkg/domain"
	"provena/pkg/testutil/containers"
)

type RedisQueueSuite struct {
	suite.Suite
	redis *containers.RedisContainer
	queue *queue.Redis
}

func TestRedisQueueSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisQueueSuite))
}

func (s *RedisQueueSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.redis = mgr.GetRedis(s.T())
	s.queue = queue.NewRedis(s.redis.Client)
}

func (s *RedisQueueSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
}

func (s *RedisQueueSuite) TestOldestFirstOrdering() {
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	newest := domain.EntityID(uuid.New())
	oldest := domain.EntityID(uuid.New())
	middle := domain.EntityID(uuid.New())

	s.Require().NoError(s.queue.Put(ctx, newest, kyc.StatusPending, base.Add(2*time.Hour)))
	s.Require().NoError(s.queue.Put(ctx, oldest, kyc.StatusPending, base))
	s.Require().NoError(s.queue.Put(ctx, middle, kyc.StatusPending, base.Add(time.Hour)))

	snapshot, err := s.queue.Snapshot(ctx)
	s.Require().NoError(err)
	s.Require().Len(snapshot.Pending, 3)
	s.Equal(oldest, snapshot.Pending[0].EntityID)
	s.Equal(middle, snapshot.Pending[1].EntityID)
	s.Equal(newest, snapshot.Pending[2].EntityID)
	s.Equal(3, snapshot.TotalCount)
}

func (s *RedisQueueSuite) TestPutMovesBetweenSections() {
	ctx := context.Background()
	entityID := domain.EntityID(uuid.New())
	now := time.Now().UTC()

	s.Require().NoError(s.queue.Put(ctx, entityID, kyc.StatusPending, now))
	s.Require().NoError(s.queue.Put(ctx, entityID, kyc.StatusInProgress, now.Add(time.Minute)))

	snapshot, err := s.queue.Snapshot(ctx)
	s.Require().NoError(err)
	s.Empty(snapshot.Pending)
	s.Require().Len(snapshot.InProgress, 1)
	s.Equal(entityID, snapshot.InProgress[0].EntityID)
	s.Equal(1, snapshot.TotalCount)
}

func (s *RedisQueueSuite) TestRemove() {
	ctx := context.Background()
	entityID := domain.EntityID(uuid.New())

	s.Require().NoError(s.queue.Put(ctx, entityID, kyc.StatusMoreInfoRequired, time.Now()))
	s.Require().NoError(s.queue.Remove(ctx, entityID))

	snapshot, err := s.queue.Snapshot(ctx)
	s.Require().NoError(err)
	s.Zero(snapshot.TotalCount)
}
