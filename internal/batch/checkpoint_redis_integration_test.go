//go:build integration

package batch_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/suite"

	"caseflow/internal/batch"
	platformredis "caseflow/internal/platform/redis"
	"caseflow/pkg/platform/sentinel"
	"caseflow/pkg/testutil/containers"
)

type RedisCheckpointsSuite struct {
	suite.Suite
	redis *containers.RedisContainer
	store *batch.RedisCheckpoints
}

func TestRedisCheckpointsSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisCheckpointsSuite))
}

func (s *RedisCheckpointsSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.redis = mgr.GetRedis(s.T())
	s.store = batch.NewRedisCheckpoints(&platformredis.Client{Client: s.redis.Client})
}

func (s *RedisCheckpointsSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
}

func (s *RedisCheckpointsSuite) TestSaveOverwritesAndGetRoundTrips() {
	ctx := context.Background()

	run := &batch.Run{ID: "run-1", EventID: "escalate", Status: batch.RunStatusRunning, Total: 5}
	s.Require().NoError(s.store.Save(ctx, run))

	run.Status = batch.RunStatusCompleted
	run.Processed = []int64{1, 2, 4, 5}
	run.Errored = []int64{3}
	s.Require().NoError(s.store.Save(ctx, run))

	got, err := s.store.Get(ctx, "run-1")
	s.Require().NoError(err)
	s.Equal(batch.RunStatusCompleted, got.Status)
	s.Equal([]int64{1, 2, 4, 5}, got.Processed)
	s.Equal([]int64{3}, got.Errored)
}

func (s *RedisCheckpointsSuite) TestGetUnknownRun() {
	_, err := s.store.Get(context.Background(), "no-such-run")
	s.True(errors.Is(err, sentinel.ErrNotFound))
}
