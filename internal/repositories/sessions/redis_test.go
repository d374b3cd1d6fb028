package sessions

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"

	"github.com/KirkDiggler/rpg-table/internal/domain/game"
	"github.com/KirkDiggler/rpg-table/internal/errors"
)

type RedisRepoTestSuite struct {
	suite.Suite
	mockClient *goredis.Client
	mock       redismock.ClientMock
	repo       Repository
}

func (s *RedisRepoTestSuite) SetupTest() {
	s.mockClient, s.mock = redismock.NewClientMock()
	s.repo = NewRedisRepository(&RedisRepoConfig{Client: s.mockClient})
}

func (s *RedisRepoTestSuite) TearDownTest() {
	s.NoError(s.mock.ExpectationsWereMet())
}

func TestRedisRepoTestSuite(t *testing.T) {
	suite.Run(t, new(RedisRepoTestSuite))
}

func (s *RedisRepoTestSuite) testSession() *game.Session {
	now := time.Date(2024, 6, 1, 20, 0, 0, 0, time.UTC)
	return &game.Session{
		ID:        "test-id",
		Name:      "Friday Night Game",
		CreatorID: "dm-1",
		Status:    game.SessionStatusPlanning,
		Members: map[string]*game.SessionMember{
			"dm-1": {
				PlayerID:   "dm-1",
				Role:       game.MemberRoleDM,
				JoinedAt:   now,
				LastActive: now,
			},
		},
		CreatedAt: now,
	}
}

func (s *RedisRepoTestSuite) TestCreate() {
	ctx := context.Background()
	sess := s.testSession()

	data, err := json.Marshal(sess)
	s.Require().NoError(err)

	// Happy path
	s.mock.ExpectSetNX("session:test-id", string(data), defaultSessionTTL).SetVal(true)
	s.mock.ExpectTxPipeline()
	s.mock.ExpectSAdd("sessions:active", "test-id").SetVal(1)
	s.mock.ExpectSAdd("player:dm-1:sessions", "test-id").SetVal(1)
	s.mock.ExpectTxPipelineExec()

	s.NoError(s.repo.Create(ctx, sess))

	// Duplicate ID
	s.mock.ExpectSetNX("session:test-id", string(data), defaultSessionTTL).SetVal(false)

	err = s.repo.Create(ctx, sess)
	s.Error(err)
	s.True(errors.IsAlreadyExists(err))

	// Input validation
	s.Error(s.repo.Create(ctx, nil))
	s.Error(s.repo.Create(ctx, &game.Session{}))
}

func (s *RedisRepoTestSuite) TestGet() {
	ctx := context.Background()
	sess := s.testSession()

	data, err := json.Marshal(sess)
	s.Require().NoError(err)

	// Happy path
	s.mock.ExpectGet("session:test-id").SetVal(string(data))

	got, err := s.repo.Get(ctx, "test-id")
	s.NoError(err)
	s.Equal("test-id", got.ID)
	s.Equal("Friday Night Game", got.Name)
	s.Require().NotNil(got.GetMember("dm-1"))
	s.Equal(game.MemberRoleDM, got.GetMember("dm-1").Role)

	// Missing key
	s.mock.ExpectGet("session:missing").RedisNil()

	_, err = s.repo.Get(ctx, "missing")
	s.True(errors.IsNotFound(err))

	// Dependency error
	s.mock.ExpectGet("session:test-id").SetErr(stderrors.New("redis error"))

	_, err = s.repo.Get(ctx, "test-id")
	s.Error(err)
	s.False(errors.IsNotFound(err))

	// Input validation
	_, err = s.repo.Get(ctx, "")
	s.Error(err)
}

func (s *RedisRepoTestSuite) TestUpdate() {
	ctx := context.Background()
	sess := s.testSession()

	existingData, err := json.Marshal(sess)
	s.Require().NoError(err)

	updated := s.testSession()
	updated.Status = game.SessionStatusActive
	updatedData, err := json.Marshal(updated)
	s.Require().NoError(err)

	s.mock.ExpectGet("session:test-id").SetVal(string(existingData))
	s.mock.ExpectTxPipeline()
	s.mock.ExpectSet("session:test-id", string(updatedData), defaultSessionTTL).SetVal("OK")
	s.mock.ExpectSAdd("sessions:active", "test-id").SetVal(0)
	s.mock.ExpectTxPipelineExec()

	s.NoError(s.repo.Update(ctx, updated))

	// Updating a missing session fails
	s.mock.ExpectGet("session:test-id").RedisNil()

	err = s.repo.Update(ctx, updated)
	s.True(errors.IsNotFound(err))
}

func (s *RedisRepoTestSuite) TestUpdate_EndedLeavesActiveIndex() {
	ctx := context.Background()
	sess := s.testSession()

	existingData, err := json.Marshal(sess)
	s.Require().NoError(err)

	ended := s.testSession()
	ended.Status = game.SessionStatusEnded
	endedData, err := json.Marshal(ended)
	s.Require().NoError(err)

	s.mock.ExpectGet("session:test-id").SetVal(string(existingData))
	s.mock.ExpectTxPipeline()
	s.mock.ExpectSet("session:test-id", string(endedData), defaultSessionTTL).SetVal("OK")
	s.mock.ExpectSRem("sessions:active", "test-id").SetVal(1)
	s.mock.ExpectTxPipelineExec()

	s.NoError(s.repo.Update(ctx, ended))
}

func (s *RedisRepoTestSuite) TestDelete() {
	ctx := context.Background()
	sess := s.testSession()

	data, err := json.Marshal(sess)
	s.Require().NoError(err)

	s.mock.ExpectGet("session:test-id").SetVal(string(data))
	s.mock.ExpectTxPipeline()
	s.mock.ExpectDel("session:test-id").SetVal(1)
	s.mock.ExpectSRem("sessions:active", "test-id").SetVal(1)
	s.mock.ExpectSRem("player:dm-1:sessions", "test-id").SetVal(1)
	s.mock.ExpectTxPipelineExec()

	s.NoError(s.repo.Delete(ctx, "test-id"))

	// Missing session
	s.mock.ExpectGet("session:missing").RedisNil()

	err = s.repo.Delete(ctx, "missing")
	s.True(errors.IsNotFound(err))
}

func (s *RedisRepoTestSuite) TestListByPlayer() {
	ctx := context.Background()
	sess := s.testSession()

	data, err := json.Marshal(sess)
	s.Require().NoError(err)

	s.mock.ExpectSMembers("player:dm-1:sessions").SetVal([]string{"test-id"})
	s.mock.ExpectGet("session:test-id").SetVal(string(data))

	got, err := s.repo.ListByPlayer(ctx, "dm-1")
	s.NoError(err)
	s.Require().Len(got, 1)
	s.Equal("test-id", got[0].ID)

	// A stale index entry whose key expired is skipped, not an error.
	s.mock.ExpectSMembers("player:dm-1:sessions").SetVal([]string{"gone-id"})
	s.mock.ExpectGet("session:gone-id").RedisNil()

	got, err = s.repo.ListByPlayer(ctx, "dm-1")
	s.NoError(err)
	s.Empty(got)

	// Dependency error
	s.mock.ExpectSMembers("player:dm-1:sessions").SetErr(stderrors.New("redis error"))

	_, err = s.repo.ListByPlayer(ctx, "dm-1")
	s.Error(err)

	// Input validation
	_, err = s.repo.ListByPlayer(ctx, "")
	s.Error(err)
}

func (s *RedisRepoTestSuite) TestListActive() {
	ctx := context.Background()
	sess := s.testSession()

	data, err := json.Marshal(sess)
	s.Require().NoError(err)

	// A stale index entry whose key expired is skipped, not an error.
	s.mock.ExpectSMembers("sessions:active").SetVal([]string{"test-id", "gone-id"})
	s.mock.ExpectMGet("session:test-id", "session:gone-id").SetVal([]interface{}{string(data), nil})

	got, err := s.repo.ListActive(ctx)
	s.NoError(err)
	s.Require().Len(got, 1)
	s.Equal("test-id", got[0].ID)

	// Empty index short-circuits
	s.mock.ExpectSMembers("sessions:active").SetVal([]string{})

	got, err = s.repo.ListActive(ctx)
	s.NoError(err)
	s.Empty(got)
}
