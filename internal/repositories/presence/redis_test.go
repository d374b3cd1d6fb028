package presence

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"

	"github.com/KirkDiggler/rpg-table/internal/domain/presence"
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

func (s *RedisRepoTestSuite) testRecord() *presence.Record {
	now := time.Date(2024, 6, 1, 20, 0, 0, 0, time.UTC)
	return &presence.Record{
		SessionID:     "sess-1",
		PlayerID:      "player-1",
		ConnectionID:  "conn-a",
		Status:        presence.StatusOnline,
		ConnectedAt:   now,
		LastHeartbeat: now,
	}
}

func (s *RedisRepoTestSuite) TestUpsert() {
	ctx := context.Background()
	rec := s.testRecord()

	data, err := json.Marshal(rec)
	s.Require().NoError(err)

	s.mock.ExpectTxPipeline()
	s.mock.ExpectHSet("presence:sess-1", "player-1:conn-a", string(data)).SetVal(1)
	s.mock.ExpectExpire("presence:sess-1", defaultPresenceTTL).SetVal(true)
	s.mock.ExpectTxPipelineExec()

	s.NoError(s.repo.Upsert(ctx, rec))

	// Input validation
	s.Error(s.repo.Upsert(ctx, nil))
	s.Error(s.repo.Upsert(ctx, &presence.Record{PlayerID: "player-1", ConnectionID: "conn-a"}))
	s.Error(s.repo.Upsert(ctx, &presence.Record{SessionID: "sess-1"}))
}

func (s *RedisRepoTestSuite) TestGet() {
	ctx := context.Background()
	rec := s.testRecord()

	data, err := json.Marshal(rec)
	s.Require().NoError(err)

	// Happy path
	s.mock.ExpectHGet("presence:sess-1", "player-1:conn-a").SetVal(string(data))

	got, err := s.repo.Get(ctx, "sess-1", "player-1", "conn-a")
	s.NoError(err)
	s.Equal(presence.StatusOnline, got.Status)
	s.Equal("conn-a", got.ConnectionID)

	// Missing field
	s.mock.ExpectHGet("presence:sess-1", "player-2:conn-b").RedisNil()

	_, err = s.repo.Get(ctx, "sess-1", "player-2", "conn-b")
	s.True(errors.IsNotFound(err))

	// Dependency error
	s.mock.ExpectHGet("presence:sess-1", "player-1:conn-a").SetErr(stderrors.New("redis error"))

	_, err = s.repo.Get(ctx, "sess-1", "player-1", "conn-a")
	s.Error(err)
	s.False(errors.IsNotFound(err))

	// Input validation
	_, err = s.repo.Get(ctx, "", "player-1", "conn-a")
	s.Error(err)
}

func (s *RedisRepoTestSuite) TestListBySession() {
	ctx := context.Background()

	first := s.testRecord()
	second := s.testRecord()
	second.PlayerID = "player-2"
	second.ConnectionID = "conn-b"
	second.Status = presence.StatusAway

	firstData, err := json.Marshal(first)
	s.Require().NoError(err)
	secondData, err := json.Marshal(second)
	s.Require().NoError(err)

	// A corrupt field is skipped, not an error.
	s.mock.ExpectHGetAll("presence:sess-1").SetVal(map[string]string{
		"player-2:conn-b": string(secondData),
		"player-1:conn-a": string(firstData),
		"player-9:conn-z": "not json",
	})

	got, err := s.repo.ListBySession(ctx, "sess-1")
	s.NoError(err)
	s.Require().Len(got, 2)
	s.Equal("player-1", got[0].PlayerID)
	s.Equal("player-2", got[1].PlayerID)

	// Empty session
	s.mock.ExpectHGetAll("presence:empty").SetVal(map[string]string{})

	got, err = s.repo.ListBySession(ctx, "empty")
	s.NoError(err)
	s.Empty(got)
}

func (s *RedisRepoTestSuite) TestDelete() {
	ctx := context.Background()

	s.mock.ExpectHDel("presence:sess-1", "player-1:conn-a").SetVal(1)

	s.NoError(s.repo.Delete(ctx, "sess-1", "player-1", "conn-a"))

	// Missing field
	s.mock.ExpectHDel("presence:sess-1", "player-1:conn-a").SetVal(0)

	err := s.repo.Delete(ctx, "sess-1", "player-1", "conn-a")
	s.True(errors.IsNotFound(err))
}

func (s *RedisRepoTestSuite) TestDeleteSession() {
	ctx := context.Background()

	s.mock.ExpectDel("presence:sess-1").SetVal(1)

	s.NoError(s.repo.DeleteSession(ctx, "sess-1"))
}
