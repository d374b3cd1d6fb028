package presence_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/KirkDiggler/rpg-table/internal/domain/presence"
)

func TestRecord_EvaluateStatus(t *testing.T) {
	base := time.Date(2024, 6, 1, 20, 0, 0, 0, time.UTC)
	record := &presence.Record{
		SessionID:     "sess_1",
		PlayerID:      "player_1",
		ConnectionID:  "conn_1",
		Status:        presence.StatusOnline,
		ConnectedAt:   base,
		LastHeartbeat: base,
	}

	tests := []struct {
		name     string
		elapsed  time.Duration
		expected presence.Status
	}{
		{"fresh heartbeat", 5 * time.Second, presence.StatusOnline},
		{"exactly at heartbeat timeout", 30 * time.Second, presence.StatusOnline},
		{"past heartbeat timeout", 31 * time.Second, presence.StatusAway},
		{"exactly at offline timeout", 300 * time.Second, presence.StatusAway},
		{"past offline timeout", 301 * time.Second, presence.StatusOffline},
		{"long gone", 2 * time.Hour, presence.StatusOffline},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status := record.EvaluateStatus(base.Add(tt.elapsed), presence.DefaultHeartbeatTimeout, presence.DefaultOfflineTimeout)
			assert.Equal(t, tt.expected, status)
		})
	}

	t.Run("explicit offline is sticky", func(t *testing.T) {
		disconnected := *record
		disconnected.Status = presence.StatusOffline

		status := disconnected.EvaluateStatus(base.Add(time.Second), presence.DefaultHeartbeatTimeout, presence.DefaultOfflineTimeout)
		assert.Equal(t, presence.StatusOffline, status)
	})
}

func TestRecord_ConnectionDuration(t *testing.T) {
	base := time.Date(2024, 6, 1, 20, 0, 0, 0, time.UTC)
	record := &presence.Record{
		ConnectedAt:   base,
		LastHeartbeat: base,
	}

	assert.Equal(t, 10*time.Minute, record.ConnectionDuration(base.Add(10*time.Minute)))

	endedAt := base.Add(3 * time.Minute)
	record.DisconnectedAt = &endedAt
	assert.Equal(t, 3*time.Minute, record.ConnectionDuration(base.Add(10*time.Minute)))
}
