// Package presence tracks connection liveness per player. Status is
// derived from heartbeat age at read time; nothing here runs timers.
package presence

import "time"

// Status is the liveness bucket for a connection.
type Status string

const (
	StatusOnline  Status = "online"
	StatusAway    Status = "away"
	StatusOffline Status = "offline"
)

// Default staleness thresholds.
const (
	DefaultHeartbeatTimeout = 30 * time.Second
	DefaultOfflineTimeout   = 300 * time.Second
)

// Record is the presence state for one (session, player, connection)
// triple. All timestamps are UTC.
type Record struct {
	SessionID      string     `json:"session_id"`
	PlayerID       string     `json:"player_id"`
	ConnectionID   string     `json:"connection_id"`
	Status         Status     `json:"status"`
	ConnectedAt    time.Time  `json:"connected_at"`
	LastHeartbeat  time.Time  `json:"last_heartbeat"`
	DisconnectedAt *time.Time `json:"disconnected_at,omitempty"`
}

// Key identifies the record within its session.
func (r *Record) Key() string {
	return r.PlayerID + ":" + r.ConnectionID
}

// EvaluateStatus recomputes the status from heartbeat age. An explicit
// offline (disconnect) is sticky; age only ever moves a connection
// toward offline, never back.
func (r *Record) EvaluateStatus(now time.Time, heartbeatTimeout, offlineTimeout time.Duration) Status {
	if r.Status == StatusOffline {
		return StatusOffline
	}

	age := now.Sub(r.LastHeartbeat)
	switch {
	case age > offlineTimeout:
		return StatusOffline
	case age > heartbeatTimeout:
		return StatusAway
	default:
		return StatusOnline
	}
}

// ConnectionDuration is how long the connection has been up, zero for
// disconnected records.
func (r *Record) ConnectionDuration(now time.Time) time.Duration {
	if r.DisconnectedAt != nil {
		return r.DisconnectedAt.Sub(r.ConnectedAt)
	}
	return now.Sub(r.ConnectedAt)
}
