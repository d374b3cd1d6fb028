// Package presence tracks who is connected to each session. Status is
// computed from heartbeat age when it is read, never by background
// timers.
package presence

//go:generate mockgen -destination=mock/mock_service.go -package=mockpresence -source=service.go

import (
	"context"
	"log"
	"sort"
	"time"

	"github.com/KirkDiggler/rpg-table/internal/clock"
	"github.com/KirkDiggler/rpg-table/internal/domain/presence"
	"github.com/KirkDiggler/rpg-table/internal/errors"
	presenceRepo "github.com/KirkDiggler/rpg-table/internal/repositories/presence"
	sessionsRepo "github.com/KirkDiggler/rpg-table/internal/repositories/sessions"
)

// Records linger this long after going offline before cleanup removes
// them.
const defaultStaleAfter = 24 * time.Hour

// Service tracks connections, heartbeats, and disconnects for session
// members. Callers must serialize writes for a given connection;
// different sessions are independent.
type Service interface {
	TrackConnection(ctx context.Context, input *TrackConnectionInput) (*presence.Record, error)
	UpdateHeartbeat(ctx context.Context, sessionID, playerID, connectionID string) (*presence.Record, error)
	UpdateStatus(ctx context.Context, input *UpdateStatusInput) (*presence.Record, error)
	Disconnect(ctx context.Context, sessionID, playerID, connectionID string) (*presence.Record, error)
	GetPresenceSummary(ctx context.Context, sessionID string) (*Summary, error)
	GetPlayerStatus(ctx context.Context, sessionID, playerID string) (*PlayerStatus, error)
	GetActiveConnections(ctx context.Context, sessionID string) ([]*presence.Record, error)
	CheckAllOnline(ctx context.Context, sessionID string) (*AllOnlineOutput, error)
	CleanupStaleConnections(ctx context.Context, sessionID string) (int, error)
}

// TrackConnectionInput identifies the new connection.
type TrackConnectionInput struct {
	SessionID    string
	PlayerID     string
	ConnectionID string
}

// UpdateStatusInput sets a connection's status by hand.
type UpdateStatusInput struct {
	SessionID    string
	PlayerID     string
	ConnectionID string
	Status       presence.Status
}

// PlayerStatus is one member's evaluated presence.
type PlayerStatus struct {
	PlayerID    string
	CharacterID string
	Status      presence.Status

	// Connected is false for members who never opened a connection.
	Connected     bool
	LastHeartbeat time.Time

	// ConnectedFor is set only while the player is online.
	ConnectedFor time.Duration
}

// Summary is the per-session presence rollup.
type Summary struct {
	SessionID   string
	Players     []*PlayerStatus
	Counts      map[presence.Status]int
	GeneratedAt time.Time
}

// AllOnlineOutput reports whether every member is online right now.
type AllOnlineOutput struct {
	AllOnline bool
	Online    int
	Total     int

	// Absent lists members who are away, offline, or never connected.
	Absent []string
}

// ServiceConfig holds the presence service dependencies.
type ServiceConfig struct {
	PresenceRepo presenceRepo.Repository
	SessionRepo  sessionsRepo.Repository

	Clock            clock.Clock
	HeartbeatTimeout time.Duration
	OfflineTimeout   time.Duration
	StaleAfter       time.Duration
}

type service struct {
	presenceRepo presenceRepo.Repository
	sessionRepo  sessionsRepo.Repository
	clock        clock.Clock

	heartbeatTimeout time.Duration
	offlineTimeout   time.Duration
	staleAfter       time.Duration
}

// NewService creates a presence service.
func NewService(cfg *ServiceConfig) Service {
	if cfg.PresenceRepo == nil {
		panic("presence repository is required")
	}
	if cfg.SessionRepo == nil {
		panic("session repository is required")
	}

	svc := &service{
		presenceRepo:     cfg.PresenceRepo,
		sessionRepo:      cfg.SessionRepo,
		clock:            cfg.Clock,
		heartbeatTimeout: cfg.HeartbeatTimeout,
		offlineTimeout:   cfg.OfflineTimeout,
		staleAfter:       cfg.StaleAfter,
	}
	if svc.clock == nil {
		svc.clock = clock.New()
	}
	if svc.heartbeatTimeout == 0 {
		svc.heartbeatTimeout = presence.DefaultHeartbeatTimeout
	}
	if svc.offlineTimeout == 0 {
		svc.offlineTimeout = presence.DefaultOfflineTimeout
	}
	if svc.staleAfter == 0 {
		svc.staleAfter = defaultStaleAfter
	}
	return svc
}

func (s *service) TrackConnection(ctx context.Context, input *TrackConnectionInput) (*presence.Record, error) {
	if input == nil {
		return nil, errors.InvalidArgument("input cannot be nil")
	}
	if input.SessionID == "" || input.PlayerID == "" || input.ConnectionID == "" {
		return nil, errors.InvalidArgument("session ID, player ID, and connection ID are required")
	}

	sess, err := s.sessionRepo.Get(ctx, input.SessionID)
	if err != nil {
		return nil, err
	}
	if sess.GetMember(input.PlayerID) == nil {
		return nil, errors.InvalidArgumentf("player %s is not a member of session %s", input.PlayerID, input.SessionID)
	}

	now := s.clock.Now()
	rec := &presence.Record{
		SessionID:     input.SessionID,
		PlayerID:      input.PlayerID,
		ConnectionID:  input.ConnectionID,
		Status:        presence.StatusOnline,
		ConnectedAt:   now,
		LastHeartbeat: now,
	}
	if err := s.presenceRepo.Upsert(ctx, rec); err != nil {
		return nil, err
	}

	log.Printf("[PRESENCE] player %s connected to session %s (conn %s)", input.PlayerID, input.SessionID, input.ConnectionID)
	return rec, nil
}

func (s *service) UpdateHeartbeat(ctx context.Context, sessionID, playerID, connectionID string) (*presence.Record, error) {
	rec, err := s.presenceRepo.Get(ctx, sessionID, playerID, connectionID)
	if err != nil {
		return nil, err
	}
	if rec.DisconnectedAt != nil {
		return nil, errors.InvalidArgumentf("connection %s was disconnected, open a new connection instead", connectionID)
	}

	rec.LastHeartbeat = s.clock.Now()
	rec.Status = presence.StatusOnline
	if err := s.presenceRepo.Upsert(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

func (s *service) UpdateStatus(ctx context.Context, input *UpdateStatusInput) (*presence.Record, error) {
	if input == nil {
		return nil, errors.InvalidArgument("input cannot be nil")
	}
	switch input.Status {
	case presence.StatusOnline, presence.StatusAway, presence.StatusOffline:
	default:
		return nil, errors.InvalidArgumentf("unknown presence status %q", input.Status)
	}

	rec, err := s.presenceRepo.Get(ctx, input.SessionID, input.PlayerID, input.ConnectionID)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	rec.Status = input.Status
	switch input.Status {
	case presence.StatusOffline:
		at := now
		rec.DisconnectedAt = &at
	case presence.StatusOnline:
		rec.LastHeartbeat = now
		rec.DisconnectedAt = nil
	default:
		rec.DisconnectedAt = nil
	}

	if err := s.presenceRepo.Upsert(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

func (s *service) Disconnect(ctx context.Context, sessionID, playerID, connectionID string) (*presence.Record, error) {
	rec, err := s.presenceRepo.Get(ctx, sessionID, playerID, connectionID)
	if err != nil {
		return nil, err
	}

	at := s.clock.Now()
	rec.Status = presence.StatusOffline
	rec.DisconnectedAt = &at
	if err := s.presenceRepo.Upsert(ctx, rec); err != nil {
		return nil, err
	}

	log.Printf("[PRESENCE] player %s disconnected from session %s (conn %s)", playerID, sessionID, connectionID)
	return rec, nil
}

func (s *service) GetPresenceSummary(ctx context.Context, sessionID string) (*Summary, error) {
	sess, err := s.sessionRepo.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	records, err := s.presenceRepo.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	// Most recent record per player wins when a player has several
	// connections.
	latest := make(map[string]*presence.Record)
	for _, rec := range records {
		cur, ok := latest[rec.PlayerID]
		if !ok || rec.LastHeartbeat.After(cur.LastHeartbeat) {
			latest[rec.PlayerID] = rec
		}
	}

	memberIDs := sess.PlayerIDs()
	sort.Strings(memberIDs)

	now := s.clock.Now()
	summary := &Summary{
		SessionID:   sessionID,
		Players:     make([]*PlayerStatus, 0, len(memberIDs)),
		Counts:      make(map[presence.Status]int),
		GeneratedAt: now,
	}

	for _, playerID := range memberIDs {
		member := sess.GetMember(playerID)
		ps := &PlayerStatus{
			PlayerID:    playerID,
			CharacterID: member.CharacterID,
			Status:      presence.StatusOffline,
		}
		if rec, ok := latest[playerID]; ok {
			ps.Connected = true
			ps.Status = rec.EvaluateStatus(now, s.heartbeatTimeout, s.offlineTimeout)
			ps.LastHeartbeat = rec.LastHeartbeat
			if ps.Status == presence.StatusOnline {
				ps.ConnectedFor = rec.ConnectionDuration(now)
			}
		}
		summary.Players = append(summary.Players, ps)
		summary.Counts[ps.Status]++
	}

	return summary, nil
}

func (s *service) GetPlayerStatus(ctx context.Context, sessionID, playerID string) (*PlayerStatus, error) {
	sess, err := s.sessionRepo.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	member := sess.GetMember(playerID)
	if member == nil {
		return nil, errors.NotFoundf("player %s is not a member of session %s", playerID, sessionID)
	}

	records, err := s.presenceRepo.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	var latest *presence.Record
	for _, rec := range records {
		if rec.PlayerID != playerID {
			continue
		}
		if latest == nil || rec.LastHeartbeat.After(latest.LastHeartbeat) {
			latest = rec
		}
	}

	ps := &PlayerStatus{
		PlayerID:    playerID,
		CharacterID: member.CharacterID,
		Status:      presence.StatusOffline,
	}
	if latest != nil {
		now := s.clock.Now()
		ps.Connected = true
		ps.Status = latest.EvaluateStatus(now, s.heartbeatTimeout, s.offlineTimeout)
		ps.LastHeartbeat = latest.LastHeartbeat
		if ps.Status == presence.StatusOnline {
			ps.ConnectedFor = latest.ConnectionDuration(now)
		}
	}
	return ps, nil
}

func (s *service) GetActiveConnections(ctx context.Context, sessionID string) ([]*presence.Record, error) {
	records, err := s.presenceRepo.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	active := make([]*presence.Record, 0, len(records))
	for _, rec := range records {
		status := rec.EvaluateStatus(now, s.heartbeatTimeout, s.offlineTimeout)
		if status == presence.StatusOffline {
			continue
		}
		rec.Status = status
		active = append(active, rec)
	}
	return active, nil
}

func (s *service) CheckAllOnline(ctx context.Context, sessionID string) (*AllOnlineOutput, error) {
	summary, err := s.GetPresenceSummary(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	out := &AllOnlineOutput{Total: len(summary.Players)}
	for _, ps := range summary.Players {
		if ps.Status == presence.StatusOnline {
			out.Online++
			continue
		}
		out.Absent = append(out.Absent, ps.PlayerID)
	}
	out.AllOnline = out.Total > 0 && out.Online == out.Total
	return out, nil
}

func (s *service) CleanupStaleConnections(ctx context.Context, sessionID string) (int, error) {
	records, err := s.presenceRepo.ListBySession(ctx, sessionID)
	if err != nil {
		return 0, err
	}

	now := s.clock.Now()
	removed := 0
	for _, rec := range records {
		if rec.EvaluateStatus(now, s.heartbeatTimeout, s.offlineTimeout) != presence.StatusOffline {
			continue
		}

		// For records that just aged out, offline started when the
		// heartbeat crossed the offline threshold.
		offlineSince := rec.LastHeartbeat.Add(s.offlineTimeout)
		if rec.DisconnectedAt != nil {
			offlineSince = *rec.DisconnectedAt
		}
		if now.Sub(offlineSince) <= s.staleAfter {
			continue
		}

		if err := s.presenceRepo.Delete(ctx, sessionID, rec.PlayerID, rec.ConnectionID); err != nil {
			if errors.IsNotFound(err) {
				continue
			}
			return removed, err
		}
		removed++
	}

	if removed > 0 {
		log.Printf("[PRESENCE] purged %d stale connection records from session %s", removed, sessionID)
	}
	return removed, nil
}
