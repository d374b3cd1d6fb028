// Package session manages table membership and the session lifecycle
// from planning through end. The creator of a session runs it as DM;
// everyone else joins as a player and binds a character before play.
package session

//go:generate mockgen -destination=mock/mock_service.go -package=mocksession -source=service.go

import (
	"context"
	"log"
	"strings"

	"github.com/KirkDiggler/rpg-table/internal/clock"
	"github.com/KirkDiggler/rpg-table/internal/domain/game"
	"github.com/KirkDiggler/rpg-table/internal/errors"
	"github.com/KirkDiggler/rpg-table/internal/idgen"
	charactersRepo "github.com/KirkDiggler/rpg-table/internal/repositories/characters"
	sessionsRepo "github.com/KirkDiggler/rpg-table/internal/repositories/sessions"
)

// Service manages game sessions and who sits at them.
type Service interface {
	// CreateSession opens a new session in planning and seats the
	// creator as DM.
	CreateSession(ctx context.Context, input *CreateSessionInput) (*game.Session, error)

	// GetSession retrieves a session by ID.
	GetSession(ctx context.Context, sessionID string) (*game.Session, error)

	// JoinSession seats a player at the table. Joining is open until
	// the session ends.
	JoinSession(ctx context.Context, sessionID, playerID string) (*game.SessionMember, error)

	// LeaveSession removes a player's seat. The DM cannot leave a
	// session that is underway.
	LeaveSession(ctx context.Context, sessionID, playerID string) error

	// SetCharacter binds one of the player's own characters to their
	// seat.
	SetCharacter(ctx context.Context, sessionID, playerID, characterID string) error

	// StartSession moves the session from planning to active. DM only.
	StartSession(ctx context.Context, sessionID, playerID string) error

	// PauseSession suspends an active session. DM only.
	PauseSession(ctx context.Context, sessionID, playerID string) error

	// ResumeSession reactivates a paused session. DM only.
	ResumeSession(ctx context.Context, sessionID, playerID string) error

	// EndSession closes the session for good. DM only.
	EndSession(ctx context.Context, sessionID, playerID string) error

	// ListActiveSessions returns every session that has not ended.
	ListActiveSessions(ctx context.Context) ([]*game.Session, error)

	// ListPlayerSessions returns the sessions a player has a seat in.
	ListPlayerSessions(ctx context.Context, playerID string) ([]*game.Session, error)
}

// CreateSessionInput holds the data for creating a session.
type CreateSessionInput struct {
	Name      string
	CreatorID string
}

type service struct {
	repo          sessionsRepo.Repository
	characterRepo charactersRepo.Repository
	idGenerator   idgen.Generator
	clock         clock.Clock
}

// ServiceConfig holds the dependencies for the session service.
type ServiceConfig struct {
	SessionRepo   sessionsRepo.Repository
	CharacterRepo charactersRepo.Repository

	// IDGenerator is optional and defaults to UUID-backed IDs with a
	// "sess" prefix.
	IDGenerator idgen.Generator

	// Clock is optional and defaults to the wall clock.
	Clock clock.Clock
}

// NewService creates a new session service.
func NewService(cfg *ServiceConfig) Service {
	if cfg == nil {
		panic("session service config is required")
	}
	if cfg.SessionRepo == nil {
		panic("session repository is required")
	}
	if cfg.CharacterRepo == nil {
		panic("character repository is required")
	}

	svc := &service{
		repo:          cfg.SessionRepo,
		characterRepo: cfg.CharacterRepo,
		idGenerator:   cfg.IDGenerator,
		clock:         cfg.Clock,
	}
	if svc.idGenerator == nil {
		svc.idGenerator = idgen.NewUUID("sess")
	}
	if svc.clock == nil {
		svc.clock = clock.New()
	}
	return svc
}

func (s *service) CreateSession(ctx context.Context, input *CreateSessionInput) (*game.Session, error) {
	if input == nil {
		return nil, errors.InvalidArgument("input cannot be nil")
	}
	if strings.TrimSpace(input.Name) == "" {
		return nil, errors.InvalidArgument("session name is required")
	}
	if strings.TrimSpace(input.CreatorID) == "" {
		return nil, errors.InvalidArgument("creator ID is required")
	}

	sess := game.NewSession(s.idGenerator.Generate(), input.Name, input.CreatorID, s.clock.Now())
	if err := s.repo.Create(ctx, sess); err != nil {
		return nil, errors.Wrap(err, "failed to create session")
	}

	log.Printf("[SESSION] Created session %s (%s), DM %s", sess.ID, sess.Name, sess.CreatorID)
	return sess, nil
}

func (s *service) GetSession(ctx context.Context, sessionID string) (*game.Session, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, errors.InvalidArgument("session ID is required")
	}
	return s.repo.Get(ctx, sessionID)
}

func (s *service) JoinSession(ctx context.Context, sessionID, playerID string) (*game.SessionMember, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, errors.InvalidArgument("session ID is required")
	}
	if strings.TrimSpace(playerID) == "" {
		return nil, errors.InvalidArgument("player ID is required")
	}

	sess, err := s.repo.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if sess.GetMember(playerID) != nil {
		return nil, errors.InvalidArgumentf("player %s is already in session %s", playerID, sessionID)
	}
	if !sess.CanJoin() {
		return nil, errors.InvalidArgumentf("session %s has ended", sessionID)
	}

	member := sess.AddMember(playerID, game.MemberRolePlayer, s.clock.Now())
	if err := s.repo.Update(ctx, sess); err != nil {
		return nil, errors.Wrap(err, "failed to update session")
	}

	log.Printf("[SESSION] Player %s joined session %s", playerID, sessionID)
	return member, nil
}

func (s *service) LeaveSession(ctx context.Context, sessionID, playerID string) error {
	if strings.TrimSpace(sessionID) == "" {
		return errors.InvalidArgument("session ID is required")
	}
	if strings.TrimSpace(playerID) == "" {
		return errors.InvalidArgument("player ID is required")
	}

	sess, err := s.repo.Get(ctx, sessionID)
	if err != nil {
		return err
	}
	member := sess.GetMember(playerID)
	if member == nil {
		return errors.NotFoundf("player %s is not in session %s", playerID, sessionID)
	}
	if member.Role == game.MemberRoleDM &&
		sess.Status != game.SessionStatusPlanning && sess.Status != game.SessionStatusEnded {
		return errors.InvalidArgument("the DM cannot leave a session that is underway, end it instead")
	}

	sess.RemoveMember(playerID)
	if err := s.repo.Update(ctx, sess); err != nil {
		return errors.Wrap(err, "failed to update session")
	}

	log.Printf("[SESSION] Player %s left session %s", playerID, sessionID)
	return nil
}

func (s *service) SetCharacter(ctx context.Context, sessionID, playerID, characterID string) error {
	if strings.TrimSpace(sessionID) == "" {
		return errors.InvalidArgument("session ID is required")
	}
	if strings.TrimSpace(playerID) == "" {
		return errors.InvalidArgument("player ID is required")
	}
	if strings.TrimSpace(characterID) == "" {
		return errors.InvalidArgument("character ID is required")
	}

	char, err := s.characterRepo.Get(ctx, characterID)
	if err != nil {
		return err
	}
	if char.PlayerID != playerID {
		return errors.PermissionDeniedf("character %s does not belong to player %s", characterID, playerID)
	}

	sess, err := s.repo.Get(ctx, sessionID)
	if err != nil {
		return err
	}
	if !sess.SetCharacter(playerID, characterID, s.clock.Now()) {
		return errors.NotFoundf("player %s is not in session %s", playerID, sessionID)
	}
	if err := s.repo.Update(ctx, sess); err != nil {
		return errors.Wrap(err, "failed to update session")
	}

	log.Printf("[SESSION] Player %s plays %s in session %s", playerID, characterID, sessionID)
	return nil
}

func (s *service) StartSession(ctx context.Context, sessionID, playerID string) error {
	sess, err := s.requireDM(ctx, sessionID, playerID, "start")
	if err != nil {
		return err
	}
	if !sess.Start(s.clock.Now()) {
		return errors.InvalidArgumentf("session %s cannot start while %s", sessionID, sess.Status)
	}
	if err := s.repo.Update(ctx, sess); err != nil {
		return errors.Wrap(err, "failed to update session")
	}

	log.Printf("[SESSION] Session %s started", sessionID)
	return nil
}

func (s *service) PauseSession(ctx context.Context, sessionID, playerID string) error {
	sess, err := s.requireDM(ctx, sessionID, playerID, "pause")
	if err != nil {
		return err
	}
	if !sess.Pause() {
		return errors.InvalidArgumentf("session %s cannot pause while %s", sessionID, sess.Status)
	}
	if err := s.repo.Update(ctx, sess); err != nil {
		return errors.Wrap(err, "failed to update session")
	}

	log.Printf("[SESSION] Session %s paused", sessionID)
	return nil
}

func (s *service) ResumeSession(ctx context.Context, sessionID, playerID string) error {
	sess, err := s.requireDM(ctx, sessionID, playerID, "resume")
	if err != nil {
		return err
	}
	if !sess.Resume() {
		return errors.InvalidArgumentf("session %s cannot resume while %s", sessionID, sess.Status)
	}
	if err := s.repo.Update(ctx, sess); err != nil {
		return errors.Wrap(err, "failed to update session")
	}

	log.Printf("[SESSION] Session %s resumed", sessionID)
	return nil
}

func (s *service) EndSession(ctx context.Context, sessionID, playerID string) error {
	sess, err := s.requireDM(ctx, sessionID, playerID, "end")
	if err != nil {
		return err
	}
	if !sess.End(s.clock.Now()) {
		return errors.InvalidArgumentf("session %s has already ended", sessionID)
	}
	if err := s.repo.Update(ctx, sess); err != nil {
		return errors.Wrap(err, "failed to update session")
	}

	log.Printf("[SESSION] Session %s ended", sessionID)
	return nil
}

func (s *service) ListActiveSessions(ctx context.Context) ([]*game.Session, error) {
	return s.repo.ListActive(ctx)
}

func (s *service) ListPlayerSessions(ctx context.Context, playerID string) ([]*game.Session, error) {
	if strings.TrimSpace(playerID) == "" {
		return nil, errors.InvalidArgument("player ID is required")
	}
	return s.repo.ListByPlayer(ctx, playerID)
}

// requireDM loads a session and checks the caller holds the DM seat.
func (s *service) requireDM(ctx context.Context, sessionID, playerID, verb string) (*game.Session, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, errors.InvalidArgument("session ID is required")
	}
	if strings.TrimSpace(playerID) == "" {
		return nil, errors.InvalidArgument("player ID is required")
	}

	sess, err := s.repo.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !sess.IsDM(playerID) {
		return nil, errors.PermissionDeniedf("only the DM can %s the session", verb)
	}
	return sess, nil
}
