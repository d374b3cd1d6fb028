// Package turnqueue coordinates whose turn it is. It runs the
// waiting/ready/active/completed lifecycle for each participant and
// keeps the append-only action history, leaving HP and damage to the
// combat service.
package turnqueue

//go:generate mockgen -destination=mock/mock_service.go -package=mockturnqueue -source=service.go

import (
	"context"
	"log"
	"sort"

	"github.com/KirkDiggler/rpg-table/internal/clock"
	"github.com/KirkDiggler/rpg-table/internal/domain/character"
	"github.com/KirkDiggler/rpg-table/internal/domain/combat"
	"github.com/KirkDiggler/rpg-table/internal/domain/turn"
	"github.com/KirkDiggler/rpg-table/internal/errors"
	"github.com/KirkDiggler/rpg-table/internal/idgen"
)

// Service runs one turn queue per session. Within a session the
// caller serializes writes, per the table coordinator's one-writer
// contract.
type Service interface {
	// StartTurnQueue opens a queue for the session. With an encounter
	// the order mirrors its initiative order; otherwise participants
	// are ordered by innate initiative modifier.
	StartTurnQueue(ctx context.Context, input *StartTurnQueueInput) (*StartTurnQueueOutput, error)

	// AdvanceTurn completes the active turn and activates the next.
	AdvanceTurn(ctx context.Context, sessionID string) (*AdvanceTurnOutput, error)

	// SetPlayerReady toggles a waiting turn to ready or back. Readiness
	// never advances the queue on its own.
	SetPlayerReady(ctx context.Context, input *SetPlayerReadyInput) (*turn.Turn, error)

	// CheckAllReady reports whether every turn is ready or active.
	CheckAllReady(ctx context.Context, sessionID string) (*ReadyCheckOutput, error)

	// RecordAction appends a declared action to the turn history.
	RecordAction(ctx context.Context, input *RecordActionInput) (*turn.ActionRecord, error)

	// GetTurnHistory returns recent history, oldest first.
	GetTurnHistory(ctx context.Context, input *GetTurnHistoryInput) ([]*turn.ActionRecord, error)

	// SkipTurn passes over the active turn and advances the queue.
	SkipTurn(ctx context.Context, input *SkipTurnInput) (*AdvanceTurnOutput, error)

	// GetQueue returns the session's queue.
	GetQueue(ctx context.Context, sessionID string) (*turn.Queue, error)

	// EndTurnQueue discards the session's queue.
	EndTurnQueue(ctx context.Context, sessionID string) error

	// ActiveSessionIDs lists sessions that currently have a queue.
	ActiveSessionIDs(ctx context.Context) ([]string, error)
}

// StartTurnQueueInput names the session and participants. Encounter is
// optional; when set it supplies the order and Characters is ignored.
type StartTurnQueueInput struct {
	SessionID  string
	Characters []*character.Character
	Encounter  *combat.Encounter
}

// StartTurnQueueOutput carries the opened queue.
type StartTurnQueueOutput struct {
	Queue *turn.Queue
}

// AdvanceTurnOutput reports the turn now active.
type AdvanceTurnOutput struct {
	Active   *turn.Turn
	Round    int
	NewRound bool
}

// SetPlayerReadyInput toggles readiness for one character.
type SetPlayerReadyInput struct {
	SessionID   string
	CharacterID string
	Ready       bool
}

// ReadyCheckOutput summarizes queue readiness.
type ReadyCheckOutput struct {
	AllReady bool
	Ready    int
	Total    int
}

// RecordActionInput describes a declared action.
type RecordActionInput struct {
	SessionID   string
	CharacterID string
	ActionType  string
	Details     string
}

// GetTurnHistoryInput selects history for a session. Limit of zero
// returns everything.
type GetTurnHistoryInput struct {
	SessionID string
	Limit     int
}

// SkipTurnInput passes over the named character's active turn.
type SkipTurnInput struct {
	SessionID   string
	CharacterID string
}

type service struct {
	store       *queueStore
	idGenerator idgen.Generator
	clock       clock.Clock
}

// ServiceConfig holds configuration for the service. Every field has
// a production default.
type ServiceConfig struct {
	IDGenerator idgen.Generator
	Clock       clock.Clock
}

// NewService creates a new turn queue service.
func NewService(cfg *ServiceConfig) Service {
	svc := &service{
		store: newQueueStore(),
	}

	if cfg != nil && cfg.IDGenerator != nil {
		svc.idGenerator = cfg.IDGenerator
	} else {
		svc.idGenerator = idgen.NewUUID("queue")
	}
	if cfg != nil && cfg.Clock != nil {
		svc.clock = cfg.Clock
	} else {
		svc.clock = clock.New()
	}

	return svc
}

func (s *service) StartTurnQueue(ctx context.Context, input *StartTurnQueueInput) (*StartTurnQueueOutput, error) {
	if input == nil {
		return nil, errors.InvalidArgument("input cannot be nil")
	}
	if input.SessionID == "" {
		return nil, errors.InvalidArgument("session ID is required")
	}

	var turns []*turn.Turn
	encounterID := ""
	switch {
	case input.Encounter != nil:
		encounterID = input.Encounter.ID
		turns = make([]*turn.Turn, len(input.Encounter.Combatants))
		for i, c := range input.Encounter.Combatants {
			turns[i] = &turn.Turn{
				CharacterID:   c.CharacterID,
				CharacterName: c.Name,
				Initiative:    c.Initiative,
			}
		}
	default:
		if len(input.Characters) == 0 {
			return nil, errors.InvalidArgument("at least one participant is required")
		}
		for _, c := range input.Characters {
			if err := c.Validate(); err != nil {
				return nil, errors.Wrap(err, "invalid participant")
			}
		}
		ordered := make([]*character.Character, len(input.Characters))
		copy(ordered, input.Characters)
		sort.SliceStable(ordered, func(i, j int) bool {
			if ordered[i].InitiativeModifier() != ordered[j].InitiativeModifier() {
				return ordered[i].InitiativeModifier() > ordered[j].InitiativeModifier()
			}
			return ordered[i].Abilities.Dexterity > ordered[j].Abilities.Dexterity
		})
		turns = make([]*turn.Turn, len(ordered))
		for i, c := range ordered {
			turns[i] = &turn.Turn{
				CharacterID:   c.ID,
				CharacterName: c.Name,
				Initiative:    c.InitiativeModifier(),
			}
		}
	}

	if len(turns) == 0 {
		return nil, errors.InvalidArgument("at least one participant is required")
	}

	q := turn.NewQueue(s.idGenerator.Generate(), input.SessionID, turns, s.clock.Now())
	q.EncounterID = encounterID

	if err := s.store.create(input.SessionID, q); err != nil {
		return nil, err
	}

	log.Printf("[TURNQUEUE] Started queue %s in session %s with %d participants", q.ID, input.SessionID, len(turns))
	return &StartTurnQueueOutput{Queue: q}, nil
}

func (s *service) AdvanceTurn(ctx context.Context, sessionID string) (*AdvanceTurnOutput, error) {
	q, err := s.store.get(sessionID)
	if err != nil {
		return nil, err
	}
	if q.ActiveTurn() == nil {
		return nil, errors.InvariantViolationf("no active turn in session %s", sessionID)
	}

	next, newRound := q.Advance(s.clock.Now())
	if newRound {
		log.Printf("[TURNQUEUE] Session %s entered round %d", sessionID, q.Round)
	}

	return &AdvanceTurnOutput{
		Active:   next,
		Round:    q.Round,
		NewRound: newRound,
	}, nil
}

func (s *service) SetPlayerReady(ctx context.Context, input *SetPlayerReadyInput) (*turn.Turn, error) {
	if input == nil {
		return nil, errors.InvalidArgument("input cannot be nil")
	}

	q, err := s.store.get(input.SessionID)
	if err != nil {
		return nil, err
	}

	t := q.FindTurn(input.CharacterID)
	if t == nil {
		return nil, errors.NotFoundf("character %s is not in the turn queue", input.CharacterID)
	}
	if t.Status != turn.StatusWaiting && t.Status != turn.StatusReady {
		return nil, errors.InvalidArgumentf("turn for %s is %s, readiness applies to waiting turns", input.CharacterID, t.Status)
	}

	if input.Ready {
		t.Status = turn.StatusReady
	} else {
		t.Status = turn.StatusWaiting
	}
	return t, nil
}

func (s *service) CheckAllReady(ctx context.Context, sessionID string) (*ReadyCheckOutput, error) {
	q, err := s.store.get(sessionID)
	if err != nil {
		return nil, err
	}

	ready := 0
	for _, t := range q.Turns {
		if t.Status == turn.StatusReady || t.Status == turn.StatusActive {
			ready++
		}
	}

	return &ReadyCheckOutput{
		AllReady: q.AllReady(),
		Ready:    ready,
		Total:    len(q.Turns),
	}, nil
}

func (s *service) RecordAction(ctx context.Context, input *RecordActionInput) (*turn.ActionRecord, error) {
	if input == nil {
		return nil, errors.InvalidArgument("input cannot be nil")
	}
	if input.ActionType == "" {
		return nil, errors.InvalidArgument("action type is required")
	}

	q, err := s.store.get(input.SessionID)
	if err != nil {
		return nil, err
	}
	if q.FindTurn(input.CharacterID) == nil {
		return nil, errors.NotFoundf("character %s is not in the turn queue", input.CharacterID)
	}

	record := &turn.ActionRecord{
		CharacterID: input.CharacterID,
		ActionType:  input.ActionType,
		Details:     input.Details,
		Timestamp:   s.clock.Now(),
	}
	q.AddAction(record)
	return record, nil
}

func (s *service) GetTurnHistory(ctx context.Context, input *GetTurnHistoryInput) ([]*turn.ActionRecord, error) {
	if input == nil {
		return nil, errors.InvalidArgument("input cannot be nil")
	}

	q, err := s.store.get(input.SessionID)
	if err != nil {
		return nil, err
	}
	return q.RecentHistory(input.Limit), nil
}

func (s *service) SkipTurn(ctx context.Context, input *SkipTurnInput) (*AdvanceTurnOutput, error) {
	if input == nil {
		return nil, errors.InvalidArgument("input cannot be nil")
	}

	q, err := s.store.get(input.SessionID)
	if err != nil {
		return nil, err
	}

	t := q.FindTurn(input.CharacterID)
	if t == nil {
		return nil, errors.NotFoundf("character %s is not in the turn queue", input.CharacterID)
	}
	active := q.ActiveTurn()
	if active == nil {
		return nil, errors.InvariantViolationf("no active turn in session %s", input.SessionID)
	}
	if active.CharacterID != input.CharacterID {
		return nil, errors.InvalidArgumentf("character %s does not hold the active turn", input.CharacterID)
	}

	t.Status = turn.StatusSkipped
	next, newRound := q.Advance(s.clock.Now())

	log.Printf("[TURNQUEUE] Skipped %s in session %s", input.CharacterID, input.SessionID)
	return &AdvanceTurnOutput{
		Active:   next,
		Round:    q.Round,
		NewRound: newRound,
	}, nil
}

func (s *service) GetQueue(ctx context.Context, sessionID string) (*turn.Queue, error) {
	return s.store.get(sessionID)
}

func (s *service) EndTurnQueue(ctx context.Context, sessionID string) error {
	q, err := s.store.get(sessionID)
	if err != nil {
		return err
	}

	s.store.delete(sessionID)
	log.Printf("[TURNQUEUE] Ended queue %s in session %s after %d rounds", q.ID, sessionID, q.Round)
	return nil
}

func (s *service) ActiveSessionIDs(ctx context.Context) ([]string, error) {
	return s.store.sessionIDs(), nil
}
