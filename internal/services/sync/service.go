// Package sync watches a table for conflicting player actions and for
// client views that have drifted from authoritative state. Detected
// conflicts stay open until a resolution strategy settles them or a
// forced resync supersedes them.
package sync

//go:generate mockgen -destination=mock/mock_service.go -package=mocksync -source=service.go

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/KirkDiggler/rpg-table/internal/clock"
	"github.com/KirkDiggler/rpg-table/internal/dice"
	"github.com/KirkDiggler/rpg-table/internal/domain/conflict"
	"github.com/KirkDiggler/rpg-table/internal/domain/turn"
	"github.com/KirkDiggler/rpg-table/internal/errors"
	charactersRepo "github.com/KirkDiggler/rpg-table/internal/repositories/characters"
	sessionsRepo "github.com/KirkDiggler/rpg-table/internal/repositories/sessions"
	combatSvc "github.com/KirkDiggler/rpg-table/internal/services/combat"
	turnqueueSvc "github.com/KirkDiggler/rpg-table/internal/services/turnqueue"
)

// defaultSimultaneityWindow is how close together two actions from the
// same character must land to count as simultaneous.
const defaultSimultaneityWindow = time.Second

// Service detects and settles conflicts between proposed actions and
// reconciles client views against the authoritative session state.
type Service interface {
	// DetectConflicts scans a batch of proposed actions and records
	// every conflict found as unresolved.
	DetectConflicts(ctx context.Context, input *DetectConflictsInput) (*DetectConflictsOutput, error)

	// ResolveConflict settles an active conflict with the given
	// strategy and moves it out of the active set.
	ResolveConflict(ctx context.Context, input *ResolveConflictInput) (*conflict.Conflict, error)

	// GetActiveConflicts returns the session's unresolved conflicts in
	// detection order.
	GetActiveConflicts(ctx context.Context, sessionID string) ([]*conflict.Conflict, error)

	// EnsureNoActiveConflicts fails with a conflict detected error
	// while the session has unresolved conflicts.
	EnsureNoActiveConflicts(ctx context.Context, sessionID string) error

	// CheckStateConsistency compares a client's claimed state against
	// the authoritative view and reports every disagreement. A
	// divergent client leaves a state mismatch conflict open until the
	// client resynchronizes.
	CheckStateConsistency(ctx context.Context, input *CheckConsistencyInput) (*CheckConsistencyOutput, error)

	// ForceSync returns the authoritative snapshot a client needs to
	// discard its local view. Open state mismatch conflicts for the
	// session are settled, the snapshot supersedes them.
	ForceSync(ctx context.Context, sessionID string) (*ForceSyncOutput, error)

	// GetSyncStats reports conflict counts for a session.
	GetSyncStats(ctx context.Context, sessionID string) (*Stats, error)
}

// DetectConflictsInput is one batch of pending actions to scan.
type DetectConflictsInput struct {
	SessionID string
	Actions   []*conflict.ProposedAction
}

// DetectConflictsOutput carries the conflicts found, already recorded
// as unresolved.
type DetectConflictsOutput struct {
	Conflicts []*conflict.Conflict
}

// ResolveConflictInput picks a strategy for one active conflict.
// WinnerID is required for dm_decision and ignored otherwise.
type ResolveConflictInput struct {
	ConflictID string
	Strategy   conflict.Strategy
	WinnerID   string
	Notes      string
}

// CheckConsistencyInput is one client's claimed view of the session.
type CheckConsistencyInput struct {
	SessionID string
	View      *conflict.ClientView
}

// CheckConsistencyOutput lists every field where the client view
// disagrees with the server.
type CheckConsistencyOutput struct {
	Consistent    bool
	Discrepancies []*conflict.Discrepancy
}

// ForceSyncOutput is the authoritative snapshot a client rebuilds its
// local view from.
type ForceSyncOutput struct {
	SessionID   string
	SessionName string
	Round       int
	CurrentTurn *turn.Turn
	Queue       []*turn.Turn
	ServerTime  time.Time
}

// Stats summarizes a session's conflict history.
type Stats struct {
	SessionID      string
	ActiveTotal    int
	ResolvedTotal  int
	ActiveByType   map[conflict.Type]int
	ResolvedByType map[conflict.Type]int
	Active         []*conflict.Conflict
}

// ServiceConfig holds the sync service dependencies.
type ServiceConfig struct {
	TurnQueueService turnqueueSvc.Service
	CombatService    combatSvc.Service
	SessionRepo      sessionsRepo.Repository
	CharacterRepo    charactersRepo.Repository

	Roller             dice.Roller
	Clock              clock.Clock
	SimultaneityWindow time.Duration
}

type service struct {
	turnQueueService turnqueueSvc.Service
	combatService    combatSvc.Service
	sessionRepo      sessionsRepo.Repository
	characterRepo    charactersRepo.Repository

	store              *conflictStore
	roller             dice.Roller
	clock              clock.Clock
	simultaneityWindow time.Duration
}

// NewService creates a sync service.
func NewService(cfg *ServiceConfig) Service {
	if cfg.TurnQueueService == nil {
		panic("turn queue service is required")
	}
	if cfg.CombatService == nil {
		panic("combat service is required")
	}
	if cfg.SessionRepo == nil {
		panic("session repository is required")
	}
	if cfg.CharacterRepo == nil {
		panic("character repository is required")
	}

	svc := &service{
		turnQueueService:   cfg.TurnQueueService,
		combatService:      cfg.CombatService,
		sessionRepo:        cfg.SessionRepo,
		characterRepo:      cfg.CharacterRepo,
		store:              newConflictStore(),
		roller:             cfg.Roller,
		clock:              cfg.Clock,
		simultaneityWindow: cfg.SimultaneityWindow,
	}
	if svc.roller == nil {
		svc.roller = dice.NewCryptoRoller()
	}
	if svc.clock == nil {
		svc.clock = clock.New()
	}
	if svc.simultaneityWindow <= 0 {
		svc.simultaneityWindow = defaultSimultaneityWindow
	}
	return svc
}

func (s *service) DetectConflicts(ctx context.Context, input *DetectConflictsInput) (*DetectConflictsOutput, error) {
	if input == nil {
		return nil, errors.InvalidArgument("input cannot be nil")
	}
	if input.SessionID == "" {
		return nil, errors.InvalidArgument("session ID is required")
	}
	for _, a := range input.Actions {
		if a == nil || a.CharacterID == "" {
			return nil, errors.InvalidArgument("every action needs a character ID")
		}
	}

	now := s.clock.Now()
	var found []*conflict.Conflict

	// Same character acting twice inside the simultaneity window. Each
	// character's first action anchors the window.
	firstSeen := make(map[string]time.Time)
	for _, a := range input.Actions {
		submitted := a.SubmittedAt
		if submitted.IsZero() {
			submitted = now
		}
		anchor, seen := firstSeen[a.CharacterID]
		if !seen {
			firstSeen[a.CharacterID] = submitted
			continue
		}
		gap := submitted.Sub(anchor)
		if gap < 0 {
			gap = -gap
		}
		if gap < s.simultaneityWindow {
			found = append(found, &conflict.Conflict{
				SessionID:    input.SessionID,
				Type:         conflict.TypeSimultaneousAction,
				CharacterIDs: []string{a.CharacterID},
				Description:  fmt.Sprintf("character %s submitted multiple actions within %s", a.CharacterID, s.simultaneityWindow),
				DetectedAt:   now,
			})
		}
	}

	// Actions from characters that do not hold the active turn. A
	// session with no queue has no turn order to violate.
	if active := s.activeTurn(ctx, input.SessionID); active != nil {
		for _, a := range input.Actions {
			if a.CharacterID == active.CharacterID {
				continue
			}
			found = append(found, &conflict.Conflict{
				SessionID:    input.SessionID,
				Type:         conflict.TypeTurnOrderViolation,
				CharacterIDs: []string{a.CharacterID, active.CharacterID},
				Description:  fmt.Sprintf("character %s acted out of turn, the active turn belongs to %s", a.CharacterID, active.CharacterID),
				DetectedAt:   now,
			})
		}
	}

	// Two characters contesting the same target in one batch. The
	// first claimant is listed first, so first come first served
	// resolution favors them.
	claimed := make(map[string]string)
	for _, a := range input.Actions {
		if a.TargetID == "" || !a.Contested {
			continue
		}
		first, taken := claimed[a.TargetID]
		if !taken {
			claimed[a.TargetID] = a.CharacterID
			continue
		}
		if first == a.CharacterID {
			continue
		}
		found = append(found, &conflict.Conflict{
			SessionID:    input.SessionID,
			Type:         conflict.TypeResource,
			CharacterIDs: []string{first, a.CharacterID},
			TargetID:     a.TargetID,
			Description:  fmt.Sprintf("characters %s and %s are contesting target %s", first, a.CharacterID, a.TargetID),
			DetectedAt:   now,
		})
	}

	s.store.record(input.SessionID, found)
	if len(found) > 0 {
		log.Printf("[SYNC] Detected %d conflicts in session %s", len(found), input.SessionID)
	}

	return &DetectConflictsOutput{Conflicts: found}, nil
}

func (s *service) ResolveConflict(ctx context.Context, input *ResolveConflictInput) (*conflict.Conflict, error) {
	if input == nil {
		return nil, errors.InvalidArgument("input cannot be nil")
	}
	if input.ConflictID == "" {
		return nil, errors.InvalidArgument("conflict ID is required")
	}

	c, err := s.store.get(input.ConflictID)
	if err != nil {
		return nil, err
	}

	winner := ""
	switch input.Strategy {
	case conflict.StrategyFirstCome:
		if len(c.CharacterIDs) == 0 {
			return nil, errors.InvalidArgumentf("conflict %s involves no characters", c.ID)
		}
		winner = c.CharacterIDs[0]
	case conflict.StrategyInitiative:
		winner, err = s.resolveByInitiative(ctx, c)
		if err != nil {
			return nil, err
		}
	case conflict.StrategyReroll:
		winner, err = s.resolveByReroll(c)
		if err != nil {
			return nil, err
		}
	case conflict.StrategyDMDecision:
		if input.WinnerID == "" {
			return nil, errors.InvalidArgument("dm decision requires a winner")
		}
		if !involves(c, input.WinnerID) {
			return nil, errors.InvalidArgumentf("character %s is not involved in conflict %s", input.WinnerID, c.ID)
		}
		winner = input.WinnerID
	case conflict.StrategyCancelAll:
		// No winner, every involved action is dropped.
	default:
		return nil, errors.InvalidArgumentf("unknown resolution strategy %q", input.Strategy)
	}

	c.Resolution = &conflict.Resolution{
		Strategy:   input.Strategy,
		WinnerID:   winner,
		Notes:      input.Notes,
		ResolvedAt: s.clock.Now(),
	}
	s.store.settle(c)

	if winner != "" {
		log.Printf("[SYNC] Resolved conflict %s via %s in favor of %s", c.ID, input.Strategy, winner)
	} else {
		log.Printf("[SYNC] Resolved conflict %s via %s with no winner", c.ID, input.Strategy)
	}
	return c, nil
}

func (s *service) GetActiveConflicts(ctx context.Context, sessionID string) ([]*conflict.Conflict, error) {
	if sessionID == "" {
		return nil, errors.InvalidArgument("session ID is required")
	}
	return s.store.listActive(sessionID), nil
}

func (s *service) EnsureNoActiveConflicts(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return errors.InvalidArgument("session ID is required")
	}
	if n := len(s.store.listActive(sessionID)); n > 0 {
		return errors.ConflictDetectedf("session %s has %d unresolved conflicts", sessionID, n)
	}
	return nil
}

func (s *service) CheckStateConsistency(ctx context.Context, input *CheckConsistencyInput) (*CheckConsistencyOutput, error) {
	if input == nil {
		return nil, errors.InvalidArgument("input cannot be nil")
	}
	if input.SessionID == "" {
		return nil, errors.InvalidArgument("session ID is required")
	}
	if input.View == nil {
		return nil, errors.InvalidArgument("client view is required")
	}

	var discrepancies []*conflict.Discrepancy

	if q, err := s.turnQueueService.GetQueue(ctx, input.SessionID); err == nil {
		if active := q.ActiveTurn(); active != nil && input.View.CurrentTurnCharacterID != active.CharacterID {
			discrepancies = append(discrepancies, &conflict.Discrepancy{
				Field:    "current_turn",
				Client:   input.View.CurrentTurnCharacterID,
				Server:   active.CharacterID,
				Severity: conflict.SeverityCritical,
			})
		}
		if input.View.Round != q.Round {
			discrepancies = append(discrepancies, &conflict.Discrepancy{
				Field:    "round",
				Client:   strconv.Itoa(input.View.Round),
				Server:   strconv.Itoa(q.Round),
				Severity: conflict.SeverityCritical,
			})
		}
	}

	ids := make([]string, 0, len(input.View.CharacterHP))
	for id := range input.View.CharacterHP {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		claimed := input.View.CharacterHP[id]
		hp, known := s.serverHP(ctx, input.SessionID, id)
		if !known {
			discrepancies = append(discrepancies, &conflict.Discrepancy{
				Field:    "hp." + id,
				Client:   strconv.Itoa(claimed),
				Server:   "unknown character",
				Severity: conflict.SeverityWarning,
			})
			continue
		}
		if claimed != hp {
			discrepancies = append(discrepancies, &conflict.Discrepancy{
				Field:    "hp." + id,
				Client:   strconv.Itoa(claimed),
				Server:   strconv.Itoa(hp),
				Severity: conflict.SeverityWarning,
			})
		}
	}

	if len(discrepancies) > 0 {
		s.recordStateMismatch(input.SessionID, discrepancies)
		log.Printf("[SYNC] Session %s client view diverged in %d fields", input.SessionID, len(discrepancies))
	}

	return &CheckConsistencyOutput{
		Consistent:    len(discrepancies) == 0,
		Discrepancies: discrepancies,
	}, nil
}

func (s *service) ForceSync(ctx context.Context, sessionID string) (*ForceSyncOutput, error) {
	if sessionID == "" {
		return nil, errors.InvalidArgument("session ID is required")
	}

	sess, err := s.sessionRepo.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	out := &ForceSyncOutput{
		SessionID:   sessionID,
		SessionName: sess.Name,
		ServerTime:  s.clock.Now(),
	}

	q, err := s.turnQueueService.GetQueue(ctx, sessionID)
	if err != nil && !errors.IsNotFound(err) {
		return nil, err
	}
	if err == nil {
		out.Round = q.Round
		out.CurrentTurn = q.ActiveTurn()
		out.Queue = q.Turns
	}

	s.settleStateMismatches(sessionID)
	log.Printf("[SYNC] Forced resync for session %s", sessionID)
	return out, nil
}

func (s *service) GetSyncStats(ctx context.Context, sessionID string) (*Stats, error) {
	if sessionID == "" {
		return nil, errors.InvalidArgument("session ID is required")
	}

	active := s.store.listActive(sessionID)
	resolved := s.store.listResolved(sessionID)

	stats := &Stats{
		SessionID:      sessionID,
		ActiveTotal:    len(active),
		ResolvedTotal:  len(resolved),
		ActiveByType:   make(map[conflict.Type]int),
		ResolvedByType: make(map[conflict.Type]int),
		Active:         active,
	}
	for _, c := range active {
		stats.ActiveByType[c.Type]++
	}
	for _, c := range resolved {
		stats.ResolvedByType[c.Type]++
	}
	return stats, nil
}

// activeTurn returns the holder of the session's active turn, or nil
// when the session has no queue or sits between turns.
func (s *service) activeTurn(ctx context.Context, sessionID string) *turn.Turn {
	q, err := s.turnQueueService.GetQueue(ctx, sessionID)
	if err != nil {
		return nil
	}
	return q.ActiveTurn()
}

// resolveByInitiative awards the involved character with the highest
// initiative in the session's turn queue. On a tie the character
// listed first keeps the win; characters missing from the queue cannot
// win.
func (s *service) resolveByInitiative(ctx context.Context, c *conflict.Conflict) (string, error) {
	q, err := s.turnQueueService.GetQueue(ctx, c.SessionID)
	if err != nil {
		return "", errors.Wrap(err, "initiative order needs a turn queue")
	}

	winner := ""
	best := 0
	for _, id := range c.CharacterIDs {
		t := q.FindTurn(id)
		if t == nil {
			continue
		}
		if winner == "" || t.Initiative > best {
			winner = id
			best = t.Initiative
		}
	}
	if winner == "" {
		return "", errors.InvalidArgumentf("no character in conflict %s is in the turn queue", c.ID)
	}
	return winner, nil
}

// resolveByReroll picks uniformly among the involved characters using
// the table's roller.
func (s *service) resolveByReroll(c *conflict.Conflict) (string, error) {
	switch len(c.CharacterIDs) {
	case 0:
		return "", errors.InvalidArgumentf("conflict %s involves no characters", c.ID)
	case 1:
		return c.CharacterIDs[0], nil
	}

	roll, err := s.roller.Roll(1, len(c.CharacterIDs), 0)
	if err != nil {
		return "", err
	}
	return c.CharacterIDs[roll.Total-1], nil
}

// serverHP looks up the authoritative hit points for a character: the
// live encounter while one is running, the stored sheet otherwise.
func (s *service) serverHP(ctx context.Context, sessionID, characterID string) (int, bool) {
	if enc, err := s.combatService.GetEncounter(ctx, sessionID); err == nil {
		if cb := enc.FindCombatant(characterID); cb != nil {
			return cb.CurrentHP, true
		}
	}

	char, err := s.characterRepo.Get(ctx, characterID)
	if err != nil {
		return 0, false
	}
	return char.CurrentHP, true
}

// recordStateMismatch keeps at most one open state mismatch per
// session; later checks refresh it rather than piling up duplicates.
func (s *service) recordStateMismatch(sessionID string, discrepancies []*conflict.Discrepancy) {
	fields := make([]string, len(discrepancies))
	involved := make([]string, 0, len(discrepancies))
	for i, d := range discrepancies {
		fields[i] = d.Field
		if id, ok := strings.CutPrefix(d.Field, "hp."); ok {
			involved = append(involved, id)
		}
	}
	description := "client view diverges on " + strings.Join(fields, ", ")
	now := s.clock.Now()

	for _, c := range s.store.listActive(sessionID) {
		if c.Type == conflict.TypeStateMismatch {
			c.CharacterIDs = involved
			c.Description = description
			c.DetectedAt = now
			return
		}
	}

	s.store.record(sessionID, []*conflict.Conflict{{
		SessionID:    sessionID,
		Type:         conflict.TypeStateMismatch,
		CharacterIDs: involved,
		Description:  description,
		DetectedAt:   now,
	}})
}

// settleStateMismatches closes the session's open state mismatch
// conflicts with no winner.
func (s *service) settleStateMismatches(sessionID string) {
	now := s.clock.Now()
	for _, c := range s.store.listActive(sessionID) {
		if c.Type != conflict.TypeStateMismatch {
			continue
		}
		c.Resolution = &conflict.Resolution{
			Strategy:   conflict.StrategyCancelAll,
			Notes:      "superseded by forced resync",
			ResolvedAt: now,
		}
		s.store.settle(c)
	}
}

func involves(c *conflict.Conflict, characterID string) bool {
	for _, id := range c.CharacterIDs {
		if id == characterID {
			return true
		}
	}
	return false
}
