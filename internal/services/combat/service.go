// Package combat runs encounters: initiative, turn cycling, attack
// resolution, and hit point bookkeeping.
package combat

//go:generate mockgen -destination=mock/mock_service.go -package=mockcombat -source=service.go

import (
	"context"
	"log"

	"github.com/KirkDiggler/rpg-table/internal/clock"
	"github.com/KirkDiggler/rpg-table/internal/dice"
	"github.com/KirkDiggler/rpg-table/internal/domain/character"
	"github.com/KirkDiggler/rpg-table/internal/domain/combat"
	"github.com/KirkDiggler/rpg-table/internal/errors"
	"github.com/KirkDiggler/rpg-table/internal/idgen"
)

// Service runs one encounter per session. Calls for different
// sessions are independent; within a session the caller serializes
// writes, per the table coordinator's one-writer contract.
type Service interface {
	// StartCombat rolls initiative for every character and opens an
	// encounter for the session.
	StartCombat(ctx context.Context, input *StartCombatInput) (*StartCombatOutput, error)

	// NextTurn advances to the next living combatant, or ends the
	// encounter when at most one remains alive.
	NextTurn(ctx context.Context, sessionID string) (*NextTurnOutput, error)

	// ResolveAttack rolls an attack against a target's armor class and
	// applies damage on a hit. Critical hits double the damage dice.
	ResolveAttack(ctx context.Context, input *ResolveAttackInput) (*ResolveAttackOutput, error)

	// ApplyDamage deals flat damage to a combatant, from traps, spells,
	// or DM rulings.
	ApplyDamage(ctx context.Context, input *ApplyDamageInput) (*ApplyDamageOutput, error)

	// ApplyHealing restores hit points, capped at the combatant's max.
	ApplyHealing(ctx context.Context, input *ApplyHealingInput) (*ApplyHealingOutput, error)

	// EndCombat discards the session's encounter regardless of state.
	EndCombat(ctx context.Context, sessionID string) error

	// GetEncounter returns the session's live encounter.
	GetEncounter(ctx context.Context, sessionID string) (*combat.Encounter, error)

	// GetInitiativeOrder returns the turn order with HP status.
	GetInitiativeOrder(ctx context.Context, sessionID string) ([]*InitiativeEntry, error)

	// ActiveSessionIDs lists sessions that currently have an encounter.
	ActiveSessionIDs(ctx context.Context) ([]string, error)
}

// StartCombatInput names the session and the characters fighting.
type StartCombatInput struct {
	SessionID  string
	Characters []*character.Character
}

// StartCombatOutput carries the opened encounter, already in
// initiative order.
type StartCombatOutput struct {
	Encounter *combat.Encounter
}

// NextTurnOutput reports either the combatant now acting or the end of
// the encounter.
type NextTurnOutput struct {
	CombatEnded bool
	Winner      *combat.Combatant
	Active      *combat.Combatant
	Round       int
	NewRound    bool
}

// ResolveAttackInput describes one attack. Mode defaults to a normal
// roll when empty.
type ResolveAttackInput struct {
	SessionID     string
	AttackerID    string
	TargetID      string
	AttackBonus   int
	DamageFormula string
	Mode          dice.AdvantageMode
}

// ResolveAttackOutput carries the attack roll and, on a hit, the
// damage applied.
type ResolveAttackOutput struct {
	Attack         *dice.AttackResult
	DamageRoll     *dice.RollResult
	DamageDealt    int
	TargetHP       int
	TargetDefeated bool
}

// ApplyDamageInput deals Amount damage to the target.
type ApplyDamageInput struct {
	SessionID string
	TargetID  string
	Amount    int
	SourceID  string
}

// ApplyDamageOutput reports the damage actually taken after flooring
// at zero HP.
type ApplyDamageOutput struct {
	DamageTaken int
	CurrentHP   int
	Defeated    bool
}

// ApplyHealingInput restores Amount HP to the target.
type ApplyHealingInput struct {
	SessionID string
	TargetID  string
	Amount    int
	SourceID  string
}

// ApplyHealingOutput reports the HP actually restored after capping at
// the target's max.
type ApplyHealingOutput struct {
	Healed    int
	CurrentHP int
}

// InitiativeEntry is one row of the turn order display.
type InitiativeEntry struct {
	CharacterID string `json:"character_id"`
	Name        string `json:"name"`
	Initiative  int    `json:"initiative"`
	CurrentHP   int    `json:"current_hp"`
	MaxHP       int    `json:"max_hp"`
	Alive       bool   `json:"alive"`
	Current     bool   `json:"current"`
}

type service struct {
	store       *encounterStore
	roller      dice.Roller
	idGenerator idgen.Generator
	clock       clock.Clock
}

// ServiceConfig holds configuration for the service. Every field has
// a production default.
type ServiceConfig struct {
	Roller      dice.Roller
	IDGenerator idgen.Generator
	Clock       clock.Clock
}

// NewService creates a new combat service.
func NewService(cfg *ServiceConfig) Service {
	svc := &service{
		store: newEncounterStore(),
	}

	if cfg != nil && cfg.Roller != nil {
		svc.roller = cfg.Roller
	} else {
		svc.roller = dice.NewCryptoRoller()
	}
	if cfg != nil && cfg.IDGenerator != nil {
		svc.idGenerator = cfg.IDGenerator
	} else {
		svc.idGenerator = idgen.NewUUID("enc")
	}
	if cfg != nil && cfg.Clock != nil {
		svc.clock = cfg.Clock
	} else {
		svc.clock = clock.New()
	}

	return svc
}

func (s *service) StartCombat(ctx context.Context, input *StartCombatInput) (*StartCombatOutput, error) {
	if input == nil {
		return nil, errors.InvalidArgument("input cannot be nil")
	}
	if input.SessionID == "" {
		return nil, errors.InvalidArgument("session ID is required")
	}
	if len(input.Characters) < 2 {
		return nil, errors.InvalidArgumentf("combat requires at least 2 combatants, got %d", len(input.Characters))
	}

	seen := make(map[string]bool, len(input.Characters))
	combatants := make([]*combat.Combatant, 0, len(input.Characters))
	for _, c := range input.Characters {
		if err := c.Validate(); err != nil {
			return nil, errors.Wrap(err, "invalid combatant")
		}
		if seen[c.ID] {
			return nil, errors.InvalidArgumentf("duplicate combatant %s", c.ID)
		}
		seen[c.ID] = true

		roll, err := s.roller.Roll(1, 20, c.InitiativeModifier())
		if err != nil {
			return nil, errors.Wrap(err, "failed to roll initiative")
		}

		combatants = append(combatants, &combat.Combatant{
			CharacterID: c.ID,
			Name:        c.Name,
			Initiative:  roll.Total,
			Dexterity:   c.Abilities.Dexterity,
			CurrentHP:   c.CurrentHP,
			MaxHP:       c.MaxHP,
			ArmorClass:  c.ArmorClass,
		})
	}

	enc := combat.NewEncounter(s.idGenerator.Generate(), input.SessionID, combatants, s.clock.Now())

	order := make([]string, len(enc.Combatants))
	for i, c := range enc.Combatants {
		order[i] = c.CharacterID
	}
	enc.AddLogEntry(&combat.LogEntry{
		Type:      combat.LogEventCombatStart,
		Timestamp: s.clock.Now(),
		Order:     order,
	})

	if err := s.store.create(input.SessionID, enc); err != nil {
		return nil, err
	}

	log.Printf("[COMBAT] Started encounter %s in session %s with %d combatants", enc.ID, input.SessionID, len(enc.Combatants))
	return &StartCombatOutput{Encounter: enc}, nil
}

func (s *service) NextTurn(ctx context.Context, sessionID string) (*NextTurnOutput, error) {
	enc, err := s.store.get(sessionID)
	if err != nil {
		return nil, err
	}

	if enc.AliveCount() <= 1 {
		winner := enc.LastStanding()
		entry := &combat.LogEntry{
			Type:      combat.LogEventVictory,
			Timestamp: s.clock.Now(),
		}
		if winner != nil {
			entry.ActorID = winner.CharacterID
		}
		enc.AddLogEntry(entry)
		s.store.delete(sessionID)

		if winner != nil {
			log.Printf("[COMBAT] Encounter %s over, %s is the last one standing", enc.ID, winner.Name)
		} else {
			log.Printf("[COMBAT] Encounter %s over with no survivors", enc.ID)
		}
		return &NextTurnOutput{CombatEnded: true, Winner: winner, Round: enc.Round}, nil
	}

	next, newRound := enc.AdvanceTurn()
	if newRound {
		enc.AddLogEntry(&combat.LogEntry{
			Type:      combat.LogEventRoundStart,
			Timestamp: s.clock.Now(),
		})
	}

	return &NextTurnOutput{
		Active:   next,
		Round:    enc.Round,
		NewRound: newRound,
	}, nil
}

func (s *service) ResolveAttack(ctx context.Context, input *ResolveAttackInput) (*ResolveAttackOutput, error) {
	if input == nil {
		return nil, errors.InvalidArgument("input cannot be nil")
	}
	if input.SessionID == "" {
		return nil, errors.InvalidArgument("session ID is required")
	}

	formula, err := dice.ParseFormula(input.DamageFormula)
	if err != nil {
		return nil, errors.Wrap(err, "invalid damage formula")
	}

	enc, err := s.store.get(input.SessionID)
	if err != nil {
		return nil, err
	}

	attacker := enc.FindCombatant(input.AttackerID)
	if attacker == nil {
		return nil, errors.NotFoundf("attacker %s is not in the encounter", input.AttackerID)
	}
	target := enc.FindCombatant(input.TargetID)
	if target == nil {
		return nil, errors.NotFoundf("target %s is not in the encounter", input.TargetID)
	}
	if !attacker.IsAlive() {
		return nil, errors.InvalidArgumentf("attacker %s is defeated", input.AttackerID)
	}
	if !target.IsAlive() {
		return nil, errors.InvalidArgumentf("target %s is already defeated", input.TargetID)
	}

	mode := input.Mode
	if mode == "" {
		mode = dice.ModeNormal
	}

	attack, err := dice.ResolveAttack(s.roller, input.AttackBonus, target.ArmorClass, mode)
	if err != nil {
		return nil, errors.Wrap(err, "failed to roll attack")
	}

	enc.AddLogEntry(&combat.LogEntry{
		Type:      combat.LogEventAttack,
		Timestamp: s.clock.Now(),
		ActorID:   attacker.CharacterID,
		TargetID:  target.CharacterID,
		Attack:    attack,
	})
	attacker.HasActed = true

	output := &ResolveAttackOutput{
		Attack:   attack,
		TargetHP: target.CurrentHP,
	}
	if !attack.Hit {
		return output, nil
	}

	damageRoll, err := dice.RollDamage(s.roller, formula, attack.IsCritical)
	if err != nil {
		return nil, errors.Wrap(err, "failed to roll damage")
	}

	dealt := target.ApplyDamage(damageRoll.Total)
	enc.AddLogEntry(&combat.LogEntry{
		Type:      combat.LogEventDamage,
		Timestamp: s.clock.Now(),
		ActorID:   attacker.CharacterID,
		TargetID:  target.CharacterID,
		Roll:      damageRoll,
		Amount:    dealt,
	})

	output.DamageRoll = damageRoll
	output.DamageDealt = dealt
	output.TargetHP = target.CurrentHP
	output.TargetDefeated = !target.IsAlive()

	if output.TargetDefeated {
		enc.AddLogEntry(&combat.LogEntry{
			Type:      combat.LogEventDefeat,
			Timestamp: s.clock.Now(),
			ActorID:   attacker.CharacterID,
			TargetID:  target.CharacterID,
		})
		log.Printf("[COMBAT] %s defeated %s in encounter %s", attacker.Name, target.Name, enc.ID)
	}

	return output, nil
}

func (s *service) ApplyDamage(ctx context.Context, input *ApplyDamageInput) (*ApplyDamageOutput, error) {
	if input == nil {
		return nil, errors.InvalidArgument("input cannot be nil")
	}
	if input.Amount < 0 {
		return nil, errors.InvalidArgumentf("damage amount cannot be negative, got %d", input.Amount)
	}

	enc, err := s.store.get(input.SessionID)
	if err != nil {
		return nil, err
	}

	target := enc.FindCombatant(input.TargetID)
	if target == nil {
		return nil, errors.NotFoundf("target %s is not in the encounter", input.TargetID)
	}

	wasAlive := target.IsAlive()
	taken := target.ApplyDamage(input.Amount)
	enc.AddLogEntry(&combat.LogEntry{
		Type:      combat.LogEventDamage,
		Timestamp: s.clock.Now(),
		ActorID:   input.SourceID,
		TargetID:  target.CharacterID,
		Amount:    taken,
	})

	defeated := wasAlive && !target.IsAlive()
	if defeated {
		enc.AddLogEntry(&combat.LogEntry{
			Type:      combat.LogEventDefeat,
			Timestamp: s.clock.Now(),
			ActorID:   input.SourceID,
			TargetID:  target.CharacterID,
		})
	}

	return &ApplyDamageOutput{
		DamageTaken: taken,
		CurrentHP:   target.CurrentHP,
		Defeated:    defeated,
	}, nil
}

func (s *service) ApplyHealing(ctx context.Context, input *ApplyHealingInput) (*ApplyHealingOutput, error) {
	if input == nil {
		return nil, errors.InvalidArgument("input cannot be nil")
	}
	if input.Amount < 0 {
		return nil, errors.InvalidArgumentf("healing amount cannot be negative, got %d", input.Amount)
	}

	enc, err := s.store.get(input.SessionID)
	if err != nil {
		return nil, err
	}

	target := enc.FindCombatant(input.TargetID)
	if target == nil {
		return nil, errors.NotFoundf("target %s is not in the encounter", input.TargetID)
	}

	healed := target.Heal(input.Amount)
	enc.AddLogEntry(&combat.LogEntry{
		Type:      combat.LogEventHealing,
		Timestamp: s.clock.Now(),
		ActorID:   input.SourceID,
		TargetID:  target.CharacterID,
		Amount:    healed,
	})

	return &ApplyHealingOutput{
		Healed:    healed,
		CurrentHP: target.CurrentHP,
	}, nil
}

func (s *service) EndCombat(ctx context.Context, sessionID string) error {
	enc, err := s.store.get(sessionID)
	if err != nil {
		return err
	}

	enc.AddLogEntry(&combat.LogEntry{
		Type:      combat.LogEventCombatEnd,
		Timestamp: s.clock.Now(),
	})
	s.store.delete(sessionID)

	log.Printf("[COMBAT] Encounter %s in session %s ended after %d rounds", enc.ID, sessionID, enc.Round)
	return nil
}

func (s *service) GetEncounter(ctx context.Context, sessionID string) (*combat.Encounter, error) {
	return s.store.get(sessionID)
}

func (s *service) GetInitiativeOrder(ctx context.Context, sessionID string) ([]*InitiativeEntry, error) {
	enc, err := s.store.get(sessionID)
	if err != nil {
		return nil, err
	}

	entries := make([]*InitiativeEntry, len(enc.Combatants))
	for i, c := range enc.Combatants {
		entries[i] = &InitiativeEntry{
			CharacterID: c.CharacterID,
			Name:        c.Name,
			Initiative:  c.Initiative,
			CurrentHP:   c.CurrentHP,
			MaxHP:       c.MaxHP,
			Alive:       c.IsAlive(),
			Current:     i == enc.TurnIndex,
		}
	}
	return entries, nil
}

func (s *service) ActiveSessionIDs(ctx context.Context) ([]string, error) {
	return s.store.sessionIDs(), nil
}
