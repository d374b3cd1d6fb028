package condition

//go:generate mockgen -destination=mock/mock_service.go -package=mockcondition -source=service.go

import (
	"log"
	"sync"

	"github.com/KirkDiggler/rpg-table/internal/clock"
	"github.com/KirkDiggler/rpg-table/internal/domain/conditions"
	"github.com/KirkDiggler/rpg-table/internal/errors"
	"github.com/KirkDiggler/rpg-table/internal/idgen"
)

// Service tracks status conditions per character and answers what they add
// up to mechanically.
type Service interface {
	// ApplyCondition puts a condition on a character. Reapplying a
	// rounds-based condition keeps the longer remaining duration.
	ApplyCondition(input *ApplyConditionInput) (*conditions.Condition, error)

	// AdvanceRound ticks rounds-based conditions for a character and returns
	// the ones that expired this round
	AdvanceRound(characterID string) []*conditions.Condition

	// GetConditions returns all active conditions for a character
	GetConditions(characterID string) []*conditions.Condition

	// HasCondition checks whether a character has a condition of the type
	HasCondition(characterID string, condType conditions.Type) bool

	// CheckEffects merges every active condition into one effect record
	CheckEffects(characterID string) *conditions.Effect

	// RemoveCondition removes all conditions of a type, e.g. on a successful
	// save, returning what was removed
	RemoveCondition(characterID string, condType conditions.Type) []*conditions.Condition

	// ClearAllConditions removes everything and reports how many were dropped
	ClearAllConditions(characterID string) int
}

// ApplyConditionInput contains data for applying a condition
type ApplyConditionInput struct {
	CharacterID   string
	Type          conditions.Type
	Source        string
	DurationKind  conditions.DurationKind
	DurationValue int
	SaveDC        int
	SaveAbility   string
}

type service struct {
	mu          sync.Mutex
	sets        map[string]*conditions.Set
	idGenerator idgen.Generator
	clock       clock.Clock
}

// ServiceConfig holds configuration for the service
type ServiceConfig struct {
	IDGenerator idgen.Generator
	Clock       clock.Clock
}

// NewService creates a new condition service
func NewService(cfg *ServiceConfig) Service {
	if cfg == nil {
		cfg = &ServiceConfig{}
	}

	svc := &service{
		sets:        make(map[string]*conditions.Set),
		idGenerator: cfg.IDGenerator,
		clock:       cfg.Clock,
	}

	if svc.idGenerator == nil {
		svc.idGenerator = idgen.NewUUID("cond")
	}
	if svc.clock == nil {
		svc.clock = clock.New()
	}

	return svc
}

func (s *service) ApplyCondition(input *ApplyConditionInput) (*conditions.Condition, error) {
	if input == nil {
		return nil, errors.InvalidArgument("apply condition input is required")
	}
	if input.CharacterID == "" {
		return nil, errors.InvalidArgument("character ID is required")
	}
	if !input.Type.IsValid() {
		return nil, errors.InvalidArgumentf("unknown condition type: %s", input.Type)
	}
	if !input.DurationKind.IsValid() {
		return nil, errors.InvalidArgumentf("unknown duration kind: %s", input.DurationKind)
	}
	if input.DurationKind == conditions.DurationRounds && input.DurationValue < 1 {
		return nil, errors.InvalidArgumentf("rounds duration must be at least 1, got %d", input.DurationValue)
	}

	cond := &conditions.Condition{
		ID:            s.idGenerator.Generate(),
		Type:          input.Type,
		Description:   input.Type.Description(),
		Source:        input.Source,
		DurationKind:  input.DurationKind,
		DurationValue: input.DurationValue,
		SaveDC:        input.SaveDC,
		SaveAbility:   input.SaveAbility,
		AppliedAt:     s.clock.Now(),
	}
	if input.DurationKind == conditions.DurationRounds {
		cond.RoundsRemaining = input.DurationValue
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	applied := s.getOrCreateSet(input.CharacterID).Apply(cond)
	log.Printf("[CONDITIONS] Applied %s to %s (duration: %s %d)",
		applied.Type, input.CharacterID, applied.DurationKind, applied.DurationValue)

	return applied, nil
}

func (s *service) AdvanceRound(characterID string) []*conditions.Condition {
	s.mu.Lock()
	defer s.mu.Unlock()

	set, exists := s.sets[characterID]
	if !exists {
		return nil
	}

	expired := set.AdvanceRound()
	for _, cond := range expired {
		log.Printf("[CONDITIONS] %s expired on %s", cond.Type, characterID)
	}
	return expired
}

func (s *service) GetConditions(characterID string) []*conditions.Condition {
	s.mu.Lock()
	defer s.mu.Unlock()

	set, exists := s.sets[characterID]
	if !exists {
		return nil
	}
	return set.Active()
}

func (s *service) HasCondition(characterID string, condType conditions.Type) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	set, exists := s.sets[characterID]
	if !exists {
		return false
	}
	return set.Has(condType)
}

func (s *service) CheckEffects(characterID string) *conditions.Effect {
	s.mu.Lock()
	defer s.mu.Unlock()

	set, exists := s.sets[characterID]
	if !exists {
		return conditions.NewSet(characterID).Effects()
	}
	return set.Effects()
}

func (s *service) RemoveCondition(characterID string, condType conditions.Type) []*conditions.Condition {
	s.mu.Lock()
	defer s.mu.Unlock()

	set, exists := s.sets[characterID]
	if !exists {
		return nil
	}

	removed := set.Remove(condType)
	if len(removed) > 0 {
		log.Printf("[CONDITIONS] Removed %s from %s", condType, characterID)
	}
	return removed
}

func (s *service) ClearAllConditions(characterID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	set, exists := s.sets[characterID]
	if !exists {
		return 0
	}

	count := set.Clear()
	if count > 0 {
		log.Printf("[CONDITIONS] Cleared %d conditions from %s", count, characterID)
	}
	return count
}

// getOrCreateSet must be called with the lock held
func (s *service) getOrCreateSet(characterID string) *conditions.Set {
	if set, exists := s.sets[characterID]; exists {
		return set
	}

	set := conditions.NewSet(characterID)
	s.sets[characterID] = set
	return set
}
