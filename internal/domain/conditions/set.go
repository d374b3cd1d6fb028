package conditions

// Set tracks the active conditions for one character. It carries no locking;
// the owning service serializes access per character.
type Set struct {
	CharacterID string       `json:"character_id"`
	Conditions  []*Condition `json:"conditions"`
}

// NewSet creates an empty condition set for a character
func NewSet(characterID string) *Set {
	return &Set{
		CharacterID: characterID,
		Conditions:  []*Condition{},
	}
}

// Apply adds a condition to the set. Reapplying a type that is already active
// keeps the longer remaining duration when both are rounds-based; instant
// conditions are returned but never retained.
func (s *Set) Apply(cond *Condition) *Condition {
	if cond.DurationKind == DurationInstant {
		return cond
	}

	if cond.DurationKind == DurationRounds {
		for _, existing := range s.Conditions {
			if existing.Type == cond.Type && existing.DurationKind == DurationRounds {
				if cond.RoundsRemaining > existing.RoundsRemaining {
					existing.RoundsRemaining = cond.RoundsRemaining
					existing.DurationValue = cond.DurationValue
					existing.Source = cond.Source
				}
				return existing
			}
		}
	}

	s.Conditions = append(s.Conditions, cond)
	return cond
}

// AdvanceRound ticks every rounds-based condition down by one and removes
// those that reach zero, returning them as expired this round.
func (s *Set) AdvanceRound() []*Condition {
	var expired []*Condition
	remaining := s.Conditions[:0]

	for _, cond := range s.Conditions {
		if cond.DurationKind == DurationRounds {
			cond.RoundsRemaining--
			if cond.RoundsRemaining <= 0 {
				expired = append(expired, cond)
				continue
			}
		}
		remaining = append(remaining, cond)
	}

	s.Conditions = remaining
	return expired
}

// Remove deletes every condition of the given type, returning what was removed
func (s *Set) Remove(t Type) []*Condition {
	var removed []*Condition
	remaining := s.Conditions[:0]

	for _, cond := range s.Conditions {
		if cond.Type == t {
			removed = append(removed, cond)
			continue
		}
		remaining = append(remaining, cond)
	}

	s.Conditions = remaining
	return removed
}

// Clear removes every condition and reports how many were dropped
func (s *Set) Clear() int {
	count := len(s.Conditions)
	s.Conditions = []*Condition{}
	return count
}

// Has reports whether a condition of the given type is active
func (s *Set) Has(t Type) bool {
	for _, cond := range s.Conditions {
		if cond.Type == t {
			return true
		}
	}
	return false
}

// Active returns a copy of the active condition list
func (s *Set) Active() []*Condition {
	out := make([]*Condition, len(s.Conditions))
	copy(out, s.Conditions)
	return out
}

// Effects merges every active condition into a single record. Flags union
// across conditions; speed overrides keep the most restrictive value.
func (s *Set) Effects() *Effect {
	effect := &Effect{
		CanAct:           true,
		CanMove:          true,
		ActiveConditions: []Type{},
	}

	immobile := false
	for _, cond := range s.Conditions {
		mergeType(effect, cond.Type)
		if immobilized(cond.Type) {
			immobile = true
		}
		effect.ActiveConditions = append(effect.ActiveConditions, cond.Type)
	}

	if effect.Incapacitated {
		effect.CanAct = false
	}
	if immobile || effect.Incapacitated {
		effect.CanMove = false
	}

	return effect
}
