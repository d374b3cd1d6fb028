package combat

import (
	"sync"

	"github.com/KirkDiggler/rpg-table/internal/domain/combat"
	"github.com/KirkDiggler/rpg-table/internal/errors"
)

// encounterStore keeps at most one live encounter per session. The
// mutex guards the map only; encounter state itself is mutated by the
// service under its single-writer-per-session contract.
type encounterStore struct {
	mu         sync.RWMutex
	encounters map[string]*combat.Encounter
}

func newEncounterStore() *encounterStore {
	return &encounterStore{
		encounters: make(map[string]*combat.Encounter),
	}
}

func (s *encounterStore) create(sessionID string, enc *combat.Encounter) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.encounters[sessionID]; exists {
		return errors.AlreadyExistsf("session %s already has an active encounter", sessionID)
	}
	s.encounters[sessionID] = enc
	return nil
}

func (s *encounterStore) get(sessionID string) (*combat.Encounter, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	enc, exists := s.encounters[sessionID]
	if !exists {
		return nil, errors.NotFoundf("no active encounter in session %s", sessionID)
	}
	return enc, nil
}

func (s *encounterStore) delete(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.encounters, sessionID)
}

func (s *encounterStore) sessionIDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.encounters))
	for id := range s.encounters {
		ids = append(ids, id)
	}
	return ids
}
