package sync

import (
	"fmt"
	"sort"
	"sync"

	"github.com/KirkDiggler/rpg-table/internal/domain/conflict"
	"github.com/KirkDiggler/rpg-table/internal/errors"
)

// conflictStore keeps each session's unresolved conflicts and the
// resolved ones settled since the process started. The mutex guards
// the maps only; conflict records are mutated by the service under its
// single-writer-per-session contract.
type conflictStore struct {
	mu       sync.RWMutex
	counters map[string]int
	active   map[string]*conflict.Conflict
	resolved map[string][]*conflict.Conflict
}

func newConflictStore() *conflictStore {
	return &conflictStore{
		counters: make(map[string]int),
		active:   make(map[string]*conflict.Conflict),
		resolved: make(map[string][]*conflict.Conflict),
	}
}

// record assigns ids from the session's counter and files the
// conflicts as active. Counters never reset, so ids stay unique across
// batches for the life of the process.
func (s *conflictStore) record(sessionID string, conflicts []*conflict.Conflict) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, c := range conflicts {
		s.counters[sessionID]++
		c.ID = fmt.Sprintf("conflict_%s_%d", sessionID, s.counters[sessionID])
		s.active[c.ID] = c
	}
}

func (s *conflictStore) get(conflictID string) (*conflict.Conflict, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, exists := s.active[conflictID]
	if !exists {
		return nil, errors.NotFoundf("no active conflict %s", conflictID)
	}
	return c, nil
}

// settle moves a conflict out of the active set. The caller attaches
// the resolution before calling.
func (s *conflictStore) settle(c *conflict.Conflict) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.active, c.ID)
	s.resolved[c.SessionID] = append(s.resolved[c.SessionID], c)
}

// listActive returns the session's unresolved conflicts in detection
// order. Shorter ids sort first so the numeric suffix orders 10 after
// 9.
func (s *conflictStore) listActive(sessionID string) []*conflict.Conflict {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*conflict.Conflict
	for _, c := range s.active {
		if c.SessionID == sessionID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if len(out[i].ID) != len(out[j].ID) {
			return len(out[i].ID) < len(out[j].ID)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (s *conflictStore) listResolved(sessionID string) []*conflict.Conflict {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*conflict.Conflict, len(s.resolved[sessionID]))
	copy(out, s.resolved[sessionID])
	return out
}
