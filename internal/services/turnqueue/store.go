package turnqueue

import (
	"sync"

	"github.com/KirkDiggler/rpg-table/internal/domain/turn"
	"github.com/KirkDiggler/rpg-table/internal/errors"
)

// queueStore keeps at most one turn queue per session. The mutex
// guards the map only; queue state is mutated by the service under its
// single-writer-per-session contract.
type queueStore struct {
	mu     sync.RWMutex
	queues map[string]*turn.Queue
}

func newQueueStore() *queueStore {
	return &queueStore{
		queues: make(map[string]*turn.Queue),
	}
}

func (s *queueStore) create(sessionID string, q *turn.Queue) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.queues[sessionID]; exists {
		return errors.AlreadyExistsf("session %s already has a turn queue", sessionID)
	}
	s.queues[sessionID] = q
	return nil
}

func (s *queueStore) get(sessionID string) (*turn.Queue, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	q, exists := s.queues[sessionID]
	if !exists {
		return nil, errors.NotFoundf("no turn queue in session %s", sessionID)
	}
	return q, nil
}

func (s *queueStore) delete(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.queues, sessionID)
}

func (s *queueStore) sessionIDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.queues))
	for id := range s.queues {
		ids = append(ids, id)
	}
	return ids
}
