package presence

import (
	"context"
	"sort"
	"sync"

	"github.com/KirkDiggler/rpg-table/internal/domain/presence"
	"github.com/KirkDiggler/rpg-table/internal/errors"
)

type inMemoryRepository struct {
	mu sync.RWMutex
	// sessionID -> record key -> record
	sessions map[string]map[string]*presence.Record
}

// NewInMemoryRepository creates an in-memory presence repository for
// testing and local development.
func NewInMemoryRepository() Repository {
	return &inMemoryRepository{
		sessions: make(map[string]map[string]*presence.Record),
	}
}

func copyRecord(rec *presence.Record) *presence.Record {
	cp := *rec
	if rec.DisconnectedAt != nil {
		at := *rec.DisconnectedAt
		cp.DisconnectedAt = &at
	}
	return &cp
}

func (r *inMemoryRepository) Upsert(_ context.Context, rec *presence.Record) error {
	if rec == nil {
		return errors.InvalidArgument("presence record cannot be nil")
	}
	if rec.SessionID == "" {
		return errors.InvalidArgument("session ID cannot be empty")
	}
	if rec.PlayerID == "" || rec.ConnectionID == "" {
		return errors.InvalidArgument("player ID and connection ID cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	records, ok := r.sessions[rec.SessionID]
	if !ok {
		records = make(map[string]*presence.Record)
		r.sessions[rec.SessionID] = records
	}
	records[rec.Key()] = copyRecord(rec)
	return nil
}

func (r *inMemoryRepository) Get(_ context.Context, sessionID, playerID, connectionID string) (*presence.Record, error) {
	if sessionID == "" {
		return nil, errors.InvalidArgument("session ID cannot be empty")
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	field := playerID + ":" + connectionID
	rec, ok := r.sessions[sessionID][field]
	if !ok {
		return nil, errors.NotFoundf("no presence record for %s in session %s", field, sessionID)
	}
	return copyRecord(rec), nil
}

func (r *inMemoryRepository) ListBySession(_ context.Context, sessionID string) ([]*presence.Record, error) {
	if sessionID == "" {
		return nil, errors.InvalidArgument("session ID cannot be empty")
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	records := make([]*presence.Record, 0, len(r.sessions[sessionID]))
	for _, rec := range r.sessions[sessionID] {
		records = append(records, copyRecord(rec))
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].Key() < records[j].Key()
	})
	return records, nil
}

func (r *inMemoryRepository) Delete(_ context.Context, sessionID, playerID, connectionID string) error {
	if sessionID == "" {
		return errors.InvalidArgument("session ID cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	field := playerID + ":" + connectionID
	if _, ok := r.sessions[sessionID][field]; !ok {
		return errors.NotFoundf("no presence record for %s in session %s", field, sessionID)
	}
	delete(r.sessions[sessionID], field)
	return nil
}

func (r *inMemoryRepository) DeleteSession(_ context.Context, sessionID string) error {
	if sessionID == "" {
		return errors.InvalidArgument("session ID cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.sessions, sessionID)
	return nil
}
