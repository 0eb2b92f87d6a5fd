package repository

import (
	"context"
	"sync"
	"time"

	"expertrait/internal/models"
)

type memoryEntry struct {
	state     *models.ViewerState
	expiresAt time.Time
}

// MemoryStateRepository is the in-process fallback store for viewer filter
// state. Entries expire lazily on read.
type MemoryStateRepository struct {
	states sync.Map
	ttl    time.Duration
}

func NewMemoryStateRepository(ttl time.Duration) *MemoryStateRepository {
	return &MemoryStateRepository{ttl: ttl}
}

func stateKey(role models.Role, viewerID string) string {
	return string(role) + ":" + viewerID
}

func (r *MemoryStateRepository) GetState(ctx context.Context, role models.Role, viewerID string) (*models.ViewerState, error) {
	val, ok := r.states.Load(stateKey(role, viewerID))
	if !ok {
		return nil, nil
	}
	entry := val.(*memoryEntry)
	if r.ttl > 0 && time.Now().After(entry.expiresAt) {
		r.states.Delete(stateKey(role, viewerID))
		return nil, nil
	}
	return entry.state, nil
}

func (r *MemoryStateRepository) SetState(ctx context.Context, state *models.ViewerState) error {
	r.states.Store(stateKey(state.Role, state.ViewerID), &memoryEntry{
		state:     state,
		expiresAt: time.Now().Add(r.ttl),
	})
	return nil
}

func (r *MemoryStateRepository) ClearState(ctx context.Context, role models.Role, viewerID string) error {
	r.states.Delete(stateKey(role, viewerID))
	return nil
}
