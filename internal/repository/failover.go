package repository

import (
	"context"
	"sync/atomic"
	"time"

	"expertrait/internal/domain"
	"expertrait/internal/models"

	"github.com/rs/zerolog"
)

// FailoverStateRepository serves filter state from a primary store (Redis)
// and falls back to an in-memory store when the primary is unreachable,
// probing for recovery after a cooldown.
type FailoverStateRepository struct {
	primary   domain.StateRepository
	fallback  domain.StateRepository
	logger    *zerolog.Logger
	isDown    atomic.Bool
	lastCheck atomic.Int64
}

const recoveryCooldown = time.Minute

func NewFailoverStateRepository(primary, fallback domain.StateRepository, logger *zerolog.Logger) *FailoverStateRepository {
	return &FailoverStateRepository{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
	}
}

func (r *FailoverStateRepository) markDown(err error) {
	r.logger.Error().Err(err).Msg("primary state repository failed, falling back to memory")
	r.isDown.Store(true)
	r.lastCheck.Store(time.Now().UnixNano())
}

func (r *FailoverStateRepository) shouldProbe() bool {
	return r.isDown.Load() && time.Since(time.Unix(0, r.lastCheck.Load())) > recoveryCooldown
}

func (r *FailoverStateRepository) GetState(ctx context.Context, role models.Role, viewerID string) (*models.ViewerState, error) {
	if !r.isDown.Load() {
		state, err := r.primary.GetState(ctx, role, viewerID)
		if err == nil {
			return state, nil
		}
		r.markDown(err)
	}

	if r.shouldProbe() {
		state, err := r.primary.GetState(ctx, role, viewerID)
		if err == nil {
			r.isDown.Store(false)
			return state, nil
		}
		r.lastCheck.Store(time.Now().UnixNano())
	}

	return r.fallback.GetState(ctx, role, viewerID)
}

func (r *FailoverStateRepository) SetState(ctx context.Context, state *models.ViewerState) error {
	if !r.isDown.Load() {
		err := r.primary.SetState(ctx, state)
		if err == nil {
			return nil
		}
		r.markDown(err)
	}

	return r.fallback.SetState(ctx, state)
}

func (r *FailoverStateRepository) ClearState(ctx context.Context, role models.Role, viewerID string) error {
	if !r.isDown.Load() {
		err := r.primary.ClearState(ctx, role, viewerID)
		if err == nil {
			return nil
		}
		r.markDown(err)
	}

	return r.fallback.ClearState(ctx, role, viewerID)
}
