package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"expertrait/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type flakyStateRepository struct {
	inner *MemoryStateRepository
	fail  bool
	calls int
}

func (f *flakyStateRepository) GetState(ctx context.Context, role models.Role, viewerID string) (*models.ViewerState, error) {
	f.calls++
	if f.fail {
		return nil, errors.New("connection refused")
	}
	return f.inner.GetState(ctx, role, viewerID)
}

func (f *flakyStateRepository) SetState(ctx context.Context, state *models.ViewerState) error {
	f.calls++
	if f.fail {
		return errors.New("connection refused")
	}
	return f.inner.SetState(ctx, state)
}

func (f *flakyStateRepository) ClearState(ctx context.Context, role models.Role, viewerID string) error {
	f.calls++
	if f.fail {
		return errors.New("connection refused")
	}
	return f.inner.ClearState(ctx, role, viewerID)
}

func TestFailoverStateRepository(t *testing.T) {
	ctx := context.Background()
	logger := zerolog.Nop()

	state := &models.ViewerState{Role: models.RoleCustomer, ViewerID: "c-1", Filter: models.DefaultFilterState()}

	t.Run("healthy primary is used", func(t *testing.T) {
		primary := &flakyStateRepository{inner: NewMemoryStateRepository(time.Hour)}
		repo := NewFailoverStateRepository(primary, NewMemoryStateRepository(time.Hour), &logger)

		require.NoError(t, repo.SetState(ctx, state))
		got, err := repo.GetState(ctx, models.RoleCustomer, "c-1")
		require.NoError(t, err)
		assert.NotNil(t, got)
		assert.Equal(t, 2, primary.calls)
	})

	t.Run("falls back when primary fails", func(t *testing.T) {
		primary := &flakyStateRepository{inner: NewMemoryStateRepository(time.Hour), fail: true}
		fallback := NewMemoryStateRepository(time.Hour)
		repo := NewFailoverStateRepository(primary, fallback, &logger)

		require.NoError(t, repo.SetState(ctx, state))

		got, err := repo.GetState(ctx, models.RoleCustomer, "c-1")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, state.Filter, got.Filter)
	})

	t.Run("primary not hammered while down", func(t *testing.T) {
		primary := &flakyStateRepository{inner: NewMemoryStateRepository(time.Hour), fail: true}
		repo := NewFailoverStateRepository(primary, NewMemoryStateRepository(time.Hour), &logger)

		_, _ = repo.GetState(ctx, models.RoleCustomer, "c-1")
		callsAfterFirst := primary.calls
		_, _ = repo.GetState(ctx, models.RoleCustomer, "c-1")
		_, _ = repo.GetState(ctx, models.RoleCustomer, "c-1")

		// Within the cooldown the primary should not see further traffic.
		assert.Equal(t, callsAfterFirst, primary.calls)
	})

	t.Run("recovers after cooldown", func(t *testing.T) {
		primary := &flakyStateRepository{inner: NewMemoryStateRepository(time.Hour), fail: true}
		repo := NewFailoverStateRepository(primary, NewMemoryStateRepository(time.Hour), &logger)

		_, _ = repo.GetState(ctx, models.RoleCustomer, "c-1")
		assert.True(t, repo.isDown.Load())

		primary.fail = false
		require.NoError(t, primary.inner.SetState(ctx, state))
		repo.lastCheck.Store(time.Now().Add(-2 * time.Minute).UnixNano())

		got, err := repo.GetState(ctx, models.RoleCustomer, "c-1")
		require.NoError(t, err)
		assert.NotNil(t, got)
		assert.False(t, repo.isDown.Load())
	})
}

func TestMemoryStateRepositoryTTL(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryStateRepository(time.Millisecond)

	state := &models.ViewerState{Role: models.RoleHandler, ViewerID: "h-9", Filter: models.DefaultFilterState()}
	require.NoError(t, repo.SetState(ctx, state))

	time.Sleep(5 * time.Millisecond)

	got, err := repo.GetState(ctx, models.RoleHandler, "h-9")
	require.NoError(t, err)
	assert.Nil(t, got)
}
