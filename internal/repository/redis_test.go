package repository

import (
	"context"
	"testing"
	"time"

	"expertrait/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisRepo(t *testing.T, ttl time.Duration) (*RedisStateRepository, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisStateRepository(client, ttl), mr
}

func TestRedisStateRepository(t *testing.T) {
	ctx := context.Background()
	repo, mr := newRedisRepo(t, time.Hour)

	state := &models.ViewerState{
		Role:     models.RoleHandler,
		ViewerID: "h-1",
		Filter:   models.FilterState{SearchTerm: "clean", StatusFilter: "confirmed", DateFilter: models.DateFilterToday},
	}

	t.Run("get missing returns nil", func(t *testing.T) {
		got, err := repo.GetState(ctx, models.RoleHandler, "nobody")
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("set and get", func(t *testing.T) {
		require.NoError(t, repo.SetState(ctx, state))

		got, err := repo.GetState(ctx, models.RoleHandler, "h-1")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, state.Filter, got.Filter)
	})

	t.Run("states are keyed by role and viewer", func(t *testing.T) {
		got, err := repo.GetState(ctx, models.RoleCustomer, "h-1")
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("ttl applies", func(t *testing.T) {
		require.NoError(t, repo.SetState(ctx, state))
		mr.FastForward(2 * time.Hour)

		got, err := repo.GetState(ctx, models.RoleHandler, "h-1")
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("clear", func(t *testing.T) {
		require.NoError(t, repo.SetState(ctx, state))
		require.NoError(t, repo.ClearState(ctx, models.RoleHandler, "h-1"))

		got, err := repo.GetState(ctx, models.RoleHandler, "h-1")
		require.NoError(t, err)
		assert.Nil(t, got)
	})
}

func TestRedisStateRepositoryNilClient(t *testing.T) {
	repo := NewRedisStateRepository(nil, time.Hour)
	ctx := context.Background()

	_, err := repo.GetState(ctx, models.RoleHandler, "h-1")
	assert.Error(t, err)
	assert.Error(t, repo.SetState(ctx, &models.ViewerState{}))
	assert.Error(t, repo.ClearState(ctx, models.RoleHandler, "h-1"))
}
