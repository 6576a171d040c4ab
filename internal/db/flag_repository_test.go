package db

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/udisondev/villagerloot/internal/settings"
)

var _ settings.Storage = (*FlagRepository)(nil)

func TestFlagRepository_LoadMissing(t *testing.T) {
	repo := NewFlagRepository(setupTestDB(t))

	v, ok, err := repo.LoadFlag(context.Background(), settings.KeyNBTDropEnabled)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.False(t, v)
}

func TestFlagRepository_SaveAndOverwrite(t *testing.T) {
	ctx := context.Background()
	repo := NewFlagRepository(setupTestDB(t))

	require.NoError(t, repo.SaveFlag(ctx, settings.KeyNBTDropEnabled, false))
	v, ok, err := repo.LoadFlag(ctx, settings.KeyNBTDropEnabled)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.False(t, v)

	require.NoError(t, repo.SaveFlag(ctx, settings.KeyNBTDropEnabled, true))
	v, ok, err = repo.LoadFlag(ctx, settings.KeyNBTDropEnabled)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, v)
}

func TestFlagRepository_DeletePrefix(t *testing.T) {
	ctx := context.Background()
	repo := NewFlagRepository(setupTestDB(t))

	require.NoError(t, repo.SaveFlag(ctx, settings.PlayerKey("p1"), false))
	require.NoError(t, repo.SaveFlag(ctx, settings.PlayerKey("p2"), true))
	require.NoError(t, repo.SaveFlag(ctx, settings.KeyBabyDropApplyAll, true))
	// same stem without the separator is not a player key
	require.NoError(t, repo.SaveFlag(ctx, "villagerloot:babyDropX", true))

	n, err := repo.DeletePrefix(ctx, settings.PlayerKeyPrefix)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	_, ok, err := repo.LoadFlag(ctx, settings.KeyBabyDropApplyAll)
	require.NoError(t, err)
	assert.True(t, ok, "world flags survive a player prefix delete")

	_, err = repo.DeletePrefix(ctx, "")
	assert.Error(t, err)
}

func TestFlagRepository_BacksSettingsStore(t *testing.T) {
	ctx := context.Background()
	repo := NewFlagRepository(setupTestDB(t))

	s := settings.NewStore(repo)
	require.NoError(t, s.Load(ctx))
	require.NoError(t, s.SetPlayerBabyDrop(ctx, "p1", false))
	require.NoError(t, s.SetNBTDrop(ctx, false))

	reloaded := settings.NewStore(repo)
	require.NoError(t, reloaded.Load(ctx))
	assert.False(t, reloaded.NBTDropEnabled(ctx))
	assert.False(t, reloaded.BabyDropEnabled(ctx, "p1"))

	require.NoError(t, reloaded.SetApplyAll(ctx, false))
	_, ok, err := repo.LoadFlag(ctx, settings.PlayerKey("p1"))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, `a\_b\%c\\d`, escapeLike(`a_b%c\d`))
}
