package settings

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errBoom = errors.New("boom")

// flakyStorage wraps MemoryStorage and fails selected operations.
type flakyStorage struct {
	*MemoryStorage
	failLoad   bool
	failSave   map[string]bool
	failDelete bool
	loads      int
}

func newFlakyStorage() *flakyStorage {
	return &flakyStorage{MemoryStorage: NewMemoryStorage(), failSave: make(map[string]bool)}
}

func (f *flakyStorage) LoadFlag(ctx context.Context, key string) (bool, bool, error) {
	f.loads++
	if f.failLoad {
		return false, false, errBoom
	}
	return f.MemoryStorage.LoadFlag(ctx, key)
}

func (f *flakyStorage) SaveFlag(ctx context.Context, key string, value bool) error {
	if f.failSave[key] {
		return errBoom
	}
	return f.MemoryStorage.SaveFlag(ctx, key, value)
}

func (f *flakyStorage) DeletePrefix(ctx context.Context, prefix string) (int64, error) {
	if f.failDelete {
		return 0, errBoom
	}
	return f.MemoryStorage.DeletePrefix(ctx, prefix)
}

func TestStore_DefaultsWhenStorageEmpty(t *testing.T) {
	ctx := context.Background()
	s := NewStore(NewMemoryStorage())
	require.NoError(t, s.Load(ctx))

	assert.Equal(t, DefaultFlags(), s.Flags(ctx))
	assert.True(t, s.NBTDropEnabled(ctx))
	assert.True(t, s.BabyDropEnabled(ctx, "p1"))
}

func TestStore_LoadReadsPersistedFlags(t *testing.T) {
	ctx := context.Background()
	mem := NewMemoryStorage()
	require.NoError(t, mem.SaveFlag(ctx, KeyBabyDropApplyAll, false))
	require.NoError(t, mem.SaveFlag(ctx, KeyBabyDropEnabled, false))
	require.NoError(t, mem.SaveFlag(ctx, KeyNBTDropEnabled, false))

	s := NewStore(mem)
	require.NoError(t, s.Load(ctx))

	assert.Equal(t, Flags{}, s.Flags(ctx))
}

func TestStore_LoadIsLazyAndIdempotent(t *testing.T) {
	ctx := context.Background()
	st := newFlakyStorage()
	s := NewStore(st)

	require.NoError(t, s.Load(ctx))
	loads := st.loads
	require.NoError(t, s.Load(ctx))
	assert.Equal(t, loads, st.loads, "second Load must not hit storage")
}

func TestStore_LoadErrorKeepsDefaultsAndRetries(t *testing.T) {
	ctx := context.Background()
	st := newFlakyStorage()
	require.NoError(t, st.MemoryStorage.SaveFlag(ctx, KeyNBTDropEnabled, false))
	st.failLoad = true

	s := NewStore(st)
	err := s.Load(ctx)
	require.ErrorIs(t, err, ErrStorage)
	assert.Equal(t, DefaultFlags(), s.Flags(ctx))

	// storage is back: the next read loads the persisted value
	st.failLoad = false
	assert.False(t, s.NBTDropEnabled(ctx))

	loads := st.loads
	s.Flags(ctx)
	assert.Equal(t, loads, st.loads, "loaded store must not hit storage again")
}

func TestStore_ReadsLoadLazily(t *testing.T) {
	ctx := context.Background()
	mem := NewMemoryStorage()
	require.NoError(t, mem.SaveFlag(ctx, KeyBabyDropApplyAll, false))
	require.NoError(t, mem.SaveFlag(ctx, KeyBabyDropEnabled, false))

	s := NewStore(mem)
	assert.False(t, s.BabyDropEnabled(ctx, "p1"), "world flag read from storage without an explicit Load")
}

func TestStore_PlayerOverride(t *testing.T) {
	ctx := context.Background()
	mem := NewMemoryStorage()
	s := NewStore(mem)
	require.NoError(t, s.Load(ctx))

	require.NoError(t, s.SetPlayerBabyDrop(ctx, "p1", false))
	assert.False(t, s.BabyDropEnabled(ctx, "p1"))
	assert.True(t, s.BabyDropEnabled(ctx, "p2"), "other players keep the default")

	// persisted: a fresh store sees it
	fresh := NewStore(mem)
	require.NoError(t, fresh.Load(ctx))
	assert.False(t, fresh.BabyDropEnabled(ctx, "p1"))

	assert.Error(t, s.SetPlayerBabyDrop(ctx, " ", false))
}

func TestStore_WorldFlagUsedWhenNotApplyAll(t *testing.T) {
	ctx := context.Background()
	s := NewStore(NewMemoryStorage())
	require.NoError(t, s.Load(ctx))

	require.NoError(t, s.SetPlayerBabyDrop(ctx, "p1", true))
	require.NoError(t, s.SetApplyAll(ctx, false))
	require.NoError(t, s.SetWorldBabyDrop(ctx, false))

	assert.False(t, s.BabyDropEnabled(ctx, "p1"), "world flag wins over stale override")
	assert.False(t, s.BabyDropEnabled(ctx, "p2"))
}

func TestStore_ApplyAllFalseClearsOverrides(t *testing.T) {
	ctx := context.Background()
	mem := NewMemoryStorage()
	s := NewStore(mem)
	require.NoError(t, s.Load(ctx))

	require.NoError(t, s.SetPlayerBabyDrop(ctx, "p1", false))
	require.NoError(t, s.SetPlayerBabyDrop(ctx, "p2", false))

	require.NoError(t, s.SetApplyAll(ctx, false))
	for _, id := range []string{"p1", "p2"} {
		_, ok, err := mem.LoadFlag(ctx, PlayerKey(id))
		require.NoError(t, err)
		assert.False(t, ok, "override for %s must be deleted", id)
	}

	// back to apply-all: overrides are gone, defaults apply
	require.NoError(t, s.SetApplyAll(ctx, true))
	assert.True(t, s.BabyDropEnabled(ctx, "p1"))
	assert.True(t, s.BabyDropEnabled(ctx, "p2"))
}

func TestStore_ApplyAllTrueKeepsOverrides(t *testing.T) {
	ctx := context.Background()
	s := NewStore(NewMemoryStorage())
	require.NoError(t, s.Load(ctx))

	require.NoError(t, s.SetPlayerBabyDrop(ctx, "p1", false))
	require.NoError(t, s.SetApplyAll(ctx, true))
	assert.False(t, s.BabyDropEnabled(ctx, "p1"))
}

func TestStore_FailedWriteLeavesCacheUntouched(t *testing.T) {
	ctx := context.Background()
	st := newFlakyStorage()
	s := NewStore(st)
	require.NoError(t, s.Load(ctx))

	st.failSave[KeyNBTDropEnabled] = true
	st.failSave[KeyBabyDropEnabled] = true
	st.failSave[PlayerKey("p1")] = true
	st.failSave[KeyBabyDropApplyAll] = true

	assert.ErrorIs(t, s.SetNBTDrop(ctx, false), ErrStorage)
	assert.ErrorIs(t, s.SetWorldBabyDrop(ctx, false), ErrStorage)
	assert.ErrorIs(t, s.SetPlayerBabyDrop(ctx, "p1", false), ErrStorage)
	assert.ErrorIs(t, s.SetApplyAll(ctx, false), ErrStorage)

	assert.Equal(t, DefaultFlags(), s.Flags(ctx))
	assert.True(t, s.BabyDropEnabled(ctx, "p1"))
}

func TestStore_ClearFailureKeepsApplyAll(t *testing.T) {
	ctx := context.Background()
	st := newFlakyStorage()
	s := NewStore(st)
	require.NoError(t, s.Load(ctx))
	require.NoError(t, s.SetPlayerBabyDrop(ctx, "p1", false))

	st.failDelete = true
	require.ErrorIs(t, s.SetApplyAll(ctx, false), ErrStorage)

	// mode not switched, so the override is still the one that applies
	assert.True(t, s.Flags(ctx).BabyDropApplyAll)
	_, saved, err := st.MemoryStorage.LoadFlag(ctx, KeyBabyDropApplyAll)
	require.NoError(t, err)
	assert.False(t, saved, "apply-all must not be persisted while overrides remain")

	st.failDelete = false
	require.NoError(t, s.SetApplyAll(ctx, false))
	require.NoError(t, s.SetApplyAll(ctx, true))
	assert.True(t, s.BabyDropEnabled(ctx, "p1"))

	fresh := NewStore(st.MemoryStorage)
	assert.True(t, fresh.BabyDropEnabled(ctx, "p1"), "no stale override left in storage")
}

func TestStore_PlayerLoadErrorDefaultsToEnabled(t *testing.T) {
	ctx := context.Background()
	st := newFlakyStorage()
	s := NewStore(st)
	require.NoError(t, s.Load(ctx))

	st.failLoad = true
	assert.True(t, s.BabyDropEnabled(ctx, "p1"))
}

func TestMemoryStorage_DeletePrefix(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStorage()
	require.NoError(t, m.SaveFlag(ctx, PlayerKey("a"), true))
	require.NoError(t, m.SaveFlag(ctx, PlayerKey("b"), false))
	require.NoError(t, m.SaveFlag(ctx, KeyNBTDropEnabled, true))

	n, err := m.DeletePrefix(ctx, PlayerKeyPrefix)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.Equal(t, 1, m.Len())
}
