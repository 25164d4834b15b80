package profile

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tvlink/tvlink/internal/models"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "profiles.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func xtreamProfile(name string) *models.Profile {
	return &models.Profile{
		Name:     name,
		Type:     models.PlaylistTypeXtream,
		URL:      "http://portal.example:8080",
		Username: "user",
		Password: "pass",
	}
}

func TestStoreCreateAndGet(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	p := xtreamProfile("home")
	require.NoError(t, store.Create(ctx, p))
	assert.False(t, p.ID.IsZero(), "ID should be assigned on create")

	got, err := store.GetByName(ctx, "home")
	require.NoError(t, err)
	assert.Equal(t, p.ID, got.ID)
	assert.Equal(t, models.PlaylistTypeXtream, got.Type)
	assert.Equal(t, "http://portal.example:8080", got.URL)
}

func TestStoreCreateValidates(t *testing.T) {
	store := newTestStore(t)

	p := &models.Profile{Name: "broken", Type: models.PlaylistTypeXtream, URL: "http://x"}
	err := store.Create(context.Background(), p)
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrXtreamCredentialsRequired)
}

func TestStoreDuplicateName(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Create(ctx, xtreamProfile("dup")))
	err := store.Create(ctx, xtreamProfile("dup"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDuplicateName)
}

func TestStoreGetAll(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Create(ctx, xtreamProfile("zeta")))
	require.NoError(t, store.Create(ctx, xtreamProfile("alpha")))
	require.NoError(t, store.Create(ctx, &models.Profile{
		Name: "mag",
		Type: models.PlaylistTypeStalker,
		URL:  "http://portal.example/c",
		MAC:  "00:1A:79:AA:BB:CC",
	}))

	profiles, err := store.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, profiles, 3)
	assert.Equal(t, "alpha", profiles[0].Name)
	assert.Equal(t, "mag", profiles[1].Name)
	assert.Equal(t, "zeta", profiles[2].Name)
}

func TestStoreUpdate(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	p := xtreamProfile("home")
	require.NoError(t, store.Create(ctx, p))

	p.URL = "http://other.example"
	require.NoError(t, store.Update(ctx, p))

	got, err := store.GetByName(ctx, "home")
	require.NoError(t, err)
	assert.Equal(t, "http://other.example", got.URL)
}

func TestStoreDelete(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Create(ctx, xtreamProfile("gone")))
	require.NoError(t, store.Delete(ctx, "gone"))

	_, err := store.GetByName(ctx, "gone")
	assert.ErrorIs(t, err, ErrNotFound)

	// The name is free again after a delete.
	require.NoError(t, store.Create(ctx, xtreamProfile("gone")))
}

func TestStoreDeleteMissing(t *testing.T) {
	store := newTestStore(t)
	err := store.Delete(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStoreGetByNameMissing(t *testing.T) {
	store := newTestStore(t)
	_, err := store.GetByName(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}
