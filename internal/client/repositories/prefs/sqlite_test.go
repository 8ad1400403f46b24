package prefs

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", "file:"+t.Name()+"?mode=memory&cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`
CREATE TABLE preferences (
  key   TEXT PRIMARY KEY,
  value TEXT NOT NULL
);
`)
	require.NoError(t, err)
	return db
}

func TestSQLiteRepository_SetGetRoundTrip(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	_, ok, err := r.Get(ctx, "pref.theme")
	require.NoError(t, err)
	require.False(t, ok, "missing key reports absent, not error")

	require.NoError(t, r.Set(ctx, "pref.theme", "dark"))

	v, ok, err := r.Get(ctx, "pref.theme")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "dark", v)
}

func TestSQLiteRepository_SetOverwrites(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	require.NoError(t, r.Set(ctx, "pref.selected_language", "en"))
	require.NoError(t, r.Set(ctx, "pref.selected_language", "fr"))

	v, ok, err := r.Get(ctx, "pref.selected_language")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "fr", v)
}

func TestSQLiteRepository_DeleteAndClear(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	require.NoError(t, r.Set(ctx, "a", "1"))
	require.NoError(t, r.Set(ctx, "b", "2"))

	require.NoError(t, r.Delete(ctx, "a"))
	_, ok, err := r.Get(ctx, "a")
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, r.Clear(ctx))
	_, ok, err = r.Get(ctx, "b")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestEnsureDefaults_SeedsOnlyMissingKeys(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	// A pre-existing value must survive the seeding.
	require.NoError(t, r.Set(ctx, "pref.theme", "dark"))

	require.NoError(t, EnsureDefaults(ctx, db))

	v, ok, err := r.Get(ctx, "pref.theme")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "dark", v)

	v, ok, err = r.Get(ctx, "pref.selected_language")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "en", v)

	v, ok, err = r.Get(ctx, "pref.animations_enabled")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "true", v)

	// Idempotent.
	require.NoError(t, EnsureDefaults(ctx, db))
}

func TestInitDatabase_AppliesMigrations(t *testing.T) {
	ctx := context.Background()
	db, err := InitDatabase(ctx, "file:"+t.Name()+"?mode=memory&cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	r := NewSQLiteRepository(db)
	require.NoError(t, r.Set(ctx, "pref.theme", "light"))
	v, ok, err := r.Get(ctx, "pref.theme")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "light", v)
}
