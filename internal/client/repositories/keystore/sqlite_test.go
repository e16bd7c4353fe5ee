package keystore

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := OpenDatabase(context.Background(), filepath.Join(t.TempDir(), "keystore.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func tableExists(t *testing.T, db *sql.DB, name string) bool {
	t.Helper()
	var n int
	err := db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?`, name).Scan(&n)
	require.NoError(t, err)
	return n > 0
}

func TestOpenDatabase_CreatesSchema(t *testing.T) {
	db := setupDB(t)
	assert.True(t, tableExists(t, db, "keystore"))
	assert.True(t, tableExists(t, db, "goose_db_version"))
}

func TestRunMigrations_IsIdempotent(t *testing.T) {
	db := setupDB(t)
	require.NoError(t, RunMigrations(context.Background(), db))
	assert.True(t, tableExists(t, db, "keystore"))
}

func TestSetAndGet(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	require.NoError(t, r.Set(ctx, "auth_token", []byte{0x01, 0x02}))

	v, err := r.Get(ctx, "auth_token")
	require.NoError(t, err)
	assert.Equal(t, []byte{0x01, 0x02}, v)
}

func TestGet_Absent_ReturnsNilNil(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))

	v, err := r.Get(context.Background(), "absent")
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestSet_Upserts(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	require.NoError(t, r.Set(ctx, "auth_user", []byte("old")))
	require.NoError(t, r.Set(ctx, "auth_user", []byte("new")))

	v, err := r.Get(ctx, "auth_user")
	require.NoError(t, err)
	assert.Equal(t, []byte("new"), v)
}

func TestDelete_ManyKeys_Idempotent(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	require.NoError(t, r.Set(ctx, "auth_token", []byte{1}))
	require.NoError(t, r.Set(ctx, "auth_user", []byte{2}))
	require.NoError(t, r.Set(ctx, "kdf_salt", []byte{3}))

	require.NoError(t, r.Delete(ctx, "auth_token", "auth_user"))
	require.NoError(t, r.Delete(ctx, "auth_token", "auth_user"))
	require.NoError(t, r.Delete(ctx))

	keys, err := r.Keys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"kdf_salt"}, keys)
}

func TestClosedDB_ErrorsAreWrapped(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()
	require.NoError(t, db.Close())

	_, err := r.Get(ctx, "k")
	require.ErrorContains(t, err, "failed to get keystore[k]")

	err = r.Set(ctx, "k", []byte("v"))
	require.ErrorContains(t, err, "failed to set keystore[k]")

	err = r.Delete(ctx, "k")
	require.ErrorContains(t, err, "failed to delete keystore")

	_, err = r.Keys(ctx)
	require.ErrorContains(t, err, "failed to list keystore")
}
