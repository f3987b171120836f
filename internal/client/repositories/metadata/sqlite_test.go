package metadata

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "meta.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`
CREATE TABLE metadata (
  key   TEXT PRIMARY KEY,
  value BLOB NOT NULL
);`)
	require.NoError(t, err)
	return db
}

func TestSetAndGet(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	require.NoError(t, r.Set(ctx, "user_id", []byte("anon-1")))

	v, err := r.Get(ctx, "user_id")
	require.NoError(t, err)
	require.Equal(t, []byte("anon-1"), v)
}

func TestGet_MissingKeyReturnsNilNil(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))

	v, err := r.Get(context.Background(), "absent")
	require.NoError(t, err)
	require.Nil(t, v)
}

func TestSet_Upserts(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	require.NoError(t, r.Set(ctx, "scan_count", EncodeInt(1)))
	require.NoError(t, r.Set(ctx, "scan_count", EncodeInt(2)))

	n, err := GetInt(ctx, r, "scan_count")
	require.NoError(t, err)
	require.Equal(t, 2, n)
}

func TestSet_WritesEvenWhenContextCancelled(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.NoError(t, r.Set(ctx, "premium", EncodeBool(true)))
	ok, err := GetBool(context.Background(), r, "premium")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestSetMany_WritesAll(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	require.NoError(t, r.SetMany(ctx, map[string][]byte{
		"scan_count":     EncodeInt(0),
		"premium":        EncodeBool(true),
		"quota_exceeded": nil,
	}))
	require.NoError(t, r.SetMany(ctx, nil))

	m, err := r.List(ctx)
	require.NoError(t, err)
	assert.Len(t, m, 3)
	assert.Equal(t, []byte("0"), m["scan_count"])
	assert.Equal(t, []byte("1"), m["premium"])
	assert.Equal(t, []byte{}, m["quota_exceeded"])
}

func TestSetMany_RollsBackOnError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO metadata`).WithArgs("a", []byte("1")).WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(`INSERT INTO metadata`).WithArgs("b", []byte("2")).WillReturnError(errors.New("disk I/O error"))
	mock.ExpectRollback()

	r := NewSQLiteRepository(db)
	err = r.SetMany(context.Background(), map[string][]byte{"a": []byte("1"), "b": []byte("2")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to set metadata[b]")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDelete_RemovesKeysAndIsIdempotent(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	require.NoError(t, r.Set(ctx, "x", []byte{0x01}))
	require.NoError(t, r.Set(ctx, "y", []byte{0x02}))
	require.NoError(t, r.Delete(ctx, "x", "y"))

	v, err := r.Get(ctx, "x")
	require.NoError(t, err)
	require.Nil(t, v)

	require.NoError(t, r.Delete(ctx, "x"))
}

func TestClear_RemovesAllKeys(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	require.NoError(t, r.Set(ctx, "a", []byte{1}))
	require.NoError(t, r.Set(ctx, "b", []byte{2}))
	require.NoError(t, r.Clear(ctx))

	m, err := r.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, m)
}

func TestClosedDB_ErrorsAreWrapped(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()
	require.NoError(t, db.Close())

	_, err := r.Get(ctx, "k")
	assert.ErrorContains(t, err, "failed to get metadata[k]")
	assert.ErrorContains(t, r.Set(ctx, "k", []byte("v")), "failed to set metadata[k]")
	assert.ErrorContains(t, r.Delete(ctx, "k"), "failed to delete metadata[k]")
	assert.ErrorContains(t, r.Clear(ctx), "failed to clear metadata")
	_, err = r.List(ctx)
	assert.ErrorContains(t, err, "failed to list metadata")
}

func TestTypedHelpers(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	b, err := GetBool(ctx, r, "welcome_seen")
	require.NoError(t, err)
	assert.False(t, b)

	n, err := GetInt(ctx, r, "scan_count")
	require.NoError(t, err)
	assert.Zero(t, n)

	ts, err := GetTime(ctx, r, "premium_expires_at")
	require.NoError(t, err)
	assert.Nil(t, ts)

	exp := time.Date(2026, 11, 1, 8, 30, 0, 0, time.FixedZone("CET", 3600))
	require.NoError(t, r.Set(ctx, "premium_expires_at", EncodeTime(exp)))
	ts, err = GetTime(ctx, r, "premium_expires_at")
	require.NoError(t, err)
	require.NotNil(t, ts)
	assert.True(t, exp.Equal(*ts))
	assert.Equal(t, time.UTC, ts.Location())

	type settings struct {
		DarkMode bool `json:"darkMode"`
	}
	var s settings
	found, err := GetJSON(ctx, r, "settings", &s)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, SetJSON(ctx, r, "settings", settings{DarkMode: true}))
	found, err = GetJSON(ctx, r, "settings", &s)
	require.NoError(t, err)
	assert.True(t, found)
	assert.True(t, s.DarkMode)

	require.NoError(t, r.Set(ctx, "scan_count", []byte("many")))
	_, err = GetInt(ctx, r, "scan_count")
	assert.ErrorContains(t, err, "metadata[scan_count]")

	require.NoError(t, r.Set(ctx, "user_email", []byte("a@b.c")))
	str, err := GetString(ctx, r, "user_email")
	require.NoError(t, err)
	assert.Equal(t, "a@b.c", str)
}
