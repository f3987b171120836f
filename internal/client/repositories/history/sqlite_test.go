package history

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/formai/internal/client/migrations"
	"github.com/dmitrijs2005/formai/internal/client/models"
	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "history.db")+"?_pragma=busy_timeout(5000)")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	provider, err := goose.NewProvider(goose.DialectSQLite3, db, migrations.Migrations)
	require.NoError(t, err)
	_, err = provider.Up(context.Background())
	require.NoError(t, err)
	return db
}

func attempt(i int, base time.Time) models.ScanAttempt {
	return models.ScanAttempt{
		ID:          fmt.Sprintf("scan-%02d", i),
		Timestamp:   base.Add(time.Duration(i) * time.Minute),
		MachineName: "Leg Press",
		ImageRef:    fmt.Sprintf("/tmp/scan-%02d.webp", i),
		ResultText:  "Sit with your back flat against the pad.",
	}
}

func TestAppend_KeepsNewestFirst(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t), 0)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	for i := 1; i <= 3; i++ {
		require.NoError(t, r.Append(ctx, attempt(i, base)))
	}

	list, err := r.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "scan-03", list[0].ID)
	assert.Equal(t, "scan-01", list[2].ID)
	assert.Equal(t, attempt(3, base), list[0])
}

func TestAppend_EvictsOldestBeyondLimit(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t), models.MaxHistory)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	for i := 1; i <= 21; i++ {
		require.NoError(t, r.Append(ctx, attempt(i, base)))
	}

	list, err := r.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 20)
	assert.Equal(t, "scan-21", list[0].ID)
	assert.Equal(t, "scan-02", list[19].ID)
	for _, a := range list {
		assert.NotEqual(t, "scan-01", a.ID)
	}
}

func TestAppend_ConcurrentAppendsAreNotLost(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t), 50)
	ctx := context.Background()
	base := time.Now()

	var wg sync.WaitGroup
	errs := make(chan error, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs <- r.Append(ctx, attempt(i, base))
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	list, err := r.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 10)
}

func TestAppend_DuplicateIDFails(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t), 0)
	ctx := context.Background()
	a := attempt(1, time.Now())

	require.NoError(t, r.Append(ctx, a))
	assert.ErrorContains(t, r.Append(ctx, a), "failed to insert scan")

	list, err := r.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestClear(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t), 0)
	ctx := context.Background()

	require.NoError(t, r.Append(ctx, attempt(1, time.Now())))
	require.NoError(t, r.Clear(ctx))

	list, err := r.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestList_ClosedDB(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db, 0)
	require.NoError(t, db.Close())

	_, err := r.List(context.Background())
	assert.ErrorContains(t, err, "failed to select history")
}
