package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dmitrijs2005/formai/internal/client/models"
	"github.com/dmitrijs2005/formai/internal/dbx"
)

// SQLiteRepository implements Repository on the scan_history table.
type SQLiteRepository struct {
	db    *sql.DB
	limit int
}

// NewSQLiteRepository returns a repository keeping at most limit entries.
// A non-positive limit selects models.MaxHistory.
func NewSQLiteRepository(db *sql.DB, limit int) *SQLiteRepository {
	if limit <= 0 {
		limit = models.MaxHistory
	}
	return &SQLiteRepository{db: db, limit: limit}
}

func (r *SQLiteRepository) Append(ctx context.Context, a models.ScanAttempt) error {
	ctx = context.WithoutCancel(ctx)
	return dbx.WithTx(ctx, r.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO scan_history (id, created_at, machine_name, image_ref, result_text)
			VALUES (?, ?, ?, ?, ?)`,
			a.ID, a.Timestamp.UTC().Format(time.RFC3339Nano), a.MachineName, a.ImageRef, a.ResultText)
		if err != nil {
			return fmt.Errorf("failed to insert scan: %w", err)
		}

		_, err = tx.ExecContext(ctx, `
			DELETE FROM scan_history
			WHERE seq NOT IN (SELECT seq FROM scan_history ORDER BY seq DESC LIMIT ?)`, r.limit)
		if err != nil {
			return fmt.Errorf("failed to truncate history: %w", err)
		}
		return nil
	})
}

func (r *SQLiteRepository) List(ctx context.Context) ([]models.ScanAttempt, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, created_at, machine_name, image_ref, result_text
		FROM scan_history ORDER BY seq DESC LIMIT ?`, r.limit)
	if err != nil {
		return nil, fmt.Errorf("failed to select history: %w", err)
	}
	defer rows.Close()

	var result []models.ScanAttempt
	for rows.Next() {
		var a models.ScanAttempt
		var created string
		if err := rows.Scan(&a.ID, &created, &a.MachineName, &a.ImageRef, &a.ResultText); err != nil {
			return nil, fmt.Errorf("failed to scan history row: %w", err)
		}
		if a.Timestamp, err = time.Parse(time.RFC3339Nano, created); err != nil {
			return nil, fmt.Errorf("bad timestamp for scan %s: %w", a.ID, err)
		}
		result = append(result, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *SQLiteRepository) Clear(ctx context.Context) error {
	if _, err := r.db.ExecContext(context.WithoutCancel(ctx), `DELETE FROM scan_history`); err != nil {
		return fmt.Errorf("failed to clear history: %w", err)
	}
	return nil
}
