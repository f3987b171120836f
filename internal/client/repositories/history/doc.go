// Package history persists the bounded list of recent scans.
//
// Append inserts an attempt and trims the table to the configured limit in the
// same transaction, so concurrent appends never lose each other's entries and
// the table never grows past the limit. List returns entries newest first.
//
// Typical Usage
//
//	repo := history.NewSQLiteRepository(db, models.MaxHistory)
//	_ = repo.Append(ctx, attempt)
//	recent, _ := repo.List(ctx)
package history
