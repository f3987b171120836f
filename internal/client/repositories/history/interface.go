package history

import (
	"context"

	"github.com/dmitrijs2005/formai/internal/client/models"
)

// Repository stores ScanAttempt records.
type Repository interface {
	// Append stores a new attempt and evicts the oldest beyond the limit.
	Append(ctx context.Context, a models.ScanAttempt) error

	// List returns all kept attempts, newest first.
	List(ctx context.Context) ([]models.ScanAttempt, error)

	// Clear removes every attempt.
	Clear(ctx context.Context) error
}
