package store

import (
	"context"

	"promptstack/internal/models"
)

// Client is the row store seen by the services: table-scoped reads and
// writes plus two server-side procedures. The gorm adapter in this package
// is the production implementation; tests use an in-memory one.
//
// The store performs no joins on behalf of the caller. Anything relational
// is assembled in application code from single-table queries.
type Client interface {
	// Select executes q and scans the rows into dest, a pointer to a slice
	// of row structs.
	Select(ctx context.Context, q Query, dest any) error

	// Count returns the number of rows matching q's filters. Ordering and
	// ranges on q are ignored.
	Count(ctx context.Context, q Query) (int64, error)

	Insert(ctx context.Context, table string, row any) error

	// Update applies values to all rows matching filters and reports how
	// many rows were affected.
	Update(ctx context.Context, table string, filters []Filter, values map[string]any) (int64, error)

	// Delete removes all rows matching filters and reports how many rows
	// were affected.
	Delete(ctx context.Context, table string, filters []Filter) (int64, error)

	// CategoryStats is the server-side grouped prompt count per category,
	// ordered by count descending then category name ascending. The naive
	// alternative — pulling every prompt row and counting client-side —
	// transfers O(n) rows and must not be used.
	CategoryStats(ctx context.Context) ([]models.CategoryCount, error)

	// ToggleVote atomically applies one vote cast by userID on promptID.
	// Casting the value already held removes the vote, casting the opposite
	// value flips it, and casting with no vote present inserts one. The
	// prompt's vote_count moves in the same transaction. The returned value
	// is the vote that remains, nil when the vote was removed.
	ToggleVote(ctx context.Context, userID, promptID string, value int) (*int, error)
}
