package audit

import "context"

// Store is the append-only audit surface. There are deliberately no update
// or delete operations.
type Store interface {
	// Append inserts one entry. Implementations must honor a transaction
	// carried in ctx so the entry commits with the case write.
	Append(ctx context.Context, entry *Entry) error
	// ListByCase returns entries for a case, most recent first. A plain
	// read with no cursor state; callers may re-query at any time.
	ListByCase(ctx context.Context, reference int64) ([]Entry, error)
	// Latest returns the newest entry for a case, or nil when none exist.
	Latest(ctx context.Context, reference int64) (*Entry, error)
}
