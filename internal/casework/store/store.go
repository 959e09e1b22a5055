// Package store persists the current state of each case. Writes go through
// a compare-and-swap guarded by the row version; correctness under
// concurrent writers comes from the database, not from in-process locks.
package store

import (
	"context"

	"caseflow/internal/casework/models"
)

// UpsertParams carries one proposed write. ExpectedVersion zero means the
// caller believes the case does not exist yet.
type UpsertParams struct {
	Reference       int64
	Jurisdiction    string
	CaseTypeID      string
	ExpectedVersion int64
	Proposed        models.Proposal
}

// CaseStore is the persistence surface for current case state.
//
// Upsert returns the version that ends up persisted: 1 for a fresh insert,
// expectedVersion+1 for a changed row, expectedVersion unchanged for a
// proposal identical to the stored row. It returns sentinel.ErrConflict when
// the stored version does not match the caller's expectation.
type CaseStore interface {
	Upsert(ctx context.Context, params UpsertParams) (int64, error)
	Get(ctx context.Context, reference int64) (*models.CaseRecord, error)
}
