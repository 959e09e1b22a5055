package service

import (
	"context"
	"sync"
	"time"

	dErrors "caseflow/pkg/domain-errors"
)

// UnitOfWork is the transactional boundary around one mutation: pre-commit
// dispatch, the case write, and the audit append either all commit or none
// are visible. Implementations carry the transaction through ctx so the
// stores pick it up.
type UnitOfWork interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// defaultTxTimeout bounds a unit of work that arrives without a deadline.
const defaultTxTimeout = 5 * time.Second

// LockedUnitOfWork is the in-memory UnitOfWork: a coarse mutex stands in for
// the database transaction. Unit tests and local development only.
type LockedUnitOfWork struct {
	mu sync.Mutex
}

func NewLockedUnitOfWork() *LockedUnitOfWork {
	return &LockedUnitOfWork{}
}

func (u *LockedUnitOfWork) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, defaultTxTimeout)
		defer cancel()
	}

	u.mu.Lock()
	defer u.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}
	return fn(ctx)
}
