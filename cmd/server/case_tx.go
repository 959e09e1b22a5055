package main

import (
	"context"
	"database/sql"
	"time"

	dErrors "caseflow/pkg/domain-errors"
	"caseflow/pkg/platform/tx"
)

const defaultCaseTxTimeout = 5 * time.Second

// casePostgresTx is the production unit of work: one database transaction
// around the case write and the audit append. The open transaction rides the
// context so both stores join it.
type casePostgresTx struct {
	db      *sql.DB
	timeout time.Duration
}

func newCasePostgresTx(db *sql.DB) *casePostgresTx {
	return &casePostgresTx{db: db}
}

func (t *casePostgresTx) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	timeout := t.timeout
	if timeout == 0 {
		timeout = defaultCaseTxTimeout
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	dbtx, err := t.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = dbtx.Rollback()
	}()

	if err := fn(tx.WithTx(ctx, dbtx)); err != nil {
		return err
	}

	if err := dbtx.Commit(); err != nil {
		return err
	}
	return nil
}
