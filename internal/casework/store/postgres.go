package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"caseflow/internal/casework/models"
	"caseflow/pkg/platform/sentinel"
	"caseflow/pkg/platform/tx"
)

const pqUniqueViolation = "23505"

// PostgresStore is the production CaseStore. All statements resolve the
// executor per call, so a transaction carried in ctx scopes the whole
// read-check-write sequence.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Upsert performs the compare-and-swap write.
//
// Insert path: a reference with no row is created at version 1. A racing
// creator loses on the unique constraint and observes ErrConflict.
//
// Update path: the UPDATE re-checks the version in its WHERE clause, so even
// if another writer committed between our read and our write, exactly one of
// the two racing writers sees a row affected. Identical proposals return the
// stored version without touching the row.
func (s *PostgresStore) Upsert(ctx context.Context, params UpsertParams) (int64, error) {
	exec := tx.ExecutorFrom(ctx, s.db)

	current, err := s.lockCurrent(ctx, params.Reference)
	if err != nil && !errors.Is(err, sentinel.ErrNotFound) {
		return 0, err
	}

	if current == nil {
		if params.ExpectedVersion != 0 {
			return 0, fmt.Errorf("case %d vanished under expected version %d: %w",
				params.Reference, params.ExpectedVersion, sentinel.ErrConflict)
		}
		return s.insert(ctx, exec, params)
	}

	if current.Version != params.ExpectedVersion {
		return 0, fmt.Errorf("case %d at version %d, caller expected %d: %w",
			params.Reference, current.Version, params.ExpectedVersion, sentinel.ErrConflict)
	}

	if current.Unchanged(params.Proposed) {
		return current.Version, nil
	}

	res, err := exec.ExecContext(ctx, `
		UPDATE cases
		SET state = $1,
		    data = $2,
		    data_classification = $3,
		    security_classification = $4,
		    version = version + 1,
		    last_modified = $5
		WHERE reference = $6 AND version = $7
	`,
		params.Proposed.State,
		nullableJSON(params.Proposed.Data),
		nullableJSON(params.Proposed.DataClassification),
		string(params.Proposed.SecurityClassification),
		time.Now(),
		params.Reference,
		params.ExpectedVersion,
	)
	if err != nil {
		return 0, fmt.Errorf("update case %d: %w", params.Reference, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("update case %d rows affected: %w", params.Reference, err)
	}
	if affected == 0 {
		return 0, fmt.Errorf("case %d write lost the version race: %w",
			params.Reference, sentinel.ErrConflict)
	}
	return params.ExpectedVersion + 1, nil
}

func (s *PostgresStore) insert(ctx context.Context, exec tx.Executor, params UpsertParams) (int64, error) {
	now := time.Now()
	_, err := exec.ExecContext(ctx, `
		INSERT INTO cases (
			reference, jurisdiction, case_type_id, state,
			data, data_classification, security_classification,
			version, created_at, last_modified
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, 1, $8, $8)
	`,
		params.Reference,
		params.Jurisdiction,
		params.CaseTypeID,
		params.Proposed.State,
		nullableJSON(params.Proposed.Data),
		nullableJSON(params.Proposed.DataClassification),
		string(params.Proposed.SecurityClassification),
		now,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation {
			return 0, fmt.Errorf("case %d created concurrently: %w",
				params.Reference, sentinel.ErrConflict)
		}
		return 0, fmt.Errorf("insert case %d: %w", params.Reference, err)
	}
	return 1, nil
}

// lockCurrent reads the row, taking a row lock when running inside a
// transaction so the check-then-update sequence cannot interleave with a
// concurrent committer on the same reference.
func (s *PostgresStore) lockCurrent(ctx context.Context, reference int64) (*models.CaseRecord, error) {
	exec := tx.ExecutorFrom(ctx, s.db)
	suffix := ""
	if _, inTx := tx.From(ctx); inTx {
		suffix = " FOR UPDATE"
	}
	row := exec.QueryRowContext(ctx, `
		SELECT reference, jurisdiction, case_type_id, state,
		       data, data_classification, security_classification,
		       version, created_at, last_modified
		FROM cases
		WHERE reference = $1`+suffix,
		reference,
	)
	return scanCase(row)
}

// Get returns the current row without locking.
func (s *PostgresStore) Get(ctx context.Context, reference int64) (*models.CaseRecord, error) {
	exec := tx.ExecutorFrom(ctx, s.db)
	row := exec.QueryRowContext(ctx, `
		SELECT reference, jurisdiction, case_type_id, state,
		       data, data_classification, security_classification,
		       version, created_at, last_modified
		FROM cases
		WHERE reference = $1
	`, reference)
	return scanCase(row)
}

func scanCase(row *sql.Row) (*models.CaseRecord, error) {
	var (
		rec            models.CaseRecord
		classification string
		data           []byte
		dataClass      []byte
	)
	err := row.Scan(
		&rec.Reference,
		&rec.Jurisdiction,
		&rec.CaseTypeID,
		&rec.State,
		&data,
		&dataClass,
		&classification,
		&rec.Version,
		&rec.CreatedAt,
		&rec.LastModified,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan case: %w", err)
	}
	rec.SecurityClassification = models.SecurityClassification(classification)
	rec.Data = json.RawMessage(data)
	rec.DataClassification = json.RawMessage(dataClass)
	return &rec, nil
}

func nullableJSON(doc json.RawMessage) any {
	if len(doc) == 0 {
		return nil
	}
	return []byte(doc)
}
