package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"caseflow/pkg/platform/tx"
)

// PostgresStore persists audit entries and mirrors each one into the outbox
// table. The relay worker publishes outbox rows to Kafka; the audit table
// itself remains the queryable history.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// outboxPayload is the JSON structure published to Kafka. Field names match
// Entry so the downstream consumer can deserialize without a schema registry.
type outboxPayload struct {
	ID                     string          `json:"ID"`
	EventID                string          `json:"EventID"`
	CaseReference          int64           `json:"CaseReference"`
	CaseTypeID             string          `json:"CaseTypeID"`
	CaseTypeVersion        string          `json:"CaseTypeVersion,omitempty"`
	StateID                string          `json:"StateID"`
	StateName              string          `json:"StateName,omitempty"`
	EventName              string          `json:"EventName"`
	Summary                string          `json:"Summary,omitempty"`
	Description            string          `json:"Description,omitempty"`
	ActorID                string          `json:"ActorID"`
	SecurityClassification string          `json:"SecurityClassification"`
	Data                   json.RawMessage `json:"Data,omitempty"`
	Timestamp              string          `json:"Timestamp"`
}

// Append inserts the entry and its outbox mirror. Both inserts ride the
// transaction carried in ctx so they commit atomically with the case write.
func (s *PostgresStore) Append(ctx context.Context, entry *Entry) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}

	exec := tx.ExecutorFrom(ctx, s.db)

	query := `
		INSERT INTO case_audit (
			event_id, case_reference, case_type_id, case_type_version,
			state_id, state_name, event_name, summary, description,
			actor_id, actor_first_name, actor_last_name,
			security_classification, data, data_classification, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		RETURNING id
	`
	err := exec.QueryRowContext(ctx, query,
		entry.EventID,
		entry.CaseReference,
		entry.CaseTypeID,
		entry.CaseTypeVersion,
		entry.StateID,
		entry.StateName,
		entry.EventName,
		entry.Summary,
		entry.Description,
		entry.ActorID,
		entry.ActorFirstName,
		entry.ActorLastName,
		string(entry.SecurityClassification),
		nullableJSON(entry.Data),
		nullableJSON(entry.DataClassification),
		entry.CreatedAt,
	).Scan(&entry.ID)
	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}

	payload := outboxPayload{
		ID:                     uuid.NewString(),
		EventID:                entry.EventID,
		CaseReference:          entry.CaseReference,
		CaseTypeID:             entry.CaseTypeID,
		CaseTypeVersion:        entry.CaseTypeVersion,
		StateID:                entry.StateID,
		StateName:              entry.StateName,
		EventName:              entry.EventName,
		Summary:                entry.Summary,
		Description:            entry.Description,
		ActorID:                entry.ActorID,
		SecurityClassification: string(entry.SecurityClassification),
		Data:                   entry.Data,
		Timestamp:              entry.CreatedAt.Format(time.RFC3339Nano),
	}
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal outbox payload: %w", err)
	}

	_, err = exec.ExecContext(ctx, `
		INSERT INTO outbox (id, aggregate_type, aggregate_id, event_type, payload, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`,
		uuid.New(),
		"case",
		fmt.Sprintf("%d", entry.CaseReference),
		entry.EventID,
		payloadBytes,
		entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert outbox entry: %w", err)
	}
	return nil
}

const entryColumns = `
	id, event_id, case_reference, case_type_id, case_type_version,
	state_id, state_name, event_name, summary, description,
	actor_id, actor_first_name, actor_last_name,
	security_classification, data, data_classification, created_at
`

// ListByCase returns the full history for a case, most recent first.
func (s *PostgresStore) ListByCase(ctx context.Context, reference int64) ([]Entry, error) {
	exec := tx.ExecutorFrom(ctx, s.db)
	rows, err := exec.QueryContext(ctx, `
		SELECT `+entryColumns+`
		FROM case_audit
		WHERE case_reference = $1
		ORDER BY id DESC
	`, reference)
	if err != nil {
		return nil, fmt.Errorf("query audit entries: %w", err)
	}
	defer rows.Close()

	return scanEntries(rows)
}

// Latest returns the newest entry for a case, or nil when the case has no
// history yet.
func (s *PostgresStore) Latest(ctx context.Context, reference int64) (*Entry, error) {
	exec := tx.ExecutorFrom(ctx, s.db)
	row := exec.QueryRowContext(ctx, `
		SELECT `+entryColumns+`
		FROM case_audit
		WHERE case_reference = $1
		ORDER BY id DESC
		LIMIT 1
	`, reference)

	entry, err := scanEntry(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("query latest audit entry: %w", err)
	}
	return entry, nil
}

func scanEntries(rows *sql.Rows) ([]Entry, error) {
	var entries []Entry
	for rows.Next() {
		entry, err := scanEntry(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		entries = append(entries, *entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit entries: %w", err)
	}
	return entries, nil
}

func scanEntry(scan func(dest ...any) error) (*Entry, error) {
	var (
		entry          Entry
		classification string
		data           []byte
		dataClass      []byte
	)
	err := scan(
		&entry.ID,
		&entry.EventID,
		&entry.CaseReference,
		&entry.CaseTypeID,
		&entry.CaseTypeVersion,
		&entry.StateID,
		&entry.StateName,
		&entry.EventName,
		&entry.Summary,
		&entry.Description,
		&entry.ActorID,
		&entry.ActorFirstName,
		&entry.ActorLastName,
		&classification,
		&data,
		&dataClass,
		&entry.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	entry.SecurityClassification = classificationFromString(classification)
	entry.Data = json.RawMessage(data)
	entry.DataClassification = json.RawMessage(dataClass)
	return &entry, nil
}
