//go:build integration

package audit_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/suite"

	"caseflow/internal/audit"
	"caseflow/internal/casework/models"
	"caseflow/pkg/testutil/containers"
)

type PostgresAuditSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *audit.PostgresStore
}

func TestPostgresAuditSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresAuditSuite))
}

func (s *PostgresAuditSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.postgres = mgr.GetPostgres(s.T())
	s.store = audit.NewPostgres(s.postgres.DB)
}

func (s *PostgresAuditSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), "case_audit", "outbox"))
}

func entry(ref int64, eventID string) *audit.Entry {
	return &audit.Entry{
		EventID:                eventID,
		CaseReference:          ref,
		CaseTypeID:             "grant-of-representation",
		StateID:                "open",
		EventName:              "Event " + eventID,
		ActorID:                "actor-1",
		ActorFirstName:         "Ada",
		ActorLastName:          "Lovelace",
		SecurityClassification: models.ClassificationPublic,
		Data:                   json.RawMessage(`{"n":1}`),
	}
}

func (s *PostgresAuditSuite) TestAppendAssignsAscendingSequence() {
	ctx := context.Background()

	first := entry(42, "create")
	s.Require().NoError(s.store.Append(ctx, first))
	second := entry(42, "update")
	s.Require().NoError(s.store.Append(ctx, second))

	s.Greater(second.ID, first.ID, "sequence numbers must be monotonic")
}

func (s *PostgresAuditSuite) TestAppendMirrorsIntoOutbox() {
	ctx := context.Background()

	s.Require().NoError(s.store.Append(ctx, entry(42, "create")))
	s.Require().NoError(s.store.Append(ctx, entry(42, "update")))

	var count int
	err := s.postgres.DB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM outbox WHERE aggregate_type = 'case' AND aggregate_id = '42'`,
	).Scan(&count)
	s.Require().NoError(err)
	s.Equal(2, count)
}

func (s *PostgresAuditSuite) TestListByCaseMostRecentFirst() {
	ctx := context.Background()

	s.Require().NoError(s.store.Append(ctx, entry(42, "create")))
	s.Require().NoError(s.store.Append(ctx, entry(42, "update")))
	s.Require().NoError(s.store.Append(ctx, entry(7, "create")))

	entries, err := s.store.ListByCase(ctx, 42)
	s.Require().NoError(err)
	s.Require().Len(entries, 2)
	s.Equal("update", entries[0].EventID)
	s.Equal("create", entries[1].EventID)
	s.Equal("Ada", entries[0].ActorFirstName)
}

func (s *PostgresAuditSuite) TestLatest() {
	ctx := context.Background()

	latest, err := s.store.Latest(ctx, 42)
	s.Require().NoError(err)
	s.Nil(latest, "no history yet")

	s.Require().NoError(s.store.Append(ctx, entry(42, "create")))
	s.Require().NoError(s.store.Append(ctx, entry(42, "update")))

	latest, err = s.store.Latest(ctx, 42)
	s.Require().NoError(err)
	s.Require().NotNil(latest)
	s.Equal("update", latest.EventID)
}
