package service

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/suite"

	"caseflow/internal/audit"
	"caseflow/internal/casework/hooks"
	"caseflow/internal/casework/models"
	"caseflow/internal/casework/store"
	dErrors "caseflow/pkg/domain-errors"
)

type CoordinatorSuite struct {
	suite.Suite
	ctx      context.Context
	cases    *store.InMemoryStore
	auditLog *audit.InMemoryStore
	registry *hooks.Registry
	svc      *Service
}

func TestCoordinatorSuite(t *testing.T) {
	suite.Run(t, new(CoordinatorSuite))
}

func (s *CoordinatorSuite) SetupTest() {
	s.ctx = context.Background()
	s.cases = store.NewInMemory()
	s.auditLog = audit.NewInMemoryStore()
	s.registry = hooks.NewRegistry()

	logger := slog.New(slog.DiscardHandler)
	dispatcher := hooks.NewDispatcher(s.registry, logger, nil)
	s.svc = New(s.cases, s.auditLog, dispatcher, NewLockedUnitOfWork(), logger, nil)
}

func (s *CoordinatorSuite) request(ref, expected int64, eventID, data string) models.MutationRequest {
	return models.MutationRequest{
		Reference:       ref,
		Jurisdiction:    "probate",
		CaseTypeID:      "grant-of-representation",
		CaseTypeVersion: "33",
		EventID:         eventID,
		EventName:       "Event " + eventID,
		Actor:           models.Actor{ID: "actor-1", FirstName: "Ada", LastName: "Lovelace"},
		ExpectedVersion: expected,
		Proposed: models.Proposal{
			State:                  "open",
			StateName:              "Open",
			Data:                   json.RawMessage(data),
			SecurityClassification: models.ClassificationPublic,
		},
	}
}

// Scenario A: a create event for a brand-new reference inserts at version 1
// and cuts exactly one audit entry.
func (s *CoordinatorSuite) TestCreateNewCase() {
	view, err := s.svc.Submit(s.ctx, s.request(42, 0, "create", `{"applicant":"Ada"}`))
	s.Require().NoError(err)

	s.Equal(int64(1), view.Version)
	s.Equal("open", view.State)
	s.Equal("Event create", view.LastEventName)

	entries, err := s.auditLog.ListByCase(s.ctx, 42)
	s.Require().NoError(err)
	s.Require().Len(entries, 1)
	s.Equal("create", entries[0].EventID)
	s.Equal("actor-1", entries[0].ActorID)
	s.Equal("Ada", entries[0].ActorFirstName)
}

// Scenario B: an update against the current version advances to version 2
// and the read view reflects the new data.
func (s *CoordinatorSuite) TestUpdateAdvancesVersion() {
	_, err := s.svc.Submit(s.ctx, s.request(42, 0, "create", `{"applicant":"Ada"}`))
	s.Require().NoError(err)

	view, err := s.svc.Submit(s.ctx, s.request(42, 1, "update", `{"applicant":"Grace"}`))
	s.Require().NoError(err)
	s.Equal(int64(2), view.Version)

	read, err := s.svc.Read(s.ctx, 42)
	s.Require().NoError(err)
	s.JSONEq(`{"applicant":"Grace"}`, string(read.Data))
	s.Equal(1+1, s.auditLog.Count())
}

// Scenario C: two racing submissions with the same expected version; one
// commits, one conflicts, and exactly one audit entry is added.
func (s *CoordinatorSuite) TestConcurrentSubmitSingleWinner() {
	_, err := s.svc.Submit(s.ctx, s.request(42, 0, "create", `{"n":0}`))
	s.Require().NoError(err)
	_, err = s.svc.Submit(s.ctx, s.request(42, 1, "update", `{"n":1}`))
	s.Require().NoError(err)
	entriesBefore := s.auditLog.Count()

	var wins, conflicts atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			req := s.request(42, 2, "update", `{"n":2,"writer":`+string(rune('0'+n))+`}`)
			_, err := s.svc.Submit(context.Background(), req)
			switch {
			case err == nil:
				wins.Add(1)
			case dErrors.HasCode(err, dErrors.CodeConflict):
				conflicts.Add(1)
			}
		}(i)
	}
	wg.Wait()

	s.Equal(int32(1), wins.Load())
	s.Equal(int32(1), conflicts.Load())

	view, err := s.svc.Read(s.ctx, 42)
	s.Require().NoError(err)
	s.Equal(int64(3), view.Version)
	s.Equal(entriesBefore+1, s.auditLog.Count())
}

func (s *CoordinatorSuite) TestConflictLeavesNoAuditEntry() {
	_, err := s.svc.Submit(s.ctx, s.request(42, 0, "create", `{"n":0}`))
	s.Require().NoError(err)

	_, err = s.svc.Submit(s.ctx, s.request(42, 7, "update", `{"n":1}`))
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	s.Equal(1, s.auditLog.Count())
}

func (s *CoordinatorSuite) TestNoOpSubmitKeepsVersionAndAudit() {
	_, err := s.svc.Submit(s.ctx, s.request(42, 0, "create", `{"n":0}`))
	s.Require().NoError(err)

	view, err := s.svc.Submit(s.ctx, s.request(42, 1, "touch", `{"n": 0}`))
	s.Require().NoError(err)
	s.Equal(int64(1), view.Version, "identical data must not advance the version")
	s.Equal(1, s.auditLog.Count(), "no-op writes cut no audit entry")
}

func (s *CoordinatorSuite) TestPreCommitHookRewritesProposal() {
	s.registry.RegisterPreCommit("grant-of-representation", "award", func(_ context.Context, _ *models.CaseRecord, p models.Proposal) (models.Proposal, error) {
		p.State = "awarded"
		p.StateName = "Awarded"
		return p, nil
	})

	view, err := s.svc.Submit(s.ctx, s.request(42, 0, "award", `{"n":0}`))
	s.Require().NoError(err)
	s.Equal("awarded", view.State)

	entries, err := s.auditLog.ListByCase(s.ctx, 42)
	s.Require().NoError(err)
	s.Equal("awarded", entries[0].StateID)
}

func (s *CoordinatorSuite) TestPreCommitVetoAbortsEverything() {
	s.registry.RegisterPreCommit("grant-of-representation", "create", func(_ context.Context, _ *models.CaseRecord, _ models.Proposal) (models.Proposal, error) {
		return models.Proposal{}, errors.New("missing mandatory field")
	})

	_, err := s.svc.Submit(s.ctx, s.request(42, 0, "create", `{"n":0}`))
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))

	_, err = s.svc.Read(s.ctx, 42)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound), "no write may happen on veto")
	s.Equal(0, s.auditLog.Count())
}

func (s *CoordinatorSuite) TestPostCommitRunsAfterCommitAndFailureIsSwallowed() {
	var got struct {
		before *models.CaseRecord
		after  *models.CaseRecord
	}
	s.registry.RegisterPostCommit("grant-of-representation", "update", func(_ context.Context, before, after *models.CaseRecord) error {
		got.before = before
		got.after = after
		return errors.New("notification gateway down")
	})

	_, err := s.svc.Submit(s.ctx, s.request(42, 0, "create", `{"n":0}`))
	s.Require().NoError(err)

	view, err := s.svc.Submit(s.ctx, s.request(42, 1, "update", `{"n":1}`))
	s.Require().NoError(err, "post-commit failure must never surface")
	s.Equal(int64(2), view.Version)

	s.Require().NotNil(got.before)
	s.Require().NotNil(got.after)
	s.Equal(int64(1), got.before.Version)
	s.Equal(int64(2), got.after.Version)
}

func (s *CoordinatorSuite) TestMissingHookIsSilentNoOp() {
	view, err := s.svc.Submit(s.ctx, s.request(42, 0, "never-registered", `{"n":0}`))
	s.Require().NoError(err)
	s.Equal(int64(1), view.Version)
}

func (s *CoordinatorSuite) TestValidation() {
	s.Run("rejects zero reference", func() {
		req := s.request(0, 0, "create", `{}`)
		_, err := s.svc.Submit(s.ctx, req)
		s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
	})

	s.Run("rejects missing event", func() {
		req := s.request(42, 0, "", `{}`)
		_, err := s.svc.Submit(s.ctx, req)
		s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
	})

	s.Run("rejects missing actor", func() {
		req := s.request(42, 0, "create", `{}`)
		req.Actor.ID = ""
		_, err := s.svc.Submit(s.ctx, req)
		s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
	})

	s.Run("rejects unknown classification", func() {
		req := s.request(42, 0, "create", `{}`)
		req.Proposed.SecurityClassification = "TOP_SECRET"
		_, err := s.svc.Submit(s.ctx, req)
		s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
	})
}

func (s *CoordinatorSuite) TestHistoryMostRecentFirst() {
	_, err := s.svc.Submit(s.ctx, s.request(42, 0, "create", `{"n":0}`))
	s.Require().NoError(err)
	_, err = s.svc.Submit(s.ctx, s.request(42, 1, "update", `{"n":1}`))
	s.Require().NoError(err)

	entries, err := s.svc.History(s.ctx, 42)
	s.Require().NoError(err)
	s.Require().Len(entries, 2)
	s.Equal("update", entries[0].EventID)
	s.Equal("create", entries[1].EventID)
}

func (s *CoordinatorSuite) TestHistoryUnknownCase() {
	_, err := s.svc.History(s.ctx, 4242)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}
