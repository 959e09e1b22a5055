// Package service hosts the mutation coordinator: the protocol that takes a
// submitted event through pre-commit hooks, the compare-and-swap write, the
// audit append, and the best-effort post-commit phase.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"caseflow/internal/audit"
	"caseflow/internal/casework/hooks"
	"caseflow/internal/casework/models"
	"caseflow/internal/casework/store"
	"caseflow/internal/platform/metrics"
	dErrors "caseflow/pkg/domain-errors"
	"caseflow/pkg/platform/sentinel"
)

// Service orchestrates case mutations. Concurrency across references is
// unbounded; concurrency on one reference is resolved entirely by the
// store's version check.
type Service struct {
	cases      store.CaseStore
	auditLog   audit.Store
	dispatcher *hooks.Dispatcher
	uow        UnitOfWork
	logger     *slog.Logger
	metrics    *metrics.Metrics
	tracer     trace.Tracer
}

func New(cases store.CaseStore, auditLog audit.Store, dispatcher *hooks.Dispatcher, uow UnitOfWork, logger *slog.Logger, m *metrics.Metrics) *Service {
	return &Service{
		cases:      cases,
		auditLog:   auditLog,
		dispatcher: dispatcher,
		uow:        uow,
		logger:     logger,
		metrics:    m,
		tracer:     otel.Tracer("caseflow/casework"),
	}
}

// Submit applies one event to one case. On success it returns the merged,
// persisted view. Conflicts surface as CodeConflict and are never retried
// here; the caller must re-read and resubmit.
func (s *Service) Submit(ctx context.Context, req models.MutationRequest) (*models.CaseView, error) {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "casework.Submit",
		trace.WithAttributes(
			attribute.Int64("case.reference", req.Reference),
			attribute.String("case.event_id", req.EventID),
		))
	defer span.End()

	if err := validate(req); err != nil {
		return nil, err
	}

	var (
		before    *models.CaseRecord
		after     *models.CaseRecord
		committed int64
	)

	err := s.uow.RunInTx(ctx, func(ctx context.Context) error {
		current, err := s.cases.Get(ctx, req.Reference)
		if err != nil && !errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.Wrap(err, dErrors.CodeInternal, "read current case")
		}
		before = current

		proposed, err := s.dispatcher.RunPreCommit(ctx, req.CaseTypeID, req.EventID, before, req.Proposed)
		if err != nil {
			return err
		}

		version, err := s.cases.Upsert(ctx, store.UpsertParams{
			Reference:       req.Reference,
			Jurisdiction:    req.Jurisdiction,
			CaseTypeID:      req.CaseTypeID,
			ExpectedVersion: req.ExpectedVersion,
			Proposed:        proposed,
		})
		if err != nil {
			if errors.Is(err, sentinel.ErrConflict) {
				return dErrors.Wrap(err, dErrors.CodeConflict, "case was modified by another request")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "persist case")
		}
		committed = version

		changed := req.ExpectedVersion == 0 || version != req.ExpectedVersion
		if changed {
			entry := &audit.Entry{
				EventID:                req.EventID,
				CaseReference:          req.Reference,
				CaseTypeID:             req.CaseTypeID,
				CaseTypeVersion:        req.CaseTypeVersion,
				StateID:                proposed.State,
				StateName:              proposed.StateName,
				EventName:              req.EventName,
				Summary:                req.Summary,
				Description:            req.Description,
				ActorID:                req.Actor.ID,
				ActorFirstName:         req.Actor.FirstName,
				ActorLastName:          req.Actor.LastName,
				SecurityClassification: proposed.SecurityClassification,
				Data:                   proposed.Data,
				DataClassification:     proposed.DataClassification,
			}
			if err := s.auditLog.Append(ctx, entry); err != nil {
				return dErrors.Wrap(err, dErrors.CodeInternal, "append audit entry")
			}
		}

		record, err := s.cases.Get(ctx, req.Reference)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "reload committed case")
		}
		after = record
		return nil
	})
	if err != nil {
		s.countFailure(err)
		return nil, err
	}

	// Post-commit runs strictly after the unit of work commits and can no
	// longer affect it.
	s.dispatcher.RunPostCommit(ctx, req.CaseTypeID, req.EventID, before, after)

	if s.metrics != nil {
		s.metrics.MutationsCommitted.WithLabelValues(req.EventID).Inc()
		s.metrics.ObserveSubmit(time.Since(start))
	}
	s.logger.InfoContext(ctx, "case mutation committed",
		"case_reference", req.Reference,
		"event_id", req.EventID,
		"version", committed,
	)

	return s.view(ctx, after)
}

// Read returns the merged view of a case: the current row plus metadata
// derived from the newest audit entry.
func (s *Service) Read(ctx context.Context, reference int64) (*models.CaseView, error) {
	record, err := s.cases.Get(ctx, reference)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.Newf(dErrors.CodeNotFound, "case %d not found", reference)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "read case")
	}
	return s.view(ctx, record)
}

// History returns the audit trail for a case, most recent first.
func (s *Service) History(ctx context.Context, reference int64) ([]audit.Entry, error) {
	if _, err := s.cases.Get(ctx, reference); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.Newf(dErrors.CodeNotFound, "case %d not found", reference)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "read case")
	}
	entries, err := s.auditLog.ListByCase(ctx, reference)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "read case history")
	}
	return entries, nil
}

func (s *Service) view(ctx context.Context, record *models.CaseRecord) (*models.CaseView, error) {
	view := &models.CaseView{CaseRecord: *record}

	latest, err := s.auditLog.Latest(ctx, record.Reference)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "read latest audit entry")
	}
	if latest != nil {
		view.LastEventName = latest.EventName
		view.LastSummary = latest.Summary
		view.LastStateName = latest.StateName
		if latest.CreatedAt.After(view.LastModified) {
			view.LastModified = latest.CreatedAt
		}
	}
	return view, nil
}

func (s *Service) countFailure(err error) {
	if s.metrics == nil {
		return
	}
	switch {
	case dErrors.HasCode(err, dErrors.CodeConflict):
		s.metrics.MutationConflicts.Inc()
	case dErrors.HasCode(err, dErrors.CodeValidation):
		s.metrics.ValidationFailures.Inc()
	}
}

func validate(req models.MutationRequest) error {
	if req.Reference <= 0 {
		return dErrors.New(dErrors.CodeBadRequest, "case reference must be positive")
	}
	if req.CaseTypeID == "" {
		return dErrors.New(dErrors.CodeBadRequest, "case type id is required")
	}
	if req.EventID == "" {
		return dErrors.New(dErrors.CodeBadRequest, "event id is required")
	}
	if req.Actor.ID == "" {
		return dErrors.New(dErrors.CodeBadRequest, "actor id is required")
	}
	if req.ExpectedVersion < 0 {
		return dErrors.New(dErrors.CodeBadRequest, "expected version must not be negative")
	}
	if !req.Proposed.SecurityClassification.Valid() {
		return dErrors.New(dErrors.CodeBadRequest, "unknown security classification")
	}
	return nil
}
