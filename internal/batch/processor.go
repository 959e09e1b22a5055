package batch

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"caseflow/internal/platform/metrics"
	dErrors "caseflow/pkg/domain-errors"
	"caseflow/pkg/platform/sentinel"
)

// WorkingSet partitions one run's references as it progresses. It is owned
// by a single run; concurrent runs over overlapping references each race
// independently against the platform's own concurrency control.
type WorkingSet struct {
	Pending   []int64
	Processed []int64
	Errored   []int64
}

// RunParams describes one sweep: which cases to target and which event to
// apply to each of them.
type RunParams struct {
	CaseTypeID  string
	State       string
	EventID     string
	EventName   string
	Summary     string
	Description string
}

// Processor applies one event to every case the platform search returns,
// sequentially, isolating per-case failures.
type Processor struct {
	platform    CasePlatform
	updater     *Updater
	checkpoints CheckpointStore
	logger      *slog.Logger
	metrics     *metrics.Metrics
	tracer      trace.Tracer
}

func NewProcessor(platform CasePlatform, checkpoints CheckpointStore, logger *slog.Logger, m *metrics.Metrics) *Processor {
	return &Processor{
		platform:    platform,
		updater:     NewUpdater(platform, logger, m),
		checkpoints: checkpoints,
		logger:      logger,
		metrics:     m,
		tracer:      otel.Tracer("caseflow/batch"),
	}
}

// Run executes one sweep. A search failure aborts the whole run with zero
// cases touched. After that, every reference lands in exactly one of
// processed or errored; a failed case is logged and the run continues.
func (p *Processor) Run(ctx context.Context, params RunParams) (*Run, error) {
	ctx, span := p.tracer.Start(ctx, "batch.Run",
		trace.WithAttributes(
			attribute.String("batch.case_type_id", params.CaseTypeID),
			attribute.String("batch.event_id", params.EventID),
		))
	defer span.End()

	run := &Run{
		ID:         uuid.NewString(),
		CaseTypeID: params.CaseTypeID,
		EventID:    params.EventID,
		State:      params.State,
		Status:     RunStatusRunning,
		StartedAt:  time.Now().UTC(),
	}

	refs, err := p.platform.Search(ctx, params.CaseTypeID, params.State)
	if err != nil {
		run.Status = RunStatusFailed
		run.Error = err.Error()
		run.FinishedAt = time.Now().UTC()
		p.saveCheckpoint(ctx, run)
		p.logger.ErrorContext(ctx, "case search failed, aborting batch",
			"run_id", run.ID,
			"case_type_id", params.CaseTypeID,
			"state", params.State,
			"error", err.Error(),
		)
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "case search failed")
	}

	run.Total = len(refs)
	p.saveCheckpoint(ctx, run)
	p.logger.InfoContext(ctx, "batch run started",
		"run_id", run.ID,
		"event_id", params.EventID,
		"cases", len(refs),
	)

	set := &WorkingSet{Pending: refs}
	for len(set.Pending) > 0 {
		ref := set.Pending[0]
		set.Pending = set.Pending[1:]
		p.processOne(ctx, ref, params, set)
	}

	run.Processed = set.Processed
	run.Errored = set.Errored
	run.Status = RunStatusCompleted
	run.FinishedAt = time.Now().UTC()
	p.saveCheckpoint(ctx, run)

	p.logger.InfoContext(ctx, "batch run finished",
		"run_id", run.ID,
		"processed", len(run.Processed),
		"errored", len(run.Errored),
	)
	return run, nil
}

// Status looks up a recorded run by id.
func (p *Processor) Status(ctx context.Context, id string) (*Run, error) {
	run, err := p.checkpoints.Get(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.Newf(dErrors.CodeNotFound, "batch run %s not found", id)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "read batch run")
	}
	return run, nil
}

func (p *Processor) processOne(ctx context.Context, ref int64, params RunParams, set *WorkingSet) {
	err := p.updater.Submit(ctx, ref, func() EventSubmission {
		return EventSubmission{
			CaseReference: ref,
			CaseTypeID:    params.CaseTypeID,
			EventID:       params.EventID,
			EventName:     params.EventName,
			Summary:       params.Summary,
			Description:   params.Description,
		}
	})
	if err != nil {
		set.Errored = append(set.Errored, ref)
		if p.metrics != nil {
			p.metrics.BatchCasesErrored.Inc()
		}
		p.logger.ErrorContext(ctx, "case errored during batch run",
			"case_reference", ref,
			"event_id", params.EventID,
			"error", err.Error(),
		)
		return
	}
	set.Processed = append(set.Processed, ref)
	if p.metrics != nil {
		p.metrics.BatchCasesProcessed.Inc()
	}
}

func (p *Processor) saveCheckpoint(ctx context.Context, run *Run) {
	if err := p.checkpoints.Save(ctx, run); err != nil {
		p.logger.WarnContext(ctx, "failed to checkpoint batch run",
			"run_id", run.ID,
			"error", err.Error(),
		)
	}
}
