// Package hooks holds the business-rule callbacks that run around a case
// mutation. Dispatch is a typed map lookup keyed by case type and event; a
// missing registration is an explicit no-op branch, never an error.
package hooks

import (
	"context"
	"log/slog"

	"caseflow/internal/casework/models"
	"caseflow/internal/platform/metrics"
	dErrors "caseflow/pkg/domain-errors"
)

// Key identifies a hook registration.
type Key struct {
	CaseTypeID string
	EventID    string
}

// PreCommitHook runs before persistence. It may rewrite the proposal or veto
// the mutation entirely by returning an error; no write happens on error.
// before is nil when the event creates the case.
type PreCommitHook func(ctx context.Context, before *models.CaseRecord, proposed models.Proposal) (models.Proposal, error)

// PostCommitHook runs strictly after the unit of work commits. It receives
// the persisted before/after pair and performs side effects only; its error
// is logged and dropped, never surfaced, never rolled back.
type PostCommitHook func(ctx context.Context, before, after *models.CaseRecord) error

// Registry maps (caseTypeID, eventID) to the two hook phases.
type Registry struct {
	preCommit  map[Key]PreCommitHook
	postCommit map[Key]PostCommitHook
}

func NewRegistry() *Registry {
	return &Registry{
		preCommit:  make(map[Key]PreCommitHook),
		postCommit: make(map[Key]PostCommitHook),
	}
}

// RegisterPreCommit binds a pre-commit hook. Last registration wins.
func (r *Registry) RegisterPreCommit(caseTypeID, eventID string, hook PreCommitHook) {
	r.preCommit[Key{CaseTypeID: caseTypeID, EventID: eventID}] = hook
}

// RegisterPostCommit binds a post-commit hook. Last registration wins.
func (r *Registry) RegisterPostCommit(caseTypeID, eventID string, hook PostCommitHook) {
	r.postCommit[Key{CaseTypeID: caseTypeID, EventID: eventID}] = hook
}

// PreCommit looks up the pre-commit hook for an event.
func (r *Registry) PreCommit(caseTypeID, eventID string) (PreCommitHook, bool) {
	h, ok := r.preCommit[Key{CaseTypeID: caseTypeID, EventID: eventID}]
	return h, ok
}

// PostCommit looks up the post-commit hook for an event.
func (r *Registry) PostCommit(caseTypeID, eventID string) (PostCommitHook, bool) {
	h, ok := r.postCommit[Key{CaseTypeID: caseTypeID, EventID: eventID}]
	return h, ok
}

// Dispatcher runs hooks with the failure semantics each phase demands.
type Dispatcher struct {
	registry *Registry
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

func NewDispatcher(registry *Registry, logger *slog.Logger, m *metrics.Metrics) *Dispatcher {
	return &Dispatcher{registry: registry, logger: logger, metrics: m}
}

// RunPreCommit applies the registered pre-commit hook, if any. A miss passes
// the proposal through untouched, which callers cannot distinguish from a
// hook that approved unchanged. Hook errors abort the mutation as
// validation failures.
func (d *Dispatcher) RunPreCommit(ctx context.Context, caseTypeID, eventID string, before *models.CaseRecord, proposed models.Proposal) (models.Proposal, error) {
	hook, ok := d.registry.PreCommit(caseTypeID, eventID)
	if !ok {
		d.logger.DebugContext(ctx, "no pre-commit hook registered",
			"case_type_id", caseTypeID,
			"event_id", eventID,
		)
		return proposed, nil
	}

	rewritten, err := hook(ctx, before, proposed)
	if err != nil {
		return models.Proposal{}, dErrors.Wrap(err, dErrors.CodeValidation, "pre-commit hook rejected mutation")
	}
	return rewritten, nil
}

// RunPostCommit applies the registered post-commit hook, if any, swallowing
// errors: the mutation has already committed and must stand.
func (d *Dispatcher) RunPostCommit(ctx context.Context, caseTypeID, eventID string, before, after *models.CaseRecord) {
	hook, ok := d.registry.PostCommit(caseTypeID, eventID)
	if !ok {
		return
	}
	if err := hook(ctx, before, after); err != nil {
		if d.metrics != nil {
			d.metrics.PostCommitFailures.Inc()
		}
		d.logger.ErrorContext(ctx, "post-commit hook failed",
			"case_type_id", caseTypeID,
			"event_id", eventID,
			"case_reference", after.Reference,
			"error", err,
		)
	}
}
