package batch

import (
	"context"
	"errors"
	"log/slog"

	"caseflow/internal/platform/metrics"
	"caseflow/pkg/platform/sentinel"
)

// submitAttempts bounds how often one case's submission is retried when the
// upstream platform reports write contention.
const submitAttempts = 3

// Updater masks transient write contention on the upstream platform. The
// submission is rebuilt by the caller's closure on every attempt, so a retry
// never replays a stale payload.
type Updater struct {
	platform CasePlatform
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

func NewUpdater(platform CasePlatform, logger *slog.Logger, m *metrics.Metrics) *Updater {
	return &Updater{
		platform: platform,
		logger:   logger,
		metrics:  m,
	}
}

// Submit pushes one event for one case, retrying conflict-class failures up
// to the attempt bound. Exhaustion or any other failure class surfaces as a
// ManagementError.
func (u *Updater) Submit(ctx context.Context, reference int64, build func() EventSubmission) error {
	made, err := retry(ctx, submitAttempts, isRemoteConflict, func(ctx context.Context) error {
		return u.platform.SubmitEvent(ctx, build())
	})
	if made > 1 {
		if u.metrics != nil {
			u.metrics.RemoteRetries.Add(float64(made - 1))
		}
		u.logger.InfoContext(ctx, "remote submission retried",
			"case_reference", reference,
			"attempts", made,
		)
	}
	if err != nil {
		return &ManagementError{CaseReference: reference, Attempts: made, cause: err}
	}
	return nil
}

func isRemoteConflict(err error) bool {
	return errors.Is(err, sentinel.ErrRemoteConflict)
}
