// Package batch drives maintenance sweeps: apply one event to every case
// sitting in a given workflow state on the upstream case platform, isolating
// per-case failures so one bad case never blocks the rest.
package batch

import (
	"context"
	"fmt"
)

//go:generate mockgen -source=platform.go -destination=mocks/platform_mocks.go -package=mocks CasePlatform

// EventSubmission is one event pushed to the upstream platform for one case.
type EventSubmission struct {
	CaseReference int64  `json:"case_reference"`
	CaseTypeID    string `json:"case_type_id"`
	EventID       string `json:"event_id"`
	EventName     string `json:"event_name,omitempty"`
	Summary       string `json:"summary,omitempty"`
	Description   string `json:"description,omitempty"`
}

// CasePlatform is the upstream system of record the processor sweeps over.
// Search returns the references currently in the given workflow state.
// SubmitEvent performs the platform's own start/submit handshake and reports
// write contention as sentinel.ErrRemoteConflict.
type CasePlatform interface {
	Search(ctx context.Context, caseTypeID, state string) ([]int64, error)
	SubmitEvent(ctx context.Context, sub EventSubmission) error
}

// ManagementError is the terminal failure for one case in a sweep: either the
// retry bound was exhausted on contention or the platform failed outright.
type ManagementError struct {
	CaseReference int64
	Attempts      int
	cause         error
}

func (e *ManagementError) Error() string {
	return fmt.Sprintf("case %d failed after %d attempt(s): %v", e.CaseReference, e.Attempts, e.cause)
}

func (e *ManagementError) Unwrap() error {
	return e.cause
}
