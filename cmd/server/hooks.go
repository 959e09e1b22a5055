package main

import (
	"context"
	"errors"
	"log/slog"

	"caseflow/internal/casework/hooks"
	"caseflow/internal/casework/models"
)

// registerCaseHooks wires the built-in hooks for the grant-of-representation
// case type. Additional case types register theirs the same way.
func registerCaseHooks(registry *hooks.Registry, log *slog.Logger) {
	// Escalation forces the workflow state regardless of what the caller
	// proposed.
	registry.RegisterPreCommit("grant-of-representation", "escalate",
		func(_ context.Context, before *models.CaseRecord, p models.Proposal) (models.Proposal, error) {
			if before == nil {
				return p, errors.New("cannot escalate a case that does not exist")
			}
			p.State = "escalated"
			p.StateName = "Escalated"
			return p, nil
		})

	registry.RegisterPreCommit("grant-of-representation", "award",
		func(_ context.Context, before *models.CaseRecord, p models.Proposal) (models.Proposal, error) {
			if before == nil {
				return p, errors.New("cannot award a case that does not exist")
			}
			if before.State == "closed" {
				return p, errors.New("closed cases cannot be awarded")
			}
			p.State = "awarded"
			p.StateName = "Awarded"
			return p, nil
		})

	registry.RegisterPostCommit("grant-of-representation", "award",
		func(ctx context.Context, _, after *models.CaseRecord) error {
			log.InfoContext(ctx, "award notification queued",
				"case_reference", after.Reference,
				"version", after.Version,
			)
			return nil
		})
}
