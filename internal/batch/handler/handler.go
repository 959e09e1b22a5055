// Package handler exposes batch run endpoints: trigger a sweep and query a
// recorded run.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"caseflow/internal/batch"
	"caseflow/internal/platform/middleware"
	"caseflow/internal/transport/http/shared"
	dErrors "caseflow/pkg/domain-errors"
	"caseflow/pkg/requestcontext"
)

//go:generate mockgen -source=handler.go -destination=mocks/runner_mocks.go -package=mocks Runner

// Runner defines the batch operations the HTTP layer delegates to.
type Runner interface {
	Run(ctx context.Context, params batch.RunParams) (*batch.Run, error)
	Status(ctx context.Context, id string) (*batch.Run, error)
}

// Handler exposes the batch run endpoints.
type Handler struct {
	logger       *slog.Logger
	runner       Runner
	jwtValidator middleware.JWTValidator
}

func New(runner Runner, logger *slog.Logger, jwtValidator middleware.JWTValidator) *Handler {
	return &Handler{
		logger:       logger,
		runner:       runner,
		jwtValidator: jwtValidator,
	}
}

// Register mounts the batch routes. Runs are synchronous, so the trigger
// timeout is generous compared to the case endpoints.
func (h *Handler) Register(r chi.Router) {
	batchRouter := chi.NewRouter()
	batchRouter.Use(middleware.Recovery(h.logger))
	batchRouter.Use(middleware.RequestID)
	batchRouter.Use(middleware.Logger(h.logger))
	batchRouter.Use(middleware.Timeout(5 * time.Minute))
	batchRouter.Use(middleware.ContentTypeJSON)
	batchRouter.Use(middleware.RequireAuth(h.jwtValidator, h.logger))
	batchRouter.Post("/runs", h.handleStartRun)
	batchRouter.Get("/runs/{id}", h.handleGetRun)

	r.Mount("/batch", batchRouter)
}

// StartRunRequest describes the sweep to execute.
type StartRunRequest struct {
	CaseTypeID  string `json:"case_type_id"`
	State       string `json:"state"`
	EventID     string `json:"event_id"`
	EventName   string `json:"event_name,omitempty"`
	Summary     string `json:"summary,omitempty"`
	Description string `json:"description,omitempty"`
}

// RunResponse is the wire form of a recorded run.
type RunResponse struct {
	ID         string    `json:"id"`
	CaseTypeID string    `json:"case_type_id"`
	EventID    string    `json:"event_id"`
	State      string    `json:"state"`
	Status     string    `json:"status"`
	Total      int       `json:"total"`
	Processed  []int64   `json:"processed"`
	Errored    []int64   `json:"errored"`
	Error      string    `json:"error,omitempty"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at,omitzero"`
}

func (h *Handler) handleStartRun(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	var req StartRunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.WarnContext(ctx, "invalid batch run request",
			"request_id", requestID,
			"error", err.Error(),
		)
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	if req.CaseTypeID == "" || req.State == "" || req.EventID == "" {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "case_type_id, state and event_id are required"))
		return
	}

	run, err := h.runner.Run(ctx, batch.RunParams{
		CaseTypeID:  req.CaseTypeID,
		State:       req.State,
		EventID:     req.EventID,
		EventName:   req.EventName,
		Summary:     req.Summary,
		Description: req.Description,
	})
	if err != nil {
		h.logger.ErrorContext(ctx, "batch run failed",
			"request_id", requestID,
			"event_id", req.EventID,
			"error", err.Error(),
		)
		shared.WriteError(w, err)
		return
	}

	shared.WriteJSON(w, http.StatusCreated, toRunResponse(run))
}

func (h *Handler) handleGetRun(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "run id is required"))
		return
	}

	run, err := h.runner.Status(r.Context(), id)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, toRunResponse(run))
}

func toRunResponse(run *batch.Run) RunResponse {
	resp := RunResponse{
		ID:         run.ID,
		CaseTypeID: run.CaseTypeID,
		EventID:    run.EventID,
		State:      run.State,
		Status:     string(run.Status),
		Total:      run.Total,
		Processed:  run.Processed,
		Errored:    run.Errored,
		Error:      run.Error,
		StartedAt:  run.StartedAt,
		FinishedAt: run.FinishedAt,
	}
	if resp.Processed == nil {
		resp.Processed = []int64{}
	}
	if resp.Errored == nil {
		resp.Errored = []int64{}
	}
	return resp
}
