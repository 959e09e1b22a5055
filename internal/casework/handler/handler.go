package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"caseflow/internal/audit"
	"caseflow/internal/casework/models"
	"caseflow/internal/platform/middleware"
	"caseflow/internal/transport/http/shared"
	dErrors "caseflow/pkg/domain-errors"
	"caseflow/pkg/requestcontext"
)

//go:generate mockgen -source=handler.go -destination=mocks/service_mocks.go -package=mocks Service

// Service defines the case operations the HTTP layer delegates to.
type Service interface {
	Submit(ctx context.Context, req models.MutationRequest) (*models.CaseView, error)
	Read(ctx context.Context, reference int64) (*models.CaseView, error)
	History(ctx context.Context, reference int64) ([]audit.Entry, error)
}

// Handler exposes the case endpoints.
type Handler struct {
	logger       *slog.Logger
	cases        Service
	jwtValidator middleware.JWTValidator
}

func New(cases Service, logger *slog.Logger, jwtValidator middleware.JWTValidator) *Handler {
	return &Handler{
		logger:       logger,
		cases:        cases,
		jwtValidator: jwtValidator,
	}
}

// Register mounts the case routes with the standard middleware chain.
func (h *Handler) Register(r chi.Router) {
	caseRouter := chi.NewRouter()
	caseRouter.Use(middleware.Recovery(h.logger))
	caseRouter.Use(middleware.RequestID)
	caseRouter.Use(middleware.Logger(h.logger))
	caseRouter.Use(middleware.Timeout(30 * time.Second))
	caseRouter.Use(middleware.ContentTypeJSON)
	caseRouter.Use(middleware.RequireAuth(h.jwtValidator, h.logger))
	caseRouter.Post("/{reference}/events", h.handleSubmitEvent)
	caseRouter.Get("/{reference}", h.handleGetCase)
	caseRouter.Get("/{reference}/history", h.handleGetHistory)

	r.Mount("/cases", caseRouter)
}

func (h *Handler) handleSubmitEvent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	reference, err := parseReference(r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	var req SubmitEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.WarnContext(ctx, "invalid submit event request",
			"request_id", requestID,
			"error", err.Error(),
		)
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	actorID := requestcontext.ActorID(ctx)
	if actorID == "" {
		h.logger.ErrorContext(ctx, "actor missing from context despite auth middleware",
			"request_id", requestID,
		)
		shared.WriteError(w, dErrors.New(dErrors.CodeInternal, "authentication context error"))
		return
	}
	actorName := requestcontext.Actor(ctx)

	view, err := h.cases.Submit(ctx, models.MutationRequest{
		Reference:       reference,
		Jurisdiction:    req.Jurisdiction,
		CaseTypeID:      req.CaseTypeID,
		CaseTypeVersion: req.CaseTypeVersion,
		EventID:         req.EventID,
		EventName:       req.EventName,
		Summary:         req.Summary,
		Description:     req.Description,
		Actor: models.Actor{
			ID:        actorID,
			FirstName: actorName.First,
			LastName:  actorName.Last,
		},
		ExpectedVersion: req.ExpectedVersion,
		Proposed: models.Proposal{
			State:                  req.State,
			StateName:              req.StateName,
			Data:                   req.Data,
			DataClassification:     req.DataClassification,
			SecurityClassification: models.SecurityClassification(req.Classification),
		},
	})
	if err != nil {
		if dErrors.Is(err, dErrors.CodeConflict) {
			h.logger.InfoContext(ctx, "case mutation conflicted",
				"request_id", requestID,
				"case_reference", reference,
			)
		} else {
			h.logger.WarnContext(ctx, "case mutation failed",
				"request_id", requestID,
				"case_reference", reference,
				"error", err.Error(),
			)
		}
		shared.WriteError(w, err)
		return
	}

	status := http.StatusOK
	if view.Version == 1 {
		status = http.StatusCreated
	}
	shared.WriteJSON(w, status, toCaseResponse(view))
}

func (h *Handler) handleGetCase(w http.ResponseWriter, r *http.Request) {
	reference, err := parseReference(r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	view, err := h.cases.Read(r.Context(), reference)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, toCaseResponse(view))
}

func (h *Handler) handleGetHistory(w http.ResponseWriter, r *http.Request) {
	reference, err := parseReference(r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	entries, err := h.cases.History(r.Context(), reference)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, toHistoryResponse(entries))
}

func parseReference(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "reference")
	reference, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || reference <= 0 {
		return 0, dErrors.New(dErrors.CodeBadRequest, "case reference must be a positive integer")
	}
	return reference, nil
}
