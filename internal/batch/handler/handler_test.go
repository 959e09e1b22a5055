package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"caseflow/internal/batch"
	"caseflow/internal/batch/handler/mocks"
	dErrors "caseflow/pkg/domain-errors"
)

func TestHandler_handleStartRun(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRunner := mocks.NewMockRunner(ctrl)
	mockRunner.EXPECT().
		Run(gomock.Any(), batch.RunParams{
			CaseTypeID: "grant-of-representation",
			State:      "awaiting-documents",
			EventID:    "escalate",
			EventName:  "Escalate stalled case",
		}).
		Return(&batch.Run{
			ID:        "run-1",
			EventID:   "escalate",
			Status:    batch.RunStatusCompleted,
			Total:     5,
			Processed: []int64{1, 2, 4, 5},
			Errored:   []int64{3},
		}, nil).
		Times(1)

	h := New(mockRunner, slog.New(slog.DiscardHandler), nil)

	body, err := json.Marshal(StartRunRequest{
		CaseTypeID: "grant-of-representation",
		State:      "awaiting-documents",
		EventID:    "escalate",
		EventName:  "Escalate stalled case",
	})
	require.NoError(t, err)

	w := httptest.NewRecorder()
	h.handleStartRun(w, httptest.NewRequest("POST", "/batch/runs", bytes.NewReader(body)))

	assert.Equal(t, http.StatusCreated, w.Code)

	var resp RunResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "run-1", resp.ID)
	assert.Equal(t, []int64{3}, resp.Errored)
}

func TestHandler_handleStartRun_MissingFields(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	h := New(mocks.NewMockRunner(ctrl), slog.New(slog.DiscardHandler), nil)

	w := httptest.NewRecorder()
	h.handleStartRun(w, httptest.NewRequest("POST", "/batch/runs", bytes.NewReader([]byte(`{"event_id":"escalate"}`))))

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandler_handleStartRun_SearchFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRunner := mocks.NewMockRunner(ctrl)
	mockRunner.EXPECT().
		Run(gomock.Any(), gomock.Any()).
		Return(nil, dErrors.New(dErrors.CodeUnavailable, "case search failed")).
		Times(1)

	h := New(mockRunner, slog.New(slog.DiscardHandler), nil)

	body := []byte(`{"case_type_id":"grant-of-representation","state":"awaiting-documents","event_id":"escalate"}`)
	w := httptest.NewRecorder()
	h.handleStartRun(w, httptest.NewRequest("POST", "/batch/runs", bytes.NewReader(body)))

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestHandler_handleGetRun(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRunner := mocks.NewMockRunner(ctrl)
	mockRunner.EXPECT().
		Status(gomock.Any(), "run-1").
		Return(&batch.Run{ID: "run-1", Status: batch.RunStatusCompleted}, nil).
		Times(1)

	h := New(mockRunner, slog.New(slog.DiscardHandler), nil)

	req := httptest.NewRequest("GET", "/batch/runs/run-1", nil)
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", "run-1")
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))

	w := httptest.NewRecorder()
	h.handleGetRun(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestHandler_handleGetRun_NotFound(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRunner := mocks.NewMockRunner(ctrl)
	mockRunner.EXPECT().
		Status(gomock.Any(), "missing").
		Return(nil, dErrors.New(dErrors.CodeNotFound, "batch run missing not found")).
		Times(1)

	h := New(mockRunner, slog.New(slog.DiscardHandler), nil)

	req := httptest.NewRequest("GET", "/batch/runs/missing", nil)
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", "missing")
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))

	w := httptest.NewRecorder()
	h.handleGetRun(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}
