package batch_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"caseflow/internal/batch"
	"caseflow/internal/platform/config"
	"caseflow/pkg/platform/sentinel"
)

func TestHTTPPlatformSearch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/cases", r.URL.Path)
		assert.Equal(t, "grant-of-representation", r.URL.Query().Get("case_type_id"))
		assert.Equal(t, "awaiting-documents", r.URL.Query().Get("state"))
		assert.Equal(t, "Bearer sweep-token", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"references":[1,2,3]}`))
	}))
	defer srv.Close()

	p := batch.NewHTTPPlatform(config.PlatformConfig{BaseURL: srv.URL, BearerToken: "sweep-token"})

	refs, err := p.Search(context.Background(), "grant-of-representation", "awaiting-documents")
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2, 3}, refs)
}

func TestHTTPPlatformSearch_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	p := batch.NewHTTPPlatform(config.PlatformConfig{BaseURL: srv.URL})

	_, err := p.Search(context.Background(), "grant-of-representation", "awaiting-documents")
	require.Error(t, err)
	assert.True(t, errors.Is(err, sentinel.ErrUnavailable))
}

func TestHTTPPlatformSubmitEvent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/cases/42/events", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	p := batch.NewHTTPPlatform(config.PlatformConfig{BaseURL: srv.URL})

	err := p.SubmitEvent(context.Background(), batch.EventSubmission{
		CaseReference: 42,
		CaseTypeID:    "grant-of-representation",
		EventID:       "escalate",
	})
	require.NoError(t, err)
}

func TestHTTPPlatformSubmitEvent_ConflictClass(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusConflict)
	}))
	defer srv.Close()

	p := batch.NewHTTPPlatform(config.PlatformConfig{BaseURL: srv.URL})

	err := p.SubmitEvent(context.Background(), batch.EventSubmission{CaseReference: 42, EventID: "escalate"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, sentinel.ErrRemoteConflict))
}

func TestHTTPPlatformSubmitEvent_OtherFailureIsNotConflict(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
	}))
	defer srv.Close()

	p := batch.NewHTTPPlatform(config.PlatformConfig{BaseURL: srv.URL})

	err := p.SubmitEvent(context.Background(), batch.EventSubmission{CaseReference: 42, EventID: "escalate"})
	require.Error(t, err)
	assert.False(t, errors.Is(err, sentinel.ErrRemoteConflict))
}

func TestMemoryCheckpointsRoundTrip(t *testing.T) {
	store := batch.NewMemoryCheckpoints()

	run := &batch.Run{ID: "run-1", EventID: "escalate", Status: batch.RunStatusRunning, Total: 5}
	require.NoError(t, store.Save(context.Background(), run))

	run.Status = batch.RunStatusCompleted
	run.Processed = []int64{1, 2, 4, 5}
	run.Errored = []int64{3}
	require.NoError(t, store.Save(context.Background(), run))

	got, err := store.Get(context.Background(), "run-1")
	require.NoError(t, err)
	assert.Equal(t, batch.RunStatusCompleted, got.Status)
	assert.Equal(t, []int64{3}, got.Errored)

	_, err = store.Get(context.Background(), "run-2")
	assert.True(t, errors.Is(err, sentinel.ErrNotFound))
}
