package batch

import (
	"context"
	"sync"
	"time"

	"caseflow/pkg/platform/sentinel"
)

// RunStatus is the lifecycle of one batch run.
type RunStatus string

const (
	RunStatusRunning   RunStatus = "RUNNING"
	RunStatusCompleted RunStatus = "COMPLETED"
	RunStatusFailed    RunStatus = "FAILED"
)

// Run is the persisted record of one sweep: what it targeted, how far it got
// and how every reference ended up.
type Run struct {
	ID         string    `json:"id"`
	CaseTypeID string    `json:"case_type_id"`
	EventID    string    `json:"event_id"`
	State      string    `json:"state"`
	Status     RunStatus `json:"status"`
	Total      int       `json:"total"`
	Processed  []int64   `json:"processed,omitempty"`
	Errored    []int64   `json:"errored,omitempty"`
	Error      string    `json:"error,omitempty"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at,omitzero"`
}

// CheckpointStore records run progress so a run's outcome is queryable by id
// after the request that triggered it has returned.
type CheckpointStore interface {
	Save(ctx context.Context, run *Run) error
	// Get returns sentinel.ErrNotFound for an unknown run id.
	Get(ctx context.Context, id string) (*Run, error)
}

// MemoryCheckpoints keeps runs in a map. Used in tests and as the fallback
// when Redis is not configured.
type MemoryCheckpoints struct {
	mu   sync.RWMutex
	runs map[string]Run
}

func NewMemoryCheckpoints() *MemoryCheckpoints {
	return &MemoryCheckpoints{runs: make(map[string]Run)}
}

func (s *MemoryCheckpoints) Save(_ context.Context, run *Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs[run.ID] = *run
	return nil
}

func (s *MemoryCheckpoints) Get(_ context.Context, id string) (*Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	run, ok := s.runs[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &run, nil
}
