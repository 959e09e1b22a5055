package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"caseflow/internal/casework/models"
	"caseflow/pkg/platform/sentinel"
)

// InMemoryStore mirrors the CAS semantics of the Postgres store under a
// single mutex. Used by unit tests and local development.
type InMemoryStore struct {
	mu    sync.Mutex
	cases map[int64]*models.CaseRecord
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{cases: make(map[int64]*models.CaseRecord)}
}

func (s *InMemoryStore) Upsert(_ context.Context, params UpsertParams) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, exists := s.cases[params.Reference]
	if !exists {
		if params.ExpectedVersion != 0 {
			return 0, fmt.Errorf("case %d does not exist: %w", params.Reference, sentinel.ErrConflict)
		}
		now := time.Now()
		s.cases[params.Reference] = &models.CaseRecord{
			Reference:              params.Reference,
			Jurisdiction:           params.Jurisdiction,
			CaseTypeID:             params.CaseTypeID,
			State:                  params.Proposed.State,
			Data:                   cloneJSON(params.Proposed.Data),
			DataClassification:     cloneJSON(params.Proposed.DataClassification),
			SecurityClassification: params.Proposed.SecurityClassification,
			Version:                1,
			CreatedAt:              now,
			LastModified:           now,
		}
		return 1, nil
	}

	if current.Version != params.ExpectedVersion {
		return 0, fmt.Errorf("case %d at version %d, caller expected %d: %w",
			params.Reference, current.Version, params.ExpectedVersion, sentinel.ErrConflict)
	}

	if current.Unchanged(params.Proposed) {
		return current.Version, nil
	}

	current.State = params.Proposed.State
	current.Data = cloneJSON(params.Proposed.Data)
	current.DataClassification = cloneJSON(params.Proposed.DataClassification)
	current.SecurityClassification = params.Proposed.SecurityClassification
	current.Version++
	current.LastModified = time.Now()
	return current.Version, nil
}

func (s *InMemoryStore) Get(_ context.Context, reference int64) (*models.CaseRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.cases[reference]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	copied := *current
	copied.Data = cloneJSON(current.Data)
	copied.DataClassification = cloneJSON(current.DataClassification)
	return &copied, nil
}

func cloneJSON(doc []byte) []byte {
	if doc == nil {
		return nil
	}
	out := make([]byte, len(doc))
	copy(out, doc)
	return out
}
