package handler

import (
	"encoding/json"
	"time"

	"caseflow/internal/audit"
	"caseflow/internal/casework/models"
)

// SubmitEventRequest is the wire form of a mutation: apply event X to case Y
// with proposed data Z. Actor identity comes from the bearer token, not the
// body.
type SubmitEventRequest struct {
	EventID            string          `json:"event_id"`
	EventName          string          `json:"event_name"`
	Summary            string          `json:"summary,omitempty"`
	Description        string          `json:"description,omitempty"`
	Jurisdiction       string          `json:"jurisdiction"`
	CaseTypeID         string          `json:"case_type_id"`
	CaseTypeVersion    string          `json:"case_type_version,omitempty"`
	ExpectedVersion    int64           `json:"expected_version"`
	State              string          `json:"state"`
	StateName          string          `json:"state_name,omitempty"`
	Data               json.RawMessage `json:"data,omitempty"`
	DataClassification json.RawMessage `json:"data_classification,omitempty"`
	Classification     string          `json:"security_classification"`
}

// CaseResponse is the merged persisted view returned after a submit or read.
type CaseResponse struct {
	Reference              int64           `json:"reference"`
	Jurisdiction           string          `json:"jurisdiction"`
	CaseTypeID             string          `json:"case_type_id"`
	State                  string          `json:"state"`
	StateName              string          `json:"state_name,omitempty"`
	Data                   json.RawMessage `json:"data,omitempty"`
	DataClassification     json.RawMessage `json:"data_classification,omitempty"`
	SecurityClassification string          `json:"security_classification"`
	Version                int64           `json:"version"`
	LastEventName          string          `json:"last_event_name,omitempty"`
	LastSummary            string          `json:"last_summary,omitempty"`
	CreatedAt              time.Time       `json:"created_at"`
	LastModified           time.Time       `json:"last_modified"`
}

// HistoryEntryResponse is one audit entry on the wire.
type HistoryEntryResponse struct {
	Sequence               int64           `json:"sequence"`
	EventID                string          `json:"event_id"`
	EventName              string          `json:"event_name"`
	StateID                string          `json:"state_id"`
	StateName              string          `json:"state_name,omitempty"`
	Summary                string          `json:"summary,omitempty"`
	Description            string          `json:"description,omitempty"`
	ActorID                string          `json:"actor_id"`
	ActorFirstName         string          `json:"actor_first_name,omitempty"`
	ActorLastName          string          `json:"actor_last_name,omitempty"`
	SecurityClassification string          `json:"security_classification"`
	Data                   json.RawMessage `json:"data,omitempty"`
	CreatedAt              time.Time       `json:"created_at"`
}

func toCaseResponse(view *models.CaseView) CaseResponse {
	return CaseResponse{
		Reference:              view.Reference,
		Jurisdiction:           view.Jurisdiction,
		CaseTypeID:             view.CaseTypeID,
		State:                  view.State,
		StateName:              view.LastStateName,
		Data:                   view.Data,
		DataClassification:     view.DataClassification,
		SecurityClassification: string(view.SecurityClassification),
		Version:                view.Version,
		LastEventName:          view.LastEventName,
		LastSummary:            view.LastSummary,
		CreatedAt:              view.CreatedAt,
		LastModified:           view.LastModified,
	}
}

func toHistoryResponse(entries []audit.Entry) []HistoryEntryResponse {
	out := make([]HistoryEntryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, HistoryEntryResponse{
			Sequence:               e.ID,
			EventID:                e.EventID,
			EventName:              e.EventName,
			StateID:                e.StateID,
			StateName:              e.StateName,
			Summary:                e.Summary,
			Description:            e.Description,
			ActorID:                e.ActorID,
			ActorFirstName:         e.ActorFirstName,
			ActorLastName:          e.ActorLastName,
			SecurityClassification: string(e.SecurityClassification),
			Data:                   e.Data,
			CreatedAt:              e.CreatedAt,
		})
	}
	return out
}
