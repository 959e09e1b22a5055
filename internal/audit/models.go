package audit

import (
	"encoding/json"
	"time"

	"caseflow/internal/casework/models"
)

// Entry is one immutable audit record. Exactly one entry exists per
// successful case mutation; entries are never updated or deleted and they
// outlive any later evolution of the case row itself.
type Entry struct {
	// ID is the insertion sequence assigned by the store; ordering key.
	ID                     int64
	EventID                string
	CaseReference          int64
	CaseTypeID             string
	CaseTypeVersion        string
	StateID                string
	StateName              string
	EventName              string
	Summary                string
	Description            string
	ActorID                string
	ActorFirstName         string
	ActorLastName          string
	SecurityClassification models.SecurityClassification
	Data                   json.RawMessage
	DataClassification     json.RawMessage
	CreatedAt              time.Time
}
