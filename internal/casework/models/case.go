package models

import (
	"bytes"
	"encoding/json"
	"time"
)

// SecurityClassification is the coarse access level stamped on a case and on
// every audit entry cut from it.
type SecurityClassification string

const (
	ClassificationPublic     SecurityClassification = "PUBLIC"
	ClassificationPrivate    SecurityClassification = "PRIVATE"
	ClassificationRestricted SecurityClassification = "RESTRICTED"
)

// Valid reports whether the classification is one of the known levels.
func (c SecurityClassification) Valid() bool {
	switch c {
	case ClassificationPublic, ClassificationPrivate, ClassificationRestricted:
		return true
	}
	return false
}

// CaseRecord is the unit of mutable state. The reference is immutable once
// assigned; version strictly increases by one on every write that changes
// the row.
type CaseRecord struct {
	Reference              int64
	Jurisdiction           string
	CaseTypeID             string
	State                  string
	Data                   json.RawMessage
	DataClassification     json.RawMessage
	SecurityClassification SecurityClassification
	Version                int64
	CreatedAt              time.Time
	LastModified           time.Time
}

// Actor identifies who submitted a mutation.
type Actor struct {
	ID        string
	FirstName string
	LastName  string
}

// MutationRequest is the transient "apply event X to case Y" input. It is
// consumed by the coordinator and never persisted as such.
type MutationRequest struct {
	Reference       int64
	Jurisdiction    string
	CaseTypeID      string
	CaseTypeVersion string
	EventID         string
	EventName       string
	Summary         string
	Description     string
	Actor           Actor
	ExpectedVersion int64
	Proposed        Proposal
}

// Proposal is the data/state payload a mutation wants persisted. Pre-commit
// hooks may rewrite it before the write.
type Proposal struct {
	State                  string
	StateName              string
	Data                   json.RawMessage
	DataClassification     json.RawMessage
	SecurityClassification SecurityClassification
}

// CaseView is the merged read model: the persisted row plus metadata derived
// from the newest audit entry.
type CaseView struct {
	CaseRecord
	LastEventName string
	LastSummary   string
	LastStateName string
}

// JSONEqual compares two JSON documents structurally, so formatting and key
// order do not defeat no-op detection.
func JSONEqual(a, b json.RawMessage) bool {
	if len(bytes.TrimSpace(a)) == 0 && len(bytes.TrimSpace(b)) == 0 {
		return true
	}
	var av, bv any
	if err := json.Unmarshal(a, &av); err != nil {
		return bytes.Equal(a, b)
	}
	if err := json.Unmarshal(b, &bv); err != nil {
		return bytes.Equal(a, b)
	}
	return jsonValueEqual(av, bv)
}

func jsonValueEqual(a, b any) bool {
	switch av := a.(type) {
	case map[string]any:
		bv, ok := b.(map[string]any)
		if !ok || len(av) != len(bv) {
			return false
		}
		for k, v := range av {
			bvv, ok := bv[k]
			if !ok || !jsonValueEqual(v, bvv) {
				return false
			}
		}
		return true
	case []any:
		bv, ok := b.([]any)
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !jsonValueEqual(av[i], bv[i]) {
				return false
			}
		}
		return true
	default:
		return a == b
	}
}

// Unchanged reports whether the proposal matches what the record already
// holds. An unchanged write must not advance the version or cut an audit
// entry.
func (r *CaseRecord) Unchanged(p Proposal) bool {
	return r.State == p.State &&
		r.SecurityClassification == p.SecurityClassification &&
		JSONEqual(r.Data, p.Data) &&
		JSONEqual(r.DataClassification, p.DataClassification)
}
