package audit

import (
	"encoding/json"

	"caseflow/internal/casework/models"
)

// nullableJSON maps an empty document to SQL NULL so jsonb columns stay null
// instead of holding empty strings the database would reject.
func nullableJSON(doc json.RawMessage) any {
	if len(doc) == 0 {
		return nil
	}
	return []byte(doc)
}

func classificationFromString(s string) models.SecurityClassification {
	c := models.SecurityClassification(s)
	if !c.Valid() {
		return models.ClassificationRestricted
	}
	return c
}
