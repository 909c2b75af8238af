package notify

import (
	"time"

	"github.com/MahmoudNasser1/FZ-Maintenance-Archive/internal/model"
)

// Payload is the frame pushed over a live channel. It is a projection
// of the persisted notification; the row is the durable record and the
// only order signal across dispatches.
type Payload struct {
	Type          string         `json:"type"`
	Severity      model.Severity `json:"notification_type"`
	Message       string         `json:"message"`
	RelatedCaseID *string        `json:"related_case_id"`
	Timestamp     time.Time      `json:"timestamp"`
}

func NewPayload(message string, severity model.Severity, relatedCaseID *string) Payload {
	return Payload{
		Type:          "notification",
		Severity:      severity,
		Message:       message,
		RelatedCaseID: relatedCaseID,
		Timestamp:     time.Now(),
	}
}
