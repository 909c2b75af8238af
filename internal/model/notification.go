package model

import "time"

// Severity classifies a notification for the client UI.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeveritySuccess Severity = "success"
	SeverityError   Severity = "error"
)

type Notification struct {
	ID            string    `db:"id" json:"id"`
	RecipientID   string    `db:"recipient_id" json:"recipientId"`
	Message       string    `db:"message" json:"message"`
	Severity      Severity  `db:"severity" json:"severity"`
	IsRead        bool      `db:"is_read" json:"isRead"`
	RelatedCaseID *string   `db:"related_case_id" json:"relatedCaseId"`
	CreatedAt     time.Time `db:"created_at" json:"createdAt"`
}
