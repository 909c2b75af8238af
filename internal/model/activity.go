package model

import "time"

// Activity is one entry in a case's audit trail. Unlike notifications,
// activities are not addressed to anyone and are never deleted by
// users; CaseID is nulled when the case itself is removed so the
// record survives.
type Activity struct {
	ID          string    `db:"id" json:"id"`
	CaseID      *string   `db:"case_id" json:"caseId"`
	Action      string    `db:"action" json:"action"`
	PerformedBy string    `db:"performed_by" json:"performedBy"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
}
