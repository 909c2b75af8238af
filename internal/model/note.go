package model

import "time"

// Note is a free-form comment a user leaves on a case.
type Note struct {
	ID        string    `db:"id" json:"id"`
	CaseID    string    `db:"case_id" json:"caseId"`
	AuthorID  string    `db:"author_id" json:"authorId"`
	Content   string    `db:"content" json:"content"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// WorkLog records a technician's work session on a case.
type WorkLog struct {
	ID           string     `db:"id" json:"id"`
	CaseID       string     `db:"case_id" json:"caseId"`
	TechnicianID string     `db:"technician_id" json:"technicianId"`
	StartedAt    time.Time  `db:"started_at" json:"startedAt"`
	EndedAt      *time.Time `db:"ended_at" json:"endedAt"`
	Description  string     `db:"description" json:"description"`
	CreatedAt    time.Time  `db:"created_at" json:"createdAt"`
}
