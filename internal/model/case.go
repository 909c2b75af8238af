package model

import "time"

type CaseStatus string

const (
	CaseStatusInProgress   CaseStatus = "in_progress"
	CaseStatusWaitingParts CaseStatus = "waiting_parts"
	CaseStatusFixed        CaseStatus = "fixed"
	CaseStatusDelivered    CaseStatus = "delivered"
	CaseStatusCancelled    CaseStatus = "cancelled"
)

func (s CaseStatus) Valid() bool {
	switch s {
	case CaseStatusInProgress, CaseStatusWaitingParts, CaseStatusFixed,
		CaseStatusDelivered, CaseStatusCancelled:
		return true
	}

	return false
}

// Case is a device-repair case tracked by the shop.
type Case struct {
	ID               string     `db:"id" json:"id"`
	CaseNumber       string     `db:"case_number" json:"caseNumber"`
	DeviceModel      string     `db:"device_model" json:"deviceModel"`
	SerialNumber     string     `db:"serial_number" json:"serialNumber"`
	ClientName       string     `db:"client_name" json:"clientName"`
	ClientPhone      string     `db:"client_phone" json:"clientPhone"`
	IssueDescription string     `db:"issue_description" json:"issueDescription"`
	Diagnosis        string     `db:"diagnosis" json:"diagnosis"`
	Solution         string     `db:"solution" json:"solution"`
	Status           CaseStatus `db:"status" json:"status"`
	TechnicianID     *string    `db:"technician_id" json:"technicianId"`
	CreatedAt        time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt        time.Time  `db:"updated_at" json:"updatedAt"`
}
