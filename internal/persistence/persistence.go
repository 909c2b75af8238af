package persistence

import (
	"context"

	"github.com/MahmoudNasser1/FZ-Maintenance-Archive/internal/model"
)

type CreateNotificationRequest struct {
	RecipientID   string
	Message       string
	Severity      model.Severity
	RelatedCaseID *string
}

type ListNotificationsRequest struct {
	RecipientID string
	IsRead      *bool
	Offset      int
	Limit       int
}

type NotificationStore interface {
	CreateNotification(ctx context.Context, request CreateNotificationRequest) (model.Notification, error)
	GetNotification(ctx context.Context, notificationID string) (model.Notification, error)
	ListNotifications(ctx context.Context, request ListNotificationsRequest) ([]model.Notification, error)
	UnreadNotificationCount(ctx context.Context, recipientID string) (int, error)
	MarkNotificationRead(ctx context.Context, notificationID string) (model.Notification, error)
	MarkAllNotificationsRead(ctx context.Context, recipientID string) (int, error)
	DeleteNotification(ctx context.Context, notificationID string) error
	DeleteReadNotifications(ctx context.Context, recipientID string) (int, error)
	DeleteNotificationsOlderThan(ctx context.Context, days int) (int, error)
}

type ListUsersRequest struct {
	Roles      []model.Role
	ActiveOnly bool
}

type UserStore interface {
	CreateUser(ctx context.Context, user model.User) (model.User, error)
	GetUser(ctx context.Context, userID string) (model.User, error)
	GetUserByUsername(ctx context.Context, username string) (model.User, error)
	ListUsers(ctx context.Context, request ListUsersRequest) ([]model.User, error)
	SetUserActive(ctx context.Context, userID string, active bool) error
}

type ListCasesRequest struct {
	Status       *model.CaseStatus
	TechnicianID *string
	Offset       int
	Limit        int
}

type UpdateCaseRequest struct {
	DeviceModel      *string
	SerialNumber     *string
	ClientName       *string
	ClientPhone      *string
	IssueDescription *string
	Diagnosis        *string
	Solution         *string
}

type CaseStore interface {
	CreateCase(ctx context.Context, c model.Case) (model.Case, error)
	GetCase(ctx context.Context, caseID string) (model.Case, error)
	ListCases(ctx context.Context, request ListCasesRequest) ([]model.Case, error)
	UpdateCase(ctx context.Context, caseID string, request UpdateCaseRequest) (model.Case, error)
	UpdateCaseStatus(ctx context.Context, caseID string, status model.CaseStatus) (model.Case, error)
	AssignTechnician(ctx context.Context, caseID string, technicianID string) (model.Case, error)
	DeleteCase(ctx context.Context, caseID string) error
	CaseStatusCounts(ctx context.Context) (map[model.CaseStatus]int, error)
}

type NoteStore interface {
	CreateNote(ctx context.Context, note model.Note) (model.Note, error)
	ListNotesByCase(ctx context.Context, caseID string) ([]model.Note, error)
	DeleteNote(ctx context.Context, noteID string) error
}

type ActivityStore interface {
	CreateActivity(ctx context.Context, activity model.Activity) (model.Activity, error)
	ListActivitiesByCase(ctx context.Context, caseID string) ([]model.Activity, error)
}

type WorkLogStore interface {
	CreateWorkLog(ctx context.Context, workLog model.WorkLog) (model.WorkLog, error)
	ListWorkLogsByCase(ctx context.Context, caseID string) ([]model.WorkLog, error)
	DeleteWorkLog(ctx context.Context, workLogID string) error
}
