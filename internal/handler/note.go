package handler

import (
	"context"
	"time"

	"github.com/MahmoudNasser1/FZ-Maintenance-Archive/internal/model"
	"github.com/MahmoudNasser1/FZ-Maintenance-Archive/internal/persistence"
)

type CreateNoteRequest struct {
	Content string `json:"content"`
}

type CreateWorkLogRequest struct {
	StartedAt   time.Time  `json:"startedAt"`
	EndedAt     *time.Time `json:"endedAt"`
	Description string     `json:"description"`
}

type NoteHandler struct {
	notes    persistence.NoteStore
	workLogs persistence.WorkLogStore
	cases    persistence.CaseStore
}

func NewNoteHandler(
	notes persistence.NoteStore,
	workLogs persistence.WorkLogStore,
	cases persistence.CaseStore,
) *NoteHandler {
	return &NoteHandler{
		notes:    notes,
		workLogs: workLogs,
		cases:    cases,
	}
}

func (h *NoteHandler) CreateNote(ctx context.Context, caseID string, req CreateNoteRequest) (model.Note, error) {
	identity, err := requireIdentity(ctx)
	if err != nil {
		return model.Note{}, err
	}

	if _, err := h.cases.GetCase(ctx, caseID); err != nil {
		return model.Note{}, err
	}

	return h.notes.CreateNote(ctx, model.Note{
		CaseID:   caseID,
		AuthorID: identity.UserID,
		Content:  req.Content,
	})
}

func (h *NoteHandler) ListNotes(ctx context.Context, caseID string) ([]model.Note, error) {
	return h.notes.ListNotesByCase(ctx, caseID)
}

func (h *NoteHandler) CreateWorkLog(ctx context.Context, caseID string, req CreateWorkLogRequest) (model.WorkLog, error) {
	identity, err := requireIdentity(ctx)
	if err != nil {
		return model.WorkLog{}, err
	}

	if _, err := h.cases.GetCase(ctx, caseID); err != nil {
		return model.WorkLog{}, err
	}

	return h.workLogs.CreateWorkLog(ctx, model.WorkLog{
		CaseID:       caseID,
		TechnicianID: identity.UserID,
		StartedAt:    req.StartedAt,
		EndedAt:      req.EndedAt,
		Description:  req.Description,
	})
}

func (h *NoteHandler) ListWorkLogs(ctx context.Context, caseID string) ([]model.WorkLog, error) {
	return h.workLogs.ListWorkLogsByCase(ctx, caseID)
}
