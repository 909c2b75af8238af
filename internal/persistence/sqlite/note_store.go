package sqlite

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/MahmoudNasser1/FZ-Maintenance-Archive/internal/ierr"
	"github.com/MahmoudNasser1/FZ-Maintenance-Archive/internal/model"
	"github.com/google/uuid"
)

func (s *Store) CreateNote(ctx context.Context, note model.Note) (model.Note, error) {
	if strings.TrimSpace(note.Content) == "" {
		return model.Note{}, ierr.New(ierr.ErrorCodeInvalidArgument, errors.New("note content must not be empty"))
	}

	if note.ID == "" {
		note.ID = uuid.New().String()
	}
	note.CreatedAt = time.Now().UTC()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO notes (id, case_id, author_id, content, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		note.ID, note.CaseID, note.AuthorID, note.Content, note.CreatedAt,
	)
	if err != nil {
		return model.Note{}, fmt.Errorf("creating note: %w", err)
	}

	return note, nil
}

func (s *Store) ListNotesByCase(ctx context.Context, caseID string) ([]model.Note, error) {
	notes := []model.Note{}
	err := s.db.SelectContext(ctx, &notes,
		"SELECT * FROM notes WHERE case_id = ? ORDER BY created_at", caseID)
	if err != nil {
		return nil, fmt.Errorf("listing notes: %w", err)
	}

	return notes, nil
}

func (s *Store) DeleteNote(ctx context.Context, noteID string) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM notes WHERE id = ?", noteID)
	if err != nil {
		return fmt.Errorf("deleting note: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting note: %w", err)
	}
	if affected == 0 {
		return ierr.New(ierr.ErrorCodeNotFound, errors.New("note not found"))
	}

	return nil
}

func (s *Store) CreateWorkLog(ctx context.Context, workLog model.WorkLog) (model.WorkLog, error) {
	if workLog.ID == "" {
		workLog.ID = uuid.New().String()
	}
	if workLog.StartedAt.IsZero() {
		workLog.StartedAt = time.Now().UTC()
	}
	workLog.CreatedAt = time.Now().UTC()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO work_logs (id, case_id, technician_id, started_at, ended_at, description, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		workLog.ID, workLog.CaseID, workLog.TechnicianID,
		workLog.StartedAt, workLog.EndedAt, workLog.Description, workLog.CreatedAt,
	)
	if err != nil {
		return model.WorkLog{}, fmt.Errorf("creating work log: %w", err)
	}

	return workLog, nil
}

func (s *Store) ListWorkLogsByCase(ctx context.Context, caseID string) ([]model.WorkLog, error) {
	workLogs := []model.WorkLog{}
	err := s.db.SelectContext(ctx, &workLogs,
		"SELECT * FROM work_logs WHERE case_id = ? ORDER BY started_at", caseID)
	if err != nil {
		return nil, fmt.Errorf("listing work logs: %w", err)
	}

	return workLogs, nil
}

func (s *Store) DeleteWorkLog(ctx context.Context, workLogID string) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM work_logs WHERE id = ?", workLogID)
	if err != nil {
		return fmt.Errorf("deleting work log: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting work log: %w", err)
	}
	if affected == 0 {
		return ierr.New(ierr.ErrorCodeNotFound, errors.New("work log not found"))
	}

	return nil
}
