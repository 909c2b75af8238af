package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/MahmoudNasser1/FZ-Maintenance-Archive/internal/ierr"
	"github.com/MahmoudNasser1/FZ-Maintenance-Archive/internal/model"
	"github.com/MahmoudNasser1/FZ-Maintenance-Archive/internal/persistence"
	"github.com/google/uuid"
)

func (s *Store) CreateCase(ctx context.Context, c model.Case) (model.Case, error) {
	if strings.TrimSpace(c.DeviceModel) == "" {
		return model.Case{}, ierr.New(ierr.ErrorCodeInvalidArgument, errors.New("device model must not be empty"))
	}
	if strings.TrimSpace(c.ClientName) == "" {
		return model.Case{}, ierr.New(ierr.ErrorCodeInvalidArgument, errors.New("client name must not be empty"))
	}
	if strings.TrimSpace(c.IssueDescription) == "" {
		return model.Case{}, ierr.New(ierr.ErrorCodeInvalidArgument, errors.New("issue description must not be empty"))
	}

	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	if c.Status == "" {
		c.Status = model.CaseStatusInProgress
	}
	if !c.Status.Valid() {
		return model.Case{}, ierr.New(ierr.ErrorCodeInvalidArgument, errors.New("invalid case status"))
	}

	now := time.Now().UTC()
	c.CreatedAt = now
	c.UpdatedAt = now

	// Sequential, human-readable case numbers like FZ-000042. The read
	// and the insert are not atomic, so a concurrent create can land on
	// the same number; when the caller did not pin one, a collision is
	// retried with the next candidate rather than surfaced.
	generated := c.CaseNumber == ""
	for attempt := 0; ; attempt++ {
		if generated {
			var maxRowID int
			err := s.db.GetContext(ctx, &maxRowID,
				"SELECT COALESCE(MAX(rowid), 0) FROM cases")
			if err != nil {
				return model.Case{}, fmt.Errorf("generating case number: %w", err)
			}
			c.CaseNumber = fmt.Sprintf("FZ-%06d", maxRowID+1+attempt)
		}

		_, err := s.db.ExecContext(ctx, `
			INSERT INTO cases (
				id, case_number, device_model, serial_number, client_name,
				client_phone, issue_description, diagnosis, solution,
				status, technician_id, created_at, updated_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			c.ID, c.CaseNumber, c.DeviceModel, c.SerialNumber, c.ClientName,
			c.ClientPhone, c.IssueDescription, c.Diagnosis, c.Solution,
			c.Status, c.TechnicianID, c.CreatedAt, c.UpdatedAt,
		)
		if err == nil {
			return c, nil
		}

		if generated && attempt < 10 && strings.Contains(err.Error(), "cases.case_number") {
			continue
		}
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return model.Case{}, ierr.New(ierr.ErrorCodeAlreadyExists, errors.New("case number or serial number already exists"))
		}
		return model.Case{}, fmt.Errorf("creating case: %w", err)
	}
}

func (s *Store) GetCase(ctx context.Context, caseID string) (model.Case, error) {
	var c model.Case
	err := s.db.GetContext(ctx, &c, "SELECT * FROM cases WHERE id = ?", caseID)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Case{}, ierr.New(ierr.ErrorCodeNotFound, errors.New("case not found"))
	}
	if err != nil {
		return model.Case{}, fmt.Errorf("getting case: %w", err)
	}

	return c, nil
}

func (s *Store) ListCases(ctx context.Context, request persistence.ListCasesRequest) ([]model.Case, error) {
	query := "SELECT * FROM cases WHERE 1=1"
	args := []any{}

	if request.Status != nil {
		query += " AND status = ?"
		args = append(args, *request.Status)
	}
	if request.TechnicianID != nil {
		query += " AND technician_id = ?"
		args = append(args, *request.TechnicianID)
	}

	query += " ORDER BY created_at DESC"

	limit := request.Limit
	if limit <= 0 {
		limit = 100
	}
	query += " LIMIT ? OFFSET ?"
	args = append(args, limit, request.Offset)

	cases := []model.Case{}
	err := s.db.SelectContext(ctx, &cases, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing cases: %w", err)
	}

	return cases, nil
}

func (s *Store) UpdateCase(ctx context.Context, caseID string, request persistence.UpdateCaseRequest) (model.Case, error) {
	sets := []string{"updated_at = ?"}
	args := []any{time.Now().UTC()}

	appendSet := func(column string, value *string) {
		if value != nil {
			sets = append(sets, column+" = ?")
			args = append(args, *value)
		}
	}

	appendSet("device_model", request.DeviceModel)
	appendSet("serial_number", request.SerialNumber)
	appendSet("client_name", request.ClientName)
	appendSet("client_phone", request.ClientPhone)
	appendSet("issue_description", request.IssueDescription)
	appendSet("diagnosis", request.Diagnosis)
	appendSet("solution", request.Solution)

	args = append(args, caseID)

	result, err := s.db.ExecContext(ctx,
		"UPDATE cases SET "+strings.Join(sets, ", ")+" WHERE id = ?", args...)
	if err != nil {
		return model.Case{}, fmt.Errorf("updating case: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return model.Case{}, fmt.Errorf("updating case: %w", err)
	}
	if affected == 0 {
		return model.Case{}, ierr.New(ierr.ErrorCodeNotFound, errors.New("case not found"))
	}

	return s.GetCase(ctx, caseID)
}

func (s *Store) UpdateCaseStatus(ctx context.Context, caseID string, status model.CaseStatus) (model.Case, error) {
	if !status.Valid() {
		return model.Case{}, ierr.New(ierr.ErrorCodeInvalidArgument, errors.New("invalid case status"))
	}

	result, err := s.db.ExecContext(ctx,
		"UPDATE cases SET status = ?, updated_at = ? WHERE id = ?",
		status, time.Now().UTC(), caseID)
	if err != nil {
		return model.Case{}, fmt.Errorf("updating case status: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return model.Case{}, fmt.Errorf("updating case status: %w", err)
	}
	if affected == 0 {
		return model.Case{}, ierr.New(ierr.ErrorCodeNotFound, errors.New("case not found"))
	}

	return s.GetCase(ctx, caseID)
}

func (s *Store) AssignTechnician(ctx context.Context, caseID string, technicianID string) (model.Case, error) {
	result, err := s.db.ExecContext(ctx,
		"UPDATE cases SET technician_id = ?, updated_at = ? WHERE id = ?",
		technicianID, time.Now().UTC(), caseID)
	if err != nil {
		return model.Case{}, fmt.Errorf("assigning technician: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return model.Case{}, fmt.Errorf("assigning technician: %w", err)
	}
	if affected == 0 {
		return model.Case{}, ierr.New(ierr.ErrorCodeNotFound, errors.New("case not found"))
	}

	return s.GetCase(ctx, caseID)
}

func (s *Store) DeleteCase(ctx context.Context, caseID string) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM cases WHERE id = ?", caseID)
	if err != nil {
		return fmt.Errorf("deleting case: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting case: %w", err)
	}
	if affected == 0 {
		return ierr.New(ierr.ErrorCodeNotFound, errors.New("case not found"))
	}

	return nil
}

func (s *Store) CaseStatusCounts(ctx context.Context) (map[model.CaseStatus]int, error) {
	rows := []struct {
		Status model.CaseStatus `db:"status"`
		Count  int              `db:"count"`
	}{}

	err := s.db.SelectContext(ctx, &rows,
		"SELECT status, COUNT(*) AS count FROM cases GROUP BY status")
	if err != nil {
		return nil, fmt.Errorf("counting cases by status: %w", err)
	}

	counts := make(map[model.CaseStatus]int, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}

	return counts, nil
}
