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

func (s *Store) CreateActivity(ctx context.Context, activity model.Activity) (model.Activity, error) {
	if strings.TrimSpace(activity.Action) == "" {
		return model.Activity{}, ierr.New(ierr.ErrorCodeInvalidArgument, errors.New("activity action must not be empty"))
	}

	if activity.ID == "" {
		activity.ID = uuid.New().String()
	}
	activity.CreatedAt = time.Now().UTC()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO activities (id, case_id, action, performed_by, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		activity.ID, activity.CaseID, activity.Action, activity.PerformedBy, activity.CreatedAt,
	)
	if err != nil {
		return model.Activity{}, fmt.Errorf("creating activity: %w", err)
	}

	return activity, nil
}

func (s *Store) ListActivitiesByCase(ctx context.Context, caseID string) ([]model.Activity, error) {
	activities := []model.Activity{}
	err := s.db.SelectContext(ctx, &activities,
		"SELECT * FROM activities WHERE case_id = ? ORDER BY created_at DESC", caseID)
	if err != nil {
		return nil, fmt.Errorf("listing activities: %w", err)
	}

	return activities, nil
}
