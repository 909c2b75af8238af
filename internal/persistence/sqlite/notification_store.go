package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/MahmoudNasser1/FZ-Maintenance-Archive/internal/ierr"
	"github.com/MahmoudNasser1/FZ-Maintenance-Archive/internal/model"
	"github.com/MahmoudNasser1/FZ-Maintenance-Archive/internal/persistence"
	"github.com/google/uuid"
)

func (s *Store) CreateNotification(ctx context.Context, request persistence.CreateNotificationRequest) (model.Notification, error) {
	severity := request.Severity
	if severity == "" {
		severity = model.SeverityInfo
	}

	notification := model.Notification{
		ID:            uuid.New().String(),
		RecipientID:   request.RecipientID,
		Message:       request.Message,
		Severity:      severity,
		IsRead:        false,
		RelatedCaseID: request.RelatedCaseID,
		CreatedAt:     time.Now().UTC(),
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO notifications (
			id, recipient_id, message, severity, is_read, related_case_id, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		notification.ID, notification.RecipientID, notification.Message,
		notification.Severity, notification.IsRead, notification.RelatedCaseID,
		notification.CreatedAt,
	)
	if err != nil {
		return model.Notification{}, fmt.Errorf("creating notification: %w", err)
	}

	return notification, nil
}

func (s *Store) GetNotification(ctx context.Context, notificationID string) (model.Notification, error) {
	var notification model.Notification
	err := s.db.GetContext(ctx, &notification,
		"SELECT * FROM notifications WHERE id = ?", notificationID)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Notification{}, ierr.New(ierr.ErrorCodeNotFound, errors.New("notification not found"))
	}
	if err != nil {
		return model.Notification{}, fmt.Errorf("getting notification: %w", err)
	}

	return notification, nil
}

func (s *Store) ListNotifications(ctx context.Context, request persistence.ListNotificationsRequest) ([]model.Notification, error) {
	query := "SELECT * FROM notifications WHERE recipient_id = ?"
	args := []any{request.RecipientID}

	if request.IsRead != nil {
		query += " AND is_read = ?"
		args = append(args, *request.IsRead)
	}

	query += " ORDER BY created_at DESC"

	limit := request.Limit
	if limit <= 0 {
		limit = 100
	}
	query += " LIMIT ? OFFSET ?"
	args = append(args, limit, request.Offset)

	notifications := []model.Notification{}
	err := s.db.SelectContext(ctx, &notifications, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing notifications: %w", err)
	}

	return notifications, nil
}

func (s *Store) UnreadNotificationCount(ctx context.Context, recipientID string) (int, error) {
	var count int
	err := s.db.GetContext(ctx, &count,
		"SELECT COUNT(*) FROM notifications WHERE recipient_id = ? AND is_read = 0",
		recipientID)
	if err != nil {
		return 0, fmt.Errorf("counting unread notifications: %w", err)
	}

	return count, nil
}

func (s *Store) MarkNotificationRead(ctx context.Context, notificationID string) (model.Notification, error) {
	result, err := s.db.ExecContext(ctx,
		"UPDATE notifications SET is_read = 1 WHERE id = ?", notificationID)
	if err != nil {
		return model.Notification{}, fmt.Errorf("marking notification read: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return model.Notification{}, fmt.Errorf("marking notification read: %w", err)
	}
	if affected == 0 {
		return model.Notification{}, ierr.New(ierr.ErrorCodeNotFound, errors.New("notification not found"))
	}

	return s.GetNotification(ctx, notificationID)
}

func (s *Store) MarkAllNotificationsRead(ctx context.Context, recipientID string) (int, error) {
	result, err := s.db.ExecContext(ctx,
		"UPDATE notifications SET is_read = 1 WHERE recipient_id = ? AND is_read = 0",
		recipientID)
	if err != nil {
		return 0, fmt.Errorf("marking all notifications read: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("marking all notifications read: %w", err)
	}

	return int(affected), nil
}

func (s *Store) DeleteNotification(ctx context.Context, notificationID string) error {
	result, err := s.db.ExecContext(ctx,
		"DELETE FROM notifications WHERE id = ?", notificationID)
	if err != nil {
		return fmt.Errorf("deleting notification: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting notification: %w", err)
	}
	if affected == 0 {
		return ierr.New(ierr.ErrorCodeNotFound, errors.New("notification not found"))
	}

	return nil
}

func (s *Store) DeleteReadNotifications(ctx context.Context, recipientID string) (int, error) {
	result, err := s.db.ExecContext(ctx,
		"DELETE FROM notifications WHERE recipient_id = ? AND is_read = 1",
		recipientID)
	if err != nil {
		return 0, fmt.Errorf("deleting read notifications: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("deleting read notifications: %w", err)
	}

	return int(affected), nil
}

func (s *Store) DeleteNotificationsOlderThan(ctx context.Context, days int) (int, error) {
	cutoff := time.Now().UTC().AddDate(0, 0, -days)

	result, err := s.db.ExecContext(ctx,
		"DELETE FROM notifications WHERE created_at < ?", cutoff)
	if err != nil {
		return 0, fmt.Errorf("deleting old notifications: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("deleting old notifications: %w", err)
	}

	return int(affected), nil
}
