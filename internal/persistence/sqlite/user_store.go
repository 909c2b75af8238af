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

func (s *Store) CreateUser(ctx context.Context, user model.User) (model.User, error) {
	if strings.TrimSpace(user.Username) == "" {
		return model.User{}, ierr.New(ierr.ErrorCodeInvalidArgument, errors.New("username must not be empty"))
	}
	if !user.Role.Valid() {
		return model.User{}, ierr.New(ierr.ErrorCodeInvalidArgument, errors.New("invalid role"))
	}

	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (
			id, username, email, full_name, hashed_password,
			role, points, is_active, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		user.ID, user.Username, user.Email, user.FullName, user.HashedPassword,
		user.Role, user.Points, user.IsActive, user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return model.User{}, ierr.New(ierr.ErrorCodeAlreadyExists, errors.New("username or email already taken"))
		}
		return model.User{}, fmt.Errorf("creating user: %w", err)
	}

	return user, nil
}

func (s *Store) GetUser(ctx context.Context, userID string) (model.User, error) {
	var user model.User
	err := s.db.GetContext(ctx, &user, "SELECT * FROM users WHERE id = ?", userID)
	if errors.Is(err, sql.ErrNoRows) {
		return model.User{}, ierr.New(ierr.ErrorCodeNotFound, errors.New("user not found"))
	}
	if err != nil {
		return model.User{}, fmt.Errorf("getting user: %w", err)
	}

	return user, nil
}

func (s *Store) GetUserByUsername(ctx context.Context, username string) (model.User, error) {
	var user model.User
	err := s.db.GetContext(ctx, &user, "SELECT * FROM users WHERE username = ?", username)
	if errors.Is(err, sql.ErrNoRows) {
		return model.User{}, ierr.New(ierr.ErrorCodeNotFound, errors.New("user not found"))
	}
	if err != nil {
		return model.User{}, fmt.Errorf("getting user by username: %w", err)
	}

	return user, nil
}

func (s *Store) ListUsers(ctx context.Context, request persistence.ListUsersRequest) ([]model.User, error) {
	query := "SELECT * FROM users WHERE 1=1"
	args := []any{}

	if len(request.Roles) > 0 {
		placeholders := make([]string, len(request.Roles))
		for i, role := range request.Roles {
			placeholders[i] = "?"
			args = append(args, role)
		}
		query += " AND role IN (" + strings.Join(placeholders, ", ") + ")"
	}

	if request.ActiveOnly {
		query += " AND is_active = 1"
	}

	query += " ORDER BY username"

	users := []model.User{}
	err := s.db.SelectContext(ctx, &users, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}

	return users, nil
}

func (s *Store) SetUserActive(ctx context.Context, userID string, active bool) error {
	result, err := s.db.ExecContext(ctx,
		"UPDATE users SET is_active = ?, updated_at = ? WHERE id = ?",
		active, time.Now().UTC(), userID)
	if err != nil {
		return fmt.Errorf("setting user active: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("setting user active: %w", err)
	}
	if affected == 0 {
		return ierr.New(ierr.ErrorCodeNotFound, errors.New("user not found"))
	}

	return nil
}
