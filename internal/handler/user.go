package handler

import (
	"context"
	"errors"

	"github.com/MahmoudNasser1/FZ-Maintenance-Archive/internal/auth"
	"github.com/MahmoudNasser1/FZ-Maintenance-Archive/internal/ierr"
	"github.com/MahmoudNasser1/FZ-Maintenance-Archive/internal/model"
	"github.com/MahmoudNasser1/FZ-Maintenance-Archive/internal/persistence"
)

type CreateUserRequest struct {
	Username string     `json:"username"`
	Email    string     `json:"email"`
	FullName string     `json:"fullName"`
	Password string     `json:"password"`
	Role     model.Role `json:"role"`
}

type ListUsersRequest struct {
	Roles      []model.Role `json:"roles"`
	ActiveOnly bool         `json:"activeOnly"`
}

type SetUserActiveRequest struct {
	Active bool `json:"active"`
}

type UserHandler struct {
	users persistence.UserStore
}

func NewUserHandler(users persistence.UserStore) *UserHandler {
	return &UserHandler{
		users: users,
	}
}

func (h *UserHandler) Create(ctx context.Context, req CreateUserRequest) (model.User, error) {
	if err := requireManage(ctx); err != nil {
		return model.User{}, err
	}

	if len(req.Password) < 8 {
		return model.User{}, ierr.New(ierr.ErrorCodeInvalidArgument, errors.New("password must be at least 8 characters"))
	}

	hashedPassword, err := auth.HashPassword(req.Password)
	if err != nil {
		return model.User{}, err
	}

	role := req.Role
	if role == "" {
		role = model.RoleTechnician
	}

	return h.users.CreateUser(ctx, model.User{
		Username:       req.Username,
		Email:          req.Email,
		FullName:       req.FullName,
		HashedPassword: hashedPassword,
		Role:           role,
		IsActive:       true,
	})
}

func (h *UserHandler) List(ctx context.Context, req ListUsersRequest) ([]model.User, error) {
	return h.users.ListUsers(ctx, persistence.ListUsersRequest{
		Roles:      req.Roles,
		ActiveOnly: req.ActiveOnly,
	})
}

func (h *UserHandler) SetActive(ctx context.Context, userID string, req SetUserActiveRequest) error {
	if err := requireManage(ctx); err != nil {
		return err
	}

	return h.users.SetUserActive(ctx, userID, req.Active)
}

// requireManage is the capability check guarding privileged
// operations: the acting identity must hold the manager or admin role.
func requireManage(ctx context.Context) error {
	identity, ok := auth.IdentityFromContext(ctx)
	if !ok {
		return ierr.New(ierr.ErrorCodeUnauthenticated, errors.New("not authenticated"))
	}

	if !identity.Role.CanManage() {
		return ierr.New(ierr.ErrorCodePermissionDenied, errors.New("manager or admin role required"))
	}

	return nil
}

func requireIdentity(ctx context.Context) (*auth.Identity, error) {
	identity, ok := auth.IdentityFromContext(ctx)
	if !ok {
		return nil, ierr.New(ierr.ErrorCodeUnauthenticated, errors.New("not authenticated"))
	}

	return identity, nil
}
