package handler

import (
	"context"
	"errors"

	"github.com/MahmoudNasser1/FZ-Maintenance-Archive/internal/auth"
	"github.com/MahmoudNasser1/FZ-Maintenance-Archive/internal/ierr"
	"github.com/MahmoudNasser1/FZ-Maintenance-Archive/internal/model"
	"github.com/MahmoudNasser1/FZ-Maintenance-Archive/internal/persistence"
)

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token string     `json:"token"`
	User  model.User `json:"user"`
}

type AuthHandler struct {
	users         persistence.UserStore
	authenticator *auth.Authenticator
}

func NewAuthHandler(
	users persistence.UserStore,
	authenticator *auth.Authenticator,
) *AuthHandler {
	return &AuthHandler{
		users:         users,
		authenticator: authenticator,
	}
}

func (h *AuthHandler) Login(ctx context.Context, req LoginRequest) (LoginResponse, error) {
	user, err := h.users.GetUserByUsername(ctx, req.Username)
	if err != nil {
		return LoginResponse{}, ierr.New(ierr.ErrorCodeUnauthenticated, errors.New("invalid credentials"))
	}

	if !user.IsActive {
		return LoginResponse{}, ierr.New(ierr.ErrorCodeFailedPrecondition, errors.New("user is inactive"))
	}

	if err := auth.VerifyPassword(user.HashedPassword, req.Password); err != nil {
		return LoginResponse{}, err
	}

	token, err := h.authenticator.IssueToken(user)
	if err != nil {
		return LoginResponse{}, err
	}

	return LoginResponse{
		Token: token,
		User:  user,
	}, nil
}

func (h *AuthHandler) Me(ctx context.Context) (model.User, error) {
	identity, ok := auth.IdentityFromContext(ctx)
	if !ok {
		return model.User{}, ierr.New(ierr.ErrorCodeUnauthenticated, errors.New("not authenticated"))
	}

	return h.users.GetUser(ctx, identity.UserID)
}
