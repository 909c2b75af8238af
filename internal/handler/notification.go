package handler

import (
	"context"
	"errors"

	"github.com/MahmoudNasser1/FZ-Maintenance-Archive/internal/ierr"
	"github.com/MahmoudNasser1/FZ-Maintenance-Archive/internal/model"
	"github.com/MahmoudNasser1/FZ-Maintenance-Archive/internal/notify"
	"github.com/MahmoudNasser1/FZ-Maintenance-Archive/internal/persistence"
)

type ListNotificationsRequest struct {
	IsRead *bool
	Offset int
	Limit  int
}

type CreateNotificationRequest struct {
	RecipientID   string         `json:"recipientId"`
	Message       string         `json:"message"`
	Severity      model.Severity `json:"severity"`
	RelatedCaseID *string        `json:"relatedCaseId"`
}

type CountResponse struct {
	Count int `json:"count"`
}

type NotificationHandler struct {
	notifications persistence.NotificationStore
	dispatcher    *notify.Dispatcher
	queue         *notify.Queue
}

func NewNotificationHandler(
	notifications persistence.NotificationStore,
	dispatcher *notify.Dispatcher,
	queue *notify.Queue,
) *NotificationHandler {
	return &NotificationHandler{
		notifications: notifications,
		dispatcher:    dispatcher,
		queue:         queue,
	}
}

func (h *NotificationHandler) List(ctx context.Context, req ListNotificationsRequest) ([]model.Notification, error) {
	identity, err := requireIdentity(ctx)
	if err != nil {
		return nil, err
	}

	return h.notifications.ListNotifications(ctx, persistence.ListNotificationsRequest{
		RecipientID: identity.UserID,
		IsRead:      req.IsRead,
		Offset:      req.Offset,
		Limit:       req.Limit,
	})
}

func (h *NotificationHandler) UnreadCount(ctx context.Context) (CountResponse, error) {
	identity, err := requireIdentity(ctx)
	if err != nil {
		return CountResponse{}, err
	}

	count, err := h.notifications.UnreadNotificationCount(ctx, identity.UserID)
	if err != nil {
		return CountResponse{}, err
	}

	return CountResponse{Count: count}, nil
}

// Create sends an ad hoc notification to one user. Manage capability
// required; the live push runs off the request path.
func (h *NotificationHandler) Create(ctx context.Context, req CreateNotificationRequest) (model.Notification, error) {
	if err := requireManage(ctx); err != nil {
		return model.Notification{}, err
	}

	if req.Message == "" {
		return model.Notification{}, ierr.New(ierr.ErrorCodeInvalidArgument, errors.New("message must not be empty"))
	}

	severity := req.Severity
	if severity == "" {
		severity = model.SeverityInfo
	}

	notification, err := h.notifications.CreateNotification(ctx, persistence.CreateNotificationRequest{
		RecipientID:   req.RecipientID,
		Message:       req.Message,
		Severity:      severity,
		RelatedCaseID: req.RelatedCaseID,
	})
	if err != nil {
		return model.Notification{}, err
	}

	h.queue.Enqueue(func(ctx context.Context) {
		h.dispatcher.PushLive(req.RecipientID, req.Message, severity, req.RelatedCaseID)
	})

	return notification, nil
}

func (h *NotificationHandler) MarkRead(ctx context.Context, notificationID string) (model.Notification, error) {
	identity, err := requireIdentity(ctx)
	if err != nil {
		return model.Notification{}, err
	}

	notification, err := h.notifications.GetNotification(ctx, notificationID)
	if err != nil {
		return model.Notification{}, err
	}

	if notification.RecipientID != identity.UserID {
		return model.Notification{}, ierr.New(ierr.ErrorCodePermissionDenied, errors.New("notification belongs to another user"))
	}

	return h.notifications.MarkNotificationRead(ctx, notificationID)
}

func (h *NotificationHandler) MarkAllRead(ctx context.Context) (CountResponse, error) {
	identity, err := requireIdentity(ctx)
	if err != nil {
		return CountResponse{}, err
	}

	count, err := h.notifications.MarkAllNotificationsRead(ctx, identity.UserID)
	if err != nil {
		return CountResponse{}, err
	}

	return CountResponse{Count: count}, nil
}

func (h *NotificationHandler) Delete(ctx context.Context, notificationID string) error {
	identity, err := requireIdentity(ctx)
	if err != nil {
		return err
	}

	notification, err := h.notifications.GetNotification(ctx, notificationID)
	if err != nil {
		return err
	}

	if notification.RecipientID != identity.UserID && !identity.Role.CanManage() {
		return ierr.New(ierr.ErrorCodePermissionDenied, errors.New("notification belongs to another user"))
	}

	return h.notifications.DeleteNotification(ctx, notificationID)
}

func (h *NotificationHandler) DeleteRead(ctx context.Context) (CountResponse, error) {
	identity, err := requireIdentity(ctx)
	if err != nil {
		return CountResponse{}, err
	}

	count, err := h.notifications.DeleteReadNotifications(ctx, identity.UserID)
	if err != nil {
		return CountResponse{}, err
	}

	return CountResponse{Count: count}, nil
}
