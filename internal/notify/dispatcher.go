package notify

import (
	"context"
	"fmt"

	"github.com/MahmoudNasser1/FZ-Maintenance-Archive/internal/model"
	"github.com/MahmoudNasser1/FZ-Maintenance-Archive/internal/persistence"
	"go.uber.org/zap"
)

// defaultCaseRoles is the role set notified about a case when the
// caller does not narrow it down.
var defaultCaseRoles = []model.Role{model.RoleTechnician, model.RoleManager, model.RoleAdmin}

var managingRoles = []model.Role{model.RoleManager, model.RoleAdmin}

// DispatchOptions narrows the recipient set of a multi-recipient
// dispatch. An explicit recipient list wins over a role filter.
type DispatchOptions struct {
	RecipientIDs  []string
	Roles         []model.Role
	ExcludeUserID string
}

// Dispatcher turns domain events into notifications: a best-effort
// live push through the registry plus a durable row per recipient.
type Dispatcher struct {
	logger        *zap.Logger
	registry      Registry
	notifications persistence.NotificationStore
	users         persistence.UserStore
	cases         persistence.CaseStore
}

func NewDispatcher(
	logger *zap.Logger,
	registry Registry,
	notifications persistence.NotificationStore,
	users persistence.UserStore,
	cases persistence.CaseStore,
) *Dispatcher {
	return &Dispatcher{
		logger:        logger,
		registry:      registry,
		notifications: notifications,
		users:         users,
		cases:         cases,
	}
}

// NotifyUser is the atomic unit every higher-level send is built from.
// It always writes one notification row; the live push succeeds only
// if the user has open channels and degrades silently otherwise.
func (d *Dispatcher) NotifyUser(
	ctx context.Context,
	userID string,
	message string,
	severity model.Severity,
	relatedCaseID *string,
) error {
	d.registry.SendToUser(userID, NewPayload(message, severity, relatedCaseID))

	_, err := d.notifications.CreateNotification(ctx, persistence.CreateNotificationRequest{
		RecipientID:   userID,
		Message:       message,
		Severity:      severity,
		RelatedCaseID: relatedCaseID,
	})
	if err != nil {
		return fmt.Errorf("persisting notification for user %s: %w", userID, err)
	}

	return nil
}

// PushLive pushes to a user's live channels without writing a row,
// for callers that already persisted the notification themselves.
func (d *Dispatcher) PushLive(userID string, message string, severity model.Severity, relatedCaseID *string) {
	d.registry.SendToUser(userID, NewPayload(message, severity, relatedCaseID))
}

// NotifyCaseParticipants resolves the recipient set for a case event
// and notifies each recipient once. Resolution failures abort only
// this dispatch.
func (d *Dispatcher) NotifyCaseParticipants(
	ctx context.Context,
	caseID string,
	message string,
	severity model.Severity,
	opts DispatchOptions,
) {
	c, err := d.cases.GetCase(ctx, caseID)
	if err != nil {
		d.logger.Error("case not found for notification",
			zap.String("caseId", caseID),
			zap.Error(err))
		return
	}

	recipientIDs := opts.RecipientIDs
	if len(recipientIDs) == 0 {
		roles := opts.Roles
		if len(roles) == 0 {
			roles = defaultCaseRoles
		}

		recipientIDs, err = d.resolveByRoles(ctx, roles)
		if err != nil {
			d.logger.Error("failed to resolve notification recipients",
				zap.String("caseId", caseID),
				zap.Error(err))
			return
		}

		// The assigned technician is always a participant, whether or
		// not the role filter matched them.
		if c.TechnicianID != nil {
			recipientIDs = append(recipientIDs, *c.TechnicianID)
		}
	}

	for _, recipientID := range dedupe(recipientIDs, opts.ExcludeUserID) {
		if err := d.NotifyUser(ctx, recipientID, message, severity, &caseID); err != nil {
			d.logger.Error("failed to notify case participant",
				zap.String("caseId", caseID),
				zap.String("recipientId", recipientID),
				zap.Error(err))
		}
	}
}

// NotifyStatusChange notifies the assigned technician and the managing
// roles about a status transition, excluding the acting user.
func (d *Dispatcher) NotifyStatusChange(
	ctx context.Context,
	caseID string,
	oldStatus model.CaseStatus,
	newStatus model.CaseStatus,
	changedByID string,
) {
	c, err := d.cases.GetCase(ctx, caseID)
	if err != nil {
		d.logger.Error("case not found for status change notification",
			zap.String("caseId", caseID),
			zap.Error(err))
		return
	}

	message := fmt.Sprintf("Case %s status changed from %s to %s by %s",
		c.CaseNumber, oldStatus, newStatus, d.userName(ctx, changedByID))

	d.NotifyCaseParticipants(ctx, caseID, message, severityForStatus(newStatus), DispatchOptions{
		Roles:         managingRoles,
		ExcludeUserID: changedByID,
	})
}

// NotifyAssignment tells the technician they were assigned and informs
// the managing roles, excluding the acting user.
func (d *Dispatcher) NotifyAssignment(
	ctx context.Context,
	caseID string,
	technicianID string,
	assignedByID string,
) {
	c, err := d.cases.GetCase(ctx, caseID)
	if err != nil {
		d.logger.Error("case not found for assignment notification",
			zap.String("caseId", caseID),
			zap.Error(err))
		return
	}

	technicianMessage := fmt.Sprintf("You have been assigned to case %s (%s) - %s",
		c.CaseNumber, c.DeviceModel, c.ClientName)

	if technicianID != assignedByID {
		if err := d.NotifyUser(ctx, technicianID, technicianMessage, model.SeverityInfo, &caseID); err != nil {
			d.logger.Error("failed to notify assigned technician",
				zap.String("caseId", caseID),
				zap.String("technicianId", technicianID),
				zap.Error(err))
		}
	}

	managerMessage := fmt.Sprintf("%s was assigned to case %s by %s",
		d.userName(ctx, technicianID), c.CaseNumber, d.userName(ctx, assignedByID))

	managerIDs, err := d.resolveByRoles(ctx, managingRoles)
	if err != nil {
		d.logger.Error("failed to resolve managers for assignment notification",
			zap.String("caseId", caseID),
			zap.Error(err))
		return
	}

	for _, managerID := range dedupe(managerIDs, assignedByID) {
		if managerID == technicianID {
			continue
		}
		if err := d.NotifyUser(ctx, managerID, managerMessage, model.SeverityInfo, &caseID); err != nil {
			d.logger.Error("failed to notify manager of assignment",
				zap.String("caseId", caseID),
				zap.String("recipientId", managerID),
				zap.Error(err))
		}
	}
}

// NotifyBatchUpdate notifies each technician whose cases were touched
// exactly once, regardless of how many of their cases the batch hit,
// plus the managing roles. The acting user is always excluded.
func (d *Dispatcher) NotifyBatchUpdate(
	ctx context.Context,
	caseIDs []string,
	updateType string,
	updatedByID string,
) {
	if len(caseIDs) == 0 {
		return
	}

	updatedByName := d.userName(ctx, updatedByID)

	technicianIDs := make([]string, 0, len(caseIDs))
	for _, caseID := range caseIDs {
		c, err := d.cases.GetCase(ctx, caseID)
		if err != nil {
			d.logger.Warn("case not found during batch notification",
				zap.String("caseId", caseID),
				zap.Error(err))
			continue
		}
		if c.TechnicianID != nil {
			technicianIDs = append(technicianIDs, *c.TechnicianID)
		}
	}

	technicianMessage := fmt.Sprintf("%d cases were updated by %s - check your assigned cases",
		len(caseIDs), updatedByName)

	for _, technicianID := range dedupe(technicianIDs, updatedByID) {
		if err := d.NotifyUser(ctx, technicianID, technicianMessage, model.SeverityInfo, nil); err != nil {
			d.logger.Error("failed to notify technician of batch update",
				zap.String("technicianId", technicianID),
				zap.Error(err))
		}
	}

	managerMessage := fmt.Sprintf("%s update applied to %d cases by %s",
		updateType, len(caseIDs), updatedByName)

	managerIDs, err := d.resolveByRoles(ctx, managingRoles)
	if err != nil {
		d.logger.Error("failed to resolve managers for batch notification", zap.Error(err))
		return
	}

	for _, managerID := range dedupe(managerIDs, updatedByID) {
		if err := d.NotifyUser(ctx, managerID, managerMessage, model.SeverityInfo, nil); err != nil {
			d.logger.Error("failed to notify manager of batch update",
				zap.String("recipientId", managerID),
				zap.Error(err))
		}
	}
}

// BroadcastSystem notifies a role-filtered (or explicit, or all-active)
// recipient set without case context.
func (d *Dispatcher) BroadcastSystem(
	ctx context.Context,
	message string,
	severity model.Severity,
	opts DispatchOptions,
) {
	recipientIDs := opts.RecipientIDs
	if len(recipientIDs) == 0 {
		var err error
		recipientIDs, err = d.resolveByRoles(ctx, opts.Roles)
		if err != nil {
			d.logger.Error("failed to resolve broadcast recipients", zap.Error(err))
			return
		}
	}

	for _, recipientID := range dedupe(recipientIDs, opts.ExcludeUserID) {
		if err := d.NotifyUser(ctx, recipientID, message, severity, nil); err != nil {
			d.logger.Error("failed to deliver system notification",
				zap.String("recipientId", recipientID),
				zap.Error(err))
		}
	}
}

// resolveByRoles lists active users matching the roles; an empty role
// list resolves to all active users.
func (d *Dispatcher) resolveByRoles(ctx context.Context, roles []model.Role) ([]string, error) {
	users, err := d.users.ListUsers(ctx, persistence.ListUsersRequest{
		Roles:      roles,
		ActiveOnly: true,
	})
	if err != nil {
		return nil, err
	}

	ids := make([]string, len(users))
	for i, user := range users {
		ids[i] = user.ID
	}

	return ids, nil
}

func (d *Dispatcher) userName(ctx context.Context, userID string) string {
	user, err := d.users.GetUser(ctx, userID)
	if err != nil {
		return "unknown user"
	}

	return user.FullName
}

func severityForStatus(status model.CaseStatus) model.Severity {
	switch status {
	case model.CaseStatusFixed, model.CaseStatusDelivered:
		return model.SeveritySuccess
	case model.CaseStatusWaitingParts:
		return model.SeverityWarning
	default:
		return model.SeverityInfo
	}
}

// dedupe keeps the first occurrence of each id, dropping the excluded
// one, preserving order.
func dedupe(ids []string, exclude string) []string {
	seen := make(map[string]struct{}, len(ids))
	result := make([]string, 0, len(ids))

	for _, id := range ids {
		if id == exclude {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		result = append(result, id)
	}

	return result
}
