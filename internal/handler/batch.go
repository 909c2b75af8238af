package handler

import (
	"context"
	"errors"
	"fmt"

	"github.com/MahmoudNasser1/FZ-Maintenance-Archive/internal/ierr"
	"github.com/MahmoudNasser1/FZ-Maintenance-Archive/internal/model"
	"github.com/MahmoudNasser1/FZ-Maintenance-Archive/internal/notify"
	"github.com/MahmoudNasser1/FZ-Maintenance-Archive/internal/persistence"
	"go.uber.org/zap"
)

type BatchUpdateStatusRequest struct {
	CaseIDs []string         `json:"caseIds"`
	Status  model.CaseStatus `json:"status"`
}

type BatchAssignTechnicianRequest struct {
	CaseIDs      []string `json:"caseIds"`
	TechnicianID string   `json:"technicianId"`
}

type BatchUpdateResponse struct {
	UpdatedCount int      `json:"updatedCount"`
	Success      bool     `json:"success"`
	FailedIDs    []string `json:"failedIds,omitempty"`
	Message      string   `json:"message"`
}

type BatchHandler struct {
	logger     *zap.Logger
	cases      persistence.CaseStore
	users      persistence.UserStore
	activities persistence.ActivityStore
	dispatcher *notify.Dispatcher
	queue      *notify.Queue
}

func NewBatchHandler(
	logger *zap.Logger,
	cases persistence.CaseStore,
	users persistence.UserStore,
	activities persistence.ActivityStore,
	dispatcher *notify.Dispatcher,
	queue *notify.Queue,
) *BatchHandler {
	return &BatchHandler{
		logger:     logger,
		cases:      cases,
		users:      users,
		activities: activities,
		dispatcher: dispatcher,
		queue:      queue,
	}
}

func (h *BatchHandler) recordActivity(ctx context.Context, caseID string, actorID string, action string) {
	_, err := h.activities.CreateActivity(ctx, model.Activity{
		CaseID:      &caseID,
		Action:      action,
		PerformedBy: actorID,
	})
	if err != nil {
		h.logger.Error("failed to record case activity",
			zap.String("caseId", caseID),
			zap.Error(err))
	}
}

// UpdateStatus applies a status change to every case in the batch.
// Per-case failures are collected, not fatal to the rest.
func (h *BatchHandler) UpdateStatus(ctx context.Context, req BatchUpdateStatusRequest) (BatchUpdateResponse, error) {
	identity, err := requireIdentity(ctx)
	if err != nil {
		return BatchUpdateResponse{}, err
	}
	if err := requireManage(ctx); err != nil {
		return BatchUpdateResponse{}, err
	}
	if len(req.CaseIDs) == 0 {
		return BatchUpdateResponse{}, ierr.New(ierr.ErrorCodeInvalidArgument, errors.New("caseIds must not be empty"))
	}

	var updatedIDs, failedIDs []string

	for _, caseID := range req.CaseIDs {
		_, err := h.cases.UpdateCaseStatus(ctx, caseID, req.Status)
		if err != nil {
			h.logger.Warn("batch status update failed for case",
				zap.String("caseId", caseID),
				zap.Error(err))
			failedIDs = append(failedIDs, caseID)
			continue
		}
		updatedIDs = append(updatedIDs, caseID)
		h.recordActivity(ctx, caseID, identity.UserID,
			fmt.Sprintf("Status changed to %s", req.Status))
	}

	actorID := identity.UserID
	h.queue.Enqueue(func(ctx context.Context) {
		h.dispatcher.NotifyBatchUpdate(ctx, updatedIDs, "status", actorID)
	})

	return batchResponse(updatedIDs, failedIDs), nil
}

// AssignTechnician assigns one technician to every case in the batch.
func (h *BatchHandler) AssignTechnician(ctx context.Context, req BatchAssignTechnicianRequest) (BatchUpdateResponse, error) {
	identity, err := requireIdentity(ctx)
	if err != nil {
		return BatchUpdateResponse{}, err
	}
	if err := requireManage(ctx); err != nil {
		return BatchUpdateResponse{}, err
	}
	if len(req.CaseIDs) == 0 {
		return BatchUpdateResponse{}, ierr.New(ierr.ErrorCodeInvalidArgument, errors.New("caseIds must not be empty"))
	}

	technician, err := h.users.GetUser(ctx, req.TechnicianID)
	if err != nil {
		return BatchUpdateResponse{}, err
	}
	if technician.Role != model.RoleTechnician {
		return BatchUpdateResponse{}, ierr.New(ierr.ErrorCodeInvalidArgument, errors.New("assignee is not a technician"))
	}

	var updatedIDs, failedIDs []string

	for _, caseID := range req.CaseIDs {
		_, err := h.cases.AssignTechnician(ctx, caseID, req.TechnicianID)
		if err != nil {
			h.logger.Warn("batch assignment failed for case",
				zap.String("caseId", caseID),
				zap.Error(err))
			failedIDs = append(failedIDs, caseID)
			continue
		}
		updatedIDs = append(updatedIDs, caseID)
		h.recordActivity(ctx, caseID, identity.UserID,
			fmt.Sprintf("Assigned to technician %s", technician.FullName))
	}

	actorID := identity.UserID
	h.queue.Enqueue(func(ctx context.Context) {
		h.dispatcher.NotifyBatchUpdate(ctx, updatedIDs, "technician", actorID)
	})

	return batchResponse(updatedIDs, failedIDs), nil
}

func batchResponse(updatedIDs []string, failedIDs []string) BatchUpdateResponse {
	message := fmt.Sprintf("%d cases updated", len(updatedIDs))
	if len(failedIDs) > 0 {
		message += fmt.Sprintf(", %d failed", len(failedIDs))
	}

	return BatchUpdateResponse{
		UpdatedCount: len(updatedIDs),
		Success:      len(failedIDs) == 0,
		FailedIDs:    failedIDs,
		Message:      message,
	}
}
