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

type CreateCaseRequest struct {
	DeviceModel      string  `json:"deviceModel"`
	SerialNumber     string  `json:"serialNumber"`
	ClientName       string  `json:"clientName"`
	ClientPhone      string  `json:"clientPhone"`
	IssueDescription string  `json:"issueDescription"`
	TechnicianID     *string `json:"technicianId"`
}

type UpdateCaseRequest struct {
	DeviceModel      *string `json:"deviceModel"`
	SerialNumber     *string `json:"serialNumber"`
	ClientName       *string `json:"clientName"`
	ClientPhone      *string `json:"clientPhone"`
	IssueDescription *string `json:"issueDescription"`
	Diagnosis        *string `json:"diagnosis"`
	Solution         *string `json:"solution"`
}

type UpdateCaseStatusRequest struct {
	Status model.CaseStatus `json:"status"`
}

type AssignTechnicianRequest struct {
	TechnicianID string `json:"technicianId"`
}

type ListCasesRequest struct {
	Status       *model.CaseStatus
	TechnicianID *string
	Offset       int
	Limit        int
}

type CaseStatsResponse struct {
	Total    int                      `json:"total"`
	ByStatus map[model.CaseStatus]int `json:"byStatus"`
}

type CaseHandler struct {
	logger     *zap.Logger
	cases      persistence.CaseStore
	users      persistence.UserStore
	activities persistence.ActivityStore
	dispatcher *notify.Dispatcher
	queue      *notify.Queue
}

func NewCaseHandler(
	logger *zap.Logger,
	cases persistence.CaseStore,
	users persistence.UserStore,
	activities persistence.ActivityStore,
	dispatcher *notify.Dispatcher,
	queue *notify.Queue,
) *CaseHandler {
	return &CaseHandler{
		logger:     logger,
		cases:      cases,
		users:      users,
		activities: activities,
		dispatcher: dispatcher,
		queue:      queue,
	}
}

// recordActivity appends to the case's audit trail. A failed write is
// logged, not propagated: the mutation it documents already happened.
func (h *CaseHandler) recordActivity(ctx context.Context, caseID *string, actorID string, action string) {
	_, err := h.activities.CreateActivity(ctx, model.Activity{
		CaseID:      caseID,
		Action:      action,
		PerformedBy: actorID,
	})
	if err != nil {
		h.logger.Error("failed to record case activity",
			zap.String("action", action),
			zap.Error(err))
	}
}

func (h *CaseHandler) Create(ctx context.Context, req CreateCaseRequest) (model.Case, error) {
	identity, err := requireIdentity(ctx)
	if err != nil {
		return model.Case{}, err
	}

	c, err := h.cases.CreateCase(ctx, model.Case{
		DeviceModel:      req.DeviceModel,
		SerialNumber:     req.SerialNumber,
		ClientName:       req.ClientName,
		ClientPhone:      req.ClientPhone,
		IssueDescription: req.IssueDescription,
		TechnicianID:     req.TechnicianID,
	})
	if err != nil {
		return model.Case{}, err
	}

	h.recordActivity(ctx, &c.ID, identity.UserID, "Maintenance case created")

	message := fmt.Sprintf("New case %s (%s) created for %s", c.CaseNumber, c.DeviceModel, c.ClientName)
	actorID := identity.UserID
	h.queue.Enqueue(func(ctx context.Context) {
		h.dispatcher.NotifyCaseParticipants(ctx, c.ID, message, model.SeverityInfo, notify.DispatchOptions{
			ExcludeUserID: actorID,
		})
	})

	return c, nil
}

func (h *CaseHandler) Get(ctx context.Context, caseID string) (model.Case, error) {
	return h.cases.GetCase(ctx, caseID)
}

func (h *CaseHandler) List(ctx context.Context, req ListCasesRequest) ([]model.Case, error) {
	return h.cases.ListCases(ctx, persistence.ListCasesRequest{
		Status:       req.Status,
		TechnicianID: req.TechnicianID,
		Offset:       req.Offset,
		Limit:        req.Limit,
	})
}

func (h *CaseHandler) Update(ctx context.Context, caseID string, req UpdateCaseRequest) (model.Case, error) {
	identity, err := requireIdentity(ctx)
	if err != nil {
		return model.Case{}, err
	}

	c, err := h.cases.UpdateCase(ctx, caseID, persistence.UpdateCaseRequest{
		DeviceModel:      req.DeviceModel,
		SerialNumber:     req.SerialNumber,
		ClientName:       req.ClientName,
		ClientPhone:      req.ClientPhone,
		IssueDescription: req.IssueDescription,
		Diagnosis:        req.Diagnosis,
		Solution:         req.Solution,
	})
	if err != nil {
		return model.Case{}, err
	}

	h.recordActivity(ctx, &c.ID, identity.UserID, "Case details updated")

	return c, nil
}

func (h *CaseHandler) UpdateStatus(ctx context.Context, caseID string, req UpdateCaseStatusRequest) (model.Case, error) {
	identity, err := requireIdentity(ctx)
	if err != nil {
		return model.Case{}, err
	}

	previous, err := h.cases.GetCase(ctx, caseID)
	if err != nil {
		return model.Case{}, err
	}

	c, err := h.cases.UpdateCaseStatus(ctx, caseID, req.Status)
	if err != nil {
		return model.Case{}, err
	}

	oldStatus := previous.Status
	newStatus := c.Status
	actorID := identity.UserID

	h.recordActivity(ctx, &c.ID, actorID,
		fmt.Sprintf("Status changed from %s to %s", oldStatus, newStatus))

	h.queue.Enqueue(func(ctx context.Context) {
		h.dispatcher.NotifyStatusChange(ctx, caseID, oldStatus, newStatus, actorID)
	})

	return c, nil
}

func (h *CaseHandler) Assign(ctx context.Context, caseID string, req AssignTechnicianRequest) (model.Case, error) {
	identity, err := requireIdentity(ctx)
	if err != nil {
		return model.Case{}, err
	}
	if err := requireManage(ctx); err != nil {
		return model.Case{}, err
	}

	technician, err := h.users.GetUser(ctx, req.TechnicianID)
	if err != nil {
		return model.Case{}, err
	}
	if technician.Role != model.RoleTechnician {
		return model.Case{}, ierr.New(ierr.ErrorCodeInvalidArgument, errors.New("assignee is not a technician"))
	}

	c, err := h.cases.AssignTechnician(ctx, caseID, req.TechnicianID)
	if err != nil {
		return model.Case{}, err
	}

	technicianID := req.TechnicianID
	actorID := identity.UserID

	h.recordActivity(ctx, &c.ID, actorID,
		fmt.Sprintf("Assigned to technician %s", technician.FullName))

	h.queue.Enqueue(func(ctx context.Context) {
		h.dispatcher.NotifyAssignment(ctx, caseID, technicianID, actorID)
	})

	return c, nil
}

func (h *CaseHandler) Delete(ctx context.Context, caseID string) error {
	identity, err := requireIdentity(ctx)
	if err != nil {
		return err
	}
	if err := requireManage(ctx); err != nil {
		return err
	}

	c, err := h.cases.GetCase(ctx, caseID)
	if err != nil {
		return err
	}

	if err := h.cases.DeleteCase(ctx, caseID); err != nil {
		return err
	}

	// The case row is gone; the audit entry carries the number instead.
	h.recordActivity(ctx, nil, identity.UserID,
		fmt.Sprintf("Case %s deleted", c.CaseNumber))

	return nil
}

// Activities lists a case's audit trail, newest first.
func (h *CaseHandler) Activities(ctx context.Context, caseID string) ([]model.Activity, error) {
	if _, err := h.cases.GetCase(ctx, caseID); err != nil {
		return nil, err
	}

	return h.activities.ListActivitiesByCase(ctx, caseID)
}

func (h *CaseHandler) Stats(ctx context.Context) (CaseStatsResponse, error) {
	counts, err := h.cases.CaseStatusCounts(ctx)
	if err != nil {
		return CaseStatsResponse{}, err
	}

	total := 0
	for _, count := range counts {
		total += count
	}

	return CaseStatsResponse{
		Total:    total,
		ByStatus: counts,
	}, nil
}
