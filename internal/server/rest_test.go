package server

import (
	"context"
	"net/http"
	"testing"

	"github.com/MahmoudNasser1/FZ-Maintenance-Archive/internal/handler"
	"github.com/MahmoudNasser1/FZ-Maintenance-Archive/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoginAndMe(t *testing.T) {
	env := newServerEnv(t)

	user, _ := env.createUser(t, "manager", model.RoleManager, "password123")

	resp := env.request(t, "POST", "/auth/login", "", handler.LoginRequest{
		Username: "manager",
		Password: "password123",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	login := decodeBody[handler.LoginResponse](t, resp)
	require.NotEmpty(t, login.Token)
	assert.Equal(t, user.ID, login.User.ID)

	resp = env.request(t, "GET", "/auth/me", login.Token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	me := decodeBody[model.User](t, resp)
	assert.Equal(t, user.ID, me.ID)
	assert.Equal(t, model.RoleManager, me.Role)
}

func TestLoginWrongPassword(t *testing.T) {
	env := newServerEnv(t)

	env.createUser(t, "manager", model.RoleManager, "password123")

	resp := env.request(t, "POST", "/auth/login", "", handler.LoginRequest{
		Username: "manager",
		Password: "wrong-password",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestLoginInactiveUser(t *testing.T) {
	env := newServerEnv(t)

	user, _ := env.createUser(t, "manager", model.RoleManager, "password123")
	require.NoError(t, env.store.SetUserActive(context.Background(), user.ID, false))

	resp := env.request(t, "POST", "/auth/login", "", handler.LoginRequest{
		Username: "manager",
		Password: "password123",
	})
	assert.Equal(t, http.StatusPreconditionFailed, resp.StatusCode)
}

func TestDeactivatedUserLosesAccess(t *testing.T) {
	env := newServerEnv(t)

	user, token := env.createUser(t, "tech", model.RoleTechnician, "password123")

	// The token works until the account is switched off.
	resp := env.request(t, "GET", "/notifications", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	require.NoError(t, env.store.SetUserActive(context.Background(), user.ID, false))

	// The same, still-unexpired token must be refused immediately.
	resp = env.request(t, "GET", "/notifications", token, nil)
	assert.Equal(t, http.StatusPreconditionFailed, resp.StatusCode)

	resp = env.request(t, "GET", "/auth/me", token, nil)
	assert.Equal(t, http.StatusPreconditionFailed, resp.StatusCode)
}

func TestMissingTokenRejected(t *testing.T) {
	env := newServerEnv(t)

	resp := env.request(t, "GET", "/notifications", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = env.request(t, "GET", "/notifications", "garbage-token", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestCreateUserRequiresManage(t *testing.T) {
	env := newServerEnv(t)

	_, technicianToken := env.createUser(t, "tech", model.RoleTechnician, "password123")
	_, managerToken := env.createUser(t, "manager", model.RoleManager, "password123")

	body := handler.CreateUserRequest{
		Username: "newbie",
		Email:    "newbie@example.com",
		FullName: "Newbie",
		Password: "password123",
	}

	resp := env.request(t, "POST", "/users", technicianToken, body)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = env.request(t, "POST", "/users", managerToken, body)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	created := decodeBody[model.User](t, resp)
	assert.Equal(t, model.RoleTechnician, created.Role)
	assert.True(t, created.IsActive)
}

func TestCreateUserShortPassword(t *testing.T) {
	env := newServerEnv(t)

	_, managerToken := env.createUser(t, "manager", model.RoleManager, "password123")

	resp := env.request(t, "POST", "/users", managerToken, handler.CreateUserRequest{
		Username: "newbie",
		Email:    "newbie@example.com",
		FullName: "Newbie",
		Password: "short",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCaseLifecycle(t *testing.T) {
	env := newServerEnv(t)

	_, managerToken := env.createUser(t, "manager", model.RoleManager, "password123")

	resp := env.request(t, "POST", "/cases", managerToken, handler.CreateCaseRequest{
		DeviceModel:      "PlayStation 5",
		ClientName:       "Client",
		IssueDescription: "HDMI port broken",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	created := decodeBody[model.Case](t, resp)
	assert.Equal(t, "FZ-000001", created.CaseNumber)
	assert.Equal(t, model.CaseStatusInProgress, created.Status)

	resp = env.request(t, "GET", "/cases/"+created.ID, managerToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	diagnosis := "port desoldered"
	resp = env.request(t, "PUT", "/cases/"+created.ID, managerToken, handler.UpdateCaseRequest{
		Diagnosis: &diagnosis,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, diagnosis, decodeBody[model.Case](t, resp).Diagnosis)

	resp = env.request(t, "PUT", "/cases/"+created.ID+"/status", managerToken, handler.UpdateCaseStatusRequest{
		Status: "teleported",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = env.request(t, "PUT", "/cases/"+created.ID+"/status", managerToken, handler.UpdateCaseStatusRequest{
		Status: model.CaseStatusFixed,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = env.request(t, "GET", "/cases/stats", managerToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	stats := decodeBody[handler.CaseStatsResponse](t, resp)
	assert.Equal(t, 1, stats.Total)
	assert.Equal(t, 1, stats.ByStatus[model.CaseStatusFixed])
}

func TestCaseActivityTrail(t *testing.T) {
	env := newServerEnv(t)

	manager, managerToken := env.createUser(t, "manager", model.RoleManager, "password123")
	tech, _ := env.createUser(t, "tech", model.RoleTechnician, "password123")

	resp := env.request(t, "POST", "/cases", managerToken, handler.CreateCaseRequest{
		DeviceModel:      "Xbox Series X",
		ClientName:       "Client",
		IssueDescription: "no video output",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decodeBody[model.Case](t, resp)

	resp = env.request(t, "PUT", "/cases/"+created.ID+"/assign", managerToken, handler.AssignTechnicianRequest{
		TechnicianID: tech.ID,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = env.request(t, "PUT", "/cases/"+created.ID+"/status", managerToken, handler.UpdateCaseStatusRequest{
		Status: model.CaseStatusFixed,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = env.request(t, "GET", "/cases/"+created.ID+"/activities", managerToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	activities := decodeBody[[]model.Activity](t, resp)
	require.Len(t, activities, 3)

	actions := make([]string, len(activities))
	for i, a := range activities {
		actions[i] = a.Action
		assert.Equal(t, manager.ID, a.PerformedBy)
		require.NotNil(t, a.CaseID)
		assert.Equal(t, created.ID, *a.CaseID)
	}
	assert.Equal(t, []string{
		"Status changed from in_progress to fixed",
		"Assigned to technician tech",
		"Maintenance case created",
	}, actions)

	resp = env.request(t, "GET", "/cases/no-such-case/activities", managerToken, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAssignRejectsNonTechnician(t *testing.T) {
	env := newServerEnv(t)

	manager, managerToken := env.createUser(t, "manager", model.RoleManager, "password123")

	resp := env.request(t, "POST", "/cases", managerToken, handler.CreateCaseRequest{
		DeviceModel:      "iPad",
		ClientName:       "Client",
		IssueDescription: "battery drains",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decodeBody[model.Case](t, resp)

	resp = env.request(t, "PUT", "/cases/"+created.ID+"/assign", managerToken, handler.AssignTechnicianRequest{
		TechnicianID: manager.ID,
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestDeleteCaseRequiresManage(t *testing.T) {
	env := newServerEnv(t)

	_, technicianToken := env.createUser(t, "tech", model.RoleTechnician, "password123")
	_, managerToken := env.createUser(t, "manager", model.RoleManager, "password123")

	resp := env.request(t, "POST", "/cases", managerToken, handler.CreateCaseRequest{
		DeviceModel:      "Switch",
		ClientName:       "Client",
		IssueDescription: "drifting joystick",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decodeBody[model.Case](t, resp)

	resp = env.request(t, "DELETE", "/cases/"+created.ID, technicianToken, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = env.request(t, "DELETE", "/cases/"+created.ID, managerToken, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestBatchStatusUpdate(t *testing.T) {
	env := newServerEnv(t)

	_, managerToken := env.createUser(t, "manager", model.RoleManager, "password123")

	var caseIDs []string
	for i := 0; i < 2; i++ {
		resp := env.request(t, "POST", "/cases", managerToken, handler.CreateCaseRequest{
			DeviceModel:      "Laptop",
			ClientName:       "Client",
			IssueDescription: "overheating",
		})
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		caseIDs = append(caseIDs, decodeBody[model.Case](t, resp).ID)
	}

	resp := env.request(t, "POST", "/cases/batch/status", managerToken, handler.BatchUpdateStatusRequest{
		CaseIDs: append(caseIDs, "no-such-case"),
		Status:  model.CaseStatusWaitingParts,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	result := decodeBody[handler.BatchUpdateResponse](t, resp)
	assert.Equal(t, 2, result.UpdatedCount)
	assert.False(t, result.Success)
	assert.Equal(t, []string{"no-such-case"}, result.FailedIDs)
}

func TestNotificationEndpoints(t *testing.T) {
	env := newServerEnv(t)

	technician, technicianToken := env.createUser(t, "tech", model.RoleTechnician, "password123")
	_, otherToken := env.createUser(t, "tech2", model.RoleTechnician, "password123")
	_, managerToken := env.createUser(t, "manager", model.RoleManager, "password123")

	// Technicians cannot create ad hoc notifications.
	body := handler.CreateNotificationRequest{
		RecipientID: technician.ID,
		Message:     "pick up the parts order",
		Severity:    model.SeverityWarning,
	}
	resp := env.request(t, "POST", "/notifications", technicianToken, body)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = env.request(t, "POST", "/notifications", managerToken, body)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decodeBody[model.Notification](t, resp)

	resp = env.request(t, "GET", "/notifications", technicianToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, decodeBody[[]model.Notification](t, resp), 1)

	resp = env.request(t, "GET", "/notifications/count", technicianToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 1, decodeBody[handler.CountResponse](t, resp).Count)

	// Only the recipient may mark it read.
	resp = env.request(t, "PUT", "/notifications/"+created.ID+"/read", otherToken, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = env.request(t, "PUT", "/notifications/"+created.ID+"/read", technicianToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, decodeBody[model.Notification](t, resp).IsRead)

	resp = env.request(t, "GET", "/notifications/count", technicianToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 0, decodeBody[handler.CountResponse](t, resp).Count)

	resp = env.request(t, "PUT", "/notifications/read-all", technicianToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 0, decodeBody[handler.CountResponse](t, resp).Count)

	resp = env.request(t, "DELETE", "/notifications/read", technicianToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 1, decodeBody[handler.CountResponse](t, resp).Count)
}
