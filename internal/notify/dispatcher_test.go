package notify

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/MahmoudNasser1/FZ-Maintenance-Archive/internal/model"
	"github.com/MahmoudNasser1/FZ-Maintenance-Archive/internal/persistence"
	"github.com/MahmoudNasser1/FZ-Maintenance-Archive/internal/persistence/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type testEnv struct {
	store      *sqlite.Store
	registry   *InMemoryRegistry
	dispatcher *Dispatcher

	admin      model.User
	manager    model.User
	manager2   model.User
	technician model.User
	technicianB model.User
	technicianC model.User
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	logger, _ := zap.NewDevelopment()

	store, err := sqlite.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	registry := NewInMemoryRegistry(logger)
	dispatcher := NewDispatcher(logger, registry, store, store, store)

	env := &testEnv{
		store:      store,
		registry:   registry,
		dispatcher: dispatcher,
	}

	env.admin = env.createUser(t, "admin", model.RoleAdmin)
	env.manager = env.createUser(t, "manager", model.RoleManager)
	env.manager2 = env.createUser(t, "manager2", model.RoleManager)
	env.technician = env.createUser(t, "tech-a", model.RoleTechnician)
	env.technicianB = env.createUser(t, "tech-b", model.RoleTechnician)
	env.technicianC = env.createUser(t, "tech-c", model.RoleTechnician)

	return env
}

func (e *testEnv) createUser(t *testing.T, username string, role model.Role) model.User {
	t.Helper()

	user, err := e.store.CreateUser(context.Background(), model.User{
		Username:       username,
		Email:          username + "@example.com",
		FullName:       username,
		HashedPassword: "x",
		Role:           role,
		IsActive:       true,
	})
	require.NoError(t, err)

	return user
}

func (e *testEnv) createCase(t *testing.T, technicianID *string) model.Case {
	t.Helper()

	c, err := e.store.CreateCase(context.Background(), model.Case{
		DeviceModel:      "ThinkPad X1",
		ClientName:       "Client",
		IssueDescription: "does not boot",
		TechnicianID:     technicianID,
	})
	require.NoError(t, err)

	return c
}

func (e *testEnv) notifications(t *testing.T, userID string) []model.Notification {
	t.Helper()

	notifications, err := e.store.ListNotifications(context.Background(), persistence.ListNotificationsRequest{
		RecipientID: userID,
	})
	require.NoError(t, err)

	return notifications
}

func TestNotifyUserAlwaysPersists(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	// No live channel exists for the technician.
	err := env.dispatcher.NotifyUser(ctx, env.technician.ID, "hello", model.SeverityInfo, nil)
	require.NoError(t, err)

	notifications := env.notifications(t, env.technician.ID)
	require.Len(t, notifications, 1)
	assert.Equal(t, "hello", notifications[0].Message)
	assert.False(t, notifications[0].IsRead)
}

func TestNotifyCaseParticipantsDeduplicates(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	// The assigned technician also matches the role filter; they must
	// still be notified exactly once.
	c := env.createCase(t, &env.technician.ID)

	env.dispatcher.NotifyCaseParticipants(ctx, c.ID, "case updated", model.SeverityInfo, DispatchOptions{
		Roles:         []model.Role{model.RoleTechnician, model.RoleManager},
		ExcludeUserID: env.manager.ID,
	})

	assert.Len(t, env.notifications(t, env.technician.ID), 1)
	assert.Len(t, env.notifications(t, env.technicianB.ID), 1)
	assert.Len(t, env.notifications(t, env.manager2.ID), 1)

	// The excluded user matches the role filter and still gets nothing.
	assert.Empty(t, env.notifications(t, env.manager.ID))

	// Admins are outside the role filter here.
	assert.Empty(t, env.notifications(t, env.admin.ID))
}

func TestNotifyCaseParticipantsUnknownCase(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.dispatcher.NotifyCaseParticipants(ctx, "no-such-case", "hello", model.SeverityInfo, DispatchOptions{})

	assert.Empty(t, env.notifications(t, env.technician.ID))
	assert.Empty(t, env.notifications(t, env.manager.ID))
}

func TestNotifyStatusChange(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	c := env.createCase(t, &env.technician.ID)

	technicianConn := NewConnection("conn-tech", env.technician.ID)
	managerConn := NewConnection("conn-manager", env.manager.ID)
	manager2Conn := NewConnection("conn-manager2", env.manager2.ID)
	env.registry.Register(env.technician.ID, technicianConn)
	env.registry.Register(env.manager.ID, managerConn)
	env.registry.Register(env.manager2.ID, manager2Conn)

	env.dispatcher.NotifyStatusChange(ctx, c.ID, model.CaseStatusInProgress, model.CaseStatusFixed, env.manager.ID)

	// The assigned technician receives exactly one live push,
	// classified success for a repaired device.
	pushed := drain(technicianConn)
	require.Len(t, pushed, 1)
	assert.Equal(t, "notification", pushed[0].Type)
	assert.Equal(t, model.SeveritySuccess, pushed[0].Severity)
	require.NotNil(t, pushed[0].RelatedCaseID)
	assert.Equal(t, c.ID, *pushed[0].RelatedCaseID)

	rows := env.notifications(t, env.technician.ID)
	require.Len(t, rows, 1)
	assert.False(t, rows[0].IsRead)
	assert.Equal(t, model.SeveritySuccess, rows[0].Severity)

	// The acting manager never hears about their own change.
	assert.Empty(t, drain(managerConn))
	assert.Empty(t, env.notifications(t, env.manager.ID))

	// Other managers get the same message.
	otherPushed := drain(manager2Conn)
	require.Len(t, otherPushed, 1)
	assert.Equal(t, pushed[0].Message, otherPushed[0].Message)
}

func TestStatusSeverities(t *testing.T) {
	assert.Equal(t, model.SeveritySuccess, severityForStatus(model.CaseStatusFixed))
	assert.Equal(t, model.SeveritySuccess, severityForStatus(model.CaseStatusDelivered))
	assert.Equal(t, model.SeverityWarning, severityForStatus(model.CaseStatusWaitingParts))
	assert.Equal(t, model.SeverityInfo, severityForStatus(model.CaseStatusInProgress))
	assert.Equal(t, model.SeverityInfo, severityForStatus(model.CaseStatusCancelled))
}

func TestNotifyAssignment(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	c := env.createCase(t, nil)

	env.dispatcher.NotifyAssignment(ctx, c.ID, env.technician.ID, env.manager.ID)

	technicianRows := env.notifications(t, env.technician.ID)
	require.Len(t, technicianRows, 1)
	assert.Contains(t, technicianRows[0].Message, "You have been assigned")

	// Managers other than the actor are informed; the actor is not.
	assert.Len(t, env.notifications(t, env.manager2.ID), 1)
	assert.Len(t, env.notifications(t, env.admin.ID), 1)
	assert.Empty(t, env.notifications(t, env.manager.ID))
}

func TestNotifyBatchUpdateDeduplicatesTechnicians(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	// 5 cases spread over 3 technicians.
	caseIDs := []string{
		env.createCase(t, &env.technician.ID).ID,
		env.createCase(t, &env.technician.ID).ID,
		env.createCase(t, &env.technicianB.ID).ID,
		env.createCase(t, &env.technicianB.ID).ID,
		env.createCase(t, &env.technicianC.ID).ID,
	}

	env.dispatcher.NotifyBatchUpdate(ctx, caseIDs, "status", env.manager.ID)

	// One notification per technician, not per case.
	assert.Len(t, env.notifications(t, env.technician.ID), 1)
	assert.Len(t, env.notifications(t, env.technicianB.ID), 1)
	assert.Len(t, env.notifications(t, env.technicianC.ID), 1)

	assert.Len(t, env.notifications(t, env.manager2.ID), 1)
	assert.Len(t, env.notifications(t, env.admin.ID), 1)
	assert.Empty(t, env.notifications(t, env.manager.ID))
}

func TestBroadcastSystem(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.dispatcher.BroadcastSystem(ctx, "maintenance window tonight", model.SeverityWarning, DispatchOptions{
		ExcludeUserID: env.admin.ID,
	})

	// Empty roles resolve to every active user except the excluded one.
	assert.Empty(t, env.notifications(t, env.admin.ID))
	for _, userID := range []string{env.manager.ID, env.manager2.ID, env.technician.ID, env.technicianB.ID, env.technicianC.ID} {
		rows := env.notifications(t, userID)
		require.Len(t, rows, 1)
		assert.Equal(t, model.SeverityWarning, rows[0].Severity)
	}
}

type flakyNotificationStore struct {
	persistence.NotificationStore

	failFor string
}

func (s *flakyNotificationStore) CreateNotification(ctx context.Context, request persistence.CreateNotificationRequest) (model.Notification, error) {
	if request.RecipientID == s.failFor {
		return model.Notification{}, errors.New("write failed")
	}

	return s.NotificationStore.CreateNotification(ctx, request)
}

func TestPersistenceFailureDoesNotAbortOtherRecipients(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	logger, _ := zap.NewDevelopment()
	flaky := &flakyNotificationStore{
		NotificationStore: env.store,
		failFor:           env.technicianB.ID,
	}
	dispatcher := NewDispatcher(logger, env.registry, flaky, env.store, env.store)

	dispatcher.BroadcastSystem(ctx, "hello", model.SeverityInfo, DispatchOptions{
		RecipientIDs: []string{env.technician.ID, env.technicianB.ID, env.technicianC.ID},
	})

	assert.Len(t, env.notifications(t, env.technician.ID), 1)
	assert.Empty(t, env.notifications(t, env.technicianB.ID))
	assert.Len(t, env.notifications(t, env.technicianC.ID), 1)
}
