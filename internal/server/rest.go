package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/MahmoudNasser1/FZ-Maintenance-Archive/internal/auth"
	"github.com/MahmoudNasser1/FZ-Maintenance-Archive/internal/handler"
	"github.com/MahmoudNasser1/FZ-Maintenance-Archive/internal/ierr"
	"github.com/MahmoudNasser1/FZ-Maintenance-Archive/internal/model"
	"github.com/MahmoudNasser1/FZ-Maintenance-Archive/internal/persistence"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

type RESTServer struct {
	logger        *zap.Logger
	authenticator *auth.Authenticator
	users         persistence.UserStore

	authHandler         *handler.AuthHandler
	userHandler         *handler.UserHandler
	caseHandler         *handler.CaseHandler
	batchHandler        *handler.BatchHandler
	noteHandler         *handler.NoteHandler
	notificationHandler *handler.NotificationHandler
}

func NewRESTServer(
	logger *zap.Logger,
	authenticator *auth.Authenticator,
	users persistence.UserStore,
	authHandler *handler.AuthHandler,
	userHandler *handler.UserHandler,
	caseHandler *handler.CaseHandler,
	batchHandler *handler.BatchHandler,
	noteHandler *handler.NoteHandler,
	notificationHandler *handler.NotificationHandler,
) *RESTServer {
	return &RESTServer{
		logger:              logger,
		authenticator:       authenticator,
		users:               users,
		authHandler:         authHandler,
		userHandler:         userHandler,
		caseHandler:         caseHandler,
		batchHandler:        batchHandler,
		noteHandler:         noteHandler,
		notificationHandler: notificationHandler,
	}
}

func (s *RESTServer) Register(router *mux.Router) {
	router.HandleFunc("/auth/login", s.handleLogin).Methods("POST")

	authed := router.NewRoute().Subrouter()
	authed.Use(s.authMiddleware)

	authed.HandleFunc("/auth/me", s.handleMe).Methods("GET")

	authed.HandleFunc("/users", s.handleCreateUser).Methods("POST")
	authed.HandleFunc("/users", s.handleListUsers).Methods("GET")
	authed.HandleFunc("/users/{id}/active", s.handleSetUserActive).Methods("PUT")

	authed.HandleFunc("/cases", s.handleCreateCase).Methods("POST")
	authed.HandleFunc("/cases", s.handleListCases).Methods("GET")
	authed.HandleFunc("/cases/stats", s.handleCaseStats).Methods("GET")
	authed.HandleFunc("/cases/batch/status", s.handleBatchStatus).Methods("POST")
	authed.HandleFunc("/cases/batch/assign", s.handleBatchAssign).Methods("POST")
	authed.HandleFunc("/cases/{id}", s.handleGetCase).Methods("GET")
	authed.HandleFunc("/cases/{id}", s.handleUpdateCase).Methods("PUT")
	authed.HandleFunc("/cases/{id}", s.handleDeleteCase).Methods("DELETE")
	authed.HandleFunc("/cases/{id}/status", s.handleUpdateCaseStatus).Methods("PUT")
	authed.HandleFunc("/cases/{id}/assign", s.handleAssignCase).Methods("PUT")
	authed.HandleFunc("/cases/{id}/activities", s.handleListCaseActivities).Methods("GET")
	authed.HandleFunc("/cases/{id}/notes", s.handleCreateNote).Methods("POST")
	authed.HandleFunc("/cases/{id}/notes", s.handleListNotes).Methods("GET")
	authed.HandleFunc("/cases/{id}/worklogs", s.handleCreateWorkLog).Methods("POST")
	authed.HandleFunc("/cases/{id}/worklogs", s.handleListWorkLogs).Methods("GET")

	authed.HandleFunc("/notifications", s.handleListNotifications).Methods("GET")
	authed.HandleFunc("/notifications", s.handleCreateNotification).Methods("POST")
	authed.HandleFunc("/notifications/count", s.handleNotificationCount).Methods("GET")
	authed.HandleFunc("/notifications/read-all", s.handleMarkAllRead).Methods("PUT")
	authed.HandleFunc("/notifications/read", s.handleDeleteRead).Methods("DELETE")
	authed.HandleFunc("/notifications/{id}/read", s.handleMarkRead).Methods("PUT")
	authed.HandleFunc("/notifications/{id}", s.handleDeleteNotification).Methods("DELETE")
}

func (s *RESTServer) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			s.writeError(w, ierr.New(ierr.ErrorCodeUnauthenticated, errors.New("missing bearer token")))
			return
		}

		identity, err := s.authenticator.Authenticate(token)
		if err != nil {
			s.writeError(w, err)
			return
		}

		// A valid token is not enough: deactivation must cut off
		// access immediately, not at token expiry.
		user, err := s.users.GetUser(r.Context(), identity.UserID)
		if err != nil {
			s.writeError(w, ierr.New(ierr.ErrorCodeUnauthenticated, errors.New("unknown user")))
			return
		}
		if !user.IsActive {
			s.writeError(w, ierr.New(ierr.ErrorCodeFailedPrecondition, errors.New("user is inactive")))
			return
		}

		next.ServeHTTP(w, r.WithContext(auth.WithIdentity(r.Context(), identity)))
	})
}

func (s *RESTServer) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req handler.LoginRequest
	if !s.decode(w, r, &req) {
		return
	}

	response, err := s.authHandler.Login(r.Context(), req)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, response)
}

func (s *RESTServer) handleMe(w http.ResponseWriter, r *http.Request) {
	user, err := s.authHandler.Me(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, user)
}

func (s *RESTServer) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req handler.CreateUserRequest
	if !s.decode(w, r, &req) {
		return
	}

	user, err := s.userHandler.Create(r.Context(), req)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusCreated, user)
}

func (s *RESTServer) handleListUsers(w http.ResponseWriter, r *http.Request) {
	req := handler.ListUsersRequest{
		ActiveOnly: r.URL.Query().Get("activeOnly") == "true",
	}
	for _, role := range r.URL.Query()["role"] {
		req.Roles = append(req.Roles, model.Role(role))
	}

	users, err := s.userHandler.List(r.Context(), req)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, users)
}

func (s *RESTServer) handleSetUserActive(w http.ResponseWriter, r *http.Request) {
	var req handler.SetUserActiveRequest
	if !s.decode(w, r, &req) {
		return
	}

	err := s.userHandler.SetActive(r.Context(), mux.Vars(r)["id"], req)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (s *RESTServer) handleCreateCase(w http.ResponseWriter, r *http.Request) {
	var req handler.CreateCaseRequest
	if !s.decode(w, r, &req) {
		return
	}

	c, err := s.caseHandler.Create(r.Context(), req)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusCreated, c)
}

func (s *RESTServer) handleListCases(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	req := handler.ListCasesRequest{
		Offset: queryInt(query.Get("offset")),
		Limit:  queryInt(query.Get("limit")),
	}
	if status := query.Get("status"); status != "" {
		caseStatus := model.CaseStatus(status)
		req.Status = &caseStatus
	}
	if technicianID := query.Get("technicianId"); technicianID != "" {
		req.TechnicianID = &technicianID
	}

	cases, err := s.caseHandler.List(r.Context(), req)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, cases)
}

func (s *RESTServer) handleGetCase(w http.ResponseWriter, r *http.Request) {
	c, err := s.caseHandler.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, c)
}

func (s *RESTServer) handleUpdateCase(w http.ResponseWriter, r *http.Request) {
	var req handler.UpdateCaseRequest
	if !s.decode(w, r, &req) {
		return
	}

	c, err := s.caseHandler.Update(r.Context(), mux.Vars(r)["id"], req)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, c)
}

func (s *RESTServer) handleUpdateCaseStatus(w http.ResponseWriter, r *http.Request) {
	var req handler.UpdateCaseStatusRequest
	if !s.decode(w, r, &req) {
		return
	}

	c, err := s.caseHandler.UpdateStatus(r.Context(), mux.Vars(r)["id"], req)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, c)
}

func (s *RESTServer) handleAssignCase(w http.ResponseWriter, r *http.Request) {
	var req handler.AssignTechnicianRequest
	if !s.decode(w, r, &req) {
		return
	}

	c, err := s.caseHandler.Assign(r.Context(), mux.Vars(r)["id"], req)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, c)
}

func (s *RESTServer) handleDeleteCase(w http.ResponseWriter, r *http.Request) {
	err := s.caseHandler.Delete(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (s *RESTServer) handleCaseStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.caseHandler.Stats(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, stats)
}

func (s *RESTServer) handleBatchStatus(w http.ResponseWriter, r *http.Request) {
	var req handler.BatchUpdateStatusRequest
	if !s.decode(w, r, &req) {
		return
	}

	response, err := s.batchHandler.UpdateStatus(r.Context(), req)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, response)
}

func (s *RESTServer) handleBatchAssign(w http.ResponseWriter, r *http.Request) {
	var req handler.BatchAssignTechnicianRequest
	if !s.decode(w, r, &req) {
		return
	}

	response, err := s.batchHandler.AssignTechnician(r.Context(), req)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, response)
}

func (s *RESTServer) handleListCaseActivities(w http.ResponseWriter, r *http.Request) {
	activities, err := s.caseHandler.Activities(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, activities)
}

func (s *RESTServer) handleCreateNote(w http.ResponseWriter, r *http.Request) {
	var req handler.CreateNoteRequest
	if !s.decode(w, r, &req) {
		return
	}

	note, err := s.noteHandler.CreateNote(r.Context(), mux.Vars(r)["id"], req)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusCreated, note)
}

func (s *RESTServer) handleListNotes(w http.ResponseWriter, r *http.Request) {
	notes, err := s.noteHandler.ListNotes(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, notes)
}

func (s *RESTServer) handleCreateWorkLog(w http.ResponseWriter, r *http.Request) {
	var req handler.CreateWorkLogRequest
	if !s.decode(w, r, &req) {
		return
	}

	workLog, err := s.noteHandler.CreateWorkLog(r.Context(), mux.Vars(r)["id"], req)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusCreated, workLog)
}

func (s *RESTServer) handleListWorkLogs(w http.ResponseWriter, r *http.Request) {
	workLogs, err := s.noteHandler.ListWorkLogs(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, workLogs)
}

func (s *RESTServer) handleListNotifications(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	req := handler.ListNotificationsRequest{
		Offset: queryInt(query.Get("offset")),
		Limit:  queryInt(query.Get("limit")),
	}
	if isRead := query.Get("isRead"); isRead != "" {
		value := isRead == "true"
		req.IsRead = &value
	}

	notifications, err := s.notificationHandler.List(r.Context(), req)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, notifications)
}

func (s *RESTServer) handleCreateNotification(w http.ResponseWriter, r *http.Request) {
	var req handler.CreateNotificationRequest
	if !s.decode(w, r, &req) {
		return
	}

	notification, err := s.notificationHandler.Create(r.Context(), req)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusCreated, notification)
}

func (s *RESTServer) handleNotificationCount(w http.ResponseWriter, r *http.Request) {
	count, err := s.notificationHandler.UnreadCount(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, count)
}

func (s *RESTServer) handleMarkRead(w http.ResponseWriter, r *http.Request) {
	notification, err := s.notificationHandler.MarkRead(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, notification)
}

func (s *RESTServer) handleMarkAllRead(w http.ResponseWriter, r *http.Request) {
	count, err := s.notificationHandler.MarkAllRead(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, count)
}

func (s *RESTServer) handleDeleteNotification(w http.ResponseWriter, r *http.Request) {
	err := s.notificationHandler.Delete(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (s *RESTServer) handleDeleteRead(w http.ResponseWriter, r *http.Request) {
	count, err := s.notificationHandler.DeleteRead(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, count)
}

func (s *RESTServer) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		s.writeError(w, ierr.New(ierr.ErrorCodeInvalidArgument, errors.New("invalid request body")))
		return false
	}

	return true
}

func (s *RESTServer) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("failed to encode response", zap.Error(err))
	}
}

func (s *RESTServer) writeError(w http.ResponseWriter, err error) {
	var coded ierr.Error
	if !errors.As(err, &coded) {
		s.logger.Error("internal error in request handler", zap.Error(err))
		coded = ierr.New(ierr.ErrorCodeInternal, errors.New("internal error"))
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(coded.HTTPStatus())

	if err := json.NewEncoder(w).Encode(coded); err != nil {
		s.logger.Error("failed to encode error response", zap.Error(err))
	}
}

func queryInt(value string) int {
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0
	}

	return n
}
