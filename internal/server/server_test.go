package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/MahmoudNasser1/FZ-Maintenance-Archive/internal/auth"
	"github.com/MahmoudNasser1/FZ-Maintenance-Archive/internal/handler"
	"github.com/MahmoudNasser1/FZ-Maintenance-Archive/internal/model"
	"github.com/MahmoudNasser1/FZ-Maintenance-Archive/internal/notify"
	"github.com/MahmoudNasser1/FZ-Maintenance-Archive/internal/persistence/sqlite"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type serverEnv struct {
	ts            *httptest.Server
	store         *sqlite.Store
	authenticator *auth.Authenticator
	registry      *notify.InMemoryRegistry
	dispatcher    *notify.Dispatcher
	queue         *notify.Queue
}

func newServerEnv(t *testing.T) *serverEnv {
	t.Helper()

	logger, _ := zap.NewDevelopment()

	store, err := sqlite.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	authenticator := auth.NewAuthenticator("test-secret", time.Hour)
	registry := notify.NewInMemoryRegistry(logger)
	dispatcher := notify.NewDispatcher(logger, registry, store, store, store)
	queue := notify.NewQueue(logger, 64)
	t.Cleanup(queue.Close)

	restServer := NewRESTServer(
		logger,
		authenticator,
		store,
		handler.NewAuthHandler(store, authenticator),
		handler.NewUserHandler(store),
		handler.NewCaseHandler(logger, store, store, store, dispatcher, queue),
		handler.NewBatchHandler(logger, store, store, store, dispatcher, queue),
		handler.NewNoteHandler(store, store, store),
		handler.NewNotificationHandler(store, dispatcher, queue),
	)
	websocketServer := NewWebSocketServer(
		logger,
		&websocket.Upgrader{},
		authenticator,
		store,
		registry,
	)

	router := mux.NewRouter()
	restServer.Register(router)
	websocketServer.Register(router)

	ts := httptest.NewServer(router)
	t.Cleanup(ts.Close)

	return &serverEnv{
		ts:            ts,
		store:         store,
		authenticator: authenticator,
		registry:      registry,
		dispatcher:    dispatcher,
		queue:         queue,
	}
}

func (e *serverEnv) createUser(t *testing.T, username string, role model.Role, password string) (model.User, string) {
	t.Helper()

	hash, err := auth.HashPassword(password)
	require.NoError(t, err)

	user, err := e.store.CreateUser(context.Background(), model.User{
		Username:       username,
		Email:          username + "@example.com",
		FullName:       username,
		HashedPassword: hash,
		Role:           role,
		IsActive:       true,
	})
	require.NoError(t, err)

	token, err := e.authenticator.IssueToken(user)
	require.NoError(t, err)

	return user, token
}

func (e *serverEnv) request(t *testing.T, method, path, token string, body any) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequest(method, e.ts.URL+path, reader)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := e.ts.Client().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })

	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()

	var value T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&value))

	return value
}

func (e *serverEnv) dial(t *testing.T, token string) (*websocket.Conn, *http.Response, error) {
	t.Helper()

	url := "ws" + e.ts.URL[len("http"):] + "/ws/" + token

	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if conn != nil {
		t.Cleanup(func() { conn.Close() })
	}

	return conn, resp, err
}
