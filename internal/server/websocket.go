package server

import (
	"net/http"

	"github.com/MahmoudNasser1/FZ-Maintenance-Archive/internal/auth"
	"github.com/MahmoudNasser1/FZ-Maintenance-Archive/internal/notify"
	"github.com/MahmoudNasser1/FZ-Maintenance-Archive/internal/persistence"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	gonanoid "github.com/matoous/go-nanoid/v2"
	"go.uber.org/zap"
)

// WebSocketServer admits authenticated push channels into the
// registry. The credential rides in the path so browser WebSocket
// clients can present it without custom headers.
type WebSocketServer struct {
	logger        *zap.Logger
	upgrader      *websocket.Upgrader
	authenticator *auth.Authenticator
	users         persistence.UserStore
	registry      notify.Registry
}

func NewWebSocketServer(
	logger *zap.Logger,
	upgrader *websocket.Upgrader,
	authenticator *auth.Authenticator,
	users persistence.UserStore,
	registry notify.Registry,
) *WebSocketServer {
	return &WebSocketServer{
		logger:        logger,
		upgrader:      upgrader,
		authenticator: authenticator,
		users:         users,
		registry:      registry,
	}
}

func (s *WebSocketServer) Register(router *mux.Router) {
	router.HandleFunc("/ws/{token}", s.handleChannel)
}

func (s *WebSocketServer) handleChannel(w http.ResponseWriter, r *http.Request) {
	token := mux.Vars(r)["token"]

	// Resolve the credential before the upgrade; a refused channel
	// must never touch the registry.
	identity, err := s.authenticator.Authenticate(token)
	if err != nil {
		s.logger.Warn("channel admission refused", zap.Error(err))
		http.Error(w, "invalid credentials", http.StatusForbidden)
		return
	}

	user, err := s.users.GetUser(r.Context(), identity.UserID)
	if err != nil || !user.IsActive {
		s.logger.Warn("channel admission refused for unknown or inactive user",
			zap.String("userId", identity.UserID))
		http.Error(w, "invalid credentials", http.StatusForbidden)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	conn.SetReadLimit(1024)

	connection := notify.NewConnection(gonanoid.Must(), user.ID)
	s.registry.Register(user.ID, connection)

	logger := s.logger.With(
		zap.String("userId", user.ID),
		zap.String("connectionId", connection.ID))
	logger.Info("channel opened")

	go s.writePump(logger, conn, connection)

	// The read loop only detects liveness; inbound frames carry no
	// meaning. Unregister runs on every exit path.
	defer func() {
		s.registry.Unregister(user.ID, connection.ID)
		conn.Close()
		logger.Info("channel closed")
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

// writePump drains the connection's send buffer onto the socket. It
// exits when the registry closes the buffer or a write fails; a failed
// write unregisters the connection, which is a no-op if the read loop
// already did.
func (s *WebSocketServer) writePump(logger *zap.Logger, conn *websocket.Conn, connection *notify.Connection) {
	defer conn.Close()

	for payload := range connection.Send {
		if err := conn.WriteJSON(payload); err != nil {
			logger.Warn("push failed, dropping channel", zap.Error(err))
			s.registry.Unregister(connection.UserID, connection.ID)
			return
		}
	}
}
