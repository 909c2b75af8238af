package notify

import (
	"sync"

	"go.uber.org/zap"
)

type Registry interface {
	Register(userID string, connection *Connection)
	Unregister(userID string, connectionID string)
	Count(userID string) int
	SendToUser(userID string, payload Payload)
	Broadcast(payload Payload, excludeUserID string)
}

// InMemoryRegistry tracks the open push channels per user. A user key
// exists iff its connection set is non-empty.
type InMemoryRegistry struct {
	logger *zap.Logger
	mu     sync.RWMutex

	connectionsByUser map[string]map[string]*Connection
}

func NewInMemoryRegistry(logger *zap.Logger) *InMemoryRegistry {
	return &InMemoryRegistry{
		logger:            logger,
		connectionsByUser: make(map[string]map[string]*Connection),
	}
}

func (r *InMemoryRegistry) Register(userID string, connection *Connection) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.connectionsByUser[userID]; !ok {
		r.connectionsByUser[userID] = make(map[string]*Connection)
	}

	r.connectionsByUser[userID][connection.ID] = connection

	r.logger.Info("connection registered",
		zap.String("userId", userID),
		zap.String("connectionId", connection.ID),
		zap.Int("connections", len(r.connectionsByUser[userID])))
}

// Unregister removes a connection. Removing an unknown connection is a
// no-op, which covers double-cleanup races between a failed send and
// the transport's own disconnect path.
func (r *InMemoryRegistry) Unregister(userID string, connectionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.removeLocked(userID, connectionID)
}

func (r *InMemoryRegistry) Count(userID string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.connectionsByUser[userID])
}

func (r *InMemoryRegistry) SendToUser(userID string, payload Payload) {
	r.mu.RLock()
	stale := r.push(r.connectionsByUser[userID], payload)
	r.mu.RUnlock()

	r.cleanup(stale)
}

func (r *InMemoryRegistry) Broadcast(payload Payload, excludeUserID string) {
	r.mu.RLock()

	var stale []*Connection
	for userID, connections := range r.connectionsByUser {
		if userID == excludeUserID {
			continue
		}
		stale = append(stale, r.push(connections, payload)...)
	}

	r.mu.RUnlock()

	r.cleanup(stale)
}

// push attempts to deliver the payload to each connection and returns
// the ones whose send buffer is full. A blocked buffer means the write
// pump stopped draining, which is treated the same as a broken pipe.
// Must be called with at least the read lock held: channels are only
// closed under the write lock, so a held read lock keeps every Send
// channel open for the duration of the pass.
func (r *InMemoryRegistry) push(connections map[string]*Connection, payload Payload) []*Connection {
	var stale []*Connection

	for _, connection := range connections {
		select {
		case connection.Send <- payload:
		default:
			r.logger.Warn("connection send buffer full, dropping connection",
				zap.String("userId", connection.UserID),
				zap.String("connectionId", connection.ID))

			stale = append(stale, connection)
		}
	}

	return stale
}

func (r *InMemoryRegistry) cleanup(stale []*Connection) {
	if len(stale) == 0 {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, connection := range stale {
		r.removeLocked(connection.UserID, connection.ID)
	}
}

// removeLocked must be called with the write lock held.
func (r *InMemoryRegistry) removeLocked(userID string, connectionID string) {
	connections, ok := r.connectionsByUser[userID]
	if !ok {
		return
	}

	connection, ok := connections[connectionID]
	if !ok {
		return
	}

	delete(connections, connectionID)
	if len(connections) == 0 {
		delete(r.connectionsByUser, userID)
	}

	close(connection.Send)
}
