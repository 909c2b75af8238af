package notify

const sendBufferSize = 64

// Connection is a live push channel admitted for one user. The Send
// channel is drained by the transport's write pump and closed by the
// registry when the connection is removed.
type Connection struct {
	ID     string
	UserID string
	Send   chan Payload
}

func NewConnection(id string, userID string) *Connection {
	return &Connection{
		ID:     id,
		UserID: userID,
		Send:   make(chan Payload, sendBufferSize),
	}
}
