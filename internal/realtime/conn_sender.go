package realtime

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// connSender serializes writes to a websocket connection. Gorilla permits
// only one concurrent writer per connection.
type connSender struct {
	mu           sync.Mutex
	conn         *websocket.Conn
	writeTimeout time.Duration
}

func NewConnSender(conn *websocket.Conn, writeTimeout time.Duration) Sender {
	return &connSender{conn: conn, writeTimeout: writeTimeout}
}

func (cs *connSender) Send(msg Message) error {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	if cs.writeTimeout > 0 {
		_ = cs.conn.SetWriteDeadline(time.Now().Add(cs.writeTimeout))
	}
	return cs.conn.WriteJSON(msg)
}

func (cs *connSender) Close() error {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	deadline := time.Now().Add(time.Second)
	_ = cs.conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		deadline,
	)
	return cs.conn.Close()
}
