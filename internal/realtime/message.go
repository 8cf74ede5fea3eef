// Package realtime fans typed JSON messages out to connected players.
package realtime

// Message is one tagged realtime event. The vocabulary is open: ping,
// pong, md5_progress, danmaku, sync, error, user_disconnected.
type Message map[string]any

func (m Message) Type() string {
	t, _ := m["type"].(string)
	return t
}

func Pong() Message {
	return Message{"type": "pong"}
}

func ErrorMessage(text string) Message {
	return Message{"type": "error", "message": text}
}

func Disconnected(clientID string) Message {
	return Message{"type": "user_disconnected", "client_id": clientID}
}
