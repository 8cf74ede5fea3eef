package controllers

import (
	"net/http"

	json "github.com/goccy/go-json"
	"github.com/gorilla/websocket"

	"github.com/imi6/dandan/internal/providers"
	"github.com/imi6/dandan/internal/realtime"
	"github.com/imi6/dandan/internal/structures"
)

type WsController struct {
	logger   providers.Logger
	hub      *realtime.Hub
	conf     *structures.Config
	upgrader websocket.Upgrader
}

func NewWsController(logger providers.Logger, hub *realtime.Hub, conf *structures.Config) *WsController {
	return &WsController{
		logger: logger,
		hub:    hub,
		conf:   conf,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// The relay runs on localhost for a local web client; there is
			// no auth model, so origins are not restricted.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// Serve upgrades the connection and pumps messages until the client leaves.
func (wc *WsController) Serve(w http.ResponseWriter, r *http.Request) {
	clientID := r.PathValue("clientId")
	if clientID == "" {
		http.Error(w, "client id required", http.StatusBadRequest)
		return
	}

	conn, err := wc.upgrader.Upgrade(w, r, nil)
	if err != nil {
		wc.logger.Warnf(providers.TypeWs, "Upgrade failed for %s: %s", clientID, err)
		return
	}
	if wc.conf.Realtime.MaxMessageSize > 0 {
		conn.SetReadLimit(wc.conf.Realtime.MaxMessageSize)
	}

	sender := realtime.NewConnSender(conn, wc.conf.Realtime.WriteTimeout)
	wc.hub.Register(clientID, sender)

	defer func() {
		wc.hub.Unregister(clientID, sender)
		_ = conn.Close()
		wc.hub.Broadcast(realtime.Disconnected(clientID))
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				wc.logger.Warnf(providers.TypeWs, "Read from %s failed: %s", clientID, err)
			}
			return
		}

		var msg realtime.Message
		if err := json.Unmarshal(data, &msg); err != nil {
			wc.hub.SendTo(clientID, realtime.ErrorMessage("Invalid JSON"))
			continue
		}
		wc.dispatch(clientID, msg)
	}
}

// dispatch implements the message vocabulary. Unknown tags are echoed back
// as an error message rather than dropped silently.
func (wc *WsController) dispatch(clientID string, msg realtime.Message) {
	switch msg.Type() {
	case "ping":
		wc.hub.SendTo(clientID, realtime.Pong())

	case "md5_progress":
		progress := msg["progress"]
		if progress == nil {
			progress = 0
		}
		wc.hub.SendTo(clientID, realtime.Message{
			"type":     "md5_progress",
			"progress": progress,
			"video_id": msg["video_id"],
		})

	case "danmaku":
		wc.hub.Broadcast(realtime.Message{
			"type":    "danmaku",
			"content": msg["content"],
			"sender":  clientID,
		})

	case "sync":
		wc.hub.Broadcast(realtime.Message{
			"type":    "sync",
			"time":    msg["time"],
			"playing": msg["playing"],
			"sender":  clientID,
		})

	default:
		wc.hub.SendTo(clientID, realtime.ErrorMessage("Unknown message type: "+msg.Type()))
	}
}
