package realtime

import (
	"sync"

	"github.com/imi6/dandan/internal/providers"
)

// Sender is one client's outbound half. Implementations must be safe for
// concurrent Send calls.
type Sender interface {
	Send(msg Message) error
	Close() error
}

// Hub tracks live client channels and dispatches messages to one or all.
// Registration under an existing id replaces the entry; the superseded
// connection is closed rather than left to time out.
type Hub struct {
	logger  providers.Logger
	metrics providers.MetricsProviderInterface

	mu      sync.RWMutex
	clients map[string]Sender
}

func NewHub(logger providers.Logger, metrics providers.MetricsProviderInterface) *Hub {
	return &Hub{
		logger:  logger,
		metrics: metrics,
		clients: make(map[string]Sender),
	}
}

func (h *Hub) Register(clientID string, s Sender) {
	h.mu.Lock()
	prev := h.clients[clientID]
	h.clients[clientID] = s
	size := len(h.clients)
	h.mu.Unlock()

	if prev != nil {
		_ = prev.Close()
		h.logger.Warnf(providers.TypeWs, "Client %s reconnected, closed previous channel", clientID)
	}
	h.metrics.SetActiveClients(size)
	h.logger.Infof(providers.TypeWs, "Client %s connected (%d active)", clientID, size)
}

// Unregister removes the entry only if it still maps to s, so a replaced
// connection's deferred cleanup cannot evict its successor.
func (h *Hub) Unregister(clientID string, s Sender) {
	h.mu.Lock()
	current, ok := h.clients[clientID]
	if ok && (s == nil || current == s) {
		delete(h.clients, clientID)
	}
	size := len(h.clients)
	h.mu.Unlock()

	h.metrics.SetActiveClients(size)
	h.logger.Infof(providers.TypeWs, "Client %s disconnected (%d active)", clientID, size)
}

// SendTo delivers to a single client. Unknown ids are a no-op.
func (h *Hub) SendTo(clientID string, msg Message) {
	h.mu.RLock()
	s, ok := h.clients[clientID]
	h.mu.RUnlock()
	if !ok {
		return
	}
	if err := s.Send(msg); err != nil {
		h.logger.Warnf(providers.TypeWs, "Send to %s failed: %s", clientID, err)
	}
}

// Broadcast delivers best-effort to every registered client. The client map
// is snapshotted first so a slow or failing send never blocks registration,
// and one failure never prevents delivery to the rest.
func (h *Hub) Broadcast(msg Message) {
	h.mu.RLock()
	snapshot := make(map[string]Sender, len(h.clients))
	for id, s := range h.clients {
		snapshot[id] = s
	}
	h.mu.RUnlock()

	for id, s := range snapshot {
		if err := s.Send(msg); err != nil {
			h.logger.Warnf(providers.TypeWs, "Broadcast to %s failed: %s", id, err)
		}
	}
}

func (h *Hub) Size() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// CloseAll tears down every channel. Called on shutdown.
func (h *Hub) CloseAll() {
	h.mu.Lock()
	clients := h.clients
	h.clients = make(map[string]Sender)
	h.mu.Unlock()

	for _, s := range clients {
		_ = s.Close()
	}
	h.metrics.SetActiveClients(0)
}
