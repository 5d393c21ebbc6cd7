package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"uml-nli-be/internal/pkg/logger"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const clusterChannel = "nli_cluster_events"

// ErrNotConnected is returned when no editor of the session is reachable.
var ErrNotConnected = errors.New("session has no connected editor")

// InboundHandler receives raw host actions read from an editor connection.
type InboundHandler interface {
	HandleAction(ctx context.Context, sessionID string, data []byte)
}

type clusterMessage struct {
	Origin          string          `json:"origin"`
	TargetSessionID string          `json:"target_session_id"`
	Message         json.RawMessage `json:"message"`
}

type Hub struct {
	// SessionID -> editor connections
	clients map[string][]*Client

	register   chan *Client
	unregister chan *Client
	mu         sync.RWMutex
	// closed when Run returns
	done chan struct{}

	// Redis relays messages to the instance holding the connection.
	rdb        *redis.Client
	instanceID string

	inbound      InboundHandler
	onDisconnect func(sessionID string)
	onConnect    func(sessionID string)

	logger logger.ILogger
}

func NewHub(rdb *redis.Client, log logger.ILogger) *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		clients:    make(map[string][]*Client),
		rdb:        rdb,
		instanceID: uuid.NewString(),
		logger:     log,
	}
}

// SetInbound installs the handler for host actions. Call before Run.
func (h *Hub) SetInbound(handler InboundHandler) {
	h.inbound = handler
}

// OnConnect runs fn when the first editor of a session connects.
func (h *Hub) OnConnect(fn func(sessionID string)) {
	h.onConnect = fn
}

// OnDisconnect runs fn when the last editor of a session leaves.
func (h *Hub) OnDisconnect(fn func(sessionID string)) {
	h.onDisconnect = fn
}

// join registers the client. It returns false once the hub has stopped.
func (h *Hub) join(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

// leave unregisters the client; after shutdown there is nothing to leave.
func (h *Hub) leave(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// Done is closed when Run has returned.
func (h *Hub) Done() <-chan struct{} {
	return h.done
}

func (h *Hub) Run(ctx context.Context) {
	defer h.shutdown()
	if h.rdb != nil {
		go h.subscribeToRedis(ctx)
	}

	for {
		select {
		case <-ctx.Done():
			return

		case client := <-h.register:
			h.mu.Lock()
			first := len(h.clients[client.SessionID]) == 0
			h.clients[client.SessionID] = append(h.clients[client.SessionID], client)
			h.mu.Unlock()
			h.logger.Info("Hub", "Editor connected", map[string]interface{}{"session_id": client.SessionID})
			if first && h.onConnect != nil {
				h.onConnect(client.SessionID)
			}

		case client := <-h.unregister:
			h.mu.Lock()
			last := false
			if clients, ok := h.clients[client.SessionID]; ok {
				for i, c := range clients {
					if c == client {
						h.clients[client.SessionID] = append(clients[:i], clients[i+1:]...)
						close(client.Send)
						break
					}
				}
				if len(h.clients[client.SessionID]) == 0 {
					delete(h.clients, client.SessionID)
					last = true
				}
			}
			h.mu.Unlock()
			if last {
				h.logger.Info("Hub", "Session has no editors left", map[string]interface{}{"session_id": client.SessionID})
				if h.onDisconnect != nil {
					h.onDisconnect(client.SessionID)
				}
			}
		}
	}
}

// shutdown closes every outbound queue so the write pumps send a close frame
// and drop their connections, then releases pumps waiting to leave.
func (h *Hub) shutdown() {
	h.mu.Lock()
	for sessionID, clients := range h.clients {
		for _, c := range clients {
			close(c.Send)
		}
		delete(h.clients, sessionID)
	}
	h.mu.Unlock()
	close(h.done)
}

// Connected reports whether this instance holds a connection for the session.
func (h *Hub) Connected(sessionID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[sessionID]) > 0
}

// Send delivers an encoded action message to the session's editors. When the
// session is not connected here the message is relayed through Redis.
func (h *Hub) Send(ctx context.Context, sessionID string, data []byte) error {
	if h.deliverLocal(sessionID, data) {
		return nil
	}
	if h.rdb == nil {
		return ErrNotConnected
	}

	payload, err := json.Marshal(clusterMessage{Origin: h.instanceID, TargetSessionID: sessionID, Message: data})
	if err != nil {
		return err
	}
	return h.rdb.Publish(ctx, clusterChannel, payload).Err()
}

func (h *Hub) deliverLocal(sessionID string, data []byte) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	clients, ok := h.clients[sessionID]
	if !ok {
		return false
	}
	for _, client := range clients {
		select {
		case client.Send <- data:
		default:
			h.logger.Warn("Hub", "Client send buffer full, dropping message", map[string]interface{}{"session_id": sessionID})
		}
	}
	return true
}

func (h *Hub) subscribeToRedis(ctx context.Context) {
	pubsub := h.rdb.Subscribe(ctx, clusterChannel)
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var payload clusterMessage
			if err := json.Unmarshal([]byte(msg.Payload), &payload); err != nil {
				h.logger.Warn("Hub", "Redis message parse error", map[string]interface{}{"error": err.Error()})
				continue
			}
			if payload.Origin == h.instanceID {
				continue
			}
			h.deliverLocal(payload.TargetSessionID, payload.Message)
		}
	}
}
