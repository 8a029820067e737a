package websocket

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Hub fans dashboard events out to every open browser tab. The planner is a
// single-user app, so there is one broadcast group: all connections get every
// message published on the events channel.
type Hub struct {
	mu          sync.RWMutex
	connections []*websocket.Conn
	redisClient *redis.Client
	channel     string
	cancel      context.CancelFunc
}

func NewHub(redisClient *redis.Client, channel string) *Hub {
	return &Hub{
		redisClient: redisClient,
		channel:     channel,
	}
}

// Start subscribes to the events channel. Call once before serving.
func (h *Hub) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	h.cancel = cancel
	go h.subscribeToPubSub(ctx)
}

// Stop cancels the pub/sub subscription and closes all connections.
func (h *Hub) Stop() {
	if h.cancel != nil {
		h.cancel()
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for _, conn := range h.connections {
		conn.Close()
	}
	h.connections = nil
}

func (h *Hub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}

	h.registerConnection(conn)

	// Keep connection alive and handle disconnect
	go func() {
		defer h.unregisterConnection(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				break
			}
		}
	}()
}

func (h *Hub) registerConnection(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.connections = append(h.connections, conn)
	log.Printf("WebSocket connected (total: %d)", len(h.connections))
}

func (h *Hub) unregisterConnection(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	conn.Close()
	for i, c := range h.connections {
		if c == conn {
			h.connections = append(h.connections[:i], h.connections[i+1:]...)
			break
		}
	}

	log.Printf("WebSocket disconnected (total: %d)", len(h.connections))
}

func (h *Hub) subscribeToPubSub(ctx context.Context) {
	pubsub := h.redisClient.Subscribe(ctx, h.channel)
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
			h.broadcast([]byte(msg.Payload))
		}
	}
}

func (h *Hub) broadcast(data []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, conn := range h.connections {
		conn.WriteMessage(websocket.TextMessage, data)
	}
}

// Broadcast sends a message to every connected tab directly, bypassing
// pub/sub. Used by handlers that already run in this process.
func (h *Hub) Broadcast(msg interface{}) {
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}
	h.broadcast(data)
}
