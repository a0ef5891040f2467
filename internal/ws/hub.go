package ws

import (
	"context"
	"encoding/json"
	"log"
	"strings"
	"sync"

	"github.com/redis/go-redis/v9"
)

const userChannelPrefix = "user:"

// Envelope is the wire frame of every server-initiated event.
type Envelope struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

// Hub keeps the connected clients, addressed by user id (one room per user,
// any number of connections). With a Redis client it also publishes every
// emit to "user:<id>" and subscribes to "user:*", so fan-out reaches clients
// connected to other instances.
type Hub struct {
	mu      sync.Mutex
	clients map[string]map[*Client]bool
	rdb     *redis.Client
}

func NewHub(rdb *redis.Client) *Hub {
	h := &Hub{
		clients: make(map[string]map[*Client]bool),
		rdb:     rdb,
	}
	if rdb != nil {
		go h.runBridge()
	}
	return h
}

func (h *Hub) runBridge() {
	pubsub := h.rdb.PSubscribe(context.Background(), userChannelPrefix+"*")
	for msg := range pubsub.Channel() {
		userID := strings.TrimPrefix(msg.Channel, userChannelPrefix)
		var env Envelope
		if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
			log.Printf("Error decoding pubsub payload on %s: %v", msg.Channel, err)
			continue
		}
		h.deliverLocal(userID, env)
	}
}

func (h *Hub) AddClient(userID string, conn Conn) *Client {
	c := newClient(h, userID, conn)

	h.mu.Lock()
	if h.clients[userID] == nil {
		h.clients[userID] = make(map[*Client]bool)
	}
	h.clients[userID][c] = true
	h.mu.Unlock()

	go c.writeLoop()
	log.Printf("Client %s added to pool", userID)
	return c
}

func (h *Hub) RemoveClient(c *Client) {
	h.mu.Lock()
	if conns, ok := h.clients[c.UserID]; ok {
		if _, exists := conns[c]; exists {
			delete(conns, c)
			c.close()
		}
		if len(conns) == 0 {
			delete(h.clients, c.UserID)
		}
	}
	h.mu.Unlock()
	log.Printf("Client %s removed from pool", c.UserID)
}

// EmitToUser implements the services.Broadcaster contract. Delivery is
// best-effort: failures are logged, never returned.
func (h *Hub) EmitToUser(userID, event string, payload interface{}) {
	env := Envelope{Event: event, Data: payload}

	if h.rdb != nil {
		body, err := json.Marshal(env)
		if err != nil {
			log.Printf("Error encoding event %q for user %s: %v", event, userID, err)
			return
		}
		if err := h.rdb.Publish(context.Background(), userChannelPrefix+userID, body).Err(); err != nil {
			log.Printf("Error publishing event %q for user %s: %v", event, userID, err)
			// Fall back to local delivery so a Redis outage does not silence
			// clients on this instance.
			h.deliverLocal(userID, env)
		}
		return
	}

	h.deliverLocal(userID, env)
}

func (h *Hub) deliverLocal(userID string, env Envelope) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for c := range h.clients[userID] {
		select {
		case c.send <- env:
		default:
			// Slow client: drop the connection rather than block fan-out.
			delete(h.clients[userID], c)
			c.close()
			log.Printf("Dropped slow client for user %s", userID)
		}
	}
}
