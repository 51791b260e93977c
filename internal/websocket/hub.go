package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"product-notes-be/internal/pkg/logger"
	"product-notes-be/pkg/events"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	hubModule    = "NOTE_FEED"
	clusterTopic = "note_feed_events"
)

// Hub fans note events out to the admin sessions of the shop they belong to.
type Hub struct {
	// Connected clients: shop -> sessions (one per open admin tab)
	clients map[string][]*Client
	mu      sync.RWMutex

	// Redis connection for cross-instance delivery. Optional.
	rdb        *redis.Client
	instanceId string

	logger logger.ILogger
}

type feedMessage struct {
	Type string      `json:"type"`
	Data feedPayload `json:"data"`
}

type feedPayload struct {
	EventType  string                 `json:"eventType"`
	OccurredAt time.Time              `json:"occurredAt"`
	Payload    map[string]interface{} `json:"payload"`
}

type clusterEnvelope struct {
	Origin  string          `json:"origin"`
	Shop    string          `json:"shop"`
	Message json.RawMessage `json:"message"`
}

func NewHub(rdb *redis.Client, log logger.ILogger) *Hub {
	return &Hub{
		clients:    make(map[string][]*Client),
		rdb:        rdb,
		instanceId: uuid.NewString(),
		logger:     log,
	}
}

func (h *Hub) register(client *Client) {
	h.mu.Lock()
	h.clients[client.Shop] = append(h.clients[client.Shop], client)
	h.mu.Unlock()
	h.logger.Info(hubModule, "Client registered", map[string]interface{}{"shop": client.Shop})
}

func (h *Hub) unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients := h.clients[client.Shop]
	for i, c := range clients {
		if c == client {
			h.clients[client.Shop] = append(clients[:i], clients[i+1:]...)
			close(client.Send)
			break
		}
	}
	if len(h.clients[client.Shop]) == 0 {
		delete(h.clients, client.Shop)
	}
}

// ClientCount reports the open sessions for a shop.
func (h *Hub) ClientCount(shop string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[shop])
}

// Publish delivers the event to local sessions of the event's shop and, when
// Redis is configured, to the other instances.
func (h *Hub) Publish(ctx context.Context, event events.Event) error {
	shop, _ := event.Payload()["shop"].(string)
	if shop == "" {
		return nil
	}

	data, err := json.Marshal(feedMessage{
		Type: "note_event",
		Data: feedPayload{
			EventType:  event.EventType(),
			OccurredAt: event.Timestamp(),
			Payload:    event.Payload(),
		},
	})
	if err != nil {
		return err
	}

	h.deliver(shop, data)

	if h.rdb != nil {
		envelope, _ := json.Marshal(clusterEnvelope{Origin: h.instanceId, Shop: shop, Message: data})
		if err := h.rdb.Publish(ctx, clusterTopic, envelope).Err(); err != nil {
			h.logger.Warn(hubModule, "Failed to publish to Redis", map[string]interface{}{"error": err.Error()})
		}
	}
	return nil
}

// deliver never blocks: a session whose buffer is full misses the message.
func (h *Hub) deliver(shop string, data []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, client := range h.clients[shop] {
		select {
		case client.Send <- data:
		default:
			h.logger.Warn(hubModule, "Client Send buffer full, dropping message", map[string]interface{}{"shop": shop})
		}
	}
}

// Run relays events published by other instances until ctx is done. It
// returns immediately when Redis is not configured.
func (h *Hub) Run(ctx context.Context) {
	if h.rdb == nil {
		return
	}

	pubsub := h.rdb.Subscribe(ctx, clusterTopic)
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
			var envelope clusterEnvelope
			if err := json.Unmarshal([]byte(msg.Payload), &envelope); err != nil {
				h.logger.Warn(hubModule, "Redis msg parse error", map[string]interface{}{"error": err.Error()})
				continue
			}
			if envelope.Origin == h.instanceId {
				continue
			}
			h.deliver(envelope.Shop, envelope.Message)
		}
	}
}
