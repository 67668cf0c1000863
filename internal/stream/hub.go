// Package stream pushes per-user auth events to connected websocket clients.
// With redis configured every event goes through pub/sub so that clients
// connected to any instance receive it exactly once.
package stream

import (
	"context"
	"encoding/json"
	"strings"
	"sync"

	"backend-discoverudupi/internal/auth"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	channelPrefix  = "auth:"
	channelSuffix  = ":events"
	channelPattern = channelPrefix + "*" + channelSuffix
)

type Hub struct {
	redis   *redis.Client
	log     *zap.Logger
	cancel  context.CancelFunc
	clients map[string]map[*Client]struct{}
	mu      sync.RWMutex
}

type Client struct {
	UserID string
	Send   chan []byte
}

// NewHub returns a hub. When redisClient is non-nil the hub subscribes to
// every user's event channel before returning; if that fails it falls back
// to local delivery only.
func NewHub(redisClient *redis.Client, log *zap.Logger) *Hub {
	if log == nil {
		log = zap.NewNop()
	}
	h := &Hub{
		log:     log,
		cancel:  func() {},
		clients: map[string]map[*Client]struct{}{},
	}
	if redisClient == nil {
		return h
	}

	ctx, cancel := context.WithCancel(context.Background())
	pubsub := redisClient.PSubscribe(ctx, channelPattern)
	if _, err := pubsub.Receive(ctx); err != nil {
		log.Warn("redis subscribe failed, delivering locally", zap.Error(err))
		_ = pubsub.Close()
		cancel()
		return h
	}
	h.redis = redisClient
	h.cancel = cancel
	go h.forward(ctx, pubsub)
	return h
}

// Close stops the redis subscription.
func (h *Hub) Close() {
	h.cancel()
}

func (h *Hub) Register(userID string) *Client {
	client := &Client{
		UserID: userID,
		Send:   make(chan []byte, 64),
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[userID] == nil {
		h.clients[userID] = map[*Client]struct{}{}
	}
	h.clients[userID][client] = struct{}{}
	return client
}

func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if userClients, ok := h.clients[client.UserID]; ok {
		delete(userClients, client)
		if len(userClients) == 0 {
			delete(h.clients, client.UserID)
		}
	}
	close(client.Send)
}

// Publish sends ev to userID's clients. It implements auth.Publisher.
func (h *Hub) Publish(ctx context.Context, userID string, ev auth.Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return h.Broadcast(ctx, userID, payload)
}

// Broadcast delivers payload to every client of userID. If the redis publish
// fails the payload is still delivered to local clients.
func (h *Hub) Broadcast(ctx context.Context, userID string, payload []byte) error {
	if h.redis == nil {
		h.deliver(userID, payload)
		return nil
	}
	if err := h.redis.Publish(ctx, redisChannel(userID), payload).Err(); err != nil {
		h.log.Error("redis publish error", zap.String("user_id", userID), zap.Error(err))
		h.deliver(userID, payload)
		return err
	}
	return nil
}

func (h *Hub) forward(ctx context.Context, pubsub *redis.PubSub) {
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
			userID := userIDFromChannel(msg.Channel)
			if userID == "" {
				continue
			}
			h.deliver(userID, []byte(msg.Payload))
		}
	}
}

// deliver drops the payload for clients whose buffer is full.
func (h *Hub) deliver(userID string, payload []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.clients[userID] {
		select {
		case client.Send <- payload:
		default:
			h.log.Warn("stream client too slow, dropping event", zap.String("user_id", userID))
		}
	}
}

func redisChannel(userID string) string {
	return channelPrefix + userID + channelSuffix
}

func userIDFromChannel(ch string) string {
	if len(ch) <= len(channelPrefix)+len(channelSuffix) ||
		!strings.HasPrefix(ch, channelPrefix) || !strings.HasSuffix(ch, channelSuffix) {
		return ""
	}
	return ch[len(channelPrefix) : len(ch)-len(channelSuffix)]
}
