package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/ikkim/restaurant-reviews/pkg/logger"
)

const (
	// Rate limiting: 최대 메시지 수 (1초당)
	maxMessagesPerSecond = 10
)

// ClientMessage 클라이언트로부터 받은 메시지
type ClientMessage struct {
	Type         string `json:"type"` // watch, ping
	RestaurantID uint   `json:"restaurant_id"`
}

// Client is one open detail page.
type Client struct {
	Hub           *Hub
	Conn          *Conn
	RestaurantID  uint
	Send          chan []byte
	mu            sync.RWMutex
	MessageCount  int       // 최근 1초간 받은 메시지 수
	LastResetTime time.Time // 마지막 카운터 리셋 시간
	RateMu        sync.Mutex
}

func NewClient(hub *Hub, conn *Conn, restaurantID uint) *Client {
	return &Client{
		Hub:          hub,
		Conn:         conn,
		RestaurantID: restaurantID,
		Send:         make(chan []byte, 64),
	}
}

func (c *Client) restaurant() uint {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.RestaurantID
}

// Hub fans review updates out to the pages open on each restaurant.
type Hub struct {
	// 식당별 클라이언트 (RestaurantID -> set)
	rooms map[uint]map[*Client]bool

	register   chan *Client
	unregister chan *Client
	broadcast  chan *BroadcastMessage

	mu sync.RWMutex
}

// BroadcastMessage 브로드캐스트 메시지. RestaurantID 0 means every client.
type BroadcastMessage struct {
	RestaurantID uint
	Message      []byte
}

func NewHub() *Hub {
	return &Hub{
		rooms:      make(map[uint]map[*Client]bool),
		register:   make(chan *Client, 256),
		unregister: make(chan *Client, 256),
		broadcast:  make(chan *BroadcastMessage, 1024),
	}
}

// Run serves registrations and broadcasts until ctx ends.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return

		case client := <-h.register:
			restaurantID := client.restaurant()
			h.mu.Lock()
			if _, ok := h.rooms[restaurantID]; !ok {
				h.rooms[restaurantID] = make(map[*Client]bool)
			}
			h.rooms[restaurantID][client] = true
			watchers := len(h.rooms[restaurantID])
			h.mu.Unlock()
			logger.Debug("WebSocket client registered", map[string]interface{}{
				"restaurant_id": restaurantID,
				"watchers":      watchers,
			})

		case client := <-h.unregister:
			h.mu.Lock()
			if h.removeLocked(client) {
				close(client.Send)
			}
			h.mu.Unlock()

		case message := <-h.broadcast:
			h.deliver(message)
		}
	}
}

func (h *Hub) deliver(message *BroadcastMessage) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for restaurantID, clients := range h.rooms {
		if message.RestaurantID != 0 && restaurantID != message.RestaurantID {
			continue
		}
		for client := range clients {
			select {
			case client.Send <- message.Message:
			default:
				// Send 채널이 막혀있음 - 비동기로 정리
				go h.Unregister(client)
				logger.Warn("Client send buffer full, disconnecting", map[string]interface{}{
					"restaurant_id": restaurantID,
				})
			}
		}
	}
}

// removeLocked drops the client from whichever room holds it.
func (h *Hub) removeLocked(client *Client) bool {
	for restaurantID, clients := range h.rooms {
		if !clients[client] {
			continue
		}
		delete(clients, client)
		if len(clients) == 0 {
			delete(h.rooms, restaurantID)
		}
		return true
	}
	return false
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for restaurantID, clients := range h.rooms {
		for client := range clients {
			close(client.Send)
		}
		delete(h.rooms, restaurantID)
	}
}

// Watch moves a client to another restaurant's room.
func (h *Hub) Watch(client *Client, restaurantID uint) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.removeLocked(client) {
		return
	}
	client.mu.Lock()
	client.RestaurantID = restaurantID
	client.mu.Unlock()

	if _, ok := h.rooms[restaurantID]; !ok {
		h.rooms[restaurantID] = make(map[*Client]bool)
	}
	h.rooms[restaurantID][client] = true
}

// BroadcastToRestaurant sends message as JSON to every page open on the
// restaurant. Messages are dropped when the hub is saturated.
func (h *Hub) BroadcastToRestaurant(restaurantID uint, message interface{}) {
	data, err := json.Marshal(message)
	if err != nil {
		logger.Error("Failed to marshal message", err, nil)
		return
	}

	select {
	case h.broadcast <- &BroadcastMessage{RestaurantID: restaurantID, Message: data}:
	default:
		logger.Warn("Broadcast channel full, message dropped", map[string]interface{}{
			"restaurant_id": restaurantID,
		})
	}
}

// BroadcastAll sends message to every connected page.
func (h *Hub) BroadcastAll(message interface{}) {
	h.BroadcastToRestaurant(0, message)
}

func (h *Hub) Register(client *Client) {
	h.register <- client
}

func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

// Watchers returns how many pages are open on a restaurant.
func (h *Hub) Watchers(restaurantID uint) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[restaurantID])
}

// HandleClientMessage 클라이언트 메시지 처리
func (h *Hub) HandleClientMessage(client *Client, message []byte) {
	// Rate limiting 체크
	client.RateMu.Lock()
	now := time.Now()
	if now.Sub(client.LastResetTime) >= time.Second {
		client.MessageCount = 0
		client.LastResetTime = now
	}
	client.MessageCount++
	count := client.MessageCount
	client.RateMu.Unlock()

	if count > maxMessagesPerSecond {
		logger.Warn("Rate limit exceeded", map[string]interface{}{
			"restaurant_id": client.restaurant(),
			"count":         count,
		})
		return
	}

	var msg ClientMessage
	if err := json.Unmarshal(message, &msg); err != nil {
		logger.Warn("Failed to parse client message", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}

	switch msg.Type {
	case "watch":
		if msg.RestaurantID != 0 {
			h.Watch(client, msg.RestaurantID)
		}
	case "ping":
		pong, _ := json.Marshal(map[string]string{"type": "pong"})
		select {
		case client.Send <- pong:
		default:
		}
	}
}
