package websocket

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/xid"
	"github.com/sirupsen/logrus"
)

// Hub manages WebSocket connections and fans analysis events out to clients
// subscribed to individual wallet addresses.
type Hub struct {
	// Registered clients
	clients map[*Client]bool

	// Register requests from clients
	register chan *Client

	// Unregister requests from clients
	unregister chan *Client

	// Wallet subscriptions
	walletSubscriptions map[string]map[*Client]bool

	mu sync.RWMutex
}

// Client represents a WebSocket client
type Client struct {
	hub *Hub

	conn *websocket.Conn

	// Buffered channel of outbound messages
	send chan []byte

	id string

	subscriptions map[string]bool

	lastSeen time.Time
}

// Message represents a WebSocket message
type Message struct {
	Type      string      `json:"type"`
	Channel   string      `json:"channel,omitempty"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp int64       `json:"timestamp"`
	ID        string      `json:"id,omitempty"`
}

// SubscriptionRequest represents a subscription request
type SubscriptionRequest struct {
	Type    string `json:"type"`
	Channel string `json:"channel"`
}

// Message types
const (
	MessageTypeSubscribe        = "subscribe"
	MessageTypeUnsubscribe      = "unsubscribe"
	MessageTypePing             = "ping"
	MessageTypePong             = "pong"
	MessageTypeError            = "error"
	MessageTypeAnalysisStarted  = "analysis_started"
	MessageTypeAnalysisComplete = "analysis_complete"
)

// ChannelAnalysis is the channel prefix for per-wallet analysis events;
// clients subscribe to "analysis.<walletAddress>".
const ChannelAnalysis = "analysis"

// WebSocket connection settings
const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// In production, implement proper origin checking
		return true
	},
}

// NewHub creates a new WebSocket hub
func NewHub() *Hub {
	return &Hub{
		clients:             make(map[*Client]bool),
		register:            make(chan *Client),
		unregister:          make(chan *Client),
		walletSubscriptions: make(map[string]map[*Client]bool),
	}
}

// Run starts the WebSocket hub
func (h *Hub) Run(ctx context.Context) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case client := <-h.register:
			h.registerClient(client)
		case client := <-h.unregister:
			h.unregisterClient(client)
		case <-ticker.C:
			h.pingClients()
		}
	}
}

func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[client] = true
	logrus.Infof("WebSocket client registered: %s", client.id)

	welcome := Message{
		Type:      "welcome",
		Data:      map[string]interface{}{"client_id": client.id},
		Timestamp: time.Now().Unix(),
	}

	if data, err := json.Marshal(welcome); err == nil {
		select {
		case client.send <- data:
		default:
			close(client.send)
			delete(h.clients, client)
		}
	}
}

func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		close(client.send)

		for wallet, clients := range h.walletSubscriptions {
			if _, exists := clients[client]; exists {
				delete(clients, client)
				if len(clients) == 0 {
					delete(h.walletSubscriptions, wallet)
				}
			}
		}

		logrus.Infof("WebSocket client unregistered: %s", client.id)
	}
}

func (h *Hub) pingClients() {
	h.mu.RLock()
	defer h.mu.RUnlock()

	ping := Message{
		Type:      MessageTypePing,
		Timestamp: time.Now().Unix(),
	}

	if data, err := json.Marshal(ping); err == nil {
		for client := range h.clients {
			select {
			case client.send <- data:
			default:
				close(client.send)
				delete(h.clients, client)
			}
		}
	}
}

// SubscribeToWallet subscribes a client to analysis events for a wallet
func (h *Hub) SubscribeToWallet(client *Client, walletAddress string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.walletSubscriptions[walletAddress] == nil {
		h.walletSubscriptions[walletAddress] = make(map[*Client]bool)
	}
	h.walletSubscriptions[walletAddress][client] = true
	client.subscriptions[fmt.Sprintf("%s.%s", ChannelAnalysis, walletAddress)] = true

	logrus.Infof("Client %s subscribed to wallet %s", client.id, walletAddress)
}

// UnsubscribeFromWallet unsubscribes a client from a wallet's events
func (h *Hub) UnsubscribeFromWallet(client *Client, walletAddress string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if clients, exists := h.walletSubscriptions[walletAddress]; exists {
		delete(clients, client)
		if len(clients) == 0 {
			delete(h.walletSubscriptions, walletAddress)
		}
	}
	delete(client.subscriptions, fmt.Sprintf("%s.%s", ChannelAnalysis, walletAddress))

	logrus.Infof("Client %s unsubscribed from wallet %s", client.id, walletAddress)
}

// BroadcastAnalysisEvent sends an analysis lifecycle event to every client
// subscribed to the wallet.
func (h *Hub) BroadcastAnalysisEvent(messageType, walletAddress string, payload interface{}) {
	h.mu.RLock()
	clients := h.walletSubscriptions[walletAddress]
	h.mu.RUnlock()

	if len(clients) == 0 {
		return
	}

	message := Message{
		Type:      messageType,
		Channel:   fmt.Sprintf("%s.%s", ChannelAnalysis, walletAddress),
		Data:      payload,
		Timestamp: time.Now().Unix(),
	}

	if data, err := json.Marshal(message); err == nil {
		for client := range clients {
			select {
			case client.send <- data:
			default:
				close(client.send)
				delete(h.clients, client)
			}
		}
	}
}

// HandleWebSocket handles WebSocket connections
func (h *Hub) HandleWebSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logrus.Error("WebSocket upgrade failed:", err)
		return
	}

	client := &Client{
		hub:           h,
		conn:          conn,
		send:          make(chan []byte, 256),
		id:            xid.New().String(),
		subscriptions: make(map[string]bool),
		lastSeen:      time.Now(),
	}

	h.register <- client

	go client.writePump()
	go client.readPump()
}

func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		c.lastSeen = time.Now()
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logrus.Errorf("WebSocket error: %v", err)
			}
			break
		}

		c.handleMessage(message)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			// Add queued messages to the current message
			n := len(c.send)
			for i := 0; i < n; i++ {
				w.Write([]byte{'\n'})
				w.Write(<-c.send)
			}

			if err := w.Close(); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) handleMessage(message []byte) {
	var req SubscriptionRequest
	if err := json.Unmarshal(message, &req); err != nil {
		c.sendError("Invalid message format")
		return
	}

	switch req.Type {
	case MessageTypeSubscribe:
		c.handleSubscribe(req)
	case MessageTypeUnsubscribe:
		c.handleUnsubscribe(req)
	case MessageTypePong:
		c.lastSeen = time.Now()
	default:
		c.sendError("Unknown message type")
	}
}

func (c *Client) handleSubscribe(req SubscriptionRequest) {
	wallet, ok := walletFromChannel(req.Channel)
	if !ok {
		c.sendError("Invalid channel")
		return
	}
	c.hub.SubscribeToWallet(c, wallet)

	response := Message{
		Type:      "subscribed",
		Channel:   req.Channel,
		Timestamp: time.Now().Unix(),
	}

	if data, err := json.Marshal(response); err == nil {
		select {
		case c.send <- data:
		default:
			close(c.send)
		}
	}
}

func (c *Client) handleUnsubscribe(req SubscriptionRequest) {
	if wallet, ok := walletFromChannel(req.Channel); ok {
		c.hub.UnsubscribeFromWallet(c, wallet)
	}

	response := Message{
		Type:      "unsubscribed",
		Channel:   req.Channel,
		Timestamp: time.Now().Unix(),
	}

	if data, err := json.Marshal(response); err == nil {
		select {
		case c.send <- data:
		default:
			close(c.send)
		}
	}
}

func (c *Client) sendError(message string) {
	errorMsg := Message{
		Type:      MessageTypeError,
		Data:      map[string]string{"error": message},
		Timestamp: time.Now().Unix(),
	}

	if data, err := json.Marshal(errorMsg); err == nil {
		select {
		case c.send <- data:
		default:
			close(c.send)
		}
	}
}

// walletFromChannel parses "analysis.<walletAddress>" channel names.
func walletFromChannel(channel string) (string, bool) {
	prefix := ChannelAnalysis + "."
	if !strings.HasPrefix(channel, prefix) || len(channel) == len(prefix) {
		return "", false
	}
	return channel[len(prefix):], true
}

// GetStats returns WebSocket statistics
func (h *Hub) GetStats() map[string]interface{} {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return map[string]interface{}{
		"total_clients":        len(h.clients),
		"wallet_subscriptions": len(h.walletSubscriptions),
	}
}
