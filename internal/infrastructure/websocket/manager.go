package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"hitrank/internal/domain/entity"
	"hitrank/internal/infrastructure/metrics"
	"hitrank/pkg/logger"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	sendBuffer = 32
)

// Client is one notification stream. A user may hold several.
type Client struct {
	UserID string
	Conn   *websocket.Conn
	Send   chan []byte
}

func NewClient(userID string, conn *websocket.Conn) *Client {
	return &Client{
		UserID: userID,
		Conn:   conn,
		Send:   make(chan []byte, sendBuffer),
	}
}

// Message is the envelope pushed to clients.
type Message struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// Manager fans committed notifications out to the connections of their user.
type Manager struct {
	clients    map[string]map[*Client]bool
	register   chan *Client
	unregister chan *Client
	// done is closed when the main loop exits.
	done  chan struct{}
	mutex sync.RWMutex
}

func NewManager() *Manager {
	return &Manager{
		clients:    make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// Register hands client to the main loop. It reports false once the manager
// has stopped; the caller then owns closing the connection.
func (m *Manager) Register(client *Client) bool {
	select {
	case m.register <- client:
		return true
	case <-m.done:
		return false
	}
}

// Unregister never blocks past shutdown.
func (m *Manager) Unregister(client *Client) {
	select {
	case m.unregister <- client:
	case <-m.done:
	}
}

// Start runs the manager's main loop in a goroutine. When ctx is done every
// open client is closed and later Register and Unregister calls return
// immediately.
func (m *Manager) Start(ctx context.Context) {
	go func() {
		defer m.shutdown()
		for {
			select {
			case client := <-m.register:
				m.mutex.Lock()
				if m.clients[client.UserID] == nil {
					m.clients[client.UserID] = make(map[*Client]bool)
				}
				m.clients[client.UserID][client] = true
				m.mutex.Unlock()
				metrics.Metrics.WSConnections.Inc()
				logger.Debug("Client registered: %s", client.UserID)

			case client := <-m.unregister:
				m.remove(client)

			case <-ctx.Done():
				return
			}
		}
	}()
}

func (m *Manager) shutdown() {
	close(m.done)

	m.mutex.Lock()
	defer m.mutex.Unlock()
	for userID, conns := range m.clients {
		for client := range conns {
			close(client.Send)
			metrics.Metrics.WSConnections.Dec()
		}
		delete(m.clients, userID)
	}
}

func (m *Manager) remove(client *Client) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	conns, ok := m.clients[client.UserID]
	if !ok || !conns[client] {
		return
	}
	delete(conns, client)
	if len(conns) == 0 {
		delete(m.clients, client.UserID)
	}
	close(client.Send)
	metrics.Metrics.WSConnections.Dec()
	logger.Debug("Client unregistered: %s", client.UserID)
}

// SendToUser queues message on every connection of userID. A connection whose
// buffer is full misses the message; the notification stays readable from
// the store.
func (m *Manager) SendToUser(userID string, message []byte) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	for client := range m.clients[userID] {
		select {
		case client.Send <- message:
		default:
			logger.Warn("Dropping websocket message for slow client %s", userID)
		}
	}
}

// Notify implements the engine's post-commit notification push.
func (m *Manager) Notify(notification *entity.Notification) {
	payload, err := json.Marshal(Message{Type: "notification", Data: notification})
	if err != nil {
		logger.Error("Failed to encode notification %s: %v", notification.ID, err)
		return
	}
	m.SendToUser(notification.UserID, payload)
}

// Connected reports how many connections userID has open.
func (m *Manager) Connected(userID string) int {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return len(m.clients[userID])
}

// ReadPump drains the connection so pongs and close frames are processed.
// Clients do not send anything we act on.
func (c *Client) ReadPump(m *Manager) {
	defer func() {
		m.Unregister(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(512)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		return c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.Conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Warn("websocket read error for %s: %v", c.UserID, err)
			}
			return
		}
	}
}

// WritePump sends queued messages and keeps the connection alive with pings.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				logger.Warn("websocket write error for %s: %v", c.UserID, err)
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
