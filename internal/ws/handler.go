package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/virtuallego/backend/internal/auth"
	"github.com/virtuallego/backend/internal/lego"
	"github.com/virtuallego/backend/internal/logger"
	"github.com/virtuallego/backend/internal/table"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 30 * time.Second
	maxMessageSize = 65536
	sendBuffer     = 256
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // origins are checked by middleware.WebSocketCORSCheck
	},
}

// Client is one websocket connection watching (and maybe steering) a table
type Client struct {
	hub        *Hub
	conn       *websocket.Conn
	playerID   string
	tableToken string
	role       auth.Role
	send       chan []byte
	ready      chan struct{} // closed once the hub has the client in its room
}

// Hub maintains the set of active clients, grouped into one room per table
type Hub struct {
	clients    map[string]*Client            // playerID -> Client
	rooms      map[string]map[string]*Client // tableToken -> playerID -> Client
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	manager    *table.Manager
	log        *zap.SugaredLogger
	mu         sync.RWMutex
}

var _ table.Broadcaster = (*Hub)(nil)

// NewHub creates a hub serving the manager's tables
func NewHub(manager *table.Manager) *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		rooms:      make(map[string]map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		manager:    manager,
		log:        logger.Named("ws"),
	}
}

// Run processes registrations until ctx is done, then drops every connection.
func (h *Hub) Run(ctx context.Context) error {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for id, c := range h.clients {
				close(c.send)
				delete(h.clients, id)
			}
			h.rooms = make(map[string]map[string]*Client)
			h.mu.Unlock()
			h.log.Info("hub stopped")
			return nil

		case client := <-h.register:
			h.addClient(client)
			close(client.ready)

		case client := <-h.unregister:
			h.removeClient(client)
		}
	}
}

func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if old, exists := h.clients[client.playerID]; exists {
		h.log.Infow("player reconnecting, closing old connection", "player", client.playerID)
		old.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, "replaced by new connection"),
			time.Now().Add(time.Second))
		h.dropLocked(old)
	}

	h.clients[client.playerID] = client
	if _, exists := h.rooms[client.tableToken]; !exists {
		h.rooms[client.tableToken] = make(map[string]*Client)
	}
	h.rooms[client.tableToken][client.playerID] = client
	h.log.Infow("client connected", "player", client.playerID, "table", client.tableToken, "role", client.role)
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if cur, ok := h.clients[client.playerID]; ok && cur == client {
		h.dropLocked(client)
		h.log.Infow("client disconnected", "player", client.playerID, "table", client.tableToken)
	}
}

// dropLocked forgets a client and closes its send channel. h.mu must be held.
func (h *Hub) dropLocked(client *Client) {
	delete(h.clients, client.playerID)
	if room, exists := h.rooms[client.tableToken]; exists {
		delete(room, client.playerID)
		if len(room) == 0 {
			delete(h.rooms, client.tableToken)
		}
	}
	close(client.send)
}

// BroadcastToTable sends a message to everyone in a table's room
func (h *Hub) BroadcastToTable(tableToken string, message interface{}) {
	data, err := json.Marshal(message)
	if err != nil {
		h.log.Errorw("could not marshal message", "error", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, client := range h.rooms[tableToken] {
		select {
		case client.send <- data:
		default:
			h.log.Debugw("send buffer full, dropping message", "player", client.playerID, "table", tableToken)
		}
	}
}

// CloseRoom disconnects everyone at a table
func (h *Hub) CloseRoom(tableToken string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, client := range h.rooms[tableToken] {
		h.dropLocked(client)
	}
}

// RoomSize returns how many clients watch a table
func (h *Hub) RoomSize(tableToken string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[tableToken])
}

// sendState pushes the current snapshot to one client
func (h *Hub) sendState(client *Client) {
	t, err := h.manager.GetTableByToken(client.tableToken)
	if err != nil {
		client.sendError("Table not found")
		return
	}
	snap := t.Snapshot()
	client.sendJSON(table.FrameMessage{
		Type:     table.MsgFrame,
		Frame:    snap.Frame,
		Events:   []lego.Event{},
		Snapshot: snap,
	})
}

// Message types
type WSMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// sendJSON queues a message for this client only
func (c *Client) sendJSON(message interface{}) {
	data, err := json.Marshal(message)
	if err != nil {
		return
	}
	c.hub.mu.RLock()
	defer c.hub.mu.RUnlock()
	if cur, ok := c.hub.clients[c.playerID]; !ok || cur != c {
		return
	}
	select {
	case c.send <- data:
	default:
		c.hub.log.Debugw("send buffer full, dropping message", "player", c.playerID)
	}
}

// sendError sends an error message to the client
func (c *Client) sendError(message string) {
	c.sendJSON(map[string]interface{}{
		"type":    "error",
		"message": message,
	})
}

// writePump writes messages to the WebSocket connection
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

			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				c.hub.log.Debugw("write error", "player", c.playerID, "error", err)
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.hub.log.Debugw("ping error", "player", c.playerID, "error", err)
				return
			}
		}
	}
}

// readPump reads inbound messages until the connection drops
func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				c.hub.log.Warnw("unexpected close", "player", c.playerID, "error", err)
			}
			return
		}

		var msg WSMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			c.sendError("Invalid message")
			continue
		}

		c.handleMessage(msg)
	}
}
