package websocket

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"nhooyr.io/websocket"
)

// Message represents a WebSocket message
type Message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Client represents a connected WebSocket client
type Client struct {
	ID   string
	Conn *websocket.Conn
	Hub  *Hub
	Send chan []byte
}

// Hub maintains active clients and broadcasts persisted check events
// to them as the flush worker writes batches.
type Hub struct {
	clients        map[*Client]bool
	broadcast      chan []byte
	register       chan *Client
	unregister     chan *Client
	mu             sync.RWMutex
	jwtSecret      string
	allowedOrigins []string
	logger         *zap.Logger
}

// NewHub creates a new Hub
func NewHub(jwtSecret string, allowedOrigins []string, logger *zap.Logger) *Hub {
	return &Hub{
		clients:        make(map[*Client]bool),
		broadcast:      make(chan []byte, 256),
		register:       make(chan *Client),
		unregister:     make(chan *Client),
		jwtSecret:      jwtSecret,
		allowedOrigins: allowedOrigins,
		logger:         logger,
	}
}

// Run starts the hub loop
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			h.logger.Info("websocket client connected", zap.String("client", client.ID))

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.Send)
				h.logger.Info("websocket client disconnected", zap.String("client", client.ID))
			}
			h.mu.Unlock()

		case message := <-h.broadcast:
			h.mu.RLock()
			for client := range h.clients {
				select {
				case client.Send <- message:
				default:
					close(client.Send)
					delete(h.clients, client)
				}
			}
			h.mu.RUnlock()
		}
	}
}

// Broadcast sends a typed message to all connected clients
func (h *Hub) Broadcast(msgType string, payload interface{}) error {
	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	msgJSON, err := json.Marshal(Message{Type: msgType, Payload: payloadJSON})
	if err != nil {
		return err
	}

	h.broadcast <- msgJSON
	return nil
}

// HandleWebSocket upgrades an authenticated request to a WebSocket
// connection.
func (h *Hub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		if authHeader := r.Header.Get("Authorization"); authHeader != "" {
			token = strings.TrimPrefix(authHeader, "Bearer ")
		}
	}

	userID := ""
	if token != "" {
		parsedToken, err := jwt.Parse(token, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return []byte(h.jwtSecret), nil
		})

		if err == nil && parsedToken.Valid {
			claims := parsedToken.Claims.(jwt.MapClaims)

			if exp, ok := claims["exp"].(float64); ok {
				if time.Now().Unix() > int64(exp) {
					http.Error(w, "Token expired", http.StatusUnauthorized)
					return
				}
			}

			if uid, ok := claims["user_id"].(string); ok {
				userID = uid
			}
		}
	}

	if userID == "" {
		h.logger.Warn("websocket connection rejected", zap.String("remote", r.RemoteAddr))
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: h.allowedOrigins,
	})
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	client := &Client{
		ID:   "user:" + userID,
		Conn: conn,
		Hub:  h,
		Send: make(chan []byte, 256),
	}

	h.register <- client

	go client.writePump()
	go client.readPump()
}

// readPump reads messages from the WebSocket connection
func (c *Client) readPump() {
	defer func() {
		c.Hub.unregister <- c
		c.Conn.Close(websocket.StatusNormalClosure, "")
	}()

	ctx := context.Background()
	for {
		_, message, err := c.Conn.Read(ctx)
		if err != nil {
			status := websocket.CloseStatus(err)
			if status != websocket.StatusNormalClosure &&
				status != websocket.StatusGoingAway &&
				status != websocket.StatusNoStatusRcvd {
				c.Hub.logger.Warn("websocket read error", zap.Error(err))
			}
			break
		}

		var msg Message
		if err := json.Unmarshal(message, &msg); err != nil {
			continue
		}

		c.handleMessage(ctx, msg)
	}
}

// writePump writes messages to the WebSocket connection
func (c *Client) writePump() {
	ctx := context.Background()
	for message := range c.Send {
		if err := c.Conn.Write(ctx, websocket.MessageText, message); err != nil {
			status := websocket.CloseStatus(err)
			if status != websocket.StatusNormalClosure &&
				status != websocket.StatusGoingAway &&
				status != websocket.StatusNoStatusRcvd {
				c.Hub.logger.Warn("websocket write error", zap.Error(err))
			}
			return
		}
	}
}

// handleMessage handles incoming client messages
func (c *Client) handleMessage(ctx context.Context, msg Message) {
	switch msg.Type {
	case "ping":
		response, _ := json.Marshal(Message{Type: "pong", Payload: json.RawMessage(`{}`)})
		select {
		case c.Send <- response:
		default:
		}
	}
}
