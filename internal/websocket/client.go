package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/statsbasket/internal/domain"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096

	// bound on loading the report a new follower starts from
	joinTimeout = 5 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		// scorer tablets connect from arbitrary local origins
		return true
	},
}

// Client is one viewer connection following any number of games
type Client struct {
	id     string
	hub    *Hub
	conn   *websocket.Conn
	send   chan []byte
	logger *slog.Logger
}

// ClientMessage is a request sent by a viewer
type ClientMessage struct {
	Type   string `json:"type"`
	GameID int64  `json:"game_id,omitempty"`
}

// NewClient creates a new WebSocket client
func NewClient(hub *Hub, conn *websocket.Conn, logger *slog.Logger) *Client {
	id := uuid.NewString()
	return &Client{
		id:     id,
		hub:    hub,
		conn:   conn,
		send:   make(chan []byte, 256),
		logger: logger.With("client_id", id),
	}
}

// readPump handles viewer requests until the connection closes
func (c *Client) readPump() {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var msg ClientMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			var syntaxErr *json.SyntaxError
			var typeErr *json.UnmarshalTypeError
			if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
				c.reply(MessageTypeError, 0, map[string]string{"error": "invalid message format"})
				continue
			}
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Warn("websocket closed unexpectedly", "error", err)
			}
			return
		}
		c.handleMessage(&msg)
	}
}

// handleMessage runs one viewer request
func (c *Client) handleMessage(msg *ClientMessage) {
	switch msg.Type {
	case MessageTypeSubscribe:
		if msg.GameID <= 0 {
			c.reply(MessageTypeError, 0, map[string]string{"error": "game_id required for subscribe"})
			return
		}
		c.join(msg.GameID)

	case MessageTypeUnsubscribe:
		if msg.GameID <= 0 {
			c.reply(MessageTypeError, 0, map[string]string{"error": "game_id required for unsubscribe"})
			return
		}
		if err := c.hub.Leave(context.Background(), c, msg.GameID); err != nil {
			c.logger.Warn("unsubscribe failed", "game_id", msg.GameID, "error", err)
		}

	case MessageTypePing:
		c.reply(MessageTypePong, 0, nil)

	default:
		c.reply(MessageTypeError, 0, map[string]string{"error": fmt.Sprintf("unknown message type %q", msg.Type)})
	}
}

func (c *Client) join(gameID int64) {
	ctx, cancel := context.WithTimeout(context.Background(), joinTimeout)
	defer cancel()

	err := c.hub.Join(ctx, c, gameID)
	switch {
	case err == nil:
	case domain.IsNotFoundError(err):
		c.reply(MessageTypeError, gameID, map[string]string{"error": fmt.Sprintf("game %d not found", gameID)})
	default:
		c.logger.Warn("subscribe failed", "game_id", gameID, "error", err)
		c.reply(MessageTypeError, gameID, map[string]string{"error": "game feed unavailable"})
	}
}

// reply queues a direct answer to this client. It is only called from the
// read side, before the hub can close send.
func (c *Client) reply(kind string, gameID int64, data interface{}) {
	payload, err := encode(&Message{Type: kind, GameID: gameID, Data: data, Timestamp: time.Now()})
	if err != nil {
		c.logger.Error("failed to encode reply", "error", err)
		return
	}
	select {
	case c.send <- payload:
	default:
		c.logger.Warn("client buffer full, dropping reply", "type", kind)
	}
}

// writePump writes each queued message as its own frame and keeps the
// connection alive with pings
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				c.logger.Debug("write failed", "error", err)
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

// ServeWs upgrades a viewer connection. A game_id query parameter follows
// that game right away; a malformed one is rejected before the upgrade.
func ServeWs(hub *Hub, logger *slog.Logger, w http.ResponseWriter, r *http.Request) {
	var gameID int64
	if raw := r.URL.Query().Get("game_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			http.Error(w, "game_id must be a positive integer", http.StatusBadRequest)
			return
		}
		gameID = id
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Error("websocket upgrade failed", "error", err)
		return
	}

	client := NewClient(hub, conn, logger)
	hub.Register(client)
	if gameID > 0 {
		client.join(gameID)
	}

	go client.writePump()
	go client.readPump()

	client.logger.Debug("viewer connected", "game_id", gameID)
}
