package websocket

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/statsbasket/internal/domain"
	"github.com/statsbasket/internal/stats"
)

// Message types
const (
	MessageTypeGameEvent    = "game_event"
	MessageTypeReportUpdate = "report_update"
	MessageTypeFinalReport  = "final_report"
	MessageTypeSubscribe    = "subscribe"
	MessageTypeSubscribed   = "subscribed"
	MessageTypeUnsubscribe  = "unsubscribe"
	MessageTypeUnsubscribed = "unsubscribed"
	MessageTypePing         = "ping"
	MessageTypePong         = "pong"
	MessageTypeError        = "error"
)

// Message represents a WebSocket message
type Message struct {
	Type      string      `json:"type"`
	GameID    int64       `json:"game_id,omitempty"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// ReportSource supplies the report a new follower of a game starts from.
// Implemented by service.GameService.
type ReportSource interface {
	GetReport(ctx context.Context, gameID int64) (*stats.GameReport, error)
}

// reportMessage wraps a report; a finished game's report is its final one
func reportMessage(report *stats.GameReport) *Message {
	kind := MessageTypeReportUpdate
	if report.Game.Status == domain.GameStatusFinished {
		kind = MessageTypeFinalReport
	}
	return &Message{
		Type:      kind,
		GameID:    report.Game.ID,
		Data:      report,
		Timestamp: time.Now(),
	}
}

// feedChange follows or leaves a game's feed. replies are delivered to the
// client in order before any later broadcast.
type feedChange struct {
	client  *Client
	gameID  int64
	follow  bool
	replies [][]byte
}

// Hub fans out game events and reports to the clients following each game
type Hub struct {
	// followers by game ID
	feeds map[int64]map[*Client]struct{}

	// games followed by each connected client
	clients map[*Client]map[int64]struct{}

	register   chan *Client
	unregister chan *Client
	changes    chan feedChange
	broadcast  chan *Message

	source ReportSource

	// guards feeds and clients for readers outside Run
	mu sync.RWMutex

	logger *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
}

// NewHub creates a new Hub
func NewHub(logger *slog.Logger) *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		feeds:      make(map[int64]map[*Client]struct{}),
		clients:    make(map[*Client]map[int64]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		changes:    make(chan feedChange, 64),
		broadcast:  make(chan *Message, 256),
		logger:     logger,
		ctx:        ctx,
		cancel:     cancel,
	}
}

// SetReportSource makes joins check the game and start from its current
// report. Call before Run.
func (h *Hub) SetReportSource(source ReportSource) {
	h.source = source
}

// Run starts the hub's main loop
func (h *Hub) Run() {
	h.logger.Info("WebSocket hub started")
	for {
		select {
		case <-h.ctx.Done():
			h.logger.Info("WebSocket hub stopping")
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = make(map[int64]struct{})
			h.mu.Unlock()
			h.logger.Debug("client registered", "client_id", client.id)

		case client := <-h.unregister:
			h.mu.Lock()
			if games, ok := h.clients[client]; ok {
				for gameID := range games {
					h.removeFollower(client, gameID)
				}
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()
			h.logger.Debug("client unregistered", "client_id", client.id)

		case change := <-h.changes:
			h.apply(change)

		case message := <-h.broadcast:
			h.publish(message)
		}
	}
}

// Stop stops the hub
func (h *Hub) Stop() {
	h.cancel()
}

func (h *Hub) apply(change feedChange) {
	h.mu.Lock()
	defer h.mu.Unlock()

	games, ok := h.clients[change.client]
	if !ok {
		return
	}
	if change.follow {
		if h.feeds[change.gameID] == nil {
			h.feeds[change.gameID] = make(map[*Client]struct{})
		}
		h.feeds[change.gameID][change.client] = struct{}{}
		games[change.gameID] = struct{}{}
		h.logger.Debug("client following game", "client_id", change.client.id, "game_id", change.gameID)
	} else {
		h.removeFollower(change.client, change.gameID)
	}
	for _, reply := range change.replies {
		h.deliver(change.client, reply)
	}
}

// removeFollower requires mu held for writing
func (h *Hub) removeFollower(client *Client, gameID int64) {
	if followers, ok := h.feeds[gameID]; ok {
		delete(followers, client)
		if len(followers) == 0 {
			delete(h.feeds, gameID)
		}
	}
	if games, ok := h.clients[client]; ok {
		delete(games, gameID)
	}
}

// publish sends a message to the game's followers. A final report closes
// the feed.
func (h *Hub) publish(message *Message) {
	data, err := json.Marshal(message)
	if err != nil {
		h.logger.Error("failed to marshal message", "type", message.Type, "error", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	followers := h.feeds[message.GameID]
	for client := range followers {
		h.deliver(client, data)
	}
	if message.Type == MessageTypeFinalReport {
		for client := range followers {
			h.removeFollower(client, message.GameID)
		}
		h.logger.Info("game feed closed", "game_id", message.GameID, "followers", len(followers))
	}
}

func (h *Hub) deliver(client *Client, data []byte) {
	select {
	case client.send <- data:
	default:
		h.logger.Warn("client buffer full, dropping message", "client_id", client.id)
	}
}

// Join makes a client follow a game. With a report source the game must
// exist and the client receives its current report before live updates;
// a finished game is answered with the final report and not followed.
func (h *Hub) Join(ctx context.Context, client *Client, gameID int64) error {
	change := feedChange{client: client, gameID: gameID, follow: true}
	ack, err := encode(&Message{Type: MessageTypeSubscribed, GameID: gameID, Timestamp: time.Now()})
	if err != nil {
		return err
	}
	change.replies = append(change.replies, ack)

	if h.source != nil {
		report, err := h.source.GetReport(ctx, gameID)
		if err != nil {
			return err
		}
		msg := reportMessage(report)
		snapshot, err := encode(msg)
		if err != nil {
			return err
		}
		if msg.Type == MessageTypeFinalReport {
			change.follow = false
			change.replies = [][]byte{snapshot}
		} else {
			change.replies = append(change.replies, snapshot)
		}
	}
	return h.submit(ctx, change)
}

// Leave stops a client following a game
func (h *Hub) Leave(ctx context.Context, client *Client, gameID int64) error {
	ack, err := encode(&Message{Type: MessageTypeUnsubscribed, GameID: gameID, Timestamp: time.Now()})
	if err != nil {
		return err
	}
	return h.submit(ctx, feedChange{client: client, gameID: gameID, replies: [][]byte{ack}})
}

func (h *Hub) submit(ctx context.Context, change feedChange) error {
	select {
	case h.changes <- change:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-h.ctx.Done():
		return fmt.Errorf("hub stopped")
	}
}

func encode(msg *Message) ([]byte, error) {
	data, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("encoding %s message: %w", msg.Type, err)
	}
	return data, nil
}

// BroadcastEvent sends a newly recorded event to the game's followers
func (h *Hub) BroadcastEvent(event domain.Event) {
	h.enqueue(&Message{
		Type:      MessageTypeGameEvent,
		GameID:    event.GameID,
		Data:      event,
		Timestamp: time.Now(),
	})
}

// BroadcastReport sends a refreshed report to the game's followers
func (h *Hub) BroadcastReport(report *stats.GameReport) {
	h.enqueue(reportMessage(report))
}

func (h *Hub) enqueue(message *Message) {
	select {
	case h.broadcast <- message:
	default:
		h.logger.Warn("broadcast channel full, dropping message", "type", message.Type, "game_id", message.GameID)
	}
}

// Register adds a client to the hub
func (h *Hub) Register(client *Client) {
	h.register <- client
}

// Unregister removes a client from the hub
func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

// Followers returns the number of clients following a game
func (h *Hub) Followers(gameID int64) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.feeds[gameID])
}

// Feeds returns the number of games with at least one follower
func (h *Hub) Feeds() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.feeds)
}

// Connections returns the number of connected clients
func (h *Hub) Connections() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
