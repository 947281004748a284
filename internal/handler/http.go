package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/statsbasket/internal/config"
	"github.com/statsbasket/internal/domain"
	"github.com/statsbasket/internal/metrics"
	"github.com/statsbasket/internal/service"
	"github.com/statsbasket/internal/websocket"
)

// Handler provides HTTP handlers for the stats API
type Handler struct {
	service *service.GameService
	hub     *websocket.Hub
	metrics *metrics.Registry
	limiter *gameLimiter
	origins []string
	logger  *slog.Logger
}

// NewHandler creates a new HTTP handler
func NewHandler(
	svc *service.GameService,
	hub *websocket.Hub,
	reg *metrics.Registry,
	cfg *config.Config,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		service: svc,
		hub:     hub,
		metrics: reg,
		limiter: newGameLimiter(cfg.RateLimit.EventsPerSecond, cfg.RateLimit.Burst),
		origins: cfg.Server.AllowedOrigins,
		logger:  logger,
	}
}

// APIResponse represents a standard API response
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// Router creates and configures the HTTP router
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: h.origins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		MaxAge:         300,
	}))

	r.Get("/health", h.HealthCheck)
	r.Get("/ready", h.ReadyCheck)
	r.Get("/ws", h.HandleWebSocket)
	if h.metrics != nil {
		r.Handle("/metrics", h.metrics.Handler())
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/players", func(r chi.Router) {
			r.Post("/", h.RegisterPlayer)
			r.Get("/", h.ListPlayers)
			r.Delete("/{playerID}", h.RemovePlayer)
		})

		r.Route("/games", func(r chi.Router) {
			r.Post("/", h.CreateGame)
			r.Get("/", h.ListGames)
			r.Delete("/", h.ClearGames)
			r.Delete("/finished", h.DeleteFinishedGames)

			r.Route("/{gameID}", func(r chi.Router) {
				r.Get("/", h.GetGame)
				r.Delete("/", h.DeleteGame)
				r.Post("/start", h.StartGame)
				r.Post("/finish", h.FinishGame)
				r.Put("/quarter", h.SetQuarter)

				r.With(h.rateLimit).Post("/events", h.RecordEvent)
				r.Get("/events", h.ListEvents)

				r.Get("/report", h.GetReport)
				r.Get("/lineup", h.GetLineup)
				r.Get("/leaders", h.GetLeaders)
			})
		})

		r.Get("/backup", h.ExportBackup)
		r.Post("/backup/restore", h.RestoreBackup)

		r.Get("/ws/stats", h.GetWebSocketStats)
	})

	return r
}

// writeJSON writes a JSON response
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeSuccess writes a successful JSON response
func (h *Handler) writeSuccess(w http.ResponseWriter, data interface{}) {
	h.writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data:    data,
	})
}

func (h *Handler) writeCreated(w http.ResponseWriter, data interface{}) {
	h.writeJSON(w, http.StatusCreated, APIResponse{
		Success: true,
		Data:    data,
	})
}

// writeError writes an error JSON response
func (h *Handler) writeError(w http.ResponseWriter, status int, err error) {
	h.writeJSON(w, status, APIResponse{
		Success: false,
		Error:   err.Error(),
	})
}

// writeServiceError maps a service error onto a status code. Unknown errors
// are logged and hidden behind ErrInternalError.
func (h *Handler) writeServiceError(w http.ResponseWriter, err error, action string) {
	switch {
	case domain.IsNotFoundError(err):
		h.writeError(w, http.StatusNotFound, err)
	case errors.Is(err, domain.ErrGameNotLive), errors.Is(err, domain.ErrPlayerReferenced):
		h.writeError(w, http.StatusConflict, err)
	case errors.Is(err, domain.ErrRateLimited):
		h.writeError(w, http.StatusTooManyRequests, err)
	case domain.IsValidationError(err):
		h.writeError(w, http.StatusBadRequest, err)
	default:
		h.logger.Error("failed to "+action, "error", err)
		h.writeError(w, http.StatusInternalServerError, domain.ErrInternalError)
	}
}

// pathID parses a positive integer URL parameter
func pathID(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// HandleWebSocket handles WebSocket upgrade requests
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	websocket.ServeWs(h.hub, h.logger, w, r)
}

// GetWebSocketStats returns WebSocket connection statistics
func (h *Handler) GetWebSocketStats(w http.ResponseWriter, r *http.Request) {
	h.writeSuccess(w, map[string]interface{}{
		"total_connections": h.hub.Connections(),
		"followed_games":    h.hub.Feeds(),
	})
}

// HealthCheck returns service health status
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	h.writeSuccess(w, map[string]string{"status": "healthy"})
}

// ReadyCheck reports whether the store is reachable
func (h *Handler) ReadyCheck(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Ready(r.Context()); err != nil {
		h.logger.Warn("readiness check failed", "error", err)
		h.writeError(w, http.StatusServiceUnavailable, errors.New("store unavailable"))
		return
	}
	h.writeSuccess(w, map[string]string{"status": "ready"})
}

// RegisterPlayer adds a player to the roster
func (h *Handler) RegisterPlayer(w http.ResponseWriter, r *http.Request) {
	var req domain.CreatePlayerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, domain.ErrInvalidRequest)
		return
	}

	player, err := h.service.RegisterPlayer(r.Context(), req)
	if err != nil {
		h.writeServiceError(w, err, "register player")
		return
	}
	h.writeCreated(w, player)
}

// ListPlayers returns the roster
func (h *Handler) ListPlayers(w http.ResponseWriter, r *http.Request) {
	players, err := h.service.ListPlayers(r.Context())
	if err != nil {
		h.writeServiceError(w, err, "list players")
		return
	}
	h.writeSuccess(w, players)
}

// RemovePlayer deletes a player who is not referenced by any game
func (h *Handler) RemovePlayer(w http.ResponseWriter, r *http.Request) {
	playerID, ok := pathID(r, "playerID")
	if !ok {
		h.writeError(w, http.StatusBadRequest, domain.ErrInvalidRequest)
		return
	}

	if err := h.service.RemovePlayer(r.Context(), playerID); err != nil {
		h.writeServiceError(w, err, "remove player")
		return
	}
	h.writeSuccess(w, map[string]string{"status": "removed"})
}

// CreateGame configures a new game
func (h *Handler) CreateGame(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateGameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, domain.ErrInvalidRequest)
		return
	}

	game, err := h.service.CreateGame(r.Context(), req)
	if err != nil {
		h.writeServiceError(w, err, "create game")
		return
	}
	h.writeCreated(w, game)
}

// ListGames returns every game, newest first
func (h *Handler) ListGames(w http.ResponseWriter, r *http.Request) {
	games, err := h.service.ListGames(r.Context())
	if err != nil {
		h.writeServiceError(w, err, "list games")
		return
	}
	h.writeSuccess(w, games)
}

// GetGame returns a game by ID
func (h *Handler) GetGame(w http.ResponseWriter, r *http.Request) {
	gameID, ok := pathID(r, "gameID")
	if !ok {
		h.writeError(w, http.StatusBadRequest, domain.ErrInvalidRequest)
		return
	}

	game, err := h.service.GetGame(r.Context(), gameID)
	if err != nil {
		h.writeServiceError(w, err, "get game")
		return
	}
	h.writeSuccess(w, game)
}

// DeleteGame removes a game and its events
func (h *Handler) DeleteGame(w http.ResponseWriter, r *http.Request) {
	gameID, ok := pathID(r, "gameID")
	if !ok {
		h.writeError(w, http.StatusBadRequest, domain.ErrInvalidRequest)
		return
	}

	if err := h.service.DeleteGame(r.Context(), gameID); err != nil {
		h.writeServiceError(w, err, "delete game")
		return
	}
	h.limiter.Forget(gameID)
	h.writeSuccess(w, map[string]string{"status": "deleted"})
}

// DeleteFinishedGames removes every finished game
func (h *Handler) DeleteFinishedGames(w http.ResponseWriter, r *http.Request) {
	n, err := h.service.DeleteFinishedGames(r.Context())
	if err != nil {
		h.writeServiceError(w, err, "delete finished games")
		return
	}
	h.writeSuccess(w, map[string]interface{}{
		"status":  "deleted",
		"deleted": n,
	})
}

// ClearGames removes every game
func (h *Handler) ClearGames(w http.ResponseWriter, r *http.Request) {
	if err := h.service.ClearGames(r.Context()); err != nil {
		h.writeServiceError(w, err, "clear games")
		return
	}
	h.writeSuccess(w, map[string]string{"status": "cleared"})
}

// StartGame moves a scheduled game into progress
func (h *Handler) StartGame(w http.ResponseWriter, r *http.Request) {
	gameID, ok := pathID(r, "gameID")
	if !ok {
		h.writeError(w, http.StatusBadRequest, domain.ErrInvalidRequest)
		return
	}

	game, err := h.service.StartGame(r.Context(), gameID)
	if err != nil {
		h.writeServiceError(w, err, "start game")
		return
	}
	h.writeSuccess(w, game)
}

// FinishGame ends a live game
func (h *Handler) FinishGame(w http.ResponseWriter, r *http.Request) {
	gameID, ok := pathID(r, "gameID")
	if !ok {
		h.writeError(w, http.StatusBadRequest, domain.ErrInvalidRequest)
		return
	}

	game, err := h.service.FinishGame(r.Context(), gameID)
	if err != nil {
		h.writeServiceError(w, err, "finish game")
		return
	}
	h.limiter.Forget(gameID)
	h.writeSuccess(w, game)
}

// SetQuarter changes the current quarter of a live game
func (h *Handler) SetQuarter(w http.ResponseWriter, r *http.Request) {
	gameID, ok := pathID(r, "gameID")
	if !ok {
		h.writeError(w, http.StatusBadRequest, domain.ErrInvalidRequest)
		return
	}

	var req domain.SetQuarterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, domain.ErrInvalidRequest)
		return
	}

	game, err := h.service.SetQuarter(r.Context(), gameID, req.Quarter)
	if err != nil {
		h.writeServiceError(w, err, "set quarter")
		return
	}
	h.writeSuccess(w, game)
}

// RecordEvent appends an event to a live game
func (h *Handler) RecordEvent(w http.ResponseWriter, r *http.Request) {
	gameID, ok := pathID(r, "gameID")
	if !ok {
		h.writeError(w, http.StatusBadRequest, domain.ErrInvalidRequest)
		return
	}

	var req domain.RecordEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, domain.ErrInvalidRequest)
		return
	}
	req.GameID = gameID

	event, err := h.service.RecordEvent(r.Context(), req)
	if err != nil {
		h.writeServiceError(w, err, "record event")
		return
	}
	h.writeCreated(w, event)
}

// ListEvents returns a game's events in chronological order
func (h *Handler) ListEvents(w http.ResponseWriter, r *http.Request) {
	gameID, ok := pathID(r, "gameID")
	if !ok {
		h.writeError(w, http.StatusBadRequest, domain.ErrInvalidRequest)
		return
	}

	events, err := h.service.ListEvents(r.Context(), gameID)
	if err != nil {
		h.writeServiceError(w, err, "list events")
		return
	}
	h.writeSuccess(w, events)
}

// GetReport returns the derived report for a game
func (h *Handler) GetReport(w http.ResponseWriter, r *http.Request) {
	gameID, ok := pathID(r, "gameID")
	if !ok {
		h.writeError(w, http.StatusBadRequest, domain.ErrInvalidRequest)
		return
	}

	report, err := h.service.GetReport(r.Context(), gameID)
	if err != nil {
		h.writeServiceError(w, err, "get report")
		return
	}
	h.writeSuccess(w, report)
}

// GetLineup returns the players currently on court
func (h *Handler) GetLineup(w http.ResponseWriter, r *http.Request) {
	gameID, ok := pathID(r, "gameID")
	if !ok {
		h.writeError(w, http.StatusBadRequest, domain.ErrInvalidRequest)
		return
	}

	lineup, err := h.service.Lineup(r.Context(), gameID)
	if err != nil {
		h.writeServiceError(w, err, "get lineup")
		return
	}
	h.writeSuccess(w, lineup)
}

// GetLeaders returns the top scorers of a game
func (h *Handler) GetLeaders(w http.ResponseWriter, r *http.Request) {
	gameID, ok := pathID(r, "gameID")
	if !ok {
		h.writeError(w, http.StatusBadRequest, domain.ErrInvalidRequest)
		return
	}

	limit := 0
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 {
			limit = l
		}
	}

	entries, err := h.service.TopScorers(r.Context(), gameID, limit)
	if err != nil {
		h.writeServiceError(w, err, "get leaders")
		return
	}
	h.writeSuccess(w, entries)
}

// ExportBackup returns every record as one document
func (h *Handler) ExportBackup(w http.ResponseWriter, r *http.Request) {
	backup, err := h.service.Export(r.Context())
	if err != nil {
		h.writeServiceError(w, err, "export backup")
		return
	}
	h.writeSuccess(w, backup)
}

// RestoreBackup replaces all data with the posted document
func (h *Handler) RestoreBackup(w http.ResponseWriter, r *http.Request) {
	var backup domain.Backup
	if err := json.NewDecoder(r.Body).Decode(&backup); err != nil {
		h.writeError(w, http.StatusBadRequest, domain.ErrInvalidBackup)
		return
	}

	if err := h.service.Import(r.Context(), &backup); err != nil {
		h.writeServiceError(w, err, "restore backup")
		return
	}
	h.writeSuccess(w, map[string]interface{}{
		"status":  "restored",
		"players": len(backup.Players),
		"games":   len(backup.Games),
		"events":  len(backup.Events),
	})
}
