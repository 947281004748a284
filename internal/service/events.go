package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/statsbasket/internal/domain"
	"github.com/statsbasket/internal/stats"
)

// RecordEvent validates a submission against the live game and appends it
// to the event log
func (s *GameService) RecordEvent(ctx context.Context, req domain.RecordEventRequest) (*domain.Event, error) {
	return s.record(ctx, req, domain.SourceHTTP)
}

// RecordEventBatch records several submissions, continuing past failures.
// It returns how many were recorded along with every failure joined.
func (s *GameService) RecordEventBatch(ctx context.Context, batch domain.BatchRecordEvents, source string) (int, error) {
	var errs []error
	recorded := 0
	for i, req := range batch.Events {
		if _, err := s.record(ctx, req, source); err != nil {
			s.logger.Error("failed to record event in batch",
				"game_id", req.GameID,
				"type", req.Kind,
				"error", err,
			)
			errs = append(errs, fmt.Errorf("event %d: %w", i, err))
			continue
		}
		recorded++
	}
	return recorded, errors.Join(errs...)
}

func (s *GameService) record(ctx context.Context, req domain.RecordEventRequest, source string) (*domain.Event, error) {
	event, err := s.validateAndAppend(ctx, req)
	if err != nil {
		s.metrics.RecordRejection(rejectionReason(err))
		return nil, err
	}
	s.metrics.RecordEvent(string(event.Kind), source)

	s.invalidateReport(ctx, event.GameID)
	if s.cache != nil {
		if points := event.Kind.Points(); points > 0 {
			if _, err := s.cache.AddPoints(ctx, event.GameID, event.Payload.PlayerID, points); err != nil {
				s.logger.Warn("failed to update scoring leaders", "game_id", event.GameID, "error", err)
			}
		}
	}
	if s.hub != nil {
		s.hub.BroadcastEvent(*event)
	}
	return event, nil
}

func (s *GameService) validateAndAppend(ctx context.Context, req domain.RecordEventRequest) (*domain.Event, error) {
	if !req.Kind.Valid() {
		return nil, fmt.Errorf("%w: unknown type %q", domain.ErrInvalidEvent, req.Kind)
	}
	if req.GameClockSeconds < 0 {
		return nil, fmt.Errorf("%w: game clock must not be negative", domain.ErrInvalidEvent)
	}

	s.recordMu.Lock()
	defer s.recordMu.Unlock()

	game, err := s.store.GetGame(ctx, req.GameID)
	if err != nil {
		return nil, err
	}
	if game.Status != domain.GameStatusInProgress {
		return nil, domain.ErrGameNotLive
	}

	quarter := req.Quarter
	if quarter == 0 {
		quarter = game.CurrentQuarter
	}
	if quarter < 1 || quarter > domain.QuarterCount {
		return nil, fmt.Errorf("%w: quarter must be between 1 and %d", domain.ErrInvalidEvent, domain.QuarterCount)
	}

	roster, err := s.store.ListPlayers(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing players: %w", err)
	}
	players := domain.PlayerIndex(roster)

	payload := domain.EventPayload{GameClockSeconds: req.GameClockSeconds}
	if req.Kind == domain.KindSubstitution {
		if err := s.validateSubstitution(ctx, game, roster, req); err != nil {
			return nil, err
		}
		payload.Out = req.Out
		payload.In = req.In
	} else {
		player, ok := players[req.PlayerID]
		if !ok {
			return nil, fmt.Errorf("%w: player %d is not on the roster", domain.ErrInvalidEvent, req.PlayerID)
		}
		payload.PlayerID = player.ID
		payload.PlayerNumber = player.Number
		payload.PlayerName = player.Name

		if req.ShotZone != "" {
			if !req.Kind.IsFieldGoal() {
				return nil, fmt.Errorf("%w: shot zone only applies to field goals", domain.ErrInvalidEvent)
			}
			if !req.ShotZone.Valid() {
				return nil, fmt.Errorf("%w: unknown shot zone %q", domain.ErrInvalidEvent, req.ShotZone)
			}
			details := req.ShotZone.Details()
			payload.ShotZone = req.ShotZone
			payload.ShotDetails = &details
		}
	}

	event, err := s.store.AppendEvent(ctx, domain.Event{
		GameID:    game.ID,
		Quarter:   quarter,
		Kind:      req.Kind,
		Payload:   payload,
		Timestamp: s.now(),
	})
	if err != nil {
		return nil, fmt.Errorf("appending event: %w", err)
	}
	return event, nil
}

func (s *GameService) validateSubstitution(ctx context.Context, game *domain.Game, roster []domain.Player, req domain.RecordEventRequest) error {
	if req.ShotZone != "" || req.PlayerID != 0 {
		return fmt.Errorf("%w: substitutions carry only out and in", domain.ErrInvalidEvent)
	}
	if req.Out == 0 || req.In == 0 || req.Out == req.In {
		return fmt.Errorf("%w: substitution needs two different players", domain.ErrInvalidEvent)
	}

	events, err := s.store.ListEvents(ctx, game.ID)
	if err != nil {
		return fmt.Errorf("listing events: %w", err)
	}
	lineup := stats.OnCourt(game.Starters, roster, events)

	if !stats.IsOnCourt(lineup, req.Out) {
		return fmt.Errorf("%w: player %d is not on court", domain.ErrInvalidEvent, req.Out)
	}
	if _, ok := domain.PlayerIndex(roster)[req.In]; !ok {
		return fmt.Errorf("%w: player %d is not on the roster", domain.ErrInvalidEvent, req.In)
	}
	if stats.IsOnCourt(lineup, req.In) {
		return fmt.Errorf("%w: player %d is already on court", domain.ErrInvalidEvent, req.In)
	}
	return nil
}

// ListEvents returns a game's events in chronological order
func (s *GameService) ListEvents(ctx context.Context, gameID int64) ([]domain.Event, error) {
	events, err := s.store.ListEvents(ctx, gameID)
	if err != nil {
		return nil, err
	}
	return domain.SortChronological(events), nil
}

func rejectionReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrGameNotFound):
		return "game_not_found"
	case errors.Is(err, domain.ErrGameNotLive):
		return "game_not_live"
	case errors.Is(err, domain.ErrInvalidEvent):
		return "invalid_event"
	default:
		return "internal"
	}
}
