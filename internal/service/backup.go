package service

import (
	"context"
	"fmt"

	"github.com/statsbasket/internal/domain"
)

// Export returns every player, game and event as one document
func (s *GameService) Export(ctx context.Context) (*domain.Backup, error) {
	backup, err := s.store.Export(ctx)
	if err != nil {
		return nil, fmt.Errorf("exporting data: %w", err)
	}
	backup.ExportDate = s.now()
	backup.Version = domain.BackupVersion
	return backup, nil
}

// Import validates a backup and replaces all data with it
func (s *GameService) Import(ctx context.Context, backup *domain.Backup) error {
	if backup == nil {
		return fmt.Errorf("%w: empty document", domain.ErrInvalidBackup)
	}
	if err := backup.Validate(s.roster.Starters); err != nil {
		return err
	}

	previous, err := s.store.ListGames(ctx)
	if err != nil {
		return fmt.Errorf("listing games: %w", err)
	}

	s.recordMu.Lock()
	err = s.store.Restore(ctx, *backup)
	s.recordMu.Unlock()
	if err != nil {
		return fmt.Errorf("restoring backup: %w", err)
	}

	for _, g := range previous {
		s.dropGameCache(ctx, g.ID)
	}
	for _, g := range backup.Games {
		s.dropGameCache(ctx, g.ID)
	}
	if err := s.WarmScoring(ctx); err != nil {
		s.logger.Warn("failed to warm scoring after import", "error", err)
	}

	s.logger.Info("backup imported",
		"players", len(backup.Players),
		"games", len(backup.Games),
		"events", len(backup.Events),
	)
	return nil
}
