package worker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/statsbasket/internal/config"
)

// ReportSource rebuilds reports and scoring leaders from the event log
type ReportSource interface {
	RefreshLiveReports(ctx context.Context) (int, error)
	WarmScoring(ctx context.Context) error
}

// ReportRefresher periodically republishes the reports of in-progress
// games so cached copies and live subscribers never drift far from the log
type ReportRefresher struct {
	source  ReportSource
	config  *config.RefreshConfig
	logger  *slog.Logger
	stopCh  chan struct{}
	doneCh  chan struct{}
	mu      sync.Mutex
	running bool
}

// NewReportRefresher creates a new report refresher
func NewReportRefresher(source ReportSource, cfg *config.RefreshConfig, logger *slog.Logger) *ReportRefresher {
	return &ReportRefresher{
		source: source,
		config: cfg,
		logger: logger,
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}
}

// Start warms the scoring leaders and begins the refresh loop
func (w *ReportRefresher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.mu.Unlock()

	if err := w.source.WarmScoring(ctx); err != nil {
		w.logger.Warn("failed to warm scoring leaders", "error", err)
	}

	w.logger.Info("report refresher started", "interval", w.config.Interval)

	go w.run(ctx)
	return nil
}

// Stop stops the refresh loop and waits for it to exit
func (w *ReportRefresher) Stop() error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return nil
	}
	w.mu.Unlock()

	close(w.stopCh)
	<-w.doneCh

	w.mu.Lock()
	w.running = false
	w.mu.Unlock()

	w.logger.Info("report refresher stopped")
	return nil
}

func (w *ReportRefresher) run(ctx context.Context) {
	defer close(w.doneCh)

	ticker := time.NewTicker(w.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case <-ticker.C:
			w.RunOnce(ctx)
		}
	}
}

// RunOnce runs a single refresh cycle
func (w *ReportRefresher) RunOnce(ctx context.Context) {
	start := time.Now()
	refreshed, err := w.source.RefreshLiveReports(ctx)
	if err != nil {
		w.logger.Error("report refresh failed", "error", err)
		return
	}
	w.logger.Debug("report refresh completed",
		"duration", time.Since(start),
		"games", refreshed,
	)
}

// IsRunning returns whether the refresher is currently running
func (w *ReportRefresher) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}
