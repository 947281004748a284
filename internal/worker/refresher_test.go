package worker

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/statsbasket/internal/config"
)

type countingSource struct {
	refreshes atomic.Int32
	warms     atomic.Int32
	warmErr   error
}

func (s *countingSource) RefreshLiveReports(ctx context.Context) (int, error) {
	s.refreshes.Add(1)
	return 1, nil
}

func (s *countingSource) WarmScoring(ctx context.Context) error {
	s.warms.Add(1)
	return s.warmErr
}

func newRefresher(source ReportSource, interval time.Duration) *ReportRefresher {
	return NewReportRefresher(source, &config.RefreshConfig{Interval: interval, Enabled: true},
		slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestReportRefresher_RefreshesOnInterval(t *testing.T) {
	source := &countingSource{}
	w := newRefresher(source, 10*time.Millisecond)

	require.NoError(t, w.Start(context.Background()))
	require.NoError(t, w.Start(context.Background()), "second start is a no-op")
	assert.True(t, w.IsRunning())
	assert.Equal(t, int32(1), source.warms.Load())

	require.Eventually(t, func() bool { return source.refreshes.Load() >= 2 }, time.Second, 5*time.Millisecond)

	require.NoError(t, w.Stop())
	assert.False(t, w.IsRunning())
	require.NoError(t, w.Stop())

	stopped := source.refreshes.Load()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, stopped, source.refreshes.Load())
}

func TestReportRefresher_WarmFailureDoesNotBlockStart(t *testing.T) {
	source := &countingSource{warmErr: errors.New("redis down")}
	w := newRefresher(source, time.Hour)

	require.NoError(t, w.Start(context.Background()))
	w.RunOnce(context.Background())
	assert.Equal(t, int32(1), source.refreshes.Load())
	require.NoError(t, w.Stop())
}

func TestReportRefresher_StopsWithContext(t *testing.T) {
	source := &countingSource{}
	w := newRefresher(source, time.Hour)
	ctx, cancel := context.WithCancel(context.Background())

	require.NoError(t, w.Start(ctx))
	cancel()

	select {
	case <-w.doneCh:
	case <-time.After(time.Second):
		t.Fatal("refresher loop did not exit on context cancel")
	}
}
