package kafka

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/IBM/sarama"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/statsbasket/internal/config"
	"github.com/statsbasket/internal/domain"
	"github.com/statsbasket/internal/metrics"
)

type fakeRecorder struct {
	mu      sync.Mutex
	batches [][]domain.RecordEventRequest
	err     error
}

func (r *fakeRecorder) RecordEventBatch(ctx context.Context, batch domain.BatchRecordEvents, source string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	events := append([]domain.RecordEventRequest{}, batch.Events...)
	r.batches = append(r.batches, events)
	if r.err != nil {
		return 0, r.err
	}
	return len(events), nil
}

type fakeSession struct {
	ctx    context.Context
	mu     sync.Mutex
	marked []int64
}

func (s *fakeSession) Claims() map[string][]int32 { return nil }
func (s *fakeSession) MemberID() string { return "member" }
func (s *fakeSession) GenerationID() int32 { return 1 }
func (s *fakeSession) MarkOffset(topic string, partition int32, offset int64, _ string) {}
func (s *fakeSession) Commit() {}
func (s *fakeSession) ResetOffset(topic string, partition int32, offset int64, _ string) {}
func (s *fakeSession) Context() context.Context { return s.ctx }
func (s *fakeSession) MarkMessage(msg *sarama.ConsumerMessage, _ string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.marked = append(s.marked, msg.Offset)
}

type fakeClaim struct {
	messages chan *sarama.ConsumerMessage
}

func (c *fakeClaim) Topic() string { return "game-events" }
func (c *fakeClaim) Partition() int32 { return 0 }
func (c *fakeClaim) InitialOffset() int64 { return 0 }
func (c *fakeClaim) HighWaterMarkOffset() int64 { return 0 }
func (c *fakeClaim) Messages() <-chan *sarama.ConsumerMessage { return c.messages }

func newTestConsumer(recorder EventRecorder, batchSize int) *Consumer {
	cfg := config.DefaultConfig().Kafka
	cfg.BatchSize = batchSize
	cfg.BatchTimeout = time.Hour
	return &Consumer{
		config:   &cfg,
		recorder: recorder,
		metrics:  metrics.New(),
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func TestDecodeMessage(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		want    int
		wantErr bool
	}{
		{"single event", `{"game_id":1,"type":"2PM","player_id":3,"shot_zone":"paint"}`, 1, false},
		{"envelope", `{"events":[{"game_id":1,"type":"AST","player_id":2},{"game_id":1,"type":"SUB","out":1,"in":6}]}`, 2, false},
		{"not json", `scorer tablet`, 0, true},
		{"missing game", `{"type":"AST","player_id":2}`, 0, true},
		{"missing type in envelope", `{"events":[{"game_id":1,"player_id":2}]}`, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			events, err := DecodeMessage([]byte(tt.value))
			if tt.wantErr {
				assert.ErrorIs(t, err, domain.ErrInvalidEvent)
				return
			}
			require.NoError(t, err)
			assert.Len(t, events, tt.want)
		})
	}

	events, err := DecodeMessage([]byte(`{"game_id":4,"type":"SUB","out":1,"in":6,"quarter":3}`))
	require.NoError(t, err)
	assert.Equal(t, domain.RecordEventRequest{GameID: 4, Kind: domain.KindSubstitution, Out: 1, In: 6, Quarter: 3}, events[0])
}

func TestConsumeClaim_BatchesAndMarks(t *testing.T) {
	recorder := &fakeRecorder{}
	c := newTestConsumer(recorder, 2)
	h := &consumerGroupHandler{consumer: c, ready: make(chan bool)}

	session := &fakeSession{ctx: context.Background()}
	claim := &fakeClaim{messages: make(chan *sarama.ConsumerMessage, 4)}
	claim.messages <- &sarama.ConsumerMessage{Offset: 1, Value: []byte(`{"game_id":1,"type":"AST","player_id":2}`)}
	claim.messages <- &sarama.ConsumerMessage{Offset: 2, Value: []byte(`garbage`)}
	claim.messages <- &sarama.ConsumerMessage{Offset: 3, Value: []byte(`{"game_id":1,"type":"STL","player_id":3}`)}
	claim.messages <- &sarama.ConsumerMessage{Offset: 4, Value: []byte(`{"game_id":1,"type":"BLK","player_id":4}`)}
	close(claim.messages)

	require.NoError(t, h.ConsumeClaim(session, claim))

	require.Len(t, recorder.batches, 2)
	assert.Len(t, recorder.batches[0], 2, "flushed when full")
	assert.Len(t, recorder.batches[1], 1, "remainder flushed when the claim closes")
	assert.Equal(t, domain.KindBlock, recorder.batches[1][0].Kind)
	assert.Equal(t, []int64{1, 2, 3, 4}, session.marked, "bad messages are still marked")

	assert.Equal(t, 2.0, testutil.ToFloat64(c.metrics.KafkaBatches.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.metrics.EventsRejected.WithLabelValues("undecodable")))
}

func TestConsumeClaim_FlushesOnSessionEnd(t *testing.T) {
	recorder := &fakeRecorder{err: errors.New("game is not in progress")}
	c := newTestConsumer(recorder, 50)
	h := &consumerGroupHandler{consumer: c, ready: make(chan bool)}

	ctx, cancel := context.WithCancel(context.Background())
	session := &fakeSession{ctx: ctx}
	claim := &fakeClaim{messages: make(chan *sarama.ConsumerMessage, 1)}
	claim.messages <- &sarama.ConsumerMessage{Offset: 7, Value: []byte(`{"game_id":2,"type":"TOV","player_id":5}`)}

	done := make(chan error, 1)
	go func() { done <- h.ConsumeClaim(session, claim) }()

	require.Eventually(t, func() bool {
		session.mu.Lock()
		defer session.mu.Unlock()
		return len(session.marked) == 1
	}, time.Second, 10*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("ConsumeClaim did not return after the session ended")
	}

	require.Len(t, recorder.batches, 1)
	assert.Equal(t, 1.0, testutil.ToFloat64(c.metrics.KafkaBatches.WithLabelValues("failed")))
}
