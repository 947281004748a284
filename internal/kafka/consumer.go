package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/IBM/sarama"

	"github.com/statsbasket/internal/config"
	"github.com/statsbasket/internal/domain"
	"github.com/statsbasket/internal/metrics"
)

// EventRecorder appends batches of scorer events to the log
type EventRecorder interface {
	RecordEventBatch(ctx context.Context, batch domain.BatchRecordEvents, source string) (int, error)
}

// Consumer consumes game event messages from Kafka
type Consumer struct {
	config        *config.KafkaConfig
	recorder      EventRecorder
	metrics       *metrics.Registry
	logger        *slog.Logger
	consumerGroup sarama.ConsumerGroup
	ctx           context.Context
	cancel        context.CancelFunc
	wg            sync.WaitGroup
	ready         chan bool
}

// NewConsumer creates a new Kafka consumer
func NewConsumer(cfg *config.KafkaConfig, recorder EventRecorder, reg *metrics.Registry, logger *slog.Logger) (*Consumer, error) {
	saramaConfig := sarama.NewConfig()
	saramaConfig.Version = sarama.V3_0_0_0
	saramaConfig.Consumer.Group.Rebalance.GroupStrategies = []sarama.BalanceStrategy{sarama.NewBalanceStrategyRoundRobin()}
	saramaConfig.Consumer.Offsets.Initial = sarama.OffsetNewest
	saramaConfig.Consumer.Return.Errors = true

	consumerGroup, err := sarama.NewConsumerGroup(cfg.Brokers, cfg.GroupID, saramaConfig)
	if err != nil {
		return nil, fmt.Errorf("creating consumer group: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Consumer{
		config:        cfg,
		recorder:      recorder,
		metrics:       reg,
		logger:        logger,
		consumerGroup: consumerGroup,
		ctx:           ctx,
		cancel:        cancel,
		ready:         make(chan bool),
	}, nil
}

// Start begins consuming messages from Kafka
func (c *Consumer) Start() error {
	c.logger.Info("starting Kafka consumer",
		"brokers", c.config.Brokers,
		"topic", c.config.Topic,
		"group_id", c.config.GroupID,
	)

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		for {
			handler := &consumerGroupHandler{
				consumer: c,
				ready:    c.ready,
			}

			if err := c.consumerGroup.Consume(c.ctx, []string{c.config.Topic}, handler); err != nil {
				if errors.Is(err, sarama.ErrClosedConsumerGroup) {
					return
				}
				c.logger.Error("error from consumer", "error", err)
				select {
				case <-c.ctx.Done():
				case <-time.After(c.config.RetryDelay):
				}
			}

			if c.ctx.Err() != nil {
				return
			}

			c.ready = make(chan bool)
		}
	}()

	<-c.ready
	c.logger.Info("Kafka consumer ready")

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		for {
			select {
			case <-c.ctx.Done():
				return
			case err, ok := <-c.consumerGroup.Errors():
				if !ok {
					return
				}
				c.logger.Error("consumer group error", "error", err)
			}
		}
	}()

	return nil
}

// Stop gracefully stops the consumer
func (c *Consumer) Stop() error {
	c.logger.Info("stopping Kafka consumer")
	c.cancel()
	c.wg.Wait()
	return c.consumerGroup.Close()
}

// processBatch hands the buffered events to the recorder. Individual
// rejections are logged but do not fail the batch.
func (c *Consumer) processBatch(batch []domain.RecordEventRequest) {
	if len(batch) == 0 {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	recorded, err := c.recorder.RecordEventBatch(ctx, domain.BatchRecordEvents{Events: batch}, domain.SourceKafka)
	switch {
	case err == nil:
		c.metrics.RecordKafkaBatch("ok")
		c.logger.Debug("processed batch", "batch_size", len(batch))
	case recorded > 0:
		c.metrics.RecordKafkaBatch("partial")
		c.logger.Warn("batch partially recorded",
			"batch_size", len(batch),
			"recorded", recorded,
			"error", err,
		)
	default:
		c.metrics.RecordKafkaBatch("failed")
		c.logger.Error("failed to process batch", "error", err, "batch_size", len(batch))
	}
}

// consumerGroupHandler implements sarama.ConsumerGroupHandler
type consumerGroupHandler struct {
	consumer *Consumer
	ready    chan bool
}

// Setup is called at the beginning of a new session
func (h *consumerGroupHandler) Setup(sarama.ConsumerGroupSession) error {
	close(h.ready)
	return nil
}

// Cleanup is called at the end of a session
func (h *consumerGroupHandler) Cleanup(sarama.ConsumerGroupSession) error {
	return nil
}

// ConsumeClaim buffers messages from a partition and flushes them when the
// batch is full or the batch timeout fires
func (h *consumerGroupHandler) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	cfg := h.consumer.config
	batch := make([]domain.RecordEventRequest, 0, cfg.BatchSize)
	batchTimer := time.NewTimer(cfg.BatchTimeout)
	defer batchTimer.Stop()

	flush := func() {
		h.consumer.processBatch(batch)
		batch = batch[:0]
	}

	for {
		select {
		case <-session.Context().Done():
			flush()
			return nil

		case <-batchTimer.C:
			flush()
			batchTimer.Reset(cfg.BatchTimeout)

		case message, ok := <-claim.Messages():
			if !ok {
				flush()
				return nil
			}

			events, err := DecodeMessage(message.Value)
			if err != nil {
				h.consumer.logger.Warn("dropping undecodable message",
					"error", err,
					"offset", message.Offset,
					"partition", message.Partition,
				)
				h.consumer.metrics.RecordRejection("undecodable")
				session.MarkMessage(message, "")
				continue
			}

			batch = append(batch, events...)
			session.MarkMessage(message, "")

			if len(batch) >= cfg.BatchSize {
				flush()
				batchTimer.Reset(cfg.BatchTimeout)
			}
		}
	}
}

// DecodeMessage parses a message value holding either one event or an
// {"events": [...]} envelope
func DecodeMessage(value []byte) ([]domain.RecordEventRequest, error) {
	var envelope domain.BatchRecordEvents
	if err := json.Unmarshal(value, &envelope); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidEvent, err)
	}

	events := envelope.Events
	if len(events) == 0 {
		var single domain.RecordEventRequest
		if err := json.Unmarshal(value, &single); err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrInvalidEvent, err)
		}
		events = []domain.RecordEventRequest{single}
	}

	for i, e := range events {
		if e.GameID <= 0 || e.Kind == "" {
			return nil, fmt.Errorf("%w: message event %d needs game_id and type", domain.ErrInvalidEvent, i)
		}
	}
	return events, nil
}
