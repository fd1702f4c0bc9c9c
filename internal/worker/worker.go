package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/aescanero/dago-node-eval/internal/config"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// StreamClient is the subset of the Redis client the worker uses
type StreamClient interface {
	XGroupCreateMkStream(ctx context.Context, stream, group, start string) *redis.StatusCmd
	XReadGroup(ctx context.Context, a *redis.XReadGroupArgs) *redis.XStreamSliceCmd
	XAdd(ctx context.Context, a *redis.XAddArgs) *redis.StringCmd
	XAck(ctx context.Context, stream, group string, ids ...string) *redis.IntCmd
}

// Worker consumes evaluation requests from a Redis stream
type Worker struct {
	id            string
	config        *config.Config
	redisClient   StreamClient
	processor     *Processor
	logger        *zap.Logger
	ctx           context.Context
	cancel        context.CancelFunc
	wg            sync.WaitGroup
	streamKey     string
	consumerGroup string
	resultStream  string
}

// NewWorker creates a new worker
func NewWorker(
	cfg *config.Config,
	redisClient StreamClient,
	processor *Processor,
	logger *zap.Logger,
) *Worker {
	ctx, cancel := context.WithCancel(context.Background())

	return &Worker{
		id:            cfg.WorkerID,
		config:        cfg,
		redisClient:   redisClient,
		processor:     processor,
		logger:        logger,
		ctx:           ctx,
		cancel:        cancel,
		streamKey:     cfg.StreamKey,
		consumerGroup: cfg.ConsumerGroup,
		resultStream:  cfg.ResultStream,
	}
}

// Start starts the worker
func (w *Worker) Start() error {
	w.logger.Info("starting eval worker",
		zap.String("worker_id", w.id),
		zap.String("stream_key", w.streamKey),
		zap.String("consumer_group", w.consumerGroup),
	)

	// Create consumer group if it doesn't exist
	if err := w.ensureConsumerGroup(); err != nil {
		return fmt.Errorf("failed to ensure consumer group: %w", err)
	}

	w.wg.Add(1)
	go w.processWork()

	w.logger.Info("eval worker started", zap.String("worker_id", w.id))
	return nil
}

// Stop stops the worker and waits for the in-flight message, bounded by ctx
func (w *Worker) Stop(ctx context.Context) error {
	w.logger.Info("stopping eval worker", zap.String("worker_id", w.id))

	w.cancel()

	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		w.logger.Info("eval worker stopped", zap.String("worker_id", w.id))
		return nil
	case <-ctx.Done():
		return fmt.Errorf("worker did not stop in time: %w", ctx.Err())
	}
}

// ensureConsumerGroup creates the consumer group if it doesn't exist
func (w *Worker) ensureConsumerGroup() error {
	err := w.redisClient.XGroupCreateMkStream(w.ctx, w.streamKey, w.consumerGroup, "0").Err()
	switch {
	case err == nil:
	case strings.HasPrefix(err.Error(), "BUSYGROUP"):
		w.logger.Debug("consumer group already exists", zap.String("group", w.consumerGroup))
		return nil
	default:
		return fmt.Errorf("failed to create consumer group: %w", err)
	}

	w.logger.Info("created consumer group",
		zap.String("group", w.consumerGroup),
		zap.String("stream", w.streamKey),
	)
	return nil
}

// processWork reads one message at a time until the worker is stopped
func (w *Worker) processWork() {
	defer w.wg.Done()

	for w.ctx.Err() == nil {
		messages, err := w.read()
		if err != nil {
			w.logger.Error("failed to read from stream", zap.Error(err))
			select {
			case <-w.ctx.Done():
			case <-time.After(time.Second):
			}
			continue
		}

		for _, message := range messages {
			w.handleMessage(message)
		}
	}

	w.logger.Info("work processing loop stopped")
}

// read blocks up to BlockTime for new messages. An empty read or a
// cancelled worker yields no messages and no error.
func (w *Worker) read() ([]redis.XMessage, error) {
	streams, err := w.redisClient.XReadGroup(w.ctx, &redis.XReadGroupArgs{
		Group:    w.consumerGroup,
		Consumer: w.id,
		Streams:  []string{w.streamKey, ">"},
		Count:    1,
		Block:    w.config.BlockTime,
	}).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) || w.ctx.Err() != nil {
			return nil, nil
		}
		return nil, err
	}

	var messages []redis.XMessage
	for _, stream := range streams {
		messages = append(messages, stream.Messages...)
	}
	return messages, nil
}

// handleMessage handles a single evaluation request message
func (w *Worker) handleMessage(message redis.XMessage) {
	messageID := message.ID
	defer w.acknowledgeMessage(messageID)

	request, err := parseWorkRequest(message.Values)
	if err != nil {
		w.logger.Error("failed to parse work request",
			zap.String("message_id", messageID),
			zap.Error(err),
		)
		return
	}

	w.logger.Debug("processing request",
		zap.String("message_id", messageID),
		zap.String("execution_id", request.ExecutionID),
		zap.String("kind", string(request.Kind)),
		zap.String("language", request.Language),
	)

	// A message already read is finished even when the worker is stopping
	ctx := context.WithoutCancel(w.ctx)

	result := w.processor.Process(ctx, request)

	stream := w.resultStream
	if result.Failed() {
		stream = errorStream(w.resultStream)
		w.logger.Warn("request failed",
			zap.String("execution_id", request.ExecutionID),
			zap.String("node_id", request.NodeID),
			zap.String("error", result.Error),
		)
	}

	if err := w.publish(ctx, stream, result); err != nil {
		w.logger.Error("failed to publish result",
			zap.String("execution_id", request.ExecutionID),
			zap.String("result_id", result.ID),
			zap.Error(err),
		)
		return
	}

	w.logger.Info("published result",
		zap.String("execution_id", request.ExecutionID),
		zap.String("result_id", result.ID),
		zap.Bool("accepted", result.Accepted),
		zap.Int64("duration_ms", result.DurationMS),
	)
}

// publish adds the result to a stream, retrying up to MaxRetries times
func (w *Worker) publish(ctx context.Context, stream string, result *Result) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}

	args := &redis.XAddArgs{
		Stream: stream,
		Values: map[string]interface{}{
			"data": string(data),
		},
	}

	for attempt := 0; ; attempt++ {
		err = w.redisClient.XAdd(ctx, args).Err()
		if err == nil {
			return nil
		}
		if attempt >= w.config.MaxRetries {
			return fmt.Errorf("failed to publish to stream %s: %w", stream, err)
		}
		w.logger.Warn("retrying publish",
			zap.String("stream", stream),
			zap.Int("attempt", attempt+1),
			zap.Error(err),
		)
		time.Sleep(backoff(attempt))
	}
}

// acknowledgeMessage acknowledges a message from the stream
func (w *Worker) acknowledgeMessage(messageID string) {
	err := w.redisClient.XAck(context.Background(), w.streamKey, w.consumerGroup, messageID).Err()
	if err != nil {
		w.logger.Error("failed to acknowledge message",
			zap.String("message_id", messageID),
			zap.Error(err),
		)
	}
}

func errorStream(resultStream string) string {
	return resultStream + ".errors"
}

func backoff(attempt int) time.Duration {
	return time.Duration(attempt+1) * 100 * time.Millisecond
}
