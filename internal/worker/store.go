package worker

import (
	"context"
	"errors"
	"fmt"

	"github.com/aescanero/dago-libs/pkg/domain/state"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// ErrStateNotFound is returned when an execution has no stored state
var ErrStateNotFound = errors.New("state not found")

// RedisStateStore reads graph state saved by the orchestrator
type RedisStateStore struct {
	client *redis.Client
	logger *zap.Logger
}

// NewRedisStateStore creates a new Redis state store
func NewRedisStateStore(client *redis.Client, logger *zap.Logger) *RedisStateStore {
	return &RedisStateStore{
		client: client,
		logger: logger,
	}
}

// Load loads graph state
func (s *RedisStateStore) Load(ctx context.Context, executionID string) (state.State, error) {
	key := stateKey(executionID)

	// Get state from Redis
	data, err := s.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("execution %s: %w", executionID, ErrStateNotFound)
		}
		return nil, fmt.Errorf("failed to load state: %w", err)
	}

	var st map[string]interface{}
	if err := decodeJSON(data, &st); err != nil {
		return nil, fmt.Errorf("failed to unmarshal state: %w", err)
	}

	return state.State(normalizeMap(st)), nil
}

func stateKey(executionID string) string {
	return fmt.Sprintf("graph:state:%s", executionID)
}
