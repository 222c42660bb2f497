package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jwalitptl/alert-engine/internal/model"
	"github.com/jwalitptl/alert-engine/internal/repository"
)

const (
	keySettings     = "alertengine:quiet_hours"
	keyInteractions = "alertengine:interactions"
	keyCounters     = "alertengine:counters"
)

// Store persists the quiet-hours record, the bounded interaction log and
// the rolling diagnostic counters as JSON values in Redis.
type Store struct {
	client *redis.Client
}

type Config struct {
	URL          string
	MaxRetries   int
	RetryBackoff time.Duration
	PoolSize     int
	MinIdleConns int
}

func NewStore(config Config) (*Store, error) {
	opts, err := redis.ParseURL(config.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	// Configure connection pooling
	opts.MaxRetries = config.MaxRetries
	opts.MinRetryBackoff = config.RetryBackoff
	opts.PoolSize = config.PoolSize
	opts.MinIdleConns = config.MinIdleConns

	client := redis.NewClient(opts)

	// Test connection
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &Store{client: client}, nil
}

var _ repository.Store = (*Store)(nil)

func (s *Store) SaveSettings(ctx context.Context, settings model.QuietHoursSettings) error {
	payload, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}
	return s.client.Set(ctx, keySettings, payload, 0).Err()
}

func (s *Store) LoadSettings(ctx context.Context) (model.QuietHoursSettings, bool, error) {
	payload, err := s.client.Get(ctx, keySettings).Bytes()
	if err == redis.Nil {
		return model.QuietHoursSettings{}, false, nil
	}
	if err != nil {
		return model.QuietHoursSettings{}, false, err
	}
	var settings model.QuietHoursSettings
	if err := json.Unmarshal(payload, &settings); err != nil {
		return model.QuietHoursSettings{}, false, fmt.Errorf("failed to unmarshal settings: %w", err)
	}
	return settings, true, nil
}

func (s *Store) SaveInteractions(ctx context.Context, records []model.Interaction) error {
	payload, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("failed to marshal interaction log: %w", err)
	}
	return s.client.Set(ctx, keyInteractions, payload, 0).Err()
}

func (s *Store) LoadInteractions(ctx context.Context) ([]model.Interaction, error) {
	payload, err := s.client.Get(ctx, keyInteractions).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var records []model.Interaction
	if err := json.Unmarshal(payload, &records); err != nil {
		return nil, fmt.Errorf("failed to unmarshal interaction log: %w", err)
	}
	return records, nil
}

func (s *Store) IncrCounter(ctx context.Context, name string, delta int64) (int64, error) {
	return s.client.HIncrBy(ctx, keyCounters, name, delta).Result()
}

func (s *Store) Counters(ctx context.Context) (map[string]int64, error) {
	raw, err := s.client.HGetAll(ctx, keyCounters).Result()
	if err != nil {
		return nil, err
	}
	out := make(map[string]int64, len(raw))
	for name, v := range raw {
		var n int64
		if _, err := fmt.Sscan(v, &n); err != nil {
			continue
		}
		out[name] = n
	}
	return out, nil
}

func (s *Store) Close() error {
	return s.client.Close()
}
