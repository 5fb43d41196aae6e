package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// kv is the subset of *redis.Client the store needs.
type kv interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
	Ping(ctx context.Context) *redis.StatusCmd
}

// Redis keeps the record as a JSON string under a single key.
type Redis struct {
	client kv
	key    string
	logger *slog.Logger
	closer func() error
}

// DialRedis creates a lazily connecting client for addr.
func DialRedis(addr string, key string, logger *slog.Logger) *Redis {
	client := redis.NewClient(&redis.Options{Addr: addr})
	r := NewRedis(client, key, logger)
	r.closer = client.Close
	return r
}

func NewRedis(client kv, key string, logger *slog.Logger) *Redis {
	if key == "" {
		key = DefaultKey
	}
	return &Redis{client: client, key: key, logger: logger}
}

func (r *Redis) Save(ctx context.Context, transcript string) error {
	data, err := encode(transcript)
	if err != nil {
		return err
	}
	if err := r.client.Set(ctx, r.key, string(data), 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", r.key, err)
	}
	return nil
}

func (r *Redis) Load(ctx context.Context) (string, bool) {
	raw, err := r.client.Get(ctx, r.key).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			logWarn(r.logger, "read stored transcript", "key", r.key, "error", err.Error())
		}
		return "", false
	}

	transcript, ok, err := decode([]byte(raw))
	if err != nil {
		logWarn(r.logger, "ignore malformed stored transcript", "key", r.key, "error", err.Error())
		return "", false
	}
	return transcript, ok
}

func (r *Redis) Clear(ctx context.Context) error {
	if err := r.client.Del(ctx, r.key).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", r.key, err)
	}
	return nil
}

func (r *Redis) Check(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return nil
}

func (r *Redis) Close() error {
	if r.closer == nil {
		return nil
	}
	return r.closer()
}
