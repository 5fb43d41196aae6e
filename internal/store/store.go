// Package store persists the most recent transcript across restarts.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
)

// DefaultKey names the persisted record in every backend.
const DefaultKey = "scriber-data"

// Store is a single-slot transcript persistence layer. Load never surfaces
// failures: unreadable or malformed data is reported as absent.
type Store interface {
	Save(ctx context.Context, transcript string) error
	Load(ctx context.Context) (string, bool)
	Clear(ctx context.Context) error
}

// Checker is implemented by backends that can verify they are reachable.
type Checker interface {
	Check(ctx context.Context) error
}

// Record is the persisted payload shape.
type Record struct {
	Transcript string `json:"transcript"`
}

func encode(transcript string) ([]byte, error) {
	data, err := json.Marshal(Record{Transcript: transcript})
	if err != nil {
		return nil, fmt.Errorf("encode record: %w", err)
	}
	return data, nil
}

// decode reports ok=false for an empty transcript.
func decode(raw []byte) (string, bool, error) {
	if len(strings.TrimSpace(string(raw))) == 0 {
		return "", false, nil
	}
	var record Record
	if err := json.Unmarshal(raw, &record); err != nil {
		return "", false, fmt.Errorf("decode record: %w", err)
	}
	if record.Transcript == "" {
		return "", false, nil
	}
	return record.Transcript, true, nil
}

// Config selects and configures a backend.
type Config struct {
	Backend   string
	Path      string
	RedisAddr string
	Key       string
}

// Open builds the configured backend.
func Open(cfg Config, logger *slog.Logger) (Store, error) {
	key := strings.TrimSpace(cfg.Key)
	if key == "" {
		key = DefaultKey
	}

	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case "", "file":
		if strings.TrimSpace(cfg.Path) == "" {
			return nil, fmt.Errorf("store.path is required for the file backend")
		}
		return NewFile(cfg.Path, logger), nil
	case "redis":
		if strings.TrimSpace(cfg.RedisAddr) == "" {
			return nil, fmt.Errorf("store.redis_addr is required for the redis backend")
		}
		return DialRedis(cfg.RedisAddr, key, logger), nil
	case "memory":
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unsupported store backend %q", cfg.Backend)
	}
}

func logWarn(logger *slog.Logger, msg string, args ...any) {
	if logger == nil {
		return
	}
	logger.Warn(msg, args...)
}
